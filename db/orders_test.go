package db

import (
	"context"
	"testing"

	"chefbazar/models"
	"chefbazar/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const ordersNS = testDB + ".orders"

func paidOrder() *models.Order {
	return &models.Order{
		MealID:        primitive.NewObjectID().Hex(),
		FoodName:      "Beef Tehari",
		TransactionID: "pi_3Nx",
		Customer:      models.Customer{Name: "Tanvir", Email: "buyer@example.com"},
		Chef:          models.ChefInfo{Email: "chef@example.com", ChefID: "chef-4242"},
		OrderStatus:   models.OrderPending,
		Quantity:      2,
		Price:         9.5,
		TotalPrice:    19,
	}
}

func TestCreateOrderOnce(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("new payment inserts order and takes stock", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ordersNS, mtest.FirstBatch),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(),
		)
		order := paidOrder()

		id, created, err := newMockStore(mt).CreateOrderOnce(context.Background(), order)
		require.NoError(mt, err)
		assert.True(mt, created)
		assert.Equal(mt, order.ID.Hex(), id)

		events := mt.GetAllStartedEvents()
		var names []string
		for _, ev := range events {
			names = append(names, ev.CommandName)
		}
		require.Equal(mt, []string{"find", "update", "insert", "commitTransaction"}, names)

		find := events[0].Command
		assert.True(mt, find.Lookup("startTransaction").Boolean())
		assert.Equal(mt, "snapshot", find.Lookup("readConcern", "level").StringValue())
		assert.Equal(mt, "pi_3Nx", find.Lookup("filter", "transactionId").StringValue())

		update := events[1].Command
		assert.Equal(mt, "meals", update.Lookup("update").StringValue())
		assert.Equal(mt, int64(-2), update.Lookup("updates", "0", "u", "$inc", "quantity").AsInt64())

		insert := events[2].Command
		assert.Equal(mt, "orders", insert.Lookup("insert").StringValue())
		assert.Equal(mt, "pi_3Nx", insert.Lookup("documents", "0", "transactionId").StringValue())
	})

	mt.Run("known payment returns the stored order untouched", func(mt *mtest.T) {
		stored := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ordersNS, mtest.FirstBatch, bson.D{
				{Key: "_id", Value: stored},
				{Key: "transactionId", Value: "pi_3Nx"},
			}),
			mtest.CreateSuccessResponse(),
		)

		id, created, err := newMockStore(mt).CreateOrderOnce(context.Background(), paidOrder())
		require.NoError(mt, err)
		assert.False(mt, created)
		assert.Equal(mt, stored.Hex(), id)
		assert.Equal(mt, []string{"find", "commitTransaction"}, commandNames(mt))
	})

	mt.Run("missing meal aborts without an order", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ordersNS, mtest.FirstBatch),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateSuccessResponse(),
		)

		_, created, err := newMockStore(mt).CreateOrderOnce(context.Background(), paidOrder())
		assert.ErrorIs(mt, err, utils.ErrNotFound)
		assert.False(mt, created)
		assert.Equal(mt, []string{"find", "update", "abortTransaction"}, commandNames(mt))
	})

	mt.Run("losing a concurrent confirmation returns the winner", func(mt *mtest.T) {
		winner := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ordersNS, mtest.FirstBatch),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateWriteErrorsResponse(duplicateKey()),
			mtest.CreateSuccessResponse(),
			mtest.CreateCursorResponse(0, ordersNS, mtest.FirstBatch, bson.D{
				{Key: "_id", Value: winner},
				{Key: "transactionId", Value: "pi_3Nx"},
			}),
		)

		id, created, err := newMockStore(mt).CreateOrderOnce(context.Background(), paidOrder())
		require.NoError(mt, err)
		assert.False(mt, created)
		assert.Equal(mt, winner.Hex(), id)
		assert.Equal(mt, []string{"find", "update", "insert", "abortTransaction", "find"}, commandNames(mt))
	})

	mt.Run("duplicate with no visible winner is a conflict", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ordersNS, mtest.FirstBatch),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateWriteErrorsResponse(duplicateKey()),
			mtest.CreateSuccessResponse(),
			mtest.CreateCursorResponse(0, ordersNS, mtest.FirstBatch),
		)

		_, _, err := newMockStore(mt).CreateOrderOnce(context.Background(), paidOrder())
		assert.ErrorIs(mt, err, utils.ErrConflict)
	})

	mt.Run("malformed meal id is rejected before a session starts", func(mt *mtest.T) {
		order := paidOrder()
		order.MealID = "meal-1"

		_, _, err := newMockStore(mt).CreateOrderOnce(context.Background(), order)
		assert.ErrorIs(mt, err, utils.ErrNotFound)
		assert.Empty(mt, commandNames(mt))
	})
}

func TestUpdateOrderStatusScopesToChef(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("other chef's order is not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))
		id := primitive.NewObjectID().Hex()

		err := newMockStore(mt).UpdateOrderStatus(context.Background(), id, "chef@example.com", models.OrderAccepted)
		assert.ErrorIs(mt, err, utils.ErrNotFound)

		stmt := mt.GetStartedEvent().Command.Lookup("updates", "0").Document()
		assert.Equal(mt, "chef@example.com", stmt.Lookup("q", "chef.email").StringValue())
		assert.Equal(mt, models.OrderAccepted, stmt.Lookup("u", "$set", "orderStatus").StringValue())
	})
}
