package db

import (
	"context"
	"net/http"
	"testing"
	"time"

	"chefbazar/models"
	"chefbazar/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestListRequests(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("one queue over both collections", func(mt *mtest.T) {
		newer := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
		older := newer.Add(-time.Hour)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testDB+".chefRequests", mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "userEmail", Value: "b@example.com"},
				{Key: "requestType", Value: models.RequestAdmin},
				{Key: "requestStatus", Value: models.RequestPending},
				{Key: "requestTime", Value: newer},
			},
			bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "userEmail", Value: "a@example.com"},
				{Key: "requestType", Value: models.RequestChef},
				{Key: "requestStatus", Value: models.RequestPending},
				{Key: "requestTime", Value: older},
			},
		))

		got, err := newMockStore(mt).ListRequests(context.Background())
		require.NoError(mt, err)
		require.Len(mt, got, 2)
		assert.Equal(mt, models.RequestAdmin, got[0].RequestType)
		assert.Equal(mt, models.RequestChef, got[1].RequestType)
		assert.True(mt, got[0].RequestTime.Equal(newer))

		cmd := mt.GetStartedEvent().Command
		assert.Equal(mt, "chefRequests", cmd.Lookup("aggregate").StringValue())
		assert.Equal(mt, models.RequestChef, cmd.Lookup("pipeline", "0", "$addFields", "requestType").StringValue())
		assert.Equal(mt, "adminRequests", cmd.Lookup("pipeline", "1", "$unionWith", "coll").StringValue())
		assert.Equal(mt, models.RequestAdmin, cmd.Lookup("pipeline", "1", "$unionWith", "pipeline", "0", "$addFields", "requestType").StringValue())
		assert.Equal(mt, int64(-1), cmd.Lookup("pipeline", "2", "$sort", "requestTime").AsInt64())
	})

	mt.Run("empty queue is an empty list", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testDB+".chefRequests", mtest.FirstBatch))

		got, err := newMockStore(mt).ListRequests(context.Background())
		require.NoError(mt, err)
		assert.NotNil(mt, got)
		assert.Empty(mt, got)
	})
}

func TestResolveRequest(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	id := primitive.NewObjectID().Hex()

	mt.Run("only a pending request moves", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		require.NoError(mt, newMockStore(mt).ResolveRequest(context.Background(), models.RequestAdmin, id, models.RequestApproved))
		ev := mt.GetStartedEvent()
		assert.Equal(mt, "adminRequests", ev.Command.Lookup("update").StringValue())
		stmt := ev.Command.Lookup("updates", "0").Document()
		assert.Equal(mt, models.RequestPending, stmt.Lookup("q", "requestStatus").StringValue())
		assert.Equal(mt, models.RequestApproved, stmt.Lookup("u", "$set", "requestStatus").StringValue())
	})

	mt.Run("already resolved is a conflict", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		err := newMockStore(mt).ResolveRequest(context.Background(), models.RequestChef, id, models.RequestRejected)
		assert.ErrorIs(mt, err, utils.ErrConflict)
	})

	mt.Run("unknown type never reaches the server", func(mt *mtest.T) {
		err := newMockStore(mt).ResolveRequest(context.Background(), "owner", id, models.RequestApproved)
		assert.Equal(mt, http.StatusBadRequest, utils.StatusFor(err))
		assert.Empty(mt, commandNames(mt))
	})
}
