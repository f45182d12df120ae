package db

import (
	"context"
	"errors"
	"fmt"

	"chefbazar/models"
	"chefbazar/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// CreateOrderOnce records order and takes its quantity off the meal in a
// single transaction. If an order with the same transaction id already
// exists nothing is written and the existing id is returned with
// created == false.
func (s *Store) CreateOrderOnce(ctx context.Context, order *models.Order) (string, bool, error) {
	mealID, err := objectID(order.MealID)
	if err != nil {
		return "", false, err
	}

	sess, err := s.Client.StartSession()
	if err != nil {
		return "", false, fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	type outcome struct {
		id      string
		created bool
	}

	res, err := sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		var existing models.Order
		err := s.OrdersCollection.FindOne(sc, bson.M{"transactionId": order.TransactionID}).Decode(&existing)
		if err == nil {
			return outcome{id: existing.ID.Hex()}, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, err
		}

		upd, err := s.MealsCollection.UpdateOne(sc,
			bson.M{"_id": mealID},
			bson.M{"$inc": bson.M{"quantity": -order.Quantity}},
		)
		if err != nil {
			return nil, err
		}
		if upd.MatchedCount == 0 {
			return nil, fmt.Errorf("meal %s: %w", order.MealID, utils.ErrNotFound)
		}

		if order.ID.IsZero() {
			order.ID = primitive.NewObjectID()
		}
		if _, err := s.OrdersCollection.InsertOne(sc, order); err != nil {
			return nil, err
		}
		return outcome{id: order.ID.Hex(), created: true}, nil
	}, txnOpts)

	if err != nil {
		// a concurrent confirmation won the unique index
		if mongo.IsDuplicateKeyError(err) {
			var existing models.Order
			if ferr := s.OrdersCollection.FindOne(ctx, bson.M{"transactionId": order.TransactionID}).Decode(&existing); ferr == nil {
				return existing.ID.Hex(), false, nil
			}
		}
		return "", false, translate(err, "create order")
	}
	out := res.(outcome)
	return out.id, out.created, nil
}

func (s *Store) OrdersByCustomer(ctx context.Context, email string) ([]models.Order, error) {
	orders, err := findAll[models.Order](ctx, s.OrdersCollection, bson.M{"customer.email": email}, newestFirst("createdAt"))
	return orders, translate(err, "orders by customer")
}

func (s *Store) OrdersByChef(ctx context.Context, email string) ([]models.Order, error) {
	orders, err := findAll[models.Order](ctx, s.OrdersCollection, bson.M{"chef.email": email}, newestFirst("createdAt"))
	return orders, translate(err, "orders by chef")
}

func (s *Store) FindOrder(ctx context.Context, id string) (*models.Order, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var order models.Order
	if err := s.OrdersCollection.FindOne(ctx, bson.M{"_id": oid}).Decode(&order); err != nil {
		return nil, translate(err, "find order")
	}
	return &order, nil
}

// UpdateOrderStatus changes the status of an order belonging to chefEmail.
func (s *Store) UpdateOrderStatus(ctx context.Context, id, chefEmail, status string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.OrdersCollection.UpdateOne(ctx,
		bson.M{"_id": oid, "chef.email": chefEmail},
		bson.M{"$set": bson.M{"orderStatus": status}},
	)
	if err != nil {
		return translate(err, "update order status")
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("order %s: %w", id, utils.ErrNotFound)
	}
	return nil
}
