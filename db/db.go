package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chefbazar/utils"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Store owns the Mongo client and the collections the API works on. It is
// built once at startup and handed to every handler group.
type Store struct {
	Client *mongo.Client

	MealsCollection         *mongo.Collection
	OrdersCollection        *mongo.Collection
	ReviewsCollection       *mongo.Collection
	UsersCollection         *mongo.Collection
	FavoritesCollection     *mongo.Collection
	ChefRequestsCollection  *mongo.Collection
	AdminRequestsCollection *mongo.Collection
}

// Connect dials MongoDB with the stable API v1 and pings the deployment.
func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1).SetStrict(true).SetDeprecationErrors(true)
	clientOptions := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	logrus.WithField("db", dbName).Info("Pinged your deployment. Connected to MongoDB")

	return New(client, dbName), nil
}

// New wires collection handles for an already connected client.
func New(client *mongo.Client, dbName string) *Store {
	database := client.Database(dbName)
	return &Store{
		Client:                  client,
		MealsCollection:         database.Collection("meals"),
		OrdersCollection:        database.Collection("orders"),
		ReviewsCollection:       database.Collection("reviews"),
		UsersCollection:         database.Collection("users"),
		FavoritesCollection:     database.Collection("favorites"),
		ChefRequestsCollection:  database.Collection("chefRequests"),
		AdminRequestsCollection: database.Collection("adminRequests"),
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}

// EnsureIndexes creates the unique and lookup indexes the handlers rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	pendingOnly := bson.M{"requestStatus": "pending"}
	plan := map[*mongo.Collection][]mongo.IndexModel{
		s.UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("unique_email")},
		},
		s.OrdersCollection: {
			{Keys: bson.D{{Key: "transactionId", Value: 1}}, Options: options.Index().SetUnique(true).SetName("unique_transaction")},
			{Keys: bson.D{{Key: "customer.email", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "chef.email", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		s.FavoritesCollection: {
			{Keys: bson.D{{Key: "mealId", Value: 1}, {Key: "userEmail", Value: 1}}, Options: options.Index().SetUnique(true).SetName("unique_meal_user")},
		},
		s.MealsCollection: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "chef.email", Value: 1}}},
		},
		s.ReviewsCollection: {
			{Keys: bson.D{{Key: "foodId", Value: 1}, {Key: "date", Value: -1}}},
			{Keys: bson.D{{Key: "reviewerEmail", Value: 1}, {Key: "date", Value: -1}}},
		},
		s.ChefRequestsCollection: {
			{Keys: bson.D{{Key: "userEmail", Value: 1}}, Options: options.Index().SetUnique(true).SetPartialFilterExpression(pendingOnly).SetName("unique_pending")},
		},
		s.AdminRequestsCollection: {
			{Keys: bson.D{{Key: "userEmail", Value: 1}}, Options: options.Index().SetUnique(true).SetPartialFilterExpression(pendingOnly).SetName("unique_pending")},
		},
	}
	for coll, idxs := range plan {
		if _, err := coll.Indexes().CreateMany(ctx, idxs); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

// objectID parses a hex id. A malformed id can never match a document, so it
// is reported as not found.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("id %q: %w", id, utils.ErrNotFound)
	}
	return oid, nil
}

// translate folds driver errors into the error taxonomy.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%s: %w", what, utils.ErrNotFound)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", what, utils.ErrConflict)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	results := []T{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func newestFirst(field string) *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: field, Value: -1}})
}

func now() time.Time {
	return time.Now().UTC()
}
