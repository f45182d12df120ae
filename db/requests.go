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
)

func (s *Store) requestCollection(kind string) (*mongo.Collection, error) {
	switch kind {
	case models.RequestChef:
		return s.ChefRequestsCollection, nil
	case models.RequestAdmin:
		return s.AdminRequestsCollection, nil
	}
	return nil, utils.Invalid(fmt.Sprintf("unknown request type %q", kind))
}

func (s *Store) HasPendingRequest(ctx context.Context, kind, email string) (bool, error) {
	coll, err := s.requestCollection(kind)
	if err != nil {
		return false, err
	}
	err = coll.FindOne(ctx, bson.M{"userEmail": email, "requestStatus": models.RequestPending}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, translate(err, "find pending request")
	}
	return true, nil
}

func (s *Store) InsertRequest(ctx context.Context, req *models.PromotionRequest) (string, error) {
	coll, err := s.requestCollection(req.RequestType)
	if err != nil {
		return "", err
	}
	if req.ID.IsZero() {
		req.ID = primitive.NewObjectID()
	}
	if _, err := coll.InsertOne(ctx, req); err != nil {
		return "", translate(err, "insert request")
	}
	return req.ID.Hex(), nil
}

// ListRequests is the admin queue: chef and admin requests in one stream,
// tagged by type and newest first.
func (s *Store) ListRequests(ctx context.Context) ([]models.PromotionRequest, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$addFields", Value: bson.M{"requestType": models.RequestChef}}},
		{{Key: "$unionWith", Value: bson.M{
			"coll": s.AdminRequestsCollection.Name(),
			"pipeline": bson.A{
				bson.M{"$addFields": bson.M{"requestType": models.RequestAdmin}},
			},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "requestTime", Value: -1}}}},
	}
	cursor, err := s.ChefRequestsCollection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, translate(err, "list requests")
	}
	defer cursor.Close(ctx)

	requests := []models.PromotionRequest{}
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, translate(err, "list requests")
	}
	return requests, nil
}

func (s *Store) FindRequest(ctx context.Context, kind, id string) (*models.PromotionRequest, error) {
	coll, err := s.requestCollection(kind)
	if err != nil {
		return nil, err
	}
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var req models.PromotionRequest
	if err := coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&req); err != nil {
		return nil, translate(err, "find request")
	}
	req.RequestType = kind
	return &req, nil
}

// ResolveRequest moves a pending request to status. A request that is no
// longer pending yields ErrConflict.
func (s *Store) ResolveRequest(ctx context.Context, kind, id, status string) error {
	coll, err := s.requestCollection(kind)
	if err != nil {
		return err
	}
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := coll.UpdateOne(ctx,
		bson.M{"_id": oid, "requestStatus": models.RequestPending},
		bson.M{"$set": bson.M{"requestStatus": status}},
	)
	if err != nil {
		return translate(err, "resolve request")
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("request %s is not pending: %w", id, utils.ErrConflict)
	}
	return nil
}
