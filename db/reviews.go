package db

import (
	"context"
	"fmt"

	"chefbazar/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) InsertReview(ctx context.Context, review *models.Review) (string, error) {
	if review.ID.IsZero() {
		review.ID = primitive.NewObjectID()
	}
	if _, err := s.ReviewsCollection.InsertOne(ctx, review); err != nil {
		return "", translate(err, "insert review")
	}
	return review.ID.Hex(), nil
}

func (s *Store) ReviewsByFood(ctx context.Context, foodID string) ([]models.Review, error) {
	reviews, err := findAll[models.Review](ctx, s.ReviewsCollection, bson.M{"foodId": foodID}, newestFirst("date"))
	return reviews, translate(err, "reviews by food")
}

func (s *Store) ReviewsByReviewer(ctx context.Context, email string) ([]models.Review, error) {
	reviews, err := findAll[models.Review](ctx, s.ReviewsCollection, bson.M{"reviewerEmail": email}, newestFirst("date"))
	return reviews, translate(err, "reviews by reviewer")
}

// AverageRating returns the mean rating over every review of a meal and the
// number of reviews it was computed from.
func (s *Store) AverageRating(ctx context.Context, foodID string) (float64, int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"foodId": foodID}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"avg":   bson.M{"$avg": "$rating"},
			"count": bson.M{"$sum": 1},
		}}},
	}
	cursor, err := s.ReviewsCollection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, 0, translate(err, "average rating")
	}
	defer cursor.Close(ctx)

	var result []struct {
		Avg   float64 `bson:"avg"`
		Count int64   `bson:"count"`
	}
	if err := cursor.All(ctx, &result); err != nil {
		return 0, 0, translate(err, "average rating")
	}
	if len(result) == 0 {
		return 0, 0, nil
	}
	return result[0].Avg, result[0].Count, nil
}

// DeleteReview removes a review written by email and returns it.
func (s *Store) DeleteReview(ctx context.Context, id, email string) (*models.Review, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var review models.Review
	err = s.ReviewsCollection.FindOneAndDelete(ctx,
		bson.M{"_id": oid, "reviewerEmail": email},
		options.FindOneAndDelete(),
	).Decode(&review)
	if err != nil {
		return nil, translate(err, fmt.Sprintf("delete review %s", id))
	}
	return &review, nil
}
