package db

import (
	"context"
	"fmt"

	"chefbazar/models"
	"chefbazar/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) InsertMeal(ctx context.Context, meal *models.Meal) (string, error) {
	if meal.ID.IsZero() {
		meal.ID = primitive.NewObjectID()
	}
	if _, err := s.MealsCollection.InsertOne(ctx, meal); err != nil {
		return "", translate(err, "insert meal")
	}
	return meal.ID.Hex(), nil
}

func (s *Store) ListMeals(ctx context.Context) ([]models.Meal, error) {
	meals, err := findAll[models.Meal](ctx, s.MealsCollection, bson.M{}, newestFirst("createdAt"))
	return meals, translate(err, "list meals")
}

func (s *Store) LatestMeals(ctx context.Context, limit int64) ([]models.Meal, error) {
	opts := newestFirst("createdAt").SetLimit(limit)
	meals, err := findAll[models.Meal](ctx, s.MealsCollection, bson.M{}, opts)
	return meals, translate(err, "latest meals")
}

func (s *Store) MealsByChef(ctx context.Context, email string) ([]models.Meal, error) {
	meals, err := findAll[models.Meal](ctx, s.MealsCollection, bson.M{"chef.email": email}, newestFirst("createdAt"))
	return meals, translate(err, "meals by chef")
}

func (s *Store) FindMeal(ctx context.Context, id string) (*models.Meal, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var meal models.Meal
	if err := s.MealsCollection.FindOne(ctx, bson.M{"_id": oid}).Decode(&meal); err != nil {
		return nil, translate(err, "find meal")
	}
	return &meal, nil
}

// UpdateMeal applies the non-nil fields of update to a meal owned by chefEmail
// and returns the stored result.
func (s *Store) UpdateMeal(ctx context.Context, id, chefEmail string, update models.MealUpdate) (*models.Meal, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var meal models.Meal
	err = s.MealsCollection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "chef.email": chefEmail},
		bson.M{"$set": update},
		opts,
	).Decode(&meal)
	if err != nil {
		return nil, translate(err, "update meal")
	}
	return &meal, nil
}

func (s *Store) DeleteMeal(ctx context.Context, id, chefEmail string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.MealsCollection.DeleteOne(ctx, bson.M{"_id": oid, "chef.email": chefEmail})
	if err != nil {
		return translate(err, "delete meal")
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete meal %s: %w", id, utils.ErrNotFound)
	}
	return nil
}

func (s *Store) SetMealRating(ctx context.Context, id string, rating float64) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.MealsCollection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"rating": rating}})
	if err != nil {
		return translate(err, "set meal rating")
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("set meal rating %s: %w", id, utils.ErrNotFound)
	}
	return nil
}
