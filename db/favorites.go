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

func (s *Store) FavoriteExists(ctx context.Context, mealID, email string) (bool, error) {
	err := s.FavoritesCollection.FindOne(ctx, bson.M{"mealId": mealID, "userEmail": email}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, translate(err, "find favorite")
	}
	return true, nil
}

// InsertFavorite relies on the (mealId, userEmail) unique index to turn a
// lost race into ErrConflict.
func (s *Store) InsertFavorite(ctx context.Context, fav *models.Favorite) (string, error) {
	if fav.ID.IsZero() {
		fav.ID = primitive.NewObjectID()
	}
	if _, err := s.FavoritesCollection.InsertOne(ctx, fav); err != nil {
		return "", translate(err, "insert favorite")
	}
	return fav.ID.Hex(), nil
}

func (s *Store) FavoritesByUser(ctx context.Context, email string) ([]models.Favorite, error) {
	favs, err := findAll[models.Favorite](ctx, s.FavoritesCollection, bson.M{"userEmail": email}, newestFirst("addedTime"))
	return favs, translate(err, "favorites by user")
}

func (s *Store) DeleteFavorite(ctx context.Context, id, email string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.FavoritesCollection.DeleteOne(ctx, bson.M{"_id": oid, "userEmail": email})
	if err != nil {
		return translate(err, "delete favorite")
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("favorite %s: %w", id, utils.ErrNotFound)
	}
	return nil
}
