package db

import (
	"context"
	"fmt"

	"chefbazar/models"
	"chefbazar/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UpsertLogin records a login. A first-time email is inserted as an active
// user; an existing one only gets lastLoggedIn refreshed, so role and status
// are never reset here.
func (s *Store) UpsertLogin(ctx context.Context, user models.User) (bool, error) {
	ts := now()
	onInsert := bson.M{
		"role":      models.RoleUser,
		"status":    models.StatusActive,
		"createdAt": ts,
	}
	if user.Name != "" {
		onInsert["name"] = user.Name
	}
	if user.Image != "" {
		onInsert["image"] = user.Image
	}
	res, err := s.UsersCollection.UpdateOne(ctx,
		bson.M{"email": user.Email},
		bson.M{
			"$setOnInsert": onInsert,
			"$set":         bson.M{"lastLoggedIn": ts},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, translate(err, "upsert user")
	}
	return res.UpsertedCount > 0, nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.UsersCollection.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, translate(err, "find user")
	}
	return &user, nil
}

func (s *Store) ListUsersExcept(ctx context.Context, email string) ([]models.User, error) {
	users, err := findAll[models.User](ctx, s.UsersCollection, bson.M{"email": bson.M{"$ne": email}}, newestFirst("createdAt"))
	return users, translate(err, "list users")
}

func (s *Store) MarkFraud(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.UsersCollection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"status": models.StatusFraud}})
	if err != nil {
		return translate(err, "mark fraud")
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("user %s: %w", id, utils.ErrNotFound)
	}
	return nil
}

// SetUserRole changes a user's role; chefID is only written when non-empty.
func (s *Store) SetUserRole(ctx context.Context, email, role, chefID string) error {
	set := bson.M{"role": role}
	if chefID != "" {
		set["chefId"] = chefID
	}
	res, err := s.UsersCollection.UpdateOne(ctx, bson.M{"email": email}, bson.M{"$set": set})
	if err != nil {
		return translate(err, "set user role")
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("user %s: %w", email, utils.ErrNotFound)
	}
	return nil
}
