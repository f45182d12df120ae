package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser  = "user"
	RoleChef  = "chef"
	RoleAdmin = "admin"

	StatusActive = "active"
	StatusFraud  = "fraud"
)

type User struct {
	ID           primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Email        string             `json:"email" bson:"email"`
	Name         string             `json:"name,omitempty" bson:"name,omitempty"`
	Image        string             `json:"image,omitempty" bson:"image,omitempty"`
	Role         string             `json:"role" bson:"role"`
	Status       string             `json:"status" bson:"status"`
	ChefID       string             `json:"chefId,omitempty" bson:"chefId,omitempty"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
	LastLoggedIn time.Time          `json:"lastLoggedIn" bson:"lastLoggedIn"`
}

// IsFraud reports whether the user has been flagged by an admin.
func (u *User) IsFraud() bool {
	return u.Status == StatusFraud
}
