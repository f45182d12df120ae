package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Favorite struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	MealID    string             `json:"mealId" bson:"mealId"`
	MealName  string             `json:"mealName" bson:"mealName"`
	ChefName  string             `json:"chefName" bson:"chefName"`
	Price     float64            `json:"price" bson:"price"`
	Image     string             `json:"image,omitempty" bson:"image,omitempty"`
	UserEmail string             `json:"userEmail" bson:"userEmail"`
	AddedTime time.Time          `json:"addedTime" bson:"addedTime"`
}
