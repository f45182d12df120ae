package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChefInfo is embedded in meals and snapshotted into orders.
type ChefInfo struct {
	Name   string `json:"name" bson:"name"`
	Email  string `json:"email" bson:"email"`
	ChefID string `json:"chefId" bson:"chefId"`
}

type Meal struct {
	ID                    primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	FoodName              string             `json:"foodName" bson:"foodName"`
	Price                 float64            `json:"price" bson:"price"`
	Quantity              int64              `json:"quantity" bson:"quantity"`
	Image                 string             `json:"image" bson:"image"`
	Ingredients           []string           `json:"ingredients,omitempty" bson:"ingredients,omitempty"`
	EstimatedDeliveryTime string             `json:"estimatedDeliveryTime,omitempty" bson:"estimatedDeliveryTime,omitempty"`
	DeliveryArea          string             `json:"deliveryArea,omitempty" bson:"deliveryArea,omitempty"`
	Chef                  ChefInfo           `json:"chef" bson:"chef"`
	Rating                float64            `json:"rating" bson:"rating"`
	CreatedAt             time.Time          `json:"createdAt" bson:"createdAt"`
}

// MealUpdate carries the fields a chef may change on an existing meal.
// Nil fields are left untouched.
type MealUpdate struct {
	FoodName              *string   `json:"foodName,omitempty" bson:"foodName,omitempty"`
	Price                 *float64  `json:"price,omitempty" bson:"price,omitempty" validate:"omitempty,gt=0"`
	Quantity              *int64    `json:"quantity,omitempty" bson:"quantity,omitempty" validate:"omitempty,gte=0"`
	Image                 *string   `json:"image,omitempty" bson:"image,omitempty"`
	Ingredients           *[]string `json:"ingredients,omitempty" bson:"ingredients,omitempty"`
	EstimatedDeliveryTime *string   `json:"estimatedDeliveryTime,omitempty" bson:"estimatedDeliveryTime,omitempty"`
	DeliveryArea          *string   `json:"deliveryArea,omitempty" bson:"deliveryArea,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u MealUpdate) Empty() bool {
	return u.FoodName == nil && u.Price == nil && u.Quantity == nil && u.Image == nil &&
		u.Ingredients == nil && u.EstimatedDeliveryTime == nil && u.DeliveryArea == nil
}
