package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	OrderPending   = "pending"
	OrderAccepted  = "accepted"
	OrderDelivered = "delivered"
	OrderCancelled = "cancelled"
)

type Customer struct {
	Name    string `json:"name" bson:"name"`
	Email   string `json:"email" bson:"email"`
	Address string `json:"address" bson:"address"`
}

type Order struct {
	ID            primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	MealID        string             `json:"mealId" bson:"mealId"`
	FoodName      string             `json:"foodName" bson:"foodName"`
	Image         string             `json:"image" bson:"image"`
	TransactionID string             `json:"transactionId" bson:"transactionId"`
	Customer      Customer           `json:"customer" bson:"customer"`
	Chef          ChefInfo           `json:"chef" bson:"chef"`
	OrderStatus   string             `json:"orderStatus" bson:"orderStatus"`
	Quantity      int64              `json:"quantity" bson:"quantity"`
	Price         float64            `json:"price" bson:"price"`
	TotalPrice    float64            `json:"totalPrice" bson:"totalPrice"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
}
