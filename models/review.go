package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Review struct {
	ID            primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	FoodID        string             `json:"foodId" bson:"foodId"`
	ReviewerName  string             `json:"reviewerName" bson:"reviewerName"`
	ReviewerEmail string             `json:"reviewerEmail" bson:"reviewerEmail"`
	ReviewerImage string             `json:"reviewerImage,omitempty" bson:"reviewerImage,omitempty"`
	Rating        float64            `json:"rating" bson:"rating"`
	Comment       string             `json:"comment" bson:"comment"`
	Date          time.Time          `json:"date" bson:"date"`
}
