package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Promotion request types double as the role being asked for.
const (
	RequestChef  = "chef"
	RequestAdmin = "admin"

	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
)

type PromotionRequest struct {
	ID            primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	UserEmail     string             `json:"userEmail" bson:"userEmail"`
	UserName      string             `json:"userName,omitempty" bson:"userName,omitempty"`
	RequestType   string             `json:"requestType" bson:"requestType"`
	RequestStatus string             `json:"requestStatus" bson:"requestStatus"`
	RequestTime   time.Time          `json:"requestTime" bson:"requestTime"`
}

// ValidRequestType reports whether t names a promotion request collection.
func ValidRequestType(t string) bool {
	return t == RequestChef || t == RequestAdmin
}
