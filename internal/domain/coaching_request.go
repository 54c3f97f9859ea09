package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RequestStatus type for the coaching request lifecycle
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestAccepted  RequestStatus = "accepted"
	RequestRejected  RequestStatus = "rejected"
	RequestCancelled RequestStatus = "cancelled"
)

// CoachingRequest is a client's proposal to a trainer to begin a coaching
// relationship. It has a single decision point: the trainer moves it from
// "pending" to exactly one terminal status, after which it is never mutated
// again. A pending request may instead be withdrawn (deleted) by the client.
type CoachingRequest struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientID        primitive.ObjectID `bson:"clientId" json:"clientId"`
	TrainerID       primitive.ObjectID `bson:"trainerId" json:"trainerId"`
	Status          RequestStatus      `bson:"status" json:"status"`
	Message         string             `bson:"message,omitempty" json:"message,omitempty"`                 // Optional note from the client
	RejectionReason string             `bson:"rejectionReason,omitempty" json:"rejectionReason,omitempty"` // Set only when status=rejected
	RespondedAt     *time.Time         `bson:"respondedAt,omitempty" json:"respondedAt,omitempty"`         // Stamped on the transition out of pending
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Responded reports whether the request has left the pending state.
func (r *CoachingRequest) Responded() bool {
	return r.Status != RequestPending
}

// IsResponseStatus reports whether s is a status the trainer may move a
// pending request into.
func IsResponseStatus(s RequestStatus) bool {
	switch s {
	case RequestAccepted, RequestRejected, RequestCancelled:
		return true
	}
	return false
}
