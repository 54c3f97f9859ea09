package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RequestCooldown blocks a client from re-requesting a trainer for a period
// after withdrawing a pending request. It is written in the same transaction
// that deletes the request.
type RequestCooldown struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientID  primitive.ObjectID `bson:"clientId" json:"clientId"`
	TrainerID primitive.ObjectID `bson:"trainerId" json:"trainerId"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	ExpiresAt time.Time          `bson:"expiresAt" json:"expiresAt"`
}

// Active reports whether the cooldown is still in force at the given time.
func (c *RequestCooldown) Active(now time.Time) bool {
	return now.Before(c.ExpiresAt)
}
