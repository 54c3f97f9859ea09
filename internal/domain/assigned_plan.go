package domain

import (
	"reflect"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanStatus type for the assigned plan lifecycle
type PlanStatus string

const (
	PlanActive    PlanStatus = "active"
	PlanCompleted PlanStatus = "completed" // Terminal state; no endpoint sets it yet
)

// PlanData is the denormalized content of an assigned plan. It is an open
// document rather than a fixed struct: edits replace it wholesale, and keys
// beyond the required ones are preserved as-is.
type PlanData map[string]any

// Validate checks the minimal shape contract: title and description must be
// strings, schedule must be an array. It returns one message per violation;
// an empty slice means the payload is acceptable.
func (d PlanData) Validate() []string {
	var violations []string

	if v, ok := d["title"]; !ok {
		violations = append(violations, "title is required")
	} else if _, ok := v.(string); !ok {
		violations = append(violations, "title must be a string")
	}

	if v, ok := d["description"]; !ok {
		violations = append(violations, "description is required")
	} else if _, ok := v.(string); !ok {
		violations = append(violations, "description must be a string")
	}

	if v, ok := d["schedule"]; !ok {
		violations = append(violations, "schedule is required")
	} else if v == nil || reflect.ValueOf(v).Kind() != reflect.Slice {
		// reflect covers both []any from JSON and bson.A from the driver
		violations = append(violations, "schedule must be an array")
	}

	return violations
}

// AssignedPlan is a per-client, mutable copy of a template TrainingPlan,
// created when a trainer assigns the template through an accepted coaching
// request. PlanData is a snapshot: the template is never referenced live.
type AssignedPlan struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientID       primitive.ObjectID `bson:"clientId" json:"clientId"`
	TrainerID      primitive.ObjectID `bson:"trainerId" json:"trainerId"`
	OriginalPlanID primitive.ObjectID `bson:"originalPlanId" json:"originalPlanId"` // The template this was copied from
	PlanData       PlanData           `bson:"planData" json:"planData"`
	Status         PlanStatus         `bson:"status" json:"status"`
	AssignedAt     time.Time          `bson:"assignedAt" json:"assignedAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}
