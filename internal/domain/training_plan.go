// internal/domain/training_plan.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScheduleDay is one day of a plan's weekly schedule.
type ScheduleDay struct {
	Day       string   `bson:"day" json:"day"`     // e.g., "monday"
	Focus     string   `bson:"focus" json:"focus"` // e.g., "Upper body strength"
	Exercises []string `bson:"exercises" json:"exercises"`
}

// TrainingPlan is a trainer's reusable template. Assigning it to a client
// copies its content (see Snapshot); the template itself is never mutated by
// an assignment, and later template edits are not visible through one.
type TrainingPlan struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TrainerID     primitive.ObjectID `bson:"trainerId" json:"trainerId"` // Who authored the template
	Title         string             `bson:"title" json:"title"`
	Description   string             `bson:"description" json:"description"`
	Goal          string             `bson:"goal,omitempty" json:"goal,omitempty"` // e.g., "Hypertrophy"
	DurationWeeks int                `bson:"durationWeeks,omitempty" json:"durationWeeks,omitempty"`
	Schedule      []ScheduleDay      `bson:"schedule" json:"schedule"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
	DeletedAt     *time.Time         `bson:"deletedAt,omitempty" json:"deletedAt,omitempty"` // Soft delete
}

// Snapshot produces a deep copy of the template's content for an assignment.
// Identity and audit fields (id, trainerId, createdAt, updatedAt, deletedAt)
// are not part of the copy; everything else is carried over unchanged.
func (p *TrainingPlan) Snapshot() PlanData {
	schedule := make([]any, len(p.Schedule))
	for i, d := range p.Schedule {
		schedule[i] = map[string]any{
			"day":       d.Day,
			"focus":     d.Focus,
			"exercises": append([]string(nil), d.Exercises...),
		}
	}
	data := PlanData{
		"title":       p.Title,
		"description": p.Description,
		"schedule":    schedule,
	}
	if p.Goal != "" {
		data["goal"] = p.Goal
	}
	if p.DurationWeeks != 0 {
		data["durationWeeks"] = p.DurationWeeks
	}
	return data
}
