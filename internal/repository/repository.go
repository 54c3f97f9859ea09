package repository

import (
	"context"
	"time"

	"fitmarket/coaching-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound  = RepositoryError("not found")
	ErrDuplicate = RepositoryError("duplicate record")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// TxManager runs a function inside an all-or-nothing transaction. Repository
// calls made with the context passed to fn participate in the transaction;
// if fn returns an error, every write made through that context is rolled
// back.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

// CoachingRequestRepository defines the interface for coaching request data.
type CoachingRequestRepository interface {
	Create(ctx context.Context, req *domain.CoachingRequest) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.CoachingRequest, error)
	// GetByTrainerID returns requests addressed to the trainer, newest first.
	// A nil status returns all of them.
	GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID, status *domain.RequestStatus) ([]domain.CoachingRequest, error)
	GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.CoachingRequest, error)
	// FindPending returns the pending request for the (client, trainer) pair,
	// or ErrNotFound.
	FindPending(ctx context.Context, clientID, trainerID primitive.ObjectID) (*domain.CoachingRequest, error)
	// MarkResponded performs the single transition out of "pending". The
	// filter includes status=pending, so a request that has already been
	// responded to yields ErrNotFound and is left untouched.
	MarkResponded(ctx context.Context, id primitive.ObjectID, status domain.RequestStatus, rejectionReason string, respondedAt time.Time) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// CooldownRepository defines the interface for request cooldown records.
type CooldownRepository interface {
	Create(ctx context.Context, cooldown *domain.RequestCooldown) (primitive.ObjectID, error)
	// FindActive returns a cooldown for the pair that has not expired at the
	// given time, or ErrNotFound.
	FindActive(ctx context.Context, clientID, trainerID primitive.ObjectID, now time.Time) (*domain.RequestCooldown, error)
}

// TrainingPlanRepository defines the interface for template plan data.
// Soft-deleted templates are invisible to every method here.
type TrainingPlanRepository interface {
	Create(ctx context.Context, plan *domain.TrainingPlan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TrainingPlan, error)
	GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.TrainingPlan, error)
	Update(ctx context.Context, plan *domain.TrainingPlan) error
	SoftDelete(ctx context.Context, id, trainerID primitive.ObjectID) error
}

// AssignedPlanRepository defines the interface for assigned plan data.
type AssignedPlanRepository interface {
	Create(ctx context.Context, plan *domain.AssignedPlan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.AssignedPlan, error)
	// GetActiveByClientID returns the client's active plan, or ErrNotFound.
	GetActiveByClientID(ctx context.Context, clientID primitive.ObjectID) (*domain.AssignedPlan, error)
	// GetByClientAndTrainerID returns all plans for the pair, newest
	// assignedAt first.
	GetByClientAndTrainerID(ctx context.Context, clientID, trainerID primitive.ObjectID) ([]domain.AssignedPlan, error)
	// ReplacePlanData overwrites planData wholesale (no merge).
	ReplacePlanData(ctx context.Context, id primitive.ObjectID, data domain.PlanData) error
}

// AttachmentRepository defines the interface for plan attachment metadata.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.PlanAttachment) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.PlanAttachment, error)
	GetByAssignedPlanID(ctx context.Context, assignedPlanID primitive.ObjectID) ([]domain.PlanAttachment, error)
}
