package mongo

import (
	"context"
	"errors"
	"time"

	"fitmarket/coaching-app/internal/domain"
	"fitmarket/coaching-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const assignedPlanCollectionName = "assigned_plans"

// mongoAssignedPlanRepository implements repository.AssignedPlanRepository
type mongoAssignedPlanRepository struct {
	collection *mongo.Collection
}

// NewMongoAssignedPlanRepository creates a new AssignedPlan repository.
func NewMongoAssignedPlanRepository(db *mongo.Database) repository.AssignedPlanRepository {
	return &mongoAssignedPlanRepository{
		collection: db.Collection(assignedPlanCollectionName),
	}
}

// Create inserts a new assigned plan. The partial unique index on
// (clientId, status=active) backs the one-active-plan-per-client invariant;
// losing the check-then-create race surfaces here as repository.ErrDuplicate.
func (r *mongoAssignedPlanRepository) Create(ctx context.Context, plan *domain.AssignedPlan) (primitive.ObjectID, error) {
	if plan.ClientID == primitive.NilObjectID ||
		plan.TrainerID == primitive.NilObjectID ||
		plan.OriginalPlanID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("assigned plan requires clientId, trainerId, and originalPlanId")
	}

	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	plan.AssignedAt = now
	plan.UpdatedAt = now
	if plan.Status == "" {
		plan.Status = domain.PlanActive
	}

	result, err := r.collection.InsertOne(ctx, plan)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted assigned plan ID")
	}
	return insertedID, nil
}

// GetByID retrieves an assigned plan by its ID.
func (r *mongoAssignedPlanRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.AssignedPlan, error) {
	var plan domain.AssignedPlan
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// GetActiveByClientID returns the client's active plan, if any.
func (r *mongoAssignedPlanRepository) GetActiveByClientID(ctx context.Context, clientID primitive.ObjectID) (*domain.AssignedPlan, error) {
	filter := bson.M{"clientId": clientID, "status": domain.PlanActive}
	var plan domain.AssignedPlan
	err := r.collection.FindOne(ctx, filter).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// GetByClientAndTrainerID returns all assigned plans for the pair, newest
// assignedAt first.
func (r *mongoAssignedPlanRepository) GetByClientAndTrainerID(ctx context.Context, clientID, trainerID primitive.ObjectID) ([]domain.AssignedPlan, error) {
	var plans []domain.AssignedPlan
	filter := bson.M{"clientId": clientID, "trainerId": trainerID}
	findOptions := options.Find().SetSort(bson.D{{Key: "assignedAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// ReplacePlanData overwrites planData wholesale. Keys absent from the new
// payload are gone afterwards; there is no merge.
func (r *mongoAssignedPlanRepository) ReplacePlanData(ctx context.Context, id primitive.ObjectID, data domain.PlanData) error {
	update := bson.M{
		"$set": bson.M{
			"planData":  data,
			"updatedAt": time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureAssignedPlanIndexes creates necessary indexes. The partial unique
// index enforces at most one active plan per client at the storage layer.
func EnsureAssignedPlanIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "clientId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": domain.PlanActive}),
		},
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "trainerId", Value: 1}, {Key: "assignedAt", Value: -1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
