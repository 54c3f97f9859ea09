// internal/repository/mongo/coaching_request_repo.go
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

const coachingRequestCollectionName = "coaching_requests"

// mongoCoachingRequestRepository implements repository.CoachingRequestRepository
type mongoCoachingRequestRepository struct {
	collection *mongo.Collection
}

// NewMongoCoachingRequestRepository creates a new CoachingRequest repository.
func NewMongoCoachingRequestRepository(db *mongo.Database) repository.CoachingRequestRepository {
	return &mongoCoachingRequestRepository{
		collection: db.Collection(coachingRequestCollectionName),
	}
}

// Create inserts a new coaching request in the pending state.
func (r *mongoCoachingRequestRepository) Create(ctx context.Context, req *domain.CoachingRequest) (primitive.ObjectID, error) {
	if req.ClientID == primitive.NilObjectID || req.TrainerID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("coaching request requires clientId and trainerId")
	}
	req.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now
	if req.Status == "" {
		req.Status = domain.RequestPending
	}

	result, err := r.collection.InsertOne(ctx, req)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted request ID")
	}
	return insertedID, nil
}

// GetByID retrieves a coaching request by its ID.
func (r *mongoCoachingRequestRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.CoachingRequest, error) {
	var req domain.CoachingRequest
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// GetByTrainerID retrieves requests addressed to a trainer, newest first.
func (r *mongoCoachingRequestRepository) GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID, status *domain.RequestStatus) ([]domain.CoachingRequest, error) {
	filter := bson.M{"trainerId": trainerID}
	if status != nil {
		filter["status"] = *status
	}
	return r.find(ctx, filter)
}

// GetByClientID retrieves requests a client has made, newest first.
func (r *mongoCoachingRequestRepository) GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.CoachingRequest, error) {
	return r.find(ctx, bson.M{"clientId": clientID})
}

func (r *mongoCoachingRequestRepository) find(ctx context.Context, filter bson.M) ([]domain.CoachingRequest, error) {
	var requests []domain.CoachingRequest
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// FindPending returns the pending request for the (client, trainer) pair.
func (r *mongoCoachingRequestRepository) FindPending(ctx context.Context, clientID, trainerID primitive.ObjectID) (*domain.CoachingRequest, error) {
	filter := bson.M{
		"clientId":  clientID,
		"trainerId": trainerID,
		"status":    domain.RequestPending,
	}
	var req domain.CoachingRequest
	err := r.collection.FindOne(ctx, filter).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// MarkResponded moves a pending request into a terminal status. The filter
// requires status=pending, so a request that already left pending matches
// nothing and the record stays untouched.
func (r *mongoCoachingRequestRepository) MarkResponded(ctx context.Context, id primitive.ObjectID, status domain.RequestStatus, rejectionReason string, respondedAt time.Time) error {
	set := bson.M{
		"status":      status,
		"respondedAt": respondedAt,
		"updatedAt":   time.Now().UTC(),
	}
	if status == domain.RequestRejected && rejectionReason != "" {
		set["rejectionReason"] = rejectionReason
	}

	filter := bson.M{"_id": id, "status": domain.RequestPending}
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a coaching request.
func (r *mongoCoachingRequestRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureCoachingRequestIndexes creates necessary indexes. Call during startup.
func EnsureCoachingRequestIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Trainer inbox: requests addressed to a trainer by recency
			Keys:    bson.D{{Key: "trainerId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}},
			Options: options.Index(),
		},
		{
			// Pending-pair lookup used by request intake and withdraw
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "trainerId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
