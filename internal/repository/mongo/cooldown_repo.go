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

const cooldownCollectionName = "request_cooldowns"

// mongoCooldownRepository implements repository.CooldownRepository
type mongoCooldownRepository struct {
	collection *mongo.Collection
}

// NewMongoCooldownRepository creates a new RequestCooldown repository.
func NewMongoCooldownRepository(db *mongo.Database) repository.CooldownRepository {
	return &mongoCooldownRepository{
		collection: db.Collection(cooldownCollectionName),
	}
}

// Create inserts a cooldown record. Called inside the withdraw transaction,
// so the passed context may be bound to a session.
func (r *mongoCooldownRepository) Create(ctx context.Context, cooldown *domain.RequestCooldown) (primitive.ObjectID, error) {
	if cooldown.ClientID == primitive.NilObjectID || cooldown.TrainerID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("cooldown requires clientId and trainerId")
	}
	if cooldown.ExpiresAt.IsZero() {
		return primitive.NilObjectID, errors.New("cooldown requires expiresAt")
	}
	cooldown.ID = primitive.NewObjectID()
	cooldown.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, cooldown)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted cooldown ID")
	}
	return insertedID, nil
}

// FindActive returns an unexpired cooldown for the (client, trainer) pair.
func (r *mongoCooldownRepository) FindActive(ctx context.Context, clientID, trainerID primitive.ObjectID, now time.Time) (*domain.RequestCooldown, error) {
	filter := bson.M{
		"clientId":  clientID,
		"trainerId": trainerID,
		"expiresAt": bson.M{"$gt": now},
	}
	var cooldown domain.RequestCooldown
	err := r.collection.FindOne(ctx, filter).Decode(&cooldown)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &cooldown, nil
}

// EnsureCooldownIndexes creates necessary indexes. The TTL index lets MongoDB
// reap expired cooldowns on its own; FindActive still filters on expiresAt
// because TTL deletion is not immediate.
func EnsureCooldownIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "trainerId", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
