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

const attachmentCollectionName = "plan_attachments"

// mongoAttachmentRepository implements repository.AttachmentRepository
type mongoAttachmentRepository struct {
	collection *mongo.Collection
}

// NewMongoAttachmentRepository creates a new PlanAttachment repository.
func NewMongoAttachmentRepository(db *mongo.Database) repository.AttachmentRepository {
	return &mongoAttachmentRepository{
		collection: db.Collection(attachmentCollectionName),
	}
}

// Create inserts attachment metadata after the file landed in S3.
func (r *mongoAttachmentRepository) Create(ctx context.Context, attachment *domain.PlanAttachment) (primitive.ObjectID, error) {
	if attachment.AssignedPlanID == primitive.NilObjectID || attachment.S3ObjectKey == "" {
		return primitive.NilObjectID, errors.New("attachment requires assignedPlanId and s3ObjectKey")
	}
	attachment.ID = primitive.NewObjectID()
	attachment.UploadedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, attachment)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted attachment ID")
	}
	return insertedID, nil
}

// GetByID retrieves attachment metadata by its ID.
func (r *mongoAttachmentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.PlanAttachment, error) {
	var attachment domain.PlanAttachment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&attachment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &attachment, nil
}

// GetByAssignedPlanID retrieves all attachments for an assigned plan,
// newest first.
func (r *mongoAttachmentRepository) GetByAssignedPlanID(ctx context.Context, assignedPlanID primitive.ObjectID) ([]domain.PlanAttachment, error) {
	var attachments []domain.PlanAttachment
	filter := bson.M{"assignedPlanId": assignedPlanID}
	findOptions := options.Find().SetSort(bson.D{{Key: "uploadedAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &attachments); err != nil {
		return nil, err
	}
	return attachments, nil
}

// EnsureAttachmentIndexes creates necessary indexes. Call during startup.
func EnsureAttachmentIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "assignedPlanId", Value: 1}, {Key: "uploadedAt", Value: -1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
