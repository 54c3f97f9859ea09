package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"fitmarket/coaching-app/internal/domain"
	"fitmarket/coaching-app/internal/repository"
	"fitmarket/coaching-app/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrPlanAccessDenied       = errors.New("access denied to this training plan")
	ErrAttachmentNotFound     = errors.New("attachment not found")
	ErrAttachmentAccessDenied = errors.New("access denied to this attachment")
	ErrUploadURLError         = errors.New("failed to generate upload URL")
	ErrDownloadURLError       = errors.New("failed to generate download URL")
)

// AttachmentUploadURL carries the presigned PUT URL and the object key the
// trainer must report back when confirming the upload.
type AttachmentUploadURL struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

// PlanService manages trainer-authored template plans and the files attached
// to assigned plans. Templates are the snapshot source for assignments:
// editing or deleting one never touches plans already assigned.
type PlanService interface {
	// Template management
	CreateTemplate(ctx context.Context, trainerID primitive.ObjectID, template domain.TrainingPlan) (*domain.TrainingPlan, error)
	GetTemplates(ctx context.Context, trainerID primitive.ObjectID) ([]domain.TrainingPlan, error)
	UpdateTemplate(ctx context.Context, trainerID, planID primitive.ObjectID, updates domain.TrainingPlan) (*domain.TrainingPlan, error)
	DeleteTemplate(ctx context.Context, trainerID, planID primitive.ObjectID) error

	// Attachments on assigned plans
	RequestAttachmentUploadURL(ctx context.Context, callerID, requestID, assignedPlanID primitive.ObjectID, fileName, contentType string) (*AttachmentUploadURL, error)
	ConfirmAttachment(ctx context.Context, callerID, requestID, assignedPlanID primitive.ObjectID, objectKey, fileName, contentType string, size int64) (*domain.PlanAttachment, error)
	GetAttachments(ctx context.Context, callerID, requestID, assignedPlanID primitive.ObjectID) ([]domain.PlanAttachment, error)
	GetAttachmentDownloadURL(ctx context.Context, callerID, requestID, assignedPlanID, attachmentID primitive.ObjectID) (string, error)
}

// planService implements the PlanService interface.
type planService struct {
	templateRepo     repository.TrainingPlanRepository
	assignedPlanRepo repository.AssignedPlanRepository
	requestRepo      repository.CoachingRequestRepository
	attachmentRepo   repository.AttachmentRepository
	fileStorage      storage.FileStorage
}

// NewPlanService creates a new instance of planService.
func NewPlanService(
	templateRepo repository.TrainingPlanRepository,
	assignedPlanRepo repository.AssignedPlanRepository,
	requestRepo repository.CoachingRequestRepository,
	attachmentRepo repository.AttachmentRepository,
	fileStorage storage.FileStorage,
) PlanService {
	return &planService{
		templateRepo:     templateRepo,
		assignedPlanRepo: assignedPlanRepo,
		requestRepo:      requestRepo,
		attachmentRepo:   attachmentRepo,
		fileStorage:      fileStorage,
	}
}

// === Template Management ===

// CreateTemplate stores a new reusable plan for the trainer.
func (s *planService) CreateTemplate(ctx context.Context, trainerID primitive.ObjectID, template domain.TrainingPlan) (*domain.TrainingPlan, error) {
	if trainerID == primitive.NilObjectID {
		return nil, errors.New("trainer ID is required")
	}
	template.TrainerID = trainerID
	template.DeletedAt = nil

	id, err := s.templateRepo.Create(ctx, &template)
	if err != nil {
		return nil, err
	}
	template.ID = id
	return &template, nil
}

// GetTemplates lists the trainer's live templates, newest first.
func (s *planService) GetTemplates(ctx context.Context, trainerID primitive.ObjectID) ([]domain.TrainingPlan, error) {
	if trainerID == primitive.NilObjectID {
		return nil, errors.New("trainer ID is required")
	}
	return s.templateRepo.GetByTrainerID(ctx, trainerID)
}

// UpdateTemplate overwrites a template's editable content. Assignments made
// from the template keep their snapshot.
func (s *planService) UpdateTemplate(ctx context.Context, trainerID, planID primitive.ObjectID, updates domain.TrainingPlan) (*domain.TrainingPlan, error) {
	existing, err := s.templateRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplatePlanNotFound
		}
		return nil, err
	}
	if existing.TrainerID != trainerID {
		return nil, ErrPlanAccessDenied
	}

	existing.Title = updates.Title
	existing.Description = updates.Description
	existing.Goal = updates.Goal
	existing.DurationWeeks = updates.DurationWeeks
	existing.Schedule = updates.Schedule

	if err := s.templateRepo.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// DeleteTemplate soft-deletes a template owned by the trainer.
func (s *planService) DeleteTemplate(ctx context.Context, trainerID, planID primitive.ObjectID) error {
	err := s.templateRepo.SoftDelete(ctx, planID, trainerID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTemplatePlanNotFound
	}
	return err
}

// === Attachments ===

// RequestAttachmentUploadURL generates a presigned PUT URL for attaching a
// file to an assigned plan. Trainer-only.
func (s *planService) RequestAttachmentUploadURL(ctx context.Context, callerID, requestID, assignedPlanID primitive.ObjectID, fileName, contentType string) (*AttachmentUploadURL, error) {
	if contentType == "" {
		return nil, errors.New("content type is required")
	}
	assigned, err := s.resolveAssignedPlan(ctx, requestID, assignedPlanID)
	if err != nil {
		return nil, err
	}
	if assigned.TrainerID != callerID {
		return nil, ErrRequestAccessDenied
	}

	ext := strings.ToLower(path.Ext(fileName))
	objectKey := path.Join("attachments", assignedPlanID.Hex(), fmt.Sprintf("%s%s", uuid.NewString(), ext))

	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, ErrUploadURLError
	}
	return &AttachmentUploadURL{UploadURL: uploadURL, ObjectKey: objectKey}, nil
}

// ConfirmAttachment records attachment metadata once the trainer has PUT the
// file to the presigned URL.
func (s *planService) ConfirmAttachment(ctx context.Context, callerID, requestID, assignedPlanID primitive.ObjectID, objectKey, fileName, contentType string, size int64) (*domain.PlanAttachment, error) {
	if objectKey == "" {
		return nil, errors.New("object key is required")
	}
	assigned, err := s.resolveAssignedPlan(ctx, requestID, assignedPlanID)
	if err != nil {
		return nil, err
	}
	if assigned.TrainerID != callerID {
		return nil, ErrRequestAccessDenied
	}

	attachment := &domain.PlanAttachment{
		AssignedPlanID: assigned.ID,
		TrainerID:      assigned.TrainerID,
		ClientID:       assigned.ClientID,
		S3ObjectKey:    objectKey,
		FileName:       fileName,
		ContentType:    contentType,
		Size:           size,
	}
	if _, err := s.attachmentRepo.Create(ctx, attachment); err != nil {
		return nil, err
	}
	return attachment, nil
}

// GetAttachments lists an assigned plan's attachments. Readable by either
// party of the originating request.
func (s *planService) GetAttachments(ctx context.Context, callerID, requestID, assignedPlanID primitive.ObjectID) ([]domain.PlanAttachment, error) {
	assigned, err := s.resolveAssignedPlan(ctx, requestID, assignedPlanID)
	if err != nil {
		return nil, err
	}
	if assigned.TrainerID != callerID && assigned.ClientID != callerID {
		return nil, ErrRequestAccessDenied
	}
	return s.attachmentRepo.GetByAssignedPlanID(ctx, assigned.ID)
}

// GetAttachmentDownloadURL generates a presigned GET URL for an attachment.
// Readable by either party of the originating request.
func (s *planService) GetAttachmentDownloadURL(ctx context.Context, callerID, requestID, assignedPlanID, attachmentID primitive.ObjectID) (string, error) {
	assigned, err := s.resolveAssignedPlan(ctx, requestID, assignedPlanID)
	if err != nil {
		return "", err
	}
	if assigned.TrainerID != callerID && assigned.ClientID != callerID {
		return "", ErrRequestAccessDenied
	}

	attachment, err := s.attachmentRepo.GetByID(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrAttachmentNotFound
		}
		return "", err
	}
	if attachment.AssignedPlanID != assigned.ID {
		return "", ErrAttachmentAccessDenied
	}

	downloadURL, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, attachment.S3ObjectKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return "", ErrDownloadURLError
	}
	return downloadURL, nil
}

// resolveAssignedPlan loads the assigned plan and checks it belongs to the
// coaching request named in the route. Same ownership chain as plan editing.
func (s *planService) resolveAssignedPlan(ctx context.Context, requestID, assignedPlanID primitive.ObjectID) (*domain.AssignedPlan, error) {
	assigned, err := s.assignedPlanRepo.GetByID(ctx, assignedPlanID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssignedPlanNotFound
		}
		return nil, err
	}

	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	if assigned.TrainerID != req.TrainerID || assigned.ClientID != req.ClientID {
		return nil, ErrRequestAccessDenied
	}
	return assigned, nil
}
