package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"fitmarket/coaching-app/internal/domain"
	"fitmarket/coaching-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrRequestNotFound         = errors.New("coaching request not found")
	ErrRequestAccessDenied     = errors.New("access denied to this coaching request")
	ErrAlreadyResponded        = errors.New("request has already been responded to")
	ErrInvalidResponseStatus   = errors.New("invalid response status")
	ErrOnlyPendingWithdrawable = errors.New("can only delete pending requests")
	ErrTrainerNotFound         = errors.New("trainer not found")
	ErrNotATrainer             = errors.New("requested user is not a trainer")
	ErrCooldownActive          = errors.New("cannot re-request this trainer until the cooldown expires")
	ErrPendingRequestExists    = errors.New("a pending request to this trainer already exists")
	ErrPlanIDRequired          = errors.New("plan ID is required")
	ErrTemplatePlanNotFound    = errors.New("training plan template not found")
	ErrActivePlanExists        = errors.New("client already has an active plan; complete existing plan first")
	ErrAssignedPlanNotFound    = errors.New("assigned plan not found")
)

// PlanDataValidationError carries the individual shape violations of an
// assigned-plan payload so the handler can return them as details.
type PlanDataValidationError struct {
	Violations []string
}

func (e *PlanDataValidationError) Error() string {
	return "invalid plan data: " + strings.Join(e.Violations, "; ")
}

// RequestDetails is a coaching request hydrated with both party profiles,
// as shown on the active-session view.
type RequestDetails struct {
	domain.CoachingRequest
	Client  *domain.User `json:"client"`
	Trainer *domain.User `json:"trainer"`
}

// CoachingService owns the coaching request lifecycle and the derived plan
// assignment workflow. Every operation checks all of its preconditions
// before writing anything; the only multi-write operation (Withdraw) runs in
// a transaction.
type CoachingService interface {
	// Request intake and listing
	CreateRequest(ctx context.Context, clientID, trainerID primitive.ObjectID, message string) (*domain.CoachingRequest, error)
	GetRequestsForTrainer(ctx context.Context, trainerID primitive.ObjectID, status *domain.RequestStatus) ([]domain.CoachingRequest, error)
	GetRequestsForClient(ctx context.Context, clientID primitive.ObjectID) ([]domain.CoachingRequest, error)

	// Lifecycle
	GetActiveSession(ctx context.Context, requestID, callerID primitive.ObjectID) (*RequestDetails, error)
	Respond(ctx context.Context, requestID, callerID primitive.ObjectID, status domain.RequestStatus, rejectionReason string) (*domain.CoachingRequest, error)
	Withdraw(ctx context.Context, requestID, callerID primitive.ObjectID) error

	// Plan assignment
	AssignPlan(ctx context.Context, requestID, callerID, planID primitive.ObjectID) (*domain.AssignedPlan, error)
	EditAssignedPlan(ctx context.Context, requestID, assignedPlanID, callerID primitive.ObjectID, data domain.PlanData) (*domain.AssignedPlan, error)
	GetAssignedPlans(ctx context.Context, requestID, callerID primitive.ObjectID) ([]domain.AssignedPlan, error)
}

// coachingService implements the CoachingService interface.
type coachingService struct {
	requestRepo      repository.CoachingRequestRepository
	cooldownRepo     repository.CooldownRepository
	templateRepo     repository.TrainingPlanRepository
	assignedPlanRepo repository.AssignedPlanRepository
	userRepo         repository.UserRepository
	txManager        repository.TxManager
	cooldown         time.Duration
}

// NewCoachingService creates a new instance of coachingService. cooldown is
// how long a withdrawn request blocks re-requesting the same trainer.
func NewCoachingService(
	requestRepo repository.CoachingRequestRepository,
	cooldownRepo repository.CooldownRepository,
	templateRepo repository.TrainingPlanRepository,
	assignedPlanRepo repository.AssignedPlanRepository,
	userRepo repository.UserRepository,
	txManager repository.TxManager,
	cooldown time.Duration,
) CoachingService {
	if cooldown <= 0 {
		cooldown = 24 * time.Hour
	}
	return &coachingService{
		requestRepo:      requestRepo,
		cooldownRepo:     cooldownRepo,
		templateRepo:     templateRepo,
		assignedPlanRepo: assignedPlanRepo,
		userRepo:         userRepo,
		txManager:        txManager,
		cooldown:         cooldown,
	}
}

// === Request Intake ===

// CreateRequest opens a pending coaching request from a client to a trainer.
// Blocked while an unexpired cooldown exists for the pair, and while another
// pending request for the pair is open.
func (s *coachingService) CreateRequest(ctx context.Context, clientID, trainerID primitive.ObjectID, message string) (*domain.CoachingRequest, error) {
	if clientID == primitive.NilObjectID || trainerID == primitive.NilObjectID {
		return nil, errors.New("client ID and trainer ID are required")
	}

	trainer, err := s.userRepo.GetByID(ctx, trainerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTrainerNotFound
		}
		return nil, err
	}
	if !trainer.IsTrainer() {
		return nil, ErrNotATrainer
	}

	_, err = s.cooldownRepo.FindActive(ctx, clientID, trainerID, time.Now().UTC())
	if err == nil {
		return nil, ErrCooldownActive
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	_, err = s.requestRepo.FindPending(ctx, clientID, trainerID)
	if err == nil {
		return nil, ErrPendingRequestExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	req := &domain.CoachingRequest{
		ClientID:  clientID,
		TrainerID: trainerID,
		Status:    domain.RequestPending,
		Message:   message,
	}
	if _, err := s.requestRepo.Create(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// GetRequestsForTrainer lists requests addressed to the trainer, newest
// first, optionally filtered by status.
func (s *coachingService) GetRequestsForTrainer(ctx context.Context, trainerID primitive.ObjectID, status *domain.RequestStatus) ([]domain.CoachingRequest, error) {
	if trainerID == primitive.NilObjectID {
		return nil, errors.New("trainer ID is required")
	}
	return s.requestRepo.GetByTrainerID(ctx, trainerID, status)
}

// GetRequestsForClient lists the client's own requests, newest first.
func (s *coachingService) GetRequestsForClient(ctx context.Context, clientID primitive.ObjectID) ([]domain.CoachingRequest, error) {
	if clientID == primitive.NilObjectID {
		return nil, errors.New("client ID is required")
	}
	return s.requestRepo.GetByClientID(ctx, clientID)
}

// === Lifecycle ===

// GetActiveSession returns the request hydrated with both party profiles.
// Only the request's trainer may call it, and only accepted requests are
// visible: anything else is reported as not found rather than forbidden, so
// the endpoint does not leak the existence of undecided requests.
func (s *coachingService) GetActiveSession(ctx context.Context, requestID, callerID primitive.ObjectID) (*RequestDetails, error) {
	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.TrainerID != callerID {
		return nil, ErrRequestAccessDenied
	}
	if req.Status != domain.RequestAccepted {
		// Deliberately NotFound, not Forbidden
		return nil, ErrRequestNotFound
	}

	client, err := s.userRepo.GetByID(ctx, req.ClientID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	trainer, err := s.userRepo.GetByID(ctx, req.TrainerID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if client != nil {
		client.PasswordHash = ""
	}
	if trainer != nil {
		trainer.PasswordHash = ""
	}

	return &RequestDetails{
		CoachingRequest: *req,
		Client:          client,
		Trainer:         trainer,
	}, nil
}

// Respond performs the single transition out of "pending". rejectionReason
// is persisted only when the new status is rejected; it is ignored otherwise.
func (s *coachingService) Respond(ctx context.Context, requestID, callerID primitive.ObjectID, status domain.RequestStatus, rejectionReason string) (*domain.CoachingRequest, error) {
	if !domain.IsResponseStatus(status) {
		return nil, ErrInvalidResponseStatus
	}

	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.TrainerID != callerID {
		return nil, ErrRequestAccessDenied
	}
	if req.Responded() {
		return nil, ErrAlreadyResponded
	}

	err = s.requestRepo.MarkResponded(ctx, requestID, status, rejectionReason, time.Now().UTC())
	if err != nil {
		// The update filter requires status=pending, so losing a race with a
		// concurrent response shows up as not found here.
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAlreadyResponded
		}
		return nil, err
	}

	return s.getRequest(ctx, requestID)
}

// Withdraw deletes a pending request and writes the cooldown record in one
// transaction. A withdrawn request must never exist without its cooldown and
// vice versa, otherwise the client could immediately re-request the trainer.
func (s *coachingService) Withdraw(ctx context.Context, requestID, callerID primitive.ObjectID) error {
	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.ClientID != callerID {
		return ErrRequestAccessDenied
	}
	if req.Responded() {
		return ErrOnlyPendingWithdrawable
	}

	expiresAt := time.Now().UTC().Add(s.cooldown)
	return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.requestRepo.Delete(txCtx, requestID); err != nil {
			return err
		}
		_, err := s.cooldownRepo.Create(txCtx, &domain.RequestCooldown{
			ClientID:  req.ClientID,
			TrainerID: req.TrainerID,
			ExpiresAt: expiresAt,
		})
		return err
	})
}

// === Plan Assignment ===

// AssignPlan snapshots a template plan into a new active AssignedPlan for the
// request's client. The snapshot is a copy, not a live reference: later
// template edits never alter the client's in-progress plan.
func (s *coachingService) AssignPlan(ctx context.Context, requestID, callerID, planID primitive.ObjectID) (*domain.AssignedPlan, error) {
	if planID == primitive.NilObjectID {
		return nil, ErrPlanIDRequired
	}

	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.TrainerID != callerID {
		return nil, ErrRequestAccessDenied
	}

	template, err := s.templateRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplatePlanNotFound
		}
		return nil, err
	}

	_, err = s.assignedPlanRepo.GetActiveByClientID(ctx, req.ClientID)
	if err == nil {
		return nil, ErrActivePlanExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	assigned := &domain.AssignedPlan{
		ClientID:       req.ClientID,
		TrainerID:      req.TrainerID,
		OriginalPlanID: template.ID,
		PlanData:       template.Snapshot(),
		Status:         domain.PlanActive,
	}
	if _, err := s.assignedPlanRepo.Create(ctx, assigned); err != nil {
		// The partial unique index closes the window between the active-plan
		// check and this insert.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrActivePlanExists
		}
		return nil, err
	}
	return assigned, nil
}

// EditAssignedPlan validates the payload shape and replaces planData
// wholesale. The ownership chain is explicit: the caller must be the
// request's trainer, and the request's trainer must be the assigned plan's
// trainer.
func (s *coachingService) EditAssignedPlan(ctx context.Context, requestID, assignedPlanID, callerID primitive.ObjectID, data domain.PlanData) (*domain.AssignedPlan, error) {
	if violations := data.Validate(); len(violations) > 0 {
		return nil, &PlanDataValidationError{Violations: violations}
	}

	assigned, err := s.assignedPlanRepo.GetByID(ctx, assignedPlanID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssignedPlanNotFound
		}
		return nil, err
	}

	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.TrainerID != callerID || assigned.TrainerID != req.TrainerID {
		return nil, ErrRequestAccessDenied
	}

	if err := s.assignedPlanRepo.ReplacePlanData(ctx, assigned.ID, data); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssignedPlanNotFound
		}
		return nil, err
	}
	return s.assignedPlanRepo.GetByID(ctx, assigned.ID)
}

// GetAssignedPlans lists every plan assigned within the request's
// (client, trainer) pair, newest first. Readable by either party.
func (s *coachingService) GetAssignedPlans(ctx context.Context, requestID, callerID primitive.ObjectID) ([]domain.AssignedPlan, error) {
	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.TrainerID != callerID && req.ClientID != callerID {
		return nil, ErrRequestAccessDenied
	}
	return s.assignedPlanRepo.GetByClientAndTrainerID(ctx, req.ClientID, req.TrainerID)
}

func (s *coachingService) getRequest(ctx context.Context, requestID primitive.ObjectID) (*domain.CoachingRequest, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return req, nil
}
