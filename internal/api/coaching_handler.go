package api

import (
	"net/http"
	"time"

	"fitmarket/coaching-app/internal/domain"
	"fitmarket/coaching-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CoachingHandler exposes the coaching request workflow.
type CoachingHandler struct {
	coachingService service.CoachingService
}

// NewCoachingHandler creates a new CoachingHandler.
func NewCoachingHandler(coachingService service.CoachingService) *CoachingHandler {
	return &CoachingHandler{coachingService: coachingService}
}

// --- Request/Response Structs ---

type CreateCoachingRequestRequest struct {
	TrainerID string `json:"trainerId" binding:"required"`
	Message   string `json:"message" binding:"max=1000"`
}

type RespondToRequestRequest struct {
	Status          domain.RequestStatus `json:"status" binding:"required,oneof=accepted rejected cancelled"`
	RejectionReason string               `json:"rejectionReason" binding:"max=1000"`
}

type AssignPlanRequest struct {
	PlanID string `json:"planId" binding:"required"`
}

type CoachingRequestResponse struct {
	ID              string               `json:"id"`
	ClientID        string               `json:"clientId"`
	TrainerID       string               `json:"trainerId"`
	Status          domain.RequestStatus `json:"status"`
	Message         string               `json:"message,omitempty"`
	RejectionReason string               `json:"rejectionReason,omitempty"`
	RespondedAt     *time.Time           `json:"respondedAt,omitempty"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

type SessionResponse struct {
	Request CoachingRequestResponse `json:"request"`
	Client  *UserResponse           `json:"client,omitempty"`
	Trainer *UserResponse           `json:"trainer,omitempty"`
}

type AssignedPlanResponse struct {
	ID             string            `json:"id"`
	ClientID       string            `json:"clientId"`
	TrainerID      string            `json:"trainerId"`
	OriginalPlanID string            `json:"originalPlanId"`
	PlanData       domain.PlanData   `json:"planData"`
	Status         domain.PlanStatus `json:"status"`
	AssignedAt     time.Time         `json:"assignedAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// MapCoachingRequestToResponse converts a domain request to its API shape.
func MapCoachingRequestToResponse(req *domain.CoachingRequest) CoachingRequestResponse {
	return CoachingRequestResponse{
		ID:              req.ID.Hex(),
		ClientID:        req.ClientID.Hex(),
		TrainerID:       req.TrainerID.Hex(),
		Status:          req.Status,
		Message:         req.Message,
		RejectionReason: req.RejectionReason,
		RespondedAt:     req.RespondedAt,
		CreatedAt:       req.CreatedAt,
		UpdatedAt:       req.UpdatedAt,
	}
}

// MapAssignedPlanToResponse converts an assigned plan to its API shape.
func MapAssignedPlanToResponse(plan *domain.AssignedPlan) AssignedPlanResponse {
	return AssignedPlanResponse{
		ID:             plan.ID.Hex(),
		ClientID:       plan.ClientID.Hex(),
		TrainerID:      plan.TrainerID.Hex(),
		OriginalPlanID: plan.OriginalPlanID.Hex(),
		PlanData:       plan.PlanData,
		Status:         plan.Status,
		AssignedAt:     plan.AssignedAt,
		UpdatedAt:      plan.UpdatedAt,
	}
}

// --- Handlers ---

// CreateRequest handles POST /coaching/requests (Client only)
func (h *CoachingHandler) CreateRequest(c *gin.Context) {
	clientID, ok := callerID(c)
	if !ok {
		return
	}

	var req CreateCoachingRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	trainerID, err := primitive.ObjectIDFromHex(req.TrainerID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid trainerId format.")
		return
	}

	created, err := h.coachingService.CreateRequest(c.Request.Context(), clientID, trainerID, req.Message)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respondData(c, http.StatusCreated, MapCoachingRequestToResponse(created))
}

// ListForTrainer handles GET /coaching/requests (Trainer only).
// An optional ?status= query filters by lifecycle state.
func (h *CoachingHandler) ListForTrainer(c *gin.Context) {
	trainerID, ok := callerID(c)
	if !ok {
		return
	}

	var status *domain.RequestStatus
	if raw := c.Query("status"); raw != "" {
		s := domain.RequestStatus(raw)
		switch s {
		case domain.RequestPending, domain.RequestAccepted, domain.RequestRejected, domain.RequestCancelled:
			status = &s
		default:
			abortWithError(c, http.StatusBadRequest, "Invalid status filter.")
			return
		}
	}

	requests, err := h.coachingService.GetRequestsForTrainer(c.Request.Context(), trainerID, status)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	responses := make([]CoachingRequestResponse, 0, len(requests))
	for i := range requests {
		responses = append(responses, MapCoachingRequestToResponse(&requests[i]))
	}
	respondData(c, http.StatusOK, responses)
}

// ListForClient handles GET /coaching/requests/mine (Client only)
func (h *CoachingHandler) ListForClient(c *gin.Context) {
	clientID, ok := callerID(c)
	if !ok {
		return
	}

	requests, err := h.coachingService.GetRequestsForClient(c.Request.Context(), clientID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	responses := make([]CoachingRequestResponse, 0, len(requests))
	for i := range requests {
		responses = append(responses, MapCoachingRequestToResponse(&requests[i]))
	}
	respondData(c, http.StatusOK, responses)
}

// GetActiveSession handles GET /coaching/requests/:requestId/session (Trainer only)
func (h *CoachingHandler) GetActiveSession(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}
	requestID, ok := pathObjectID(c, "requestId")
	if !ok {
		return
	}

	details, err := h.coachingService.GetActiveSession(c.Request.Context(), requestID, caller)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	resp := SessionResponse{Request: MapCoachingRequestToResponse(&details.CoachingRequest)}
	if details.Client != nil {
		client := MapUserToResponse(details.Client)
		resp.Client = &client
	}
	if details.Trainer != nil {
		trainer := MapUserToResponse(details.Trainer)
		resp.Trainer = &trainer
	}
	respondData(c, http.StatusOK, resp)
}

// Respond handles PATCH /coaching/requests/:requestId (Trainer only)
func (h *CoachingHandler) Respond(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}
	requestID, ok := pathObjectID(c, "requestId")
	if !ok {
		return
	}

	var req RespondToRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	updated, err := h.coachingService.Respond(c.Request.Context(), requestID, caller, req.Status, req.RejectionReason)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, MapCoachingRequestToResponse(updated))
}

// Withdraw handles DELETE /coaching/requests/:requestId (Client only)
func (h *CoachingHandler) Withdraw(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}
	requestID, ok := pathObjectID(c, "requestId")
	if !ok {
		return
	}

	if err := h.coachingService.Withdraw(c.Request.Context(), requestID, caller); err != nil {
		handleServiceError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "Coaching request withdrawn.")
}

// AssignPlan handles POST /coaching/requests/:requestId/plans (Trainer only)
func (h *CoachingHandler) AssignPlan(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}
	requestID, ok := pathObjectID(c, "requestId")
	if !ok {
		return
	}

	var req AssignPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	planID, err := primitive.ObjectIDFromHex(req.PlanID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid planId format.")
		return
	}

	assigned, err := h.coachingService.AssignPlan(c.Request.Context(), requestID, caller, planID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respondData(c, http.StatusCreated, MapAssignedPlanToResponse(assigned))
}

// EditAssignedPlan handles PUT /coaching/requests/:requestId/plans/:assignedPlanId (Trainer only).
// The body is the full replacement plan content, not a patch.
func (h *CoachingHandler) EditAssignedPlan(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}
	requestID, ok := pathObjectID(c, "requestId")
	if !ok {
		return
	}
	assignedPlanID, ok := pathObjectID(c, "assignedPlanId")
	if !ok {
		return
	}

	var data domain.PlanData
	if err := c.ShouldBindJSON(&data); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	updated, err := h.coachingService.EditAssignedPlan(c.Request.Context(), requestID, assignedPlanID, caller, data)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, MapAssignedPlanToResponse(updated))
}

// GetAssignedPlans handles GET /coaching/requests/:requestId/plans (either party)
func (h *CoachingHandler) GetAssignedPlans(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}
	requestID, ok := pathObjectID(c, "requestId")
	if !ok {
		return
	}

	plans, err := h.coachingService.GetAssignedPlans(c.Request.Context(), requestID, caller)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	responses := make([]AssignedPlanResponse, 0, len(plans))
	for i := range plans {
		responses = append(responses, MapAssignedPlanToResponse(&plans[i]))
	}
	respondData(c, http.StatusOK, responses)
}
