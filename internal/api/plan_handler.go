package api

import (
	"net/http"
	"time"

	"fitmarket/coaching-app/internal/domain"
	"fitmarket/coaching-app/internal/service"

	"github.com/gin-gonic/gin"
)

// PlanHandler exposes template plan management and plan attachments.
type PlanHandler struct {
	planService service.PlanService
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(planService service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// --- Request/Response Structs ---

type ScheduleDayRequest struct {
	Day       string   `json:"day" binding:"required"`
	Focus     string   `json:"focus"`
	Exercises []string `json:"exercises"`
}

type TrainingPlanRequest struct {
	Title         string               `json:"title" binding:"required,max=200"`
	Description   string               `json:"description" binding:"required,max=2000"`
	Goal          string               `json:"goal" binding:"max=500"`
	DurationWeeks int                  `json:"durationWeeks" binding:"gte=0"`
	Schedule      []ScheduleDayRequest `json:"schedule" binding:"required,dive"`
}

type TrainingPlanResponse struct {
	ID            string               `json:"id"`
	TrainerID     string               `json:"trainerId"`
	Title         string               `json:"title"`
	Description   string               `json:"description"`
	Goal          string               `json:"goal,omitempty"`
	DurationWeeks int                  `json:"durationWeeks,omitempty"`
	Schedule      []domain.ScheduleDay `json:"schedule"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

type UploadURLRequest struct {
	FileName    string `json:"fileName" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
}

type ConfirmAttachmentRequest struct {
	ObjectKey   string `json:"objectKey" binding:"required"`
	FileName    string `json:"fileName" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
	Size        int64  `json:"size" binding:"gte=0"`
}

type AttachmentResponse struct {
	ID             string    `json:"id"`
	AssignedPlanID string    `json:"assignedPlanId"`
	FileName       string    `json:"fileName"`
	ContentType    string    `json:"contentType"`
	Size           int64     `json:"size"`
	UploadedAt     time.Time `json:"uploadedAt"`
}

// MapTrainingPlanToResponse converts a domain template plan to its API shape.
func MapTrainingPlanToResponse(plan *domain.TrainingPlan) TrainingPlanResponse {
	return TrainingPlanResponse{
		ID:            plan.ID.Hex(),
		TrainerID:     plan.TrainerID.Hex(),
		Title:         plan.Title,
		Description:   plan.Description,
		Goal:          plan.Goal,
		DurationWeeks: plan.DurationWeeks,
		Schedule:      plan.Schedule,
		CreatedAt:     plan.CreatedAt,
		UpdatedAt:     plan.UpdatedAt,
	}
}

// MapAttachmentToResponse converts an attachment to its API shape. The S3
// object key stays server-side.
func MapAttachmentToResponse(a *domain.PlanAttachment) AttachmentResponse {
	return AttachmentResponse{
		ID:             a.ID.Hex(),
		AssignedPlanID: a.AssignedPlanID.Hex(),
		FileName:       a.FileName,
		ContentType:    a.ContentType,
		Size:           a.Size,
		UploadedAt:     a.UploadedAt,
	}
}

func planFromRequest(req TrainingPlanRequest) domain.TrainingPlan {
	schedule := make([]domain.ScheduleDay, 0, len(req.Schedule))
	for _, day := range req.Schedule {
		schedule = append(schedule, domain.ScheduleDay{
			Day:       day.Day,
			Focus:     day.Focus,
			Exercises: day.Exercises,
		})
	}
	return domain.TrainingPlan{
		Title:         req.Title,
		Description:   req.Description,
		Goal:          req.Goal,
		DurationWeeks: req.DurationWeeks,
		Schedule:      schedule,
	}
}

// --- Template Handlers ---

// CreateTemplate handles POST /plans (Trainer only)
func (h *PlanHandler) CreateTemplate(c *gin.Context) {
	trainerID, ok := callerID(c)
	if !ok {
		return
	}

	var req TrainingPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	created, err := h.planService.CreateTemplate(c.Request.Context(), trainerID, planFromRequest(req))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respondData(c, http.StatusCreated, MapTrainingPlanToResponse(created))
}

// GetTemplates handles GET /plans (Trainer only)
func (h *PlanHandler) GetTemplates(c *gin.Context) {
	trainerID, ok := callerID(c)
	if !ok {
		return
	}

	plans, err := h.planService.GetTemplates(c.Request.Context(), trainerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	responses := make([]TrainingPlanResponse, 0, len(plans))
	for i := range plans {
		responses = append(responses, MapTrainingPlanToResponse(&plans[i]))
	}
	respondData(c, http.StatusOK, responses)
}

// UpdateTemplate handles PUT /plans/:planId (Trainer only)
func (h *PlanHandler) UpdateTemplate(c *gin.Context) {
	trainerID, ok := callerID(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}

	var req TrainingPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	updated, err := h.planService.UpdateTemplate(c.Request.Context(), trainerID, planID, planFromRequest(req))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, MapTrainingPlanToResponse(updated))
}

// DeleteTemplate handles DELETE /plans/:planId (Trainer only)
func (h *PlanHandler) DeleteTemplate(c *gin.Context) {
	trainerID, ok := callerID(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}

	if err := h.planService.DeleteTemplate(c.Request.Context(), trainerID, planID); err != nil {
		handleServiceError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "Training plan deleted.")
}

// --- Attachment Handlers ---

// RequestUploadURL handles POST /coaching/requests/:requestId/plans/:assignedPlanId/attachments/upload-url (Trainer only)
func (h *PlanHandler) RequestUploadURL(c *gin.Context) {
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

	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.planService.RequestAttachmentUploadURL(c.Request.Context(), caller, requestID, assignedPlanID, req.FileName, req.ContentType)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, result)
}

// ConfirmAttachment handles POST /coaching/requests/:requestId/plans/:assignedPlanId/attachments (Trainer only)
func (h *PlanHandler) ConfirmAttachment(c *gin.Context) {
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

	var req ConfirmAttachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	attachment, err := h.planService.ConfirmAttachment(c.Request.Context(), caller, requestID, assignedPlanID, req.ObjectKey, req.FileName, req.ContentType, req.Size)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respondData(c, http.StatusCreated, MapAttachmentToResponse(attachment))
}

// GetAttachments handles GET /coaching/requests/:requestId/plans/:assignedPlanId/attachments (either party)
func (h *PlanHandler) GetAttachments(c *gin.Context) {
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

	attachments, err := h.planService.GetAttachments(c.Request.Context(), caller, requestID, assignedPlanID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	responses := make([]AttachmentResponse, 0, len(attachments))
	for i := range attachments {
		responses = append(responses, MapAttachmentToResponse(&attachments[i]))
	}
	respondData(c, http.StatusOK, responses)
}

// GetAttachmentDownloadURL handles GET /coaching/requests/:requestId/plans/:assignedPlanId/attachments/:attachmentId/download-url (either party)
func (h *PlanHandler) GetAttachmentDownloadURL(c *gin.Context) {
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
	attachmentID, ok := pathObjectID(c, "attachmentId")
	if !ok {
		return
	}

	downloadURL, err := h.planService.GetAttachmentDownloadURL(c.Request.Context(), caller, requestID, assignedPlanID, attachmentID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"downloadUrl": downloadURL})
}
