package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fieldtrack/paperflow/internal/application/port"
	"github.com/fieldtrack/paperflow/internal/application/service"
	"github.com/fieldtrack/paperflow/internal/domain/entity"
	"github.com/fieldtrack/paperflow/internal/domain/workflow"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	registry      service.WorkflowRegistry
	recordService service.RecordService
	dispatcher    service.NotificationDispatcher
	employees     port.EmployeeRepository
	logger        Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	registry service.WorkflowRegistry,
	recordService service.RecordService,
	dispatcher service.NotificationDispatcher,
	employees port.EmployeeRepository,
	logger Logger,
) *Handlers {
	return &Handlers{
		registry:      registry,
		recordService: recordService,
		dispatcher:    dispatcher,
		employees:     employees,
		logger:        logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// LevelRequest is one workflow level in create/update requests
type LevelRequest struct {
	ID           string   `json:"id"`
	LevelNumber  int      `json:"level_number"`
	LevelType    string   `json:"level_type" binding:"required"`
	ApprovalType string   `json:"approval_type" binding:"required"`
	ApproverIDs  []string `json:"approver_ids"`
}

// WorkflowRequest is the body of workflow create/update requests
type WorkflowRequest struct {
	Name          string         `json:"name" binding:"required"`
	IsActive      *bool          `json:"is_active"`
	Levels        []LevelRequest `json:"levels" binding:"required"`
	AssignedForms []string       `json:"assigned_forms"`
}

// CreateRecordRequest is the body of record creation requests
type CreateRecordRequest struct {
	FormType    string          `json:"form_type" binding:"required"`
	SubmitterID string          `json:"submitter_id" binding:"required"`
	Project     string          `json:"project"`
	FormData    json.RawMessage `json:"form_data"`
}

// ActionRequest is the body of approve/reject requests
type ActionRequest struct {
	ActorID string `json:"actor_id" binding:"required"`
	Comment string `json:"comment"`
}

// CreateEmployeeRequest is the body of employee creation requests
type CreateEmployeeRequest struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name" binding:"required"`
	AppRole     string `json:"app_role"`
	JobTitle    string `json:"job_title"`
}

// ListRecordsRequest represents query parameters for listing records
type ListRecordsRequest struct {
	FormType string `form:"form_type" binding:"required"`
	Limit    int    `form:"limit"`
	Offset   int    `form:"offset"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// CreateWorkflow handles POST /api/workflows
func (h *Handlers) CreateWorkflow(c *gin.Context) {
	var req WorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	wf := toWorkflow(&req)
	if err := h.registry.CreateWorkflow(c.Request.Context(), wf); err != nil {
		h.serviceError(c, "Failed to create workflow", err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: wf})
}

// UpdateWorkflow handles PUT /api/workflows/:id
func (h *Handlers) UpdateWorkflow(c *gin.Context) {
	var req WorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	wf := toWorkflow(&req)
	wf.ID = c.Param("id")
	if err := h.registry.UpdateWorkflow(c.Request.Context(), wf); err != nil {
		h.serviceError(c, "Failed to update workflow", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: wf})
}

// GetWorkflow handles GET /api/workflows/:id
func (h *Handlers) GetWorkflow(c *gin.Context) {
	wf, err := h.registry.GetWorkflow(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.serviceError(c, "Failed to get workflow", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: wf})
}

// ListWorkflows handles GET /api/workflows
func (h *Handlers) ListWorkflows(c *gin.Context) {
	workflows, err := h.registry.ListWorkflows(c.Request.Context())
	if err != nil {
		h.serviceError(c, "Failed to list workflows", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: workflows})
}

// DeleteWorkflow handles DELETE /api/workflows/:id
func (h *Handlers) DeleteWorkflow(c *gin.Context) {
	if err := h.registry.DeleteWorkflow(c.Request.Context(), c.Param("id")); err != nil {
		h.serviceError(c, "Failed to delete workflow", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// ActivateWorkflow handles POST /api/workflows/:id/activate
func (h *Handlers) ActivateWorkflow(c *gin.Context) {
	h.setWorkflowActive(c, true)
}

// DeactivateWorkflow handles POST /api/workflows/:id/deactivate
func (h *Handlers) DeactivateWorkflow(c *gin.Context) {
	h.setWorkflowActive(c, false)
}

func (h *Handlers) setWorkflowActive(c *gin.Context, active bool) {
	if err := h.registry.SetActive(c.Request.Context(), c.Param("id"), active); err != nil {
		h.serviceError(c, "Failed to set workflow active flag", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// CreateRecord handles POST /api/records
func (h *Handlers) CreateRecord(c *gin.Context) {
	var req CreateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	record := &entity.FieldRecord{
		FormType:    entity.FormType(req.FormType),
		SubmitterID: req.SubmitterID,
		Project:     req.Project,
		FormData:    string(req.FormData),
	}
	if record.FormData == "" {
		record.FormData = "{}"
	}

	if err := h.recordService.CreateRecord(c.Request.Context(), record); err != nil {
		h.serviceError(c, "Failed to create record", err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: record})
}

// GetRecord handles GET /api/records/:id
func (h *Handlers) GetRecord(c *gin.Context) {
	record, err := h.recordService.GetRecord(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.serviceError(c, "Failed to get record", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: record})
}

// ListRecords handles GET /api/records
func (h *Handlers) ListRecords(c *gin.Context) {
	var req ListRecordsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	records, err := h.recordService.ListRecords(c.Request.Context(), entity.FormType(req.FormType), req.Limit, req.Offset)
	if err != nil {
		h.serviceError(c, "Failed to list records", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: records})
}

// SubmitRecord handles POST /api/records/:id/submit
func (h *Handlers) SubmitRecord(c *gin.Context) {
	record, err := h.recordService.Submit(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.serviceError(c, "Failed to submit record", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: record})
}

// ApproveRecord handles POST /api/records/:id/approve
func (h *Handlers) ApproveRecord(c *gin.Context) {
	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	record, err := h.recordService.Approve(c.Request.Context(), c.Param("id"), req.ActorID, req.Comment)
	if err != nil {
		h.serviceError(c, "Failed to approve record", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: record})
}

// RejectRecord handles POST /api/records/:id/reject
func (h *Handlers) RejectRecord(c *gin.Context) {
	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	record, err := h.recordService.Reject(c.Request.Context(), c.Param("id"), req.ActorID, req.Comment)
	if err != nil {
		h.serviceError(c, "Failed to reject record", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: record})
}

// ListUnreadNotifications handles GET /api/notifications?recipient_id=...
func (h *Handlers) ListUnreadNotifications(c *gin.Context) {
	recipientID := c.Query("recipient_id")
	if recipientID == "" {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "recipient_id is required"})
		return
	}

	notifications, err := h.dispatcher.ListUnread(c.Request.Context(), recipientID)
	if err != nil {
		h.serviceError(c, "Failed to list notifications", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: notifications})
}

// MarkNotificationRead handles POST /api/notifications/:id/read
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	if err := h.dispatcher.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		h.serviceError(c, "Failed to mark notification read", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// CreateEmployee handles POST /api/employees
func (h *Handlers) CreateEmployee(c *gin.Context) {
	var req CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	employee := &entity.Employee{
		ID:          req.ID,
		DisplayName: req.DisplayName,
		AppRole:     req.AppRole,
		JobTitle:    req.JobTitle,
		IsActive:    true,
		CreatedAt:   time.Now(),
	}
	if err := h.employees.Create(c.Request.Context(), employee); err != nil {
		h.serviceError(c, "Failed to create employee", err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: employee})
}

// ListEmployees handles GET /api/employees
func (h *Handlers) ListEmployees(c *gin.Context) {
	employees, err := h.employees.List(c.Request.Context())
	if err != nil {
		h.serviceError(c, "Failed to list employees", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: employees})
}

// ActivateEmployee handles POST /api/employees/:id/activate
func (h *Handlers) ActivateEmployee(c *gin.Context) {
	h.setEmployeeActive(c, true)
}

// DeactivateEmployee handles POST /api/employees/:id/deactivate
func (h *Handlers) DeactivateEmployee(c *gin.Context) {
	h.setEmployeeActive(c, false)
}

func (h *Handlers) setEmployeeActive(c *gin.Context, active bool) {
	if err := h.employees.SetActive(c.Request.Context(), c.Param("id"), active); err != nil {
		h.serviceError(c, "Failed to set employee active flag", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

func (h *Handlers) badRequest(c *gin.Context, err error) {
	h.logger.Error("Invalid request", "error", err)
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request: " + err.Error()})
}

// serviceError maps application errors onto HTTP status codes
func (h *Handlers) serviceError(c *gin.Context, msg string, err error) {
	h.logger.Error(msg, "error", err, "path", c.Request.URL.Path)

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrRecordNotFound), errors.Is(err, service.ErrWorkflowNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrUnauthorizedActor):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrFormOverlap), errors.Is(err, service.ErrMissingLevel):
		status = http.StatusConflict
	case errors.Is(err, workflow.ErrInvalidTransition), errors.Is(err, workflow.ErrGuardFailed):
		status = http.StatusConflict
	}

	c.JSON(status, Response{Success: false, Error: err.Error()})
}

// toWorkflow converts a request body to the domain entity
func toWorkflow(req *WorkflowRequest) *entity.Workflow {
	wf := &entity.Workflow{
		Name:     req.Name,
		IsActive: true,
	}
	if req.IsActive != nil {
		wf.IsActive = *req.IsActive
	}
	for _, l := range req.Levels {
		wf.Levels = append(wf.Levels, entity.Level{
			ID:           l.ID,
			LevelNumber:  l.LevelNumber,
			LevelType:    entity.LevelType(l.LevelType),
			ApprovalType: entity.ApprovalType(l.ApprovalType),
			ApproverIDs:  l.ApproverIDs,
		})
	}
	for _, f := range req.AssignedForms {
		wf.AssignedForms = append(wf.AssignedForms, entity.FormType(f))
	}
	return wf
}
