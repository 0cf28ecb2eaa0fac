package handlers

import (
	"landstede-printlab/internal/core/services"
	"landstede-printlab/internal/pkg/pagination"
	"landstede-printlab/internal/pkg/response"
	"landstede-printlab/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// JobHandler handles print job lifecycle endpoints
type JobHandler struct {
	jobService   *services.JobService
	queueService *services.QueueService
}

// NewJobHandler creates a new job handler
func NewJobHandler(jobService *services.JobService, queueService *services.QueueService) *JobHandler {
	return &JobHandler{
		jobService:   jobService,
		queueService: queueService,
	}
}

// SetPriorityRequest represents a priority change request body
type SetPriorityRequest struct {
	Priority int `json:"priority" validate:"required,min=1"`
}

// NoteRequest represents an admin audit note request body
type NoteRequest struct {
	Note string `json:"note" validate:"required"`
}

// Submit creates a new pending print job
// @Summary Submit print job
// @Description Submit a job to a printer's queue; cost and duration are estimated from file size
// @Tags Jobs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.SubmitInput true "Job submission"
// @Success 201 {object} response.Response
// @Failure 402 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /jobs [post]
func (h *JobHandler) Submit(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.SubmitInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validation.Struct(&input); err != nil {
		return response.BadRequest(c, err.Error())
	}

	job, err := h.jobService.Submit(c.Context(), userID, &input)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Created(c, "Job submitted", job)
}

// ListMine returns the caller's jobs grouped by status
// @Summary My jobs
// @Description The caller's jobs partitioned into active, completed and other
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /jobs/mine [get]
func (h *JobHandler) ListMine(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	jobs, err := h.jobService.ListMine(c.Context(), userID)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Jobs retrieved", jobs)
}

// Get returns one job
// @Summary Get job
// @Description Get one job; students may only read their own
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Param id path int true "Job ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /jobs/{id} [get]
func (h *JobHandler) Get(c *fiber.Ctx) error {
	actorID, actorRole, err := actor(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid job ID")
	}

	job, err := h.jobService.Get(c.Context(), actorID, actorRole, id)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Job retrieved", job)
}

// Position returns a job's place in its printer's queue
// @Summary Job queue position
// @Description 1-based queue position and estimated wait for an active job
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Param id path int true "Job ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /jobs/{id}/position [get]
func (h *JobHandler) Position(c *fiber.Ctx) error {
	actorID, actorRole, err := actor(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid job ID")
	}

	// Ownership check first so students cannot probe other users' jobs.
	if _, err := h.jobService.Get(c.Context(), actorID, actorRole, id); err != nil {
		return response.DomainError(c, err)
	}

	entry, err := h.queueService.PositionOf(id)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Queue position retrieved", entry)
}

// Cancel withdraws a pending or approved job
// @Summary Cancel job
// @Description Cancel a queued job; owner or admin only
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Param id path int true "Job ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /jobs/{id}/cancel [post]
func (h *JobHandler) Cancel(c *fiber.Ctx) error {
	actorID, actorRole, err := actor(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid job ID")
	}

	job, err := h.jobService.Cancel(c.Context(), actorID, actorRole, id)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Job cancelled", job)
}

// ListAll returns jobs across all users (admin)
// @Summary List all jobs
// @Description Paginated job list with optional status filter (admin only)
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Response
// @Router /admin/jobs [get]
func (h *JobHandler) ListAll(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	page, err := h.jobService.ListAll(c.Context(), c.Query("status"), params)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Jobs retrieved", page)
}

// Approve moves a pending job to approved (admin)
// @Summary Approve job
// @Description Approve a pending job (admin only)
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Param id path int true "Job ID"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /admin/jobs/{id}/approve [post]
func (h *JobHandler) Approve(c *fiber.Ctx) error {
	adminID, _, err := actor(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid job ID")
	}

	job, err := h.jobService.Approve(c.Context(), adminID, id)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Job approved", job)
}

// Start moves an approved job to printing (admin)
// @Summary Start job
// @Description Start an approved job on its printer (admin only)
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Param id path int true "Job ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /admin/jobs/{id}/start [post]
func (h *JobHandler) Start(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid job ID")
	}

	job, err := h.jobService.Start(c.Context(), id)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Job started", job)
}

// Complete finishes a printing job and debits the ledger (admin)
// @Summary Complete job
// @Description Complete a printing job, debit credits and free the printer (admin only)
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Param id path int true "Job ID"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /admin/jobs/{id}/complete [post]
func (h *JobHandler) Complete(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid job ID")
	}

	job, err := h.jobService.Complete(c.Context(), id)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Job completed", job)
}

// Fail marks a printing job failed (admin)
// @Summary Fail job
// @Description Mark a printing job failed and free the printer (admin only)
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Param id path int true "Job ID"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /admin/jobs/{id}/fail [post]
func (h *JobHandler) Fail(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid job ID")
	}

	job, err := h.jobService.Fail(c.Context(), id)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Job failed", job)
}

// SetPriority reprioritizes a queued job (admin)
// @Summary Set job priority
// @Description Change a queued job's priority; lower values print first (admin only)
// @Tags Jobs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Job ID"
// @Param body body SetPriorityRequest true "New priority"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /admin/jobs/{id}/priority [patch]
func (h *JobHandler) SetPriority(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid job ID")
	}

	var req SetPriorityRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validation.Struct(&req); err != nil {
		return response.BadRequest(c, err.Error())
	}

	job, err := h.jobService.SetPriority(c.Context(), id, req.Priority)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Job priority updated", job)
}

// AppendNote adds an admin audit note to a job (admin)
// @Summary Append job note
// @Description Append an audit note; the only mutation allowed on terminal jobs (admin only)
// @Tags Jobs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Job ID"
// @Param body body NoteRequest true "Note"
// @Success 200 {object} response.Response
// @Router /admin/jobs/{id}/notes [post]
func (h *JobHandler) AppendNote(c *fiber.Ctx) error {
	adminID, _, err := actor(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid job ID")
	}

	var req NoteRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	job, err := h.jobService.AppendNote(c.Context(), adminID, id, req.Note)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Note added", job)
}

// actor reads the authenticated user's id and role from the request context
func actor(c *fiber.Ctx) (uint, string, error) {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return 0, "", fiber.ErrUnauthorized
	}
	role, _ := c.Locals("role").(string)
	return userID, role, nil
}
