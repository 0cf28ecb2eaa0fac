package handlers

import (
	"strconv"

	"landstede-printlab/internal/core/services"
	"landstede-printlab/internal/pkg/response"
	"landstede-printlab/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// PrinterHandler handles printer registry endpoints
type PrinterHandler struct {
	printerService *services.PrinterService
	queueService   *services.QueueService
}

// NewPrinterHandler creates a new printer handler
func NewPrinterHandler(printerService *services.PrinterService, queueService *services.QueueService) *PrinterHandler {
	return &PrinterHandler{
		printerService: printerService,
		queueService:   queueService,
	}
}

// SetStatusRequest represents a printer status change request body
type SetStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// List returns all printers with queue info
// @Summary List printers
// @Description List all printers with queue length and estimated wait
// @Tags Printers
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /printers [get]
func (h *PrinterHandler) List(c *fiber.Ctx) error {
	printers, err := h.printerService.List()
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Printers retrieved", printers)
}

// Get returns one printer with queue info
// @Summary Get printer
// @Description Get one printer with queue length and estimated wait
// @Tags Printers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Printer ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /printers/{id} [get]
func (h *PrinterHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid printer ID")
	}

	printer, err := h.printerService.Get(id)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Printer retrieved", printer)
}

// Queue returns the live queue for a printer
// @Summary Get printer queue
// @Description Live queue projection with positions and estimated waits
// @Tags Printers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Printer ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /printers/{id}/queue [get]
func (h *PrinterHandler) Queue(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid printer ID")
	}

	entries, err := h.queueService.Queue(id)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Queue retrieved", fiber.Map{
		"printer_id": id,
		"length":     len(entries),
		"entries":    entries,
	})
}

// Stats returns completed-job aggregates for a printer
// @Summary Printer statistics
// @Description Completed-job aggregates for one printer
// @Tags Printers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Printer ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/printers/{id}/stats [get]
func (h *PrinterHandler) Stats(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid printer ID")
	}

	stats, err := h.printerService.Stats(id)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Printer stats retrieved", stats)
}

// Create registers a new printer
// @Summary Create printer
// @Description Register a new printer (admin only)
// @Tags Printers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreatePrinterInput true "Printer data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /admin/printers [post]
func (h *PrinterHandler) Create(c *fiber.Ctx) error {
	var input services.CreatePrinterInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validation.Struct(&input); err != nil {
		return response.BadRequest(c, err.Error())
	}

	printer, err := h.printerService.Create(&input)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Created(c, "Printer created", printer)
}

// Update patches printer metadata
// @Summary Update printer
// @Description Patch printer metadata (admin only)
// @Tags Printers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Printer ID"
// @Param body body services.UpdatePrinterInput true "Fields to update"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/printers/{id} [put]
func (h *PrinterHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid printer ID")
	}

	var input services.UpdatePrinterInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validation.Struct(&input); err != nil {
		return response.BadRequest(c, err.Error())
	}

	printer, err := h.printerService.Update(id, &input)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Printer updated", printer)
}

// SetStatus performs an administrative printer status transition
// @Summary Set printer status
// @Description Change printer status (admin only; printing is owned by the job lifecycle)
// @Tags Printers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Printer ID"
// @Param body body SetStatusRequest true "New status"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/printers/{id}/status [patch]
func (h *PrinterHandler) SetStatus(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid printer ID")
	}

	var req SetStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Status == "" {
		return response.BadRequest(c, "status is required")
	}

	printer, err := h.printerService.SetStatus(id, req.Status)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Printer status updated", printer)
}

// Delete removes a printer without active jobs
// @Summary Delete printer
// @Description Delete a printer; rejected while jobs are queued on it (admin only)
// @Tags Printers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Printer ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/printers/{id} [delete]
func (h *PrinterHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid printer ID")
	}

	if err := h.printerService.Delete(id); err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Printer deleted", nil)
}

// parseID parses a uint path parameter
func parseID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
