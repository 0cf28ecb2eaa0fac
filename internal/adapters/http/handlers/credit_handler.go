package handlers

import (
	"landstede-printlab/internal/core/services"
	"landstede-printlab/internal/pkg/pagination"
	"landstede-printlab/internal/pkg/response"
	"landstede-printlab/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// CreditHandler handles credit ledger endpoints
type CreditHandler struct {
	creditService *services.CreditService
}

// NewCreditHandler creates a new credit handler
func NewCreditHandler(creditService *services.CreditService) *CreditHandler {
	return &CreditHandler{
		creditService: creditService,
	}
}

// PurchaseRequest represents a credit pack purchase request body
type PurchaseRequest struct {
	Pack string `json:"pack" validate:"required"`
}

// AdjustRequest represents an admin credit adjustment request body
type AdjustRequest struct {
	Amount      int    `json:"amount" validate:"required"`
	Description string `json:"description" validate:"required"`
}

// Balance returns the caller's credit balance
// @Summary Credit balance
// @Description Current and available balance, derived from the ledger
// @Tags Credits
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /credits/balance [get]
func (h *CreditHandler) Balance(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	balance, err := h.creditService.Balance(c.Context(), userID)
	if err != nil {
		return response.DomainError(c, err)
	}
	available, err := h.creditService.AvailableBalance(c.Context(), userID)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Balance retrieved", fiber.Map{
		"balance":   balance,
		"available": available,
	})
}

// History returns the caller's transactions, newest first
// @Summary Credit history
// @Description Paginated transaction history, newest first
// @Tags Credits
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Response
// @Router /credits/history [get]
func (h *CreditHandler) History(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	params := pagination.GetParams(c)
	result, err := h.creditService.History(c.Context(), userID, params)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Transactions retrieved", result)
}

// Packs lists the purchasable credit packs
// @Summary Credit packs
// @Description Available credit packs and their sizes
// @Tags Credits
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /credits/packs [get]
func (h *CreditHandler) Packs(c *fiber.Ctx) error {
	return response.Success(c, "Credit packs retrieved", services.CreditPacks)
}

// Purchase buys a credit pack
// @Summary Purchase credits
// @Description Buy a credit pack and append the purchase to the ledger
// @Tags Credits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body PurchaseRequest true "Pack name"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /credits/purchase [post]
func (h *CreditHandler) Purchase(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req PurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validation.Struct(&req); err != nil {
		return response.BadRequest(c, err.Error())
	}

	tx, err := h.creditService.Purchase(c.Context(), userID, req.Pack)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Created(c, "Credits purchased", tx)
}

// Adjust records a manual credit correction for a user (admin)
// @Summary Adjust credits
// @Description Manual ledger correction; negative amounts are bounded by available balance (admin only)
// @Tags Credits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param body body AdjustRequest true "Adjustment"
// @Success 201 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/users/{id}/credits [post]
func (h *CreditHandler) Adjust(c *fiber.Ctx) error {
	adminID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	userID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var req AdjustRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validation.Struct(&req); err != nil {
		return response.BadRequest(c, err.Error())
	}

	tx, err := h.creditService.AdminAdjust(c.Context(), adminID, userID, req.Amount, req.Description)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Created(c, "Credits adjusted", tx)
}

// UserHistory returns a user's transactions (admin)
// @Summary User credit history
// @Description Paginated transaction history for any user (admin only)
// @Tags Credits
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Router /admin/users/{id}/credits [get]
func (h *CreditHandler) UserHistory(c *fiber.Ctx) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	params := pagination.GetParams(c)
	result, err := h.creditService.History(c.Context(), userID, params)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Transactions retrieved", result)
}
