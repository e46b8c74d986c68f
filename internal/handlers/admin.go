package handlers

import (
	"context"

	"loyalty/internal/middleware"
	"loyalty/internal/models"
	"loyalty/internal/services/admin"
	"loyalty/internal/utils"
	"loyalty/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type statusFunc func(ctx context.Context, adminRef string, walletID uint, reason string) (*models.MemberWallet, error)

type AdminHandler struct {
	adminService *admin.Service
}

func NewAdminHandler(adminService *admin.Service) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

func (h *AdminHandler) AdjustBalance(c *fiber.Ctx) error {
	walletID, ok := idParam(c, "id")
	if !ok {
		return utils.BadRequest(c, "invalid wallet id")
	}

	var input struct {
		Delta  int64  `json:"delta"`
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	v := validation.New()
	v.Adjustment(input.Delta, input.Reason)
	if !v.Valid() {
		return utils.ValidationFailed(c, v.Errors)
	}

	result, err := h.adminService.AdjustBalance(c.UserContext(), middleware.AdminRef(c), walletID, input.Delta, input.Reason)
	if err != nil {
		return utils.DomainError(c, err)
	}
	return utils.Success(c, result)
}

func (h *AdminHandler) ForceTier(c *fiber.Ctx) error {
	walletID, ok := idParam(c, "id")
	if !ok {
		return utils.BadRequest(c, "invalid wallet id")
	}

	// A null tier_id unlocks the wallet.
	var input struct {
		TierID *uint `json:"tier_id"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	wallet, err := h.adminService.ForceTier(c.UserContext(), middleware.AdminRef(c), walletID, input.TierID)
	if err != nil {
		return utils.DomainError(c, err)
	}
	return utils.Success(c, fiber.Map{"wallet": wallet})
}

func (h *AdminHandler) Suspend(c *fiber.Ctx) error {
	return h.setStatus(c, h.adminService.Suspend)
}

func (h *AdminHandler) Reinstate(c *fiber.Ctx) error {
	return h.setStatus(c, h.adminService.Reinstate)
}

func (h *AdminHandler) setStatus(c *fiber.Ctx, apply statusFunc) error {
	walletID, ok := idParam(c, "id")
	if !ok {
		return utils.BadRequest(c, "invalid wallet id")
	}

	var input struct {
		Reason string `json:"reason"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&input); err != nil {
			return utils.BadRequest(c, "invalid request format")
		}
	}

	v := validation.New()
	v.Reason(input.Reason)
	if !v.Valid() {
		return utils.ValidationFailed(c, v.Errors)
	}

	wallet, err := apply(c.UserContext(), middleware.AdminRef(c), walletID, input.Reason)
	if err != nil {
		return utils.DomainError(c, err)
	}
	return utils.Success(c, fiber.Map{"wallet": wallet})
}

func (h *AdminHandler) Merge(c *fiber.Ctx) error {
	targetID, ok := idParam(c, "id")
	if !ok {
		return utils.BadRequest(c, "invalid wallet id")
	}

	var input struct {
		SourceWalletID uint `json:"source_wallet_id"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	v := validation.New()
	v.Required("source_wallet_id", input.SourceWalletID)
	if !v.Valid() {
		return utils.ValidationFailed(c, v.Errors)
	}

	result, err := h.adminService.Merge(c.UserContext(), middleware.AdminRef(c), targetID, input.SourceWalletID)
	if err != nil {
		return utils.DomainError(c, err)
	}
	return utils.Success(c, result)
}

func (h *AdminHandler) DeleteAccount(c *fiber.Ctx) error {
	walletID, ok := idParam(c, "id")
	if !ok {
		return utils.BadRequest(c, "invalid wallet id")
	}

	if err := h.adminService.DeleteAccount(c.UserContext(), middleware.AdminRef(c), walletID); err != nil {
		return utils.DomainError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AdminHandler) ListAudit(c *fiber.Ctx) error {
	walletID, ok := idParam(c, "id")
	if !ok {
		return utils.BadRequest(c, "invalid wallet id")
	}

	page := utils.GetPagination(c, 1, 20)
	entries, total, err := h.adminService.ListAudit(c.UserContext(), walletID, page.Limit, page.Offset)
	if err != nil {
		return utils.DomainError(c, err)
	}
	page.SetTotal(total)
	return utils.Success(c, utils.NewPaginatedResponse(entries, page))
}
