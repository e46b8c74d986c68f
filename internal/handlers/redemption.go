package handlers

import (
	"loyalty/internal/middleware"
	"loyalty/internal/models"
	"loyalty/internal/services/redemption"
	"loyalty/internal/utils"
	"loyalty/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type RedemptionHandler struct {
	redemptionService *redemption.Service
}

func NewRedemptionHandler(redemptionService *redemption.Service) *RedemptionHandler {
	return &RedemptionHandler{redemptionService: redemptionService}
}

func (h *RedemptionHandler) ListRewards(c *fiber.Ctx) error {
	rewards, err := h.redemptionService.Catalog(c.UserContext())
	if err != nil {
		return utils.DomainError(c, err)
	}
	return utils.Success(c, fiber.Map{"rewards": rewards})
}

func (h *RedemptionHandler) RequestRedemption(c *fiber.Ctx) error {
	walletID, ok := idParam(c, "id")
	if !ok {
		return utils.BadRequest(c, "invalid wallet id")
	}

	var input struct {
		RewardID      uint   `json:"reward_id"`
		IsGift        bool   `json:"is_gift"`
		GiftRecipient string `json:"gift_recipient"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	v := validation.New()
	v.Redemption(input.RewardID, input.IsGift, input.GiftRecipient)
	if !v.Valid() {
		return utils.ValidationFailed(c, v.Errors)
	}

	r, err := h.redemptionService.RequestRedemption(c.UserContext(), redemption.RedeemRequest{
		WalletID:      walletID,
		RewardID:      input.RewardID,
		IsGift:        input.IsGift,
		GiftRecipient: input.GiftRecipient,
	})
	if err != nil {
		return utils.DomainError(c, err)
	}
	return utils.Created(c, fiber.Map{"redemption": r})
}

func (h *RedemptionHandler) ListRedemptions(c *fiber.Ctx) error {
	walletID, ok := idParam(c, "id")
	if !ok {
		return utils.BadRequest(c, "invalid wallet id")
	}

	page := utils.GetPagination(c, 1, 20)
	status := models.RedemptionStatus(c.Query("status"))
	items, total, err := h.redemptionService.List(c.UserContext(), walletID, status, page.Limit, page.Offset)
	if err != nil {
		return utils.DomainError(c, err)
	}
	page.SetTotal(total)
	return utils.Success(c, utils.NewPaginatedResponse(items, page))
}

func (h *RedemptionHandler) BurnVoucher(c *fiber.Ctx) error {
	v := validation.New()
	v.Code("code", c.Params("code"))
	if !v.Valid() {
		return utils.ValidationFailed(c, v.Errors)
	}

	r, err := h.redemptionService.Burn(c.UserContext(), c.Params("code"))
	if err != nil {
		return utils.DomainError(c, err)
	}
	return utils.Success(c, fiber.Map{"redemption": r})
}

func (h *RedemptionHandler) Approve(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return utils.BadRequest(c, "invalid redemption id")
	}

	r, err := h.redemptionService.Approve(c.UserContext(), id, middleware.AdminRef(c))
	if err != nil {
		return utils.DomainError(c, err)
	}
	return utils.Success(c, fiber.Map{"redemption": r})
}

func (h *RedemptionHandler) Reject(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return utils.BadRequest(c, "invalid redemption id")
	}

	var input struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	v := validation.New()
	v.Reason(input.Reason)
	if !v.Valid() {
		return utils.ValidationFailed(c, v.Errors)
	}

	r, err := h.redemptionService.Reject(c.UserContext(), id, middleware.AdminRef(c), input.Reason)
	if err != nil {
		return utils.DomainError(c, err)
	}
	return utils.Success(c, fiber.Map{"redemption": r})
}
