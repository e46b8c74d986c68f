package handlers

import (
	"loyalty/internal/services/referral"
	"loyalty/internal/services/segment"
	"loyalty/internal/utils"
	"loyalty/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// MemberHandler serves referral and segmentation requests for a wallet.
type MemberHandler struct {
	referralService *referral.Service
	segmentService  *segment.Service
}

func NewMemberHandler(referralService *referral.Service, segmentService *segment.Service) *MemberHandler {
	return &MemberHandler{
		referralService: referralService,
		segmentService:  segmentService,
	}
}

func (h *MemberHandler) ApplyReferral(c *fiber.Ctx) error {
	walletID, ok := idParam(c, "id")
	if !ok {
		return utils.BadRequest(c, "invalid wallet id")
	}

	var input struct {
		Code string `json:"code"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	v := validation.New()
	v.Code("code", input.Code)
	if !v.Valid() {
		return utils.ValidationFailed(c, v.Errors)
	}

	result, err := h.referralService.ApplyReferral(c.UserContext(), walletID, input.Code)
	if err != nil {
		return utils.DomainError(c, err)
	}
	return utils.Success(c, result)
}

func (h *MemberHandler) RecomputeSegment(c *fiber.Ctx) error {
	walletID, ok := idParam(c, "id")
	if !ok {
		return utils.BadRequest(c, "invalid wallet id")
	}

	score, err := h.segmentService.Recompute(c.UserContext(), walletID)
	if err != nil {
		return utils.DomainError(c, err)
	}
	return utils.Success(c, score)
}
