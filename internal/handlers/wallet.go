package handlers

import (
	"loyalty/internal/models"
	"loyalty/internal/services/ledger"
	"loyalty/internal/utils"
	"loyalty/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type WalletHandler struct {
	ledgerService *ledger.Service
}

func NewWalletHandler(ledgerService *ledger.Service) *WalletHandler {
	return &WalletHandler{ledgerService: ledgerService}
}

func (h *WalletHandler) CreateWallet(c *fiber.Ctx) error {
	var input struct {
		MemberRef string `json:"member_ref"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	v := validation.New()
	v.MemberRef(input.MemberRef)
	if !v.Valid() {
		return utils.ValidationFailed(c, v.Errors)
	}

	wallet, err := h.ledgerService.CreateWallet(c.UserContext(), input.MemberRef)
	if err != nil {
		return utils.DomainError(c, err)
	}
	return utils.Created(c, fiber.Map{"wallet": wallet})
}

func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	walletID, ok := idParam(c, "id")
	if !ok {
		return utils.BadRequest(c, "invalid wallet id")
	}

	wallet, err := h.ledgerService.GetWallet(c.UserContext(), walletID)
	if err != nil {
		return utils.DomainError(c, err)
	}
	return utils.Success(c, fiber.Map{"wallet": wallet})
}

func (h *WalletHandler) GetLedger(c *fiber.Ctx) error {
	walletID, ok := idParam(c, "id")
	if !ok {
		return utils.BadRequest(c, "invalid wallet id")
	}

	page := utils.GetPagination(c, 1, 20)
	entries, total, err := h.ledgerService.ListLedger(c.UserContext(), walletID, page.Limit, page.Offset)
	if err != nil {
		return utils.DomainError(c, err)
	}
	page.SetTotal(total)
	return utils.Success(c, utils.NewPaginatedResponse(entries, page))
}

func (h *WalletHandler) VerifyLedger(c *fiber.Ctx) error {
	walletID, ok := idParam(c, "id")
	if !ok {
		return utils.BadRequest(c, "invalid wallet id")
	}

	v, err := h.ledgerService.VerifyLedger(c.UserContext(), walletID)
	if err != nil {
		return utils.DomainError(c, err)
	}
	return utils.Success(c, v)
}

func (h *WalletHandler) RecordPurchase(c *fiber.Ctx) error {
	walletID, ok := idParam(c, "id")
	if !ok {
		return utils.BadRequest(c, "invalid wallet id")
	}

	var input struct {
		Amount      decimal.Decimal `json:"amount"`
		Source      string          `json:"source"`
		StoreRef    *string         `json:"store_ref"`
		Description string          `json:"description"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	v := validation.New()
	v.Purchase(input.Amount, input.StoreRef, input.Description)
	if !v.Valid() {
		return utils.ValidationFailed(c, v.Errors)
	}

	source := models.EntrySource(input.Source)
	if source == "" {
		source = models.SourcePOS
	}
	if !source.Valid() {
		return utils.BadRequest(c, "invalid source")
	}

	result, err := h.ledgerService.RecordPurchase(c.UserContext(), ledger.PurchaseRequest{
		WalletID:    walletID,
		Amount:      input.Amount,
		Source:      source,
		StoreRef:    input.StoreRef,
		Description: input.Description,
	})
	if err != nil {
		return utils.DomainError(c, err)
	}
	return utils.Created(c, result)
}
