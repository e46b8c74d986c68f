package ledger

import (
	"github.com/shopspring/decimal"

	"loyalty/internal/models"
)

// DeltaRequest describes one signed change to a wallet's points balance.
type DeltaRequest struct {
	WalletID       uint
	Kind           models.EntryKind
	PointsDelta    int64
	MonetaryAmount *decimal.Decimal
	Description    string
	Source         models.EntrySource
	StoreRef       *string
}

// DeltaResult is the outcome of an applied delta.
type DeltaResult struct {
	NewBalance     int64 `json:"new_balance"`
	LedgerEntryID  uint  `json:"ledger_entry_id"`
	PreviousTierID *uint `json:"previous_tier_id"`
	NewTierID      *uint `json:"new_tier_id"`
}

// TierChanged reports whether the delta moved the wallet to another tier.
func (r *DeltaResult) TierChanged() bool {
	if r.PreviousTierID == nil || r.NewTierID == nil {
		return r.PreviousTierID != r.NewTierID
	}
	return *r.PreviousTierID != *r.NewTierID
}

// PurchaseRequest records a member purchase that earns points and cashback.
type PurchaseRequest struct {
	WalletID    uint
	Amount      decimal.Decimal
	Source      models.EntrySource
	StoreRef    *string
	Description string
}

// PurchaseResult is the outcome of a recorded purchase. LedgerEntryID is
// zero when the amount was too small to earn a point.
type PurchaseResult struct {
	PointsEarned   int64           `json:"points_earned"`
	CashbackEarned decimal.Decimal `json:"cashback_earned"`
	NewBalance     int64           `json:"new_balance"`
	LedgerEntryID  uint            `json:"ledger_entry_id,omitempty"`
}

// Verification compares a wallet's stored balance with its ledger.
type Verification struct {
	WalletID      uint  `json:"wallet_id"`
	PointsBalance int64 `json:"points_balance"`
	LedgerSum     int64 `json:"ledger_sum"`
	Consistent    bool  `json:"consistent"`
}
