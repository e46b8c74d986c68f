package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Wallet statuses
const (
	WalletStatusActive    = "active"
	WalletStatusSuspended = "suspended"
)

// Segment is the behavioral classification produced by RFM scoring.
type Segment string

const (
	SegmentNew          Segment = "NEW"
	SegmentVIP          Segment = "VIP"
	SegmentAtRisk       Segment = "AT_RISK"
	SegmentNewPotential Segment = "NEW_POTENTIAL"
	SegmentChurned      Segment = "CHURNED"
	SegmentStandard     Segment = "STANDARD"
)

// MemberWallet holds one member's balances, tier and segment.
// PointsBalance always equals the sum of the wallet's ledger entries.
type MemberWallet struct {
	ID              uint            `gorm:"primarykey" json:"id"`
	MemberRef       string          `gorm:"uniqueIndex;not null" json:"member_ref"`
	PointsBalance   int64           `gorm:"not null;default:0;check:points_balance >= 0" json:"points_balance"`
	PendingPoints   int64           `gorm:"not null;default:0;check:pending_points >= 0" json:"pending_points"`
	CashbackBalance decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"cashback_balance"`
	PrepaidBalance  decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"prepaid_balance"`
	CurrentTierID   *uint           `json:"current_tier_id"`
	TierLocked      bool            `gorm:"not null;default:false" json:"tier_locked"`
	ReferralCode    string          `gorm:"uniqueIndex;size:32;not null" json:"referral_code"`
	ReferredByCode  *string         `gorm:"size:32" json:"referred_by_code"`
	RFMScore        int             `gorm:"not null;default:0" json:"rfm_score"`
	CLVValue        int64           `gorm:"not null;default:0" json:"clv_value"`
	Segment         Segment         `gorm:"size:20;not null;default:'NEW'" json:"segment"`
	LastVisitDate   *time.Time      `json:"last_visit_date"`
	ExpiredPoints   int64           `gorm:"not null;default:0" json:"expired_points"`
	Status          string          `gorm:"size:20;not null;default:'active'" json:"status"`
	StatusReason    string          `gorm:"default:''" json:"status_reason"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (MemberWallet) TableName() string {
	return "member_wallets"
}

// BeforeCreate starts every wallet empty; balances only move through the ledger.
func (w *MemberWallet) BeforeCreate(tx *gorm.DB) error {
	w.PointsBalance = 0
	w.PendingPoints = 0
	w.ExpiredPoints = 0
	w.CashbackBalance = decimal.Zero
	w.PrepaidBalance = decimal.Zero
	if w.Segment == "" {
		w.Segment = SegmentNew
	}
	if w.Status == "" {
		w.Status = WalletStatusActive
	}
	return nil
}

// IsActive reports whether member-initiated operations are allowed.
func (w *MemberWallet) IsActive() bool {
	return w.Status == WalletStatusActive
}
