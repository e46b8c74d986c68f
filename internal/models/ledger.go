package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind classifies a ledger entry.
type EntryKind string

const (
	KindEarn             EntryKind = "EARN"
	KindRedeem           EntryKind = "REDEEM"
	KindAdjustmentAdd    EntryKind = "ADJUSTMENT_ADD"
	KindAdjustmentDeduct EntryKind = "ADJUSTMENT_DEDUCT"
	KindReferralBonus    EntryKind = "REFERRAL_BONUS"
	KindRefund           EntryKind = "REFUND"
	KindExpiry           EntryKind = "EXPIRY"
)

// Valid reports whether k is a known kind.
func (k EntryKind) Valid() bool {
	switch k {
	case KindEarn, KindRedeem, KindAdjustmentAdd, KindAdjustmentDeduct,
		KindReferralBonus, KindRefund, KindExpiry:
		return true
	}
	return false
}

// EntrySource records where a balance change originated.
type EntrySource string

const (
	SourcePOS          EntrySource = "POS"
	SourceOnline       EntrySource = "ONLINE"
	SourceAdminConsole EntrySource = "ADMIN_CONSOLE"
	SourceSystem       EntrySource = "SYSTEM"
)

// Valid reports whether s is a known source.
func (s EntrySource) Valid() bool {
	switch s {
	case SourcePOS, SourceOnline, SourceAdminConsole, SourceSystem:
		return true
	}
	return false
}

// LedgerEntry is an append-only record of one points balance change.
type LedgerEntry struct {
	ID             uint             `gorm:"primarykey" json:"id"`
	WalletID       uint             `gorm:"not null;index:idx_ledger_wallet_created,priority:1" json:"wallet_id"`
	Kind           EntryKind        `gorm:"size:32;not null" json:"kind"`
	PointsDelta    int64            `gorm:"not null" json:"points_delta"`
	MonetaryAmount *decimal.Decimal `gorm:"type:decimal(20,4)" json:"monetary_amount,omitempty"`
	Description    string           `json:"description"`
	Source         EntrySource      `gorm:"size:32;not null" json:"source"`
	StoreRef       *string          `json:"store_ref,omitempty"`
	Reference      string           `gorm:"size:64;index" json:"reference"`
	CreatedAt      time.Time        `gorm:"index:idx_ledger_wallet_created,priority:2" json:"created_at"`
}

func (LedgerEntry) TableName() string {
	return "ledger_entries"
}
