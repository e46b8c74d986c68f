package models

import "time"

// Admin actions recorded in the audit log
const (
	AuditAdjustBalance = "ADJUST_BALANCE"
	AuditForceTier     = "FORCE_TIER"
	AuditSuspend       = "SUSPEND"
	AuditReinstate     = "REINSTATE"
	AuditMerge         = "MERGE"
	AuditDeleteAccount = "DELETE_ACCOUNT"

	AuditApproveRedemption = "APPROVE_REDEMPTION"
	AuditRejectRedemption  = "REJECT_REDEMPTION"
)

// AuditLogEntry is an immutable record of one administrative mutation.
type AuditLogEntry struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	AdminRef       string    `gorm:"not null" json:"admin_ref"`
	TargetWalletID uint      `gorm:"not null;index" json:"target_wallet_id"`
	Action         string    `gorm:"size:32;not null" json:"action"`
	Details        JSON      `gorm:"type:jsonb" json:"details"`
	CreatedAt      time.Time `json:"created_at"`
}

func (AuditLogEntry) TableName() string {
	return "audit_log_entries"
}
