package models

import "time"

// RedemptionStatus is a state of the redemption workflow.
type RedemptionStatus string

const (
	RedemptionPending  RedemptionStatus = "PENDING"
	RedemptionApproved RedemptionStatus = "APPROVED"
	RedemptionRejected RedemptionStatus = "REJECTED"
	RedemptionRedeemed RedemptionStatus = "REDEEMED"
)

// Valid reports whether s is a known status.
func (s RedemptionStatus) Valid() bool {
	switch s {
	case RedemptionPending, RedemptionApproved, RedemptionRejected, RedemptionRedeemed:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s RedemptionStatus) Terminal() bool {
	return s == RedemptionRejected || s == RedemptionRedeemed
}

// Redemption tracks one exchange of points for a reward.
type Redemption struct {
	ID            uint             `gorm:"primarykey" json:"id"`
	WalletID      uint             `gorm:"not null;index:idx_redemption_wallet_status,priority:1" json:"wallet_id"`
	RewardID      uint             `gorm:"not null;index" json:"reward_id"`
	PointsCost    int64            `gorm:"not null" json:"points_cost"`
	Status        RedemptionStatus `gorm:"size:20;not null;index:idx_redemption_wallet_status,priority:2" json:"status"`
	Code          *string          `gorm:"uniqueIndex;size:64" json:"code,omitempty"`
	ExpiresAt     *time.Time       `json:"expires_at,omitempty"`
	UsedAt        *time.Time       `json:"used_at,omitempty"`
	IsGift        bool             `gorm:"not null;default:false" json:"is_gift"`
	GiftRecipient string           `json:"gift_recipient,omitempty"`
	AutoApproved  bool             `gorm:"not null;default:false" json:"auto_approved"`
	DecidedBy     string           `json:"decided_by,omitempty"`
	Reason        string           `json:"reason,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

func (Redemption) TableName() string {
	return "redemptions"
}
