package models

import "time"

// Reward is a catalog item members exchange points for.
// A nil Inventory or PerMemberLimit means unlimited.
type Reward struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	Name           string    `gorm:"not null" json:"name"`
	PointsCost     int64     `gorm:"not null" json:"points_cost"`
	IsActive       bool      `gorm:"not null;default:true" json:"is_active"`
	Inventory      *int      `json:"inventory"`
	PerMemberLimit *int      `json:"per_member_limit"`
	AutoApprove    bool      `gorm:"not null;default:false" json:"auto_approve"`
	VoucherPrefix  string    `gorm:"size:16" json:"voucher_prefix"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Reward) TableName() string {
	return "rewards"
}
