package models

import "time"

// Tier is a status level unlocked once a wallet holds Threshold points.
type Tier struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	Threshold int64     `gorm:"not null;index" json:"threshold"`
	Benefits  JSON      `gorm:"type:jsonb" json:"benefits"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Tier) TableName() string {
	return "tiers"
}
