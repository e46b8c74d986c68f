// Package tier maps a points balance onto the configured tier ladder.
package tier

import (
	"sort"

	"loyalty/internal/models"
)

// Resolve returns the tier with the greatest threshold not above balance, or
// nil when balance is below every threshold. tiers may be in any order and is
// not modified.
func Resolve(tiers []models.Tier, balance int64) *models.Tier {
	sorted := make([]models.Tier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Threshold < sorted[j].Threshold
	})

	var current *models.Tier
	for i := range sorted {
		if sorted[i].Threshold > balance {
			break
		}
		current = &sorted[i]
	}
	return current
}

// IsUpgrade reports whether moving from prev to next raises the member's tier.
// Gaining a tier from none counts as an upgrade.
func IsUpgrade(prev, next *models.Tier) bool {
	if next == nil {
		return false
	}
	if prev == nil {
		return true
	}
	return next.Threshold > prev.Threshold
}

// ID returns the tier's id or nil.
func ID(t *models.Tier) *uint {
	if t == nil {
		return nil
	}
	id := t.ID
	return &id
}

// Find returns the tier with the given id from tiers.
func Find(tiers []models.Tier, id *uint) *models.Tier {
	if id == nil {
		return nil
	}
	for i := range tiers {
		if tiers[i].ID == *id {
			return &tiers[i]
		}
	}
	return nil
}
