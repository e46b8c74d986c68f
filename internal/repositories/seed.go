package repositories

import (
	"context"
	"fmt"

	"loyalty/internal/config"
	"loyalty/internal/models"
)

// SeedProgram upserts the tiers and rewards a program file defines. Tiers and
// rewards are matched by name, so seeding the same file twice is harmless.
func SeedProgram(ctx context.Context, s Store, p *config.ProgramFile) error {
	return s.Transact(ctx, func(tx Store) error {
		for _, spec := range p.Tiers {
			tier := &models.Tier{
				Name:      spec.Name,
				Threshold: spec.Threshold,
				Benefits:  models.NewJSON(spec.Benefits),
			}
			if err := tx.UpsertTier(ctx, tier); err != nil {
				return fmt.Errorf("seed tier %q: %w", spec.Name, err)
			}
		}
		for _, spec := range p.Rewards {
			active := true
			if spec.Active != nil {
				active = *spec.Active
			}
			reward := &models.Reward{
				Name:           spec.Name,
				PointsCost:     spec.PointsCost,
				IsActive:       active,
				Inventory:      spec.Inventory,
				PerMemberLimit: spec.PerMemberLimit,
				AutoApprove:    spec.AutoApprove,
				VoucherPrefix:  spec.VoucherPrefix,
			}
			if err := tx.UpsertReward(ctx, reward); err != nil {
				return fmt.Errorf("seed reward %q: %w", spec.Name, err)
			}
		}
		return nil
	})
}
