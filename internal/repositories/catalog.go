package repositories

import (
	"context"
	"errors"
	"fmt"

	errs "loyalty/internal/errors"
	"loyalty/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListTiers returns the tier ladder ordered by ascending threshold.
func (r *store) ListTiers(ctx context.Context) ([]models.Tier, error) {
	var tiers []models.Tier
	if err := r.db.WithContext(ctx).Order("threshold ASC, id ASC").Find(&tiers).Error; err != nil {
		return nil, fmt.Errorf("failed to list tiers: %w", err)
	}
	return tiers, nil
}

func (r *store) GetTier(ctx context.Context, id uint) (*models.Tier, error) {
	var tier models.Tier
	if err := r.db.WithContext(ctx).First(&tier, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTierNotFound
		}
		return nil, fmt.Errorf("failed to get tier: %w", err)
	}
	return &tier, nil
}

// UpsertTier inserts the tier or updates the existing one with the same name.
func (r *store) UpsertTier(ctx context.Context, tier *models.Tier) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"threshold", "benefits", "updated_at"}),
	}).Create(tier).Error
	if err != nil {
		return fmt.Errorf("failed to upsert tier: %w", err)
	}
	return nil
}

func (r *store) GetReward(ctx context.Context, id uint) (*models.Reward, error) {
	var reward models.Reward
	if err := r.db.WithContext(ctx).First(&reward, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrRewardNotFound
		}
		return nil, fmt.Errorf("failed to get reward: %w", err)
	}
	return &reward, nil
}

func (r *store) ListRewards(ctx context.Context, activeOnly bool) ([]models.Reward, error) {
	q := r.db.WithContext(ctx).Order("points_cost ASC, id ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var rewards []models.Reward
	if err := q.Find(&rewards).Error; err != nil {
		return nil, fmt.Errorf("failed to list rewards: %w", err)
	}
	return rewards, nil
}

// UpsertReward matches existing rewards by name.
func (r *store) UpsertReward(ctx context.Context, reward *models.Reward) error {
	var existing models.Reward
	err := r.db.WithContext(ctx).Where("name = ?", reward.Name).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		active := reward.IsActive
		if err := r.db.WithContext(ctx).Create(reward).Error; err != nil {
			return fmt.Errorf("failed to create reward: %w", err)
		}
		// Create skips zero values for columns with a default.
		if !active {
			if err := r.db.WithContext(ctx).Model(reward).Update("is_active", false).Error; err != nil {
				return fmt.Errorf("failed to create reward: %w", err)
			}
		}
		return nil
	case err != nil:
		return fmt.Errorf("failed to look up reward: %w", err)
	}
	reward.ID = existing.ID
	reward.CreatedAt = existing.CreatedAt
	if err := r.db.WithContext(ctx).Save(reward).Error; err != nil {
		return fmt.Errorf("failed to update reward: %w", err)
	}
	return nil
}

// ReserveInventory takes one unit of stock. Rewards without an inventory cap
// always succeed.
func (r *store) ReserveInventory(ctx context.Context, rewardID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Reward{}).
		Where("id = ? AND (inventory IS NULL OR inventory > 0)", rewardID).
		Update("inventory", gorm.Expr("CASE WHEN inventory IS NULL THEN NULL ELSE inventory - 1 END"))
	if result.Error != nil {
		return false, fmt.Errorf("failed to reserve inventory: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *store) ReleaseInventory(ctx context.Context, rewardID uint) error {
	err := r.db.WithContext(ctx).
		Model(&models.Reward{}).
		Where("id = ? AND inventory IS NOT NULL", rewardID).
		Update("inventory", gorm.Expr("inventory + 1")).Error
	if err != nil {
		return fmt.Errorf("failed to release inventory: %w", err)
	}
	return nil
}
