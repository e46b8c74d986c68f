package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "loyalty/internal/errors"
	"loyalty/internal/models"

	"gorm.io/gorm"
)

func (r *store) CreateRedemption(ctx context.Context, redemption *models.Redemption) error {
	if err := r.db.WithContext(ctx).Create(redemption).Error; err != nil {
		return fmt.Errorf("failed to create redemption: %w", err)
	}
	return nil
}

func (r *store) GetRedemption(ctx context.Context, id uint) (*models.Redemption, error) {
	return r.findRedemption(r.db.WithContext(ctx).Where("id = ?", id), errs.ErrRedemptionNotFound)
}

func (r *store) GetRedemptionByCode(ctx context.Context, code string) (*models.Redemption, error) {
	return r.findRedemption(r.db.WithContext(ctx).Where("code = ?", code), errs.ErrVoucherNotFound)
}

func (r *store) findRedemption(q *gorm.DB, notFound error) (*models.Redemption, error) {
	var redemption models.Redemption
	if err := q.First(&redemption).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound
		}
		return nil, fmt.Errorf("failed to get redemption: %w", err)
	}
	return &redemption, nil
}

// CountLiveRedemptions counts the wallet's redemptions of a reward that were
// not rejected.
func (r *store) CountLiveRedemptions(ctx context.Context, walletID, rewardID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Redemption{}).
		Where("wallet_id = ? AND reward_id = ? AND status <> ?", walletID, rewardID, models.RedemptionRejected).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count redemptions: %w", err)
	}
	return count, nil
}

// TransitionRedemption applies fields only while the redemption is still in
// state from.
func (r *store) TransitionRedemption(ctx context.Context, id uint, from models.RedemptionStatus, fields map[string]interface{}) (bool, error) {
	fields["updated_at"] = time.Now().UTC()
	result := r.db.WithContext(ctx).
		Model(&models.Redemption{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	if result.Error != nil {
		return false, fmt.Errorf("failed to transition redemption: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *store) BurnVoucher(ctx context.Context, code string, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Redemption{}).
		Where("code = ? AND status = ? AND (expires_at IS NULL OR expires_at > ?)", code, models.RedemptionApproved, now).
		Updates(map[string]interface{}{
			"status":     models.RedemptionRedeemed,
			"used_at":    now,
			"updated_at": now,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to burn voucher: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// ListRedemptions lists a wallet's redemptions, newest first. An empty status
// matches every state.
func (r *store) ListRedemptions(ctx context.Context, walletID uint, status models.RedemptionStatus, limit, offset int) ([]models.Redemption, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Redemption{}).Where("wallet_id = ?", walletID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count redemptions: %w", err)
	}

	var redemptions []models.Redemption
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&redemptions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list redemptions: %w", err)
	}
	return redemptions, total, nil
}

func (r *store) ReassignRedemptions(ctx context.Context, fromWalletID, toWalletID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Redemption{}).
		Where("wallet_id = ?", fromWalletID).
		Update("wallet_id", toWalletID)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to reassign redemptions: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *store) DeleteRedemptions(ctx context.Context, walletID uint) (int64, error) {
	result := r.db.WithContext(ctx).Where("wallet_id = ?", walletID).Delete(&models.Redemption{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete redemptions: %w", result.Error)
	}
	return result.RowsAffected, nil
}
