package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "loyalty/internal/errors"
	"loyalty/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type store struct {
	db          *gorm.DB
	inTx        bool
	maxAttempts int
}

// NewStore returns a gorm-backed Store. maxAttempts bounds how often a
// transaction is attempted when the database reports a transient failure.
func NewStore(db *gorm.DB, maxAttempts int) Store {
	if db == nil {
		panic("db is required")
	}
	if maxAttempts < 1 {
		maxAttempts = DefaultTxAttempts
	}
	return &store{db: db, maxAttempts: maxAttempts}
}

func (r *store) Transact(ctx context.Context, fn func(tx Store) error) error {
	run := func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(&store{db: tx, inTx: true, maxAttempts: r.maxAttempts})
		})
	}
	if r.inTx {
		return run()
	}
	return WithRetry(ctx, r.maxAttempts, run)
}

func (r *store) CreateWallet(ctx context.Context, wallet *models.MemberWallet) error {
	if err := r.db.WithContext(ctx).Create(wallet).Error; err != nil {
		return fmt.Errorf("failed to create wallet: %w", err)
	}
	return nil
}

func (r *store) GetWallet(ctx context.Context, id uint) (*models.MemberWallet, error) {
	return r.findWallet(r.db.WithContext(ctx).Where("id = ?", id))
}

// GetWalletForUpdate row-locks the wallet until the transaction ends. SQLite
// ignores the locking clause; its writers are serialized by the database lock.
func (r *store) GetWalletForUpdate(ctx context.Context, id uint) (*models.MemberWallet, error) {
	return r.findWallet(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id))
}

func (r *store) GetWalletByMemberRef(ctx context.Context, memberRef string) (*models.MemberWallet, error) {
	return r.findWallet(r.db.WithContext(ctx).Where("member_ref = ?", memberRef))
}

func (r *store) GetWalletByReferralCode(ctx context.Context, code string) (*models.MemberWallet, error) {
	return r.findWallet(r.db.WithContext(ctx).Where("referral_code = ?", code))
}

func (r *store) findWallet(q *gorm.DB) (*models.MemberWallet, error) {
	var wallet models.MemberWallet
	if err := q.First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

func (r *store) AddPoints(ctx context.Context, walletID uint, delta int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.MemberWallet{}).
		Where("id = ? AND points_balance + ? >= 0", walletID, delta).
		Updates(map[string]interface{}{
			"points_balance": gorm.Expr("points_balance + ?", delta),
			"updated_at":     time.Now().UTC(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to update points balance: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *store) AddPendingPoints(ctx context.Context, walletID uint, delta int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.MemberWallet{}).
		Where("id = ? AND pending_points + ? >= 0", walletID, delta).
		Updates(map[string]interface{}{
			"pending_points": gorm.Expr("pending_points + ?", delta),
			"updated_at":     time.Now().UTC(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to update pending points: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *store) AddExpiredPoints(ctx context.Context, walletID uint, points int64) error {
	return r.updateWallet(ctx, walletID, map[string]interface{}{
		"expired_points": gorm.Expr("expired_points + ?", points),
	})
}

func (r *store) AddCashback(ctx context.Context, walletID uint, amount decimal.Decimal) error {
	return r.updateWallet(ctx, walletID, map[string]interface{}{
		"cashback_balance": gorm.Expr("cashback_balance + ?", amount),
	})
}

func (r *store) TouchVisit(ctx context.Context, walletID uint, at time.Time) error {
	return r.updateWallet(ctx, walletID, map[string]interface{}{"last_visit_date": at})
}

func (r *store) SetTier(ctx context.Context, walletID uint, tierID *uint, locked bool) error {
	return r.updateWallet(ctx, walletID, map[string]interface{}{
		"current_tier_id": tierID,
		"tier_locked":     locked,
	})
}

// SetReferredBy writes the referral flag only while it is still unset.
func (r *store) SetReferredBy(ctx context.Context, walletID uint, code string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.MemberWallet{}).
		Where("id = ? AND referred_by_code IS NULL", walletID).
		Updates(map[string]interface{}{
			"referred_by_code": code,
			"updated_at":       time.Now().UTC(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to set referral: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *store) UpdateSegment(ctx context.Context, walletID uint, rfmScore int, clv int64, segment models.Segment) error {
	return r.updateWallet(ctx, walletID, map[string]interface{}{
		"rfm_score": rfmScore,
		"clv_value": clv,
		"segment":   segment,
	})
}

func (r *store) SetStatus(ctx context.Context, walletID uint, status, reason string) error {
	return r.updateWallet(ctx, walletID, map[string]interface{}{
		"status":        status,
		"status_reason": reason,
	})
}

func (r *store) updateWallet(ctx context.Context, walletID uint, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&models.MemberWallet{}).Where("id = ?", walletID).Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("failed to update wallet: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.ErrWalletNotFound
	}
	return nil
}

// MergeBalances adds every balance held by source onto the target wallet and
// carries over the referral flag and latest visit when the target lacks them.
func (r *store) MergeBalances(ctx context.Context, targetID uint, source *models.MemberWallet) error {
	fields := map[string]interface{}{
		"points_balance":   gorm.Expr("points_balance + ?", source.PointsBalance),
		"pending_points":   gorm.Expr("pending_points + ?", source.PendingPoints),
		"expired_points":   gorm.Expr("expired_points + ?", source.ExpiredPoints),
		"cashback_balance": gorm.Expr("cashback_balance + ?", source.CashbackBalance),
		"prepaid_balance":  gorm.Expr("prepaid_balance + ?", source.PrepaidBalance),
	}
	if source.ReferredByCode != nil {
		fields["referred_by_code"] = gorm.Expr("COALESCE(referred_by_code, ?)", *source.ReferredByCode)
	}
	if source.LastVisitDate != nil {
		fields["last_visit_date"] = gorm.Expr(
			"CASE WHEN last_visit_date IS NULL OR last_visit_date < ? THEN ? ELSE last_visit_date END",
			*source.LastVisitDate, *source.LastVisitDate)
	}
	return r.updateWallet(ctx, targetID, fields)
}

func (r *store) ListWalletIDs(ctx context.Context, afterID uint, limit int) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.MemberWallet{}).
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	return ids, nil
}

func (r *store) DeleteWallet(ctx context.Context, walletID uint) error {
	result := r.db.WithContext(ctx).Delete(&models.MemberWallet{}, walletID)
	if result.Error != nil {
		return fmt.Errorf("failed to delete wallet: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.ErrWalletNotFound
	}
	return nil
}
