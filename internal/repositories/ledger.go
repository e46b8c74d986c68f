package repositories

import (
	"context"
	"fmt"

	"loyalty/internal/models"
)

func (r *store) CreateLedgerEntry(ctx context.Context, entry *models.LedgerEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create ledger entry: %w", err)
	}
	return nil
}

func (r *store) ListLedger(ctx context.Context, walletID uint, limit, offset int) ([]models.LedgerEntry, int64, error) {
	var total int64
	q := r.db.WithContext(ctx).Model(&models.LedgerEntry{}).Where("wallet_id = ?", walletID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}

	var entries []models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get ledger history: %w", err)
	}
	return entries, total, nil
}

// LedgerEntries returns every entry of a wallet, most recent first.
func (r *store) LedgerEntries(ctx context.Context, walletID uint) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("created_at DESC, id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entries: %w", err)
	}
	return entries, nil
}

func (r *store) SumLedger(ctx context.Context, walletID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("wallet_id = ?", walletID).
		Select("COALESCE(SUM(points_delta), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum ledger: %w", err)
	}
	return total, nil
}

func (r *store) ReassignLedger(ctx context.Context, fromWalletID, toWalletID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("wallet_id = ?", fromWalletID).
		Update("wallet_id", toWalletID)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to reassign ledger entries: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *store) DeleteLedger(ctx context.Context, walletID uint) (int64, error) {
	result := r.db.WithContext(ctx).Where("wallet_id = ?", walletID).Delete(&models.LedgerEntry{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete ledger entries: %w", result.Error)
	}
	return result.RowsAffected, nil
}
