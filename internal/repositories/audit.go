package repositories

import (
	"context"
	"fmt"

	errs "loyalty/internal/errors"
	"loyalty/internal/models"

	"gorm.io/gorm"
)

// RecordAudit appends one audit entry for an administrative mutation. Pass the
// transaction's Store so the entry commits or rolls back with the change.
func RecordAudit(ctx context.Context, tx Store, adminRef string, walletID uint, action string, details map[string]interface{}) error {
	if adminRef == "" {
		return fmt.Errorf("%w: admin identity is required", errs.ErrInvalidOperation)
	}
	return tx.CreateAuditEntry(ctx, &models.AuditLogEntry{
		AdminRef:       adminRef,
		TargetWalletID: walletID,
		Action:         action,
		Details:        models.NewJSON(details),
	})
}

func (r *store) CreateAuditEntry(ctx context.Context, entry *models.AuditLogEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	return nil
}

func (r *store) ListAudit(ctx context.Context, walletID uint, limit, offset int) ([]models.AuditLogEntry, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.AuditLogEntry{}).Where("target_wallet_id = ?", walletID).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit entries: %w", err)
	}

	var entries []models.AuditLogEntry
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&entries).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return entries, total, nil
}
