// Package admin holds the privileged wallet operations. Each one writes its
// audit entry in the same transaction as the change it describes, so a
// mutation without its audit trail never commits.
package admin

import (
	"context"
	"errors"
	"log"
	"time"

	errs "loyalty/internal/errors"
	"loyalty/internal/metrics"
	"loyalty/internal/models"
	"loyalty/internal/repositories"
	"loyalty/internal/services/ledger"
	"loyalty/internal/services/tier"
)

// MergeResult summarizes what moved from the source wallet.
type MergeResult struct {
	Target             *models.MemberWallet `json:"target"`
	SourceWalletID     uint                 `json:"source_wallet_id"`
	PointsMoved        int64                `json:"points_moved"`
	LedgerEntriesMoved int64                `json:"ledger_entries_moved"`
	RedemptionsMoved   int64                `json:"redemptions_moved"`
}

type Service struct {
	store   repositories.Store
	ledger  *ledger.Service
	metrics metrics.Collector
}

func NewService(store repositories.Store, ledgerSvc *ledger.Service, collector metrics.Collector) *Service {
	if store == nil {
		panic("store is required")
	}
	if ledgerSvc == nil {
		panic("ledger service is required")
	}
	if collector == nil {
		collector = metrics.Noop{}
	}
	return &Service{store: store, ledger: ledgerSvc, metrics: collector}
}

// Merge folds source into target: balances are added, ledger entries and
// redemptions change owner, and source is deleted. Existing audit entries
// keep pointing at the source id.
func (s *Service) Merge(ctx context.Context, adminRef string, targetID, sourceID uint) (*MergeResult, error) {
	start := time.Now()
	if targetID == sourceID {
		return nil, errs.ErrSameWallet
	}

	fx := ledger.NewEffects()
	var result *MergeResult
	err := s.store.Transact(ctx, func(tx repositories.Store) error {
		fx.Reset()
		target, source, err := lockPair(ctx, tx, targetID, sourceID)
		if err != nil {
			return err
		}

		if err := tx.MergeBalances(ctx, target.ID, source); err != nil {
			return err
		}
		entries, err := tx.ReassignLedger(ctx, source.ID, target.ID)
		if err != nil {
			return err
		}
		redemptions, err := tx.ReassignRedemptions(ctx, source.ID, target.ID)
		if err != nil {
			return err
		}
		if err := tx.DeleteWallet(ctx, source.ID); err != nil {
			return err
		}

		merged, err := tx.GetWallet(ctx, target.ID)
		if err != nil {
			return err
		}
		if !merged.TierLocked {
			next, err := s.ledger.ReevaluateTierTx(ctx, tx, merged, fx)
			if err != nil {
				return err
			}
			merged.CurrentTierID = tier.ID(next)
		}

		if err := s.audit(ctx, tx, adminRef, target.ID, models.AuditMerge, map[string]interface{}{
			"source_wallet_id":     source.ID,
			"source_member_ref":    source.MemberRef,
			"points_moved":         source.PointsBalance,
			"ledger_entries_moved": entries,
			"redemptions_moved":    redemptions,
		}); err != nil {
			return err
		}

		fx.Invalidate(target.ID)
		fx.Invalidate(source.ID)
		result = &MergeResult{
			Target:             merged,
			SourceWalletID:     source.ID,
			PointsMoved:        source.PointsBalance,
			LedgerEntriesMoved: entries,
			RedemptionsMoved:   redemptions,
		}
		return nil
	})
	metrics.Observe(s.metrics, "merge_wallets", start, err)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Wallet %d merged into %d by %s", sourceID, targetID, adminRef)
	s.ledger.Fire(ctx, fx)
	return result, nil
}

// lockPair row-locks both wallets in ascending id order so concurrent merges
// cannot deadlock.
func lockPair(ctx context.Context, tx repositories.Store, targetID, sourceID uint) (target, source *models.MemberWallet, err error) {
	lock := func(id uint) (*models.MemberWallet, error) {
		w, err := tx.GetWalletForUpdate(ctx, id)
		if err != nil && id == sourceID && errors.Is(err, errs.ErrWalletNotFound) {
			return nil, errs.ErrSourceNotFound
		}
		return w, err
	}

	first, second := targetID, sourceID
	if first > second {
		first, second = second, first
	}
	a, err := lock(first)
	if err != nil {
		return nil, nil, err
	}
	b, err := lock(second)
	if err != nil {
		return nil, nil, err
	}
	if a.ID == targetID {
		return a, b, nil
	}
	return b, a, nil
}

// AdjustBalance applies a manual correction through the ledger.
func (s *Service) AdjustBalance(ctx context.Context, adminRef string, walletID uint, delta int64, reason string) (*ledger.DeltaResult, error) {
	start := time.Now()
	if delta == 0 {
		return nil, errs.ErrInvalidAmount
	}
	kind := models.KindAdjustmentAdd
	if delta < 0 {
		kind = models.KindAdjustmentDeduct
	}
	description := reason
	if description == "" {
		description = "Manual adjustment"
	}

	fx := ledger.NewEffects()
	var result *ledger.DeltaResult
	err := s.store.Transact(ctx, func(tx repositories.Store) error {
		fx.Reset()
		r, err := s.ledger.ApplyDeltaTx(ctx, tx, ledger.DeltaRequest{
			WalletID:    walletID,
			Kind:        kind,
			PointsDelta: delta,
			Description: description,
			Source:      models.SourceAdminConsole,
		}, fx)
		if err != nil {
			return err
		}
		if err := s.audit(ctx, tx, adminRef, walletID, models.AuditAdjustBalance, map[string]interface{}{
			"delta":       delta,
			"reason":      reason,
			"new_balance": r.NewBalance,
			"entry_id":    r.LedgerEntryID,
		}); err != nil {
			return err
		}
		result = r
		return nil
	})
	metrics.Observe(s.metrics, "adjust_balance", start, err)
	if err != nil {
		return nil, err
	}

	s.ledger.Fire(ctx, fx)
	return result, nil
}

// ForceTier pins the wallet to tierID so balance changes no longer move it.
// A nil tierID removes the pin and resolves the tier from the balance again.
func (s *Service) ForceTier(ctx context.Context, adminRef string, walletID uint, tierID *uint) (*models.MemberWallet, error) {
	fx := ledger.NewEffects()
	var wallet *models.MemberWallet
	err := s.store.Transact(ctx, func(tx repositories.Store) error {
		fx.Reset()
		current, err := tx.GetWalletForUpdate(ctx, walletID)
		if err != nil {
			return err
		}

		if tierID != nil {
			if _, err := tx.GetTier(ctx, *tierID); err != nil {
				return err
			}
			if err := tx.SetTier(ctx, walletID, tierID, true); err != nil {
				return err
			}
		} else {
			if err := tx.SetTier(ctx, walletID, current.CurrentTierID, false); err != nil {
				return err
			}
			current.TierLocked = false
			if _, err := s.ledger.ReevaluateTierTx(ctx, tx, current, fx); err != nil {
				return err
			}
		}

		if err := s.audit(ctx, tx, adminRef, walletID, models.AuditForceTier, map[string]interface{}{
			"previous_tier_id": current.CurrentTierID,
			"tier_id":          tierID,
			"locked":           tierID != nil,
		}); err != nil {
			return err
		}

		fx.Invalidate(walletID)
		wallet, err = tx.GetWallet(ctx, walletID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.ledger.Fire(ctx, fx)
	return wallet, nil
}

// Suspend blocks member-initiated operations on the wallet.
func (s *Service) Suspend(ctx context.Context, adminRef string, walletID uint, reason string) (*models.MemberWallet, error) {
	return s.setStatus(ctx, adminRef, walletID, models.WalletStatusSuspended, reason, models.AuditSuspend)
}

// Reinstate lifts a suspension.
func (s *Service) Reinstate(ctx context.Context, adminRef string, walletID uint, reason string) (*models.MemberWallet, error) {
	return s.setStatus(ctx, adminRef, walletID, models.WalletStatusActive, reason, models.AuditReinstate)
}

func (s *Service) setStatus(ctx context.Context, adminRef string, walletID uint, status, reason, action string) (*models.MemberWallet, error) {
	fx := ledger.NewEffects()
	var wallet *models.MemberWallet
	err := s.store.Transact(ctx, func(tx repositories.Store) error {
		fx.Reset()
		current, err := tx.GetWalletForUpdate(ctx, walletID)
		if err != nil {
			return err
		}
		if current.Status == status {
			return errs.ErrInvalidState
		}
		if err := tx.SetStatus(ctx, walletID, status, reason); err != nil {
			return err
		}
		if err := s.audit(ctx, tx, adminRef, walletID, action, map[string]interface{}{
			"previous_status": current.Status,
			"reason":          reason,
		}); err != nil {
			return err
		}
		fx.Invalidate(walletID)
		wallet, err = tx.GetWallet(ctx, walletID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.ledger.Fire(ctx, fx)
	return wallet, nil
}

// DeleteAccount removes the wallet with its redemptions and ledger entries.
// Audit entries about the wallet are kept.
func (s *Service) DeleteAccount(ctx context.Context, adminRef string, walletID uint) error {
	fx := ledger.NewEffects()
	err := s.store.Transact(ctx, func(tx repositories.Store) error {
		fx.Reset()
		wallet, err := tx.GetWalletForUpdate(ctx, walletID)
		if err != nil {
			return err
		}
		redemptions, err := tx.DeleteRedemptions(ctx, walletID)
		if err != nil {
			return err
		}
		entries, err := tx.DeleteLedger(ctx, walletID)
		if err != nil {
			return err
		}
		if err := tx.DeleteWallet(ctx, walletID); err != nil {
			return err
		}
		if err := s.audit(ctx, tx, adminRef, walletID, models.AuditDeleteAccount, map[string]interface{}{
			"member_ref":          wallet.MemberRef,
			"points_balance":      wallet.PointsBalance,
			"ledger_entries":      entries,
			"redemptions_deleted": redemptions,
		}); err != nil {
			return err
		}
		fx.Invalidate(walletID)
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("✅ Wallet %d deleted by %s", walletID, adminRef)
	s.ledger.Fire(ctx, fx)
	return nil
}

// ListAudit returns one page of the audit trail for a wallet id, including
// wallets that have since been merged away or deleted.
func (s *Service) ListAudit(ctx context.Context, walletID uint, limit, offset int) ([]models.AuditLogEntry, int64, error) {
	return s.store.ListAudit(ctx, walletID, limit, offset)
}

func (s *Service) audit(ctx context.Context, tx repositories.Store, adminRef string, walletID uint, action string, details map[string]interface{}) error {
	return repositories.RecordAudit(ctx, tx, adminRef, walletID, action, details)
}
