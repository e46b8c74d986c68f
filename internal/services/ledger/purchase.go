package ledger

import (
	"context"
	"fmt"
	"time"

	errs "loyalty/internal/errors"
	"loyalty/internal/metrics"
	"loyalty/internal/models"
	"loyalty/internal/repositories"
)

// RecordPurchase earns floor(amount × EarnRate) points and
// amount × CashbackRate cashback, and stamps the member's visit.
func (s *Service) RecordPurchase(ctx context.Context, req PurchaseRequest) (*PurchaseResult, error) {
	start := time.Now()
	if !req.Amount.IsPositive() {
		return nil, errs.ErrInvalidAmount
	}
	if req.Source == "" {
		req.Source = models.SourcePOS
	}
	if !req.Source.Valid() {
		return nil, errs.ErrInvalidAmount
	}

	points := req.Amount.Mul(s.program.EarnRate).Floor().IntPart()
	cashback := req.Amount.Mul(s.program.CashbackRate).Round(4)
	description := req.Description
	if description == "" {
		description = fmt.Sprintf("Purchase of %s", req.Amount.StringFixed(2))
	}

	fx := NewEffects()
	var result *PurchaseResult
	err := s.store.Transact(ctx, func(tx repositories.Store) error {
		fx.Reset()
		wallet, err := tx.GetWallet(ctx, req.WalletID)
		if err != nil {
			return err
		}
		if !wallet.IsActive() {
			return errs.ErrWalletSuspended
		}

		r := &PurchaseResult{CashbackEarned: cashback, NewBalance: wallet.PointsBalance}
		if points > 0 {
			amount := req.Amount
			applied, err := s.ApplyDeltaTx(ctx, tx, DeltaRequest{
				WalletID:       req.WalletID,
				Kind:           models.KindEarn,
				PointsDelta:    points,
				MonetaryAmount: &amount,
				Description:    description,
				Source:         req.Source,
				StoreRef:       req.StoreRef,
			}, fx)
			if err != nil {
				return err
			}
			r.PointsEarned = points
			r.NewBalance = applied.NewBalance
			r.LedgerEntryID = applied.LedgerEntryID
		}
		if cashback.IsPositive() {
			if err := tx.AddCashback(ctx, req.WalletID, cashback); err != nil {
				return err
			}
		}
		if err := tx.TouchVisit(ctx, req.WalletID, s.now()); err != nil {
			return err
		}
		fx.Invalidate(req.WalletID)
		result = r
		return nil
	})
	metrics.Observe(s.metrics, "record_purchase", start, err)
	if err != nil {
		return nil, err
	}

	s.Fire(ctx, fx)
	return result, nil
}

// HoldPending parks points that are not yet spendable, such as earnings
// awaiting a return window.
func (s *Service) HoldPending(ctx context.Context, walletID uint, points int64) error {
	if points <= 0 {
		return errs.ErrInvalidAmount
	}
	err := s.store.Transact(ctx, func(tx repositories.Store) error {
		return s.movePending(ctx, tx, walletID, points)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, walletID)
	return nil
}

// ConfirmPending moves held points into the spendable balance with an EARN
// entry.
func (s *Service) ConfirmPending(ctx context.Context, walletID uint, points int64, description string) (*DeltaResult, error) {
	if points <= 0 {
		return nil, errs.ErrInvalidAmount
	}
	if description == "" {
		description = "Pending points confirmed"
	}

	fx := NewEffects()
	var result *DeltaResult
	err := s.store.Transact(ctx, func(tx repositories.Store) error {
		fx.Reset()
		if err := s.movePending(ctx, tx, walletID, -points); err != nil {
			return err
		}
		r, err := s.ApplyDeltaTx(ctx, tx, DeltaRequest{
			WalletID:    walletID,
			Kind:        models.KindEarn,
			PointsDelta: points,
			Description: description,
			Source:      models.SourceSystem,
		}, fx)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Fire(ctx, fx)
	return result, nil
}

// ReleasePending drops held points without crediting them.
func (s *Service) ReleasePending(ctx context.Context, walletID uint, points int64) error {
	if points <= 0 {
		return errs.ErrInvalidAmount
	}
	err := s.store.Transact(ctx, func(tx repositories.Store) error {
		return s.movePending(ctx, tx, walletID, -points)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, walletID)
	return nil
}

func (s *Service) movePending(ctx context.Context, tx repositories.Store, walletID uint, delta int64) error {
	ok, err := tx.AddPendingPoints(ctx, walletID, delta)
	if err != nil {
		return err
	}
	if !ok {
		if _, err := tx.GetWallet(ctx, walletID); err != nil {
			return err
		}
		return errs.ErrInsufficientBalance
	}
	return nil
}

// ExpirePoints removes up to points from the balance with an EXPIRY entry and
// returns how many actually expired. A wallet with nothing left expires
// nothing and writes no entry.
func (s *Service) ExpirePoints(ctx context.Context, walletID uint, points int64, description string) (int64, error) {
	if points <= 0 {
		return 0, errs.ErrInvalidAmount
	}
	if description == "" {
		description = "Points expired"
	}

	fx := NewEffects()
	var expired int64
	err := s.store.Transact(ctx, func(tx repositories.Store) error {
		fx.Reset()
		expired = 0
		wallet, err := tx.GetWalletForUpdate(ctx, walletID)
		if err != nil {
			return err
		}
		n := points
		if wallet.PointsBalance < n {
			n = wallet.PointsBalance
		}
		if n == 0 {
			return nil
		}
		if _, err := s.ApplyDeltaTx(ctx, tx, DeltaRequest{
			WalletID:    walletID,
			Kind:        models.KindExpiry,
			PointsDelta: -n,
			Description: description,
			Source:      models.SourceSystem,
		}, fx); err != nil {
			return err
		}
		if err := tx.AddExpiredPoints(ctx, walletID, n); err != nil {
			return err
		}
		expired = n
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.Fire(ctx, fx)
	return expired, nil
}

func (s *Service) invalidate(ctx context.Context, walletID uint) {
	fx := NewEffects()
	fx.Invalidate(walletID)
	s.Fire(ctx, fx)
}
