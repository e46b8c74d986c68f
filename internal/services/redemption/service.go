// Package redemption runs the reward redemption state machine:
//
//	PENDING -> APPROVED -> REDEEMED
//	PENDING -> REJECTED
//
// REJECTED and REDEEMED are terminal. Every transition is a conditional
// update on the expected source state, so a transition attempted twice
// changes nothing the second time.
package redemption

import (
	"context"
	"fmt"
	"log"
	"time"

	errs "loyalty/internal/errors"
	"loyalty/internal/metrics"
	"loyalty/internal/models"
	"loyalty/internal/repositories"
	"loyalty/internal/services/ledger"
	"loyalty/internal/services/notification"
	"loyalty/internal/utils"
)

type Service struct {
	store   repositories.Store
	ledger  *ledger.Service
	config  Config
	metrics metrics.Collector
	now     func() time.Time
}

func NewService(store repositories.Store, ledgerSvc *ledger.Service, cfg Config, collector metrics.Collector) *Service {
	if store == nil {
		panic("store is required")
	}
	if ledgerSvc == nil {
		panic("ledger service is required")
	}
	if cfg.VoucherTTL <= 0 {
		cfg.VoucherTTL = DefaultVoucherTTL
	}
	if collector == nil {
		collector = metrics.Noop{}
	}
	return &Service{
		store:   store,
		ledger:  ledgerSvc,
		config:  cfg,
		metrics: collector,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// RequestRedemption debits the reward's cost and records the redemption,
// PENDING or, for auto-approve rewards, APPROVED with a voucher.
func (s *Service) RequestRedemption(ctx context.Context, req RedeemRequest) (*models.Redemption, error) {
	start := time.Now()
	fx := ledger.NewEffects()

	var redemption *models.Redemption
	err := s.store.Transact(ctx, func(tx repositories.Store) error {
		fx.Reset()
		reward, err := tx.GetReward(ctx, req.RewardID)
		if err != nil {
			return err
		}
		if !reward.IsActive || (reward.Inventory != nil && *reward.Inventory <= 0) {
			return errs.ErrRewardUnavailable
		}

		// The row lock serializes this wallet's requests, so the limit count
		// below cannot be read by two requests at once.
		wallet, err := tx.GetWalletForUpdate(ctx, req.WalletID)
		if err != nil {
			return err
		}
		if !wallet.IsActive() {
			return errs.ErrWalletSuspended
		}

		if reward.PerMemberLimit != nil {
			used, err := tx.CountLiveRedemptions(ctx, req.WalletID, reward.ID)
			if err != nil {
				return err
			}
			if used >= int64(*reward.PerMemberLimit) {
				return errs.ErrRedemptionLimit
			}
		}

		if _, err := s.ledger.ApplyDeltaTx(ctx, tx, ledger.DeltaRequest{
			WalletID:    req.WalletID,
			Kind:        models.KindRedeem,
			PointsDelta: -reward.PointsCost,
			Description: fmt.Sprintf("Redeemed %s", reward.Name),
			Source:      models.SourceOnline,
		}, fx); err != nil {
			return err
		}

		reserved, err := tx.ReserveInventory(ctx, reward.ID)
		if err != nil {
			return err
		}
		if !reserved {
			return errs.ErrRewardUnavailable
		}

		r := &models.Redemption{
			WalletID:      req.WalletID,
			RewardID:      reward.ID,
			PointsCost:    reward.PointsCost,
			Status:        models.RedemptionPending,
			IsGift:        req.IsGift,
			GiftRecipient: req.GiftRecipient,
		}
		if reward.AutoApprove {
			code, err := utils.GenerateVoucherCode(reward.VoucherPrefix)
			if err != nil {
				return err
			}
			expires := s.now().Add(s.config.VoucherTTL)
			r.Status = models.RedemptionApproved
			r.Code = &code
			r.ExpiresAt = &expires
			r.AutoApproved = true
			r.DecidedBy = "auto"
		}
		if err := tx.CreateRedemption(ctx, r); err != nil {
			return err
		}
		if r.AutoApproved {
			fx.Notify(r.WalletID, notification.KindRedemptionApproved,
				fmt.Sprintf("Your %s voucher is ready: %s", reward.Name, *r.Code))
		}
		redemption = r
		return nil
	})
	metrics.Observe(s.metrics, "request_redemption", start, err)
	if err != nil {
		return nil, err
	}

	s.ledger.Fire(ctx, fx)
	return redemption, nil
}

// Approve issues a voucher for a PENDING redemption.
func (s *Service) Approve(ctx context.Context, redemptionID uint, adminRef string) (*models.Redemption, error) {
	start := time.Now()
	fx := ledger.NewEffects()

	var redemption *models.Redemption
	err := s.store.Transact(ctx, func(tx repositories.Store) error {
		fx.Reset()
		r, err := tx.GetRedemption(ctx, redemptionID)
		if err != nil {
			return err
		}
		if r.Status != models.RedemptionPending {
			return errs.ErrInvalidState
		}
		reward, err := tx.GetReward(ctx, r.RewardID)
		if err != nil {
			return err
		}

		code, err := utils.GenerateVoucherCode(reward.VoucherPrefix)
		if err != nil {
			return err
		}
		expires := s.now().Add(s.config.VoucherTTL)
		ok, err := tx.TransitionRedemption(ctx, r.ID, models.RedemptionPending, map[string]interface{}{
			"status":     models.RedemptionApproved,
			"code":       code,
			"expires_at": expires,
			"decided_by": adminRef,
		})
		if err != nil {
			return err
		}
		if !ok {
			return errs.ErrInvalidState
		}

		if err := repositories.RecordAudit(ctx, tx, adminRef, r.WalletID, models.AuditApproveRedemption, map[string]interface{}{
			"redemption_id": r.ID,
			"reward_id":     r.RewardID,
			"points_cost":   r.PointsCost,
		}); err != nil {
			return err
		}

		if redemption, err = tx.GetRedemption(ctx, r.ID); err != nil {
			return err
		}
		fx.Notify(r.WalletID, notification.KindRedemptionApproved,
			fmt.Sprintf("Your %s voucher is ready: %s", reward.Name, code))
		return nil
	})
	metrics.Observe(s.metrics, "approve_redemption", start, err)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Redemption %d approved by %s", redemptionID, adminRef)
	s.ledger.Fire(ctx, fx)
	return redemption, nil
}

// Reject refunds a PENDING redemption's points and restores the reward's
// inventory in the same transaction as the transition.
func (s *Service) Reject(ctx context.Context, redemptionID uint, adminRef, reason string) (*models.Redemption, error) {
	start := time.Now()
	fx := ledger.NewEffects()

	var redemption *models.Redemption
	err := s.store.Transact(ctx, func(tx repositories.Store) error {
		fx.Reset()
		r, err := tx.GetRedemption(ctx, redemptionID)
		if err != nil {
			return err
		}
		ok, err := tx.TransitionRedemption(ctx, r.ID, models.RedemptionPending, map[string]interface{}{
			"status":     models.RedemptionRejected,
			"decided_by": adminRef,
			"reason":     reason,
		})
		if err != nil {
			return err
		}
		if !ok {
			return errs.ErrInvalidState
		}

		description := fmt.Sprintf("Refund for redemption %d", r.ID)
		if reason != "" {
			description += ": " + reason
		}
		if _, err := s.ledger.ApplyDeltaTx(ctx, tx, ledger.DeltaRequest{
			WalletID:    r.WalletID,
			Kind:        models.KindRefund,
			PointsDelta: r.PointsCost,
			Description: description,
			Source:      models.SourceSystem,
		}, fx); err != nil {
			return err
		}
		if err := tx.ReleaseInventory(ctx, r.RewardID); err != nil {
			return err
		}
		if err := repositories.RecordAudit(ctx, tx, adminRef, r.WalletID, models.AuditRejectRedemption, map[string]interface{}{
			"redemption_id":   r.ID,
			"reward_id":       r.RewardID,
			"points_refunded": r.PointsCost,
			"reason":          reason,
		}); err != nil {
			return err
		}

		if redemption, err = tx.GetRedemption(ctx, r.ID); err != nil {
			return err
		}
		fx.Notify(r.WalletID, notification.KindRedemptionRejected,
			fmt.Sprintf("Your redemption was declined and %d points were returned.", r.PointsCost))
		return nil
	})
	metrics.Observe(s.metrics, "reject_redemption", start, err)
	if err != nil {
		return nil, err
	}

	s.ledger.Fire(ctx, fx)
	return redemption, nil
}

// Burn marks an APPROVED, unexpired voucher as used.
func (s *Service) Burn(ctx context.Context, code string) (*models.Redemption, error) {
	start := time.Now()
	var redemption *models.Redemption
	err := s.store.Transact(ctx, func(tx repositories.Store) error {
		now := s.now()
		ok, err := tx.BurnVoucher(ctx, code, now)
		if err != nil {
			return err
		}
		r, err := tx.GetRedemptionByCode(ctx, code)
		if err != nil {
			return err
		}
		if !ok {
			return burnFailure(r, now)
		}
		redemption = r
		return nil
	})
	metrics.Observe(s.metrics, "burn_voucher", start, err)
	if err != nil {
		return nil, err
	}
	return redemption, nil
}

func burnFailure(r *models.Redemption, now time.Time) error {
	switch {
	case r.Status == models.RedemptionRedeemed:
		return errs.ErrAlreadyUsed
	case r.Status == models.RedemptionApproved && r.ExpiresAt != nil && !r.ExpiresAt.After(now):
		return errs.ErrExpired
	default:
		return errs.ErrInvalidState
	}
}

func (s *Service) Get(ctx context.Context, redemptionID uint) (*models.Redemption, error) {
	return s.store.GetRedemption(ctx, redemptionID)
}

// List returns one page of the wallet's redemptions, optionally filtered by
// status.
func (s *Service) List(ctx context.Context, walletID uint, status models.RedemptionStatus, limit, offset int) ([]models.Redemption, int64, error) {
	if status != "" && !status.Valid() {
		return nil, 0, errs.ErrInvalidState
	}
	if _, err := s.store.GetWallet(ctx, walletID); err != nil {
		return nil, 0, err
	}
	return s.store.ListRedemptions(ctx, walletID, status, limit, offset)
}

// Catalog returns the rewards members can currently request.
func (s *Service) Catalog(ctx context.Context) ([]models.Reward, error) {
	return s.store.ListRewards(ctx, true)
}
