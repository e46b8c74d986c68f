// Package referral awards the one-time bonus pair when a member applies
// another member's referral code.
package referral

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"loyalty/internal/config"
	errs "loyalty/internal/errors"
	"loyalty/internal/metrics"
	"loyalty/internal/models"
	"loyalty/internal/repositories"
	"loyalty/internal/services/ledger"
	"loyalty/internal/services/notification"
)

// Result reports the bonuses awarded by an applied referral.
type Result struct {
	RefereeWalletID  uint   `json:"referee_wallet_id"`
	ReferrerWalletID uint   `json:"referrer_wallet_id"`
	RefereeBonus     int64  `json:"referee_bonus"`
	ReferrerBonus    int64  `json:"referrer_bonus"`
	ReferralCode     string `json:"referral_code"`
}

type Service struct {
	store         repositories.Store
	ledger        *ledger.Service
	refereeBonus  int64
	referrerBonus int64
	metrics       metrics.Collector
}

func NewService(store repositories.Store, ledgerSvc *ledger.Service, program config.ProgramConfig, collector metrics.Collector) *Service {
	if store == nil {
		panic("store is required")
	}
	if ledgerSvc == nil {
		panic("ledger service is required")
	}
	defaults := config.DefaultProgram()
	if program.RefereeBonus <= 0 {
		program.RefereeBonus = defaults.RefereeBonus
	}
	if program.ReferrerBonus <= 0 {
		program.ReferrerBonus = defaults.ReferrerBonus
	}
	if collector == nil {
		collector = metrics.Noop{}
	}
	return &Service{
		store:         store,
		ledger:        ledgerSvc,
		refereeBonus:  program.RefereeBonus,
		referrerBonus: program.ReferrerBonus,
		metrics:       collector,
	}
}

// ApplyReferral records that walletID was referred by the owner of code and
// credits both members. The flag and both credits commit together, and the
// flag is only written while unset, so concurrent duplicates award once.
func (s *Service) ApplyReferral(ctx context.Context, walletID uint, code string) (*Result, error) {
	start := time.Now()
	code = strings.ToUpper(strings.TrimSpace(code))
	fx := ledger.NewEffects()

	var result *Result
	err := s.store.Transact(ctx, func(tx repositories.Store) error {
		fx.Reset()
		referee, err := tx.GetWallet(ctx, walletID)
		if err != nil {
			return err
		}
		if referee.ReferredByCode != nil {
			return errs.ErrAlreadyReferred
		}
		if code == referee.ReferralCode {
			return errs.ErrSelfReferral
		}
		if !referee.IsActive() {
			return errs.ErrWalletSuspended
		}

		referrer, err := tx.GetWalletByReferralCode(ctx, code)
		if err != nil {
			if errors.Is(err, errs.ErrWalletNotFound) {
				return errs.ErrInvalidCode
			}
			return err
		}

		set, err := tx.SetReferredBy(ctx, referee.ID, code)
		if err != nil {
			return err
		}
		if !set {
			return errs.ErrAlreadyReferred
		}

		if _, err := s.ledger.ApplyDeltaTx(ctx, tx, ledger.DeltaRequest{
			WalletID:    referee.ID,
			Kind:        models.KindReferralBonus,
			PointsDelta: s.refereeBonus,
			Description: fmt.Sprintf("Welcome bonus for joining with code %s", code),
			Source:      models.SourceSystem,
		}, fx); err != nil {
			return err
		}
		if _, err := s.ledger.ApplyDeltaTx(ctx, tx, ledger.DeltaRequest{
			WalletID:    referrer.ID,
			Kind:        models.KindReferralBonus,
			PointsDelta: s.referrerBonus,
			Description: fmt.Sprintf("Referral bonus for inviting member %d", referee.ID),
			Source:      models.SourceSystem,
		}, fx); err != nil {
			return err
		}

		fx.Notify(referee.ID, notification.KindReferralBonus,
			fmt.Sprintf("You earned %d points for joining with a referral.", s.refereeBonus))
		fx.Notify(referrer.ID, notification.KindReferralBonus,
			fmt.Sprintf("You earned %d points for referring a friend.", s.referrerBonus))
		result = &Result{
			RefereeWalletID:  referee.ID,
			ReferrerWalletID: referrer.ID,
			RefereeBonus:     s.refereeBonus,
			ReferrerBonus:    s.referrerBonus,
			ReferralCode:     code,
		}
		return nil
	})
	metrics.Observe(s.metrics, "apply_referral", start, err)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Wallet %d referred by wallet %d", result.RefereeWalletID, result.ReferrerWalletID)
	s.ledger.Fire(ctx, fx)
	return result, nil
}
