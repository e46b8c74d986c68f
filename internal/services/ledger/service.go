package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"loyalty/internal/config"
	errs "loyalty/internal/errors"
	"loyalty/internal/metrics"
	"loyalty/internal/models"
	"loyalty/internal/repositories"
	repocache "loyalty/internal/repositories/cache"
	"loyalty/internal/services/notification"
	"loyalty/internal/services/tier"
	"loyalty/internal/utils"

	"github.com/google/uuid"
)

// Service mutates wallet balances and answers wallet and ledger reads.
type Service struct {
	store    repositories.Store
	cache    repositories.WalletCache
	notifier notification.Notifier
	program  config.ProgramConfig
	metrics  metrics.Collector
	now      func() time.Time
}

// NewService creates a new wallet mutator.
func NewService(
	store repositories.Store,
	cache repositories.WalletCache,
	notifier notification.Notifier,
	program config.ProgramConfig,
	collector metrics.Collector,
) *Service {
	if store == nil {
		panic("store is required")
	}
	if notifier == nil {
		panic("notifier is required")
	}

	// Cache and metrics are optional
	if cache == nil {
		cache = repocache.NoopCache{}
	}
	if collector == nil {
		collector = metrics.Noop{}
	}
	defaults := config.DefaultProgram()
	if program.EarnRate.IsZero() {
		program.EarnRate = defaults.EarnRate
	}

	return &Service{
		store:    store,
		cache:    cache,
		notifier: notifier,
		program:  program,
		metrics:  collector,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ApplyDelta applies req in its own transaction and fires the resulting
// effects after commit.
func (s *Service) ApplyDelta(ctx context.Context, req DeltaRequest) (*DeltaResult, error) {
	start := time.Now()
	fx := NewEffects()

	var result *DeltaResult
	err := s.store.Transact(ctx, func(tx repositories.Store) error {
		fx.Reset()
		r, err := s.ApplyDeltaTx(ctx, tx, req, fx)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	metrics.Observe(s.metrics, "apply_delta", start, err)
	if err != nil {
		return nil, err
	}

	s.Fire(ctx, fx)
	return result, nil
}

// ApplyDeltaTx applies req inside tx. The caller owns the transaction and
// must Fire fx once it commits.
func (s *Service) ApplyDeltaTx(ctx context.Context, tx repositories.Store, req DeltaRequest, fx *Effects) (*DeltaResult, error) {
	if err := validateDelta(req); err != nil {
		return nil, err
	}

	ok, err := tx.AddPoints(ctx, req.WalletID, req.PointsDelta)
	if err != nil {
		return nil, err
	}
	if !ok {
		if _, err := tx.GetWallet(ctx, req.WalletID); err != nil {
			return nil, err
		}
		return nil, errs.ErrInsufficientBalance
	}

	entry := &models.LedgerEntry{
		WalletID:       req.WalletID,
		Kind:           req.Kind,
		PointsDelta:    req.PointsDelta,
		MonetaryAmount: req.MonetaryAmount,
		Description:    req.Description,
		Source:         req.Source,
		StoreRef:       req.StoreRef,
		Reference:      uuid.NewString(),
	}
	if err := tx.CreateLedgerEntry(ctx, entry); err != nil {
		return nil, err
	}

	wallet, err := tx.GetWallet(ctx, req.WalletID)
	if err != nil {
		return nil, err
	}

	result := &DeltaResult{
		NewBalance:     wallet.PointsBalance,
		LedgerEntryID:  entry.ID,
		PreviousTierID: wallet.CurrentTierID,
		NewTierID:      wallet.CurrentTierID,
	}
	if !wallet.TierLocked {
		next, err := s.ReevaluateTierTx(ctx, tx, wallet, fx)
		if err != nil {
			return nil, err
		}
		result.NewTierID = tier.ID(next)
	}

	fx.Invalidate(req.WalletID)
	fx.movements = append(fx.movements, movement{kind: string(req.Kind), delta: req.PointsDelta})
	return result, nil
}

// ReevaluateTierTx resolves the tier for wallet's current balance and stores
// it when it changed. An upward move queues one upgrade notification;
// downgrades are silent. Locks are the caller's concern.
func (s *Service) ReevaluateTierTx(ctx context.Context, tx repositories.Store, wallet *models.MemberWallet, fx *Effects) (*models.Tier, error) {
	tiers, err := tx.ListTiers(ctx)
	if err != nil {
		return nil, err
	}

	prev := tier.Find(tiers, wallet.CurrentTierID)
	next := tier.Resolve(tiers, wallet.PointsBalance)
	if sameTier(prev, next) && (prev != nil || wallet.CurrentTierID == nil) {
		return next, nil
	}

	if err := tx.SetTier(ctx, wallet.ID, tier.ID(next), false); err != nil {
		return nil, err
	}
	fx.tierChanges = append(fx.tierChanges, tierChange{from: tierName(prev), to: tierName(next)})
	if tier.IsUpgrade(prev, next) {
		fx.Notify(wallet.ID, notification.KindTierUpgrade,
			fmt.Sprintf("Congratulations! You have reached the %s tier.", next.Name))
	}
	fx.Invalidate(wallet.ID)
	return next, nil
}

func sameTier(a, b *models.Tier) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID
}

func tierName(t *models.Tier) string {
	if t == nil {
		return "none"
	}
	return t.Name
}

func validateDelta(req DeltaRequest) error {
	if req.PointsDelta == 0 {
		return errs.ErrInvalidAmount
	}
	if !req.Kind.Valid() || !req.Source.Valid() {
		return errs.ErrInvalidAmount
	}
	return nil
}

// CreateWallet opens an empty wallet for memberRef with a fresh referral
// code.
func (s *Service) CreateWallet(ctx context.Context, memberRef string) (*models.MemberWallet, error) {
	if memberRef == "" {
		return nil, errs.ErrMemberRefRequired
	}
	if _, err := s.store.GetWalletByMemberRef(ctx, memberRef); err == nil {
		return nil, errs.ErrWalletExists
	} else if !errors.Is(err, errs.ErrWalletNotFound) {
		return nil, err
	}

	// Each attempt draws a new referral code, so a code collision is retried
	// like any other transient failure.
	var wallet *models.MemberWallet
	err := s.store.Transact(ctx, func(tx repositories.Store) error {
		code, err := utils.GenerateReferralCode()
		if err != nil {
			return err
		}
		tiers, err := tx.ListTiers(ctx)
		if err != nil {
			return err
		}
		w := &models.MemberWallet{
			MemberRef:     memberRef,
			ReferralCode:  code,
			CurrentTierID: tier.ID(tier.Resolve(tiers, 0)),
		}
		if err := tx.CreateWallet(ctx, w); err != nil {
			return err
		}
		wallet = w
		return nil
	})
	if err != nil {
		// A concurrent create for the same member trips the unique index.
		if _, lookupErr := s.store.GetWalletByMemberRef(ctx, memberRef); lookupErr == nil {
			return nil, errs.ErrWalletExists
		}
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	log.Printf("✅ Wallet %d created for member %s", wallet.ID, memberRef)
	return wallet, nil
}

// GetWallet returns the wallet, preferring the cached snapshot.
func (s *Service) GetWallet(ctx context.Context, walletID uint) (*models.MemberWallet, error) {
	if wallet, ok := s.cache.GetWallet(ctx, walletID); ok {
		s.metrics.RecordCacheHit("wallet")
		return wallet, nil
	}
	s.metrics.RecordCacheMiss("wallet")

	wallet, err := s.store.GetWallet(ctx, walletID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetWallet(ctx, wallet); err != nil {
		log.Printf("⚠️ Failed to cache wallet %d: %v", walletID, err)
		return wallet, nil
	}
	// A writer that committed and invalidated between the read and the set
	// would leave this snapshot stale; drop it if the row has moved on.
	if current, err := s.store.GetWallet(ctx, walletID); err != nil || !current.UpdatedAt.Equal(wallet.UpdatedAt) {
		s.invalidate(ctx, walletID)
	}
	return wallet, nil
}

// ListLedger returns one page of the wallet's entries, newest first.
func (s *Service) ListLedger(ctx context.Context, walletID uint, limit, offset int) ([]models.LedgerEntry, int64, error) {
	if _, err := s.store.GetWallet(ctx, walletID); err != nil {
		return nil, 0, err
	}
	return s.store.ListLedger(ctx, walletID, limit, offset)
}

// VerifyLedger compares the stored balance with the sum of ledger deltas.
func (s *Service) VerifyLedger(ctx context.Context, walletID uint) (*Verification, error) {
	var v *Verification
	err := s.store.Transact(ctx, func(tx repositories.Store) error {
		wallet, err := tx.GetWallet(ctx, walletID)
		if err != nil {
			return err
		}
		sum, err := tx.SumLedger(ctx, walletID)
		if err != nil {
			return err
		}
		v = &Verification{
			WalletID:      walletID,
			PointsBalance: wallet.PointsBalance,
			LedgerSum:     sum,
			Consistent:    sum == wallet.PointsBalance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !v.Consistent {
		log.Printf("⚠️ Wallet %d balance %d does not match ledger sum %d", walletID, v.PointsBalance, v.LedgerSum)
	}
	return v, nil
}
