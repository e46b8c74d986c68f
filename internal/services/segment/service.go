// Package segment recomputes RFM scores and segment labels from the ledger.
package segment

import (
	"context"
	"fmt"
	"log"
	"time"

	"loyalty/internal/metrics"
	"loyalty/internal/repositories"
	"loyalty/internal/repositories/cache"
)

const batchSize = 500

type Service struct {
	store   repositories.Store
	cache   repositories.WalletCache
	locker  cache.Locker
	metrics metrics.Collector
	now     func() time.Time
}

func NewService(store repositories.Store, walletCache repositories.WalletCache, locker cache.Locker, collector metrics.Collector) *Service {
	if store == nil {
		panic("store is required")
	}
	if walletCache == nil {
		walletCache = cache.NoopCache{}
	}
	if locker == nil {
		locker = cache.NewLocalLocker()
	}
	if collector == nil {
		collector = metrics.Noop{}
	}
	return &Service{
		store:   store,
		cache:   walletCache,
		locker:  locker,
		metrics: collector,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Recompute scores the wallet's ledger and stores the result. Runs for the
// same wallet never overlap; ledger writes may.
func (s *Service) Recompute(ctx context.Context, walletID uint) (*Score, error) {
	start := time.Now()
	score, err := s.recompute(ctx, walletID)
	metrics.Observe(s.metrics, "recompute_segment", start, err)
	return score, err
}

func (s *Service) recompute(ctx context.Context, walletID uint) (*Score, error) {
	unlock, err := s.locker.Lock(ctx, fmt.Sprintf("segment:%d", walletID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	if _, err := s.store.GetWallet(ctx, walletID); err != nil {
		return nil, err
	}
	entries, err := s.store.LedgerEntries(ctx, walletID)
	if err != nil {
		return nil, err
	}

	score := Compute(entries, s.now())
	if err := s.store.UpdateSegment(ctx, walletID, score.RFMScore, score.CLV, score.Segment); err != nil {
		return nil, err
	}
	if err := s.cache.InvalidateWallet(ctx, walletID); err != nil {
		log.Printf("⚠️ Failed to invalidate wallet %d cache: %v", walletID, err)
	}
	return &score, nil
}

// RecomputeAll walks every wallet in id order. Per-wallet failures are
// logged and skipped; it returns how many wallets were updated.
func (s *Service) RecomputeAll(ctx context.Context) (int, error) {
	var afterID uint
	updated := 0
	for {
		ids, err := s.store.ListWalletIDs(ctx, afterID, batchSize)
		if err != nil {
			return updated, err
		}
		if len(ids) == 0 {
			return updated, nil
		}
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return updated, err
			}
			if _, err := s.Recompute(ctx, id); err != nil {
				log.Printf("⚠️ Segment recompute failed for wallet %d: %v", id, err)
				continue
			}
			updated++
		}
		afterID = ids[len(ids)-1]
	}
}

// Run recomputes all wallets every interval until ctx is done.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		log.Printf("Segment sweep disabled")
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.RecomputeAll(ctx)
			if err != nil {
				log.Printf("⚠️ Segment sweep stopped after %d wallets: %v", n, err)
				continue
			}
			log.Printf("✅ Segment sweep updated %d wallets", n)
		}
	}
}
