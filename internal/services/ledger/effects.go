package ledger

import (
	"context"
	"log"

	"loyalty/internal/services/notification"
)

type pendingNotice struct {
	walletID uint
	kind     notification.Kind
	message  string
}

type movement struct {
	kind  string
	delta int64
}

type tierChange struct {
	from, to string
}

// Effects collects work that may only run after the enclosing transaction
// commits. Reset it at the start of every transaction attempt.
type Effects struct {
	notices     []pendingNotice
	invalidate  []uint
	movements   []movement
	tierChanges []tierChange
}

func NewEffects() *Effects {
	return &Effects{}
}

// Reset drops everything collected by a previous attempt.
func (e *Effects) Reset() {
	e.notices = e.notices[:0]
	e.invalidate = e.invalidate[:0]
	e.movements = e.movements[:0]
	e.tierChanges = e.tierChanges[:0]
}

// Notify queues a member notification.
func (e *Effects) Notify(walletID uint, kind notification.Kind, message string) {
	e.notices = append(e.notices, pendingNotice{walletID: walletID, kind: kind, message: message})
}

// Invalidate queues a cache eviction for walletID.
func (e *Effects) Invalidate(walletID uint) {
	for _, id := range e.invalidate {
		if id == walletID {
			return
		}
	}
	e.invalidate = append(e.invalidate, walletID)
}

// Fire runs the collected effects. Failures are logged; the committed change
// stands regardless.
func (s *Service) Fire(ctx context.Context, fx *Effects) {
	if fx == nil {
		return
	}
	for _, id := range fx.invalidate {
		if err := s.cache.InvalidateWallet(ctx, id); err != nil {
			log.Printf("⚠️ Failed to invalidate wallet %d cache: %v", id, err)
		}
	}
	for _, m := range fx.movements {
		s.metrics.RecordPointsMovement(m.kind, m.delta)
	}
	for _, c := range fx.tierChanges {
		s.metrics.RecordTierChange(c.from, c.to)
	}
	for _, n := range fx.notices {
		if err := s.notifier.Notify(ctx, n.walletID, n.kind, n.message); err != nil {
			log.Printf("⚠️ Failed to notify wallet %d (%s): %v", n.walletID, n.kind, err)
		}
	}
}
