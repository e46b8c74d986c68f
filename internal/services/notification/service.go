package notification

import (
	"context"
	"log"
	"sync"
)

// Kind identifies the event a member is told about.
type Kind string

const (
	KindTierUpgrade        Kind = "TIER_UPGRADE"
	KindRedemptionApproved Kind = "REDEMPTION_APPROVED"
	KindRedemptionRejected Kind = "REDEMPTION_REJECTED"
	KindReferralBonus      Kind = "REFERRAL_BONUS"
)

// Notifier delivers member-facing messages. Delivery failures are reported
// to the caller but never undo the change that triggered them.
type Notifier interface {
	Notify(ctx context.Context, walletID uint, kind Kind, message string) error
}

// Service is a minimal notification service implementation.
type Service struct{}

// NewService creates a new notification service.
func NewService() *Service { return &Service{} }

// Notify logs the notification.
func (s *Service) Notify(ctx context.Context, walletID uint, kind Kind, message string) error {
	log.Printf("Notify wallet %d [%s]: %s", walletID, kind, message)
	return nil
}

// Message is one recorded notification.
type Message struct {
	WalletID uint
	Kind     Kind
	Text     string
}

// Recorder keeps every notification in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Notify(ctx context.Context, walletID uint, kind Kind, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{WalletID: walletID, Kind: kind, Text: message})
	return nil
}

// Messages returns a copy of what was recorded.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Count returns how many notifications of kind went to walletID.
func (r *Recorder) Count(walletID uint, kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.messages {
		if m.WalletID == walletID && m.Kind == kind {
			n++
		}
	}
	return n
}
