package repositories

import (
	"context"
	"time"

	"loyalty/internal/models"

	"github.com/shopspring/decimal"
)

// Store is the durable record of wallets, the ledger, the reward catalog,
// redemptions and the audit trail.
//
// Balance-changing methods are conditional writes: they report false instead
// of writing when the guard (non-negative balance, unset flag, expected
// status) does not hold, so callers never read-then-write.
type Store interface {
	// Transact runs fn in one database transaction. At the outermost level,
	// transient failures are retried with backoff; nested calls reuse the
	// enclosing transaction.
	Transact(ctx context.Context, fn func(tx Store) error) error

	// Wallets
	CreateWallet(ctx context.Context, wallet *models.MemberWallet) error
	GetWallet(ctx context.Context, id uint) (*models.MemberWallet, error)
	GetWalletForUpdate(ctx context.Context, id uint) (*models.MemberWallet, error)
	GetWalletByMemberRef(ctx context.Context, memberRef string) (*models.MemberWallet, error)
	GetWalletByReferralCode(ctx context.Context, code string) (*models.MemberWallet, error)
	AddPoints(ctx context.Context, walletID uint, delta int64) (bool, error)
	AddPendingPoints(ctx context.Context, walletID uint, delta int64) (bool, error)
	AddExpiredPoints(ctx context.Context, walletID uint, points int64) error
	AddCashback(ctx context.Context, walletID uint, amount decimal.Decimal) error
	TouchVisit(ctx context.Context, walletID uint, at time.Time) error
	SetTier(ctx context.Context, walletID uint, tierID *uint, locked bool) error
	SetReferredBy(ctx context.Context, walletID uint, code string) (bool, error)
	UpdateSegment(ctx context.Context, walletID uint, rfmScore int, clv int64, segment models.Segment) error
	SetStatus(ctx context.Context, walletID uint, status, reason string) error
	MergeBalances(ctx context.Context, targetID uint, source *models.MemberWallet) error
	ListWalletIDs(ctx context.Context, afterID uint, limit int) ([]uint, error)
	DeleteWallet(ctx context.Context, walletID uint) error

	// Ledger
	CreateLedgerEntry(ctx context.Context, entry *models.LedgerEntry) error
	ListLedger(ctx context.Context, walletID uint, limit, offset int) ([]models.LedgerEntry, int64, error)
	LedgerEntries(ctx context.Context, walletID uint) ([]models.LedgerEntry, error)
	SumLedger(ctx context.Context, walletID uint) (int64, error)
	ReassignLedger(ctx context.Context, fromWalletID, toWalletID uint) (int64, error)
	DeleteLedger(ctx context.Context, walletID uint) (int64, error)

	// Tiers
	ListTiers(ctx context.Context) ([]models.Tier, error)
	GetTier(ctx context.Context, id uint) (*models.Tier, error)
	UpsertTier(ctx context.Context, tier *models.Tier) error

	// Rewards
	GetReward(ctx context.Context, id uint) (*models.Reward, error)
	ListRewards(ctx context.Context, activeOnly bool) ([]models.Reward, error)
	UpsertReward(ctx context.Context, reward *models.Reward) error
	ReserveInventory(ctx context.Context, rewardID uint) (bool, error)
	ReleaseInventory(ctx context.Context, rewardID uint) error

	// Redemptions
	CreateRedemption(ctx context.Context, redemption *models.Redemption) error
	GetRedemption(ctx context.Context, id uint) (*models.Redemption, error)
	GetRedemptionByCode(ctx context.Context, code string) (*models.Redemption, error)
	CountLiveRedemptions(ctx context.Context, walletID, rewardID uint) (int64, error)
	TransitionRedemption(ctx context.Context, id uint, from models.RedemptionStatus, fields map[string]interface{}) (bool, error)
	BurnVoucher(ctx context.Context, code string, now time.Time) (bool, error)
	ListRedemptions(ctx context.Context, walletID uint, status models.RedemptionStatus, limit, offset int) ([]models.Redemption, int64, error)
	ReassignRedemptions(ctx context.Context, fromWalletID, toWalletID uint) (int64, error)
	DeleteRedemptions(ctx context.Context, walletID uint) (int64, error)

	// Audit
	CreateAuditEntry(ctx context.Context, entry *models.AuditLogEntry) error
	ListAudit(ctx context.Context, walletID uint, limit, offset int) ([]models.AuditLogEntry, int64, error)
}

// WalletCache holds read-side wallet snapshots.
type WalletCache interface {
	GetWallet(ctx context.Context, walletID uint) (*models.MemberWallet, bool)
	SetWallet(ctx context.Context, wallet *models.MemberWallet) error
	InvalidateWallet(ctx context.Context, walletID uint) error
}
