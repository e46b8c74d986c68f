package redemption

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"loyalty/internal/config"
	errs "loyalty/internal/errors"
	"loyalty/internal/models"
	"loyalty/internal/repositories"
	"loyalty/internal/services/ledger"
	"loyalty/internal/services/notification"
	"loyalty/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc      *Service
	ledger   *ledger.Service
	store    repositories.Store
	notifier *notification.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, _ := testutil.NewStore(t)
	notifier := &notification.Recorder{}
	ledgerSvc := ledger.NewService(store, nil, notifier, config.DefaultProgram(), nil)
	return &fixture{
		svc:      NewService(store, ledgerSvc, Config{VoucherTTL: time.Hour}, nil),
		ledger:   ledgerSvc,
		store:    store,
		notifier: notifier,
	}
}

func (f *fixture) wallet(t *testing.T, memberRef string, balance int64) *models.MemberWallet {
	t.Helper()
	ctx := context.Background()
	w, err := f.ledger.CreateWallet(ctx, memberRef)
	require.NoError(t, err)
	if balance > 0 {
		_, err = f.ledger.ApplyDelta(ctx, ledger.DeltaRequest{
			WalletID: w.ID, Kind: models.KindEarn, PointsDelta: balance, Source: models.SourcePOS,
		})
		require.NoError(t, err)
	}
	return w
}

func (f *fixture) reward(t *testing.T, r models.Reward) *models.Reward {
	t.Helper()
	if r.Name == "" {
		r.Name = "Free coffee"
	}
	r.IsActive = true
	require.NoError(t, f.store.UpsertReward(context.Background(), &r))
	return &r
}

func (f *fixture) balance(t *testing.T, walletID uint) int64 {
	t.Helper()
	w, err := f.store.GetWallet(context.Background(), walletID)
	require.NoError(t, err)
	return w.PointsBalance
}

func intPtr(v int) *int { return &v }

func TestRequestRedemptionInsufficientBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.wallet(t, "member-1", 500)
	reward := f.reward(t, models.Reward{PointsCost: 600})

	_, err := f.svc.RequestRedemption(ctx, RedeemRequest{WalletID: w.ID, RewardID: reward.ID})
	assert.ErrorIs(t, err, errs.ErrInsufficientBalance)
	assert.Equal(t, int64(500), f.balance(t, w.ID))

	_, total, err := f.svc.List(ctx, w.ID, "", 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestRequestThenReject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.wallet(t, "member-1", 1000)
	reward := f.reward(t, models.Reward{PointsCost: 800, Inventory: intPtr(3)})

	r, err := f.svc.RequestRedemption(ctx, RedeemRequest{WalletID: w.ID, RewardID: reward.ID})
	require.NoError(t, err)
	assert.Equal(t, models.RedemptionPending, r.Status)
	assert.Nil(t, r.Code)
	assert.Equal(t, int64(800), r.PointsCost)
	assert.Equal(t, int64(200), f.balance(t, w.ID))

	stocked, err := f.store.GetReward(ctx, reward.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, *stocked.Inventory)

	rejected, err := f.svc.Reject(ctx, r.ID, "admin-1", "out of season")
	require.NoError(t, err)
	assert.Equal(t, models.RedemptionRejected, rejected.Status)
	assert.Equal(t, "admin-1", rejected.DecidedBy)
	assert.Equal(t, int64(1000), f.balance(t, w.ID))

	entries, err := f.store.LedgerEntries(ctx, w.ID)
	require.NoError(t, err)
	refunds := 0
	for _, e := range entries {
		if e.Kind == models.KindRefund {
			refunds++
			assert.Equal(t, int64(800), e.PointsDelta)
		}
	}
	assert.Equal(t, 1, refunds)

	stocked, err = f.store.GetReward(ctx, reward.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, *stocked.Inventory)
	assert.Equal(t, 1, f.notifier.Count(w.ID, notification.KindRedemptionRejected))
}

func TestTerminalStatesAreIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.wallet(t, "member-1", 1000)
	reward := f.reward(t, models.Reward{PointsCost: 100})

	rejected, err := f.svc.RequestRedemption(ctx, RedeemRequest{WalletID: w.ID, RewardID: reward.ID})
	require.NoError(t, err)
	_, err = f.svc.Reject(ctx, rejected.ID, "admin-1", "")
	require.NoError(t, err)

	approved, err := f.svc.RequestRedemption(ctx, RedeemRequest{WalletID: w.ID, RewardID: reward.ID})
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, approved.ID, "admin-1")
	require.NoError(t, err)

	balance := f.balance(t, w.ID)
	assert.Equal(t, int64(900), balance)

	for _, id := range []uint{rejected.ID, approved.ID} {
		_, err = f.svc.Approve(ctx, id, "admin-2")
		assert.ErrorIs(t, err, errs.ErrInvalidState)
		_, err = f.svc.Reject(ctx, id, "admin-2", "")
		assert.ErrorIs(t, err, errs.ErrInvalidState)
	}
	assert.Equal(t, balance, f.balance(t, w.ID))

	_, err = f.svc.Approve(ctx, 9999, "admin-1")
	assert.ErrorIs(t, err, errs.ErrRedemptionNotFound)
}

func TestConcurrentRejectRefundsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.wallet(t, "member-1", 1000)
	reward := f.reward(t, models.Reward{PointsCost: 400})

	r, err := f.svc.RequestRedemption(ctx, RedeemRequest{WalletID: w.ID, RewardID: reward.ID})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Reject(ctx, r.ID, "admin-1", ""); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, int64(1000), f.balance(t, w.ID))
}

func TestApproveAndBurn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.wallet(t, "member-1", 1000)
	reward := f.reward(t, models.Reward{PointsCost: 250, VoucherPrefix: "CAFE-"})

	r, err := f.svc.RequestRedemption(ctx, RedeemRequest{WalletID: w.ID, RewardID: reward.ID, IsGift: true, GiftRecipient: "friend@example.com"})
	require.NoError(t, err)

	approved, err := f.svc.Approve(ctx, r.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.RedemptionApproved, approved.Status)
	require.NotNil(t, approved.Code)
	assert.True(t, strings.HasPrefix(*approved.Code, "CAFE-"))
	require.NotNil(t, approved.ExpiresAt)
	assert.True(t, approved.IsGift)
	assert.Equal(t, 1, f.notifier.Count(w.ID, notification.KindRedemptionApproved))

	burned, err := f.svc.Burn(ctx, *approved.Code)
	require.NoError(t, err)
	assert.Equal(t, models.RedemptionRedeemed, burned.Status)
	assert.NotNil(t, burned.UsedAt)

	_, err = f.svc.Burn(ctx, *approved.Code)
	assert.ErrorIs(t, err, errs.ErrAlreadyUsed)

	_, err = f.svc.Burn(ctx, "CAFE-NOPE")
	assert.ErrorIs(t, err, errs.ErrVoucherNotFound)

	// Burning never moves points.
	assert.Equal(t, int64(750), f.balance(t, w.ID))
}

func TestBurnExpiredVoucher(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.wallet(t, "member-1", 1000)
	reward := f.reward(t, models.Reward{PointsCost: 100, AutoApprove: true})

	r, err := f.svc.RequestRedemption(ctx, RedeemRequest{WalletID: w.ID, RewardID: reward.ID})
	require.NoError(t, err)
	require.NotNil(t, r.Code)

	f.svc.now = func() time.Time { return time.Now().UTC().Add(2 * time.Hour) }
	_, err = f.svc.Burn(ctx, *r.Code)
	assert.ErrorIs(t, err, errs.ErrExpired)

	got, err := f.svc.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RedemptionApproved, got.Status)
}

func TestAutoApprove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.wallet(t, "member-1", 300)
	reward := f.reward(t, models.Reward{PointsCost: 300, AutoApprove: true, VoucherPrefix: "AUTO-"})

	r, err := f.svc.RequestRedemption(ctx, RedeemRequest{WalletID: w.ID, RewardID: reward.ID})
	require.NoError(t, err)
	assert.Equal(t, models.RedemptionApproved, r.Status)
	assert.True(t, r.AutoApproved)
	require.NotNil(t, r.Code)
	assert.Len(t, *r.Code, len("AUTO-")+26)
	assert.Zero(t, f.balance(t, w.ID))
	assert.Equal(t, 1, f.notifier.Count(w.ID, notification.KindRedemptionApproved))

	// Auto-approved redemptions skip review and cannot be rejected.
	_, err = f.svc.Reject(ctx, r.ID, "admin-1", "")
	assert.ErrorIs(t, err, errs.ErrInvalidState)
}

func TestRewardAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.wallet(t, "member-1", 10_000)

	t.Run("inventory runs out", func(t *testing.T) {
		reward := f.reward(t, models.Reward{Name: "Mug", PointsCost: 100, Inventory: intPtr(1)})
		_, err := f.svc.RequestRedemption(ctx, RedeemRequest{WalletID: w.ID, RewardID: reward.ID})
		require.NoError(t, err)
		_, err = f.svc.RequestRedemption(ctx, RedeemRequest{WalletID: w.ID, RewardID: reward.ID})
		assert.ErrorIs(t, err, errs.ErrRewardUnavailable)
	})

	t.Run("per member limit", func(t *testing.T) {
		reward := f.reward(t, models.Reward{Name: "Tote", PointsCost: 100, PerMemberLimit: intPtr(1)})
		first, err := f.svc.RequestRedemption(ctx, RedeemRequest{WalletID: w.ID, RewardID: reward.ID})
		require.NoError(t, err)
		_, err = f.svc.RequestRedemption(ctx, RedeemRequest{WalletID: w.ID, RewardID: reward.ID})
		assert.ErrorIs(t, err, errs.ErrRewardUnavailable)

		// A rejected redemption frees the slot.
		_, err = f.svc.Reject(ctx, first.ID, "admin-1", "")
		require.NoError(t, err)
		_, err = f.svc.RequestRedemption(ctx, RedeemRequest{WalletID: w.ID, RewardID: reward.ID})
		assert.NoError(t, err)
	})

	t.Run("inactive reward", func(t *testing.T) {
		reward := f.reward(t, models.Reward{Name: "Retired", PointsCost: 100})
		reward.IsActive = false
		require.NoError(t, f.store.UpsertReward(ctx, reward))
		_, err := f.svc.RequestRedemption(ctx, RedeemRequest{WalletID: w.ID, RewardID: reward.ID})
		assert.ErrorIs(t, err, errs.ErrRewardUnavailable)
	})

	t.Run("unknown reward", func(t *testing.T) {
		_, err := f.svc.RequestRedemption(ctx, RedeemRequest{WalletID: w.ID, RewardID: 9999})
		assert.ErrorIs(t, err, errs.ErrRewardNotFound)
	})

	t.Run("suspended wallet", func(t *testing.T) {
		other := f.wallet(t, "member-2", 1000)
		reward := f.reward(t, models.Reward{Name: "Cap", PointsCost: 100})
		require.NoError(t, f.store.SetStatus(ctx, other.ID, models.WalletStatusSuspended, "review"))
		_, err := f.svc.RequestRedemption(ctx, RedeemRequest{WalletID: other.ID, RewardID: reward.ID})
		assert.ErrorIs(t, err, errs.ErrWalletSuspended)
	})

	v, err := f.ledger.VerifyLedger(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, v.Consistent)
}

func TestListFiltersByStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.wallet(t, "member-1", 1000)
	reward := f.reward(t, models.Reward{PointsCost: 100})

	for i := 0; i < 3; i++ {
		_, err := f.svc.RequestRedemption(ctx, RedeemRequest{WalletID: w.ID, RewardID: reward.ID})
		require.NoError(t, err)
	}
	list, _, err := f.svc.List(ctx, w.ID, models.RedemptionPending, 10, 0)
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, list[0].ID, "admin-1")
	require.NoError(t, err)

	pending, total, err := f.svc.List(ctx, w.ID, models.RedemptionPending, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, pending, 2)

	approved, total, err := f.svc.List(ctx, w.ID, models.RedemptionApproved, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, list[0].ID, approved[0].ID)

	_, _, err = f.svc.List(ctx, w.ID, "BOGUS", 10, 0)
	assert.ErrorIs(t, err, errs.ErrInvalidState)
}

func TestApproveAndRejectAreAudited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.wallet(t, "member-1", 1000)
	reward := f.reward(t, models.Reward{PointsCost: 400})

	first, err := f.svc.RequestRedemption(ctx, RedeemRequest{WalletID: w.ID, RewardID: reward.ID})
	require.NoError(t, err)
	second, err := f.svc.RequestRedemption(ctx, RedeemRequest{WalletID: w.ID, RewardID: reward.ID})
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, first.ID, "admin-7")
	require.NoError(t, err)
	_, err = f.svc.Reject(ctx, second.ID, "admin-7", "nope")
	require.NoError(t, err)
	assert.Equal(t, int64(600), f.balance(t, w.ID))

	entries, total, err := f.store.ListAudit(ctx, w.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	actions := map[string]string{}
	for _, e := range entries {
		actions[e.Action] = e.AdminRef
	}
	assert.Equal(t, "admin-7", actions[models.AuditApproveRedemption])
	assert.Equal(t, "admin-7", actions[models.AuditRejectRedemption])
}

func TestRejectWithoutAdminRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.wallet(t, "member-1", 1000)
	reward := f.reward(t, models.Reward{PointsCost: 800})

	r, err := f.svc.RequestRedemption(ctx, RedeemRequest{WalletID: w.ID, RewardID: reward.ID})
	require.NoError(t, err)

	_, err = f.svc.Reject(ctx, r.ID, "", "nope")
	assert.ErrorIs(t, err, errs.ErrInvalidOperation)
	assert.Equal(t, int64(200), f.balance(t, w.ID))

	stored, err := f.svc.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RedemptionPending, stored.Status)
}

// orderedStore records the order of the wallet lock and the limit count
// inside each transaction.
type orderedStore struct {
	repositories.Store
	mu    *sync.Mutex
	calls *[]string
}

func (s *orderedStore) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	*s.calls = append(*s.calls, call)
}

func (s *orderedStore) Transact(ctx context.Context, fn func(tx repositories.Store) error) error {
	return s.Store.Transact(ctx, func(tx repositories.Store) error {
		return fn(&orderedStore{Store: tx, mu: s.mu, calls: s.calls})
	})
}

func (s *orderedStore) GetWalletForUpdate(ctx context.Context, id uint) (*models.MemberWallet, error) {
	s.record("lock")
	return s.Store.GetWalletForUpdate(ctx, id)
}

func (s *orderedStore) CountLiveRedemptions(ctx context.Context, walletID, rewardID uint) (int64, error) {
	s.record("count")
	return s.Store.CountLiveRedemptions(ctx, walletID, rewardID)
}

func TestPerMemberLimitIsCountedUnderWalletLock(t *testing.T) {
	base, _ := testutil.NewStore(t)
	calls := []string{}
	store := &orderedStore{Store: base, mu: &sync.Mutex{}, calls: &calls}
	ledgerSvc := ledger.NewService(store, nil, &notification.Recorder{}, config.DefaultProgram(), nil)
	svc := NewService(store, ledgerSvc, Config{VoucherTTL: time.Hour}, nil)
	ctx := context.Background()

	w, err := ledgerSvc.CreateWallet(ctx, "member-1")
	require.NoError(t, err)
	_, err = ledgerSvc.ApplyDelta(ctx, ledger.DeltaRequest{
		WalletID: w.ID, Kind: models.KindAdjustmentAdd, PointsDelta: 1000, Source: models.SourceAdminConsole,
	})
	require.NoError(t, err)
	reward := &models.Reward{Name: "Tote", PointsCost: 100, IsActive: true, PerMemberLimit: intPtr(1)}
	require.NoError(t, base.UpsertReward(ctx, reward))

	calls = calls[:0]
	_, err = svc.RequestRedemption(ctx, RedeemRequest{WalletID: w.ID, RewardID: reward.ID})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(calls), 2)
	assert.Equal(t, []string{"lock", "count"}, calls[:2])
}

func TestPerMemberLimitUnderConcurrentRequests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.wallet(t, "member-1", 10_000)
	reward := f.reward(t, models.Reward{PointsCost: 100, PerMemberLimit: intPtr(2)})

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.RequestRedemption(ctx, RedeemRequest{WalletID: w.ID, RewardID: reward.ID}); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, succeeded)
	assert.Equal(t, int64(9_800), f.balance(t, w.ID))
}
