package referral

import (
	"context"
	"sync"
	"testing"

	"loyalty/internal/config"
	errs "loyalty/internal/errors"
	"loyalty/internal/models"
	"loyalty/internal/repositories"
	"loyalty/internal/services/ledger"
	"loyalty/internal/services/notification"
	"loyalty/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*Service, *ledger.Service, repositories.Store, *gorm.DB, *notification.Recorder) {
	t.Helper()
	store, db := testutil.NewStore(t)
	notifier := &notification.Recorder{}
	program := config.DefaultProgram()
	ledgerSvc := ledger.NewService(store, nil, notifier, program, nil)
	return NewService(store, ledgerSvc, program, nil), ledgerSvc, store, db, notifier
}

// walletWithCode creates a wallet and pins its referral code.
func walletWithCode(t *testing.T, ledgerSvc *ledger.Service, db *gorm.DB, memberRef, code string) *models.MemberWallet {
	t.Helper()
	ctx := context.Background()
	w, err := ledgerSvc.CreateWallet(ctx, memberRef)
	require.NoError(t, err)
	if code != "" {
		require.NoError(t, db.Model(&models.MemberWallet{}).Where("id = ?", w.ID).Update("referral_code", code).Error)
		w.ReferralCode = code
	}
	return w
}

func bonusEntries(t *testing.T, store repositories.Store, walletID uint) []models.LedgerEntry {
	t.Helper()
	entries, err := store.LedgerEntries(context.Background(), walletID)
	require.NoError(t, err)
	var out []models.LedgerEntry
	for _, e := range entries {
		if e.Kind == models.KindReferralBonus {
			out = append(out, e)
		}
	}
	return out
}

func TestApplyReferral(t *testing.T) {
	svc, ledgerSvc, store, db, notifier := setup(t)
	ctx := context.Background()
	referrer := walletWithCode(t, ledgerSvc, db, "referrer", "ABC123")
	referee := walletWithCode(t, ledgerSvc, db, "referee", "")

	res, err := svc.ApplyReferral(ctx, referee.ID, "abc123")
	require.NoError(t, err)
	assert.Equal(t, int64(50), res.RefereeBonus)
	assert.Equal(t, int64(100), res.ReferrerBonus)

	gotReferee, err := store.GetWallet(ctx, referee.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), gotReferee.PointsBalance)
	require.NotNil(t, gotReferee.ReferredByCode)
	assert.Equal(t, "ABC123", *gotReferee.ReferredByCode)

	gotReferrer, err := store.GetWallet(ctx, referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), gotReferrer.PointsBalance)

	assert.Len(t, bonusEntries(t, store, referee.ID), 1)
	assert.Len(t, bonusEntries(t, store, referrer.ID), 1)
	assert.Equal(t, 1, notifier.Count(referee.ID, notification.KindReferralBonus))
	assert.Equal(t, 1, notifier.Count(referrer.ID, notification.KindReferralBonus))

	_, err = svc.ApplyReferral(ctx, referee.ID, "ABC123")
	assert.ErrorIs(t, err, errs.ErrAlreadyReferred)
	assert.Len(t, bonusEntries(t, store, referrer.ID), 1)
}

func TestApplyReferralValidation(t *testing.T) {
	svc, ledgerSvc, store, db, _ := setup(t)
	ctx := context.Background()
	self := walletWithCode(t, ledgerSvc, db, "self", "SELF01")

	_, err := svc.ApplyReferral(ctx, self.ID, "SELF01")
	assert.ErrorIs(t, err, errs.ErrSelfReferral)

	_, err = svc.ApplyReferral(ctx, self.ID, "NOBODY")
	assert.ErrorIs(t, err, errs.ErrInvalidCode)

	_, err = svc.ApplyReferral(ctx, 9999, "SELF01")
	assert.ErrorIs(t, err, errs.ErrWalletNotFound)

	got, err := store.GetWallet(ctx, self.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ReferredByCode)
	assert.Zero(t, got.PointsBalance)
}

func TestApplyReferralConcurrentDuplicates(t *testing.T) {
	svc, ledgerSvc, store, db, _ := setup(t)
	ctx := context.Background()
	referrer := walletWithCode(t, ledgerSvc, db, "referrer", "ABC123")
	referee := walletWithCode(t, ledgerSvc, db, "referee", "")

	var wg sync.WaitGroup
	errCh := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ApplyReferral(ctx, referee.ID, "ABC123")
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)

	succeeded := 0
	for err := range errCh {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, errs.ErrAlreadyReferred)
	}
	assert.Equal(t, 1, succeeded)

	assert.Len(t, bonusEntries(t, store, referee.ID), 1)
	assert.Len(t, bonusEntries(t, store, referrer.ID), 1)

	got, err := store.GetWallet(ctx, referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.PointsBalance)
}
