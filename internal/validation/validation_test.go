package validation

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMemberRef(t *testing.T) {
	v := New()
	v.MemberRef("member-1")
	assert.True(t, v.Valid())

	v = New()
	v.MemberRef("   ")
	assert.False(t, v.Valid())
	assert.Contains(t, v.Errors, "member_ref")

	v = New()
	v.MemberRef(strings.Repeat("x", MaxMemberRefLength+1))
	assert.False(t, v.Valid())
}

func TestPurchase(t *testing.T) {
	v := New()
	v.Purchase(decimal.RequireFromString("19.99"), nil, "groceries")
	assert.True(t, v.Valid())

	ref := strings.Repeat("s", MaxReferenceLength+1)
	v = New()
	v.Purchase(decimal.NewFromInt(MaxPurchaseAmount+1), &ref, "")
	assert.Contains(t, v.Errors, "amount")
	assert.Contains(t, v.Errors, "store_ref")
}

func TestRedemptionGiftNeedsRecipient(t *testing.T) {
	v := New()
	v.Redemption(3, true, "")
	assert.Contains(t, v.Errors, "gift_recipient")

	v = New()
	v.Redemption(0, false, "")
	assert.Contains(t, v.Errors, "reward_id")
}

func TestAdjustment(t *testing.T) {
	v := New()
	v.Adjustment(-250, "duplicate purchase")
	assert.True(t, v.Valid())

	v = New()
	v.Adjustment(0, "")
	assert.Contains(t, v.Errors, "delta")
	assert.Contains(t, v.Errors, "reason")

	v = New()
	v.Adjustment(MaxAdjustment+1, "typo")
	assert.Contains(t, v.Errors, "delta")
}

func TestCode(t *testing.T) {
	v := New()
	v.Code("code", "ABC123")
	assert.True(t, v.Valid())

	v = New()
	v.Code("code", "AB")
	assert.False(t, v.Valid())
	assert.Contains(t, v.Error(), "code")
}
