package validation

import (
	"github.com/shopspring/decimal"
)

// MemberRef validates the external member identifier of a new wallet.
func (v *Validator) MemberRef(ref string) {
	v.Required("member_ref", ref)
	v.MaxLength("member_ref", ref, MaxMemberRefLength)
}

// Purchase validates the shape of a purchase request. Sign checks on the
// amount stay with the ledger so callers get INVALID_AMOUNT from one place.
func (v *Validator) Purchase(amount decimal.Decimal, storeRef *string, description string) {
	v.Check(amount.LessThanOrEqual(decimal.NewFromInt(MaxPurchaseAmount)), "amount",
		"must not exceed the single purchase limit")
	if storeRef != nil {
		v.MaxLength("store_ref", *storeRef, MaxReferenceLength)
	}
	v.MaxLength("description", description, MaxDescriptionLength)
}

// Code validates a referral or voucher code.
func (v *Validator) Code(field, code string) {
	v.Required(field, code)
	v.MinLength(field, code, MinCodeLength)
	v.MaxLength(field, code, MaxCodeLength)
}

// Redemption validates a redemption request.
func (v *Validator) Redemption(rewardID uint, isGift bool, recipient string) {
	v.Required("reward_id", rewardID)
	if isGift {
		v.Required("gift_recipient", recipient)
	}
	v.MaxLength("gift_recipient", recipient, MaxGiftRecipientLength)
}

// Adjustment validates an operator balance adjustment.
func (v *Validator) Adjustment(delta int64, reason string) {
	v.Required("delta", delta)
	v.Range("delta", delta, -MaxAdjustment, MaxAdjustment)
	v.Required("reason", reason)
	v.MaxLength("reason", reason, MaxReasonLength)
}

// Reason validates an optional free-text reason.
func (v *Validator) Reason(reason string) {
	v.MaxLength("reason", reason, MaxReasonLength)
}
