package redemption

import "time"

// RedeemRequest asks to exchange points for a reward.
type RedeemRequest struct {
	WalletID      uint
	RewardID      uint
	IsGift        bool
	GiftRecipient string
}

// Config holds workflow settings.
type Config struct {
	// VoucherTTL is how long an approved voucher can be burned.
	VoucherTTL time.Duration
}

const DefaultVoucherTTL = 30 * 24 * time.Hour
