package utils

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
)

var codeEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// GenerateReferralCode returns 12 uppercase base32 characters carrying 60
// random bits.
func GenerateReferralCode() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate referral code: %w", err)
	}
	return codeEncoding.EncodeToString(b)[:12], nil
}

// GenerateVoucherCode returns prefix followed by 26 base32 characters
// carrying 128 random bits.
func GenerateVoucherCode(prefix string) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate voucher code: %w", err)
	}
	return prefix + codeEncoding.EncodeToString(b), nil
}
