// Package errors declares the typed failures the loyalty engine returns to its
// callers. Every value is a *DomainError; callers match them with errors.Is,
// which compares codes so wrapped and re-created values still match.
package errors

import stderrors "errors"

// DomainError is a recoverable, caller-facing failure identified by Code.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// AsDomain extracts the DomainError carried by err, if any.
func AsDomain(err error) (*DomainError, bool) {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsDomain reports whether err is a validation or state failure, which must
// never be retried.
func IsDomain(err error) bool {
	de, ok := AsDomain(err)
	return ok && de.Code != CodeStoreFailure
}

const (
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodeInvalidState        = "INVALID_STATE"
	CodeAlreadyReferred     = "ALREADY_REFERRED"
	CodeSelfReferral        = "SELF_REFERRAL"
	CodeInvalidCode         = "INVALID_CODE"
	CodeRewardUnavailable   = "REWARD_UNAVAILABLE"
	CodeNotFound            = "NOT_FOUND"
	CodeSourceNotFound      = "SOURCE_NOT_FOUND"
	CodeAlreadyUsed         = "ALREADY_USED"
	CodeExpired             = "EXPIRED"
	CodeInvalidAmount       = "INVALID_AMOUNT"
	CodeWalletSuspended     = "WALLET_SUSPENDED"
	CodeInvalidOperation    = "INVALID_OPERATION"
	CodeStoreFailure        = "STORE_FAILURE"
)

var ErrStoreFailure = &DomainError{
	Code:    CodeStoreFailure,
	Message: "store transaction could not complete",
}

var ErrInvalidOperation = &DomainError{
	Code:    CodeInvalidOperation,
	Message: "invalid operation",
}
