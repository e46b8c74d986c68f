package errors

var (
	ErrRedemptionNotFound = &DomainError{
		Code:    CodeNotFound,
		Message: "redemption not found",
	}
	ErrRewardNotFound = &DomainError{
		Code:    CodeNotFound,
		Message: "reward not found",
	}
	ErrRewardUnavailable = &DomainError{
		Code:    CodeRewardUnavailable,
		Message: "reward is inactive or out of stock",
	}
	ErrRedemptionLimit = &DomainError{
		Code:    CodeRewardUnavailable,
		Message: "reward redemption limit reached for this member",
	}
	ErrInvalidState = &DomainError{
		Code:    CodeInvalidState,
		Message: "redemption is not in a state that permits this transition",
	}
	ErrVoucherNotFound = &DomainError{
		Code:    CodeNotFound,
		Message: "voucher not found",
	}
	ErrAlreadyUsed = &DomainError{
		Code:    CodeAlreadyUsed,
		Message: "voucher has already been used",
	}
	ErrExpired = &DomainError{
		Code:    CodeExpired,
		Message: "voucher has expired",
	}
)
