package errors

var (
	ErrInsufficientBalance = &DomainError{
		Code:    CodeInsufficientBalance,
		Message: "insufficient points balance",
	}
	ErrInvalidAmount = &DomainError{
		Code:    CodeInvalidAmount,
		Message: "invalid amount",
	}
	ErrWalletNotFound = &DomainError{
		Code:    CodeNotFound,
		Message: "wallet not found",
	}
	ErrWalletSuspended = &DomainError{
		Code:    CodeWalletSuspended,
		Message: "wallet is suspended",
	}
	ErrSourceNotFound = &DomainError{
		Code:    CodeSourceNotFound,
		Message: "merge source wallet not found",
	}
	ErrTierNotFound = &DomainError{
		Code:    CodeNotFound,
		Message: "tier not found",
	}
)

var (
	ErrWalletExists = &DomainError{
		Code:    CodeInvalidOperation,
		Message: "member already has a wallet",
	}
	ErrMemberRefRequired = &DomainError{
		Code:    CodeInvalidOperation,
		Message: "member reference is required",
	}
	ErrSameWallet = &DomainError{
		Code:    CodeInvalidOperation,
		Message: "cannot merge a wallet into itself",
	}
)
