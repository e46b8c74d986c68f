package errors

var (
	ErrAlreadyReferred = &DomainError{
		Code:    CodeAlreadyReferred,
		Message: "wallet has already applied a referral code",
	}
	ErrSelfReferral = &DomainError{
		Code:    CodeSelfReferral,
		Message: "cannot apply your own referral code",
	}
	ErrInvalidCode = &DomainError{
		Code:    CodeInvalidCode,
		Message: "referral code does not exist",
	}
)
