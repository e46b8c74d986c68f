package validation

const (
	// String lengths
	MaxMemberRefLength     = 100
	MaxDescriptionLength   = 500
	MaxReferenceLength     = 100
	MaxReasonLength        = 500
	MinCodeLength          = 4
	MaxCodeLength          = 64
	MaxGiftRecipientLength = 200

	// Largest single purchase accepted, in currency units.
	MaxPurchaseAmount = 1000000

	// Largest manual adjustment an operator may post in one request.
	MaxAdjustment = 10000000
)
