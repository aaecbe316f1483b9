package purchase

import "errors"

var (
	// ErrValidation is wrapped with a rule-specific message; handlers map
	// anything carrying it to an unprocessable-entity response.
	ErrValidation = errors.New("purchase validation failed")

	ErrPurchaseNotFound   = errors.New("purchase not found")
	ErrInvalidStatus      = errors.New("invalid purchase status")
	ErrInvalidOrderStatus = errors.New("invalid order status")
	ErrEmailNotAllowed    = errors.New("confirmation email only allowed for paid purchases")
)
