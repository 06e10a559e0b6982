package transfer

import "errors"

// ValidationError rejects a checkout submission before any order is created.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var (
	ErrMissingEmail = &ValidationError{Code: "missing_email", Message: "destination email is required"}
	ErrInvalidEmail = &ValidationError{Code: "invalid_email", Message: "destination email is not a valid address"}
	ErrSelfTransfer = &ValidationError{Code: "self_transfer", Message: "an order cannot be transferred to its own buyer"}
)

var (
	ErrUnauthorized             = errors.New("caller is not the transfer destination")
	ErrInvalidState             = errors.New("order is not awaiting transfer")
	ErrNotTransferOrder         = errors.New("order was not placed for transfer")
	ErrUnsupportedPaymentMethod = errors.New("unsupported payment method")
	ErrGatewayDisabled          = errors.New("order transfer is disabled")
	ErrEmptyCart                = errors.New("cart is empty")
)
