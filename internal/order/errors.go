package order

import "errors"

var (
	ErrNotFound          = errors.New("order not found")
	ErrNotPlaced         = errors.New("order is not in PLACED state")
	ErrUnsupportedStatus = errors.New("status can only be updated to DELIVERED")
	ErrOrderIDMismatch   = errors.New("order id in path does not match request body")
	ErrNothingToCancel   = errors.New("no placed orders to cancel")

	ErrNoItems          = errors.New("order must contain at least one item")
	ErrInvalidQuantity  = errors.New("quantity should be greater than 0")
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrProductUnavailable covers both a missing product and stock below
	// the requested quantity.
	ErrProductUnavailable = errors.New("product not found or insufficient stock")
	ErrInsufficientFunds  = errors.New("not enough balance")

	ErrCustomerUnavailable  = errors.New("customer directory unavailable")
	ErrInventoryUnavailable = errors.New("inventory unavailable")
	ErrWalletUnavailable    = errors.New("wallet unavailable")
	ErrPaymentFailed        = errors.New("failed to process payment")
	ErrStockUpdateFailed    = errors.New("failed to update stock levels")
	ErrRefundFailed         = errors.New("failed to restore balance")
)

// Errors returned by the remote clients. The saga maps them to the
// step-specific errors above.
var (
	ErrRemoteNotFound    = errors.New("remote resource not found")
	ErrRemoteRejected    = errors.New("remote rejected request")
	ErrRemoteUnavailable = errors.New("remote service unavailable")
)
