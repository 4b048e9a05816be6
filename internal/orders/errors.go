package orders

import "errors"

// Validation failures are local and non-retryable: the caller fixes the
// builder state and rebuilds.
var (
	// ErrNoLegs is returned when an order is built with zero legs.
	ErrNoLegs = errors.New("order must have at least one leg")

	// ErrInvalidQuantity is returned for a non-positive leg quantity.
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrNoActiveLeg is returned when a quantity is set before any
	// buy/sell action created a leg to bind it to.
	ErrNoActiveLeg = errors.New("no active leg")

	// ErrMissingRequiredField is returned when the selected pricing mode
	// requires a price, stop price or trailing offset that was never set.
	ErrMissingRequiredField = errors.New("missing required field")

	// ErrMissingChildOrders is returned when an OCO or TRIGGER order has
	// no child orders attached.
	ErrMissingChildOrders = errors.New("conditional orders require child orders")

	// ErrCyclicOrderGraph is returned when attaching a child order would
	// make the order its own descendant.
	ErrCyclicOrderGraph = errors.New("cyclic order graph")

	// ErrConfirmationRequired is returned by Build when the order was
	// marked as requiring confirmation and Confirm was never called.
	ErrConfirmationRequired = errors.New("order requires confirmation")

	// ErrTemplateNotFound is returned by Store implementations when no
	// template exists under the requested name.
	ErrTemplateNotFound = errors.New("template not found")
)
