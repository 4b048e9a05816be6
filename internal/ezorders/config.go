package ezorders

import "github.com/neusse/ez-orders/internal/orders"

// Config carries the safety rails applied to every order the service
// touches. Zero MaxOrderValue disables the notional ceiling.
type Config struct {
	DefaultTimeInForce  orders.TimeInForce
	RequireConfirmation bool
	MaxOrderValue       float64
	EnableWarnings      bool
	SaveOrderHistory    bool
}

// DefaultConfig returns conservative defaults: day orders, confirmation
// required, a 10k notional ceiling, warnings and history on.
func DefaultConfig() Config {
	return Config{
		DefaultTimeInForce:  orders.Day,
		RequireConfirmation: true,
		MaxOrderValue:       10_000,
		EnableWarnings:      true,
		SaveOrderHistory:    true,
	}
}
