package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidPrice is returned when a non-positive price is given to Format.
var ErrInvalidPrice = errors.New("price must be positive")

var one = decimal.New(1, 0)

// Format converts a raw price into the wire string the brokerage accepts.
// Prices under $1 keep four decimal places, everything else two. Values are
// truncated rather than rounded so the formatted price is never more
// favourable than the one requested.
func Format(raw float64) (string, error) {
	if raw <= 0 {
		return "", fmt.Errorf("%w: %v", ErrInvalidPrice, raw)
	}

	// NewFromFloat goes through the float's shortest decimal representation,
	// so boundary values like 1.005 truncate cleanly instead of picking up
	// binary float artifacts.
	d := decimal.NewFromFloat(raw)

	places := int32(2)
	if d.Abs().LessThan(one) {
		places = 4
	}

	return d.Truncate(places).StringFixed(places), nil
}
