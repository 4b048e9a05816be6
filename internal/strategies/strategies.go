// Package strategies groups independently-built orders into common equity
// and options strategies. Unlike a multi-leg spread order, the orders in a
// strategy stay separate on the wire (e.g. a covered call is a stock order
// plus a call order, not one two-leg order).
package strategies

import (
	"errors"
	"fmt"
	"strings"

	"github.com/neusse/ez-orders/internal/orders"
)

var (
	// ErrInsufficientCoverage is returned when a covered call would sell
	// more calls than the bought stock can cover.
	ErrInsufficientCoverage = errors.New("insufficient coverage")

	// ErrUnknownStrategy is returned by the factory for an unrecognized
	// strategy name.
	ErrUnknownStrategy = errors.New("unknown strategy")
)

// Strategy is the common surface of every prebuilt strategy.
type Strategy interface {
	Underlying() string
	Orders() []*orders.Builder
	BuildAll() ([]*orders.Payload, error)
}

// StrategyBuilder collects orders that share an underlying symbol. Concrete
// strategies embed it and pre-select the leg actions. Guard failures stick
// and are reported by BuildAll, mirroring the order builder.
type StrategyBuilder struct {
	underlying string
	orders     []*orders.Builder
	err        error
}

// NewStrategyBuilder creates an empty strategy for the given underlying.
func NewStrategyBuilder(underlying string) *StrategyBuilder {
	return &StrategyBuilder{underlying: strings.ToUpper(strings.TrimSpace(underlying))}
}

// Underlying returns the strategy's underlying symbol.
func (s *StrategyBuilder) Underlying() string {
	return s.underlying
}

// AddOrder appends an order to the strategy.
func (s *StrategyBuilder) AddOrder(order *orders.Builder) *StrategyBuilder {
	s.orders = append(s.orders, order)
	return s
}

// Orders returns the orders added so far, in insertion order.
func (s *StrategyBuilder) Orders() []*orders.Builder {
	return append([]*orders.Builder(nil), s.orders...)
}

// Err returns the first guard failure, if any.
func (s *StrategyBuilder) Err() error {
	return s.err
}

// AtMarket prices the most recently added order at market.
func (s *StrategyBuilder) AtMarket() *StrategyBuilder {
	if last := s.last(); last != nil {
		last.Market()
	}
	return s
}

// AtLimit prices the most recently added order at the given limit.
func (s *StrategyBuilder) AtLimit(price float64) *StrategyBuilder {
	if last := s.last(); last != nil {
		last.Limit(price)
	}
	return s
}

func (s *StrategyBuilder) last() *orders.Builder {
	if len(s.orders) == 0 {
		return nil
	}
	return s.orders[len(s.orders)-1]
}

// BuildAll builds every order in the strategy. The call fails fast: if any
// order is invalid no payloads are returned at all.
func (s *StrategyBuilder) BuildAll() ([]*orders.Payload, error) {
	if s.err != nil {
		return nil, s.err
	}

	payloads := make([]*orders.Payload, 0, len(s.orders))
	for i, order := range s.orders {
		payload, err := order.Build()
		if err != nil {
			return nil, fmt.Errorf("order %d of %d: %w", i+1, len(s.orders), err)
		}
		payloads = append(payloads, payload)
	}
	return payloads, nil
}

// CoveredCall owns stock and sells calls against it. SellCall enforces that
// every contract is covered by 100 bought shares.
type CoveredCall struct {
	*StrategyBuilder
	stockQuantity int
}

// NewCoveredCall creates a covered call strategy on the underlying.
func NewCoveredCall(underlying string) *CoveredCall {
	return &CoveredCall{StrategyBuilder: NewStrategyBuilder(underlying)}
}

// BuyStock buys the underlying stock.
func (c *CoveredCall) BuyStock(shares int) *CoveredCall {
	c.stockQuantity = shares
	c.AddOrder(orders.New().Buy(c.underlying).Shares(shares))
	return c
}

// SellCall sells call options against the bought stock.
func (c *CoveredCall) SellCall(callSymbol string, contracts int) *CoveredCall {
	if c.err != nil {
		return c
	}
	if contracts*100 > c.stockQuantity {
		c.err = fmt.Errorf("%w: cannot sell %d calls with only %d shares bought",
			ErrInsufficientCoverage, contracts, c.stockQuantity)
		return c
	}
	c.AddOrder(orders.New().SellToOpen(callSymbol).Contracts(contracts))
	return c
}

// ProtectivePut owns stock and buys puts as downside protection.
type ProtectivePut struct {
	*StrategyBuilder
	stockQuantity int
}

// NewProtectivePut creates a protective put strategy on the underlying.
func NewProtectivePut(underlying string) *ProtectivePut {
	return &ProtectivePut{StrategyBuilder: NewStrategyBuilder(underlying)}
}

// BuyStock buys the underlying stock.
func (p *ProtectivePut) BuyStock(shares int) *ProtectivePut {
	p.stockQuantity = shares
	p.AddOrder(orders.New().Buy(p.underlying).Shares(shares))
	return p
}

// BuyPut buys put options for protection.
func (p *ProtectivePut) BuyPut(putSymbol string, contracts int) *ProtectivePut {
	p.AddOrder(orders.New().BuyToOpen(putSymbol).Contracts(contracts))
	return p
}

// BullCallSpread buys a lower strike call and sells a higher strike call,
// either as two orders or as a single net-debit order.
type BullCallSpread struct {
	*StrategyBuilder
}

// NewBullCallSpread creates a bull call spread strategy on the underlying.
func NewBullCallSpread(underlying string) *BullCallSpread {
	return &BullCallSpread{StrategyBuilder: NewStrategyBuilder(underlying)}
}

// BuyCall buys the lower strike call.
func (b *BullCallSpread) BuyCall(callSymbol string, contracts int) *BullCallSpread {
	b.AddOrder(orders.New().BuyToOpen(callSymbol).Contracts(contracts))
	return b
}

// SellCall sells the higher strike call.
func (b *BullCallSpread) SellCall(callSymbol string, contracts int) *BullCallSpread {
	b.AddOrder(orders.New().SellToOpen(callSymbol).Contracts(contracts))
	return b
}

// AsNetDebit replaces any accumulated orders with a single multi-leg
// net-debit vertical spread order.
func (b *BullCallSpread) AsNetDebit(maxDebit float64, longCall, shortCall string, contracts int) *BullCallSpread {
	b.orders = nil
	b.AddOrder(orders.New().
		WithLeg(orders.BuyToOpen, longCall, contracts, orders.Option).
		WithLeg(orders.SellToOpen, shortCall, contracts, orders.Option).
		NetDebit(maxDebit).
		VerticalSpread().
		Day())
	return b
}

// BearPutSpread buys a higher strike put and sells a lower strike put.
type BearPutSpread struct {
	*StrategyBuilder
}

// NewBearPutSpread creates a bear put spread strategy on the underlying.
func NewBearPutSpread(underlying string) *BearPutSpread {
	return &BearPutSpread{StrategyBuilder: NewStrategyBuilder(underlying)}
}

// BuyPut buys the higher strike put.
func (b *BearPutSpread) BuyPut(putSymbol string, contracts int) *BearPutSpread {
	b.AddOrder(orders.New().BuyToOpen(putSymbol).Contracts(contracts))
	return b
}

// SellPut sells the lower strike put.
func (b *BearPutSpread) SellPut(putSymbol string, contracts int) *BearPutSpread {
	b.AddOrder(orders.New().SellToOpen(putSymbol).Contracts(contracts))
	return b
}

// IronCondor sells a put spread and a call spread around the current price.
type IronCondor struct {
	*StrategyBuilder
}

// NewIronCondor creates an iron condor strategy on the underlying.
func NewIronCondor(underlying string) *IronCondor {
	return &IronCondor{StrategyBuilder: NewStrategyBuilder(underlying)}
}

// SellPut sells the put side's short strike.
func (ic *IronCondor) SellPut(putSymbol string, contracts int) *IronCondor {
	ic.AddOrder(orders.New().SellToOpen(putSymbol).Contracts(contracts))
	return ic
}

// BuyPut buys the put side's protective strike.
func (ic *IronCondor) BuyPut(putSymbol string, contracts int) *IronCondor {
	ic.AddOrder(orders.New().BuyToOpen(putSymbol).Contracts(contracts))
	return ic
}

// SellCall sells the call side's short strike.
func (ic *IronCondor) SellCall(callSymbol string, contracts int) *IronCondor {
	ic.AddOrder(orders.New().SellToOpen(callSymbol).Contracts(contracts))
	return ic
}

// BuyCall buys the call side's protective strike.
func (ic *IronCondor) BuyCall(callSymbol string, contracts int) *IronCondor {
	ic.AddOrder(orders.New().BuyToOpen(callSymbol).Contracts(contracts))
	return ic
}

// Straddle buys a call and a put at the same strike.
type Straddle struct {
	*StrategyBuilder
}

// NewStraddle creates a long straddle strategy on the underlying.
func NewStraddle(underlying string) *Straddle {
	return &Straddle{StrategyBuilder: NewStrategyBuilder(underlying)}
}

// BuyCall buys the call side.
func (s *Straddle) BuyCall(callSymbol string, contracts int) *Straddle {
	s.AddOrder(orders.New().BuyToOpen(callSymbol).Contracts(contracts))
	return s
}

// BuyPut buys the put side.
func (s *Straddle) BuyPut(putSymbol string, contracts int) *Straddle {
	s.AddOrder(orders.New().BuyToOpen(putSymbol).Contracts(contracts))
	return s
}

// Strangle buys a call and a put at different strikes.
type Strangle struct {
	*StrategyBuilder
}

// NewStrangle creates a long strangle strategy on the underlying.
func NewStrangle(underlying string) *Strangle {
	return &Strangle{StrategyBuilder: NewStrategyBuilder(underlying)}
}

// BuyCall buys the call side.
func (s *Strangle) BuyCall(callSymbol string, contracts int) *Strangle {
	s.AddOrder(orders.New().BuyToOpen(callSymbol).Contracts(contracts))
	return s
}

// BuyPut buys the put side.
func (s *Strangle) BuyPut(putSymbol string, contracts int) *Strangle {
	s.AddOrder(orders.New().BuyToOpen(putSymbol).Contracts(contracts))
	return s
}

var strategyNames = []string{
	"covered_call",
	"protective_put",
	"bull_call_spread",
	"bear_put_spread",
	"iron_condor",
	"straddle",
	"strangle",
}

// New creates a strategy by name.
func New(name, underlying string) (Strategy, error) {
	switch name {
	case "covered_call":
		return NewCoveredCall(underlying), nil
	case "protective_put":
		return NewProtectivePut(underlying), nil
	case "bull_call_spread":
		return NewBullCallSpread(underlying), nil
	case "bear_put_spread":
		return NewBearPutSpread(underlying), nil
	case "iron_condor":
		return NewIronCondor(underlying), nil
	case "straddle":
		return NewStraddle(underlying), nil
	case "strangle":
		return NewStrangle(underlying), nil
	}
	return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownStrategy, name, strings.Join(strategyNames, ", "))
}

// List returns the names the factory recognizes.
func List() []string {
	return append([]string(nil), strategyNames...)
}
