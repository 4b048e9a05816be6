package orders

import (
	"fmt"
	"strings"

	"github.com/neusse/ez-orders/internal/pricing"
)

// Builder accumulates order state through a chainable API and turns it into
// a validated wire payload. The first error encountered sticks and is
// reported by Build, so call sites can chain without checking every step:
//
//	payload, err := orders.New().Buy("AAPL").Shares(100).Limit(150.50).Day().Build()
//
// A Builder is a short-lived, single-goroutine accumulation object; it is
// not safe for concurrent use.
type Builder struct {
	legs            []Leg
	orderType       Pricing
	price           string
	stopPrice       string
	timeInForce     TimeInForce
	session         string
	complexStrategy ComplexStrategy
	strategyType    StrategyType
	children        []*Builder
	linkBasis       LinkBasis
	linkType        LinkType
	offset          *float64
	requireConfirm  bool
	confirmed       bool
	warnings        []string
	err             error
}

// New returns a builder in its initial state.
func New() *Builder {
	return new(Builder).Reset()
}

// Reset returns the builder to its initial state: no legs, day order,
// normal session, single (non-conditional) strategy.
func (b *Builder) Reset() *Builder {
	*b = Builder{
		timeInForce:     Day,
		session:         "NORMAL",
		complexStrategy: StrategyNone,
		strategyType:    Single,
	}
	return b
}

// === basic actions ===

// Buy starts a buy leg for the given symbol.
func (b *Builder) Buy(symbol string) *Builder {
	return b.addLeg(Buy, symbol, Equity)
}

// Sell starts a sell leg for the given symbol.
func (b *Builder) Sell(symbol string) *Builder {
	return b.addLeg(Sell, symbol, Equity)
}

// SellShort starts a short sell leg.
func (b *Builder) SellShort(symbol string) *Builder {
	return b.addLeg(SellShort, symbol, Equity)
}

// BuyToCover starts a buy-to-cover leg.
func (b *Builder) BuyToCover(symbol string) *Builder {
	return b.addLeg(BuyToCover, symbol, Equity)
}

// === options actions ===

// BuyToOpen starts a leg opening a long options position.
func (b *Builder) BuyToOpen(symbol string) *Builder {
	return b.addLeg(BuyToOpen, symbol, Option)
}

// SellToClose starts a leg closing a long options position.
func (b *Builder) SellToClose(symbol string) *Builder {
	return b.addLeg(SellToClose, symbol, Option)
}

// SellToOpen starts a leg opening a short options position.
func (b *Builder) SellToOpen(symbol string) *Builder {
	return b.addLeg(SellToOpen, symbol, Option)
}

// BuyToClose starts a leg closing a short options position.
func (b *Builder) BuyToClose(symbol string) *Builder {
	return b.addLeg(BuyToClose, symbol, Option)
}

// WithLeg appends a fully-specified leg in one call, for programmatic
// multi-leg assembly (spreads, condors).
func (b *Builder) WithLeg(action Action, symbol string, quantity int, assetType AssetType) *Builder {
	b.addLeg(action, symbol, assetType)
	if b.err == nil {
		b.legs[len(b.legs)-1].Quantity = quantity
	}
	return b
}

func (b *Builder) addLeg(action Action, symbol string, assetType AssetType) *Builder {
	if b.err != nil {
		return b
	}
	b.legs = append(b.legs, Leg{
		Action:    action,
		Symbol:    strings.ToUpper(strings.TrimSpace(symbol)),
		AssetType: assetType,
	})
	return b
}

// === quantity ===

// Shares sets the share count on the most recently added leg.
func (b *Builder) Shares(quantity int) *Builder {
	return b.setQuantity(quantity, "shares")
}

// Contracts sets the contract count on the most recently added leg.
func (b *Builder) Contracts(quantity int) *Builder {
	return b.setQuantity(quantity, "contracts")
}

func (b *Builder) setQuantity(quantity int, unit string) *Builder {
	if b.err != nil {
		return b
	}
	if len(b.legs) == 0 {
		b.err = fmt.Errorf("%w: specify a buy/sell action before %s", ErrNoActiveLeg, unit)
		return b
	}
	if quantity <= 0 {
		b.err = fmt.Errorf("%w: got %d %s", ErrInvalidQuantity, quantity, unit)
		return b
	}

	b.legs[len(b.legs)-1].Quantity = quantity

	// Advisory only, never blocks the build.
	switch {
	case unit == "shares" && quantity > 1000:
		b.warn(fmt.Sprintf("large order: %d shares", quantity))
	case unit == "contracts" && quantity > 10:
		b.warn(fmt.Sprintf("large options order: %d contracts", quantity))
	}

	return b
}

// === pricing ===
//
// Calling a second pricing selector overwrites the prior one. Last write
// wins, matching the behavior callers expect from the facade's
// "market by default, limit when given" flows. Switching modes clears the
// previous mode's fields, so a re-priced builder carries only what its
// current mode uses.

// resetPricing clears every mode-specific field ahead of a mode change.
func (b *Builder) resetPricing() {
	b.price = ""
	b.stopPrice = ""
	b.linkBasis = ""
	b.linkType = ""
	b.offset = nil
}

// Market makes this a market order.
func (b *Builder) Market() *Builder {
	if b.err != nil {
		return b
	}
	b.resetPricing()
	b.orderType = Market
	if n := len(b.legs); n > 0 && b.legs[n-1].Quantity > 500 {
		b.warn("large market order - consider using a limit order")
	}
	return b
}

// Limit makes this a limit order at the given price.
func (b *Builder) Limit(price float64) *Builder {
	return b.setPricing(Limit, price, 0)
}

// Stop makes this a stop order at the given stop price.
func (b *Builder) Stop(stopPrice float64) *Builder {
	return b.setPricing(Stop, 0, stopPrice)
}

// StopLimit makes this a stop-limit order.
func (b *Builder) StopLimit(stopPrice, limitPrice float64) *Builder {
	return b.setPricing(StopLimit, limitPrice, stopPrice)
}

// TrailingStop makes this a trailing stop order. offsetType says whether the
// offset is an absolute value, a percentage or ticks; basis is the price the
// stop trails.
func (b *Builder) TrailingStop(offset float64, offsetType LinkType, basis LinkBasis) *Builder {
	if b.err != nil {
		return b
	}
	b.resetPricing()
	b.orderType = TrailingStop
	b.linkBasis = basis
	b.linkType = offsetType
	b.offset = &offset
	return b
}

// TrailingStopLimit makes this a trailing stop-limit order.
func (b *Builder) TrailingStopLimit(offset, limitPrice float64, offsetType LinkType, basis LinkBasis) *Builder {
	if b.err != nil {
		return b
	}
	formatted, err := pricing.Format(limitPrice)
	if err != nil {
		b.err = err
		return b
	}
	b.resetPricing()
	b.orderType = TrailingStopLimit
	b.price = formatted
	b.linkBasis = basis
	b.linkType = offsetType
	b.offset = &offset
	return b
}

// NetDebit makes this a net debit order (options spreads) with a maximum
// total debit.
func (b *Builder) NetDebit(maxDebit float64) *Builder {
	return b.setPricing(NetDebit, maxDebit, 0)
}

// NetCredit makes this a net credit order (options spreads) with a minimum
// total credit.
func (b *Builder) NetCredit(minCredit float64) *Builder {
	return b.setPricing(NetCredit, minCredit, 0)
}

// NetZero makes this a net zero order (options spreads).
func (b *Builder) NetZero() *Builder {
	if b.err != nil {
		return b
	}
	b.resetPricing()
	b.orderType = NetZero
	b.price = "0.00"
	return b
}

func (b *Builder) setPricing(mode Pricing, price, stopPrice float64) *Builder {
	if b.err != nil {
		return b
	}
	var priceStr, stopStr string
	if mode == Limit || mode == StopLimit || mode == NetDebit || mode == NetCredit {
		formatted, err := pricing.Format(price)
		if err != nil {
			b.err = err
			return b
		}
		priceStr = formatted
	}
	if mode == Stop || mode == StopLimit {
		formatted, err := pricing.Format(stopPrice)
		if err != nil {
			b.err = err
			return b
		}
		stopStr = formatted
	}
	b.resetPricing()
	b.orderType = mode
	b.price = priceStr
	b.stopPrice = stopStr
	return b
}

// === time in force ===

// Day makes this a day order.
func (b *Builder) Day() *Builder {
	return b.setTimeInForce(Day)
}

// GTC makes this order good till cancelled.
func (b *Builder) GTC() *Builder {
	return b.setTimeInForce(GTC)
}

// IOC makes this order immediate-or-cancel.
func (b *Builder) IOC() *Builder {
	return b.setTimeInForce(IOC)
}

// FOK makes this order fill-or-kill.
func (b *Builder) FOK() *Builder {
	return b.setTimeInForce(FOK)
}

func (b *Builder) setTimeInForce(tif TimeInForce) *Builder {
	if b.err != nil {
		return b
	}
	b.timeInForce = tif
	return b
}

// === complex strategies ===

// StrategyTag marks the order with a complex strategy type. The tag is
// descriptive metadata on the payload and is not validated against the legs.
func (b *Builder) StrategyTag(tag ComplexStrategy) *Builder {
	if b.err != nil {
		return b
	}
	b.complexStrategy = tag
	return b
}

// VerticalSpread marks this order as a vertical spread.
func (b *Builder) VerticalSpread() *Builder {
	return b.StrategyTag(StrategyVertical)
}

// IronCondorStrategy marks this order as an iron condor.
func (b *Builder) IronCondorStrategy() *Builder {
	return b.StrategyTag(StrategyIronCondor)
}

// StraddleStrategy marks this order as a straddle.
func (b *Builder) StraddleStrategy() *Builder {
	return b.StrategyTag(StrategyStraddle)
}

// StrangleStrategy marks this order as a strangle.
func (b *Builder) StrangleStrategy() *Builder {
	return b.StrategyTag(StrategyStrangle)
}

// ButterflyStrategy marks this order as a butterfly.
func (b *Builder) ButterflyStrategy() *Builder {
	return b.StrategyTag(StrategyButterfly)
}

// CustomStrategy marks this order as a custom multi-leg strategy.
func (b *Builder) CustomStrategy() *Builder {
	return b.StrategyTag(StrategyCustom)
}

// === conditional orders ===

// OneTriggersOther makes this a trigger order: the child is submitted when
// this order fills. Multiple calls accumulate children under the same mode.
func (b *Builder) OneTriggersOther(child *Builder) *Builder {
	return b.attachChild(Trigger, child)
}

// OneCancelsOther makes this an OCO order: a fill on either side cancels
// the other.
func (b *Builder) OneCancelsOther(child *Builder) *Builder {
	return b.attachChild(OCO, child)
}

func (b *Builder) attachChild(mode StrategyType, child *Builder) *Builder {
	if b.err != nil {
		return b
	}
	if child == nil {
		b.err = fmt.Errorf("%w: child order is nil", ErrMissingChildOrders)
		return b
	}
	// Attaching a builder beneath itself would recurse forever at build
	// time, so the attach is rejected outright.
	if child == b || child.contains(b) {
		b.err = fmt.Errorf("%w: order cannot appear in its own child tree", ErrCyclicOrderGraph)
		return b
	}
	b.strategyType = mode
	b.children = append(b.children, child)
	return b
}

func (b *Builder) contains(target *Builder) bool {
	for _, child := range b.children {
		if child == target || child.contains(target) {
			return true
		}
	}
	return false
}

// === safeguards ===

// RequireConfirmation marks the order as needing an explicit Confirm call
// before Build succeeds. The confirmation mechanism itself (prompting a
// user, a request flag) lives outside the builder.
func (b *Builder) RequireConfirmation() *Builder {
	b.requireConfirm = true
	return b
}

// Confirm acknowledges a confirmation-required order.
func (b *Builder) Confirm() *Builder {
	b.confirmed = true
	return b
}

func (b *Builder) warn(message string) {
	b.warnings = append(b.warnings, message)
}

// Warnings returns the advisory warnings accumulated so far, including the
// multi-leg-options advisory computed from the current state. Warnings are
// informational and never block Build.
func (b *Builder) Warnings() []string {
	out := append([]string(nil), b.warnings...)
	if len(b.legs) > 1 && b.complexStrategy == StrategyNone {
		for _, leg := range b.legs {
			if leg.AssetType == Option {
				out = append(out, "multi-leg options order should specify a complex strategy type")
				break
			}
		}
	}
	return out
}

// Legs returns a copy of the accumulated legs.
func (b *Builder) Legs() []Leg {
	return append([]Leg(nil), b.legs...)
}

// Err returns the first error a fluent call recorded, if any.
func (b *Builder) Err() error {
	return b.err
}

// === validation & building ===

// Validate reports whether the order would build successfully, without the
// confirmation gate.
func (b *Builder) Validate() bool {
	return b.validate() == nil
}

func (b *Builder) validate() error {
	if b.err != nil {
		return b.err
	}
	if len(b.legs) == 0 {
		return ErrNoLegs
	}
	for _, leg := range b.legs {
		if leg.Quantity <= 0 {
			return fmt.Errorf("%w: %s has quantity %d", ErrInvalidQuantity, leg.Symbol, leg.Quantity)
		}
	}

	switch b.orderType {
	case Limit:
		if b.price == "" {
			return fmt.Errorf("%w: limit orders require a price", ErrMissingRequiredField)
		}
	case Stop:
		if b.stopPrice == "" {
			return fmt.Errorf("%w: stop orders require a stop price", ErrMissingRequiredField)
		}
	case StopLimit:
		if b.price == "" || b.stopPrice == "" {
			return fmt.Errorf("%w: stop-limit orders require both a stop price and a limit price", ErrMissingRequiredField)
		}
	case NetDebit, NetCredit:
		if b.price == "" {
			return fmt.Errorf("%w: net debit/credit orders require a price", ErrMissingRequiredField)
		}
	case TrailingStop, TrailingStopLimit:
		if b.offset == nil {
			return fmt.Errorf("%w: trailing stop orders require an offset", ErrMissingRequiredField)
		}
	}

	if b.strategyType == OCO || b.strategyType == Trigger {
		if len(b.children) == 0 {
			return fmt.Errorf("%w: %s order has none", ErrMissingChildOrders, b.strategyType)
		}
	}

	// A parent is only as valid as its tree: any invalid descendant fails
	// the whole build.
	for _, child := range b.children {
		if err := child.validate(); err != nil {
			return err
		}
	}

	return nil
}

// Build validates the order and returns the brokerage-compatible payload,
// recursively building every attached child. Build does not mutate the
// builder, so calling it twice on an unmutated builder returns structurally
// identical payloads.
func (b *Builder) Build() (*Payload, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}
	if b.requireConfirm && !b.confirmed {
		return nil, fmt.Errorf("%w: call Confirm before building", ErrConfirmationRequired)
	}
	return b.payload(), nil
}

func (b *Builder) payload() *Payload {
	orderType := b.orderType
	if orderType == "" {
		orderType = Market
	}

	p := &Payload{
		Session:            b.session,
		Duration:           b.timeInForce,
		OrderType:          orderType,
		OrderStrategyType:  b.strategyType,
		Price:              b.price,
		StopPrice:          b.stopPrice,
		StopPriceLinkBasis: b.linkBasis,
		StopPriceLinkType:  b.linkType,
		OrderLegCollection: make([]PayloadLeg, len(b.legs)),
	}
	if b.complexStrategy != StrategyNone {
		p.ComplexOrderStrategyType = b.complexStrategy
	}
	if b.offset != nil {
		offset := *b.offset
		p.StopPriceOffset = &offset
	}

	for i, leg := range b.legs {
		p.OrderLegCollection[i] = PayloadLeg{
			Instruction: leg.Action,
			Quantity:    leg.Quantity,
			Instrument: Instrument{
				Symbol:    leg.Symbol,
				AssetType: leg.AssetType,
			},
		}
	}

	for _, child := range b.children {
		p.ChildOrderStrategies = append(p.ChildOrderStrategies, child.payload())
	}

	return p
}

// === templates ===

// Snapshot captures the builder's buildable state for persistence.
func (b *Builder) Snapshot() *Snapshot {
	return &Snapshot{
		Legs:        append([]Leg(nil), b.legs...),
		OrderType:   b.orderType,
		Price:       b.price,
		StopPrice:   b.stopPrice,
		TimeInForce: b.timeInForce,
		Session:     b.session,
	}
}

// FromSnapshot restores a builder from a saved snapshot.
func FromSnapshot(snap *Snapshot) *Builder {
	b := New()
	b.legs = append([]Leg(nil), snap.Legs...)
	b.orderType = snap.OrderType
	b.price = snap.Price
	b.stopPrice = snap.StopPrice
	if snap.TimeInForce != "" {
		b.timeInForce = snap.TimeInForce
	}
	if snap.Session != "" {
		b.session = snap.Session
	}
	return b
}

// SaveTemplate persists the builder's current state under the given name.
func (b *Builder) SaveTemplate(store Store, name, description string) error {
	return store.Save(name, description, b.Snapshot())
}

// LoadTemplate restores a builder from a previously saved template.
func LoadTemplate(store Store, name string) (*Builder, error) {
	snap, err := store.Load(name)
	if err != nil {
		return nil, err
	}
	return FromSnapshot(snap), nil
}

// String renders a one-line human-readable summary of the order.
func (b *Builder) String() string {
	if len(b.legs) == 0 {
		return "empty order"
	}

	parts := make([]string, len(b.legs))
	for i, leg := range b.legs {
		parts[i] = fmt.Sprintf("%s %d %s", leg.Action, leg.Quantity, leg.Symbol)
	}
	desc := strings.Join(parts, " + ")

	switch {
	case b.orderType == Market || b.orderType == "":
		desc += " @ MARKET"
	default:
		if b.price != "" {
			desc += fmt.Sprintf(" @ $%s %s", b.price, b.orderType)
		}
		if b.stopPrice != "" {
			desc += fmt.Sprintf(" (stop: $%s)", b.stopPrice)
		}
	}

	return fmt.Sprintf("%s (%s)", desc, b.timeInForce)
}
