// Package ezorders is the safety facade over the order builder: one-line
// constructors for common orders, notional ceilings, confirmation gates,
// previewed submission and order history.
package ezorders

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/neusse/ez-orders/internal/history"
	"github.com/neusse/ez-orders/internal/orders"
	"github.com/neusse/ez-orders/internal/strategies"
	"github.com/neusse/ez-orders/internal/types"
)

// PreviewFunc asks the brokerage to vet a built order without placing it.
type PreviewFunc func(*orders.Payload) (*types.PreviewResult, error)

// SubmitFunc places a built order with the brokerage.
type SubmitFunc func(*orders.Payload) (*types.SubmissionResult, error)

// Service applies the configured safety rails to every order it builds or
// submits.
type Service struct {
	config  Config
	preview PreviewFunc
	submit  SubmitFunc
	history *history.Database
	store   orders.Store
	logger  zerolog.Logger
}

// NewService creates the facade. gormDB may be nil to disable history.
func NewService(config Config, gormDB *gorm.DB) *Service {
	s := &Service{
		config: config,
		logger: log.With().Str("component", "ezorders").Logger(),
	}
	if gormDB != nil {
		s.history = history.NewDatabase(gormDB)
	}
	return s
}

// SetPreviewFunc wires in the brokerage preview call.
func (s *Service) SetPreviewFunc(fn PreviewFunc) {
	s.preview = fn
}

// SetSubmitFunc wires in the brokerage submit call.
func (s *Service) SetSubmitFunc(fn SubmitFunc) {
	s.submit = fn
}

// SetTemplateStore wires in template persistence.
func (s *Service) SetTemplateStore(store orders.Store) {
	s.store = store
}

// Config returns the active configuration.
func (s *Service) Config() Config {
	return s.config
}

func (s *Service) newBuilder() *orders.Builder {
	b := orders.New()
	s.applyTimeInForce(b, s.config.DefaultTimeInForce)
	if s.config.RequireConfirmation {
		b.RequireConfirmation()
	}
	return b
}

func (s *Service) applyTimeInForce(b *orders.Builder, tif orders.TimeInForce) {
	switch tif {
	case orders.GTC:
		b.GTC()
	case orders.IOC:
		b.IOC()
	case orders.FOK:
		b.FOK()
	default:
		b.Day()
	}
}

// === one-line constructors ===

// Buy builds a buy order: limit when a positive limit price is given,
// market otherwise.
func (s *Service) Buy(symbol string, shares int, limit float64) *orders.Builder {
	b := s.newBuilder().Buy(symbol).Shares(shares)
	if limit > 0 {
		b.Limit(limit)
	} else {
		b.Market()
	}
	return b
}

// Sell builds a sell order: limit when a positive limit price is given,
// market otherwise.
func (s *Service) Sell(symbol string, shares int, limit float64) *orders.Builder {
	b := s.newBuilder().Sell(symbol).Shares(shares)
	if limit > 0 {
		b.Limit(limit)
	} else {
		b.Market()
	}
	return b
}

// BuyCall builds a day order opening long calls: limit when a positive limit
// price is given, market otherwise.
func (s *Service) BuyCall(symbol string, contracts int, limit float64) *orders.Builder {
	return s.optionOrder(orders.BuyToOpen, symbol, contracts, limit)
}

// SellCall builds a day order closing a long call position.
func (s *Service) SellCall(symbol string, contracts int, limit float64) *orders.Builder {
	return s.optionOrder(orders.SellToClose, symbol, contracts, limit)
}

// BuyPut builds a day order opening long puts.
func (s *Service) BuyPut(symbol string, contracts int, limit float64) *orders.Builder {
	return s.optionOrder(orders.BuyToOpen, symbol, contracts, limit)
}

// SellPut builds a day order closing a long put position.
func (s *Service) SellPut(symbol string, contracts int, limit float64) *orders.Builder {
	return s.optionOrder(orders.SellToClose, symbol, contracts, limit)
}

func (s *Service) optionOrder(action orders.Action, symbol string, contracts int, limit float64) *orders.Builder {
	b := s.newBuilder()
	switch action {
	case orders.BuyToOpen:
		b.BuyToOpen(symbol)
	case orders.SellToClose:
		b.SellToClose(symbol)
	case orders.SellToOpen:
		b.SellToOpen(symbol)
	default:
		b.BuyToClose(symbol)
	}
	b.Contracts(contracts)
	if limit > 0 {
		b.Limit(limit)
	} else {
		b.Market()
	}
	return b.Day()
}

// StopLoss builds a GTC stop order protecting an existing long position.
func (s *Service) StopLoss(symbol string, shares int, stopPrice float64) *orders.Builder {
	return s.newBuilder().Sell(symbol).Shares(shares).Stop(stopPrice).GTC()
}

// TrailingStopLoss builds a GTC trailing stop that follows the bid down by
// the given percentage.
func (s *Service) TrailingStopLoss(symbol string, shares int, trailPercent float64) *orders.Builder {
	return s.newBuilder().Sell(symbol).Shares(shares).
		TrailingStop(trailPercent, orders.LinkPercent, orders.BasisBid).
		GTC()
}

// BracketOrder builds an entry order that, once filled, triggers an OCO pair
// of a profit-taking limit and a protective stop.
func (s *Service) BracketOrder(symbol string, shares int, entry, profitTarget, stopLoss float64) *orders.Builder {
	profit := orders.New().Sell(symbol).Shares(shares).Limit(profitTarget).GTC()
	stop := orders.New().Sell(symbol).Shares(shares).Stop(stopLoss).GTC()

	return s.newBuilder().
		Buy(symbol).Shares(shares).Limit(entry).Day().
		OneTriggersOther(profit.OneCancelsOther(stop))
}

// VerticalSpread builds a single net-debit two-leg call spread order.
func (s *Service) VerticalSpread(longSymbol, shortSymbol string, contracts int, maxDebit float64) *orders.Builder {
	return s.newBuilder().
		WithLeg(orders.BuyToOpen, longSymbol, contracts, orders.Option).
		WithLeg(orders.SellToOpen, shortSymbol, contracts, orders.Option).
		NetDebit(maxDebit).
		VerticalSpread()
}

// IronCondorOrder builds a single net-credit four-leg iron condor order.
func (s *Service) IronCondorOrder(shortPut, longPut, shortCall, longCall string, contracts int, minCredit float64) *orders.Builder {
	return s.newBuilder().
		WithLeg(orders.SellToOpen, shortPut, contracts, orders.Option).
		WithLeg(orders.BuyToOpen, longPut, contracts, orders.Option).
		WithLeg(orders.SellToOpen, shortCall, contracts, orders.Option).
		WithLeg(orders.BuyToOpen, longCall, contracts, orders.Option).
		NetCredit(minCredit).
		IronCondorStrategy()
}

// Strategy creates a named multi-order strategy on the underlying.
func (s *Service) Strategy(name, underlying string) (strategies.Strategy, error) {
	return strategies.New(name, underlying)
}

// DollarCostAverage sizes a buy to roughly the given dollar amount at the
// current price, with a 1% limit buffer above it.
func (s *Service) DollarCostAverage(symbol string, amount, price float64) (*orders.Builder, error) {
	if price <= 0 {
		return nil, fmt.Errorf("%w: price", orders.ErrMissingRequiredField)
	}
	shares := int(amount / price)
	if shares < 1 {
		return nil, fmt.Errorf("%w: %.2f buys zero shares at %.2f", orders.ErrInvalidQuantity, amount, price)
	}
	return s.Buy(symbol, shares, price*1.01), nil
}

// QuickPortfolioAdjustment builds market sell orders followed by market buy
// orders, for rebalancing in one call.
func (s *Service) QuickPortfolioAdjustment(sells, buys map[string]int) []*orders.Builder {
	builders := make([]*orders.Builder, 0, len(sells)+len(buys))
	for symbol, shares := range sells {
		builders = append(builders, s.Sell(symbol, shares, 0))
	}
	for symbol, shares := range buys {
		builders = append(builders, s.Buy(symbol, shares, 0))
	}
	return builders
}

// optionContractFee is the typical per-contract options commission; stock
// trades are commission-free.
const optionContractFee = 0.65

// EstimateCommission returns a rough commission for the order's legs without
// a brokerage preview round-trip. Actual commissions vary.
func (s *Service) EstimateCommission(b *orders.Builder) float64 {
	commission := 0.0
	for _, leg := range b.Legs() {
		if leg.AssetType == orders.Option {
			commission += optionContractFee * float64(leg.Quantity)
		}
	}
	return commission
}

// === submission ===

// SubmitOrder builds the order and submits it. With dryRun the built payload
// is validated and logged but nothing is sent.
func (s *Service) SubmitOrder(b *orders.Builder, dryRun bool) (*types.SubmissionResult, error) {
	return s.SubmitOrderFor("", b, dryRun)
}

// SubmitOrderFor is SubmitOrder with the submitting client recorded in the
// order history.
func (s *Service) SubmitOrderFor(clientID string, b *orders.Builder, dryRun bool) (*types.SubmissionResult, error) {
	payload, err := b.Build()
	if err != nil {
		return nil, err
	}

	if s.config.EnableWarnings {
		for _, warning := range b.Warnings() {
			s.logger.Warn().Str("warning", warning).Msg("order warning")
		}
	}

	if dryRun {
		s.logger.Info().
			Str("order_type", string(payload.OrderType)).
			Int("legs", len(payload.OrderLegCollection)).
			Msg("dry run, order not submitted")
		return &types.SubmissionResult{
			Status:      types.StatusDryRun,
			Message:     "dry run, order not submitted",
			SubmittedAt: time.Now(),
		}, nil
	}

	return s.submitPayload(payload, "ORDER", clientID)
}

func (s *Service) submitPayload(payload *orders.Payload, kind, clientID string) (*types.SubmissionResult, error) {
	if err := s.checkOrderValue(payload); err != nil {
		return nil, err
	}
	if s.submit == nil {
		return nil, ErrNoSubmitFunc
	}

	result, err := s.submit(payload)
	if err != nil {
		return nil, fmt.Errorf("submit failed: %w", err)
	}
	if result.Status == types.StatusError {
		s.recordHistory(kind, clientID, payload, result)
		return result, fmt.Errorf("%w: %s", ErrExternalRejection, result.Message)
	}

	s.recordHistory(kind, clientID, payload, result)

	s.logger.Info().
		Str("order_id", result.OrderID).
		Str("client_id", clientID).
		Str("status", result.Status).
		Msg("order submitted")

	return result, nil
}

// SmartSubmit previews the order first and refuses to submit when the
// preview rejects it or its estimated cost is above maxCost.
func (s *Service) SmartSubmit(b *orders.Builder, maxCost float64) (*types.SubmissionResult, error) {
	payload, err := b.Build()
	if err != nil {
		return nil, err
	}
	if s.preview == nil {
		return nil, ErrNoPreviewFunc
	}

	preview, err := s.preview(payload)
	if err != nil {
		return nil, fmt.Errorf("preview failed: %w", err)
	}
	if len(preview.Rejections) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrExternalRejection, preview.Rejections[0].Message)
	}
	if maxCost > 0 && preview.EstimatedCost > maxCost {
		return nil, fmt.Errorf("%w: estimated cost %.2f above limit %.2f",
			ErrOrderValueExceeded, preview.EstimatedCost, maxCost)
	}

	if s.config.EnableWarnings {
		for _, warning := range preview.Warnings {
			s.logger.Warn().Str("warning", warning.Message).Msg("preview warning")
		}
	}

	return s.SubmitOrder(b, false)
}

// BatchSubmit submits the builders in order, pausing between submissions.
// With stopOnError the first failure aborts the rest; results collected so
// far are returned either way.
func (s *Service) BatchSubmit(builders []*orders.Builder, pauseBetween time.Duration, stopOnError bool) ([]*types.SubmissionResult, error) {
	results := make([]*types.SubmissionResult, 0, len(builders))
	var firstErr error

	for i, b := range builders {
		if i > 0 && pauseBetween > 0 {
			time.Sleep(pauseBetween)
		}

		result, err := s.SubmitOrder(b, false)
		if err != nil {
			s.logger.Error().Err(err).Int("index", i).Msg("batch submission failed")
			if stopOnError {
				return results, fmt.Errorf("batch aborted at order %d: %w", i+1, err)
			}
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		results = append(results, result)
	}

	return results, firstErr
}

// SubmitStrategy builds every order in the strategy and submits them in
// sequence. Any build failure aborts before anything is sent.
func (s *Service) SubmitStrategy(st strategies.Strategy, dryRun bool) ([]*types.SubmissionResult, error) {
	payloads, err := st.BuildAll()
	if err != nil {
		return nil, err
	}

	results := make([]*types.SubmissionResult, 0, len(payloads))
	for _, payload := range payloads {
		if dryRun {
			results = append(results, &types.SubmissionResult{
				Status:      types.StatusDryRun,
				Message:     "dry run, order not submitted",
				SubmittedAt: time.Now(),
			})
			continue
		}
		result, err := s.submitPayload(payload, "STRATEGY", "")
		if err != nil {
			return results, fmt.Errorf("strategy %s: %w", st.Underlying(), err)
		}
		results = append(results, result)
	}
	return results, nil
}

// checkOrderValue enforces the configured notional ceiling. Market orders
// carry no price and are exempt; the warning system flags those instead.
func (s *Service) checkOrderValue(payload *orders.Payload) error {
	if s.config.MaxOrderValue <= 0 || payload.Price == "" {
		return nil
	}

	price, err := decimal.NewFromString(payload.Price)
	if err != nil {
		return fmt.Errorf("invalid payload price %q: %w", payload.Price, err)
	}

	quantity := decimal.Zero
	for _, leg := range payload.OrderLegCollection {
		switch leg.Instruction {
		case orders.Buy, orders.BuyToOpen, orders.BuyToCover, orders.BuyToClose:
			quantity = quantity.Add(decimal.NewFromInt(int64(leg.Quantity)))
		}
	}

	value := price.Mul(quantity)
	ceiling := decimal.NewFromFloat(s.config.MaxOrderValue)
	if value.GreaterThan(ceiling) {
		return fmt.Errorf("%w: %s above ceiling %s", ErrOrderValueExceeded,
			value.StringFixed(2), ceiling.StringFixed(2))
	}
	return nil
}

func (s *Service) recordHistory(kind, clientID string, payload *orders.Payload, result *types.SubmissionResult) {
	if !s.config.SaveOrderHistory || s.history == nil {
		return
	}

	record := &history.Record{
		RecordID: uuid.New().String(),
		ClientID: clientID,
		Kind:     kind,
		Price:    payload.Price,
		Status:   result.Status,
	}
	if len(payload.OrderLegCollection) > 0 {
		leg := payload.OrderLegCollection[0]
		record.Symbol = leg.Instrument.Symbol
		record.Instruction = string(leg.Instruction)
		record.Quantity = leg.Quantity
	}
	if raw, err := json.Marshal(payload); err == nil {
		record.OrderJSON = string(raw)
	}
	if raw, err := json.Marshal(result); err == nil {
		record.ResponseJSON = string(raw)
	}

	if err := s.history.CreateRecord(record); err != nil {
		s.logger.Error().Err(err).Msg("failed to record order history")
	}
}

// OrderHistory returns the newest history records, up to limit.
func (s *Service) OrderHistory(limit int) ([]history.Record, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.ListRecent(limit)
}

// === templates ===

// SaveTemplate persists the builder's snapshot under the given name.
func (s *Service) SaveTemplate(b *orders.Builder, name, description string) error {
	if s.store == nil {
		return ErrNoTemplateStore
	}
	return b.SaveTemplate(s.store, name, description)
}

// LoadTemplate reconstructs a builder from a stored template. The service's
// confirmation policy applies to the loaded order.
func (s *Service) LoadTemplate(name string) (*orders.Builder, error) {
	if s.store == nil {
		return nil, ErrNoTemplateStore
	}
	b, err := orders.LoadTemplate(s.store, name)
	if err != nil {
		return nil, err
	}
	if s.config.RequireConfirmation {
		b.RequireConfirmation()
	}
	return b, nil
}

// ListTemplates returns the stored template names.
func (s *Service) ListTemplates() ([]string, error) {
	if s.store == nil {
		return nil, ErrNoTemplateStore
	}
	return s.store.List()
}

// DeleteTemplate removes a stored template.
func (s *Service) DeleteTemplate(name string) error {
	if s.store == nil {
		return ErrNoTemplateStore
	}
	return s.store.Delete(name)
}
