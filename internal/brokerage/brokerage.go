// Package brokerage is a mock brokerage backend. It previews and accepts
// built order payloads with simulated latency and failures, so the rest of
// the system can be exercised without live credentials.
package brokerage

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/neusse/ez-orders/internal/orders"
	"github.com/neusse/ez-orders/internal/types"
)

// Per-contract commission modeled in preview cost estimates.
const optionContractFee = 0.65

// Client simulates a brokerage order endpoint.
type Client struct {
	MinLatency  int // in milliseconds
	MaxLatency  int
	FailureRate float64 // 0-1, probability a submit is rejected downstream
	MaxNotional float64 // orders above this are rejected in preview, 0 disables
}

// NewClient returns a client with latency and failure characteristics close
// to a live paper-trading endpoint.
func NewClient() *Client {
	return &Client{
		MinLatency:  5,
		MaxLatency:  40,
		FailureRate: 0.02,
		MaxNotional: 250_000,
	}
}

// Preview inspects a built order and reports rejections, warnings and an
// estimated cost without placing anything.
func (c *Client) Preview(payload *orders.Payload) (*types.PreviewResult, error) {
	logger := log.With().
		Str("component", "brokerage").
		Str("order_type", string(payload.OrderType)).
		Int("legs", len(payload.OrderLegCollection)).
		Logger()

	logger.Info().Msg("previewing order")

	latency := rand.Intn(c.MaxLatency-c.MinLatency+1) + c.MinLatency
	time.Sleep(time.Duration(latency) * time.Millisecond)

	result := &types.PreviewResult{}

	if len(payload.OrderLegCollection) == 0 {
		result.Rejections = append(result.Rejections, types.PreviewMessage{
			Code:    "NO_LEGS",
			Message: "order has no legs",
		})
	}

	notional := estimateNotional(payload)
	if c.MaxNotional > 0 && notional > c.MaxNotional {
		result.Rejections = append(result.Rejections, types.PreviewMessage{
			Code:    "NOTIONAL_LIMIT",
			Message: fmt.Sprintf("order notional %.2f exceeds account limit %.2f", notional, c.MaxNotional),
		})
	}

	if payload.OrderType == orders.Market {
		result.Warnings = append(result.Warnings, types.PreviewMessage{
			Code:    "MARKET_ORDER",
			Message: "market orders fill at the prevailing price",
		})
	}

	result.EstimatedCost = notional + optionFees(payload)

	logger.Info().
		Int("rejections", len(result.Rejections)).
		Int("warnings", len(result.Warnings)).
		Float64("estimated_cost", result.EstimatedCost).
		Msg("preview completed")

	return result, nil
}

// Submit accepts a built order and returns the brokerage's decision. A small
// fraction of submissions fail to simulate downstream rejections.
func (c *Client) Submit(payload *orders.Payload) (*types.SubmissionResult, error) {
	logger := log.With().
		Str("component", "brokerage").
		Str("order_type", string(payload.OrderType)).
		Int("legs", len(payload.OrderLegCollection)).
		Int("children", len(payload.ChildOrderStrategies)).
		Logger()

	logger.Info().Msg("submitting order")

	latency := rand.Intn(c.MaxLatency-c.MinLatency+1) + c.MinLatency
	logger.Debug().Int("latency_ms", latency).Msg("simulated network latency")
	time.Sleep(time.Duration(latency) * time.Millisecond)

	if rand.Float64() < c.FailureRate {
		logger.Warn().
			Float64("failure_rate", c.FailureRate).
			Msg("order rejected downstream")
		return &types.SubmissionResult{
			Status:      types.StatusError,
			Message:     "order rejected by brokerage",
			SubmittedAt: time.Now(),
		}, nil
	}

	result := &types.SubmissionResult{
		Status:      types.StatusSuccess,
		OrderID:     uuid.New().String(),
		Message:     "order accepted",
		SubmittedAt: time.Now(),
	}

	logger.Info().
		Str("order_id", result.OrderID).
		Msg("order accepted")

	return result, nil
}

// estimateNotional approximates the order's dollar exposure from its limit
// price and leg quantities. Market orders price at zero here; the caller's
// own ceiling checks handle those.
func estimateNotional(payload *orders.Payload) float64 {
	price, err := strconv.ParseFloat(payload.Price, 64)
	if err != nil {
		return 0
	}

	notional := 0.0
	for _, leg := range payload.OrderLegCollection {
		multiplier := 1.0
		if leg.Instrument.AssetType == orders.Option {
			multiplier = 100.0
		}
		notional += price * float64(leg.Quantity) * multiplier
	}
	return notional
}

func optionFees(payload *orders.Payload) float64 {
	fees := 0.0
	for _, leg := range payload.OrderLegCollection {
		if leg.Instrument.AssetType == orders.Option {
			fees += optionContractFee * float64(leg.Quantity)
		}
	}
	for _, child := range payload.ChildOrderStrategies {
		fees += optionFees(child)
	}
	return fees
}
