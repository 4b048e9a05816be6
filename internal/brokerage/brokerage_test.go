package brokerage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neusse/ez-orders/internal/orders"
	"github.com/neusse/ez-orders/internal/types"
)

func fastClient() *Client {
	return &Client{MinLatency: 0, MaxLatency: 1, FailureRate: 0, MaxNotional: 250_000}
}

func TestPreviewEstimatesCost(t *testing.T) {
	payload, err := orders.New().Buy("AAPL").Shares(100).Limit(150.00).Build()
	require.NoError(t, err)

	result, err := fastClient().Preview(payload)
	require.NoError(t, err)
	assert.Empty(t, result.Rejections)
	assert.InDelta(t, 15000.00, result.EstimatedCost, 0.001)
}

func TestPreviewOptionFees(t *testing.T) {
	payload, err := orders.New().
		WithLeg(orders.BuyToOpen, "SPY_240119C470", 2, orders.Option).
		WithLeg(orders.SellToOpen, "SPY_240119C475", 2, orders.Option).
		NetDebit(2.35).
		Build()
	require.NoError(t, err)

	result, err := fastClient().Preview(payload)
	require.NoError(t, err)
	// 4 contracts at 0.65 each on top of the notional.
	assert.InDelta(t, 2.35*4*100+4*0.65, result.EstimatedCost, 0.001)
}

func TestPreviewRejectsOverNotional(t *testing.T) {
	payload, err := orders.New().Buy("BRKA").Shares(10).Limit(600000).Build()
	require.NoError(t, err)

	result, err := fastClient().Preview(payload)
	require.NoError(t, err)
	require.NotEmpty(t, result.Rejections)
	assert.Equal(t, "NOTIONAL_LIMIT", result.Rejections[0].Code)
}

func TestPreviewWarnsOnMarketOrder(t *testing.T) {
	payload, err := orders.New().Buy("AAPL").Shares(10).Market().Build()
	require.NoError(t, err)

	result, err := fastClient().Preview(payload)
	require.NoError(t, err)
	assert.Empty(t, result.Rejections)
	require.NotEmpty(t, result.Warnings)
	assert.Equal(t, "MARKET_ORDER", result.Warnings[0].Code)
}

func TestSubmitSuccess(t *testing.T) {
	payload, err := orders.New().Buy("AAPL").Shares(10).Limit(150.00).Build()
	require.NoError(t, err)

	result, err := fastClient().Submit(payload)
	require.NoError(t, err)
	assert.Equal(t, types.StatusSuccess, result.Status)
	assert.NotEmpty(t, result.OrderID)
}

func TestSubmitAlwaysFails(t *testing.T) {
	client := fastClient()
	client.FailureRate = 1.0

	payload, err := orders.New().Buy("AAPL").Shares(10).Limit(150.00).Build()
	require.NoError(t, err)

	result, err := client.Submit(payload)
	require.NoError(t, err)
	assert.Equal(t, types.StatusError, result.Status)
	assert.Empty(t, result.OrderID)
}
