package orders

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neusse/ez-orders/internal/pricing"
)

func TestSimpleBuyOrder(t *testing.T) {
	payload, err := New().Buy("aapl").Shares(100).Limit(150.50).Day().Build()
	require.NoError(t, err)

	assert.Equal(t, "NORMAL", payload.Session)
	assert.Equal(t, Day, payload.Duration)
	assert.Equal(t, Limit, payload.OrderType)
	assert.Equal(t, Single, payload.OrderStrategyType)
	assert.Equal(t, "150.50", payload.Price)

	require.Len(t, payload.OrderLegCollection, 1)
	leg := payload.OrderLegCollection[0]
	assert.Equal(t, Buy, leg.Instruction)
	assert.Equal(t, 100, leg.Quantity)
	assert.Equal(t, "AAPL", leg.Instrument.Symbol)
	assert.Equal(t, Equity, leg.Instrument.AssetType)
}

func TestBuildDefaultsToMarketOrder(t *testing.T) {
	payload, err := New().Buy("MSFT").Shares(10).Build()
	require.NoError(t, err)
	assert.Equal(t, Market, payload.OrderType)
	assert.Empty(t, payload.Price)
}

func TestBuildRequiresLegs(t *testing.T) {
	_, err := New().Limit(150.00).Day().Build()
	assert.ErrorIs(t, err, ErrNoLegs)

	assert.False(t, New().Validate())
}

func TestQuantityBeforeActionFails(t *testing.T) {
	_, err := New().Shares(100).Buy("AAPL").Build()
	assert.ErrorIs(t, err, ErrNoActiveLeg)
}

func TestNonPositiveQuantityFails(t *testing.T) {
	_, err := New().Buy("AAPL").Shares(0).Build()
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = New().SellToOpen("AAPL240119C00150000").Contracts(-1).Build()
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestLegWithoutQuantityFailsValidation(t *testing.T) {
	// An action selector alone leaves the leg at quantity zero.
	_, err := New().Buy("AAPL").Market().Build()
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestPricingModeRequiredFields(t *testing.T) {
	offset := 5.0

	cases := []struct {
		name    string
		builder *Builder
		wantErr error
	}{
		{
			name: "limit without price via snapshot",
			builder: FromSnapshot(&Snapshot{
				Legs:      []Leg{{Action: Buy, Symbol: "AAPL", Quantity: 10, AssetType: Equity}},
				OrderType: Limit,
			}),
			wantErr: ErrMissingRequiredField,
		},
		{
			name: "stop without stop price via snapshot",
			builder: FromSnapshot(&Snapshot{
				Legs:      []Leg{{Action: Sell, Symbol: "AAPL", Quantity: 10, AssetType: Equity}},
				OrderType: Stop,
			}),
			wantErr: ErrMissingRequiredField,
		},
		{
			name: "stop limit missing stop price via snapshot",
			builder: FromSnapshot(&Snapshot{
				Legs:      []Leg{{Action: Sell, Symbol: "AAPL", Quantity: 10, AssetType: Equity}},
				OrderType: StopLimit,
				Price:     "37.00",
			}),
			wantErr: ErrMissingRequiredField,
		},
		{
			name: "net debit without price via snapshot",
			builder: FromSnapshot(&Snapshot{
				Legs:      []Leg{{Action: BuyToOpen, Symbol: "X", Quantity: 1, AssetType: Option}},
				OrderType: NetDebit,
			}),
			wantErr: ErrMissingRequiredField,
		},
		{
			name: "trailing stop without offset via snapshot",
			builder: FromSnapshot(&Snapshot{
				Legs:      []Leg{{Action: Sell, Symbol: "AAPL", Quantity: 10, AssetType: Equity}},
				OrderType: TrailingStop,
			}),
			wantErr: ErrMissingRequiredField,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.builder.Build()
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}

	// The fluent selectors themselves always carry their fields.
	_, err := New().Sell("AAPL").Shares(10).TrailingStop(offset, LinkValue, BasisBid).Build()
	assert.NoError(t, err)
}

func TestInvalidPriceSticksToBuilder(t *testing.T) {
	_, err := New().Buy("AAPL").Shares(10).Limit(-1).Day().Build()
	assert.ErrorIs(t, err, pricing.ErrInvalidPrice)
}

func TestLastPricingSelectorWins(t *testing.T) {
	payload, err := New().Buy("AAPL").Shares(10).Market().Limit(99.50).Build()
	require.NoError(t, err)
	assert.Equal(t, Limit, payload.OrderType)
	assert.Equal(t, "99.50", payload.Price)
}

func TestRepricingClearsStaleFields(t *testing.T) {
	t.Run("limit then stop drops the limit price", func(t *testing.T) {
		payload, err := New().Sell("AAPL").Shares(10).Limit(50.00).Stop(40.00).Build()
		require.NoError(t, err)
		assert.Equal(t, Stop, payload.OrderType)
		assert.Empty(t, payload.Price)
		assert.Equal(t, "40.00", payload.StopPrice)
	})

	t.Run("trailing stop then limit drops the trail", func(t *testing.T) {
		payload, err := New().Sell("AAPL").Shares(10).
			TrailingStop(5.0, LinkValue, BasisBid).
			Limit(99.50).
			Build()
		require.NoError(t, err)
		assert.Equal(t, Limit, payload.OrderType)
		assert.Equal(t, "99.50", payload.Price)
		assert.Nil(t, payload.StopPriceOffset)
		assert.Empty(t, payload.StopPriceLinkBasis)
		assert.Empty(t, payload.StopPriceLinkType)
	})

	t.Run("stop then market drops the stop price", func(t *testing.T) {
		payload, err := New().Sell("AAPL").Shares(10).Stop(40.00).Market().Build()
		require.NoError(t, err)
		assert.Equal(t, Market, payload.OrderType)
		assert.Empty(t, payload.Price)
		assert.Empty(t, payload.StopPrice)
	})
}

func TestVerticalSpreadPayload(t *testing.T) {
	payload, err := New().
		WithLeg(BuyToOpen, "XYZ   240315C00045000", 2, Option).
		WithLeg(SellToOpen, "XYZ   240315C00043000", 2, Option).
		NetDebit(3.00).
		VerticalSpread().
		Day().
		Build()
	require.NoError(t, err)

	assert.Equal(t, NetDebit, payload.OrderType)
	assert.Equal(t, "3.00", payload.Price)
	assert.Equal(t, StrategyVertical, payload.ComplexOrderStrategyType)

	require.Len(t, payload.OrderLegCollection, 2)
	assert.Equal(t, BuyToOpen, payload.OrderLegCollection[0].Instruction)
	assert.Equal(t, SellToOpen, payload.OrderLegCollection[1].Instruction)
}

func TestTrailingStopPayload(t *testing.T) {
	payload, err := New().
		Sell("XYZ").Shares(10).
		TrailingStop(10.0, LinkValue, BasisBid).
		Day().
		Build()
	require.NoError(t, err)

	assert.Equal(t, TrailingStop, payload.OrderType)
	assert.Equal(t, BasisBid, payload.StopPriceLinkBasis)
	assert.Equal(t, LinkValue, payload.StopPriceLinkType)
	require.NotNil(t, payload.StopPriceOffset)
	assert.Equal(t, 10.0, *payload.StopPriceOffset)
}

func TestOneTriggersOtherNestsChildPayload(t *testing.T) {
	child := New().Sell("XYZ").Shares(10).Limit(42.03).Day()
	parent := New().Buy("XYZ").Shares(10).Limit(34.97).Day().OneTriggersOther(child)

	payload, err := parent.Build()
	require.NoError(t, err)

	assert.Equal(t, Trigger, payload.OrderStrategyType)
	require.Len(t, payload.ChildOrderStrategies, 1)

	childPayload := payload.ChildOrderStrategies[0]
	assert.Equal(t, Single, childPayload.OrderStrategyType)
	assert.Equal(t, "42.03", childPayload.Price)
	assert.Equal(t, Sell, childPayload.OrderLegCollection[0].Instruction)
}

func TestInvalidChildFailsParentBuild(t *testing.T) {
	// Child has no quantity, so the parent must fail even though the
	// parent itself is complete.
	child := New().Sell("XYZ").Stop(37.03)
	parent := New().Sell("XYZ").Shares(2).Limit(45.97).Day().OneCancelsOther(child)

	assert.Equal(t, OCO, parent.strategyType)
	_, err := parent.Build()
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.False(t, parent.Validate())
}

func TestCyclicAttachmentRejected(t *testing.T) {
	t.Run("self", func(t *testing.T) {
		b := New().Buy("AAPL").Shares(10).Market()
		_, err := b.OneTriggersOther(b).Build()
		assert.ErrorIs(t, err, ErrCyclicOrderGraph)
	})

	t.Run("transitive", func(t *testing.T) {
		a := New().Buy("AAPL").Shares(10).Market()
		c := New().Sell("AAPL").Shares(10).Limit(160.00)
		a.OneTriggersOther(c)

		_, err := c.OneCancelsOther(a).Build()
		assert.ErrorIs(t, err, ErrCyclicOrderGraph)
	})
}

func TestBuildIsIdempotent(t *testing.T) {
	child := New().Sell("XYZ").Shares(2).StopLimit(37.03, 37.00).GTC()
	b := New().Sell("XYZ").Shares(2).Limit(45.97).Day().OneCancelsOther(child)

	first, err := b.Build()
	require.NoError(t, err)
	second, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, first, second)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(firstJSON), string(secondJSON))
}

func TestWireFieldNames(t *testing.T) {
	payload, err := New().Sell("XYZ").Shares(2).StopLimit(37.03, 37.00).GTC().Build()
	require.NoError(t, err)

	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, "NORMAL", decoded["session"])
	assert.Equal(t, "GOOD_TILL_CANCEL", decoded["duration"])
	assert.Equal(t, "STOP_LIMIT", decoded["orderType"])
	assert.Equal(t, "SINGLE", decoded["orderStrategyType"])
	assert.Equal(t, "37.00", decoded["price"])
	assert.Equal(t, "37.03", decoded["stopPrice"])
	assert.NotContains(t, decoded, "complexOrderStrategyType")
	assert.NotContains(t, decoded, "childOrderStrategies")

	legs, ok := decoded["orderLegCollection"].([]interface{})
	require.True(t, ok)
	require.Len(t, legs, 1)
	leg := legs[0].(map[string]interface{})
	assert.Equal(t, "SELL", leg["instruction"])
	instrument := leg["instrument"].(map[string]interface{})
	assert.Equal(t, "XYZ", instrument["symbol"])
	assert.Equal(t, "EQUITY", instrument["assetType"])
}

func TestWarnings(t *testing.T) {
	t.Run("large share order", func(t *testing.T) {
		b := New().Buy("AAPL").Shares(1500).Limit(10.00)
		assert.Contains(t, b.Warnings(), "large order: 1500 shares")
		_, err := b.Build()
		assert.NoError(t, err, "warnings must never block the build")
	})

	t.Run("large contract order", func(t *testing.T) {
		b := New().BuyToOpen("AAPL240119C00150000").Contracts(11).Limit(1.50)
		assert.Contains(t, b.Warnings(), "large options order: 11 contracts")
	})

	t.Run("large market order", func(t *testing.T) {
		b := New().Sell("AAPL").Shares(600).Market()
		assert.Contains(t, b.Warnings(), "large market order - consider using a limit order")
	})

	t.Run("multi-leg options without strategy tag", func(t *testing.T) {
		b := New().
			WithLeg(BuyToOpen, "A240119C00150000", 1, Option).
			WithLeg(SellToOpen, "A240119C00160000", 1, Option).
			NetDebit(1.00)
		assert.Contains(t, b.Warnings(), "multi-leg options order should specify a complex strategy type")

		b.VerticalSpread()
		assert.Empty(t, b.Warnings())
	})
}

func TestConfirmationGate(t *testing.T) {
	b := New().Buy("AAPL").Shares(10).Market().RequireConfirmation()

	_, err := b.Build()
	assert.ErrorIs(t, err, ErrConfirmationRequired)

	_, err = b.Confirm().Build()
	assert.NoError(t, err)
}

func TestSnapshotRoundTrip(t *testing.T) {
	original := New().Sell("tsla").Shares(50).StopLimit(180.00, 179.50).GTC()
	snap := original.Snapshot()

	raw, err := json.Marshal(snap)
	require.NoError(t, err)
	var restored Snapshot
	require.NoError(t, json.Unmarshal(raw, &restored))

	rebuilt, err := FromSnapshot(&restored).Build()
	require.NoError(t, err)
	direct, err := original.Build()
	require.NoError(t, err)
	assert.Equal(t, direct, rebuilt)
}

func TestParseAction(t *testing.T) {
	action, err := ParseAction(" buy_to_open ")
	require.NoError(t, err)
	assert.Equal(t, BuyToOpen, action)

	_, err = ParseAction("HOLD")
	assert.Error(t, err)
}

func TestString(t *testing.T) {
	assert.Equal(t, "empty order", New().String())

	b := New().Buy("AAPL").Shares(100).Limit(150.50).Day()
	assert.Equal(t, "BUY 100 AAPL @ $150.50 LIMIT (DAY)", b.String())

	m := New().Sell("XYZ").Shares(10).Market()
	assert.Equal(t, "SELL 10 XYZ @ MARKET (DAY)", m.String())
}
