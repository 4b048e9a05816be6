package strategies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neusse/ez-orders/internal/orders"
)

func TestCoveredCall(t *testing.T) {
	cc := NewCoveredCall("aapl")
	cc.BuyStock(100).AtLimit(150.50)
	cc.SellCall("AAPL_240119C155", 1).AtLimit(2.50)

	require.NoError(t, cc.Err())
	payloads, err := cc.BuildAll()
	require.NoError(t, err)
	require.Len(t, payloads, 2)

	assert.Equal(t, "AAPL", cc.Underlying())
	assert.Equal(t, orders.Buy, payloads[0].OrderLegCollection[0].Instruction)
	assert.Equal(t, orders.Equity, payloads[0].OrderLegCollection[0].Instrument.AssetType)
	assert.Equal(t, "150.50", payloads[0].Price)
	assert.Equal(t, orders.SellToOpen, payloads[1].OrderLegCollection[0].Instruction)
	assert.Equal(t, orders.Option, payloads[1].OrderLegCollection[0].Instrument.AssetType)
	assert.Equal(t, "2.50", payloads[1].Price)
}

func TestCoveredCallInsufficientCoverage(t *testing.T) {
	cc := NewCoveredCall("AAPL")
	cc.BuyStock(100)
	cc.SellCall("AAPL_240119C155", 2)

	require.ErrorIs(t, cc.Err(), ErrInsufficientCoverage)

	payloads, err := cc.BuildAll()
	assert.ErrorIs(t, err, ErrInsufficientCoverage)
	assert.Nil(t, payloads)

	// The guard sticks: further calls do not clear it.
	cc.SellCall("AAPL_240119C155", 1)
	assert.ErrorIs(t, cc.Err(), ErrInsufficientCoverage)
}

func TestCoveredCallExactCoverage(t *testing.T) {
	cc := NewCoveredCall("AAPL")
	cc.BuyStock(200).AtMarket()
	cc.SellCall("AAPL_240119C155", 2).AtLimit(2.50)

	assert.NoError(t, cc.Err())
	_, err := cc.BuildAll()
	assert.NoError(t, err)
}

func TestBuildAllFailsFast(t *testing.T) {
	s := NewStraddle("SPY")
	s.BuyCall("SPY_240119C470", 1).AtLimit(5.25)
	// Second order never gets a quantity, so it cannot build.
	s.AddOrder(orders.New().BuyToOpen("SPY_240119P470"))

	payloads, err := s.BuildAll()
	assert.ErrorIs(t, err, orders.ErrInvalidQuantity)
	assert.Nil(t, payloads)
}

func TestBullCallSpreadAsNetDebit(t *testing.T) {
	b := NewBullCallSpread("SPY")
	b.BuyCall("SPY_240119C470", 1)
	b.SellCall("SPY_240119C475", 1)
	b.AsNetDebit(2.35, "SPY_240119C470", "SPY_240119C475", 1)

	require.Len(t, b.Orders(), 1, "AsNetDebit collapses to a single order")

	payloads, err := b.BuildAll()
	require.NoError(t, err)
	require.Len(t, payloads, 1)

	p := payloads[0]
	assert.Equal(t, orders.NetDebit, p.OrderType)
	assert.Equal(t, "2.35", p.Price)
	assert.Equal(t, orders.StrategyVertical, p.ComplexOrderStrategyType)
	require.Len(t, p.OrderLegCollection, 2)
	assert.Equal(t, orders.BuyToOpen, p.OrderLegCollection[0].Instruction)
	assert.Equal(t, orders.SellToOpen, p.OrderLegCollection[1].Instruction)
}

func TestProtectivePut(t *testing.T) {
	p := NewProtectivePut("MSFT")
	p.BuyStock(100).AtMarket()
	p.BuyPut("MSFT_240119P380", 1).AtLimit(4.10)

	payloads, err := p.BuildAll()
	require.NoError(t, err)
	require.Len(t, payloads, 2)
	assert.Equal(t, orders.Market, payloads[0].OrderType)
	assert.Equal(t, orders.BuyToOpen, payloads[1].OrderLegCollection[0].Instruction)
}

func TestIronCondorOrderCount(t *testing.T) {
	ic := NewIronCondor("SPY")
	ic.SellPut("SPY_240119P450", 1).AtLimit(1.20)
	ic.BuyPut("SPY_240119P445", 1).AtLimit(0.80)
	ic.SellCall("SPY_240119C490", 1).AtLimit(1.10)
	ic.BuyCall("SPY_240119C495", 1).AtLimit(0.70)

	payloads, err := ic.BuildAll()
	require.NoError(t, err)
	assert.Len(t, payloads, 4)
}

func TestFactory(t *testing.T) {
	for _, name := range List() {
		st, err := New(name, "aapl")
		require.NoError(t, err, name)
		assert.Equal(t, "AAPL", st.Underlying(), name)
	}

	_, err := New("calendar_roll", "AAPL")
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestOrdersReturnsCopy(t *testing.T) {
	s := NewStrangle("QQQ")
	s.BuyCall("QQQ_240119C400", 1).AtLimit(3.00)

	got := s.Orders()
	got[0] = nil
	require.NotNil(t, s.Orders()[0])
}
