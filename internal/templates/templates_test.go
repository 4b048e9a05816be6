package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/neusse/ez-orders/internal/orders"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Template{}))
	return NewService(db)
}

func TestSaveAndLoad(t *testing.T) {
	svc := newTestService(t)

	snap := orders.New().Buy("AAPL").Shares(100).Limit(150.50).GTC().Snapshot()
	require.NoError(t, svc.Save("aapl_dip_buy", "buy the dip", snap))

	loaded, err := svc.Load("aapl_dip_buy")
	require.NoError(t, err)
	assert.Equal(t, snap, loaded)

	// The snapshot reconstructs a buildable order.
	payload, err := orders.FromSnapshot(loaded).Build()
	require.NoError(t, err)
	assert.Equal(t, "150.50", payload.Price)
	assert.Equal(t, orders.GTC, payload.Duration)
}

func TestSaveOverwrites(t *testing.T) {
	svc := newTestService(t)

	first := orders.New().Buy("AAPL").Shares(100).Limit(150.00).Snapshot()
	second := orders.New().Buy("AAPL").Shares(50).Limit(145.00).Snapshot()

	require.NoError(t, svc.Save("aapl_dip_buy", "v1", first))
	require.NoError(t, svc.Save("aapl_dip_buy", "v2", second))

	loaded, err := svc.Load("aapl_dip_buy")
	require.NoError(t, err)
	assert.Equal(t, second, loaded)

	names, err := svc.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"aapl_dip_buy"}, names)

	tmpl, err := svc.Describe("aapl_dip_buy")
	require.NoError(t, err)
	assert.Equal(t, "v2", tmpl.Description)
}

func TestLoadMissing(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Load("nope")
	assert.ErrorIs(t, err, orders.ErrTemplateNotFound)
}

func TestDelete(t *testing.T) {
	svc := newTestService(t)

	snap := orders.New().Sell("MSFT").Shares(10).Market().Snapshot()
	require.NoError(t, svc.Save("msft_exit", "", snap))
	require.NoError(t, svc.Delete("msft_exit"))

	_, err := svc.Load("msft_exit")
	assert.ErrorIs(t, err, orders.ErrTemplateNotFound)

	assert.ErrorIs(t, svc.Delete("msft_exit"), orders.ErrTemplateNotFound)
}

func TestBuilderStoreIntegration(t *testing.T) {
	svc := newTestService(t)

	require.NoError(t, orders.New().
		Buy("SPY").Shares(10).Limit(470.25).
		SaveTemplate(svc, "spy_entry", "weekly entry"))

	b, err := orders.LoadTemplate(svc, "spy_entry")
	require.NoError(t, err)
	payload, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, "470.25", payload.Price)
}
