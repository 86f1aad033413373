package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradeDesk/pkg/cache"
	"TradeDesk/pkg/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("../../config/config.yaml")
	require.NoError(t, err)
	cfg.Redis.Enabled = false
	cfg.ClickHouse.Enabled = false
	cfg.Kafka.Enabled = false
	cfg.Log.Collect.Enabled = false
	cfg.Notify.WebSocketURL = ""
	return cfg
}

func TestDisabledFeaturesProvideNil(t *testing.T) {
	cfg := testConfig(t)

	producer, err := ProvideKafkaProducer(cfg)
	require.NoError(t, err)
	assert.Nil(t, producer)

	// interface results must be untyped nil so callers' nil checks hold
	assert.True(t, ProvideEventPublisher(producer, cfg) == nil)

	ch, err := ProvideClickHouseClient(cfg)
	require.NoError(t, err)
	assert.Nil(t, ch)

	archive, err := ProvideBarArchive(ch, cfg, nil)
	require.NoError(t, err)
	assert.True(t, archive == nil)

	consumer, err := ProvideKafkaConsumer(cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, consumer)
	assert.True(t, ProvideStatusHandler(cfg, nil, nil) == nil)
	assert.Nil(t, ProvideWatcher(cfg, nil, nil))

	cfg.RateLimit.Enabled = false
	assert.Nil(t, ProvideRateLimiter(cfg))
}

func TestProvideCacheFallsBackToMemory(t *testing.T) {
	cfg := testConfig(t)

	c, err := ProvideCache(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	assert.IsType(t, &cache.MemoryCache{}, c)
	assert.NotNil(t, ProvideLocker(c))
	assert.NotNil(t, ProvideSymbolCache(c))
}

func TestInitializeAppWithLocalConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Notify.WebSocketURL = "ws://localhost:5000/ws"

	app, err := InitializeApp(cfg)
	require.NoError(t, err)
	assert.NotNil(t, app)
}
