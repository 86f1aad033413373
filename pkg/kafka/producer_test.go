package kafka

import (
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducerOptionsKeepDefaultsForZeroValues(t *testing.T) {
	cfg := defaultProducerConfig()
	for _, opt := range []ProducerOption{
		WithBrokers(nil),
		WithDelivery(0, 0),
		WithCompression(""),
		WithBatching(0, 0, 0),
		WithTimeouts(0, 0),
	} {
		opt(cfg)
	}
	assert.Equal(t, defaultProducerConfig(), cfg)
}

func TestProducerOptionsOverride(t *testing.T) {
	cfg := defaultProducerConfig()
	WithDelivery(1, 5)(cfg)
	WithBatching(10, 2048, 10*time.Millisecond)(cfg)
	WithTimeouts(time.Second, 2*time.Second)(cfg)
	assert.Equal(t, 1, cfg.RequiredAcks)
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, 10, cfg.BatchSize)
	assert.Equal(t, 2048, cfg.BatchBytes)
	assert.Equal(t, 10*time.Millisecond, cfg.Linger)
	assert.Equal(t, time.Second, cfg.WriteTimeout)
	assert.Equal(t, 2*time.Second, cfg.ReadTimeout)
}

func TestNewProducerBalancesByKey(t *testing.T) {
	_, err := NewProducer()
	require.Error(t, err)

	p, err := NewProducer(WithBrokers([]string{"localhost:9092"}), WithCompression("snappy"))
	require.NoError(t, err)
	defer p.Close()
	assert.IsType(t, &kafka.Hash{}, p.writer.Balancer)
	assert.Equal(t, kafka.Snappy, p.writer.Compression)
}

func TestParseCompression(t *testing.T) {
	assert.Equal(t, kafka.Compression(0), parseCompression("none"))
	assert.Equal(t, kafka.Zstd, parseCompression("zstd"))
	assert.Equal(t, kafka.Gzip, parseCompression("bogus"))
}
