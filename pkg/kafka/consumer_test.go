package kafka

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	SetMetricsRegisterer(prometheus.NewRegistry())
}

type flakyHandler struct {
	topic string
	fails int
	calls int
}

func (h *flakyHandler) Topic() string { return h.topic }

func (h *flakyHandler) Handle(context.Context, []byte) error {
	h.calls++
	if h.calls <= h.fails {
		return errors.New("not yet")
	}
	return nil
}

func newTestConsumer(t *testing.T, retries int) *Consumer {
	t.Helper()
	c, err := NewConsumer(
		WithConsumerBrokers([]string{"localhost:9092"}),
		WithConsumerRetry(retries, time.Millisecond, 2*time.Millisecond),
	)
	require.NoError(t, err)
	return c
}

func TestNewConsumerRequiresBrokers(t *testing.T) {
	_, err := NewConsumer()
	assert.Error(t, err)
}

func TestStartRequiresHandlers(t *testing.T) {
	c := newTestConsumer(t, 0)
	assert.Error(t, c.Start())
}

func TestProcessRetriesUntilSuccess(t *testing.T) {
	c := newTestConsumer(t, 3)
	h := &flakyHandler{topic: "status", fails: 2}
	c.RegisterHandler(h)

	var failures int
	c.WithConsumerHook(HookFuncs{Err: func(context.Context, string, kafka.Message, []byte, error) { failures++ }})

	c.process(&message{topic: "status", data: []byte(`{}`)})
	assert.Equal(t, 3, h.calls)
	assert.Equal(t, 2, failures)
}

func TestProcessGivesUpAfterRetryMax(t *testing.T) {
	c := newTestConsumer(t, 1)
	h := &flakyHandler{topic: "status", fails: 10}
	c.RegisterHandler(h)

	c.process(&message{topic: "status"})
	assert.Equal(t, 2, h.calls)
}

func TestRegisterHandlerKeepsFirst(t *testing.T) {
	c := newTestConsumer(t, 0)
	first := &flakyHandler{topic: "status"}
	c.RegisterHandler(first)
	c.RegisterHandler(&flakyHandler{topic: "status"})
	assert.Same(t, first, c.handlers["status"])
}

func TestBackoffWithJitterBounds(t *testing.T) {
	for attempt := 1; attempt <= 40; attempt++ {
		d := backoffWithJitter(10*time.Millisecond, 80*time.Millisecond, attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 80*time.Millisecond)
	}
	assert.LessOrEqual(t, backoffWithJitter(10*time.Millisecond, time.Second, 1), 10*time.Millisecond)
}

func TestStartOffset(t *testing.T) {
	assert.Equal(t, kafka.LastOffset, startOffset("latest"))
	assert.Equal(t, kafka.FirstOffset, startOffset("earliest"))
	assert.Equal(t, kafka.FirstOffset, startOffset(""))
}

func TestWorkerForPinsPartition(t *testing.T) {
	assert.Equal(t, 0, workerFor("status", 7, 1))
	seen := map[int]bool{}
	for p := 0; p < 16; p++ {
		w := workerFor("status", p, 4)
		assert.Equal(t, w, workerFor("status", p, 4))
		assert.GreaterOrEqual(t, w, 0)
		assert.Less(t, w, 4)
		seen[w] = true
	}
	assert.Len(t, seen, 4)
}

type orderHandler struct {
	mu   sync.Mutex
	seen map[int][]int64
}

func (h *orderHandler) Topic() string { return "status" }

func (h *orderHandler) Handle(_ context.Context, b []byte) error {
	part := int(binary.BigEndian.Uint32(b[:4]))
	off := int64(binary.BigEndian.Uint64(b[4:]))
	if off%3 == 0 {
		time.Sleep(time.Millisecond)
	}
	h.mu.Lock()
	h.seen[part] = append(h.seen[part], off)
	h.mu.Unlock()
	return nil
}

func TestPartitionHandledInOrderAcrossWorkers(t *testing.T) {
	c, err := NewConsumer(
		WithConsumerBrokers([]string{"localhost:9092"}),
		WithConsumerWorkers(3),
		WithConsumerBufferSize(64),
	)
	require.NoError(t, err)
	h := &orderHandler{seen: map[int][]int64{}}
	c.RegisterHandler(h)

	for _, q := range c.queues {
		c.wg.Add(1)
		go c.messageWorker(q)
	}

	const partitions, perPartition = 4, 20
	for off := int64(0); off < perPartition; off++ {
		for p := 0; p < partitions; p++ {
			b := make([]byte, 12)
			binary.BigEndian.PutUint32(b, uint32(p))
			binary.BigEndian.PutUint64(b[4:], uint64(off))
			km := kafka.Message{Topic: "status", Partition: p, Offset: off, Value: b}
			c.queues[workerFor("status", p, len(c.queues))] <- &message{topic: "status", data: b, km: km}
		}
	}

	require.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		n := 0
		for _, offs := range h.seen {
			n += len(offs)
		}
		return n == partitions*perPartition
	}, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, c.Stop(context.Background()))

	for p := 0; p < partitions; p++ {
		offs := h.seen[p]
		require.Len(t, offs, perPartition)
		for i, off := range offs {
			assert.Equal(t, int64(i), off, "partition %d", p)
		}
	}
}
