package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"TradeDesk/internal/domain/models"
)

func TestRecorder(t *testing.T) {
	r := NewWithRegistry(prometheus.NewRegistry())

	r.RecordRequest("list_models", "ok")
	r.RecordRequest("list_models", "ok")
	r.RecordRequest("list_models", "unreachable")
	r.RecordTransition("train", models.StatusPending, models.StatusTraining)
	r.RecordRegistrySize(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.requests.WithLabelValues("list_models", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.requests.WithLabelValues("list_models", "unreachable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.transitions.WithLabelValues("train", "pending", "training")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.registrySize))
}

func TestNewIsShared(t *testing.T) {
	assert.Same(t, New(), New())
}
