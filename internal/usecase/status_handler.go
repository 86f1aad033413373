package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"TradeDesk/internal/domain/models"
	domrepo "TradeDesk/internal/domain/repository"
	pkgkafka "TradeDesk/pkg/kafka"
)

// RefreshTrigger requests an asynchronous registry refresh.
type RefreshTrigger interface {
	Trigger(reason string)
}

// ModelStatusHandler consumes backend status notifications and schedules a
// registry refresh. It never edits the registry itself: the listing is the
// only source of terminal states.
type ModelStatusHandler struct {
	topic   string
	trigger RefreshTrigger
	metrics domrepo.Metrics
}

func NewModelStatusHandler(topic string, trigger RefreshTrigger, metrics domrepo.Metrics) *ModelStatusHandler {
	return &ModelStatusHandler{topic: topic, trigger: trigger, metrics: metrics}
}

func (h *ModelStatusHandler) Topic() string { return h.topic }

// incoming message schema: {model_id, status, accuracy?}
func (h *ModelStatusHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		ModelID  json.RawMessage `json:"model_id"`
		Status   models.Status   `json:"status"`
		Accuracy *float64        `json:"accuracy"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.recordError("status_unmarshal")
		return fmt.Errorf("decode model status: %w", err)
	}
	if len(m.ModelID) == 0 || m.Status == "" {
		h.recordError("status_incomplete")
		return fmt.Errorf("decode model status: model_id and status are required")
	}
	if h.metrics != nil {
		h.metrics.RecordRequest("status_notification", string(m.Status))
	}
	h.trigger.Trigger("kafka:" + string(m.Status))
	return nil
}

func (h *ModelStatusHandler) recordError(kind string) {
	if h.metrics != nil {
		h.metrics.RecordError(kind)
	}
}

var _ pkgkafka.MessageHandler = (*ModelStatusHandler)(nil)
