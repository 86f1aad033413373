package models

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a lifecycle notification.
type EventType string

const (
	EventModelCreated        EventType = "model.created"
	EventModelTrainRequested EventType = "model.train_requested"
	EventModelDeleted        EventType = "model.deleted"
	EventRegistryRefreshed   EventType = "registry.refreshed"
	EventBacktestCompleted   EventType = "backtest.completed"
	EventStrategyCreated     EventType = "strategy.created"
)

// Event is published after a lifecycle operation completes.
type Event struct {
	ID         string            `json:"id"`
	Type       EventType         `json:"type"`
	ModelID    string            `json:"model_id,omitempty"`
	Status     Status            `json:"status,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// NewEvent stamps a fresh event id and time.
func NewEvent(t EventType, modelID string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		ModelID:    modelID,
		OccurredAt: time.Now().UTC(),
	}
}

// Key returns the partitioning key used by the publisher.
func (e Event) Key() string {
	if e.ModelID != "" {
		return e.ModelID
	}
	return string(e.Type)
}
