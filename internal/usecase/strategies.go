package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"TradeDesk/internal/domain/models"
	"TradeDesk/internal/domain/repository"
	applogger "TradeDesk/pkg/logger"
	"TradeDesk/pkg/validate"
)

// StrategyCatalog lists and creates backend strategies. The backend owns them;
// nothing is cached locally.
type StrategyCatalog struct {
	gw     repository.Gateway
	events repository.EventPublisher
	logger *applogger.Logger
}

func NewStrategyCatalog(gw repository.Gateway, events repository.EventPublisher, logger *applogger.Logger) *StrategyCatalog {
	return &StrategyCatalog{gw: gw, events: events, logger: logger}
}

func (s *StrategyCatalog) List(ctx context.Context) ([]models.Strategy, error) {
	list, err := s.gw.ListStrategies(ctx)
	if err != nil {
		return nil, fmt.Errorf("list strategies: %w", err)
	}
	return list, nil
}

func (s *StrategyCatalog) Create(ctx context.Context, spec models.StrategySpec) (models.Strategy, error) {
	fes, err := validate.Struct(ctx, &spec)
	if err != nil {
		return models.Strategy{}, fmt.Errorf("validate strategy: %w", err)
	}
	if len(fes) > 0 {
		return models.Strategy{}, validationError(fes)
	}
	cfg, ok := strategyConfig(spec.Config)
	if !ok {
		return models.Strategy{}, models.NewValidationError("config", "json_object", "config must be a JSON object")
	}
	spec.Config = cfg

	st, err := s.gw.CreateStrategy(ctx, spec)
	if err != nil {
		return models.Strategy{}, fmt.Errorf("create strategy: %w", err)
	}

	if s.events != nil {
		ev := models.NewEvent(models.EventStrategyCreated, "")
		ev.Attributes = map[string]string{"strategy_id": st.ID, "strategy_type": string(st.StrategyType)}
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()
		if err := s.events.Publish(pctx, ev); err != nil && s.logger != nil {
			s.logger.Warn("publish strategy event failed", applogger.Error(err))
		}
	}
	return st, nil
}

// strategyConfig compacts raw and defaults an absent config to {}.
func strategyConfig(raw json.RawMessage) (json.RawMessage, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return json.RawMessage(`{}`), true
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}
