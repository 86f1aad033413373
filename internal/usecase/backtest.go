package usecase

import (
	"context"
	"fmt"
	"strconv"

	"TradeDesk/internal/domain/models"
	"TradeDesk/internal/domain/repository"
	applogger "TradeDesk/pkg/logger"
	"TradeDesk/pkg/validate"
)

type BacktestRunner struct {
	gw     repository.Gateway
	events repository.EventPublisher
	logger *applogger.Logger
}

func NewBacktestRunner(gw repository.Gateway, events repository.EventPublisher, logger *applogger.Logger) *BacktestRunner {
	return &BacktestRunner{gw: gw, events: events, logger: logger}
}

func (b *BacktestRunner) Run(ctx context.Context, spec models.BacktestSpec) (models.BacktestResult, error) {
	fes, err := validate.Struct(ctx, &spec)
	if err != nil {
		return models.BacktestResult{}, fmt.Errorf("validate backtest: %w", err)
	}
	if len(fes) > 0 {
		return models.BacktestResult{}, validationError(fes)
	}

	res, err := b.gw.RunBacktest(ctx, spec)
	if err != nil {
		return models.BacktestResult{}, fmt.Errorf("run backtest: %w", err)
	}

	if b.events != nil {
		ev := models.NewEvent(models.EventBacktestCompleted, "")
		ev.Attributes = map[string]string{
			"backtest_id":       res.BacktestID,
			"symbol":            spec.Symbol,
			"timeframe":         string(spec.Timeframe),
			"return_percentage": strconv.FormatFloat(res.ReturnPct, 'f', 4, 64),
		}
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()
		if err := b.events.Publish(pctx, ev); err != nil && b.logger != nil {
			b.logger.Warn("publish backtest event failed", applogger.Error(err))
		}
	}
	return res, nil
}
