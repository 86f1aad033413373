package usecase

import (
	"context"
	"fmt"
	"slices"
	"time"

	"TradeDesk/internal/domain/models"
	"TradeDesk/internal/domain/repository"
	applogger "TradeDesk/pkg/logger"
	"TradeDesk/pkg/validate"
)

const publishTimeout = 3 * time.Second

// SymbolCatalog exposes the most recently fetched symbol catalogue.
// An empty catalogue means it has not been loaded.
type SymbolCatalog interface {
	Symbols() []string
}

// LifecycleController drives models through pending -> training -> trained|failed
// against the backend. The backend is authoritative; the only local transition is
// the optimistic pending -> training after a train request is accepted.
type LifecycleController struct {
	gw      repository.Gateway
	reg     *Registry
	catalog SymbolCatalog
	events  repository.EventPublisher
	metrics repository.Metrics
	logger  *applogger.Logger
}

func NewLifecycleController(
	gw repository.Gateway,
	reg *Registry,
	catalog SymbolCatalog,
	events repository.EventPublisher,
	metrics repository.Metrics,
	logger *applogger.Logger,
) *LifecycleController {
	return &LifecycleController{gw: gw, reg: reg, catalog: catalog, events: events, metrics: metrics, logger: logger}
}

func (c *LifecycleController) Models() []models.Model { return c.reg.Snapshot() }

func (c *LifecycleController) Model(id string) (models.Model, error) {
	m, ok := c.reg.Get(id)
	if !ok {
		return models.Model{}, models.NotFoundError(id)
	}
	return m, nil
}

func (c *LifecycleController) CreateModel(ctx context.Context, spec models.ModelSpec) (models.Model, error) {
	if err := c.validateSpec(ctx, &spec); err != nil {
		return models.Model{}, err
	}

	m, err := c.gw.CreateModel(ctx, spec)
	if err != nil {
		return models.Model{}, fmt.Errorf("create model: %w", err)
	}
	m.Status = models.StatusPending
	if err := c.reg.Put(m); err != nil {
		return models.Model{}, fmt.Errorf("create model: %w", err)
	}

	c.transition("create", "", models.StatusPending)
	c.publish(ctx, models.EventModelCreated, m)
	c.info("model created", applogger.String("model_id", m.ID), applogger.String("symbol", m.Symbol))
	return m, nil
}

func (c *LifecycleController) TrainModel(ctx context.Context, id string, hp models.Hyperparameters) (models.Model, error) {
	cur, ok := c.reg.Get(id)
	if !ok {
		return models.Model{}, models.NotFoundError(id)
	}
	if cur.Status != models.StatusPending {
		return models.Model{}, &models.IllegalTransitionError{ModelID: id, Op: "train", From: cur.Status}
	}

	if err := c.gw.TrainModel(ctx, id, hp); err != nil {
		return models.Model{}, fmt.Errorf("train model %s: %w", id, err)
	}

	// A delete that completed while the request was in flight wins. A refresh
	// that already moved the model on wins too; nothing is recorded then.
	applied := false
	updated, err := c.reg.Update(id, func(m models.Model) (models.Model, bool) {
		if m.Status != models.StatusPending {
			return m, false
		}
		m.Status = models.StatusTraining
		applied = true
		return m, true
	})
	if err != nil {
		return models.Model{}, err
	}
	if !applied {
		return updated, nil
	}

	c.transition("train", models.StatusPending, updated.Status)
	c.publish(ctx, models.EventModelTrainRequested, updated)
	return updated, nil
}

func (c *LifecycleController) Predict(ctx context.Context, id string) (models.PredictionResult, error) {
	cur, ok := c.reg.Get(id)
	if !ok {
		return models.PredictionResult{}, models.NotFoundError(id)
	}
	if cur.Status != models.StatusTrained {
		return models.PredictionResult{}, &models.IllegalTransitionError{ModelID: id, Op: "predict", From: cur.Status}
	}

	res, err := c.gw.Predict(ctx, id)
	if err != nil {
		return models.PredictionResult{}, fmt.Errorf("predict %s: %w", id, err)
	}
	if _, ok := c.reg.Get(id); !ok {
		return models.PredictionResult{}, models.NotFoundError(id)
	}
	return res, nil
}

func (c *LifecycleController) FeatureImportance(ctx context.Context, id string) ([]models.FeatureWeight, error) {
	cur, ok := c.reg.Get(id)
	if !ok {
		return nil, models.NotFoundError(id)
	}
	if cur.Status != models.StatusTrained {
		return nil, &models.IllegalTransitionError{ModelID: id, Op: "feature importance", From: cur.Status}
	}

	weights, err := c.gw.FeatureImportance(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("feature importance %s: %w", id, err)
	}
	if _, ok := c.reg.Get(id); !ok {
		return nil, models.NotFoundError(id)
	}
	return weights, nil
}

// DeleteModel removes a model after the caller confirmed the destructive action.
// The registry changes only once the backend reports the model gone, either by
// deleting it or by answering not found; the latter is still returned as an error.
func (c *LifecycleController) DeleteModel(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return models.ErrConfirmationRequired
	}
	cur, ok := c.reg.Get(id)
	if !ok {
		return models.NotFoundError(id)
	}

	if err := c.gw.DeleteModel(ctx, id); err != nil {
		// The backend no longer knows the id; drop the stale entry but still report it.
		if kind, remote := models.RemoteKindOf(err); remote && kind == models.RemoteNotFound {
			c.reg.Remove(id)
			c.warn("model already absent on backend", applogger.String("model_id", id))
		}
		return fmt.Errorf("delete model %s: %w", id, err)
	}

	c.reg.Remove(id)
	c.transition("delete", cur.Status, "")
	c.publish(ctx, models.EventModelDeleted, cur)
	c.info("model deleted", applogger.String("model_id", id))
	return nil
}

// RefreshAll replaces the registry with the backend listing. Deletions that
// complete while the listing is in flight are not undone.
func (c *LifecycleController) RefreshAll(ctx context.Context) ([]models.Model, error) {
	ticket := c.reg.BeginRefresh()
	list, err := c.gw.ListModels(ctx)
	if err != nil {
		c.reg.AbortRefresh(ticket)
		return nil, fmt.Errorf("refresh models: %w", err)
	}
	n, applied := c.reg.Replace(list, ticket)
	if !applied {
		c.debug("stale model listing discarded", applogger.Int("models", len(list)))
		return c.reg.Snapshot(), nil
	}
	if c.metrics != nil {
		c.metrics.RecordRegistrySize(n)
	}

	ev := models.NewEvent(models.EventRegistryRefreshed, "")
	ev.Attributes = map[string]string{"models": fmt.Sprint(n)}
	c.emit(ctx, ev)
	return c.reg.Snapshot(), nil
}

func (c *LifecycleController) validateSpec(ctx context.Context, spec *models.ModelSpec) error {
	fes, err := validate.Struct(ctx, spec)
	if err != nil {
		return fmt.Errorf("validate model spec: %w", err)
	}
	if len(fes) > 0 {
		return validationError(fes)
	}
	if c.catalog != nil {
		if symbols := c.catalog.Symbols(); len(symbols) > 0 && !slices.Contains(symbols, spec.Symbol) {
			return models.NewValidationError("symbol", "catalogue", fmt.Sprintf("symbol %q is not offered by the backend", spec.Symbol))
		}
	}
	return nil
}

func (c *LifecycleController) transition(op string, from, to models.Status) {
	if c.metrics != nil {
		c.metrics.RecordTransition(op, from, to)
	}
}

func (c *LifecycleController) publish(ctx context.Context, t models.EventType, m models.Model) {
	ev := models.NewEvent(t, m.ID)
	ev.Status = m.Status
	ev.Attributes = map[string]string{"symbol": m.Symbol, "model_type": string(m.ModelType)}
	c.emit(ctx, ev)
}

// emit is best effort; a failed publish never fails the operation.
func (c *LifecycleController) emit(ctx context.Context, ev models.Event) {
	if c.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := c.events.Publish(ctx, ev); err != nil {
		c.warn("publish lifecycle event failed", applogger.String("type", string(ev.Type)), applogger.Error(err))
	}
}

func (c *LifecycleController) info(msg string, fields ...applogger.Field) {
	if c.logger != nil {
		c.logger.Info(msg, fields...)
	}
}

func (c *LifecycleController) debug(msg string, fields ...applogger.Field) {
	if c.logger != nil {
		c.logger.Debug(msg, fields...)
	}
}

func (c *LifecycleController) warn(msg string, fields ...applogger.Field) {
	if c.logger != nil {
		c.logger.Warn(msg, fields...)
	}
}

func validationError(fes []validate.FieldError) *models.ValidationError {
	verr := &models.ValidationError{}
	for _, fe := range fes {
		verr.Violations = append(verr.Violations, models.FieldViolation{Field: fe.Field, Tag: fe.Tag, Param: fe.Param, Message: fe.Message})
	}
	return verr
}
