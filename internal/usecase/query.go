package usecase

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"TradeDesk/internal/domain/models"
	"TradeDesk/internal/domain/repository"
	"TradeDesk/internal/service/export"
	applogger "TradeDesk/pkg/logger"
	"TradeDesk/pkg/validate"
)

const (
	DefaultDisplayLimit = 50
	defaultCatalogTTL   = 10 * time.Minute
	archiveTimeout      = 30 * time.Second
)

type QueryConfig struct {
	DisplayLimit int
	CatalogTTL   time.Duration
	Archive      bool
}

// QueryResult is the outcome of one historical query. Degraded distinguishes
// "the backend could not answer" from a genuinely empty window.
type QueryResult struct {
	Symbol    string                 `json:"symbol"`
	Timeframe models.Timeframe       `json:"timeframe"`
	Days      int                    `json:"days"`
	Bars      []models.HistoricalBar `json:"-"`
	Total     int                    `json:"total"`
	Anomalies int                    `json:"anomalies"`
	Degraded  bool                   `json:"degraded"`
	Cause     error                  `json:"-"`

	limit int
}

// Display returns at most the first display-limit bars in delivered order.
func (r *QueryResult) Display() []models.HistoricalBar {
	n := len(r.Bars)
	if r.limit > 0 && n > r.limit {
		n = r.limit
	}
	out := make([]models.HistoricalBar, n)
	copy(out, r.Bars[:n])
	return out
}

// Truncated reports whether Display hides part of the result.
func (r *QueryResult) Truncated() bool {
	return r.limit > 0 && len(r.Bars) > r.limit
}

// QueryEngine runs bounded historical-data queries against the backend.
type QueryEngine struct {
	gw      repository.Gateway
	cache   repository.SymbolCache
	archive repository.BarArchive
	cfg     QueryConfig
	logger  *applogger.Logger

	mu      sync.RWMutex
	symbols []string

	inflight sync.WaitGroup
}

func NewQueryEngine(gw repository.Gateway, cache repository.SymbolCache, archive repository.BarArchive, cfg QueryConfig, logger *applogger.Logger) *QueryEngine {
	if cfg.DisplayLimit <= 0 {
		cfg.DisplayLimit = DefaultDisplayLimit
	}
	if cfg.CatalogTTL <= 0 {
		cfg.CatalogTTL = defaultCatalogTTL
	}
	return &QueryEngine{gw: gw, cache: cache, archive: archive, cfg: cfg, logger: logger}
}

// OpenSession loads the symbol catalogue used to validate queries until the next session.
func (q *QueryEngine) OpenSession(ctx context.Context) ([]string, error) {
	if q.cache != nil {
		symbols, ok, err := q.cache.GetSymbols(ctx)
		if err != nil {
			q.warn("symbol cache read failed", applogger.Error(err))
		}
		if ok && len(symbols) > 0 {
			q.setSymbols(symbols)
			return slices.Clone(symbols), nil
		}
	}

	symbols, err := q.gw.Symbols(ctx)
	if err != nil {
		q.setSymbols(nil)
		return nil, fmt.Errorf("load symbols: %w", err)
	}
	q.setSymbols(symbols)

	if q.cache != nil && len(symbols) > 0 {
		if err := q.cache.SetSymbols(ctx, symbols, q.cfg.CatalogTTL); err != nil {
			q.warn("symbol cache write failed", applogger.Error(err))
		}
	}
	return slices.Clone(symbols), nil
}

func (q *QueryEngine) Symbols() []string {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return slices.Clone(q.symbols)
}

func (q *QueryEngine) setSymbols(symbols []string) {
	q.mu.Lock()
	q.symbols = slices.Clone(symbols)
	q.mu.Unlock()
}

// ParseDays converts a raw days input; anything but a base-10 integer is rejected.
func ParseDays(s string) (int, error) {
	days, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, models.NewValidationError("days", "integer", fmt.Sprintf("days must be an integer, got %q", s))
	}
	return days, nil
}

// Validate checks p against the enumerations, the days range and the session catalogue.
func (q *QueryEngine) Validate(ctx context.Context, p *models.QueryParameters) error {
	fes, err := validate.Struct(ctx, p)
	if err != nil {
		return fmt.Errorf("validate query: %w", err)
	}
	verr := validationError(fes)
	if p.Symbol != "" && !slices.Contains(q.Symbols(), p.Symbol) {
		verr.Violations = append(verr.Violations, models.FieldViolation{
			Field:   "symbol",
			Tag:     "catalogue",
			Message: fmt.Sprintf("symbol %q is not in the loaded catalogue", p.Symbol),
		})
	}
	if len(verr.Violations) > 0 {
		return verr
	}
	return nil
}

// Query validates p, then issues exactly one gateway call. Backend failures
// degrade to an empty result instead of an error.
func (q *QueryEngine) Query(ctx context.Context, p models.QueryParameters) (*QueryResult, error) {
	if err := q.Validate(ctx, &p); err != nil {
		return nil, err
	}

	res := &QueryResult{
		Symbol:    p.Symbol,
		Timeframe: p.Timeframe,
		Days:      p.Days,
		Bars:      []models.HistoricalBar{},
		limit:     q.cfg.DisplayLimit,
	}

	bars, err := q.gw.Historical(ctx, p.Symbol, p.Timeframe, p.Days)
	if err != nil {
		q.warn("historical query degraded",
			applogger.String("symbol", p.Symbol),
			applogger.String("timeframe", string(p.Timeframe)),
			applogger.Int("days", p.Days),
			applogger.Error(err),
		)
		res.Degraded = true
		res.Cause = err
		return res, nil
	}

	res.Bars = bars
	res.Total = len(bars)
	for _, b := range bars {
		if !b.Consistent() {
			res.Anomalies++
		}
	}

	if q.cfg.Archive && q.archive != nil && len(bars) > 0 {
		q.archiveAsync(ctx, p, slices.Clone(bars))
	}
	return res, nil
}

// Export writes the full, untruncated result of p in the requested format.
func (q *QueryEngine) Export(ctx context.Context, p models.QueryParameters, format export.Format, w io.Writer) error {
	bw := export.NewBarWriter(format)
	if bw == nil {
		return models.NewValidationError("format", "oneof", fmt.Sprintf("unsupported export format %q", format))
	}
	res, err := q.Query(ctx, p)
	if err != nil {
		return err
	}
	if res.Degraded {
		return fmt.Errorf("export %s: %w", p.Symbol, res.Cause)
	}
	if err := bw.Write(w, res.Bars); err != nil {
		return fmt.Errorf("export %s: %w", p.Symbol, err)
	}
	return nil
}

// Close waits for pending archive writes.
func (q *QueryEngine) Close() {
	q.inflight.Wait()
}

func (q *QueryEngine) archiveAsync(ctx context.Context, p models.QueryParameters, bars []models.HistoricalBar) {
	q.inflight.Add(1)
	go func() {
		defer q.inflight.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
		defer cancel()
		if err := q.archive.StoreBars(ctx, p.Symbol, p.Timeframe, bars); err != nil {
			q.warn("archive bars failed", applogger.String("symbol", p.Symbol), applogger.Error(err))
		}
	}()
}

func (q *QueryEngine) warn(msg string, fields ...applogger.Field) {
	if q.logger != nil {
		q.logger.Warn(msg, fields...)
	}
}
