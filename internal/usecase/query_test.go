package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"sync"
	"testing"
	"time"

	"TradeDesk/internal/domain/models"
	"TradeDesk/internal/service/export"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func genBars(n int) []models.HistoricalBar {
	t0 := time.Date(2024, 1, 1, 9, 15, 0, 0, time.UTC)
	out := make([]models.HistoricalBar, n)
	for i := range out {
		p := 100 + float64(i)
		out[i] = models.HistoricalBar{Timestamp: t0.Add(time.Duration(i) * 5 * time.Minute), Open: p, High: p + 1, Low: p - 1, Close: p + 0.5, Volume: 1000}
	}
	return out
}

func openEngine(t *testing.T, gw *fakeGateway, cache *memSymbolCache, archive *recordingArchive, cfg QueryConfig) *QueryEngine {
	t.Helper()
	gw.symbols = []string{"TCS", "INFY"}
	var q *QueryEngine
	switch {
	case cache != nil && archive != nil:
		q = NewQueryEngine(gw, cache, archive, cfg, nil)
	case cache != nil:
		q = NewQueryEngine(gw, cache, nil, cfg, nil)
	case archive != nil:
		q = NewQueryEngine(gw, nil, archive, cfg, nil)
	default:
		q = NewQueryEngine(gw, nil, nil, cfg, nil)
	}
	_, err := q.OpenSession(context.Background())
	require.NoError(t, err)
	return q
}

func TestQueryDisplayCapsAtFifty(t *testing.T) {
	gw := newFakeGateway()
	gw.bars = genBars(120)
	q := openEngine(t, gw, nil, nil, QueryConfig{})

	res, err := q.Query(context.Background(), models.QueryParameters{Symbol: "TCS", Timeframe: models.TF5Minute, Days: 30})
	require.NoError(t, err)
	assert.Equal(t, 120, res.Total)
	assert.Len(t, res.Bars, 120)
	assert.True(t, res.Truncated())

	display := res.Display()
	require.Len(t, display, 50)
	assert.Equal(t, gw.bars[:50], display)
	assert.False(t, res.Degraded)
}

func TestQueryDaysBounds(t *testing.T) {
	gw := newFakeGateway()
	gw.bars = genBars(3)
	q := openEngine(t, gw, nil, nil, QueryConfig{})

	for _, days := range []int{0, 366, -1} {
		_, err := q.Query(context.Background(), models.QueryParameters{Symbol: "TCS", Timeframe: models.TFDay, Days: days})
		assert.ErrorIs(t, err, models.ErrValidation, "days=%d", days)
	}
	assert.Zero(t, gw.count("historical"))

	for _, days := range []int{1, 365} {
		_, err := q.Query(context.Background(), models.QueryParameters{Symbol: "TCS", Timeframe: models.TFDay, Days: days})
		assert.NoError(t, err, "days=%d", days)
	}
	assert.Equal(t, 2, gw.count("historical"))
}

func TestParseDays(t *testing.T) {
	for _, s := range []string{"abc", "1.5", "", "30d"} {
		_, err := ParseDays(s)
		assert.ErrorIs(t, err, models.ErrValidation, s)
	}
	d, err := ParseDays(" 30 ")
	require.NoError(t, err)
	assert.Equal(t, 30, d)
}

func TestQueryRejectsBeforeNetwork(t *testing.T) {
	gw := newFakeGateway()
	q := openEngine(t, gw, nil, nil, QueryConfig{})

	cases := []models.QueryParameters{
		{Symbol: "", Timeframe: models.TFDay, Days: 5},
		{Symbol: "GME", Timeframe: models.TFDay, Days: 5},
		{Symbol: "TCS", Timeframe: "1hour", Days: 5},
	}
	for _, p := range cases {
		_, err := q.Query(context.Background(), p)
		assert.ErrorIs(t, err, models.ErrValidation)
	}
	assert.Zero(t, gw.count("historical"))
}

func TestQueryDegradesOnFailure(t *testing.T) {
	for name, cause := range map[string]error{
		"unreachable": remote(models.RemoteUnreachable),
		"malformed": &models.RemoteError{
			Kind: models.RemoteServerError,
			Op:   "historical",
			Err:  models.ErrMalformedResponse,
		},
	} {
		t.Run(name, func(t *testing.T) {
			gw := newFakeGateway()
			gw.barsErr = cause
			q := openEngine(t, gw, nil, nil, QueryConfig{})

			res, err := q.Query(context.Background(), models.QueryParameters{Symbol: "INFY", Timeframe: models.TF1Minute, Days: 2})
			require.NoError(t, err)
			assert.True(t, res.Degraded)
			assert.Empty(t, res.Display())
			assert.Zero(t, res.Total)
			assert.True(t, errors.Is(res.Cause, cause))
		})
	}
}

func TestQueryGenuineEmptyIsNotDegraded(t *testing.T) {
	gw := newFakeGateway()
	gw.bars = []models.HistoricalBar{}
	q := openEngine(t, gw, nil, nil, QueryConfig{})

	res, err := q.Query(context.Background(), models.QueryParameters{Symbol: "TCS", Timeframe: models.TFDay, Days: 1})
	require.NoError(t, err)
	assert.False(t, res.Degraded)
	assert.Zero(t, res.Total)
}

func TestQueryCountsAnomalies(t *testing.T) {
	gw := newFakeGateway()
	bars := genBars(4)
	bars[2].High = bars[2].Low - 1
	gw.bars = bars
	q := openEngine(t, gw, nil, nil, QueryConfig{})

	res, err := q.Query(context.Background(), models.QueryParameters{Symbol: "TCS", Timeframe: models.TFDay, Days: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Anomalies)
	assert.Equal(t, 4, res.Total)
}

func TestOpenSessionFailureClearsCatalogue(t *testing.T) {
	gw := newFakeGateway()
	q := openEngine(t, gw, nil, nil, QueryConfig{})
	require.NotEmpty(t, q.Symbols())

	gw.symbolsErr = remote(models.RemoteUnreachable)
	_, err := q.OpenSession(context.Background())
	require.Error(t, err)
	assert.Empty(t, q.Symbols())
}

func TestOpenSessionUsesCache(t *testing.T) {
	gw := newFakeGateway()
	cache := &memSymbolCache{}
	openEngine(t, gw, cache, nil, QueryConfig{})
	assert.Equal(t, 1, gw.count("symbols"))

	q := NewQueryEngine(gw, cache, nil, QueryConfig{}, nil)
	symbols, err := q.OpenSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"TCS", "INFY"}, symbols)
	assert.Equal(t, 1, gw.count("symbols"))
}

func TestQueryArchivesFullResult(t *testing.T) {
	gw := newFakeGateway()
	gw.bars = genBars(80)
	archive := &recordingArchive{}
	q := openEngine(t, gw, nil, archive, QueryConfig{Archive: true})

	_, err := q.Query(context.Background(), models.QueryParameters{Symbol: "TCS", Timeframe: models.TF5Minute, Days: 3})
	require.NoError(t, err)
	q.Close()

	assert.Equal(t, 80, archive.stored())
}

func TestExportWritesUntruncated(t *testing.T) {
	gw := newFakeGateway()
	gw.bars = genBars(75)
	q := openEngine(t, gw, nil, nil, QueryConfig{})

	var buf bytes.Buffer
	err := q.Export(context.Background(), models.QueryParameters{Symbol: "TCS", Timeframe: models.TFDay, Days: 90}, export.FormatCSV, &buf)
	require.NoError(t, err)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 76)
}

func TestExportDegradedFails(t *testing.T) {
	gw := newFakeGateway()
	gw.barsErr = remote(models.RemoteServerError)
	q := openEngine(t, gw, nil, nil, QueryConfig{})

	var buf bytes.Buffer
	err := q.Export(context.Background(), models.QueryParameters{Symbol: "TCS", Timeframe: models.TFDay, Days: 9}, export.FormatJSON, &buf)
	require.Error(t, err)
	assert.Zero(t, buf.Len())
}

type memSymbolCache struct {
	mu      sync.Mutex
	symbols []string
}

func (c *memSymbolCache) GetSymbols(ctx context.Context) ([]string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.symbols, len(c.symbols) > 0, nil
}

func (c *memSymbolCache) SetSymbols(ctx context.Context, symbols []string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.symbols = symbols
	return nil
}

type recordingArchive struct {
	mu   sync.Mutex
	bars int
}

func (a *recordingArchive) StoreBars(ctx context.Context, symbol string, tf models.Timeframe, bars []models.HistoricalBar) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.bars += len(bars)
	return nil
}

func (a *recordingArchive) stored() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bars
}

func (a *recordingArchive) Health(ctx context.Context) error { return nil }
func (a *recordingArchive) Close() error                     { return nil }
