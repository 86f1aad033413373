package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"TradeDesk/internal/domain/models"
	pkgch "TradeDesk/pkg/clickhouse"
	applogger "TradeDesk/pkg/logger"
)

const archiveChunkSize = 2000

// CHBarArchive implements BarArchive backed by ClickHouse. Rows are keyed by
// (symbol, timeframe, ts) and deduplicated by ReplacingMergeTree, so archiving
// the same window twice is harmless.
type CHBarArchive struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHBarArchive(ch *pkgch.Client, table string) *CHBarArchive {
	return newCHBarArchive(ch.DB(), table)
}

func newCHBarArchive(db *sql.DB, table string) *CHBarArchive {
	return &CHBarArchive{db: db, table: table}
}

// SetLogger injects a structured logger.
func (s *CHBarArchive) SetLogger(l *applogger.Logger) { s.l = l }

// SchemaStatements returns the idempotent DDL for the archive table.
func (s *CHBarArchive) SchemaStatements() []string {
	return []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	symbol LowCardinality(String),
	timeframe LowCardinality(String),
	ts DateTime64(3, 'UTC'),
	open Float64,
	high Float64,
	low Float64,
	close Float64,
	volume Int64,
	archived_at DateTime DEFAULT now()
) ENGINE = ReplacingMergeTree(archived_at)
ORDER BY (symbol, timeframe, ts)`, s.table)}
}

func (s *CHBarArchive) StoreBars(ctx context.Context, symbol string, tf models.Timeframe, bars []models.HistoricalBar) error {
	if len(bars) == 0 {
		return nil
	}
	start := time.Now()
	for lo := 0; lo < len(bars); lo += archiveChunkSize {
		hi := min(lo+archiveChunkSize, len(bars))

		values := make([]string, 0, hi-lo)
		args := make([]interface{}, 0, (hi-lo)*8)
		for _, b := range bars[lo:hi] {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args, symbol, string(tf), b.Timestamp.UTC(), b.Open, b.High, b.Low, b.Close, b.Volume)
		}
		q := fmt.Sprintf("INSERT INTO %s (symbol, timeframe, ts, open, high, low, close, volume) VALUES %s",
			s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse store_bars error",
					applogger.String("table", s.table),
					applogger.String("symbol", symbol),
					applogger.String("tf", string(tf)),
					applogger.Int("offset", lo),
					applogger.Error(err),
				)
			}
			return fmt.Errorf("store bars: %w", err)
		}
	}
	if s.l != nil {
		s.l.Debug("clickhouse store_bars ok",
			applogger.String("symbol", symbol),
			applogger.String("tf", string(tf)),
			applogger.Int("rows", len(bars)),
			applogger.Duration("duration", time.Since(start)),
		)
	}
	return nil
}

// LatestBars reads back the newest archived bars in ascending time order.
func (s *CHBarArchive) LatestBars(ctx context.Context, symbol string, tf models.Timeframe, limit int) ([]models.HistoricalBar, error) {
	q := fmt.Sprintf(`SELECT ts, open, high, low, close, volume FROM (
	SELECT ts, open, high, low, close, volume FROM %s FINAL
	WHERE symbol = ? AND timeframe = ?
	ORDER BY ts DESC LIMIT ?
) ORDER BY ts ASC`, s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, string(tf), limit)
	if err != nil {
		return nil, fmt.Errorf("latest bars: %w", err)
	}
	defer rows.Close()

	out := make([]models.HistoricalBar, 0, limit)
	for rows.Next() {
		var b models.HistoricalBar
		if err := rows.Scan(&b.Timestamp, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *CHBarArchive) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the pool belongs to pkg/clickhouse.
func (s *CHBarArchive) Close() error {
	return nil
}
