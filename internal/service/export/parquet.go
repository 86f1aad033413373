package export

import (
	"io"

	"TradeDesk/internal/domain/models"

	"github.com/parquet-go/parquet-go"
)

// ParquetBar is the on-disk row layout; timestamps are unix milliseconds.
type ParquetBar struct {
	TimestampMs int64   `parquet:"timestamp_ms"`
	Open        float64 `parquet:"open"`
	High        float64 `parquet:"high"`
	Low         float64 `parquet:"low"`
	Close       float64 `parquet:"close"`
	Volume      int64   `parquet:"volume"`
}

// ParquetWriter writes a single parquet file.
type ParquetWriter struct{}

func (ParquetWriter) Extension() string   { return "parquet" }
func (ParquetWriter) ContentType() string { return "application/vnd.apache.parquet" }

func (ParquetWriter) Write(w io.Writer, bars []models.HistoricalBar) error {
	rows := make([]ParquetBar, 0, len(bars))
	for _, b := range bars {
		rows = append(rows, ParquetBar{
			TimestampMs: b.Timestamp.UnixMilli(),
			Open:        b.Open,
			High:        b.High,
			Low:         b.Low,
			Close:       b.Close,
			Volume:      b.Volume,
		})
	}
	return parquet.Write(w, rows)
}
