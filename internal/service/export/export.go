// Package export writes historical bars in the download formats offered by the dashboard.
package export

import (
	"fmt"
	"io"
	"strings"

	"TradeDesk/internal/domain/models"
)

// Format is a supported download format.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatParquet Format = "parquet"
)

// BarWriter serializes a full bar set.
type BarWriter interface {
	Write(w io.Writer, bars []models.HistoricalBar) error
	Extension() string
	ContentType() string
}

// ParseFormat normalizes a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatParquet:
		return f, nil
	case "":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (use: csv, json, parquet)", s)
	}
}

// NewBarWriter returns the writer for f, or nil if f is unsupported.
func NewBarWriter(f Format) BarWriter {
	switch f {
	case FormatCSV:
		return CSVWriter{}
	case FormatJSON:
		return JSONWriter{}
	case FormatParquet:
		return ParquetWriter{}
	default:
		return nil
	}
}

// FileName builds the download name, e.g. TCS_5minute_30d.csv.
func FileName(symbol string, tf models.Timeframe, days int, bw BarWriter) string {
	return fmt.Sprintf("%s_%s_%dd.%s", symbol, tf, days, bw.Extension())
}
