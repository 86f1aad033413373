package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"TradeDesk/internal/domain/models"
)

// CSVWriter writes a header row followed by one row per bar.
type CSVWriter struct{}

func (CSVWriter) Extension() string   { return "csv" }
func (CSVWriter) ContentType() string { return "text/csv" }

func (CSVWriter) Write(w io.Writer, bars []models.HistoricalBar) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "open", "high", "low", "close", "volume"}); err != nil {
		return err
	}
	for _, b := range bars {
		if err := cw.Write([]string{
			b.Timestamp.UTC().Format(time.RFC3339),
			floatStr(b.Open),
			floatStr(b.High),
			floatStr(b.Low),
			floatStr(b.Close),
			strconv.FormatInt(b.Volume, 10),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func floatStr(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
