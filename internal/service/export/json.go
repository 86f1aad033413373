package export

import (
	"encoding/json"
	"io"

	"TradeDesk/internal/domain/models"
)

// JSONWriter writes an indented JSON array.
type JSONWriter struct{}

func (JSONWriter) Extension() string   { return "json" }
func (JSONWriter) ContentType() string { return "application/json" }

func (JSONWriter) Write(w io.Writer, bars []models.HistoricalBar) error {
	if bars == nil {
		bars = []models.HistoricalBar{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(bars)
}
