// Package export renders a client's history outside the app: CSV
// downloads and an optional Google Sheets mirror.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"entrenos/internal/core"
)

// utf8BOM makes spreadsheet tools detect the encoding; the history holds
// accented names and month labels.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var historyHeader = []string{"Mes", "Clases", "Monto", "Estado mes", "Fecha pago mes"}

// WriteHistoryCSV writes the history table as UTF-8-with-BOM CSV, one row
// per month, money formatted exactly like every other surface.
func WriteHistoryCSV(w io.Writer, rows []core.HistoryRow) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(historyHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			r.MonthText(),
			fmt.Sprintf("%d", r.Classes),
			core.FormatPesos(r.TotalCents),
			r.Status(),
			r.PaidOnText(),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %s: %w", r.MonthText(), err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// HistoryFilename names the download after the client, spaces underscored.
func HistoryFilename(client string) string {
	name := strings.ReplaceAll(core.Normalize(client), " ", "_")
	if name == "" {
		return "historial.csv"
	}
	return "historial_" + name + ".csv"
}
