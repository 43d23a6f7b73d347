package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"entrenos/internal/core"
)

// SheetsExporter mirrors a client's history table into a spreadsheet so
// it can be shared outside the app.
type SheetsExporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// NewSheetsExporterFromEnv builds the exporter from service-account
// credentials. Required: SHEETS_SPREADSHEET_ID plus one of
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewSheetsExporterFromEnv(ctx context.Context, spreadsheetID, sheetName string) (*SheetsExporter, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if sheetName == "" {
		sheetName = "Historial"
	}

	credentialsJSON, err := credentialsFromEnv()
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &SheetsExporter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func credentialsFromEnv() ([]byte, error) {
	if inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")); inline != "" {
		return []byte(inline), nil
	}
	file := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if file == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	credentialsJSON, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return credentialsJSON, nil
}

// ExportHistory replaces the sheet's contents with the client's history
// table: a title row, the header, then one row per month.
func (e *SheetsExporter) ExportHistory(ctx context.Context, client string, rows []core.HistoryRow) error {
	if e.svc == nil {
		return errors.New("sheets service not initialized")
	}

	values := [][]any{
		{"Historial de " + core.Normalize(client)},
		{"Mes", "Clases", "Monto", "Estado mes", "Fecha pago mes"},
	}
	for _, r := range rows {
		values = append(values, []any{
			r.MonthText(),
			r.Classes,
			core.FormatPesos(r.TotalCents),
			r.Status(),
			r.PaidOnText(),
		})
	}

	clearRange := fmt.Sprintf("%s!A:E", e.sheetName)
	if _, err := e.svc.Spreadsheets.Values.Clear(e.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet %s: %w", e.sheetName, err)
	}

	writeRange := fmt.Sprintf("%s!A1", e.sheetName)
	vr := &gsheet.ValueRange{Values: values}
	if _, err := e.svc.Spreadsheets.Values.Update(e.spreadsheetID, writeRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write sheet %s: %w", e.sheetName, err)
	}

	slog.InfoContext(ctx, "History exported to spreadsheet",
		"client", core.Normalize(client),
		"rows", len(rows),
		"sheet", e.sheetName)
	return nil
}
