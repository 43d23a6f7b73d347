package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"entrenos/internal/core"
)

func TestWriteHistoryCSV(t *testing.T) {
	paidOn := time.Date(2025, 1, 5, 0, 0, 0, 0, time.Local)
	rows := []core.HistoryRow{
		{Year: 2024, Month: 12, Classes: 4, TotalCents: 10000000, Paid: true, PaidOn: &paidOn},
		{Year: 2025, Month: 3, Classes: 2, TotalCents: 6000000},
	}

	var buf bytes.Buffer
	if err := WriteHistoryCSV(&buf, rows); err != nil {
		t.Fatalf("WriteHistoryCSV: %v", err)
	}
	out := buf.Bytes()

	if !bytes.HasPrefix(out, []byte{0xEF, 0xBB, 0xBF}) {
		t.Fatalf("output missing UTF-8 BOM")
	}

	lines := strings.Split(strings.TrimSpace(string(out[3:])), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if lines[0] != "Mes,Clases,Monto,Estado mes,Fecha pago mes" {
		t.Fatalf("header = %q", lines[0])
	}
	if lines[1] != "Diciembre 2024,4,$100.000,Pagado,2025-01-05" {
		t.Fatalf("paid row = %q", lines[1])
	}
	if lines[2] != "Marzo 2025,2,$60.000,Pendiente,—" {
		t.Fatalf("pending row = %q", lines[2])
	}
}

func TestWriteHistoryCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHistoryCSV(&buf, nil); err != nil {
		t.Fatalf("WriteHistoryCSV: %v", err)
	}
	// BOM plus header only.
	got := strings.TrimSpace(string(buf.Bytes()[3:]))
	if got != "Mes,Clases,Monto,Estado mes,Fecha pago mes" {
		t.Fatalf("empty export = %q", got)
	}
}

func TestHistoryFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "juan pérez", want: "historial_Juan_Pérez.csv"},
		{in: "Ana", want: "historial_Ana.csv"},
		{in: "  maría  del mar ", want: "historial_María_Del_Mar.csv"},
		{in: "", want: "historial.csv"},
	}
	for _, tt := range tests {
		if got := HistoryFilename(tt.in); got != tt.want {
			t.Fatalf("HistoryFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
