package core

import (
	"sort"
	"time"
)

// Payment status labels as they surface in every view.
const (
	StatusPaid    = "Pagado"
	StatusPending = "Pendiente"
)

// PaidOnPlaceholder is shown where no payment date exists. An explicit
// dash, never an empty cell.
const PaidOnPlaceholder = "—"

type (
	// RollupRow is the per-client aggregate for one month window.
	RollupRow struct {
		Client     string
		Classes    int
		TotalCents int64
		Paid       bool
	}

	// HistoryRow is one month-with-activity in a client's history,
	// already merged with its ledger state.
	HistoryRow struct {
		Year       int
		Month      int
		Classes    int
		TotalCents int64
		Paid       bool
		PaidOn     *time.Time
	}
)

func (r RollupRow) Status() string {
	return statusLabel(r.Paid)
}

func (h HistoryRow) Status() string {
	return statusLabel(h.Paid)
}

// MonthText is the human label for the row, e.g. "Marzo 2025". Rows sort
// by (Year, Month), never by this label.
func (h HistoryRow) MonthText() string {
	return MonthLabel(h.Year, h.Month)
}

// PaidOnText renders the payment date, or the placeholder when unpaid or
// undated.
func (h HistoryRow) PaidOnText() string {
	if !h.Paid || h.PaidOn == nil {
		return PaidOnPlaceholder
	}
	return h.PaidOn.Format("2006-01-02")
}

func statusLabel(paid bool) string {
	if paid {
		return StatusPaid
	}
	return StatusPending
}

// GroupByClient folds a window's sessions into one RollupRow per
// normalized client, sorted ascending by client name. Ledger state is not
// attached here; callers merge it afterwards via point lookups.
func GroupByClient(sessions []Session) []RollupRow {
	byClient := make(map[string]*RollupRow)
	for _, s := range sessions {
		key := Normalize(s.Client)
		if key == "" {
			continue
		}
		row, ok := byClient[key]
		if !ok {
			row = &RollupRow{Client: key}
			byClient[key] = row
		}
		row.Classes++
		row.TotalCents += s.AmountCents
	}
	rows := make([]RollupRow, 0, len(byClient))
	for _, row := range byClient {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Client < rows[j].Client })
	return rows
}

// GroupByMonth folds one client's sessions into one HistoryRow per
// (year, month) with activity, sorted ascending by the numeric key.
// Months without sessions never appear: the history is activity-driven,
// not a calendar walk.
func GroupByMonth(sessions []Session) []HistoryRow {
	type ym struct{ y, m int }
	byMonth := make(map[ym]*HistoryRow)
	for _, s := range sessions {
		k := ym{s.Timestamp.Year(), int(s.Timestamp.Month())}
		row, ok := byMonth[k]
		if !ok {
			row = &HistoryRow{Year: k.y, Month: k.m}
			byMonth[k] = row
		}
		row.Classes++
		row.TotalCents += s.AmountCents
	}
	rows := make([]HistoryRow, 0, len(byMonth))
	for _, row := range byMonth {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Year != rows[j].Year {
			return rows[i].Year < rows[j].Year
		}
		return rows[i].Month < rows[j].Month
	})
	return rows
}

// FilterByClient keeps only the sessions whose normalized client matches
// the normalized form of the given name.
func FilterByClient(sessions []Session, client string) []Session {
	key := Normalize(client)
	var out []Session
	for _, s := range sessions {
		if Normalize(s.Client) == key {
			out = append(out, s)
		}
	}
	return out
}
