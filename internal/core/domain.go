package core

import (
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// TimestampLayout is the sortable textual form sessions are persisted with.
const TimestampLayout = "2006-01-02 15:04:05"

type (
	// Session is one billable class occurrence: who, when, how much.
	Session struct {
		ID          int64
		Client      string // normalized, see Normalize
		Timestamp   time.Time
		AmountCents int64
	}

	// Payment is the paid/unpaid state of one (client, year, month).
	// The zero value is the state of an absent ledger row.
	Payment struct {
		Paid   bool
		PaidOn *time.Time // meaningful only when Paid
	}
)

var (
	ErrEmptyClient    = errors.New("empty client name")
	ErrNegativeAmount = errors.New("negative amount")
	ErrInvalidTime    = errors.New("invalid timestamp")
)

// Normalize canonicalizes a raw client name into the grouping key used
// everywhere: whitespace runs collapse to single spaces, ends are trimmed,
// and each token is title-cased (first rune upper, rest lower). Idempotent.
func Normalize(raw string) string {
	fields := strings.Fields(raw)
	for i, f := range fields {
		fields[i] = titleWord(f)
	}
	return strings.Join(fields, " ")
}

func titleWord(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	if r == utf8.RuneError && size <= 1 {
		return w
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
}

// Validate checks a session before it reaches a store. The client must
// survive normalization; the amount may be zero but never negative.
func (s Session) Validate() error {
	if Normalize(s.Client) == "" {
		return ErrEmptyClient
	}
	if s.AmountCents < 0 {
		return ErrNegativeAmount
	}
	if s.Timestamp.IsZero() {
		return ErrInvalidTime
	}
	return nil
}

// MonthRange returns the half-open window [first of month, first of next
// month). The half-open convention keeps month boundaries exact across
// 28-31 day months and the December rollover.
func MonthRange(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
	return start, start.AddDate(0, 1, 0)
}

// Spanish month names, index 0 = Enero.
var monthNamesES = [12]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// MonthLabel renders labels like "Marzo 2025" for tables and headings.
func MonthLabel(year, month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNamesES[month-1] + " " + strconv.Itoa(year)
}

// MonthNames returns the twelve Spanish month names in calendar order.
func MonthNames() []string {
	out := make([]string, 12)
	copy(out, monthNamesES[:])
	return out
}
