package core

import (
	"errors"
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "already clean", in: "Ana Lopez", want: "Ana Lopez"},
		{name: "lowercase", in: "ana lopez", want: "Ana Lopez"},
		{name: "double spaces", in: "ana  lopez", want: "Ana Lopez"},
		{name: "surrounding whitespace", in: "  ana lopez\t", want: "Ana Lopez"},
		{name: "mixed case", in: "aNA lOPEZ", want: "Ana Lopez"},
		{name: "accented initial", in: "élodie durand", want: "Élodie Durand"},
		{name: "single word", in: "juan", want: "Juan"},
		{name: "empty", in: "", want: ""},
		{name: "only whitespace", in: " \t\n ", want: ""},
		{name: "tabs and newlines between words", in: "juan\tpérez\ngarcía", want: "Juan Pérez García"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"ana  lopez", "JUAN PÉREZ", "  maría  del mar "}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Fatalf("Normalize not idempotent for %q: %q -> %q", in, once, twice)
		}
	}
}

func TestNormalize_VariantsCollapse(t *testing.T) {
	variants := []string{"ana lopez", "Ana Lopez", "ANA  LOPEZ", " ana\tlopez "}
	want := Normalize(variants[0])
	for _, v := range variants {
		if got := Normalize(v); got != want {
			t.Fatalf("variant %q normalized to %q, want %q", v, got, want)
		}
	}
}

func TestSessionValidate(t *testing.T) {
	ts := time.Date(2025, 3, 10, 15, 0, 0, 0, time.Local)
	tests := []struct {
		name    string
		session Session
		wantErr error
	}{
		{name: "valid", session: Session{Client: "Ana Lopez", Timestamp: ts, AmountCents: 3000000}},
		{name: "zero amount allowed", session: Session{Client: "Ana", Timestamp: ts, AmountCents: 0}},
		{name: "empty client", session: Session{Client: "", Timestamp: ts, AmountCents: 100}, wantErr: ErrEmptyClient},
		{name: "whitespace client", session: Session{Client: "   ", Timestamp: ts, AmountCents: 100}, wantErr: ErrEmptyClient},
		{name: "negative amount", session: Session{Client: "Ana", Timestamp: ts, AmountCents: -1}, wantErr: ErrNegativeAmount},
		{name: "zero time", session: Session{Client: "Ana", AmountCents: 100}, wantErr: ErrInvalidTime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.session.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMonthRange(t *testing.T) {
	tests := []struct {
		name      string
		year      int
		month     int
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name: "march", year: 2025, month: 3,
			wantStart: time.Date(2025, 3, 1, 0, 0, 0, 0, time.Local),
			wantEnd:   time.Date(2025, 4, 1, 0, 0, 0, 0, time.Local),
		},
		{
			name: "december rollover", year: 2024, month: 12,
			wantStart: time.Date(2024, 12, 1, 0, 0, 0, 0, time.Local),
			wantEnd:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local),
		},
		{
			name: "leap february", year: 2024, month: 2,
			wantStart: time.Date(2024, 2, 1, 0, 0, 0, 0, time.Local),
			wantEnd:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := MonthRange(tt.year, tt.month)
			if !start.Equal(tt.wantStart) || !end.Equal(tt.wantEnd) {
				t.Fatalf("MonthRange(%d, %d) = [%v, %v), want [%v, %v)",
					tt.year, tt.month, start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestMonthLabel(t *testing.T) {
	if got := MonthLabel(2025, 3); got != "Marzo 2025" {
		t.Fatalf("MonthLabel(2025, 3) = %q, want %q", got, "Marzo 2025")
	}
	if got := MonthLabel(2024, 12); got != "Diciembre 2024" {
		t.Fatalf("MonthLabel(2024, 12) = %q, want %q", got, "Diciembre 2024")
	}
	if got := MonthLabel(2025, 0); got != "" {
		t.Fatalf("MonthLabel(2025, 0) = %q, want empty", got)
	}
}
