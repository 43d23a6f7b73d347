package core

import (
	"sort"
	"time"
)

// CalendarEntry is one class inside a day cell.
type CalendarEntry struct {
	Client      string
	TimeOfDay   string // "15:04"
	AmountCents int64
}

// MonthGrid is a month's sessions projected onto a Monday-first calendar.
type MonthGrid struct {
	Year  int
	Month int
	// Weeks holds day numbers in Monday..Sunday order; 0 marks cells
	// outside the month. Every rendered week has exactly seven cells.
	Weeks [][7]int
	// Days maps day-of-month to its classes, ordered by time of day.
	// Days without classes are present with an empty slice so the grid
	// renders an explicit empty state.
	Days map[int][]CalendarEntry
}

// DayTotalCents sums a day's amounts for the cell footer.
func (g MonthGrid) DayTotalCents(day int) int64 {
	var total int64
	for _, e := range g.Days[day] {
		total += e.AmountCents
	}
	return total
}

// WeekdayHeaders returns the Monday-first column headers.
func WeekdayHeaders() []string {
	return []string{"Lun", "Mar", "Mié", "Jue", "Vie", "Sáb", "Dom"}
}

// ProjectMonth builds the calendar grid for one month's sessions. The week
// runs Monday through Sunday regardless of locale defaults; leading and
// trailing cells outside the month are zero.
func ProjectMonth(year, month int, sessions []Session) MonthGrid {
	grid := MonthGrid{
		Year:  year,
		Month: month,
		Weeks: monthMatrix(year, month),
		Days:  make(map[int][]CalendarEntry),
	}
	last := daysIn(year, month)
	for d := 1; d <= last; d++ {
		grid.Days[d] = []CalendarEntry{}
	}
	for _, s := range sessions {
		if s.Timestamp.Year() != year || int(s.Timestamp.Month()) != month {
			continue
		}
		d := s.Timestamp.Day()
		grid.Days[d] = append(grid.Days[d], CalendarEntry{
			Client:      Normalize(s.Client),
			TimeOfDay:   s.Timestamp.Format("15:04"),
			AmountCents: s.AmountCents,
		})
	}
	for d := range grid.Days {
		entries := grid.Days[d]
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].TimeOfDay < entries[j].TimeOfDay
		})
	}
	return grid
}

// monthMatrix lays the month's days into Monday-first weeks, zero-filled
// outside the month.
func monthMatrix(year, month int) [][7]int {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
	// time.Weekday has Sunday=0; shift so Monday=0.
	offset := (int(first.Weekday()) + 6) % 7
	last := daysIn(year, month)

	var weeks [][7]int
	var week [7]int
	col := offset
	for d := 1; d <= last; d++ {
		week[col] = d
		col++
		if col == 7 {
			weeks = append(weeks, week)
			week = [7]int{}
			col = 0
		}
	}
	if col > 0 {
		weeks = append(weeks, week)
	}
	return weeks
}

func daysIn(year, month int) int {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, 1, -1).Day()
}
