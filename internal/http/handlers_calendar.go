package http

import (
	"net/http"

	"entrenos/internal/core"
)

type calendarView struct {
	Year       int
	Month      int
	MonthLabel string
	MonthNames []string
	Years      []int
	Headers    []string
	Grid       core.MonthGrid
}

// handleCalendar renders the Monday-first month grid with each day's
// sessions and total.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	year, month := yearMonthFromQuery(r)

	grid, err := s.engine.Calendar(r.Context(), year, month)
	if err != nil {
		s.renderStoreError(w, r, err)
		return
	}
	s.render(w, r, "calendar.html", calendarView{
		Year:       year,
		Month:      month,
		MonthLabel: core.MonthLabel(year, month),
		MonthNames: core.MonthNames(),
		Years:      yearChoices(),
		Headers:    core.WeekdayHeaders(),
		Grid:       grid,
	})
}
