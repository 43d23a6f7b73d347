package http

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"entrenos/internal/auth"
	"entrenos/internal/core"
	"entrenos/internal/report"
	"entrenos/internal/store"
)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"pesos":     core.FormatPesos,
		"monthName": func(m int) string { return core.MonthNames()[m-1] },
		"addOne":    func(i int) int { return i + 1 },
	}
}

type indexView struct {
	Year       int
	Month      int
	MonthLabel string
	MonthNames []string
	Years      []int
	Clients    []string
	Sessions   []core.Session
	Report     report.MonthReport
	LoggedIn   bool
	Email      string
	Error      string
	Notice     string
}

// handleIndex renders the month view: register form, session list with
// delete buttons, the per-client rollup, and the payment form.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	year, month := yearMonthFromQuery(r)

	clients, err := s.sessions.DistinctClients(ctx)
	if err != nil {
		s.renderStoreError(w, r, err)
		return
	}
	monthSessions, err := s.engine.MonthSessions(ctx, year, month)
	if err != nil {
		s.renderStoreError(w, r, err)
		return
	}
	rep, err := s.engine.MonthRollup(ctx, year, month)
	if err != nil {
		s.renderStoreError(w, r, err)
		return
	}

	view := indexView{
		Year:       year,
		Month:      month,
		MonthLabel: core.MonthLabel(year, month),
		MonthNames: core.MonthNames(),
		Years:      yearChoices(),
		Clients:    clients,
		Sessions:   monthSessions,
		Report:     rep,
		Error:      r.URL.Query().Get("err"),
		Notice:     r.URL.Query().Get("ok"),
	}
	if sess := auth.FromContext(ctx); sess.Valid() {
		view.LoggedIn = true
		view.Email = sess.Email
	}
	s.render(w, r, "index.html", view)
}

// handleCreateSession records a training session from the register form.
// The client comes either from the dropdown or the free-text field for a
// new name.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "url", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	client := sanitizeInput(r.Form.Get("client_new"))
	if client == "" {
		client = sanitizeInput(r.Form.Get("client"))
	}

	dateStr := strings.TrimSpace(r.Form.Get("date"))
	timeStr := strings.TrimSpace(r.Form.Get("time"))
	if timeStr == "" {
		timeStr = "00:00"
	}
	ts, err := time.ParseInLocation("2006-01-02 15:04", dateStr+" "+timeStr, time.Local)
	if err != nil {
		s.redirectBack(w, r, "err", "Fecha u hora no válida")
		return
	}

	cents, err := core.ParseDecimalToCents(r.Form.Get("amount"))
	if err != nil {
		s.redirectBack(w, r, "err", "Monto no válido")
		return
	}

	if _, err := s.books.RecordSession(r.Context(), client, ts, cents); err != nil {
		switch {
		case errors.Is(err, core.ErrEmptyClient):
			s.redirectBack(w, r, "err", "Falta el nombre del cliente")
		case errors.Is(err, core.ErrNegativeAmount):
			s.redirectBack(w, r, "err", "Monto no válido")
		default:
			s.renderStoreError(w, r, err)
		}
		return
	}
	s.redirectBack(w, r, "ok", "Sesión registrada")
}

// handleDeleteSession removes a single session by id. Deleting an id that
// is already gone is treated as success.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	id, err := strconv.ParseInt(strings.TrimSpace(r.Form.Get("id")), 10, 64)
	if err != nil {
		s.redirectBack(w, r, "err", "Sesión no válida")
		return
	}
	if err := s.books.DeleteSession(r.Context(), id); err != nil {
		s.renderStoreError(w, r, err)
		return
	}
	s.redirectBack(w, r, "ok", "Sesión eliminada")
}

// handleUpsertPayment sets the paid flag for a client's month. Marking a
// month unpaid always clears the payment date.
func (s *Server) handleUpsertPayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	client := sanitizeInput(r.Form.Get("client"))
	year, err1 := strconv.Atoi(strings.TrimSpace(r.Form.Get("year")))
	month, err2 := strconv.Atoi(strings.TrimSpace(r.Form.Get("month")))
	if client == "" || err1 != nil || err2 != nil || month < 1 || month > 12 {
		s.redirectBack(w, r, "err", "Datos de pago no válidos")
		return
	}

	paid := r.Form.Get("paid") == "on" || r.Form.Get("paid") == "true"
	var paidOn *time.Time
	if paid {
		d := time.Now()
		if v := strings.TrimSpace(r.Form.Get("paid_on")); v != "" {
			parsed, err := time.ParseInLocation("2006-01-02", v, time.Local)
			if err != nil {
				s.redirectBack(w, r, "err", "Fecha de pago no válida")
				return
			}
			d = parsed
		}
		paidOn = &d
	}

	if err := s.books.SetPayment(r.Context(), client, year, month, paid, paidOn); err != nil {
		s.renderStoreError(w, r, err)
		return
	}
	s.redirectBack(w, r, "ok", "Pago actualizado")
}

// redirectBack sends the browser back to the month view it came from,
// carrying a one-shot message in the query string.
func (s *Server) redirectBack(w http.ResponseWriter, r *http.Request, key, msg string) {
	year, month := time.Now().Year(), int(time.Now().Month())
	if v, err := strconv.Atoi(r.Form.Get("view_year")); err == nil {
		year = v
	}
	if v, err := strconv.Atoi(r.Form.Get("view_month")); err == nil {
		month = v
	}
	target := fmt.Sprintf("/?year=%d&month=%d&%s=%s", year, month, key, url.QueryEscape(msg))
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// renderStoreError distinguishes a missing login from an unreachable
// backend.
func (s *Server) renderStoreError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, store.ErrNoSession):
		slog.WarnContext(ctx, "Request without session", "url", r.URL.Path)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	case errors.Is(err, store.ErrBackendUnavailable):
		slog.ErrorContext(ctx, "Backend unavailable", "error", err, "url", r.URL.Path)
		http.Error(w, "El servicio de datos no está disponible. Intenta más tarde.", http.StatusBadGateway)
	default:
		slog.ErrorContext(ctx, "Request failed", "error", err, "url", r.URL.Path)
		http.Error(w, "Error interno", http.StatusInternalServerError)
	}
}

func yearChoices() []int {
	current := time.Now().Year()
	years := make([]int, 0, 6)
	for y := current - 4; y <= current+1; y++ {
		years = append(years, y)
	}
	return years
}
