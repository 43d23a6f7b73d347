package http

import (
	"fmt"
	"net/http"
	"net/url"

	"entrenos/internal/core"
	"entrenos/internal/export"
)

type historyView struct {
	Clients  []string
	Selected string
	Rows     []core.HistoryRow
	Error    string
	Notice   string
}

// handleHistory renders the sparse month-by-month history of one client.
// Months without sessions do not appear; a ledger row with no sessions
// behind it does not appear either.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()

	clients, err := s.sessions.DistinctClients(ctx)
	if err != nil {
		s.renderStoreError(w, r, err)
		return
	}

	view := historyView{
		Clients:  clients,
		Selected: core.Normalize(r.URL.Query().Get("client")),
		Error:    r.URL.Query().Get("err"),
		Notice:   r.URL.Query().Get("ok"),
	}
	if view.Selected != "" {
		rows, err := s.engine.ClientHistory(ctx, view.Selected)
		if err != nil {
			s.renderStoreError(w, r, err)
			return
		}
		view.Rows = rows
	}
	s.render(w, r, "history.html", view)
}

// handleHistoryCSV streams the selected client's history as a CSV file
// with a UTF-8 byte order mark so spreadsheet apps pick the encoding up.
func (s *Server) handleHistoryCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	client := core.Normalize(r.URL.Query().Get("client"))
	if client == "" {
		http.Redirect(w, r, "/history", http.StatusSeeOther)
		return
	}
	rows, err := s.engine.ClientHistory(r.Context(), client)
	if err != nil {
		s.renderStoreError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", export.HistoryFilename(client)))
	if err := export.WriteHistoryCSV(w, rows); err != nil {
		// Headers are already out; nothing useful left to send.
		return
	}
}

// handleHistorySheets pushes the selected client's history to the
// configured spreadsheet.
func (s *Server) handleHistorySheets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	client := core.Normalize(r.Form.Get("client"))
	back := "/history?client=" + url.QueryEscape(client)
	if s.sheets == nil {
		http.Redirect(w, r, back+"&err="+url.QueryEscape("Exportación a hoja de cálculo no configurada"), http.StatusSeeOther)
		return
	}
	if client == "" {
		http.Redirect(w, r, "/history", http.StatusSeeOther)
		return
	}
	rows, err := s.engine.ClientHistory(r.Context(), client)
	if err != nil {
		s.renderStoreError(w, r, err)
		return
	}
	if err := s.sheets.ExportHistory(r.Context(), client, rows); err != nil {
		http.Redirect(w, r, back+"&err="+url.QueryEscape("No se pudo exportar a la hoja de cálculo"), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, back+"&ok="+url.QueryEscape("Historial exportado"), http.StatusSeeOther)
}
