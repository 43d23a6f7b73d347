// Package http serves the form-based UI: month view, payment ledger,
// per-client history with CSV download, and the calendar grid.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"entrenos/internal/auth"
	"entrenos/internal/export"
	"entrenos/internal/report"
	"entrenos/internal/services"
	"entrenos/internal/store"
	appweb "entrenos/web"
)

const sessionCookie = "entrenos_session"

type Server struct {
	http.Server
	templates *template.Template

	engine   *report.Engine
	books    *services.Bookkeeper
	sessions store.SessionStore

	// authClient is nil unless the deployment gates the UI behind the
	// OTP login flow.
	authClient *auth.Client

	// sheets is nil unless the spreadsheet export is configured.
	sheets *export.SheetsExporter

	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// Options carries the optional collaborators a deployment may enable.
type Options struct {
	AuthClient *auth.Client
	Sheets     *export.SheetsExporter
}

// NewServer wires routes and templates into a ready-to-run server.
func NewServer(addr string, engine *report.Engine, books *services.Bookkeeper, sessions store.SessionStore, opts Options) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		engine:      engine,
		books:       books,
		sessions:    sessions,
		authClient:  opts.AuthClient,
		sheets:      opts.Sheets,
		rateLimiter: newRateLimiter(),
	}

	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/", s.protect(s.handleIndex))
	mux.HandleFunc("/sessions", s.protect(s.handleCreateSession))
	mux.HandleFunc("/sessions/delete", s.protect(s.handleDeleteSession))
	mux.HandleFunc("/payments", s.protect(s.handleUpsertPayment))
	mux.HandleFunc("/history", s.protect(s.handleHistory))
	mux.HandleFunc("/history/csv", s.protect(s.handleHistoryCSV))
	mux.HandleFunc("/history/sheets", s.protect(s.handleHistorySheets))
	mux.HandleFunc("/calendar", s.protect(s.handleCalendar))

	if s.authClient != nil {
		mux.HandleFunc("/login", s.middleware(s.handleLoginPage))
		mux.HandleFunc("/login/code", s.middleware(s.handleLoginCode))
		mux.HandleFunc("/login/verify", s.middleware(s.handleLoginVerify))
		mux.HandleFunc("/logout", s.middleware(s.handleLogout))
		mux.HandleFunc("/admin/allowed", s.protect(s.handleAllowedList))
		mux.HandleFunc("/admin/allowed/add", s.protect(s.handleAllowedAdd))
		mux.HandleFunc("/admin/allowed/remove", s.protect(s.handleAllowedRemove))
	}

	return s
}

// Shutdown stops the rate limiter's cleanup goroutine along with the
// listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// protect is middleware plus the login gate; middleware alone handles
// logging, rate limiting, and security headers.
func (s *Server) protect(next http.HandlerFunc) http.HandlerFunc {
	return s.middleware(s.requireLogin(next))
}

func (s *Server) middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}
		requestID := uuid.NewString()
		ctx := r.Context()

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Demasiadas solicitudes. Intenta de nuevo en un minuto.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

// requireLogin rebuilds the auth session from the cookie and attaches it
// to the context. Deployments without an auth client skip the gate.
func (s *Server) requireLogin(next http.HandlerFunc) http.HandlerFunc {
	if s.authClient == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		sess := s.sessionFromCookie(r)
		if !sess.Valid() {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r.WithContext(auth.WithSession(r.Context(), sess)))
	}
}

func (s *Server) sessionFromCookie(r *http.Request) *auth.Session {
	c, err := r.Cookie(sessionCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	sess, err := auth.DecodeCookie(c.Value)
	if err != nil {
		return nil
	}
	return sess
}

func (s *Server) setSessionCookie(w http.ResponseWriter, sess *auth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    auth.EncodeCookie(sess),
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// yearMonthFromQuery reads the selected month, defaulting to the current
// one and clamping nonsense.
func yearMonthFromQuery(r *http.Request) (int, int) {
	now := time.Now()
	year, month := now.Year(), int(now.Month())
	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil && y >= 2020 && y <= 2100 {
			year = y
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m >= 1 && m <= 12 {
			month = m
		}
	}
	return year, month
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "template", name)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution failed", "error", err, "template", name)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// sanitizeInput trims and strips control characters from form values.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
