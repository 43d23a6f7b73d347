package http

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"entrenos/internal/auth"
)

type loginView struct {
	Email    string
	CodeSent bool
	Error    string
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.render(w, r, "login.html", loginView{Error: r.URL.Query().Get("err")})
}

// handleLoginCode asks the auth service to email a one-time code. The
// allow-list is checked first so unknown addresses never get an account
// created for them.
func (s *Server) handleLoginCode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	email := strings.ToLower(sanitizeInput(r.Form.Get("email")))
	if email == "" || !strings.Contains(email, "@") {
		s.render(w, r, "login.html", loginView{Error: "Correo no válido"})
		return
	}
	if err := s.authClient.RequestCode(r.Context(), email); err != nil {
		if errors.Is(err, auth.ErrNotAllowed) {
			s.render(w, r, "login.html", loginView{Email: email, Error: "Este correo no tiene acceso"})
			return
		}
		slog.ErrorContext(r.Context(), "OTP request failed", "error", err)
		s.render(w, r, "login.html", loginView{Email: email, Error: "No se pudo enviar el código. Intenta más tarde."})
		return
	}
	s.render(w, r, "login.html", loginView{Email: email, CodeSent: true})
}

func (s *Server) handleLoginVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	email := strings.ToLower(sanitizeInput(r.Form.Get("email")))
	code := strings.TrimSpace(r.Form.Get("code"))

	sess, err := s.authClient.VerifyCode(r.Context(), email, code)
	if err != nil {
		if errors.Is(err, auth.ErrBadCode) {
			s.render(w, r, "login.html", loginView{Email: email, CodeSent: true, Error: "Código incorrecto o vencido"})
			return
		}
		slog.ErrorContext(r.Context(), "OTP verify failed", "error", err)
		s.render(w, r, "login.html", loginView{Email: email, CodeSent: true, Error: "No se pudo verificar el código. Intenta más tarde."})
		return
	}
	s.setSessionCookie(w, sess)
	slog.InfoContext(r.Context(), "Login", "email", sess.Email)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if sess := s.sessionFromCookie(r); sess.Valid() {
		s.authClient.SignOut(r.Context(), sess)
	}
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

type allowedView struct {
	Emails []auth.AllowedEmail
	Error  string
	Notice string
}

// handleAllowedList shows the allow-list. Only admins get past; an auth
// failure on the admin check itself reads as "not an admin" rather than
// an outage page, since the list is a convenience surface.
func (s *Server) handleAllowedList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	admin, err := s.authClient.IsAdmin(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Admin check failed", "error", err)
	}
	if !admin {
		http.Error(w, "Solo administradores", http.StatusForbidden)
		return
	}
	emails, err := s.authClient.ListAllowed(ctx)
	if err != nil {
		s.render(w, r, "allowed.html", allowedView{Error: "No se pudo cargar la lista"})
		return
	}
	s.render(w, r, "allowed.html", allowedView{
		Emails: emails,
		Error:  r.URL.Query().Get("err"),
		Notice: r.URL.Query().Get("ok"),
	})
}

func (s *Server) handleAllowedAdd(w http.ResponseWriter, r *http.Request) {
	s.mutateAllowed(w, r, func(email string) error {
		return s.authClient.AddAllowed(r.Context(), email)
	}, "Correo agregado")
}

func (s *Server) handleAllowedRemove(w http.ResponseWriter, r *http.Request) {
	s.mutateAllowed(w, r, func(email string) error {
		return s.authClient.RemoveAllowed(r.Context(), email)
	}, "Correo eliminado")
}

func (s *Server) mutateAllowed(w http.ResponseWriter, r *http.Request, op func(string) error, okMsg string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	if admin, _ := s.authClient.IsAdmin(ctx); !admin {
		http.Error(w, "Solo administradores", http.StatusForbidden)
		return
	}
	email := strings.ToLower(sanitizeInput(r.Form.Get("email")))
	if email == "" || !strings.Contains(email, "@") {
		http.Redirect(w, r, "/admin/allowed?err="+url.QueryEscape("Correo no válido"), http.StatusSeeOther)
		return
	}
	if err := op(email); err != nil {
		slog.ErrorContext(ctx, "Allow-list update failed", "error", err, "email", email)
		http.Redirect(w, r, "/admin/allowed?err="+url.QueryEscape("No se pudo actualizar la lista"), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/admin/allowed?ok="+url.QueryEscape(okMsg), http.StatusSeeOther)
}
