package server

import (
	"net/http"
	"strings"

	"github.com/bafcc/camp-admin/guard"
	"github.com/bafcc/camp-admin/internal/errors"
	"github.com/rs/zerolog/log"
)

// loginPageData contains data for rendering the login page
type loginPageData struct {
	Error    string
	Username string // Preserve username on error
	Next     string // Local path to return to after login
}

func (s *Server) renderLogin(w http.ResponseWriter, r *http.Request, status int, data loginPageData) {
	data.Next = guard.SafeNext(data.Next)
	s.render(w, status, s.pages.login, "Log in", data)
}

// LoginPageHandler displays the login page (GET /admin/login)
func (s *Server) LoginPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next := r.URL.Query().Get(guard.NextParam)
		if s.session.IsAuthenticated() {
			s.redirectSuccess(w, r, next)
			return
		}
		s.renderLogin(w, r, http.StatusOK, loginPageData{Next: next})
	}
}

// LoginSubmissionHandler forwards the credentials to the backend (POST /admin/login)
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			s.renderLogin(w, r, http.StatusBadRequest, loginPageData{Error: "Invalid form submission"})
			return
		}
		username := strings.TrimSpace(r.PostFormValue("username"))
		password := r.PostFormValue("password")
		next := r.PostFormValue("next")

		if username == "" || password == "" {
			s.renderLogin(w, r, http.StatusBadRequest, loginPageData{
				Error:    "Username and password are required",
				Username: username,
				Next:     next,
			})
			return
		}

		ok, err := s.session.Login(r.Context(), username, password)
		if err != nil {
			log.Err(err).Str("username", username).Msg("Login failed")
			msg := "Login failed. Please try again."
			if errors.Is(err, errors.ErrTransport) {
				msg = "The server is unavailable right now. Please try again later."
			}
			s.renderLogin(w, r, http.StatusBadGateway, loginPageData{Error: msg, Username: username, Next: next})
			return
		}
		if !ok {
			s.renderLogin(w, r, http.StatusUnauthorized, loginPageData{
				Error:    "Invalid username or password",
				Username: username,
				Next:     next,
			})
			return
		}

		s.redirectSuccess(w, r, next)
	}
}

// LogoutHandler ends the session and returns to the login page
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.session.Logout(r.Context())
		guard.Redirect(w, r, RouteAdminLogin)
	}
}

// redirectSuccess sends the browser to next when it is local, otherwise to
// the dashboard.
func (s *Server) redirectSuccess(w http.ResponseWriter, r *http.Request, next string) {
	target := guard.SafeNext(next)
	if target == "" || strings.HasPrefix(target, RouteAdminLogin) {
		target = RouteAdminDashboard
	}
	guard.Redirect(w, r, target)
}
