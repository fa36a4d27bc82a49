package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/bafcc/camp-admin/applications"
	"github.com/bafcc/camp-admin/financials"
	"github.com/bafcc/camp-admin/guard"
	"github.com/bafcc/camp-admin/internal/errors"
	"github.com/bafcc/camp-admin/internal/restclient"
	"github.com/rs/zerolog/log"
)

// AdminDashboardHandler lists the registrations a page at a time
func (s *Server) AdminDashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := queryInt(r, "page", applications.DefaultPage)
		size := queryInt(r, "size", applications.DefaultPageSize)

		list, err := s.applications.List(r.Context(), page, size)
		if err != nil {
			s.handleBackendError(w, r, err)
			return
		}
		s.render(w, http.StatusOK, s.pages.dashboard, "Applications", list)
	}
}

func (s *Server) AdminApplicationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.pathID(w, r)
		if !ok {
			return
		}
		app, err := s.applications.Get(r.Context(), id)
		if err != nil {
			s.handleBackendError(w, r, err)
			return
		}
		s.render(w, http.StatusOK, s.pages.application, app.Name, app)
	}
}

// AdminApplicationPrintHandler renders the printable registration form with
// the academy logo and the player photo
func (s *Server) AdminApplicationPrintHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.pathID(w, r)
		if !ok {
			return
		}
		app, err := s.applications.WithImages(r.Context(), id)
		if err != nil {
			s.handleBackendError(w, r, err)
			return
		}
		s.render(w, http.StatusOK, s.pages.print, app.Application.RegistrationNumber, app)
	}
}

func (s *Server) AdminApplicationDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.pathID(w, r)
		if !ok {
			return
		}
		if err := s.applications.Delete(r.Context(), id); err != nil {
			s.handleBackendError(w, r, err)
			return
		}
		log.Info().Int("id", id).Msg("Application deleted")
		guard.Redirect(w, r, RouteAdminDashboard)
	}
}

type reportPageData struct {
	Month  string
	Year   int
	Report *financials.Report
}

// AdminFinancialReportHandler shows the monthly summary, defaulting to the
// current month
func (s *Server) AdminFinancialReportHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		month := r.URL.Query().Get("month")
		if month == "" {
			month = now.Month().String()
		}
		year := queryInt(r, "year", now.Year())

		report, err := s.financials.Report(r.Context(), month, year)
		if err != nil {
			s.handleBackendError(w, r, err)
			return
		}
		s.render(w, http.StatusOK, s.pages.report, "Financial report", reportPageData{Month: month, Year: year, Report: report})
	}
}

// handleBackendError maps a failed backend call onto a page. Only an error
// that ended the session sends the browser back to login; the login page
// returns a held session straight to next.
func (s *Server) handleBackendError(w http.ResponseWriter, r *http.Request, err error) {
	var se *restclient.StatusError
	switch {
	case !s.session.IsAuthenticated():
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("Session no longer valid")
		guard.Redirect(w, r, s.guard.LoginRedirect(r.URL.RequestURI()))
	case errors.Is(err, errors.ErrUnauthorized) && errors.As(err, &se) && se.Code == http.StatusForbidden:
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("Backend denied access")
		s.renderError(w, r, http.StatusForbidden, "Your account is not allowed to do this.")
	case errors.Is(err, errors.ErrUnauthorized):
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("Backend refused the renewed session")
		s.renderError(w, r, http.StatusUnauthorized, "The server did not accept this session. Log out and sign in again.")
	case errors.Is(err, errors.ErrNotFound):
		s.renderError(w, r, http.StatusNotFound, "Not found")
	case errors.Is(err, errors.ErrBadRequest) && errors.As(err, &se):
		s.renderError(w, r, http.StatusBadRequest, se.Detail)
	case errors.Is(err, errors.ErrTransport):
		log.Err(err).Str("path", r.URL.Path).Msg("Backend unavailable")
		s.renderError(w, r, http.StatusBadGateway, "The server is unavailable right now. Please try again later.")
	default:
		log.Err(err).Str("path", r.URL.Path).Msg("Backend request failed")
		s.renderError(w, r, http.StatusInternalServerError, "Something went wrong")
	}
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		s.renderError(w, r, http.StatusNotFound, "Not found")
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

type editPageData struct {
	ID                 int
	RegistrationNumber string
	Form               applications.Form
	Error              string
}

func (s *Server) AdminApplicationEditHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.pathID(w, r)
		if !ok {
			return
		}
		app, err := s.applications.Get(r.Context(), id)
		if err != nil {
			s.handleBackendError(w, r, err)
			return
		}
		s.render(w, http.StatusOK, s.pages.edit, "Edit "+app.Name, editPageData{
			ID:                 app.ID,
			RegistrationNumber: app.RegistrationNumber,
			Form:               app.Form,
		})
	}
}

// AdminApplicationUpdateHandler replaces the registration details. The
// stored photo and registration number are kept.
func (s *Server) AdminApplicationUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.pathID(w, r)
		if !ok {
			return
		}
		if err := r.ParseForm(); err != nil {
			s.renderError(w, r, http.StatusBadRequest, "Invalid form submission")
			return
		}

		app, err := s.applications.Get(r.Context(), id)
		if err != nil {
			s.handleBackendError(w, r, err)
			return
		}
		form := registrationForm(r)
		form.ImageURL = app.ImageURL
		rerender := func(msg string) {
			s.render(w, http.StatusBadRequest, s.pages.edit, "Edit "+app.Name, editPageData{
				ID:                 id,
				RegistrationNumber: app.RegistrationNumber,
				Form:               form,
				Error:              msg,
			})
		}
		if form.Name == "" || form.MobileNumber == "" {
			rerender("Name and mobile number are required")
			return
		}

		app.Form = form
		if _, err := s.applications.Update(r.Context(), id, *app); err != nil {
			var se *restclient.StatusError
			if errors.Is(err, errors.ErrBadRequest) && errors.As(err, &se) {
				rerender(se.Detail)
				return
			}
			s.handleBackendError(w, r, err)
			return
		}
		log.Info().Int("id", id).Msg("Application updated")
		guard.Redirect(w, r, "/admin/view/"+strconv.Itoa(id))
	}
}
