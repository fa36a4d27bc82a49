package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/bafcc/camp-admin/applications"
	"github.com/bafcc/camp-admin/financials"
	"github.com/bafcc/camp-admin/guard"
	"github.com/bafcc/camp-admin/internal/config"
	"github.com/bafcc/camp-admin/session"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Server is the admin console: the public registration form plus the admin
// screens, all served on behalf of the single session held by manager.
type Server struct {
	env          string
	mux          *http.ServeMux
	routes       []string
	config       config.Config
	session      *session.Manager
	guard        *guard.Guard
	applications *applications.Client
	financials   *financials.Client
	loginLimiter *rate.Limiter
	pages        *pages
	ledgers      map[string]*ledgerScreen
	ledgerOrder  []*ledgerScreen
}

func New(cfg config.Config, manager *session.Manager) (*Server, error) {
	pages, err := parsePages()
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to parse templates: %w", err)
	}

	perMinute := cfg.GetLoginRatePerMinute()
	s := &Server{
		env:          cfg.GetEnv(),
		mux:          http.NewServeMux(),
		config:       cfg,
		session:      manager,
		guard:        guard.New(manager.State(), guard.WithTimeout(cfg.GetGuardTimeout()), guard.WithLoginPath(RouteAdminLogin)),
		applications: applications.NewClient(manager.HTTPClient(), cfg.GetAPIURL()),
		financials:   financials.NewClient(manager.HTTPClient(), cfg.GetAPIURL()),
		loginLimiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60), perMinute),
		pages:        pages,
	}
	s.ledgerOrder = s.newLedgerScreens()
	s.ledgers = make(map[string]*ledgerScreen, len(s.ledgerOrder))
	for _, screen := range s.ledgerOrder {
		s.ledgers[screen.Name] = screen
	}

	s.initRoutes()
	s.logRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	color, ok := methodColors[method]
	if !ok {
		color = Gray
	}
	log.Debug().Msgf("[%s%s%s] %s", color, paddedMethod, ResetColor, path)
}
