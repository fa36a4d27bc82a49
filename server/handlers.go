package server

import (
	"encoding/json"
	"net/http"

	"github.com/bafcc/camp-admin/users"
	"github.com/rs/zerolog/log"
)

type sessionResponse struct {
	Phase         string         `json:"phase"`
	Authenticated bool           `json:"authenticated"`
	Initializing  bool           `json:"initializing"`
	User          *users.Profile `json:"user,omitempty"`
}

// SessionStateHandler reports the published session state
func (s *Server) SessionStateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := s.session.State().Snapshot()
		writeJSON(w, http.StatusOK, sessionResponse{
			Phase:         state.Phase.String(),
			Authenticated: state.Authenticated(),
			Initializing:  state.Initializing,
			User:          state.User,
		})
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("Failed to encode response")
	}
}
