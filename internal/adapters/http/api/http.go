// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/livescore/internal/domain/auth"
	"github.com/okian/livescore/internal/domain/reconcile"
	"github.com/okian/livescore/internal/domain/types"
	"github.com/okian/livescore/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Authenticator
	SubmitDependencies
	ScoreboardDependencies
	RegisterDependencies
}

// Authenticator resolves Basic credentials to a submitter.
type Authenticator interface {
	Authenticate(ctx context.Context, handle, password string) (auth.Identity, error)
}

// SubmitDependencies ingests raw score reports.
type SubmitDependencies interface {
	Submit(ctx context.Context, ownerID int64, raw []byte) (reconcile.Outcome, error)
}

// ScoreboardDependencies reads the live scoreboard.
type ScoreboardDependencies interface {
	Scoreboard(ctx context.Context) ([]types.ScoreboardEntry, error)
}

// RegisterDependencies creates submitter accounts.
type RegisterDependencies interface {
	Register(ctx context.Context, handle, password string) (types.Registration, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	ackMessage   string
	maxBodyBytes int64
	logger       logger.Logger

	auth              Authenticator
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	submitHandler     *SubmitHandler
	scoreboardHandler *ScoreboardHandler
	registerHandler   *RegisterHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		ackMessage:   defaultAckMessage,
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.auth = deps
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.submitHandler = NewSubmitHandler(deps, s.ackMessage, s.maxBodyBytes, s.logger)
	s.scoreboardHandler = NewScoreboardHandler(deps, s.logger)
	s.registerHandler = NewRegisterHandler(deps, s.maxBodyBytes, s.logger)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	submit := RequestIDMiddleware(MetricsMiddleware(
		allow(http.MethodPost, RequireAuth(s.auth, s.submitHandler.HandleSubmit)), "submit"))

	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(allow(http.MethodGet, s.statsHandler.HandleStats), "stats"))
	mux.HandleFunc("/scoreboard", RequestIDMiddleware(MetricsMiddleware(
		allow(http.MethodGet, s.scoreboardHandler.HandleGetScoreboard), "scoreboard")))
	mux.HandleFunc("/register", RequestIDMiddleware(MetricsMiddleware(
		allow(http.MethodPost, s.registerHandler.HandleRegister), "register")))
	mux.HandleFunc("/submit", submit)
	// "/" is also the catch-all pattern; only the exact root ingests.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		submit(w, r)
	})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeText answers in plain text, the format logging clients display.
func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}

// allow rejects requests whose method is not method.
func allow(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
			return
		}
		next(w, r)
	}
}
