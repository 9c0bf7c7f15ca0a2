package api

import (
	"net/http"

	"github.com/okian/livescore/pkg/logger"
)

// ScoreboardHandler serves the live scoreboard.
type ScoreboardHandler struct {
	deps   ScoreboardDependencies
	logger logger.Logger
}

// NewScoreboardHandler creates a new scoreboard handler.
func NewScoreboardHandler(deps ScoreboardDependencies, l logger.Logger) *ScoreboardHandler {
	return &ScoreboardHandler{deps: deps, logger: l}
}

// HandleGetScoreboard handles GET /scoreboard requests.
func (h *ScoreboardHandler) HandleGetScoreboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_scoreboard"
	entries, err := h.deps.Scoreboard(r.Context())
	if err != nil {
		h.logger.Error(r.Context(), "scoreboard read failed",
			logger.String("request_id", RequestIDFromContext(r.Context())),
			logger.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
