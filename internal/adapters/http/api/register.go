package api

import (
	"errors"
	"net/http"

	"github.com/okian/livescore/internal/domain/auth"
	"github.com/okian/livescore/pkg/logger"
)

// RegisterHandler creates submitter accounts.
type RegisterHandler struct {
	deps         RegisterDependencies
	maxBodyBytes int64
	logger       logger.Logger
}

// NewRegisterHandler creates a new register handler.
func NewRegisterHandler(deps RegisterDependencies, maxBodyBytes int64, l logger.Logger) *RegisterHandler {
	return &RegisterHandler{deps: deps, maxBodyBytes: maxBodyBytes, logger: l}
}

// HandleRegister handles POST /register with form fields callsign and password.
func (h *RegisterHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	const op = "api.register"
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", NewKind(op, ErrPayloadTooLarge))
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	reg, err := h.deps.Register(r.Context(), r.PostForm.Get("callsign"), r.PostForm.Get("password"))
	switch {
	case errors.Is(err, auth.ErrHandleTaken):
		writeError(w, http.StatusConflict, "conflict", auth.ErrHandleTaken)
	case errors.Is(err, auth.ErrInvalidRegistration):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case err != nil:
		h.logger.Error(r.Context(), "registration failed",
			logger.String("request_id", RequestIDFromContext(r.Context())),
			logger.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	default:
		writeJSON(w, http.StatusCreated, reg)
	}
}
