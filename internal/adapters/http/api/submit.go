package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/okian/livescore/internal/domain/auth"
	"github.com/okian/livescore/internal/domain/reconcile"
	"github.com/okian/livescore/internal/domain/report"
	"github.com/okian/livescore/pkg/logger"
)

// SubmitHandler ingests score reports from logging clients.
type SubmitHandler struct {
	deps         SubmitDependencies
	ack          string
	maxBodyBytes int64
	logger       logger.Logger
}

// NewSubmitHandler creates a new submit handler.
func NewSubmitHandler(deps SubmitDependencies, ack string, maxBodyBytes int64, l logger.Logger) *SubmitHandler {
	return &SubmitHandler{deps: deps, ack: ack, maxBodyBytes: maxBodyBytes, logger: l}
}

// HandleSubmit handles POST / and POST /submit. The body is the
// percent-encoded XML report; the caller must already be authenticated.
func (h *SubmitHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit"
	ctx := r.Context()
	id, ok := auth.FromContext(ctx)
	if !ok {
		writeText(w, http.StatusUnauthorized, msgNoAuthentication)
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeText(w, http.StatusRequestEntityTooLarge, NewKind(op, ErrPayloadTooLarge).Error())
			return
		}
		writeText(w, http.StatusBadRequest, WrapKind(op, ErrBadRequest, err).Error())
		return
	}

	outcome, err := h.deps.Submit(ctx, id.UserID, raw)
	if err != nil {
		status := submitStatus(err)
		if status == http.StatusInternalServerError {
			h.logger.Error(ctx, "score report failed",
				logger.String("request_id", RequestIDFromContext(ctx)),
				logger.String("handle", id.Handle),
				logger.Error(err),
			)
			writeText(w, status, http.StatusText(status))
			return
		}
		writeText(w, status, Wrap(op, err).Error())
		return
	}

	h.logger.Info(ctx, "score report accepted",
		logger.String("request_id", RequestIDFromContext(ctx)),
		logger.String("handle", id.Handle),
		logger.String("outcome", outcome.String()),
	)
	writeText(w, http.StatusOK, h.ack)
}

func submitStatus(err error) int {
	switch {
	case errors.Is(err, report.ErrMalformedPayload), errors.Is(err, report.ErrMissingField):
		return http.StatusBadRequest
	case errors.Is(err, reconcile.ErrOwnershipConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
