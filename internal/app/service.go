// Package service wires the decoder, reconciler and credential checks into
// the operations the HTTP API depends on.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/okian/livescore/internal/adapters/repository"
	"github.com/okian/livescore/internal/domain/auth"
	"github.com/okian/livescore/internal/domain/model"
	"github.com/okian/livescore/internal/domain/reconcile"
	"github.com/okian/livescore/internal/domain/report"
	"github.com/okian/livescore/internal/domain/types"
	"github.com/okian/livescore/pkg/logger"
	"github.com/okian/livescore/pkg/metrics"
	"golang.org/x/crypto/bcrypt"
)

// Service implements the API dependencies for score ingestion.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	reconciler *reconcile.Reconciler
	auth       *auth.Authenticator

	// Configuration
	policy     reconcile.Policy
	bcryptCost int
	now        func() time.Time

	// State
	started bool

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		policy:     reconcile.PolicyReject,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the reconciler and authenticator over the configured store.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
		s.logger.Warn(ctx, "no store configured, scores will not survive a restart")
	}

	s.reconciler = reconcile.New(s.store,
		reconcile.WithPolicy(s.policy),
		reconcile.WithLogger(s.logger.Named("reconcile")),
	)
	s.auth = auth.New(s.store, auth.WithBcryptCost(s.bcryptCost))

	s.started = true
	s.logger.Info(ctx, "livescore service started",
		logger.String("ownershipPolicy", policyName(s.policy)),
		logger.Int("bcryptCost", s.bcryptCost),
	)
	return nil
}

// Stop closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error(context.Background(), "closing store failed", logger.Error(err))
	}
	s.started = false
	s.logger.Info(context.Background(), "livescore service stopped")
}

func (s *Service) running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// Authenticate resolves Basic credentials to a submitter.
func (s *Service) Authenticate(ctx context.Context, handle, password string) (auth.Identity, error) {
	if !s.running() {
		return auth.Identity{}, ErrNotStarted
	}
	id, err := s.auth.Authenticate(ctx, handle, password)
	if err != nil {
		metrics.RecordAuthFailure(authFailureReason(err))
		return auth.Identity{}, err
	}
	return id, nil
}

// Submit decodes a raw payload and reconciles it for ownerID. Nothing is
// written when decoding fails.
func (s *Service) Submit(ctx context.Context, ownerID int64, raw []byte) (reconcile.Outcome, error) {
	if !s.running() {
		return 0, ErrNotStarted
	}
	metrics.RecordReportReceived()

	r, err := report.Decode(raw)
	if err != nil {
		metrics.RecordDecodeFailure(decodeFailureKind(err))
		s.logger.Warn(ctx, "rejected score report",
			logger.Int64("submitter", ownerID),
			logger.Error(err),
		)
		return 0, err
	}

	outcome, err := s.reconciler.Reconcile(ctx, ownerID, r)
	if err != nil {
		if errors.Is(err, reconcile.ErrOwnershipConflict) {
			metrics.RecordReconcileOutcome("conflict")
		}
		return 0, err
	}
	metrics.RecordReconcileOutcome(outcome.String())
	s.logger.Debug(ctx, "score report applied",
		logger.String("contest", r.Contest),
		logger.String("callsign", r.Callsign),
		logger.Int("score", r.Score),
		logger.String("outcome", outcome.String()),
	)
	return outcome, nil
}

// Scoreboard returns every row, highest score first.
func (s *Service) Scoreboard(ctx context.Context) ([]types.ScoreboardEntry, error) {
	if !s.running() {
		return nil, ErrNotStarted
	}
	rows, err := s.store.ListRows(ctx)
	if err != nil {
		return nil, err
	}
	metrics.UpdateScoreboardRows(len(rows))

	now := s.now()
	entries := make([]types.ScoreboardEntry, len(rows))
	for i, row := range rows {
		entries[i] = toEntry(row, now)
	}
	return entries, nil
}

// Register creates a submitter account.
func (s *Service) Register(ctx context.Context, handle, password string) (types.Registration, error) {
	if !s.running() {
		return types.Registration{}, ErrNotStarted
	}
	u, err := s.auth.Register(ctx, handle, password)
	if err != nil {
		return types.Registration{}, err
	}
	metrics.RecordRegistration()
	s.logger.Info(ctx, "submitter registered", logger.String("handle", u.Handle))
	return types.Registration{Handle: u.Handle, Status: "registered"}, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":         s.started,
		"ownershipPolicy": policyName(s.policy),
	}
	if !s.started {
		return stats
	}

	ctx := context.Background()
	if rows, err := s.store.CountRows(ctx); err == nil {
		stats["scoreboardRows"] = rows
		metrics.UpdateScoreboardRows(rows)
	}
	if users, err := s.store.CountUsers(ctx); err == nil {
		stats["users"] = users
		metrics.UpdateUsers(users)
	}
	return stats
}

func toEntry(row model.Row, now time.Time) types.ScoreboardEntry {
	return types.ScoreboardEntry{
		Contest:     row.Contest,
		Callsign:    row.Callsign,
		Operators:   row.Operators,
		QSOs:        row.QSOs,
		Points:      row.Points,
		Mults:       row.Mults,
		Score:       row.Score,
		LastUpdated: row.LastUpdated,
		UpdatedAgo:  humanize.RelTime(row.LastUpdated, now, "ago", "from now"),
	}
}

func policyName(p reconcile.Policy) string {
	if p == reconcile.PolicyIgnore {
		return "ignore"
	}
	return "reject"
}

func decodeFailureKind(err error) string {
	if errors.Is(err, report.ErrMissingField) {
		return "missing_field"
	}
	return "malformed"
}

func authFailureReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrUnknownHandle):
		return "unknown_handle"
	case errors.Is(err, auth.ErrWrongPassword):
		return "wrong_password"
	default:
		return "error"
	}
}
