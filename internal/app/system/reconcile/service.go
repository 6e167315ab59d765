// internal/app/system/reconcile/service.go

// Package reconcile keeps the identity store and the user collection of the
// document store consistent: bulk volunteer deletion, orphaned-account
// cleanup, and the journal sweep that finishes interrupted deletions.
package reconcile

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/dispatchhub/internal/app/store/docstore"
	"github.com/dalemusser/dispatchhub/internal/app/store/identity"
	"github.com/dalemusser/dispatchhub/internal/app/store/sagalog"
	"github.com/dalemusser/dispatchhub/internal/app/system/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Outcome labels reported to the metrics recorder.
const (
	outcomeDeleted = "deleted"
	outcomeFailed  = "failed"
	outcomeOrphan  = "orphan"
	outcomeKept    = "kept"
	outcomeSkipped = "skipped"
)

// DefaultStaleAfter is how old an entry of an unfinished run must be before
// the sweep treats the run as crashed. It exceeds the default routine timeout
// so a run that is still working is never swept.
const DefaultStaleAfter = 3 * time.Hour

// ErrNoJournal is returned by SweepDeletions when no journal is configured.
var ErrNoJournal = errors.New("reconcile: no deletion journal configured")

// Journal records the steps of cross-store deletions. *sagalog.Journal
// satisfies it.
type Journal interface {
	Record(ctx context.Context, runID string, accountIDs []string, ev sagalog.Event, detail string) error
	FinishRun(ctx context.Context, runID string) error
	Unfinished(ctx context.Context) ([]sagalog.Entry, error)
}

// Service runs the reconciliation routines against one pair of stores.
type Service struct {
	docs     docstore.Store
	ids      identity.Store
	journal  Journal
	metrics  metrics.Recorder
	log      *zap.Logger
	pageSize int
	newRunID func() string

	staleAfter time.Duration
	now        func() time.Time
}

// New returns a Service with no journal and a no-op metrics recorder.
func New(docs docstore.Store, ids identity.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		docs:     docs,
		ids:      ids,
		metrics:  metrics.Nop{},
		log:      logger,
		pageSize: identity.DefaultPageSize,
		newRunID: uuid.NewString,

		staleAfter: DefaultStaleAfter,
		now:        time.Now,
	}
}

// WithJournal sets the deletion journal. A nil journal disables journaling.
func (s *Service) WithJournal(j Journal) *Service {
	s.journal = j
	return s
}

// WithMetrics sets the metrics recorder.
func (s *Service) WithMetrics(m metrics.Recorder) *Service {
	if m != nil {
		s.metrics = m
	}
	return s
}

// WithPageSize overrides the identity enumeration page size.
func (s *Service) WithPageSize(n int) *Service {
	if n > 0 {
		s.pageSize = n
	}
	return s
}

// WithStaleAfter sets how long the sweep leaves entries of an unfinished run
// alone before treating the run as crashed.
func (s *Service) WithStaleAfter(d time.Duration) *Service {
	if d > 0 {
		s.staleAfter = d
	}
	return s
}

// record writes a journal event when a journal is configured.
func (s *Service) record(ctx context.Context, runID string, ids []string, ev sagalog.Event, detail string) error {
	if s.journal == nil || len(ids) == 0 {
		return nil
	}
	return s.journal.Record(ctx, runID, ids, ev, detail)
}

// recordBestEffort journals ev and only logs a failure. Used after a store
// already confirmed the step, when failing the run would be worse than a
// stale journal entry the sweep will reconcile.
func (s *Service) recordBestEffort(ctx context.Context, runID string, ids []string, ev sagalog.Event, detail string) {
	if err := s.record(ctx, runID, ids, ev, detail); err != nil {
		s.log.Warn("journal write failed",
			zap.String("run_id", runID),
			zap.String("event", string(ev)),
			zap.Int("accounts", len(ids)),
			zap.Error(err))
	}
}

// finishRun marks runID as ended so the sweep may take over its open entries.
func (s *Service) finishRun(ctx context.Context, runID string) {
	if s.journal == nil {
		return
	}
	if err := s.journal.FinishRun(ctx, runID); err != nil {
		s.log.Warn("journal run marker failed", zap.String("run_id", runID), zap.Error(err))
	}
}
