// internal/app/system/reconcile/sweep.go
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/dispatchhub/internal/app/store/docstore"
	"github.com/dalemusser/dispatchhub/internal/app/store/identity"
	"github.com/dalemusser/dispatchhub/internal/app/store/sagalog"
	"github.com/dalemusser/dispatchhub/internal/app/system/metrics"
	"go.uber.org/zap"
)

// SweepSummary reports a SweepDeletions run.
type SweepSummary struct {
	Checked         int `json:"checked"`
	AccountsDeleted int `json:"accountsDeleted"`
	Abandoned       int `json:"abandoned"`
	// Pending counts entries skipped because their run may still be working.
	Pending int `json:"pending"`
	Errors  int `json:"errors"`
}

// SweepDeletions finishes deletions the journal shows as incomplete.
//
// Entries whose documents are gone get their account deleted; an account
// that is already absent counts as done. Entries with only an intent are
// checked against the document store: a surviving user document means the
// batch never committed and the entry is abandoned.
//
// Entries of a run that has not recorded its end are skipped until they are
// older than the stale window; until then the run itself owns them.
func (s *Service) SweepDeletions(ctx context.Context) (SweepSummary, error) {
	var sum SweepSummary
	if s.journal == nil {
		return sum, ErrNoJournal
	}

	entries, err := s.journal.Unfinished(ctx)
	if err != nil {
		return sum, fmt.Errorf("reconcile: read journal: %w", err)
	}

	now := s.now()
	for _, e := range entries {
		sum.Checked++
		log := s.log.With(zap.String("run_id", e.RunID), zap.String("account_id", e.AccountID))

		if !e.RunFinished && now.Sub(e.StartedAt) < s.staleAfter {
			sum.Pending++
			log.Debug("deletion run still in progress; entry left for the run")
			continue
		}

		if !e.DocumentsDeleted {
			_, err := s.docs.Get(ctx, docstore.CollectionUser, e.AccountID)
			switch {
			case err == nil:
				if err := s.record(ctx, e.RunID, []string{e.AccountID}, sagalog.EventAbandoned, "user document still present"); err != nil {
					sum.Errors++
					log.Warn("journal write failed", zap.Error(err))
					continue
				}
				sum.Abandoned++
				s.metrics.RecordOutcome(metrics.RoutineSweep, "abandoned")
				log.Info("deletion abandoned: batch never committed")
				continue
			case errors.Is(err, docstore.ErrNotFound):
				s.recordBestEffort(ctx, e.RunID, []string{e.AccountID}, sagalog.EventDocumentsDeleted, "observed by sweep")
			default:
				sum.Errors++
				s.metrics.RecordOutcome(metrics.RoutineSweep, outcomeFailed)
				log.Warn("user document lookup failed", zap.Error(err))
				continue
			}
		}

		detail := ""
		if err := s.ids.DeleteAccount(ctx, e.AccountID); err != nil {
			if !errors.Is(err, identity.ErrAccountNotFound) {
				sum.Errors++
				s.metrics.RecordOutcome(metrics.RoutineSweep, outcomeFailed)
				log.Warn("account delete failed", zap.Error(err))
				continue
			}
			detail = "account already absent"
		} else {
			sum.AccountsDeleted++
			s.metrics.RecordOutcome(metrics.RoutineSweep, outcomeDeleted)
		}

		if err := s.record(ctx, e.RunID, []string{e.AccountID}, sagalog.EventAccountDeleted, detail); err != nil {
			sum.Errors++
			log.Warn("journal write failed", zap.Error(err))
		}
	}

	s.log.Info("deletion sweep finished",
		zap.Int("checked", sum.Checked),
		zap.Int("accounts_deleted", sum.AccountsDeleted),
		zap.Int("abandoned", sum.Abandoned),
		zap.Int("pending", sum.Pending),
		zap.Int("errors", sum.Errors))
	return sum, nil
}
