// internal/app/system/reconcile/orphans.go
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/dispatchhub/internal/app/store/docstore"
	"github.com/dalemusser/dispatchhub/internal/app/store/identity"
	"github.com/dalemusser/dispatchhub/internal/app/system/metrics"
	"github.com/dalemusser/dispatchhub/internal/domain/models"
	"go.uber.org/zap"
)

// OrphanOptions tunes CleanupOrphans.
type OrphanOptions struct {
	// DryRun reports orphans without deleting them.
	DryRun bool
}

// OrphanedAccount is an account with no user document.
type OrphanedAccount struct {
	AccountID    string     `json:"uid"`
	Email        string     `json:"email,omitempty"`
	CreatedAt    time.Time  `json:"creationTime"`
	LastSignInAt *time.Time `json:"lastSignInTime,omitempty"`
	Deleted      bool       `json:"deleted"`
	Error        string     `json:"error,omitempty"`
}

// OrphanReport summarizes a CleanupOrphans run.
type OrphanReport struct {
	Success          bool              `json:"success"`
	DryRun           bool              `json:"dryRun,omitempty"`
	TotalChecked     int               `json:"totalChecked"`
	OrphanedFound    int               `json:"orphanedFound"`
	CleanedUp        int               `json:"cleanedUp"`
	OrphanedAccounts []OrphanedAccount `json:"orphanedAccounts"`
}

// CleanupOrphans walks every identity account and deletes those whose user
// document does not exist. Per-account failures are logged and skipped; a
// failure to list accounts aborts the run with an error.
func (s *Service) CleanupOrphans(ctx context.Context, opts OrphanOptions) (OrphanReport, error) {
	rep := OrphanReport{DryRun: opts.DryRun, OrphanedAccounts: []OrphanedAccount{}}

	err := identity.ForEach(ctx, s.ids, s.pageSize, func(acc models.Account) error {
		rep.TotalChecked++

		_, err := s.docs.Get(ctx, docstore.CollectionUser, acc.AccountID)
		switch {
		case err == nil:
			s.metrics.RecordOutcome(metrics.RoutineOrphans, outcomeKept)
			return nil
		case !errors.Is(err, docstore.ErrNotFound):
			s.metrics.RecordOutcome(metrics.RoutineOrphans, outcomeSkipped)
			s.log.Warn("user document lookup failed",
				zap.String("account_id", acc.AccountID),
				zap.Error(err))
			return nil
		}

		rep.OrphanedFound++
		orphan := OrphanedAccount{
			AccountID:    acc.AccountID,
			Email:        acc.Email,
			CreatedAt:    acc.CreatedAt,
			LastSignInAt: acc.LastSignInAt,
		}
		s.metrics.RecordOutcome(metrics.RoutineOrphans, outcomeOrphan)

		if !opts.DryRun {
			if err := s.ids.DeleteAccount(ctx, acc.AccountID); err != nil {
				orphan.Error = err.Error()
				s.metrics.RecordOutcome(metrics.RoutineOrphans, outcomeFailed)
				s.log.Warn("orphaned account delete failed",
					zap.String("account_id", acc.AccountID),
					zap.String("email", acc.Email),
					zap.Error(err))
			} else {
				orphan.Deleted = true
				rep.CleanedUp++
				s.metrics.RecordOutcome(metrics.RoutineOrphans, outcomeDeleted)
			}
		}
		rep.OrphanedAccounts = append(rep.OrphanedAccounts, orphan)
		return nil
	})
	if err != nil {
		s.log.Error("account enumeration failed", zap.Int("checked", rep.TotalChecked), zap.Error(err))
		return OrphanReport{}, fmt.Errorf("reconcile: list accounts: %w", err)
	}

	rep.Success = true
	s.log.Info("orphan cleanup finished",
		zap.Bool("dry_run", opts.DryRun),
		zap.Int("total_checked", rep.TotalChecked),
		zap.Int("orphaned_found", rep.OrphanedFound),
		zap.Int("cleaned_up", rep.CleanedUp))
	return rep, nil
}
