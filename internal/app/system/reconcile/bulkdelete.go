// internal/app/system/reconcile/bulkdelete.go
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/dispatchhub/internal/app/store/docstore"
	"github.com/dalemusser/dispatchhub/internal/app/store/identity"
	"github.com/dalemusser/dispatchhub/internal/app/store/sagalog"
	"github.com/dalemusser/dispatchhub/internal/app/system/metrics"
	"github.com/dalemusser/dispatchhub/internal/domain/models"
	"go.uber.org/zap"
)

// AccountOutcome is the per-account result of a bulk deletion.
type AccountOutcome struct {
	AccountID      string `json:"accountId"`
	Email          string `json:"email,omitempty"`
	AccountDeleted bool   `json:"accountDeleted"`
	Error          string `json:"error,omitempty"`
}

// BulkDeleteSummary reports a DeleteVolunteers run.
type BulkDeleteSummary struct {
	RunID               string           `json:"runId"`
	TotalFound          int              `json:"totalFound"`
	DocumentsDeleted    int              `json:"documentsDeleted"`
	AccountsDeleted     int              `json:"accountsDeleted"`
	AccountDeleteErrors int              `json:"accountDeleteErrors"`
	Outcomes            []AccountOutcome `json:"outcomes,omitempty"`
}

// DeleteVolunteers removes every volunteer user document in one atomic batch,
// then deletes the matching identity accounts one by one.
//
// A failed query, journal intent write, or batch delete returns an error and
// leaves the identity store untouched. Account deletion failures are logged
// and counted; they never abort the run.
func (s *Service) DeleteVolunteers(ctx context.Context) (BulkDeleteSummary, error) {
	sum := BulkDeleteSummary{RunID: s.newRunID()}
	log := s.log.With(zap.String("run_id", sum.RunID))

	snaps, err := s.docs.QueryWhere(ctx, docstore.CollectionUser, "userType", docstore.OpEqual, int64(models.UserTypeVolunteer))
	if err != nil {
		return sum, fmt.Errorf("reconcile: query volunteers: %w", err)
	}
	sum.TotalFound = len(snaps)
	if len(snaps) == 0 {
		log.Info("no volunteer users to delete")
		return sum, nil
	}

	ids := make([]string, len(snaps))
	for i, snap := range snaps {
		ids[i] = snap.ID
	}

	if err := s.record(ctx, sum.RunID, ids, sagalog.EventIntent, ""); err != nil {
		return sum, fmt.Errorf("reconcile: journal intent: %w", err)
	}
	defer s.finishRun(ctx, sum.RunID)

	if err := s.docs.BatchDelete(ctx, docstore.CollectionUser, ids); err != nil {
		log.Error("volunteer batch delete failed", zap.Int("documents", len(ids)), zap.Error(err))
		return sum, fmt.Errorf("reconcile: delete volunteer documents: %w", err)
	}
	sum.DocumentsDeleted = len(ids)
	log.Info("volunteer documents deleted", zap.Int("documents", len(ids)))
	s.recordBestEffort(ctx, sum.RunID, ids, sagalog.EventDocumentsDeleted, "")

	for _, snap := range snaps {
		out := AccountOutcome{AccountID: snap.ID, Email: snap.Data.String("email")}
		if err := s.ids.DeleteAccount(ctx, snap.ID); err != nil {
			sum.AccountDeleteErrors++
			out.Error = err.Error()
			if errors.Is(err, identity.ErrAccountNotFound) {
				s.recordBestEffort(ctx, sum.RunID, []string{snap.ID}, sagalog.EventAccountDeleted, "account already absent")
			}
			s.metrics.RecordOutcome(metrics.RoutineBulkDelete, outcomeFailed)
			log.Warn("account delete failed",
				zap.String("account_id", snap.ID),
				zap.String("email", out.Email),
				zap.Error(err))
			sum.Outcomes = append(sum.Outcomes, out)
			continue
		}
		out.AccountDeleted = true
		sum.AccountsDeleted++
		s.metrics.RecordOutcome(metrics.RoutineBulkDelete, outcomeDeleted)
		s.recordBestEffort(ctx, sum.RunID, []string{snap.ID}, sagalog.EventAccountDeleted, "")
		sum.Outcomes = append(sum.Outcomes, out)
	}

	log.Info("volunteer deletion finished",
		zap.Int("total_found", sum.TotalFound),
		zap.Int("documents_deleted", sum.DocumentsDeleted),
		zap.Int("accounts_deleted", sum.AccountsDeleted),
		zap.Int("account_delete_errors", sum.AccountDeleteErrors))
	return sum, nil
}
