package reconcile

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dalemusser/dispatchhub/internal/app/store/docstore"
	memdocs "github.com/dalemusser/dispatchhub/internal/app/store/docstore/memory"
	"github.com/dalemusser/dispatchhub/internal/app/store/identity"
	memidentity "github.com/dalemusser/dispatchhub/internal/app/store/identity/memory"
	"github.com/dalemusser/dispatchhub/internal/app/store/sagalog"
	"github.com/dalemusser/dispatchhub/internal/domain/models"
	"github.com/dalemusser/dispatchhub/internal/testutil"
	"go.uber.org/zap"
)

type fixture struct {
	docs    *memdocs.Store
	ids     *memidentity.Store
	flakyD  *testutil.FlakyDocs
	flakyI  *testutil.FlakyIdentity
	journal *sagalog.Journal
	svc     *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{docs: memdocs.New(), ids: memidentity.New()}
	f.flakyD = testutil.NewFlakyDocs(f.docs)
	f.flakyI = testutil.NewFlakyIdentity(f.ids)

	j, err := sagalog.Open(":memory:")
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	f.journal = j

	f.svc = New(f.flakyD, f.flakyI, zap.NewNop()).WithJournal(j)
	return f
}

// addUser creates both the account and the user document.
func (f *fixture) addUser(t *testing.T, id string, ut models.UserType) {
	t.Helper()
	f.ids.Add(models.Account{AccountID: id, Email: id + "@example.com"})
	f.addDoc(t, id, ut)
}

func (f *fixture) addDoc(t *testing.T, id string, ut models.UserType) {
	t.Helper()
	doc := docstore.Document{"id": id, "email": id + "@example.com", "userType": int64(ut)}
	if err := f.docs.UpsertMerge(context.Background(), docstore.CollectionUser, id, doc); err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
}

func TestDeleteVolunteers_NoneFound(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "admin-1", models.UserTypeAdmin)

	sum, err := f.svc.DeleteVolunteers(context.Background())
	if err != nil {
		t.Fatalf("DeleteVolunteers failed: %v", err)
	}
	if sum.TotalFound != 0 || sum.DocumentsDeleted != 0 || sum.AccountsDeleted != 0 {
		t.Errorf("expected zero summary, got %+v", sum)
	}
	if len(f.flakyD.BatchDeletes) != 0 {
		t.Errorf("expected no batch delete, got %v", f.flakyD.BatchDeletes)
	}
	if len(f.flakyI.Deletes()) != 0 {
		t.Errorf("expected no identity calls, got %v", f.flakyI.Deletes())
	}
}

func TestDeleteVolunteers_PartialAccountFailure(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"v1", "v2", "v3"} {
		f.addUser(t, id, models.UserTypeVolunteer)
	}
	f.addUser(t, "d1", models.UserTypeDispatcher)
	f.flakyI.DeleteErrs["v2"] = errors.New("identity backend unavailable")

	sum, err := f.svc.DeleteVolunteers(context.Background())
	if err != nil {
		t.Fatalf("DeleteVolunteers failed: %v", err)
	}

	if sum.TotalFound != 3 {
		t.Errorf("TotalFound = %d, want 3", sum.TotalFound)
	}
	if sum.DocumentsDeleted != 3 {
		t.Errorf("DocumentsDeleted = %d, want 3", sum.DocumentsDeleted)
	}
	if sum.AccountsDeleted != 2 {
		t.Errorf("AccountsDeleted = %d, want 2", sum.AccountsDeleted)
	}
	if sum.AccountDeleteErrors != 1 {
		t.Errorf("AccountDeleteErrors = %d, want 1", sum.AccountDeleteErrors)
	}
	if sum.RunID == "" {
		t.Error("expected a run id")
	}

	// Volunteer documents are gone, the dispatcher remains.
	if n := f.docs.Len(docstore.CollectionUser); n != 1 {
		t.Errorf("user documents left = %d, want 1", n)
	}
	if !f.ids.Has("v2") {
		t.Error("v2 account should still exist after its delete failed")
	}
	if f.ids.Has("v1") || f.ids.Has("v3") {
		t.Error("v1 and v3 accounts should be deleted")
	}

	// The failed account is left for the sweep.
	pending, err := f.journal.Unfinished(context.Background())
	if err != nil {
		t.Fatalf("Unfinished failed: %v", err)
	}
	if len(pending) != 1 || pending[0].AccountID != "v2" || !pending[0].DocumentsDeleted {
		t.Errorf("unexpected unfinished entries: %+v", pending)
	}
}

func TestDeleteVolunteers_BatchFailureTouchesNothing(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"v1", "v2"} {
		f.addUser(t, id, models.UserTypeVolunteer)
	}
	f.flakyD.BatchDeleteErr = errors.New("commit rejected")

	_, err := f.svc.DeleteVolunteers(context.Background())
	if err == nil {
		t.Fatal("expected error from failed batch delete")
	}
	if !errors.Is(err, f.flakyD.BatchDeleteErr) {
		t.Errorf("expected wrapped batch error, got %v", err)
	}
	if n := f.docs.Len(docstore.CollectionUser); n != 2 {
		t.Errorf("user documents left = %d, want 2", n)
	}
	if calls := f.flakyI.Deletes(); len(calls) != 0 {
		t.Errorf("expected zero identity calls, got %v", calls)
	}
}

func TestDeleteVolunteers_QueryFailure(t *testing.T) {
	f := newFixture(t)
	f.flakyD.QueryErr = errors.New("query timeout")

	if _, err := f.svc.DeleteVolunteers(context.Background()); err == nil {
		t.Fatal("expected error from failed query")
	}
}

func TestDeleteVolunteers_AlreadyAbsentAccount(t *testing.T) {
	f := newFixture(t)
	f.addDoc(t, "v1", models.UserTypeVolunteer) // no account

	sum, err := f.svc.DeleteVolunteers(context.Background())
	if err != nil {
		t.Fatalf("DeleteVolunteers failed: %v", err)
	}
	if sum.AccountDeleteErrors != 1 || sum.AccountsDeleted != 0 {
		t.Errorf("unexpected summary: %+v", sum)
	}

	pending, err := f.journal.Unfinished(context.Background())
	if err != nil {
		t.Fatalf("Unfinished failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("absent account should close its journal entry, got %+v", pending)
	}
}

func TestCleanupOrphans_DetectsOrphan(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "A", models.UserTypeVolunteer)
	f.ids.Add(models.Account{AccountID: "B", Email: "b@example.com"})
	f.addUser(t, "C", models.UserTypeDispatcher)

	rep, err := f.svc.CleanupOrphans(context.Background(), OrphanOptions{})
	if err != nil {
		t.Fatalf("CleanupOrphans failed: %v", err)
	}
	if !rep.Success {
		t.Error("expected Success")
	}
	if rep.TotalChecked != 3 {
		t.Errorf("TotalChecked = %d, want 3", rep.TotalChecked)
	}
	if rep.OrphanedFound != 1 || rep.CleanedUp != 1 {
		t.Errorf("OrphanedFound/CleanedUp = %d/%d, want 1/1", rep.OrphanedFound, rep.CleanedUp)
	}
	if len(rep.OrphanedAccounts) != 1 || rep.OrphanedAccounts[0].AccountID != "B" {
		t.Fatalf("OrphanedAccounts = %+v, want [B]", rep.OrphanedAccounts)
	}
	if rep.OrphanedAccounts[0].Email != "b@example.com" || !rep.OrphanedAccounts[0].Deleted {
		t.Errorf("unexpected orphan entry: %+v", rep.OrphanedAccounts[0])
	}
	if f.ids.Has("B") {
		t.Error("orphan B should be deleted")
	}
	if !f.ids.Has("A") || !f.ids.Has("C") {
		t.Error("A and C must survive")
	}
}

func TestCleanupOrphans_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "A", models.UserTypeVolunteer)
	f.ids.Add(models.Account{AccountID: "B"})

	if _, err := f.svc.CleanupOrphans(context.Background(), OrphanOptions{}); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	rep, err := f.svc.CleanupOrphans(context.Background(), OrphanOptions{})
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if rep.OrphanedFound != 0 || rep.CleanedUp != 0 {
		t.Errorf("second run found %d/%d, want 0/0", rep.OrphanedFound, rep.CleanedUp)
	}
	if rep.TotalChecked != 1 {
		t.Errorf("TotalChecked = %d, want 1", rep.TotalChecked)
	}
}

func TestCleanupOrphans_DryRun(t *testing.T) {
	f := newFixture(t)
	f.ids.Add(models.Account{AccountID: "B"})

	rep, err := f.svc.CleanupOrphans(context.Background(), OrphanOptions{DryRun: true})
	if err != nil {
		t.Fatalf("CleanupOrphans failed: %v", err)
	}
	if rep.OrphanedFound != 1 || rep.CleanedUp != 0 {
		t.Errorf("OrphanedFound/CleanedUp = %d/%d, want 1/0", rep.OrphanedFound, rep.CleanedUp)
	}
	if !f.ids.Has("B") {
		t.Error("dry run must not delete")
	}
	if calls := f.flakyI.Deletes(); len(calls) != 0 {
		t.Errorf("dry run made identity deletes: %v", calls)
	}
}

func TestCleanupOrphans_PerRecordFailures(t *testing.T) {
	f := newFixture(t)
	f.ids.Add(models.Account{AccountID: "B"})
	f.ids.Add(models.Account{AccountID: "D"})
	f.ids.Add(models.Account{AccountID: "E"})
	f.flakyD.GetErrs["D"] = errors.New("read timeout")
	f.flakyI.DeleteErrs["E"] = errors.New("quota exceeded")

	rep, err := f.svc.CleanupOrphans(context.Background(), OrphanOptions{})
	if err != nil {
		t.Fatalf("CleanupOrphans failed: %v", err)
	}
	if rep.TotalChecked != 3 {
		t.Errorf("TotalChecked = %d, want 3", rep.TotalChecked)
	}
	// D is skipped on lookup failure; B and E are orphans, only B deleted.
	if rep.OrphanedFound != 2 || rep.CleanedUp != 1 {
		t.Errorf("OrphanedFound/CleanedUp = %d/%d, want 2/1", rep.OrphanedFound, rep.CleanedUp)
	}
	if !f.ids.Has("D") || !f.ids.Has("E") {
		t.Error("D and E accounts should remain")
	}
}

func TestCleanupOrphans_ListFailure(t *testing.T) {
	f := newFixture(t)
	f.flakyI.ListErr = errors.New("permission denied")

	rep, err := f.svc.CleanupOrphans(context.Background(), OrphanOptions{})
	if err == nil {
		t.Fatal("expected error from failed enumeration")
	}
	if rep.Success {
		t.Error("Success must be false on failure")
	}
}

func TestCleanupOrphans_Paging(t *testing.T) {
	f := newFixture(t)
	f.svc.WithPageSize(3)
	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("acc-%02d", i)
		if i%2 == 0 {
			f.addUser(t, id, models.UserTypeVolunteer)
		} else {
			f.ids.Add(models.Account{AccountID: id})
		}
	}

	rep, err := f.svc.CleanupOrphans(context.Background(), OrphanOptions{})
	if err != nil {
		t.Fatalf("CleanupOrphans failed: %v", err)
	}
	if rep.TotalChecked != 10 || rep.OrphanedFound != 5 || rep.CleanedUp != 5 {
		t.Errorf("unexpected report: checked=%d found=%d cleaned=%d", rep.TotalChecked, rep.OrphanedFound, rep.CleanedUp)
	}
	if f.ids.Len() != 5 {
		t.Errorf("accounts left = %d, want 5", f.ids.Len())
	}
}

func TestSweepDeletions_NoJournal(t *testing.T) {
	svc := New(memdocs.New(), memidentity.New(), nil)
	if _, err := svc.SweepDeletions(context.Background()); !errors.Is(err, ErrNoJournal) {
		t.Fatalf("expected ErrNoJournal, got %v", err)
	}
}

func TestSweepDeletions_FinishesFailedAccountDelete(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "v1", models.UserTypeVolunteer)
	f.addUser(t, "v2", models.UserTypeVolunteer)
	f.flakyI.DeleteErrs["v2"] = errors.New("transient")

	if _, err := f.svc.DeleteVolunteers(context.Background()); err != nil {
		t.Fatalf("DeleteVolunteers failed: %v", err)
	}
	delete(f.flakyI.DeleteErrs, "v2")

	sum, err := f.svc.SweepDeletions(context.Background())
	if err != nil {
		t.Fatalf("SweepDeletions failed: %v", err)
	}
	if sum.Checked != 1 || sum.AccountsDeleted != 1 || sum.Errors != 0 {
		t.Errorf("unexpected summary: %+v", sum)
	}
	if f.ids.Has("v2") {
		t.Error("sweep should delete v2")
	}

	again, err := f.svc.SweepDeletions(context.Background())
	if err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	if again.Checked != 0 {
		t.Errorf("second sweep checked %d entries, want 0", again.Checked)
	}
}

func TestSweepDeletions_IntentOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// "kept" still has its document: the batch never committed.
	f.addUser(t, "kept", models.UserTypeVolunteer)
	// "gone" lost its document but the run crashed before journaling it.
	f.ids.Add(models.Account{AccountID: "gone"})

	if err := f.journal.Record(ctx, "run-1", []string{"kept", "gone"}, sagalog.EventIntent, ""); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := f.journal.FinishRun(ctx, "run-1"); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	sum, err := f.svc.SweepDeletions(ctx)
	if err != nil {
		t.Fatalf("SweepDeletions failed: %v", err)
	}
	if sum.Checked != 2 || sum.Abandoned != 1 || sum.AccountsDeleted != 1 {
		t.Errorf("unexpected summary: %+v", sum)
	}
	if !f.ids.Has("kept") {
		t.Error("abandoned entry must not delete the account")
	}
	if f.ids.Has("gone") {
		t.Error("account whose document is gone should be deleted")
	}

	pending, err := f.journal.Unfinished(ctx)
	if err != nil {
		t.Fatalf("Unfinished failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("expected empty journal backlog, got %+v", pending)
	}
}

func TestSweepDeletions_AccountAlreadyAbsent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.journal.Record(ctx, "run-1", []string{"x"}, sagalog.EventIntent, ""); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := f.journal.Record(ctx, "run-1", []string{"x"}, sagalog.EventDocumentsDeleted, ""); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := f.journal.FinishRun(ctx, "run-1"); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	sum, err := f.svc.SweepDeletions(ctx)
	if err != nil {
		t.Fatalf("SweepDeletions failed: %v", err)
	}
	if sum.Checked != 1 || sum.AccountsDeleted != 0 || sum.Errors != 0 {
		t.Errorf("unexpected summary: %+v", sum)
	}
	pending, _ := f.journal.Unfinished(ctx)
	if len(pending) != 0 {
		t.Errorf("entry should be closed, got %+v", pending)
	}
}

func TestSweepDeletions_IdentityStillFailing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.ids.Add(models.Account{AccountID: "x"})
	_ = f.journal.Record(ctx, "run-1", []string{"x"}, sagalog.EventDocumentsDeleted, "")
	_ = f.journal.FinishRun(ctx, "run-1")
	f.flakyI.DeleteErrs["x"] = errors.New("still down")

	sum, err := f.svc.SweepDeletions(ctx)
	if err != nil {
		t.Fatalf("SweepDeletions failed: %v", err)
	}
	if sum.Errors != 1 {
		t.Errorf("Errors = %d, want 1", sum.Errors)
	}
	pending, _ := f.journal.Unfinished(ctx)
	if len(pending) != 1 {
		t.Errorf("entry should stay open, got %+v", pending)
	}
}

func TestSweepDeletions_LeavesRunInProgressAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "v1", models.UserTypeVolunteer)
	f.flakyI.DeleteErrs["v1"] = errors.New("identity store down")

	// A sweep lands between the run's intent and its batch delete.
	var during SweepSummary
	f.flakyD.BeforeBatchDelete = func() {
		var err error
		if during, err = f.svc.SweepDeletions(ctx); err != nil {
			t.Errorf("sweep during run failed: %v", err)
		}
	}

	sum, err := f.svc.DeleteVolunteers(ctx)
	if err != nil {
		t.Fatalf("DeleteVolunteers failed: %v", err)
	}
	if during.Checked != 1 || during.Pending != 1 || during.Abandoned != 0 {
		t.Errorf("sweep during run = %+v, want the entry left pending", during)
	}
	if sum.DocumentsDeleted != 1 || sum.AccountDeleteErrors != 1 {
		t.Fatalf("unexpected run summary: %+v", sum)
	}

	f.flakyD.BeforeBatchDelete = nil
	delete(f.flakyI.DeleteErrs, "v1")

	later, err := f.svc.SweepDeletions(ctx)
	if err != nil {
		t.Fatalf("later sweep failed: %v", err)
	}
	if later.Checked != 1 || later.AccountsDeleted != 1 {
		t.Errorf("later sweep = %+v, want v1 deleted", later)
	}
	if f.ids.Has("v1") {
		t.Error("v1 must not survive once its document is deleted")
	}
}

func TestSweepDeletions_StaleRunWithoutMarker(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "kept", models.UserTypeVolunteer)
	if err := f.journal.Record(ctx, "crashed", []string{"kept"}, sagalog.EventIntent, ""); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	sum, err := f.svc.SweepDeletions(ctx)
	if err != nil {
		t.Fatalf("SweepDeletions failed: %v", err)
	}
	if sum.Pending != 1 || sum.Abandoned != 0 {
		t.Errorf("fresh entry of an unfinished run: %+v, want pending", sum)
	}

	f.svc.WithStaleAfter(time.Hour)
	f.svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	sum, err = f.svc.SweepDeletions(ctx)
	if err != nil {
		t.Fatalf("SweepDeletions failed: %v", err)
	}
	if sum.Pending != 0 || sum.Abandoned != 1 {
		t.Errorf("stale entry: %+v, want abandoned", sum)
	}
	if !f.ids.Has("kept") {
		t.Error("abandoned entry must not delete the account")
	}
}

func TestDeleteVolunteers_MarksRunFinished(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "v1", models.UserTypeVolunteer)
	f.flakyD.BatchDeleteErr = errors.New("batch rejected")

	if _, err := f.svc.DeleteVolunteers(ctx); err == nil {
		t.Fatal("expected batch failure")
	}
	entries, err := f.journal.Unfinished(ctx)
	if err != nil {
		t.Fatalf("Unfinished failed: %v", err)
	}
	if len(entries) != 1 || !entries[0].RunFinished {
		t.Fatalf("failed run should still be marked finished: %+v", entries)
	}
}

var _ identity.Store = (*testutil.FlakyIdentity)(nil)
