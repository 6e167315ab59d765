package cli

import (
	"fmt"

	userstore "github.com/dalemusser/dispatchhub/internal/app/store/users"
	"github.com/dalemusser/dispatchhub/internal/app/system/backends"
	"github.com/dalemusser/dispatchhub/internal/app/system/timeouts"
	"github.com/dalemusser/dispatchhub/internal/domain/models"
	"github.com/spf13/cobra"
)

// VolunteerPreview is the result of delete-volunteers without --yes.
type VolunteerPreview struct {
	Volunteers int      `json:"volunteers"`
	Emails     []string `json:"emails"`
}

// NewDeleteVolunteersCommand creates the delete-volunteers command.
func NewDeleteVolunteersCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete-volunteers",
		Short: "Delete every volunteer user document and account",
		Long: `Delete every volunteer user document in one atomic batch, then delete the
matching identity accounts one by one.

Without --yes the volunteers are only listed. Account deletions that fail are
counted and left in the deletion journal for sweep-deletions.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeleteVolunteers(rootOpts, yes, cmd)
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "actually delete (otherwise list only)")
	return cmd
}

func runDeleteVolunteers(rootOpts *RootOptions, yes bool, cmd *cobra.Command) error {
	f := rootOpts.formatter(cmd)

	ctx, cancel := timeouts.WithTimeout(cmd.Context(), timeouts.Routine(), rootOpts.log, "delete volunteers")
	defer cancel()

	return rootOpts.withBackends(ctx, func(b *backends.Backends) error {
		if !yes {
			vols, err := userstore.New(b.Docs).ListByType(ctx, models.UserTypeVolunteer)
			if err != nil {
				return f.Fail(WrapExitError(ExitFailure, "list volunteers", err))
			}
			p := VolunteerPreview{Volunteers: len(vols), Emails: make([]string, 0, len(vols))}
			for _, u := range vols {
				p.Emails = append(p.Emails, u.Email)
			}
			return f.Success(p,
				fmt.Sprintf("%d volunteer users would be deleted.", p.Volunteers),
				"Re-run with --yes to delete them.")
		}

		sum, err := rootOpts.reconciler(b).DeleteVolunteers(ctx)
		if err != nil {
			return f.Fail(WrapExitError(ExitFailure, "delete volunteers", err))
		}
		lines := []string{
			fmt.Sprintf("Run %s", sum.RunID),
			fmt.Sprintf("Volunteers found:      %d", sum.TotalFound),
			fmt.Sprintf("Documents deleted:     %d", sum.DocumentsDeleted),
			fmt.Sprintf("Accounts deleted:      %d", sum.AccountsDeleted),
			fmt.Sprintf("Account delete errors: %d", sum.AccountDeleteErrors),
		}
		if sum.AccountDeleteErrors > 0 && b.Journal != nil {
			lines = append(lines, "Run sweep-deletions to retry the failed account deletions.")
		}
		return f.Success(sum, lines...)
	})
}
