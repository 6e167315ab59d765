package cli

import (
	"fmt"

	"github.com/dalemusser/dispatchhub/internal/app/system/backends"
	"github.com/dalemusser/dispatchhub/internal/app/system/reconcile"
	"github.com/dalemusser/dispatchhub/internal/app/system/timeouts"
	"github.com/spf13/cobra"
)

// NewCleanupOrphansCommand creates the cleanup-orphans command.
func NewCleanupOrphansCommand(rootOpts *RootOptions) *cobra.Command {
	opts := reconcile.OrphanOptions{}

	cmd := &cobra.Command{
		Use:   "cleanup-orphans",
		Short: "Delete identity accounts that have no user document",
		Long: `Walk every identity account in pages of 1000 and delete the accounts whose
user document does not exist. Use --dry-run to only report them.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCleanupOrphans(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "report orphans without deleting them")
	return cmd
}

func runCleanupOrphans(rootOpts *RootOptions, opts reconcile.OrphanOptions, cmd *cobra.Command) error {
	f := rootOpts.formatter(cmd)

	ctx, cancel := timeouts.WithTimeout(cmd.Context(), timeouts.Routine(), rootOpts.log, "orphan cleanup")
	defer cancel()

	return rootOpts.withBackends(ctx, func(b *backends.Backends) error {
		rep, err := rootOpts.reconciler(b).CleanupOrphans(ctx, opts)
		if err != nil {
			return f.Fail(WrapExitError(ExitFailure, "orphan cleanup", err))
		}

		lines := []string{
			fmt.Sprintf("Accounts checked: %d", rep.TotalChecked),
			fmt.Sprintf("Orphans found:    %d", rep.OrphanedFound),
			fmt.Sprintf("Cleaned up:       %d", rep.CleanedUp),
		}
		for _, o := range rep.OrphanedAccounts {
			state := "deleted"
			switch {
			case opts.DryRun:
				state = "kept (dry run)"
			case !o.Deleted:
				state = "delete failed: " + o.Error
			}
			lines = append(lines, fmt.Sprintf("  %s  %s  %s", o.AccountID, o.Email, state))
		}
		return f.Success(rep, lines...)
	})
}
