package cli

import (
	"fmt"

	"github.com/dalemusser/dispatchhub/internal/app/system/backends"
	"github.com/dalemusser/dispatchhub/internal/app/system/timeouts"
	"github.com/spf13/cobra"
)

// NewSweepDeletionsCommand creates the sweep-deletions command.
func NewSweepDeletionsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep-deletions",
		Short: "Finish volunteer deletions left incomplete in the journal",
		Long: `Read the deletion journal and finish every deletion that did not complete:
accounts whose documents are gone are deleted, and intents whose batch never
committed are closed as abandoned.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweepDeletions(rootOpts, cmd)
		},
	}
}

func runSweepDeletions(rootOpts *RootOptions, cmd *cobra.Command) error {
	f := rootOpts.formatter(cmd)

	ctx, cancel := timeouts.WithTimeout(cmd.Context(), timeouts.Routine(), rootOpts.log, "deletion sweep")
	defer cancel()

	return rootOpts.withBackends(ctx, func(b *backends.Backends) error {
		if b.Journal == nil {
			return f.Fail(NewExitError(ExitCommandError, "sweep-deletions needs --saga-log-path"))
		}
		sum, err := rootOpts.reconciler(b).SweepDeletions(ctx)
		if err != nil {
			return f.Fail(WrapExitError(ExitFailure, "deletion sweep", err))
		}
		return f.Success(sum,
			fmt.Sprintf("Entries checked:  %d", sum.Checked),
			fmt.Sprintf("Accounts deleted: %d", sum.AccountsDeleted),
			fmt.Sprintf("Abandoned:        %d", sum.Abandoned),
			fmt.Sprintf("Pending:          %d", sum.Pending),
			fmt.Sprintf("Errors:           %d", sum.Errors))
	})
}
