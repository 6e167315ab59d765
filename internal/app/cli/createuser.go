package cli

import (
	"fmt"

	"github.com/dalemusser/dispatchhub/internal/app/system/backends"
	"github.com/dalemusser/dispatchhub/internal/app/system/reconcile"
	"github.com/dalemusser/dispatchhub/internal/app/system/timeouts"
	"github.com/dalemusser/dispatchhub/internal/domain/models"
	"github.com/spf13/cobra"
)

// CreateUserOptions holds flags for create-user.
type CreateUserOptions struct {
	Email     string
	FirstName string
	LastName  string
	UserType  string
}

// NewCreateUserCommand creates the create-user command.
func NewCreateUserCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateUserOptions{}

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create an identity account and its user document",
		Long: `Create an identity account and the matching user document in one step.

The user must change the password at first sign-in. If the user document
cannot be written the new account is deleted again.

The password is read from --password or DISPATCHHUB_PASSWORD.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreateUser(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Email, "email", "", "account email (required)")
	cmd.Flags().StringVar(&opts.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&opts.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&opts.UserType, "user-type", models.UserTypeAdmin.String(), "admin, volunteer or dispatcher")
	cmd.Flags().String("password", "", "initial password")
	_ = rootOpts.v.BindPFlag("password", cmd.Flags().Lookup("password"))
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func runCreateUser(rootOpts *RootOptions, opts *CreateUserOptions, cmd *cobra.Command) error {
	f := rootOpts.formatter(cmd)

	ut, err := models.ParseUserType(opts.UserType)
	if err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "invalid --user-type", err))
	}
	password := rootOpts.v.GetString("password")
	if password == "" {
		return f.Fail(NewExitError(ExitCommandError, "a password is required (--password or DISPATCHHUB_PASSWORD)"))
	}

	ctx, cancel := timeouts.WithTimeout(cmd.Context(), timeouts.Short(), rootOpts.log, "create user")
	defer cancel()

	return rootOpts.withBackends(ctx, func(b *backends.Backends) error {
		u, err := rootOpts.reconciler(b).CreateUser(ctx, reconcile.NewUser{
			Email:     opts.Email,
			Password:  password,
			FirstName: opts.FirstName,
			LastName:  opts.LastName,
			UserType:  ut,
		}, rootOpts.deps.Now())
		if err != nil {
			return f.Fail(WrapExitError(ExitFailure, "create user", err))
		}
		return f.Success(u, fmt.Sprintf("Created %s %s (%s) with id %s", ut, u.Email, u.FullName(), u.ID))
	})
}
