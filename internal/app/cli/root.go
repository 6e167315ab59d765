// Package cli implements dispatchctl, the operator command line for the
// maintenance routines.
package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/dispatchhub/internal/app/system/backends"
	"github.com/dalemusser/dispatchhub/internal/app/system/reconcile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Opener opens the backends for one command run.
type Opener func(ctx context.Context, cfg backends.Config, logger *zap.Logger) (*backends.Backends, error)

// Deps are the process-level collaborators. Zero fields get production
// defaults.
type Deps struct {
	Open       Opener
	Logger     *zap.Logger
	HTTPClient *http.Client
	Now        func() time.Time
}

// RootOptions holds global flags and the resolved configuration.
type RootOptions struct {
	Verbose    bool
	Format     string
	ConfigFile string

	v    *viper.Viper
	deps Deps
	log  *zap.Logger
}

// configFlags are the persistent flags mirrored into viper. Each is also
// read from DISPATCHHUB_<NAME> and from the config file under <name>.
var configFlags = []struct {
	name, def, usage string
}{
	{"doc_backend", backends.DocsFirestore, "document store backend: firestore, mongo or memory"},
	{"identity_backend", backends.IdentityFirebase, "identity store backend: firebase, local or memory"},
	{"mongo_uri", "mongodb://localhost:27017", "MongoDB connection URI"},
	{"mongo_database", "dispatchhub", "MongoDB database name"},
	{"firebase_project_id", "", "Firebase / Google Cloud project ID"},
	{"firebase_credentials_file", "", "service account JSON file (blank uses application default credentials)"},
	{"saga_log_path", "dispatchhub-saga.db", "SQLite deletion journal path (empty disables it)"},
}

// NewRootCommand creates the root command with production dependencies.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWith(Deps{})
}

// NewRootCommandWith creates the root command with the given dependencies.
func NewRootCommandWith(deps Deps) *cobra.Command {
	if deps.Open == nil {
		deps.Open = backends.Open
	}
	if deps.HTTPClient == nil {
		deps.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	opts := &RootOptions{v: viper.New(), deps: deps}
	opts.v.SetEnvPrefix("DISPATCHHUB")
	opts.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	opts.v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "dispatchctl",
		Short: "Maintenance routines for the volunteer dispatch backend",
		Long: `dispatchctl runs the operator maintenance routines that keep the identity
store and the document store consistent: user creation, bulk volunteer
deletion, orphaned-account cleanup, the deletion journal sweep, and the
inquiry geocode backfill.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.init()
		},
	}

	pf := cmd.PersistentFlags()
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose (development) logging")
	pf.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	pf.StringVar(&opts.ConfigFile, "config", "", "config file (yaml, json or toml)")
	for _, f := range configFlags {
		pf.String(flagName(f.name), f.def, f.usage)
		_ = opts.v.BindPFlag(f.name, pf.Lookup(flagName(f.name)))
	}

	cmd.AddCommand(NewCreateUserCommand(opts))
	cmd.AddCommand(NewDeleteVolunteersCommand(opts))
	cmd.AddCommand(NewCleanupOrphansCommand(opts))
	cmd.AddCommand(NewSweepDeletionsCommand(opts))
	cmd.AddCommand(NewBackfillGeocodeCommand(opts))

	return cmd
}

func (o *RootOptions) init() error {
	if !isValidFormat(o.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}
	if o.ConfigFile != "" {
		o.v.SetConfigFile(o.ConfigFile)
		if err := o.v.ReadInConfig(); err != nil {
			return WrapExitError(ExitCommandError, "read config file", err)
		}
	}

	o.log = o.deps.Logger
	if o.log == nil {
		var (
			l   *zap.Logger
			err error
		)
		if o.Verbose {
			l, err = zap.NewDevelopment()
		} else {
			l, err = zap.NewProduction()
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "build logger", err)
		}
		o.log = l
	}
	return nil
}

// BackendConfig resolves the backend configuration from flags, environment
// and config file.
func (o *RootOptions) BackendConfig() backends.Config {
	return backends.Config{
		DocBackend:              o.v.GetString("doc_backend"),
		IdentityBackend:         o.v.GetString("identity_backend"),
		MongoURI:                o.v.GetString("mongo_uri"),
		MongoDatabase:           o.v.GetString("mongo_database"),
		FirebaseProjectID:       o.v.GetString("firebase_project_id"),
		FirebaseCredentialsFile: o.v.GetString("firebase_credentials_file"),
		SagaLogPath:             o.v.GetString("saga_log_path"),
	}
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}

// withBackends opens the backends, runs fn, and always closes them.
func (o *RootOptions) withBackends(ctx context.Context, fn func(b *backends.Backends) error) error {
	b, err := o.deps.Open(ctx, o.BackendConfig(), o.log)
	if err != nil {
		code := ExitFailure
		if isConfigError(err) {
			code = ExitCommandError
		}
		return WrapExitError(code, "open backends", err)
	}
	defer func() {
		if err := b.Close(context.Background()); err != nil {
			o.log.Warn("closing backends failed", zap.Error(err))
		}
	}()
	return fn(b)
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func isConfigError(err error) bool {
	return errors.Is(err, backends.ErrInvalidConfig)
}

// reconciler builds the reconciliation service over b.
func (o *RootOptions) reconciler(b *backends.Backends) *reconcile.Service {
	svc := reconcile.New(b.Docs, b.Identity, o.log)
	if b.Journal != nil {
		svc.WithJournal(b.Journal)
	}
	return svc
}

// flagName maps a config key to its flag spelling: saga_log_path -> saga-log-path.
func flagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}
