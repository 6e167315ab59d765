// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"

	"github.com/dalemusser/dispatchhub/internal/app/system/backends"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for the dispatch API.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: doc_backend, mongo_uri, etc.
//   - Environment variables: DISPATCHHUB_DOC_BACKEND, DISPATCHHUB_MONGO_URI, etc.
//   - Command-line flags: --doc_backend, --mongo_uri, etc.
var appConfigKeys = []config.AppKey{
	{Name: "doc_backend", Default: "firestore", Desc: "Document store backend: 'firestore', 'mongo' or 'memory'"},
	{Name: "identity_backend", Default: "firebase", Desc: "Identity store backend: 'firebase', 'local' or 'memory'"},

	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "dispatchhub", Desc: "MongoDB database name"},

	{Name: "firebase_project_id", Default: "", Desc: "Firebase / Google Cloud project ID"},
	{Name: "firebase_credentials_file", Default: "", Desc: "Service account JSON file (blank uses application default credentials)"},

	{Name: "saga_log_path", Default: "", Desc: "SQLite deletion journal path (blank disables the journal)"},
	{Name: "sweep_on_startup", Default: false, Desc: "Finish interrupted volunteer deletions before serving"},
	{Name: "sweep_interval", Default: "0s", Desc: "Re-run the deletion sweep this often while serving (e.g., 15m; 0 disables)"},

	{Name: "api_rate_limit", Default: 120, Desc: "Requests per minute per client IP on /user, /inquiry and /link (0 disables)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// Precedence is WAFFLE's: flags > env > files > defaults. Core settings use
// the WAFFLE_ prefix, app settings DISPATCHHUB_.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "DISPATCHHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		DocBackend:      appValues.String("doc_backend"),
		IdentityBackend: appValues.String("identity_backend"),

		MongoURI:      appValues.String("mongo_uri"),
		MongoDatabase: appValues.String("mongo_database"),

		FirebaseProjectID:       appValues.String("firebase_project_id"),
		FirebaseCredentialsFile: appValues.String("firebase_credentials_file"),

		SagaLogPath:    appValues.String("saga_log_path"),
		SweepOnStartup: appValues.Bool("sweep_on_startup"),
		SweepInterval:  appValues.Duration("sweep_interval", 0),

		APIRateLimit: appValues.Int("api_rate_limit"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Backend names and the settings each selected backend requires are checked
// here, before anything connects.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := appCfg.Backends().Validate(); err != nil {
		logger.Error("invalid backend configuration", zap.Error(err))
		return err
	}
	if appCfg.SweepOnStartup && appCfg.SagaLogPath == "" {
		return fmt.Errorf("sweep_on_startup requires saga_log_path to be set")
	}
	if appCfg.SweepInterval < 0 {
		return fmt.Errorf("sweep_interval must not be negative")
	}
	if appCfg.SweepInterval > 0 && appCfg.SagaLogPath == "" {
		return fmt.Errorf("sweep_interval requires saga_log_path to be set")
	}
	if appCfg.APIRateLimit < 0 {
		return fmt.Errorf("api_rate_limit must not be negative")
	}
	if coreCfg != nil && coreCfg.Env == "prod" && (appCfg.DocBackend == backends.DocsMemory || appCfg.IdentityBackend == backends.IdentityMemory) {
		return fmt.Errorf("memory backends are not allowed in prod")
	}
	return nil
}
