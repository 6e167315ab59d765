// internal/app/bootstrap/appconfig.go
package bootstrap

import (
	"time"

	"github.com/dalemusser/dispatchhub/internal/app/system/backends"
)

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig covers ports, TLS, logging and CORS. AppConfig carries
// the backend selection and the settings each backend needs.
type AppConfig struct {
	// Backend selection
	DocBackend      string // firestore, mongo or memory
	IdentityBackend string // firebase, local or memory

	// MongoDB (doc_backend=mongo or identity_backend=local)
	MongoURI      string
	MongoDatabase string

	// Firebase (doc_backend=firestore or identity_backend=firebase)
	FirebaseProjectID       string
	FirebaseCredentialsFile string // blank uses application default credentials

	// Deletion journal shared with dispatchctl. Blank disables it.
	SagaLogPath string

	// SweepOnStartup finishes interrupted volunteer deletions before serving.
	SweepOnStartup bool
	// SweepInterval runs the sweep periodically while serving. Zero disables it.
	SweepInterval time.Duration

	// APIRateLimit caps requests per minute per client IP on the document
	// endpoints. Zero disables it.
	APIRateLimit int
}

// Backends returns the backend configuration derived from c.
func (c AppConfig) Backends() backends.Config {
	return backends.Config{
		DocBackend:              c.DocBackend,
		IdentityBackend:         c.IdentityBackend,
		MongoURI:                c.MongoURI,
		MongoDatabase:           c.MongoDatabase,
		FirebaseProjectID:       c.FirebaseProjectID,
		FirebaseCredentialsFile: c.FirebaseCredentialsFile,
		SagaLogPath:             c.SagaLogPath,
	}
}
