// internal/app/system/backends/backends.go

// Package backends opens every external client the process needs exactly
// once and hands them out as one value. Callers pass *Backends explicitly to
// routines and handlers and call Close when the process exits.
package backends

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/dalemusser/dispatchhub/internal/app/store/docstore"
	firestoredocs "github.com/dalemusser/dispatchhub/internal/app/store/docstore/firestore"
	memdocs "github.com/dalemusser/dispatchhub/internal/app/store/docstore/memory"
	mongodocs "github.com/dalemusser/dispatchhub/internal/app/store/docstore/mongo"
	"github.com/dalemusser/dispatchhub/internal/app/store/identity"
	firebaseidentity "github.com/dalemusser/dispatchhub/internal/app/store/identity/firebase"
	localidentity "github.com/dalemusser/dispatchhub/internal/app/store/identity/local"
	memidentity "github.com/dalemusser/dispatchhub/internal/app/store/identity/memory"
	"github.com/dalemusser/dispatchhub/internal/app/store/sagalog"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Backend names accepted by Config.
const (
	DocsFirestore = "firestore"
	DocsMongo     = "mongo"
	DocsMemory    = "memory"

	IdentityFirebase = "firebase"
	IdentityLocal    = "local"
	IdentityMemory   = "memory"
)

// ErrInvalidConfig wraps every Config.Validate failure.
var ErrInvalidConfig = errors.New("backends: invalid configuration")

// Config selects and configures the backends.
type Config struct {
	DocBackend      string
	IdentityBackend string

	MongoURI      string
	MongoDatabase string

	FirebaseProjectID       string
	FirebaseCredentialsFile string // empty uses application default credentials

	// SagaLogPath is the deletion journal database file. Empty disables the
	// journal.
	SagaLogPath string

	ConnectTimeout time.Duration
}

func (c Config) usesMongo() bool {
	return c.DocBackend == DocsMongo || c.IdentityBackend == IdentityLocal
}

func (c Config) usesFirebase() bool {
	return c.DocBackend == DocsFirestore || c.IdentityBackend == IdentityFirebase
}

// Validate checks backend names and the settings each backend requires.
func (c Config) Validate() error {
	switch c.DocBackend {
	case DocsFirestore, DocsMongo, DocsMemory:
	default:
		return fmt.Errorf("%w: unknown doc_backend %q (want firestore, mongo or memory)", ErrInvalidConfig, c.DocBackend)
	}
	switch c.IdentityBackend {
	case IdentityFirebase, IdentityLocal, IdentityMemory:
	default:
		return fmt.Errorf("%w: unknown identity_backend %q (want firebase, local or memory)", ErrInvalidConfig, c.IdentityBackend)
	}
	if c.usesMongo() {
		if err := wafflemongo.ValidateURI(c.MongoURI); err != nil {
			return fmt.Errorf("%w: mongo_uri: %v", ErrInvalidConfig, err)
		}
		if c.MongoDatabase == "" {
			return fmt.Errorf("%w: mongo_database is required", ErrInvalidConfig)
		}
	}
	if c.usesFirebase() && c.FirebaseProjectID == "" {
		return fmt.Errorf("%w: firebase_project_id is required", ErrInvalidConfig)
	}
	return nil
}

// Backends holds the opened stores and the clients behind them.
type Backends struct {
	Docs     docstore.Store
	Identity identity.Store
	// Journal is nil when no saga log path was configured.
	Journal *sagalog.Journal

	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	closers []closer
	log     *zap.Logger
}

type closer struct {
	name string
	fn   func(context.Context) error
}

// Open builds every configured backend. On failure everything opened so far
// is closed again before the error is returned.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (*Backends, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}

	b := &Backends{log: logger}
	if err := b.open(ctx, cfg); err != nil {
		if cerr := b.Close(context.Background()); cerr != nil {
			logger.Warn("cleanup after failed open", zap.Error(cerr))
		}
		return nil, err
	}
	logger.Info("backends ready",
		zap.String("doc_backend", cfg.DocBackend),
		zap.String("identity_backend", cfg.IdentityBackend),
		zap.Bool("journal", b.Journal != nil))
	return b, nil
}

func (b *Backends) open(ctx context.Context, cfg Config) error {
	if cfg.usesMongo() {
		if err := b.openMongo(ctx, cfg); err != nil {
			return err
		}
	}

	var app *firebase.App
	if cfg.usesFirebase() {
		var opts []option.ClientOption
		if cfg.FirebaseCredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCredentialsFile))
		}
		var err error
		app, err = firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, opts...)
		if err != nil {
			return fmt.Errorf("backends: firebase app: %w", err)
		}
	}

	switch cfg.DocBackend {
	case DocsFirestore:
		client, err := app.Firestore(ctx)
		if err != nil {
			return fmt.Errorf("backends: firestore client: %w", err)
		}
		b.addCloser("firestore", func(context.Context) error { return closeFirestore(client) })
		b.Docs = firestoredocs.New(client)
	case DocsMongo:
		b.Docs = mongodocs.New(b.MongoDatabase, b.log)
	case DocsMemory:
		b.log.Warn("using in-memory document store; data is lost on exit")
		b.Docs = memdocs.New()
	}

	switch cfg.IdentityBackend {
	case IdentityFirebase:
		client, err := app.Auth(ctx)
		if err != nil {
			return fmt.Errorf("backends: firebase auth client: %w", err)
		}
		b.Identity = firebaseidentity.New(client)
	case IdentityLocal:
		b.Identity = localidentity.New(b.MongoDatabase)
	case IdentityMemory:
		b.log.Warn("using in-memory identity store; accounts are lost on exit")
		b.Identity = memidentity.New()
	}

	if cfg.SagaLogPath != "" {
		j, err := sagalog.Open(cfg.SagaLogPath)
		if err != nil {
			return err
		}
		b.Journal = j
		b.addCloser("sagalog", func(context.Context) error { return j.Close() })
	}
	return nil
}

func (b *Backends) openMongo(ctx context.Context, cfg Config) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return fmt.Errorf("backends: mongo connect: %w", err)
	}
	b.addCloser("mongo", client.Disconnect)
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("backends: mongo ping: %w", err)
	}
	b.MongoClient = client
	b.MongoDatabase = client.Database(cfg.MongoDatabase)
	return nil
}

func closeFirestore(c *firestore.Client) error {
	return c.Close()
}

func (b *Backends) addCloser(name string, fn func(context.Context) error) {
	b.closers = append(b.closers, closer{name: name, fn: fn})
}

// Ping checks that the document store answers.
func (b *Backends) Ping(ctx context.Context) error {
	return b.Docs.Ping(ctx)
}

// Close releases every client in reverse order of opening. It is safe to
// call more than once.
func (b *Backends) Close(ctx context.Context) error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		c := b.closers[i]
		if err := c.fn(ctx); err != nil {
			b.log.Error("backend close failed", zap.String("backend", c.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}
