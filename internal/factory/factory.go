package factory

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/mcoot/scoutbook/internal/dependencies/clock"
	"github.com/mcoot/scoutbook/internal/dependencies/delay"
	"github.com/mcoot/scoutbook/internal/dependencies/random"
	"github.com/mcoot/scoutbook/internal/services/codes"
	"github.com/mcoot/scoutbook/internal/services/datastore"
	"github.com/mcoot/scoutbook/internal/services/identity"
	"github.com/mcoot/scoutbook/internal/services/identity/federated"
	"github.com/mcoot/scoutbook/internal/services/session"
	"github.com/mcoot/scoutbook/internal/services/vault"
	"github.com/mcoot/scoutbook/internal/storage"
	"github.com/mcoot/scoutbook/internal/storage/memory"
	redisstorage "github.com/mcoot/scoutbook/internal/storage/redis"
	sqlitestorage "github.com/mcoot/scoutbook/internal/storage/sqlite"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeSQLite = "sqlite"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock   clock.Clock
	Random  random.Random
	Sleeper delay.Sleeper

	// Services
	Store         *datastore.Store
	Validator     *codes.Validator
	Resolver      *identity.Resolver
	Vault         vault.Vault
	Session       *session.Controller
	TokenVerifier *federated.Verifier

	logger *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "sqlite")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SQLitePath is the database file (required if StorageType is "sqlite")
	SQLitePath string

	// Identity configures fallback admin and password policy
	Identity identity.Config
	// Session configures the simulated delay and prompt text
	// If nil, defaults to session.DefaultConfig()
	Session *session.Config
	// Vault sets the service/account pair of the cached credential
	Vault vault.Config
	// PasscodeHash is the bcrypt hash guarding the vault
	// If empty, the vault reports itself unavailable
	PasscodeHash string
	// FederatedTokenSecret verifies provider identity tokens
	FederatedTokenSecret string
}

// New creates a new application with all dependencies wired and the
// credential store loaded
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	case StorageTypeSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New("SQLitePath required when StorageType is sqlite")
		}
		sqliteStore, err := sqlitestorage.New(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		store = sqliteStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory', 'redis' or 'sqlite'")
	}

	var authenticator vault.Authenticator = vault.NewStubAuthenticator(vault.KindNone)
	if cfg.PasscodeHash != "" {
		authenticator = vault.NewPasscodeAuthenticator(cfg.PasscodeHash, vault.ContextPrompter{})
	}

	app, err := newWithDependencies(ctx, store, clock.New(), random.New(), delay.New(), authenticator, cfg, logger)
	if err != nil {
		_ = closeStorage(store)
		return nil, err
	}
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	ctx context.Context,
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	sleeper delay.Sleeper,
	authenticator vault.Authenticator,
	cfg Config,
	logger *slog.Logger,
) (*App, error) {
	dataStore := datastore.New(store, clk, rnd, logger)
	if err := dataStore.Load(ctx); err != nil {
		return nil, err
	}

	sessionCfg := session.DefaultConfig()
	if cfg.Session != nil {
		sessionCfg = *cfg.Session
	}

	validator := codes.New(dataStore, logger)
	resolver := identity.New(dataStore, validator, clk, cfg.Identity, logger)
	keychain := vault.NewKeychain(store, authenticator, cfg.Vault, logger)
	controller := session.NewController(resolver, keychain, sleeper, sessionCfg, logger)
	controller.CheckAuthenticationStatus(ctx)

	return &App{
		Storage:       store,
		Clock:         clk,
		Random:        rnd,
		Sleeper:       sleeper,
		Store:         dataStore,
		Validator:     validator,
		Resolver:      resolver,
		Vault:         keychain,
		Session:       controller,
		TokenVerifier: federated.NewVerifier(cfg.FederatedTokenSecret, clk.Now),
		logger:        logger,
	}, nil
}

// Close releases the storage backend
func (a *App) Close() error {
	return closeStorage(a.Storage)
}

func closeStorage(store storage.Storage) error {
	if closer, ok := store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
