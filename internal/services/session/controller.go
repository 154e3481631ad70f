package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/scoutbook/internal/async"
	"github.com/mcoot/scoutbook/internal/dependencies/delay"
	"github.com/mcoot/scoutbook/internal/model"
	"github.com/mcoot/scoutbook/internal/services/identity"
	"github.com/mcoot/scoutbook/internal/services/identity/federated"
	"github.com/mcoot/scoutbook/internal/services/vault"
)

// State is the session's position in the authentication state machine
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticating  State = "authenticating"
	StateAuthenticated   State = "authenticated"
)

// subscriberBuffer is the per-subscriber channel capacity
const subscriberBuffer = 16

// Resolver resolves sign-in attempts to user records
type Resolver interface {
	Login(ctx context.Context, email, password string) (*model.User, error)
	Register(ctx context.Context, reg identity.Registration) (*model.User, error)
	FederatedSignIn(ctx context.Context, cred federated.Credential) (*model.User, error)
	ResolveCached(ctx context.Context, cred model.CachedCredential) (*model.User, error)
	IsStored(user *model.User) bool
}

// Config holds configuration for the session controller
type Config struct {
	// NetworkDelay is the simulated latency before login and register
	NetworkDelay time.Duration

	// BiometricReason is shown in the biometric prompt
	BiometricReason string
}

// DefaultConfig returns default session configuration
func DefaultConfig() Config {
	return Config{
		NetworkDelay:    time.Second,
		BiometricReason: "Sign in to Scoutbook",
	}
}

// Snapshot is a point-in-time copy of the session state
type Snapshot struct {
	State               State              `json:"state"`
	IsAuthenticated     bool               `json:"is_authenticated"`
	CurrentUser         *model.Identity    `json:"current_user,omitempty"`
	IsLoading           bool               `json:"is_loading"`
	ErrorMessage        string             `json:"error_message,omitempty"`
	Biometrics          vault.Availability `json:"biometrics"`
	CanUseBiometrics    bool               `json:"can_use_biometrics"`
	HasCachedCredential bool               `json:"has_cached_credential"`
}

// Controller owns the session state machine. Sign-in attempts are
// serialized; state can be read and observed at any time.
type Controller struct {
	resolver Resolver
	vault    vault.Vault
	sleeper  delay.Sleeper
	cfg      Config
	logger   *slog.Logger

	// held for the whole of an operation
	opMu sync.Mutex

	mu         sync.RWMutex
	state      State
	user       *model.Identity
	loading    bool
	errMessage string
	biometrics vault.Availability
	hasCached  bool

	subMu       sync.Mutex
	subscribers map[chan Snapshot]struct{}
}

// NewController creates a Controller in the unauthenticated state
func NewController(resolver Resolver, v vault.Vault, sleeper delay.Sleeper, cfg Config, logger *slog.Logger) *Controller {
	if cfg.BiometricReason == "" {
		cfg.BiometricReason = DefaultConfig().BiometricReason
	}
	return &Controller{
		resolver:    resolver,
		vault:       v,
		sleeper:     sleeper,
		cfg:         cfg,
		logger:      logger.With(slog.String("component", "session")),
		state:       StateUnauthenticated,
		biometrics:  vault.Unavailable,
		subscribers: make(map[chan Snapshot]struct{}),
	}
}

// Snapshot returns the current session state
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:               c.state,
		IsAuthenticated:     c.state == StateAuthenticated,
		IsLoading:           c.loading,
		ErrorMessage:        c.errMessage,
		Biometrics:          c.biometrics,
		CanUseBiometrics:    c.biometrics.Available && c.hasCached,
		HasCachedCredential: c.hasCached,
	}
	if c.user != nil {
		u := *c.user
		snap.CurrentUser = &u
	}
	return snap
}

// Subscribe returns a channel of snapshots published after every change,
// and a function to stop receiving. A subscriber that falls behind misses
// snapshots rather than blocking the controller.
func (c *Controller) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, subscriberBuffer)

	c.subMu.Lock()
	c.subscribers[ch] = struct{}{}
	c.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subscribers, ch)
			c.subMu.Unlock()
			close(ch)
		})
	}
}

// update applies fn to the state and publishes the result
func (c *Controller) update(fn func()) Snapshot {
	c.mu.Lock()
	fn()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snap)
	return snap
}

func (c *Controller) publish(snap Snapshot) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	dropped := 0
	for ch := range c.subscribers {
		select {
		case ch <- snap:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		c.logger.Warn("session snapshot dropped - subscriber buffer full", slog.Int("dropped", dropped))
	}
}

// CheckAuthenticationStatus resets to unauthenticated and probes the vault.
// Sessions never survive a restart.
func (c *Controller) CheckAuthenticationStatus(ctx context.Context) Snapshot {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	availability, hasCached := c.probeVault(ctx)
	return c.update(func() {
		c.state = StateUnauthenticated
		c.user = nil
		c.loading = false
		c.biometrics = availability
		c.hasCached = hasCached
	})
}

// Login signs in with email and password
func (c *Controller) Login(ctx context.Context, email, password string) error {
	return c.authenticate(ctx, "password", true, func(ctx context.Context) (*model.User, error) {
		if err := c.sleeper.Sleep(ctx, c.cfg.NetworkDelay); err != nil {
			return nil, err
		}
		return c.resolver.Login(ctx, email, password)
	})
}

// Register creates an account and signs in to it
func (c *Controller) Register(ctx context.Context, reg identity.Registration) error {
	return c.authenticate(ctx, "register", true, func(ctx context.Context) (*model.User, error) {
		if err := c.sleeper.Sleep(ctx, c.cfg.NetworkDelay); err != nil {
			return nil, err
		}
		return c.resolver.Register(ctx, reg)
	})
}

// FederatedSignIn signs in with an identity provider credential
func (c *Controller) FederatedSignIn(ctx context.Context, cred federated.Credential) error {
	return c.authenticate(ctx, "federated", true, func(ctx context.Context) (*model.User, error) {
		return c.resolver.FederatedSignIn(ctx, cred)
	})
}

// AttemptBiometricLogin signs in as the identity cached in the vault.
// A cancelled or failed prompt leaves no error message.
func (c *Controller) AttemptBiometricLogin(ctx context.Context) error {
	return c.authenticate(ctx, "biometric", false, func(ctx context.Context) (*model.User, error) {
		cred, err := c.vault.Authenticate(ctx, c.cfg.BiometricReason)
		if err != nil {
			return nil, err
		}
		user, err := c.resolver.ResolveCached(ctx, cred)
		if errors.Is(err, model.ErrCredentialsNotFound) {
			if clearErr := c.vault.Clear(ctx); clearErr != nil {
				c.logger.WarnContext(ctx, "failed to clear orphaned credential", slog.Any("error", clearErr))
			}
		}
		return user, err
	})
}

// authenticate runs one sign-in attempt through the state machine. Attempts
// are only accepted from the unauthenticated state; an existing session is
// left untouched.
func (c *Controller) authenticate(ctx context.Context, method string, cache bool, resolve func(ctx context.Context) (*model.User, error)) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.RLock()
	signedIn := c.state == StateAuthenticated
	c.mu.RUnlock()
	if signedIn {
		c.logger.InfoContext(ctx, "sign-in rejected - already authenticated", slog.String("method", method))
		return model.ErrAlreadyAuthenticated
	}

	c.update(func() {
		c.state = StateAuthenticating
		c.user = nil
		c.loading = true
		c.errMessage = ""
	})

	user, err := resolve(ctx)
	if err != nil {
		c.fail(ctx, method, err)
		return err
	}

	if cache {
		c.cacheCredential(ctx, user)
	}
	availability, hasCached := c.probeVault(ctx)

	current := user.Identity()
	c.update(func() {
		c.state = StateAuthenticated
		c.user = &current
		c.loading = false
		c.errMessage = ""
		c.biometrics = availability
		c.hasCached = hasCached
	})

	c.logger.InfoContext(ctx, "signed in",
		slog.String("method", method),
		slog.Int("user_id", int(user.ID)),
		slog.Bool("is_admin", user.IsAdmin))
	return nil
}

func (c *Controller) fail(ctx context.Context, method string, err error) {
	silent := method == "biometric" && errors.Is(err, model.ErrAuthenticationFailed)

	message := ""
	if !silent {
		message = Message(err)
	}

	availability, hasCached := c.probeVault(ctx)
	c.update(func() {
		c.state = StateUnauthenticated
		c.user = nil
		c.loading = false
		c.errMessage = message
		c.biometrics = availability
		c.hasCached = hasCached
	})

	level := slog.LevelInfo
	var storageErr *model.StorageError
	if errors.As(err, &storageErr) {
		level = slog.LevelError
	}
	c.logger.Log(ctx, level, "sign-in failed",
		slog.String("method", method),
		slog.Bool("silent", silent),
		slog.Any("error", err))
}

// cacheCredential stores the identity for biometric sign-in when the
// device supports it and the user has a stored record. Failure does not
// affect the sign-in.
func (c *Controller) cacheCredential(ctx context.Context, user *model.User) {
	if !c.vault.IsAvailable().Available {
		return
	}
	if !c.resolver.IsStored(user) {
		c.logger.InfoContext(ctx, "credential not cached - user has no stored record",
			slog.Int("user_id", int(user.ID)))
		return
	}
	if err := c.vault.Store(ctx, user.CachedCredential()); err != nil {
		c.logger.WarnContext(ctx, "failed to cache credential",
			slog.Int("user_id", int(user.ID)),
			slog.Any("error", err))
	}
}

// Logout clears the session. The cached credential is kept for the next
// biometric sign-in.
func (c *Controller) Logout(ctx context.Context) Snapshot {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	availability, hasCached := c.probeVault(ctx)
	snap := c.update(func() {
		c.state = StateUnauthenticated
		c.user = nil
		c.loading = false
		c.errMessage = ""
		c.biometrics = availability
		c.hasCached = hasCached
	})
	c.logger.InfoContext(ctx, "signed out")
	return snap
}

// RefreshBiometrics re-reads vault availability and whether a credential is cached
func (c *Controller) RefreshBiometrics(ctx context.Context) Snapshot {
	availability, hasCached := c.probeVault(ctx)
	return c.update(func() {
		c.biometrics = availability
		c.hasCached = hasCached
	})
}

// ClearError removes the current error message
func (c *Controller) ClearError() Snapshot {
	return c.update(func() {
		c.errMessage = ""
	})
}

func (c *Controller) probeVault(ctx context.Context) (vault.Availability, bool) {
	availability := c.vault.IsAvailable()
	return availability, c.vault.HasCredential(ctx)
}

// LoginAsync runs Login in the background
func (c *Controller) LoginAsync(ctx context.Context, email, password string) *async.Task[Snapshot] {
	return c.run(ctx, func(ctx context.Context) error { return c.Login(ctx, email, password) })
}

// RegisterAsync runs Register in the background
func (c *Controller) RegisterAsync(ctx context.Context, reg identity.Registration) *async.Task[Snapshot] {
	return c.run(ctx, func(ctx context.Context) error { return c.Register(ctx, reg) })
}

// FederatedSignInAsync runs FederatedSignIn in the background
func (c *Controller) FederatedSignInAsync(ctx context.Context, cred federated.Credential) *async.Task[Snapshot] {
	return c.run(ctx, func(ctx context.Context) error { return c.FederatedSignIn(ctx, cred) })
}

// AttemptBiometricLoginAsync runs AttemptBiometricLogin in the background.
// Cancelling the task abandons a pending prompt.
func (c *Controller) AttemptBiometricLoginAsync(ctx context.Context) *async.Task[Snapshot] {
	return c.run(ctx, c.AttemptBiometricLogin)
}

func (c *Controller) run(ctx context.Context, op func(ctx context.Context) error) *async.Task[Snapshot] {
	return async.Go(ctx, func(ctx context.Context) (Snapshot, error) {
		err := op(ctx)
		return c.Snapshot(), err
	})
}
