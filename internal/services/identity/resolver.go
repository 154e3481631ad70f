package identity

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode"

	"github.com/mcoot/scoutbook/internal/dependencies/clock"
	"github.com/mcoot/scoutbook/internal/model"
	"github.com/mcoot/scoutbook/internal/services/codes"
	"github.com/mcoot/scoutbook/internal/services/identity/federated"
)

// Placeholder names for federated accounts created without a name
const (
	PlaceholderFirstName = "Scout"
	PlaceholderLastName  = "User"
)

// Store is the subset of the credential store the resolver reads and mutates
type Store interface {
	FindUserByEmail(email string) (*model.User, error)
	FindUserByID(id model.UserID) (*model.User, error)
	FindUserByFederatedID(federatedID string) (*model.User, error)
	UpsertUser(ctx context.Context, user model.User) (*model.User, error)
	MarkRegistrationCodeUsed(ctx context.Context, code string) (*model.RegistrationCode, error)
	ReleaseRegistrationCode(ctx context.Context, id string) error
}

// CodeValidator checks registration codes
type CodeValidator interface {
	Validate(ctx context.Context, code string) codes.Result
}

// Config holds configuration for the identity resolver
type Config struct {
	FallbackAdminEmail     string
	FallbackAdminPassword  string
	MinPasswordLength      int
	PlaceholderEmailDomain string
}

// DefaultConfig returns the demo configuration
func DefaultConfig() Config {
	return Config{
		FallbackAdminEmail:     "admin@demo.com",
		FallbackAdminPassword:  "admin123",
		MinPasswordLength:      6,
		PlaceholderEmailDomain: "privaterelay.scoutbook.local",
	}
}

// Registration is a new-account request
type Registration struct {
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	RegistrationCode string `json:"registration_code"`
}

// Resolver turns sign-in attempts into canonical user records, creating and
// linking records in the store as needed.
type Resolver struct {
	store     Store
	validator CodeValidator
	clock     clock.Clock
	cfg       Config
	logger    *slog.Logger
}

// New creates a Resolver. Zero config fields take their defaults.
func New(store Store, validator CodeValidator, clock clock.Clock, cfg Config, logger *slog.Logger) *Resolver {
	defaults := DefaultConfig()
	if cfg.FallbackAdminEmail == "" {
		cfg.FallbackAdminEmail = defaults.FallbackAdminEmail
	}
	if cfg.FallbackAdminPassword == "" {
		cfg.FallbackAdminPassword = defaults.FallbackAdminPassword
	}
	if cfg.MinPasswordLength <= 0 {
		cfg.MinPasswordLength = defaults.MinPasswordLength
	}
	if cfg.PlaceholderEmailDomain == "" {
		cfg.PlaceholderEmailDomain = defaults.PlaceholderEmailDomain
	}
	return &Resolver{
		store:     store,
		validator: validator,
		clock:     clock,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "identity")),
	}
}

// Login resolves an email/password pair. Stored accounts only need a
// password of the minimum length; the fallback admin pair is accepted even
// when no record exists.
func (r *Resolver) Login(ctx context.Context, email, password string) (*model.User, error) {
	user, err := r.store.FindUserByEmail(email)
	if err == nil {
		if len(password) < r.cfg.MinPasswordLength {
			return nil, model.ErrWeakPassword
		}
		r.logger.InfoContext(ctx, "user logged in",
			slog.Int("user_id", int(user.ID)),
			slog.Bool("is_admin", user.IsAdmin))
		return user, nil
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return nil, err
	}

	if model.SameEmail(email, r.cfg.FallbackAdminEmail) && password == r.cfg.FallbackAdminPassword {
		r.logger.InfoContext(ctx, "fallback admin logged in")
		return r.fallbackAdmin(), nil
	}

	return nil, model.ErrAccountNotFound
}

func (r *Resolver) fallbackAdmin() *model.User {
	return &model.User{
		ID:        1,
		FirstName: "Admin",
		LastName:  "User",
		Email:     r.cfg.FallbackAdminEmail,
		GroupName: "Demo Team",
		IsAdmin:   true,
		CreatedAt: r.clock.Now(),
	}
}

// Register creates a non-admin account in the team of the redeemed code
func (r *Resolver) Register(ctx context.Context, reg Registration) (*model.User, error) {
	reg.FirstName = strings.TrimSpace(reg.FirstName)
	reg.LastName = strings.TrimSpace(reg.LastName)
	reg.Email = strings.TrimSpace(reg.Email)

	if reg.Email == "" {
		return nil, model.ErrInvalidInput
	}
	if _, err := r.store.FindUserByEmail(reg.Email); err == nil {
		return nil, model.ErrEmailAlreadyExists
	} else if !errors.Is(err, model.ErrUserNotFound) {
		return nil, err
	}

	if reg.FirstName == "" || reg.LastName == "" {
		return nil, model.ErrInvalidInput
	}
	if len(reg.Password) < r.cfg.MinPasswordLength {
		return nil, model.ErrWeakPassword
	}

	result := r.validator.Validate(ctx, reg.RegistrationCode)
	if !result.Valid {
		return nil, model.ErrInvalidRegistrationCode
	}
	redeemed, err := r.store.MarkRegistrationCodeUsed(ctx, reg.RegistrationCode)
	if err != nil {
		return nil, err
	}

	user, err := r.store.UpsertUser(ctx, model.User{
		FirstName: reg.FirstName,
		LastName:  reg.LastName,
		Email:     reg.Email,
		GroupName: result.TeamName,
	})
	if err != nil {
		if releaseErr := r.store.ReleaseRegistrationCode(ctx, redeemed.ID); releaseErr != nil {
			r.logger.ErrorContext(ctx, "failed to release registration code",
				slog.String("code_id", redeemed.ID),
				slog.Any("error", releaseErr))
		}
		return nil, err
	}

	r.logger.InfoContext(ctx, "user registered",
		slog.Int("user_id", int(user.ID)),
		slog.String("team", user.GroupName))
	return user, nil
}

// FederatedSignIn finds or creates the local account for a provider
// credential. Resolution order: provider id, supplied email, placeholder
// email, then a new record. The record is always written back so the
// provider id ends up linked.
func (r *Resolver) FederatedSignIn(ctx context.Context, cred federated.Credential) (*model.User, error) {
	cred.ProviderID = strings.TrimSpace(cred.ProviderID)
	cred.Email = strings.TrimSpace(cred.Email)
	if cred.ProviderID == "" {
		return nil, model.ErrInvalidInput
	}

	placeholder := r.PlaceholderEmail(cred.ProviderID)

	user, how, err := r.matchFederated(cred, placeholder)
	if err != nil {
		return nil, err
	}

	if user == nil {
		how = "created"
		user = &model.User{
			FirstName: orDefault(cred.FirstName, PlaceholderFirstName),
			LastName:  orDefault(cred.LastName, PlaceholderLastName),
			Email:     orDefault(cred.Email, placeholder),
		}
	} else if user.FederatedID != "" && user.FederatedID != cred.ProviderID {
		r.logger.WarnContext(ctx, "replacing federated link",
			slog.Int("user_id", int(user.ID)))
	}
	user.FederatedID = cred.ProviderID

	saved, err := r.store.UpsertUser(ctx, *user)
	if err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "federated sign-in",
		slog.Int("user_id", int(saved.ID)),
		slog.String("resolution", how))
	return saved, nil
}

// matchFederated returns the existing record for the credential, or nil
func (r *Resolver) matchFederated(cred federated.Credential, placeholder string) (*model.User, string, error) {
	user, err := r.store.FindUserByFederatedID(cred.ProviderID)
	if err == nil {
		return user, "provider_id", nil
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return nil, "", err
	}

	if cred.Email != "" {
		user, err = r.store.FindUserByEmail(cred.Email)
		if err == nil {
			return user, "email", nil
		}
		if !errors.Is(err, model.ErrUserNotFound) {
			return nil, "", err
		}
	}

	user, err = r.store.FindUserByEmail(placeholder)
	if err == nil {
		// The provider has now revealed the real address
		if cred.Email != "" {
			user.Email = cred.Email
		}
		return user, "placeholder_email", nil
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return nil, "", err
	}

	return nil, "", nil
}

// PlaceholderEmail synthesizes the address used for a provider id whose
// real email was withheld
func (r *Resolver) PlaceholderEmail(providerID string) string {
	var b strings.Builder
	for _, c := range strings.ToLower(providerID) {
		switch {
		case c < unicode.MaxASCII && (unicode.IsLetter(c) || unicode.IsDigit(c)):
			b.WriteRune(c)
		case c == '.' || c == '-' || c == '_':
			b.WriteRune(c)
		}
	}
	local := strings.Trim(b.String(), ".")
	if local == "" {
		local = "user"
	}
	return local + "@" + r.cfg.PlaceholderEmailDomain
}

// IsStored reports whether the user has a record in the store. The
// fallback admin signed in against an empty store does not.
func (r *Resolver) IsStored(user *model.User) bool {
	stored, err := r.store.FindUserByID(user.ID)
	return err == nil && model.SameEmail(stored.Email, user.Email)
}

// ResolveCached maps a vault credential back to the current user record.
// A credential whose user no longer exists is reported as
// model.ErrCredentialsNotFound.
func (r *Resolver) ResolveCached(ctx context.Context, cred model.CachedCredential) (*model.User, error) {
	user, err := r.store.FindUserByID(cred.UserID)
	if errors.Is(err, model.ErrUserNotFound) {
		r.logger.WarnContext(ctx, "cached credential is orphaned", slog.Int("user_id", int(cred.UserID)))
		return nil, model.ErrCredentialsNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func orDefault(value, fallback string) string {
	if value = strings.TrimSpace(value); value == "" {
		return fallback
	}
	return value
}
