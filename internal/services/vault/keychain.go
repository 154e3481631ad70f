package vault

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/mcoot/scoutbook/internal/async"
	"github.com/mcoot/scoutbook/internal/model"
	"github.com/mcoot/scoutbook/internal/storage"
)

// Key derivation parameters for sealing entries
const (
	argonTime    = 2
	argonMemory  = 19 * 1024
	argonThreads = 1
	saltLength   = 16

	entryVersion = 1
)

// Config holds the vault's service/account pair
type Config struct {
	Service string
	Account string
}

// DefaultConfig returns the standard service/account pair
func DefaultConfig() Config {
	return Config{
		Service: "com.scoutbook.credentials",
		Account: "biometric-user",
	}
}

// entry is the persisted, sealed form of a cached credential
type entry struct {
	Version    int    `json:"version"`
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// Keychain is a Vault persisted in a storage backend. The entry is sealed
// with a key derived from the authenticator's enrollment state, so changing
// the enrollment invalidates it.
type Keychain struct {
	storage storage.Storage
	auth    Authenticator
	key     string
	label   []byte
	logger  *slog.Logger
}

// Ensure Keychain implements Vault
var _ Vault = (*Keychain)(nil)

// NewKeychain creates a Keychain. Zero config fields take their defaults.
func NewKeychain(storage storage.Storage, auth Authenticator, cfg Config, logger *slog.Logger) *Keychain {
	defaults := DefaultConfig()
	if cfg.Service == "" {
		cfg.Service = defaults.Service
	}
	if cfg.Account == "" {
		cfg.Account = defaults.Account
	}
	return &Keychain{
		storage: storage,
		auth:    auth,
		key:     EntryKey(cfg),
		label:   []byte(cfg.Service + ":" + cfg.Account),
		logger:  logger.With(slog.String("component", "vault")),
	}
}

// EntryKey is the storage key of the entry for a service/account pair
func EntryKey(cfg Config) string {
	return "vault:" + cfg.Service + ":" + cfg.Account
}

func (k *Keychain) IsAvailable() Availability {
	return k.auth.Availability()
}

func (k *Keychain) HasCredential(ctx context.Context) bool {
	exists, err := k.storage.Exists(ctx, k.key)
	if err != nil {
		k.logger.WarnContext(ctx, "failed to probe vault", slog.Any("error", err))
		return false
	}
	return exists
}

func (k *Keychain) Store(ctx context.Context, cred model.CachedCredential) error {
	if !k.auth.Availability().Available {
		return model.ErrBiometryUnavailable
	}
	enrollment, err := k.auth.EnrollmentState()
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrBiometryUnavailable, err)
	}

	plaintext, err := json.Marshal(cred)
	if err != nil {
		return err
	}
	sealed, err := k.seal(enrollment, plaintext)
	if err != nil {
		return err
	}
	data, err := json.Marshal(sealed)
	if err != nil {
		return err
	}

	if err := k.storage.Delete(ctx, k.key); err != nil {
		return &model.StorageError{Op: "delete", Key: k.key, Err: err}
	}
	if err := k.storage.Set(ctx, k.key, data); err != nil {
		return &model.StorageError{Op: "set", Key: k.key, Err: err}
	}

	k.logger.InfoContext(ctx, "credential cached", slog.Int("user_id", int(cred.UserID)))
	return nil
}

func (k *Keychain) Authenticate(ctx context.Context, reason string) (model.CachedCredential, error) {
	data, err := k.storage.Get(ctx, k.key)
	if errors.Is(err, model.ErrRecordNotFound) {
		return model.CachedCredential{}, model.ErrCredentialsNotFound
	}
	if err != nil {
		return model.CachedCredential{}, fmt.Errorf("%w: %v", model.ErrVaultUnavailable, err)
	}

	if !k.auth.Availability().Available {
		return model.CachedCredential{}, model.ErrBiometryUnavailable
	}

	prompt := async.Go(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, k.auth.Evaluate(ctx, reason)
	})
	if _, err := prompt.Await(ctx); err != nil {
		prompt.Cancel()
		if errors.Is(err, model.ErrAuthenticationFailed) ||
			errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return model.CachedCredential{}, model.ErrAuthenticationFailed
		}
		return model.CachedCredential{}, fmt.Errorf("%w: %v", model.ErrVaultUnavailable, err)
	}

	enrollment, err := k.auth.EnrollmentState()
	if err != nil {
		return model.CachedCredential{}, fmt.Errorf("%w: %v", model.ErrVaultUnavailable, err)
	}

	var sealed entry
	if err := json.Unmarshal(data, &sealed); err != nil {
		return k.discard(ctx, "unreadable entry", err)
	}
	plaintext, err := k.open(enrollment, sealed)
	if err != nil {
		return k.discard(ctx, "enrollment changed", err)
	}

	var cred model.CachedCredential
	if err := json.Unmarshal(plaintext, &cred); err != nil {
		return k.discard(ctx, "unreadable credential", err)
	}
	return cred, nil
}

// discard removes an entry that can no longer be opened
func (k *Keychain) discard(ctx context.Context, why string, cause error) (model.CachedCredential, error) {
	k.logger.WarnContext(ctx, "discarding cached credential",
		slog.String("reason", why),
		slog.Any("error", cause))
	if err := k.storage.Delete(ctx, k.key); err != nil {
		k.logger.ErrorContext(ctx, "failed to discard cached credential", slog.Any("error", err))
	}
	return model.CachedCredential{}, model.ErrCredentialsNotFound
}

func (k *Keychain) Clear(ctx context.Context) error {
	if err := k.storage.Delete(ctx, k.key); err != nil {
		return &model.StorageError{Op: "delete", Key: k.key, Err: err}
	}
	return nil
}

func (k *Keychain) seal(enrollment, plaintext []byte) (*entry, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(deriveKey(enrollment, salt))
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return &entry{
		Version:    entryVersion,
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: aead.Seal(nil, nonce, plaintext, k.label),
	}, nil
}

func (k *Keychain) open(enrollment []byte, e entry) ([]byte, error) {
	if e.Version != entryVersion {
		return nil, fmt.Errorf("unsupported entry version %d", e.Version)
	}
	aead, err := chacha20poly1305.NewX(deriveKey(enrollment, e.Salt))
	if err != nil {
		return nil, err
	}
	if len(e.Nonce) != aead.NonceSize() {
		return nil, errors.New("bad nonce")
	}
	return aead.Open(nil, e.Nonce, e.Ciphertext, k.label)
}

func deriveKey(enrollment, salt []byte) []byte {
	return argon2.IDKey(enrollment, salt, argonTime, argonMemory, argonThreads, chacha20poly1305.KeySize)
}
