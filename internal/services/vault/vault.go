package vault

import (
	"context"

	"github.com/mcoot/scoutbook/internal/model"
)

// BiometryKind names the device policy used to unlock the vault
type BiometryKind string

const (
	KindNone     BiometryKind = "none"
	KindPasscode BiometryKind = "passcode"
	KindTouchID  BiometryKind = "touch_id"
	KindFaceID   BiometryKind = "face_id"
)

// Availability reports whether the vault can be used and how it is unlocked
type Availability struct {
	Available bool         `json:"available"`
	Kind      BiometryKind `json:"kind"`
}

// Unavailable is the availability of a device without any usable policy
var Unavailable = Availability{Available: false, Kind: KindNone}

// Vault caches the last signed-in identity behind a device check.
// Only one credential is held at a time.
type Vault interface {
	// IsAvailable reports the device policy without prompting
	IsAvailable() Availability

	// HasCredential probes for a cached entry without prompting
	HasCredential(ctx context.Context) bool

	// Store replaces any cached credential
	Store(ctx context.Context, cred model.CachedCredential) error

	// Authenticate prompts with reason and returns the cached credential.
	// Fails with model.ErrCredentialsNotFound, model.ErrAuthenticationFailed
	// or model.ErrVaultUnavailable.
	Authenticate(ctx context.Context, reason string) (model.CachedCredential, error)

	// Clear removes the cached credential, if any
	Clear(ctx context.Context) error
}

// Authenticator is the device check guarding the vault
type Authenticator interface {
	Availability() Availability

	// EnrollmentState identifies the current enrollment. Entries sealed
	// under one enrollment cannot be opened under another.
	EnrollmentState() ([]byte, error)

	// Evaluate prompts the user. A cancelled or failed check returns
	// model.ErrAuthenticationFailed.
	Evaluate(ctx context.Context, reason string) error
}
