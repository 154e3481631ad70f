package vault

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/scoutbook/internal/model"
)

// ErrNoPasscode is returned by a Prompter that has nothing to offer
var ErrNoPasscode = errors.New("no passcode supplied")

// Prompter asks the user for their passcode
type Prompter interface {
	Prompt(ctx context.Context, reason string) (string, error)
}

// PromptFunc adapts a function to Prompter
type PromptFunc func(ctx context.Context, reason string) (string, error)

func (f PromptFunc) Prompt(ctx context.Context, reason string) (string, error) {
	return f(ctx, reason)
}

// PasscodeAuthenticator guards the vault with a bcrypt-hashed passcode.
// The hash doubles as the enrollment state, so changing the passcode
// invalidates cached credentials.
type PasscodeAuthenticator struct {
	hash     []byte
	prompter Prompter
}

// Ensure PasscodeAuthenticator implements Authenticator
var _ Authenticator = (*PasscodeAuthenticator)(nil)

// NewPasscodeAuthenticator creates an authenticator for a bcrypt hash.
// An empty hash makes it unavailable.
func NewPasscodeAuthenticator(hash string, prompter Prompter) *PasscodeAuthenticator {
	return &PasscodeAuthenticator{hash: []byte(hash), prompter: prompter}
}

// HashPasscode returns the bcrypt hash to configure a PasscodeAuthenticator with
func HashPasscode(passcode string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (a *PasscodeAuthenticator) Availability() Availability {
	if len(a.hash) == 0 || a.prompter == nil {
		return Unavailable
	}
	return Availability{Available: true, Kind: KindPasscode}
}

func (a *PasscodeAuthenticator) EnrollmentState() ([]byte, error) {
	if len(a.hash) == 0 {
		return nil, model.ErrBiometryUnavailable
	}
	return a.hash, nil
}

func (a *PasscodeAuthenticator) Evaluate(ctx context.Context, reason string) error {
	if !a.Availability().Available {
		return model.ErrBiometryUnavailable
	}
	passcode, err := a.prompter.Prompt(ctx, reason)
	if err != nil {
		if errors.Is(err, ErrNoPasscode) || errors.Is(err, context.Canceled) {
			return model.ErrAuthenticationFailed
		}
		return fmt.Errorf("passcode prompt: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(passcode)); err != nil {
		return model.ErrAuthenticationFailed
	}
	return nil
}

type passcodeKey struct{}

// WithPasscode attaches a passcode to ctx for ContextPrompter
func WithPasscode(ctx context.Context, passcode string) context.Context {
	return context.WithValue(ctx, passcodeKey{}, passcode)
}

// ContextPrompter answers the prompt with the passcode carried by the
// request context, for callers that collected it up front.
type ContextPrompter struct{}

func (ContextPrompter) Prompt(ctx context.Context, reason string) (string, error) {
	passcode, ok := ctx.Value(passcodeKey{}).(string)
	if !ok || passcode == "" {
		return "", ErrNoPasscode
	}
	return passcode, nil
}
