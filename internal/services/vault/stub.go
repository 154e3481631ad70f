package vault

import (
	"context"
	"sync"

	"github.com/mcoot/scoutbook/internal/model"
)

// StubAuthenticator is a scriptable Authenticator for tests and for
// servers without a device policy
type StubAuthenticator struct {
	mu          sync.Mutex
	kind        BiometryKind
	enrollment  []byte
	result      error
	block       bool
	evaluations []string
}

// Ensure StubAuthenticator implements Authenticator
var _ Authenticator = (*StubAuthenticator)(nil)

// NewStubAuthenticator creates a stub of the given kind that approves every
// prompt. KindNone makes it unavailable.
func NewStubAuthenticator(kind BiometryKind) *StubAuthenticator {
	return &StubAuthenticator{kind: kind, enrollment: []byte("enrollment-1")}
}

func (a *StubAuthenticator) Availability() Availability {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.kind == KindNone || a.kind == "" {
		return Unavailable
	}
	return Availability{Available: true, Kind: a.kind}
}

func (a *StubAuthenticator) EnrollmentState() ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.kind == KindNone || a.kind == "" {
		return nil, model.ErrBiometryUnavailable
	}
	return append([]byte(nil), a.enrollment...), nil
}

func (a *StubAuthenticator) Evaluate(ctx context.Context, reason string) error {
	a.mu.Lock()
	a.evaluations = append(a.evaluations, reason)
	block, result := a.block, a.result
	a.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return result
}

// SetKind changes the reported device policy
func (a *StubAuthenticator) SetKind(kind BiometryKind) {
	a.mu.Lock()
	a.kind = kind
	a.mu.Unlock()
}

// SetEnrollment simulates the user changing their enrolled biometrics
func (a *StubAuthenticator) SetEnrollment(state string) {
	a.mu.Lock()
	a.enrollment = []byte(state)
	a.mu.Unlock()
}

// SetResult sets the error returned by Evaluate (nil approves)
func (a *StubAuthenticator) SetResult(err error) {
	a.mu.Lock()
	a.result = err
	a.mu.Unlock()
}

// SetBlocking makes Evaluate wait until its context is cancelled
func (a *StubAuthenticator) SetBlocking(block bool) {
	a.mu.Lock()
	a.block = block
	a.mu.Unlock()
}

// Evaluations returns the reasons passed to Evaluate so far
func (a *StubAuthenticator) Evaluations() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.evaluations...)
}
