package factory

import (
	"context"
	"time"

	"github.com/mcoot/scoutbook/internal/dependencies/mocks"
	"github.com/mcoot/scoutbook/internal/services/session"
	"github.com/mcoot/scoutbook/internal/services/vault"
	"github.com/mcoot/scoutbook/internal/storage/memory"
	"github.com/mcoot/scoutbook/internal/testutil"
)

// TestFederatedSecret signs identity tokens accepted by a TestApp
const TestFederatedSecret = "test-federated-secret"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MemoryStorage *memory.Storage
	MockClock     *mocks.MockClock
	MockRandom    *mocks.MockRandom
	MockSleeper   *mocks.MockSleeper
	Authenticator *vault.StubAuthenticator
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// The vault is backed by a Face ID stub that approves every prompt.
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockSleeper := mocks.NewMockSleeper()
	authenticator := vault.NewStubAuthenticator(vault.KindFaceID)

	cfg := Config{
		Session:              &session.Config{NetworkDelay: time.Second},
		FederatedTokenSecret: TestFederatedSecret,
	}

	app, err := newWithDependencies(context.Background(), store, mockClock, mockRandom, mockSleeper, authenticator, cfg, testutil.NopLogger())
	if err != nil {
		// memory storage cannot fail to load
		panic(err)
	}

	return &TestApp{
		App:           app,
		MemoryStorage: store,
		MockClock:     mockClock,
		MockRandom:    mockRandom,
		MockSleeper:   mockSleeper,
		Authenticator: authenticator,
	}
}
