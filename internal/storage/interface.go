package storage

import (
	"context"
)

// Fixed record keys. Each collection is persisted whole under its own key.
const (
	KeyReports           = "reports"
	KeyRegistrationCodes = "registration_codes"
	KeyUsers             = "users"
)

// Storage defines the key-value interface for data persistence
type Storage interface {
	// Get returns the stored bytes, or model.ErrRecordNotFound
	Get(ctx context.Context, key string) ([]byte, error)
	// Set replaces the value stored under key
	Set(ctx context.Context, key string, data []byte) error
	// Delete removes key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error
	// Exists reports whether key holds a value
	Exists(ctx context.Context, key string) (bool, error)
}
