package datastore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mcoot/scoutbook/internal/dependencies/clock"
	"github.com/mcoot/scoutbook/internal/dependencies/random"
	"github.com/mcoot/scoutbook/internal/model"
	"github.com/mcoot/scoutbook/internal/storage"
)

// Store is the credential store: users, registration codes and reports.
//
// Each collection is held in memory and written back whole to its storage
// key on every mutation. A mutation is applied to a copy first and only
// becomes visible once the write has succeeded.
type Store struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger

	mu           sync.RWMutex
	users        []model.User
	codes        []model.RegistrationCode
	reports      []model.Report
	lastReportID model.ReportID
}

// New creates a Store. Call Load before use.
func New(storage storage.Storage, clock clock.Clock, random random.Random, logger *slog.Logger) *Store {
	return &Store{
		storage: storage,
		clock:   clock,
		random:  random,
		logger:  logger.With(slog.String("component", "datastore")),
	}
}

// Load reads all collections from storage, seeding demo data for any
// collection that has never been written.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := loadCollection(ctx, s, storage.KeyUsers, s.demoUsers)
	if err != nil {
		return err
	}
	codes, err := loadCollection(ctx, s, storage.KeyRegistrationCodes, s.demoCodes)
	if err != nil {
		return err
	}
	reports, err := loadCollection(ctx, s, storage.KeyReports, s.demoReports)
	if err != nil {
		return err
	}

	s.users = users
	s.codes = codes
	s.reports = reports
	s.lastReportID = maxReportID(reports)

	s.logger.Info("credential store loaded",
		slog.Int("users", len(users)),
		slog.Int("registration_codes", len(codes)),
		slog.Int("reports", len(reports)))
	return nil
}

// loadCollection decodes the collection under key, or seeds and persists it when absent
func loadCollection[T any](ctx context.Context, s *Store, key string, seed func() []T) ([]T, error) {
	data, err := s.storage.Get(ctx, key)
	if errors.Is(err, model.ErrRecordNotFound) {
		items := seed()
		if err := s.persist(ctx, key, items); err != nil {
			return nil, err
		}
		s.logger.Info("seeded demo data", slog.String("key", key), slog.Int("count", len(items)))
		return items, nil
	}
	if err != nil {
		return nil, &model.StorageError{Op: "get", Key: key, Err: err}
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, &model.StorageError{Op: "decode", Key: key, Err: err}
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// persist serializes the full collection and writes it under key
func (s *Store) persist(ctx context.Context, key string, items any) error {
	data, err := json.Marshal(items)
	if err != nil {
		s.logger.Error("failed to encode collection", slog.String("key", key), slog.Any("error", err))
		return &model.StorageError{Op: "encode", Key: key, Err: err}
	}
	if err := s.storage.Set(ctx, key, data); err != nil {
		s.logger.Error("failed to persist collection", slog.String("key", key), slog.Any("error", err))
		return &model.StorageError{Op: "set", Key: key, Err: err}
	}
	return nil
}

// Export returns the serialized form of a collection as it would be persisted
func (s *Store) Export(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch key {
	case storage.KeyUsers:
		return json.Marshal(s.users)
	case storage.KeyRegistrationCodes:
		return json.Marshal(s.codes)
	case storage.KeyReports:
		return json.Marshal(s.reports)
	default:
		return nil, fmt.Errorf("unknown collection %q", key)
	}
}
