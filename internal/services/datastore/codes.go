package datastore

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/mcoot/scoutbook/internal/dependencies/random"
	"github.com/mcoot/scoutbook/internal/model"
	"github.com/mcoot/scoutbook/internal/storage"
)

const (
	// GeneratedCodeLength is the length of codes produced by GenerateCode
	GeneratedCodeLength = 8

	maxGenerateAttempts = 16
)

// RegistrationCodes returns a copy of all registration codes in stored order
func (s *Store) RegistrationCodes() []model.RegistrationCode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.codes)
}

// FindRegistrationCode looks a code up by its opaque id
func (s *Store) FindRegistrationCode(id string) (*model.RegistrationCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.codeIndexByID(id); i >= 0 {
		c := s.codes[i]
		return &c, nil
	}
	return nil, model.ErrCodeNotFound
}

// AddRegistrationCode creates an active code. maxUses <= 0 means model.DefaultMaxUses.
func (s *Store) AddRegistrationCode(ctx context.Context, code, teamName string, maxUses int) (*model.RegistrationCode, error) {
	code = strings.TrimSpace(code)
	teamName = strings.TrimSpace(teamName)
	if code == "" || teamName == "" {
		return nil, model.ErrInvalidInput
	}
	if maxUses <= 0 {
		maxUses = model.DefaultMaxUses
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.codeExists(code) {
		return nil, model.ErrCodeExists
	}

	rc := model.RegistrationCode{
		ID:        uuid.NewString(),
		Code:      code,
		TeamName:  teamName,
		IsActive:  true,
		CreatedAt: s.clock.Now(),
		MaxUses:   maxUses,
	}

	updated := append(slices.Clone(s.codes), rc)
	if err := s.persist(ctx, storage.KeyRegistrationCodes, updated); err != nil {
		return nil, err
	}
	s.codes = updated

	s.logger.Info("registration code added",
		slog.String("code_id", rc.ID),
		slog.String("team", teamName),
		slog.Int("max_uses", maxUses))
	return &rc, nil
}

// GenerateCode returns a random code string not already in use
func (s *Store) GenerateCode() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var code string
	for i := 0; i < maxGenerateAttempts; i++ {
		code = s.random.String(GeneratedCodeLength, random.CodeAlphabet)
		if !s.codeExists(code) {
			break
		}
	}
	return code
}

// MarkRegistrationCodeUsed consumes one use of the first redeemable code
// matching the given string.
func (s *Store) MarkRegistrationCodeUsed(ctx context.Context, code string) (*model.RegistrationCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.codes, func(c model.RegistrationCode) bool {
		return c.Matches(code) && c.Redeemable()
	})
	if idx < 0 {
		return nil, model.ErrInvalidRegistrationCode
	}

	updated := slices.Clone(s.codes)
	updated[idx].CurrentUses++

	if err := s.persist(ctx, storage.KeyRegistrationCodes, updated); err != nil {
		return nil, err
	}
	s.codes = updated

	rc := updated[idx]
	s.logger.Info("registration code redeemed",
		slog.String("code_id", rc.ID),
		slog.Int("current_uses", rc.CurrentUses),
		slog.Int("max_uses", rc.MaxUses))
	return &rc, nil
}

// ReleaseRegistrationCode returns one use to the code with the given id.
// It undoes MarkRegistrationCodeUsed when the account write that followed
// it failed.
func (s *Store) ReleaseRegistrationCode(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.codeIndexByID(id)
	if idx < 0 {
		return model.ErrCodeNotFound
	}
	if s.codes[idx].CurrentUses == 0 {
		return nil
	}

	updated := slices.Clone(s.codes)
	updated[idx].CurrentUses--

	if err := s.persist(ctx, storage.KeyRegistrationCodes, updated); err != nil {
		return err
	}
	s.codes = updated

	s.logger.Info("registration code released",
		slog.String("code_id", id),
		slog.Int("current_uses", updated[idx].CurrentUses))
	return nil
}

// SetRegistrationCodeActive enables or disables a code
func (s *Store) SetRegistrationCodeActive(ctx context.Context, id string, active bool) (*model.RegistrationCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.codeIndexByID(id)
	if idx < 0 {
		return nil, model.ErrCodeNotFound
	}

	updated := slices.Clone(s.codes)
	updated[idx].IsActive = active

	if err := s.persist(ctx, storage.KeyRegistrationCodes, updated); err != nil {
		return nil, err
	}
	s.codes = updated

	rc := updated[idx]
	return &rc, nil
}

// DeleteRegistrationCode removes a code by id
func (s *Store) DeleteRegistrationCode(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.codeIndexByID(id)
	if idx < 0 {
		return model.ErrCodeNotFound
	}

	updated := slices.Delete(slices.Clone(s.codes), idx, idx+1)
	if err := s.persist(ctx, storage.KeyRegistrationCodes, updated); err != nil {
		return err
	}
	s.codes = updated

	s.logger.Info("registration code deleted", slog.String("code_id", id))
	return nil
}

func (s *Store) codeIndexByID(id string) int {
	return slices.IndexFunc(s.codes, func(c model.RegistrationCode) bool { return c.ID == id })
}

func (s *Store) codeExists(code string) bool {
	return slices.ContainsFunc(s.codes, func(c model.RegistrationCode) bool { return c.Matches(code) })
}
