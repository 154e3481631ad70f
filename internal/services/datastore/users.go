package datastore

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/mcoot/scoutbook/internal/model"
	"github.com/mcoot/scoutbook/internal/storage"
)

// Users returns a copy of all users in stored order
func (s *Store) Users() []model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.users)
}

// FindUserByEmail looks a user up by case-insensitive email
func (s *Store) FindUserByEmail(email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexByEmail(email); i >= 0 {
		u := s.users[i]
		return &u, nil
	}
	return nil, model.ErrUserNotFound
}

// FindUserByID looks a user up by id
func (s *Store) FindUserByID(id model.UserID) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexByID(id); i >= 0 {
		u := s.users[i]
		return &u, nil
	}
	return nil, model.ErrUserNotFound
}

// FindUserByFederatedID looks a user up by linked provider identifier
func (s *Store) FindUserByFederatedID(federatedID string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexByFederatedID(federatedID); i >= 0 {
		u := s.users[i]
		return &u, nil
	}
	return nil, model.ErrUserNotFound
}

// NextUserID returns the id the next new user would receive
func (s *Store) NextUserID() model.UserID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextUserID()
}

// UpsertUser updates the record matching the user's id, federated id or
// email (in that order) in place, or appends it as a new record.
// A new record with a zero id is assigned the next id.
func (s *Store) UpsertUser(ctx context.Context, user model.User) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.Email = strings.TrimSpace(user.Email)

	idx := -1
	if user.ID != 0 {
		idx = s.indexByID(user.ID)
	}
	if idx < 0 && user.FederatedID != "" {
		idx = s.indexByFederatedID(user.FederatedID)
	}
	if idx < 0 {
		idx = s.indexByEmail(user.Email)
	}

	// Uniqueness is checked against every other record
	for i := range s.users {
		if i == idx {
			continue
		}
		if model.SameEmail(s.users[i].Email, user.Email) {
			return nil, model.ErrEmailAlreadyExists
		}
		if user.FederatedID != "" && s.users[i].FederatedID == user.FederatedID {
			return nil, model.ErrFederatedInUse
		}
	}

	updated := slices.Clone(s.users)
	if idx >= 0 {
		existing := updated[idx]
		user.ID = existing.ID
		user.CreatedAt = existing.CreatedAt
		updated[idx] = user
	} else {
		if user.ID == 0 {
			user.ID = s.nextUserID()
		}
		if user.CreatedAt.IsZero() {
			user.CreatedAt = s.clock.Now()
		}
		updated = append(updated, user)
	}

	if err := s.persist(ctx, storage.KeyUsers, updated); err != nil {
		return nil, err
	}
	s.users = updated

	if idx >= 0 {
		s.logger.Info("user updated", slog.Int("user_id", int(user.ID)))
	} else {
		s.logger.Info("user created", slog.Int("user_id", int(user.ID)))
	}
	return &user, nil
}

// UpdateUserAdminStatus sets or clears the admin flag. Demoting the last
// admin fails with model.ErrLastAdmin.
func (s *Store) UpdateUserAdminStatus(ctx context.Context, id model.UserID, isAdmin bool) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexByID(id)
	if idx < 0 {
		return nil, model.ErrUserNotFound
	}
	if s.users[idx].IsAdmin == isAdmin {
		u := s.users[idx]
		return &u, nil
	}
	if !isAdmin && s.adminCount() <= 1 {
		return nil, model.ErrLastAdmin
	}

	updated := slices.Clone(s.users)
	updated[idx].IsAdmin = isAdmin

	if err := s.persist(ctx, storage.KeyUsers, updated); err != nil {
		return nil, err
	}
	s.users = updated

	s.logger.Info("user admin status changed",
		slog.Int("user_id", int(id)),
		slog.Bool("is_admin", isAdmin))
	u := updated[idx]
	return &u, nil
}

// DeleteUser removes a user. Deleting the last admin fails with
// model.ErrLastAdmin and leaves the store unchanged.
func (s *Store) DeleteUser(ctx context.Context, id model.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexByID(id)
	if idx < 0 {
		return model.ErrUserNotFound
	}
	if s.users[idx].IsAdmin && s.adminCount() <= 1 {
		s.logger.Warn("refused to delete last admin", slog.Int("user_id", int(id)))
		return model.ErrLastAdmin
	}

	updated := slices.Delete(slices.Clone(s.users), idx, idx+1)
	if err := s.persist(ctx, storage.KeyUsers, updated); err != nil {
		return err
	}
	s.users = updated

	s.logger.Info("user deleted", slog.Int("user_id", int(id)))
	return nil
}

func (s *Store) indexByID(id model.UserID) int {
	return slices.IndexFunc(s.users, func(u model.User) bool { return u.ID == id })
}

func (s *Store) indexByEmail(email string) int {
	if strings.TrimSpace(email) == "" {
		return -1
	}
	return slices.IndexFunc(s.users, func(u model.User) bool { return model.SameEmail(u.Email, email) })
}

func (s *Store) indexByFederatedID(federatedID string) int {
	if federatedID == "" {
		return -1
	}
	return slices.IndexFunc(s.users, func(u model.User) bool { return u.FederatedID == federatedID })
}

func (s *Store) nextUserID() model.UserID {
	var maxID model.UserID
	for _, u := range s.users {
		maxID = max(maxID, u.ID)
	}
	return maxID + 1
}

func (s *Store) adminCount() int {
	n := 0
	for _, u := range s.users {
		if u.IsAdmin {
			n++
		}
	}
	return n
}
