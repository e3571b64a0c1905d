package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/keepstackapp/keepstack-server/internal/domain"
	"github.com/keepstackapp/keepstack-server/internal/id"
)

// normalizeEmail lowercases and trims an email for case-insensitive lookups.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser creates a new user. The email index makes duplicate emails a
// conflict regardless of case.
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		generated, err := id.Generate(id.PrefixUser)
		if err != nil {
			return fmt.Errorf("generate user id: %w", err)
		}
		u.ID = generated
	}

	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	if err := s.Users.Create(ctx, u.ID, u); err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("user created", "id", u.ID, "email", normalizeEmail(u.Email))
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.Users.Get(ctx, userID)
}

// GetUserByEmail retrieves a user by email, case-insensitively.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.Users.GetByIndex(ctx, "email", email)
}

// UpdateUser persists a user record, refreshing UpdatedAt.
func (s *Store) UpdateUser(ctx context.Context, u *domain.User) error {
	u.Touch()
	return s.Users.Update(ctx, u.ID, u)
}

// CountUsers returns the number of registered users.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	count := 0
	for _, err := range s.Users.List(ctx) {
		if err != nil {
			return 0, err
		}
		count++
	}
	return count, nil
}
