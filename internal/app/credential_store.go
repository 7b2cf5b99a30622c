package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"remobot/internal/model"
	"remobot/internal/repository"
)

const maxPasswordBytes = 72

// CredentialStore keeps username/password-hash pairs. Hashes are salted
// bcrypt digests.
type CredentialStore struct {
	users *repository.UserRepository
	cost  int
}

func NewCredentialStore(users *repository.UserRepository, cost int) *CredentialStore {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &CredentialStore{users: users, cost: cost}
}

// Register stores a new user. It reports false when the normalized username
// is already taken, and fails with ErrInvalidInput or ErrPasswordTooLong on
// unusable input.
func (s *CredentialStore) Register(ctx context.Context, username, password string) (bool, error) {
	_, err := s.register(ctx, username, password)
	if errors.Is(err, ErrUsernameExists) {
		return false, nil
	}
	return err == nil, err
}

// Verify reports whether password matches the stored hash for username.
func (s *CredentialStore) Verify(ctx context.Context, username, password string) (bool, error) {
	user, err := s.authenticate(ctx, username, password)
	if err != nil {
		return false, err
	}
	return user != nil, nil
}

func (s *CredentialStore) register(ctx context.Context, username, password string) (*model.User, error) {
	normalized := model.NormalizeUsername(username)
	if normalized == "" || strings.TrimSpace(password) == "" {
		return nil, ErrInvalidInput
	}
	// bcrypt only reads the first 72 bytes.
	if len(password) > maxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	existing, err := s.users.GetByUsername(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password failed: %w", err)
	}

	user := &model.User{Username: normalized, PasswordHash: string(hash)}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUsernameExists
		}
		return nil, err
	}
	return user, nil
}

// authenticate returns the user on a match and nil on any mismatch.
func (s *CredentialStore) authenticate(ctx context.Context, username, password string) (*model.User, error) {
	normalized := model.NormalizeUsername(username)
	if normalized == "" || password == "" {
		return nil, nil
	}
	user, err := s.users.GetByUsername(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil
	}
	return user, nil
}
