package core

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const storeTimeout = 3 * time.Second

// RepositoryAuthService wraps the user repository with bcrypt hashing.
type RepositoryAuthService struct {
	users UserRepository
	cost  int

	dummyOnce sync.Once
	dummyHash []byte
}

// NewRepositoryAuthService builds the service. Costs outside bcrypt's range fall back to bcrypt.DefaultCost.
func NewRepositoryAuthService(users UserRepository, cost int) *RepositoryAuthService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &RepositoryAuthService{users: users, cost: cost}
}

// Register stores a new user with a bcrypt hash of password. The username is
// stored exactly as submitted so Authenticate can find it with the same value.
//
// The FindByUsername pre-check only produces the friendly duplicate message; two
// concurrent registrations can both pass it, and the unique constraint on
// users.username then rejects the second insert with ErrDuplicateUsername.
func (s *RepositoryAuthService) Register(ctx context.Context, username, password string) (User, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return User{}, ErrInvalidInput
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	existing, err := s.users.FindByUsername(ctx, username)
	switch {
	case err == nil && existing != nil:
		log.Printf("[auth] signup rejected: username exists username=%q", username)
		return User{}, ErrUserExists
	case err != nil && !errors.Is(err, ErrUserNotFound):
		log.Printf("[auth] signup lookup error username=%q err=%v", username, err)
		return User{}, ErrSignupFailed
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return User{}, ErrInvalidInput
		}
		log.Printf("[auth] signup hash error username=%q err=%v", username, err)
		return User{}, ErrSignupFailed
	}

	id, err := s.users.Create(ctx, username, string(hash))
	if err != nil {
		if errors.Is(err, ErrDuplicateUsername) {
			log.Printf("[auth] signup rejected by unique constraint username=%q", username)
			return User{}, ErrUserExists
		}
		log.Printf("[auth] signup insert error username=%q err=%v", username, err)
		return User{}, ErrSignupFailed
	}

	log.Printf("[auth] new user signed up username=%q id=%d", username, id)
	return User{ID: id, Username: username, CreatedAt: time.Now()}, nil
}

// Authenticate verifies password against the stored hash for username.
// Unknown users and wrong passwords both return ErrInvalidCredentials.
func (s *RepositoryAuthService) Authenticate(ctx context.Context, username, password string) (User, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return User{}, ErrInvalidCredentials
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Same bcrypt work as a real mismatch.
			_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
			log.Printf("[auth] failed login attempt username=%q", username)
			return User{}, ErrInvalidCredentials
		}
		log.Printf("[auth] login lookup error username=%q err=%v", username, err)
		return User{}, ErrLoginFailed
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		log.Printf("[auth] failed login attempt username=%q", username)
		return User{}, ErrInvalidCredentials
	}

	log.Printf("[auth] successful login username=%q", username)
	return User{
		ID:        u.ID,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
	}, nil
}

func (s *RepositoryAuthService) dummy() []byte {
	s.dummyOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.cost)
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}
