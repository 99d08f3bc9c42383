package core

import (
	"context"
	"errors"
	"time"
)

// User represents an authenticated principal returned to handlers.
type User struct {
	ID        int64
	Username  string
	CreatedAt time.Time
}

var (
	// ErrInvalidCredentials is returned when username/password is wrong.
	// It never says which of the two was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists is returned by registration when the username is taken.
	ErrUserExists = errors.New("username already exists")
	// ErrInvalidInput is returned when username or password is empty.
	ErrInvalidInput = errors.New("username and password are required")
	// ErrSignupFailed hides backend failures during registration.
	ErrSignupFailed = errors.New("error during signup")
	// ErrLoginFailed hides backend failures during authentication.
	ErrLoginFailed = errors.New("error during login")
)

// AuthService defines registration and authentication behaviour.
type AuthService interface {
	Register(ctx context.Context, username, password string) (User, error)
	Authenticate(ctx context.Context, username, password string) (User, error)
}
