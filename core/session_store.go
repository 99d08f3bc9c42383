package core

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

const (
	// SessionTokenBytes is the amount of randomness in a session token (64 hex chars).
	SessionTokenBytes = 32
	// SessionKeyPrefix namespaces session records in Redis.
	SessionKeyPrefix = "session:"
)

// ErrSessionNotFound is returned for unknown, expired or destroyed tokens.
var ErrSessionNotFound = errors.New("session not found")

// WebSession is the server-side record a session token maps to.
type WebSession struct {
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionStore issues and resolves opaque session tokens.
type SessionStore interface {
	Create(ctx context.Context, username string) (string, error)
	Lookup(ctx context.Context, token string) (WebSession, error)
	Destroy(ctx context.Context, token string) error
}

// RedisSessionStore keeps sessions in Redis under the SHA-256 of the token.
// Expiry is a Redis TTL.
type RedisSessionStore struct {
	client redis.Cmdable
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisSessionStore(client redis.Cmdable, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = 5 * time.Hour
	}
	return &RedisSessionStore{client: client, ttl: ttl, now: time.Now}
}

// Create generates a fresh token bound to username and returns the plaintext token.
func (s *RedisSessionStore) Create(ctx context.Context, username string) (string, error) {
	if strings.TrimSpace(username) == "" {
		return "", oops.Code("SESSION_INVALID_USER").Errorf("username cannot be empty")
	}
	token, err := generateSessionToken()
	if err != nil {
		return "", err
	}

	now := s.now()
	payload, err := json.Marshal(WebSession{Username: username, CreatedAt: now, ExpiresAt: now.Add(s.ttl)})
	if err != nil {
		return "", oops.Code("SESSION_STORE_FAILED").Wrap(err)
	}
	// SETNX: a colliding token must never overwrite a live session.
	ok, err := s.client.SetNX(ctx, sessionKey(token), payload, s.ttl).Result()
	if err != nil {
		return "", oops.Code("SESSION_STORE_FAILED").With("operation", "create session").Wrap(err)
	}
	if !ok {
		return "", oops.Code("SESSION_TOKEN_COLLISION").Errorf("session token collision")
	}
	return token, nil
}

// Lookup resolves token to its session. Missing or expired tokens yield ErrSessionNotFound.
func (s *RedisSessionStore) Lookup(ctx context.Context, token string) (WebSession, error) {
	if !validTokenFormat(token) {
		return WebSession{}, ErrSessionNotFound
	}
	raw, err := s.client.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return WebSession{}, ErrSessionNotFound
		}
		return WebSession{}, oops.Code("SESSION_STORE_FAILED").With("operation", "lookup session").Wrap(err)
	}
	var ws WebSession
	if err := json.Unmarshal(raw, &ws); err != nil {
		return WebSession{}, oops.Code("SESSION_CORRUPT").Wrap(err)
	}
	if !ws.ExpiresAt.IsZero() && s.now().After(ws.ExpiresAt) {
		return WebSession{}, ErrSessionNotFound
	}
	return ws, nil
}

// Destroy removes the session; unknown tokens are not an error.
func (s *RedisSessionStore) Destroy(ctx context.Context, token string) error {
	if !validTokenFormat(token) {
		return nil
	}
	if err := s.client.Del(ctx, sessionKey(token)).Err(); err != nil {
		return oops.Code("SESSION_STORE_FAILED").With("operation", "destroy session").Wrap(err)
	}
	return nil
}

func generateSessionToken() (string, error) {
	b := make([]byte, SessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", oops.Code("SESSION_TOKEN_GENERATE_FAILED").
			With("requested_bytes", SessionTokenBytes).
			Wrap(err)
	}
	return hex.EncodeToString(b), nil
}

// HashSessionToken returns the hex SHA-256 of token, used as the storage key.
func HashSessionToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

func sessionKey(token string) string {
	return SessionKeyPrefix + HashSessionToken(token)
}

func validTokenFormat(token string) bool {
	if len(token) != SessionTokenBytes*2 {
		return false
	}
	_, err := hex.DecodeString(token)
	return err == nil
}
