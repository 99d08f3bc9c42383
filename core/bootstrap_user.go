package core

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log"
	"os"
)

// BootstrapDemoUser creates cfg.DemoUsername with a random password when configured.
// It is idempotent: if the user already exists, it does nothing.
func BootstrapDemoUser(ctx context.Context, auth AuthService, cfg Config) error {
	if cfg.DemoUsername == "" {
		return nil
	}

	password, err := generatePassword(24)
	if err != nil {
		return err
	}

	if _, err := auth.Register(ctx, cfg.DemoUsername, password); err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil
		}
		return err
	}

	if cfg.DemoPasswordPath != "" {
		if err := os.WriteFile(cfg.DemoPasswordPath, []byte(password+"\n"), 0o600); err != nil {
			return err
		}
		log.Printf("demo user created username=%s; password written to %s", cfg.DemoUsername, cfg.DemoPasswordPath)
	} else {
		log.Printf("demo user created username=%s password=%s", cfg.DemoUsername, password)
	}

	return nil
}

func generatePassword(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("password length must be positive")
	}
	// base64 encoding: need 3/4 overhead; ensure enough bytes
	raw := make([]byte, length)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw)[:length], nil
}
