package core

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBootstrapDemoUser(t *testing.T) {
	repo := newMemUserRepo()
	svc := NewRepositoryAuthService(repo, bcrypt.MinCost)
	path := filepath.Join(t.TempDir(), "demo_password.secret")
	cfg := Config{DemoUsername: "demo", DemoPasswordPath: path}
	ctx := context.Background()

	require.NoError(t, BootstrapDemoUser(ctx, svc, cfg))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	password := strings.TrimSpace(string(raw))
	assert.Len(t, password, 24)

	_, err = svc.Authenticate(ctx, "demo", password)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// Second run keeps the existing account and password file.
	require.NoError(t, BootstrapDemoUser(ctx, svc, cfg))
	raw2, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(raw), string(raw2))
	assert.Equal(t, 1, repo.count())
}

func TestBootstrapDemoUser_Disabled(t *testing.T) {
	repo := newMemUserRepo()
	require.NoError(t, BootstrapDemoUser(context.Background(), NewRepositoryAuthService(repo, bcrypt.MinCost), Config{}))
	assert.Zero(t, repo.count())
}
