package core

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogging_WritesAuditFile(t *testing.T) {
	prevOut, prevFlags := log.Writer(), log.Flags()
	prevGin, prevGinErr := gin.DefaultWriter, gin.DefaultErrorWriter
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
		gin.DefaultWriter, gin.DefaultErrorWriter = prevGin, prevGinErr
	})

	dir := filepath.Join(t.TempDir(), "logs")
	closer, err := SetupLogging(Config{LogDir: dir}, "")
	require.NoError(t, err)

	log.Printf("[auth] failed login attempt username=%q", "alice")
	_, err = io.WriteString(gin.DefaultWriter, "[GIN] request\n")
	require.NoError(t, err)
	require.NoError(t, closer.Close())

	path := filepath.Join(dir, DefaultLogFile)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `[auth] failed login attempt username="alice"`)
	assert.Contains(t, string(raw), "[GIN] request")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
