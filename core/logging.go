package core

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

// DefaultLogFile is the audit log the API process writes.
const DefaultLogFile = "security.log"

// SetupLogging points std log and gin's writers at stdout plus an append-only
// file in cfg.LogDir. That file is the security audit trail: signups, duplicate
// signups, login successes and failures, CSRF, origin and API-key rejections and
// rate-limit hits all go through log.Printf with [component] prefixes. Passwords
// and session tokens are never logged.
// Caller should close the returned io.Closer on shutdown.
func SetupLogging(cfg Config, filename string) (io.Closer, error) {
	dir := cfg.LogDir
	if dir == "" {
		dir = "./logs"
	}
	if filename == "" {
		filename = DefaultLogFile
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create log dir %s: %w", dir, err)
	}

	// Usernames and client IPs end up here.
	path := filepath.Join(dir, filename)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	mw := io.MultiWriter(os.Stdout, f)
	log.SetOutput(mw)
	log.SetFlags(log.LstdFlags | log.LUTC)
	gin.DefaultWriter = mw
	gin.DefaultErrorWriter = mw

	return f, nil
}
