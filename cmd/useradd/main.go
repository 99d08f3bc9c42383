package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"os/user"
	"strings"
	"syscall"

	"secure-authflow/core"
)

// useradd registers an account through the same path as POST /signup.
// The password is read from the first line of stdin.
func main() {
	username := flag.String("username", "", "account to create")
	flag.Parse()

	cfg, err := core.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logCloser, err := core.SetupLogging(cfg, "useradd.log")
	if err != nil {
		log.Fatalf("failed to setup logging: %v", err)
	}
	defer logCloser.Close()

	password, err := readPassword(os.Stdin)
	if err != nil {
		log.Fatalf("failed to read password: %v", err)
	}

	db, err := core.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer db.Close()
	if err := core.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("failed to apply schema: %v", err)
	}

	operator := "unknown"
	if current, _ := user.Current(); current != nil && current.Username != "" {
		operator = current.Username
	}

	auth := core.NewRepositoryAuthService(core.NewPgUserRepository(db), cfg.BcryptCost)
	created, err := auth.Register(ctx, *username, password)
	switch {
	case errors.Is(err, core.ErrUserExists):
		log.Fatalf("username %q already exists", *username)
	case errors.Is(err, core.ErrInvalidInput):
		log.Fatalf("username and password are required")
	case err != nil:
		log.Fatalf("signup failed: %v", err)
	}
	log.Printf("user created id=%d username=%s operator=%s", created.ID, created.Username, operator)
	fmt.Println(created.Username)
}

func readPassword(f *os.File) (string, error) {
	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
