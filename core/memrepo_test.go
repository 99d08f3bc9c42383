package core

import (
	"context"
	"sync"
	"time"
)

// memUserRepo is an in-memory UserRepository that enforces username uniqueness
// on Create the same way the users_username_key constraint does.
type memUserRepo struct {
	mu     sync.Mutex
	users  map[string]UserRecord
	nextID int64

	findErr   error
	createErr error
	// blindLookup makes FindByUsername always miss, as a request racing another
	// registration would see it.
	blindLookup bool
	lookups     []string
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[string]UserRecord{}}
}

func (r *memUserRepo) FindByUsername(_ context.Context, username string) (*UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups = append(r.lookups, username)
	if r.findErr != nil {
		return nil, r.findErr
	}
	if r.blindLookup {
		return nil, ErrUserNotFound
	}
	u, ok := r.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (r *memUserRepo) Create(_ context.Context, username, passwordHash string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return 0, r.createErr
	}
	if _, ok := r.users[username]; ok {
		return 0, ErrDuplicateUsername
	}
	r.nextID++
	r.users[username] = UserRecord{ID: r.nextID, Username: username, PasswordHash: passwordHash, CreatedAt: time.Now()}
	return r.nextID, nil
}

// failWith makes subsequent calls return the given errors; nil clears them.
func (r *memUserRepo) failWith(findErr, createErr error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findErr = findErr
	r.createErr = createErr
}

func (r *memUserRepo) get(username string) (UserRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	return u, ok
}

func (r *memUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}
