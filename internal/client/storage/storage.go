// Package storage keeps the client's durable local state: the cached identity
// of the signed-in user and the HTTP transport used to reach the backend.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/atinyakov/GophChat/internal/models"
)

const identityFile = "identity.json"

// Identity is the locally cached authenticated user record.
// An empty ID always comes with an empty Role.
type Identity struct {
	ID   string      `json:"id,omitempty"`
	Role models.Role `json:"type,omitempty"`
}

// Authenticated reports whether an identity is present.
func (i Identity) Authenticated() bool {
	return i.ID != ""
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

// IdentityStore holds the current identity and mirrors it to a file in dir.
type IdentityStore struct {
	dir string

	mu       sync.RWMutex
	identity Identity
}

// NewIdentityStore returns a store persisting under dir. Call Load to read
// the previously saved identity.
func NewIdentityStore(dir string) *IdentityStore {
	return &IdentityStore{dir: dir}
}

func (s *IdentityStore) path() string {
	return filepath.Join(s.dir, identityFile)
}

// Load reads the persisted identity. A missing, unreadable or malformed
// record yields the empty identity; Load never fails.
func (s *IdentityStore) Load() Identity {
	var id Identity
	data, err := os.ReadFile(s.path())
	if err == nil {
		if err := json.Unmarshal(data, &id); err != nil {
			id = Identity{}
		}
	}
	if id.ID == "" {
		id = Identity{}
	}

	s.mu.Lock()
	s.identity = id
	s.mu.Unlock()
	return id
}

// Current returns the identity held in memory.
func (s *IdentityStore) Current() Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// Login sets the identity and writes it durably.
func (s *IdentityStore) Login(id string, role models.Role) error {
	if id == "" {
		return errors.New("empty user id")
	}
	next := Identity{ID: id, Role: role}

	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := os.WriteFile(s.path(), data, 0600); err != nil {
		return fmt.Errorf("save identity: %w", err)
	}

	s.mu.Lock()
	s.identity = next
	s.mu.Unlock()
	return nil
}

// Logout clears the identity from memory and removes the persisted record.
func (s *IdentityStore) Logout() error {
	s.mu.Lock()
	s.identity = Identity{}
	s.mu.Unlock()

	if err := os.Remove(s.path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove identity: %w", err)
	}
	return nil
}
