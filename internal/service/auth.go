// Package service provides the business logic of the development backend:
// accounts, chat sessions and the knowledge base, delegating persistence to
// repository interfaces.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/GophChat/internal/models"
	"github.com/atinyakov/GophChat/internal/repository"
)

var (
	// ErrInvalidCredentials is returned for an unknown user or a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUnknownUser is returned when a user id does not resolve to an account.
	ErrUnknownUser = errors.New("unknown user")
	// ErrInvalidRole is returned when creating an account with an unknown role.
	ErrInvalidRole = errors.New("invalid role")
)

// AuthRepository defines the persistence operations
// required by the authentication service.
type AuthRepository interface {
	// GetByUsername returns repository.ErrNotFound for an unknown username.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// GetRole returns repository.ErrNotFound for an unknown id.
	GetRole(ctx context.Context, id string) (models.Role, error)
	// CreateUser returns repository.ErrAlreadyExists for a taken username.
	CreateUser(ctx context.Context, u models.User) error
}

// RoleTTL is how long a resolved role is served from memory.
const RoleTTL = time.Minute

// AuthService checks credentials and roles.
type AuthService struct {
	repo  AuthRepository
	roles *cache.Cache
}

// NewAuthService constructs a new AuthService using the provided repository.
func NewAuthService(repo AuthRepository) *AuthService {
	return &AuthService{repo: repo, roles: cache.New(RoleTTL, 10*time.Minute)}
}

// Login verifies the password of username and returns the account.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Role returns the role of the account with the given id. Roles are cached
// for RoleTTL; unknown ids are not.
func (s *AuthService) Role(ctx context.Context, userID string) (models.Role, error) {
	if x, found := s.roles.Get(userID); found {
		return x.(models.Role), nil
	}
	role, err := s.repo.GetRole(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrUnknownUser
	}
	if err != nil {
		return "", err
	}
	s.roles.Set(userID, role, cache.DefaultExpiration)
	return role, nil
}

// EnsureUser creates the account unless the username is already taken and
// reports whether it did.
func (s *AuthService) EnsureUser(ctx context.Context, username, password string, role models.Role) (bool, error) {
	if !role.Valid() {
		return false, ErrInvalidRole
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	err = s.repo.CreateUser(ctx, models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
	})
	if errors.Is(err, repository.ErrAlreadyExists) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
