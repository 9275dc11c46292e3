package service_test

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/GophChat/internal/models"
	"github.com/atinyakov/GophChat/internal/repository"
	"github.com/atinyakov/GophChat/internal/service"
)

type mockAuthRepo struct {
	GetByUsernameFunc func(ctx context.Context, username string) (*models.User, error)
	GetRoleFunc       func(ctx context.Context, id string) (models.Role, error)
	CreateUserFunc    func(ctx context.Context, u models.User) error
}

func (m *mockAuthRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.GetByUsernameFunc(ctx, username)
}
func (m *mockAuthRepo) GetRole(ctx context.Context, id string) (models.Role, error) {
	return m.GetRoleFunc(ctx, id)
}
func (m *mockAuthRepo) CreateUser(ctx context.Context, u models.User) error {
	return m.CreateUserFunc(ctx, u)
}

func hash(t *testing.T, pw string) []byte {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return h
}

func TestLogin(t *testing.T) {
	alice := &models.User{ID: "u1", Username: "alice", PasswordHash: hash(t, "pw"), Role: models.RoleUser}
	repo := &mockAuthRepo{
		GetByUsernameFunc: func(_ context.Context, username string) (*models.User, error) {
			switch username {
			case "alice":
				return alice, nil
			case "broken":
				return nil, errors.New("db down")
			}
			return nil, repository.ErrNotFound
		},
	}
	svc := service.NewAuthService(repo)

	u, err := svc.Login(context.Background(), "alice", "pw")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if u.ID != "u1" || u.Role != models.RoleUser {
		t.Errorf("Login = %+v", u)
	}

	if _, err := svc.Login(context.Background(), "alice", "nope"); !errors.Is(err, service.ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v; want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(context.Background(), "bob", "pw"); !errors.Is(err, service.ErrInvalidCredentials) {
		t.Errorf("unknown user error = %v; want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(context.Background(), "broken", "pw"); err == nil || errors.Is(err, service.ErrInvalidCredentials) {
		t.Errorf("repository failure error = %v; want the repository error", err)
	}
}

func TestRole(t *testing.T) {
	lookups := 0
	repo := &mockAuthRepo{
		GetRoleFunc: func(_ context.Context, id string) (models.Role, error) {
			lookups++
			if id == "a1" {
				return models.RoleAdmin, nil
			}
			return "", repository.ErrNotFound
		},
	}
	svc := service.NewAuthService(repo)

	for i := 0; i < 3; i++ {
		if role, err := svc.Role(context.Background(), "a1"); err != nil || role != models.RoleAdmin {
			t.Errorf("Role(a1) = %q, %v", role, err)
		}
	}
	if lookups != 1 {
		t.Errorf("repository lookups = %d; want 1 with caching", lookups)
	}

	for i := 0; i < 2; i++ {
		if _, err := svc.Role(context.Background(), "x"); !errors.Is(err, service.ErrUnknownUser) {
			t.Errorf("Role(x) error = %v; want ErrUnknownUser", err)
		}
	}
	if lookups != 3 {
		t.Errorf("repository lookups = %d; want unknown ids looked up every time", lookups)
	}
}

func TestEnsureUser(t *testing.T) {
	var stored models.User
	calls := 0
	repo := &mockAuthRepo{
		CreateUserFunc: func(_ context.Context, u models.User) error {
			calls++
			if calls > 1 {
				return repository.ErrAlreadyExists
			}
			stored = u
			return nil
		},
	}
	svc := service.NewAuthService(repo)

	created, err := svc.EnsureUser(context.Background(), "root", "secret", models.RoleAdmin)
	if err != nil || !created {
		t.Fatalf("EnsureUser = %v, %v; want true", created, err)
	}
	if stored.ID == "" || stored.Username != "root" || stored.Role != models.RoleAdmin {
		t.Errorf("stored = %+v", stored)
	}
	if err := bcrypt.CompareHashAndPassword(stored.PasswordHash, []byte("secret")); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}

	created, err = svc.EnsureUser(context.Background(), "root", "secret", models.RoleAdmin)
	if err != nil || created {
		t.Errorf("second EnsureUser = %v, %v; want false, nil", created, err)
	}

	if _, err := svc.EnsureUser(context.Background(), "x", "y", "owner"); !errors.Is(err, service.ErrInvalidRole) {
		t.Errorf("invalid role error = %v", err)
	}
}
