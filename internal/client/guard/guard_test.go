package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/atinyakov/GophChat/internal/client/storage"
	"github.com/atinyakov/GophChat/internal/models"
)

func TestRequireUser(t *testing.T) {
	tests := []struct {
		name    string
		id      storage.Identity
		allowed bool
	}{
		{name: "no identity", id: storage.Identity{}, allowed: false},
		{name: "user", id: storage.Identity{ID: "u1", Role: models.RoleUser}, allowed: true},
		{name: "admin", id: storage.Identity{ID: "a1", Role: models.RoleAdmin}, allowed: true},
		{name: "id without role", id: storage.Identity{ID: "u2"}, allowed: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := RequireUser(tt.id)
			assert.Equal(t, tt.allowed, d.Allowed())
			if !tt.allowed {
				assert.Equal(t, Denied, d.State)
				assert.Equal(t, RouteLogin, d.RedirectTo)
				assert.True(t, d.Replace)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name         string
		id           storage.Identity
		allowed      bool
		alsoRedirect Route
	}{
		{name: "no identity", id: storage.Identity{}, alsoRedirect: RouteLogin},
		{name: "user", id: storage.Identity{ID: "u1", Role: models.RoleUser}},
		{name: "unknown role", id: storage.Identity{ID: "u1", Role: models.Role("owner")}},
		{name: "id without role", id: storage.Identity{ID: "u1"}},
		{name: "admin", id: storage.Identity{ID: "a1", Role: models.RoleAdmin}, allowed: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := RequireAdmin(tt.id)
			assert.Equal(t, tt.allowed, d.Allowed())
			if !tt.allowed {
				assert.Equal(t, RouteChat, d.RedirectTo)
				assert.True(t, d.Replace)
				assert.Equal(t, tt.alsoRedirect, d.AlsoRedirect)
			}
		})
	}
}

func TestForRoute(t *testing.T) {
	anon := storage.Identity{}
	user := storage.Identity{ID: "u1", Role: models.RoleUser}
	admin := storage.Identity{ID: "a1", Role: models.RoleAdmin}

	assert.True(t, ForRoute(RouteLogin)(anon).Allowed())
	assert.False(t, ForRoute(RouteChat)(anon).Allowed())
	assert.True(t, ForRoute(RouteChat)(user).Allowed())

	// the outer user guard fires first for an anonymous visitor
	d := ForRoute(RouteKnowledge)(anon)
	assert.Equal(t, RouteLogin, d.RedirectTo)

	d = ForRoute(RouteDocuments)(user)
	assert.Equal(t, RouteChat, d.RedirectTo)
	assert.True(t, ForRoute(RouteDocuments)(admin).Allowed())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "checking", Checking.String())
	assert.Equal(t, "authorized", Authorized.String())
	assert.Equal(t, "denied", Denied.String())
}
