// Package views holds the client's list screens: chat sessions, indexes and
// the documents of one index. Each screen owns its own collection and talks
// to the backend on behalf of the signed-in identity.
package views

import (
	"errors"

	"github.com/atinyakov/GophChat/internal/client/storage"
)

// ErrNotSignedIn is returned when a screen is used without an identity.
var ErrNotSignedIn = errors.New("not signed in")

// IdentitySource yields the current identity. *storage.IdentityStore
// satisfies it.
type IdentitySource interface {
	Current() storage.Identity
}

func userID(ids IdentitySource) (string, error) {
	id := ids.Current()
	if !id.Authenticated() {
		return "", ErrNotSignedIn
	}
	return id.ID, nil
}
