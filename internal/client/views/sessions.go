package views

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/GophChat/internal/client/api"
	"github.com/atinyakov/GophChat/internal/client/listview"
	"github.com/atinyakov/GophChat/internal/models"
)

// DefaultSessionTitle is used when a session is created without a title.
const DefaultSessionTitle = "New Session"

// ErrUnknownSession is returned when selecting a session that is not listed.
var ErrUnknownSession = errors.New("unknown session")

// Sessions is the session sidebar: newest first, with one current session.
type Sessions struct {
	backend api.Backend
	ids     IdentitySource
	list    *listview.List[models.Session, string]
}

// NewSessions returns an empty sessions screen.
func NewSessions(backend api.Backend, ids IdentitySource, log *zap.Logger) *Sessions {
	return &Sessions{
		backend: backend,
		ids:     ids,
		list:    listview.New[models.Session, string]("sessions", func(s models.Session) string { return s.ID }, log),
	}
}

// Load fetches the user's sessions.
func (v *Sessions) Load(ctx context.Context) error {
	uid, err := userID(v.ids)
	if err != nil {
		return err
	}
	return v.list.Load(ctx, func(ctx context.Context) ([]models.Session, error) {
		return v.backend.ListSessions(ctx, uid)
	})
}

// Create opens a session and puts it at the top of the list.
func (v *Sessions) Create(ctx context.Context, title string) (models.Session, error) {
	uid, err := userID(v.ids)
	if err != nil {
		return models.Session{}, err
	}
	if strings.TrimSpace(title) == "" {
		title = DefaultSessionTitle
	}
	return v.list.Create(ctx, func(ctx context.Context) (models.Session, error) {
		return v.backend.CreateSession(ctx, uid, title)
	}, listview.Prepend)
}

// Delete removes a session; deleting the current one leaves none selected.
func (v *Sessions) Delete(ctx context.Context, sessionID string) error {
	uid, err := userID(v.ids)
	if err != nil {
		return err
	}
	return v.list.Delete(ctx, sessionID, func(ctx context.Context) error {
		return v.backend.DeleteSession(ctx, uid, sessionID)
	})
}

// Select makes sessionID the current session.
func (v *Sessions) Select(sessionID string) error {
	if _, ok := v.list.Find(sessionID); !ok {
		return ErrUnknownSession
	}
	v.list.Select(sessionID)
	return nil
}

// Current returns the current session.
func (v *Sessions) Current() (models.Session, bool) {
	id, ok := v.list.Selected()
	if !ok {
		return models.Session{}, false
	}
	return v.list.Find(id)
}

// Items returns the listed sessions.
func (v *Sessions) Items() []models.Session { return v.list.Items() }

// Empty reports a completed load with no sessions.
func (v *Sessions) Empty() bool { return v.list.Empty() }

// Status returns the load state.
func (v *Sessions) Status() listview.Status { return v.list.Status() }
