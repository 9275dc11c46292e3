package views

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/GophChat/internal/client/api"
	"github.com/atinyakov/GophChat/internal/client/listview"
)

// IndexNameTakenMessage is shown to the user when an index name is taken.
const IndexNameTakenMessage = "This index name is already in use. Please choose a different one."

var (
	// ErrIndexNameTaken is returned when the backend rejects a duplicate name.
	ErrIndexNameTaken = errors.New("index name already in use")
	// ErrEmptyName is returned for a blank index name.
	ErrEmptyName = errors.New("name must not be empty")
)

// Indexes is the knowledge base landing screen.
type Indexes struct {
	backend api.Backend
	ids     IdentitySource
	list    *listview.List[string, string]
}

// NewIndexes returns an empty indexes screen.
func NewIndexes(backend api.Backend, ids IdentitySource, log *zap.Logger) *Indexes {
	return &Indexes{
		backend: backend,
		ids:     ids,
		list:    listview.New[string, string]("indexes", func(s string) string { return s }, log),
	}
}

// Load fetches the index names.
func (v *Indexes) Load(ctx context.Context) error {
	uid, err := userID(v.ids)
	if err != nil {
		return err
	}
	return v.list.Load(ctx, func(ctx context.Context) ([]string, error) {
		return v.backend.ListIndexes(ctx, uid)
	})
}

// Create adds an index at the end of the list. A taken name yields
// ErrIndexNameTaken; any other failure is wrapped as is.
func (v *Indexes) Create(ctx context.Context, name string) error {
	uid, err := userID(v.ids)
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	_, err = v.list.Create(ctx, func(ctx context.Context) (string, error) {
		return name, v.backend.CreateIndex(ctx, uid, name)
	}, listview.Append)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, api.ErrConflict):
		return fmt.Errorf("%w: %w", ErrIndexNameTaken, err)
	default:
		return fmt.Errorf("create index: %w", err)
	}
}

// Delete drops an index by name.
func (v *Indexes) Delete(ctx context.Context, name string) error {
	uid, err := userID(v.ids)
	if err != nil {
		return err
	}
	return v.list.Delete(ctx, name, func(ctx context.Context) error {
		return v.backend.DeleteIndex(ctx, uid, name)
	})
}

// Has reports whether name is listed.
func (v *Indexes) Has(name string) bool {
	_, ok := v.list.Find(name)
	return ok
}

// Items returns the listed index names.
func (v *Indexes) Items() []string { return v.list.Items() }

// Empty reports a completed load with no indexes.
func (v *Indexes) Empty() bool { return v.list.Empty() }

// Status returns the load state.
func (v *Indexes) Status() listview.Status { return v.list.Status() }
