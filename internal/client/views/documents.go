package views

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/atinyakov/GophChat/internal/client/api"
	"github.com/atinyakov/GophChat/internal/client/listview"
	"github.com/atinyakov/GophChat/internal/models"
)

// ErrNoIndex is returned when the documents screen is opened without an index.
var ErrNoIndex = errors.New("no index selected")

// Documents lists the distinct files of one index.
type Documents struct {
	backend api.Backend
	ids     IdentitySource
	index   string
	log     *zap.Logger
	list    *listview.List[models.Document, string]
}

func documentKey(d models.Document) string { return d.FileName }

// NewDocuments returns the documents screen of index.
func NewDocuments(backend api.Backend, ids IdentitySource, index string, log *zap.Logger) (*Documents, error) {
	if index == "" {
		return nil, ErrNoIndex
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Documents{
		backend: backend,
		ids:     ids,
		index:   index,
		log:     log,
		list:    listview.New[models.Document, string]("documents", documentKey, log),
	}, nil
}

// Index returns the index this screen manages.
func (v *Documents) Index() string { return v.index }

// Load fetches the document rows and keeps one entry per file name.
func (v *Documents) Load(ctx context.Context) error {
	uid, err := userID(v.ids)
	if err != nil {
		return err
	}
	return v.list.Load(ctx, func(ctx context.Context) ([]models.Document, error) {
		docs, err := v.backend.ListDocuments(ctx, uid, v.index)
		if err != nil {
			return nil, err
		}
		return listview.DedupBy(docs, documentKey), nil
	})
}

// Upload sends a batch of files and reloads the list.
func (v *Documents) Upload(ctx context.Context, files []api.Upload) (models.AddDocumentsResponse, error) {
	uid, err := userID(v.ids)
	if err != nil {
		return models.AddDocumentsResponse{}, err
	}
	if len(files) == 0 {
		return models.AddDocumentsResponse{}, nil
	}
	res, err := v.backend.AddDocuments(ctx, uid, v.index, files)
	if err != nil {
		v.log.Error("upload failed", zap.String("index", v.index), zap.Error(err))
		return res, err
	}
	v.reload(ctx)
	return res, nil
}

// Delete removes a file from the index and reloads the list.
func (v *Documents) Delete(ctx context.Context, fileName string) error {
	uid, err := userID(v.ids)
	if err != nil {
		return err
	}
	err = v.list.Delete(ctx, fileName, func(ctx context.Context) error {
		return v.backend.DeleteDocument(ctx, uid, v.index, fileName)
	})
	if err != nil {
		return err
	}
	v.reload(ctx)
	return nil
}

// reload refreshes after a successful mutation; its failure is only logged
// since the mutation itself went through.
func (v *Documents) reload(ctx context.Context) {
	_ = v.Load(ctx)
}

// Names returns the distinct file names in display order.
func (v *Documents) Names() []string {
	items := v.list.Items()
	names := make([]string, 0, len(items))
	for _, d := range items {
		names = append(names, d.FileName)
	}
	return names
}

// Deleting reports whether fileName has a delete in flight.
func (v *Documents) Deleting(fileName string) bool { return v.list.Busy(fileName) }

// Empty reports a completed load with no documents.
func (v *Documents) Empty() bool { return v.list.Empty() }

// Status returns the load state.
func (v *Documents) Status() listview.Status { return v.list.Status() }
