// Package apitest provides an in-memory api.Backend for tests.
package apitest

import (
	"context"

	"github.com/atinyakov/GophChat/internal/client/api"
	"github.com/atinyakov/GophChat/internal/client/storage"
	"github.com/atinyakov/GophChat/internal/models"
)

// Fake implements api.Backend with overridable functions. An unset function
// succeeds with zero values.
type Fake struct {
	LoginFunc          func(ctx context.Context, username, password string) (models.LoginResponse, error)
	ListSessionsFunc   func(ctx context.Context, userID string) ([]models.Session, error)
	CreateSessionFunc  func(ctx context.Context, userID, title string) (models.Session, error)
	DeleteSessionFunc  func(ctx context.Context, userID, sessionID string) error
	GetMessagesFunc    func(ctx context.Context, userID, sessionID string) ([]models.Message, error)
	ClearMessagesFunc  func(ctx context.Context, userID, sessionID string) ([]models.Message, error)
	SendMessageFunc    func(ctx context.Context, userID, sessionID, query string) (string, error)
	SpeechToTextFunc   func(ctx context.Context, fileName string, audio []byte) (string, error)
	TextToSpeechFunc   func(ctx context.Context, text string) ([]byte, error)
	ListIndexesFunc    func(ctx context.Context, userID string) ([]string, error)
	CreateIndexFunc    func(ctx context.Context, userID, name string) error
	DeleteIndexFunc    func(ctx context.Context, userID, name string) error
	ListDocumentsFunc  func(ctx context.Context, userID, index string) ([]models.Document, error)
	AddDocumentsFunc   func(ctx context.Context, userID, index string, files []api.Upload) (models.AddDocumentsResponse, error)
	DeleteDocumentFunc func(ctx context.Context, userID, index, fileName string) error
}

var _ api.Backend = (*Fake)(nil)

func (f *Fake) Login(ctx context.Context, username, password string) (models.LoginResponse, error) {
	if f.LoginFunc == nil {
		return models.LoginResponse{}, nil
	}
	return f.LoginFunc(ctx, username, password)
}

func (f *Fake) ListSessions(ctx context.Context, userID string) ([]models.Session, error) {
	if f.ListSessionsFunc == nil {
		return nil, nil
	}
	return f.ListSessionsFunc(ctx, userID)
}

func (f *Fake) CreateSession(ctx context.Context, userID, title string) (models.Session, error) {
	if f.CreateSessionFunc == nil {
		return models.Session{Title: title}, nil
	}
	return f.CreateSessionFunc(ctx, userID, title)
}

func (f *Fake) DeleteSession(ctx context.Context, userID, sessionID string) error {
	if f.DeleteSessionFunc == nil {
		return nil
	}
	return f.DeleteSessionFunc(ctx, userID, sessionID)
}

func (f *Fake) GetMessages(ctx context.Context, userID, sessionID string) ([]models.Message, error) {
	if f.GetMessagesFunc == nil {
		return nil, nil
	}
	return f.GetMessagesFunc(ctx, userID, sessionID)
}

func (f *Fake) ClearMessages(ctx context.Context, userID, sessionID string) ([]models.Message, error) {
	if f.ClearMessagesFunc == nil {
		return nil, nil
	}
	return f.ClearMessagesFunc(ctx, userID, sessionID)
}

func (f *Fake) SendMessage(ctx context.Context, userID, sessionID, query string) (string, error) {
	if f.SendMessageFunc == nil {
		return "", nil
	}
	return f.SendMessageFunc(ctx, userID, sessionID, query)
}

func (f *Fake) SpeechToText(ctx context.Context, fileName string, audio []byte) (string, error) {
	if f.SpeechToTextFunc == nil {
		return "", nil
	}
	return f.SpeechToTextFunc(ctx, fileName, audio)
}

func (f *Fake) TextToSpeech(ctx context.Context, text string) ([]byte, error) {
	if f.TextToSpeechFunc == nil {
		return nil, nil
	}
	return f.TextToSpeechFunc(ctx, text)
}

func (f *Fake) ListIndexes(ctx context.Context, userID string) ([]string, error) {
	if f.ListIndexesFunc == nil {
		return nil, nil
	}
	return f.ListIndexesFunc(ctx, userID)
}

func (f *Fake) CreateIndex(ctx context.Context, userID, name string) error {
	if f.CreateIndexFunc == nil {
		return nil
	}
	return f.CreateIndexFunc(ctx, userID, name)
}

func (f *Fake) DeleteIndex(ctx context.Context, userID, name string) error {
	if f.DeleteIndexFunc == nil {
		return nil
	}
	return f.DeleteIndexFunc(ctx, userID, name)
}

func (f *Fake) ListDocuments(ctx context.Context, userID, index string) ([]models.Document, error) {
	if f.ListDocumentsFunc == nil {
		return nil, nil
	}
	return f.ListDocumentsFunc(ctx, userID, index)
}

func (f *Fake) AddDocuments(ctx context.Context, userID, index string, files []api.Upload) (models.AddDocumentsResponse, error) {
	if f.AddDocumentsFunc == nil {
		return models.AddDocumentsResponse{}, nil
	}
	return f.AddDocumentsFunc(ctx, userID, index, files)
}

func (f *Fake) DeleteDocument(ctx context.Context, userID, index, fileName string) error {
	if f.DeleteDocumentFunc == nil {
		return nil
	}
	return f.DeleteDocumentFunc(ctx, userID, index, fileName)
}

// StaticIdentity is a fixed identity source.
type StaticIdentity storage.Identity

// Current returns the fixed identity.
func (s StaticIdentity) Current() storage.Identity {
	return storage.Identity(s)
}
