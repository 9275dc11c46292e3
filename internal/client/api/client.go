// Package api is the client side of the chat backend's HTTP contract.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/atinyakov/GophChat/internal/models"
)

// Endpoint paths relative to the backend base URL.
const (
	PathLogin          = "/api/http_user_login"
	PathListSessions   = "/api/http_chatbot_get_sessions"
	PathCreateSession  = "/api/http_chatbot_create_session"
	PathDeleteSession  = "/api/http_chatbot_delete_session"
	PathGetMessages    = "/api/http_chatbot_get_messages"
	PathClearMessages  = "/api/http_chatbot_clear_chat"
	PathSendMessage    = "/api/http_chatbot_message"
	PathSpeechToText   = "/api/http_chatbot_speech_to_text"
	PathTextToSpeech   = "/api/http_chatbot_text_to_speech"
	PathListIndexes    = "/api/http_ai_search_list_indexes"
	PathCreateIndex    = "/api/http_ai_search_create_index"
	PathDeleteIndex    = "/api/http_ai_search_delete_index"
	PathListDocuments  = "/api/http_ai_search_list_documents"
	PathAddDocuments   = "/api/http_ai_search_add_documents"
	PathDeleteDocument = "/api/http_ai_search_delete_document"
)

// Upload is one file of a document batch.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// Backend is every remote operation the client performs.
type Backend interface {
	Login(ctx context.Context, username, password string) (models.LoginResponse, error)

	ListSessions(ctx context.Context, userID string) ([]models.Session, error)
	CreateSession(ctx context.Context, userID, title string) (models.Session, error)
	DeleteSession(ctx context.Context, userID, sessionID string) error

	GetMessages(ctx context.Context, userID, sessionID string) ([]models.Message, error)
	ClearMessages(ctx context.Context, userID, sessionID string) ([]models.Message, error)
	SendMessage(ctx context.Context, userID, sessionID, query string) (string, error)

	SpeechToText(ctx context.Context, fileName string, audio []byte) (string, error)
	TextToSpeech(ctx context.Context, text string) ([]byte, error)

	ListIndexes(ctx context.Context, userID string) ([]string, error)
	CreateIndex(ctx context.Context, userID, name string) error
	DeleteIndex(ctx context.Context, userID, name string) error

	ListDocuments(ctx context.Context, userID, index string) ([]models.Document, error)
	AddDocuments(ctx context.Context, userID, index string, files []Upload) (models.AddDocumentsResponse, error)
	DeleteDocument(ctx context.Context, userID, index, fileName string) error
}

// Remote implements Backend over HTTP.
type Remote struct {
	BaseURL    string
	HTTPClient *http.Client
}

var _ Backend = (*Remote)(nil)

// NewRemote returns a Remote for baseURL. A nil client means http.DefaultClient.
func NewRemote(baseURL string, client *http.Client) *Remote {
	if client == nil {
		client = http.DefaultClient
	}
	return &Remote{BaseURL: strings.TrimRight(baseURL, "/"), HTTPClient: client}
}

// do sends req and returns the body of a 2xx answer.
func (c *Remote) do(req *http.Request) ([]byte, error) {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s failed: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusConflict:
		return nil, ErrConflict
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		msg := strings.TrimSpace(string(body))
		var errResp models.ErrorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
			msg = errResp.Error
		}
		return nil, &StatusError{Code: resp.StatusCode, Body: msg}
	}
	return body, nil
}

func (c *Remote) postJSON(ctx context.Context, path string, payload, out any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.send(req, out)
}

func (c *Remote) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}
	return c.send(req, out)
}

func (c *Remote) send(req *http.Request, out any) error {
	body, err := c.do(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("invalid response: %w", err)
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// createFilePart is multipart.Writer.CreateFormFile with a caller-chosen
// content type.
func createFilePart(mw *multipart.Writer, field, name, contentType string) (io.Writer, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(filepath.Base(name))))
	h.Set("Content-Type", contentType)
	return mw.CreatePart(h)
}

// Login exchanges credentials for the user id and role.
func (c *Remote) Login(ctx context.Context, username, password string) (models.LoginResponse, error) {
	var out models.LoginResponse
	err := c.postJSON(ctx, PathLogin, models.LoginRequest{Username: username, Password: password}, &out)
	return out, err
}

// ListSessions returns the sessions of userID.
func (c *Remote) ListSessions(ctx context.Context, userID string) ([]models.Session, error) {
	var out models.SessionsResponse
	if err := c.getJSON(ctx, PathListSessions, url.Values{"user_id": {userID}}, &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

// CreateSession opens a session and returns it with its canonical id.
func (c *Remote) CreateSession(ctx context.Context, userID, title string) (models.Session, error) {
	var out models.Session
	err := c.postJSON(ctx, PathCreateSession, models.CreateSessionRequest{UserID: userID, Title: title}, &out)
	return out, err
}

// DeleteSession removes a session and its history.
func (c *Remote) DeleteSession(ctx context.Context, userID, sessionID string) error {
	return c.postJSON(ctx, PathDeleteSession, models.SessionRequest{UserID: userID, SessionID: sessionID}, nil)
}

// GetMessages returns the full stored history of a session.
func (c *Remote) GetMessages(ctx context.Context, userID, sessionID string) ([]models.Message, error) {
	var out models.MessagesResponse
	if err := c.postJSON(ctx, PathGetMessages, models.SessionRequest{UserID: userID, SessionID: sessionID}, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// ClearMessages resets the history of a session and returns what remains.
func (c *Remote) ClearMessages(ctx context.Context, userID, sessionID string) ([]models.Message, error) {
	var out models.MessagesResponse
	if err := c.postJSON(ctx, PathClearMessages, models.SessionRequest{UserID: userID, SessionID: sessionID}, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// SendMessage submits query with retrieval enabled and returns the reply.
func (c *Remote) SendMessage(ctx context.Context, userID, sessionID, query string) (string, error) {
	var out models.SendMessageResponse
	req := models.SendMessageRequest{UserID: userID, SessionID: sessionID, Query: query, RAG: true}
	if err := c.postJSON(ctx, PathSendMessage, req, &out); err != nil {
		return "", err
	}
	return out.Reply, nil
}

// SpeechToText uploads an audio clip and returns the plain-text transcript.
func (c *Remote) SpeechToText(ctx context.Context, fileName string, audio []byte) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filepath.Base(fileName))
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(audio); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+PathSpeechToText, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	body, err := c.do(req)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// TextToSpeech returns the audio rendition of text.
func (c *Remote) TextToSpeech(ctx context.Context, text string) ([]byte, error) {
	b, err := json.Marshal(models.TextToSpeechRequest{Text: text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+PathTextToSpeech, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

// ListIndexes returns the index names visible to userID.
func (c *Remote) ListIndexes(ctx context.Context, userID string) ([]string, error) {
	var out models.IndexesResponse
	if err := c.getJSON(ctx, PathListIndexes, url.Values{"user_id": {userID}}, &out); err != nil {
		return nil, err
	}
	return out.Indexes, nil
}

// CreateIndex creates an index. A taken name yields ErrConflict.
func (c *Remote) CreateIndex(ctx context.Context, userID, name string) error {
	return c.postJSON(ctx, PathCreateIndex, models.IndexRequest{UserID: userID, IndexName: name}, nil)
}

// DeleteIndex drops an index and its documents.
func (c *Remote) DeleteIndex(ctx context.Context, userID, name string) error {
	return c.postJSON(ctx, PathDeleteIndex, models.IndexRequest{UserID: userID, IndexName: name}, nil)
}

// ListDocuments returns the raw document rows of an index, duplicates included.
func (c *Remote) ListDocuments(ctx context.Context, userID, index string) ([]models.Document, error) {
	var out models.DocumentsResponse
	q := url.Values{"user_id": {userID}, "index_name": {index}}
	if err := c.getJSON(ctx, PathListDocuments, q, &out); err != nil {
		return nil, err
	}
	return out.Documents, nil
}

// AddDocuments uploads a batch of files as file0..fileN form parts.
func (c *Remote) AddDocuments(ctx context.Context, userID, index string, files []Upload) (models.AddDocumentsResponse, error) {
	var out models.AddDocumentsResponse

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("index_name", index); err != nil {
		return out, err
	}
	if err := mw.WriteField("user_id", userID); err != nil {
		return out, err
	}
	for i, f := range files {
		fw, err := createFilePart(mw, fmt.Sprintf("file%d", i), f.Name, f.ContentType)
		if err != nil {
			return out, err
		}
		if _, err := fw.Write(f.Data); err != nil {
			return out, err
		}
	}
	if err := mw.Close(); err != nil {
		return out, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+PathAddDocuments, &buf)
	if err != nil {
		return out, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	err = c.send(req, &out)
	return out, err
}

// DeleteDocument removes every chunk of fileName from an index.
func (c *Remote) DeleteDocument(ctx context.Context, userID, index, fileName string) error {
	req := models.DeleteDocumentRequest{UserID: userID, IndexName: index, FileName: fileName}
	return c.postJSON(ctx, PathDeleteDocument, req, nil)
}
