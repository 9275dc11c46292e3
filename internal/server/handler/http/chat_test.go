package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/atinyakov/GophChat/internal/models"
	"github.com/atinyakov/GophChat/internal/service"
)

// fakeChatService implements ChatService for testing.
type fakeChatService struct {
	sessions []models.Session
	messages []models.Message
	reply    string
	err      error

	gotRAG   bool
	gotQuery string
}

func (f *fakeChatService) ListSessions(ctx context.Context, userID string) ([]models.Session, error) {
	return f.sessions, f.err
}
func (f *fakeChatService) CreateSession(ctx context.Context, userID, title string) (models.Session, error) {
	return models.Session{ID: "s-new", Title: title}, f.err
}
func (f *fakeChatService) DeleteSession(ctx context.Context, userID, sessionID string) error {
	return f.err
}
func (f *fakeChatService) Messages(ctx context.Context, userID, sessionID string) ([]models.Message, error) {
	return f.messages, f.err
}
func (f *fakeChatService) Clear(ctx context.Context, userID, sessionID string) ([]models.Message, error) {
	return f.messages, f.err
}
func (f *fakeChatService) Send(ctx context.Context, userID, sessionID, query string, rag bool) (string, error) {
	f.gotQuery, f.gotRAG = query, rag
	return f.reply, f.err
}

func TestChatHandler_ListSessions(t *testing.T) {
	h := &ChatHandler{ChatService: &fakeChatService{sessions: []models.Session{{ID: "s1", Title: "A"}}}}

	rec := httptest.NewRecorder()
	h.ListSessions(rec, httptest.NewRequest("GET", "/api/http_chatbot_get_sessions?user_id=u1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp models.SessionsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(resp.Sessions) != 1 || resp.Sessions[0].ID != "s1" {
		t.Errorf("unexpected sessions %+v", resp.Sessions)
	}

	rec = httptest.NewRecorder()
	h.ListSessions(rec, httptest.NewRequest("GET", "/api/http_chatbot_get_sessions", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without user_id, got %d", rec.Code)
	}
}

func TestChatHandler_CreateSession(t *testing.T) {
	h := &ChatHandler{ChatService: &fakeChatService{}}
	rec := httptest.NewRecorder()
	body := bytes.NewBufferString(`{"user_id":"u1","session_title":"Trip"}`)
	h.CreateSession(rec, httptest.NewRequest("POST", "/api/http_chatbot_create_session", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var sess models.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &sess); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if sess.ID != "s-new" || sess.Title != "Trip" {
		t.Errorf("unexpected session %+v", sess)
	}
}

func TestChatHandler_SessionEndpoints(t *testing.T) {
	history := []models.Message{{Role: models.MessageSystem, Content: "prompt"}, {Role: models.MessageAssistant, Content: "hi"}}
	endpoints := map[string]func(h *ChatHandler) http.HandlerFunc{
		"delete": func(h *ChatHandler) http.HandlerFunc { return h.DeleteSession },
		"get":    func(h *ChatHandler) http.HandlerFunc { return h.GetMessages },
		"clear":  func(h *ChatHandler) http.HandlerFunc { return h.ClearMessages },
	}
	tests := []struct {
		name           string
		body           string
		err            error
		expectedCode   int
		expectedSubstr string
	}{
		{"missing session", `{"user_id":"u1"}`, nil, http.StatusBadRequest, "user_id and session_id are required"},
		{"bad json", `{`, nil, http.StatusBadRequest, "invalid request"},
		{"unknown session", `{"user_id":"u1","session_id":"s9"}`, service.ErrSessionNotFound, http.StatusNotFound, "session not found"},
		{"store failure", `{"user_id":"u1","session_id":"s1"}`, errors.New("db down"), http.StatusInternalServerError, "db down"},
		{"ok", `{"user_id":"u1","session_id":"s1"}`, nil, http.StatusOK, ""},
	}

	for ep, handler := range endpoints {
		for _, tt := range tests {
			t.Run(ep+"/"+tt.name, func(t *testing.T) {
				h := &ChatHandler{ChatService: &fakeChatService{messages: history, err: tt.err}}
				rec := httptest.NewRecorder()
				handler(h)(rec, httptest.NewRequest("POST", "/", bytes.NewBufferString(tt.body)))

				if rec.Code != tt.expectedCode {
					t.Errorf("expected status %d, got %d", tt.expectedCode, rec.Code)
				}
				if !strings.Contains(rec.Body.String(), tt.expectedSubstr) {
					t.Errorf("expected body to contain %q, got %q", tt.expectedSubstr, rec.Body.String())
				}
			})
		}
	}
}

func TestChatHandler_ClearReturnsHistory(t *testing.T) {
	history := []models.Message{{Role: models.MessageSystem, Content: "prompt"}, {Role: models.MessageAssistant, Content: "fresh"}}
	h := &ChatHandler{ChatService: &fakeChatService{messages: history}}
	rec := httptest.NewRecorder()
	h.ClearMessages(rec, httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"user_id":"u1","session_id":"s1"}`)))

	var resp models.MessagesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(resp.Messages) != 2 || resp.Messages[1].Content != "fresh" {
		t.Errorf("unexpected messages %+v", resp.Messages)
	}
}

func TestChatHandler_SendMessage(t *testing.T) {
	svc := &fakeChatService{reply: "Once a year."}
	h := &ChatHandler{ChatService: svc}

	rec := httptest.NewRecorder()
	body := `{"user_id":"u1","session_id":"s1","query":"brakes?","rag":true}`
	h.SendMessage(rec, httptest.NewRequest("POST", "/", bytes.NewBufferString(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp models.SendMessageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Reply != "Once a year." {
		t.Errorf("unexpected reply %q", resp.Reply)
	}
	if svc.gotQuery != "brakes?" || !svc.gotRAG {
		t.Errorf("service got query %q rag %v", svc.gotQuery, svc.gotRAG)
	}

	svc.err = service.ErrEmptyQuery
	rec = httptest.NewRecorder()
	h.SendMessage(rec, httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"user_id":"u1","session_id":"s1","query":""}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty query, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.SendMessage(rec, httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"hi"}`)))
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), errSessionRequired) {
		t.Errorf("expected 400 without ids, got %d %q", rec.Code, rec.Body.String())
	}
}
