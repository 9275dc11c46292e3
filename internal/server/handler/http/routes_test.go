package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/atinyakov/GophChat/internal/models"
)

func newTestRouter() http.Handler {
	auth := &fakeAuthService{
		user:  &models.User{ID: "u1", Role: models.RoleUser},
		roles: map[string]models.Role{"a1": models.RoleAdmin},
	}
	return NewRouter(
		&AuthHandler{AuthService: auth},
		&ChatHandler{ChatService: &fakeChatService{reply: "hi"}},
		&KnowledgeHandler{KnowledgeService: &fakeKnowledgeService{indexes: []string{"manuals"}}, AuthService: auth},
		nil,
	)
}

func TestRouter_Routes(t *testing.T) {
	tests := []struct {
		method       string
		path         string
		body         string
		expectedCode int
	}{
		{"POST", "/api/http_user_login", `{"username":"a","password":"b"}`, http.StatusOK},
		{"GET", "/api/http_chatbot_get_sessions?user_id=u1", "", http.StatusOK},
		{"POST", "/api/http_chatbot_message", `{"user_id":"u1","session_id":"s1","query":"hi"}`, http.StatusOK},
		{"POST", "/api/http_chatbot_text_to_speech", `{"text":"hi"}`, http.StatusNotImplemented},
		{"GET", "/api/http_ai_search_list_indexes?user_id=a1", "", http.StatusOK},
		{"GET", "/api/http_chatbot_message", "", http.StatusMethodNotAllowed},
		{"GET", "/api/unknown", "", http.StatusNotFound},
	}
	r := newTestRouter()
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body))
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tt.expectedCode {
				t.Errorf("expected status %d, got %d", tt.expectedCode, rec.Code)
			}
		})
	}
}

func TestRouter_RejectsUnsupportedContentType(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/http_user_login", strings.NewReader("username=a"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("expected 415, got %d", rec.Code)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	req := httptest.NewRequest("OPTIONS", "/api/http_user_login", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard origin, got %q", got)
	}
}

func TestRouter_Metrics(t *testing.T) {
	r := newTestRouter()
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/http_chatbot_get_sessions?user_id=u1", nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "gophchat_http_requests_total") {
		t.Error("expected request counter in exposition")
	}
}
