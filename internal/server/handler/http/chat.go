package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/atinyakov/GophChat/internal/metrics"
	"github.com/atinyakov/GophChat/internal/models"
	"github.com/atinyakov/GophChat/internal/service"
)

const (
	errUserRequired    = "user_id is required"
	errSessionRequired = "user_id and session_id are required"
)

// ChatService defines the session and message operations
// required by the ChatHandler.
type ChatService interface {
	ListSessions(ctx context.Context, userID string) ([]models.Session, error)
	CreateSession(ctx context.Context, userID, title string) (models.Session, error)
	DeleteSession(ctx context.Context, userID, sessionID string) error
	Messages(ctx context.Context, userID, sessionID string) ([]models.Message, error)
	Clear(ctx context.Context, userID, sessionID string) ([]models.Message, error)
	Send(ctx context.Context, userID, sessionID, query string, rag bool) (string, error)
}

// ChatHandler handles HTTP requests for chat sessions and messages.
type ChatHandler struct {
	ChatService ChatService
	Log         *zap.Logger
}

// ListSessions handles GET /api/http_chatbot_get_sessions?user_id=.
func (h *ChatHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, errUserRequired)
		return
	}
	sessions, err := h.ChatService.ListSessions(r.Context(), userID)
	if err != nil {
		h.fail(w, "list sessions", err)
		return
	}
	writeJSON(w, http.StatusOK, models.SessionsResponse{Sessions: sessions})
}

// CreateSession handles POST /api/http_chatbot_create_session.
func (h *ChatHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSessionRequest
	if !decode(w, r, &req, errUserRequired) {
		return
	}
	sess, err := h.ChatService.CreateSession(r.Context(), req.UserID, req.Title)
	if err != nil {
		h.fail(w, "create session", err)
		return
	}
	metrics.SessionsCreated.Inc()
	writeJSON(w, http.StatusOK, sess)
}

// DeleteSession handles POST /api/http_chatbot_delete_session.
func (h *ChatHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	req, ok := h.sessionRequest(w, r)
	if !ok {
		return
	}
	if err := h.ChatService.DeleteSession(r.Context(), req.UserID, req.SessionID); err != nil {
		h.fail(w, "delete session", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetMessages handles POST /api/http_chatbot_get_messages.
func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	req, ok := h.sessionRequest(w, r)
	if !ok {
		return
	}
	msgs, err := h.ChatService.Messages(r.Context(), req.UserID, req.SessionID)
	if err != nil {
		h.fail(w, "get messages", err)
		return
	}
	writeJSON(w, http.StatusOK, models.MessagesResponse{Messages: msgs})
}

// ClearMessages handles POST /api/http_chatbot_clear_chat and returns the
// reseeded history.
func (h *ChatHandler) ClearMessages(w http.ResponseWriter, r *http.Request) {
	req, ok := h.sessionRequest(w, r)
	if !ok {
		return
	}
	msgs, err := h.ChatService.Clear(r.Context(), req.UserID, req.SessionID)
	if err != nil {
		h.fail(w, "clear messages", err)
		return
	}
	writeJSON(w, http.StatusOK, models.MessagesResponse{Messages: msgs})
}

// SendMessage handles POST /api/http_chatbot_message.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req models.SendMessageRequest
	if !decode(w, r, &req, errSessionRequired) {
		return
	}
	reply, err := h.ChatService.Send(r.Context(), req.UserID, req.SessionID, req.Query, req.RAG)
	if err != nil {
		h.fail(w, "send message", err)
		return
	}
	metrics.MessagesSent.WithLabelValues(strconv.FormatBool(req.RAG)).Inc()
	writeJSON(w, http.StatusOK, models.SendMessageResponse{Reply: reply})
}

func (h *ChatHandler) sessionRequest(w http.ResponseWriter, r *http.Request) (models.SessionRequest, bool) {
	var req models.SessionRequest
	ok := decode(w, r, &req, errSessionRequired)
	return req, ok
}

func (h *ChatHandler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrEmptyQuery):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		if h.Log != nil {
			h.Log.Error(op+" failed", zap.Error(err))
		}
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
