package service_test

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/atinyakov/GophChat/internal/models"
	"github.com/atinyakov/GophChat/internal/repository"
	"github.com/atinyakov/GophChat/internal/service"
)

// memChatRepo is an in-memory ChatRepository owned by a single user.
type memChatRepo struct {
	owner    string
	sessions []models.Session
	messages map[string][]models.Message
	addErr   error
}

func newMemChatRepo(owner string) *memChatRepo {
	return &memChatRepo{owner: owner, messages: make(map[string][]models.Message)}
}

func (m *memChatRepo) CreateSession(_ context.Context, userID string, s models.Session) error {
	m.sessions = append([]models.Session{s}, m.sessions...)
	return nil
}
func (m *memChatRepo) ListSessions(_ context.Context, userID string) ([]models.Session, error) {
	if userID != m.owner {
		return []models.Session{}, nil
	}
	return m.sessions, nil
}
func (m *memChatRepo) SessionExists(_ context.Context, userID, sessionID string) (bool, error) {
	if userID != m.owner {
		return false, nil
	}
	for _, s := range m.sessions {
		if s.ID == sessionID {
			return true, nil
		}
	}
	return false, nil
}
func (m *memChatRepo) DeleteSession(ctx context.Context, userID, sessionID string) error {
	ok, _ := m.SessionExists(ctx, userID, sessionID)
	if !ok {
		return repository.ErrNotFound
	}
	kept := m.sessions[:0]
	for _, s := range m.sessions {
		if s.ID != sessionID {
			kept = append(kept, s)
		}
	}
	m.sessions = kept
	return nil
}
func (m *memChatRepo) AddMessages(_ context.Context, sessionID string, msgs ...models.Message) error {
	if m.addErr != nil {
		return m.addErr
	}
	m.messages[sessionID] = append(m.messages[sessionID], msgs...)
	return nil
}
func (m *memChatRepo) GetMessages(_ context.Context, sessionID string) ([]models.Message, error) {
	return append([]models.Message(nil), m.messages[sessionID]...), nil
}
func (m *memChatRepo) ClearMessages(_ context.Context, sessionID string) error {
	delete(m.messages, sessionID)
	return nil
}

type fakeSearcher struct {
	chunks []models.Chunk
	err    error
	query  string
}

func (f *fakeSearcher) SearchChunks(_ context.Context, query string, limit int) ([]models.Chunk, error) {
	f.query = query
	if len(f.chunks) > limit {
		return f.chunks[:limit], f.err
	}
	return f.chunks, f.err
}

type fakeResponder struct {
	reply string
	err   error
	last  []models.Message
}

func (f *fakeResponder) Reply(_ context.Context, history []models.Message) (string, error) {
	f.last = history
	return f.reply, f.err
}

func TestCreateSession_SeedsHistory(t *testing.T) {
	repo := newMemChatRepo("u1")
	resp := &fakeResponder{reply: "Welcome!"}
	svc := service.NewChatService(repo, &fakeSearcher{}, resp, nil)

	sess, err := svc.CreateSession(context.Background(), "u1", "Trip")
	if err != nil {
		t.Fatalf("CreateSession error: %v", err)
	}
	if sess.ID == "" || sess.Title != "Trip" {
		t.Errorf("session = %+v", sess)
	}

	msgs, err := svc.Messages(context.Background(), "u1", sess.ID)
	if err != nil {
		t.Fatalf("Messages error: %v", err)
	}
	want := []models.Message{
		{Role: models.MessageSystem, Content: service.DefaultSystemPrompt},
		{Role: models.MessageAssistant, Content: "Welcome!"},
	}
	if !reflect.DeepEqual(msgs, want) {
		t.Errorf("history = %+v; want %+v", msgs, want)
	}
}

func TestCreateSession_DefaultGreetingWhenResponderFails(t *testing.T) {
	repo := newMemChatRepo("u1")
	svc := service.NewChatService(repo, &fakeSearcher{}, &fakeResponder{err: errors.New("offline")}, nil)

	sess, err := svc.CreateSession(context.Background(), "u1", "x")
	if err != nil {
		t.Fatalf("CreateSession error: %v", err)
	}
	msgs := repo.messages[sess.ID]
	if len(msgs) != 2 || msgs[1].Content != service.DefaultGreeting {
		t.Errorf("history = %+v", msgs)
	}
}

func TestSend_GroundsQueryButStoresBareQuery(t *testing.T) {
	repo := newMemChatRepo("u1")
	search := &fakeSearcher{chunks: []models.Chunk{{IndexName: "docs", FileName: "manual.txt", Content: "Brakes are checked yearly."}}}
	resp := &fakeResponder{reply: "hello"}
	svc := service.NewChatService(repo, search, resp, nil)
	sess, _ := svc.CreateSession(context.Background(), "u1", "x")

	resp.reply = "Once a year."
	reply, err := svc.Send(context.Background(), "u1", sess.ID, "how often are brakes checked?", true)
	if err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if reply != "Once a year." {
		t.Errorf("reply = %q", reply)
	}
	if search.query != "how often are brakes checked?" {
		t.Errorf("search query = %q", search.query)
	}
	prompt := resp.last[len(resp.last)-1]
	if prompt.Role != models.MessageUser || !strings.Contains(prompt.Content, "Brakes are checked yearly.") {
		t.Errorf("grounded prompt = %+v", prompt)
	}

	msgs := repo.messages[sess.ID]
	if len(msgs) != 4 {
		t.Fatalf("history length = %d; want 4", len(msgs))
	}
	if msgs[2].Content != "how often are brakes checked?" || msgs[3].Content != "Once a year." {
		t.Errorf("stored round trip = %+v", msgs[2:])
	}
}

func TestSend_WithoutRAGSkipsSearch(t *testing.T) {
	repo := newMemChatRepo("u1")
	search := &fakeSearcher{err: errors.New("must not be called")}
	resp := &fakeResponder{reply: "ok"}
	svc := service.NewChatService(repo, search, resp, nil)
	sess, _ := svc.CreateSession(context.Background(), "u1", "x")

	if _, err := svc.Send(context.Background(), "u1", sess.ID, "hi", false); err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if search.query != "" {
		t.Errorf("search was called with %q", search.query)
	}
	if got := resp.last[len(resp.last)-1].Content; got != "hi" {
		t.Errorf("prompt = %q; want bare query", got)
	}
}

func TestSend_Errors(t *testing.T) {
	repo := newMemChatRepo("u1")
	resp := &fakeResponder{reply: "hi"}
	svc := service.NewChatService(repo, &fakeSearcher{}, resp, nil)
	sess, _ := svc.CreateSession(context.Background(), "u1", "x")

	if _, err := svc.Send(context.Background(), "u1", sess.ID, "  ", true); !errors.Is(err, service.ErrEmptyQuery) {
		t.Errorf("blank query error = %v", err)
	}
	if _, err := svc.Send(context.Background(), "u2", sess.ID, "hi", true); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("foreign session error = %v", err)
	}

	resp.err = errors.New("model crashed")
	before := len(repo.messages[sess.ID])
	if _, err := svc.Send(context.Background(), "u1", sess.ID, "hi", false); err == nil {
		t.Error("expected responder error")
	}
	if len(repo.messages[sess.ID]) != before {
		t.Error("failed round trip must not be stored")
	}
}

func TestClear_ResetsToSeed(t *testing.T) {
	repo := newMemChatRepo("u1")
	resp := &fakeResponder{reply: "hi"}
	svc := service.NewChatService(repo, &fakeSearcher{}, resp, nil)
	sess, _ := svc.CreateSession(context.Background(), "u1", "x")
	if _, err := svc.Send(context.Background(), "u1", sess.ID, "question", false); err != nil {
		t.Fatalf("Send error: %v", err)
	}

	resp.reply = "Fresh start!"
	msgs, err := svc.Clear(context.Background(), "u1", sess.ID)
	if err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Role != models.MessageSystem || msgs[1].Content != "Fresh start!" {
		t.Errorf("history after clear = %+v", msgs)
	}
}

func TestDeleteSession(t *testing.T) {
	repo := newMemChatRepo("u1")
	svc := service.NewChatService(repo, &fakeSearcher{}, &fakeResponder{}, nil)
	sess, _ := svc.CreateSession(context.Background(), "u1", "x")

	if err := svc.DeleteSession(context.Background(), "u1", sess.ID); err != nil {
		t.Fatalf("DeleteSession error: %v", err)
	}
	if err := svc.DeleteSession(context.Background(), "u1", sess.ID); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("second delete error = %v", err)
	}
	list, _ := svc.ListSessions(context.Background(), "u1")
	if len(list) != 0 {
		t.Errorf("sessions = %+v", list)
	}
}
