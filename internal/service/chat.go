package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atinyakov/GophChat/internal/models"
	"github.com/atinyakov/GophChat/internal/repository"
)

// DefaultSystemPrompt seeds every session.
const DefaultSystemPrompt = `You are a friendly retrieval-augmented assistant.
Answer the query using only the sources provided with it, in a friendly and concise manner.
If the sources do not hold enough information, say you don't know and ask the user to keep
to questions within your scope. Small talk and greetings may be answered without sources.
Every message has the format:
query: <user query>, sources:
<formatted list of sources>
Once initialized, greet the user with a welcome message and introduce yourself.`

// DefaultGreeting is stored when the responder cannot produce a greeting.
const DefaultGreeting = "Hi! How can I help you today?"

const groundedPrompt = `Provide an answer to this query while referring to the sources provided.
If the user is greeting you or making small talk, reply without the sources.
query: %s, sources:
%s`

var (
	// ErrSessionNotFound is returned when the user owns no such session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrEmptyQuery is returned for a blank message.
	ErrEmptyQuery = errors.New("empty query")
)

// ChatRepository defines the persistence operations needed by the ChatService.
type ChatRepository interface {
	CreateSession(ctx context.Context, userID string, s models.Session) error
	ListSessions(ctx context.Context, userID string) ([]models.Session, error)
	SessionExists(ctx context.Context, userID, sessionID string) (bool, error)
	DeleteSession(ctx context.Context, userID, sessionID string) error
	AddMessages(ctx context.Context, sessionID string, msgs ...models.Message) error
	GetMessages(ctx context.Context, sessionID string) ([]models.Message, error)
	ClearMessages(ctx context.Context, sessionID string) error
}

// ChunkSearcher finds document chunks relevant to a query.
type ChunkSearcher interface {
	SearchChunks(ctx context.Context, query string, limit int) ([]models.Chunk, error)
}

// Responder produces the assistant's next message for a conversation.
type Responder interface {
	Reply(ctx context.Context, history []models.Message) (string, error)
}

// ChatService implements sessions and the message round trip.
type ChatService struct {
	repo      ChatRepository
	search    ChunkSearcher
	responder Responder
	log       *zap.Logger

	// SystemPrompt is the leading entry of every session history.
	SystemPrompt string
	// TopK bounds the number of chunks put into a grounded prompt.
	TopK int
}

// NewChatService constructs a ChatService with the default prompt.
func NewChatService(repo ChatRepository, search ChunkSearcher, responder Responder, log *zap.Logger) *ChatService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ChatService{
		repo:         repo,
		search:       search,
		responder:    responder,
		log:          log,
		SystemPrompt: DefaultSystemPrompt,
		TopK:         5,
	}
}

// ListSessions returns the sessions of userID, newest first.
func (s *ChatService) ListSessions(ctx context.Context, userID string) ([]models.Session, error) {
	return s.repo.ListSessions(ctx, userID)
}

// CreateSession opens a session seeded with the system prompt and a greeting.
func (s *ChatService) CreateSession(ctx context.Context, userID, title string) (models.Session, error) {
	sess := models.Session{ID: uuid.NewString(), Title: title}
	if err := s.repo.CreateSession(ctx, userID, sess); err != nil {
		return models.Session{}, err
	}
	if err := s.seed(ctx, sess.ID); err != nil {
		return models.Session{}, err
	}
	return sess, nil
}

// DeleteSession removes a session of userID.
func (s *ChatService) DeleteSession(ctx context.Context, userID, sessionID string) error {
	err := s.repo.DeleteSession(ctx, userID, sessionID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrSessionNotFound
	}
	return err
}

// Messages returns the stored history, system prompt first.
func (s *ChatService) Messages(ctx context.Context, userID, sessionID string) ([]models.Message, error) {
	if err := s.own(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	return s.repo.GetMessages(ctx, sessionID)
}

// Clear resets a session to its seed and returns the new history.
func (s *ChatService) Clear(ctx context.Context, userID, sessionID string) ([]models.Message, error) {
	if err := s.own(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	if err := s.repo.ClearMessages(ctx, sessionID); err != nil {
		return nil, err
	}
	if err := s.seed(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.repo.GetMessages(ctx, sessionID)
}

// Send stores query and the assistant's reply. With rag the query sent to
// the responder is grounded on the best matching chunks; the stored user
// entry is always the bare query.
func (s *ChatService) Send(ctx context.Context, userID, sessionID, query string, rag bool) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", ErrEmptyQuery
	}
	if err := s.own(ctx, userID, sessionID); err != nil {
		return "", err
	}
	history, err := s.repo.GetMessages(ctx, sessionID)
	if err != nil {
		return "", err
	}

	prompt := query
	if rag {
		prompt, err = s.ground(ctx, query)
		if err != nil {
			return "", err
		}
	}

	reply, err := s.responder.Reply(ctx, append(history, models.Message{Role: models.MessageUser, Content: prompt}))
	if err != nil {
		return "", fmt.Errorf("responder: %w", err)
	}

	err = s.repo.AddMessages(ctx, sessionID,
		models.Message{Role: models.MessageUser, Content: query},
		models.Message{Role: models.MessageAssistant, Content: reply},
	)
	if err != nil {
		return "", err
	}
	return reply, nil
}

func (s *ChatService) ground(ctx context.Context, query string) (string, error) {
	chunks, err := s.search.SearchChunks(ctx, query, s.TopK)
	if err != nil {
		return "", fmt.Errorf("search: %w", err)
	}
	sources := make([]string, 0, len(chunks))
	for _, c := range chunks {
		sources = append(sources, fmt.Sprintf("Source: %s/%s\nContent: %s", c.IndexName, c.FileName, c.Content))
	}
	return fmt.Sprintf(groundedPrompt, query, strings.Join(sources, "\n\n")), nil
}

// seed stores the system prompt and a greeting as the first two entries.
func (s *ChatService) seed(ctx context.Context, sessionID string) error {
	system := models.Message{Role: models.MessageSystem, Content: s.SystemPrompt}
	greeting, err := s.responder.Reply(ctx, []models.Message{system})
	if err != nil {
		s.log.Warn("greeting failed, using default", zap.String("session_id", sessionID), zap.Error(err))
		greeting = DefaultGreeting
	}
	return s.repo.AddMessages(ctx, sessionID, system, models.Message{Role: models.MessageAssistant, Content: greeting})
}

func (s *ChatService) own(ctx context.Context, userID, sessionID string) error {
	ok, err := s.repo.SessionExists(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSessionNotFound
	}
	return nil
}
