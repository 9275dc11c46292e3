// Package transcript runs the conversation view of one chat session.
//
// Each round trip goes through a fixed lifecycle. On submit the user's entry
// is appended as Pending and the input is cleared. When the backend answers,
// the user's entry becomes Resolved and the reply is appended. When it fails,
// the user's entry becomes Failed and FallbackReply is appended instead.
// Either way the in-flight flag drops.
package transcript

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/atinyakov/GophChat/internal/client/api"
	"github.com/atinyakov/GophChat/internal/client/storage"
	"github.com/atinyakov/GophChat/internal/models"
)

// FallbackReply replaces the bot reply when a send fails.
const FallbackReply = "⚠️ Error: could not get response"

var (
	// ErrNoSession is returned by Send and Clear when no session is open.
	ErrNoSession = errors.New("no session open")
	// ErrEmptyInput is returned by Send for blank input.
	ErrEmptyInput = errors.New("empty message")
	// ErrComposing is returned by Send while the input is still being composed.
	ErrComposing = errors.New("input is still being composed")
	// ErrBusy is returned by Send while another reply is pending.
	ErrBusy = errors.New("a request is already in flight")
	// ErrNotSignedIn is returned when the identity has no user id.
	ErrNotSignedIn = errors.New("not signed in")

	errEmptySession = errors.New("empty session id")
)

// State is the lifecycle state of an entry.
type State int

const (
	// Pending marks a user entry whose reply has not arrived.
	Pending State = iota
	// Resolved marks a settled entry.
	Resolved
	// Failed marks a user entry whose send failed.
	Failed
)

// Entry is one displayed transcript line.
type Entry struct {
	models.Message
	State State
}

// IdentitySource yields the current identity.
type IdentitySource interface {
	Current() storage.Identity
}

// Transcript is the message list and input box of the open session.
type Transcript struct {
	backend api.Backend
	ids     IdentitySource
	log     *zap.Logger

	// op is held for the whole of Open, Clear and Send.
	op sync.Mutex

	mu        sync.RWMutex
	sessionID string
	entries   []Entry
	input     string
	composing bool
	inFlight  bool
}

// New returns a transcript with no session open.
func New(backend api.Backend, ids IdentitySource, log *zap.Logger) *Transcript {
	if log == nil {
		log = zap.NewNop()
	}
	return &Transcript{backend: backend, ids: ids, log: log.With(zap.String("view", "transcript"))}
}

// DropLeadingHistoryEntry removes the first entry of a history returned by
// the backend. The backend always returns one leading entry that is never
// displayed; what it holds is not interpreted here.
func DropLeadingHistoryEntry(msgs []models.Message) []models.Message {
	if len(msgs) == 0 {
		return nil
	}
	return msgs[1:]
}

func resolved(msgs []models.Message) []Entry {
	out := make([]Entry, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, Entry{Message: m, State: Resolved})
	}
	return out
}

func (t *Transcript) userID() (string, error) {
	id := t.ids.Current()
	if !id.Authenticated() {
		return "", ErrNotSignedIn
	}
	return id.ID, nil
}

// Open switches to sessionID: the transcript is cleared and reloaded from
// the backend. A load failure is logged and leaves the transcript empty.
func (t *Transcript) Open(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return errEmptySession
	}
	uid, err := t.userID()
	if err != nil {
		return err
	}

	t.op.Lock()
	defer t.op.Unlock()

	t.mu.Lock()
	t.sessionID = sessionID
	t.entries = nil
	t.mu.Unlock()

	msgs, err := t.backend.GetMessages(ctx, uid, sessionID)
	if err != nil {
		t.log.Error("load messages failed", zap.String("session_id", sessionID), zap.Error(err))
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sessionID == sessionID {
		t.entries = resolved(DropLeadingHistoryEntry(msgs))
	}
	return nil
}

// Close forgets the open session, as when it was deleted.
func (t *Transcript) Close() {
	t.op.Lock()
	defer t.op.Unlock()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessionID = ""
	t.entries = nil
}

// Clear asks the backend to reset the session and shows what remains.
func (t *Transcript) Clear(ctx context.Context) error {
	uid, err := t.userID()
	if err != nil {
		return err
	}

	t.op.Lock()
	defer t.op.Unlock()

	sid := t.SessionID()
	if sid == "" {
		return ErrNoSession
	}
	msgs, err := t.backend.ClearMessages(ctx, uid, sid)
	if err != nil {
		t.log.Error("clear chat failed", zap.String("session_id", sid), zap.Error(err))
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = resolved(DropLeadingHistoryEntry(msgs))
	return nil
}

// Send submits the current input. It is refused for blank input, while the
// input is being composed, and while another request is in flight.
func (t *Transcript) Send(ctx context.Context) error {
	uid, err := t.userID()
	if err != nil {
		return err
	}
	if !t.op.TryLock() {
		return ErrBusy
	}
	defer t.op.Unlock()

	t.mu.Lock()
	switch {
	case t.sessionID == "":
		t.mu.Unlock()
		return ErrNoSession
	case t.inFlight:
		t.mu.Unlock()
		return ErrBusy
	case t.composing:
		t.mu.Unlock()
		return ErrComposing
	case strings.TrimSpace(t.input) == "":
		t.mu.Unlock()
		return ErrEmptyInput
	}
	sid := t.sessionID
	query := t.input
	pos := len(t.entries)
	t.entries = append(t.entries, Entry{Message: models.Message{Role: models.MessageUser, Content: query}, State: Pending})
	t.input = ""
	t.inFlight = true
	t.mu.Unlock()

	reply, err := t.backend.SendMessage(ctx, uid, sid, query)
	if err != nil {
		t.log.Error("send failed", zap.String("session_id", sid), zap.Error(err))
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = merge(t.entries, pos, reply, err)
	t.inFlight = false
	return err
}

// merge settles the pending user entry at pos with the outcome of its round
// trip and appends the bot entry.
func merge(entries []Entry, pos int, reply string, err error) []Entry {
	state := Resolved
	content := reply
	if err != nil {
		state = Failed
		content = FallbackReply
	}
	if pos < len(entries) && entries[pos].State == Pending {
		entries[pos].State = state
	}
	return append(entries, Entry{Message: models.Message{Role: models.MessageBot, Content: content}, State: state})
}

// SetInput replaces the input buffer.
func (t *Transcript) SetInput(s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.input = s
}

// AppendInput adds text to the input buffer, separated by a space.
func (t *Transcript) AppendInput(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.input = t.input + " " + text
}

// SetComposing marks the input as mid-composition.
func (t *Transcript) SetComposing(v bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.composing = v
}

// Input returns the input buffer.
func (t *Transcript) Input() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.input
}

// Entries returns a copy of the displayed entries.
func (t *Transcript) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Entry(nil), t.entries...)
}

// InFlight reports whether a send is waiting for its reply.
func (t *Transcript) InFlight() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.inFlight
}

// SessionID returns the open session, or "".
func (t *Transcript) SessionID() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sessionID
}
