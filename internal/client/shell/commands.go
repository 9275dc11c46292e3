package shell

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/atinyakov/GophChat/internal/client/api"
	"github.com/atinyakov/GophChat/internal/client/guard"
	"github.com/atinyakov/GophChat/internal/client/transcript"
	"github.com/atinyakov/GophChat/internal/client/views"
)

const invalidCredentials = "Invalid username or password"

type command struct {
	route   guard.Route
	minArgs int
	usage   string
	run     func(s *Shell, ctx context.Context, rest string, args []string) error
}

var commands = map[string]command{
	"help":      {usage: "help", run: (*Shell).help},
	"login":     {route: guard.RouteLogin, minArgs: 2, usage: "login <user> <password>", run: (*Shell).login},
	"logout":    {usage: "logout", run: (*Shell).logout},
	"whoami":    {usage: "whoami", run: (*Shell).whoami},
	"sessions":  {route: guard.RouteChat, usage: "sessions", run: (*Shell).listSessions},
	"new":       {route: guard.RouteChat, usage: "new [title]", run: (*Shell).newSession},
	"open":      {route: guard.RouteChat, minArgs: 1, usage: "open <session_id>", run: (*Shell).openSession},
	"rm":        {route: guard.RouteChat, minArgs: 1, usage: "rm <session_id>", run: (*Shell).deleteSession},
	"say":       {route: guard.RouteChat, usage: "say <text>", run: (*Shell).say},
	"show":      {route: guard.RouteChat, usage: "show", run: (*Shell).show},
	"clear":     {route: guard.RouteChat, usage: "clear", run: (*Shell).clear},
	"listen":    {route: guard.RouteChat, minArgs: 1, usage: "listen <audio file>", run: (*Shell).listen},
	"speak":     {route: guard.RouteChat, minArgs: 2, usage: "speak <n> <out file>", run: (*Shell).speak},
	"indexes":   {route: guard.RouteKnowledge, usage: "indexes", run: (*Shell).listIndexes},
	"index-new": {route: guard.RouteKnowledge, minArgs: 1, usage: "index-new <name>", run: (*Shell).newIndex},
	"index-rm":  {route: guard.RouteKnowledge, minArgs: 1, usage: "index-rm <name>", run: (*Shell).deleteIndex},
	"docs":      {route: guard.RouteDocuments, minArgs: 1, usage: "docs <index>", run: (*Shell).listDocuments},
	"doc-add":   {route: guard.RouteDocuments, minArgs: 2, usage: "doc-add <index> <files...>", run: (*Shell).addDocuments},
	"doc-rm":    {route: guard.RouteDocuments, minArgs: 2, usage: "doc-rm <index> <file>", run: (*Shell).deleteDocument},
}

const helpText = `Available commands:
  login <user> <password>   sign in
  logout                    sign out
  whoami                    show the signed-in identity
  sessions                  list chat sessions
  new [title]               start a session
  open <session_id>         open a session
  rm <session_id>           delete a session
  say <text>                send a message (end with \ to keep composing)
  show                      print the open transcript
  clear                     reset the open session
  listen <audio file>       transcribe audio into the input
  speak <n> <out file>      save entry n as audio
  indexes                   list knowledge indexes (admin)
  index-new <name>          create an index (admin)
  index-rm <name>           delete an index (admin)
  docs <index>              list documents of an index (admin)
  doc-add <index> <files>   upload documents (admin)
  doc-rm <index> <file>     delete a document (admin)
  exit                      quit`

func (s *Shell) help(context.Context, string, []string) error {
	s.println(helpText)
	return nil
}

func (s *Shell) login(ctx context.Context, _ string, args []string) error {
	res, err := s.backend.Login(ctx, args[0], args[1])
	if errors.Is(err, api.ErrUnauthorized) {
		s.println(s.style.err.Render(invalidCredentials))
		return nil
	}
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if err := s.ids.Login(res.UserID, res.UserType); err != nil {
		return err
	}
	s.route = guard.RouteChat
	s.println(s.style.header.Render(fmt.Sprintf("Signed in as %s (%s)", res.UserID, res.UserType)))
	return nil
}

func (s *Shell) logout(context.Context, string, []string) error {
	if err := s.ids.Logout(); err != nil {
		return err
	}
	s.transcript.Close()
	s.resetScreens()
	s.route = guard.RouteLogin
	s.println("Signed out")
	return nil
}

func (s *Shell) whoami(context.Context, string, []string) error {
	id := s.ids.Current()
	if !id.Authenticated() {
		s.println("Not signed in")
		return nil
	}
	s.println(fmt.Sprintf("%s (%s)", id.ID, id.Role))
	return nil
}

func (s *Shell) listSessions(ctx context.Context, _ string, _ []string) error {
	if err := s.sessions.Load(ctx); err != nil {
		return err
	}
	if s.sessions.Empty() {
		s.println("No sessions yet. Use 'new' to start one.")
		return nil
	}
	cur, _ := s.sessions.Current()
	for _, sess := range s.sessions.Items() {
		line := fmt.Sprintf("%s  %s", sess.ID, sess.Title)
		if sess.ID == cur.ID {
			s.println(s.style.current.Render("* " + line))
			continue
		}
		s.println("  " + line)
	}
	return nil
}

func (s *Shell) newSession(ctx context.Context, rest string, _ []string) error {
	sess, err := s.sessions.Create(ctx, rest)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	s.println(fmt.Sprintf("Created %s  %s", sess.ID, sess.Title))
	return s.open(ctx, sess.ID)
}

func (s *Shell) openSession(ctx context.Context, _ string, args []string) error {
	return s.open(ctx, args[0])
}

func (s *Shell) open(ctx context.Context, sessionID string) error {
	if err := s.sessions.Select(sessionID); errors.Is(err, views.ErrUnknownSession) {
		if err := s.sessions.Load(ctx); err != nil {
			return err
		}
		if err := s.sessions.Select(sessionID); err != nil {
			return err
		}
	}
	if err := s.transcript.Open(ctx, sessionID); err != nil {
		return fmt.Errorf("load messages: %w", err)
	}
	s.renderTranscript()
	return nil
}

func (s *Shell) deleteSession(ctx context.Context, _ string, args []string) error {
	id := args[0]
	if err := s.sessions.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if s.transcript.SessionID() == id {
		s.transcript.Close()
	}
	s.println("Session deleted")
	return nil
}

// say adds text to the input buffer and sends it. A trailing backslash
// keeps the input open for another line.
func (s *Shell) say(ctx context.Context, rest string, _ []string) error {
	text, composing := strings.CutSuffix(rest, `\`)
	if cur := s.transcript.Input(); cur != "" && text != "" {
		sep := " "
		if strings.HasSuffix(cur, "\n") {
			sep = ""
		}
		text = cur + sep + text
	} else if text == "" {
		text = s.transcript.Input()
	}
	if composing {
		text += "\n"
	}
	s.transcript.SetInput(text)
	s.transcript.SetComposing(composing)
	if composing {
		return nil
	}

	before := len(s.transcript.Entries())
	err := s.transcript.Send(ctx)
	switch {
	case errors.Is(err, transcript.ErrEmptyInput), errors.Is(err, transcript.ErrBusy):
		return nil
	case errors.Is(err, transcript.ErrNoSession):
		return errors.New("no session open, use 'new' or 'open'")
	}
	entries := s.transcript.Entries()
	if before <= len(entries) {
		for _, e := range entries[before:] {
			s.renderEntry(e)
		}
	}
	return nil
}

func (s *Shell) show(context.Context, string, []string) error {
	if s.transcript.SessionID() == "" {
		return errors.New("no session open")
	}
	s.renderTranscript()
	return nil
}

func (s *Shell) clear(ctx context.Context, _ string, _ []string) error {
	if err := s.transcript.Clear(ctx); err != nil {
		return fmt.Errorf("clear chat: %w", err)
	}
	s.renderTranscript()
	return nil
}

func (s *Shell) listen(ctx context.Context, _ string, args []string) error {
	audio, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	_ = s.recognizer.Transcribe(ctx, filepath.Base(args[0]), audio, s.transcript)
	s.println("Input: " + strings.TrimSpace(s.transcript.Input()))
	return nil
}

func (s *Shell) speak(ctx context.Context, _ string, args []string) error {
	n, err := strconv.Atoi(args[0])
	entries := s.transcript.Entries()
	if err != nil || n < 1 || n > len(entries) {
		return fmt.Errorf("no entry %s", args[0])
	}
	audio, err := s.synthesizer.Synthesize(ctx, entries[n-1].Content)
	if err != nil {
		return fmt.Errorf("text to speech: %w", err)
	}
	if err := os.WriteFile(args[1], audio, 0o644); err != nil {
		return err
	}
	s.println(fmt.Sprintf("Saved %d bytes to %s", len(audio), args[1]))
	return nil
}

func (s *Shell) listIndexes(ctx context.Context, _ string, _ []string) error {
	if err := s.indexes.Load(ctx); err != nil {
		return err
	}
	if s.indexes.Empty() {
		s.println("No indexes yet.")
		return nil
	}
	for _, name := range s.indexes.Items() {
		s.println("  " + name)
	}
	return nil
}

func (s *Shell) newIndex(ctx context.Context, _ string, args []string) error {
	err := s.indexes.Create(ctx, args[0])
	if errors.Is(err, views.ErrIndexNameTaken) {
		s.println(s.style.err.Render(views.IndexNameTakenMessage))
		return nil
	}
	if err != nil {
		return err
	}
	s.println("Index created")
	return nil
}

func (s *Shell) deleteIndex(ctx context.Context, _ string, args []string) error {
	if err := s.indexes.Delete(ctx, args[0]); err != nil {
		return fmt.Errorf("delete index: %w", err)
	}
	if s.docs != nil && s.docs.Index() == args[0] {
		s.docs = nil
	}
	s.println("Index deleted")
	return nil
}

// documents returns the screen of index, reusing the open one.
func (s *Shell) documents(index string) (*views.Documents, error) {
	if s.docs != nil && s.docs.Index() == index {
		return s.docs, nil
	}
	docs, err := views.NewDocuments(s.backend, s.ids, index, s.log)
	if err != nil {
		return nil, err
	}
	s.docs = docs
	return docs, nil
}

func (s *Shell) listDocuments(ctx context.Context, _ string, args []string) error {
	docs, err := s.documents(args[0])
	if err != nil {
		return err
	}
	if err := docs.Load(ctx); err != nil {
		return err
	}
	s.printDocuments(docs)
	return nil
}

func (s *Shell) printDocuments(docs *views.Documents) {
	if docs.Empty() {
		s.println("No documents in " + docs.Index())
		return
	}
	for _, name := range docs.Names() {
		s.println("  " + name)
	}
}

func (s *Shell) addDocuments(ctx context.Context, _ string, args []string) error {
	docs, err := s.documents(args[0])
	if err != nil {
		return err
	}
	files := make([]api.Upload, 0, len(args)-1)
	for _, path := range args[1:] {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files = append(files, api.Upload{
			Name:        filepath.Base(path),
			ContentType: contentType(path),
			Data:        data,
		})
	}
	res, err := docs.Upload(ctx, files)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	s.println(fmt.Sprintf("Added %d file(s), %d chunk(s)", len(res.Added), res.Chunks))
	s.printDocuments(docs)
	return nil
}

func contentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	switch ext {
	case ".txt", ".md":
		return "text/plain; charset=utf-8"
	}
	return "application/octet-stream"
}

func (s *Shell) deleteDocument(ctx context.Context, _ string, args []string) error {
	docs, err := s.documents(args[0])
	if err != nil {
		return err
	}
	if err := docs.Delete(ctx, args[1]); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	s.println("Document deleted")
	s.printDocuments(docs)
	return nil
}
