// Package shell is the interactive terminal front end of the chat client.
//
// Every command belongs to a route. Before a command runs the route's guard
// is evaluated against the current identity; a denial prints the redirect
// and moves the shell there instead.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/GophChat/internal/client/api"
	"github.com/atinyakov/GophChat/internal/client/guard"
	"github.com/atinyakov/GophChat/internal/client/speech"
	"github.com/atinyakov/GophChat/internal/client/storage"
	"github.com/atinyakov/GophChat/internal/client/transcript"
	"github.com/atinyakov/GophChat/internal/client/views"
	"github.com/atinyakov/GophChat/internal/models"
)

const prompt = "gophchat> "

// IdentityStore is the part of *storage.IdentityStore the shell needs.
type IdentityStore interface {
	Current() storage.Identity
	Login(id string, role models.Role) error
	Logout() error
}

// Shell holds the screens of one client process.
type Shell struct {
	backend api.Backend
	ids     IdentityStore
	in      io.Reader
	out     io.Writer
	log     *zap.Logger
	style   styles

	route guard.Route

	sessions    *views.Sessions
	indexes     *views.Indexes
	docs        *views.Documents
	transcript  *transcript.Transcript
	recognizer  *speech.Recognizer
	synthesizer *speech.Synthesizer
}

// New returns a shell reading commands from in and writing to out.
func New(backend api.Backend, ids IdentityStore, in io.Reader, out io.Writer, log *zap.Logger) *Shell {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Shell{
		backend:     backend,
		ids:         ids,
		in:          in,
		out:         out,
		log:         log,
		style:       newStyles(out),
		route:       guard.RouteLogin,
		transcript:  transcript.New(backend, ids, log),
		recognizer:  speech.NewRecognizer(backend, log),
		synthesizer: speech.NewSynthesizer(backend, log),
	}
	s.resetScreens()
	if ids.Current().Authenticated() {
		s.route = guard.RouteChat
	}
	return s
}

// resetScreens drops every list fetched for the previous identity.
func (s *Shell) resetScreens() {
	s.sessions = views.NewSessions(s.backend, s.ids, s.log)
	s.indexes = views.NewIndexes(s.backend, s.ids, s.log)
	s.docs = nil
}

// Route returns the active route.
func (s *Shell) Route() guard.Route { return s.route }

// Run reads commands until exit, end of input or ctx cancellation.
func (s *Shell) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	for {
		fmt.Fprint(s.out, prompt)
		if !scanner.Scan() {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if quit := s.Exec(ctx, scanner.Text()); quit {
			return nil
		}
	}
	return scanner.Err()
}

// Exec runs one command line and reports whether the shell should stop.
func (s *Shell) Exec(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	name, rest, _ := strings.Cut(line, " ")
	if name == "" {
		return false
	}
	if name == "exit" || name == "quit" {
		s.println("Bye")
		return true
	}

	cmd, ok := commands[name]
	if !ok {
		s.println("Unknown command. Type 'help' for a list of commands.")
		return false
	}
	if !s.navigate(cmd.route) {
		return false
	}
	args := strings.Fields(rest)
	if len(args) < cmd.minArgs {
		s.println("Usage: " + cmd.usage)
		return false
	}
	if err := cmd.run(s, ctx, strings.TrimSpace(rest), args); err != nil {
		s.fail(err)
	}
	return false
}

// navigate evaluates the guard of r and switches to r or to the redirect.
// Commands without a route run on the active screen.
func (s *Shell) navigate(r guard.Route) bool {
	if r == "" {
		return true
	}
	d := guard.ForRoute(r)(s.ids.Current())
	if d.Allowed() {
		s.route = r
		return true
	}
	s.route = d.RedirectTo
	s.println(s.style.notice.Render(fmt.Sprintf("Access denied, redirected to %s", d.RedirectTo)))
	if d.AlsoRedirect != "" {
		s.route = d.AlsoRedirect
		s.println(s.style.notice.Render(fmt.Sprintf("Redirected to %s", d.AlsoRedirect)))
	}
	return false
}

func (s *Shell) println(a ...any) {
	fmt.Fprintln(s.out, a...)
}

func (s *Shell) fail(err error) {
	s.println(s.style.err.Render("Error: " + err.Error()))
}
