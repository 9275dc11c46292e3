package shell

import (
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/atinyakov/GophChat/internal/client/transcript"
	"github.com/atinyakov/GophChat/internal/models"
)

type styles struct {
	header  lipgloss.Style
	current lipgloss.Style
	user    lipgloss.Style
	bot     lipgloss.Style
	pending lipgloss.Style
	failed  lipgloss.Style
	notice  lipgloss.Style
	err     lipgloss.Style
}

// newStyles binds the palette to out, so plain writers get plain text.
func newStyles(out io.Writer) styles {
	r := lipgloss.NewRenderer(out)
	return styles{
		header:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		current: r.NewStyle().Foreground(lipgloss.Color("39")),
		user:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		bot:     r.NewStyle().Foreground(lipgloss.Color("252")),
		pending: r.NewStyle().Foreground(lipgloss.Color("240")).Italic(true),
		failed:  r.NewStyle().Foreground(lipgloss.Color("203")),
		notice:  r.NewStyle().Foreground(lipgloss.Color("244")),
		err:     r.NewStyle().Foreground(lipgloss.Color("196")),
	}
}

func (s *Shell) renderTranscript() {
	entries := s.transcript.Entries()
	if len(entries) == 0 {
		s.println(s.style.notice.Render("(no messages)"))
		return
	}
	for _, e := range entries {
		s.renderEntry(e)
	}
}

func (s *Shell) renderEntry(e transcript.Entry) {
	label, style := "bot", s.style.bot
	if e.Role == models.MessageUser {
		label, style = "you", s.style.user
	}
	switch e.State {
	case transcript.Pending:
		style = s.style.pending
	case transcript.Failed:
		if e.Role != models.MessageUser {
			style = s.style.failed
		}
	}
	s.println(style.Render(label + ": " + e.Content))
}
