package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/greekdeck/internal/formatter"
	"github.com/desertthunder/greekdeck/internal/models"
)

// ErrAborted is returned when the user quits a prompt.
var ErrAborted = errors.New("aborted by user")

// reviewModel shows one generated card and waits for a decision.
type reviewModel struct {
	word     string
	sections []formatter.PreviewSection
	decision models.Decision
	decided  bool
	width    int
	help     help.Model
	keys     keyMap
}

func newReviewModel(word string, card *models.GeneratedCard) reviewModel {
	return reviewModel{
		word:     word,
		sections: formatter.PreviewSections(card),
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

func (m reviewModel) Init() tea.Cmd {
	return nil
}

func (m reviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.accept):
			m.decision, m.decided = models.DecisionAccept, true
			return m, tea.Quit
		case key.Matches(msg, m.keys.regenerate):
			m.decision, m.decided = models.DecisionRegenerate, true
			return m, tea.Quit
		case key.Matches(msg, m.keys.skip):
			m.decision, m.decided = models.DecisionSkip, true
			return m, tea.Quit
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m reviewModel) View() string {
	if m.decided {
		return fmt.Sprintf("%s %s\n", m.word, styles.help.Render(m.decision.String()))
	}

	body := lipgloss.NewStyle()
	if m.width > 4 {
		body = body.Width(m.width - 4)
	}

	var b strings.Builder
	b.WriteString(styles.title.Render(fmt.Sprintf("Card for %s", m.word)))
	b.WriteString("\n")
	for _, s := range m.sections {
		b.WriteString(styles.section.Render("== " + s.Title + " =="))
		b.WriteString("\n")
		b.WriteString(body.Render(s.Body))
		b.WriteString("\n\n")
	}
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.accept, m.keys.regenerate, m.keys.skip, m.keys.quit}))
	b.WriteString("\n")
	return b.String()
}

// ReviewPrompt asks the user about each generated card in the terminal.
type ReviewPrompt struct {
	in   io.Reader
	out  io.Writer
	opts []tea.ProgramOption
}

// NewReviewPrompt creates a ReviewPrompt reading keys from in and drawing to out.
func NewReviewPrompt(in io.Reader, out io.Writer, opts ...tea.ProgramOption) *ReviewPrompt {
	return &ReviewPrompt{in: in, out: out, opts: opts}
}

// Review shows card and returns the chosen decision. Quitting returns [ErrAborted].
func (p *ReviewPrompt) Review(ctx context.Context, word string, card *models.GeneratedCard) (models.Decision, error) {
	final, err := run(ctx, newReviewModel(word, card), p.in, p.out, p.opts)
	if err != nil {
		return 0, err
	}
	m := final.(reviewModel)
	if !m.decided {
		return 0, ErrAborted
	}
	return m.decision, nil
}

// run starts a program over the given streams and returns its final model.
func run(ctx context.Context, m tea.Model, in io.Reader, out io.Writer, opts []tea.ProgramOption) (tea.Model, error) {
	opts = append([]tea.ProgramOption{tea.WithInput(in), tea.WithOutput(out), tea.WithContext(ctx)}, opts...)
	final, err := tea.NewProgram(m, opts...).Run()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("terminal prompt failed: %w", err)
	}
	return final, nil
}
