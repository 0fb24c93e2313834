package ui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type confirmModel struct {
	question string
	answer   bool
	done     bool
	help     help.Model
	keys     keyMap
}

func newConfirmModel(question string) confirmModel {
	return confirmModel{question: question, help: help.New(), keys: newKeyMap()}
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.yes):
			m.answer, m.done = true, true
			return m, tea.Quit
		case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.quit):
			m.answer, m.done = false, true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.done {
		answer := "no"
		if m.answer {
			answer = "yes"
		}
		return fmt.Sprintf("%s %s\n", m.question, styles.help.Render(answer))
	}
	return fmt.Sprintf("%s %s\n", m.question, m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no}))
}

// Confirm asks a y/n question. Anything but yes, including quitting, is no.
func Confirm(ctx context.Context, in io.Reader, out io.Writer, question string) (bool, error) {
	final, err := run(ctx, newConfirmModel(question), in, out, nil)
	if err != nil {
		return false, err
	}
	return final.(confirmModel).answer, nil
}

type secretModel struct {
	input   textinput.Model
	done    bool
	aborted bool
}

func newSecretModel(label string) secretModel {
	ti := textinput.New()
	ti.Prompt = label + ": "
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.Focus()
	return secretModel{input: ti}
}

func (m secretModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m secretModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.aborted = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m secretModel) View() string {
	if m.done || m.aborted {
		return ""
	}
	return m.input.View() + "\n"
}

func (m secretModel) value() string {
	return strings.TrimSpace(m.input.Value())
}

// PromptSecret reads a masked value. Escape or ctrl+c returns [ErrAborted].
func PromptSecret(ctx context.Context, in io.Reader, out io.Writer, label string) (string, error) {
	final, err := run(ctx, newSecretModel(label), in, out, nil)
	if err != nil {
		return "", err
	}
	m := final.(secretModel)
	if m.aborted {
		return "", ErrAborted
	}
	return m.value(), nil
}
