// Package tui implements the interactive chat view. One Model backs
// one chat panel: it owns the input area and renders the message log
// held by a chat.Controller.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/qbitlm/qbit/internal/chat"
	"github.com/qbitlm/qbit/internal/llm"
	"github.com/qbitlm/qbit/internal/notebook"
)

const assistantName = "qbit LM"

// Messages for tea.Program
type (
	logChangedMsg struct{}
	submitDoneMsg struct{ err error }
)

// Model is the chat TUI model.
type Model struct {
	width  int
	height int

	textarea textarea.Model
	spinner  spinner.Model
	styles   Styles

	nb         *notebook.Notebook
	source     *notebook.Source // nil for notebook-wide chat
	controller *chat.Controller
	log        *zap.Logger

	// changes is fed by the controller's change callback; the value is
	// coalesced so a burst of deltas triggers one redraw.
	changes chan struct{}

	// cancel aborts the in-flight request when the user quits.
	cancel context.CancelFunc

	mentionIdx int // index into nb.Sources, -1 for none
	status     string
	quitting   bool
}

// New builds a chat model. A non-nil source scopes the conversation
// to that source; otherwise the chat is notebook-wide with optional
// per-message mentions.
func New(gateway llm.Gateway, nb *notebook.Notebook, source *notebook.Source, log *zap.Logger) *Model {
	if log == nil {
		log = zap.NewNop()
	}

	var controller *chat.Controller
	if source != nil {
		controller = chat.NewSourceController(gateway, source, log)
	} else {
		controller = chat.NewNotebookController(gateway, log)
	}

	s := spinner.New()
	s.Spinner = spinner.Dot

	ta := textarea.New()
	ta.Placeholder = "Ask a question..."
	ta.Prompt = "❯ "
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(1)
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.Focus()

	m := &Model{
		width:      80,
		height:     24,
		textarea:   ta,
		spinner:    s,
		styles:     DefaultStyles(),
		nb:         nb,
		source:     source,
		controller: controller,
		log:        log,
		changes:    make(chan struct{}, 1),
		mentionIdx: -1,
	}
	m.spinner.Style = m.styles.Spinner

	controller.SetOnChange(func() {
		select {
		case m.changes <- struct{}{}:
		default:
		}
	})
	return m
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick, m.waitForChange())
}

func (m *Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		<-m.changes
		return logChangedMsg{}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textarea.SetWidth(msg.Width - 2)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			m.quitting = true
			return m, tea.Quit
		case "enter":
			return m, m.submit()
		case "ctrl+o":
			m.cycleMention()
			return m, nil
		}

	case logChangedMsg:
		return m, m.waitForChange()

	case submitDoneMsg:
		m.cancel = nil
		m.status = statusFor(msg.err)
		return m, nil

	case spinner.TickMsg:
		if m.controller.InFlight() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

// submit hands the typed input to the controller on its own
// goroutine. Deltas arrive through the change callback while the
// request streams.
func (m *Model) submit() tea.Cmd {
	input := m.textarea.Value()
	if strings.TrimSpace(input) == "" {
		return nil
	}
	if m.controller.InFlight() {
		m.status = "Still responding, hang on."
		return nil
	}

	m.textarea.Reset()
	m.status = ""

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	controller := m.controller
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		defer cancel()
		return submitDoneMsg{err: controller.Submit(ctx, input)}
	})
}

// cycleMention rotates the notebook chat's one-shot focus through
// the notebook's sources: none, each source in order, back to none.
func (m *Model) cycleMention() {
	if m.source != nil || m.nb == nil || len(m.nb.Sources) == 0 {
		return
	}
	m.mentionIdx++
	if m.mentionIdx >= len(m.nb.Sources) {
		m.mentionIdx = -1
		m.controller.ClearMention()
		return
	}
	m.controller.SetMention(&m.nb.Sources[m.mentionIdx])
}

func statusFor(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, chat.ErrUnusableSource):
		return "Media content not available. Re-add the source to chat about it."
	case errors.Is(err, chat.ErrBusy):
		return "Still responding, hang on."
	case errors.Is(err, chat.ErrNoContext):
		return "Select a source first."
	default:
		return ""
	}
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.styles.Header.Render(m.headerLine()))
	b.WriteString("\n\n")

	messages := m.controller.Messages()
	inFlight := m.controller.InFlight()
	for i, msg := range messages {
		last := i == len(messages)-1
		b.WriteString(m.renderMessage(msg, last && inFlight))
		b.WriteString("\n")
	}

	if notice := m.notice(); notice != "" {
		b.WriteString(m.styles.Notice.Render(notice))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(m.styles.Error.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.textarea.View())
	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render(m.footerLine()))
	return b.String()
}

func (m *Model) headerLine() string {
	title := "qbit"
	if m.nb != nil {
		title = m.nb.Title
	}
	if m.source != nil {
		return fmt.Sprintf("%s · %s", title, m.source.Title)
	}
	if mention := m.controller.Mention(); mention != nil {
		return fmt.Sprintf("%s · @%s", title, mention.Title)
	}
	return title
}

func (m *Model) footerLine() string {
	if m.source == nil && m.nb != nil && len(m.nb.Sources) > 0 {
		return "enter send · ctrl+o focus source · esc quit"
	}
	return "enter send · esc quit"
}

// notice reports the persistent unusable-media warning for the
// focused source, if any.
func (m *Model) notice() string {
	focus := m.controller.Focus()
	if focus != nil && !focus.Usable() {
		return "This source's media content was not persisted. Re-add it to chat about it."
	}
	return ""
}

func (m *Model) renderMessage(msg notebook.ChatMessage, streaming bool) string {
	var b strings.Builder
	if msg.Role == notebook.RoleUser {
		b.WriteString(m.styles.User.Render("You"))
	} else {
		b.WriteString(m.styles.Model.Render(assistantName))
	}
	b.WriteString("  ")
	if msg.Content == "" && streaming {
		b.WriteString(m.spinner.View())
	} else {
		b.WriteString(msg.Content)
	}
	b.WriteString("\n")
	for i, cit := range msg.Citations {
		line := fmt.Sprintf("  [%d] %s (%s)", i+1, cit.Web.Title, cit.Web.URI)
		b.WriteString(m.styles.Citation.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}
