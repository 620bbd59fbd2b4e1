package chat

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/qbitlm/qbit/internal/llm"
	"github.com/qbitlm/qbit/internal/notebook"
)

// ErrorReply replaces a placeholder's content when the gateway fails.
// Partial streamed content is overwritten, not appended to, so the
// final state is deterministic.
const ErrorReply = "Sorry, something went wrong. Please try again."

var (
	ErrBlankInput     = errors.New("chat: blank input")
	ErrNoContext      = errors.New("chat: no context selected")
	ErrBusy           = errors.New("chat: a request is already in flight")
	ErrUnusableSource = errors.New("chat: source content unavailable, re-add the source")
)

// Mode distinguishes the two panel shapes a controller can back.
type Mode int

const (
	// ModeSource frames every request on one fixed source.
	ModeSource Mode = iota
	// ModeNotebook allows general chat, with an optional one-shot
	// mentioned source per submission.
	ModeNotebook
)

// Controller owns one chat panel's message log and its single
// in-flight slot. A controller is scoped to one focus: switching
// source or notebook means building a new controller and discarding
// this one, which is also how abandoned in-flight requests are kept
// from corrupting the next panel's log.
type Controller struct {
	gateway llm.Gateway
	log     *zap.Logger
	mode    Mode
	source  *notebook.Source // fixed focus in ModeSource, nil otherwise

	mu       sync.Mutex
	mention  *notebook.Source // one-shot, ModeNotebook only
	messages []notebook.ChatMessage
	inFlight bool
	onChange func()
}

// NewSourceController builds a controller for a single-source panel.
func NewSourceController(gateway llm.Gateway, source *notebook.Source, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{gateway: gateway, log: log, mode: ModeSource, source: source}
}

// NewNotebookController builds a controller for a notebook-wide panel.
func NewNotebookController(gateway llm.Gateway, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{gateway: gateway, log: log, mode: ModeNotebook}
}

// SetOnChange registers a callback invoked after every log mutation.
// The callback runs without the controller's lock held.
func (c *Controller) SetOnChange(fn func()) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// SetMention focuses the next submission on the given source.
// Selecting a new mention replaces the prior one.
func (c *Controller) SetMention(source *notebook.Source) {
	c.mu.Lock()
	c.mention = source
	c.mu.Unlock()
}

// ClearMention drops the pending mention.
func (c *Controller) ClearMention() {
	c.SetMention(nil)
}

// Mention returns the pending mentioned source, or nil.
func (c *Controller) Mention() *notebook.Source {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mention
}

// Messages returns a snapshot of the message log.
func (c *Controller) Messages() []notebook.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]notebook.ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// InFlight reports whether a request is outstanding.
func (c *Controller) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Focus returns the source the next submission would be framed on:
// the fixed source in ModeSource, the pending mention (possibly nil)
// in ModeNotebook.
func (c *Controller) Focus() *notebook.Source {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.focusLocked()
}

func (c *Controller) focusLocked() *notebook.Source {
	if c.mode == ModeSource {
		return c.source
	}
	return c.mention
}

// Submit runs one user turn to completion. It rejects without any
// mutation when the input is blank, no context is selected, a request
// is already in flight, or the focused source is unusable media.
// Otherwise it appends the user message and an empty model
// placeholder, dispatches the selected strategy, and reconciles the
// response into the placeholder. Gateway failures do not propagate:
// the placeholder ends up holding ErrorReply and the in-flight slot
// is always released.
//
// Submit blocks until the response is complete; run it on its own
// goroutine when driving a UI.
func (c *Controller) Submit(ctx context.Context, input string) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return ErrBlankInput
	}

	c.mu.Lock()
	if c.mode == ModeSource && c.source == nil {
		c.mu.Unlock()
		return ErrNoContext
	}
	if c.inFlight {
		c.mu.Unlock()
		return ErrBusy
	}

	focus := c.focusLocked()
	strategy := Select(focus)
	if strategy == StrategyUnavailable {
		c.mu.Unlock()
		return ErrUnusableSource
	}

	history := historyTurns(c.messages)
	c.messages = append(c.messages,
		notebook.ChatMessage{Role: notebook.RoleUser, Content: input},
		notebook.ChatMessage{Role: notebook.RoleModel, Content: ""},
	)
	c.inFlight = true
	c.mention = nil // one-shot: consumed by this submission
	c.mu.Unlock()
	c.notify()

	c.dispatch(ctx, strategy, focus, history, input)

	c.mu.Lock()
	c.inFlight = false
	c.mu.Unlock()
	c.notify()
	return nil
}

func (c *Controller) dispatch(ctx context.Context, strategy Strategy, focus *notebook.Source, history []llm.Turn, input string) {
	switch strategy {
	case StrategyGeneral:
		stream, err := c.gateway.GeneralStream(ctx, history, input)
		c.reconcileStream(stream, err)
	case StrategyDocument:
		doc := llm.DocumentContext{Title: focus.Title, Content: focus.Content}
		stream, err := c.gateway.DocumentStream(ctx, history, input, doc)
		c.reconcileStream(stream, err)
	case StrategyGrounded:
		result, err := c.gateway.GroundedSearch(ctx, history, input, focus.Content)
		c.reconcileResult(result, err)
	case StrategyMedia:
		media := llm.MediaContext{MimeType: focus.MimeType, DataURL: focus.Content}
		result, err := c.gateway.MediaTurn(ctx, input, media)
		c.reconcileResult(result, err)
	}
}

// reconcileStream appends each text delta to the placeholder in
// arrival order. A mid-stream error overwrites whatever partial
// content accumulated.
func (c *Controller) reconcileStream(stream llm.Stream, err error) {
	if err != nil {
		c.fail(err)
		return
	}
	defer stream.Close()
	for {
		event, err := stream.Recv()
		if err == io.EOF {
			return
		}
		if err != nil {
			c.fail(err)
			return
		}
		if event.Type == llm.EventTextDelta && event.Text != "" {
			c.appendToPlaceholder(event.Text)
		}
	}
}

// reconcileResult replaces the placeholder wholesale with a completed
// single-shot response.
func (c *Controller) reconcileResult(result llm.Result, err error) {
	if err != nil {
		c.fail(err)
		return
	}
	citations := make([]notebook.Citation, 0, len(result.Citations))
	for _, cit := range result.Citations {
		citations = append(citations, notebook.NewCitation(cit.URI, cit.Title))
	}
	c.mu.Lock()
	last := &c.messages[len(c.messages)-1]
	last.Content = result.Text
	last.Citations = citations
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) appendToPlaceholder(text string) {
	c.mu.Lock()
	c.messages[len(c.messages)-1].Content += text
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) fail(err error) {
	c.log.Warn("model request failed", zap.Error(err))
	c.mu.Lock()
	last := &c.messages[len(c.messages)-1]
	last.Content = ErrorReply
	last.Citations = nil
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) notify() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// historyTurns converts the log as it stood before this submission
// into gateway turns, skipping unfilled placeholders.
func historyTurns(messages []notebook.ChatMessage) []llm.Turn {
	turns := make([]llm.Turn, 0, len(messages))
	for _, msg := range messages {
		if msg.Content == "" {
			continue
		}
		role := llm.RoleUser
		if msg.Role == notebook.RoleModel {
			role = llm.RoleModel
		}
		turns = append(turns, llm.Turn{Role: role, Text: msg.Content})
	}
	return turns
}
