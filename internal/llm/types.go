package llm

import (
	"context"
	"io"
)

// Role identifies a conversation turn's author.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one entry of the conversation history sent with a request.
type Turn struct {
	Role Role
	Text string
}

// Citation points at a web page found through grounded search.
type Citation struct {
	URI   string
	Title string
}

// Result is a completed, non-streaming model response.
type Result struct {
	Text      string
	Citations []Citation
}

// DocumentContext frames a document-grounded request.
type DocumentContext struct {
	Title   string
	Content string
}

// MediaContext carries an inline media payload for a single-shot turn.
// DataURL is the base64 data URL captured when the source was added.
type MediaContext struct {
	MimeType string
	DataURL  string
}

// EventType describes streaming events.
type EventType string

const (
	EventTextDelta EventType = "text_delta"
	EventDone      EventType = "done"
)

// Event represents a streamed output update.
type Event struct {
	Type EventType
	Text string
}

// Stream yields events until io.EOF.
type Stream interface {
	Recv() (Event, error)
	Close() error
}

// eventStream adapts a producer goroutine into a Stream. The producer
// sends events on the channel and its return value becomes the
// stream's terminal error (nil means io.EOF). Closing the stream
// cancels the producer's context and drains it silently; cancellation
// is a stop condition, not an error.
type eventStream struct {
	events chan Event
	errc   chan error
	cancel context.CancelFunc

	err  error
	done bool
}

func newEventStream(ctx context.Context, run func(ctx context.Context, events chan<- Event) error) Stream {
	ctx, cancel := context.WithCancel(ctx)
	s := &eventStream{
		events: make(chan Event),
		errc:   make(chan error, 1),
		cancel: cancel,
	}
	go func() {
		err := run(ctx, s.events)
		if ctx.Err() != nil {
			err = nil
		}
		s.errc <- err
		close(s.events)
	}()
	return s
}

func (s *eventStream) Recv() (Event, error) {
	if s.done {
		return Event{}, s.terminalErr()
	}
	event, ok := <-s.events
	if !ok {
		s.done = true
		s.err = <-s.errc
		return Event{}, s.terminalErr()
	}
	return event, nil
}

func (s *eventStream) terminalErr() error {
	if s.err != nil {
		return s.err
	}
	return io.EOF
}

func (s *eventStream) Close() error {
	s.cancel()
	if !s.done {
		go func() {
			for range s.events {
			}
		}()
	}
	return nil
}

// CollectText drains a stream and returns the concatenated text
// deltas. Used by one-shot callers that do not render incrementally.
func CollectText(stream Stream) (string, error) {
	defer stream.Close()
	var text string
	for {
		event, err := stream.Recv()
		if err == io.EOF {
			return text, nil
		}
		if err != nil {
			return text, err
		}
		if event.Type == EventTextDelta {
			text += event.Text
		}
	}
}
