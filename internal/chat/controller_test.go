package chat

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/qbitlm/qbit/internal/llm"
	"github.com/qbitlm/qbit/internal/notebook"
)

type sliceStream struct {
	events []llm.Event
	index  int
}

func (s *sliceStream) Recv() (llm.Event, error) {
	if s.index >= len(s.events) {
		return llm.Event{}, io.EOF
	}
	event := s.events[s.index]
	s.index++
	return event, nil
}

func (s *sliceStream) Close() error { return nil }

// blockingStream waits on release before serving its events.
type blockingStream struct {
	release <-chan struct{}
	inner   sliceStream
}

func (s *blockingStream) Recv() (llm.Event, error) {
	<-s.release
	return s.inner.Recv()
}

func (s *blockingStream) Close() error { return nil }

// failingStream serves its events and then returns err instead of io.EOF.
type failingStream struct {
	inner sliceStream
	err   error
}

func (s *failingStream) Recv() (llm.Event, error) {
	if s.inner.index >= len(s.inner.events) {
		return llm.Event{}, s.err
	}
	return s.inner.Recv()
}

func (s *failingStream) Close() error { return nil }

func deltas(fragments ...string) []llm.Event {
	events := make([]llm.Event, 0, len(fragments)+1)
	for _, f := range fragments {
		events = append(events, llm.Event{Type: llm.EventTextDelta, Text: f})
	}
	return append(events, llm.Event{Type: llm.EventDone})
}

type generalCall struct {
	history []llm.Turn
	input   string
}

type groundedCall struct {
	history []llm.Turn
	input   string
	url     string
}

// fakeGateway records calls and serves scripted responses.
type fakeGateway struct {
	mu sync.Mutex

	generalScript  func(call int) (llm.Stream, error)
	documentScript func(call int) (llm.Stream, error)
	groundedResult llm.Result
	groundedErr    error
	mediaResult    llm.Result
	mediaErr       error

	generalCalls  []generalCall
	documentCalls []llm.DocumentContext
	groundedCalls []groundedCall
	mediaCalls    []llm.MediaContext
}

func (g *fakeGateway) GeneralStream(ctx context.Context, history []llm.Turn, input string) (llm.Stream, error) {
	g.mu.Lock()
	g.generalCalls = append(g.generalCalls, generalCall{history: history, input: input})
	call := len(g.generalCalls) - 1
	g.mu.Unlock()
	if g.generalScript == nil {
		return &sliceStream{events: deltas("ok")}, nil
	}
	return g.generalScript(call)
}

func (g *fakeGateway) DocumentStream(ctx context.Context, history []llm.Turn, input string, doc llm.DocumentContext) (llm.Stream, error) {
	g.mu.Lock()
	g.documentCalls = append(g.documentCalls, doc)
	call := len(g.documentCalls) - 1
	g.mu.Unlock()
	if g.documentScript == nil {
		return &sliceStream{events: deltas("ok")}, nil
	}
	return g.documentScript(call)
}

func (g *fakeGateway) GroundedSearch(ctx context.Context, history []llm.Turn, input string, url string) (llm.Result, error) {
	g.mu.Lock()
	g.groundedCalls = append(g.groundedCalls, groundedCall{history: history, input: input, url: url})
	g.mu.Unlock()
	return g.groundedResult, g.groundedErr
}

func (g *fakeGateway) MediaTurn(ctx context.Context, input string, media llm.MediaContext) (llm.Result, error) {
	g.mu.Lock()
	g.mediaCalls = append(g.mediaCalls, media)
	g.mu.Unlock()
	return g.mediaResult, g.mediaErr
}

func (g *fakeGateway) totalCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.generalCalls) + len(g.documentCalls) + len(g.groundedCalls) + len(g.mediaCalls)
}

func docSource(title, content string) *notebook.Source {
	return &notebook.Source{
		ID:      notebook.NewID(),
		Title:   title,
		Content: content,
		Origin:  notebook.SourceOrigin{Type: notebook.OriginFile, Name: title},
	}
}

func TestSubmitDocumentPlaceholderLifecycle(t *testing.T) {
	gw := &fakeGateway{
		documentScript: func(int) (llm.Stream, error) {
			return &sliceStream{events: deltas("Hel", "lo")}, nil
		},
	}
	c := NewSourceController(gw, docSource("notes.md", "the document body"), nil)

	if err := c.Submit(context.Background(), "what is this?"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	msgs := c.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected user+model messages, got %d", len(msgs))
	}
	if msgs[0].Role != notebook.RoleUser || msgs[0].Content != "what is this?" {
		t.Errorf("unexpected user message: %+v", msgs[0])
	}
	if msgs[1].Role != notebook.RoleModel || msgs[1].Content != "Hello" {
		t.Errorf("unexpected model message: %+v", msgs[1])
	}
	if c.InFlight() {
		t.Error("in-flight not cleared")
	}
	if len(gw.documentCalls) != 1 {
		t.Fatalf("expected 1 document call, got %d", len(gw.documentCalls))
	}
	if gw.documentCalls[0].Title != "notes.md" || gw.documentCalls[0].Content != "the document body" {
		t.Errorf("document context not passed verbatim: %+v", gw.documentCalls[0])
	}
}

func TestSubmitBlankInputIsNoOp(t *testing.T) {
	gw := &fakeGateway{}
	c := NewNotebookController(gw, nil)

	if err := c.Submit(context.Background(), "   \n "); err != ErrBlankInput {
		t.Fatalf("expected ErrBlankInput, got %v", err)
	}
	if len(c.Messages()) != 0 {
		t.Error("log mutated by rejected submission")
	}
	if gw.totalCalls() != 0 {
		t.Error("gateway called for blank input")
	}
}

func TestSubmitNoContextIsNoOp(t *testing.T) {
	gw := &fakeGateway{}
	c := NewSourceController(gw, nil, nil)

	if err := c.Submit(context.Background(), "hello"); err != ErrNoContext {
		t.Fatalf("expected ErrNoContext, got %v", err)
	}
	if len(c.Messages()) != 0 || gw.totalCalls() != 0 {
		t.Error("rejected submission had side effects")
	}
}

func TestSubmitWhileInFlightIsNoOp(t *testing.T) {
	release := make(chan struct{})
	gw := &fakeGateway{
		generalScript: func(int) (llm.Stream, error) {
			return &blockingStream{release: release, inner: sliceStream{events: deltas("done")}}, nil
		},
	}
	c := NewNotebookController(gw, nil)

	done := make(chan error, 1)
	go func() { done <- c.Submit(context.Background(), "first") }()

	waitFor(t, c.InFlight)
	lenBefore := len(c.Messages())

	if err := c.Submit(context.Background(), "second"); err != ErrBusy {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if len(c.Messages()) != lenBefore {
		t.Error("log length changed by rejected submission")
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
}

func TestSubmitUnusableMediaNeverCallsGateway(t *testing.T) {
	gw := &fakeGateway{}
	stripped := &notebook.Source{
		ID:       notebook.NewID(),
		Title:    "photo.png",
		Content:  "",
		Origin:   notebook.SourceOrigin{Type: notebook.OriginImage, Name: "photo.png"},
		MimeType: "image/png",
	}
	c := NewSourceController(gw, stripped, nil)

	if err := c.Submit(context.Background(), "describe this"); err != ErrUnusableSource {
		t.Fatalf("expected ErrUnusableSource, got %v", err)
	}
	if gw.totalCalls() != 0 {
		t.Error("gateway invoked for stripped media source")
	}
	if len(c.Messages()) != 0 {
		t.Error("log mutated for stripped media source")
	}
}

func TestSubmitGroundedWebsite(t *testing.T) {
	result := llm.Result{Text: "It is an example domain."}
	result.Citations = []llm.Citation{
		{URI: "https://example.com/about", Title: "About"},
	}
	gw := &fakeGateway{groundedResult: result}
	site := &notebook.Source{
		ID:      notebook.NewID(),
		Title:   "example.com",
		Content: "https://example.com",
		Origin:  notebook.SourceOrigin{Type: notebook.OriginWebsite, Name: "example.com"},
	}
	c := NewSourceController(gw, site, nil)

	if err := c.Submit(context.Background(), "What is this page about?"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if len(gw.groundedCalls) != 1 {
		t.Fatalf("expected exactly 1 grounded call, got %d", len(gw.groundedCalls))
	}
	call := gw.groundedCalls[0]
	if call.url != "https://example.com" || call.input != "What is this page about?" {
		t.Errorf("unexpected grounded call: %+v", call)
	}

	msgs := c.Messages()
	last := msgs[len(msgs)-1]
	if last.Content != "It is an example domain." {
		t.Errorf("placeholder not replaced: %q", last.Content)
	}
	if len(last.Citations) != 1 ||
		last.Citations[0].Web.URI != "https://example.com/about" ||
		last.Citations[0].Web.Title != "About" {
		t.Errorf("citations not carried over: %+v", last.Citations)
	}
}

func TestSubmitMediaStatelessTurn(t *testing.T) {
	gw := &fakeGateway{mediaResult: llm.Result{Text: "A cat.", Citations: []llm.Citation{}}}
	img := &notebook.Source{
		ID:       notebook.NewID(),
		Title:    "cat.png",
		Content:  "data:image/png;base64,aGVsbG8=",
		Origin:   notebook.SourceOrigin{Type: notebook.OriginImage, Name: "cat.png"},
		MimeType: "image/png",
	}
	c := NewSourceController(gw, img, nil)

	if err := c.Submit(context.Background(), "what is in the picture?"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if len(gw.mediaCalls) != 1 {
		t.Fatalf("expected 1 media call, got %d", len(gw.mediaCalls))
	}
	if gw.mediaCalls[0].MimeType != "image/png" || gw.mediaCalls[0].DataURL != img.Content {
		t.Errorf("media context not passed: %+v", gw.mediaCalls[0])
	}

	msgs := c.Messages()
	if msgs[len(msgs)-1].Content != "A cat." {
		t.Errorf("placeholder not replaced: %q", msgs[len(msgs)-1].Content)
	}
	if len(msgs[len(msgs)-1].Citations) != 0 {
		t.Error("media turns cannot carry citations")
	}
}

func TestSequentialStreamsConcatenateInOrder(t *testing.T) {
	scripts := [][]string{{"Hel", "lo"}, {" there"}, {"!"}}
	gw := &fakeGateway{
		generalScript: func(call int) (llm.Stream, error) {
			return &sliceStream{events: deltas(scripts[call]...)}, nil
		},
	}
	c := NewNotebookController(gw, nil)

	for i := range scripts {
		if err := c.Submit(context.Background(), "message"); err != nil {
			t.Fatalf("submit %d failed: %v", i, err)
		}
	}

	msgs := c.Messages()
	if len(msgs) != 6 {
		t.Fatalf("expected 6 messages, got %d", len(msgs))
	}
	want := []string{"Hello", " there", "!"}
	for i, w := range want {
		got := msgs[i*2+1].Content
		if got != w {
			t.Errorf("model message %d: got %q, want %q", i, got, w)
		}
	}
}

func TestHistoryExcludesCurrentSubmission(t *testing.T) {
	gw := &fakeGateway{
		generalScript: func(call int) (llm.Stream, error) {
			return &sliceStream{events: deltas("answer")}, nil
		},
	}
	c := NewNotebookController(gw, nil)

	if err := c.Submit(context.Background(), "first"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if err := c.Submit(context.Background(), "second"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if len(gw.generalCalls[0].history) != 0 {
		t.Errorf("first call should have empty history, got %+v", gw.generalCalls[0].history)
	}
	second := gw.generalCalls[1]
	if len(second.history) != 2 {
		t.Fatalf("second call history: got %d turns, want 2", len(second.history))
	}
	if second.history[0].Text != "first" || second.history[1].Text != "answer" {
		t.Errorf("unexpected history: %+v", second.history)
	}
	if second.input != "second" {
		t.Errorf("input not passed separately: %q", second.input)
	}
}

func TestMentionIsOneShot(t *testing.T) {
	gw := &fakeGateway{
		documentScript: func(int) (llm.Stream, error) {
			return &sliceStream{events: deltas("from doc")}, nil
		},
	}
	c := NewNotebookController(gw, nil)
	c.SetMention(docSource("notes.md", "body"))

	if err := c.Submit(context.Background(), "about the doc"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if len(gw.documentCalls) != 1 {
		t.Fatalf("mentioned submission should use the document strategy")
	}
	if c.Mention() != nil {
		t.Error("mention not cleared after dispatch")
	}

	// Next submission falls back to general chat.
	if err := c.Submit(context.Background(), "general now"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if len(gw.generalCalls) != 1 {
		t.Error("second submission should be general")
	}
}

func TestStreamErrorOverwritesPartialContent(t *testing.T) {
	gw := &fakeGateway{
		generalScript: func(int) (llm.Stream, error) {
			return &failingStream{
				inner: sliceStream{events: []llm.Event{
					{Type: llm.EventTextDelta, Text: "par"},
					{Type: llm.EventTextDelta, Text: "tial"},
				}},
				err: errors.New("quota exceeded"),
			}, nil
		},
	}
	c := NewNotebookController(gw, nil)

	if err := c.Submit(context.Background(), "hello"); err != nil {
		t.Fatalf("gateway failure must not propagate, got %v", err)
	}

	msgs := c.Messages()
	last := msgs[len(msgs)-1]
	if last.Content != ErrorReply {
		t.Errorf("expected error reply to overwrite partial content, got %q", last.Content)
	}
	if c.InFlight() {
		t.Error("in-flight stuck after failure")
	}
}

func TestDispatchErrorProducesErrorReply(t *testing.T) {
	gw := &fakeGateway{groundedErr: errors.New("network down")}
	site := &notebook.Source{
		ID:      notebook.NewID(),
		Content: "https://example.com",
		Origin:  notebook.SourceOrigin{Type: notebook.OriginWebsite, Name: "example.com"},
	}
	c := NewSourceController(gw, site, nil)

	if err := c.Submit(context.Background(), "hi"); err != nil {
		t.Fatalf("gateway failure must not propagate, got %v", err)
	}
	msgs := c.Messages()
	if msgs[len(msgs)-1].Content != ErrorReply {
		t.Errorf("got %q", msgs[len(msgs)-1].Content)
	}
	if c.InFlight() {
		t.Error("in-flight stuck after failure")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal("condition not reached in time")
		case <-time.After(time.Millisecond):
		}
	}
}
