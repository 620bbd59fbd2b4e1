package notebook

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// OriginType classifies where a source's content came from.
type OriginType string

const (
	OriginText    OriginType = "text"
	OriginFile    OriginType = "file"
	OriginWebsite OriginType = "website"
	OriginImage   OriginType = "image"
	OriginVideo   OriginType = "video"
)

// SourceOrigin records the origin type and a display name for it
// (e.g. "Pasted Text", "notes.md", "example.com").
type SourceOrigin struct {
	Type OriginType `json:"type"`
	Name string     `json:"name"`
}

// Source is a unit of content attached to a notebook.
//
// For website sources Content holds the URL, never fetched page text.
// For image/video sources Content holds a base64 data URL while the
// source is fresh; persistence strips it, so a reloaded media source
// has empty content and is unusable for chat until re-added.
type Source struct {
	ID       string       `json:"id"`
	Title    string       `json:"title"`
	Content  string       `json:"content"`
	Origin   SourceOrigin `json:"origin"`
	MimeType string       `json:"mime_type,omitempty"`
}

// IsMedia reports whether the source is an image or video.
func (s Source) IsMedia() bool {
	return s.Origin.Type == OriginImage || s.Origin.Type == OriginVideo
}

// Usable reports whether the source can frame a chat request.
// A media source whose payload was stripped by persistence is not.
func (s Source) Usable() bool {
	if s.IsMedia() {
		return s.Content != ""
	}
	return true
}

// Notebook is a user-created collection of sources.
type Notebook struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Sources      []Source  `json:"sources"`
	CreatedAt    time.Time `json:"created_at"`
	LastModified time.Time `json:"last_modified"`
}

const DefaultTitle = "Untitled Notebook"

// New creates an empty notebook. A blank title gets the default.
func New(title string) *Notebook {
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}
	now := time.Now()
	return &Notebook{
		ID:           NewID(),
		Title:        title,
		Sources:      []Source{},
		CreatedAt:    now,
		LastModified: now,
	}
}

// NewID returns a fresh unique identifier for notebooks and sources.
// IDs are never reused after deletion.
func NewID() string {
	return uuid.NewString()
}

// Rename updates the title and bumps LastModified. A title that trims
// to empty reverts to the current one and reports false.
func (n *Notebook) Rename(title string) bool {
	if strings.TrimSpace(title) == "" {
		return false
	}
	if title == n.Title {
		return false
	}
	n.Title = title
	n.touch()
	return true
}

// AddSources assigns fresh IDs, appends the sources in order, and
// returns the ID of the first added source as the new focus, or ""
// when the slice is empty.
func (n *Notebook) AddSources(sources ...Source) string {
	if len(sources) == 0 {
		return ""
	}
	first := ""
	for _, s := range sources {
		s.ID = NewID()
		if first == "" {
			first = s.ID
		}
		n.Sources = append(n.Sources, s)
	}
	n.touch()
	return first
}

// DeleteSource removes the source with the given ID and returns the ID
// that focus should fall back to when the deleted source was focused:
// the new first source, or "" when the notebook is now empty.
func (n *Notebook) DeleteSource(id string) (fallback string, ok bool) {
	for i, s := range n.Sources {
		if s.ID == id {
			n.Sources = append(n.Sources[:i], n.Sources[i+1:]...)
			n.touch()
			if len(n.Sources) > 0 {
				return n.Sources[0].ID, true
			}
			return "", true
		}
	}
	return "", false
}

// FindSource returns the source with the given ID, or nil.
func (n *Notebook) FindSource(id string) *Source {
	for i := range n.Sources {
		if n.Sources[i].ID == id {
			return &n.Sources[i]
		}
	}
	return nil
}

func (n *Notebook) touch() {
	n.LastModified = time.Now()
}

// Role identifies who authored a chat message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Citation points at a web page the model grounded its answer on.
type Citation struct {
	Web struct {
		URI   string `json:"uri"`
		Title string `json:"title"`
	} `json:"web"`
}

// NewCitation builds a citation from a URI and title.
func NewCitation(uri, title string) Citation {
	var c Citation
	c.Web.URI = uri
	c.Web.Title = title
	return c
}

// ChatMessage is one turn in a chat panel's message log. Model
// messages start empty (placeholder) and are mutated in place as the
// response arrives. Logs live only for the panel's lifetime and are
// not persisted.
type ChatMessage struct {
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	Citations []Citation `json:"citations,omitempty"`
}
