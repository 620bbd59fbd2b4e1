package cmd

import (
	"testing"

	"github.com/qbitlm/qbit/internal/notebook"
)

func testNotebooks() []notebook.Notebook {
	a := notebook.New("Alpha Research")
	b := notebook.New("Beta Notes")
	c := notebook.New("Beach Reads")
	return []notebook.Notebook{*a, *b, *c}
}

func TestFindNotebookByID(t *testing.T) {
	nbs := testNotebooks()
	idx, err := findNotebook(nbs, nbs[1].ID)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if idx != 1 {
		t.Errorf("idx=%d, want 1", idx)
	}
}

func TestFindNotebookByExactTitle(t *testing.T) {
	nbs := testNotebooks()
	idx, err := findNotebook(nbs, "Beta Notes")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if idx != 1 {
		t.Errorf("idx=%d, want 1", idx)
	}
}

func TestFindNotebookByUniquePrefix(t *testing.T) {
	nbs := testNotebooks()
	idx, err := findNotebook(nbs, "alpha")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if idx != 0 {
		t.Errorf("idx=%d, want 0", idx)
	}
}

func TestFindNotebookAmbiguousPrefix(t *testing.T) {
	nbs := testNotebooks()
	if _, err := findNotebook(nbs, "be"); err == nil {
		t.Fatal("expected error for ambiguous prefix")
	}
}

func TestFindNotebookMissing(t *testing.T) {
	if _, err := findNotebook(testNotebooks(), "gamma"); err == nil {
		t.Fatal("expected error for unknown notebook")
	}
}

func TestFindSource(t *testing.T) {
	nb := notebook.New("nb")
	nb.AddSources(
		notebook.Source{Title: "paper.pdf", Origin: notebook.SourceOrigin{Type: notebook.OriginFile, Name: "paper.pdf"}},
		notebook.Source{Title: "patterns.md", Origin: notebook.SourceOrigin{Type: notebook.OriginFile, Name: "patterns.md"}},
	)

	src, err := findSource(nb, nb.Sources[0].ID)
	if err != nil || src.Title != "paper.pdf" {
		t.Fatalf("by ID: %v %+v", err, src)
	}
	src, err = findSource(nb, "patterns.md")
	if err != nil || src.Title != "patterns.md" {
		t.Fatalf("by title: %v %+v", err, src)
	}
	if _, err := findSource(nb, "pa"); err == nil {
		t.Fatal("expected error for ambiguous prefix")
	}
	if _, err := findSource(nb, "missing"); err == nil {
		t.Fatal("expected error for unknown source")
	}
}
