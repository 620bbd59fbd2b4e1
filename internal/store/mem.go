package store

import (
	"context"
	"encoding/json"

	"github.com/qbitlm/qbit/internal/notebook"
)

// MemStore is an in-memory Store for tests. It round-trips through
// JSON so its behavior matches the sqlite store, media stripping
// included.
type MemStore struct {
	raw []byte
}

func NewMemStore() *MemStore {
	return &MemStore{}
}

func (s *MemStore) Load(ctx context.Context) ([]notebook.Notebook, error) {
	if s.raw == nil {
		return []notebook.Notebook{}, nil
	}
	var notebooks []notebook.Notebook
	if err := json.Unmarshal(s.raw, &notebooks); err != nil {
		return []notebook.Notebook{}, nil
	}
	if notebooks == nil {
		notebooks = []notebook.Notebook{}
	}
	return notebooks, nil
}

func (s *MemStore) Save(ctx context.Context, notebooks []notebook.Notebook) error {
	data, err := json.Marshal(stripMedia(notebooks))
	if err != nil {
		return err
	}
	s.raw = data
	return nil
}

func (s *MemStore) Close() error { return nil }
