package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/qbitlm/qbit/internal/notebook"
)

// Store persists the notebook list as one serialized record under a
// string key, localStorage-style. Save strips image/video content
// before serialization; the in-memory copies keep theirs for the
// current session.
type Store interface {
	Load(ctx context.Context) ([]notebook.Notebook, error)
	Save(ctx context.Context, notebooks []notebook.Notebook) error
	Close() error
}

// notebooksKey is the single key the notebook array lives under.
const notebooksKey = "notebooks"

// Config holds storage configuration.
type Config struct {
	Path string `mapstructure:"path"` // Override default database location
}

// GetDataDir returns the XDG data directory for qbit.
// Uses $XDG_DATA_HOME if set, otherwise ~/.local/share
func GetDataDir() (string, error) {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "qbit"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "qbit"), nil
}

// GetDBPath returns the path to the notebooks database.
func GetDBPath(cfg Config) (string, error) {
	if cfg.Path != "" {
		return cfg.Path, nil
	}
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "notebooks.db"), nil
}

// stripMedia returns a deep-enough copy of the notebooks with
// image/video content elided, keeping serialized records small.
func stripMedia(notebooks []notebook.Notebook) []notebook.Notebook {
	out := make([]notebook.Notebook, len(notebooks))
	for i, n := range notebooks {
		out[i] = n
		out[i].Sources = make([]notebook.Source, len(n.Sources))
		for j, s := range n.Sources {
			if s.IsMedia() {
				s.Content = ""
			}
			out[i].Sources[j] = s
		}
	}
	return out
}
