package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/qbitlm/qbit/internal/config"
	"github.com/qbitlm/qbit/internal/llm"
	"github.com/qbitlm/qbit/internal/logger"
	"github.com/qbitlm/qbit/internal/notebook"
	"github.com/qbitlm/qbit/internal/store"
)

var (
	flagModel string
	flagDB    string
)

var rootCmd = &cobra.Command{
	Use:   "qbit",
	Short: "Chat with your notebooks using Gemini",
	Long: `qbit organizes sources (text, files, websites, images, videos) into
notebooks and lets you chat about them with Gemini.

Examples:
  qbit create "My Research"
  qbit add "My Research" --text "raw notes" --title "Notes"
  qbit add "My Research" paper.pdf diagram.png
  qbit chat "My Research"
  qbit ask "My Research" "summarize the paper"

  qbit pdf images out.pdf a.png b.jpg
  qbit pdf merge out.pdf one.pdf two.pdf
  qbit pdf text in.pdf`,
	Args:              cobra.NoArgs,
	RunE:              func(cmd *cobra.Command, args []string) error { return runNotebooks(cmd, args) },
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "Override the Gemini model")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "Override the notebook database path")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	cfg.ApplyOverrides(flagModel, flagDB)
	return cfg, nil
}

// newLogger builds a stderr logger, or a file logger when the command
// runs a full-screen view.
func newLogger(cfg *config.Config, interactive bool) (*zap.Logger, error) {
	if interactive || cfg.Log.File != "" {
		path := cfg.Log.File
		if path == "" {
			dataDir, err := store.GetDataDir()
			if err != nil {
				return nil, err
			}
			path = filepath.Join(dataDir, "qbit.log")
		}
		return logger.NewFile(path, cfg.Log.Level)
	}
	return logger.New(cfg.Log.Level)
}

func openStore(cfg *config.Config, log *zap.Logger) (store.Store, error) {
	return store.NewSQLiteStore(cfg.Storage, log)
}

func newGateway(cfg *config.Config) (*llm.GeminiGateway, error) {
	if cfg.Gemini.APIKey == "" {
		return nil, fmt.Errorf("no Gemini API key configured: set gemini.api_key in config or the GEMINI_API_KEY environment variable")
	}
	return llm.NewGeminiGateway(cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.RefusalPolicy()), nil
}

// findNotebook resolves a notebook by exact ID, then by exact title,
// then by unique title prefix.
func findNotebook(notebooks []notebook.Notebook, ref string) (int, error) {
	for i := range notebooks {
		if notebooks[i].ID == ref {
			return i, nil
		}
	}
	for i := range notebooks {
		if notebooks[i].Title == ref {
			return i, nil
		}
	}
	match := -1
	for i := range notebooks {
		if strings.HasPrefix(strings.ToLower(notebooks[i].Title), strings.ToLower(ref)) {
			if match >= 0 {
				return -1, fmt.Errorf("%q matches more than one notebook", ref)
			}
			match = i
		}
	}
	if match < 0 {
		return -1, fmt.Errorf("no notebook matching %q", ref)
	}
	return match, nil
}

// findSource resolves a source within a notebook by ID, exact title,
// or unique title prefix.
func findSource(nb *notebook.Notebook, ref string) (*notebook.Source, error) {
	if s := nb.FindSource(ref); s != nil {
		return s, nil
	}
	for i := range nb.Sources {
		if nb.Sources[i].Title == ref {
			return &nb.Sources[i], nil
		}
	}
	var match *notebook.Source
	for i := range nb.Sources {
		if strings.HasPrefix(strings.ToLower(nb.Sources[i].Title), strings.ToLower(ref)) {
			if match != nil {
				return nil, fmt.Errorf("%q matches more than one source", ref)
			}
			match = &nb.Sources[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("no source matching %q in %q", ref, nb.Title)
	}
	return match, nil
}
