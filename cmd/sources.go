package cmd

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qbitlm/qbit/internal/notebook"
	"github.com/qbitlm/qbit/internal/pdftool"
)

var (
	addText  string
	addTitle string
	addURL   string
)

var sourcesCmd = &cobra.Command{
	Use:   "sources <notebook>",
	Short: "List a notebook's sources",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := newLogger(cfg, false)
		if err != nil {
			return err
		}
		defer log.Sync()

		st, err := openStore(cfg, log)
		if err != nil {
			return err
		}
		defer st.Close()

		notebooks, err := st.Load(cmd.Context())
		if err != nil {
			return err
		}
		idx, err := findNotebook(notebooks, args[0])
		if err != nil {
			return err
		}
		nb := &notebooks[idx]
		if len(nb.Sources) == 0 {
			fmt.Printf("No sources in %q yet. Add one with: qbit add %q --text \"...\"\n", nb.Title, nb.Title)
			return nil
		}
		for _, s := range nb.Sources {
			state := ""
			if !s.Usable() {
				state = "  (content not persisted, re-add to chat)"
			}
			fmt.Printf("%s  %-30s  %s%s\n", s.ID[:8], s.Title, s.Origin.Type, state)
		}
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:   "add <notebook> [files...]",
	Short: "Add sources to a notebook",
	Long: `Add sources to a notebook.

Files are classified by extension: text and markdown become document
sources, PDFs have their text extracted, and images and videos are
embedded as media. --text adds pasted text, --url adds a website.

Examples:
  qbit add "My Research" --text "raw notes" --title "Notes"
  qbit add "My Research" --url https://example.com
  qbit add "My Research" paper.pdf diagram.png clip.mp4`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var sources []notebook.Source

		if addText != "" {
			title := addTitle
			if title == "" {
				title = "Pasted Text"
			}
			sources = append(sources, notebook.Source{
				Title:   title,
				Content: addText,
				Origin:  notebook.SourceOrigin{Type: notebook.OriginText, Name: "Pasted Text"},
			})
		}
		if addURL != "" {
			src, err := websiteSource(addURL, addTitle)
			if err != nil {
				return err
			}
			sources = append(sources, src)
		}
		for _, path := range args[1:] {
			src, err := fileSource(path)
			if err != nil {
				return err
			}
			sources = append(sources, src)
		}
		if len(sources) == 0 {
			return fmt.Errorf("nothing to add: pass files, --text, or --url")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := newLogger(cfg, false)
		if err != nil {
			return err
		}
		defer log.Sync()

		st, err := openStore(cfg, log)
		if err != nil {
			return err
		}
		defer st.Close()

		notebooks, err := st.Load(cmd.Context())
		if err != nil {
			return err
		}
		idx, err := findNotebook(notebooks, args[0])
		if err != nil {
			return err
		}
		notebooks[idx].AddSources(sources...)
		if err := st.Save(cmd.Context(), notebooks); err != nil {
			return err
		}
		fmt.Printf("Added %d source(s) to %q\n", len(sources), notebooks[idx].Title)
		for _, s := range sources {
			if s.IsMedia() {
				fmt.Printf("Note: %q is media; its content is kept for this session only and must be re-added after restart.\n", s.Title)
			}
		}
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <notebook> <source>",
	Short: "Remove a source from a notebook",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := newLogger(cfg, false)
		if err != nil {
			return err
		}
		defer log.Sync()

		st, err := openStore(cfg, log)
		if err != nil {
			return err
		}
		defer st.Close()

		notebooks, err := st.Load(cmd.Context())
		if err != nil {
			return err
		}
		idx, err := findNotebook(notebooks, args[0])
		if err != nil {
			return err
		}
		src, err := findSource(&notebooks[idx], args[1])
		if err != nil {
			return err
		}
		title := src.Title
		if _, ok := notebooks[idx].DeleteSource(src.ID); !ok {
			return fmt.Errorf("no source matching %q", args[1])
		}
		if err := st.Save(cmd.Context(), notebooks); err != nil {
			return err
		}
		fmt.Printf("Removed %q from %q\n", title, notebooks[idx].Title)
		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&addText, "text", "", "Add pasted text as a source")
	addCmd.Flags().StringVar(&addTitle, "title", "", "Title for the --text or --url source")
	addCmd.Flags().StringVar(&addURL, "url", "", "Add a website source")
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(removeCmd)
}

func websiteSource(rawURL, title string) (notebook.Source, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return notebook.Source{}, fmt.Errorf("invalid URL %q", rawURL)
	}
	if title == "" {
		title = u.Host
	}
	return notebook.Source{
		Title:   title,
		Content: rawURL,
		Origin:  notebook.SourceOrigin{Type: notebook.OriginWebsite, Name: u.Host},
	}, nil
}

// fileSource classifies a file by extension and builds the matching
// source. Media files are embedded as base64 data URLs.
func fileSource(path string) (notebook.Source, error) {
	name := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".pdf":
		text, err := pdftool.ExtractText(path)
		if err != nil {
			return notebook.Source{}, err
		}
		return notebook.Source{
			Title:   name,
			Content: text,
			Origin:  notebook.SourceOrigin{Type: notebook.OriginFile, Name: name},
		}, nil

	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		return mediaSource(path, notebook.OriginImage, imageMimeType(ext))

	case ".mp4", ".mov", ".webm":
		return mediaSource(path, notebook.OriginVideo, videoMimeType(ext))

	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return notebook.Source{}, err
		}
		return notebook.Source{
			Title:   name,
			Content: string(data),
			Origin:  notebook.SourceOrigin{Type: notebook.OriginFile, Name: name},
		}, nil
	}
}

func mediaSource(path string, origin notebook.OriginType, mimeType string) (notebook.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return notebook.Source{}, err
	}
	name := filepath.Base(path)
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
	return notebook.Source{
		Title:    name,
		Content:  dataURL,
		Origin:   notebook.SourceOrigin{Type: origin, Name: name},
		MimeType: mimeType,
	}, nil
}

func imageMimeType(ext string) string {
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}

func videoMimeType(ext string) string {
	switch ext {
	case ".mov":
		return "video/quicktime"
	case ".webm":
		return "video/webm"
	default:
		return "video/mp4"
	}
}
