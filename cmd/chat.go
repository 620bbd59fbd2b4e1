package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/qbitlm/qbit/internal/notebook"
	"github.com/qbitlm/qbit/internal/tui"
)

var chatSource string

var chatCmd = &cobra.Command{
	Use:   "chat <notebook>",
	Short: "Start an interactive chat about a notebook",
	Long: `Start an interactive chat session with a notebook's sources.

Without --source the chat spans the whole notebook; press ctrl+o to
focus the next question on one source. With --source every question
is framed on that source.

Examples:
  qbit chat "My Research"
  qbit chat "My Research" --source paper.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := newLogger(cfg, true)
		if err != nil {
			return err
		}
		defer log.Sync()

		gateway, err := newGateway(cfg)
		if err != nil {
			return err
		}

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

		var source *notebook.Source
		if chatSource != "" {
			source, err = findSource(nb, chatSource)
			if err != nil {
				return err
			}
		}

		model := tui.New(gateway, nb, source, log)
		program := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("chat view failed: %w", err)
		}
		return nil
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatSource, "source", "", "Scope the chat to one source (ID or title)")
	rootCmd.AddCommand(chatCmd)
}
