package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qbitlm/qbit/internal/chat"
	"github.com/qbitlm/qbit/internal/notebook"
)

var askSource string

var askCmd = &cobra.Command{
	Use:   "ask <notebook> <question>",
	Short: "Ask a one-shot question and print the answer",
	Long: `Ask a single question about a notebook and stream the answer to
stdout.

Examples:
  qbit ask "My Research" "summarize the key findings"
  qbit ask "My Research" "what does the diagram show?" --source diagram.png`,
	Args: cobra.ExactArgs(2),
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

		var controller *chat.Controller
		if askSource != "" {
			source, err := findSource(nb, askSource)
			if err != nil {
				return err
			}
			controller = chat.NewSourceController(gateway, source, log)
		} else {
			controller = chat.NewNotebookController(gateway, log)
		}

		// Stream deltas as they land in the placeholder. An error reply
		// replaces the content wholesale, which breaks the printed
		// prefix; that case is handled after Submit returns.
		printed := ""
		controller.SetOnChange(func() {
			msgs := controller.Messages()
			if len(msgs) == 0 {
				return
			}
			last := msgs[len(msgs)-1]
			if last.Role != notebook.RoleModel {
				return
			}
			if strings.HasPrefix(last.Content, printed) {
				fmt.Print(last.Content[len(printed):])
				printed = last.Content
			}
		})

		if err := controller.Submit(cmd.Context(), args[1]); err != nil {
			if errors.Is(err, chat.ErrUnusableSource) {
				return fmt.Errorf("this source's media content is not available; re-add it first")
			}
			return err
		}

		msgs := controller.Messages()
		final := msgs[len(msgs)-1]
		if !strings.HasPrefix(final.Content, printed) {
			fmt.Print(final.Content)
		}
		fmt.Println()
		for i, cit := range final.Citations {
			fmt.Printf("[%d] %s (%s)\n", i+1, cit.Web.Title, cit.Web.URI)
		}
		if final.Content == chat.ErrorReply {
			return fmt.Errorf("request failed")
		}
		return nil
	},
}

func init() {
	askCmd.Flags().StringVar(&askSource, "source", "", "Scope the question to one source (ID or title)")
	rootCmd.AddCommand(askCmd)
}
