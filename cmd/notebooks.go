package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qbitlm/qbit/internal/notebook"
)

var notebooksCmd = &cobra.Command{
	Use:   "notebooks",
	Short: "List notebooks",
	Args:  cobra.NoArgs,
	RunE:  runNotebooks,
}

func runNotebooks(cmd *cobra.Command, args []string) error {
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
	if len(notebooks) == 0 {
		fmt.Println("No notebooks yet. Create one with: qbit create \"My Notebook\"")
		return nil
	}
	for _, nb := range notebooks {
		fmt.Printf("%s  %-30s  %d sources  modified %s\n",
			nb.ID[:8], nb.Title, len(nb.Sources), nb.LastModified.Format("2006-01-02 15:04"))
	}
	return nil
}

var createCmd = &cobra.Command{
	Use:   "create [title]",
	Short: "Create a notebook",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title := ""
		if len(args) == 1 {
			title = args[0]
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
		nb := notebook.New(title)
		notebooks = append(notebooks, *nb)
		if err := st.Save(cmd.Context(), notebooks); err != nil {
			return err
		}
		fmt.Printf("Created notebook %q (%s)\n", nb.Title, nb.ID[:8])
		return nil
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename <notebook> <title>",
	Short: "Rename a notebook",
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
		if !notebooks[idx].Rename(args[1]) {
			fmt.Printf("Title unchanged: %q\n", notebooks[idx].Title)
			return nil
		}
		if err := st.Save(cmd.Context(), notebooks); err != nil {
			return err
		}
		fmt.Printf("Renamed to %q\n", notebooks[idx].Title)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <notebook>",
	Short: "Delete a notebook",
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
		title := notebooks[idx].Title
		notebooks = append(notebooks[:idx], notebooks[idx+1:]...)
		if err := st.Save(cmd.Context(), notebooks); err != nil {
			return err
		}
		fmt.Printf("Deleted %q\n", title)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(notebooksCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(deleteCmd)
}
