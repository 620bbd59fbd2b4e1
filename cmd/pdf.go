package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qbitlm/qbit/internal/pdftool"
)

var pdfCmd = &cobra.Command{
	Use:   "pdf",
	Short: "Standalone PDF utilities",
}

var pdfImagesCmd = &cobra.Command{
	Use:   "images <out.pdf> <image...>",
	Short: "Convert images to a PDF, one page per image",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := args[0]
		if err := pdftool.ImagesToPDF(args[1:], out); err != nil {
			return err
		}
		fmt.Printf("Wrote %s (%d pages)\n", out, len(args)-1)
		return nil
	},
}

var pdfMergeCmd = &cobra.Command{
	Use:   "merge <out.pdf> <in.pdf> <in.pdf...>",
	Short: "Merge PDFs in order",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := args[0]
		if err := pdftool.Merge(args[1:], out); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", out)
		return nil
	},
}

var pdfTextOut string

var pdfTextCmd = &cobra.Command{
	Use:   "text <in.pdf>",
	Short: "Extract a PDF's plain text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := pdftool.ExtractText(args[0])
		if err != nil {
			return err
		}
		if pdfTextOut != "" {
			if err := os.WriteFile(pdfTextOut, []byte(text+"\n"), 0o644); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", pdfTextOut)
			return nil
		}
		fmt.Println(text)
		return nil
	},
}

func init() {
	pdfTextCmd.Flags().StringVarP(&pdfTextOut, "output", "o", "", "Write extracted text to a file instead of stdout")
	pdfCmd.AddCommand(pdfImagesCmd)
	pdfCmd.AddCommand(pdfMergeCmd)
	pdfCmd.AddCommand(pdfTextCmd)
	rootCmd.AddCommand(pdfCmd)
}
