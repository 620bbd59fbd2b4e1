// Package pdftool implements the standalone document utilities:
// image-to-PDF conversion, PDF merging, and plain-text extraction.
// Each helper works on files and leaves the inputs untouched.
package pdftool

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ledongpdf "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// ImagesToPDF renders each image onto its own A4 page, centered and
// scaled to fit, and writes the result to outPath.
func ImagesToPDF(imagePaths []string, outPath string) error {
	if len(imagePaths) == 0 {
		return fmt.Errorf("pdftool: no images given")
	}
	for _, p := range imagePaths {
		if err := checkReadable(p); err != nil {
			return err
		}
	}

	imp, err := api.Import("f:A4, pos:c, sc:1.0 rel", types.POINTS)
	if err != nil {
		return fmt.Errorf("pdftool: build import config: %w", err)
	}
	if err := api.ImportImagesFile(imagePaths, outPath, imp, nil); err != nil {
		return fmt.Errorf("pdftool: convert images: %w", err)
	}
	return nil
}

// Merge concatenates the given PDFs in order into outPath. At least
// two inputs are required.
func Merge(pdfPaths []string, outPath string) error {
	if len(pdfPaths) < 2 {
		return fmt.Errorf("pdftool: merge needs at least two PDFs, got %d", len(pdfPaths))
	}
	for _, p := range pdfPaths {
		if err := checkReadable(p); err != nil {
			return err
		}
	}

	if err := api.MergeCreateFile(pdfPaths, outPath, false, nil); err != nil {
		return fmt.Errorf("pdftool: merge: %w", err)
	}
	return nil
}

// ExtractText pulls the plain text out of a PDF, one chunk per page,
// joined by blank lines. Pages with no extractable text are skipped.
func ExtractText(pdfPath string) (string, error) {
	f, reader, err := ledongpdf.Open(pdfPath)
	if err != nil {
		return "", fmt.Errorf("pdftool: open %s: %w", filepath.Base(pdfPath), err)
	}
	defer f.Close()

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("pdftool: extract page %d: %w", i, err)
		}
		if text = strings.TrimSpace(text); text != "" {
			pages = append(pages, text)
		}
	}
	return strings.Join(pages, "\n\n"), nil
}

func checkReadable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("pdftool: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("pdftool: %s is a directory", path)
	}
	return nil
}
