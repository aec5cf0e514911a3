// Package extract provides read-only text and table extraction from PDF
// files. It is independent of the reduction engine and never modifies its
// input.
package extract

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Text returns the plain text of every page, pages separated by a blank
// line. Pages that yield no text are skipped; a page whose extraction fails
// is skipped rather than failing the document.
func Text(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var parts []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}
