package extract

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Table holds the row/column text of one extracted table.
type Table struct {
	Page int // 1-based page number
	Rows [][]string
}

// minColumnGap is the smallest horizontal gap, in points, treated as a
// column boundary when a glyph run's font size gives no better estimate.
const minColumnGap = 6.0

// Tables extracts tabular text page by page. Rows come from the PDF's text
// geometry: runs on one baseline form a row, and gaps wider than roughly a
// character cell split the row into cells. A page contributes a table only
// when at least two of its rows have two or more cells.
func Tables(path string) ([]Table, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var tables []Table
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		var cellRows [][]string
		multi := 0
		for _, row := range rows {
			cells := splitRowCells(row.Content)
			if len(cells) == 0 {
				continue
			}
			if len(cells) > 1 {
				multi++
			}
			cellRows = append(cellRows, cells)
		}
		if multi >= 2 {
			tables = append(tables, Table{Page: i, Rows: cellRows})
		}
	}
	return tables, nil
}

// splitRowCells groups the glyph runs of one text row into cells, starting a
// new cell wherever the horizontal gap to the previous run exceeds the run's
// font size.
func splitRowCells(content pdf.TextHorizontal) []string {
	var cells []string
	var cell strings.Builder
	var lastEnd float64

	flush := func() {
		s := strings.TrimSpace(cell.String())
		if s != "" {
			cells = append(cells, s)
		}
		cell.Reset()
	}

	for i, t := range content {
		gap := t.X - lastEnd
		threshold := t.FontSize
		if threshold < minColumnGap {
			threshold = minColumnGap
		}
		if i > 0 && gap > threshold {
			flush()
		}
		cell.WriteString(t.S)
		lastEnd = t.X + t.W
	}
	flush()
	return cells
}

// WriteCSV writes each table to dir as <stem>_page<N>.csv and returns the
// paths written. The directory is created if needed.
func WriteCSV(tables []Table, dir, stem string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}
	var paths []string
	for _, table := range tables {
		path := filepath.Join(dir, fmt.Sprintf("%s_page%d.csv", stem, table.Page))
		f, err := os.Create(path)
		if err != nil {
			return paths, fmt.Errorf("creating %s: %w", path, err)
		}
		w := csv.NewWriter(f)
		if err := w.WriteAll(table.Rows); err != nil {
			f.Close()
			return paths, fmt.Errorf("writing %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
