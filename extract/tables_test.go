package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ledongthuc/pdf"
)

func run(x, w, fontSize float64, s string) pdf.Text {
	return pdf.Text{X: x, W: w, FontSize: fontSize, S: s}
}

func TestSplitRowCells(t *testing.T) {
	tests := []struct {
		name    string
		content pdf.TextHorizontal
		want    []string
	}{
		{
			name: "wide gaps split columns",
			content: pdf.TextHorizontal{
				run(10, 30, 10, "Name"),
				run(100, 20, 10, "Age"),
				run(200, 30, 10, "City"),
			},
			want: []string{"Name", "Age", "City"},
		},
		{
			name: "adjacent runs merge",
			content: pdf.TextHorizontal{
				run(10, 20, 10, "Hel"),
				run(30, 20, 10, "lo"),
				run(120, 30, 10, "World"),
			},
			want: []string{"Hello", "World"},
		},
		{
			name: "leading offset does not split",
			content: pdf.TextHorizontal{
				run(300, 30, 10, "Total"),
			},
			want: []string{"Total"},
		},
		{
			name: "gap below font size stays one cell",
			content: pdf.TextHorizontal{
				run(10, 20, 14, "ab"),
				run(40, 20, 14, "cd"),
			},
			want: []string{"abcd"},
		},
		{
			name: "tiny font gap under minimum stays one cell",
			content: pdf.TextHorizontal{
				run(10, 20, 2, "a"),
				run(34, 20, 2, "b"),
			},
			want: []string{"ab"},
		},
		{
			name: "tiny font gap over minimum splits",
			content: pdf.TextHorizontal{
				run(10, 20, 2, "a"),
				run(38, 20, 2, "b"),
			},
			want: []string{"a", "b"},
		},
		{
			name: "blank runs dropped",
			content: pdf.TextHorizontal{
				run(10, 10, 10, "  "),
				run(100, 20, 10, "x"),
			},
			want: []string{"x"},
		},
		{
			name:    "empty row",
			content: pdf.TextHorizontal{},
			want:    nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitRowCells(tt.content)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("splitRowCells mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWriteCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tables")
	tables := []Table{
		{Page: 1, Rows: [][]string{{"Name", "Age"}, {"Ada", "36"}}},
		{Page: 3, Rows: [][]string{{"a,b", "c\"d"}}},
	}

	paths, err := WriteCSV(tables, dir, "report")
	if err != nil {
		t.Fatalf("WriteCSV = %v", err)
	}
	want := []string{
		filepath.Join(dir, "report_page1.csv"),
		filepath.Join(dir, "report_page3.csv"),
	}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}

	data, err := os.ReadFile(paths[0])
	if err != nil {
		t.Fatal(err)
	}
	if got := string(data); got != "Name,Age\nAda,36\n" {
		t.Errorf("page 1 content = %q", got)
	}

	data, err = os.ReadFile(paths[1])
	if err != nil {
		t.Fatal(err)
	}
	if got := string(data); got != "\"a,b\",\"c\"\"d\"\n" {
		t.Errorf("page 3 content = %q", got)
	}
}

func TestTablesMissingFile(t *testing.T) {
	if _, err := Tables(filepath.Join(t.TempDir(), "nope.pdf")); err == nil {
		t.Fatal("Tables(missing) = nil error")
	}
}

func TestTextMissingFile(t *testing.T) {
	if _, err := Text(filepath.Join(t.TempDir(), "nope.pdf")); err == nil {
		t.Fatal("Text(missing) = nil error")
	}
}
