package main

import (
	"strings"
	"testing"
)

func TestHumanSize(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0.0 B"},
		{512, "512.0 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
	}
	for _, tt := range tests {
		if got := humanSize(tt.n); got != tt.want {
			t.Errorf("humanSize(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestProgressBar(t *testing.T) {
	if got := progressBar(0, 10); strings.Contains(got, "█") {
		t.Errorf("progressBar(0) = %q, want all empty", got)
	}
	full := progressBar(100, 10)
	if strings.Contains(full, "░") {
		t.Errorf("progressBar(100) = %q, want all filled", full)
	}
	half := progressBar(50, 10)
	if strings.Count(half, "█") != 5 {
		t.Errorf("progressBar(50) = %q, want five filled cells", half)
	}
	over := progressBar(150, 10)
	if strings.Count(over, "█") != 10 {
		t.Errorf("progressBar(150) = %q, want clamped to width", over)
	}
}

func TestStem(t *testing.T) {
	tests := []struct{ in, want string }{
		{"/a/b/report.pdf", "report"},
		{"scan.PDF", "scan"},
		{"noext", "noext"},
	}
	for _, tt := range tests {
		if got := stem(tt.in); got != tt.want {
			t.Errorf("stem(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOutputPathFor(t *testing.T) {
	defer func() {
		flagOutput = ""
		flagOutputDir = ""
	}()

	flagOutput = ""
	flagOutputDir = ""
	if got := outputPathFor("/x/doc.pdf"); got != "/x/doc_reduced.pdf" {
		t.Errorf("default output = %q", got)
	}

	flagOutputDir = "/out"
	if got := outputPathFor("/x/doc.pdf"); got != "/out/doc_reduced.pdf" {
		t.Errorf("output-dir output = %q", got)
	}

	flagOutput = "/exact/name.pdf"
	if got := outputPathFor("/x/doc.pdf"); got != "/exact/name.pdf" {
		t.Errorf("explicit output = %q", got)
	}
}

func TestCLIOptions(t *testing.T) {
	defer func() {
		flagDpi = 150
		flagQuality = 80
		flagGrayscale = false
		flagAggressive = false
	}()
	flagDpi = 72
	flagQuality = 55
	flagGrayscale = true
	flagAggressive = true

	opts := cliOptions()
	if opts.Dpi != 72 || opts.Quality != 55 || !opts.Grayscale || !opts.Aggressive {
		t.Errorf("cliOptions = %+v", opts)
	}
}
