package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wudi/pdfreduce/observability"
	"github.com/wudi/pdfreduce/reduce"
)

var (
	flagOutput        string
	flagOutputDir     string
	flagDpi           int
	flagQuality       int
	flagGrayscale     bool
	flagRemoveImages  bool
	flagAggressive    bool
	flagStripMetadata bool
	flagQuiet         bool
	flagVerbose       bool
)

var rootCmd = &cobra.Command{
	Use:   "pdfreduce [flags] file.pdf...",
	Short: "Reduce PDF file sizes through image optimization and compression",
	Long: `Re-encodes embedded images under DPI and quality targets, optionally
converts them to grayscale or removes them, strips metadata, and rewrites
the document container with compression enabled. The output never grows:
images whose re-encoding is not smaller keep their original bytes.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runReduce,
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&flagOutput, "output", "o", "", "Output file path (single input only)")
	f.StringVar(&flagOutputDir, "output-dir", "", "Output directory for batch processing")
	f.IntVar(&flagDpi, "dpi", 150, "Target image DPI")
	f.IntVar(&flagQuality, "quality", 80, "JPEG quality 1-100")
	f.BoolVar(&flagGrayscale, "grayscale", false, "Convert images to grayscale")
	f.BoolVar(&flagRemoveImages, "remove-images", false, "Remove all images from the PDF")
	f.BoolVar(&flagAggressive, "aggressive", false, "Apply aggressive compression")
	f.BoolVar(&flagStripMetadata, "strip-metadata", false, "Remove document metadata")
	f.BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Verbose logging")
}

func newLogger() observability.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.WarnLevel)
	if flagVerbose {
		l.SetLevel(logrus.DebugLevel)
	}
	return observability.NewLogrus(l)
}

func cliOptions() reduce.Options {
	return reduce.Options{
		Dpi:           flagDpi,
		Quality:       flagQuality,
		Grayscale:     flagGrayscale,
		RemoveImages:  flagRemoveImages,
		Aggressive:    flagAggressive,
		StripMetadata: flagStripMetadata,
	}
}

func runReduce(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		cmd.Help()
		return errors.New("no input files specified, use \"pdfreduce serve\" for the web interface")
	}
	if flagOutput != "" && len(args) > 1 {
		return errors.New("--output can only be used with a single input file")
	}
	if flagOutputDir != "" {
		if err := os.MkdirAll(flagOutputDir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	reducer, err := reduce.New(cliOptions(), newLogger())
	if err != nil {
		return err
	}

	verbose := !flagQuiet
	var successes int
	var totalOriginal, totalReduced int64

	for _, input := range args {
		fi, err := os.Stat(input)
		if err != nil {
			if verbose {
				fmt.Printf("Error: file not found: %s\n", input)
			}
			continue
		}
		if !strings.EqualFold(filepath.Ext(input), ".pdf") {
			if verbose {
				fmt.Printf("Skipping non-PDF file: %s\n", input)
			}
			continue
		}

		output := outputPathFor(input)
		if reduceFile(reducer, input, output, verbose) {
			successes++
			totalOriginal += fi.Size()
			if ofi, err := os.Stat(output); err == nil {
				totalReduced += ofi.Size()
			}
		}
	}

	if len(args) > 1 && verbose {
		fmt.Println("\n" + strings.Repeat("=", 50))
		fmt.Printf("Processed %d/%d files\n", successes, len(args))
		if totalOriginal > 0 {
			pct := float64(totalOriginal-totalReduced) / float64(totalOriginal) * 100
			fmt.Printf("Total: %s → %s (%+.1f%%)\n", humanSize(totalOriginal), humanSize(totalReduced), pct)
		}
	}

	if successes == 0 {
		return errors.New("no files were reduced")
	}
	return nil
}

func outputPathFor(input string) string {
	if flagOutput != "" {
		return flagOutput
	}
	if flagOutputDir != "" {
		return filepath.Join(flagOutputDir, stem(input)+"_reduced.pdf")
	}
	return reduce.DefaultOutputPath(input)
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func reduceFile(reducer *reduce.Reducer, input, output string, verbose bool) bool {
	if verbose {
		fmt.Printf("\nProcessing: %s\n", filepath.Base(input))
	}

	originalSize := int64(0)
	if fi, err := os.Stat(input); err == nil {
		originalSize = fi.Size()
	}

	var progress reduce.ProgressFunc
	if verbose {
		progress = func(pct float64, msg string) {
			fmt.Printf("\r  [%s] %5.1f%% - %-30s", progressBar(pct, 30), pct, msg)
		}
	}

	if _, err := reducer.Reduce(input, output, progress); err != nil {
		if verbose {
			fmt.Printf("\n  Error: %v\n", err)
		}
		return false
	}
	if verbose {
		fmt.Println()
	}

	if fi, err := os.Stat(output); err == nil && verbose {
		pct := float64(originalSize-fi.Size()) / float64(originalSize) * 100
		fmt.Printf("  %s → %s (%+.1f%%)\n", humanSize(originalSize), humanSize(fi.Size()), pct)
		fmt.Printf("  Saved to: %s\n", output)
	}
	return true
}

func progressBar(pct float64, width int) string {
	filled := int(float64(width) * pct / 100)
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func humanSize(n int64) string {
	size := float64(n)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if size < 1024 {
			return fmt.Sprintf("%.1f %s", size, unit)
		}
		size /= 1024
	}
	return fmt.Sprintf("%.1f TB", size)
}
