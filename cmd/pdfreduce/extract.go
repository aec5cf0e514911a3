package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wudi/pdfreduce/extract"
)

var (
	flagExtractCSV bool
	flagExtractDir string
)

var extractCmd = &cobra.Command{
	Use:   "extract [flags] file.pdf...",
	Short: "Extract text and tables from PDFs",
	Long: `Writes each document's plain text to <name>.txt next to the input, or
under --output-dir. With --csv, rows whose glyph runs align into columns are
also written as one CSV file per page that contains a table.`,
	RunE: runExtract,
}

func init() {
	f := extractCmd.Flags()
	f.BoolVar(&flagExtractCSV, "csv", false, "Also extract tables as CSV files")
	f.StringVar(&flagExtractDir, "output-dir", "", "Directory for extracted files (default: alongside the input)")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return errors.New("no input files specified")
	}
	if flagExtractDir != "" {
		if err := os.MkdirAll(flagExtractDir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	verbose := !flagQuiet
	var failures int
	for _, input := range args {
		if err := extractFile(input, verbose); err != nil {
			failures++
			if verbose {
				fmt.Printf("Error: %s: %v\n", input, err)
			}
		}
	}
	if failures == len(args) {
		return errors.New("no files were extracted")
	}
	return nil
}

func extractFile(input string, verbose bool) error {
	dir := flagExtractDir
	if dir == "" {
		dir = filepath.Dir(input)
	}

	text, err := extract.Text(input)
	if err != nil {
		return err
	}
	txtPath := filepath.Join(dir, stem(input)+".txt")
	if err := os.WriteFile(txtPath, []byte(text), 0o644); err != nil {
		return err
	}
	if verbose {
		fmt.Printf("Extracted text: %s\n", txtPath)
	}

	if !flagExtractCSV {
		return nil
	}
	tables, err := extract.Tables(input)
	if err != nil {
		return err
	}
	if len(tables) == 0 {
		if verbose {
			fmt.Println("No tables found")
		}
		return nil
	}
	paths, err := extract.WriteCSV(tables, dir, stem(input))
	if err != nil {
		return err
	}
	if verbose {
		for _, p := range paths {
			fmt.Printf("Extracted table: %s\n", p)
		}
	}
	return nil
}
