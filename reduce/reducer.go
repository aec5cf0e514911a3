// Package reduce shrinks PDF documents by re-encoding embedded raster images
// under size and quality constraints, optionally removing images and
// metadata, and rewriting the container with per-mode compression settings.
// The container itself is handled by pdfcpu; this package only reasons about
// the semantic content it exposes.
package reduce

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/wudi/pdfreduce/observability"
)

// ProgressFunc receives progress updates during a run: a percentage in
// [0,100], non-decreasing and ending at exactly 100 on success, and a short
// stage message. It is called synchronously from the reducing goroutine and
// must return quickly; its return value is never consulted.
type ProgressFunc func(percent float64, message string)

// Reducer runs reductions with a fixed configuration. It holds no per-run
// state: one Reduce call owns its document exclusively, and independent
// calls on different documents may run in parallel.
type Reducer struct {
	opts Options
	log  observability.Logger
}

// New validates the options and returns a Reducer. A nil logger disables
// logging.
func New(opts Options, log observability.Logger) (*Reducer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = observability.NopLogger{}
	}
	return &Reducer{opts: opts, log: log}, nil
}

// Options returns the configuration the Reducer was built with.
func (r *Reducer) Options() Options { return r.opts }

// DefaultOutputPath places the output next to the input with a "_reduced"
// suffix.
func DefaultOutputPath(inputPath string) string {
	dir := filepath.Dir(inputPath)
	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, stem+"_reduced.pdf")
}

type runSummary struct {
	pages     int
	images    int
	replaced  int
	unchanged int
	skipped   int
	removed   int
}

// Reduce processes one document: opens it, optimizes or removes its images,
// strips metadata if configured, and saves with the compression settings the
// configuration calls for. Failures on individual images are logged and
// skipped; only open and save failures are fatal, surfaced as
// ErrReductionFailed wrapping the cause. The returned path is where the
// output was written; with an empty outputPath the default naming is used.
func (r *Reducer) Reduce(inputPath, outputPath string, progress ProgressFunc) (string, error) {
	if outputPath == "" {
		outputPath = DefaultOutputPath(inputPath)
	}
	report := func(pct float64, msg string) {
		if progress != nil {
			progress(pct, msg)
		}
	}

	report(0, "Opening PDF...")
	doc, err := Open(inputPath)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrReductionFailed, err)
	}

	var sum runSummary
	sum.pages = doc.PageCount()

	if !r.opts.RemoveImages {
		report(5, "Optimizing images...")
		r.optimizeImages(doc, &sum, report)
	} else {
		report(5, "Removing images...")
		r.removeImages(doc, &sum, report)
	}

	report(80, "Applying compression...")

	if r.opts.StripMetadata {
		report(85, "Stripping metadata...")
		stripMetadata(doc.ctx)
	}

	report(90, "Saving optimized PDF...")
	if err := doc.Save(outputPath, chooseSaveOptions(r.opts)); err != nil {
		return "", fmt.Errorf("%w: %w", ErrReductionFailed, err)
	}

	report(100, "Complete!")
	r.log.Info("reduction complete",
		observability.String("input", inputPath),
		observability.String("output", outputPath),
		observability.Int("pages", sum.pages),
		observability.Int("images", sum.images),
		observability.Int("replaced", sum.replaced),
		observability.Int("unchanged", sum.unchanged),
		observability.Int("skipped", sum.skipped),
		observability.Int("removed", sum.removed),
	)
	return outputPath, nil
}

// optimizeImages runs the policy over every enumerated image and applies
// replacements. A stream referenced by several entries is processed once;
// progress spans 5 to 75 percent across the image count.
func (r *Reducer) optimizeImages(doc *Document, sum *runSummary, report ProgressFunc) {
	images := collectImages(doc.ctx)
	total := len(images)
	sum.images = total
	if total == 0 {
		return
	}

	seen := make(map[int]bool)
	for idx := range images {
		ref := &images[idx]
		if nr := ref.objectNumber(); nr != 0 {
			if seen[nr] {
				report(5+70*float64(idx+1)/float64(total), fmt.Sprintf("Optimized image %d/%d", idx+1, total))
				continue
			}
			seen[nr] = true
		}

		res := reduceImage(ref, r.opts)
		switch res.Status {
		case StatusReplaced:
			if err := applyReplacement(doc.ctx, ref, res); err != nil {
				sum.skipped++
				r.log.Warn("image replacement failed",
					observability.Int("page", ref.pageIndex),
					observability.String("name", ref.name),
					observability.Error("error", err),
				)
				break
			}
			sum.replaced++
		case StatusUnchanged:
			sum.unchanged++
		case StatusSkipped:
			sum.skipped++
			r.log.Debug("image skipped",
				observability.Int("page", ref.pageIndex),
				observability.String("name", ref.name),
				observability.String("reason", res.Reason),
			)
		}
		report(5+70*float64(idx+1)/float64(total), fmt.Sprintf("Optimized image %d/%d", idx+1, total))
	}
}

// removeImages deletes every image entry from every page's XObject
// dictionary. No decoding or encoding happens in this mode; progress spans
// 5 to 75 percent across the page count.
func (r *Reducer) removeImages(doc *Document, sum *runSummary, report ProgressFunc) {
	total := doc.PageCount()
	for i := 0; i < total; i++ {
		xObjects := pageXObjects(doc.ctx, i+1)
		if xObjects != nil {
			for _, name := range imageEntryNames(doc.ctx, xObjects) {
				applyRemoval(xObjects, name)
				sum.removed++
			}
		}
		report(5+70*float64(i+1)/float64(total), fmt.Sprintf("Processed page %d/%d", i+1, total))
	}
}

// chooseSaveOptions maps the run configuration onto container save settings.
// Aggressive mode trades linearization for content normalization and forced
// stream recompression; the two layout modes never appear together.
func chooseSaveOptions(opts Options) SaveOptions {
	so := DefaultSaveOptions()
	if opts.Aggressive {
		so.RecompressStreams = true
		so.NormalizeContent = true
		so.Linearize = false
	}
	return so
}
