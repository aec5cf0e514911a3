package reduce

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Document is an opened, mutable PDF container. It is owned exclusively by
// one reduction run; two runs on two documents share no state.
type Document struct {
	ctx  *model.Context
	path string
}

// SaveOptions are the container-level settings chosen when writing the
// output. Linearize and NormalizeContent are mutually exclusive; the
// orchestrator never sets both.
type SaveOptions struct {
	// CompressStreams keeps stream payloads and the cross-reference table
	// in their compressed representations.
	CompressStreams bool
	// ObjectStreams packs non-stream objects into object streams.
	ObjectStreams bool
	// Linearize requests web-optimized object layout. The backend may not
	// support it; it is kept as a layout hint and for option accounting.
	Linearize bool
	// RecompressStreams re-deflates already-compressed flate streams at
	// the highest compression level.
	RecompressStreams bool
	// NormalizeContent rewrites page content streams, deduplicating
	// identical ones.
	NormalizeContent bool
}

// DefaultSaveOptions is the non-aggressive save configuration.
func DefaultSaveOptions() SaveOptions {
	return SaveOptions{CompressStreams: true, ObjectStreams: true, Linearize: true}
}

// Open reads and validates a PDF. Failures wrap ErrOpenFailed.
func Open(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenFailed, err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(f, conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenFailed, path, err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenFailed, path, err)
	}
	return &Document{ctx: ctx, path: path}, nil
}

// Path returns the path the document was opened from.
func (d *Document) Path() string { return d.path }

// PageCount returns the number of pages.
func (d *Document) PageCount() int { return d.ctx.PageCount }

// Save writes the document. Failures wrap ErrSaveFailed.
func (d *Document) Save(path string, opts SaveOptions) error {
	conf := d.ctx.Configuration
	conf.WriteObjectStream = opts.ObjectStreams
	conf.WriteXRefStream = opts.CompressStreams
	conf.OptimizeDuplicateContentStreams = opts.NormalizeContent

	if opts.RecompressStreams {
		recompressStreams(d.ctx)
	}

	if err := api.WriteContextFile(d.ctx, path); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSaveFailed, path, err)
	}
	return nil
}

// recompressStreams re-deflates plain flate streams at best compression,
// keeping each original payload unless the rewrite is strictly smaller.
// Streams with decode parameters or other filters are left alone.
func recompressStreams(ctx *model.Context) {
	for _, entry := range ctx.Table {
		if entry == nil || entry.Free {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok {
			continue
		}
		if len(sd.FilterPipeline) != 1 || sd.FilterPipeline[0].Name != filterFlate {
			continue
		}
		if sd.FilterPipeline[0].DecodeParms != nil {
			continue
		}
		if err := sd.Decode(); err != nil {
			continue
		}

		var buf bytes.Buffer
		zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
		if err != nil {
			continue
		}
		if _, err := zw.Write(sd.Content); err != nil {
			zw.Close()
			continue
		}
		zw.Close()
		if buf.Len() >= len(sd.Raw) {
			continue
		}

		length := int64(buf.Len())
		sd.Raw = buf.Bytes()
		sd.StreamLength = &length
		sd.Dict["Length"] = types.Integer(length)
		entry.Object = sd
	}
}
