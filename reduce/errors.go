package reduce

import "errors"

// Error kinds surfaced by the engine. Callers match them with errors.Is;
// the concrete cause is attached via wrapping.
var (
	// ErrInvalidOption reports an out-of-range configuration value. It is
	// returned at construction time, before any I/O happens.
	ErrInvalidOption = errors.New("pdfreduce: invalid option")

	// ErrOpenFailed reports an unreadable or corrupt input document.
	ErrOpenFailed = errors.New("pdfreduce: open failed")

	// ErrSaveFailed reports a failure to write the output document.
	ErrSaveFailed = errors.New("pdfreduce: save failed")

	// ErrUnsupportedEncoding reports an image stream whose filter or color
	// space the codec cannot interpret. The policy layer absorbs it and
	// keeps the original bytes; it never reaches Reduce callers.
	ErrUnsupportedEncoding = errors.New("pdfreduce: unsupported image encoding")

	// ErrReductionFailed wraps any fatal error during a reduction run.
	ErrReductionFailed = errors.New("pdfreduce: reduction failed")
)
