package reduce

import "fmt"

// Options configures a reduction run. The zero value is not valid; start
// from DefaultOptions. Options are treated as immutable once a Reducer has
// been constructed and are shared by every per-image operation of a run.
type Options struct {
	// Dpi is the target resolution for embedded raster images, in [10,600].
	Dpi int
	// Quality is the JPEG quality for re-encoded images, in [1,100].
	Quality int
	// Grayscale converts every re-encoded image to single-channel gray.
	Grayscale bool
	// RemoveImages deletes image XObjects instead of re-encoding them.
	RemoveImages bool
	// Aggressive additionally recompresses flate streams and normalizes
	// page content at save time, at the cost of linearized output.
	Aggressive bool
	// StripMetadata clears the XMP metadata and the trailer Info dictionary.
	StripMetadata bool
}

// DefaultOptions returns the standard configuration: 150 dpi, quality 80,
// all switches off.
func DefaultOptions() Options {
	return Options{Dpi: 150, Quality: 80}
}

// Validate checks the numeric ranges. Boolean fields cannot be invalid.
func (o Options) Validate() error {
	if o.Quality < 1 || o.Quality > 100 {
		return fmt.Errorf("%w: quality must be between 1 and 100, got %d", ErrInvalidOption, o.Quality)
	}
	if o.Dpi < 10 || o.Dpi > 600 {
		return fmt.Errorf("%w: dpi must be between 10 and 600, got %d", ErrInvalidOption, o.Dpi)
	}
	return nil
}
