package reduce

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
)

// Status classifies the outcome of the reduction policy for one image.
type Status int

const (
	// StatusUnchanged means the image was processed but the re-encoded
	// bytes were not smaller, so the original payload stays untouched.
	StatusUnchanged Status = iota
	// StatusReplaced means a smaller re-encoding was produced.
	StatusReplaced
	// StatusRemoved means the image is to be deleted from its page.
	StatusRemoved
	// StatusSkipped means the image could not be processed; the original
	// payload stays untouched. Reason says why.
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusUnchanged:
		return "unchanged"
	case StatusReplaced:
		return "replaced"
	case StatusRemoved:
		return "removed"
	case StatusSkipped:
		return "skipped"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Result is the per-image outcome of the reduction policy. Failures to
// process an image are results, not errors: the run always continues.
type Result struct {
	Status Status
	// Data, Width, Height and Gray describe the replacement encoding.
	// They are meaningful only when Status is StatusReplaced.
	Data   []byte
	Width  int
	Height int
	Gray   bool
	// Reason explains a StatusSkipped outcome.
	Reason string
}

func skipped(format string, args ...any) Result {
	return Result{Status: StatusSkipped, Reason: fmt.Sprintf(format, args...)}
}

// reduceImage runs the per-image pipeline: decode, normalize color, downscale
// to the target resolution, re-encode, and apply the size gate. The original
// payload wins whenever anything goes wrong or the re-encoding is not
// strictly smaller.
func reduceImage(ref *imageRef, opts Options) Result {
	if opts.RemoveImages {
		return Result{Status: StatusRemoved}
	}
	if ref.width <= 0 || ref.height <= 0 {
		return skipped("zero pixel dimensions")
	}
	if ref.hasDecodeParms {
		// Predictor-filtered samples; the codec would misread them.
		return skipped("decode parameters present")
	}

	dec, err := decodeImage(ref.sd.Raw, ref.filter, ref.colorSpace, ref.bpc, ref.width, ref.height)
	if err != nil {
		return skipped("%v", err)
	}

	img := normalizeColor(dec, opts.Grayscale)
	img = downscale(img, opts.Dpi)

	encoded, err := encodeJPEG(img, opts.Quality)
	if err != nil {
		return skipped("%v", err)
	}

	// Size gate: replace only when strictly smaller than the stored payload.
	if len(encoded) >= len(ref.sd.Raw) {
		return Result{Status: StatusUnchanged}
	}

	b := img.Bounds()
	_, gray := img.(*image.Gray)
	return Result{
		Status: StatusReplaced,
		Data:   encoded,
		Width:  b.Dx(),
		Height: b.Dy(),
		Gray:   gray,
	}
}

// normalizeColor brings a decoded image into a JPEG-encodable mode. CMYK is
// converted to RGB, alpha is flattened onto an opaque white background, and
// gray input is promoted to RGB unless grayscale output was asked for.
func normalizeColor(dec *decodedImage, grayscale bool) image.Image {
	img := dec.img
	switch dec.mode {
	case modeCMYK:
		img = toRGB(img)
	case modeRGBA:
		img = flattenWhite(img)
	}
	if grayscale {
		if g, ok := img.(*image.Gray); ok {
			return g
		}
		return toGray(img)
	}
	if dec.mode == modeGray {
		return toRGB(img)
	}
	return img
}

// downscale resizes img when its estimated resolution exceeds the target,
// keeping at least one pixel per side.
func downscale(img image.Image, targetDPI int) image.Image {
	b := img.Bounds()
	current := estimateDPI(b.Dx(), b.Dy())
	if current <= float64(targetDPI) {
		return img
	}
	scale := float64(targetDPI) / current
	w := max(1, int(float64(b.Dx())*scale))
	h := max(1, int(float64(b.Dy())*scale))

	var dst draw.Image
	if _, ok := img.(*image.Gray); ok {
		dst = image.NewGray(image.Rect(0, 0, w, h))
	} else {
		dst = image.NewRGBA(image.Rect(0, 0, w, h))
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func toRGB(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, src, b.Min, draw.Src)
	return dst
}

func toGray(src image.Image) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(b)
	draw.Draw(dst, b, src, b.Min, draw.Src)
	return dst
}

// flattenWhite composites an alpha-bearing image onto an opaque white
// background. No partial transparency survives re-encoding.
func flattenWhite(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, image.White, image.Point{}, draw.Src)
	draw.Draw(dst, b, src, b.Min, draw.Over)
	return dst
}

// OptimizeStandalone applies the dpi/quality/grayscale/removal rules to an
// image that is already a standard container format (JPEG, PNG or GIF)
// rather than a PDF-filtered stream. There is no size gate; the caller
// decides whether to keep the result. A true removed return means the
// configuration asked for image removal; no decode is attempted then. If the
// payload cannot be decoded the original bytes come back unchanged.
func OptimizeStandalone(data []byte, currentDPI float64, opts Options) (out []byte, removed bool) {
	if opts.RemoveImages {
		return nil, true
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data, false
	}

	var img image.Image
	switch modeOf(src) {
	case modeRGBA:
		img = flattenWhite(src)
	case modeRGB:
		img = src
	default:
		img = toRGB(src)
	}
	if opts.Grayscale {
		// Desaturated but still encoded as three-channel color, matching
		// the historical behavior of this entry point.
		img = toRGB(toGray(img))
	}

	if currentDPI > float64(opts.Dpi) {
		scale := float64(opts.Dpi) / currentDPI
		b := img.Bounds()
		w := int(float64(b.Dx()) * scale)
		h := int(float64(b.Dy()) * scale)
		if w > 0 && h > 0 {
			dst := image.NewRGBA(image.Rect(0, 0, w, h))
			draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
			img = dst
		}
	}

	encoded, err := encodeJPEG(img, opts.Quality)
	if err != nil {
		return data, false
	}
	return encoded, false
}
