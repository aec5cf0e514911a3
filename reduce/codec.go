package reduce

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"image"
	"image/jpeg"
	"io"
)

// colorMode is the canonical pixel layout of a decoded image.
type colorMode int

const (
	modeGray colorMode = iota
	modeRGB
	modeCMYK
	modeRGBA // carries an alpha channel that must be flattened before encoding
)

// decodedImage is the transient canonical form an image stream takes between
// decode and encode. It is never persisted.
type decodedImage struct {
	img  image.Image
	mode colorMode
}

// Filter names as they appear in image stream dictionaries.
const (
	filterDCT   = "DCTDecode"
	filterFlate = "FlateDecode"
)

// decodeImage interprets a raw (still filtered) image payload. Two filter
// families are supported: DCTDecode payloads are standard JPEG byte streams,
// and FlateDecode payloads are zlib-compressed raw samples whose layout is
// given strictly by the declared color space and bit depth. Everything else
// fails with ErrUnsupportedEncoding, which callers treat as "skip".
func decodeImage(raw []byte, filter, colorSpace string, bpc, width, height int) (*decodedImage, error) {
	switch filter {
	case filterDCT:
		img, err := jpeg.Decode(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("decoding DCT stream: %w", err)
		}
		return &decodedImage{img: img, mode: modeOf(img)}, nil

	case filterFlate:
		if bpc != 8 {
			return nil, fmt.Errorf("%w: %d bits per component", ErrUnsupportedEncoding, bpc)
		}
		zr, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("inflating image stream: %w", err)
		}
		defer zr.Close()
		data, err := io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("inflating image stream: %w", err)
		}
		return imageFromSamples(data, colorSpace, width, height)

	default:
		return nil, fmt.Errorf("%w: filter %q", ErrUnsupportedEncoding, filter)
	}
}

// imageFromSamples builds a pixel buffer from uncompressed 8-bit samples.
func imageFromSamples(data []byte, colorSpace string, width, height int) (*decodedImage, error) {
	switch colorSpace {
	case "DeviceGray":
		if len(data) < width*height {
			return nil, fmt.Errorf("gray sample buffer too short: %d < %d", len(data), width*height)
		}
		img := &image.Gray{
			Pix:    data[:width*height],
			Stride: width,
			Rect:   image.Rect(0, 0, width, height),
		}
		return &decodedImage{img: img, mode: modeGray}, nil

	case "DeviceRGB":
		if len(data) < width*height*3 {
			return nil, fmt.Errorf("rgb sample buffer too short: %d < %d", len(data), width*height*3)
		}
		img := image.NewNRGBA(image.Rect(0, 0, width, height))
		i := 0
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				offset := (y*width + x) * 4
				img.Pix[offset] = data[i]
				img.Pix[offset+1] = data[i+1]
				img.Pix[offset+2] = data[i+2]
				img.Pix[offset+3] = 255
				i += 3
			}
		}
		return &decodedImage{img: img, mode: modeRGB}, nil

	case "DeviceCMYK":
		if len(data) < width*height*4 {
			return nil, fmt.Errorf("cmyk sample buffer too short: %d < %d", len(data), width*height*4)
		}
		img := image.NewCMYK(image.Rect(0, 0, width, height))
		copy(img.Pix, data)
		return &decodedImage{img: img, mode: modeCMYK}, nil
	}

	return nil, fmt.Errorf("%w: color space %q", ErrUnsupportedEncoding, colorSpace)
}

// modeOf classifies an already decoded image, e.g. a JPEG.
func modeOf(img image.Image) colorMode {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return modeGray
	case *image.CMYK:
		return modeCMYK
	case *image.NRGBA, *image.RGBA, *image.NRGBA64, *image.RGBA64:
		return modeRGBA
	default:
		return modeRGB
	}
}

// encodeJPEG produces a JPEG byte stream at the given quality. Gray input
// stays single-channel; everything else is written as three-channel color.
// It does not fail for a well-formed image.
func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}
	return buf.Bytes(), nil
}
