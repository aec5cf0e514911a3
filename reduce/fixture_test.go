package reduce

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fixtureImage describes one image XObject in a generated test document.
// An entry with aliasOf set references the named image's object instead of
// carrying its own, which is how shared streams appear in real documents.
type fixtureImage struct {
	name        string
	data        []byte
	filter      string
	colorSpace  string
	width       int
	height      int
	bpc         int
	decodeParms bool
	aliasOf     string
}

// writeFixturePDF generates a single-page document with the given images and
// a hand-computed cross-reference table, so the reader sees a well-formed
// file without this package depending on any writer.
func writeFixturePDF(t *testing.T, path string, images []fixtureImage, withInfo bool) {
	t.Helper()

	var objs []string
	add := func(body string) int {
		objs = append(objs, body)
		return len(objs)
	}

	add("<< /Type /Catalog /Pages 2 0 R >>")
	add("<< /Type /Pages /Kids [3 0 R] /Count 1 >>")

	// Objects 3 and 4 are the page and its content stream; images follow.
	objNum := make(map[string]int)
	next := 5
	for _, img := range images {
		if img.aliasOf == "" {
			objNum[img.name] = next
			next++
		}
	}

	var xo, content strings.Builder
	for _, img := range images {
		target := img.name
		if img.aliasOf != "" {
			target = img.aliasOf
		}
		fmt.Fprintf(&xo, "/%s %d 0 R ", img.name, objNum[target])
		fmt.Fprintf(&content, "q 100 0 0 100 50 500 cm /%s Do Q\n", img.name)
	}
	add(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /XObject << %s>> >> /Contents 4 0 R >>", xo.String()))

	cs := content.String()
	add(fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(cs), cs))

	for _, img := range images {
		if img.aliasOf != "" {
			continue
		}
		extra := ""
		if img.decodeParms {
			extra = fmt.Sprintf(" /DecodeParms << /Predictor 15 /Colors 3 /BitsPerComponent 8 /Columns %d >>", img.width)
		}
		dict := fmt.Sprintf("<< /Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /%s /BitsPerComponent %d /Filter /%s%s /Length %d >>",
			img.width, img.height, img.colorSpace, img.bpc, img.filter, extra, len(img.data))
		add(dict + "\nstream\n" + string(img.data) + "\nendstream")
	}

	infoNum := 0
	if withInfo {
		infoNum = add("<< /Producer (fixture) /Title (Fixture Document) >>")
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")
	offsets := make([]int, len(objs)+1)
	for i, body := range objs {
		offsets[i+1] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= len(objs); i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	trailer := fmt.Sprintf("/Size %d /Root 1 0 R", len(objs)+1)
	if infoNum != 0 {
		trailer += fmt.Sprintf(" /Info %d 0 R", infoNum)
	}
	fmt.Fprintf(&buf, "trailer\n<< %s >>\nstartxref\n%d\n%%%%EOF\n", trailer, xrefOffset)

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("writing fixture %s: %v", path, err)
	}
}

func fixturePath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name)
}

// noiseRGBA fills an image with deterministic pseudo-random pixels, which
// compress poorly under flate and so leave room for JPEG to win.
func noiseRGBA(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	state := uint32(0x9e3779b9)
	for i := 0; i < len(img.Pix); i += 4 {
		state = state*1664525 + 1013904223
		img.Pix[i] = uint8(state >> 24)
		img.Pix[i+1] = uint8(state >> 16)
		img.Pix[i+2] = uint8(state >> 8)
		img.Pix[i+3] = 255
	}
	return img
}

func rgbSamples(img *image.RGBA) []byte {
	b := img.Bounds()
	out := make([]byte, 0, b.Dx()*b.Dy()*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			o := img.PixOffset(x, y)
			out = append(out, img.Pix[o], img.Pix[o+1], img.Pix[o+2])
		}
	}
	return out
}

func graySamples(w, h int, value uint8) []byte {
	out := make([]byte, w*h)
	for i := range out {
		out[i] = value
	}
	return out
}

func deflate(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		t.Fatalf("deflating: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("deflating: %v", err)
	}
	return buf.Bytes()
}

func jpegBytes(t *testing.T, img image.Image, quality int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		t.Fatalf("encoding jpeg: %v", err)
	}
	return buf.Bytes()
}

// noiseFlateImage is a large incompressible RGB image stored under flate,
// the canonical "this will shrink" input.
func noiseFlateImage(t *testing.T, name string, w, h int) fixtureImage {
	t.Helper()
	return fixtureImage{
		name:       name,
		data:       deflate(t, rgbSamples(noiseRGBA(w, h))),
		filter:     filterFlate,
		colorSpace: "DeviceRGB",
		width:      w,
		height:     h,
		bpc:        8,
	}
}

// flatGrayImage is a tiny flat image whose flate payload no JPEG can beat.
func flatGrayImage(t *testing.T, name string, w, h int) fixtureImage {
	t.Helper()
	return fixtureImage{
		name:       name,
		data:       deflate(t, graySamples(w, h, 200)),
		filter:     filterFlate,
		colorSpace: "DeviceGray",
		width:      w,
		height:     h,
		bpc:        8,
	}
}
