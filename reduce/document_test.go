package reduce

import (
	"errors"
	"os"
	"testing"
)

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(fixturePath(t, "does-not-exist.pdf"))
	if !errors.Is(err, ErrOpenFailed) {
		t.Fatalf("Open = %v, want ErrOpenFailed", err)
	}
}

func TestOpenCorruptFile(t *testing.T) {
	path := fixturePath(t, "corrupt.pdf")
	if err := os.WriteFile(path, []byte("this is not a pdf"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(path)
	if !errors.Is(err, ErrOpenFailed) {
		t.Fatalf("Open = %v, want ErrOpenFailed", err)
	}
}

func TestOpenFixture(t *testing.T) {
	path := fixturePath(t, "ok.pdf")
	writeFixturePDF(t, path, []fixtureImage{flatGrayImage(t, "Im0", 16, 16)}, true)

	doc, err := Open(path)
	if err != nil {
		t.Fatalf("Open = %v", err)
	}
	if doc.PageCount() != 1 {
		t.Errorf("PageCount = %d, want 1", doc.PageCount())
	}
	if doc.Path() != path {
		t.Errorf("Path = %q, want %q", doc.Path(), path)
	}
}

func TestSaveRoundtrip(t *testing.T) {
	path := fixturePath(t, "in.pdf")
	writeFixturePDF(t, path, []fixtureImage{flatGrayImage(t, "Im0", 16, 16)}, false)

	doc, err := Open(path)
	if err != nil {
		t.Fatalf("Open = %v", err)
	}
	out := fixturePath(t, "out.pdf")
	if err := doc.Save(out, DefaultSaveOptions()); err != nil {
		t.Fatalf("Save = %v", err)
	}

	reopened, err := Open(out)
	if err != nil {
		t.Fatalf("reopening output: %v", err)
	}
	if reopened.PageCount() != 1 {
		t.Errorf("reopened PageCount = %d, want 1", reopened.PageCount())
	}
}

func TestSaveBadPath(t *testing.T) {
	path := fixturePath(t, "in.pdf")
	writeFixturePDF(t, path, nil, false)

	doc, err := Open(path)
	if err != nil {
		t.Fatalf("Open = %v", err)
	}
	err = doc.Save(fixturePath(t, "no-such-dir")+"/x/out.pdf", DefaultSaveOptions())
	if !errors.Is(err, ErrSaveFailed) {
		t.Fatalf("Save = %v, want ErrSaveFailed", err)
	}
}

func TestDefaultSaveOptions(t *testing.T) {
	so := DefaultSaveOptions()
	if !so.CompressStreams || !so.ObjectStreams || !so.Linearize {
		t.Errorf("DefaultSaveOptions = %+v, want compress/object-streams/linearize on", so)
	}
	if so.RecompressStreams || so.NormalizeContent {
		t.Errorf("DefaultSaveOptions = %+v, want aggressive settings off", so)
	}
}

func TestSaveRecompressStreams(t *testing.T) {
	// A padded, poorly compressed content stream should survive a
	// recompressing save byte-for-byte after decoding.
	path := fixturePath(t, "in.pdf")
	writeFixturePDF(t, path, []fixtureImage{noiseFlateImage(t, "Im0", 64, 64)}, false)

	doc, err := Open(path)
	if err != nil {
		t.Fatalf("Open = %v", err)
	}
	so := DefaultSaveOptions()
	so.RecompressStreams = true
	so.NormalizeContent = true
	so.Linearize = false
	out := fixturePath(t, "out.pdf")
	if err := doc.Save(out, so); err != nil {
		t.Fatalf("Save = %v", err)
	}

	reopened, err := Open(out)
	if err != nil {
		t.Fatalf("reopening output: %v", err)
	}
	images := collectImages(reopened.ctx)
	if len(images) != 1 {
		t.Fatalf("image lost in recompressing save: %d images", len(images))
	}
}
