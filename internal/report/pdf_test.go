package report

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperifyio/ocrules/internal/battery"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create png: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
}

func TestSave_WritesPDF(t *testing.T) {
	dir := t.TempDir()
	shot := filepath.Join(dir, "screenshot_T1.png")
	writePNG(t, shot, 80, 60)

	out := filepath.Join(dir, "R_AGE.pdf")
	doc := New(out)
	doc.Heading("Rule: R_AGE - Test: T1 - Passed", 12, battery.AlignLeft)
	doc.Paragraph("Age > 17 & weight ≥ 40 – café")
	doc.Spacer(5)
	doc.HorizontalLine()
	doc.PageBreak()
	doc.Heading("Überblick", 14, battery.AlignCenter)
	doc.Image(shot)

	if len(doc.blocks) != 7 {
		t.Fatalf("blocks=%d, want 7", len(doc.blocks))
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("file written before Save: %v", err)
	}
	if err := doc.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF")) {
		t.Fatalf("output does not start with %%PDF: %q", b[:8])
	}
}

func TestSave_MissingImageFails(t *testing.T) {
	dir := t.TempDir()
	doc := NewDocument(filepath.Join(dir, "x.pdf"))
	doc.Image(filepath.Join(dir, "missing.png"))
	if err := doc.Save(); err == nil {
		t.Fatalf("expected error for missing image")
	}
}

func TestSave_UnwritablePath(t *testing.T) {
	doc := New(filepath.Join(t.TempDir(), "no", "such", "dir", "x.pdf"))
	doc.Paragraph("text")
	if err := doc.Save(); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}

func TestFitImage(t *testing.T) {
	w, h := fitImage(800, 600, 159.2, 152.4)
	if !near(w, 159.2) || !near(h, 119.4) {
		t.Fatalf("wide image: got %v x %v", w, h)
	}
	w, h = fitImage(300, 600, 159.2, 152.4)
	if !near(w, 76.2) || !near(h, 152.4) {
		t.Fatalf("tall image: got %v x %v", w, h)
	}
	w, h = fitImage(0, 0, 100, 50)
	if w != 100 || h != 50 {
		t.Fatalf("degenerate image: got %v x %v", w, h)
	}
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestEncode(t *testing.T) {
	if got := encode("café"); got != "caf\xe9" {
		t.Fatalf("encode latin=%q", got)
	}
	if got := encode("          Value: <abc"); got != "          Value: <abc" {
		t.Fatalf("encode kept text=%q", got)
	}
	if got := encode("a→b"); got != "a?b" {
		t.Fatalf("encode unsupported=%q", got)
	}
}
