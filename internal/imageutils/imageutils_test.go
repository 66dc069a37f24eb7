package imageutils

import (
	"errors"
	"image"
	"image/color"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func filledNRGBA(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 100, A: 255})
		}
	}
	return img
}

func TestCropInside(t *testing.T) {
	src := gradient(100, 80)
	got := Crop(src, image.Rect(10, 20, 40, 60))

	if got.Bounds().Dx() != 30 || got.Bounds().Dy() != 40 {
		t.Fatalf("unexpected size %v", got.Bounds())
	}
	if c := got.NRGBAAt(0, 0); c.R != 10 || c.G != 20 {
		t.Errorf("expected pixel (10,20) at origin, got %v", c)
	}
}

func TestCropOutsideIsTransparent(t *testing.T) {
	src := gradient(50, 50)
	got := Crop(src, image.Rect(-10, -10, 20, 20))

	if got.Bounds().Dx() != 30 || got.Bounds().Dy() != 30 {
		t.Fatalf("crop must keep requested size, got %v", got.Bounds())
	}
	if c := got.NRGBAAt(0, 0); c.A != 0 {
		t.Errorf("expected transparent pixel outside source, got %v", c)
	}
	if c := got.NRGBAAt(10, 10); c.A != 255 || c.R != 0 || c.G != 0 {
		t.Errorf("expected source pixel (0,0) at (10,10), got %v", c)
	}
}

func TestMakeBlackTransparent(t *testing.T) {
	src := filledNRGBA(4, 4, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	src.SetNRGBA(1, 1, color.NRGBA{A: 255})

	got := MakeBlackTransparent(src)
	if c := got.NRGBAAt(1, 1); c.A != 0 {
		t.Errorf("black pixel should be transparent, got %v", c)
	}
	if c := got.NRGBAAt(0, 0); c.A != 255 {
		t.Errorf("non-black pixel should stay opaque, got %v", c)
	}
	if c := src.NRGBAAt(1, 1); c.A != 255 {
		t.Errorf("source image must not be modified")
	}
}

func TestHasTransparentPixels(t *testing.T) {
	img := filledNRGBA(3, 3, color.NRGBA{R: 1, A: 255})
	if HasTransparentPixels(img) {
		t.Errorf("opaque image reported transparent pixels")
	}
	img.SetNRGBA(2, 2, color.NRGBA{R: 1, A: 128})
	if !HasTransparentPixels(img) {
		t.Errorf("expected transparent pixel to be detected")
	}
}

func TestAddUnderlayNoTransparentPixelsIsNoop(t *testing.T) {
	// в градиенте нет черных пикселей: синий канал всегда 100
	src := gradient(20, 20)
	underlay := filledNRGBA(20, 20, color.NRGBA{R: 255, G: 0, B: 0, A: 255})

	got := AddUnderlay(src, underlay)
	want := MakeBlackTransparent(src)

	if !got.Bounds().Eq(want.Bounds()) {
		t.Fatalf("bounds differ: %v vs %v", got.Bounds(), want.Bounds())
	}
	for i := range want.Pix {
		if got.Pix[i] != want.Pix[i] {
			t.Fatalf("pixel data differs at byte %d", i)
		}
	}
}

func TestAddUnderlayShowsThroughBlack(t *testing.T) {
	src := filledNRGBA(10, 10, color.NRGBA{R: 50, G: 60, B: 70, A: 255})
	src.SetNRGBA(5, 5, color.NRGBA{A: 255})
	underlay := filledNRGBA(10, 10, color.NRGBA{R: 200, G: 0, B: 0, A: 255})

	got := AddUnderlay(src, underlay)

	if c := got.NRGBAAt(5, 5); c.R != 200 || c.A != 255 {
		t.Errorf("expected underlay to show through black pixel, got %v", c)
	}
	if c := got.NRGBAAt(0, 0); c.R != 50 || c.G != 60 || c.B != 70 {
		t.Errorf("opaque pixel must stay on top, got %v", c)
	}
}

func TestPrepareUnderlay(t *testing.T) {
	src := filledNRGBA(5, 5, color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	got := PrepareUnderlay(src, image.Pt(20, 10), 200)
	if got.Bounds().Dx() != 20 || got.Bounds().Dy() != 10 {
		t.Fatalf("unexpected size %v", got.Bounds())
	}
	c := got.NRGBAAt(3, 3)
	if c.R >= 255 || c.R == 0 {
		t.Errorf("expected darkened white, got %v", c)
	}
	if c.A != 255 {
		t.Errorf("expected opaque result, got alpha %d", c.A)
	}
}

func TestCaptionerApply(t *testing.T) {
	c, err := NewCaptioner(CaptionOptions{Height: 35, FontSize: 24})
	if err != nil {
		t.Fatalf("NewCaptioner failed: %v", err)
	}
	defer c.Close()

	src := filledNRGBA(200, 50, color.NRGBA{R: 9, G: 9, B: 9, A: 255})
	got := c.Apply(src, "2023-04-08.png")

	if got.Bounds().Dx() != 200 || got.Bounds().Dy() != 85 {
		t.Fatalf("unexpected size %v", got.Bounds())
	}
	if px := got.NRGBAAt(0, 40); px.R != 9 {
		t.Errorf("source image must start below the band, got %v", px)
	}

	textPixels := 0
	for y := 0; y < 35; y++ {
		for x := 0; x < 200; x++ {
			if got.NRGBAAt(x, y).R > 0 {
				textPixels++
			}
		}
	}
	if textPixels == 0 {
		t.Errorf("expected caption text to be drawn in the band")
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
		ok   bool
	}{
		{"lightgray", color.NRGBA{R: 0xd3, G: 0xd3, B: 0xd3, A: 0xff}, true},
		{"#ff0000", color.NRGBA{R: 0xff, A: 0xff}, true},
		{" Black ", color.NRGBA{A: 0xff}, true},
		{"not-a-color", color.NRGBA{}, false},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseColor(%q) err = %v, want ok=%v", tt.in, err, tt.ok)
			continue
		}
		if tt.ok && got != tt.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSaveOpenSizeAndList(t *testing.T) {
	dir := t.TempDir()
	img := gradient(30, 20)

	if err := Save(img, filepath.Join(dir, "b.png")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := Save(img, filepath.Join(dir, "a.png")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	names, err := ListImages(dir)
	if err != nil {
		t.Fatalf("ListImages failed: %v", err)
	}
	if len(names) != 2 || names[0] != "a.png" || names[1] != "b.png" {
		t.Errorf("unexpected listing %v", names)
	}

	size, err := Size(filepath.Join(dir, "a.png"))
	if err != nil {
		t.Fatalf("Size failed: %v", err)
	}
	if size != image.Pt(30, 20) {
		t.Errorf("unexpected size %v", size)
	}

	gray, err := OpenGray(filepath.Join(dir, "a.png"))
	if err != nil {
		t.Fatalf("OpenGray failed: %v", err)
	}
	if gray.Bounds() != image.Rect(0, 0, 30, 20) {
		t.Errorf("unexpected gray bounds %v", gray.Bounds())
	}
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.png"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestDrawRectOutline(t *testing.T) {
	img := filledNRGBA(20, 20, color.NRGBA{A: 255})
	red := color.NRGBA{R: 255, A: 255}

	DrawRectOutline(img, image.Rect(5, 5, 15, 15), 1, red)

	if c := img.NRGBAAt(5, 5); c.R != 255 {
		t.Errorf("expected corner to be drawn, got %v", c)
	}
	if c := img.NRGBAAt(10, 10); c.R != 0 {
		t.Errorf("expected inside to stay untouched, got %v", c)
	}
}
