package screenshot

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"
	"time"

	"mapcrop/internal/imageutils"
)

func fakeCapturer(t *testing.T, at time.Time) *Capturer {
	t.Helper()
	c := NewCapturer(t.TempDir(), "", image.Rect(0, 0, 16, 9), nil)
	c.now = func() time.Time { return at }
	c.grab = func(r image.Rectangle) (*image.RGBA, error) {
		img := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
		img.Set(1, 1, color.RGBA{R: 255, A: 255})
		return img, nil
	}
	return c
}

func TestCaptureSavesNamedPNG(t *testing.T) {
	at := time.Date(2023, 4, 8, 13, 5, 9, 0, time.UTC)
	c := fakeCapturer(t, at)

	path, err := c.Capture()
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if filepath.Base(path) != "2023-04-08_130509.png" {
		t.Errorf("unexpected file name %s", path)
	}

	size, err := imageutils.Size(path)
	if err != nil {
		t.Fatal(err)
	}
	if size != image.Pt(16, 9) {
		t.Errorf("unexpected size %v", size)
	}
}

func TestCaptureSameSecondGetsSuffix(t *testing.T) {
	c := fakeCapturer(t, time.Date(2023, 4, 8, 13, 5, 9, 0, time.UTC))

	first, err := c.Capture()
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Capture()
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Fatalf("second capture overwrote the first: %s", second)
	}
	if filepath.Base(second) != "2023-04-08_130509_1.png" {
		t.Errorf("unexpected second name %s", second)
	}

	names, err := imageutils.ListImages(c.Dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "2023-04-08_130509.png" {
		t.Errorf("captures must sort in capture order: %v", names)
	}
}

func TestFindWindow(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for y := 5; y < 25; y++ {
		for x := 8; x < 30; x++ {
			img.Set(x, y, color.RGBA{R: 90, G: 120, B: 60, A: 255})
		}
	}

	r, err := FindWindow(img)
	if err != nil {
		t.Fatalf("FindWindow failed: %v", err)
	}
	if r != image.Rect(8, 5, 30, 25) {
		t.Errorf("got %v", r)
	}

	if _, err := FindWindow(image.NewRGBA(image.Rect(0, 0, 4, 4))); err != ErrWindowNotFound {
		t.Errorf("expected ErrWindowNotFound, got %v", err)
	}
}

func TestCaptureTrimsBorder(t *testing.T) {
	c := fakeCapturer(t, time.Date(2023, 4, 8, 13, 5, 9, 0, time.UTC))
	c.TrimBorder = true
	c.grab = func(r image.Rectangle) (*image.RGBA, error) {
		img := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
		for y := 2; y < 7; y++ {
			for x := 3; x < 13; x++ {
				img.Set(x, y, color.RGBA{G: 200, A: 255})
			}
		}
		return img, nil
	}

	path, err := c.Capture()
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	size, err := imageutils.Size(path)
	if err != nil {
		t.Fatal(err)
	}
	if size != image.Pt(10, 5) {
		t.Errorf("expected trimmed size 10x5, got %v", size)
	}
}
