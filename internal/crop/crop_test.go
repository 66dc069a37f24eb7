package crop

import (
	"errors"
	"image"
	"image/color"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"mapcrop/internal/align"
	"mapcrop/internal/geom"
	"mapcrop/internal/imageutils"
	"mapcrop/internal/match"
	"mapcrop/internal/store"
)

func noise(w, h int, seed int64) *image.NRGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(rng.Intn(255) + 1)
		img.Pix[i+1] = uint8(rng.Intn(256))
		img.Pix[i+2] = uint8(rng.Intn(256))
		img.Pix[i+3] = 255
	}
	return img
}

func writeMaps(t *testing.T, images map[string]image.Image) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "maps")
	for name, img := range images {
		if err := imageutils.Save(img, filepath.Join(dir, name)); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestRectForZeroDifferenceIsIdentity(t *testing.T) {
	plan := Plan{Base: geom.R(50, 50, 150, 150), Reference: geom.Pt(100, 100)}
	if got := plan.RectFor(geom.Pt(100, 100)); got != plan.Base {
		t.Errorf("got %v, want %v", got, plan.Base)
	}
	if got := plan.RectFor(geom.Pt(110, 90)); got != geom.R(60, 40, 160, 140) {
		t.Errorf("unexpected translated rect %v", got)
	}
}

func TestPresetPlan(t *testing.T) {
	plan := PresetPlan(store.Preset{Rect: geom.R(-5, -5, 5, 5), Underlay: "u.png"}, "underlays")
	if plan.Reference != (geom.Point{}) {
		t.Errorf("preset plan must be anchored at logical origin, got %v", plan.Reference)
	}
	if plan.UnderlayPath != filepath.Join("underlays", "u.png") {
		t.Errorf("unexpected underlay path %q", plan.UnderlayPath)
	}
	// логический прямоугольник вокруг (0,0) попадает вокруг смещения изображения
	if got := plan.RectFor(geom.Pt(100, 100)); got != geom.R(95, 95, 105, 105) {
		t.Errorf("unexpected rect %v", got)
	}
}

func TestRunSameOffsetsGiveSameRect(t *testing.T) {
	a := noise(200, 200, 1)
	b := noise(200, 200, 2)
	mapsDir := writeMaps(t, map[string]image.Image{"a.png": a, "b.png": b})
	outDir := filepath.Join(t.TempDir(), "output")

	offsets := store.Offsets{"a.png": geom.Pt(100, 100), "b.png": geom.Pt(100, 100)}
	plan := Plan{Base: geom.R(50, 50, 150, 150), Reference: offsets["a.png"]}

	written, err := NewPipeline(mapsDir, outDir, nil).Run(plan, offsets)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(written) != 2 {
		t.Fatalf("expected 2 outputs, got %v", written)
	}

	out, err := imageutils.Open(filepath.Join(outDir, "b.png"))
	if err != nil {
		t.Fatal(err)
	}
	if out.Bounds().Dx() != 100 || out.Bounds().Dy() != 100 {
		t.Fatalf("unexpected output size %v", out.Bounds())
	}
	got := color.NRGBAModel.Convert(out.At(0, 0)).(color.NRGBA)
	if want := b.NRGBAAt(50, 50); got != want {
		t.Errorf("output (0,0) = %v, want source (50,50) = %v", got, want)
	}
}

func TestAlignThenCropWithDimensionSkip(t *testing.T) {
	a := noise(200, 200, 1)
	b := noise(200, 200, 2)
	mapsDir := writeMaps(t, map[string]image.Image{"a.png": a, "b.png": b})
	outDir := filepath.Join(t.TempDir(), "output")

	src := align.DirSource{Dir: mapsDir}
	files, err := src.Files()
	if err != nil {
		t.Fatal(err)
	}
	template, err := src.LoadGray("a.png")
	if err != nil {
		t.Fatal(err)
	}
	m, err := match.New(match.Spatial)
	if err != nil {
		t.Fatal(err)
	}

	var skipped []string
	offsets, err := align.New(src, m, true, nil).Walk(files, geom.Pt(100, 100), template, func(s align.Step) {
		if s.Skipped {
			skipped = append(skipped, s.Name)
		}
	})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if offsets["a.png"] != geom.Pt(100, 100) || offsets["b.png"] != geom.Pt(100, 100) {
		t.Fatalf("unexpected offsets %v", offsets)
	}
	if len(skipped) != 1 || skipped[0] != "b.png" {
		t.Errorf("expected b.png to reuse the previous offset, skipped = %v", skipped)
	}

	plan := Plan{Base: geom.R(50, 50, 150, 150), Reference: offsets["a.png"]}
	if got := plan.RectFor(offsets["b.png"]); got != geom.R(50, 50, 150, 150) {
		t.Errorf("b.png rect = %v, want [50 50 150 150]", got)
	}

	if _, err := NewPipeline(mapsDir, outDir, nil).Run(plan, offsets); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	out, err := imageutils.Open(filepath.Join(outDir, "b.png"))
	if err != nil {
		t.Fatal(err)
	}
	if out.Bounds().Size() != image.Pt(100, 100) {
		t.Fatalf("unexpected output size %v", out.Bounds())
	}
	got := color.NRGBAModel.Convert(out.At(99, 99)).(color.NRGBA)
	if want := b.NRGBAAt(149, 149); got != want {
		t.Errorf("output (99,99) = %v, want source (149,149) = %v", got, want)
	}
}

func TestRunMissingOffsetWritesNothing(t *testing.T) {
	mapsDir := writeMaps(t, map[string]image.Image{
		"a.png": noise(20, 20, 1),
		"b.png": noise(20, 20, 2),
	})
	outDir := filepath.Join(t.TempDir(), "output")

	_, err := NewPipeline(mapsDir, outDir, nil).Run(
		Plan{Base: geom.R(0, 0, 10, 10)}, store.Offsets{"a.png": geom.Pt(0, 0)})
	if !errors.Is(err, ErrMissingOffset) {
		t.Fatalf("expected ErrMissingOffset, got %v", err)
	}
	if _, statErr := os.Stat(outDir); !os.IsNotExist(statErr) {
		t.Errorf("output directory must not be created, stat err = %v", statErr)
	}
}

func TestRunWithUnderlayAndCaption(t *testing.T) {
	img := noise(40, 40, 3)
	// черный квадрат станет прозрачным, сквозь него видна подложка
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			img.SetNRGBA(x, y, color.NRGBA{A: 255})
		}
	}
	mapsDir := writeMaps(t, map[string]image.Image{"a.png": img})

	underlayPath := filepath.Join(t.TempDir(), "underlay.png")
	white := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := range white.Pix {
		white.Pix[i] = 255
	}
	if err := imageutils.Save(white, underlayPath); err != nil {
		t.Fatal(err)
	}

	captioner, err := imageutils.NewCaptioner(imageutils.CaptionOptions{Height: 35, FontSize: 24})
	if err != nil {
		t.Fatal(err)
	}
	defer captioner.Close()

	outDir := t.TempDir()
	p := NewPipeline(mapsDir, outDir, nil)
	p.Captioner = captioner

	plan := Plan{Base: geom.R(0, 0, 20, 20), UnderlayPath: underlayPath}
	if _, err := p.Run(plan, store.Offsets{"a.png": geom.Pt(0, 0)}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	out, err := imageutils.Open(filepath.Join(outDir, "a.png"))
	if err != nil {
		t.Fatal(err)
	}
	if out.Bounds().Dx() != 20 || out.Bounds().Dy() != 55 {
		t.Fatalf("unexpected output size %v", out.Bounds())
	}
	// (5,5) картинки находится на (5, 40) результата
	c := color.NRGBAModel.Convert(out.At(5, 40)).(color.NRGBA)
	if c.A != 255 || c.R == 0 || c.R == 255 {
		t.Errorf("expected darkened underlay behind black pixel, got %v", c)
	}
}

func TestTemplatePlan(t *testing.T) {
	a := noise(80, 60, 4)
	mapsDir := writeMaps(t, map[string]image.Image{"a.png": a, "b.png": noise(80, 60, 5)})
	tpl := imageutils.ToGray(a.SubImage(image.Rect(30, 20, 50, 45)))

	m, err := match.New(match.Spatial)
	if err != nil {
		t.Fatal(err)
	}
	offsets := store.Offsets{"a.png": geom.Pt(100, 100), "b.png": geom.Pt(90, 100)}
	plan, err := TemplatePlan(m, mapsDir, tpl, offsets)
	if err != nil {
		t.Fatalf("TemplatePlan failed: %v", err)
	}

	if plan.Base != geom.R(30, 20, 50, 45) {
		t.Errorf("unexpected base %v", plan.Base)
	}
	if plan.Reference != geom.Pt(100, 100) {
		t.Errorf("unexpected reference %v", plan.Reference)
	}
	if got := plan.RectFor(offsets["b.png"]); got != geom.R(20, 20, 40, 45) {
		t.Errorf("unexpected rect for b.png: %v", got)
	}
}

func TestCheckOffsets(t *testing.T) {
	err := CheckOffsets([]string{"a.png", "b.png"}, store.Offsets{"a.png": {}, "b.png": {}})
	if err != nil {
		t.Errorf("unexpected error %v", err)
	}
	err = CheckOffsets([]string{"a.png", "c.png"}, store.Offsets{"a.png": {}})
	if !errors.Is(err, ErrMissingOffset) {
		t.Errorf("expected ErrMissingOffset, got %v", err)
	}
}
