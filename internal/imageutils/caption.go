package imageutils

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// CaptionOptions описывает полосу с подписью над изображением
type CaptionOptions struct {
	Height     int
	FontPath   string // если пусто, используется встроенный моноширинный шрифт
	FontSize   float64
	Color      color.Color
	Background color.Color
}

// Captioner добавляет сверху полосу фиксированной высоты с текстом
type Captioner struct {
	opts CaptionOptions
	face font.Face
}

// NewCaptioner загружает шрифт и готовит font.Face
func NewCaptioner(opts CaptionOptions) (*Captioner, error) {
	data := gomono.TTF
	if opts.FontPath != "" {
		raw, err := os.ReadFile(opts.FontPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read font %s: %w", opts.FontPath, err)
		}
		data = raw
	}

	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	size := opts.FontSize
	if size <= 0 {
		size = 24
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}

	if opts.Color == nil {
		opts.Color = color.NRGBA{R: 0xd3, G: 0xd3, B: 0xd3, A: 0xff}
	}
	if opts.Background == nil {
		opts.Background = color.Black
	}

	return &Captioner{opts: opts, face: face}, nil
}

// Close освобождает font.Face
func (c *Captioner) Close() error {
	return c.face.Close()
}

// Apply возвращает новое изображение: полоса высотой Height с текстом,
// под ней исходное изображение.
func (c *Captioner) Apply(img image.Image, text string) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()+c.opts.Height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(c.opts.Background), image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(0, c.opts.Height, b.Dx(), b.Dy()+c.opts.Height), img, b.Min, draw.Src)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c.opts.Color),
		Face: c.face,
		Dot:  fixed.P(10, 5+c.face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(text)

	return dst
}
