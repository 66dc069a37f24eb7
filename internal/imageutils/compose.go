package imageutils

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
)

// Crop вырезает прямоугольник r. Результат всегда размера r;
// всё, что выходит за границы исходного изображения, остаётся прозрачным.
func Crop(img image.Image, r image.Rectangle) *image.NRGBA {
	if r.In(img.Bounds()) {
		return imaging.Crop(img, r)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), img, r.Min, draw.Src)
	return dst
}

// MakeBlackTransparent делает каждый пиксель #000000 прозрачным.
// Исходное изображение не меняется.
func MakeBlackTransparent(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	pix := dst.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		if pix[i] == 0 && pix[i+1] == 0 && pix[i+2] == 0 {
			pix[i+3] = 0
		}
	}
	return dst
}

// HasTransparentPixels сообщает, есть ли хотя бы один не полностью непрозрачный пиксель
func HasTransparentPixels(img *image.NRGBA) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
		for i := 3; i < len(row); i += 4 {
			if row[i] != 0xff {
				return true
			}
		}
	}
	return false
}

// PrepareUnderlay масштабирует подложку до size (ближайший сосед)
// и затемняет её полупрозрачным черным слоем с альфой darken.
func PrepareUnderlay(src image.Image, size image.Point, darken uint8) *image.NRGBA {
	resized := imaging.Resize(src, size.X, size.Y, imaging.NearestNeighbor)
	if darken == 0 {
		return resized
	}
	shade := imaging.New(size.X, size.Y, color.NRGBA{A: darken})
	return imaging.Overlay(resized, shade, image.Point{}, 1.0)
}

// AddUnderlay кладет подложку под изображение так, чтобы она была видна
// сквозь прозрачные пиксели. Черные пиксели сначала делаются прозрачными;
// если прозрачных пикселей нет, подложка не добавляется.
func AddUnderlay(img image.Image, underlay image.Image) *image.NRGBA {
	top := MakeBlackTransparent(img)
	if !HasTransparentPixels(top) {
		return top
	}

	size := top.Bounds().Size()
	if underlay.Bounds().Size() != size {
		underlay = imaging.Resize(underlay, size.X, size.Y, imaging.NearestNeighbor)
	}
	return imaging.Overlay(underlay, top, image.Point{}, 1.0)
}
