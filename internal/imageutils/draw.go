package imageutils

import (
	"image"
	"image/color"
	"image/draw"
)

// fillRect закрашивает прямоугольник, обрезая его по границам изображения
func fillRect(dst draw.Image, r image.Rectangle, c color.Color) {
	r = r.Canon().Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Over)
}

// DrawRectOutline рисует рамку прямоугольника толщиной thickness
func DrawRectOutline(dst draw.Image, r image.Rectangle, thickness int, c color.Color) {
	r = r.Canon()
	// Верх
	fillRect(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thickness), c)
	// Низ
	fillRect(dst, image.Rect(r.Min.X, r.Max.Y-thickness, r.Max.X, r.Max.Y), c)
	// Лево
	fillRect(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+thickness, r.Max.Y), c)
	// Право
	fillRect(dst, image.Rect(r.Max.X-thickness, r.Min.Y, r.Max.X, r.Max.Y), c)
}

// DrawCross рисует перекрестие с центром в p
func DrawCross(dst draw.Image, p image.Point, size, thickness int, c color.Color) {
	half := thickness / 2
	fillRect(dst, image.Rect(p.X-size, p.Y-half, p.X+size+1, p.Y-half+thickness), c)
	fillRect(dst, image.Rect(p.X-half, p.Y-size, p.X-half+thickness, p.Y+size+1), c)
}
