package screenshot

import (
	"errors"
	"image"
)

// ErrWindowNotFound: на снимке нет ни одного нечерного пикселя
var ErrWindowNotFound = errors.New("game window not found")

// blackLevel: каналы ниже этого значения считаются черной рамкой
const blackLevel = 10

func isBlack(img image.Image, x, y int) bool {
	r, g, b, _ := img.At(x, y).RGBA()
	return r>>8 < blackLevel && g>>8 < blackLevel && b>>8 < blackLevel
}

// FindWindow ищет окно игры на снимке экрана: берет первую нечерную точку
// и расширяет прямоугольник по строке и столбцу этой точки до черной рамки.
func FindWindow(img image.Image) (image.Rectangle, error) {
	b := img.Bounds()

	// 1. Найти первую нечерную точку
	start, found := image.Point{}, false
	for y := b.Min.Y; y < b.Max.Y && !found; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if !isBlack(img, x, y) {
				start, found = image.Pt(x, y), true
				break
			}
		}
	}
	if !found {
		return image.Rectangle{}, ErrWindowNotFound
	}

	// 2. Расширяем до границ окна
	r := image.Rectangle{Min: start, Max: start.Add(image.Pt(1, 1))}
	for x := start.X + 1; x < b.Max.X && !isBlack(img, x, start.Y); x++ {
		r.Max.X = x + 1
	}
	for x := start.X - 1; x >= b.Min.X && !isBlack(img, x, start.Y); x-- {
		r.Min.X = x
	}
	for y := start.Y + 1; y < b.Max.Y && !isBlack(img, start.X, y); y++ {
		r.Max.Y = y + 1
	}
	return r, nil
}
