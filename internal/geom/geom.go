package geom

import (
	"fmt"
	"image"

	"github.com/bytedance/sonic"
)

// Point: пара координат (пиксельных или логических).
// В JSON хранится как массив [x, y].
type Point struct {
	X int
	Y int
}

// Pt: сокращение для Point{x, y}
func Pt(x, y int) Point {
	return Point{X: x, Y: y}
}

// FromImage конвертирует image.Point в Point
func FromImage(p image.Point) Point {
	return Point{X: p.X, Y: p.Y}
}

// Add возвращает p+q
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub возвращает p-q
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Image конвертирует Point в image.Point
func (p Point) Image() image.Point {
	return image.Point{X: p.X, Y: p.Y}
}

func (p Point) String() string {
	return fmt.Sprintf("[%d %d]", p.X, p.Y)
}

func (p Point) MarshalJSON() ([]byte, error) {
	return sonic.Marshal([2]int{p.X, p.Y})
}

func (p *Point) UnmarshalJSON(data []byte) error {
	var xy []int
	if err := sonic.Unmarshal(data, &xy); err != nil {
		return fmt.Errorf("point: %w", err)
	}
	if len(xy) != 2 {
		return fmt.Errorf("point: expected [x, y], got %d values", len(xy))
	}
	p.X, p.Y = xy[0], xy[1]
	return nil
}

// Rect: прямоугольник в формате x1,y1,x2,y2 (Max не включается).
// В JSON хранится как массив [x1, y1, x2, y2].
type Rect struct {
	Min Point
	Max Point
}

// R: сокращение для Rect{Pt(x1, y1), Pt(x2, y2)}
func R(x1, y1, x2, y2 int) Rect {
	return Rect{Min: Pt(x1, y1), Max: Pt(x2, y2)}
}

// FromXYWH строит прямоугольник из формата x,y,w,h
func FromXYWH(x, y, w, h int) Rect {
	return R(x, y, x+w, y+h)
}

// Translate сдвигает прямоугольник на d
func (r Rect) Translate(d Point) Rect {
	return Rect{Min: r.Min.Add(d), Max: r.Max.Add(d)}
}

func (r Rect) Dx() int {
	return r.Max.X - r.Min.X
}

func (r Rect) Dy() int {
	return r.Max.Y - r.Min.Y
}

// Size возвращает ширину и высоту как Point
func (r Rect) Size() Point {
	return Point{X: r.Dx(), Y: r.Dy()}
}

// Empty сообщает, что у прямоугольника нет площади
func (r Rect) Empty() bool {
	return r.Dx() <= 0 || r.Dy() <= 0
}

// Image конвертирует Rect в image.Rectangle без канонизации
func (r Rect) Image() image.Rectangle {
	return image.Rectangle{Min: r.Min.Image(), Max: r.Max.Image()}
}

// Array возвращает прямоугольник как [x1, y1, x2, y2]
func (r Rect) Array() [4]int {
	return [4]int{r.Min.X, r.Min.Y, r.Max.X, r.Max.Y}
}

func (r Rect) String() string {
	a := r.Array()
	return fmt.Sprintf("[%d %d %d %d]", a[0], a[1], a[2], a[3])
}

func (r Rect) MarshalJSON() ([]byte, error) {
	return sonic.Marshal(r.Array())
}

func (r *Rect) UnmarshalJSON(data []byte) error {
	var v []int
	if err := sonic.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("rect: %w", err)
	}
	if len(v) != 4 {
		return fmt.Errorf("rect: expected [x1, y1, x2, y2], got %d values", len(v))
	}
	*r = R(v[0], v[1], v[2], v[3])
	return nil
}
