// Package prompt реализует интерактивный ввод в консоли: меню, числа, прямоугольник выделения.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"mapcrop/internal/geom"
)

// ErrAborted: ввод закончился (EOF) до получения корректного ответа
var ErrAborted = errors.New("input aborted")

// ErrNoOptions: меню без пунктов
var ErrNoOptions = errors.New("no options provided")

// Prompter читает ответы из in и пишет вопросы в out.
// Некорректный ответ переспрашивается, только EOF прерывает ввод.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// New создает Prompter
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrAborted
		}
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (p *Prompter) invalid(format string, args ...interface{}) {
	fmt.Fprintf(p.out, "Invalid input: "+format+"\n", args...)
}

// Line задает вопрос и возвращает ответ как есть (без пробелов по краям)
func (p *Prompter) Line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	return p.readLine()
}

// Int запрашивает целое число
func (p *Prompter) Int(label string) (int, error) {
	for {
		s, err := p.Line(label)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			p.invalid("%q is not an integer", s)
			continue
		}
		return n, nil
	}
}

// Point запрашивает x и y
func (p *Prompter) Point() (geom.Point, error) {
	x, err := p.Int("x: ")
	if err != nil {
		return geom.Point{}, err
	}
	y, err := p.Int("y: ")
	if err != nil {
		return geom.Point{}, err
	}
	return geom.Pt(x, y), nil
}

// Confirm задает вопрос да/нет; пустой ответ означает def
func (p *Prompter) Confirm(label string, def bool) (bool, error) {
	hint := " [y/N]: "
	if def {
		hint = " [Y/n]: "
	}
	for {
		s, err := p.Line(label + hint)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(s) {
		case "":
			return def, nil
		case "y", "yes", "д", "да":
			return true, nil
		case "n", "no", "н", "нет":
			return false, nil
		}
		p.invalid("answer y or n")
	}
}

// Select печатает пронумерованный список (с 1) и возвращает индекс выбранного пункта (с 0)
func (p *Prompter) Select(message string, options []string) (int, error) {
	if len(options) == 0 {
		return 0, ErrNoOptions
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n", message)
	for i, opt := range options {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, opt)
	}
	menu := b.String()

	for {
		fmt.Fprint(p.out, menu)
		s, err := p.Line("\nInput selection number: ")
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > len(options) {
			p.invalid("expected a number from 1 to %d", len(options))
			continue
		}
		fmt.Fprintln(p.out)
		return n - 1, nil
	}
}

// ParseXYWH разбирает "x,y,w,h" в прямоугольник x1,y1,x2,y2
func ParseXYWH(s string) (geom.Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geom.Rect{}, fmt.Errorf("expected 4 comma-separated integers, got %d values", len(parts))
	}
	var v [4]int
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return geom.Rect{}, fmt.Errorf("%q is not an integer", strings.TrimSpace(part))
		}
		v[i] = n
	}
	return geom.FromXYWH(v[0], v[1], v[2], v[3]), nil
}

// CheckSelection проверяет, что выделение лежит внутри изображения size.
// Левый и верхний край должны быть строго больше нуля.
func CheckSelection(r geom.Rect, size geom.Point) error {
	if r.Empty() {
		return fmt.Errorf("selection box %v has no area", r)
	}
	if r.Min.X <= 0 || r.Min.Y <= 0 || r.Max.X > size.X || r.Max.Y > size.Y {
		return fmt.Errorf("selection box %v contains out-of-bounds coordinates (image %dx%d)", r, size.X, size.Y)
	}
	return nil
}

// SelectionBox запрашивает прямоугольник в формате x,y,w,h, пока он не станет корректным.
// Возвращает его в пиксельных координатах x1,y1,x2,y2.
func (p *Prompter) SelectionBox(size geom.Point) (geom.Rect, error) {
	for {
		s, err := p.Line("Enter selection box in x,y,w,h format: ")
		if err != nil {
			return geom.Rect{}, err
		}
		r, err := ParseXYWH(s)
		if err == nil {
			err = CheckSelection(r, size)
		}
		if err != nil {
			p.invalid("%v", err)
			continue
		}
		return r, nil
	}
}
