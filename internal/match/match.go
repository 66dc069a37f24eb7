// Package match ищет шаблон внутри изображения нормализованной кросс-корреляцией.
package match

import (
	"errors"
	"fmt"
	"image"
	"sort"
	"sync"

	"mapcrop/internal/geom"
	"mapcrop/internal/imageutils"
)

// ErrTemplateTooLarge возвращается, если шаблон больше изображения хотя бы по одной оси
var ErrTemplateTooLarge = errors.New("template is larger than image")

// ErrEmptyTemplate возвращается для шаблона нулевой площади
var ErrEmptyTemplate = errors.New("template is empty")

// Названия стратегий
const (
	Auto    = "auto"
	Spatial = "spatial"
	FFT     = "fft"
)

// Match: лучшее совпадение шаблона
type Match struct {
	TopLeft     geom.Point
	BottomRight geom.Point
	Score       float64
}

// Rect возвращает прямоугольник совпадения
func (m Match) Rect() geom.Rect {
	return geom.Rect{Min: m.TopLeft, Max: m.BottomRight}
}

// Matcher находит лучшее положение шаблона в изображении
type Matcher interface {
	Match(full, template *image.Gray) (Match, error)
}

var (
	registryMu sync.RWMutex
	registry   = map[string]func() Matcher{}
)

// Register добавляет стратегию. Используется бэкендами из init().
func Register(name string, factory func() Matcher) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Strategies возвращает отсортированный список доступных стратегий
func Strategies() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New создает Matcher по имени стратегии. Пустое имя означает Auto.
func New(strategy string) (Matcher, error) {
	if strategy == "" {
		strategy = Auto
	}
	registryMu.RLock()
	factory, ok := registry[strategy]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown matcher strategy %q (available: %v)", strategy, Strategies())
	}
	return factory(), nil
}

func init() {
	Register(Auto, func() Matcher { return &NCC{Mode: Auto} })
	Register(Spatial, func() Matcher { return &NCC{Mode: Spatial} })
	Register(FFT, func() Matcher { return &NCC{Mode: FFT} })
}

// MatchFile загружает изображение по пути и ищет в нем шаблон
func MatchFile(m Matcher, path string, template *image.Gray) (Match, error) {
	full, err := imageutils.OpenGray(path)
	if err != nil {
		return Match{}, err
	}
	res, err := m.Match(full, template)
	if err != nil {
		return Match{}, fmt.Errorf("failed to match template in %s: %w", path, err)
	}
	return res, nil
}

func checkSizes(full, template *image.Gray) error {
	fb, tb := full.Bounds(), template.Bounds()
	if tb.Dx() == 0 || tb.Dy() == 0 {
		return ErrEmptyTemplate
	}
	if tb.Dx() > fb.Dx() || tb.Dy() > fb.Dy() {
		return fmt.Errorf("%w: template %dx%d, image %dx%d",
			ErrTemplateTooLarge, tb.Dx(), tb.Dy(), fb.Dx(), fb.Dy())
	}
	return nil
}

func newMatch(loc image.Point, template *image.Gray, score float64) Match {
	tl := geom.FromImage(loc)
	return Match{
		TopLeft:     tl,
		BottomRight: tl.Add(geom.FromImage(template.Bounds().Size())),
		Score:       score,
	}
}
