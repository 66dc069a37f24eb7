// Package align вычисляет для каждого изображения положение логического начала координат.
package align

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"

	"mapcrop/internal/geom"
	"mapcrop/internal/imageutils"
	"mapcrop/internal/logger"
	"mapcrop/internal/match"
	"mapcrop/internal/progress"
	"mapcrop/internal/store"
)

// ErrNoImages: в последовательности нет ни одного PNG
var ErrNoImages = errors.New("no png images to align")

// Source отдает размеры и пиксели изображений по имени
type Source interface {
	Dimensions(name string) (image.Point, error)
	LoadGray(name string) (*image.Gray, error)
}

// DirSource читает изображения из директории
type DirSource struct {
	Dir string
}

func (s DirSource) Dimensions(name string) (image.Point, error) {
	return imageutils.Size(filepath.Join(s.Dir, name))
}

func (s DirSource) LoadGray(name string) (*image.Gray, error) {
	return imageutils.OpenGray(filepath.Join(s.Dir, name))
}

// Files возвращает отсортированный список PNG в директории
func (s DirSource) Files() ([]string, error) {
	return imageutils.ListImages(s.Dir)
}

// Step описывает обработку одного файла
type Step struct {
	Name    string
	Offset  geom.Point
	Shift   geom.Point // сдвиг относительно предыдущего обработанного изображения
	Score   float64
	Skipped bool // смещение взято у предыдущего изображения без сопоставления
}

// Aligner проходит по изображениям по порядку и накапливает сдвиг
type Aligner struct {
	Source             Source
	Matcher            match.Matcher
	SkipSameDimensions bool
	Progress           progress.Reporter

	logger *logger.LoggerManager
}

// New создает Aligner. log может быть nil.
func New(src Source, m match.Matcher, skipSameDimensions bool, log *logger.LoggerManager) *Aligner {
	if log == nil {
		log = logger.Nop()
	}
	return &Aligner{
		Source:             src,
		Matcher:            m,
		SkipSameDimensions: skipSameDimensions,
		Progress:           progress.Nop{},
		logger:             log.With("align"),
	}
}

// Align возвращает смещение для каждого PNG из files.
// origin задает логическое (0,0) в координатах первого шаблона.
func (a *Aligner) Align(files []string, origin geom.Point, template *image.Gray) (store.Offsets, error) {
	return a.Walk(files, origin, template, nil)
}

// Walk делает то же, что Align, и вызывает fn после каждого файла
func (a *Aligner) Walk(files []string, origin geom.Point, template *image.Gray, fn func(Step)) (store.Offsets, error) {
	if template == nil {
		return nil, errors.New("initial template is nil")
	}

	var pngs []string
	for _, name := range files {
		if imageutils.IsPNG(name) {
			pngs = append(pngs, name)
		}
	}
	if len(pngs) == 0 {
		return nil, ErrNoImages
	}

	offsets := make(store.Offsets, len(pngs))
	var (
		cumulative geom.Point
		prevDims   image.Point
		prevName   string
		havePrev   bool
	)

	for _, name := range pngs {
		dims, err := a.Source.Dimensions(name)
		if err != nil {
			return nil, err
		}

		if a.SkipSameDimensions && havePrev && dims == prevDims {
			offsets[name] = offsets[prevName]
			a.report(fn, Step{Name: name, Offset: offsets[name], Skipped: true})
			prevName = name
			continue
		}

		full, err := a.Source.LoadGray(name)
		if err != nil {
			return nil, err
		}
		m, err := a.Matcher.Match(full, template)
		if err != nil {
			return nil, fmt.Errorf("failed to match previous image in %s: %w", name, err)
		}

		shift := m.TopLeft
		cumulative = cumulative.Add(shift)
		offsets[name] = origin.Add(cumulative)
		a.report(fn, Step{Name: name, Offset: offsets[name], Shift: shift, Score: m.Score})

		template = full
		prevDims = dims
		prevName = name
		havePrev = true
	}

	a.Progress.Finish()
	return offsets, nil
}

func (a *Aligner) report(fn func(Step), s Step) {
	if s.Skipped {
		a.logger.Debug("%s: %v (same dimensions, reused)", s.Name, s.Offset)
	} else {
		a.logger.Debug("%s: %v shift=%v score=%.4f", s.Name, s.Offset, s.Shift, s.Score)
	}
	a.Progress.Describe(fmt.Sprintf("%s: %v", s.Name, s.Offset))
	a.Progress.Add(1)
	if fn != nil {
		fn(s)
	}
}
