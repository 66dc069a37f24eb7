// Package crop обрезает все изображения к одному логическому прямоугольнику.
package crop

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"mapcrop/internal/geom"
	"mapcrop/internal/imageutils"
	"mapcrop/internal/logger"
	"mapcrop/internal/match"
	"mapcrop/internal/progress"
	"mapcrop/internal/store"
)

// ErrMissingOffset: у части изображений нет смещения в файле смещений
var ErrMissingOffset = errors.New("images without origin offset")

// Plan: базовый прямоугольник и смещение, к которому он привязан
type Plan struct {
	Base         geom.Rect
	Reference    geom.Point
	UnderlayPath string
}

// RectFor переводит базовый прямоугольник в пиксели изображения со смещением offset
func (p Plan) RectFor(offset geom.Point) geom.Rect {
	return p.Base.Translate(offset.Sub(p.Reference))
}

// PresetPlan строит план из пресета: прямоугольник уже в логических координатах.
// Подложка ищется в underlaysDir.
func PresetPlan(p store.Preset, underlaysDir string) Plan {
	plan := Plan{Base: p.Rect}
	if p.Underlay != "" {
		plan.UnderlayPath = p.Underlay
		if !filepath.IsAbs(p.Underlay) {
			plan.UnderlayPath = filepath.Join(underlaysDir, p.Underlay)
		}
	}
	return plan
}

// TemplatePlan ищет шаблон в первом изображении; найденный прямоугольник
// становится базовым, а смещение первого изображения опорным.
func TemplatePlan(m match.Matcher, mapsDir string, template *image.Gray, offsets store.Offsets) (Plan, error) {
	names, err := imageutils.ListImages(mapsDir)
	if err != nil {
		return Plan{}, err
	}
	if len(names) == 0 {
		return Plan{}, fmt.Errorf("no png images in %s", mapsDir)
	}
	first := names[0]

	reference, ok := offsets[first]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %s", ErrMissingOffset, first)
	}

	res, err := match.MatchFile(m, filepath.Join(mapsDir, first), template)
	if err != nil {
		return Plan{}, err
	}
	return Plan{Base: res.Rect(), Reference: reference}, nil
}

// CheckOffsets проверяет, что у каждого изображения есть смещение
func CheckOffsets(names []string, offsets store.Offsets) error {
	if missing := offsets.Missing(names); len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingOffset, strings.Join(missing, ", "))
	}
	return nil
}

// Pipeline режет, подкладывает подложку, подписывает и сохраняет изображения
type Pipeline struct {
	MapsDir   string
	OutputDir string
	// Captioner != nil включает полосу с именем файла
	Captioner      *imageutils.Captioner
	UnderlayDarken uint8
	Progress       progress.Reporter

	logger *logger.LoggerManager
}

// NewPipeline создает Pipeline. log может быть nil.
func NewPipeline(mapsDir, outputDir string, log *logger.LoggerManager) *Pipeline {
	if log == nil {
		log = logger.Nop()
	}
	return &Pipeline{
		MapsDir:        mapsDir,
		OutputDir:      outputDir,
		UnderlayDarken: 200,
		Progress:       progress.Nop{},
		logger:         log.With("crop"),
	}
}

// Images возвращает отсортированный список PNG, которые будут обработаны
func (p *Pipeline) Images() ([]string, error) {
	return imageutils.ListImages(p.MapsDir)
}

// Run обрабатывает все изображения и возвращает пути записанных файлов.
// Наличие смещений проверяется до записи первого файла.
func (p *Pipeline) Run(plan Plan, offsets store.Offsets) ([]string, error) {
	if plan.Base.Empty() {
		return nil, fmt.Errorf("crop rectangle %v is empty", plan.Base)
	}

	names, err := p.Images()
	if err != nil {
		return nil, err
	}
	if err := CheckOffsets(names, offsets); err != nil {
		return nil, err
	}

	var underlay *image.NRGBA
	if plan.UnderlayPath != "" {
		src, err := imageutils.Open(plan.UnderlayPath)
		if err != nil {
			return nil, err
		}
		underlay = imageutils.PrepareUnderlay(src, plan.Base.Size().Image(), p.UnderlayDarken)
		p.logger.Info("Подложка %s, %dx%d", plan.UnderlayPath, plan.Base.Dx(), plan.Base.Dy())
	}

	if err := os.MkdirAll(p.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", p.OutputDir, err)
	}

	written := make([]string, 0, len(names))
	for _, name := range names {
		p.Progress.Describe("Cropping " + name)

		out, err := p.processImage(name, plan.RectFor(offsets[name]), underlay)
		if err != nil {
			return written, err
		}

		dst := filepath.Join(p.OutputDir, name)
		if err := imageutils.Save(out, dst); err != nil {
			return written, err
		}
		written = append(written, dst)
		p.Progress.Add(1)
	}
	p.Progress.Finish()

	p.logger.Info("Обработано изображений: %d, результат в %s", len(written), p.OutputDir)
	return written, nil
}

func (p *Pipeline) processImage(name string, r geom.Rect, underlay *image.NRGBA) (image.Image, error) {
	img, err := imageutils.Open(filepath.Join(p.MapsDir, name))
	if err != nil {
		return nil, err
	}

	p.logger.Debug("%s: rect %v", name, r)
	out := imageutils.Crop(img, r.Image())
	if underlay != nil {
		out = imageutils.AddUnderlay(out, underlay)
	}
	if p.Captioner != nil {
		out = p.Captioner.Apply(out, name)
	}
	return out, nil
}
