package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"mapcrop/internal/cli"
	"mapcrop/internal/config"
	"mapcrop/internal/crop"
	"mapcrop/internal/imageutils"
	"mapcrop/internal/logger"
	"mapcrop/internal/match"
	"mapcrop/internal/progress"
	"mapcrop/internal/prompt"
	"mapcrop/internal/store"
)

const (
	modePresets  = "presets"
	modeTemplate = "template"
)

func main() {
	cmd := &cobra.Command{
		Use:   "crop",
		Short: "Обрезает все изображения карты к одному логическому прямоугольнику",
		Long: `Прямоугольник берется либо из пресета (логические координаты),
либо из шаблона, найденного на первом изображении. Для каждого изображения
он сдвигается на разницу смещений из файла смещений.`,
		RunE: cli.Run(run),
	}
	cli.AddCommonFlags(cmd)
	f := cmd.Flags()
	f.String("maps-dir", "", "директория с изображениями карты")
	f.String("templates-dir", "", "директория с шаблонами")
	f.String("underlays-dir", "", "директория с подложками")
	f.String("presets", "", "файл пресетов")
	f.String("offsets", "", "файл смещений")
	f.String("output-dir", "", "куда сохранять результат")
	f.String("template", "", "имя шаблона по умолчанию (не спрашивать)")
	f.String("matcher", "", "стратегия сопоставления: "+fmt.Sprint(match.Strategies()))
	f.Bool("info", false, "добавить полосу с именем файла над изображением")
	f.String("mode", "", "presets или template (иначе спросить)")
	f.Int("preset-index", 0, "номер пресета, начиная с 1 (иначе спросить)")

	cli.Execute(cmd)
}

func run(env *cli.Env, cmd *cobra.Command, args []string) error {
	cfg, log := env.Config, env.Logger

	p := prompt.New(os.Stdin, os.Stdout)

	mode, _ := cmd.Flags().GetString("mode")
	if mode == "" {
		idx, err := p.Select("Do you want to", []string{
			"use the JSON file with crop presets in logical coordinates (more reliable), or",
			"use an image template to crop to (template matching finds it in the first map)?",
		})
		if err != nil {
			return err
		}
		mode = modePresets
		if idx == 1 {
			mode = modeTemplate
		}
	}

	offsets, err := store.LoadOffsets(cfg.Paths.OffsetsFile)
	if err != nil {
		return err
	}

	var plan crop.Plan
	switch mode {
	case modePresets:
		presetIndex, _ := cmd.Flags().GetInt("preset-index")
		plan, err = presetPlan(cfg, p, presetIndex)
	case modeTemplate:
		plan, err = templatePlan(cfg, p, offsets, log)
	default:
		return fmt.Errorf("unknown mode %q (expected %s or %s)", mode, modePresets, modeTemplate)
	}
	if err != nil {
		return err
	}
	log.Info("Базовый прямоугольник %v, опорное смещение %v", plan.Base, plan.Reference)

	pipeline := crop.NewPipeline(cfg.Paths.MapsDir, cfg.Paths.OutputDir, log)
	pipeline.UnderlayDarken = uint8(min(max(cfg.Crop.UnderlayDarken, 0), 255))

	if cfg.Crop.EnableInfoOnImage {
		captioner, err := newCaptioner(cfg.Crop)
		if err != nil {
			return err
		}
		defer captioner.Close()
		pipeline.Captioner = captioner
	}

	images, err := pipeline.Images()
	if err != nil {
		return err
	}
	pipeline.Progress = progress.NewBar(os.Stderr, len(images), "crop")

	written, err := pipeline.Run(plan, offsets)
	if err != nil {
		return err
	}
	fmt.Printf("Done! %d images written to %s\n", len(written), cfg.Paths.OutputDir)
	return nil
}

func presetPlan(cfg *config.Config, p *prompt.Prompter, presetIndex int) (crop.Plan, error) {
	presets, err := store.LoadPresets(cfg.Paths.PresetsFile)
	if err != nil {
		return crop.Plan{}, err
	}
	if len(presets) == 0 {
		return crop.Plan{}, fmt.Errorf("%w in %s", store.ErrNoPresets, cfg.Paths.PresetsFile)
	}

	idx := presetIndex - 1
	if presetIndex == 0 {
		options := make([]string, len(presets))
		for i, preset := range presets {
			options[i] = preset.String()
		}
		idx, err = p.Select("Select crop preset:", options)
		if err != nil {
			return crop.Plan{}, err
		}
	}
	if idx < 0 || idx >= len(presets) {
		return crop.Plan{}, fmt.Errorf("preset index %d out of range 1..%d", presetIndex, len(presets))
	}

	return crop.PresetPlan(presets[idx], cfg.Paths.UnderlaysDir), nil
}

func templatePlan(cfg *config.Config, p *prompt.Prompter, offsets store.Offsets, log *logger.LoggerManager) (crop.Plan, error) {
	name := cfg.Crop.DefaultTemplate
	if name == "" {
		files, err := imageutils.ListFiles(cfg.Paths.TemplatesDir)
		if err != nil {
			return crop.Plan{}, err
		}
		idx, err := p.Select("Select template image to crop to:", files)
		if err != nil {
			return crop.Plan{}, err
		}
		name = files[idx]
	}

	path := filepath.Join(cfg.Paths.TemplatesDir, name)
	template, err := imageutils.OpenGray(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return crop.Plan{}, fmt.Errorf("%w: template %s", store.ErrNotFound, path)
		}
		return crop.Plan{}, err
	}
	log.Info("Шаблон %s (%dx%d)", path, template.Bounds().Dx(), template.Bounds().Dy())

	matcher, err := match.New(cfg.Align.Matcher)
	if err != nil {
		return crop.Plan{}, err
	}
	return crop.TemplatePlan(matcher, cfg.Paths.MapsDir, template, offsets)
}

func newCaptioner(c config.Crop) (*imageutils.Captioner, error) {
	fg, err := imageutils.ParseColor(c.CaptionColor)
	if err != nil {
		return nil, err
	}
	bg, err := imageutils.ParseColor(c.CaptionBackground)
	if err != nil {
		return nil, err
	}
	return imageutils.NewCaptioner(imageutils.CaptionOptions{
		Height:     c.CaptionHeight,
		FontPath:   c.CaptionFont,
		FontSize:   c.CaptionFontSize,
		Color:      fg,
		Background: bg,
	})
}
