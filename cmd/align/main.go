package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"mapcrop/internal/align"
	"mapcrop/internal/cli"
	"mapcrop/internal/database"
	"mapcrop/internal/geom"
	"mapcrop/internal/imageutils"
	"mapcrop/internal/match"
	"mapcrop/internal/progress"
	"mapcrop/internal/prompt"
	"mapcrop/internal/store"
)

func main() {
	cmd := &cobra.Command{
		Use:   "align",
		Short: "Находит логическое начало координат в каждом изображении карты",
		Long: `Пользователь указывает пиксель логического (0,0) на первом изображении.
Каждое следующее изображение сопоставляется с предыдущим, сдвиги накапливаются,
результат записывается в файл смещений.`,
		RunE: cli.Run(run),
	}
	cli.AddCommonFlags(cmd)
	f := cmd.Flags()
	f.String("maps-dir", "", "директория с изображениями карты")
	f.String("offsets", "", "куда записать смещения")
	f.String("matcher", "", "стратегия сопоставления: "+fmt.Sprint(match.Strategies()))
	f.Bool("skip-same-dimensions", true, "не сопоставлять изображения того же размера, что и предыдущее")
	f.Int("save-to-db", 0, "1: сохранить прогон в MySQL")
	f.String("dsn", "", "MySQL DSN")
	f.String("origin", "", "логическое (0,0) на первом изображении в формате x,y (иначе спросить)")
	f.String("template-rect", "", "начальный шаблон: часть первого изображения x,y,w,h (по умолчанию целиком)")

	cli.Execute(cmd)
}

func run(env *cli.Env, cmd *cobra.Command, args []string) error {
	cfg, log := env.Config, env.Logger

	src := align.DirSource{Dir: cfg.Paths.MapsDir}
	files, err := src.Files()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("%w in %s", align.ErrNoImages, cfg.Paths.MapsDir)
	}

	first := files[0]
	firstImage, err := src.LoadGray(first)
	if err != nil {
		return err
	}
	log.Info("Загружено первое изображение %s (%dx%d)", filepath.Join(cfg.Paths.MapsDir, first),
		firstImage.Bounds().Dx(), firstImage.Bounds().Dy())

	p := prompt.New(os.Stdin, os.Stdout)
	origin, err := readOrigin(cmd, p)
	if err != nil {
		return err
	}
	log.Info("Начало координат на первом изображении: %v", origin)

	// Начальный шаблон: первое изображение целиком или его часть.
	// Сопоставление части с первым изображением даст ее левый верхний угол,
	// поэтому начало координат пересчитывается относительно шаблона.
	template := firstImage
	templateOrigin := origin
	if s, _ := cmd.Flags().GetString("template-rect"); s != "" {
		r, err := prompt.ParseXYWH(s)
		if err != nil {
			return fmt.Errorf("invalid --template-rect: %w", err)
		}
		if !r.Image().In(firstImage.Bounds()) || r.Empty() {
			return fmt.Errorf("--template-rect %v is outside of %s", r, first)
		}
		template = imageutils.ToGray(firstImage.SubImage(r.Image()))
		templateOrigin = origin.Sub(r.Min)
		log.Info("Начальный шаблон: %v", r)
	}

	matcher, err := match.New(cfg.Align.Matcher)
	if err != nil {
		return err
	}

	aligner := align.New(src, matcher, cfg.Align.SkipSameDimensions, log)
	aligner.Progress = progress.NewBar(os.Stderr, len(files), "align")

	var steps []database.ImageOffset
	offsets, err := aligner.Walk(files, templateOrigin, template, func(s align.Step) {
		steps = append(steps, database.ImageOffset{Name: s.Name, Offset: s.Offset, Score: s.Score, Skipped: s.Skipped})
	})
	if err != nil {
		return err
	}

	if err := store.SaveOffsets(cfg.Paths.OffsetsFile, offsets); err != nil {
		return err
	}
	log.Info("Готово! Смещения %d изображений записаны в %s", len(offsets), cfg.Paths.OffsetsFile)

	if cfg.Database.SaveToDB != 1 {
		log.Debug("Сохранение в БД отключено (save_to_db = %d)", cfg.Database.SaveToDB)
		return nil
	}

	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = database.NewDatabaseManager(db, log).SaveAlignmentRun(database.AlignmentRun{
		Origin:     origin,
		FirstImage: first,
		Matcher:    cfg.Align.Matcher,
		Images:     steps,
	})
	return err
}

func readOrigin(cmd *cobra.Command, p *prompt.Prompter) (geom.Point, error) {
	if s, _ := cmd.Flags().GetString("origin"); s != "" {
		var x, y int
		if _, err := fmt.Sscanf(s, "%d,%d", &x, &y); err != nil {
			return geom.Point{}, fmt.Errorf("invalid --origin %q: expected x,y", s)
		}
		return geom.Pt(x, y), nil
	}
	fmt.Println("Введите пиксельные координаты логического 0,0 на первом изображении.")
	return p.Point()
}
