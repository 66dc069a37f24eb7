package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"mapcrop/internal/cli"
	"mapcrop/internal/geom"
	"mapcrop/internal/imageutils"
	"mapcrop/internal/logger"
	"mapcrop/internal/prompt"
	"mapcrop/internal/store"
)

func main() {
	cmd := &cobra.Command{
		Use:   "preset [image.png]",
		Short: "Создает пресет обрезки по выделению на одном изображении",
		Long: `Открывает копию изображения во внешнем редакторе (если задан editor_path),
спрашивает выделение в формате x,y,w,h и переводит его в логические координаты
по смещению этого изображения.`,
		Args: cobra.MaximumNArgs(1),
		RunE: cli.Run(run),
	}
	cli.AddCommonFlags(cmd)
	f := cmd.Flags()
	f.String("maps-dir", "", "директория с изображениями карты")
	f.String("offsets", "", "файл смещений")
	f.String("presets", "", "файл пресетов")
	f.String("editor", "", "внешний редактор для выделения")
	f.String("underlay", "", "имя файла подложки в директории подложек")
	f.Bool("append", false, "дописать пресет в файл пресетов без вопроса")

	cli.Execute(cmd)
}

func run(env *cli.Env, cmd *cobra.Command, args []string) error {
	cfg, log := env.Config, env.Logger

	p := prompt.New(os.Stdin, os.Stdout)

	var name string
	if len(args) == 1 {
		name = filepath.Base(args[0])
	} else {
		names, err := imageutils.ListImages(cfg.Paths.MapsDir)
		if err != nil {
			return err
		}
		idx, err := p.Select("Select a map export:", names)
		if err != nil {
			return err
		}
		name = names[idx]
	}
	imagePath := filepath.Join(cfg.Paths.MapsDir, name)
	log.Info("Выбрано изображение %s", imagePath)

	offsets, err := store.LoadOffsets(cfg.Paths.OffsetsFile)
	if err != nil {
		return err
	}
	offset, ok := offsets[name]
	if !ok {
		return fmt.Errorf("image %s not found in %s", name, cfg.Paths.OffsetsFile)
	}

	if cfg.Preset.EditorPath != "" {
		tmp, err := makeTempCopy(imagePath, log)
		if err != nil {
			return err
		}
		if err := openEditor(cfg.Preset.EditorPath, tmp, log); err != nil {
			return err
		}
	}

	size, err := imageutils.Size(imagePath)
	if err != nil {
		return err
	}

	sel, err := p.SelectionBox(geom.FromImage(size))
	if err != nil {
		return err
	}
	logical := store.LogicalRect(sel, offset)

	fmt.Println("\nx1,y1,x2,y2 format:")
	fmt.Printf("Received selbox in image coords: %v\n", sel)
	fmt.Printf("Converted selbox in logical coords: %v\n", logical)

	title, err := p.Line("Input title for this crop preset: ")
	if err != nil {
		return err
	}
	description, err := p.Line("Input description for this crop preset: ")
	if err != nil {
		return err
	}
	underlay, _ := cmd.Flags().GetString("underlay")

	preset := store.Preset{Title: title, Description: description, Rect: logical, Underlay: underlay}
	data, err := store.MarshalPreset(preset)
	if err != nil {
		return err
	}
	fmt.Printf("\nHere is the generated crop preset:\n%s\n", data)

	appendPreset, _ := cmd.Flags().GetBool("append")
	if !appendPreset {
		appendPreset, err = p.Confirm("Append it to "+cfg.Paths.PresetsFile+"?", false)
		if err != nil {
			return err
		}
	}
	if appendPreset {
		if err := store.AppendPreset(cfg.Paths.PresetsFile, preset); err != nil {
			return err
		}
		log.Info("Пресет %q добавлен в %s", title, cfg.Paths.PresetsFile)
	}
	return nil
}

// makeTempCopy копирует изображение во временную директорию, чтобы редактор не изменил оригинал
func makeTempCopy(path string, log *logger.LoggerManager) (string, error) {
	dir, err := os.MkdirTemp("", "mapcrop-preset-")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	log.Debug("Создана временная директория %s", dir)

	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer src.Close()

	dst := filepath.Join(dir, filepath.Base(path))
	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return "", fmt.Errorf("failed to copy %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", dst, err)
	}

	log.Info("Скопировано %s в %s", path, dst)
	return dst, nil
}

func openEditor(editor, path string, log *logger.LoggerManager) error {
	fmt.Println("\nNow opening the editor; make a selection box and type in the coordinates below.")
	if err := exec.Command(editor, path).Start(); err != nil {
		return fmt.Errorf("could not start editor %s: %w", editor, err)
	}
	log.Info("Открыто %s в %s", path, editor)
	return nil
}
