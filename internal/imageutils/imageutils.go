package imageutils

import (
	"fmt"
	"image"
	"image/draw"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
)

// Open загружает изображение с диска.
// Ошибка содержит путь, errors.Is(err, fs.ErrNotExist) работает для отсутствующих файлов.
func Open(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load image %s: %w", path, err)
	}
	return img, nil
}

// OpenGray загружает изображение и переводит его в оттенки серого
func OpenGray(path string) (*image.Gray, error) {
	img, err := Open(path)
	if err != nil {
		return nil, err
	}
	return ToGray(img), nil
}

// ToGray конвертирует изображение в *image.Gray с началом координат в (0,0)
func ToGray(img image.Image) *image.Gray {
	b := img.Bounds()
	if g, ok := img.(*image.Gray); ok && b.Min == (image.Point{}) {
		return g
	}
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

// Size читает размеры изображения из заголовка без полного декодирования
func Size(path string) (image.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return image.Point{}, fmt.Errorf("failed to open image %s: %w", path, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return image.Point{}, fmt.Errorf("failed to read image header %s: %w", path, err)
	}
	return image.Point{X: cfg.Width, Y: cfg.Height}, nil
}

// Save сохраняет изображение, создавая директорию при необходимости.
// Формат определяется по расширению файла.
func Save(img image.Image, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save image %s: %w", path, err)
	}
	return nil
}

// IsPNG проверяет расширение файла
func IsPNG(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".png")
}

// ListImages возвращает отсортированные имена PNG-файлов в директории
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !IsPNG(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// ListFiles возвращает отсортированные имена всех файлов в директории
func ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
