// Package store читает и пишет JSON-артефакты: смещения начала координат и пресеты обрезки.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bytedance/sonic"

	"mapcrop/internal/geom"
)

// ErrNotFound: файл артефакта отсутствует
var ErrNotFound = errors.New("file not found")

// ErrNoPresets: файл пресетов пуст
var ErrNoPresets = errors.New("no presets defined")

// Offsets: положение логического (0,0) в каждом изображении, по имени файла
type Offsets map[string]geom.Point

// Names возвращает имена файлов в отсортированном порядке
func (o Offsets) Names() []string {
	names := make([]string, 0, len(o))
	for name := range o {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Missing возвращает имена из names, для которых нет смещения
func (o Offsets) Missing(names []string) []string {
	var missing []string
	for _, name := range names {
		if _, ok := o[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Preset: именованный прямоугольник в логических координатах
type Preset struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Rect        geom.Rect `json:"rect"`
	Underlay    string    `json:"underlay,omitempty"`
}

func (p Preset) String() string {
	if p.Description == "" {
		return p.Title
	}
	return fmt.Sprintf("%s: %s", p.Title, p.Description)
}

// LogicalRect переводит прямоугольник из пикселей изображения в логические
// координаты, вычитая смещение этого изображения
func LogicalRect(pixel geom.Rect, offset geom.Point) geom.Rect {
	return geom.Rect{Min: pixel.Min.Sub(offset), Max: pixel.Max.Sub(offset)}
}

// LoadOffsets читает файл смещений
func LoadOffsets(path string) (Offsets, error) {
	var offsets Offsets
	if err := readJSON(path, &offsets); err != nil {
		return nil, err
	}
	if offsets == nil {
		offsets = Offsets{}
	}
	return offsets, nil
}

// SaveOffsets перезаписывает файл смещений целиком
func SaveOffsets(path string, offsets Offsets) error {
	return writeJSON(path, offsets)
}

// LoadPresets читает массив пресетов
func LoadPresets(path string) ([]Preset, error) {
	var presets []Preset
	if err := readJSON(path, &presets); err != nil {
		return nil, err
	}
	return presets, nil
}

// SavePresets перезаписывает файл пресетов
func SavePresets(path string, presets []Preset) error {
	if presets == nil {
		presets = []Preset{}
	}
	return writeJSON(path, presets)
}

// AppendPreset добавляет пресет в конец файла, создавая файл при необходимости
func AppendPreset(path string, preset Preset) error {
	presets, err := LoadPresets(path)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return SavePresets(path, append(presets, preset))
}

// MarshalPreset форматирует пресет так же, как он хранится в файле
func MarshalPreset(p Preset) ([]byte, error) {
	return sonic.ConfigStd.MarshalIndent(p, "", "    ")
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := sonic.ConfigStd.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v interface{}) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
