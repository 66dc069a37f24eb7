// Package screenshot сохраняет снимки экрана в директорию карт.
package screenshot

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/kbinani/screenshot"

	"mapcrop/internal/imageutils"
	"mapcrop/internal/logger"
)

// DisplayBounds возвращает границы монитора с номером display
func DisplayBounds(display int) (image.Rectangle, error) {
	n := screenshot.NumActiveDisplays()
	if display < 0 || display >= n {
		return image.Rectangle{}, fmt.Errorf("display %d not found (active displays: %d)", display, n)
	}
	return screenshot.GetDisplayBounds(display), nil
}

// Capturer снимает экран и сохраняет PNG с именем по времени.
// Формат имени должен сортироваться хронологически, иначе
// выравнивание обойдет снимки в неверном порядке.
type Capturer struct {
	Dir        string
	NameFormat string
	Bounds     image.Rectangle
	// TrimBorder обрезает черную рамку вокруг окна игры
	TrimBorder bool

	grab   func(image.Rectangle) (*image.RGBA, error)
	now    func() time.Time
	logger *logger.LoggerManager
}

// NewCapturer создает Capturer для области bounds
func NewCapturer(dir, nameFormat string, bounds image.Rectangle, log *logger.LoggerManager) *Capturer {
	if log == nil {
		log = logger.Nop()
	}
	if nameFormat == "" {
		nameFormat = "2006-01-02_150405"
	}
	return &Capturer{
		Dir:        dir,
		NameFormat: nameFormat,
		Bounds:     bounds,
		grab:       screenshot.CaptureRect,
		now:        time.Now,
		logger:     log.With("capture"),
	}
}

// Capture снимает экран и возвращает путь к сохраненному файлу
func (c *Capturer) Capture() (string, error) {
	shot, err := c.grab(c.Bounds)
	if err != nil {
		return "", fmt.Errorf("failed to capture screenshot: %w", err)
	}

	var img image.Image = shot
	if c.TrimBorder {
		r, err := FindWindow(shot)
		if err != nil {
			c.logger.Warn("Окно игры не найдено, сохраняем весь экран: %v", err)
		} else {
			img = imageutils.Crop(shot, r)
		}
	}

	path, err := c.nextPath()
	if err != nil {
		return "", err
	}
	if err := imageutils.Save(img, path); err != nil {
		return "", err
	}

	c.logger.Info("📸 Скриншот сохранен: %s (%dx%d)", path, img.Bounds().Dx(), img.Bounds().Dy())
	return path, nil
}

// nextPath подбирает свободное имя: снимки в одну секунду получают суффикс _1, _2...
func (c *Capturer) nextPath() (string, error) {
	base := c.now().Format(c.NameFormat)
	path := filepath.Join(c.Dir, base+".png")
	for i := 1; ; i++ {
		_, err := os.Stat(path)
		if os.IsNotExist(err) {
			return path, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check %s: %w", path, err)
		}
		path = filepath.Join(c.Dir, fmt.Sprintf("%s_%d.png", base, i))
	}
}
