// Package progress показывает прогресс пакетной обработки файлов.
package progress

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// Reporter получает события о каждом обработанном файле
type Reporter interface {
	Describe(text string)
	Add(n int)
	Finish()
}

// Bar: Reporter поверх progressbar
type Bar struct {
	bar *progressbar.ProgressBar
}

// NewBar создает полосу прогресса на total шагов, выводимую в w (обычно stderr)
func NewBar(w io.Writer, total int, title string) *Bar {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(title),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionOnCompletion(func() {
			_, _ = io.WriteString(w, "\n")
		}),
	)
	return &Bar{bar: bar}
}

func (b *Bar) Describe(text string) {
	b.bar.Describe(text)
}

func (b *Bar) Add(n int) {
	_ = b.bar.Add(n)
}

func (b *Bar) Finish() {
	_ = b.bar.Finish()
}

// Nop ничего не выводит
type Nop struct{}

func (Nop) Describe(string) {}
func (Nop) Add(int)         {}
func (Nop) Finish()         {}
