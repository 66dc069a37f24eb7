package imageutils

import (
	"fmt"
	"image/color"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

var namedColors = map[string]string{
	"black":     "#000000",
	"white":     "#ffffff",
	"gray":      "#808080",
	"lightgray": "#d3d3d3",
	"red":       "#ff0000",
	"green":     "#00ff00",
	"blue":      "#0000ff",
}

// ParseColor разбирает цвет из конфига: имя (lightgray) или hex (#d3d3d3)
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if hex, ok := namedColors[s]; ok {
		s = hex
	}

	c, err := colorful.Hex(s)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}, nil
}
