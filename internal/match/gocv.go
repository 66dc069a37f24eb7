//go:build gocv

package match

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// OpenCV обозначает бэкенд на gocv, доступен при сборке с тегом gocv
const OpenCV = "gocv"

func init() {
	Register(OpenCV, func() Matcher { return GoCV{} })
}

// GoCV ищет шаблон через cv::matchTemplate с TM_CCOEFF_NORMED
type GoCV struct{}

// Match реализует Matcher
func (GoCV) Match(full, template *image.Gray) (Match, error) {
	if err := checkSizes(full, template); err != nil {
		return Match{}, err
	}

	img, err := gocv.ImageGrayToMatGray(full)
	if err != nil {
		return Match{}, fmt.Errorf("failed to convert image to mat: %w", err)
	}
	defer img.Close()

	tpl, err := gocv.ImageGrayToMatGray(template)
	if err != nil {
		return Match{}, fmt.Errorf("failed to convert template to mat: %w", err)
	}
	defer tpl.Close()

	result := gocv.NewMat()
	defer result.Close()
	mask := gocv.NewMat()
	defer mask.Close()

	gocv.MatchTemplate(img, tpl, &result, gocv.TmCcoeffNormed, mask)
	if result.Empty() {
		return Match{}, fmt.Errorf("matchTemplate returned empty result")
	}

	_, maxVal, _, maxLoc := gocv.MinMaxLoc(result)
	return newMatch(maxLoc, template, float64(maxVal)), nil
}
