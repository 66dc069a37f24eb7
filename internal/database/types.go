package database

import (
	"time"

	"mapcrop/internal/geom"
)

// ImageOffset: смещение одного изображения в рамках прогона выравнивания
type ImageOffset struct {
	Name    string
	Offset  geom.Point
	Score   float64
	Skipped bool // смещение взято у предыдущего изображения
}

// AlignmentRun: один прогон выравнивания
type AlignmentRun struct {
	ID         int64
	Origin     geom.Point
	FirstImage string
	Matcher    string
	CreatedAt  time.Time
	Images     []ImageOffset
}
