package main

import (
	"embed"
	"errors"
	"html/template"
	"image/color"
	"image/png"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/bytedance/sonic"

	"mapcrop/internal/config"
	"mapcrop/internal/crop"
	"mapcrop/internal/database"
	"mapcrop/internal/imageutils"
	"mapcrop/internal/logger"
	"mapcrop/internal/store"
)

//go:embed templates/*.html
var templatesFS embed.FS

const resultsPerPage = 10

var (
	originColor = color.NRGBA{R: 255, G: 40, B: 40, A: 255}
	presetColor = color.NRGBA{R: 40, G: 220, B: 255, A: 255}
)

// ImageRow: строка таблицы на главной странице
type ImageRow struct {
	Name      string
	Offset    string
	HasOffset bool
	Width     int
	Height    int
}

// PresetOption: пресет в выпадающем списке
type PresetOption struct {
	Index int // с 1
	Title string
	Rect  string
}

type PageData struct {
	Images      []ImageRow
	Presets     []PresetOption
	Preset      int
	Source      string
	RunID       int64
	CurrentPage int
	TotalPages  int
	TotalCount  int
	HasPrev     bool
	HasNext     bool
	PrevPage    int
	NextPage    int
	Error       string
}

type server struct {
	cfg    *config.Config
	logger *logger.LoggerManager
	db     *database.DatabaseManager
	tmpl   *template.Template
}

func newServer(cfg *config.Config, log *logger.LoggerManager) (*server, error) {
	tmpl, err := template.New("layout").Funcs(template.FuncMap{
		"sequence": func(current, total int) []int {
			var pages []int
			start := max(current-2, 1)
			end := min(current+2, total)
			for i := start; i <= end; i++ {
				pages = append(pages, i)
			}
			return pages
		},
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &server{cfg: cfg, logger: log.With("web_viewer"), tmpl: tmpl}, nil
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /image/{name}", s.handleImage)
	mux.HandleFunc("GET /offsets.json", s.handleOffsets)
	return mux
}

// loadOffsets берет смещения из файла или, при source=db, из последнего прогона в базе
func (s *server) loadOffsets(r *http.Request) (store.Offsets, string, int64, error) {
	if r.URL.Query().Get("source") == "db" {
		if s.db == nil {
			return nil, "db", 0, errors.New("база данных отключена (save_to_db = 0)")
		}
		offsets, runID, err := s.db.LatestOffsets()
		return offsets, "db", runID, err
	}
	offsets, err := store.LoadOffsets(s.cfg.Paths.OffsetsFile)
	return offsets, "file", 0, err
}

func (s *server) loadPresets() []store.Preset {
	presets, err := store.LoadPresets(s.cfg.Paths.PresetsFile)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.logger.LogError(err, "Ошибка чтения пресетов")
	}
	return presets
}

func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page := 1
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	presetIdx, _ := strconv.Atoi(r.URL.Query().Get("preset"))

	data := PageData{Preset: presetIdx}

	offsets, source, runID, err := s.loadOffsets(r)
	data.Source, data.RunID = source, runID
	if err != nil {
		data.Error = err.Error()
		offsets = store.Offsets{}
	}

	for i, p := range s.loadPresets() {
		data.Presets = append(data.Presets, PresetOption{Index: i + 1, Title: p.String(), Rect: p.Rect.String()})
	}

	names, err := imageutils.ListImages(s.cfg.Paths.MapsDir)
	if err != nil {
		http.Error(w, "Maps directory error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	// Вычисляем общее количество страниц
	data.TotalCount = len(names)
	data.TotalPages = max((len(names)+resultsPerPage-1)/resultsPerPage, 1)
	page = min(page, data.TotalPages)
	data.CurrentPage = page
	data.HasPrev, data.HasNext = page > 1, page < data.TotalPages
	data.PrevPage, data.NextPage = page-1, page+1

	start := (page - 1) * resultsPerPage
	end := min(start+resultsPerPage, len(names))
	for _, name := range names[start:end] {
		row := ImageRow{Name: name}
		if off, ok := offsets[name]; ok {
			row.Offset, row.HasOffset = off.String(), true
		}
		if size, err := imageutils.Size(filepath.Join(s.cfg.Paths.MapsDir, name)); err == nil {
			row.Width, row.Height = size.X, size.Y
		}
		data.Images = append(data.Images, row)
	}

	if err := s.tmpl.ExecuteTemplate(w, "layout.html", data); err != nil {
		s.logger.LogError(err, "Template execution error")
		http.Error(w, "Template execution error: "+err.Error(), http.StatusInternalServerError)
	}
}

// handleImage отдает изображение с отмеченным началом координат
// и, если задан preset, с прямоугольником пресета в пикселях этого изображения
func (s *server) handleImage(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name != filepath.Base(name) || !imageutils.IsPNG(name) {
		http.Error(w, "invalid image name", http.StatusBadRequest)
		return
	}

	img, err := imageutils.Open(filepath.Join(s.cfg.Paths.MapsDir, name))
	if err != nil {
		http.Error(w, "image not found", http.StatusNotFound)
		return
	}
	canvas := imageutils.Crop(img, img.Bounds())

	offsets, _, _, err := s.loadOffsets(r)
	if err != nil {
		http.Error(w, "offsets error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	offset, ok := offsets[name]
	if ok {
		imageutils.DrawCross(canvas, offset.Image(), 12, 3, originColor)
	}

	if idx, err := strconv.Atoi(r.URL.Query().Get("preset")); err == nil && idx > 0 {
		presets := s.loadPresets()
		if idx > len(presets) {
			http.Error(w, "preset not found", http.StatusNotFound)
			return
		}
		if !ok {
			http.Error(w, "image has no origin offset", http.StatusConflict)
			return
		}
		rect := crop.PresetPlan(presets[idx-1], s.cfg.Paths.UnderlaysDir).RectFor(offset)
		imageutils.DrawRectOutline(canvas, rect.Image(), 2, presetColor)
	}

	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, canvas); err != nil {
		s.logger.LogError(err, "Ошибка кодирования изображения")
	}
}

func (s *server) handleOffsets(w http.ResponseWriter, r *http.Request) {
	offsets, _, _, err := s.loadOffsets(r)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, database.ErrNoRuns) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	data, err := sonic.ConfigStd.Marshal(offsets)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}
