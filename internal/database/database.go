package database

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"mapcrop/internal/geom"
	"mapcrop/internal/logger"
	"mapcrop/internal/store"
)

// ErrNoRuns: в базе еще нет ни одного прогона
var ErrNoRuns = errors.New("no alignment runs stored")

// Open подключается к MySQL и проверяет соединение
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к MySQL: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("MySQL недоступен: %w", err)
	}
	return db, nil
}

// DatabaseManager сохраняет и читает прогоны выравнивания
type DatabaseManager struct {
	db     *sql.DB
	logger *logger.LoggerManager
}

// NewDatabaseManager создает новый экземпляр DatabaseManager
func NewDatabaseManager(db *sql.DB, loggerManager *logger.LoggerManager) *DatabaseManager {
	if loggerManager == nil {
		loggerManager = logger.Nop()
	}
	return &DatabaseManager{
		db:     db,
		logger: loggerManager.With("database"),
	}
}

// SaveAlignmentRun сохраняет прогон и смещения всех его изображений одной транзакцией,
// возвращает ID прогона. При ошибке в базе не остается ни прогона, ни его смещений.
func (h *DatabaseManager) SaveAlignmentRun(run AlignmentRun) (runID int64, err error) {
	if err := EnsureSchema(h.db); err != nil {
		return 0, err
	}

	tx, err := h.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	insertSQL := `INSERT INTO alignment_runs (origin_x, origin_y, first_image, matcher, image_count) VALUES (?, ?, ?, ?, ?)`
	result, err := tx.Exec(insertSQL, run.Origin.X, run.Origin.Y, run.FirstImage, run.Matcher, len(run.Images))
	if err != nil {
		return 0, fmt.Errorf("ошибка вставки прогона: %w", err)
	}

	runID, err = result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("ошибка получения ID записи: %w", err)
	}

	if err = saveImageOffsetsBatch(tx, runID, run.Images); err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("ошибка подтверждения транзакции: %w", err)
	}

	h.logger.Info("Прогон выравнивания сохранен с ID: %d (%d изображений)", runID, len(run.Images))
	return runID, nil
}

// LatestRunID возвращает ID последнего прогона
func (h *DatabaseManager) LatestRunID() (int64, error) {
	var id int64
	err := h.db.QueryRow(`SELECT id FROM alignment_runs ORDER BY id DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNoRuns
	}
	if err != nil {
		return 0, fmt.Errorf("ошибка чтения прогонов: %w", err)
	}
	return id, nil
}

// RunOffsets возвращает смещения изображений прогона runID
func (h *DatabaseManager) RunOffsets(runID int64) (store.Offsets, error) {
	rows, err := h.db.Query(`SELECT image_name, offset_x, offset_y FROM image_offsets WHERE run_id = ? ORDER BY image_name`, runID)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения смещений прогона %d: %w", runID, err)
	}
	defer rows.Close()

	offsets := store.Offsets{}
	for rows.Next() {
		var (
			name string
			x, y int
		)
		if err := rows.Scan(&name, &x, &y); err != nil {
			return nil, fmt.Errorf("ошибка разбора строки смещения: %w", err)
		}
		offsets[name] = geom.Pt(x, y)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения смещений прогона %d: %w", runID, err)
	}
	return offsets, nil
}

// LatestOffsets возвращает смещения последнего прогона
func (h *DatabaseManager) LatestOffsets() (store.Offsets, int64, error) {
	runID, err := h.LatestRunID()
	if err != nil {
		return nil, 0, err
	}
	offsets, err := h.RunOffsets(runID)
	if err != nil {
		return nil, runID, err
	}
	return offsets, runID, nil
}
