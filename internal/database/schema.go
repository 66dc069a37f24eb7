package database

import (
	"database/sql"
	"fmt"
)

const createRunsTableSQL = `CREATE TABLE IF NOT EXISTS alignment_runs (
	id INT AUTO_INCREMENT PRIMARY KEY,
	origin_x INT NOT NULL,
	origin_y INT NOT NULL,
	first_image VARCHAR(255) NOT NULL,
	matcher VARCHAR(32) NOT NULL,
	image_count INT NOT NULL DEFAULT 0,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

const createOffsetsTableSQL = `CREATE TABLE IF NOT EXISTS image_offsets (
	id INT AUTO_INCREMENT PRIMARY KEY,
	run_id INT NOT NULL,
	image_name VARCHAR(255) NOT NULL,
	offset_x INT NOT NULL,
	offset_y INT NOT NULL,
	score DOUBLE,
	skipped BOOLEAN DEFAULT FALSE,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (run_id) REFERENCES alignment_runs(id) ON DELETE CASCADE,
	UNIQUE KEY run_image (run_id, image_name)
)`

// EnsureSchema создает таблицы, если их нет
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(createRunsTableSQL); err != nil {
		return fmt.Errorf("ошибка создания таблицы alignment_runs: %w", err)
	}
	if _, err := db.Exec(createOffsetsTableSQL); err != nil {
		return fmt.Errorf("ошибка создания таблицы image_offsets: %w", err)
	}
	return nil
}

// saveImageOffsetsBatch вставляет смещения прогона в рамках транзакции tx
func saveImageOffsetsBatch(tx *sql.Tx, runID int64, images []ImageOffset) error {
	if len(images) == 0 {
		return nil
	}

	insertSQL := `INSERT INTO image_offsets (run_id, image_name, offset_x, offset_y, score, skipped) VALUES (?, ?, ?, ?, ?, ?)`
	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		return fmt.Errorf("ошибка подготовки запроса: %w", err)
	}
	defer stmt.Close()

	for _, img := range images {
		if _, err := stmt.Exec(runID, img.Name, img.Offset.X, img.Offset.Y, img.Score, img.Skipped); err != nil {
			return fmt.Errorf("ошибка вставки смещения %s: %w", img.Name, err)
		}
	}
	return nil
}
