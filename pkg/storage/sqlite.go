package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // driver SQLite en Go puro
)

// InitSQLite abre la base local de resultados y crea el esquema si falta
func InitSQLite(dbPath string) (*sql.DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("error creando directorio de la base: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("error abriendo sqlite: %w", err)
	}
	// un solo escritor evita SQLITE_BUSY entre goroutines
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error haciendo ping a sqlite: %w", err)
	}

	if err := createSchemas(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error creando esquema: %w", err)
	}

	return db, nil
}

func createSchemas(db *sql.DB) error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS game_results (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			player_name TEXT NOT NULL,
			outcome TEXT NOT NULL,
			prize INTEGER NOT NULL,
			question_reached INTEGER NOT NULL,
			correct_count INTEGER NOT NULL,
			wrong_count INTEGER NOT NULL,
			lifelines_used INTEGER NOT NULL DEFAULT 0,
			finished_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_game_results_player ON game_results(player_name);`,
		`CREATE INDEX IF NOT EXISTS idx_game_results_prize ON game_results(prize DESC);`,
	}

	for _, query := range schemas {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}
