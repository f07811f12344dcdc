package query

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const (
	TableDatabaseVersion = "database_version"
	DatabaseFile         = "sessions.db"
	CurrentDbVersion     = 1
)

func (db *Database) GetDbVersion() (int, error) {
	var dbVersion int
	query := "SELECT db_version FROM database_version LIMIT 1"
	err := db.Get(&dbVersion, query)
	if err != nil {
		return 0, fmt.Errorf("GetDbVersion: %w", err)
	}
	return dbVersion, nil
}

func (db *Database) TableExists(tableName string) (bool, error) {
	query := `
		SELECT count(name) 
		FROM sqlite_master 
		WHERE type='table' AND name=?
	`

	var count int
	err := db.QueryRow(query, tableName).Scan(&count)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// InitDatabase ouvre (ou crée) la base dans le dossier de données et la met
// à jour vers la dernière version du schéma.
func InitDatabase(dataDir string) (*Database, error) {
	saveFolder := filepath.Join(dataDir, "data")
	if err := os.MkdirAll(saveFolder, 0o755); err != nil {
		return nil, fmt.Errorf("InitDatabase: %w", err)
	}
	return OpenDatabase(filepath.Join(saveFolder, DatabaseFile))
}

func OpenDatabase(saveFile string) (*Database, error) {
	dbTemp, err := sqlx.Open("sqlite", saveFile+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("OpenDatabase: %w", err)
	}
	// sqlite n'aime pas les écritures concurrentes
	dbTemp.SetMaxOpenConns(1)

	db := NewDatabase(dbTemp)

	exist, err := db.TableExists(TableDatabaseVersion)
	if err != nil {
		dbTemp.Close()
		return nil, fmt.Errorf("OpenDatabase: %w", err)
	}
	if !exist {
		if err := db.createDb(); err != nil {
			dbTemp.Close()
			return nil, err
		}
	}
	if err := db.updateDb(); err != nil {
		dbTemp.Close()
		return nil, err
	}
	return db, nil
}

func (db *Database) createDb() error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("createDb: %w", err)
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			start_time DATETIME NOT NULL,
			end_time DATETIME NOT NULL,
			duration INTEGER NOT NULL,
			date TEXT NOT NULL
		)`,
		// Index pour les recherches par date
		`CREATE INDEX IF NOT EXISTS idx_sessions_date ON sessions(date)`,
		`CREATE TABLE IF NOT EXISTS database_version (
			db_version INTEGER default 0)`,
		`INSERT INTO database_version VALUES(0)`,
	}
	for _, q := range stmts {
		if _, err := tx.Exec(q); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("createDb: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("createDb: %w", err)
	}
	return nil
}

func (db *Database) updateDb() error {
	dbVersion, err := db.GetDbVersion()
	if err != nil {
		return fmt.Errorf("updateDb: %w", err)
	}
	if dbVersion >= CurrentDbVersion {
		return nil
	}

	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("updateDb: %w", err)
	}

	if dbVersion < 1 {
		stmts := []string{
			`CREATE TABLE IF NOT EXISTS watched_apps (
				name TEXT PRIMARY KEY
			)`,
			`CREATE TABLE IF NOT EXISTS ignored_apps (
				name TEXT PRIMARY KEY
			)`,
			`UPDATE database_version SET db_version=1`,
		}
		for _, q := range stmts {
			if _, err := tx.Exec(q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("updateDb version 1: %w", err)
			}
		}
		log.Info().Msg("db version up to 1")
	}

	err = tx.Commit()
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("updateDb: error at commit rollback: %w", err)
	}
	return nil
}
