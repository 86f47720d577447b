// Package storage opens the workspace database shared by the session,
// cache and audit stores.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DBFile is the database file name inside the base directory.
const DBFile = "barlyq.db"

// SchemaVersion is stamped into PRAGMA user_version of new workspaces.
const SchemaVersion = 1

// ErrNewerSchema means the workspace was written by a newer barlyq.
var ErrNewerSchema = errors.New("workspace database was created by a newer version")

// OpenDB opens (or creates) the SQLite database under baseDir. The file holds
// refresh tokens, so it is kept readable by the owner only.
func OpenDB(baseDir string) (*sql.DB, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create base dir: %w", err)
	}

	dbPath := filepath.Join(baseDir, DBFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := os.Chmod(dbPath, 0600); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("restrict database file: %w", err)
	}
	if err := stampVersion(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Version reads the schema version of an open workspace.
func Version(db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRow(`PRAGMA user_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

func stampVersion(db *sql.DB) error {
	v, err := Version(db)
	if err != nil {
		return err
	}
	switch {
	case v > SchemaVersion:
		return fmt.Errorf("%w (schema %d, supported %d)", ErrNewerSchema, v, SchemaVersion)
	case v < SchemaVersion:
		if _, err := db.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, SchemaVersion)); err != nil {
			return fmt.Errorf("stamp schema version: %w", err)
		}
	}
	return nil
}
