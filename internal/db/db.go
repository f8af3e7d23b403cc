// Package db owns SQLite persistence for calibration records and session
// summaries, plus the admin/debug surface attached to the database.
package db

import (
	"database/sql"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/tailscale/tailsql/server/tailsql"
	_ "modernc.org/sqlite"
	"tailscale.com/tsweb"
)

// DB wraps the SQLite handle with the application schema.
type DB struct {
	*sql.DB
	path string
}

// NewDB opens (creating if needed) the database at path and ensures the
// base schema exists. Migrations layer on top of this via MigrateUp.
func NewDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = sqlDB.Exec(`
		CREATE TABLE IF NOT EXISTS calibrations (
			scope             TEXT PRIMARY KEY,
			user_id           TEXT,
			payload           TEXT NOT NULL,
			updated           TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS sessions (
			session_id        TEXT PRIMARY KEY,
			user_id           TEXT,
			kind              TEXT,
			exercise          TEXT,
			level             BIGINT,
			frames            BIGINT,
			messages_shown    BIGINT,
			started           TIMESTAMP,
			ended             TIMESTAMP
		);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{DB: sqlDB, path: path}, nil
}

// Path returns the on-disk database path.
func (db *DB) Path() string { return db.path }

// AttachAdminRoutes mounts the debug surface on mux: a tailsql browser
// over the live database and an on-demand backup download.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		log.Fatalf("failed to create tailsql server: %v", err)
	}
	tsql.SetDB("sqlite://"+db.path, db.DB, &tailsql.DBOptions{
		Label: "Coach DB",
	})
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("backup", "Create and download a backup of the database now", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backupPath := fmt.Sprintf("backup-%d.db", time.Now().Unix())
		if _, err := db.DB.Exec("VACUUM INTO ?", backupPath); err != nil {
			http.Error(w, fmt.Sprintf("Failed to create backup: %v", err), http.StatusInternalServerError)
			return
		}
		backupFile, err := os.Open(backupPath)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to open backup file: %v", err), http.StatusInternalServerError)
			return
		}
		defer func() {
			backupFile.Close()
			if err := os.Remove(backupPath); err != nil {
				log.Printf("Failed to remove backup file: %v", err)
			}
		}()

		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", backupPath))
		w.Header().Set("Content-Type", "application/octet-stream")
		if _, err := io.Copy(w, backupFile); err != nil {
			log.Printf("Failed to send backup file: %v", err)
		}
	}))
}
