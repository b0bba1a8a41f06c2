package database

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Backup copies the database file to dest. SQLite keeps the file consistent
// for readers, so a plain copy is sufficient for this workload.
func (db *DB) Backup(dest string) error {
	if db.path == "" {
		return fmt.Errorf("backup: database path unknown")
	}

	source, err := os.Open(db.path)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer source.Close()

	destination, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	defer destination.Close()

	if _, err := io.Copy(destination, source); err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	return nil
}

// CleanupBackups removes backups in dir older than retention. Returns the
// number of files deleted.
func (db *DB) CleanupBackups(dir string, retention time.Duration) (int, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-retention)
	deleted := 0
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		info, err := file.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(dir, file.Name())); err == nil {
				deleted++
			}
		}
	}
	return deleted, nil
}
