package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// backupTimestampReplacer normalizes the non-filename-safe characters of an
// RFC3339 timestamp (colons, periods) to hyphens.
var backupTimestampReplacer = strings.NewReplacer(":", "-", ".", "-")

// snapshotLocked copies the current backing file verbatim into the backup
// directory under a timestamp-derived name. A missing backing file is a
// no-op (nothing to snapshot). Callers hold the record-set lock.
//
// Snapshots accumulate without bound; nothing in the running system ever
// reads or deletes them. They exist purely for external disaster recovery.
func (s *Store) snapshotLocked() error {
	source, openErr := os.Open(s.dataFile)
	if openErr != nil {
		if os.IsNotExist(openErr) {
			return nil
		}

		return fmt.Errorf("open backing file: %w", openErr)
	}
	defer source.Close()

	mkdirErr := os.MkdirAll(s.backupDir, dirPerms)
	if mkdirErr != nil {
		return fmt.Errorf("create backup dir: %w", mkdirErr)
	}

	backupPath := filepath.Join(s.backupDir, s.backupName())

	dest, createErr := os.OpenFile(backupPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerms)
	if createErr != nil {
		return fmt.Errorf("create backup file: %w", createErr)
	}

	_, copyErr := io.Copy(dest, source)
	if copyErr != nil {
		_ = dest.Close()
		_ = os.Remove(backupPath)

		return fmt.Errorf("copy backing file: %w", copyErr)
	}

	closeErr := dest.Close()
	if closeErr != nil {
		return fmt.Errorf("close backup file: %w", closeErr)
	}

	return nil
}

// backupName derives the snapshot file name from the write time, e.g.
// students-2025-01-02T03-04-05-000000000Z.json.
func (s *Store) backupName() string {
	timestamp := s.now().UTC().Format("2006-01-02T15:04:05.000000000Z07:00")

	return "students-" + backupTimestampReplacer.Replace(timestamp) + ".json"
}
