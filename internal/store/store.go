// Package store owns the on-disk representation of the record set: the
// canonical students.json file, the backup snapshots taken before every
// mutating write, and the read-only query projections.
//
// The full record set is the unit of persistence. Load parses the whole
// file; Replace rewrites it atomically (temp file + rename), so the backing
// file is never observed in a partially written state. Update runs a whole
// load -> edit -> replace cycle under an exclusive file lock, which is what
// prevents concurrent mutations from losing each other's writes.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"

	"studentdir/internal/logging"
	"studentdir/internal/student"
)

const (
	dirPerms  = 0o750
	filePerms = 0o600
)

// Store owns the backing file and its backup directory.
type Store struct {
	dataFile  string
	backupDir string
	log       logging.Logger
	now       func() time.Time
}

// New creates a Store for the given backing file and backup directory.
// Directories are created lazily on first access. log must be non-nil.
func New(dataFile, backupDir string, log logging.Logger) *Store {
	if log == nil {
		panic("log is nil")
	}

	return &Store{
		dataFile:  dataFile,
		backupDir: backupDir,
		log:       log,
		now:       time.Now,
	}
}

// DataFile returns the path of the backing file.
func (s *Store) DataFile() string {
	return s.dataFile
}

// seedRecords returns the fixed bootstrap record set written on first run.
// The two records are a product decision, not configurable.
func seedRecords(now time.Time) []student.Student {
	return []student.Student{
		student.New("1", "Vasan", 22, "Computer Science", now),
		student.New("2", "Aditi", 21, "Mathematics", now),
	}
}

// Load reads the current record set under the record-set lock.
//
// A missing backing file is seeded with the fixed default records, persisted,
// and returned; this happens at most once per deployment. A file that exists
// but cannot be parsed yields a storage-kind error.
func (s *Store) Load() ([]student.Student, error) {
	var records []student.Student

	err := withLock(s.dataFile, func() error {
		var loadErr error

		records, loadErr = s.loadLocked()

		return loadErr
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

// Replace persists the full record set under the record-set lock.
//
// A backup snapshot is taken first; snapshot failure is logged as a warning
// and does not abort the write. The write itself is atomic and fatal on
// failure.
func (s *Store) Replace(records []student.Student) error {
	return withLock(s.dataFile, func() error {
		return s.replaceLocked(records)
	})
}

// Update runs a full read-modify-write cycle under the record-set lock:
// load, apply fn in memory, persist the returned set. If fn returns an
// error nothing is written and the error is returned unchanged.
func (s *Store) Update(fn func(records []student.Student) ([]student.Student, error)) error {
	return withLock(s.dataFile, func() error {
		records, loadErr := s.loadLocked()
		if loadErr != nil {
			return loadErr
		}

		edited, fnErr := fn(records)
		if fnErr != nil {
			return fnErr
		}

		return s.replaceLocked(edited)
	})
}

// loadLocked reads and parses the backing file. Callers hold the lock.
func (s *Store) loadLocked() ([]student.Student, error) {
	data, readErr := os.ReadFile(s.dataFile)
	if readErr != nil {
		if errors.Is(readErr, os.ErrNotExist) {
			return s.seedLocked()
		}

		return nil, student.NewStorage("read record set", readErr)
	}

	var records []student.Student

	unmarshalErr := json.Unmarshal(data, &records)
	if unmarshalErr != nil {
		return nil, student.NewStorage("parse record set", fmt.Errorf("parse %s: %w", s.dataFile, unmarshalErr))
	}

	return records, nil
}

// seedLocked writes the fixed default record set and returns it.
func (s *Store) seedLocked() ([]student.Student, error) {
	records := seedRecords(s.now().UTC())

	writeErr := s.replaceLocked(records)
	if writeErr != nil {
		return nil, writeErr
	}

	s.log.Info("seeded default record set", "file", s.dataFile, "records", len(records))

	return records, nil
}

// replaceLocked backs up the current file, then atomically overwrites it
// with the serialized record set. Callers hold the lock.
func (s *Store) replaceLocked(records []student.Student) error {
	snapshotErr := s.snapshotLocked()
	if snapshotErr != nil {
		// Losing a historical backup is recoverable; losing the ability
		// to persist new data is not. Warn and continue.
		s.log.Warn("backup snapshot failed", "file", s.dataFile, "error", snapshotErr)
	}

	if records == nil {
		records = []student.Student{}
	}

	data, marshalErr := json.MarshalIndent(records, "", "  ")
	if marshalErr != nil {
		return student.NewStorage("serialize record set", marshalErr)
	}

	data = append(data, '\n')

	mkdirErr := os.MkdirAll(filepath.Dir(s.dataFile), dirPerms)
	if mkdirErr != nil {
		return student.NewStorage("create data directory", mkdirErr)
	}

	writeErr := atomic.WriteFile(s.dataFile, bytes.NewReader(data))
	if writeErr != nil {
		return student.NewStorage("write record set", writeErr)
	}

	return nil
}
