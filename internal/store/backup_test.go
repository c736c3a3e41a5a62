package store_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentdir/internal/logging"
	"studentdir/internal/store"
	"studentdir/internal/student"
)

func listBackups(t *testing.T, backupDir string) []string {
	t.Helper()

	entries, err := os.ReadDir(backupDir)
	if os.IsNotExist(err) {
		return nil
	}

	require.NoError(t, err)

	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}

	return names
}

// steppingClock returns a clock advancing one second per call, so every
// snapshot gets a distinct name.
func steppingClock(start time.Time) func() time.Time {
	calls := 0

	return func() time.Time {
		calls++

		return start.Add(time.Duration(calls) * time.Second)
	}
}

func TestSnapshot_NoopWhenNoBackingFile(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	backupDir := filepath.Join(tmpDir, "backup")
	st := store.New(filepath.Join(tmpDir, "students.json"), backupDir, logging.Nop{})

	// First write: nothing to snapshot yet.
	require.NoError(t, st.Replace([]student.Student{}))
	assert.Empty(t, listBackups(t, backupDir))
}

func TestSnapshot_OnePerMutatingWrite(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	backupDir := filepath.Join(tmpDir, "backup")
	st := store.New(filepath.Join(tmpDir, "students.json"), backupDir, logging.Nop{})
	st.SetNowForTest(steppingClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)))

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, st.Replace([]student.Student{student.New("1", "Alice", 20, "Physics", now)}))
	assert.Empty(t, listBackups(t, backupDir), "first write has nothing to snapshot")

	require.NoError(t, st.Replace([]student.Student{student.New("1", "Alicia", 21, "Physics", now)}))
	assert.Len(t, listBackups(t, backupDir), 1)

	require.NoError(t, st.Replace([]student.Student{}))
	assert.Len(t, listBackups(t, backupDir), 2)
}

func TestSnapshot_NameEmbedsNormalizedTimestamp(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	backupDir := filepath.Join(tmpDir, "backup")
	st := store.New(filepath.Join(tmpDir, "students.json"), backupDir, logging.Nop{})
	st.SetNowForTest(func() time.Time {
		return time.Date(2025, 3, 1, 12, 30, 45, 123456789, time.UTC)
	})

	require.NoError(t, st.Replace([]student.Student{}))
	require.NoError(t, st.Replace([]student.Student{}))

	backups := listBackups(t, backupDir)
	require.Len(t, backups, 1)

	// Colons and periods of the timestamp are normalized to hyphens; the
	// file extension's period is untouched.
	assert.Equal(t, "students-2025-03-01T12-30-45-123456789Z.json", backups[0])
}

func TestSnapshot_IsVerbatimCopyOfPriorState(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	backupDir := filepath.Join(tmpDir, "backup")
	dataFile := filepath.Join(tmpDir, "students.json")
	st := store.New(dataFile, backupDir, logging.Nop{})

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, st.Replace([]student.Student{student.New("1", "Alice", 20, "Physics", now)}))

	before, readErr := os.ReadFile(dataFile)
	require.NoError(t, readErr)

	require.NoError(t, st.Replace([]student.Student{}))

	backups := listBackups(t, backupDir)
	require.Len(t, backups, 1)

	snapshot, snapErr := os.ReadFile(filepath.Join(backupDir, backups[0]))
	require.NoError(t, snapErr)
	assert.Equal(t, before, snapshot, "snapshot must be the file as it existed before the write")
}

func TestSnapshot_FailureDoesNotAbortWrite(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()

	// A regular file where the backup directory should be makes every
	// snapshot fail.
	backupDir := filepath.Join(tmpDir, "backup")
	require.NoError(t, os.WriteFile(backupDir, []byte("in the way"), 0o600))

	st := store.New(filepath.Join(tmpDir, "students.json"), backupDir, logging.Nop{})

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, st.Replace([]student.Student{student.New("1", "Alice", 20, "Physics", now)}))

	// Second write needs a snapshot, which fails; the write must land
	// anyway.
	require.NoError(t, st.Replace([]student.Student{student.New("1", "Alicia", 20, "Physics", now)}))

	got, err := st.Load()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Alicia", got[0].Name)
}
