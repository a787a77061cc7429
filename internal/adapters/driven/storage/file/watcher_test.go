package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitChanged(t *testing.T, w *Watcher) bool {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if w.Changed() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func TestWatcher_FlagsExternalWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0600))

	w, err := NewWatcher()
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Watch(path))
	assert.False(t, w.Changed())

	require.NoError(t, os.WriteFile(path, []byte(`{"header":{}}`), 0600))
	assert.True(t, waitChanged(t, w))
}

func TestWatcher_SeesReplaceByRename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0600))

	w, err := NewWatcher()
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Watch(path))

	tmp := filepath.Join(dir, "doc.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte(`{"claims":[]}`), 0600))
	require.NoError(t, os.Rename(tmp, path))
	assert.True(t, waitChanged(t, w))
}

func TestWatcher_ResetClearsFlag(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0600))

	w, err := NewWatcher()
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Watch(path))

	require.NoError(t, os.WriteFile(path, []byte("{} "), 0600))
	require.True(t, waitChanged(t, w))

	w.Reset()
	assert.False(t, w.Changed())
}

func TestWatcher_OwnWriteDiscountedAfterReset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0600))

	w, err := NewWatcher()
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Watch(path))

	// The session's own commit cycle: replace-by-rename, then Reset. The
	// rename's events may land after the Reset; they must not count.
	tmp := filepath.Join(dir, "doc.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte(`{"claims":[]}`), 0600))
	require.NoError(t, os.Rename(tmp, path))
	w.Reset()

	time.Sleep(300 * time.Millisecond)
	assert.False(t, w.Changed())

	// A genuinely external write afterwards is still flagged.
	require.NoError(t, os.WriteFile(path, []byte(`{"header":{}}`), 0600))
	assert.True(t, waitChanged(t, w))
}

func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0600))

	w, err := NewWatcher()
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Watch(path))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0600))
	time.Sleep(100 * time.Millisecond)
	assert.False(t, w.Changed())
}
