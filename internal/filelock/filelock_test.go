package filelock

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomicWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reports", "report.html")

	require.NoError(t, AtomicWrite(path, []byte("<html>v1</html>")))
	require.NoError(t, AtomicWrite(path, []byte("<html>v2</html>")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<html>v2</html>", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".tmp-"), "temp file left behind: %s", e.Name())
	}
}

func TestAcquireRunIsExclusive(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	first, err := AcquireRun(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, RunLockName), first.Path())

	_, err = AcquireRun(dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLocked))

	require.NoError(t, first.Unlock())
	second, err := AcquireRun(dir)
	require.NoError(t, err)
	require.NoError(t, second.Unlock())
}
