package xos

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteFileReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.json")

	require.NoError(t, WriteFile(path, []byte(`{"a":1}`), 0644))
	require.NoError(t, WriteFile(path, []byte(`{"b":2}`), 0644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, `{"b":2}`, string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
