package portal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileTokenStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token")
	s := &FileTokenStore{Path: path}

	token, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, s.Save("abc.def.ghi"))
	token, err = s.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, s.Clear())
	require.NoError(t, s.Clear())
	token, err = s.Load()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestMemoryTokenStore(t *testing.T) {
	s := &MemoryTokenStore{}
	require.NoError(t, s.Save("t"))
	token, _ := s.Load()
	assert.Equal(t, "t", token)
	require.NoError(t, s.Clear())
	token, _ = s.Load()
	assert.Empty(t, token)
}
