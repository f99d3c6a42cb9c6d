package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oderrors "github.com/wsciaroni/opsdeck-cli/internal/errors"
)

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()

	_, ok := s.Get(LastOrgID)
	assert.False(t, ok)

	require.NoError(t, s.Set(LastOrgID, "org-b"))
	v, ok := s.Get(LastOrgID)
	assert.True(t, ok)
	assert.Equal(t, "org-b", v)

	require.NoError(t, s.Delete(LastOrgID))
	require.NoError(t, s.Delete("missing"))
	_, ok = s.Get(LastOrgID)
	assert.False(t, ok)
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.yaml")

	s, err := OpenFileStore(path)
	require.NoError(t, err)

	_, ok := s.Get(LastOrgID)
	assert.False(t, ok)
	assert.Equal(t, path, s.Path())
}

func TestFileStorePersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")

	s, err := OpenFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(LastOrgID, "org-42"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	reopened, err := OpenFileStore(path)
	require.NoError(t, err)
	v, ok := reopened.Get(LastOrgID)
	assert.True(t, ok)
	assert.Equal(t, "org-42", v)

	require.NoError(t, reopened.Delete(LastOrgID))
	again, err := OpenFileStore(path)
	require.NoError(t, err)
	_, ok = again.Get(LastOrgID)
	assert.False(t, ok)
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	require.NoError(t, os.WriteFile(path, []byte("last_org_id: [unclosed"), 0600))

	_, err := OpenFileStore(path)
	require.Error(t, err)
	assert.True(t, oderrors.HasCode(err, oderrors.ErrCodeFileUnmarshal))
}

func TestFileStoreEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0600))

	s, err := OpenFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("k", "v"))
}
