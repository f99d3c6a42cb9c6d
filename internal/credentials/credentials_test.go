package credentials

import (
	"net/http/cookiejar"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileRoundTrip(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "credentials.json"))

	creds, err := f.Load("https://ops.example.com")
	require.NoError(t, err)
	assert.Nil(t, creds)

	require.NoError(t, f.Save(Credentials{ServerURL: "https://ops.example.com/", SessionID: "abc.sig"}))

	info, err := os.Stat(f.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	creds, err = f.Load("https://ops.example.com")
	require.NoError(t, err)
	require.NotNil(t, creds)
	assert.Equal(t, "abc.sig", creds.SessionID)
	assert.False(t, creds.SavedAt.IsZero())
}

func TestFileLoadOtherServer(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "credentials.json"))
	require.NoError(t, f.Save(Credentials{ServerURL: "https://a.example.com", SessionID: "x"}))

	creds, err := f.Load("https://b.example.com")
	require.NoError(t, err)
	assert.Nil(t, creds)
}

func TestFileSaveRejectsEmptySession(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "credentials.json"))
	assert.Error(t, f.Save(Credentials{ServerURL: "https://a.example.com"}))
}

func TestFileClear(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "credentials.json"))
	require.NoError(t, f.Clear())

	require.NoError(t, f.Save(Credentials{ServerURL: "https://a.example.com", SessionID: "x"}))
	require.NoError(t, f.Clear())

	_, err := os.Stat(f.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestFileLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := NewFile(path).Load("https://a.example.com")
	assert.Error(t, err)
}

func TestApplyAndFromJar(t *testing.T) {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	_, ok := FromJar(jar, "http://localhost:8080")
	assert.False(t, ok)

	require.NoError(t, Credentials{ServerURL: "http://localhost:8080", SessionID: "s1"}.Apply(jar))

	got, ok := FromJar(jar, "http://localhost:8080")
	require.True(t, ok)
	assert.Equal(t, "s1", got.SessionID)
}
