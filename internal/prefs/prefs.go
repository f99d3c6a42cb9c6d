// Package prefs is the durable client-side key-value store. It survives
// process restarts the way browser local storage survives reloads.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	oderrors "github.com/wsciaroni/opsdeck-cli/internal/errors"
)

// LastOrgID holds the id of the most recently selected organization.
const LastOrgID = "last_org_id"

// Store is a string key-value store.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

// MemoryStore keeps values in memory only.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get returns the value for key.
func (m *MemoryStore) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

// Set stores value under key.
func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Delete removes key. Missing keys are not an error.
func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// FileStore persists values to a YAML file. Every Set rewrites the file.
type FileStore struct {
	mu     sync.RWMutex
	path   string
	values map[string]string
}

// OpenFileStore loads path, treating a missing file as empty.
func OpenFileStore(path string) (*FileStore, error) {
	fs := &FileStore{path: path, values: make(map[string]string)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fs, nil
		}
		return nil, oderrors.Wrap(oderrors.ErrCodeFileReadFailed, fmt.Sprintf("failed to read state file: %s", path), err)
	}

	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &fs.values); err != nil {
			return nil, oderrors.NewFileUnmarshalError(path, "YAML", err)
		}
		if fs.values == nil {
			fs.values = make(map[string]string)
		}
	}

	return fs, nil
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

// Get returns the value for key.
func (f *FileStore) Get(key string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.values[key]
	return v, ok
}

// Set stores value under key and flushes the file.
func (f *FileStore) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	prev, had := f.values[key]
	f.values[key] = value
	if err := f.flush(); err != nil {
		if had {
			f.values[key] = prev
		} else {
			delete(f.values, key)
		}
		return err
	}
	return nil
}

// Delete removes key and flushes the file.
func (f *FileStore) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.values[key]; !ok {
		return nil
	}
	delete(f.values, key)
	return f.flush()
}

// flush writes to a temp file and renames it over the target. Callers hold mu.
func (f *FileStore) flush() error {
	data, err := yaml.Marshal(f.values)
	if err != nil {
		return oderrors.Wrap(oderrors.ErrCodeFileMarshal, "failed to encode state", err)
	}
	return WriteFileAtomic(f.path, data, 0600)
}

// WriteFileAtomic writes data next to path and renames it into place.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return oderrors.Wrap(oderrors.ErrCodeDirectoryFailed, fmt.Sprintf("failed to create directory: %s", dir), err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return oderrors.Wrap(oderrors.ErrCodeFileWriteFailed, fmt.Sprintf("failed to write %s", path), err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return oderrors.Wrap(oderrors.ErrCodeFileWriteFailed, fmt.Sprintf("failed to write %s", path), err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return oderrors.Wrap(oderrors.ErrCodeFileWriteFailed, fmt.Sprintf("failed to write %s", path), err)
	}
	if err := tmp.Close(); err != nil {
		return oderrors.Wrap(oderrors.ErrCodeFileWriteFailed, fmt.Sprintf("failed to write %s", path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return oderrors.Wrap(oderrors.ErrCodeFileWriteFailed, fmt.Sprintf("failed to write %s", path), err)
	}
	return nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*FileStore)(nil)
)
