package db

import (
	"os"
	"path/filepath"
	"strings"
)

// FileStore keeps the slot in a single-record file. Writes go through
// a temp file and rename so a crash never leaves a torn record.
type FileStore struct {
	Path string
}

// NewFileStore returns a store at path, defaulting to a file under the
// user config dir when path is empty.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "extract-client", "current-job")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &FileStore{Path: path}, nil
}

func (s *FileStore) Load() (string, error) {
	data, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return "", ErrNoSavedJob
	}
	if err != nil {
		return "", err
	}
	id := strings.TrimSpace(string(data))
	if id == "" {
		return "", ErrNoSavedJob
	}
	return id, nil
}

func (s *FileStore) Save(id string) error {
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, []byte(id+"\n"), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.Path)
}

func (s *FileStore) Clear() error {
	err := os.Remove(s.Path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
