package credentials

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"example.com/runlog/internal/domain"
)

// Store persists credential bundles.
type Store interface {
	Load() (Bundle, error)
	Save(Bundle) error
}

// FileStore keeps the bundle in a single JSON file.
type FileStore struct {
	Path string
}

// NewFileStore returns a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load reads and parses the credential file.
func (s *FileStore) Load() (Bundle, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: read credentials: %v", domain.ErrConfig, err)
	}
	b, err := DecodeBundle(data)
	if err != nil {
		return nil, fmt.Errorf("%w: parse credentials %s: %v", domain.ErrConfig, s.Path, err)
	}
	return b, nil
}

// Save rewrites the whole credential file atomically with owner-only permissions.
func (s *FileStore) Save(b Bundle) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.Path), ".credentials-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp credentials file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod credentials: %w", err)
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close credentials: %w", err)
	}
	return os.Rename(tmp.Name(), s.Path)
}
