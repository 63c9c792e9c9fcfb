package tokenstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore persists one JSON token file per service under a cache
// directory, so tokens survive between runs on the same host.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-backed token store rooted at dir, creating
// the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("tokenstore: failed to create cache dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// path returns the cache file for a service, e.g. "egnyte_token.json".
func (s *FileStore) path(service string) string {
	return filepath.Join(s.dir, service+"_token.json")
}

// Load implements Store.
func (s *FileStore) Load(_ context.Context, service string) (Token, error) {
	data, err := os.ReadFile(s.path(service))
	if err != nil {
		if os.IsNotExist(err) {
			return Token{}, ErrTokenNotFound
		}
		return Token{}, fmt.Errorf("tokenstore: failed to read cache: %w", err)
	}

	var token Token
	if err := json.Unmarshal(data, &token); err != nil {
		// A corrupt cache file is treated as a miss; the next Save
		// overwrites it.
		return Token{}, ErrTokenNotFound
	}
	return token, nil
}

// Save implements Store. The file is written via a temp file and rename so
// a crashed run never leaves a half-written cache behind.
func (s *FileStore) Save(_ context.Context, service string, token Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("tokenstore: failed to encode token: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, service+"_token_*.json")
	if err != nil {
		return fmt.Errorf("tokenstore: failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("tokenstore: failed to write cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("tokenstore: failed to close cache file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("tokenstore: failed to set cache permissions: %w", err)
	}

	if err := os.Rename(tmpName, s.path(service)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("tokenstore: failed to replace cache: %w", err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)
