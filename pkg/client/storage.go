// Package client is the client-side SDK for IdeaSpark consumers. It
// derives a stable anonymous device identity and keeps an advisory
// local usage guard, so obviously over-limit requests never reach the
// network. Nothing in this package is a security boundary: the server
// limiter is the enforcement point, and every failure here degrades
// gracefully instead of blocking the caller.
package client

import (
	"encoding/json"
	"errors"
	"os"
	"sync"
)

// Client persistence keys, namespaced and independent of the server
// store.
const (
	DeviceIDKey = "ideaspark_device_id"
	UsageKey    = "ideaspark_hourly_usage"
)

// ErrStorageUnavailable is returned when local persistence cannot be
// read or written. Callers treat it as advisory and fail open.
var ErrStorageUnavailable = errors.New("local storage unavailable")

// Storage is string-keyed local persistence, standing in for browser
// localStorage. Missing keys return an empty string and no error.
type Storage interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// FileStorage implements Storage as a JSON map in a single file.
// Writes are atomic per call but not transactional across processes;
// a lost update under concurrent writers is accepted.
type FileStorage struct {
	mu   sync.Mutex
	path string
}

var _ Storage = (*FileStorage)(nil)

// NewFileStorage creates a file-backed Storage at path. The file is
// created lazily on first write.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

func (s *FileStorage) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, ErrStorageUnavailable
	}
	values := map[string]string{}
	if err := json.Unmarshal(data, &values); err != nil {
		// A corrupt file is treated as empty rather than fatal.
		return map[string]string{}, nil
	}
	return values, nil
}

// Get returns the stored value for key, or "" when absent.
func (s *FileStorage) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return "", err
	}
	return values[key], nil
}

// Set stores the value for key.
func (s *FileStorage) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	values[key] = value

	data, err := json.Marshal(values)
	if err != nil {
		return ErrStorageUnavailable
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return ErrStorageUnavailable
	}
	return nil
}
