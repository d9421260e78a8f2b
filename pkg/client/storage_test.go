package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorage(t *testing.T) {
	t.Run("round trips values", func(t *testing.T) {
		s := NewFileStorage(filepath.Join(t.TempDir(), "client.json"))

		require.NoError(t, s.Set("alpha", "one"))
		require.NoError(t, s.Set("beta", "two"))

		got, err := s.Get("alpha")
		require.NoError(t, err)
		assert.Equal(t, "one", got)

		got, err = s.Get("beta")
		require.NoError(t, err)
		assert.Equal(t, "two", got)
	})

	t.Run("missing key returns empty string", func(t *testing.T) {
		s := NewFileStorage(filepath.Join(t.TempDir(), "client.json"))

		got, err := s.Get("absent")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("corrupt file is treated as empty", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "client.json")
		require.NoError(t, os.WriteFile(path, []byte("{{{"), 0o600))

		s := NewFileStorage(path)
		got, err := s.Get("alpha")
		require.NoError(t, err)
		assert.Empty(t, got)

		// Writes recover the file.
		require.NoError(t, s.Set("alpha", "one"))
		got, err = s.Get("alpha")
		require.NoError(t, err)
		assert.Equal(t, "one", got)
	})

	t.Run("unreadable path surfaces ErrStorageUnavailable", func(t *testing.T) {
		s := NewFileStorage(t.TempDir()) // a directory, not a file

		_, err := s.Get("alpha")
		assert.ErrorIs(t, err, ErrStorageUnavailable)
	})
}
