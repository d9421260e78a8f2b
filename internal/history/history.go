// Package history persists generated ideas keyed by the anonymous
// device hash, so a returning device can see and bookmark what it
// generated before. No account, no PII: the device hash is the only
// key.
package history

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a history entry does not exist or does
// not belong to the given device hash.
var ErrNotFound = errors.New("history entry not found")

// Entry is one generated idea in a device's history.
type Entry struct {
	ID         int64     `json:"id"`
	DeviceHash string    `json:"-"`
	Category   string    `json:"category"`
	IdeaText   string    `json:"idea_text"`
	Lang       string    `json:"lang,omitempty"`
	Bookmarked bool      `json:"bookmarked"`
	CreatedAt  time.Time `json:"created_at"`
}

// Repository defines the interface for history persistence.
type Repository interface {
	// Save stores a new entry and fills in its ID and timestamp.
	Save(ctx context.Context, entry *Entry) error

	// List returns the most recent entries for a device hash.
	List(ctx context.Context, deviceHash string, limit int) ([]Entry, error)

	// ToggleBookmark flips the bookmark flag on an entry owned by the
	// device hash and returns the new state.
	ToggleBookmark(ctx context.Context, id int64, deviceHash string) (bool, error)

	// HealthCheck verifies the repository is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases the repository's resources.
	Close()
}
