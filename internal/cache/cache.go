// Package cache stores finished analysis results keyed by canonical URL and
// rubric version. Two implementations exist: an in-memory store for tests and
// cache-less deployments, and a SQLite store for persistence across restarts.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// ErrNotFound is returned when a key or share token has no live entry.
var ErrNotFound = errors.New("cache: entry not found")

// Clock abstracts time.Now so expiry behavior is testable.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Entry is one cached analysis result. Payload holds the serialized result
// document; the cache does not interpret it.
type Entry struct {
	Key          string
	CanonicalURL string
	Payload      []byte
	CreatedAt    time.Time
	ExpiresAt    time.Time
	AccessCount  int64
}

// Stats summarizes store contents for the status endpoint.
type Stats struct {
	Entries    int64 `json:"entries"`
	ShareLinks int64 `json:"share_links"`
}

// Store is the cache contract. Get returns ErrNotFound for missing and
// expired entries; expired entries are removed on read.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Put(ctx context.Context, e *Entry) error
	Delete(ctx context.Context, key string) (bool, error)
	ClearAll(ctx context.Context) (int64, error)

	// Share links carry their own payload snapshot so shared results outlive
	// cache expiry.
	CreateShareLink(ctx context.Context, token string, e *Entry, expiresAt time.Time) error
	GetSharedEntry(ctx context.Context, token string) (*Entry, error)

	Stats(ctx context.Context) (*Stats, error)
	Close() error
}

// Key derives the cache key for a canonical URL under a rubric version:
// the first 16 hex characters of sha256(url + "|" + version).
func Key(canonicalURL, rubricVersion string) string {
	sum := sha256.Sum256([]byte(canonicalURL + "|" + rubricVersion))
	return hex.EncodeToString(sum[:])[:16]
}

// ShareToken generates a short URL-safe token for a shared result. The
// timestamp salt keeps tokens unguessable from the URL alone.
func ShareToken(canonicalURL string, now time.Time) string {
	sum := sha256.Sum256([]byte(canonicalURL + now.UTC().Format(time.RFC3339Nano)))
	return hex.EncodeToString(sum[:])[:12]
}
