package cache

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/raysh454/foliograde/internal/logging"
	_ "modernc.org/sqlite" // SQLite driver
)

//go:embed schema.sql
var schemaFS embed.FS

// SQLiteStore persists cache entries and share links in a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	clock  Clock
	logger logging.Logger
}

// NewSQLiteStore opens (or creates) the database at path and applies the
// schema. clock may be nil.
func NewSQLiteStore(path string, clock Clock, logger logging.Logger) (*SQLiteStore, error) {
	if clock == nil {
		clock = SystemClock{}
	}
	logger = logging.OrNop(logger).With(logging.Field{Key: "component", Value: "cache"})

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply cache schema: %w", err)
	}

	logger.Info("cache database ready", logging.Field{Key: "path", Value: path})

	return &SQLiteStore{db: db, clock: clock, logger: logger}, nil
}

// applySchema sets pragmas and creates tables.
func applySchema(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (*Entry, error) {
	var (
		e         Entry
		createdAt int64
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT key, canonical_url, payload, created_at, expires_at, access_count
		 FROM grading_cache WHERE key = ?`, key).
		Scan(&e.Key, &e.CanonicalURL, &e.Payload, &createdAt, &expiresAt, &e.AccessCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}

	e.CreatedAt = time.Unix(createdAt, 0).UTC()
	e.ExpiresAt = time.Unix(expiresAt, 0).UTC()

	now := s.clock.Now()
	if now.After(e.ExpiresAt) {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM grading_cache WHERE key = ?`, key); err != nil {
			s.logger.Warn("failed to delete expired entry", logging.Field{Key: "error", Value: err.Error()})
		}
		return nil, ErrNotFound
	}

	e.AccessCount++
	if _, err := s.db.ExecContext(ctx,
		`UPDATE grading_cache SET accessed_at = ?, access_count = access_count + 1 WHERE key = ?`,
		now.Unix(), key); err != nil {
		s.logger.Warn("failed to update access stats", logging.Field{Key: "error", Value: err.Error()})
	}

	return &e, nil
}

func (s *SQLiteStore) Put(ctx context.Context, e *Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO grading_cache (key, canonical_url, payload, created_at, expires_at, access_count)
		 VALUES (?, ?, ?, ?, ?, 0)
		 ON CONFLICT(key) DO UPDATE SET
		   canonical_url = excluded.canonical_url,
		   payload = excluded.payload,
		   created_at = excluded.created_at,
		   expires_at = excluded.expires_at`,
		e.Key, e.CanonicalURL, e.Payload, e.CreatedAt.Unix(), e.ExpiresAt.Unix())
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM grading_cache WHERE key = ?`, key)
	if err != nil {
		return false, fmt.Errorf("cache delete: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *SQLiteStore) ClearAll(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM grading_cache`)
	if err != nil {
		return 0, fmt.Errorf("cache clear: %w", err)
	}
	n, _ := res.RowsAffected()
	s.logger.Info("cache cleared", logging.Field{Key: "entries", Value: n})
	return n, nil
}

func (s *SQLiteStore) CreateShareLink(ctx context.Context, token string, e *Entry, expiresAt time.Time) error {
	var exp any
	if !expiresAt.IsZero() {
		exp = expiresAt.Unix()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO share_links (token, canonical_url, payload, created_at, expires_at, view_count)
		 VALUES (?, ?, ?, ?, ?, 0)
		 ON CONFLICT(token) DO UPDATE SET
		   payload = excluded.payload,
		   expires_at = excluded.expires_at`,
		token, e.CanonicalURL, e.Payload, s.clock.Now().Unix(), exp)
	if err != nil {
		return fmt.Errorf("create share link: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetSharedEntry(ctx context.Context, token string) (*Entry, error) {
	var (
		e         Entry
		createdAt int64
		expiresAt sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT canonical_url, payload, created_at, expires_at FROM share_links WHERE token = ?`, token).
		Scan(&e.CanonicalURL, &e.Payload, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get shared entry: %w", err)
	}

	e.CreatedAt = time.Unix(createdAt, 0).UTC()
	if expiresAt.Valid {
		e.ExpiresAt = time.Unix(expiresAt.Int64, 0).UTC()
		if s.clock.Now().After(e.ExpiresAt) {
			if _, err := s.db.ExecContext(ctx, `DELETE FROM share_links WHERE token = ?`, token); err != nil {
				s.logger.Warn("failed to delete expired share link", logging.Field{Key: "error", Value: err.Error()})
			}
			return nil, ErrNotFound
		}
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE share_links SET view_count = view_count + 1 WHERE token = ?`, token); err != nil {
		s.logger.Warn("failed to update view count", logging.Field{Key: "error", Value: err.Error()})
	}

	return &e, nil
}

// CleanupExpired removes expired cache entries and share links, returning
// how many rows were deleted.
func (s *SQLiteStore) CleanupExpired(ctx context.Context) (int64, error) {
	now := s.clock.Now().Unix()
	var total int64

	res, err := s.db.ExecContext(ctx, `DELETE FROM grading_cache WHERE expires_at < ?`, now)
	if err != nil {
		return 0, fmt.Errorf("cleanup cache: %w", err)
	}
	n, _ := res.RowsAffected()
	total += n

	res, err = s.db.ExecContext(ctx,
		`DELETE FROM share_links WHERE expires_at IS NOT NULL AND expires_at < ?`, now)
	if err != nil {
		return total, fmt.Errorf("cleanup share links: %w", err)
	}
	n, _ = res.RowsAffected()
	total += n

	if total > 0 {
		s.logger.Info("cleaned up expired entries", logging.Field{Key: "deleted", Value: total})
	}
	return total, nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM grading_cache`).Scan(&st.Entries); err != nil {
		return nil, fmt.Errorf("cache stats: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM share_links`).Scan(&st.ShareLinks); err != nil {
		return nil, fmt.Errorf("cache stats: %w", err)
	}
	return st, nil
}

// DB exposes the underlying handle for maintenance tooling.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

func (s *SQLiteStore) Close() error { return s.db.Close() }
