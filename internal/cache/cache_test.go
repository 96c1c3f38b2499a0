package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/raysh454/foliograde/internal/testutil"
)

func TestKey_Deterministic(t *testing.T) {
	a := Key("https://example.com", "v1")
	b := Key("https://example.com", "v1")
	if a != b {
		t.Errorf("same inputs produced different keys: %s vs %s", a, b)
	}
	if len(a) != 16 {
		t.Errorf("key length = %d, want 16", len(a))
	}
	if Key("https://example.com", "v2") == a {
		t.Error("rubric version change should change the key")
	}
	if Key("https://other.com", "v1") == a {
		t.Error("url change should change the key")
	}
}

func TestShareToken(t *testing.T) {
	now := time.Now()
	tok := ShareToken("https://example.com", now)
	if len(tok) != 12 {
		t.Errorf("token length = %d, want 12", len(tok))
	}
	if tok == ShareToken("https://example.com", now.Add(time.Nanosecond)) {
		t.Error("tokens should differ across timestamps")
	}
}

// storeFactory lets the same behavioral tests run against both stores.
type storeFactory func(t *testing.T, clock Clock) Store

func memoryFactory(_ *testing.T, clock Clock) Store {
	return NewMemoryStore(clock)
}

func sqliteFactory(t *testing.T, clock Clock) Store {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"), clock, nil)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	return s
}

func runStoreTests(t *testing.T, name string, factory storeFactory) {
	t.Run(name+"/PutGet", func(t *testing.T) {
		clock := testutil.NewFakeClock(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
		s := factory(t, clock)
		defer s.Close()
		ctx := context.Background()

		e := &Entry{
			Key:          Key("https://example.com", "v1"),
			CanonicalURL: "https://example.com",
			Payload:      []byte(`{"score":85}`),
			CreatedAt:    clock.Now(),
			ExpiresAt:    clock.Now().Add(7 * 24 * time.Hour),
		}
		if err := s.Put(ctx, e); err != nil {
			t.Fatalf("Put: %v", err)
		}

		got, err := s.Get(ctx, e.Key)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if string(got.Payload) != `{"score":85}` {
			t.Errorf("payload = %s", got.Payload)
		}
		if got.AccessCount != 1 {
			t.Errorf("access count = %d, want 1", got.AccessCount)
		}

		if _, err := s.Get(ctx, "missing"); err != ErrNotFound {
			t.Errorf("missing key error = %v, want ErrNotFound", err)
		}
	})

	t.Run(name+"/TTLExpiry", func(t *testing.T) {
		clock := testutil.NewFakeClock(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
		s := factory(t, clock)
		defer s.Close()
		ctx := context.Background()

		e := &Entry{
			Key:          "k1",
			CanonicalURL: "https://example.com",
			Payload:      []byte("x"),
			CreatedAt:    clock.Now(),
			ExpiresAt:    clock.Now().Add(7 * 24 * time.Hour),
		}
		if err := s.Put(ctx, e); err != nil {
			t.Fatalf("Put: %v", err)
		}

		clock.Advance(7*24*time.Hour - time.Minute)
		if _, err := s.Get(ctx, "k1"); err != nil {
			t.Fatalf("entry should still be live: %v", err)
		}

		clock.Advance(2 * time.Minute)
		if _, err := s.Get(ctx, "k1"); err != ErrNotFound {
			t.Errorf("expired entry error = %v, want ErrNotFound", err)
		}
	})

	t.Run(name+"/ClearAll", func(t *testing.T) {
		clock := testutil.NewFakeClock(time.Now())
		s := factory(t, clock)
		defer s.Close()
		ctx := context.Background()

		for _, key := range []string{"a", "b", "c"} {
			e := &Entry{Key: key, CanonicalURL: "https://" + key, Payload: []byte("x"),
				CreatedAt: clock.Now(), ExpiresAt: clock.Now().Add(time.Hour)}
			if err := s.Put(ctx, e); err != nil {
				t.Fatalf("Put: %v", err)
			}
		}

		n, err := s.ClearAll(ctx)
		if err != nil {
			t.Fatalf("ClearAll: %v", err)
		}
		if n != 3 {
			t.Errorf("cleared = %d, want 3", n)
		}
		if _, err := s.Get(ctx, "a"); err != ErrNotFound {
			t.Error("entries should be gone after ClearAll")
		}
	})

	t.Run(name+"/ShareLinks", func(t *testing.T) {
		clock := testutil.NewFakeClock(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
		s := factory(t, clock)
		defer s.Close()
		ctx := context.Background()

		e := &Entry{Key: "k1", CanonicalURL: "https://example.com", Payload: []byte(`{"score":70}`),
			CreatedAt: clock.Now(), ExpiresAt: clock.Now().Add(time.Hour)}
		token := ShareToken(e.CanonicalURL, clock.Now())

		if err := s.CreateShareLink(ctx, token, e, clock.Now().Add(30*24*time.Hour)); err != nil {
			t.Fatalf("CreateShareLink: %v", err)
		}

		got, err := s.GetSharedEntry(ctx, token)
		if err != nil {
			t.Fatalf("GetSharedEntry: %v", err)
		}
		if string(got.Payload) != `{"score":70}` {
			t.Errorf("shared payload = %s", got.Payload)
		}

		// Shared result survives cache entry expiry
		clock.Advance(2 * time.Hour)
		if _, err := s.GetSharedEntry(ctx, token); err != nil {
			t.Errorf("share link should outlive cache entry: %v", err)
		}

		// But not its own expiry
		clock.Advance(31 * 24 * time.Hour)
		if _, err := s.GetSharedEntry(ctx, token); err != ErrNotFound {
			t.Errorf("expired share link error = %v, want ErrNotFound", err)
		}

		if _, err := s.GetSharedEntry(ctx, "nope"); err != ErrNotFound {
			t.Errorf("unknown token error = %v, want ErrNotFound", err)
		}
	})

	t.Run(name+"/Stats", func(t *testing.T) {
		clock := testutil.NewFakeClock(time.Now())
		s := factory(t, clock)
		defer s.Close()
		ctx := context.Background()

		e := &Entry{Key: "k1", CanonicalURL: "https://example.com", Payload: []byte("x"),
			CreatedAt: clock.Now(), ExpiresAt: clock.Now().Add(time.Hour)}
		s.Put(ctx, e)
		s.CreateShareLink(ctx, "tok", e, time.Time{})

		st, err := s.Stats(ctx)
		if err != nil {
			t.Fatalf("Stats: %v", err)
		}
		if st.Entries != 1 || st.ShareLinks != 1 {
			t.Errorf("stats = %+v, want 1 entry and 1 share link", st)
		}
	})
}

func TestMemoryStore(t *testing.T) { runStoreTests(t, "memory", memoryFactory) }
func TestSQLiteStore(t *testing.T) { runStoreTests(t, "sqlite", sqliteFactory) }

func TestSQLiteStore_CleanupExpired(t *testing.T) {
	clock := testutil.NewFakeClock(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"), clock, nil)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	live := &Entry{Key: "live", CanonicalURL: "https://a", Payload: []byte("x"),
		CreatedAt: clock.Now(), ExpiresAt: clock.Now().Add(time.Hour)}
	dead := &Entry{Key: "dead", CanonicalURL: "https://b", Payload: []byte("x"),
		CreatedAt: clock.Now().Add(-8 * 24 * time.Hour), ExpiresAt: clock.Now().Add(-time.Hour)}
	s.Put(ctx, live)
	s.Put(ctx, dead)

	n, err := s.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("CleanupExpired: %v", err)
	}
	if n != 1 {
		t.Errorf("cleaned = %d, want 1", n)
	}
	if _, err := s.Get(ctx, "live"); err != nil {
		t.Errorf("live entry removed: %v", err)
	}
}
