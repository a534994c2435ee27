package auth

import (
	"errors"
	"testing"
	"time"
)

// memoryKV is an in-memory [KV] for tests.
type memoryKV struct {
	m      map[string]string
	setErr error
	getErr error
}

func newMemoryKV() *memoryKV {
	return &memoryKV{m: make(map[string]string)}
}

func (kv *memoryKV) Get(key string) (string, bool, error) {
	if kv.getErr != nil {
		return "", false, kv.getErr
	}
	v, ok := kv.m[key]
	return v, ok, nil
}

func (kv *memoryKV) Set(key, value string) error {
	if kv.setErr != nil {
		return kv.setErr
	}
	kv.m[key] = value
	return nil
}

func (kv *memoryKV) Delete(key string) error {
	delete(kv.m, key)
	return nil
}

func TestTokenStore(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	newStore := func(kv KV) *TokenStore {
		store := NewTokenStore(kv)
		store.now = func() time.Time { return base }
		return store
	}

	t.Run("Save", func(t *testing.T) {
		kv := newMemoryKV()
		store := newStore(kv)

		if err := store.Save("access", "refresh", 3600); err != nil {
			t.Fatalf("failed to save tokens: %v", err)
		}

		access, ok := store.AccessToken()
		if !ok || access != "access" {
			t.Errorf("expected access token 'access', got %q (present=%v)", access, ok)
		}

		refresh, ok := store.RefreshToken()
		if !ok || refresh != "refresh" {
			t.Errorf("expected refresh token 'refresh', got %q (present=%v)", refresh, ok)
		}

		expiresAt, ok := store.ExpiresAt()
		if !ok {
			t.Fatal("expected expiry to be stored")
		}

		want := base.UnixMilli() + 3600*1000
		if expiresAt != want {
			t.Errorf("expected expiry %d, got %d", want, expiresAt)
		}
	})

	t.Run("Expired", func(t *testing.T) {
		t.Run("No Expiry Stored", func(t *testing.T) {
			store := newStore(newMemoryKV())
			if !store.Expired() {
				t.Error("missing expiry should be treated as expired")
			}
		})

		t.Run("Unparsable Expiry", func(t *testing.T) {
			kv := newMemoryKV()
			kv.m[keyTokenExpiry] = "not-a-number"
			store := newStore(kv)
			if !store.Expired() {
				t.Error("unparsable expiry should be treated as expired")
			}
		})

		t.Run("Past Expiry", func(t *testing.T) {
			kv := newMemoryKV()
			store := newStore(kv)
			kv.m[keyTokenExpiry] = "1" // far in the past
			if !store.Expired() {
				t.Error("expected past expiry to be expired")
			}
		})

		t.Run("Future Expiry", func(t *testing.T) {
			kv := newMemoryKV()
			store := newStore(kv)
			if err := store.Save("access", "refresh", 1000); err != nil {
				t.Fatalf("failed to save: %v", err)
			}
			if store.Expired() {
				t.Error("expected future expiry to not be expired")
			}
		})

		t.Run("Read Failure Fails Safe", func(t *testing.T) {
			kv := newMemoryKV()
			store := newStore(kv)
			if err := store.Save("access", "refresh", 1000); err != nil {
				t.Fatalf("failed to save: %v", err)
			}
			kv.getErr = errors.New("disk gone")
			if !store.Expired() {
				t.Error("unreadable store should report expired")
			}
		})
	})

	t.Run("State", func(t *testing.T) {
		kv := newMemoryKV()
		store := newStore(kv)

		if _, ok := store.State(); ok {
			t.Error("expected no state initially")
		}

		if err := store.SetState("abc123"); err != nil {
			t.Fatalf("failed to set state: %v", err)
		}

		state, ok := store.State()
		if !ok || state != "abc123" {
			t.Errorf("expected state abc123, got %q", state)
		}

		if err := store.SetState("xyz789"); err != nil {
			t.Fatalf("failed to overwrite state: %v", err)
		}
		if state, _ := store.State(); state != "xyz789" {
			t.Errorf("expected overwritten state xyz789, got %q", state)
		}

		if err := store.ClearState(); err != nil {
			t.Fatalf("failed to clear state: %v", err)
		}
		if _, ok := store.State(); ok {
			t.Error("expected state to be cleared")
		}
	})

	t.Run("Clear", func(t *testing.T) {
		kv := newMemoryKV()
		store := newStore(kv)

		if err := store.Save("access", "refresh", 3600); err != nil {
			t.Fatalf("failed to save: %v", err)
		}
		if err := store.SetState("pending"); err != nil {
			t.Fatalf("failed to set state: %v", err)
		}

		if err := store.Clear(); err != nil {
			t.Fatalf("failed to clear: %v", err)
		}

		if _, ok := store.AccessToken(); ok {
			t.Error("expected access token to be cleared")
		}
		if _, ok := store.RefreshToken(); ok {
			t.Error("expected refresh token to be cleared")
		}
		if _, ok := store.State(); ok {
			t.Error("expected state to be cleared")
		}
		if !store.Expired() {
			t.Error("cleared store should report expired")
		}

		// Idempotent
		if err := store.Clear(); err != nil {
			t.Errorf("second clear should not fail: %v", err)
		}
	})
}
