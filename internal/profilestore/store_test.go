package profilestore

import (
	"testing"

	"lavascript/internal/config"
	"lavascript/internal/jit"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.ProfileStoreDriver = "sqlite"
	cfg.ProfileStoreDSN = ":memory:"
	return cfg
}

func TestStorePutThenGetRoundTrips(t *testing.T) {
	key, err := NewSigningKey()
	if err != nil {
		t.Fatalf("NewSigningKey: %v", err)
	}
	store, err := Open(testConfig(t), key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	fn := &jit.Function{Name: "fib", Code: []uint32{1, 2, 3}}
	artifact := []byte("compiled-native-body")

	if err := store.Put(fn, jit.TierOptimized, artifact); err != nil {
		t.Fatalf("Put: %v", err)
	}

	entry, ok, err := store.Get(fn, jit.TierOptimized)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("Get: want a hit after Put")
	}
	if string(entry.Artifact) != string(artifact) {
		t.Fatalf("Get: want artifact %q, got %q", artifact, entry.Artifact)
	}
	if entry.Tier != jit.TierOptimized {
		t.Fatalf("Get: want tier %v, got %v", jit.TierOptimized, entry.Tier)
	}
}

func TestStoreGetMissForUnknownFunction(t *testing.T) {
	key, err := NewSigningKey()
	if err != nil {
		t.Fatalf("NewSigningKey: %v", err)
	}
	store, err := Open(testConfig(t), key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	fn := &jit.Function{Name: "never-put", Code: []uint32{9}}
	_, ok, err := store.Get(fn, jit.TierQuickJIT)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatalf("Get: want a miss for a function that was never stored")
	}
}

func TestStoreGetRejectsEntrySignedByDifferentKey(t *testing.T) {
	writerKey, err := NewSigningKey()
	if err != nil {
		t.Fatalf("NewSigningKey: %v", err)
	}
	cfg := testConfig(t)
	store, err := Open(cfg, writerKey)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	fn := &jit.Function{Name: "f", Code: []uint32{1}}
	if err := store.Put(fn, jit.TierQuickJIT, []byte("artifact")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	readerKey, err := NewSigningKey()
	if err != nil {
		t.Fatalf("NewSigningKey: %v", err)
	}
	store.key = readerKey

	_, ok, err := store.Get(fn, jit.TierQuickJIT)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatalf("Get: want a row signed under a different key to be treated as a miss, not trusted")
	}
}

func TestStorePutOverwritesExistingEntry(t *testing.T) {
	key, err := NewSigningKey()
	if err != nil {
		t.Fatalf("NewSigningKey: %v", err)
	}
	store, err := Open(testConfig(t), key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	fn := &jit.Function{Name: "f", Code: []uint32{1}}
	if err := store.Put(fn, jit.TierQuickJIT, []byte("v1")); err != nil {
		t.Fatalf("Put v1: %v", err)
	}
	if err := store.Put(fn, jit.TierQuickJIT, []byte("v2")); err != nil {
		t.Fatalf("Put v2: %v", err)
	}

	entry, ok, err := store.Get(fn, jit.TierQuickJIT)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("Get: want a hit")
	}
	if string(entry.Artifact) != "v2" {
		t.Fatalf("Get: want the overwritten artifact v2, got %q", entry.Artifact)
	}
}
