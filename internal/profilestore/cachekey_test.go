package profilestore

import (
	"testing"

	"lavascript/internal/jit"
)

func TestCacheKeyStableForIdenticalInput(t *testing.T) {
	fn := &jit.Function{Name: "fib", Code: []uint32{1, 2, 3}}

	k1, err := CacheKey(fn, jit.TierQuickJIT)
	if err != nil {
		t.Fatalf("CacheKey: %v", err)
	}
	k2, err := CacheKey(fn, jit.TierQuickJIT)
	if err != nil {
		t.Fatalf("CacheKey: %v", err)
	}
	if k1 != k2 {
		t.Fatalf("CacheKey: want stable output for identical input, got %q vs %q", k1, k2)
	}
	if len(k1) != 64 {
		t.Fatalf("CacheKey: want a 64-char hex blake2b-256 digest, got length %d", len(k1))
	}
}

func TestCacheKeyDiffersByTier(t *testing.T) {
	fn := &jit.Function{Name: "fib", Code: []uint32{1, 2, 3}}

	k1, err := CacheKey(fn, jit.TierQuickJIT)
	if err != nil {
		t.Fatalf("CacheKey: %v", err)
	}
	k2, err := CacheKey(fn, jit.TierOptimized)
	if err != nil {
		t.Fatalf("CacheKey: %v", err)
	}
	if k1 == k2 {
		t.Fatalf("CacheKey: want distinct keys for distinct compilation tiers of the same bytecode")
	}
}

func TestCacheKeyDiffersByBytecode(t *testing.T) {
	fn1 := &jit.Function{Name: "f", Code: []uint32{1, 2, 3}}
	fn2 := &jit.Function{Name: "f", Code: []uint32{1, 2, 4}}

	k1, err := CacheKey(fn1, jit.TierInterpreted)
	if err != nil {
		t.Fatalf("CacheKey: %v", err)
	}
	k2, err := CacheKey(fn2, jit.TierInterpreted)
	if err != nil {
		t.Fatalf("CacheKey: %v", err)
	}
	if k1 == k2 {
		t.Fatalf("CacheKey: want distinct keys for distinct bytecode bodies")
	}
}

func TestCacheKeyDiffersByName(t *testing.T) {
	fn1 := &jit.Function{Name: "f", Code: []uint32{1, 2, 3}}
	fn2 := &jit.Function{Name: "g", Code: []uint32{1, 2, 3}}

	k1, _ := CacheKey(fn1, jit.TierInterpreted)
	k2, _ := CacheKey(fn2, jit.TierInterpreted)
	if k1 == k2 {
		t.Fatalf("CacheKey: want distinct keys for distinct function names sharing the same bytecode")
	}
}
