package profilestore

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"

	"lavascript/internal/jit"
)

// CacheKey hashes a function's bytecode together with the compilation tier
// it was compiled at, so a stale cache entry for an older bytecode body (or
// a different tier) never matches. blake2b-256 keeps the key fixed-width
// and cheap to compute on every tier-up check, unlike sha256's extra
// setup cost for a hash computed this often.
func CacheKey(fn *jit.Function, tier jit.CompilationTier) (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}

	h.Write([]byte(fn.Name))
	h.Write([]byte{byte(tier)})
	for _, instr := range fn.Code {
		var b [4]byte
		b[0] = byte(instr)
		b[1] = byte(instr >> 8)
		b[2] = byte(instr >> 16)
		b[3] = byte(instr >> 24)
		h.Write(b[:])
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
