package profilestore

import (
	"crypto/ed25519"
	"crypto/rand"

	"github.com/pkg/errors"
)

// SigningKey holds the keypair the store uses to sign entries it writes and
// verify entries it reads back; a compile-result cache is consulted on
// every cold start, so a tampered entry (hand-edited row, corrupted disk
// image) needs to fail loudly rather than feed a forged native loop body
// back into the VM.
type SigningKey struct {
	public  ed25519.PublicKey
	private ed25519.PrivateKey
}

// NewSigningKey generates a fresh keypair. Callers persist the public key
// alongside the store (or embed it in its own config) so a store opened
// from a different key than it was written with is rejected rather than
// silently accepted.
func NewSigningKey() (*SigningKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "profilestore: generate signing key")
	}
	return &SigningKey{public: pub, private: priv}, nil
}

// SigningKeyFromSeed reconstructs a keypair from a 32-byte seed, the form a
// deployment actually stores (e.g. in its own sentra.json-adjacent secret
// file) rather than the raw private key bytes.
func SigningKeyFromSeed(seed []byte) (*SigningKey, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, errors.Errorf("profilestore: signing seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &SigningKey{public: priv.Public().(ed25519.PublicKey), private: priv}, nil
}

// PublicKey returns the key other store instances must use to verify
// entries this one signs.
func (k *SigningKey) PublicKey() ed25519.PublicKey {
	return k.public
}

// Sign signs an entry payload (the cache key plus the serialized compiled
// artifact) for storage alongside it.
func (k *SigningKey) Sign(payload []byte) []byte {
	return ed25519.Sign(k.private, payload)
}

// Verify reports whether sig is a valid signature over payload under pub.
// A persisted entry whose signature fails this check is treated as a cache
// miss, never as a usable (if stale) artifact.
func Verify(pub ed25519.PublicKey, payload, sig []byte) bool {
	if len(pub) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(pub, payload, sig)
}
