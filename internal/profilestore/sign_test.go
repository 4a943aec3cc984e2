package profilestore

import (
	"bytes"
	"crypto/ed25519"
	"testing"
)

func TestSignAndVerifyRoundTrip(t *testing.T) {
	key, err := NewSigningKey()
	if err != nil {
		t.Fatalf("NewSigningKey: %v", err)
	}
	payload := []byte("cache-key|artifact-bytes")
	sig := key.Sign(payload)

	if !Verify(key.PublicKey(), payload, sig) {
		t.Fatalf("Verify: want a freshly signed payload to verify")
	}
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	key, err := NewSigningKey()
	if err != nil {
		t.Fatalf("NewSigningKey: %v", err)
	}
	payload := []byte("original")
	sig := key.Sign(payload)

	if Verify(key.PublicKey(), []byte("tampered"), sig) {
		t.Fatalf("Verify: want a tampered payload to fail verification")
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	key1, _ := NewSigningKey()
	key2, _ := NewSigningKey()
	payload := []byte("payload")
	sig := key1.Sign(payload)

	if Verify(key2.PublicKey(), payload, sig) {
		t.Fatalf("Verify: want a signature from a different key to fail verification")
	}
}

func TestVerifyRejectsMalformedPublicKey(t *testing.T) {
	if Verify(ed25519.PublicKey([]byte("too-short")), []byte("x"), []byte("y")) {
		t.Fatalf("Verify: want a malformed public key to be rejected rather than panic or pass")
	}
}

func TestSigningKeyFromSeedIsDeterministic(t *testing.T) {
	seed := bytes.Repeat([]byte{0x42}, ed25519.SeedSize)

	k1, err := SigningKeyFromSeed(seed)
	if err != nil {
		t.Fatalf("SigningKeyFromSeed: %v", err)
	}
	k2, err := SigningKeyFromSeed(seed)
	if err != nil {
		t.Fatalf("SigningKeyFromSeed: %v", err)
	}
	if !bytes.Equal(k1.PublicKey(), k2.PublicKey()) {
		t.Fatalf("SigningKeyFromSeed: want the same seed to reproduce the same public key")
	}

	payload := []byte("data")
	if !Verify(k2.PublicKey(), payload, k1.Sign(payload)) {
		t.Fatalf("SigningKeyFromSeed: want signatures from two keys derived from the same seed to cross-verify")
	}
}

func TestSigningKeyFromSeedRejectsWrongLength(t *testing.T) {
	if _, err := SigningKeyFromSeed([]byte{1, 2, 3}); err == nil {
		t.Fatalf("SigningKeyFromSeed: want an error for a seed of the wrong length")
	}
}
