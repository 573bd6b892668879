package keys

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
)

// CommitterKeyFromPublicKey encodes an Ed25519 public key into the
// committer-key string.
func CommitterKeyFromPublicKey(pub ed25519.PublicKey) (string, error) {
	if l := len(pub); l != ed25519.PublicKeySize {
		return "", fmt.Errorf("ed25519 public key must be %d bytes, got %d", ed25519.PublicKeySize, l)
	}
	return "ed25519:" + base64.StdEncoding.EncodeToString(pub), nil
}

// PublicKeyFromCommitterKey decodes a committer-key string back into the
// Ed25519 public key it names.
func PublicKeyFromCommitterKey(committerKey string) (ed25519.PublicKey, error) {
	const prefix = "ed25519:"
	if len(committerKey) <= len(prefix) || committerKey[:len(prefix)] != prefix {
		return nil, fmt.Errorf("committer key must start with %q", prefix)
	}
	pub, err := base64.StdEncoding.DecodeString(committerKey[len(prefix):])
	if err != nil {
		return nil, fmt.Errorf("committer key is not valid base64: %w", err)
	}
	if len(pub) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("committer key must encode %d bytes, got %d", ed25519.PublicKeySize, len(pub))
	}
	return ed25519.PublicKey(pub), nil
}
