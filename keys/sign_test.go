package keys

import (
	"crypto/ed25519"
	"io"
	"testing"
)

type deterministicReader struct{ b byte }

func (r *deterministicReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = r.b
		r.b++
	}
	return len(p), nil
}

func TestSignEd25519SHA256_Verifies(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	committerKey := GenerateCommitterKeyFromSeed(seed)

	msg := []byte(`{"_type":"ORIGINAL_VERSION","uid":"x::y::1"}`)
	sigB64 := SignEd25519SHA256(msg, priv)

	ok, err := VerifyEd25519SHA256(msg, sigB64, committerKey)
	if err != nil {
		t.Fatalf("VerifyEd25519SHA256: %v", err)
	}
	if !ok {
		t.Fatalf("signature did not verify")
	}

	ok, err = VerifyEd25519SHA256([]byte("tampered"), sigB64, committerKey)
	if err != nil {
		t.Fatalf("VerifyEd25519SHA256 tampered: %v", err)
	}
	if ok {
		t.Fatalf("tampered message verified")
	}
}

func TestVerifyEd25519SHA256_RejectsBadKey(t *testing.T) {
	if _, err := VerifyEd25519SHA256([]byte("m"), "c2ln", "not-a-key"); err == nil {
		t.Fatalf("expected error for malformed committer key")
	}
}

func TestSignDilithium3_Verifies_SHA3_256(t *testing.T) {
	pk, sk, err := GenerateDilithium3Keypair(io.Reader(&deterministicReader{}))
	if err != nil {
		t.Fatalf("GenerateDilithium3Keypair: %v", err)
	}

	msg := []byte("hello")
	sigB64, err := SignDilithium3(msg, "sha3-256", sk)
	if err != nil {
		t.Fatalf("SignDilithium3: %v", err)
	}
	ok, err := VerifyDilithium3(msg, "sha3-256", sigB64, pk)
	if err != nil {
		t.Fatalf("VerifyDilithium3: %v", err)
	}
	if !ok {
		t.Fatalf("signature did not verify")
	}
}

func TestSignDilithium3_RejectsUnknownHash(t *testing.T) {
	_, sk, err := GenerateDilithium3Keypair(io.Reader(&deterministicReader{}))
	if err != nil {
		t.Fatalf("GenerateDilithium3Keypair: %v", err)
	}
	if _, err := SignDilithium3([]byte("m"), "md5", sk); err == nil {
		t.Fatalf("expected error for unsupported hash")
	}
}
