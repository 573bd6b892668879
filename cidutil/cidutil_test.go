package cidutil

import "testing"

func TestCIDv1RawSHA256Deterministic(t *testing.T) {
	data := []byte(`{"_type":"ORIGINAL_VERSION","uid":"x::y::1"}`)
	a := CIDv1RawSHA256(data)
	b := CIDv1RawSHA256(data)
	if a == "" {
		t.Fatal("empty cid")
	}
	if a != b {
		t.Fatalf("non-deterministic: %s vs %s", a, b)
	}
	if a[0] != 'b' {
		t.Fatalf("expected base32 CIDv1 prefix, got %s", a)
	}
}

func TestCIDv1RawSHA256DistinguishesContent(t *testing.T) {
	a := CIDv1RawSHA256([]byte("one"))
	b := CIDv1RawSHA256([]byte("two"))
	if a == b {
		t.Fatal("distinct content produced same cid")
	}
}

func TestVerify(t *testing.T) {
	data := []byte("payload")
	c := CIDv1RawSHA256(data)
	if !Verify(c, data) {
		t.Fatal("Verify rejected matching data")
	}
	if Verify(c, []byte("tampered")) {
		t.Fatal("Verify accepted tampered data")
	}
	if Verify("", data) {
		t.Fatal("Verify accepted empty cid")
	}
}
