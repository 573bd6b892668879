package keys

import (
	"crypto/ed25519"
	"fmt"

	"clehr.dev/recordkit/changecontrol"
)

// SignVersion signs v's canonical form with an Ed25519 key and returns a
// copy carrying the base64 signature. The canonical form excludes the
// signature field by construction, so signing is idempotent.
func SignVersion[T any](v changecontrol.Version[T], privateKey ed25519.PrivateKey) (changecontrol.Version[T], error) {
	canonical, err := changecontrol.CanonicalForm(v)
	if err != nil {
		return nil, err
	}
	sig := SignEd25519SHA256(canonical, privateKey)
	switch version := v.(type) {
	case *changecontrol.OriginalVersion[T]:
		return version.WithSignature(sig), nil
	case *changecontrol.ImportedVersion[T]:
		return version.WithSignature(sig), nil
	default:
		return nil, fmt.Errorf("unsupported version type %T", v)
	}
}

// VerifyVersionSignature checks v's embedded signature against a
// committer key. The canonical form includes attestations, so a version
// mutated after signing verifies only against its archived commit-time
// bytes, not through this helper.
func VerifyVersionSignature[T any](v changecontrol.Version[T], committerKey string) (bool, error) {
	sig := v.Signature()
	if sig == "" {
		return false, fmt.Errorf("version %s carries no signature", v.UID().Value())
	}
	canonical, err := changecontrol.CanonicalForm(v)
	if err != nil {
		return false, err
	}
	return VerifyEd25519SHA256(canonical, sig, committerKey)
}
