package storage

import "github.com/ipfs/go-cid"

// CAS is a minimal content-addressable archive. Record stores use it to
// archive the canonical bytes of every committed version, so a signature
// over the canonical form can be re-verified even after the live version
// record has grown attestations.
//
// Contract:
// - Put MUST be idempotent.
// - Stored objects MUST be immutable.
// - CIDs MUST be derived from the bytes written (callers are responsible for supplying canonical bytes).
// - Get MUST return ErrNotFound when the CID is absent.
type CAS interface {
	Put(bytes []byte) (cid.Cid, error)
	Get(id cid.Cid) ([]byte, error)
	Has(id cid.Cid) bool
}
