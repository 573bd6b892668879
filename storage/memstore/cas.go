package memstore

import (
	"bytes"
	"sync"

	"github.com/ipfs/go-cid"

	"clehr.dev/recordkit/cidutil"
	"clehr.dev/recordkit/storage"
)

// CAS is an in-memory content-addressable archive.
type CAS struct {
	mu      sync.RWMutex
	objects map[cid.Cid][]byte
}

// NewCAS constructs an empty memory archive.
func NewCAS() *CAS {
	return &CAS{objects: make(map[cid.Cid][]byte)}
}

func (c *CAS) Put(b []byte) (cid.Cid, error) {
	id, err := cidutil.CIDv1RawSHA256CID(b)
	if err != nil {
		return cid.Undef, err
	}
	if !id.Defined() {
		return cid.Undef, storage.ErrInvalidCID
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.objects[id]; ok {
		if !bytes.Equal(existing, b) {
			return cid.Undef, storage.ErrImmutable
		}
		return id, nil
	}
	c.objects[id] = append([]byte(nil), b...)
	return id, nil
}

func (c *CAS) Get(id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, storage.ErrInvalidCID
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.objects[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

func (c *CAS) Has(id cid.Cid) bool {
	if !id.Defined() {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.objects[id]
	return ok
}
