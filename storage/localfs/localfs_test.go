package localfs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"clehr.dev/recordkit/cidutil"
	"clehr.dev/recordkit/storage"
	"clehr.dev/recordkit/storage/testkit"
	"clehr.dev/recordkit/terminology"
)

func TestLocalFSStoreConformance(t *testing.T) {
	testkit.RunRecordStoreConformance(t, func(t *testing.T) storage.RawStore {
		s, err := New[json.RawMessage](t.TempDir(), terminology.NewLocalService())
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		return s
	})
}

func TestLocalFSCASConformance(t *testing.T) {
	testkit.RunCASConformance(t, func(t *testing.T) storage.CAS {
		c, err := NewCAS(t.TempDir())
		if err != nil {
			t.Fatalf("NewCAS: %v", err)
		}
		return c
	})
}

func TestCASShardedLayout(t *testing.T) {
	root := t.TempDir()
	c, err := NewCAS(root)
	if err != nil {
		t.Fatalf("NewCAS: %v", err)
	}
	id, err := c.Put([]byte("sharded object"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	s := id.String()
	path := filepath.Join(root, s[:2], s)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected object at %s: %v", path, err)
	}
}

func TestCASDetectsTamperedObject(t *testing.T) {
	root := t.TempDir()
	c, err := NewCAS(root)
	if err != nil {
		t.Fatalf("NewCAS: %v", err)
	}
	id, err := c.Put([]byte("original bytes"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	s := id.String()
	path := filepath.Join(root, s[:2], s)
	if err := os.Chmod(path, 0o644); err != nil {
		t.Fatalf("Chmod: %v", err)
	}
	if err := os.WriteFile(path, []byte("tampered bytes"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := c.Get(id); err != storage.ErrCIDMismatch {
		t.Fatalf("Get tampered: got %v want ErrCIDMismatch", err)
	}
}

func TestCASRejectsConflictingPut(t *testing.T) {
	root := t.TempDir()
	c, err := NewCAS(root)
	if err != nil {
		t.Fatalf("NewCAS: %v", err)
	}
	id, err := c.Put([]byte("stable content"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	// Re-putting identical bytes is fine; that is how replication converges.
	again, err := c.Put([]byte("stable content"))
	if err != nil || again != id {
		t.Fatalf("idempotent Put = %s, %v", again, err)
	}

	// Overwrite on disk, then confirm a mismatched existing file is refused.
	s := id.String()
	path := filepath.Join(root, s[:2], s)
	if err := os.Chmod(path, 0o644); err != nil {
		t.Fatalf("Chmod: %v", err)
	}
	if err := os.WriteFile(path, []byte("drifted content"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := c.Put([]byte("stable content")); err != storage.ErrImmutable {
		t.Fatalf("conflicting Put: got %v want ErrImmutable", err)
	}
}

func TestArchiveCarriesCanonicalCommitBytes(t *testing.T) {
	ts := terminology.NewLocalService()
	s, err := New[json.RawMessage](t.TempDir(), ts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	payload := []byte(`{"note":"archived"}`)
	id, err := s.Archive().Put(payload)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !cidutil.Verify(id.String(), payload) {
		t.Fatalf("archive CID does not verify against bytes")
	}
}
