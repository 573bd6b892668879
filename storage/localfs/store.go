package localfs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"clehr.dev/recordkit/audit"
	"clehr.dev/recordkit/changecontrol"
	"clehr.dev/recordkit/identifier"
	"clehr.dev/recordkit/storage"
	"clehr.dev/recordkit/terminology"
)

// Store is a filesystem-backed RecordStore.
//
// Layout under root:
//
//	archive/<aa>/<cid>                          canonical version bytes
//	containers/<uid>/meta.json                  container identity, written once
//	containers/<uid>/history.json               revision history snapshot
//	containers/<uid>/contributions/<cuid>.json  contribution records, written once
//	containers/<uid>/versions/<seq>.json        version records in commit order
//
// Version files are sequence-numbered so commit order survives without an
// index file. Writes within one process are serialized by an internal
// lock; cross-process writers need external coordination.
type Store[T any] struct {
	root    string
	ts      terminology.Service
	archive *CAS

	mu sync.Mutex
}

// New constructs a filesystem store rooted at root. The terminology
// service is used to revalidate version records on decode.
func New[T any](root string, ts terminology.Service) (*Store[T], error) {
	if root == "" {
		return nil, errors.New("localfs: root directory is required")
	}
	if ts == nil {
		return nil, errors.New("localfs: terminology service is required")
	}
	if err := os.MkdirAll(filepath.Join(root, "containers"), 0o755); err != nil {
		return nil, err
	}
	archive, err := NewCAS(filepath.Join(root, "archive"))
	if err != nil {
		return nil, err
	}
	return &Store[T]{root: root, ts: ts, archive: archive}, nil
}

// Archive exposes the canonical-bytes archive backing this store.
func (s *Store[T]) Archive() storage.CAS { return s.archive }

func (s *Store[T]) containerDir(uid identifier.HierObjectID) string {
	return filepath.Join(s.root, "containers", uid.Value())
}

func (s *Store[T]) GenerateContainerID() (identifier.HierObjectID, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return identifier.HierObjectID{}, err
	}
	return identifier.ParseHierObjectID(id.String())
}

func (s *Store[T]) CreateContainer(meta storage.ContainerMetadata) error {
	encoded, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	emptyHistory, err := json.Marshal(audit.RevisionHistory{})
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	dir := s.containerDir(meta.UID)
	if err := os.MkdirAll(filepath.Join(dir, "versions"), 0o755); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(dir, "contributions"), 0o755); err != nil {
		return err
	}
	if err := writeFileExclusive(filepath.Join(dir, "meta.json"), encoded); err != nil {
		if os.IsExist(err) {
			return storage.ErrDuplicateContainer
		}
		return err
	}
	return writeFileAtomic(filepath.Join(dir, "history.json"), emptyHistory)
}

func (s *Store[T]) readMeta(uid identifier.HierObjectID) (storage.ContainerMetadata, error) {
	b, err := os.ReadFile(filepath.Join(s.containerDir(uid), "meta.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return storage.ContainerMetadata{}, storage.ErrNotFound
		}
		return storage.ContainerMetadata{}, err
	}
	var meta storage.ContainerMetadata
	if err := json.Unmarshal(b, &meta); err != nil {
		return storage.ContainerMetadata{}, err
	}
	return meta, nil
}

func (s *Store[T]) versionFiles(uid identifier.HierObjectID) ([]string, error) {
	dir := filepath.Join(s.containerDir(uid), "versions")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store[T]) RetrieveContainer(uid identifier.HierObjectID) (storage.ContainerMetadata, audit.RevisionHistory, []changecontrol.Version[T], error) {
	meta, err := s.readMeta(uid)
	if err != nil {
		return storage.ContainerMetadata{}, audit.RevisionHistory{}, nil, err
	}
	historyBytes, err := os.ReadFile(filepath.Join(s.containerDir(uid), "history.json"))
	if err != nil {
		return storage.ContainerMetadata{}, audit.RevisionHistory{}, nil, err
	}
	var history audit.RevisionHistory
	if err := json.Unmarshal(historyBytes, &history); err != nil {
		return storage.ContainerMetadata{}, audit.RevisionHistory{}, nil, err
	}

	files, err := s.versionFiles(uid)
	if err != nil {
		return storage.ContainerMetadata{}, audit.RevisionHistory{}, nil, err
	}
	versions := make([]changecontrol.Version[T], 0, len(files))
	for _, name := range files {
		b, err := os.ReadFile(name)
		if err != nil {
			return storage.ContainerMetadata{}, audit.RevisionHistory{}, nil, err
		}
		v, err := changecontrol.DecodeVersion[T](s.ts, b)
		if err != nil {
			return storage.ContainerMetadata{}, audit.RevisionHistory{}, nil, err
		}
		versions = append(versions, v)
	}
	return meta, history, versions, nil
}

func (s *Store[T]) findVersionFile(containerUID identifier.HierObjectID, versionID identifier.ObjectVersionID) (string, changecontrol.Version[T], error) {
	files, err := s.versionFiles(containerUID)
	if err != nil {
		return "", nil, err
	}
	for _, name := range files {
		b, err := os.ReadFile(name)
		if err != nil {
			return "", nil, err
		}
		v, err := changecontrol.DecodeVersion[T](s.ts, b)
		if err != nil {
			return "", nil, err
		}
		if v.UID() == versionID {
			return name, v, nil
		}
	}
	return "", nil, storage.ErrNotFound
}

func (s *Store[T]) RetrieveVersion(containerUID identifier.HierObjectID, versionID identifier.ObjectVersionID) (changecontrol.Version[T], error) {
	_, v, err := s.findVersionFile(containerUID, versionID)
	return v, err
}

func (s *Store[T]) RetrieveContribution(containerUID, contributionUID identifier.HierObjectID) (changecontrol.Contribution, error) {
	path := filepath.Join(s.containerDir(containerUID), "contributions", contributionUID.Value()+".json")
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return changecontrol.Contribution{}, storage.ErrNotFound
		}
		return changecontrol.Contribution{}, err
	}
	var out changecontrol.Contribution
	if err := json.Unmarshal(b, &out); err != nil {
		return changecontrol.Contribution{}, err
	}
	return out, nil
}

func (s *Store[T]) CommitContributionSet(containerUID identifier.HierObjectID, contribution changecontrol.Contribution,
	versions []changecontrol.Version[T], history audit.RevisionHistory) error {
	if err := storage.CheckBatch(containerUID, contribution, versions); err != nil {
		return err
	}

	encodedVersions := make([][]byte, 0, len(versions))
	canonicalForms := make([][]byte, 0, len(versions))
	for _, v := range versions {
		encoded, err := json.Marshal(v)
		if err != nil {
			return err
		}
		canonical, err := changecontrol.CanonicalForm(v)
		if err != nil {
			return err
		}
		encodedVersions = append(encodedVersions, encoded)
		canonicalForms = append(canonicalForms, canonical)
	}
	encodedContribution, err := json.Marshal(contribution)
	if err != nil {
		return err
	}
	encodedHistory, err := json.Marshal(history)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.readMeta(containerUID); err != nil {
		return err
	}
	existing, err := s.versionFiles(containerUID)
	if err != nil {
		return err
	}
	for _, v := range versions {
		if _, _, err := s.findVersionFile(containerUID, v.UID()); err == nil {
			return fmt.Errorf("%w: version %s already stored", storage.ErrImmutable, v.UID().Value())
		} else if !storage.IsNotFound(err) {
			return err
		}
	}

	// Contribution first: a batch is visible only as a whole.
	contributionPath := filepath.Join(s.containerDir(containerUID), "contributions", contribution.UID.Value()+".json")
	if err := writeFileExclusive(contributionPath, encodedContribution); err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%w: contribution %s already stored", storage.ErrImmutable, contribution.UID.Value())
		}
		return err
	}
	seq := len(existing)
	for i := range versions {
		if _, err := s.archive.Put(canonicalForms[i]); err != nil {
			return err
		}
		name := filepath.Join(s.containerDir(containerUID), "versions", fmt.Sprintf("%06d.json", seq+i))
		if err := writeFileExclusive(name, encodedVersions[i]); err != nil {
			return err
		}
	}
	return writeFileAtomic(filepath.Join(s.containerDir(containerUID), "history.json"), encodedHistory)
}

func (s *Store[T]) AppendAttestation(containerUID identifier.HierObjectID, attested changecontrol.Version[T],
	history audit.RevisionHistory) error {
	encoded, err := json.Marshal(attested)
	if err != nil {
		return err
	}
	encodedHistory, err := json.Marshal(history)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	name, _, err := s.findVersionFile(containerUID, attested.UID())
	if err != nil {
		return err
	}
	if err := writeFileAtomic(name, encoded); err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(s.containerDir(containerUID), "history.json"), encodedHistory)
}

func writeFileExclusive(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
