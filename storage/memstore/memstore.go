// Package memstore provides the in-memory storage backend: a RecordStore
// holding encoded records in maps, plus a memory CAS for canonical bytes.
// It is the reference backend for tests and single-process use; records
// round-trip through the same codec the durable backends use.
package memstore

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"clehr.dev/recordkit/audit"
	"clehr.dev/recordkit/changecontrol"
	"clehr.dev/recordkit/identifier"
	"clehr.dev/recordkit/storage"
	"clehr.dev/recordkit/terminology"
)

type container struct {
	meta          []byte
	history       []byte
	versions      [][]byte
	byID          map[string]int
	contributions map[string][]byte
}

// Store is an in-memory RecordStore. Records are kept in encoded form so
// every retrieval exercises the same decode path a durable store would.
type Store[T any] struct {
	ts      terminology.Service
	archive *CAS

	mu         sync.RWMutex
	containers map[string]*container
}

// New constructs an empty in-memory store. The terminology service is
// used to revalidate version records on decode.
func New[T any](ts terminology.Service) *Store[T] {
	return &Store[T]{
		ts:         ts,
		archive:    NewCAS(),
		containers: make(map[string]*container),
	}
}

// Archive exposes the canonical-bytes archive backing this store.
func (s *Store[T]) Archive() storage.CAS { return s.archive }

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
	key := meta.UID.Value()
	if _, exists := s.containers[key]; exists {
		return storage.ErrDuplicateContainer
	}
	s.containers[key] = &container{
		meta:          encoded,
		history:       emptyHistory,
		byID:          make(map[string]int),
		contributions: make(map[string][]byte),
	}
	return nil
}

func (s *Store[T]) RetrieveContainer(uid identifier.HierObjectID) (storage.ContainerMetadata, audit.RevisionHistory, []changecontrol.Version[T], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.containers[uid.Value()]
	if !ok {
		return storage.ContainerMetadata{}, audit.RevisionHistory{}, nil, storage.ErrNotFound
	}
	var meta storage.ContainerMetadata
	if err := json.Unmarshal(c.meta, &meta); err != nil {
		return storage.ContainerMetadata{}, audit.RevisionHistory{}, nil, err
	}
	var history audit.RevisionHistory
	if err := json.Unmarshal(c.history, &history); err != nil {
		return storage.ContainerMetadata{}, audit.RevisionHistory{}, nil, err
	}
	versions := make([]changecontrol.Version[T], 0, len(c.versions))
	for _, encoded := range c.versions {
		v, err := changecontrol.DecodeVersion[T](s.ts, encoded)
		if err != nil {
			return storage.ContainerMetadata{}, audit.RevisionHistory{}, nil, err
		}
		versions = append(versions, v)
	}
	return meta, history, versions, nil
}

func (s *Store[T]) RetrieveVersion(containerUID identifier.HierObjectID, versionID identifier.ObjectVersionID) (changecontrol.Version[T], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.containers[containerUID.Value()]
	if !ok {
		return nil, storage.ErrNotFound
	}
	i, ok := c.byID[versionID.Value()]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return changecontrol.DecodeVersion[T](s.ts, c.versions[i])
}

func (s *Store[T]) RetrieveContribution(containerUID, contributionUID identifier.HierObjectID) (changecontrol.Contribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.containers[containerUID.Value()]
	if !ok {
		return changecontrol.Contribution{}, storage.ErrNotFound
	}
	encoded, ok := c.contributions[contributionUID.Value()]
	if !ok {
		return changecontrol.Contribution{}, storage.ErrNotFound
	}
	var out changecontrol.Contribution
	if err := json.Unmarshal(encoded, &out); err != nil {
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
	for _, v := range versions {
		encoded, err := json.Marshal(v)
		if err != nil {
			return err
		}
		encodedVersions = append(encodedVersions, encoded)
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
	c, ok := s.containers[containerUID.Value()]
	if !ok {
		return storage.ErrNotFound
	}
	for _, v := range versions {
		if _, dup := c.byID[v.UID().Value()]; dup {
			return fmt.Errorf("%w: version %s already stored", storage.ErrImmutable, v.UID().Value())
		}
	}
	for i, v := range versions {
		canonical, err := changecontrol.CanonicalForm(v)
		if err != nil {
			return err
		}
		if _, err := s.archive.Put(canonical); err != nil {
			return err
		}
		c.byID[v.UID().Value()] = len(c.versions)
		c.versions = append(c.versions, encodedVersions[i])
	}
	c.contributions[contribution.UID.Value()] = encodedContribution
	c.history = encodedHistory
	return nil
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
	c, ok := s.containers[containerUID.Value()]
	if !ok {
		return storage.ErrNotFound
	}
	i, ok := c.byID[attested.UID().Value()]
	if !ok {
		return storage.ErrNotFound
	}
	c.versions[i] = encoded
	c.history = encodedHistory
	return nil
}
