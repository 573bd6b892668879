// Package store is the host-layer service over the version-control core:
// it owns per-container serialization, clocks, commit identifiers, and
// signing, and drives a storage.RecordStore backend. The core packages
// stay pure; everything environmental lives here.
package store

import (
	"crypto/ed25519"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"clehr.dev/recordkit/audit"
	"clehr.dev/recordkit/changecontrol"
	"clehr.dev/recordkit/identifier"
	"clehr.dev/recordkit/keys"
	"clehr.dev/recordkit/storage"
	"clehr.dev/recordkit/terminology"
)

// Option configures a VersionedStore.
type Option func(*options)

type options struct {
	clock func() time.Time
	log   *zap.Logger
}

// WithClock supplies the commit timestamp source. The core never reads
// wall time; hosts inject it, tests fix it.
func WithClock(clock func() time.Time) Option {
	return func(o *options) { o.clock = clock }
}

// WithLogger supplies the structured logger. Default is a nop logger.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

// VersionedStore orchestrates container lifecycles over a RecordStore.
//
// Operations on one container are serialized by a per-container lock, so
// two concurrent commits cannot fork the tree. Distinct containers
// proceed independently.
type VersionedStore[T any] struct {
	backend storage.RecordStore[T]
	ts      terminology.Service
	clock   func() time.Time
	log     *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New builds a VersionedStore over a backend.
func New[T any](backend storage.RecordStore[T], ts terminology.Service, opts ...Option) (*VersionedStore[T], error) {
	if backend == nil {
		return nil, fmt.Errorf("store: backend is required")
	}
	if ts == nil {
		return nil, fmt.Errorf("store: terminology service is required")
	}
	o := options{clock: time.Now, log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &VersionedStore[T]{
		backend: backend,
		ts:      ts,
		clock:   o.clock,
		log:     o.log,
		locks:   make(map[string]*sync.Mutex),
	}, nil
}

func (s *VersionedStore[T]) containerLock(uid identifier.HierObjectID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[uid.Value()]
	if !ok {
		l = &sync.Mutex{}
		s.locks[uid.Value()] = l
	}
	return l
}

// CommitParams carries what every commit needs: who, from which system,
// why, and the payload with its lifecycle state.
type CommitParams[T any] struct {
	SystemID       string
	Committer      audit.PartyProxy
	Description    string
	LifecycleState terminology.CodedText // default: complete
	Data           T

	// Signer, when set, signs the version's canonical form before it is
	// persisted.
	Signer ed25519.PrivateKey
}

// UpdateParams extends CommitParams for non-first commits.
type UpdateParams[T any] struct {
	CommitParams[T]

	// ChangeType defaults to modification.
	ChangeType terminology.CodedText

	// PrecedingVersionUID defaults to the latest trunk version.
	PrecedingVersionUID identifier.ObjectVersionID
}

// CommitResult reports one persisted commit.
type CommitResult[T any] struct {
	ContainerUID identifier.HierObjectID
	Version      changecontrol.Version[T]
	Contribution changecontrol.Contribution
}

func (s *VersionedStore[T]) newContributionUID() (identifier.HierObjectID, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return identifier.HierObjectID{}, err
	}
	return identifier.ParseHierObjectID(id.String())
}

func versionRef(id identifier.ObjectVersionID) identifier.ObjectRef {
	return identifier.ObjectRef{Namespace: "ehr", Type: "VERSION", ID: id.Value()}
}

func lifecycleOrDefault(state terminology.CodedText) terminology.CodedText {
	if state == (terminology.CodedText{}) {
		return terminology.LifecycleComplete
	}
	return state
}

func (s *VersionedStore[T]) maybeSign(v changecontrol.Version[T], signer ed25519.PrivateKey) (changecontrol.Version[T], error) {
	if signer == nil {
		return v, nil
	}
	return keys.SignVersion(v, signer)
}

// Create opens a new container owned by owner and commits its first
// version, uid::system_id::1, under a fresh contribution.
func (s *VersionedStore[T]) Create(owner identifier.ObjectRef, p CommitParams[T]) (CommitResult[T], error) {
	uid, err := s.backend.GenerateContainerID()
	if err != nil {
		return CommitResult[T]{}, err
	}
	now := s.clock()

	if err := s.backend.CreateContainer(storage.ContainerMetadata{
		UID:         uid,
		OwnerID:     owner,
		TimeCreated: now,
	}); err != nil {
		return CommitResult[T]{}, err
	}

	vo, err := changecontrol.NewVersionedObject[T](uid, owner, now)
	if err != nil {
		return CommitResult[T]{}, err
	}
	commitAudit, err := audit.NewDetails(s.ts, p.SystemID, now, terminology.ChangeTypeCreation,
		p.Committer, p.Description)
	if err != nil {
		return CommitResult[T]{}, err
	}
	versionID, err := identifier.ParseObjectVersionID(uid.Value() + "::" + p.SystemID + "::1")
	if err != nil {
		return CommitResult[T]{}, err
	}
	cuid, err := s.newContributionUID()
	if err != nil {
		return CommitResult[T]{}, err
	}
	contribution, err := changecontrol.NewContribution(cuid,
		[]identifier.ObjectRef{versionRef(versionID)}, commitAudit)
	if err != nil {
		return CommitResult[T]{}, err
	}
	v, err := vo.CommitOriginalVersion(s.ts, contribution.Ref(), versionID,
		identifier.ObjectVersionID{}, commitAudit, lifecycleOrDefault(p.LifecycleState), p.Data)
	if err != nil {
		return CommitResult[T]{}, err
	}
	persisted, err := s.maybeSign(v, p.Signer)
	if err != nil {
		return CommitResult[T]{}, err
	}
	if err := s.backend.CommitContributionSet(uid, contribution,
		[]changecontrol.Version[T]{persisted}, vo.RevisionHistory()); err != nil {
		return CommitResult[T]{}, err
	}

	s.log.Info("container created",
		zap.String("container", uid.Value()),
		zap.String("version", versionID.Value()),
		zap.String("contribution", cuid.Value()))
	return CommitResult[T]{ContainerUID: uid, Version: persisted, Contribution: contribution}, nil
}

func (s *VersionedStore[T]) load(uid identifier.HierObjectID) (*changecontrol.VersionedObject[T], error) {
	meta, history, versions, err := s.backend.RetrieveContainer(uid)
	if err != nil {
		return nil, err
	}
	return changecontrol.Rehydrate(meta.UID, meta.OwnerID, meta.TimeCreated, history, versions)
}

// Update commits the next version of an existing container. The new id
// succeeds the preceding version's trunk number on the committing system.
func (s *VersionedStore[T]) Update(containerUID identifier.HierObjectID, p UpdateParams[T]) (CommitResult[T], error) {
	l := s.containerLock(containerUID)
	l.Lock()
	defer l.Unlock()

	vo, err := s.load(containerUID)
	if err != nil {
		return CommitResult[T]{}, err
	}

	preceding := p.PrecedingVersionUID
	if preceding.IsZero() {
		latest, ok := vo.LatestTrunkVersion()
		if !ok {
			return CommitResult[T]{}, fmt.Errorf("%w: container %s has no trunk version to update",
				storage.ErrNotFound, containerUID.Value())
		}
		preceding = latest.UID()
	}
	nextTree, err := preceding.VersionTreeID().NextTrunk()
	if err != nil {
		return CommitResult[T]{}, err
	}
	versionID, err := identifier.ParseObjectVersionID(
		containerUID.Value() + "::" + p.SystemID + "::" + nextTree.Value())
	if err != nil {
		return CommitResult[T]{}, err
	}

	changeType := p.ChangeType
	if changeType == (terminology.CodedText{}) {
		changeType = terminology.ChangeTypeModification
	}
	now := s.clock()
	commitAudit, err := audit.NewDetails(s.ts, p.SystemID, now, changeType, p.Committer, p.Description)
	if err != nil {
		return CommitResult[T]{}, err
	}
	cuid, err := s.newContributionUID()
	if err != nil {
		return CommitResult[T]{}, err
	}
	contribution, err := changecontrol.NewContribution(cuid,
		[]identifier.ObjectRef{versionRef(versionID)}, commitAudit)
	if err != nil {
		return CommitResult[T]{}, err
	}
	v, err := vo.CommitOriginalVersion(s.ts, contribution.Ref(), versionID, preceding,
		commitAudit, lifecycleOrDefault(p.LifecycleState), p.Data)
	if err != nil {
		return CommitResult[T]{}, err
	}
	persisted, err := s.maybeSign(v, p.Signer)
	if err != nil {
		return CommitResult[T]{}, err
	}
	if err := s.backend.CommitContributionSet(containerUID, contribution,
		[]changecontrol.Version[T]{persisted}, vo.RevisionHistory()); err != nil {
		return CommitResult[T]{}, err
	}

	s.log.Info("version committed",
		zap.String("container", containerUID.Value()),
		zap.String("version", versionID.Value()),
		zap.String("change_type", commitAudit.ChangeType.Value))
	return CommitResult[T]{ContainerUID: containerUID, Version: persisted, Contribution: contribution}, nil
}

// Delete commits a logical deletion: a new trunk version carrying the
// latest trunk payload with lifecycle state deleted. The container itself
// is never removed.
func (s *VersionedStore[T]) Delete(containerUID identifier.HierObjectID, p CommitParams[T]) (CommitResult[T], error) {
	latest, err := s.ReadLatest(containerUID)
	if err != nil {
		return CommitResult[T]{}, err
	}
	p.Data = latest.Data()
	p.LifecycleState = terminology.LifecycleDeleted
	return s.Update(containerUID, UpdateParams[T]{
		CommitParams: p,
		ChangeType:   terminology.ChangeTypeDeleted,
	})
}

// AttestParams carries the attester's identity and proof material.
type AttestParams struct {
	SystemID    string
	Committer   audit.PartyProxy
	Description string
	Reason      terminology.CodedText // default: signed
	IsPending   bool
	Options     audit.AttestationOptions
}

// Attest appends an attestation to an existing original version and
// records it in the revision history.
func (s *VersionedStore[T]) Attest(containerUID identifier.HierObjectID,
	versionID identifier.ObjectVersionID, p AttestParams) error {
	l := s.containerLock(containerUID)
	l.Lock()
	defer l.Unlock()

	vo, err := s.load(containerUID)
	if err != nil {
		return err
	}

	now := s.clock()
	details, err := audit.NewDetails(s.ts, p.SystemID, now, terminology.ChangeTypeAttestation,
		p.Committer, p.Description)
	if err != nil {
		return err
	}
	reason := p.Reason
	if reason == (terminology.CodedText{}) {
		reason = terminology.ReasonSigned
	}
	att, err := audit.NewAttestation(s.ts, details, reason, p.IsPending, p.Options)
	if err != nil {
		return err
	}
	if err := vo.CommitAttestation(att, versionID); err != nil {
		return err
	}
	attested, err := vo.VersionWithID(versionID)
	if err != nil {
		return err
	}
	if err := s.backend.AppendAttestation(containerUID, attested, vo.RevisionHistory()); err != nil {
		return err
	}

	s.log.Info("version attested",
		zap.String("container", containerUID.Value()),
		zap.String("version", versionID.Value()),
		zap.String("reason", reason.Value))
	return nil
}

// RetrieveContainer rebuilds the full container from the backend.
func (s *VersionedStore[T]) RetrieveContainer(uid identifier.HierObjectID) (*changecontrol.VersionedObject[T], error) {
	return s.load(uid)
}

// ReadLatest returns the latest trunk version of a container.
func (s *VersionedStore[T]) ReadLatest(containerUID identifier.HierObjectID) (changecontrol.Version[T], error) {
	vo, err := s.load(containerUID)
	if err != nil {
		return nil, err
	}
	latest, ok := vo.LatestTrunkVersion()
	if !ok {
		return nil, fmt.Errorf("%w: container %s holds no trunk version",
			storage.ErrNotFound, containerUID.Value())
	}
	return latest, nil
}

// ReadVersion returns one version by id.
func (s *VersionedStore[T]) ReadVersion(containerUID identifier.HierObjectID,
	versionID identifier.ObjectVersionID) (changecontrol.Version[T], error) {
	return s.backend.RetrieveVersion(containerUID, versionID)
}

// IsDeleted reports whether the container is logically deleted: its
// latest trunk version carries the deleted lifecycle state.
func (s *VersionedStore[T]) IsDeleted(containerUID identifier.HierObjectID) (bool, error) {
	latest, err := s.ReadLatest(containerUID)
	if err != nil {
		return false, err
	}
	return latest.LifecycleState() == terminology.LifecycleDeleted, nil
}
