package changecontrol

import (
	"time"

	"clehr.dev/recordkit/audit"
	"clehr.dev/recordkit/identifier"
	"clehr.dev/recordkit/terminology"
)

// VersionedObject is the append-only version container for one logical
// record item. Versions are held in an arena in commit order, with lookup
// indices by version id and by exact commit timestamp, plus the revision
// history mirroring every commit and attestation.
//
// A container's state is exclusively owned: operations on one instance
// must be externally serialized, operations on distinct containers are
// independent. Two concurrent commits racing on the same head can fork
// the tree, so the host layer holds one lock per container uid.
type VersionedObject[T any] struct {
	uid         identifier.HierObjectID
	ownerID     identifier.ObjectRef
	timeCreated time.Time

	versions []Version[T]
	ids      []identifier.ObjectVersionID
	byID     map[string]int
	byTime   map[string]int
	history  audit.RevisionHistory
}

// NewVersionedObject creates an empty container. The uid has no extension
// by construction of HierObjectID; it must not be the zero identifier.
func NewVersionedObject[T any](uid identifier.HierObjectID, ownerID identifier.ObjectRef,
	timeCreated time.Time) (*VersionedObject[T], error) {
	if uid.IsZero() {
		return nil, newError(KindInvalidContainer, "RK-CC-030",
			"version container needs a valid uid")
	}
	return &VersionedObject[T]{
		uid:         uid,
		ownerID:     ownerID,
		timeCreated: timeCreated,
		byID:        make(map[string]int),
		byTime:      make(map[string]int),
	}, nil
}

// Rehydrate rebuilds a container from persisted state: its identity, the
// revision history as stored, and the versions in commit order. Indices
// are derived; the inputs are not revalidated against each other beyond
// container membership.
func Rehydrate[T any](uid identifier.HierObjectID, ownerID identifier.ObjectRef,
	timeCreated time.Time, history audit.RevisionHistory, versions []Version[T]) (*VersionedObject[T], error) {
	vo, err := NewVersionedObject[T](uid, ownerID, timeCreated)
	if err != nil {
		return nil, err
	}
	for _, v := range versions {
		if v.UID().ObjectID() != uid.Root() {
			return nil, newError(KindContainerMismatch, "RK-CC-031",
				"stored version "+v.UID().Value()+" does not belong to container "+uid.Value())
		}
		vo.index(v)
	}
	vo.history = history
	return vo, nil
}

// UID is the identity of this container, stable across all replicas.
func (vo *VersionedObject[T]) UID() identifier.HierObjectID { return vo.uid }

// OwnerID references the entity this container belongs to.
func (vo *VersionedObject[T]) OwnerID() identifier.ObjectRef { return vo.ownerID }

// TimeCreated is the creation time of the container itself.
func (vo *VersionedObject[T]) TimeCreated() time.Time { return vo.timeCreated }

// VersionCount returns the number of committed versions.
func (vo *VersionedObject[T]) VersionCount() int { return len(vo.ids) }

// AllVersionIDs returns the committed version ids in commit order.
func (vo *VersionedObject[T]) AllVersionIDs() []identifier.ObjectVersionID {
	return append([]identifier.ObjectVersionID(nil), vo.ids...)
}

// AllVersions returns the committed versions in commit order.
func (vo *VersionedObject[T]) AllVersions() []Version[T] {
	return append([]Version[T](nil), vo.versions...)
}

// HasVersionID reports whether a version with the given id exists.
func (vo *VersionedObject[T]) HasVersionID(id identifier.ObjectVersionID) bool {
	_, ok := vo.byID[id.Value()]
	return ok
}

// HasVersionAtTime reports whether a version was committed at exactly the
// given time. This is strict equality on the commit timestamp, not "the
// latest version as of t".
func (vo *VersionedObject[T]) HasVersionAtTime(t time.Time) bool {
	_, ok := vo.byTime[audit.TimeKey(t)]
	return ok
}

// VersionWithID returns the version with the given id.
func (vo *VersionedObject[T]) VersionWithID(id identifier.ObjectVersionID) (Version[T], error) {
	i, ok := vo.byID[id.Value()]
	if !ok {
		return nil, newError(KindVersionNotFound, "RK-CC-032",
			"version "+id.Value()+" not in container "+vo.uid.Value())
	}
	return vo.versions[i], nil
}

// VersionAtTime returns the version committed at exactly the given time.
func (vo *VersionedObject[T]) VersionAtTime(t time.Time) (Version[T], error) {
	i, ok := vo.byTime[audit.TimeKey(t)]
	if !ok {
		return nil, newError(KindVersionNotFound, "RK-CC-033",
			"no version committed at exactly "+audit.TimeKey(t)+" in container "+vo.uid.Value())
	}
	return vo.versions[i], nil
}

// IsOriginalVersion reports whether the version with the given id is an
// original version rather than an import.
func (vo *VersionedObject[T]) IsOriginalVersion(id identifier.ObjectVersionID) (bool, error) {
	v, err := vo.VersionWithID(id)
	if err != nil {
		return false, err
	}
	_, ok := v.(*OriginalVersion[T])
	return ok, nil
}

// LatestVersion returns the most recently committed version, on trunk or
// any branch, and false on an empty container.
func (vo *VersionedObject[T]) LatestVersion() (Version[T], bool) {
	if len(vo.versions) == 0 {
		return nil, false
	}
	return vo.versions[len(vo.versions)-1], true
}

// LatestTrunkVersion scans commit order from most recent backward for the
// first non-branch version, and returns false if there is none.
func (vo *VersionedObject[T]) LatestTrunkVersion() (Version[T], bool) {
	for i := len(vo.ids) - 1; i >= 0; i-- {
		if !vo.ids[i].IsBranch() {
			return vo.versions[i], true
		}
	}
	return nil, false
}

// TrunkLifecycleState returns the lifecycle state of the latest trunk
// version. A deleted code here means the container is logically deleted.
func (vo *VersionedObject[T]) TrunkLifecycleState() (terminology.CodedText, bool) {
	v, ok := vo.LatestTrunkVersion()
	if !ok {
		return terminology.CodedText{}, false
	}
	return v.LifecycleState(), true
}

// RevisionHistory returns a copy of the audit history: one item per
// committed version in commit order, commit audit first on each item.
func (vo *VersionedObject[T]) RevisionHistory() audit.RevisionHistory {
	items := make([]audit.RevisionHistoryItem, len(vo.history.Items))
	for i, item := range vo.history.Items {
		items[i] = audit.RevisionHistoryItem{
			VersionID: item.VersionID,
			Audits:    append([]audit.Entry(nil), item.Audits...),
		}
	}
	return audit.RevisionHistory{Items: items}
}

// precommitCheck enforces container membership and precedence: the new id
// must belong to this container, a first commit has no predecessor, and
// every later commit names a predecessor already held here.
func (vo *VersionedObject[T]) precommitCheck(newUID, preceding identifier.ObjectVersionID) error {
	if newUID.ObjectID() != vo.uid.Root() {
		return newError(KindContainerMismatch, "RK-CC-034",
			"new version "+newUID.Value()+" does not belong to container "+vo.uid.Value())
	}
	if preceding.IsZero() {
		if len(vo.ids) != 0 {
			return newError(KindPrecedenceViolation, "RK-CC-035",
				"only the first version may omit its preceding version")
		}
		return nil
	}
	if len(vo.ids) == 0 {
		return newError(KindPrecedenceViolation, "RK-CC-036",
			"the first version must omit its preceding version")
	}
	if _, ok := vo.byID[preceding.Value()]; !ok {
		return newError(KindPrecedenceViolation, "RK-CC-037",
			"preceding version "+preceding.Value()+" not in container "+vo.uid.Value())
	}
	return nil
}

func (vo *VersionedObject[T]) index(v Version[T]) {
	i := len(vo.versions)
	vo.versions = append(vo.versions, v)
	vo.ids = append(vo.ids, v.UID())
	vo.byID[v.UID().Value()] = i
	vo.byTime[audit.TimeKey(v.CommitAudit().TimeCommitted)] = i
}

func (vo *VersionedObject[T]) commitOriginal(ts terminology.Service, contribution identifier.ObjectRef,
	newUID, preceding identifier.ObjectVersionID, commitAudit audit.Details,
	lifecycleState terminology.CodedText, data T,
	otherInputUIDs []identifier.ObjectVersionID) (*OriginalVersion[T], error) {
	if err := vo.precommitCheck(newUID, preceding); err != nil {
		return nil, err
	}
	v, err := NewOriginalVersion(ts, OriginalVersionParams[T]{
		UID:                   newUID,
		PrecedingVersionUID:   preceding,
		OtherInputVersionUIDs: otherInputUIDs,
		LifecycleState:        lifecycleState,
		Data:                  data,
		Contribution:          contribution,
		CommitAudit:           commitAudit,
	})
	if err != nil {
		return nil, err
	}
	vo.index(v)
	vo.history.AppendAudit(v.UID(), commitAudit)
	return v, nil
}

// CommitOriginalVersion appends a new original version. A zero preceding
// id means "first version"; later commits must name an existing
// predecessor.
func (vo *VersionedObject[T]) CommitOriginalVersion(ts terminology.Service,
	contribution identifier.ObjectRef, newUID, preceding identifier.ObjectVersionID,
	commitAudit audit.Details, lifecycleState terminology.CodedText, data T) (*OriginalVersion[T], error) {
	return vo.commitOriginal(ts, contribution, newUID, preceding, commitAudit, lifecycleState, data, nil)
}

// CommitOriginalMergedVersion appends a new original version carrying
// merge provenance. The other input ids are not checked for membership;
// merge sources may live in other containers or systems.
func (vo *VersionedObject[T]) CommitOriginalMergedVersion(ts terminology.Service,
	contribution identifier.ObjectRef, newUID, preceding identifier.ObjectVersionID,
	commitAudit audit.Details, lifecycleState terminology.CodedText, data T,
	otherInputUIDs []identifier.ObjectVersionID) (*OriginalVersion[T], error) {
	if len(otherInputUIDs) == 0 {
		return nil, newError(KindEmptyCollection, "RK-CC-038",
			"merged version needs at least one other input version uid")
	}
	return vo.commitOriginal(ts, contribution, newUID, preceding, commitAudit, lifecycleState, data, otherInputUIDs)
}

// CommitImportedVersion appends an original version authored elsewhere,
// wrapped with local provenance for the import act. Identity and
// precedence come from the imported version itself.
func (vo *VersionedObject[T]) CommitImportedVersion(contribution identifier.ObjectRef,
	commitAudit audit.Details, item *OriginalVersion[T]) (*ImportedVersion[T], error) {
	if item == nil {
		return nil, newError(KindInvalidVersion, "RK-CC-039",
			"imported version commit needs the original version being imported")
	}
	preceding, _ := item.PrecedingVersionUID()
	if err := vo.precommitCheck(item.UID(), preceding); err != nil {
		return nil, err
	}
	v, err := NewImportedVersion(item, contribution, commitAudit, "")
	if err != nil {
		return nil, err
	}
	vo.index(v)
	vo.history.AppendAudit(v.UID(), commitAudit)
	return v, nil
}

// CommitAttestation appends an attestation to an existing original
// version and to its revision history item. Imported versions cannot be
// attested here; their source system owns their attestations.
func (vo *VersionedObject[T]) CommitAttestation(a audit.Attestation, target identifier.ObjectVersionID) error {
	v, err := vo.VersionWithID(target)
	if err != nil {
		return err
	}
	original, ok := v.(*OriginalVersion[T])
	if !ok {
		return newError(KindNotAnOriginalVersion, "RK-CC-040",
			"version "+target.Value()+" is an imported version and cannot be attested")
	}
	original.appendAttestation(a)
	vo.history.AppendAudit(target, a)
	return nil
}
