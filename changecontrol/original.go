package changecontrol

import (
	"clehr.dev/recordkit/audit"
	"clehr.dev/recordkit/identifier"
	"clehr.dev/recordkit/terminology"
)

// OriginalVersion is a version whose content was authored in this system.
// It owns its identity, lifecycle state, payload, merge provenance and any
// attestations layered on after commit.
type OriginalVersion[T any] struct {
	uid                 identifier.ObjectVersionID
	precedingVersionUID identifier.ObjectVersionID
	otherInputUIDs      []identifier.ObjectVersionID
	lifecycleState      terminology.CodedText
	attestations        []audit.Attestation
	data                T
	contribution        identifier.ObjectRef
	commitAudit         audit.Details
	signature           string
}

// OriginalVersionParams carries the inputs to NewOriginalVersion.
// PrecedingVersionUID zero means "first version". OtherInputVersionUIDs,
// if provided, must be non-empty and marks the version as merged.
type OriginalVersionParams[T any] struct {
	UID                   identifier.ObjectVersionID
	PrecedingVersionUID   identifier.ObjectVersionID
	OtherInputVersionUIDs []identifier.ObjectVersionID
	LifecycleState        terminology.CodedText
	Data                  T
	Contribution          identifier.ObjectRef
	CommitAudit           audit.Details
	Signature             string
	Attestations          []audit.Attestation
}

// NewOriginalVersion validates and builds an original version. The
// lifecycle state code must belong to the version-lifecycle-state group of
// the given terminology service.
func NewOriginalVersion[T any](ts terminology.Service, p OriginalVersionParams[T]) (*OriginalVersion[T], error) {
	if p.UID.IsZero() {
		return nil, newError(KindInvalidVersion, "RK-CC-001",
			"original version needs a version id")
	}
	if err := terminology.VerifyCodeOrError(ts, p.LifecycleState.DefiningCode,
		terminology.GroupVersionLifecycleState, "lifecycle_state_valid"); err != nil {
		return nil, wrapError(KindInvalidLifecycleState, "RK-CC-002",
			"lifecycle state is not a known version lifecycle state code", err)
	}
	if p.OtherInputVersionUIDs != nil && len(p.OtherInputVersionUIDs) == 0 {
		return nil, newError(KindEmptyCollection, "RK-CC-003",
			"other input version uids, if provided, must be non-empty")
	}
	if p.Attestations != nil && len(p.Attestations) == 0 {
		return nil, newError(KindEmptyCollection, "RK-CC-004",
			"attestations, if provided, must be non-empty")
	}
	v := &OriginalVersion[T]{
		uid:                 p.UID,
		precedingVersionUID: p.PrecedingVersionUID,
		lifecycleState:      p.LifecycleState,
		data:                p.Data,
		contribution:        p.Contribution,
		commitAudit:         p.CommitAudit,
		signature:           p.Signature,
	}
	if p.OtherInputVersionUIDs != nil {
		v.otherInputUIDs = append([]identifier.ObjectVersionID(nil), p.OtherInputVersionUIDs...)
	}
	if p.Attestations != nil {
		v.attestations = append([]audit.Attestation(nil), p.Attestations...)
	}
	return v, nil
}

func (v *OriginalVersion[T]) UID() identifier.ObjectVersionID { return v.uid }

func (v *OriginalVersion[T]) PrecedingVersionUID() (identifier.ObjectVersionID, bool) {
	if v.precedingVersionUID.IsZero() {
		return identifier.ObjectVersionID{}, false
	}
	return v.precedingVersionUID, true
}

func (v *OriginalVersion[T]) Data() T { return v.data }

func (v *OriginalVersion[T]) LifecycleState() terminology.CodedText { return v.lifecycleState }

func (v *OriginalVersion[T]) OwnerID() identifier.HierObjectID { return v.uid.OwnerID() }

func (v *OriginalVersion[T]) IsBranch() bool { return v.uid.IsBranch() }

func (v *OriginalVersion[T]) Contribution() identifier.ObjectRef { return v.contribution }

func (v *OriginalVersion[T]) CommitAudit() audit.Details { return v.commitAudit }

func (v *OriginalVersion[T]) Signature() string { return v.signature }

// IsMerged reports whether this version was created from more than just
// its preceding version.
func (v *OriginalVersion[T]) IsMerged() bool { return v.otherInputUIDs != nil }

// OtherInputVersionUIDs returns a copy of the merge provenance ids, or nil
// for a non-merged version.
func (v *OriginalVersion[T]) OtherInputVersionUIDs() []identifier.ObjectVersionID {
	if v.otherInputUIDs == nil {
		return nil
	}
	return append([]identifier.ObjectVersionID(nil), v.otherInputUIDs...)
}

// Attestations returns a copy of the attestations on this version, or nil
// if none have been committed.
func (v *OriginalVersion[T]) Attestations() []audit.Attestation {
	if v.attestations == nil {
		return nil
	}
	return append([]audit.Attestation(nil), v.attestations...)
}

// WithSignature returns a copy of v carrying the given detached signature.
// The canonical form excludes the signature, so signing after construction
// does not invalidate the signed bytes.
func (v *OriginalVersion[T]) WithSignature(sig string) *OriginalVersion[T] {
	out := *v
	out.signature = sig
	return &out
}

// appendAttestation is invoked by the owning container only; attestation
// order is append order.
func (v *OriginalVersion[T]) appendAttestation(a audit.Attestation) {
	v.attestations = append(v.attestations, a)
}

func (*OriginalVersion[T]) sealed() {}
