// Package changecontrol implements the version-control engine: immutable
// versions, the append-only version container, and the contribution batch
// record that groups versions committed together.
//
// A container (VersionedObject) records the history of one logical record
// item as a sequence of Versions. Every commit is precedence-checked: the
// first version has no predecessor, every later version must name a
// predecessor already held by the container. Attestations are layered onto
// original versions after the fact. The engine is pure in-memory state;
// durability belongs to the storage layer.
package changecontrol

import (
	"clehr.dev/recordkit/audit"
	"clehr.dev/recordkit/identifier"
	"clehr.dev/recordkit/terminology"
)

// Version is one immutable version held in a version container. The two
// implementations are *OriginalVersion (content authored in this system)
// and *ImportedVersion (a foreign original version plus local provenance
// for the act of importing it).
//
// The interface is sealed; implementations live in this package only.
type Version[T any] interface {
	// UID is the globally unique identifier of this version. Its object
	// id part equals the UID of the containing version container.
	UID() identifier.ObjectVersionID

	// PrecedingVersionUID returns the id of the version this one was
	// derived from, and false for a first version.
	PrecedingVersionUID() (identifier.ObjectVersionID, bool)

	// Data is the payload content of this version. The engine stores it
	// and never inspects it.
	Data() T

	// LifecycleState is the coded lifecycle state of the content.
	LifecycleState() terminology.CodedText

	// OwnerID is the UID of the owning version container, extracted from
	// the version id's object id part.
	OwnerID() identifier.HierObjectID

	// IsBranch reports whether this version sits on a branch line.
	IsBranch() bool

	// Contribution references the contribution in which this version was
	// committed.
	Contribution() identifier.ObjectRef

	// CommitAudit is the audit trail of the committal of this version.
	CommitAudit() audit.Details

	// Signature is the detached signature over the canonical form, or ""
	// if the version is unsigned.
	Signature() string

	sealed()
}
