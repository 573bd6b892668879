package changecontrol

import (
	"clehr.dev/recordkit/audit"
	"clehr.dev/recordkit/identifier"
	"clehr.dev/recordkit/terminology"
)

// ImportedVersion wraps an original version copied in from another system.
// The contribution, commit audit and signature belong to the act of
// importing; everything else delegates to the wrapped item, which remains
// the single source of truth.
type ImportedVersion[T any] struct {
	item         *OriginalVersion[T]
	contribution identifier.ObjectRef
	commitAudit  audit.Details
	signature    string
}

// NewImportedVersion builds an imported version around an already-built
// original version.
func NewImportedVersion[T any](item *OriginalVersion[T], contribution identifier.ObjectRef,
	commitAudit audit.Details, signature string) (*ImportedVersion[T], error) {
	if item == nil {
		return nil, newError(KindInvalidVersion, "RK-CC-010",
			"imported version needs the original version it imports")
	}
	return &ImportedVersion[T]{
		item:         item,
		contribution: contribution,
		commitAudit:  commitAudit,
		signature:    signature,
	}, nil
}

// Item returns the wrapped original version.
func (v *ImportedVersion[T]) Item() *OriginalVersion[T] { return v.item }

func (v *ImportedVersion[T]) UID() identifier.ObjectVersionID { return v.item.UID() }

func (v *ImportedVersion[T]) PrecedingVersionUID() (identifier.ObjectVersionID, bool) {
	return v.item.PrecedingVersionUID()
}

func (v *ImportedVersion[T]) Data() T { return v.item.Data() }

func (v *ImportedVersion[T]) LifecycleState() terminology.CodedText {
	return v.item.LifecycleState()
}

func (v *ImportedVersion[T]) OwnerID() identifier.HierObjectID { return v.item.OwnerID() }

func (v *ImportedVersion[T]) IsBranch() bool { return v.item.IsBranch() }

func (v *ImportedVersion[T]) Contribution() identifier.ObjectRef { return v.contribution }

func (v *ImportedVersion[T]) CommitAudit() audit.Details { return v.commitAudit }

func (v *ImportedVersion[T]) Signature() string { return v.signature }

// WithSignature returns a copy of v carrying the given detached signature
// over the import record's canonical form.
func (v *ImportedVersion[T]) WithSignature(sig string) *ImportedVersion[T] {
	out := *v
	out.signature = sig
	return &out
}

func (*ImportedVersion[T]) sealed() {}
