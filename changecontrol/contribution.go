package changecontrol

import (
	"encoding/json"

	"clehr.dev/recordkit/audit"
	"clehr.dev/recordkit/identifier"
)

// Contribution documents a change set: the batch of versions committed
// together in one atomic act, with the audit of the committal. The type
// itself is pure data; CheckContributionSet validates the batch.
type Contribution struct {
	UID      identifier.HierObjectID
	Versions []identifier.ObjectRef
	Audit    audit.Details
}

// NewContribution builds a contribution record over the given version
// references.
func NewContribution(uid identifier.HierObjectID, versions []identifier.ObjectRef,
	commitAudit audit.Details) (Contribution, error) {
	if uid.IsZero() {
		return Contribution{}, newError(KindInvalidContainer, "RK-CC-050",
			"contribution needs a valid uid")
	}
	if len(versions) == 0 {
		return Contribution{}, newError(KindEmptyCollection, "RK-CC-051",
			"contribution needs at least one version reference")
	}
	return Contribution{
		UID:      uid,
		Versions: append([]identifier.ObjectRef(nil), versions...),
		Audit:    commitAudit,
	}, nil
}

// Ref returns the object reference other records use to point at this
// contribution.
func (c Contribution) Ref() identifier.ObjectRef {
	return identifier.ObjectRef{Namespace: "ehr", Type: "CONTRIBUTION", ID: c.UID.Value()}
}

// CheckContributionSet validates the atomic batch precondition: every
// version in the batch references this contribution, and every version
// reference the contribution lists resolves to one of the versions being
// committed. Storage adaptors run this before durably writing a batch.
func CheckContributionSet[T any](c Contribution, versions []Version[T]) error {
	if len(versions) == 0 {
		return newError(KindEmptyCollection, "RK-CC-052",
			"contribution batch needs at least one version")
	}
	byRefID := make(map[string]bool, len(versions))
	for _, v := range versions {
		if v.Contribution() != c.Ref() {
			return newError(KindBatchInconsistent, "RK-CC-053",
				"version "+v.UID().Value()+" does not reference contribution "+c.UID.Value())
		}
		byRefID[v.UID().Value()] = true
	}
	for _, ref := range c.Versions {
		if !byRefID[ref.ID] {
			return newError(KindBatchInconsistent, "RK-CC-054",
				"contribution lists version "+ref.ID+" which is not in the batch")
		}
	}
	return nil
}

type contributionJSON struct {
	Type     string                 `json:"_type"`
	UID      string                 `json:"uid"`
	Audit    audit.Details          `json:"audit"`
	Versions []identifier.ObjectRef `json:"versions"`
}

func (c Contribution) MarshalJSON() ([]byte, error) {
	return json.Marshal(contributionJSON{
		Type:     typeContribution,
		UID:      c.UID.Value(),
		Audit:    c.Audit,
		Versions: c.Versions,
	})
}

func (c *Contribution) UnmarshalJSON(data []byte) error {
	var shape contributionJSON
	if err := json.Unmarshal(data, &shape); err != nil {
		return wrapError(KindDecode, "RK-CC-055", "malformed contribution record", err)
	}
	uid, err := identifier.ParseHierObjectID(shape.UID)
	if err != nil {
		return wrapError(KindDecode, "RK-CC-056", "contribution record has invalid uid", err)
	}
	*c = Contribution{UID: uid, Versions: shape.Versions, Audit: shape.Audit}
	return nil
}
