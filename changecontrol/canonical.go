package changecontrol

import (
	"encoding/json"

	"clehr.dev/recordkit/audit"
	"clehr.dev/recordkit/cidutil"
	"clehr.dev/recordkit/identifier"
	"clehr.dev/recordkit/terminology"
)

// Record shape discriminators.
const (
	typeOriginalVersion = "ORIGINAL_VERSION"
	typeImportedVersion = "IMPORTED_VERSION"
	typeContribution    = "CONTRIBUTION"
)

type originalVersionJSON[T any] struct {
	Type                  string                `json:"_type"`
	UID                   string                `json:"uid"`
	Contribution          identifier.ObjectRef  `json:"contribution"`
	CommitAudit           audit.Details         `json:"commit_audit"`
	LifecycleState        terminology.CodedText `json:"lifecycle_state"`
	PrecedingVersionUID   string                `json:"preceding_version_uid,omitempty"`
	OtherInputVersionUIDs []string              `json:"other_input_version_uids,omitempty"`
	Attestations          []audit.Attestation   `json:"attestations,omitempty"`
	Data                  T                     `json:"data"`
	Signature             string                `json:"signature,omitempty"`
}

func (v *OriginalVersion[T]) shape() originalVersionJSON[T] {
	shape := originalVersionJSON[T]{
		Type:           typeOriginalVersion,
		UID:            v.uid.Value(),
		Contribution:   v.contribution,
		CommitAudit:    v.commitAudit,
		LifecycleState: v.lifecycleState,
		Data:           v.data,
		Signature:      v.signature,
	}
	if !v.precedingVersionUID.IsZero() {
		shape.PrecedingVersionUID = v.precedingVersionUID.Value()
	}
	for _, id := range v.otherInputUIDs {
		shape.OtherInputVersionUIDs = append(shape.OtherInputVersionUIDs, id.Value())
	}
	shape.Attestations = v.attestations
	return shape
}

func (v *OriginalVersion[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.shape())
}

type importedVersionJSON[T any] struct {
	Type         string               `json:"_type"`
	Contribution identifier.ObjectRef `json:"contribution"`
	CommitAudit  audit.Details        `json:"commit_audit"`
	Item         json.RawMessage      `json:"item"`
	Signature    string               `json:"signature,omitempty"`
}

func (v *ImportedVersion[T]) MarshalJSON() ([]byte, error) {
	item, err := v.item.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return json.Marshal(importedVersionJSON[T]{
		Type:         typeImportedVersion,
		Contribution: v.contribution,
		CommitAudit:  v.commitAudit,
		Item:         item,
		Signature:    v.signature,
	})
}

// CanonicalForm is the byte-stable serialization of a version with the
// signature excluded and everything else included. It is the exact input
// to signing and content addressing; the contract must not drift.
func CanonicalForm[T any](v Version[T]) ([]byte, error) {
	switch version := v.(type) {
	case *OriginalVersion[T]:
		shape := version.shape()
		shape.Signature = ""
		return json.Marshal(shape)
	case *ImportedVersion[T]:
		item, err := version.item.MarshalJSON()
		if err != nil {
			return nil, err
		}
		return json.Marshal(importedVersionJSON[T]{
			Type:         typeImportedVersion,
			Contribution: version.contribution,
			CommitAudit:  version.commitAudit,
			Item:         item,
		})
	default:
		return nil, newError(KindDecode, "RK-CC-020", "unknown version type")
	}
}

// CanonicalCID returns the content identifier of v's canonical form.
func CanonicalCID[T any](v Version[T]) (string, error) {
	canonical, err := CanonicalForm(v)
	if err != nil {
		return "", err
	}
	return cidutil.CIDv1RawSHA256(canonical), nil
}

func decodeOriginalShape[T any](ts terminology.Service, shape originalVersionJSON[T]) (*OriginalVersion[T], error) {
	uid, err := identifier.ParseObjectVersionID(shape.UID)
	if err != nil {
		return nil, wrapError(KindDecode, "RK-CC-022",
			"version record has invalid uid", err)
	}
	params := OriginalVersionParams[T]{
		UID:            uid,
		LifecycleState: shape.LifecycleState,
		Data:           shape.Data,
		Contribution:   shape.Contribution,
		CommitAudit:    shape.CommitAudit,
		Signature:      shape.Signature,
		Attestations:   shape.Attestations,
	}
	if shape.PrecedingVersionUID != "" {
		preceding, err := identifier.ParseObjectVersionID(shape.PrecedingVersionUID)
		if err != nil {
			return nil, wrapError(KindDecode, "RK-CC-023",
				"version record has invalid preceding_version_uid", err)
		}
		params.PrecedingVersionUID = preceding
	}
	for _, raw := range shape.OtherInputVersionUIDs {
		id, err := identifier.ParseObjectVersionID(raw)
		if err != nil {
			return nil, wrapError(KindDecode, "RK-CC-024",
				"version record has invalid other_input_version_uids entry", err)
		}
		params.OtherInputVersionUIDs = append(params.OtherInputVersionUIDs, id)
	}
	return NewOriginalVersion(ts, params)
}

// DecodeVersion reverses the tagged version record shapes, revalidating
// invariants on the way in.
func DecodeVersion[T any](ts terminology.Service, data []byte) (Version[T], error) {
	var probe struct {
		Type string `json:"_type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, wrapError(KindDecode, "RK-CC-021", "malformed version record", err)
	}
	switch probe.Type {
	case typeOriginalVersion:
		var shape originalVersionJSON[T]
		if err := json.Unmarshal(data, &shape); err != nil {
			return nil, wrapError(KindDecode, "RK-CC-025", "malformed original version record", err)
		}
		return decodeOriginalShape(ts, shape)
	case typeImportedVersion:
		var shape importedVersionJSON[T]
		if err := json.Unmarshal(data, &shape); err != nil {
			return nil, wrapError(KindDecode, "RK-CC-026", "malformed imported version record", err)
		}
		var itemShape originalVersionJSON[T]
		if err := json.Unmarshal(shape.Item, &itemShape); err != nil {
			return nil, wrapError(KindDecode, "RK-CC-027", "malformed imported version item", err)
		}
		item, err := decodeOriginalShape(ts, itemShape)
		if err != nil {
			return nil, err
		}
		return NewImportedVersion(item, shape.Contribution, shape.CommitAudit, shape.Signature)
	default:
		return nil, newError(KindDecode, "RK-CC-028",
			"version record has unknown _type \""+probe.Type+"\"")
	}
}
