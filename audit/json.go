package audit

import (
	"encoding/json"
	"time"

	"clehr.dev/recordkit/identifier"
	"clehr.dev/recordkit/terminology"
)

// Record shape discriminators. Optional fields are omitted, never null.
const (
	typeAuditDetails        = "AUDIT_DETAILS"
	typeAttestation         = "ATTESTATION"
	typePartySelf           = "PARTY_SELF"
	typePartyIdentified     = "PARTY_IDENTIFIED"
	typeRevisionHistory     = "REVISION_HISTORY"
	typeRevisionHistoryItem = "REVISION_HISTORY_ITEM"
)

type partyJSON struct {
	Type        string                `json:"_type"`
	Name        string                `json:"name,omitempty"`
	Identifiers []string              `json:"identifiers,omitempty"`
	ExternalRef *identifier.ObjectRef `json:"external_ref,omitempty"`
}

func marshalParty(p PartyProxy) ([]byte, error) {
	switch party := p.(type) {
	case PartySelf:
		return json.Marshal(partyJSON{Type: typePartySelf, ExternalRef: party.ref})
	case PartyIdentified:
		return json.Marshal(partyJSON{
			Type:        typePartyIdentified,
			Name:        party.name,
			Identifiers: party.identifiers,
			ExternalRef: party.ref,
		})
	default:
		return nil, newError(KindDecode, "RK-AUD-040", "unknown party proxy type")
	}
}

// DecodeParty reverses marshalParty's tagged shapes.
func DecodeParty(data []byte) (PartyProxy, error) {
	var shape partyJSON
	if err := json.Unmarshal(data, &shape); err != nil {
		return nil, wrapError(KindDecode, "RK-AUD-041", "malformed party record", err)
	}
	switch shape.Type {
	case typePartySelf:
		if shape.ExternalRef == nil {
			return NewPartySelf(), nil
		}
		return NewPartySelfWithRef(*shape.ExternalRef), nil
	case typePartyIdentified:
		return NewPartyIdentified(shape.Name, shape.Identifiers, shape.ExternalRef)
	default:
		return nil, newError(KindDecode, "RK-AUD-042",
			"party record has unknown _type "+quote(shape.Type))
	}
}

type detailsJSON struct {
	Type          string                `json:"_type"`
	SystemID      string                `json:"system_id"`
	TimeCommitted string                `json:"time_committed"`
	ChangeType    terminology.CodedText `json:"change_type"`
	Description   string                `json:"description,omitempty"`
	Committer     json.RawMessage       `json:"committer"`
}

func (d Details) MarshalJSON() ([]byte, error) {
	committer, err := marshalParty(d.Committer)
	if err != nil {
		return nil, err
	}
	return json.Marshal(detailsJSON{
		Type:          typeAuditDetails,
		SystemID:      d.SystemID,
		TimeCommitted: TimeKey(d.TimeCommitted),
		ChangeType:    d.ChangeType,
		Description:   d.Description,
		Committer:     committer,
	})
}

func detailsFromShape(shape detailsJSON) (Details, error) {
	committed, err := time.Parse(time.RFC3339Nano, shape.TimeCommitted)
	if err != nil {
		return Details{}, wrapError(KindDecode, "RK-AUD-043",
			"audit record has malformed time_committed", err)
	}
	committer, err := DecodeParty(shape.Committer)
	if err != nil {
		return Details{}, err
	}
	return Details{
		SystemID:      shape.SystemID,
		TimeCommitted: committed,
		ChangeType:    shape.ChangeType,
		Description:   shape.Description,
		Committer:     committer,
	}, nil
}

func (d *Details) UnmarshalJSON(data []byte) error {
	var shape detailsJSON
	if err := json.Unmarshal(data, &shape); err != nil {
		return wrapError(KindDecode, "RK-AUD-044", "malformed audit record", err)
	}
	decoded, err := detailsFromShape(shape)
	if err != nil {
		return err
	}
	*d = decoded
	return nil
}

type attestationJSON struct {
	detailsJSON
	Reason       terminology.CodedText `json:"reason"`
	IsPending    bool                  `json:"is_pending"`
	AttestedView string                `json:"attested_view,omitempty"`
	Proof        string                `json:"proof,omitempty"`
	Items        []string              `json:"items,omitempty"`
}

func (a Attestation) MarshalJSON() ([]byte, error) {
	committer, err := marshalParty(a.Committer)
	if err != nil {
		return nil, err
	}
	return json.Marshal(attestationJSON{
		detailsJSON: detailsJSON{
			Type:          typeAttestation,
			SystemID:      a.SystemID,
			TimeCommitted: TimeKey(a.TimeCommitted),
			ChangeType:    a.ChangeType,
			Description:   a.Description,
			Committer:     committer,
		},
		Reason:       a.Reason,
		IsPending:    a.IsPending,
		AttestedView: a.AttestedView,
		Proof:        a.Proof,
		Items:        a.Items,
	})
}

func (a *Attestation) UnmarshalJSON(data []byte) error {
	var shape attestationJSON
	if err := json.Unmarshal(data, &shape); err != nil {
		return wrapError(KindDecode, "RK-AUD-045", "malformed attestation record", err)
	}
	details, err := detailsFromShape(shape.detailsJSON)
	if err != nil {
		return err
	}
	*a = Attestation{
		Details:      details,
		Reason:       shape.Reason,
		IsPending:    shape.IsPending,
		AttestedView: shape.AttestedView,
		Proof:        shape.Proof,
		Items:        shape.Items,
	}
	return nil
}

func marshalEntry(e Entry) ([]byte, error) {
	switch entry := e.(type) {
	case Details:
		return entry.MarshalJSON()
	case Attestation:
		return entry.MarshalJSON()
	default:
		return nil, newError(KindDecode, "RK-AUD-046", "unknown audit entry type")
	}
}

// DecodeEntry reverses the tagged audit entry shapes.
func DecodeEntry(data []byte) (Entry, error) {
	var probe struct {
		Type string `json:"_type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, wrapError(KindDecode, "RK-AUD-047", "malformed audit entry", err)
	}
	switch probe.Type {
	case typeAuditDetails:
		var d Details
		if err := d.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return d, nil
	case typeAttestation:
		var a Attestation
		if err := a.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, newError(KindDecode, "RK-AUD-048",
			"audit entry has unknown _type "+quote(probe.Type))
	}
}

type revisionHistoryItemJSON struct {
	Type      string            `json:"_type"`
	VersionID string            `json:"version_id"`
	Audits    []json.RawMessage `json:"audits"`
}

func (item RevisionHistoryItem) MarshalJSON() ([]byte, error) {
	audits := make([]json.RawMessage, 0, len(item.Audits))
	for _, e := range item.Audits {
		b, err := marshalEntry(e)
		if err != nil {
			return nil, err
		}
		audits = append(audits, b)
	}
	return json.Marshal(revisionHistoryItemJSON{
		Type:      typeRevisionHistoryItem,
		VersionID: item.VersionID.Value(),
		Audits:    audits,
	})
}

func (item *RevisionHistoryItem) UnmarshalJSON(data []byte) error {
	var shape revisionHistoryItemJSON
	if err := json.Unmarshal(data, &shape); err != nil {
		return wrapError(KindDecode, "RK-AUD-049", "malformed revision history item", err)
	}
	versionID, err := identifier.ParseObjectVersionID(shape.VersionID)
	if err != nil {
		return wrapError(KindDecode, "RK-AUD-050",
			"revision history item has invalid version_id", err)
	}
	audits := make([]Entry, 0, len(shape.Audits))
	for _, raw := range shape.Audits {
		e, err := DecodeEntry(raw)
		if err != nil {
			return err
		}
		audits = append(audits, e)
	}
	*item = RevisionHistoryItem{VersionID: versionID, Audits: audits}
	return nil
}

type revisionHistoryJSON struct {
	Type  string                `json:"_type"`
	Items []RevisionHistoryItem `json:"items"`
}

func (h RevisionHistory) MarshalJSON() ([]byte, error) {
	items := h.Items
	if items == nil {
		items = []RevisionHistoryItem{}
	}
	return json.Marshal(revisionHistoryJSON{Type: typeRevisionHistory, Items: items})
}

func (h *RevisionHistory) UnmarshalJSON(data []byte) error {
	var shape revisionHistoryJSON
	if err := json.Unmarshal(data, &shape); err != nil {
		return wrapError(KindDecode, "RK-AUD-051", "malformed revision history", err)
	}
	h.Items = shape.Items
	return nil
}

func quote(s string) string {
	return "\"" + s + "\""
}
