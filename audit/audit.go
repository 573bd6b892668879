// Package audit implements commit audit records, attestations and the
// revision history of a version container.
//
// Details and Attestation are validated at construction against the
// terminology capability passed in by the caller; all failures are local,
// recoverable errors.
package audit

import (
	"time"

	"clehr.dev/recordkit/terminology"
)

// Details is the audit trail record for one committal: which system
// committed, when, what kind of change, and who is responsible.
type Details struct {
	SystemID      string
	TimeCommitted time.Time
	ChangeType    terminology.CodedText
	Description   string // optional; "" means absent
	Committer     PartyProxy
}

// NewDetails validates and builds a commit audit record. The change type
// code must belong to the audit-change-type group of the given terminology
// service.
func NewDetails(ts terminology.Service, systemID string, timeCommitted time.Time,
	changeType terminology.CodedText, committer PartyProxy, description string) (Details, error) {
	if systemID == "" {
		return Details{}, newError(KindEmptyIdentifier, "RK-AUD-001",
			"audit system id must not be empty")
	}
	if committer == nil {
		return Details{}, newError(KindInvalidParty, "RK-AUD-002",
			"audit committer must be provided")
	}
	if err := terminology.VerifyCodeOrError(ts, changeType.DefiningCode,
		terminology.GroupAuditChangeType, "change_type_valid"); err != nil {
		return Details{}, wrapError(KindInvalidChangeType, "RK-AUD-003",
			"audit change type is not a known audit change type code", err)
	}
	return Details{
		SystemID:      systemID,
		TimeCommitted: timeCommitted,
		ChangeType:    changeType,
		Description:   description,
		Committer:     committer,
	}, nil
}

// Entry is one audit trail entry on a revision history item: either the
// plain commit Details or an Attestation layered on afterwards.
type Entry interface {
	// AuditDetails returns the common audit fields of the entry.
	AuditDetails() Details
	isEntry()
}

// AuditDetails returns d itself; Details is its own audit record.
func (d Details) AuditDetails() Details { return d }

func (Details) isEntry() {}

// TimeKey renders a commit timestamp in the canonical form used for
// exact-timestamp indexing and serialization: RFC 3339 with nanoseconds,
// in UTC.
func TimeKey(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
