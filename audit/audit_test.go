package audit

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"clehr.dev/recordkit/identifier"
	"clehr.dev/recordkit/terminology"
)

var testTime = time.Date(2026, 3, 14, 9, 26, 53, 589000000, time.UTC)

func testService(t *testing.T) terminology.Service {
	t.Helper()
	return terminology.NewLocalService()
}

func testDetails(t *testing.T) Details {
	t.Helper()
	d, err := NewDetails(testService(t), "net.example.ehr", testTime,
		terminology.ChangeTypeCreation, NewPartySelf(), "initial commit")
	if err != nil {
		t.Fatalf("NewDetails: %v", err)
	}
	return d
}

func TestNewDetailsValidation(t *testing.T) {
	ts := testService(t)

	if _, err := NewDetails(ts, "", testTime, terminology.ChangeTypeCreation, NewPartySelf(), ""); !IsKind(err, KindEmptyIdentifier) {
		t.Fatalf("empty system id: got %v, want KindEmptyIdentifier", err)
	}
	if _, err := NewDetails(ts, "net.example.ehr", testTime, terminology.ChangeTypeCreation, nil, ""); !IsKind(err, KindInvalidParty) {
		t.Fatalf("nil committer: got %v, want KindInvalidParty", err)
	}

	bogus := terminology.CodedText{
		Value:        "bogus",
		DefiningCode: terminology.CodePhrase{TerminologyID: terminology.TerminologyIDOpenEHR, Code: "999"},
	}
	if _, err := NewDetails(ts, "net.example.ehr", testTime, bogus, NewPartySelf(), ""); !IsKind(err, KindInvalidChangeType) {
		t.Fatalf("bogus change type: got %v, want KindInvalidChangeType", err)
	}

	// 240 is an attestation reason, not an audit change type.
	if _, err := NewDetails(ts, "net.example.ehr", testTime, terminology.ReasonSigned, NewPartySelf(), ""); !IsKind(err, KindInvalidChangeType) {
		t.Fatalf("cross-group code: got %v, want KindInvalidChangeType", err)
	}
}

func TestNewAttestationValidation(t *testing.T) {
	ts := testService(t)
	commit := testDetails(t)

	a, err := NewAttestation(ts, commit, terminology.ReasonWitnessed, true, AttestationOptions{})
	if err != nil {
		t.Fatalf("NewAttestation: %v", err)
	}
	if !a.IsPending {
		t.Fatal("IsPending not carried")
	}
	if a.Items != nil {
		t.Fatalf("Items = %v, want nil when absent", a.Items)
	}

	if _, err := NewAttestation(ts, commit, terminology.ChangeTypeCreation, false, AttestationOptions{}); !IsKind(err, KindInvalidAttestationReason) {
		t.Fatalf("change-type code as reason: got %v, want KindInvalidAttestationReason", err)
	}
	if _, err := NewAttestation(ts, commit, terminology.ReasonSigned, false, AttestationOptions{Items: []string{}}); !IsKind(err, KindEmptyCollection) {
		t.Fatalf("empty items: got %v, want KindEmptyCollection", err)
	}
}

func TestPartyIdentifiedValidation(t *testing.T) {
	if _, err := NewPartyIdentified("", nil, nil); !IsKind(err, KindInvalidParty) {
		t.Fatalf("all absent: got %v, want KindInvalidParty", err)
	}
	if _, err := NewPartyIdentified("Dr A", []string{}, nil); !IsKind(err, KindEmptyCollection) {
		t.Fatalf("empty identifiers: got %v, want KindEmptyCollection", err)
	}

	p, err := NewPartyIdentified("Dr A", []string{"npi:12345"}, nil)
	if err != nil {
		t.Fatalf("NewPartyIdentified: %v", err)
	}
	ids := p.Identifiers()
	ids[0] = "mutated"
	if got := p.Identifiers()[0]; got != "npi:12345" {
		t.Fatalf("identifiers aliased: got %q", got)
	}
}

func TestRevisionHistoryAppendAndQueries(t *testing.T) {
	v1, err := identifier.ParseObjectVersionID("154b1047-23aa-4d4d-8713-df848fd4d60a::net.example.ehr::1")
	if err != nil {
		t.Fatalf("parse v1: %v", err)
	}
	v2, err := identifier.ParseObjectVersionID("154b1047-23aa-4d4d-8713-df848fd4d60a::net.example.ehr::2")
	if err != nil {
		t.Fatalf("parse v2: %v", err)
	}

	var h RevisionHistory
	if _, err := h.MostRecentVersion(); !IsKind(err, KindEmptyHistory) {
		t.Fatalf("empty history: got %v, want KindEmptyHistory", err)
	}
	if _, err := h.MostRecentVersionTimeCommitted(); !IsKind(err, KindEmptyHistory) {
		t.Fatalf("empty history time: got %v, want KindEmptyHistory", err)
	}

	d1 := testDetails(t)
	h.AppendAudit(v1, d1)

	ts := testService(t)
	d2, err := NewDetails(ts, "net.example.ehr", testTime.Add(time.Hour),
		terminology.ChangeTypeModification, NewPartySelf(), "")
	if err != nil {
		t.Fatalf("NewDetails d2: %v", err)
	}
	h.AppendAudit(v2, d2)

	got, err := h.MostRecentVersion()
	if err != nil {
		t.Fatalf("MostRecentVersion: %v", err)
	}
	if got != v2 {
		t.Fatalf("MostRecentVersion = %s, want %s", got.Value(), v2.Value())
	}

	// Attesting v1 grows its item, not the item count, and does not
	// disturb commit order.
	att, err := NewAttestation(ts, testDetails(t), terminology.ReasonSigned, false, AttestationOptions{})
	if err != nil {
		t.Fatalf("NewAttestation: %v", err)
	}
	h.AppendAudit(v1, att)
	if len(h.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(h.Items))
	}
	if len(h.Items[0].Audits) != 2 {
		t.Fatalf("v1 audits = %d, want 2", len(h.Items[0].Audits))
	}

	when, err := h.MostRecentVersionTimeCommitted()
	if err != nil {
		t.Fatalf("MostRecentVersionTimeCommitted: %v", err)
	}
	if !when.Equal(testTime.Add(time.Hour)) {
		t.Fatalf("time = %v, want %v", when, testTime.Add(time.Hour))
	}
}

func TestDetailsJSONRoundTrip(t *testing.T) {
	d := testDetails(t)
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"_type":"AUDIT_DETAILS"`) {
		t.Fatalf("missing discriminator: %s", b)
	}
	if !strings.Contains(string(b), `"2026-03-14T09:26:53.589Z"`) {
		t.Fatalf("timestamp not canonical: %s", b)
	}

	var back Details
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.SystemID != d.SystemID || !back.TimeCommitted.Equal(d.TimeCommitted) ||
		back.ChangeType != d.ChangeType || back.Description != d.Description {
		t.Fatalf("round trip mismatch: %+v != %+v", back, d)
	}
	if _, ok := back.Committer.(PartySelf); !ok {
		t.Fatalf("committer decoded as %T, want PartySelf", back.Committer)
	}
}

func TestAttestationJSONRoundTrip(t *testing.T) {
	ts := testService(t)
	ref := identifier.ObjectRef{Namespace: "demographic", Type: "PERSON", ID: "9e0f"}
	committer, err := NewPartyIdentified("Dr A", []string{"npi:12345"}, &ref)
	if err != nil {
		t.Fatalf("NewPartyIdentified: %v", err)
	}
	commit, err := NewDetails(ts, "net.example.ehr", testTime,
		terminology.ChangeTypeAttestation, committer, "")
	if err != nil {
		t.Fatalf("NewDetails: %v", err)
	}
	a, err := NewAttestation(ts, commit, terminology.ReasonWitnessed, true,
		AttestationOptions{Proof: "sig:abc", Items: []string{"/content"}})
	if err != nil {
		t.Fatalf("NewAttestation: %v", err)
	}

	b, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"_type":"ATTESTATION"`) {
		t.Fatalf("missing discriminator: %s", b)
	}

	var back Attestation
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Reason != a.Reason || back.IsPending != a.IsPending || back.Proof != a.Proof {
		t.Fatalf("round trip mismatch: %+v != %+v", back, a)
	}
	p, ok := back.Committer.(PartyIdentified)
	if !ok {
		t.Fatalf("committer decoded as %T, want PartyIdentified", back.Committer)
	}
	if p.Name() != "Dr A" {
		t.Fatalf("name = %q", p.Name())
	}
	if got, ok := p.ExternalRef(); !ok || got != ref {
		t.Fatalf("external ref = %+v, %v", got, ok)
	}
}

func TestRevisionHistoryJSONRoundTrip(t *testing.T) {
	v1, err := identifier.ParseObjectVersionID("154b1047-23aa-4d4d-8713-df848fd4d60a::net.example.ehr::1")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ts := testService(t)
	var h RevisionHistory
	h.AppendAudit(v1, testDetails(t))
	att, err := NewAttestation(ts, testDetails(t), terminology.ReasonSigned, false, AttestationOptions{})
	if err != nil {
		t.Fatalf("NewAttestation: %v", err)
	}
	h.AppendAudit(v1, att)

	b, err := json.Marshal(h)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back RevisionHistory
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(back.Items) != 1 || len(back.Items[0].Audits) != 2 {
		t.Fatalf("shape mismatch: %+v", back)
	}
	if back.Items[0].VersionID != v1 {
		t.Fatalf("version id = %s", back.Items[0].VersionID.Value())
	}
	if _, ok := back.Items[0].Audits[0].(Details); !ok {
		t.Fatalf("first audit decoded as %T, want Details", back.Items[0].Audits[0])
	}
	if _, ok := back.Items[0].Audits[1].(Attestation); !ok {
		t.Fatalf("second audit decoded as %T, want Attestation", back.Items[0].Audits[1])
	}
}

func TestDecodeEntryRejectsUnknownType(t *testing.T) {
	_, err := DecodeEntry([]byte(`{"_type":"MYSTERY"}`))
	if !IsKind(err, KindDecode) {
		t.Fatalf("got %v, want KindDecode", err)
	}
	if got := RuleID(err); got != "RK-AUD-048" {
		t.Fatalf("rule id = %q", got)
	}
}
