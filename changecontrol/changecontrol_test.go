package changecontrol

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"clehr.dev/recordkit/audit"
	"clehr.dev/recordkit/identifier"
	"clehr.dev/recordkit/terminology"
)

const containerUID = "154b1047-23aa-4d4d-8713-df848fd4d60a"

var baseTime = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

type payload struct {
	Text string `json:"text"`
}

func mustHierObjectID(t *testing.T, s string) identifier.HierObjectID {
	t.Helper()
	id, err := identifier.ParseHierObjectID(s)
	if err != nil {
		t.Fatalf("ParseHierObjectID(%q): %v", s, err)
	}
	return id
}

func mustVersionID(t *testing.T, s string) identifier.ObjectVersionID {
	t.Helper()
	id, err := identifier.ParseObjectVersionID(s)
	if err != nil {
		t.Fatalf("ParseObjectVersionID(%q): %v", s, err)
	}
	return id
}

func commitAudit(t *testing.T, ts terminology.Service, changeType terminology.CodedText, at time.Time) audit.Details {
	t.Helper()
	d, err := audit.NewDetails(ts, "net.example.ehr", at, changeType, audit.NewPartySelf(), "")
	if err != nil {
		t.Fatalf("NewDetails: %v", err)
	}
	return d
}

func newContainer(t *testing.T) *VersionedObject[payload] {
	t.Helper()
	owner := identifier.ObjectRef{Namespace: "ehr", Type: "EHR", ID: "ehr-1"}
	vo, err := NewVersionedObject[payload](mustHierObjectID(t, containerUID), owner, baseTime)
	if err != nil {
		t.Fatalf("NewVersionedObject: %v", err)
	}
	return vo
}

func contributionRef(n string) identifier.ObjectRef {
	return identifier.ObjectRef{Namespace: "ehr", Type: "CONTRIBUTION", ID: n}
}

func TestEmptyContainer(t *testing.T) {
	vo := newContainer(t)
	if vo.VersionCount() != 0 {
		t.Fatalf("VersionCount = %d, want 0", vo.VersionCount())
	}
	if _, ok := vo.LatestVersion(); ok {
		t.Fatal("LatestVersion present on empty container")
	}
	if _, ok := vo.LatestTrunkVersion(); ok {
		t.Fatal("LatestTrunkVersion present on empty container")
	}
	if _, ok := vo.TrunkLifecycleState(); ok {
		t.Fatal("TrunkLifecycleState present on empty container")
	}
}

func TestCommitFirstVersion(t *testing.T) {
	ts := terminology.NewLocalService()
	vo := newContainer(t)
	v1ID := mustVersionID(t, containerUID+"::net.example.ehr::1")

	v1, err := vo.CommitOriginalVersion(ts, contributionRef("c1"), v1ID,
		identifier.ObjectVersionID{}, commitAudit(t, ts, terminology.ChangeTypeCreation, baseTime),
		terminology.LifecycleComplete, payload{Text: "first"})
	if err != nil {
		t.Fatalf("CommitOriginalVersion: %v", err)
	}
	if vo.VersionCount() != 1 {
		t.Fatalf("VersionCount = %d, want 1", vo.VersionCount())
	}
	latest, ok := vo.LatestVersion()
	if !ok || latest.UID() != v1ID {
		t.Fatalf("LatestVersion = %v, %v", latest, ok)
	}
	if _, has := v1.PrecedingVersionUID(); has {
		t.Fatal("first version has a preceding version")
	}
	if v1.OwnerID() != vo.UID() {
		t.Fatalf("OwnerID = %s, want %s", v1.OwnerID(), vo.UID())
	}
	if v1.IsBranch() {
		t.Fatal("trunk version reported as branch")
	}
}

func TestCommitSecondVersionAndHistory(t *testing.T) {
	ts := terminology.NewLocalService()
	vo := newContainer(t)
	v1ID := mustVersionID(t, containerUID+"::net.example.ehr::1")
	v2ID := mustVersionID(t, containerUID+"::net.example.ehr::2")

	if _, err := vo.CommitOriginalVersion(ts, contributionRef("c1"), v1ID,
		identifier.ObjectVersionID{}, commitAudit(t, ts, terminology.ChangeTypeCreation, baseTime),
		terminology.LifecycleComplete, payload{Text: "first"}); err != nil {
		t.Fatalf("commit v1: %v", err)
	}
	if _, err := vo.CommitOriginalVersion(ts, contributionRef("c2"), v2ID, v1ID,
		commitAudit(t, ts, terminology.ChangeTypeModification, baseTime.Add(time.Hour)),
		terminology.LifecycleComplete, payload{Text: "second"}); err != nil {
		t.Fatalf("commit v2: %v", err)
	}

	if vo.VersionCount() != 2 {
		t.Fatalf("VersionCount = %d, want 2", vo.VersionCount())
	}
	h := vo.RevisionHistory()
	if len(h.Items) != 2 {
		t.Fatalf("history items = %d, want 2", len(h.Items))
	}
	if h.Items[0].VersionID != v1ID || h.Items[1].VersionID != v2ID {
		t.Fatalf("history order = [%s, %s]", h.Items[0].VersionID, h.Items[1].VersionID)
	}

	ids := vo.AllVersionIDs()
	if len(ids) != 2 || ids[0] != v1ID || ids[1] != v2ID {
		t.Fatalf("AllVersionIDs = %v", ids)
	}
}

func TestCommitAttestation(t *testing.T) {
	ts := terminology.NewLocalService()
	vo := newContainer(t)
	v1ID := mustVersionID(t, containerUID+"::net.example.ehr::1")
	v2ID := mustVersionID(t, containerUID+"::net.example.ehr::2")

	if _, err := vo.CommitOriginalVersion(ts, contributionRef("c1"), v1ID,
		identifier.ObjectVersionID{}, commitAudit(t, ts, terminology.ChangeTypeCreation, baseTime),
		terminology.LifecycleComplete, payload{}); err != nil {
		t.Fatalf("commit v1: %v", err)
	}
	if _, err := vo.CommitOriginalVersion(ts, contributionRef("c2"), v2ID, v1ID,
		commitAudit(t, ts, terminology.ChangeTypeModification, baseTime.Add(time.Hour)),
		terminology.LifecycleComplete, payload{}); err != nil {
		t.Fatalf("commit v2: %v", err)
	}

	att, err := audit.NewAttestation(ts,
		commitAudit(t, ts, terminology.ChangeTypeAttestation, baseTime.Add(2*time.Hour)),
		terminology.ReasonSigned, false, audit.AttestationOptions{})
	if err != nil {
		t.Fatalf("NewAttestation: %v", err)
	}
	if err := vo.CommitAttestation(att, v2ID); err != nil {
		t.Fatalf("CommitAttestation: %v", err)
	}

	v2, err := vo.VersionWithID(v2ID)
	if err != nil {
		t.Fatalf("VersionWithID: %v", err)
	}
	original := v2.(*OriginalVersion[payload])
	if got := original.Attestations(); len(got) != 1 {
		t.Fatalf("attestations = %d, want 1", len(got))
	}

	h := vo.RevisionHistory()
	if len(h.Items[1].Audits) != 2 {
		t.Fatalf("v2 audits = %d, want 2", len(h.Items[1].Audits))
	}
	if _, ok := h.Items[1].Audits[0].(audit.Details); !ok {
		t.Fatalf("first audit is %T, want commit Details", h.Items[1].Audits[0])
	}
	if _, ok := h.Items[1].Audits[1].(audit.Attestation); !ok {
		t.Fatalf("second audit is %T, want Attestation", h.Items[1].Audits[1])
	}
}

func TestCommitRejections(t *testing.T) {
	ts := terminology.NewLocalService()
	vo := newContainer(t)
	v1ID := mustVersionID(t, containerUID+"::net.example.ehr::1")

	if _, err := vo.CommitOriginalVersion(ts, contributionRef("c1"), v1ID,
		identifier.ObjectVersionID{}, commitAudit(t, ts, terminology.ChangeTypeCreation, baseTime),
		terminology.LifecycleComplete, payload{}); err != nil {
		t.Fatalf("commit v1: %v", err)
	}

	// Wrong container.
	foreign := mustVersionID(t, "c0a5cb22-5fe7-4a40-991f-7e0258a79b82::sys.example::1")
	_, err := vo.CommitOriginalVersion(ts, contributionRef("c2"), foreign, v1ID,
		commitAudit(t, ts, terminology.ChangeTypeModification, baseTime.Add(time.Hour)),
		terminology.LifecycleComplete, payload{})
	if !IsKind(err, KindContainerMismatch) {
		t.Fatalf("foreign id: got %v, want KindContainerMismatch", err)
	}

	// Second "first version" on a non-empty container.
	v2ID := mustVersionID(t, containerUID+"::net.example.ehr::2")
	_, err = vo.CommitOriginalVersion(ts, contributionRef("c2"), v2ID,
		identifier.ObjectVersionID{}, commitAudit(t, ts, terminology.ChangeTypeModification, baseTime.Add(time.Hour)),
		terminology.LifecycleComplete, payload{})
	if !IsKind(err, KindPrecedenceViolation) {
		t.Fatalf("absent preceding on non-empty: got %v, want KindPrecedenceViolation", err)
	}

	// Unknown preceding version.
	unknown := mustVersionID(t, containerUID+"::net.example.ehr::9")
	_, err = vo.CommitOriginalVersion(ts, contributionRef("c2"), v2ID, unknown,
		commitAudit(t, ts, terminology.ChangeTypeModification, baseTime.Add(time.Hour)),
		terminology.LifecycleComplete, payload{})
	if !IsKind(err, KindPrecedenceViolation) {
		t.Fatalf("unknown preceding: got %v, want KindPrecedenceViolation", err)
	}

	// Preceding version on an empty container.
	empty := newContainer(t)
	_, err = empty.CommitOriginalVersion(ts, contributionRef("c1"), v1ID, unknown,
		commitAudit(t, ts, terminology.ChangeTypeCreation, baseTime),
		terminology.LifecycleComplete, payload{})
	if !IsKind(err, KindPrecedenceViolation) {
		t.Fatalf("preceding on empty: got %v, want KindPrecedenceViolation", err)
	}

	// Invalid lifecycle state.
	bogus := terminology.CodedText{
		Value:        "bogus",
		DefiningCode: terminology.CodePhrase{TerminologyID: terminology.TerminologyIDOpenEHR, Code: "999"},
	}
	_, err = vo.CommitOriginalVersion(ts, contributionRef("c2"), v2ID, v1ID,
		commitAudit(t, ts, terminology.ChangeTypeModification, baseTime.Add(time.Hour)),
		bogus, payload{})
	if !IsKind(err, KindInvalidLifecycleState) {
		t.Fatalf("bogus lifecycle: got %v, want KindInvalidLifecycleState", err)
	}
}

func TestCommitImportedVersion(t *testing.T) {
	ts := terminology.NewLocalService()
	vo := newContainer(t)
	v1ID := mustVersionID(t, containerUID+"::net.example.ehr::1")
	v2ID := mustVersionID(t, containerUID+"::net.example.ehr::2")
	v3ID := mustVersionID(t, containerUID+"::org.example.ehr2::3")

	if _, err := vo.CommitOriginalVersion(ts, contributionRef("c1"), v1ID,
		identifier.ObjectVersionID{}, commitAudit(t, ts, terminology.ChangeTypeCreation, baseTime),
		terminology.LifecycleComplete, payload{}); err != nil {
		t.Fatalf("commit v1: %v", err)
	}
	if _, err := vo.CommitOriginalVersion(ts, contributionRef("c2"), v2ID, v1ID,
		commitAudit(t, ts, terminology.ChangeTypeModification, baseTime.Add(time.Hour)),
		terminology.LifecycleComplete, payload{}); err != nil {
		t.Fatalf("commit v2: %v", err)
	}

	foreignCommit, err := audit.NewDetails(ts, "org.example.ehr2", baseTime.Add(90*time.Minute),
		terminology.ChangeTypeModification, audit.NewPartySelf(), "")
	if err != nil {
		t.Fatalf("foreign audit: %v", err)
	}
	item, err := NewOriginalVersion(ts, OriginalVersionParams[payload]{
		UID:                 v3ID,
		PrecedingVersionUID: v2ID,
		LifecycleState:      terminology.LifecycleComplete,
		Data:                payload{Text: "imported"},
		Contribution:        contributionRef("foreign-c1"),
		CommitAudit:         foreignCommit,
	})
	if err != nil {
		t.Fatalf("NewOriginalVersion: %v", err)
	}

	v3, err := vo.CommitImportedVersion(contributionRef("c3"),
		commitAudit(t, ts, terminology.ChangeTypeModification, baseTime.Add(2*time.Hour)), item)
	if err != nil {
		t.Fatalf("CommitImportedVersion: %v", err)
	}

	isOriginal, err := vo.IsOriginalVersion(v3ID)
	if err != nil {
		t.Fatalf("IsOriginalVersion: %v", err)
	}
	if isOriginal {
		t.Fatal("imported version reported as original")
	}

	trunk, ok := vo.LatestTrunkVersion()
	if !ok || trunk.UID() != v3ID {
		t.Fatalf("LatestTrunkVersion = %v, %v, want %s", trunk, ok, v3ID)
	}

	// Delegation: identity and content come from the wrapped item,
	// provenance from the import act.
	if v3.Data().Text != "imported" {
		t.Fatalf("Data = %+v", v3.Data())
	}
	if v3.CommitAudit().SystemID != "net.example.ehr" {
		t.Fatalf("import commit audit system = %s", v3.CommitAudit().SystemID)
	}
	if v3.Item().CommitAudit().SystemID != "org.example.ehr2" {
		t.Fatalf("item commit audit system = %s", v3.Item().CommitAudit().SystemID)
	}

	// Attesting an imported version is refused.
	att, err := audit.NewAttestation(ts,
		commitAudit(t, ts, terminology.ChangeTypeAttestation, baseTime.Add(3*time.Hour)),
		terminology.ReasonSigned, false, audit.AttestationOptions{})
	if err != nil {
		t.Fatalf("NewAttestation: %v", err)
	}
	if err := vo.CommitAttestation(att, v3ID); !IsKind(err, KindNotAnOriginalVersion) {
		t.Fatalf("attest imported: got %v, want KindNotAnOriginalVersion", err)
	}
}

func TestLatestTrunkVersionSkipsBranches(t *testing.T) {
	ts := terminology.NewLocalService()
	vo := newContainer(t)
	v1ID := mustVersionID(t, containerUID+"::net.example.ehr::1")
	branchID := mustVersionID(t, containerUID+"::net.example.ehr::1.1.1")

	if _, err := vo.CommitOriginalVersion(ts, contributionRef("c1"), v1ID,
		identifier.ObjectVersionID{}, commitAudit(t, ts, terminology.ChangeTypeCreation, baseTime),
		terminology.LifecycleComplete, payload{}); err != nil {
		t.Fatalf("commit v1: %v", err)
	}
	if _, err := vo.CommitOriginalVersion(ts, contributionRef("c2"), branchID, v1ID,
		commitAudit(t, ts, terminology.ChangeTypeAmendment, baseTime.Add(time.Hour)),
		terminology.LifecycleIncomplete, payload{}); err != nil {
		t.Fatalf("commit branch: %v", err)
	}

	latest, ok := vo.LatestVersion()
	if !ok || latest.UID() != branchID {
		t.Fatalf("LatestVersion = %v, want branch", latest)
	}
	if !latest.IsBranch() {
		t.Fatal("branch version not reported as branch")
	}
	trunk, ok := vo.LatestTrunkVersion()
	if !ok || trunk.UID() != v1ID {
		t.Fatalf("LatestTrunkVersion = %v, want %s", trunk, v1ID)
	}
	state, ok := vo.TrunkLifecycleState()
	if !ok || state != terminology.LifecycleComplete {
		t.Fatalf("TrunkLifecycleState = %v, %v", state, ok)
	}
}

func TestMergedVersion(t *testing.T) {
	ts := terminology.NewLocalService()
	vo := newContainer(t)
	v1ID := mustVersionID(t, containerUID+"::net.example.ehr::1")
	v2ID := mustVersionID(t, containerUID+"::net.example.ehr::2")
	foreign := mustVersionID(t, "c0a5cb22-5fe7-4a40-991f-7e0258a79b82::sys.example::4")

	if _, err := vo.CommitOriginalVersion(ts, contributionRef("c1"), v1ID,
		identifier.ObjectVersionID{}, commitAudit(t, ts, terminology.ChangeTypeCreation, baseTime),
		terminology.LifecycleComplete, payload{}); err != nil {
		t.Fatalf("commit v1: %v", err)
	}

	_, err := vo.CommitOriginalMergedVersion(ts, contributionRef("c2"), v2ID, v1ID,
		commitAudit(t, ts, terminology.ChangeTypeSynthesis, baseTime.Add(time.Hour)),
		terminology.LifecycleComplete, payload{}, nil)
	if !IsKind(err, KindEmptyCollection) {
		t.Fatalf("empty merge inputs: got %v, want KindEmptyCollection", err)
	}

	// Merge sources in other containers are accepted unchecked.
	v2, err := vo.CommitOriginalMergedVersion(ts, contributionRef("c2"), v2ID, v1ID,
		commitAudit(t, ts, terminology.ChangeTypeSynthesis, baseTime.Add(time.Hour)),
		terminology.LifecycleComplete, payload{}, []identifier.ObjectVersionID{foreign})
	if err != nil {
		t.Fatalf("CommitOriginalMergedVersion: %v", err)
	}
	if !v2.IsMerged() {
		t.Fatal("merged version not reported as merged")
	}
	if got := v2.OtherInputVersionUIDs(); len(got) != 1 || got[0] != foreign {
		t.Fatalf("OtherInputVersionUIDs = %v", got)
	}
}

func TestVersionAtTime(t *testing.T) {
	ts := terminology.NewLocalService()
	vo := newContainer(t)
	v1ID := mustVersionID(t, containerUID+"::net.example.ehr::1")

	if _, err := vo.CommitOriginalVersion(ts, contributionRef("c1"), v1ID,
		identifier.ObjectVersionID{}, commitAudit(t, ts, terminology.ChangeTypeCreation, baseTime),
		terminology.LifecycleComplete, payload{}); err != nil {
		t.Fatalf("commit v1: %v", err)
	}

	if !vo.HasVersionAtTime(baseTime) {
		t.Fatal("exact commit time not found")
	}
	// Strict equality, not "latest as of t".
	if vo.HasVersionAtTime(baseTime.Add(time.Second)) {
		t.Fatal("non-commit time matched")
	}
	if _, err := vo.VersionAtTime(baseTime.Add(time.Second)); !IsKind(err, KindVersionNotFound) {
		t.Fatalf("VersionAtTime miss: got %v, want KindVersionNotFound", err)
	}
	v, err := vo.VersionAtTime(baseTime)
	if err != nil || v.UID() != v1ID {
		t.Fatalf("VersionAtTime = %v, %v", v, err)
	}
}

func TestCanonicalFormExcludesSignature(t *testing.T) {
	ts := terminology.NewLocalService()
	v1ID := mustVersionID(t, containerUID+"::net.example.ehr::1")
	v, err := NewOriginalVersion(ts, OriginalVersionParams[payload]{
		UID:            v1ID,
		LifecycleState: terminology.LifecycleComplete,
		Data:           payload{Text: "content"},
		Contribution:   contributionRef("c1"),
		CommitAudit:    commitAudit(t, ts, terminology.ChangeTypeCreation, baseTime),
	})
	if err != nil {
		t.Fatalf("NewOriginalVersion: %v", err)
	}

	unsigned, err := CanonicalForm[payload](v)
	if err != nil {
		t.Fatalf("CanonicalForm: %v", err)
	}
	signed, err := CanonicalForm[payload](v.WithSignature("sig:deadbeef"))
	if err != nil {
		t.Fatalf("CanonicalForm signed: %v", err)
	}
	if !bytes.Equal(unsigned, signed) {
		t.Fatal("canonical form changed when signature was attached")
	}
	if bytes.Contains(unsigned, []byte("signature")) {
		t.Fatalf("canonical form carries signature field: %s", unsigned)
	}

	again, err := CanonicalForm[payload](v)
	if err != nil {
		t.Fatalf("CanonicalForm again: %v", err)
	}
	if !bytes.Equal(unsigned, again) {
		t.Fatal("canonical form not deterministic")
	}

	cidA, err := CanonicalCID[payload](v)
	if err != nil {
		t.Fatalf("CanonicalCID: %v", err)
	}
	cidB, err := CanonicalCID[payload](v.WithSignature("sig:deadbeef"))
	if err != nil {
		t.Fatalf("CanonicalCID signed: %v", err)
	}
	if cidA != cidB {
		t.Fatal("cid changed when signature was attached")
	}
}

func TestVersionJSONRoundTrip(t *testing.T) {
	ts := terminology.NewLocalService()
	v1ID := mustVersionID(t, containerUID+"::net.example.ehr::1")
	v2ID := mustVersionID(t, containerUID+"::net.example.ehr::2")
	v, err := NewOriginalVersion(ts, OriginalVersionParams[payload]{
		UID:                 v2ID,
		PrecedingVersionUID: v1ID,
		LifecycleState:      terminology.LifecycleComplete,
		Data:                payload{Text: "content"},
		Contribution:        contributionRef("c2"),
		CommitAudit:         commitAudit(t, ts, terminology.ChangeTypeModification, baseTime),
		Signature:           "sig:deadbeef",
	})
	if err != nil {
		t.Fatalf("NewOriginalVersion: %v", err)
	}

	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Contains(b, []byte(`"_type":"ORIGINAL_VERSION"`)) {
		t.Fatalf("missing discriminator: %s", b)
	}

	back, err := DecodeVersion[payload](ts, b)
	if err != nil {
		t.Fatalf("DecodeVersion: %v", err)
	}
	original, ok := back.(*OriginalVersion[payload])
	if !ok {
		t.Fatalf("decoded as %T", back)
	}
	if original.UID() != v2ID || original.Signature() != "sig:deadbeef" {
		t.Fatalf("round trip mismatch: %+v", original)
	}
	preceding, has := original.PrecedingVersionUID()
	if !has || preceding != v1ID {
		t.Fatalf("preceding = %v, %v", preceding, has)
	}
	if original.Data().Text != "content" {
		t.Fatalf("data = %+v", original.Data())
	}

	// Imported wrapper round trip.
	imported, err := NewImportedVersion(original, contributionRef("c3"),
		commitAudit(t, ts, terminology.ChangeTypeModification, baseTime.Add(time.Hour)), "")
	if err != nil {
		t.Fatalf("NewImportedVersion: %v", err)
	}
	ib, err := json.Marshal(imported)
	if err != nil {
		t.Fatalf("marshal imported: %v", err)
	}
	decoded, err := DecodeVersion[payload](ts, ib)
	if err != nil {
		t.Fatalf("DecodeVersion imported: %v", err)
	}
	wrapper, ok := decoded.(*ImportedVersion[payload])
	if !ok {
		t.Fatalf("decoded as %T", decoded)
	}
	if wrapper.UID() != v2ID || wrapper.Item().Signature() != "sig:deadbeef" {
		t.Fatalf("imported round trip mismatch")
	}
}

func TestRehydrate(t *testing.T) {
	ts := terminology.NewLocalService()
	vo := newContainer(t)
	v1ID := mustVersionID(t, containerUID+"::net.example.ehr::1")
	v2ID := mustVersionID(t, containerUID+"::net.example.ehr::2")

	if _, err := vo.CommitOriginalVersion(ts, contributionRef("c1"), v1ID,
		identifier.ObjectVersionID{}, commitAudit(t, ts, terminology.ChangeTypeCreation, baseTime),
		terminology.LifecycleComplete, payload{Text: "first"}); err != nil {
		t.Fatalf("commit v1: %v", err)
	}
	if _, err := vo.CommitOriginalVersion(ts, contributionRef("c2"), v2ID, v1ID,
		commitAudit(t, ts, terminology.ChangeTypeModification, baseTime.Add(time.Hour)),
		terminology.LifecycleComplete, payload{Text: "second"}); err != nil {
		t.Fatalf("commit v2: %v", err)
	}

	back, err := Rehydrate(vo.UID(), vo.OwnerID(), vo.TimeCreated(), vo.RevisionHistory(), vo.AllVersions())
	if err != nil {
		t.Fatalf("Rehydrate: %v", err)
	}
	if back.VersionCount() != 2 {
		t.Fatalf("VersionCount = %d", back.VersionCount())
	}
	if !back.HasVersionID(v2ID) || !back.HasVersionAtTime(baseTime) {
		t.Fatal("indices not rebuilt")
	}

	// Precedence still enforced after rehydration.
	v3ID := mustVersionID(t, containerUID+"::net.example.ehr::3")
	if _, err := back.CommitOriginalVersion(ts, contributionRef("c3"), v3ID, v2ID,
		commitAudit(t, ts, terminology.ChangeTypeModification, baseTime.Add(2*time.Hour)),
		terminology.LifecycleComplete, payload{Text: "third"}); err != nil {
		t.Fatalf("commit after rehydrate: %v", err)
	}

	// Foreign versions are refused.
	foreignID := mustVersionID(t, "c0a5cb22-5fe7-4a40-991f-7e0258a79b82::sys.example::1")
	foreign, err := NewOriginalVersion(ts, OriginalVersionParams[payload]{
		UID:            foreignID,
		LifecycleState: terminology.LifecycleComplete,
		Contribution:   contributionRef("cx"),
		CommitAudit:    commitAudit(t, ts, terminology.ChangeTypeCreation, baseTime),
	})
	if err != nil {
		t.Fatalf("NewOriginalVersion foreign: %v", err)
	}
	_, err = Rehydrate(vo.UID(), vo.OwnerID(), vo.TimeCreated(), audit.RevisionHistory{},
		[]Version[payload]{foreign})
	if !IsKind(err, KindContainerMismatch) {
		t.Fatalf("rehydrate foreign: got %v, want KindContainerMismatch", err)
	}
}

func TestCheckContributionSet(t *testing.T) {
	ts := terminology.NewLocalService()
	cuid := mustHierObjectID(t, "c0a5cb22-5fe7-4a40-991f-7e0258a79b82")
	v1ID := mustVersionID(t, containerUID+"::net.example.ehr::1")

	contribution, err := NewContribution(cuid,
		[]identifier.ObjectRef{{Namespace: "ehr", Type: "VERSION", ID: v1ID.Value()}},
		commitAudit(t, ts, terminology.ChangeTypeCreation, baseTime))
	if err != nil {
		t.Fatalf("NewContribution: %v", err)
	}

	v1, err := NewOriginalVersion(ts, OriginalVersionParams[payload]{
		UID:            v1ID,
		LifecycleState: terminology.LifecycleComplete,
		Contribution:   contribution.Ref(),
		CommitAudit:    commitAudit(t, ts, terminology.ChangeTypeCreation, baseTime),
	})
	if err != nil {
		t.Fatalf("NewOriginalVersion: %v", err)
	}

	if err := CheckContributionSet(contribution, []Version[payload]{v1}); err != nil {
		t.Fatalf("CheckContributionSet: %v", err)
	}

	// Version pointing at a different contribution.
	stray, err := NewOriginalVersion(ts, OriginalVersionParams[payload]{
		UID:            v1ID,
		LifecycleState: terminology.LifecycleComplete,
		Contribution:   contributionRef("someone-else"),
		CommitAudit:    commitAudit(t, ts, terminology.ChangeTypeCreation, baseTime),
	})
	if err != nil {
		t.Fatalf("NewOriginalVersion stray: %v", err)
	}
	if err := CheckContributionSet(contribution, []Version[payload]{stray}); !IsKind(err, KindBatchInconsistent) {
		t.Fatalf("stray contribution ref: got %v, want KindBatchInconsistent", err)
	}

	// Contribution listing a version not in the batch.
	wider, err := NewContribution(cuid,
		[]identifier.ObjectRef{
			{Namespace: "ehr", Type: "VERSION", ID: v1ID.Value()},
			{Namespace: "ehr", Type: "VERSION", ID: containerUID + "::net.example.ehr::2"},
		},
		commitAudit(t, ts, terminology.ChangeTypeCreation, baseTime))
	if err != nil {
		t.Fatalf("NewContribution wider: %v", err)
	}
	v1w, err := NewOriginalVersion(ts, OriginalVersionParams[payload]{
		UID:            v1ID,
		LifecycleState: terminology.LifecycleComplete,
		Contribution:   wider.Ref(),
		CommitAudit:    commitAudit(t, ts, terminology.ChangeTypeCreation, baseTime),
	})
	if err != nil {
		t.Fatalf("NewOriginalVersion v1w: %v", err)
	}
	if err := CheckContributionSet(wider, []Version[payload]{v1w}); !IsKind(err, KindBatchInconsistent) {
		t.Fatalf("unresolved ref: got %v, want KindBatchInconsistent", err)
	}

	if err := CheckContributionSet[payload](contribution, nil); !IsKind(err, KindEmptyCollection) {
		t.Fatalf("empty batch: got %v, want KindEmptyCollection", err)
	}
}

func TestContributionJSONRoundTrip(t *testing.T) {
	ts := terminology.NewLocalService()
	cuid := mustHierObjectID(t, "c0a5cb22-5fe7-4a40-991f-7e0258a79b82")
	c, err := NewContribution(cuid,
		[]identifier.ObjectRef{{Namespace: "ehr", Type: "VERSION", ID: containerUID + "::net.example.ehr::1"}},
		commitAudit(t, ts, terminology.ChangeTypeCreation, baseTime))
	if err != nil {
		t.Fatalf("NewContribution: %v", err)
	}

	b, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Contains(b, []byte(`"_type":"CONTRIBUTION"`)) {
		t.Fatalf("missing discriminator: %s", b)
	}
	var back Contribution
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.UID != c.UID || len(back.Versions) != 1 || back.Versions[0] != c.Versions[0] {
		t.Fatalf("round trip mismatch: %+v", back)
	}
}
