package store

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"testing"
	"time"

	"clehr.dev/recordkit/audit"
	"clehr.dev/recordkit/changecontrol"
	"clehr.dev/recordkit/identifier"
	"clehr.dev/recordkit/keys"
	"clehr.dev/recordkit/storage/memstore"
	"clehr.dev/recordkit/terminology"
)

const systemID = "net.example.ehr"

// testClock hands out strictly increasing timestamps so every commit gets
// a distinct time index key.
type testClock struct {
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestStore(t *testing.T) *VersionedStore[json.RawMessage] {
	t.Helper()
	ts := terminology.NewLocalService()
	s, err := New[json.RawMessage](memstore.New[json.RawMessage](ts), ts,
		WithClock(newTestClock().Now))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func owner() identifier.ObjectRef {
	return identifier.ObjectRef{Namespace: "ehr", Type: "EHR", ID: "ehr-42"}
}

func TestCreateCommitsFirstVersion(t *testing.T) {
	s := newTestStore(t)

	res, err := s.Create(owner(), CommitParams[json.RawMessage]{
		SystemID:    systemID,
		Committer:   audit.NewPartySelf(),
		Description: "initial record",
		Data:        json.RawMessage(`{"note":"first"}`),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if res.ContainerUID.IsZero() {
		t.Fatalf("zero container uid")
	}
	wantID := res.ContainerUID.Value() + "::" + systemID + "::1"
	if res.Version.UID().Value() != wantID {
		t.Fatalf("first version id = %s, want %s", res.Version.UID().Value(), wantID)
	}
	if _, ok := res.Version.PrecedingVersionUID(); ok {
		t.Fatalf("first version must not name a predecessor")
	}
	if res.Version.CommitAudit().ChangeType != terminology.ChangeTypeCreation {
		t.Fatalf("change type = %+v", res.Version.CommitAudit().ChangeType)
	}

	vo, err := s.RetrieveContainer(res.ContainerUID)
	if err != nil {
		t.Fatalf("RetrieveContainer: %v", err)
	}
	if vo.VersionCount() != 1 {
		t.Fatalf("version count = %d", vo.VersionCount())
	}
	if len(vo.RevisionHistory().Items) != 1 {
		t.Fatalf("history items = %d", len(vo.RevisionHistory().Items))
	}

	got, err := s.backend.RetrieveContribution(res.ContainerUID, res.Contribution.UID)
	if err != nil {
		t.Fatalf("RetrieveContribution: %v", err)
	}
	if len(got.Versions) != 1 || got.Versions[0].ID != res.Version.UID().Value() {
		t.Fatalf("contribution = %+v", got)
	}
}

func TestUpdateAdvancesTrunk(t *testing.T) {
	s := newTestStore(t)

	res, err := s.Create(owner(), CommitParams[json.RawMessage]{
		SystemID:  systemID,
		Committer: audit.NewPartySelf(),
		Data:      json.RawMessage(`{"note":"first"}`),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := s.Update(res.ContainerUID, UpdateParams[json.RawMessage]{
		CommitParams: CommitParams[json.RawMessage]{
			SystemID:    systemID,
			Committer:   audit.NewPartySelf(),
			Description: "second pass",
			Data:        json.RawMessage(`{"note":"second"}`),
		},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	wantID := res.ContainerUID.Value() + "::" + systemID + "::2"
	if updated.Version.UID().Value() != wantID {
		t.Fatalf("updated version id = %s, want %s", updated.Version.UID().Value(), wantID)
	}
	preceding, ok := updated.Version.PrecedingVersionUID()
	if !ok || preceding != res.Version.UID() {
		t.Fatalf("preceding = %v, %v", preceding, ok)
	}
	if updated.Version.CommitAudit().ChangeType != terminology.ChangeTypeModification {
		t.Fatalf("change type = %+v", updated.Version.CommitAudit().ChangeType)
	}

	latest, err := s.ReadLatest(res.ContainerUID)
	if err != nil {
		t.Fatalf("ReadLatest: %v", err)
	}
	if latest.UID() != updated.Version.UID() {
		t.Fatalf("latest = %s", latest.UID().Value())
	}
	if !bytes.Equal(latest.Data(), json.RawMessage(`{"note":"second"}`)) {
		t.Fatalf("latest data = %s", latest.Data())
	}
}

func TestUpdateMissingContainer(t *testing.T) {
	s := newTestStore(t)
	uid, err := identifier.ParseHierObjectID("154b1047-23aa-4d4d-8713-df848fd4d60a")
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.Update(uid, UpdateParams[json.RawMessage]{
		CommitParams: CommitParams[json.RawMessage]{
			SystemID:  systemID,
			Committer: audit.NewPartySelf(),
			Data:      json.RawMessage(`{}`),
		},
	})
	if err == nil {
		t.Fatalf("expected error for missing container")
	}
}

func TestAttestAppendsToVersionAndHistory(t *testing.T) {
	s := newTestStore(t)

	res, err := s.Create(owner(), CommitParams[json.RawMessage]{
		SystemID:  systemID,
		Committer: audit.NewPartySelf(),
		Data:      json.RawMessage(`{"note":"to sign"}`),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	attester, err := audit.NewPartyIdentified("Dr Example", nil, nil)
	if err != nil {
		t.Fatalf("NewPartyIdentified: %v", err)
	}
	if err := s.Attest(res.ContainerUID, res.Version.UID(), AttestParams{
		SystemID:    systemID,
		Committer:   attester,
		Description: "countersigned",
		Reason:      terminology.ReasonWitnessed,
		Options:     audit.AttestationOptions{Proof: "sig-material"},
	}); err != nil {
		t.Fatalf("Attest: %v", err)
	}

	v, err := s.ReadVersion(res.ContainerUID, res.Version.UID())
	if err != nil {
		t.Fatalf("ReadVersion: %v", err)
	}
	original, ok := v.(*changecontrol.OriginalVersion[json.RawMessage])
	if !ok {
		t.Fatalf("retrieved %T", v)
	}
	atts := original.Attestations()
	if len(atts) != 1 || atts[0].Reason != terminology.ReasonWitnessed || atts[0].Proof != "sig-material" {
		t.Fatalf("attestations = %+v", atts)
	}

	vo, err := s.RetrieveContainer(res.ContainerUID)
	if err != nil {
		t.Fatalf("RetrieveContainer: %v", err)
	}
	history := vo.RevisionHistory()
	if len(history.Items) != 1 || len(history.Items[0].Audits) != 2 {
		t.Fatalf("history = %+v", history)
	}
}

func TestDeleteIsLogical(t *testing.T) {
	s := newTestStore(t)

	res, err := s.Create(owner(), CommitParams[json.RawMessage]{
		SystemID:  systemID,
		Committer: audit.NewPartySelf(),
		Data:      json.RawMessage(`{"note":"keep me"}`),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	deleted, err := s.Delete(res.ContainerUID, CommitParams[json.RawMessage]{
		SystemID:    systemID,
		Committer:   audit.NewPartySelf(),
		Description: "patient request",
	})
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if deleted.Version.LifecycleState() != terminology.LifecycleDeleted {
		t.Fatalf("lifecycle = %+v", deleted.Version.LifecycleState())
	}
	if deleted.Version.CommitAudit().ChangeType != terminology.ChangeTypeDeleted {
		t.Fatalf("change type = %+v", deleted.Version.CommitAudit().ChangeType)
	}

	gone, err := s.IsDeleted(res.ContainerUID)
	if err != nil {
		t.Fatalf("IsDeleted: %v", err)
	}
	if !gone {
		t.Fatalf("IsDeleted = false")
	}

	// The container and its earlier versions survive.
	vo, err := s.RetrieveContainer(res.ContainerUID)
	if err != nil {
		t.Fatalf("RetrieveContainer: %v", err)
	}
	if vo.VersionCount() != 2 {
		t.Fatalf("version count = %d", vo.VersionCount())
	}
	if !bytes.Equal(deleted.Version.Data(), json.RawMessage(`{"note":"keep me"}`)) {
		t.Fatalf("deletion must carry the latest payload, got %s", deleted.Version.Data())
	}
}

func TestSignedCommitVerifies(t *testing.T) {
	s := newTestStore(t)

	seed := bytes.Repeat([]byte{7}, ed25519.SeedSize)
	signer := ed25519.NewKeyFromSeed(seed)
	committerKey := keys.GenerateCommitterKeyFromSeed(seed)

	res, err := s.Create(owner(), CommitParams[json.RawMessage]{
		SystemID:  systemID,
		Committer: audit.NewPartySelf(),
		Data:      json.RawMessage(`{"note":"signed"}`),
		Signer:    signer,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if res.Version.Signature() == "" {
		t.Fatalf("missing signature")
	}

	stored, err := s.ReadVersion(res.ContainerUID, res.Version.UID())
	if err != nil {
		t.Fatalf("ReadVersion: %v", err)
	}
	ok, err := keys.VerifyVersionSignature(stored, committerKey)
	if err != nil {
		t.Fatalf("VerifyVersionSignature: %v", err)
	}
	if !ok {
		t.Fatalf("signature does not verify")
	}
}
