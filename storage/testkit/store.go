// Package testkit provides conformance suites run against every storage
// backend: the RecordStore contract and the canonical-bytes archive
// contract.
package testkit

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"clehr.dev/recordkit/audit"
	"clehr.dev/recordkit/changecontrol"
	"clehr.dev/recordkit/identifier"
	"clehr.dev/recordkit/storage"
	"clehr.dev/recordkit/terminology"
)

// NewStore constructs a fresh, empty RecordStore instance for a test.
// The returned store MUST be isolated from other tests.
type NewStore func(t *testing.T) storage.RawStore

const conformanceContainerUID = "154b1047-23aa-4d4d-8713-df848fd4d60a"

var conformanceTime = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func mustContainerID(t *testing.T, s string) identifier.HierObjectID {
	t.Helper()
	uid, err := identifier.ParseHierObjectID(s)
	if err != nil {
		t.Fatalf("ParseHierObjectID(%q): %v", s, err)
	}
	return uid
}

func mustVersionID(t *testing.T, s string) identifier.ObjectVersionID {
	t.Helper()
	id, err := identifier.ParseObjectVersionID(s)
	if err != nil {
		t.Fatalf("ParseObjectVersionID(%q): %v", s, err)
	}
	return id
}

func conformanceMeta(t *testing.T) storage.ContainerMetadata {
	t.Helper()
	return storage.ContainerMetadata{
		UID:         mustContainerID(t, conformanceContainerUID),
		OwnerID:     identifier.ObjectRef{Namespace: "ehr", Type: "EHR", ID: "ehr-conformance"},
		TimeCreated: conformanceTime,
	}
}

func conformanceAudit(t *testing.T, ts terminology.Service, changeType terminology.CodedText) audit.Details {
	t.Helper()
	d, err := audit.NewDetails(ts, "net.example.ehr", conformanceTime, changeType, audit.NewPartySelf(), "")
	if err != nil {
		t.Fatalf("NewDetails: %v", err)
	}
	return d
}

// conformanceBatch builds one contribution carrying one first version.
func conformanceBatch(t *testing.T, ts terminology.Service) (changecontrol.Contribution, *changecontrol.OriginalVersion[json.RawMessage]) {
	t.Helper()
	cuid := mustContainerID(t, "c0a5cb22-5fe7-4a40-991f-7e0258a79b82")
	v1ID := mustVersionID(t, conformanceContainerUID+"::net.example.ehr::1")
	contribution, err := changecontrol.NewContribution(cuid,
		[]identifier.ObjectRef{{Namespace: "ehr", Type: "VERSION", ID: v1ID.Value()}},
		conformanceAudit(t, ts, terminology.ChangeTypeCreation))
	if err != nil {
		t.Fatalf("NewContribution: %v", err)
	}
	v1, err := changecontrol.NewOriginalVersion(ts, changecontrol.OriginalVersionParams[json.RawMessage]{
		UID:            v1ID,
		LifecycleState: terminology.LifecycleComplete,
		Data:           json.RawMessage(`{"text":"conformance"}`),
		Contribution:   contribution.Ref(),
		CommitAudit:    conformanceAudit(t, ts, terminology.ChangeTypeCreation),
	})
	if err != nil {
		t.Fatalf("NewOriginalVersion: %v", err)
	}
	return contribution, v1
}

func conformanceHistory(v *changecontrol.OriginalVersion[json.RawMessage]) audit.RevisionHistory {
	var h audit.RevisionHistory
	h.AppendAudit(v.UID(), v.CommitAudit())
	return h
}

func RunRecordStoreConformance(t *testing.T, newStore NewStore) {
	t.Helper()
	ts := terminology.NewLocalService()

	t.Run("GenerateContainerID", func(t *testing.T) {
		store := newStore(t)
		a, err := store.GenerateContainerID()
		if err != nil {
			t.Fatalf("GenerateContainerID: %v", err)
		}
		b, err := store.GenerateContainerID()
		if err != nil {
			t.Fatalf("GenerateContainerID: %v", err)
		}
		if a.IsZero() || b.IsZero() {
			t.Fatalf("generated zero id")
		}
		if a == b {
			t.Fatalf("generated ids collide: %s", a.Value())
		}
	})

	t.Run("CreateAndRetrieveContainer", func(t *testing.T) {
		store := newStore(t)
		meta := conformanceMeta(t)

		if err := store.CreateContainer(meta); err != nil {
			t.Fatalf("CreateContainer: %v", err)
		}
		if err := store.CreateContainer(meta); !errors.Is(err, storage.ErrDuplicateContainer) {
			t.Fatalf("duplicate create: got %v want ErrDuplicateContainer", err)
		}

		got, history, versions, err := store.RetrieveContainer(meta.UID)
		if err != nil {
			t.Fatalf("RetrieveContainer: %v", err)
		}
		if got.UID != meta.UID || got.OwnerID != meta.OwnerID || !got.TimeCreated.Equal(meta.TimeCreated) {
			t.Fatalf("metadata mismatch: %+v", got)
		}
		if len(history.Items) != 0 || len(versions) != 0 {
			t.Fatalf("fresh container not empty: %d items, %d versions", len(history.Items), len(versions))
		}

		missing := mustContainerID(t, "0a0c7548-2b8f-4a9a-86ef-cec54c72b9c2")
		if _, _, _, err := store.RetrieveContainer(missing); !storage.IsNotFound(err) {
			t.Fatalf("retrieve missing: got %v want ErrNotFound", err)
		}
	})

	t.Run("CommitAndRetrieve", func(t *testing.T) {
		store := newStore(t)
		meta := conformanceMeta(t)
		if err := store.CreateContainer(meta); err != nil {
			t.Fatalf("CreateContainer: %v", err)
		}

		contribution, v1 := conformanceBatch(t, ts)
		history := conformanceHistory(v1)
		if err := store.CommitContributionSet(meta.UID, contribution,
			[]changecontrol.Version[json.RawMessage]{v1}, history); err != nil {
			t.Fatalf("CommitContributionSet: %v", err)
		}

		_, gotHistory, versions, err := store.RetrieveContainer(meta.UID)
		if err != nil {
			t.Fatalf("RetrieveContainer: %v", err)
		}
		if len(versions) != 1 || versions[0].UID() != v1.UID() {
			t.Fatalf("stored versions = %v", versions)
		}
		if len(gotHistory.Items) != 1 || gotHistory.Items[0].VersionID != v1.UID() {
			t.Fatalf("stored history = %+v", gotHistory)
		}

		v, err := store.RetrieveVersion(meta.UID, v1.UID())
		if err != nil {
			t.Fatalf("RetrieveVersion: %v", err)
		}
		if v.LifecycleState() != terminology.LifecycleComplete {
			t.Fatalf("lifecycle = %+v", v.LifecycleState())
		}

		gotContribution, err := store.RetrieveContribution(meta.UID, contribution.UID)
		if err != nil {
			t.Fatalf("RetrieveContribution: %v", err)
		}
		if gotContribution.UID != contribution.UID || len(gotContribution.Versions) != 1 {
			t.Fatalf("contribution mismatch: %+v", gotContribution)
		}

		if _, err := store.RetrieveVersion(meta.UID,
			mustVersionID(t, conformanceContainerUID+"::net.example.ehr::9")); !storage.IsNotFound(err) {
			t.Fatalf("retrieve missing version: got %v want ErrNotFound", err)
		}
	})

	t.Run("CommitRejectsInconsistentBatch", func(t *testing.T) {
		store := newStore(t)
		meta := conformanceMeta(t)
		if err := store.CreateContainer(meta); err != nil {
			t.Fatalf("CreateContainer: %v", err)
		}

		contribution, _ := conformanceBatch(t, ts)
		stray, err := changecontrol.NewOriginalVersion(ts, changecontrol.OriginalVersionParams[json.RawMessage]{
			UID:            mustVersionID(t, conformanceContainerUID+"::net.example.ehr::1"),
			LifecycleState: terminology.LifecycleComplete,
			Data:           json.RawMessage(`{}`),
			Contribution:   identifier.ObjectRef{Namespace: "ehr", Type: "CONTRIBUTION", ID: "someone-else"},
			CommitAudit:    conformanceAudit(t, ts, terminology.ChangeTypeCreation),
		})
		if err != nil {
			t.Fatalf("NewOriginalVersion: %v", err)
		}
		err = store.CommitContributionSet(meta.UID, contribution,
			[]changecontrol.Version[json.RawMessage]{stray}, conformanceHistory(stray))
		if !errors.Is(err, storage.ErrBatchInconsistent) {
			t.Fatalf("inconsistent batch: got %v want ErrBatchInconsistent", err)
		}

		// Nothing from the failed batch may be visible.
		_, _, versions, err := store.RetrieveContainer(meta.UID)
		if err != nil {
			t.Fatalf("RetrieveContainer: %v", err)
		}
		if len(versions) != 0 {
			t.Fatalf("failed batch leaked %d versions", len(versions))
		}
	})

	t.Run("CommitIntoMissingContainer", func(t *testing.T) {
		store := newStore(t)
		contribution, v1 := conformanceBatch(t, ts)
		err := store.CommitContributionSet(mustContainerID(t, conformanceContainerUID), contribution,
			[]changecontrol.Version[json.RawMessage]{v1}, conformanceHistory(v1))
		if !storage.IsNotFound(err) {
			t.Fatalf("commit into missing container: got %v want ErrNotFound", err)
		}
	})

	t.Run("AppendAttestation", func(t *testing.T) {
		store := newStore(t)
		meta := conformanceMeta(t)
		if err := store.CreateContainer(meta); err != nil {
			t.Fatalf("CreateContainer: %v", err)
		}
		contribution, v1 := conformanceBatch(t, ts)
		history := conformanceHistory(v1)
		if err := store.CommitContributionSet(meta.UID, contribution,
			[]changecontrol.Version[json.RawMessage]{v1}, history); err != nil {
			t.Fatalf("CommitContributionSet: %v", err)
		}

		att, err := audit.NewAttestation(ts, conformanceAudit(t, ts, terminology.ChangeTypeAttestation),
			terminology.ReasonSigned, false, audit.AttestationOptions{})
		if err != nil {
			t.Fatalf("NewAttestation: %v", err)
		}
		attested, err := changecontrol.NewOriginalVersion(ts, changecontrol.OriginalVersionParams[json.RawMessage]{
			UID:            v1.UID(),
			LifecycleState: v1.LifecycleState(),
			Data:           v1.Data(),
			Contribution:   v1.Contribution(),
			CommitAudit:    v1.CommitAudit(),
			Attestations:   []audit.Attestation{att},
		})
		if err != nil {
			t.Fatalf("NewOriginalVersion attested: %v", err)
		}
		history.AppendAudit(v1.UID(), att)

		if err := store.AppendAttestation(meta.UID, attested, history); err != nil {
			t.Fatalf("AppendAttestation: %v", err)
		}

		got, err := store.RetrieveVersion(meta.UID, v1.UID())
		if err != nil {
			t.Fatalf("RetrieveVersion: %v", err)
		}
		original, ok := got.(*changecontrol.OriginalVersion[json.RawMessage])
		if !ok {
			t.Fatalf("retrieved %T", got)
		}
		if len(original.Attestations()) != 1 {
			t.Fatalf("attestations = %d, want 1", len(original.Attestations()))
		}

		_, gotHistory, _, err := store.RetrieveContainer(meta.UID)
		if err != nil {
			t.Fatalf("RetrieveContainer: %v", err)
		}
		if len(gotHistory.Items) != 1 || len(gotHistory.Items[0].Audits) != 2 {
			t.Fatalf("history after attestation = %+v", gotHistory)
		}
	})
}
