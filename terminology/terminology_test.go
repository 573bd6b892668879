package terminology

import "testing"

func TestLocalService_GroupMembership(t *testing.T) {
	ts := NewLocalService()

	cases := []struct {
		code    CodePhrase
		groupID string
		want    bool
	}{
		{ChangeTypeCreation.DefiningCode, GroupAuditChangeType, true},
		{ChangeTypeAttestation.DefiningCode, GroupAuditChangeType, true},
		{LifecycleComplete.DefiningCode, GroupVersionLifecycleState, true},
		{LifecycleDeleted.DefiningCode, GroupVersionLifecycleState, true},
		{ReasonWitnessed.DefiningCode, GroupAttestationReason, true},
		// 532 (complete) is a lifecycle state, not a change type.
		{LifecycleComplete.DefiningCode, GroupAuditChangeType, false},
		{CodePhrase{TerminologyID: TerminologyIDOpenEHR, Code: "9999"}, GroupAuditChangeType, false},
		// Same code string, foreign terminology: not a member.
		{CodePhrase{TerminologyID: "snomed", Code: "249"}, GroupAuditChangeType, false},
	}
	for _, tc := range cases {
		got, err := ts.VerifyCodeInGroup(tc.code, tc.groupID)
		if err != nil {
			t.Fatalf("VerifyCodeInGroup(%v, %q): %v", tc.code, tc.groupID, err)
		}
		if got != tc.want {
			t.Fatalf("VerifyCodeInGroup(%v, %q) = %v, want %v", tc.code, tc.groupID, got, tc.want)
		}
	}
}

func TestLocalService_UnknownGroupIsError(t *testing.T) {
	ts := NewLocalService()
	if _, err := ts.VerifyCodeInGroup(ChangeTypeCreation.DefiningCode, "no such group"); err == nil {
		t.Fatalf("expected error for unknown group")
	}
}

func TestVerifyCodeOrError(t *testing.T) {
	ts := NewLocalService()
	if err := VerifyCodeOrError(ts, ReasonSigned.DefiningCode, GroupAttestationReason, "reason_valid"); err != nil {
		t.Fatalf("VerifyCodeOrError: %v", err)
	}
	if err := VerifyCodeOrError(ts, ReasonSigned.DefiningCode, GroupAuditChangeType, "change_type_valid"); err == nil {
		t.Fatalf("expected error for code outside group")
	}
	if err := VerifyCodeOrError(nil, ReasonSigned.DefiningCode, GroupAttestationReason, "reason_valid"); err == nil {
		t.Fatalf("expected error for missing service")
	}
}

// The deleted code 523 deliberately appears in both the change-type and
// lifecycle-state groups.
func TestDeletedCodeSharedAcrossGroups(t *testing.T) {
	ts := NewLocalService()
	for _, groupID := range []string{GroupAuditChangeType, GroupVersionLifecycleState} {
		ok, err := ts.VerifyCodeInGroup(ChangeTypeDeleted.DefiningCode, groupID)
		if err != nil || !ok {
			t.Fatalf("code 523 must be in %q (ok=%v err=%v)", groupID, ok, err)
		}
	}
}
