package identifier

import "testing"

func TestParseUID_ClassifiesGrammars(t *testing.T) {
	cases := []struct {
		value string
		kind  UIDKind
	}{
		{"1.2.840.10008", UIDISOOID},
		{"0.0", UIDISOOID},
		{"2.16.840.1.113883", UIDISOOID},
		{"154b1047-23aa-4d4d-8713-df848fd4d60a", UIDUUID},
		{"DEADBEEF-23aa-4d4d-8713-df848fd4d60a", UIDUUID},
		{"net.example.ehr", UIDInternetID},
		{"org.example.ehr2", UIDInternetID},
		{"uk.nhs.digital.records", UIDInternetID},
	}
	for _, tc := range cases {
		uid, err := ParseUID(tc.value)
		if err != nil {
			t.Fatalf("ParseUID(%q): %v", tc.value, err)
		}
		if uid.Kind() != tc.kind {
			t.Fatalf("ParseUID(%q): kind %v, want %v", tc.value, uid.Kind(), tc.kind)
		}
		if uid.Value() != tc.value {
			t.Fatalf("ParseUID(%q): value %q does not round-trip", tc.value, uid.Value())
		}
	}
}

func TestParseUID_RejectsInvalid(t *testing.T) {
	cases := []string{
		"",
		"3.2.1",              // first OID arc out of range
		"1.02",               // leading zero
		"154b1047-23aa-4d4d", // truncated UUID
		"154b1047-23aa-4d4d-8713-df848fd4d60a-ff",
		"ehr",                // single label
		"net..example",       // empty label
		"net.-example.ehr",   // label starts with hyphen
		"net.example-.ehr",   // label ends with hyphen
		"net.exa--mple.ehr",  // consecutive hyphens
		"net.9example.ehr",   // non-final label starts with digit
		"net.example.ehr!!!", // trailing garbage
	}
	for _, value := range cases {
		if _, err := ParseUID(value); err == nil {
			t.Fatalf("ParseUID(%q): expected error", value)
		} else if !IsKind(err, KindInvalidUIDFormat) {
			t.Fatalf("ParseUID(%q): kind %v, want InvalidUIDFormat", value, err)
		}
	}
}

func TestParseHierObjectID(t *testing.T) {
	h, err := ParseHierObjectID("154b1047-23aa-4d4d-8713-df848fd4d60a")
	if err != nil {
		t.Fatalf("ParseHierObjectID: %v", err)
	}
	if h.HasExtension() {
		t.Fatalf("container id must not have an extension")
	}
	if h.Value() != "154b1047-23aa-4d4d-8713-df848fd4d60a" {
		t.Fatalf("value does not round-trip: %q", h.Value())
	}
	if h.Root().Kind() != UIDUUID {
		t.Fatalf("root kind: %v", h.Root().Kind())
	}
}

func TestParseHierObjectID_RejectsExtension(t *testing.T) {
	_, err := ParseHierObjectID("154b1047-23aa-4d4d-8713-df848fd4d60a::ext")
	if err == nil {
		t.Fatalf("expected error for id with extension")
	}
	if !IsKind(err, KindInvalidUIDFormat) {
		t.Fatalf("kind: %v, want InvalidUIDFormat", err)
	}
	if got := RuleID(err); got != "RK-ID-002" {
		t.Fatalf("RuleID: %q", got)
	}
}

func TestParseHierObjectID_RejectsNonUIDRoot(t *testing.T) {
	if _, err := ParseHierObjectID("not a uid"); !IsKind(err, KindInvalidUIDFormat) {
		t.Fatalf("expected InvalidUIDFormat, got %v", err)
	}
}

func TestUID_StructuralEquality(t *testing.T) {
	a, _ := ParseUID("net.example.ehr")
	b, _ := ParseUID("net.example.ehr")
	c, _ := ParseUID("net.example.other")
	if a != b {
		t.Fatalf("identical values must compare equal")
	}
	if a == c {
		t.Fatalf("distinct values must not compare equal")
	}
}
