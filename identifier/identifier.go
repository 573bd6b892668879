// Package identifier implements the identifier algebra for version-controlled
// clinical records: root identifiers (UID), version container identifiers
// (HierObjectID), version tree identifiers (VersionTreeID) and fully
// qualified version identifiers (ObjectVersionID).
//
// All identifiers are immutable once parsed, and Value() reproduces the
// parsed input byte-for-byte. Equality is structural: two identifiers of the
// same type compare equal exactly when their lexical forms are identical.
package identifier

import "regexp"

// UIDKind discriminates the three accepted UID grammars.
type UIDKind int

const (
	// UIDISOOID is an ISO/IEC 8824 object identifier: dot-separated
	// integers with no leading zeros, first arc 0..2.
	UIDISOOID UIDKind = iota

	// UIDUUID is a DCE UUID in the 8-4-4-4-12 hexadecimal form.
	UIDUUID

	// UIDInternetID is a reverse internet domain per RFC 1034.
	UIDInternetID
)

func (k UIDKind) String() string {
	switch k {
	case UIDISOOID:
		return "iso-oid"
	case UIDUUID:
		return "uuid"
	case UIDInternetID:
		return "internet-id"
	default:
		return "unknown"
	}
}

var (
	isoOIDPattern = regexp.MustCompile(`^([0-2])((\.0)|(\.[1-9][0-9]*))*$`)
	uuidPattern   = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
)

// UID is a validated, globally unique root identifier. UIDs only ever
// identify one entity in time or space and are never re-used.
//
// The zero UID is invalid; obtain values through ParseUID.
type UID struct {
	value string
	kind  UIDKind
}

// ParseUID validates value against the OID, UUID and reverse-domain grammars,
// in that order, and returns the classified UID.
func ParseUID(value string) (UID, error) {
	switch {
	case isoOIDPattern.MatchString(value):
		return UID{value: value, kind: UIDISOOID}, nil
	case uuidPattern.MatchString(value):
		return UID{value: value, kind: UIDUUID}, nil
	case isValidInternetID(value):
		return UID{value: value, kind: UIDInternetID}, nil
	default:
		return UID{}, newError(KindInvalidUIDFormat, "RK-ID-001",
			"value is neither an ISO OID, a UUID nor a reverse domain name: "+quote(value))
	}
}

// Value returns the exact lexical form this UID was parsed from.
func (u UID) Value() string { return u.value }

// Kind reports which of the three UID grammars the value matched.
func (u UID) Kind() UIDKind { return u.kind }

// IsZero reports whether u is the invalid zero UID.
func (u UID) IsZero() bool { return u.value == "" }

func (u UID) String() string { return u.value }

// isValidInternetID checks the reverse-domain grammar: at least two
// dot-separated labels of 1..63 alphanumeric-or-hyphen characters, labels
// never starting or ending with a hyphen, non-final labels never starting
// with a digit, no consecutive hyphens anywhere, 253 characters total at
// most.
func isValidInternetID(value string) bool {
	if len(value) == 0 || len(value) > 253 {
		return false
	}
	labels := splitLabels(value)
	if len(labels) < 2 {
		return false
	}
	for i, label := range labels {
		final := i == len(labels)-1
		if !isValidLabel(label, final) {
			return false
		}
	}
	for i := 0; i+1 < len(value); i++ {
		if value[i] == '-' && value[i+1] == '-' {
			return false
		}
	}
	return true
}

func splitLabels(value string) []string {
	var labels []string
	start := 0
	for i := 0; i < len(value); i++ {
		if value[i] == '.' {
			labels = append(labels, value[start:i])
			start = i + 1
		}
	}
	return append(labels, value[start:])
}

func isValidLabel(label string, final bool) bool {
	if len(label) == 0 || len(label) > 63 {
		return false
	}
	for i := 0; i < len(label); i++ {
		c := label[i]
		alnum := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
		if !alnum && c != '-' {
			return false
		}
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return false
	}
	if !final && label[0] >= '0' && label[0] <= '9' {
		return false
	}
	return true
}

func quote(s string) string {
	if len(s) > 80 {
		s = s[:77] + "..."
	}
	return "\"" + s + "\""
}
