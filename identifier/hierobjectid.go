package identifier

import "strings"

// HierObjectID identifies one version container. It is a UID-based
// identifier that must carry no extension: the lexical form is a bare UID
// with no "::" separator. The same HierObjectID names the same virtual
// version tree in every system that holds a copy of the container.
type HierObjectID struct {
	root UID
}

// ParseHierObjectID validates value as a container identifier.
func ParseHierObjectID(value string) (HierObjectID, error) {
	if strings.Contains(value, "::") {
		return HierObjectID{}, newError(KindInvalidUIDFormat, "RK-ID-002",
			"version container id must not carry an extension: "+quote(value))
	}
	root, err := ParseUID(value)
	if err != nil {
		return HierObjectID{}, wrapError(KindInvalidUIDFormat, "RK-ID-003",
			"version container id root is not a valid UID: "+quote(value), err)
	}
	return HierObjectID{root: root}, nil
}

// Value returns the exact lexical form this identifier was parsed from.
func (h HierObjectID) Value() string { return h.root.value }

// Root returns the UID part, which for a HierObjectID is the whole value.
func (h HierObjectID) Root() UID { return h.root }

// Extension is always empty for a container identifier.
func (h HierObjectID) Extension() string { return "" }

// HasExtension is always false for a container identifier.
func (h HierObjectID) HasExtension() bool { return false }

// IsZero reports whether h is the invalid zero identifier.
func (h HierObjectID) IsZero() bool { return h.root.IsZero() }

func (h HierObjectID) String() string { return h.root.value }

// ObjectRef is a reference to an object managed by some service: a local
// identifier qualified by the namespace it lives in and the type of the
// thing referred to. The engine treats refs as opaque provenance data.
type ObjectRef struct {
	Namespace string `json:"namespace"`
	Type      string `json:"type"`
	ID        string `json:"id"`
}

// IsZero reports whether r carries no reference at all.
func (r ObjectRef) IsZero() bool {
	return r.Namespace == "" && r.Type == "" && r.ID == ""
}
