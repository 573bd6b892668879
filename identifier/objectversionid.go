package identifier

import "strings"

// ObjectVersionID is the globally unique identifier of one version of a
// versioned object.
//
// Lexical form: object_id "::" creating_system_id "::" version_tree_id.
// The object_id part equals the UID of the version container holding the
// version; the extension (creating_system_id "::" version_tree_id) contains
// exactly one further "::".
type ObjectVersionID struct {
	value            string
	objectID         UID
	creatingSystemID UID
	versionTreeID    VersionTreeID
}

// ParseObjectVersionID validates value against the three-part grammar.
func ParseObjectVersionID(value string) (ObjectVersionID, error) {
	parts := strings.Split(value, "::")
	if len(parts) != 3 {
		return ObjectVersionID{}, newError(KindInvalidObjectVersionID, "RK-ID-020",
			"object version id must be object_id::creating_system_id::version_tree_id: "+quote(value))
	}
	objectID, err := ParseUID(parts[0])
	if err != nil {
		return ObjectVersionID{}, wrapError(KindInvalidObjectVersionID, "RK-ID-021",
			"object id part is not a valid UID: "+quote(parts[0]), err)
	}
	creatingSystemID, err := ParseUID(parts[1])
	if err != nil {
		return ObjectVersionID{}, wrapError(KindInvalidObjectVersionID, "RK-ID-022",
			"creating system id part is not a valid UID: "+quote(parts[1]), err)
	}
	versionTreeID, err := ParseVersionTreeID(parts[2])
	if err != nil {
		return ObjectVersionID{}, wrapError(KindInvalidObjectVersionID, "RK-ID-023",
			"version tree id part is invalid: "+quote(parts[2]), err)
	}
	return ObjectVersionID{
		value:            value,
		objectID:         objectID,
		creatingSystemID: creatingSystemID,
		versionTreeID:    versionTreeID,
	}, nil
}

// Value returns the exact lexical form this identifier was parsed from.
func (o ObjectVersionID) Value() string { return o.value }

// ObjectID returns the UID of the logical object (the version container)
// of which this identifier names one version.
func (o ObjectVersionID) ObjectID() UID { return o.objectID }

// Root is the UIDBasedID root, identical to ObjectID.
func (o ObjectVersionID) Root() UID { return o.objectID }

// Extension returns creating_system_id "::" version_tree_id.
func (o ObjectVersionID) Extension() string {
	return o.creatingSystemID.value + "::" + o.versionTreeID.Value()
}

// HasExtension is always true for a well-formed object version id.
func (o ObjectVersionID) HasExtension() bool { return !o.IsZero() }

// CreatingSystemID identifies the system that created this version.
func (o ObjectVersionID) CreatingSystemID() UID { return o.creatingSystemID }

// OwnerID returns the object id as a container identifier. Well-formed
// object ids never carry an extension, so this cannot fail.
func (o ObjectVersionID) OwnerID() HierObjectID {
	return HierObjectID{root: o.objectID}
}

// VersionTreeID locates this version within its version tree.
func (o ObjectVersionID) VersionTreeID() VersionTreeID { return o.versionTreeID }

// IsBranch reports whether this version sits on a branch; delegates to the
// version tree id.
func (o ObjectVersionID) IsBranch() bool { return o.versionTreeID.IsBranch() }

// IsZero reports whether o is the invalid zero identifier.
func (o ObjectVersionID) IsZero() bool { return o.value == "" }

func (o ObjectVersionID) String() string { return o.value }
