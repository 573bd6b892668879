package identifier

import (
	"regexp"
	"strconv"
	"strings"
)

var versionTreePattern = regexp.MustCompile(`^[1-9]\d*(\.[1-9]\d*\.[1-9]\d*)?$`)

// VersionTreeID locates one version within a version tree.
//
// Lexical form: trunk_version [ "." branch_number "." branch_version ],
// where every part is a positive decimal integer with no leading zeros.
// Trunk versions carry only the first part; branch versions carry all three.
type VersionTreeID struct {
	trunkVersion  string
	branchNumber  string
	branchVersion string
}

// ParseVersionTreeID validates value against the version tree grammar.
func ParseVersionTreeID(value string) (VersionTreeID, error) {
	if !versionTreePattern.MatchString(value) {
		return VersionTreeID{}, newError(KindInvalidVersionTreeID, "RK-ID-010",
			"version tree id must be trunk_version[.branch_number.branch_version] with positive integers: "+quote(value))
	}
	parts := strings.Split(value, ".")
	id := VersionTreeID{trunkVersion: parts[0]}
	if len(parts) == 3 {
		id.branchNumber = parts[1]
		id.branchVersion = parts[2]
	}
	return id, nil
}

// Value reconstructs the exact lexical form this identifier was parsed from.
func (v VersionTreeID) Value() string {
	if v.branchNumber == "" {
		return v.trunkVersion
	}
	return v.trunkVersion + "." + v.branchNumber + "." + v.branchVersion
}

// TrunkVersion returns the trunk version number; numbering starts at 1.
func (v VersionTreeID) TrunkVersion() string { return v.trunkVersion }

// IsBranch reports whether this identifier has branch_number and
// branch_version parts.
func (v VersionTreeID) IsBranch() bool { return v.branchNumber != "" }

// BranchNumber returns the number of the branch from the trunk point, or ""
// for a trunk version.
func (v VersionTreeID) BranchNumber() string { return v.branchNumber }

// BranchVersion returns the version within the branch, or "" for a trunk
// version.
func (v VersionTreeID) BranchVersion() string { return v.branchVersion }

// IsZero reports whether v is the invalid zero identifier.
func (v VersionTreeID) IsZero() bool { return v.trunkVersion == "" }

func (v VersionTreeID) String() string { return v.Value() }

// NextTrunk returns the trunk version tree id that succeeds this one,
// discarding any branch parts. Used when minting successor version ids.
func (v VersionTreeID) NextTrunk() (VersionTreeID, error) {
	n, err := strconv.Atoi(v.trunkVersion)
	if err != nil {
		return VersionTreeID{}, wrapError(KindInvalidVersionTreeID, "RK-ID-011",
			"trunk version is not a decimal integer: "+quote(v.trunkVersion), err)
	}
	return VersionTreeID{trunkVersion: strconv.Itoa(n + 1)}, nil
}
