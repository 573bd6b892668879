package terminology

import "fmt"

// TerminologyIDOpenEHR is the terminology id of the builtin support
// terminology.
const TerminologyIDOpenEHR = "openehr"

// Group ids for the builtin terminology groups the version-control engine
// validates against.
const (
	GroupAuditChangeType       = "audit change type"
	GroupAttestationReason     = "attestation reason"
	GroupVersionLifecycleState = "version lifecycle state"
)

func coded(code, value string) CodedText {
	return CodedText{
		Value:        value,
		DefiningCode: CodePhrase{TerminologyID: TerminologyIDOpenEHR, Code: code},
	}
}

// Audit change types.
var (
	ChangeTypeCreation         = coded("249", "creation")
	ChangeTypeAmendment        = coded("250", "amendment")
	ChangeTypeModification     = coded("251", "modification")
	ChangeTypeSynthesis        = coded("252", "synthesis")
	ChangeTypeDeleted          = coded("523", "deleted")
	ChangeTypeAttestation      = coded("666", "attestation")
	ChangeTypeRestoration      = coded("816", "restoration")
	ChangeTypeFormatConversion = coded("817", "format conversion")
	ChangeTypeUnknown          = coded("253", "unknown")
)

// Attestation reasons.
var (
	ReasonSigned    = coded("240", "signed")
	ReasonWitnessed = coded("648", "witnessed")
)

// Version lifecycle states. A container whose latest trunk version carries
// LifecycleDeleted is logically deleted.
var (
	LifecycleComplete   = coded("532", "complete")
	LifecycleIncomplete = coded("553", "incomplete")
	LifecycleDeleted    = coded("523", "deleted")
	LifecycleInactive   = coded("800", "inactive")
	LifecycleAbandoned  = coded("801", "abandoned")
)

var builtinGroups = map[string][]CodedText{
	GroupAuditChangeType: {
		ChangeTypeCreation, ChangeTypeAmendment, ChangeTypeModification,
		ChangeTypeSynthesis, ChangeTypeDeleted, ChangeTypeAttestation,
		ChangeTypeRestoration, ChangeTypeFormatConversion, ChangeTypeUnknown,
	},
	GroupAttestationReason: {
		ReasonSigned, ReasonWitnessed,
	},
	GroupVersionLifecycleState: {
		LifecycleComplete, LifecycleIncomplete, LifecycleDeleted,
		LifecycleInactive, LifecycleAbandoned,
	},
}

// LocalService serves the builtin terminology groups from in-memory tables.
// It is deterministic and offline.
type LocalService struct {
	groups map[string]map[CodePhrase]bool
}

// NewLocalService returns a Service backed by the builtin openEHR groups.
func NewLocalService() *LocalService {
	groups := make(map[string]map[CodePhrase]bool, len(builtinGroups))
	for id, terms := range builtinGroups {
		members := make(map[CodePhrase]bool, len(terms))
		for _, term := range terms {
			members[term.DefiningCode] = true
		}
		groups[id] = members
	}
	return &LocalService{groups: groups}
}

func (s *LocalService) VerifyCodeInGroup(code CodePhrase, groupID string) (bool, error) {
	members, ok := s.groups[groupID]
	if !ok {
		return false, fmt.Errorf("terminology: unknown group %q", groupID)
	}
	return members[code], nil
}
