// Package terminology provides the coded-term validation capability used by
// the audit and change-control packages, together with the builtin code
// groups the reference model requires (audit change types, attestation
// reasons, version lifecycle states).
//
// Validation is a capability, not ambient state: every constructor that
// checks a code takes a Service explicitly.
package terminology

import "fmt"

// CodePhrase identifies one term within a terminology.
type CodePhrase struct {
	TerminologyID string `json:"terminology_id"`
	Code          string `json:"code_string"`
}

// CodedText is a displayable text whose meaning is fixed by a code.
type CodedText struct {
	Value        string     `json:"value"`
	DefiningCode CodePhrase `json:"defining_code"`
}

// Service verifies coded-term membership. A false result or an error both
// surface to callers as local, recoverable construction failures.
type Service interface {
	// VerifyCodeInGroup reports whether code belongs to the named group.
	// Unknown group ids are errors, not false.
	VerifyCodeInGroup(code CodePhrase, groupID string) (bool, error)
}

// VerifyCodeOrError resolves the capability check into a single error:
// nil when the code is in the group, an error naming the violated
// invariant otherwise.
func VerifyCodeOrError(ts Service, code CodePhrase, groupID, invariant string) error {
	if ts == nil {
		return fmt.Errorf("%s: no terminology service provided", invariant)
	}
	ok, err := ts.VerifyCodeInGroup(code, groupID)
	if err != nil {
		return fmt.Errorf("%s: %w", invariant, err)
	}
	if !ok {
		return fmt.Errorf("%s: code %s::%s is not in group %q",
			invariant, code.TerminologyID, code.Code, groupID)
	}
	return nil
}
