package audit

import "clehr.dev/recordkit/identifier"

// PartyProxy is a proxy description of the party responsible for an audited
// action, with an optional link to that party's record in an external
// identity system.
type PartyProxy interface {
	// ExternalRef returns the external identity reference, if any.
	ExternalRef() (identifier.ObjectRef, bool)
	isParty()
}

// PartySelf represents the subject of the record itself. It may or may not
// carry an external reference.
type PartySelf struct {
	ref *identifier.ObjectRef
}

// NewPartySelf returns a PartySelf with no external reference.
func NewPartySelf() PartySelf { return PartySelf{} }

// NewPartySelfWithRef returns a PartySelf linked to an external identity.
func NewPartySelfWithRef(ref identifier.ObjectRef) PartySelf {
	return PartySelf{ref: &ref}
}

func (p PartySelf) ExternalRef() (identifier.ObjectRef, bool) {
	if p.ref == nil {
		return identifier.ObjectRef{}, false
	}
	return *p.ref, true
}

func (PartySelf) isParty() {}

// PartyIdentified describes an identified party other than the record
// subject: a human-readable name, zero or more formal identifiers, and an
// optional external reference. At least one of the three must be present.
type PartyIdentified struct {
	ref         *identifier.ObjectRef
	name        string
	identifiers []string
}

// NewPartyIdentified validates the basic-validity invariant: at least one of
// name, identifiers or external ref must be given; identifiers, if given,
// must be non-empty.
func NewPartyIdentified(name string, identifiers []string, ref *identifier.ObjectRef) (PartyIdentified, error) {
	if name == "" && identifiers == nil && ref == nil {
		return PartyIdentified{}, newError(KindInvalidParty, "RK-AUD-020",
			"identified party needs a name, an identifier or an external ref")
	}
	if identifiers != nil && len(identifiers) == 0 {
		return PartyIdentified{}, newError(KindEmptyCollection, "RK-AUD-021",
			"identified party identifiers, if provided, must be non-empty")
	}
	p := PartyIdentified{name: name}
	if identifiers != nil {
		p.identifiers = append([]string(nil), identifiers...)
	}
	if ref != nil {
		r := *ref
		p.ref = &r
	}
	return p, nil
}

// Name returns the human-readable name, or "" if absent.
func (p PartyIdentified) Name() string { return p.name }

// Identifiers returns a copy of the formal identifiers, or nil if absent.
func (p PartyIdentified) Identifiers() []string {
	if p.identifiers == nil {
		return nil
	}
	return append([]string(nil), p.identifiers...)
}

func (p PartyIdentified) ExternalRef() (identifier.ObjectRef, bool) {
	if p.ref == nil {
		return identifier.ObjectRef{}, false
	}
	return *p.ref, true
}

func (PartyIdentified) isParty() {}
