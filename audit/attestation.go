package audit

import "clehr.dev/recordkit/terminology"

// Attestation is an audit record for the act of formally signing or
// witnessing an already-committed version. It extends Details with the
// attestation reason and optional proof material.
type Attestation struct {
	Details
	Reason       terminology.CodedText
	IsPending    bool
	AttestedView string   // optional reference to the view that was attested
	Proof        string   // optional proof of attestation
	Items        []string // optional non-empty list of attested item paths
}

// AttestationOptions carries the optional Attestation fields.
type AttestationOptions struct {
	AttestedView string
	Proof        string
	Items        []string
}

// NewAttestation validates and builds an attestation. The reason code must
// belong to the attestation-reason group; Items, if provided, must be
// non-empty.
func NewAttestation(ts terminology.Service, commit Details, reason terminology.CodedText,
	isPending bool, opts AttestationOptions) (Attestation, error) {
	if err := terminology.VerifyCodeOrError(ts, reason.DefiningCode,
		terminology.GroupAttestationReason, "reason_valid"); err != nil {
		return Attestation{}, wrapError(KindInvalidAttestationReason, "RK-AUD-010",
			"attestation reason is not a known attestation reason code", err)
	}
	if opts.Items != nil && len(opts.Items) == 0 {
		return Attestation{}, newError(KindEmptyCollection, "RK-AUD-011",
			"attestation items, if provided, must be non-empty")
	}
	a := Attestation{
		Details:      commit,
		Reason:       reason,
		IsPending:    isPending,
		AttestedView: opts.AttestedView,
		Proof:        opts.Proof,
	}
	if opts.Items != nil {
		a.Items = append([]string(nil), opts.Items...)
	}
	return a, nil
}
