package audit

import (
	"time"

	"clehr.dev/recordkit/identifier"
)

// RevisionHistoryItem records the audit trail of a single committed
// version: the commit audit first, then any attestations appended later,
// in append order.
type RevisionHistoryItem struct {
	VersionID identifier.ObjectVersionID
	Audits    []Entry
}

// RevisionHistory is the auditable history of a version container: one
// item per committed version, in commit order (most recent last).
type RevisionHistory struct {
	Items []RevisionHistoryItem
}

// AppendAudit records an audit entry against the given version id. The
// entry is appended to the item already holding that version, or a new
// item is appended for a first commit.
func (h *RevisionHistory) AppendAudit(versionID identifier.ObjectVersionID, e Entry) {
	for i := range h.Items {
		if h.Items[i].VersionID == versionID {
			h.Items[i].Audits = append(h.Items[i].Audits, e)
			return
		}
	}
	h.Items = append(h.Items, RevisionHistoryItem{
		VersionID: versionID,
		Audits:    []Entry{e},
	})
}

// MostRecentVersion returns the version id of the last item in commit
// order. Fails on an empty history.
func (h RevisionHistory) MostRecentVersion() (identifier.ObjectVersionID, error) {
	if len(h.Items) == 0 {
		return identifier.ObjectVersionID{}, newError(KindEmptyHistory, "RK-AUD-030",
			"revision history is empty")
	}
	return h.Items[len(h.Items)-1].VersionID, nil
}

// MostRecentVersionTimeCommitted returns the committal time of the last
// audit entry of the last item. Fails on an empty history.
func (h RevisionHistory) MostRecentVersionTimeCommitted() (time.Time, error) {
	if len(h.Items) == 0 {
		return time.Time{}, newError(KindEmptyHistory, "RK-AUD-031",
			"revision history is empty")
	}
	audits := h.Items[len(h.Items)-1].Audits
	if len(audits) == 0 {
		return time.Time{}, newError(KindEmptyHistory, "RK-AUD-032",
			"revision history item has no audits")
	}
	return audits[len(audits)-1].AuditDetails().TimeCommitted, nil
}
