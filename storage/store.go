// Package storage defines the persistence contract of the version-control
// engine: the generic RecordStore interface over version containers, the
// content-addressable archive for canonical version bytes, and the shared
// error vocabulary. Implementations live in subpackages.
package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"clehr.dev/recordkit/audit"
	"clehr.dev/recordkit/changecontrol"
	"clehr.dev/recordkit/identifier"
)

// ContainerMetadata is the durable identity of one version container: its
// uid, the entity owning it, and its creation time. The derived indices
// are rebuilt from the stored versions on retrieval.
type ContainerMetadata struct {
	UID         identifier.HierObjectID
	OwnerID     identifier.ObjectRef
	TimeCreated time.Time
}

type containerJSON struct {
	Type        string               `json:"_type"`
	UID         string               `json:"uid"`
	OwnerID     identifier.ObjectRef `json:"owner_id"`
	TimeCreated string               `json:"time_created"`
}

func (m ContainerMetadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(containerJSON{
		Type:        "VERSIONED_OBJECT",
		UID:         m.UID.Value(),
		OwnerID:     m.OwnerID,
		TimeCreated: audit.TimeKey(m.TimeCreated),
	})
}

func (m *ContainerMetadata) UnmarshalJSON(data []byte) error {
	var shape containerJSON
	if err := json.Unmarshal(data, &shape); err != nil {
		return err
	}
	uid, err := identifier.ParseHierObjectID(shape.UID)
	if err != nil {
		return err
	}
	created, err := time.Parse(time.RFC3339Nano, shape.TimeCreated)
	if err != nil {
		return err
	}
	*m = ContainerMetadata{UID: uid, OwnerID: shape.OwnerID, TimeCreated: created}
	return nil
}

// RecordStore durably stores version containers, their versions grouped
// into contributions, and their revision histories.
//
// Contract:
//   - CreateContainer MUST return ErrDuplicateContainer for an existing uid.
//   - Retrieve operations MUST return ErrNotFound for absent containers,
//     versions, or contributions.
//   - CommitContributionSet is atomic: it validates the batch (every
//     version references the contribution, every listed reference resolves
//     into the batch, every version belongs to the container) and stores
//     the contribution, all versions, and the history snapshot together,
//     failing the whole batch with ErrBatchInconsistent otherwise.
//   - AppendAttestation replaces the stored record of one version together
//     with the history snapshot; the only sanctioned change is appended
//     attestations. The archived canonical bytes are never rewritten.
type RecordStore[T any] interface {
	// GenerateContainerID returns a fresh, globally unique container id.
	GenerateContainerID() (identifier.HierObjectID, error)

	CreateContainer(meta ContainerMetadata) error

	// RetrieveContainer returns the stored identity, the history snapshot,
	// and all versions in commit order.
	RetrieveContainer(uid identifier.HierObjectID) (ContainerMetadata, audit.RevisionHistory, []changecontrol.Version[T], error)

	RetrieveVersion(containerUID identifier.HierObjectID, versionID identifier.ObjectVersionID) (changecontrol.Version[T], error)

	RetrieveContribution(containerUID, contributionUID identifier.HierObjectID) (changecontrol.Contribution, error)

	CommitContributionSet(containerUID identifier.HierObjectID, c changecontrol.Contribution,
		versions []changecontrol.Version[T], history audit.RevisionHistory) error

	AppendAttestation(containerUID identifier.HierObjectID, attested changecontrol.Version[T],
		history audit.RevisionHistory) error
}

// RawStore is the store shape used by transport layers and backend
// registries, which carry payloads as raw JSON.
type RawStore = RecordStore[json.RawMessage]

// CheckBatch runs the atomic batch precondition shared by all store
// implementations: container membership plus the contribution set check.
func CheckBatch[T any](containerUID identifier.HierObjectID, c changecontrol.Contribution,
	versions []changecontrol.Version[T]) error {
	for _, v := range versions {
		if v.OwnerID() != containerUID {
			return fmt.Errorf("%w: version %s does not belong to container %s",
				ErrBatchInconsistent, v.UID().Value(), containerUID.Value())
		}
	}
	if err := changecontrol.CheckContributionSet(c, versions); err != nil {
		return fmt.Errorf("%w: %v", ErrBatchInconsistent, err)
	}
	return nil
}
