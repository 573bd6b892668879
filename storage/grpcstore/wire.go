package grpcstore

import (
	"encoding/json"

	"clehr.dev/recordkit/audit"
	"clehr.dev/recordkit/changecontrol"
	"clehr.dev/recordkit/storage"
	"clehr.dev/recordkit/terminology"
)

// Wire envelopes. Version records travel as their own JSON so both ends
// re-run the model invariants on decode.

type containerEnvelope struct {
	Meta     storage.ContainerMetadata `json:"meta"`
	History  audit.RevisionHistory     `json:"history"`
	Versions []json.RawMessage         `json:"versions,omitempty"`
}

type versionQuery struct {
	ContainerUID string `json:"container_uid"`
	VersionUID   string `json:"version_uid"`
}

type contributionQuery struct {
	ContainerUID    string `json:"container_uid"`
	ContributionUID string `json:"contribution_uid"`
}

type commitEnvelope struct {
	ContainerUID string                     `json:"container_uid"`
	Contribution changecontrol.Contribution `json:"contribution"`
	Versions     []json.RawMessage          `json:"versions"`
	History      audit.RevisionHistory      `json:"history"`
}

type attestEnvelope struct {
	ContainerUID string                `json:"container_uid"`
	Version      json.RawMessage       `json:"version"`
	History      audit.RevisionHistory `json:"history"`
}

func encodeVersions(versions []changecontrol.Version[json.RawMessage]) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(versions))
	for _, v := range versions {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func decodeVersions(ts terminology.Service, raw []json.RawMessage) ([]changecontrol.Version[json.RawMessage], error) {
	out := make([]changecontrol.Version[json.RawMessage], 0, len(raw))
	for _, b := range raw {
		v, err := changecontrol.DecodeVersion[json.RawMessage](ts, b)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
