// Package grpcstore carries the RecordStore contract over gRPC. The
// service is hand-rolled on protobuf well-known types so the repo needs
// no protoc/codegen toolchain; record payloads travel as model JSON.
package grpcstore

import (
	"context"
	"encoding/json"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"clehr.dev/recordkit/audit"
	"clehr.dev/recordkit/changecontrol"
	"clehr.dev/recordkit/identifier"
	"clehr.dev/recordkit/storage"
	"clehr.dev/recordkit/terminology"
)

// Client implements storage.RawStore over the RecordStore gRPC service.
type Client struct {
	cc     *grpc.ClientConn
	client RecordStoreClient
	ts     terminology.Service

	// Timeout applies per RPC when non-zero.
	Timeout time.Duration
}

var _ storage.RawStore = (*Client)(nil)

type DialOptions struct {
	// Timeout applies to the initial dial when non-zero.
	Timeout time.Duration

	// MaxMsgBytes sets both send/recv max sizes when non-zero.
	MaxMsgBytes int
}

func Dial(target string, ts terminology.Service, opts DialOptions) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts,
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes),
				grpc.MaxCallSendMsgSize(opts.MaxMsgBytes),
			),
		)
	}

	ctx := context.Background()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cc, err := grpc.DialContext(ctx, target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return &Client{cc: cc, client: NewRecordStoreClient(cc), ts: ts, Timeout: 0}, nil
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

func (c *Client) GenerateContainerID() (identifier.HierObjectID, error) {
	ctx, cancel := c.ctx()
	defer cancel()

	reply, err := c.client.GenerateContainerID(ctx, &emptypb.Empty{})
	if err != nil {
		return identifier.HierObjectID{}, mapRPC(err)
	}
	return identifier.ParseHierObjectID(reply.GetValue())
}

func (c *Client) CreateContainer(meta storage.ContainerMetadata) error {
	b, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	ctx, cancel := c.ctx()
	defer cancel()

	if _, err := c.client.CreateContainer(ctx, wrapperspb.Bytes(b)); err != nil {
		return mapRPC(err)
	}
	return nil
}

func (c *Client) RetrieveContainer(uid identifier.HierObjectID) (storage.ContainerMetadata, audit.RevisionHistory, []changecontrol.Version[json.RawMessage], error) {
	ctx, cancel := c.ctx()
	defer cancel()

	reply, err := c.client.RetrieveContainer(ctx, wrapperspb.String(uid.Value()))
	if err != nil {
		return storage.ContainerMetadata{}, audit.RevisionHistory{}, nil, mapRPC(err)
	}
	var env containerEnvelope
	if err := json.Unmarshal(reply.GetValue(), &env); err != nil {
		return storage.ContainerMetadata{}, audit.RevisionHistory{}, nil, err
	}
	versions, err := decodeVersions(c.ts, env.Versions)
	if err != nil {
		return storage.ContainerMetadata{}, audit.RevisionHistory{}, nil, err
	}
	return env.Meta, env.History, versions, nil
}

func (c *Client) RetrieveVersion(containerUID identifier.HierObjectID, versionID identifier.ObjectVersionID) (changecontrol.Version[json.RawMessage], error) {
	b, err := json.Marshal(versionQuery{ContainerUID: containerUID.Value(), VersionUID: versionID.Value()})
	if err != nil {
		return nil, err
	}
	ctx, cancel := c.ctx()
	defer cancel()

	reply, err := c.client.RetrieveVersion(ctx, wrapperspb.Bytes(b))
	if err != nil {
		return nil, mapRPC(err)
	}
	return changecontrol.DecodeVersion[json.RawMessage](c.ts, reply.GetValue())
}

func (c *Client) RetrieveContribution(containerUID, contributionUID identifier.HierObjectID) (changecontrol.Contribution, error) {
	b, err := json.Marshal(contributionQuery{
		ContainerUID:    containerUID.Value(),
		ContributionUID: contributionUID.Value(),
	})
	if err != nil {
		return changecontrol.Contribution{}, err
	}
	ctx, cancel := c.ctx()
	defer cancel()

	reply, err := c.client.RetrieveContribution(ctx, wrapperspb.Bytes(b))
	if err != nil {
		return changecontrol.Contribution{}, mapRPC(err)
	}
	var out changecontrol.Contribution
	if err := json.Unmarshal(reply.GetValue(), &out); err != nil {
		return changecontrol.Contribution{}, err
	}
	return out, nil
}

func (c *Client) CommitContributionSet(containerUID identifier.HierObjectID, contribution changecontrol.Contribution,
	versions []changecontrol.Version[json.RawMessage], history audit.RevisionHistory) error {
	raw, err := encodeVersions(versions)
	if err != nil {
		return err
	}
	b, err := json.Marshal(commitEnvelope{
		ContainerUID: containerUID.Value(),
		Contribution: contribution,
		Versions:     raw,
		History:      history,
	})
	if err != nil {
		return err
	}
	ctx, cancel := c.ctx()
	defer cancel()

	if _, err := c.client.CommitContributionSet(ctx, wrapperspb.Bytes(b)); err != nil {
		return mapRPC(err)
	}
	return nil
}

func (c *Client) AppendAttestation(containerUID identifier.HierObjectID, attested changecontrol.Version[json.RawMessage],
	history audit.RevisionHistory) error {
	encoded, err := json.Marshal(attested)
	if err != nil {
		return err
	}
	b, err := json.Marshal(attestEnvelope{
		ContainerUID: containerUID.Value(),
		Version:      encoded,
		History:      history,
	})
	if err != nil {
		return err
	}
	ctx, cancel := c.ctx()
	defer cancel()

	if _, err := c.client.AppendAttestation(ctx, wrapperspb.Bytes(b)); err != nil {
		return mapRPC(err)
	}
	return nil
}

func (c *Client) ctx() (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), c.Timeout)
}
