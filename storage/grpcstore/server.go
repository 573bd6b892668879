package grpcstore

import (
	"context"
	"encoding/json"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"clehr.dev/recordkit/changecontrol"
	"clehr.dev/recordkit/identifier"
	"clehr.dev/recordkit/storage"
	"clehr.dev/recordkit/terminology"
)

// Server exposes a storage.RawStore over the RecordStore gRPC service.
// The terminology service revalidates version records decoded off the wire.
type Server struct {
	UnimplementedRecordStoreServer
	Store storage.RawStore
	Terms terminology.Service
}

func (s *Server) ready() error {
	if s == nil || s.Store == nil || s.Terms == nil {
		return status.Error(codes.FailedPrecondition, "missing store")
	}
	return nil
}

func (s *Server) GenerateContainerID(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	_ = ctx
	if err := s.ready(); err != nil {
		return nil, err
	}
	uid, err := s.Store.GenerateContainerID()
	if err != nil {
		return nil, mapErr(err)
	}
	return wrapperspb.String(uid.Value()), nil
}

func (s *Server) CreateContainer(ctx context.Context, in *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	_ = ctx
	if err := s.ready(); err != nil {
		return nil, err
	}
	var meta storage.ContainerMetadata
	if err := json.Unmarshal(in.GetValue(), &meta); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := s.Store.CreateContainer(meta); err != nil {
		return nil, mapErr(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) RetrieveContainer(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	_ = ctx
	if err := s.ready(); err != nil {
		return nil, err
	}
	uid, err := identifier.ParseHierObjectID(in.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	meta, history, versions, err := s.Store.RetrieveContainer(uid)
	if err != nil {
		return nil, mapErr(err)
	}
	raw, err := encodeVersions(versions)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	b, err := json.Marshal(containerEnvelope{Meta: meta, History: history, Versions: raw})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return wrapperspb.Bytes(b), nil
}

func (s *Server) RetrieveVersion(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	_ = ctx
	if err := s.ready(); err != nil {
		return nil, err
	}
	var q versionQuery
	if err := json.Unmarshal(in.GetValue(), &q); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	containerUID, err := identifier.ParseHierObjectID(q.ContainerUID)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	versionID, err := identifier.ParseObjectVersionID(q.VersionUID)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	v, err := s.Store.RetrieveVersion(containerUID, versionID)
	if err != nil {
		return nil, mapErr(err)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return wrapperspb.Bytes(b), nil
}

func (s *Server) RetrieveContribution(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	_ = ctx
	if err := s.ready(); err != nil {
		return nil, err
	}
	var q contributionQuery
	if err := json.Unmarshal(in.GetValue(), &q); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	containerUID, err := identifier.ParseHierObjectID(q.ContainerUID)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	contributionUID, err := identifier.ParseHierObjectID(q.ContributionUID)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	c, err := s.Store.RetrieveContribution(containerUID, contributionUID)
	if err != nil {
		return nil, mapErr(err)
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return wrapperspb.Bytes(b), nil
}

func (s *Server) CommitContributionSet(ctx context.Context, in *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	_ = ctx
	if err := s.ready(); err != nil {
		return nil, err
	}
	var env commitEnvelope
	if err := json.Unmarshal(in.GetValue(), &env); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	containerUID, err := identifier.ParseHierObjectID(env.ContainerUID)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	versions, err := decodeVersions(s.Terms, env.Versions)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := s.Store.CommitContributionSet(containerUID, env.Contribution, versions, env.History); err != nil {
		return nil, mapErr(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) AppendAttestation(ctx context.Context, in *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	_ = ctx
	if err := s.ready(); err != nil {
		return nil, err
	}
	var env attestEnvelope
	if err := json.Unmarshal(in.GetValue(), &env); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	containerUID, err := identifier.ParseHierObjectID(env.ContainerUID)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	attested, err := changecontrol.DecodeVersion[json.RawMessage](s.Terms, env.Version)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := s.Store.AppendAttestation(containerUID, attested, env.History); err != nil {
		return nil, mapErr(err)
	}
	return &emptypb.Empty{}, nil
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, storage.ErrDuplicateContainer):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, storage.ErrBatchInconsistent):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, storage.ErrImmutable):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
