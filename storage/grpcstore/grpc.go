package grpcstore

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// RecordStoreServer is the server API for the RecordStore gRPC service.
//
// We intentionally use protobuf well-known wrapper types so this package does
// not require a protoc/codegen toolchain. Structured payloads travel as the
// record JSON defined by the model packages; both sides re-validate on decode.
//
// Proto definition: recordstore.proto.
type RecordStoreServer interface {
	GenerateContainerID(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
	CreateContainer(context.Context, *wrapperspb.BytesValue) (*emptypb.Empty, error)
	RetrieveContainer(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
	RetrieveVersion(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	RetrieveContribution(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	CommitContributionSet(context.Context, *wrapperspb.BytesValue) (*emptypb.Empty, error)
	AppendAttestation(context.Context, *wrapperspb.BytesValue) (*emptypb.Empty, error)
}

// UnimplementedRecordStoreServer can be embedded to have forward compatible implementations.
type UnimplementedRecordStoreServer struct{}

func (UnimplementedRecordStoreServer) GenerateContainerID(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method GenerateContainerID not implemented")
}
func (UnimplementedRecordStoreServer) CreateContainer(context.Context, *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateContainer not implemented")
}
func (UnimplementedRecordStoreServer) RetrieveContainer(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method RetrieveContainer not implemented")
}
func (UnimplementedRecordStoreServer) RetrieveVersion(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method RetrieveVersion not implemented")
}
func (UnimplementedRecordStoreServer) RetrieveContribution(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method RetrieveContribution not implemented")
}
func (UnimplementedRecordStoreServer) CommitContributionSet(context.Context, *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method CommitContributionSet not implemented")
}
func (UnimplementedRecordStoreServer) AppendAttestation(context.Context, *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method AppendAttestation not implemented")
}

// RegisterRecordStoreServer registers the RecordStore service on a gRPC server.
func RegisterRecordStoreServer(s grpc.ServiceRegistrar, srv RecordStoreServer) {
	s.RegisterService(&RecordStore_ServiceDesc, srv)
}

// RecordStoreClient is the client API for the RecordStore gRPC service.
type RecordStoreClient interface {
	GenerateContainerID(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	CreateContainer(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
	RetrieveContainer(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	RetrieveVersion(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	RetrieveContribution(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	CommitContributionSet(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
	AppendAttestation(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
}

type recordStoreClient struct{ cc grpc.ClientConnInterface }

func NewRecordStoreClient(cc grpc.ClientConnInterface) RecordStoreClient {
	return &recordStoreClient{cc: cc}
}

const serviceName = "clehr.recordkit.storage.grpcstore.v1.RecordStore"

func (c *recordStoreClient) GenerateContainerID(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/GenerateContainerID", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *recordStoreClient) CreateContainer(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/CreateContainer", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *recordStoreClient) RetrieveContainer(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/RetrieveContainer", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *recordStoreClient) RetrieveVersion(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/RetrieveVersion", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *recordStoreClient) RetrieveContribution(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/RetrieveContribution", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *recordStoreClient) CommitContributionSet(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/CommitContributionSet", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *recordStoreClient) AppendAttestation(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/AppendAttestation", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func _RecordStore_GenerateContainerID_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RecordStoreServer).GenerateContainerID(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/GenerateContainerID"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RecordStoreServer).GenerateContainerID(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _RecordStore_CreateContainer_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RecordStoreServer).CreateContainer(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/CreateContainer"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RecordStoreServer).CreateContainer(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _RecordStore_RetrieveContainer_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RecordStoreServer).RetrieveContainer(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/RetrieveContainer"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RecordStoreServer).RetrieveContainer(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _RecordStore_RetrieveVersion_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RecordStoreServer).RetrieveVersion(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/RetrieveVersion"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RecordStoreServer).RetrieveVersion(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _RecordStore_RetrieveContribution_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RecordStoreServer).RetrieveContribution(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/RetrieveContribution"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RecordStoreServer).RetrieveContribution(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _RecordStore_CommitContributionSet_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RecordStoreServer).CommitContributionSet(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/CommitContributionSet"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RecordStoreServer).CommitContributionSet(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _RecordStore_AppendAttestation_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RecordStoreServer).AppendAttestation(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/AppendAttestation"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RecordStoreServer).AppendAttestation(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

// RecordStore_ServiceDesc is the grpc.ServiceDesc for the RecordStore service.
var RecordStore_ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*RecordStoreServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GenerateContainerID", Handler: _RecordStore_GenerateContainerID_Handler},
		{MethodName: "CreateContainer", Handler: _RecordStore_CreateContainer_Handler},
		{MethodName: "RetrieveContainer", Handler: _RecordStore_RetrieveContainer_Handler},
		{MethodName: "RetrieveVersion", Handler: _RecordStore_RetrieveVersion_Handler},
		{MethodName: "RetrieveContribution", Handler: _RecordStore_RetrieveContribution_Handler},
		{MethodName: "CommitContributionSet", Handler: _RecordStore_CommitContributionSet_Handler},
		{MethodName: "AppendAttestation", Handler: _RecordStore_AppendAttestation_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "recordstore.proto",
}
