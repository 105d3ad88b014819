package rockets

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "rockets.v1.RocketService"

const (
	getRocketMethod     = "/" + ServiceName + "/GetRocket"
	listRocketsMethod   = "/" + ServiceName + "/ListRockets"
	searchRocketsMethod = "/" + ServiceName + "/SearchRockets"
)

// RocketServiceServer is the server API for rockets.v1.RocketService.
//
// Messages are well-known types: documents travel as google.protobuf.Struct
// in the same shape the HTTP API returns.
type RocketServiceServer interface {
	GetRocket(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	ListRockets(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	// SearchRockets takes {"criteria": {...}, "sort_by": "...", "filter": "..."}.
	SearchRockets(context.Context, *structpb.Struct) (*structpb.ListValue, error)
}

// RegisterRocketServiceServer registers srv on s.
func RegisterRocketServiceServer(s grpc.ServiceRegistrar, srv RocketServiceServer) {
	s.RegisterService(&RocketServiceDesc, srv)
}

// RocketServiceDesc describes rockets.v1.RocketService.
var RocketServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RocketServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetRocket", Handler: getRocketHandler},
		{MethodName: "ListRockets", Handler: listRocketsHandler},
		{MethodName: "SearchRockets", Handler: searchRocketsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rockets/v1/rockets.proto",
}

func getRocketHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RocketServiceServer).GetRocket(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getRocketMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RocketServiceServer).GetRocket(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func listRocketsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RocketServiceServer).ListRockets(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: listRocketsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RocketServiceServer).ListRockets(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func searchRocketsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RocketServiceServer).SearchRockets(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: searchRocketsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RocketServiceServer).SearchRockets(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// RocketServiceClient calls rockets.v1.RocketService.
type RocketServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewRocketServiceClient wraps a client connection.
func NewRocketServiceClient(cc grpc.ClientConnInterface) *RocketServiceClient {
	return &RocketServiceClient{cc: cc}
}

// GetRocket returns one projection document.
func (c *RocketServiceClient) GetRocket(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getRocketMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ListRockets returns every rocket summary.
func (c *RocketServiceClient) ListRockets(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, listRocketsMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchRockets returns matching event documents.
func (c *RocketServiceClient) SearchRockets(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, searchRocketsMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
