package transport

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ClusterServiceName = "raftfailover.v1.ClusterService"

	submitFullMethod = "/" + ClusterServiceName + "/Submit"
	readFullMethod   = "/" + ClusterServiceName + "/Read"

	termField  = "term"
	indexField = "index"
)

// ClusterServiceServer is the server API of the cluster service.
// Nodes that are not the leader answer with NotLeaderStatus.
type ClusterServiceServer interface {
	// Submit proposes a command and replies with SubmitReply.
	Submit(context.Context, *wrapperspb.BytesValue) (*structpb.Struct, error)
	// Read runs a read-only query against the leader's state.
	Read(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
}

func RegisterClusterServiceServer(s grpc.ServiceRegistrar, srv ClusterServiceServer) {
	s.RegisterService(&clusterServiceDesc, srv)
}

var clusterServiceDesc = grpc.ServiceDesc{
	ServiceName: ClusterServiceName,
	HandlerType: (*ClusterServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Submit", Handler: submitHandler},
		{MethodName: "Read", Handler: readHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func submitHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ClusterServiceServer).Submit(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: submitFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ClusterServiceServer).Submit(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func readHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ClusterServiceServer).Read(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: readFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ClusterServiceServer).Read(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

// ClusterServiceClient is the client API of the cluster service.
type ClusterServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewClusterServiceClient(cc grpc.ClientConnInterface) *ClusterServiceClient {
	return &ClusterServiceClient{cc: cc}
}

func (c *ClusterServiceClient) Submit(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, submitFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ClusterServiceClient) Read(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, readFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// SubmitReply builds the Submit response for a command accepted at index in term.
func SubmitReply(term, index int64) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		termField:  structpb.NewNumberValue(float64(term)),
		indexField: structpb.NewNumberValue(float64(index)),
	}}
}

// ParseSubmitReply extracts term and index from a Submit response.
func ParseSubmitReply(s *structpb.Struct) (term, index int64, err error) {
	tv, ok := s.GetFields()[termField]
	if !ok {
		return 0, 0, fmt.Errorf("transport: submit reply has no %q", termField)
	}
	iv, ok := s.GetFields()[indexField]
	if !ok {
		return 0, 0, fmt.Errorf("transport: submit reply has no %q", indexField)
	}
	return int64(tv.GetNumberValue()), int64(iv.GetNumberValue()), nil
}
