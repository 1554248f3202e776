package api

import (
	"context"

	"google.golang.org/grpc"
)

const journalServiceName = "ledger.v1.Journal"

// JournalClient is the client API for the read-only Journal service.
type JournalClient interface {
	Consume(ctx context.Context, in *ConsumeRequest, opts ...grpc.CallOption) (*ConsumeResponse, error)
	ConsumeStream(ctx context.Context, in *ConsumeRequest, opts ...grpc.CallOption) (Journal_ConsumeStreamClient, error)
}

type journalClient struct {
	cc grpc.ClientConnInterface
}

func NewJournalClient(cc grpc.ClientConnInterface) JournalClient {
	return &journalClient{cc}
}

func (c *journalClient) Consume(ctx context.Context, in *ConsumeRequest, opts ...grpc.CallOption) (*ConsumeResponse, error) {
	out := new(ConsumeResponse)
	err := c.cc.Invoke(ctx, "/"+journalServiceName+"/Consume", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *journalClient) ConsumeStream(ctx context.Context, in *ConsumeRequest, opts ...grpc.CallOption) (Journal_ConsumeStreamClient, error) {
	stream, err := c.cc.NewStream(ctx, &journalServiceDesc.Streams[0], "/"+journalServiceName+"/ConsumeStream", opts...)
	if err != nil {
		return nil, err
	}
	x := &journalConsumeStreamClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

type Journal_ConsumeStreamClient interface {
	Recv() (*ConsumeResponse, error)
	grpc.ClientStream
}

type journalConsumeStreamClient struct {
	grpc.ClientStream
}

func (x *journalConsumeStreamClient) Recv() (*ConsumeResponse, error) {
	m := new(ConsumeResponse)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// JournalServer is the server API for the Journal service.
type JournalServer interface {
	Consume(context.Context, *ConsumeRequest) (*ConsumeResponse, error)
	ConsumeStream(*ConsumeRequest, Journal_ConsumeStreamServer) error
}

func RegisterJournalServer(s *grpc.Server, srv JournalServer) {
	s.RegisterService(&journalServiceDesc, srv)
}

func journalConsumeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ConsumeRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(JournalServer).Consume(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + journalServiceName + "/Consume",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(JournalServer).Consume(ctx, req.(*ConsumeRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func journalConsumeStreamHandler(srv interface{}, stream grpc.ServerStream) error {
	m := new(ConsumeRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(JournalServer).ConsumeStream(m, &journalConsumeStreamServer{stream})
}

type Journal_ConsumeStreamServer interface {
	Send(*ConsumeResponse) error
	grpc.ServerStream
}

type journalConsumeStreamServer struct {
	grpc.ServerStream
}

func (x *journalConsumeStreamServer) Send(m *ConsumeResponse) error {
	return x.ServerStream.SendMsg(m)
}

var journalServiceDesc = grpc.ServiceDesc{
	ServiceName: journalServiceName,
	HandlerType: (*JournalServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Consume", Handler: journalConsumeHandler},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "ConsumeStream",
			Handler:       journalConsumeStreamHandler,
			ServerStreams: true,
		},
	},
	Metadata: "api/v1/journal.proto",
}
