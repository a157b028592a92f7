package grpcserver

import (
	"context"
	"errors"

	"github.com/milad/co2info/internal/service"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "co2info.v1.MeterService"

// MeterServiceServer is the server API of co2info.v1.MeterService.
//
// Requests carry the meter selector or name query as a StringValue; responses
// are lists of structs (see encode.go for the field layout).
type MeterServiceServer interface {
	ListAverages(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	ListUnhealthy(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error)
	ListBroken(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error)
	ListReadings(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error)
	FindMeters(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error)
}

var _ MeterServiceServer = (*Server)(nil)

type Server struct {
	svc service.Queries
}

func New(svc service.Queries) *Server {
	return &Server{svc: svc}
}

// Register adds the meter service to g.
func Register(g grpc.ServiceRegistrar, srv MeterServiceServer) {
	g.RegisterService(&serviceDesc, srv)
}

func (s *Server) ListAverages(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	res, err := s.svc.Averages(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeSummaries(res), nil
}

func (s *Server) ListUnhealthy(ctx context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error) {
	return readingsResponse(s.svc.Unhealthy(ctx, req.GetValue()))
}

func (s *Server) ListBroken(ctx context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error) {
	return readingsResponse(s.svc.Broken(ctx, req.GetValue()))
}

func (s *Server) ListReadings(ctx context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error) {
	return readingsResponse(s.svc.Readings(ctx, req.GetValue()))
}

func (s *Server) FindMeters(ctx context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error) {
	res, err := s.svc.Find(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeSummaries(res), nil
}

func readingsResponse(res []service.MeterReading, err error) (*structpb.ListValue, error) {
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeReadings(res), nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, service.ErrMeterNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MeterServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("ListAverages", newEmpty, MeterServiceServer.ListAverages),
		unary("ListUnhealthy", newStringValue, MeterServiceServer.ListUnhealthy),
		unary("ListBroken", newStringValue, MeterServiceServer.ListBroken),
		unary("ListReadings", newStringValue, MeterServiceServer.ListReadings),
		unary("FindMeters", newStringValue, MeterServiceServer.FindMeters),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "co2info/v1/meters.proto",
}

func newEmpty() *emptypb.Empty { return new(emptypb.Empty) }
func newStringValue() *wrapperspb.StringValue { return new(wrapperspb.StringValue) }

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// unary builds the method descriptor the protoc plugin would generate.
func unary[Req proto.Message](
	name string,
	newReq func() Req,
	call func(MeterServiceServer, context.Context, Req) (*structpb.ListValue, error),
) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(MeterServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(MeterServiceServer), ctx, req.(Req))
			})
		},
	}
}
