package grpcserver

import (
	"context"

	"github.com/milad/co2info/internal/service"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

var _ service.Queries = (*Client)(nil)

// Client calls co2info.v1.MeterService and decodes responses into service
// views. Errors are returned as gRPC status errors.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) Averages(ctx context.Context) ([]service.MeterSummary, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, fullMethod("ListAverages"), &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return decodeSummaries(out)
}

func (c *Client) Find(ctx context.Context, query string) ([]service.MeterSummary, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, fullMethod("FindMeters"), wrapperspb.String(query), out); err != nil {
		return nil, err
	}
	return decodeSummaries(out)
}

func (c *Client) Unhealthy(ctx context.Context, selector string) ([]service.MeterReading, error) {
	return c.listReadings(ctx, "ListUnhealthy", selector)
}

func (c *Client) Broken(ctx context.Context, selector string) ([]service.MeterReading, error) {
	return c.listReadings(ctx, "ListBroken", selector)
}

func (c *Client) Readings(ctx context.Context, selector string) ([]service.MeterReading, error) {
	return c.listReadings(ctx, "ListReadings", selector)
}

func (c *Client) listReadings(ctx context.Context, method, selector string) ([]service.MeterReading, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, fullMethod(method), wrapperspb.String(selector), out); err != nil {
		return nil, err
	}
	return decodeReadings(out)
}
