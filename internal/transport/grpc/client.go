package grpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

// Client is a minimal stand-in for the cloud-side stub that would dial
// this transport in production; it exists so this package can be
// exercised end-to-end without a real cloud counterpart.
type Client struct {
	conn   *grpc.ClientConn
	stream grpc.ClientStream
}

// Dial connects to addr and opens the bidi directive stream. creds may
// be nil to dial insecurely (loopback/dev only).
func Dial(ctx context.Context, addr string, creds credentials.TransportCredentials) (*Client, error) {
	if creds == nil {
		creds = insecure.NewCredentials()
	}

	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(creds),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(jsonCodec{})),
	)
	if err != nil {
		return nil, fmt.Errorf("grpc transport client: dial: %w", err)
	}

	streamDesc := &grpc.StreamDesc{StreamName: streamMethodName, ServerStreams: true, ClientStreams: true}
	stream, err := conn.NewStream(ctx, streamDesc, fmt.Sprintf("/%s/%s", serviceName, streamMethodName))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("grpc transport client: open stream: %w", err)
	}

	return &Client{conn: conn, stream: stream}, nil
}

// Send writes one directive frame onto the stream.
func (c *Client) Send(frame DirectiveFrame) error {
	return c.stream.SendMsg(&frame)
}

// Recv blocks for the next ack frame.
func (c *Client) Recv() (AckFrame, error) {
	var ack AckFrame
	if err := c.stream.RecvMsg(&ack); err != nil {
		return AckFrame{}, err
	}
	return ack, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
