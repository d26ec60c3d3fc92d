package grpc

import (
	"io"

	"google.golang.org/grpc"

	"github.com/voxcore/assistant-sdk/internal/directive"
	"github.com/voxcore/assistant-sdk/internal/logger"
)

// serviceName matches what a cloud-side stub would dial; there is no
// .proto file behind it since the wire codec is JSON (see codec.go),
// but the name follows the same reverse-DNS-ish convention a protoc
// generated service would use.
const serviceName = "vassist.transport.v1.DirectiveTransport"
const streamMethodName = "StreamDirectives"

// serviceDesc is the hand-rolled equivalent of what protoc-gen-go-grpc
// would emit for a single bidi-streaming RPC. grpc.Server dispatches to
// streamDirectivesHandler for any call to
// "/vassist.transport.v1.DirectiveTransport/StreamDirectives".
var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*Server)(nil),
	Methods:     nil,
	Streams: []grpc.StreamDesc{
		{
			StreamName:    streamMethodName,
			Handler:       streamDirectivesHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "internal/transport/grpc/service.go",
}

func streamDirectivesHandler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(*Server).streamDirectives(stream)
}

// streamDirectives reads DirectiveFrame messages off the stream for as
// long as the cloud-side stub keeps it open, hands each one to the
// wired Processor via OnDirective, and writes back one AckFrame per
// frame received. It never touches focus or dialog UX state directly —
// the processor is the only thing this transport talks to.
func (s *Server) streamDirectives(stream grpc.ServerStream) error {
	for {
		var frame DirectiveFrame
		if err := stream.RecvMsg(&frame); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		d := directive.Directive{
			MessageID:        frame.MessageID,
			Namespace:        frame.Namespace,
			Name:             frame.Name,
			DialogRequestID:  frame.DialogRequestID,
			CorrelationToken: frame.CorrelationToken,
			Payload:          frame.Payload,
			Mediums:          directive.Mediums(frame.Mediums),
		}

		accepted := s.processor.OnDirective(d)
		ack := AckFrame{MessageID: frame.MessageID, Accepted: accepted}
		if !accepted {
			ack.Reason = "rejected by router pre-handle"
		}

		if err := stream.SendMsg(&ack); err != nil {
			logger.Warn("grpc transport: send ack failed", "messageId", frame.MessageID, "error", err.Error())
			return err
		}
	}
}
