package grpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// codecName is registered with google.golang.org/grpc/encoding and
// selected on both ends via grpc.ForceServerCodec/grpc.ForceCodec, so
// the wire frames this package exchanges are plain JSON rather than
// compiled protobuf messages. The directive frame shape is simple and
// stable enough that paying for a protoc toolchain buys little; the
// gRPC layer is here purely to demonstrate that a directive producer is
// an out-of-core transport concern, not to showcase protobuf.
const codecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return codecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
