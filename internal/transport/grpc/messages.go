package grpc

// DirectiveFrame is the wire shape of one directive sent from a
// cloud-side stub into Processor.OnDirective. It mirrors
// internal/directive.Directive field-for-field; this package owns its
// own copy so the core directive package never has to know about gRPC.
type DirectiveFrame struct {
	MessageID        string `json:"messageId"`
	Namespace        string `json:"namespace"`
	Name             string `json:"name"`
	DialogRequestID  string `json:"dialogRequestId,omitempty"`
	CorrelationToken string `json:"correlationToken,omitempty"`
	Payload          []byte `json:"payload,omitempty"`
	Mediums          uint8  `json:"mediums,omitempty"`
}

// AckFrame is sent back on the stream for every DirectiveFrame received,
// carrying OnDirective's result: Accepted is true when the processor
// consumed the frame (queued it, or dropped it for a stale dialog request
// id or a disabled processor) and false when the router rejected it.
type AckFrame struct {
	MessageID string `json:"messageId"`
	Accepted  bool   `json:"accepted"`
	Reason    string `json:"reason,omitempty"`
}
