package logger

// Standard field keys for structured logging. Use these keys
// consistently across all log statements so lines from the router,
// processor, focus manager, and UX aggregator can be correlated.
const (
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	KeyDialogRequestID = "dialog_request_id"
	KeyMessageID       = "message_id"
	KeyNamespace       = "namespace"
	KeyDirectiveName   = "directive_name"
	KeyPolicy          = "policy"

	KeyChannel   = "channel"
	KeyInterface = "interface"
	KeyFocus     = "focus"
	KeyMixing    = "mixing_behavior"

	KeyUXState = "ux_state"
)
