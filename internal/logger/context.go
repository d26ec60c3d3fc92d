package logger

import "context"

// contextKey is a private type for context keys to avoid collisions.
type contextKey struct{}

var logContextKey = contextKey{}

// LogContext holds request-scoped logging context correlating a log line
// back to a dialog, a directive, or a focus channel.
type LogContext struct {
	TraceID         string
	SpanID          string
	DialogRequestID string
	MessageID       string
	Channel         string
}

// WithContext returns a new context carrying the given LogContext.
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from ctx, or nil if absent.
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// Clone returns a copy of lc.
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	clone := *lc
	return &clone
}

// WithDialog returns a copy with the dialog request id set.
func (lc *LogContext) WithDialog(dialogRequestID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.DialogRequestID = dialogRequestID
	}
	return clone
}

// WithDirective returns a copy with the message id set.
func (lc *LogContext) WithDirective(messageID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.MessageID = messageID
	}
	return clone
}

// WithChannel returns a copy with the channel name set.
func (lc *LogContext) WithChannel(channel string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Channel = channel
	}
	return clone
}
