package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for directive, focus, and dialog UX operations. These
// follow OpenTelemetry semantic-convention naming style: a short
// component prefix followed by the field name.
const (
	// ========================================================================
	// Directive attributes
	// ========================================================================
	AttrDirectiveNamespace  = "directive.namespace"
	AttrDirectiveName       = "directive.name"
	AttrDirectiveMessageID  = "directive.message_id"
	AttrDirectiveDialogID   = "directive.dialog_request_id"
	AttrDirectivePolicy     = "directive.policy"
	AttrDirectiveAccepted   = "directive.accepted"
	AttrDirectiveQueueDepth = "directive.queue_depth"

	// ========================================================================
	// Focus attributes
	// ========================================================================
	AttrFocusChannel   = "focus.channel"
	AttrFocusPriority  = "focus.priority"
	AttrFocusState     = "focus.state"
	AttrFocusInterface = "focus.interface_name"
	AttrFocusMixing    = "focus.mixing_behavior"

	// ========================================================================
	// Dialog UX attributes
	// ========================================================================
	AttrUXStateFrom = "dialogux.state_from"
	AttrUXStateTo   = "dialogux.state_to"

	// ========================================================================
	// Durability / audit / archive attributes
	// ========================================================================
	AttrAuditEventKind = "auditstore.event_kind"
	AttrArchiveKey     = "archive.object_key"
	AttrArchiveBucket  = "archive.bucket"
)

// Span names for operations. Format: <component>.<operation>.
const (
	SpanDirectiveOnDirective = "directive.on_directive"
	SpanDirectiveHandle      = "directive.handle"
	SpanDirectiveCancel      = "directive.cancel"

	SpanFocusAcquire = "focus.acquire"
	SpanFocusRelease = "focus.release"

	SpanDialogUXTransition = "dialogux.transition"

	SpanDurablePut    = "durable.put"
	SpanDurableRemove = "durable.remove"

	SpanAuditRecord    = "auditstore.record"
	SpanArchiveUpload  = "archive.upload"
	SpanCapabilitySync = "capability.sync"
)

// DirectiveNamespace returns an attribute for a directive's namespace.
func DirectiveNamespace(ns string) attribute.KeyValue {
	return attribute.String(AttrDirectiveNamespace, ns)
}

// DirectiveName returns an attribute for a directive's name.
func DirectiveName(name string) attribute.KeyValue {
	return attribute.String(AttrDirectiveName, name)
}

// DirectiveMessageID returns an attribute for a directive's message ID.
func DirectiveMessageID(id string) attribute.KeyValue {
	return attribute.String(AttrDirectiveMessageID, id)
}

// DirectiveDialogID returns an attribute for a directive's dialog
// request ID.
func DirectiveDialogID(id string) attribute.KeyValue {
	return attribute.String(AttrDirectiveDialogID, id)
}

// DirectivePolicy returns an attribute for a directive's blocking policy.
func DirectivePolicy(policy string) attribute.KeyValue {
	return attribute.String(AttrDirectivePolicy, policy)
}

// DirectiveAccepted returns an attribute for whether OnDirective
// accepted a directive.
func DirectiveAccepted(accepted bool) attribute.KeyValue {
	return attribute.Bool(AttrDirectiveAccepted, accepted)
}

// DirectiveQueueDepth returns an attribute for a processor queue depth.
func DirectiveQueueDepth(depth int) attribute.KeyValue {
	return attribute.Int(AttrDirectiveQueueDepth, depth)
}

// FocusChannel returns an attribute for a channel name.
func FocusChannel(name string) attribute.KeyValue {
	return attribute.String(AttrFocusChannel, name)
}

// FocusPriority returns an attribute for a channel's priority.
func FocusPriority(priority uint32) attribute.KeyValue {
	return attribute.Int64(AttrFocusPriority, int64(priority))
}

// FocusState returns an attribute for a channel's focus state.
func FocusState(state string) attribute.KeyValue {
	return attribute.String(AttrFocusState, state)
}

// FocusInterfaceName returns an attribute for the interface currently
// holding a channel.
func FocusInterfaceName(name string) attribute.KeyValue {
	return attribute.String(AttrFocusInterface, name)
}

// UXStateTransition returns attributes describing a dialog UX state
// transition.
func UXStateTransition(from, to string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrUXStateFrom, from),
		attribute.String(AttrUXStateTo, to),
	}
}

// AuditEventKind returns an attribute for an audit event's kind.
func AuditEventKind(kind string) attribute.KeyValue {
	return attribute.String(AttrAuditEventKind, kind)
}

// ArchiveKey returns an attribute for an S3 object key.
func ArchiveKey(key string) attribute.KeyValue {
	return attribute.String(AttrArchiveKey, key)
}

// ArchiveBucket returns an attribute for an S3 bucket name.
func ArchiveBucket(bucket string) attribute.KeyValue {
	return attribute.String(AttrArchiveBucket, bucket)
}

// DirectiveAttrs is the minimal directive shape StartDirectiveSpan needs.
type DirectiveAttrs struct {
	Namespace       string
	Name            string
	MessageID       string
	DialogRequestID string
}

// StartDirectiveSpan starts a span for a directive-processing operation,
// tagging it with the directive's identity and correlation.
func StartDirectiveSpan(ctx context.Context, spanName string, d DirectiveAttrs, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		DirectiveNamespace(d.Namespace),
		DirectiveName(d.Name),
		DirectiveMessageID(d.MessageID),
	}
	if d.DialogRequestID != "" {
		allAttrs = append(allAttrs, DirectiveDialogID(d.DialogRequestID))
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, spanName, trace.WithAttributes(allAttrs...))
}

// StartFocusSpan starts a span for a focus acquire/release operation.
func StartFocusSpan(ctx context.Context, spanName, channel string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{FocusChannel(channel)}
	allAttrs = append(allAttrs, attrs...)
	return StartSpan(ctx, spanName, trace.WithAttributes(allAttrs...))
}

// StartUXTransitionSpan starts a span for a dialog UX state transition.
func StartUXTransitionSpan(ctx context.Context, from, to string) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanDialogUXTransition, trace.WithAttributes(UXStateTransition(from, to)...))
}
