// Package directive implements the directive router and directive
// processor: the server-directive dispatch pipeline of the client SDK.
package directive

import "fmt"

// BlockingPolicy controls whether a directive's completion gates later
// directives queued behind it in the same processor.
type BlockingPolicy int

const (
	// PolicyNone tracks no blocking relationship. The router installs a
	// PolicyNone registration like any other and does not unregister the
	// handler when a directive is assigned to it.
	PolicyNone BlockingPolicy = iota
	// PolicyNonBlocking means later directives may be handled concurrently.
	PolicyNonBlocking
	// PolicyBlocking means no later directive in the same processor is
	// handled until this one completes or fails.
	PolicyBlocking
)

func (p BlockingPolicy) String() string {
	switch p {
	case PolicyNone:
		return "NONE"
	case PolicyNonBlocking:
		return "NON_BLOCKING"
	case PolicyBlocking:
		return "BLOCKING"
	default:
		return "UNKNOWN"
	}
}

// Mediums is a bitmask of resources a directive's handling will contend
// for in the focus layer.
type Mediums uint8

const (
	MediumAudio Mediums = 1 << iota
	MediumVisual
)

// Directive is an immutable server-issued command.
type Directive struct {
	MessageID       string
	Namespace       string
	Name            string
	DialogRequestID string
	CorrelationToken string
	Payload         []byte
	Mediums         Mediums
}

// Identity returns the (namespace, name) key used for handler lookup.
func (d Directive) Identity() Identity {
	return Identity{Namespace: d.Namespace, Name: d.Name}
}

func (d Directive) String() string {
	return fmt.Sprintf("Directive{id=%s ns=%s name=%s dialog=%s}", d.MessageID, d.Namespace, d.Name, d.DialogRequestID)
}

// Identity is the (namespace, name) pair that identifies a directive's
// handler registration.
type Identity struct {
	Namespace string
	Name      string
}

func (i Identity) String() string {
	return i.Namespace + "." + i.Name
}

// Handler is the abstract domain-handler contract consumed by the router.
// Concrete handlers (audio players, synthesizers, recognizers, alerts,
// Bluetooth, ...) are out of scope for this SDK; it sees only this
// interface.
type Handler interface {
	// HandleDirectiveImmediately handles a directive without going
	// through the pre-handle/queue pipeline.
	HandleDirectiveImmediately(d Directive) error
	// PreHandleDirective begins asynchronous pre-handling of a directive.
	// The handler must eventually call sink.SetCompleted or
	// sink.SetFailed exactly once.
	PreHandleDirective(d Directive, sink ResultSink) error
	// HandleDirective asks the handler to proceed with a previously
	// pre-handled directive, identified by message ID.
	HandleDirective(messageID string) error
	// CancelDirective cancels a previously pre-handled directive.
	CancelDirective(messageID string) error
	// OnDeregistered is invoked exactly once, after the handler's last
	// registration has been removed, and never while a router call into
	// the handler is in flight.
	OnDeregistered()
}

// ResultSink is handed to a handler's PreHandleDirective call. The handler
// invokes exactly one of SetCompleted/SetFailed once pre-handling of the
// directive concludes.
type ResultSink interface {
	SetCompleted()
	SetFailed(description string)
}

// Registration pairs a handler with the policy to apply for a given
// (namespace, name).
type Registration struct {
	Handler Handler
	Policy  BlockingPolicy
}

// DurableSink is the optional write-ahead log a Processor persists
// accepted directives to and removes them from once they leave every
// queue. internal/durable.Store satisfies this structurally; the core
// never imports that package, keeping the processor dependency-free. A
// nil DurableSink (the default) means durability is disabled.
type DurableSink interface {
	Put(dialogRequestID, messageID, namespace, name string, payload []byte) error
	Remove(dialogRequestID, messageID string) error
}

// Config is the batch configuration accepted by AddDirectiveHandlers and
// RemoveDirectiveHandlers: a mapping from directive identity to handler
// registration.
type Config map[Identity]Registration
