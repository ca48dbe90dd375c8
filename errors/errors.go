package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/sergev/spectran/result"
)

// Kind categorizes the error
type Kind string

const (
	KindInit            Kind = "init_failure"
	KindOpen            Kind = "open_failure"
	KindScan            Kind = "scan_failure"
	KindReset           Kind = "reset_failure"
	KindDeviceOpen      Kind = "device_open_failure"
	KindDeviceNotOpen   Kind = "device_not_open"
	KindDeviceConnect   Kind = "device_connect_failure"
	KindDeviceStart     Kind = "device_start_failure"
	KindStateQuery      Kind = "state_query_failure"
	KindConfigLookup    Kind = "config_lookup_failure"
	KindConfigRead      Kind = "config_read_failure"
	KindConfigSet       Kind = "config_set_rejected"
	KindPacketQuery     Kind = "packet_query_failure"
	KindPacketFetch     Kind = "packet_fetch_failure"
	KindPacketConsume   Kind = "packet_consume_failure"
	KindPacketSend      Kind = "packet_send_failure"
	KindUnsupportedKind Kind = "unsupported_config_kind"
	KindStaleHandle     Kind = "stale_handle"
	KindLibraryLoad     Kind = "library_load_failure"
)

// NoChannel marks an error that is not tied to a packet channel.
const NoChannel = -1

// Error is the structured error returned by the session layer
type Error struct {
	Value   any
	Cause   error
	Kind    Kind
	Op      string
	Path    string
	Detail  string
	Code    result.Code
	Channel int
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(string(e.Kind))
	if e.Op != "" {
		b.WriteString(" in ")
		b.WriteString(e.Op)
	}

	if e.Path != "" {
		b.WriteString(" at ")
		b.WriteString(e.Path)
	}
	if e.Channel != NoChannel {
		fmt.Fprintf(&b, " on channel %d", e.Channel)
	}
	if e.Value != nil {
		fmt.Fprintf(&b, " (value %v)", e.Value)
	}

	if e.Code != result.OK {
		b.WriteString(": ")
		b.WriteString(e.Code.String())
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(kind Kind, op string) *Builder {
	return &Builder{
		err: Error{
			Kind:    kind,
			Op:      op,
			Channel: NoChannel,
		},
	}
}

// Code sets the driver result code
func (b *Builder) Code(code result.Code) *Builder {
	b.err.Code = code
	return b
}

// Path sets the configuration path
func (b *Builder) Path(path string) *Builder {
	b.err.Path = path
	return b
}

// Channel sets the packet channel
func (b *Builder) Channel(channel int) *Builder {
	b.err.Channel = channel
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// FromCode creates an error for a failed driver call.
func FromCode(kind Kind, op string, code result.Code) *Error {
	return New(kind, op).Code(code).Build()
}

// KindOf returns the kind of the first *Error in err's chain,
// or an empty kind if there is none.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// HasKind reports whether err's chain contains an *Error of the given kind.
func HasKind(err error, kind Kind) bool {
	return stderrors.Is(err, &Error{Kind: kind})
}

// CodeOf returns the driver code carried by the first *Error in err's chain.
func CodeOf(err error) (result.Code, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code, true
	}
	return result.OK, false
}
