// Package errors defines the client/server error taxonomy used throughout
// vldmgo. ClientErrors are semantic faults (bad store, malformed key,
// key-not-found) that are never retried across replicas. ServerErrors are
// transient or remote faults (closed sockets, timeouts, bootstrap failure)
// that the cluster retries against the next replica in a preference list.
package errors

import "fmt"

// Code identifies the specific fault behind a ClientError or ServerError,
// mirroring the RetCode pattern used for store-level errors in the wider
// ecosystem this client was grafted from.
type Code uint32

const (
	CodeUnknown Code = iota

	// ClientError codes
	CodeUnknownStore
	CodeNotReadOnly
	CodeKeyNotFound
	CodeSchemaMismatch
	CodeValueOutOfRange
	CodeUnknownSchemaVersion
	CodeUnsupportedRoutingStrategy
	CodeInvalidReplicaCount
	CodeProtocolRejected

	// ServerError codes
	CodeConnectionRefused
	CodeDNSFailure
	CodeConnectionClosed
	CodeRequestTimeout
	CodeBootstrapFailed
	CodeResponseParseFailure
	CodeNoUsableConnection
	CodeShutdownRequested
)

func (c Code) String() string {
	switch c {
	case CodeUnknownStore:
		return "UnknownStore"
	case CodeNotReadOnly:
		return "NotReadOnly"
	case CodeKeyNotFound:
		return "KeyNotFound"
	case CodeSchemaMismatch:
		return "SchemaMismatch"
	case CodeValueOutOfRange:
		return "ValueOutOfRange"
	case CodeUnknownSchemaVersion:
		return "UnknownSchemaVersion"
	case CodeUnsupportedRoutingStrategy:
		return "UnsupportedRoutingStrategy"
	case CodeInvalidReplicaCount:
		return "InvalidReplicaCount"
	case CodeProtocolRejected:
		return "ProtocolRejected"
	case CodeConnectionRefused:
		return "ConnectionRefused"
	case CodeDNSFailure:
		return "DNSFailure"
	case CodeConnectionClosed:
		return "ConnectionClosed"
	case CodeRequestTimeout:
		return "RequestTimeout"
	case CodeBootstrapFailed:
		return "BootstrapFailed"
	case CodeResponseParseFailure:
		return "ResponseParseFailure"
	case CodeNoUsableConnection:
		return "NoUsableConnection"
	case CodeShutdownRequested:
		return "ShutdownRequested"
	default:
		return "Unknown"
	}
}

// ClientError signals that the request itself, or the server's semantic
// answer to it, is a client-side fault. The cluster never retries a
// ClientError against another replica.
type ClientError struct {
	Code Code
	Msg  string
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("client error (%s): %s", e.Code, e.Msg)
}

// NewClient creates a ClientError with the given code and formatted message.
func NewClient(code Code, format string, args ...interface{}) *ClientError {
	return &ClientError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// KeyNotFound builds the distinguished ClientError subkind for a miss.
func KeyNotFound(store, key string) *ClientError {
	return NewClient(CodeKeyNotFound, "key %q not found in store %q", key, store)
}

// ServerError signals a transient or remote fault. The cluster retries a
// ServerError against the next replica in the preference list, if any.
type ServerError struct {
	Code Code
	Msg  string
	// Cause is the underlying error, if any (e.g. the socket error that
	// tripped a reconnect, or the parse error wrapped from a lower layer).
	Cause error
}

func (e *ServerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("server error (%s): %s: %v", e.Code, e.Msg, e.Cause)
	}
	return fmt.Sprintf("server error (%s): %s", e.Code, e.Msg)
}

func (e *ServerError) Unwrap() error {
	return e.Cause
}

// NewServer creates a ServerError with the given code and formatted message.
func NewServer(code Code, format string, args ...interface{}) *ServerError {
	return &ServerError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// WrapServer wraps a lower-level error as a ServerError of the given code.
func WrapServer(code Code, cause error, format string, args ...interface{}) *ServerError {
	return &ServerError{Code: code, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

// IsClient reports whether err is a *ClientError.
func IsClient(err error) bool {
	_, ok := err.(*ClientError)
	return ok
}

// IsServer reports whether err is a *ServerError.
func IsServer(err error) bool {
	_, ok := err.(*ServerError)
	return ok
}

// IsKeyNotFound reports whether err is the distinguished key-not-found
// ClientError subkind.
func IsKeyNotFound(err error) bool {
	ce, ok := err.(*ClientError)
	return ok && ce.Code == CodeKeyNotFound
}
