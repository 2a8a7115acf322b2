package common

import (
	"fmt"

	"github.com/pkg/errors"
)

// NodeErrType identifies the kind of failure reported by a node. Every kind is
// fatal for the process.
type NodeErrType uint32

const (
	// MalformedEnvelope means an input line does not decode to a valid
	// Envelope.
	MalformedEnvelope NodeErrType = iota
	// HandshakeNotComplete means a non-init payload arrived before the node
	// was initialised.
	HandshakeNotComplete
	// AlreadyInitialized means an init payload arrived after the handshake.
	AlreadyInitialized
	// UnsupportedPayload means the active behavior does not handle a variant.
	UnsupportedPayload
	// IoFailure means reading from or writing to the underlying streams failed.
	IoFailure
)

var nodeErrTypes = []string{
	"Malformed Envelope",
	"Handshake Not Complete",
	"Already Initialized",
	"Unsupported Payload",
	"IO Failure",
}

// String returns the string representation of NodeErrType
func (t NodeErrType) String() string {
	if int(t) < len(nodeErrTypes) {
		return nodeErrTypes[t]
	}
	return "Unknown"
}

// NodeErr carries the kind of a node failure, some context to diagnose it
// (offending variant, raw input line...) and the underlying cause if any.
type NodeErr struct {
	errType NodeErrType
	context string
	cause   error
}

// NewNodeErr creates a NodeErr without an underlying cause.
func NewNodeErr(errType NodeErrType, context string) NodeErr {
	return NodeErr{
		errType: errType,
		context: context,
	}
}

// WrapNodeErr creates a NodeErr around an underlying cause.
func WrapNodeErr(errType NodeErrType, cause error, context string) NodeErr {
	return NodeErr{
		errType: errType,
		context: context,
		cause:   cause,
	}
}

// Type returns the kind of the error.
func (e NodeErr) Type() NodeErrType {
	return e.errType
}

// Unwrap returns the underlying error.
func (e NodeErr) Unwrap() error {
	return e.cause
}

// Error implements the error interface
func (e NodeErr) Error() string {
	m := e.errType.String()
	if e.context != "" {
		m = fmt.Sprintf("%s: %s", m, e.context)
	}
	if e.cause != nil {
		m = fmt.Sprintf("%s: %v", m, e.cause)
	}
	return m
}

// IsNodeErr checks whether err, or any error it wraps, is a NodeErr of the
// given type.
func IsNodeErr(err error, t NodeErrType) bool {
	var nodeErr NodeErr
	return errors.As(err, &nodeErr) && nodeErr.errType == t
}
