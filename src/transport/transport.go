package transport

import (
	"errors"

	"github.com/mosaicnetworks/stdionode/src/message"
)

// ErrTransportClosed is returned when operations on a transport are invoked
// after it has been closed.
var ErrTransportClosed = errors.New("transport closed")

// Transport provides an interface for the streams a node uses to talk to the
// harness. Receive and Send are called from a single goroutine.
type Transport interface {
	// Receive blocks until the next envelope is available. It returns io.EOF
	// when the input stream ends cleanly.
	Receive() (message.Envelope, error)

	// Send writes an envelope and makes it visible to the other end before
	// returning.
	Send(env message.Envelope) error

	// Close releases the transport. Subsequent Receive and Send calls fail
	// with ErrTransportClosed.
	Close() error
}
