package transport

import (
	"io"
	"sync"

	"github.com/mosaicnetworks/stdionode/src/message"
)

// InmemTransport implements the Transport interface, to allow nodes to be
// tested in-memory without going through byte streams. Envelopes delivered
// with Deliver are returned by Receive in order; envelopes passed to Send are
// recorded and published on the channel returned by Consumer.
type InmemTransport struct {
	sync.RWMutex
	inbox      chan message.Envelope
	consumerCh chan message.Envelope
	sent       []message.Envelope
	inputDone  bool
	shutdown   bool
}

// NewInmemTransport creates an InmemTransport whose inbox holds up to
// capacity pending envelopes.
func NewInmemTransport(capacity int) *InmemTransport {
	return &InmemTransport{
		inbox:      make(chan message.Envelope, capacity),
		consumerCh: make(chan message.Envelope, capacity),
	}
}

// Deliver queues envelopes for Receive. It blocks if the inbox is full.
func (i *InmemTransport) Deliver(envs ...message.Envelope) {
	for _, env := range envs {
		i.inbox <- env
	}
}

// CloseInput signals the end of the input stream. Receive returns io.EOF once
// the pending envelopes have been consumed.
func (i *InmemTransport) CloseInput() {
	i.Lock()
	defer i.Unlock()
	if !i.inputDone {
		i.inputDone = true
		close(i.inbox)
	}
}

// Consumer returns a channel on which sent envelopes are published. Sends do
// not block if nobody reads it.
func (i *InmemTransport) Consumer() <-chan message.Envelope {
	return i.consumerCh
}

// Sent returns a copy of every envelope sent so far.
func (i *InmemTransport) Sent() []message.Envelope {
	i.RLock()
	defer i.RUnlock()
	res := make([]message.Envelope, len(i.sent))
	copy(res, i.sent)
	return res
}

// Receive implements the Transport interface.
func (i *InmemTransport) Receive() (message.Envelope, error) {
	i.RLock()
	shutdown := i.shutdown
	i.RUnlock()
	if shutdown {
		return message.Envelope{}, ErrTransportClosed
	}

	env, ok := <-i.inbox
	if !ok {
		return message.Envelope{}, io.EOF
	}
	return env, nil
}

// Send implements the Transport interface.
func (i *InmemTransport) Send(env message.Envelope) error {
	i.Lock()
	defer i.Unlock()

	if i.shutdown {
		return ErrTransportClosed
	}

	i.sent = append(i.sent, env)

	select {
	case i.consumerCh <- env:
	default:
	}

	return nil
}

// Close implements the Transport interface.
func (i *InmemTransport) Close() error {
	i.Lock()
	defer i.Unlock()
	i.shutdown = true
	return nil
}
