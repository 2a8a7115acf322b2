package node

import (
	"fmt"

	"github.com/mosaicnetworks/stdionode/src/common"
	"github.com/mosaicnetworks/stdionode/src/message"
)

// Behavior is what a node does once initialised. Handle receives every
// envelope after the handshake, in order, with exclusive access to the node
// state. It returns the reply to send, or nil if the envelope needs no reply.
// The reply's msg_id is set by the node; behaviors leave it unset. Any error
// stops the node.
type Behavior interface {
	Handle(env message.Envelope, st *NodeState) (*message.Envelope, error)
}

// BehaviorFunc is an adapter to allow the use of ordinary functions as
// behaviors.
type BehaviorFunc func(env message.Envelope, st *NodeState) (*message.Envelope, error)

// Handle implements Behavior
func (f BehaviorFunc) Handle(env message.Envelope, st *NodeState) (*message.Envelope, error) {
	return f(env, st)
}

// PayloadProvider is implemented by behaviors which define payload variants
// of their own.
type PayloadProvider interface {
	Payloads() []message.Payload
}

// NewRegistry returns a message Registry with the core payload variants and,
// if b is a PayloadProvider, the variants of b.
func NewRegistry(b Behavior) (*message.Registry, error) {
	registry := message.NewRegistry()
	if p, ok := b.(PayloadProvider); ok {
		if err := registry.Register(p.Payloads()...); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// UnsupportedPayload returns the error a behavior reports for a payload it
// does not handle. name identifies the behavior.
func UnsupportedPayload(name string, env message.Envelope) error {
	return common.NewNodeErr(common.UnsupportedPayload,
		fmt.Sprintf("%s node does not support %q payload from %s", name, env.Body.Type(), env.Src))
}
