package node

import "github.com/mosaicnetworks/stdionode/src/message"

// NodeState is the mutable state of a node. It is owned by the goroutine
// running the node and passed by pointer to every Behavior call.
type NodeState struct {
	// NextMsgID is the msg_id of the next envelope emitted by the node.
	NextMsgID uint64

	// NodeID is the identity of the node. Empty until the handshake.
	NodeID string

	// PeerIDs lists every node of the cluster, including this one, in the
	// order given by init. Empty until the handshake.
	PeerIDs []string
}

// NewNodeState returns an uninitialised NodeState.
func NewNodeState() *NodeState {
	return &NodeState{}
}

// Stamp sets the msg_id of env to NextMsgID and increments the counter.
func (s *NodeState) Stamp(env *message.Envelope) {
	env.Body.MsgID = message.ID(s.NextMsgID)
	s.NextMsgID++
}

// OtherPeerIDs returns PeerIDs without this node's own identity.
func (s *NodeState) OtherPeerIDs() []string {
	res := make([]string, 0, len(s.PeerIDs))
	for _, id := range s.PeerIDs {
		if id != s.NodeID {
			res = append(res, id)
		}
	}
	return res
}

// Copy returns a deep copy of the state.
func (s *NodeState) Copy() NodeState {
	return NodeState{
		NextMsgID: s.NextMsgID,
		NodeID:    s.NodeID,
		PeerIDs:   append([]string(nil), s.PeerIDs...),
	}
}
