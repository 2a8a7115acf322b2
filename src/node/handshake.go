package node

import (
	"fmt"

	"github.com/mosaicnetworks/stdionode/src/common"
	"github.com/mosaicnetworks/stdionode/src/message"
)

// Handshake consumes the first envelope received by a node. It must carry an
// Init payload: its node_id and node_ids are stored in st and the init_ok
// reply is returned, stamped with the next msg_id. Any other payload is a
// HandshakeNotComplete error and leaves st untouched.
func Handshake(env message.Envelope, st *NodeState) (message.Envelope, error) {
	init, ok := env.Body.Payload.(message.Init)
	if !ok {
		return message.Envelope{}, common.NewNodeErr(common.HandshakeNotComplete,
			fmt.Sprintf("received %q payload from %s before init", env.Body.Type(), env.Src))
	}

	if init.NodeID == "" {
		return message.Envelope{}, common.NewNodeErr(common.MalformedEnvelope,
			fmt.Sprintf("init from %s has an empty node_id", env.Src))
	}

	st.NodeID = init.NodeID
	st.PeerIDs = append([]string(nil), init.NodeIDs...)

	reply := env.Reply(message.InitOk{})
	st.Stamp(&reply)

	return reply, nil
}

func containsID(ids []string, id string) bool {
	for _, i := range ids {
		if i == id {
			return true
		}
	}
	return false
}
