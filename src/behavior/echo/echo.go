// Package echo implements the reference behavior: a node that sends back
// whatever it is asked to echo.
package echo

import (
	"github.com/mosaicnetworks/stdionode/src/common"
	"github.com/mosaicnetworks/stdionode/src/message"
	"github.com/mosaicnetworks/stdionode/src/node"
	"github.com/sirupsen/logrus"
)

// Name identifies the echo behavior.
const Name = "echo"

// Behavior answers echo with echo_ok carrying the same text. It ignores
// echo_ok, which peers may send as unsolicited acknowledgements, and fails on
// init and on every other payload.
type Behavior struct {
	logger *logrus.Entry
}

// NewBehavior creates an echo Behavior.
func NewBehavior(logger *logrus.Entry) *Behavior {
	return &Behavior{
		logger: logger.WithField("behavior", Name),
	}
}

// Handle implements node.Behavior
func (b *Behavior) Handle(env message.Envelope, st *node.NodeState) (*message.Envelope, error) {
	switch p := env.Body.Payload.(type) {
	case message.Echo:
		reply := env.Reply(message.EchoOk{Echo: p.Echo})
		return &reply, nil
	case message.EchoOk:
		b.logger.WithField("from", env.Src).Debug("Ignoring echo_ok")
		return nil, nil
	case message.Init:
		return nil, common.NewNodeErr(common.AlreadyInitialized, "echo node "+st.NodeID+" is already active")
	default:
		return nil, node.UnsupportedPayload(Name, env)
	}
}
