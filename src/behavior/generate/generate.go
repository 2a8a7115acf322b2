// Package generate implements a node that hands out cluster-wide unique IDs.
//
// IDs have the form "<node_id>-<n>" where n counts the generate requests
// served by the node. Node ids are unique within a cluster, so no two nodes
// can produce the same ID, and no coordination between nodes is needed.
package generate

import (
	"fmt"

	"github.com/mosaicnetworks/stdionode/src/common"
	"github.com/mosaicnetworks/stdionode/src/message"
	"github.com/mosaicnetworks/stdionode/src/node"
	"github.com/sirupsen/logrus"
)

// Name identifies the generate behavior.
const Name = "generate"

// Payload types of the generate behavior.
const (
	GenerateType   = "generate"
	GenerateOkType = GenerateType + "_ok"
)

// Generate asks the node for a new unique ID.
type Generate struct{}

// Type implements message.Payload
func (Generate) Type() string { return GenerateType }

// GenerateOk carries a new unique ID.
type GenerateOk struct {
	ID string `mapstructure:"id"`
}

// Type implements message.Payload
func (GenerateOk) Type() string { return GenerateOkType }

// Behavior answers generate with generate_ok. It ignores generate_ok and
// fails on init and on every other payload.
type Behavior struct {
	served uint64
	logger *logrus.Entry
}

// NewBehavior creates a generate Behavior.
func NewBehavior(logger *logrus.Entry) *Behavior {
	return &Behavior{
		logger: logger.WithField("behavior", Name),
	}
}

// Payloads implements node.PayloadProvider
func (b *Behavior) Payloads() []message.Payload {
	return []message.Payload{Generate{}, GenerateOk{}}
}

// Handle implements node.Behavior
func (b *Behavior) Handle(env message.Envelope, st *node.NodeState) (*message.Envelope, error) {
	switch env.Body.Payload.(type) {
	case Generate:
		id := fmt.Sprintf("%s-%d", st.NodeID, b.served)
		b.served++
		reply := env.Reply(GenerateOk{ID: id})
		return &reply, nil
	case GenerateOk:
		b.logger.WithField("from", env.Src).Debug("Ignoring generate_ok")
		return nil, nil
	case message.Init:
		return nil, common.NewNodeErr(common.AlreadyInitialized, "generate node "+st.NodeID+" is already active")
	default:
		return nil, node.UnsupportedPayload(Name, env)
	}
}
