package node

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/mosaicnetworks/stdionode/src/common"
	"github.com/mosaicnetworks/stdionode/src/config"
	"github.com/mosaicnetworks/stdionode/src/message"
	"github.com/mosaicnetworks/stdionode/src/node/state"
	"github.com/mosaicnetworks/stdionode/src/transport"
	"github.com/sirupsen/logrus"
)

// Node reads envelopes from a Transport, runs the handshake, and hands the
// following envelopes to its Behavior.
type Node struct {
	state state.Manager

	conf   *config.Config
	logger *logrus.Entry

	behavior  Behavior
	nodeState *NodeState

	trans transport.Transport

	start    time.Time
	received int
	sent     int
	ignored  int
}

// NewNode is a factory method that returns a Node instance
func NewNode(conf *config.Config,
	behavior Behavior,
	trans transport.Transport,
) *Node {
	node := Node{
		conf:      conf,
		logger:    conf.Logger(),
		behavior:  behavior,
		nodeState: NewNodeState(),
		trans:     trans,
	}

	return &node
}

// Run processes envelopes until the input stream ends, an error occurs, or
// ctx is cancelled. The end of the input stream is not an error. ctx is only
// checked between envelopes; a blocked read is not interrupted.
func (n *Node) Run(ctx context.Context) error {
	n.start = time.Now()
	defer n.logStats()

	for {
		select {
		case <-ctx.Done():
			n.logger.Debug("Context done")
			return ctx.Err()
		default:
		}

		env, err := n.trans.Receive()
		if err == io.EOF {
			n.logger.Debug("End of input")
			return nil
		}
		if err != nil {
			return err
		}
		n.received++

		reply, err := n.Process(env)
		if err != nil {
			n.logger.WithFields(logrus.Fields{
				"envelope": env.String(),
				"state":    n.GetState().String(),
			}).Error(err)
			return err
		}

		if reply == nil {
			continue
		}

		if err := n.trans.Send(*reply); err != nil {
			return err
		}
		n.sent++
	}
}

// Process hands env to the handshake or to the behavior depending on the
// state of the node, and returns the stamped reply, if any.
func (n *Node) Process(env message.Envelope) (*message.Envelope, error) {
	n.logger.WithFields(logrus.Fields{
		"envelope": env.String(),
		"state":    n.GetState().String(),
	}).Debug("Process")

	switch n.GetState() {
	case state.Uninitialized:
		return n.handshake(env)
	case state.Active:
		return n.dispatch(env)
	default:
		return nil, fmt.Errorf("node in unknown state %v", n.GetState())
	}
}

func (n *Node) handshake(env message.Envelope) (*message.Envelope, error) {
	reply, err := Handshake(env, n.nodeState)
	if err != nil {
		return nil, err
	}

	if !containsID(n.nodeState.PeerIDs, n.nodeState.NodeID) {
		n.logger.WithFields(logrus.Fields{
			"node_id":  n.nodeState.NodeID,
			"node_ids": n.nodeState.PeerIDs,
		}).Warn("node_id not in node_ids")
	}

	n.state.SetState(state.Active)

	n.logger.WithFields(logrus.Fields{
		"node_id": n.nodeState.NodeID,
		"peers":   n.nodeState.OtherPeerIDs(),
	}).Info("Initialized")

	return &reply, nil
}

func (n *Node) dispatch(env message.Envelope) (*message.Envelope, error) {
	if env.Body.Type() == message.InitType {
		return nil, common.NewNodeErr(common.AlreadyInitialized,
			fmt.Sprintf("node %s received init from %s", n.nodeState.NodeID, env.Src))
	}

	reply, err := n.behavior.Handle(env, n.nodeState)
	if err != nil {
		return nil, err
	}

	if reply == nil {
		n.ignored++
		return nil, nil
	}

	n.nodeState.Stamp(reply)

	return reply, nil
}

// GetState returns the handshake state of the node.
func (n *Node) GetState() state.State {
	return n.state.GetState()
}

// NodeState returns a copy of the node state.
func (n *Node) NodeState() NodeState {
	return n.nodeState.Copy()
}

// Shutdown closes the transport.
func (n *Node) Shutdown() error {
	n.logger.Debug("Shutdown")
	return n.trans.Close()
}

// GetStats returns processing statistics.
func (n *Node) GetStats() map[string]string {
	elapsed := time.Duration(0)
	if !n.start.IsZero() {
		elapsed = time.Since(n.start)
	}

	s := map[string]string{
		"state":        n.GetState().String(),
		"node_id":      n.nodeState.NodeID,
		"num_peers":    strconv.Itoa(len(n.nodeState.PeerIDs)),
		"next_msg_id":  strconv.FormatUint(n.nodeState.NextMsgID, 10),
		"received":     strconv.Itoa(n.received),
		"sent":         strconv.Itoa(n.sent),
		"ignored":      strconv.Itoa(n.ignored),
		"time_elapsed": strconv.FormatFloat(elapsed.Seconds(), 'f', 2, 64),
	}
	return s
}

func (n *Node) logStats() {
	stats := n.GetStats()

	n.logger.WithFields(logrus.Fields{
		"state":        stats["state"],
		"node_id":      stats["node_id"],
		"num_peers":    stats["num_peers"],
		"next_msg_id":  stats["next_msg_id"],
		"received":     stats["received"],
		"sent":         stats["sent"],
		"ignored":      stats["ignored"],
		"time_elapsed": stats["time_elapsed"],
	}).Debug("Stats")
}
