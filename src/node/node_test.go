package node

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mosaicnetworks/stdionode/src/common"
	"github.com/mosaicnetworks/stdionode/src/config"
	"github.com/mosaicnetworks/stdionode/src/message"
	"github.com/mosaicnetworks/stdionode/src/node/state"
	"github.com/mosaicnetworks/stdionode/src/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoBehavior answers echo, tolerates echo_ok, and rejects the rest.
var echoBehavior = BehaviorFunc(func(env message.Envelope, st *NodeState) (*message.Envelope, error) {
	switch p := env.Body.Payload.(type) {
	case message.Echo:
		reply := env.Reply(message.EchoOk{Echo: p.Echo})
		return &reply, nil
	case message.EchoOk:
		return nil, nil
	default:
		return nil, UnsupportedPayload("test", env)
	}
})

func initEnvelope(msgID uint64, nodeID string, nodeIDs ...string) message.Envelope {
	return message.Envelope{
		Src:  "c1",
		Dest: nodeID,
		Body: message.Body{
			MsgID:   message.ID(msgID),
			Payload: message.Init{NodeID: nodeID, NodeIDs: nodeIDs},
		},
	}
}

func echoEnvelope(msgID uint64, text string) message.Envelope {
	return message.Envelope{
		Src:  "c1",
		Dest: "n1",
		Body: message.Body{
			MsgID:   message.ID(msgID),
			Payload: message.Echo{Echo: text},
		},
	}
}

func newTestNode(t *testing.T, b Behavior) (*Node, *transport.InmemTransport) {
	trans := transport.NewInmemTransport(64)
	conf := config.NewTestConfig(t, common.TestLogLevel)
	return NewNode(conf, b, trans), trans
}

func TestHandshake(t *testing.T) {
	st := NewNodeState()

	reply, err := Handshake(initEnvelope(1, "n1", "n1", "n2"), st)
	require.NoError(t, err)

	assert.Equal(t, "n1", reply.Src)
	assert.Equal(t, "c1", reply.Dest)
	assert.Equal(t, message.InitOk{}, reply.Body.Payload)
	require.NotNil(t, reply.Body.InReplyTo)
	assert.Equal(t, uint64(1), *reply.Body.InReplyTo)
	require.NotNil(t, reply.Body.MsgID)
	assert.Equal(t, uint64(0), *reply.Body.MsgID)

	assert.Equal(t, "n1", st.NodeID)
	assert.Equal(t, []string{"n1", "n2"}, st.PeerIDs)
	assert.Equal(t, []string{"n2"}, st.OtherPeerIDs())
	assert.Equal(t, uint64(1), st.NextMsgID)
}

func TestHandshakeRejectsOtherPayloads(t *testing.T) {
	st := NewNodeState()

	_, err := Handshake(echoEnvelope(1, "hi"), st)
	assert.True(t, common.IsNodeErr(err, common.HandshakeNotComplete), "%v", err)
	assert.Contains(t, err.Error(), `"echo"`)

	assert.Equal(t, "", st.NodeID)
	assert.Equal(t, uint64(0), st.NextMsgID)
}

func TestHandshakeRejectsEmptyNodeID(t *testing.T) {
	_, err := Handshake(initEnvelope(1, "", "n1"), NewNodeState())
	assert.True(t, common.IsNodeErr(err, common.MalformedEnvelope), "%v", err)
}

func TestProcessBeforeInit(t *testing.T) {
	payloads := []message.Payload{
		message.Echo{Echo: "x"},
		message.EchoOk{Echo: "x"},
		message.InitOk{},
	}

	for _, p := range payloads {
		node, _ := newTestNode(t, echoBehavior)

		_, err := node.Process(message.Envelope{Src: "c1", Dest: "n1", Body: message.Body{Payload: p}})
		if !common.IsNodeErr(err, common.HandshakeNotComplete) {
			t.Fatalf("%s before init should fail with HandshakeNotComplete, not %v", p.Type(), err)
		}
		if node.GetState() != state.Uninitialized {
			t.Fatalf("node should still be Uninitialized, not %v", node.GetState())
		}
	}
}

func TestProcessSecondInit(t *testing.T) {
	node, _ := newTestNode(t, echoBehavior)

	_, err := node.Process(initEnvelope(1, "n1", "n1"))
	require.NoError(t, err)
	assert.Equal(t, state.Active, node.GetState())

	_, err = node.Process(initEnvelope(2, "n1", "n1"))
	assert.True(t, common.IsNodeErr(err, common.AlreadyInitialized), "%v", err)

	// A re-init with another identity is rejected just the same.
	_, err = node.Process(initEnvelope(3, "n9", "n9"))
	assert.True(t, common.IsNodeErr(err, common.AlreadyInitialized), "%v", err)
	assert.Equal(t, "n1", node.NodeState().NodeID)
}

func TestMsgIDsAreSequential(t *testing.T) {
	node, _ := newTestNode(t, echoBehavior)

	reply, err := node.Process(initEnvelope(1, "n1", "n1"))
	require.NoError(t, err)
	require.Equal(t, uint64(0), *reply.Body.MsgID)

	const n = 50
	for i := uint64(1); i <= n; i++ {
		req := echoEnvelope(1000+i, fmt.Sprintf("msg %d", i))

		reply, err := node.Process(req)
		require.NoError(t, err)
		require.NotNil(t, reply)

		if *reply.Body.MsgID != i {
			t.Fatalf("reply %d should have msg_id %d, not %d", i, i, *reply.Body.MsgID)
		}
		if *reply.Body.InReplyTo != *req.Body.MsgID {
			t.Fatalf("reply %d should answer %d, not %d", i, *req.Body.MsgID, *reply.Body.InReplyTo)
		}

		// Courtesy acks do not consume msg_ids.
		ack, err := node.Process(message.Envelope{Src: "n2", Dest: "n1", Body: message.Body{Payload: message.EchoOk{Echo: "ack"}}})
		require.NoError(t, err)
		require.Nil(t, ack)
	}

	assert.Equal(t, uint64(n+1), node.NodeState().NextMsgID)
}

func TestNodeStampsReplies(t *testing.T) {
	// A behavior setting its own msg_id is overridden by the node counter.
	b := BehaviorFunc(func(env message.Envelope, st *NodeState) (*message.Envelope, error) {
		reply := env.Reply(message.EchoOk{Echo: "x"})
		reply.Body.MsgID = message.ID(77)
		return &reply, nil
	})

	node, _ := newTestNode(t, b)

	_, err := node.Process(initEnvelope(1, "n1", "n1"))
	require.NoError(t, err)

	reply, err := node.Process(echoEnvelope(2, "x"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), *reply.Body.MsgID)
}

func TestBehaviorError(t *testing.T) {
	node, _ := newTestNode(t, echoBehavior)

	_, err := node.Process(initEnvelope(1, "n1", "n1"))
	require.NoError(t, err)

	_, err = node.Process(message.Envelope{Src: "c1", Dest: "n1", Body: message.Body{Payload: message.InitOk{}}})
	assert.True(t, common.IsNodeErr(err, common.UnsupportedPayload), "%v", err)
	assert.Contains(t, err.Error(), `"init_ok"`)
}

func TestRun(t *testing.T) {
	node, trans := newTestNode(t, echoBehavior)

	trans.Deliver(
		initEnvelope(1, "n1", "n1", "n2", "n3"),
		echoEnvelope(2, "a"),
		message.Envelope{Src: "n2", Dest: "n1", Body: message.Body{Payload: message.EchoOk{Echo: "ack"}}},
		echoEnvelope(3, "b"),
	)
	trans.CloseInput()

	require.NoError(t, node.Run(context.Background()))

	sent := trans.Sent()
	require.Len(t, sent, 3)

	assert.Equal(t, message.InitOk{}, sent[0].Body.Payload)
	assert.Equal(t, message.EchoOk{Echo: "a"}, sent[1].Body.Payload)
	assert.Equal(t, message.EchoOk{Echo: "b"}, sent[2].Body.Payload)

	for i, env := range sent {
		assert.Equal(t, uint64(i), *env.Body.MsgID)
	}
	assert.Equal(t, uint64(1), *sent[0].Body.InReplyTo)
	assert.Equal(t, uint64(2), *sent[1].Body.InReplyTo)
	assert.Equal(t, uint64(3), *sent[2].Body.InReplyTo)

	stats := node.GetStats()
	assert.Equal(t, "4", stats["received"])
	assert.Equal(t, "3", stats["sent"])
	assert.Equal(t, "1", stats["ignored"])
	assert.Equal(t, "3", stats["num_peers"])
	assert.Equal(t, "Active", stats["state"])
}

func TestRunEmptyInput(t *testing.T) {
	node, trans := newTestNode(t, echoBehavior)
	trans.CloseInput()

	require.NoError(t, node.Run(context.Background()))
	assert.Equal(t, state.Uninitialized, node.GetState())
	assert.Empty(t, trans.Sent())
}

func TestRunStopsOnError(t *testing.T) {
	node, trans := newTestNode(t, echoBehavior)

	trans.Deliver(
		echoEnvelope(1, "too early"),
		initEnvelope(2, "n1", "n1"),
	)
	trans.CloseInput()

	err := node.Run(context.Background())
	assert.True(t, common.IsNodeErr(err, common.HandshakeNotComplete), "%v", err)
	assert.Empty(t, trans.Sent())
}

func TestRunCancelled(t *testing.T) {
	node, trans := newTestNode(t, echoBehavior)
	trans.Deliver(initEnvelope(1, "n1", "n1"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := node.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled), "%v", err)
	assert.Empty(t, trans.Sent())
}

func TestShutdown(t *testing.T) {
	node, trans := newTestNode(t, echoBehavior)

	require.NoError(t, node.Shutdown())

	err := node.Run(context.Background())
	assert.Equal(t, transport.ErrTransportClosed, err)
	assert.Empty(t, trans.Sent())
}

type providerBehavior struct {
	BehaviorFunc
}

type ping struct{}

func (ping) Type() string { return "ping" }

func (providerBehavior) Payloads() []message.Payload {
	return []message.Payload{ping{}}
}

func TestNewRegistry(t *testing.T) {
	r, err := NewRegistry(echoBehavior)
	require.NoError(t, err)
	assert.Equal(t, 4, r.Len())

	r, err = NewRegistry(providerBehavior{echoBehavior})
	require.NoError(t, err)
	_, ok := r.Lookup("ping")
	assert.True(t, ok)
}
