package transport

import (
	"io"
	"testing"

	"github.com/mosaicnetworks/stdionode/src/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInmemTransport(t *testing.T) {
	trans := NewInmemTransport(4)

	in := message.Envelope{Src: "c1", Dest: "n1", Body: message.Body{MsgID: message.ID(1), Payload: message.Echo{Echo: "a"}}}
	trans.Deliver(in)
	trans.CloseInput()
	trans.CloseInput()

	env, err := trans.Receive()
	require.NoError(t, err)
	assert.Equal(t, in, env)

	_, err = trans.Receive()
	assert.Equal(t, io.EOF, err)

	out := in.Reply(message.EchoOk{Echo: "a"})
	require.NoError(t, trans.Send(out))

	assert.Equal(t, []message.Envelope{out}, trans.Sent())
	assert.Equal(t, out, <-trans.Consumer())

	require.NoError(t, trans.Close())
	assert.Equal(t, ErrTransportClosed, trans.Send(out))
}
