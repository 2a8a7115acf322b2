package transport

import (
	"io"
	"os"
	"sync"

	"github.com/mosaicnetworks/stdionode/src/common"
	"github.com/mosaicnetworks/stdionode/src/message"
	"github.com/sirupsen/logrus"
)

// StreamTransport implements the Transport interface over a pair of byte
// streams, one JSON envelope per line.
type StreamTransport struct {
	reader *LineReader
	writer *LineWriter
	closer []io.Closer
	codec  *message.Codec

	shutdown     bool
	shutdownLock sync.Mutex

	logger *logrus.Entry
}

// NewStreamTransport creates a StreamTransport reading from r and writing to
// w. Close closes whichever of r and w implement io.Closer.
func NewStreamTransport(r io.Reader,
	w io.Writer,
	codec *message.Codec,
	logger *logrus.Entry) *StreamTransport {

	if codec == nil {
		codec = message.NewCodec(nil)
	}

	var closer []io.Closer
	if c, ok := r.(io.Closer); ok {
		closer = append(closer, c)
	}
	if c, ok := w.(io.Closer); ok {
		closer = append(closer, c)
	}

	return &StreamTransport{
		reader: NewLineReader(r),
		writer: NewLineWriter(w),
		closer: closer,
		codec:  codec,
		logger: logger,
	}
}

// NewStdioTransport creates a StreamTransport on the process's standard input
// and output. Standard streams are not closed by Close.
func NewStdioTransport(codec *message.Codec, logger *logrus.Entry) *StreamTransport {
	t := NewStreamTransport(os.Stdin, os.Stdout, codec, logger)
	t.closer = nil
	return t
}

// Receive implements the Transport interface. Read errors other than io.EOF
// are reported as IoFailure; undecodable lines as MalformedEnvelope.
func (t *StreamTransport) Receive() (message.Envelope, error) {
	if t.isShutdown() {
		return message.Envelope{}, ErrTransportClosed
	}

	line, err := t.reader.ReadLine()
	if err == io.EOF {
		return message.Envelope{}, io.EOF
	}
	if err != nil {
		return message.Envelope{}, common.WrapNodeErr(common.IoFailure, err, "reading input")
	}

	t.logger.WithField("line", string(line)).Debug("Received")

	return t.codec.Unmarshal(line)
}

// Send implements the Transport interface.
func (t *StreamTransport) Send(env message.Envelope) error {
	if t.isShutdown() {
		return ErrTransportClosed
	}

	line, err := t.codec.Marshal(env)
	if err != nil {
		return err
	}

	if err := t.writer.WriteLine(line); err != nil {
		return common.WrapNodeErr(common.IoFailure, err, "writing output")
	}

	t.logger.WithField("line", string(line)).Debug("Sent")

	return nil
}

// Close implements the Transport interface.
func (t *StreamTransport) Close() error {
	t.shutdownLock.Lock()
	defer t.shutdownLock.Unlock()

	if t.shutdown {
		return nil
	}
	t.shutdown = true

	var firstErr error
	for _, c := range t.closer {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (t *StreamTransport) isShutdown() bool {
	t.shutdownLock.Lock()
	defer t.shutdownLock.Unlock()
	return t.shutdown
}
