// Package transport moves Envelopes between a node and the test harness.
//
// The harness talks to a node through the node's standard streams: each
// envelope is one line of JSON on stdin, each reply one line of JSON on
// stdout. StreamTransport implements this over any io.Reader and io.Writer.
// Every Send is flushed before it returns, so the harness sees a reply before
// the node reads its next input line. InmemTransport is used in tests.
package transport
