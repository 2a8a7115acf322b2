// Package node implements the reactive component of a node driven by a test
// harness over its standard streams.
//
// A Node reads envelopes from a Transport one at a time, in order, and writes
// at most one reply for each before reading the next. It is a state machine
// with two states, defined in the state package.
//
// # Handshake
//
// A node starts Uninitialized. The first envelope must carry an init payload,
// which gives the node its identity and the list of every node in the cluster.
// The node answers init_ok and becomes Active. Any other payload received
// before init is a fatal HandshakeNotComplete error, and an init received once
// Active is a fatal AlreadyInitialized error.
//
// # Behaviors
//
// Once Active, every envelope is handed to the Behavior injected in NewNode,
// together with a pointer to the NodeState. A Behavior returns zero or one
// reply. The node stamps every reply with the next msg_id from NodeState, so
// the msg_ids emitted by a node are 0, 1, 2... in emission order whatever the
// Behavior does. Behaviors decide which unexpected payloads they tolerate and
// report the others with UnsupportedPayload.
//
// Every error is fatal: Run returns it and the process is expected to exit.
package node
