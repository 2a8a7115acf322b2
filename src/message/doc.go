// Package message implements the envelope model exchanged by nodes and the
// test harness.
//
// An Envelope is addressed from Src to Dest and carries a Body. The Body holds
// the optional msg_id and in_reply_to sequence numbers, and a Payload which is
// one variant of an extensible set of operations. On the wire the payload's
// discriminant and fields are flattened into the body object:
//
//	{"src":"c1","dest":"n1","body":{"type":"echo","msg_id":2,"echo":"hi"}}
//
// The core variants (init, init_ok, echo, echo_ok) are always registered.
// Behaviors add their own variants with Register, or with a private Registry
// passed to NewCodec, without modifying this package.
package message
