package message

import "fmt"

// Envelope is the unit of communication between nodes and the harness.
type Envelope struct {
	Src  string
	Dest string
	Body Body
}

// Body carries the sequence numbers of a message and its Payload. MsgID is
// set on requests and on replies emitted by a node; InReplyTo is set on
// replies only.
type Body struct {
	MsgID     *uint64
	InReplyTo *uint64
	Payload   Payload
}

// ID returns a pointer to a copy of v. It is used to fill the optional
// sequence numbers of a Body.
func ID(v uint64) *uint64 {
	return &v
}

// Type returns the discriminant of the payload, or an empty string if the
// body has no payload.
func (b Body) Type() string {
	if b.Payload == nil {
		return ""
	}
	return b.Payload.Type()
}

// Reply creates an Envelope addressed back to the sender of e, carrying p and
// referencing e's msg_id. The reply's own msg_id is left unset.
func (e Envelope) Reply(p Payload) Envelope {
	reply := Envelope{
		Src:  e.Dest,
		Dest: e.Src,
		Body: Body{
			Payload: p,
		},
	}
	if e.Body.MsgID != nil {
		reply.Body.InReplyTo = ID(*e.Body.MsgID)
	}
	return reply
}

// String returns a short description of the envelope for logs.
func (e Envelope) String() string {
	return fmt.Sprintf("%s->%s %s msg_id=%s in_reply_to=%s",
		e.Src,
		e.Dest,
		e.Body.Type(),
		formatID(e.Body.MsgID),
		formatID(e.Body.InReplyTo))
}

func formatID(id *uint64) string {
	if id == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *id)
}
