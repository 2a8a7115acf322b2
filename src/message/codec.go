package message

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"unicode/utf8"

	"github.com/mitchellh/mapstructure"
	"github.com/mosaicnetworks/stdionode/src/common"
	"github.com/ugorji/go/codec"
)

// wireEnvelope is the shape of an envelope on the wire. The body is kept as a
// flat map so the payload fields can sit next to type, msg_id and in_reply_to.
type wireEnvelope struct {
	Src  string                 `codec:"src" mapstructure:"src"`
	Dest string                 `codec:"dest" mapstructure:"dest"`
	Body map[string]interface{} `codec:"body" mapstructure:"body"`
}

type wireHeader struct {
	Type      string  `mapstructure:"type"`
	MsgID     *uint64 `mapstructure:"msg_id"`
	InReplyTo *uint64 `mapstructure:"in_reply_to"`
}

// Codec converts Envelopes to and from single lines of JSON. Payload
// variants are resolved against its Registry.
type Codec struct {
	registry *Registry
	handle   *codec.JsonHandle
}

// NewCodec creates a Codec resolving payloads against registry. A nil
// registry means DefaultRegistry.
func NewCodec(registry *Registry) *Codec {
	if registry == nil {
		registry = DefaultRegistry
	}

	jh := new(codec.JsonHandle)
	jh.Canonical = true
	jh.MapType = reflect.TypeOf(map[string]interface{}(nil))

	return &Codec{
		registry: registry,
		handle:   jh,
	}
}

// Marshal encodes env as a single line of JSON, without the line terminator.
// It only fails if the envelope has no payload or if the payload is not a
// struct.
func (c *Codec) Marshal(env Envelope) ([]byte, error) {
	if env.Body.Payload == nil {
		return nil, fmt.Errorf("envelope %s has no payload", env)
	}

	body := make(map[string]interface{})
	if err := mapstructure.Decode(env.Body.Payload, &body); err != nil {
		return nil, fmt.Errorf("encoding %s payload: %v", env.Body.Type(), err)
	}

	body["type"] = env.Body.Payload.Type()
	if env.Body.MsgID != nil {
		body["msg_id"] = *env.Body.MsgID
	}
	if env.Body.InReplyTo != nil {
		body["in_reply_to"] = *env.Body.InReplyTo
	}

	wire := wireEnvelope{
		Src:  env.Src,
		Dest: env.Dest,
		Body: body,
	}

	var b []byte
	enc := codec.NewEncoderBytes(&b, c.handle)
	if err := enc.Encode(wire); err != nil {
		return nil, err
	}

	return b, nil
}

// Unmarshal decodes a single line of JSON into an Envelope. Every failure is
// a MalformedEnvelope error carrying the raw line: invalid JSON, missing src,
// dest, body or type, a payload type that is not registered, or a payload
// field that is missing or of the wrong type. The line must hold exactly one
// JSON value in valid UTF-8. Unknown keys are ignored and null values are
// treated as absent, except that a null list or map field decodes as nil.
func (c *Codec) Unmarshal(line []byte) (Envelope, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return Envelope{}, malformed(line, fmt.Errorf("empty line"))
	}
	if !utf8.Valid(line) {
		return Envelope{}, malformed(line, fmt.Errorf("invalid UTF-8"))
	}
	// the ugorji decoder stops after the first value and ignores the rest
	if !json.Valid(line) {
		return Envelope{}, malformed(line, fmt.Errorf("not a single JSON value"))
	}

	var raw map[string]interface{}
	dec := codec.NewDecoderBytes(line, c.handle)
	if err := dec.Decode(&raw); err != nil {
		return Envelope{}, malformed(line, err)
	}
	if raw == nil {
		return Envelope{}, malformed(line, fmt.Errorf("not an object"))
	}
	dropNulls(raw)

	var wire wireEnvelope
	unset, err := decode(raw, &wire)
	if err != nil {
		return Envelope{}, malformed(line, err)
	}
	if missing := intersect(unset, "src", "dest", "body"); len(missing) > 0 {
		return Envelope{}, malformed(line, fmt.Errorf("missing fields %v", missing))
	}
	nulls := dropNulls(wire.Body)

	var header wireHeader
	unset, err = decode(wire.Body, &header)
	if err != nil {
		return Envelope{}, malformed(line, err)
	}
	if missing := intersect(unset, "type"); len(missing) > 0 {
		return Envelope{}, malformed(line, fmt.Errorf("missing body type"))
	}

	payloadType, ok := c.registry.Lookup(header.Type)
	if !ok {
		return Envelope{}, malformed(line, fmt.Errorf("unknown payload type %q", header.Type))
	}

	fields := make(map[string]interface{}, len(wire.Body))
	for k, v := range wire.Body {
		if !reservedKeys[k] {
			fields[k] = v
		}
	}

	payload := reflect.New(payloadType)
	unset, err = decode(fields, payload.Interface())
	if err != nil {
		return Envelope{}, malformed(line, fmt.Errorf("%s payload: %v", header.Type, err))
	}
	if missing := missingFields(payloadType, unset, nulls); len(missing) > 0 {
		return Envelope{}, malformed(line, fmt.Errorf("%s payload: missing fields %v", header.Type, missing))
	}

	return Envelope{
		Src:  wire.Src,
		Dest: wire.Dest,
		Body: Body{
			MsgID:     header.MsgID,
			InReplyTo: header.InReplyTo,
			Payload:   payload.Elem().Interface().(Payload),
		},
	}, nil
}

var defaultCodec = NewCodec(DefaultRegistry)

// Marshal encodes env with the DefaultRegistry codec.
func Marshal(env Envelope) ([]byte, error) {
	return defaultCodec.Marshal(env)
}

// Unmarshal decodes line with the DefaultRegistry codec.
func Unmarshal(line []byte) (Envelope, error) {
	return defaultCodec.Unmarshal(line)
}

func malformed(line []byte, err error) error {
	return common.WrapNodeErr(common.MalformedEnvelope, err, fmt.Sprintf("%q", line))
}

// decode copies input into result and returns the names of result fields
// which had no corresponding input key.
func decode(input interface{}, result interface{}) ([]string, error) {
	md := &mapstructure.Metadata{}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.DecodeHookFuncType(rejectFractions),
		Metadata:   md,
		Result:     result,
	})
	if err != nil {
		return nil, err
	}

	if err := dec.Decode(input); err != nil {
		return nil, err
	}

	return md.Unset, nil
}

// rejectFractions prevents mapstructure from truncating a JSON number with a
// fractional part into an integer field, or wrapping a number that does not
// fit it. The decoder falls back to float64 for integers beyond 64 bits.
func rejectFractions(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.Float32 && from.Kind() != reflect.Float64 {
		return data, nil
	}

	f := reflect.ValueOf(data).Float()

	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if f != math.Trunc(f) {
			return nil, fmt.Errorf("%v is not an integer", f)
		}
		limit := math.Ldexp(1, to.Bits()-1)
		if f < -limit || f >= limit {
			return nil, fmt.Errorf("%v overflows %s", f, to)
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if f != math.Trunc(f) {
			return nil, fmt.Errorf("%v is not an integer", f)
		}
		if f < 0 || f >= math.Ldexp(1, to.Bits()) {
			return nil, fmt.Errorf("%v overflows %s", f, to)
		}
	}

	return data, nil
}

// dropNulls removes null values from m and returns their keys.
func dropNulls(m map[string]interface{}) map[string]bool {
	nulls := make(map[string]bool)
	for k, v := range m {
		if v == nil {
			delete(m, k)
			nulls[k] = true
		}
	}
	return nulls
}

// missingFields filters unset down to the fields of t that are really
// missing. A list or map field sent as null is present and stays nil, which
// is how Marshal encodes a nil slice or map.
func missingFields(t reflect.Type, unset []string, nulls map[string]bool) []string {
	var res []string
	for _, name := range unset {
		if nulls[name] && nilable(t, name) {
			continue
		}
		res = append(res, name)
	}
	return res
}

func nilable(t reflect.Type, key string) bool {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if fieldKey(f) != key {
			continue
		}
		k := f.Type.Kind()
		return k == reflect.Slice || k == reflect.Map
	}
	return false
}

func intersect(names []string, wanted ...string) []string {
	var res []string
	for _, w := range wanted {
		for _, n := range names {
			if n == w {
				res = append(res, w)
				break
			}
		}
	}
	return res
}
