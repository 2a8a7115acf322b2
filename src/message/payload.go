package message

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Payload is one variant of the operations carried in a Body. Implementations
// are plain structs whose exported fields carry mapstructure tags naming their
// wire keys. The keys "type", "msg_id" and "in_reply_to" are reserved.
type Payload interface {
	Type() string
}

// Core payload types.
const (
	InitType   = "init"
	InitOkType = InitType + "_ok"
	EchoType   = "echo"
	EchoOkType = EchoType + "_ok"
)

// Init is the first message a node receives. It assigns the node its identity
// and lists every node in the cluster, including itself.
//
// {"type":"init","msg_id":1,"node_id":"n1","node_ids":["n1","n2","n3"]}
type Init struct {
	NodeID  string   `mapstructure:"node_id"`
	NodeIDs []string `mapstructure:"node_ids"`
}

// Type implements Payload
func (Init) Type() string { return InitType }

// InitOk acknowledges an Init.
type InitOk struct{}

// Type implements Payload
func (InitOk) Type() string { return InitOkType }

// Echo asks the node to send back Echo.
type Echo struct {
	Echo string `mapstructure:"echo"`
}

// Type implements Payload
func (Echo) Type() string { return EchoType }

// EchoOk is the answer to Echo.
type EchoOk struct {
	Echo string `mapstructure:"echo"`
}

// Type implements Payload
func (EchoOk) Type() string { return EchoOkType }

var reservedKeys = map[string]bool{
	"type":        true,
	"msg_id":      true,
	"in_reply_to": true,
}

// Registry maps payload type names to the Go types they decode into.
type Registry struct {
	l     sync.RWMutex
	types map[string]reflect.Type
}

// DefaultRegistry is used by the package-level Marshal and Unmarshal.
var DefaultRegistry = NewRegistry()

// NewRegistry creates a Registry containing the core payload variants.
func NewRegistry() *Registry {
	r := &Registry{
		types: make(map[string]reflect.Type),
	}
	if err := r.Register(Init{}, InitOk{}, Echo{}, EchoOk{}); err != nil {
		panic(err)
	}
	return r
}

// Register adds payload variants to the registry. Each sample must be a struct
// value (not a pointer) and must not use a reserved key. Registering the same
// Go type twice under the same name is a no-op; registering a different type
// under an existing name is an error.
func (r *Registry) Register(samples ...Payload) error {
	r.l.Lock()
	defer r.l.Unlock()

	for _, s := range samples {
		t := reflect.TypeOf(s)
		if t == nil || t.Kind() != reflect.Struct {
			return fmt.Errorf("payload %T is not a struct value", s)
		}
		if err := checkReserved(t); err != nil {
			return err
		}
		name := s.Type()
		if name == "" {
			return fmt.Errorf("payload %T has an empty type", s)
		}
		if existing, ok := r.types[name]; ok {
			if existing != t {
				return fmt.Errorf("payload type %q already registered with %v", name, existing)
			}
			continue
		}
		r.types[name] = t
	}

	return nil
}

// Lookup returns the Go type registered for a payload type name.
func (r *Registry) Lookup(name string) (reflect.Type, bool) {
	r.l.RLock()
	defer r.l.RUnlock()
	t, ok := r.types[name]
	return t, ok
}

// Len returns the number of registered variants.
func (r *Registry) Len() int {
	r.l.RLock()
	defer r.l.RUnlock()
	return len(r.types)
}

// Register adds payload variants to the DefaultRegistry.
func Register(samples ...Payload) error {
	return DefaultRegistry.Register(samples...)
}

func checkReserved(t reflect.Type) error {
	for i := 0; i < t.NumField(); i++ {
		key := fieldKey(t.Field(i))
		if reservedKeys[key] {
			return fmt.Errorf("payload %v uses reserved key %q", t, key)
		}
	}
	return nil
}

// fieldKey returns the body key a payload field is carried under.
func fieldKey(f reflect.StructField) string {
	key := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
	if key == "" {
		key = f.Name
	}
	return key
}
