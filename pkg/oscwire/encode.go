package oscwire

import (
	"fmt"

	"github.com/hypebeast/go-osc/osc"
)

// Encode serializes a message to its OSC wire form.
// A message with nil Arguments is written without a type tag string.
func Encode(m Message) ([]byte, error) {
	if m.Address == "" || m.Address[0] != '/' {
		return nil, fmt.Errorf("invalid OSC address %q", m.Address)
	}

	if m.Arguments == nil {
		addr := make([]byte, padded(len(m.Address)+1))
		copy(addr, m.Address)
		return addr, nil
	}

	msg := osc.NewMessage(m.Address)
	for i, arg := range m.Arguments {
		v, err := native(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		msg.Append(v)
	}
	return msg.MarshalBinary()
}

// native converts an Argument back to the value go-osc marshals for its kind.
func native(a Argument) (any, error) {
	switch a.Kind {
	case KindInt32:
		return int32(a.Int), nil
	case KindInt64:
		return a.Int, nil
	case KindFloat32:
		return float32(a.Float), nil
	case KindFloat64:
		return a.Float, nil
	case KindString:
		return a.Str, nil
	case KindBlob:
		return a.Blob, nil
	case KindBool:
		return a.Bool, nil
	case KindNil:
		return nil, nil
	default:
		return nil, fmt.Errorf("cannot encode %s argument", a.Kind)
	}
}
