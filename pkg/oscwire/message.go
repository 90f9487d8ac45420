// Package oscwire decodes and encodes Open Sound Control datagrams.
//
// Decoded arguments are represented as a tagged union (Argument) so callers
// pattern-match on the wire type instead of relying on implicit coercion.
// Framing is delegated to github.com/hypebeast/go-osc; this package adds
// bundle flattening, legacy untyped-message detection and panic isolation.
package oscwire

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies the wire type of a decoded argument.
type Kind uint8

// Argument kinds, one per supported OSC type tag.
const (
	KindInvalid Kind = iota
	KindInt32        // 'i'
	KindInt64        // 'h'
	KindFloat32      // 'f'
	KindFloat64      // 'd'
	KindString       // 's'
	KindBlob         // 'b'
	KindBool         // 'T' / 'F'
	KindNil          // 'N'
	KindTimetag      // 't'
)

var kindNames = map[Kind]string{
	KindInvalid: "invalid",
	KindInt32:   "int32",
	KindInt64:   "int64",
	KindFloat32: "float32",
	KindFloat64: "float64",
	KindString:  "string",
	KindBlob:    "blob",
	KindBool:    "bool",
	KindNil:     "nil",
	KindTimetag: "timetag",
}

// String returns the kind name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// IsInteger reports whether the kind is an OSC integer type.
func (k Kind) IsInteger() bool {
	return k == KindInt32 || k == KindInt64
}

// IsFloat reports whether the kind is an OSC floating point type.
func (k Kind) IsFloat() bool {
	return k == KindFloat32 || k == KindFloat64
}

// Argument is one decoded OSC argument. Only the field matching Kind is meaningful.
type Argument struct {
	Kind  Kind
	Int   int64
	Float float64
	Str   string
	Blob  []byte
	Bool  bool
	Time  time.Time
}

// Int32 returns an int32 argument.
func Int32(v int32) Argument { return Argument{Kind: KindInt32, Int: int64(v)} }

// Int64 returns an int64 argument.
func Int64(v int64) Argument { return Argument{Kind: KindInt64, Int: v} }

// Float32 returns a float32 argument.
func Float32(v float32) Argument { return Argument{Kind: KindFloat32, Float: float64(v)} }

// Float64 returns a float64 argument.
func Float64(v float64) Argument { return Argument{Kind: KindFloat64, Float: v} }

// String returns a string argument.
func String(v string) Argument { return Argument{Kind: KindString, Str: v} }

// Blob returns a blob argument.
func Blob(v []byte) Argument { return Argument{Kind: KindBlob, Blob: v} }

// Bool returns a boolean argument.
func Bool(v bool) Argument { return Argument{Kind: KindBool, Bool: v} }

// Nil returns a nil argument.
func Nil() Argument { return Argument{Kind: KindNil} }

// Value returns the argument as a plain Go value, for logging.
func (a Argument) Value() any {
	switch a.Kind {
	case KindInt32, KindInt64:
		return a.Int
	case KindFloat32, KindFloat64:
		return a.Float
	case KindString:
		return a.Str
	case KindBlob:
		return a.Blob
	case KindBool:
		return a.Bool
	case KindTimetag:
		return a.Time
	default:
		return nil
	}
}

// String formats the argument as kind:value.
func (a Argument) String() string {
	switch a.Kind {
	case KindString:
		return fmt.Sprintf("%s:%q", a.Kind, a.Str)
	case KindNil:
		return "nil"
	default:
		return fmt.Sprintf("%s:%v", a.Kind, a.Value())
	}
}

// Message is a decoded OSC message.
// Arguments is nil when the datagram carried no type tag string at all.
type Message struct {
	Address   string
	Arguments []Argument
}

// String formats the message as "address [args...]".
func (m Message) String() string {
	if m.Arguments == nil {
		return m.Address + " <untyped>"
	}
	parts := make([]string, len(m.Arguments))
	for i, arg := range m.Arguments {
		parts[i] = arg.String()
	}
	return m.Address + " [" + strings.Join(parts, " ") + "]"
}
