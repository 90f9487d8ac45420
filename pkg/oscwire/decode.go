package oscwire

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/hypebeast/go-osc/osc"

	"github.com/agentstation/measurecast/pkg/errors"
)

const bundleTag = "#bundle"

// bundleHeader is the padded tag plus the 8-byte timetag.
const bundleHeader = 16

// Decode parses one datagram payload into the messages it carries.
// A plain message yields one Message; a bundle is flattened depth-first in
// wire order. Any framing problem is reported as *errors.DecodeError and
// never panics.
func Decode(payload []byte) (msgs []Message, err error) {
	size := len(payload)
	if size == 0 {
		return nil, errors.NewDecodeError(0, "empty payload", nil)
	}

	// The parser indexes into attacker-controlled lengths; keep the listener alive.
	defer func() {
		if r := recover(); r != nil {
			msgs = nil
			err = errors.NewDecodeError(size, "malformed packet", fmt.Errorf("parser panic: %v", r))
		}
	}()

	if perr := decodePacket(payload, &msgs); perr != nil {
		return nil, errors.NewDecodeError(size, perr.reason, perr.cause)
	}
	return msgs, nil
}

// packetError carries the DecodeError reason out of the recursive walk.
type packetError struct {
	reason string
	cause  error
}

func malformed(format string, args ...any) *packetError {
	return &packetError{reason: "malformed packet", cause: fmt.Errorf(format, args...)}
}

// decodePacket appends the messages in one packet, which is either a
// message or a bundle element.
func decodePacket(data []byte, out *[]Message) *packetError {
	if IsBundle(data) {
		return walkBundle(data, out)
	}

	if msg, ok := decodeUntyped(data); ok {
		*out = append(*out, msg)
		return nil
	}

	packet, err := osc.ParsePacket(string(data))
	if err != nil {
		return &packetError{reason: "malformed packet", cause: err}
	}
	m, ok := packet.(*osc.Message)
	if !ok {
		return malformed("unknown packet type %T", packet)
	}
	msg, err := fromOSC(m)
	if err != nil {
		return &packetError{reason: "unsupported argument", cause: err}
	}
	*out = append(*out, msg)
	return nil
}

// walkBundle reads the bundle framing directly: the tag, the timetag, then
// elements each prefixed by a big-endian int32 size. The element sizes must
// account for every remaining byte.
func walkBundle(data []byte, out *[]Message) *packetError {
	if len(data) < bundleHeader || string(data[:8]) != bundleTag+"\x00" {
		return malformed("bundle header truncated or mistagged")
	}

	rest := data[bundleHeader:]
	for len(rest) > 0 {
		if len(rest) < 4 {
			return malformed("%d trailing bytes after last bundle element", len(rest))
		}
		n := int32(binary.BigEndian.Uint32(rest))
		rest = rest[4:]
		switch {
		case n <= 0:
			return malformed("bundle element size %d", n)
		case n%4 != 0:
			return malformed("bundle element size %d is not 4-byte aligned", n)
		case int(n) > len(rest):
			return malformed("bundle element size %d exceeds %d remaining bytes", n, len(rest))
		}
		if err := decodePacket(rest[:n], out); err != nil {
			return err
		}
		rest = rest[n:]
	}
	return nil
}

// decodeUntyped recognizes a message made of a padded address string only.
// Early OSC senders omit the type tag string entirely.
func decodeUntyped(payload []byte) (Message, bool) {
	if payload[0] != '/' {
		return Message{}, false
	}
	end := bytes.IndexByte(payload, 0)
	if end < 0 {
		return Message{}, false
	}
	if padded(end+1) != len(payload) {
		return Message{}, false
	}
	for _, b := range payload[end:] {
		if b != 0 {
			return Message{}, false
		}
	}
	return Message{Address: string(payload[:end])}, true
}

// padded rounds n up to the OSC 4-byte alignment.
func padded(n int) int {
	return (n + 3) &^ 3
}

func fromOSC(m *osc.Message) (Message, error) {
	args := make([]Argument, 0, len(m.Arguments))
	for i, raw := range m.Arguments {
		arg, err := convert(raw)
		if err != nil {
			return Message{}, fmt.Errorf("argument %d of %s: %w", i, m.Address, err)
		}
		args = append(args, arg)
	}
	return Message{Address: m.Address, Arguments: args}, nil
}

func convert(raw any) (Argument, error) {
	switch v := raw.(type) {
	case int32:
		return Int32(v), nil
	case int64:
		return Int64(v), nil
	case float32:
		return Float32(v), nil
	case float64:
		return Float64(v), nil
	case string:
		return String(v), nil
	case []byte:
		return Blob(v), nil
	case bool:
		return Bool(v), nil
	case nil:
		return Nil(), nil
	case osc.Timetag:
		return Argument{Kind: KindTimetag, Time: v.Time()}, nil
	case *osc.Timetag:
		return Argument{Kind: KindTimetag, Time: v.Time()}, nil
	default:
		return Argument{}, fmt.Errorf("unsupported argument type %T", raw)
	}
}

// IsBundle reports whether payload starts with the OSC bundle tag.
func IsBundle(payload []byte) bool {
	return bytes.HasPrefix(payload, []byte(bundleTag))
}
