package timing_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/measurecast/pkg/errors"
	"github.com/agentstation/measurecast/pkg/oscwire"
	"github.com/agentstation/measurecast/pkg/timing"
)

func measure(args ...oscwire.Argument) oscwire.Message {
	if args == nil {
		args = []oscwire.Argument{}
	}
	return oscwire.Message{Address: "/measure", Arguments: args}
}

func TestValidateAccepts(t *testing.T) {
	tests := []struct {
		name string
		msg  oscwire.Message
		want timing.Event
	}{
		{
			name: "int32 arguments",
			msg:  measure(oscwire.Int32(2), oscwire.Int32(1), oscwire.Int32(0)),
			want: timing.Event{Measure: 2, Beat: 1, FractionalPosition: 0},
		},
		{
			name: "int64 arguments",
			msg:  measure(oscwire.Int64(1<<40), oscwire.Int64(4), oscwire.Int64(-3)),
			want: timing.Event{Measure: 1 << 40, Beat: 4, FractionalPosition: -3},
		},
		{
			name: "integral floats",
			msg:  measure(oscwire.Float32(12), oscwire.Float64(3), oscwire.Float64(-0)),
			want: timing.Event{Measure: 12, Beat: 3, FractionalPosition: 0},
		},
		{
			name: "mixed widths",
			msg:  measure(oscwire.Int32(7), oscwire.Float64(2), oscwire.Int64(480)),
			want: timing.Event{Measure: 7, Beat: 2, FractionalPosition: 480},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := timing.Validate(tt.msg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		msg    oscwire.Message
		reason string
	}{
		{
			name:   "other address",
			msg:    oscwire.Message{Address: "/tempo", Arguments: []oscwire.Argument{oscwire.Int32(120)}},
			reason: errors.ReasonUnrecognizedAddress,
		},
		{
			name:   "address is case sensitive",
			msg:    oscwire.Message{Address: "/Measure", Arguments: []oscwire.Argument{oscwire.Int32(1), oscwire.Int32(1), oscwire.Int32(1)}},
			reason: errors.ReasonUnrecognizedAddress,
		},
		{
			name:   "address checked before arguments",
			msg:    oscwire.Message{Address: "/tempo"},
			reason: errors.ReasonUnrecognizedAddress,
		},
		{
			name:   "untyped message",
			msg:    oscwire.Message{Address: "/measure"},
			reason: errors.ReasonMissingArguments,
		},
		{
			name:   "typed with zero arguments",
			msg:    measure(),
			reason: errors.ReasonWrongArity,
		},
		{
			name:   "two arguments",
			msg:    measure(oscwire.Int32(2), oscwire.Int32(1)),
			reason: errors.ReasonWrongArity,
		},
		{
			name:   "four arguments",
			msg:    measure(oscwire.Int32(2), oscwire.Int32(1), oscwire.Int32(0), oscwire.Int32(0)),
			reason: errors.ReasonWrongArity,
		},
		{
			name:   "arity checked before types",
			msg:    measure(oscwire.String("a"), oscwire.String("b")),
			reason: errors.ReasonWrongArity,
		},
		{
			name:   "string argument",
			msg:    measure(oscwire.Int32(2), oscwire.String("x"), oscwire.Int32(0)),
			reason: errors.ReasonNonInteger,
		},
		{
			name:   "fractional float",
			msg:    measure(oscwire.Int32(2), oscwire.Int32(1), oscwire.Float32(0.5)),
			reason: errors.ReasonNonInteger,
		},
		{
			name:   "NaN",
			msg:    measure(oscwire.Float64(math.NaN()), oscwire.Int32(1), oscwire.Int32(0)),
			reason: errors.ReasonNonInteger,
		},
		{
			name:   "infinity",
			msg:    measure(oscwire.Int32(1), oscwire.Float64(math.Inf(1)), oscwire.Int32(0)),
			reason: errors.ReasonNonInteger,
		},
		{
			name:   "float beyond int64",
			msg:    measure(oscwire.Float64(1e19), oscwire.Int32(1), oscwire.Int32(0)),
			reason: errors.ReasonNonInteger,
		},
		{
			name:   "bool argument",
			msg:    measure(oscwire.Bool(true), oscwire.Int32(1), oscwire.Int32(0)),
			reason: errors.ReasonNonInteger,
		},
		{
			name:   "nil argument",
			msg:    measure(oscwire.Int32(1), oscwire.Int32(1), oscwire.Nil()),
			reason: errors.ReasonNonInteger,
		},
		{
			name:   "blob argument",
			msg:    measure(oscwire.Blob([]byte{1}), oscwire.Int32(1), oscwire.Int32(0)),
			reason: errors.ReasonNonInteger,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := timing.Validate(tt.msg)
			require.Error(t, err)
			assert.True(t, errors.IsRejected(err))
			assert.Equal(t, tt.reason, errors.RejectionReason(err))
			assert.Equal(t, timing.Event{}, got)
		})
	}
}

func TestValidateDecodedDatagram(t *testing.T) {
	payload, err := oscwire.Encode(measure(oscwire.Int32(12), oscwire.Int32(3), oscwire.Int32(2)))
	require.NoError(t, err)

	msgs, err := oscwire.Decode(payload)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	event, err := timing.Validate(msgs[0])
	require.NoError(t, err)
	assert.Equal(t, timing.Event{Measure: 12, Beat: 3, FractionalPosition: 2}, event)
}

func TestWholeNumberBounds(t *testing.T) {
	v, ok := timing.WholeNumber(oscwire.Float64(-9223372036854775808))
	assert.True(t, ok)
	assert.Equal(t, int64(math.MinInt64), v)

	_, ok = timing.WholeNumber(oscwire.Float64(9223372036854775808))
	assert.False(t, ok)

	v, ok = timing.WholeNumber(oscwire.Int64(math.MaxInt64))
	assert.True(t, ok)
	assert.Equal(t, int64(math.MaxInt64), v)
}

func TestEventPayload(t *testing.T) {
	event := timing.Event{Measure: 2, Beat: 1, FractionalPosition: 0}

	data, err := json.Marshal(event.Payload())
	require.NoError(t, err)
	assert.JSONEq(t, `{"measure":2,"beat":1,"frac":0}`, string(data))
	assert.Equal(t, "metronomeMessage", event.Name())
	assert.Equal(t, "2.1.0", event.String())
}
