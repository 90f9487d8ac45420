package timing

import (
	"fmt"
	"math"

	"github.com/agentstation/measurecast/pkg/constants"
	"github.com/agentstation/measurecast/pkg/errors"
	"github.com/agentstation/measurecast/pkg/oscwire"
)

// Validate accepts msg as an Event or rejects it with *errors.ValidationError.
//
// Checks run in a fixed order so the reported reason is deterministic:
// address, presence of arguments, arity, then argument types. Arguments map
// positionally to measure, beat and fractional position.
func Validate(msg oscwire.Message) (Event, error) {
	if msg.Address != constants.MeasureAddress {
		return Event{}, errors.NewValidationError(msg.Address, errors.ReasonUnrecognizedAddress, "")
	}

	if msg.Arguments == nil {
		return Event{}, errors.NewValidationError(msg.Address, errors.ReasonMissingArguments, "")
	}

	if n := len(msg.Arguments); n != constants.MeasureArity {
		return Event{}, errors.NewValidationError(msg.Address, errors.ReasonWrongArity,
			fmt.Sprintf("got %d arguments, want %d", n, constants.MeasureArity))
	}

	var values [constants.MeasureArity]int64
	for i, arg := range msg.Arguments {
		v, ok := WholeNumber(arg)
		if !ok {
			return Event{}, errors.NewValidationError(msg.Address, errors.ReasonNonInteger,
				fmt.Sprintf("argument %d is %s", i, arg))
		}
		values[i] = v
	}

	return Event{
		Measure:            values[0],
		Beat:               values[1],
		FractionalPosition: values[2],
	}, nil
}

// WholeNumber returns the integer value of arg when it is a whole number.
//
// OSC integers are always accepted. Floats are accepted only when finite,
// without a fractional part and inside the int64 range, matching senders
// that emit every number as a float. Every other kind is rejected.
func WholeNumber(arg oscwire.Argument) (int64, bool) {
	switch {
	case arg.Kind.IsInteger():
		return arg.Int, true
	case arg.Kind.IsFloat():
		f := arg.Float
		if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
			return 0, false
		}
		// float64(math.MaxInt64) rounds up to 2^63, which does not fit.
		if f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, false
		}
		return int64(f), true
	default:
		return 0, false
	}
}
