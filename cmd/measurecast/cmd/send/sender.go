// Package send publishes /measure messages to a running relay, either once
// or as a stream paced by a tempo.
package send

import (
	"context"
	"fmt"
	"math"
	"net"
	"time"

	"github.com/agentstation/measurecast/pkg/constants"
	"github.com/agentstation/measurecast/pkg/oscwire"
	"github.com/agentstation/measurecast/pkg/timing"
)

// Position is a point in the bar: measure, beat and sub-beat step.
type Position struct {
	Measure int64
	Beat    int64
	Frac    int64
}

// Next advances one step. Frac counts 0..subdivisions-1 within a beat and
// Beat counts 1..beatsPerMeasure within a measure.
func (p Position) Next(beatsPerMeasure, subdivisions int) Position {
	p.Frac++
	if p.Frac < int64(subdivisions) {
		return p
	}
	p.Frac = 0
	p.Beat++
	if p.Beat <= int64(beatsPerMeasure) {
		return p
	}
	p.Beat = 1
	p.Measure++
	return p
}

// String formats the position as measure.beat.frac.
func (p Position) String() string {
	return timing.Event{Measure: p.Measure, Beat: p.Beat, FractionalPosition: p.Frac}.String()
}

// Interval returns the time between steps at tempo beats per minute.
func Interval(tempo float64, subdivisions int) time.Duration {
	if tempo <= 0 || subdivisions <= 0 {
		return 0
	}
	return time.Duration(float64(time.Minute) / tempo / float64(subdivisions))
}

// Sender writes measure messages to one relay over UDP.
type Sender struct {
	conn    *net.UDPConn
	address string
	float   bool
}

// Dial resolves target and opens a UDP socket to it. Messages go to
// address, normally /measure. With asFloat set, arguments are encoded as
// float32 instead of integers.
func Dial(target, address string, asFloat bool) (*Sender, error) {
	raddr, err := net.ResolveUDPAddr("udp", target)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", target, err)
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", target, err)
	}
	if address == "" {
		address = constants.MeasureAddress
	}
	return &Sender{conn: conn, address: address, float: asFloat}, nil
}

// Target returns the remote address.
func (s *Sender) Target() string {
	return s.conn.RemoteAddr().String()
}

// Send writes one message for p.
func (s *Sender) Send(p Position) error {
	data, err := oscwire.Encode(oscwire.Message{
		Address:   s.address,
		Arguments: []oscwire.Argument{s.arg(p.Measure), s.arg(p.Beat), s.arg(p.Frac)},
	})
	if err != nil {
		return err
	}
	if _, err := s.conn.Write(data); err != nil {
		return fmt.Errorf("sending %s: %w", p, err)
	}
	return nil
}

func (s *Sender) arg(v int64) oscwire.Argument {
	switch {
	case s.float:
		return oscwire.Float32(float32(v))
	case v >= math.MinInt32 && v <= math.MaxInt32:
		return oscwire.Int32(int32(v))
	default:
		return oscwire.Int64(v)
	}
}

// Close closes the socket.
func (s *Sender) Close() error {
	return s.conn.Close()
}

// StreamConfig paces a stream of positions.
type StreamConfig struct {
	Start           Position
	Tempo           float64
	BeatsPerMeasure int
	Subdivisions    int

	// Count stops the stream after this many messages. Zero streams until
	// the context is cancelled.
	Count int
}

// Stream sends cfg.Start immediately and then one step per tick until ctx
// is done or Count messages have been sent. sent is called after each
// message and may be nil.
func Stream(ctx context.Context, s *Sender, cfg StreamConfig, sent func(Position)) error {
	interval := Interval(cfg.Tempo, cfg.Subdivisions)
	if interval <= 0 {
		return fmt.Errorf("tempo must be positive, got %v", cfg.Tempo)
	}
	if cfg.BeatsPerMeasure <= 0 {
		return fmt.Errorf("beats per measure must be positive, got %d", cfg.BeatsPerMeasure)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	pos := cfg.Start
	for n := 0; ; {
		if err := s.Send(pos); err != nil {
			return err
		}
		if sent != nil {
			sent(pos)
		}
		n++
		if cfg.Count > 0 && n >= cfg.Count {
			return nil
		}
		pos = pos.Next(cfg.BeatsPerMeasure, cfg.Subdivisions)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
