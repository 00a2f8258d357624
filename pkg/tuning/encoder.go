package tuning

import (
	"github.com/dougsko/micro26/pkg/irq"
)

// ActivityPerStep is added to the activity counter for every decoded step.
const ActivityPerStep = 2

// TickRate is the number of timer ticks per second.
const TickRate = 10

// Sample is one consumed reading of the tuning knob.
type Sample struct {
	Delta    int    // signed steps since the last consume, clockwise positive
	Activity uint32 // grows while the knob keeps turning, zeroed after an idle tick
}

// Rate returns the accelerated tuning offset for this sample: the square of
// the activity counter, signed by the direction of rotation.
func (s Sample) Rate() int64 {
	r := int64(s.Activity) * int64(s.Activity)
	switch {
	case s.Delta > 0:
		return r
	case s.Delta < 0:
		return -r
	default:
		return 0
	}
}

// Encoder decodes a 2-bit quadrature rotary encoder and keeps the coarse
// elapsed-time counter driven by the periodic timer.
//
// OnEdge and OnTick are the interrupt handlers. Everything else is called
// from the control loop and reads the counters with interrupts masked.
type Encoder struct {
	section *irq.Section

	delta     int
	activity  uint32
	lastState uint8
	edgeSeen  bool
	elapsed   uint32
}

// NewEncoder creates an encoder whose shared counters are guarded by section.
// A nil section gets a private one.
func NewEncoder(section *irq.Section) *Encoder {
	if section == nil {
		section = &irq.Section{}
	}
	return &Encoder{section: section}
}

// grayToBinary converts the two encoder pins (A in bit 1, B in bit 0) from
// Gray code to a binary position 0..3.
func grayToBinary(gray uint8) uint8 {
	gray &= 0x03
	return (gray >> 1) ^ gray
}

// OnEdge is the pin-change handler. pins holds the sampled encoder lines.
func (e *Encoder) OnEdge(pins uint8) {
	e.section.Do(func() {
		state := grayToBinary(pins)
		if state == e.lastState {
			return
		}
		switch (state - e.lastState) & 0x03 {
		case 1:
			e.delta++
		case 3:
			e.delta--
		default:
			// two-position jump, direction unknown
			e.lastState = state
			return
		}
		e.lastState = state
		e.activity += ActivityPerStep
		e.edgeSeen = true
	})
}

// OnTick is the periodic timer handler, called TickRate times per second.
func (e *Encoder) OnTick() {
	e.section.Do(func() {
		e.elapsed++
		if !e.edgeSeen {
			e.activity = 0
		}
		e.edgeSeen = false
	})
}

// ReadAndReset returns the pending sample and zeroes the step counter.
func (e *Encoder) ReadAndReset() Sample {
	var s Sample
	e.section.Do(func() {
		s = Sample{Delta: e.delta, Activity: e.activity}
		e.delta = 0
	})
	return s
}

// Take consumes the pending sample only when more than deadZone steps have
// accumulated. Smaller movements stay pending.
func (e *Encoder) Take(deadZone int) (Sample, bool) {
	var (
		s  Sample
		ok bool
	)
	e.section.Do(func() {
		if e.delta > deadZone || e.delta < -deadZone {
			s = Sample{Delta: e.delta, Activity: e.activity}
			e.delta = 0
			ok = true
		}
	})
	return s, ok
}

// Discard drops any pending steps, used when a new owner takes tuning focus.
func (e *Encoder) Discard() {
	e.section.Do(func() {
		e.delta = 0
	})
}

// Elapsed returns the number of ticks since start.
func (e *Encoder) Elapsed() uint32 {
	var t uint32
	e.section.Do(func() {
		t = e.elapsed
	})
	return t
}
