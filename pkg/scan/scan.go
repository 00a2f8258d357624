// Package scan sweeps the memory bank or the range between the two VFOs,
// stopping on a key press and optionally holding while a signal is present.
//
// Both scans are cooperative: every iteration polls the keypad and checks
// the context, so a scan never blocks longer than one sample.
package scan

import (
	"context"
	"fmt"

	"github.com/dougsko/micro26/pkg/band"
	"github.com/dougsko/micro26/pkg/eeprom"
	"github.com/dougsko/micro26/pkg/hardware"
	"github.com/dougsko/micro26/pkg/logging"
)

// DwellTicks is how long a memory scan listens on each valid slot.
const DwellTicks = 50

// Tuner programs the receive frequency.
type Tuner interface {
	SetVFO(f band.Frequency) error
}

// MemorySource reads one memory slot.
type MemorySource interface {
	LoadMemory(i int) (eeprom.MemoryChannel, error)
}

// SignalSource samples the current signal strength.
type SignalSource interface {
	SignalStrength() int
}

// KeySource polls the keypad.
type KeySource interface {
	Key() hardware.Key
}

// Clock returns the coarse elapsed tick counter.
type Clock interface {
	Elapsed() uint32
}

// Observer is told what the scan is doing, normally to update the panel.
type Observer interface {
	ScanStarted(title string)
	MemoryVisited(index int)
	Tuned(f band.Frequency)
	Countdown(seconds int)
	Signal(value int)
}

// Result is the outcome of a scan. Selected is false when the scan was
// left without choosing anything.
type Result struct {
	Selected  bool
	Index     int
	Frequency band.Frequency
}

// Engine runs scans against its collaborators.
type Engine struct {
	tuner    Tuner
	memories MemorySource
	signal   SignalSource
	keys     KeySource
	clock    Clock
	observer Observer

	// Pause is called once per poll. The daemon uses it to sleep briefly
	// instead of spinning; tests leave it nil.
	Pause func()
}

// NewEngine creates a scan engine
func NewEngine(tuner Tuner, memories MemorySource, signal SignalSource, keys KeySource, clock Clock) *Engine {
	return &Engine{
		tuner:    tuner,
		memories: memories,
		signal:   signal,
		keys:     keys,
		clock:    clock,
		observer: nopObserver{},
	}
}

// SetObserver installs o, or removes the observer when o is nil.
func (e *Engine) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	e.observer = o
}

func (e *Engine) pause() {
	if e.Pause != nil {
		e.Pause()
	}
}

// sample reads and reports the signal strength
func (e *Engine) sample() int {
	s := e.signal.SignalStrength()
	e.observer.Signal(s)
	return s
}

// hold keeps sampling while the signal stays above threshold and no key is
// pressed. It returns the key that ended the hold, if any.
func (e *Engine) hold(ctx context.Context, s, threshold int) (hardware.Key, error) {
	key := hardware.KeyNone
	for threshold > 0 && s > threshold && key == hardware.KeyNone {
		if err := ctx.Err(); err != nil {
			return hardware.KeyNone, err
		}
		e.pause()
		s = e.sample()
		key = e.keys.Key()
	}
	return key, nil
}

// Memory scans slots 0..15 cyclically, listening DwellTicks on each slot
// holding an in-band frequency. While threshold is above zero the dwell
// stops counting down as long as the signal exceeds it. Select returns the
// current slot; any other key, or Select on an empty slot, ends the scan
// without a selection.
func (e *Engine) Memory(ctx context.Context, threshold int) (Result, error) {
	e.observer.ScanStarted("SCAN MEMORIES")
	log := logging.With("scan", logging.Fields{"kind": "memory", "threshold": threshold})
	log.Infof("started")

	for m := 0; ; m = (m + 1) % eeprom.MemorySlots {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		e.observer.MemoryVisited(m)

		ch, err := e.memories.LoadMemory(m)
		if err != nil {
			return Result{}, fmt.Errorf("memory scan slot %d: %w", m, err)
		}

		key := hardware.KeyNone
		if ch.Empty {
			key = e.keys.Key()
			e.pause()
		} else {
			key, err = e.dwell(ctx, ch.Frequency, threshold)
			if err != nil {
				return Result{}, err
			}
		}

		switch key {
		case hardware.KeyNone:
		case hardware.KeySelect:
			if ch.Empty {
				log.Infof("stopped on empty slot %d", m)
				return Result{Index: m}, nil
			}
			log.Infof("stopped on slot %d", m)
			return Result{Selected: true, Index: m, Frequency: ch.Frequency}, nil
		default:
			log.Infof("cancelled")
			return Result{}, nil
		}
	}
}

// dwell tunes f and listens for DwellTicks, not counting ticks spent in a
// threshold hold
func (e *Engine) dwell(ctx context.Context, f band.Frequency, threshold int) (hardware.Key, error) {
	e.observer.Tuned(f)
	if err := e.tuner.SetVFO(f); err != nil {
		return hardware.KeyNone, fmt.Errorf("tune %s: %w", f, err)
	}

	start := e.clock.Elapsed()
	key := hardware.KeyNone
	for key == hardware.KeyNone {
		if err := ctx.Err(); err != nil {
			return hardware.KeyNone, err
		}
		now := e.clock.Elapsed()
		if now-start >= DwellTicks {
			break
		}
		e.observer.Countdown(int(DwellTicks-(now-start)+9) / 10)

		key = e.keys.Key()
		s := e.sample()
		if key == hardware.KeyNone && threshold > 0 && s > threshold {
			held := e.clock.Elapsed()
			if key, err := e.hold(ctx, s, threshold); err != nil || key != hardware.KeyNone {
				return key, err
			}
			start += e.clock.Elapsed() - held
		}
		e.pause()
	}
	return key, nil
}

// VFORange sweeps upward from the lower of a and b to the higher one in
// band.ScanStep increments, wrapping at the top, with the same threshold
// hold as Memory. Select returns the frequency being listened to; any other
// key ends the scan without a selection. When a equals b the scan parks on
// that frequency until a key is pressed.
func (e *Engine) VFORange(ctx context.Context, a, b band.Frequency, threshold int) (Result, error) {
	start, end := a, b
	if start > end {
		start, end = end, start
	}
	e.observer.ScanStarted("SCAN VFOA > VFOB")
	log := logging.With("scan", logging.Fields{"kind": "vfo", "threshold": threshold})
	log.Infof("started, %s..%s", start, end)

	f := start
	for {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		e.observer.Tuned(f)
		if err := e.tuner.SetVFO(f); err != nil {
			return Result{}, fmt.Errorf("tune %s: %w", f, err)
		}

		s := e.sample()
		key, err := e.hold(ctx, s, threshold)
		if err != nil {
			return Result{}, err
		}
		if key == hardware.KeyNone {
			key = e.keys.Key()
		}

		switch key {
		case hardware.KeyNone:
		case hardware.KeySelect:
			log.Infof("stopped on %s", f)
			return Result{Selected: true, Frequency: f}, nil
		default:
			log.Infof("cancelled")
			return Result{}, nil
		}

		if f += band.ScanStep; f >= end {
			f = start
		}
		e.pause()
	}
}

type nopObserver struct{}

func (nopObserver) ScanStarted(string)   {}
func (nopObserver) MemoryVisited(int)    {}
func (nopObserver) Tuned(band.Frequency) {}
func (nopObserver) Countdown(int)        {}
func (nopObserver) Signal(int)           {}
