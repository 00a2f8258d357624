package menu

import (
	"context"
	"fmt"

	"github.com/dougsko/micro26/pkg/band"
	"github.com/dougsko/micro26/pkg/eeprom"
	"github.com/dougsko/micro26/pkg/hardware"
	"github.com/dougsko/micro26/pkg/panel"
)

// BFOStep is the calibration increment per knob detent.
const BFOStep = 10

// PickerMode selects the heading of the memory picker.
type PickerMode int

const (
	VFOToMemory PickerMode = iota
	MemoryToVFO
)

func (m PickerMode) String() string {
	if m == MemoryToVFO {
		return "MEM -> VFO"
	}
	return "VFO -> MEM"
}

// SelectMemory shows the 16 slots and lets the operator pick one starting
// from current. ok is false when the picker was left with anything but
// select.
func (n *Navigator) SelectMemory(ctx context.Context, current int, mode PickerMode) (slot int, ok bool, err error) {
	if current < 0 || current >= eeprom.MemorySlots {
		current = 0
	}
	if err := n.waitRelease(ctx); err != nil {
		return current, false, err
	}

	n.knob.Discard()
	n.panel.Clear()
	n.panel.ShowTitle(mode.String())
	for i := 0; i < eeprom.MemorySlots; i++ {
		n.panel.ShowMemoryCell(i, i == current)
	}

	highlight := func(c int) {
		n.panel.ShowMemoryCell(c, true)
		if n.PreviewMemory != nil {
			n.PreviewMemory(c)
		}
	}

	c := current
	highlight(c)
	for {
		if err := ctx.Err(); err != nil {
			return current, false, err
		}
		if s, moved := n.knob.Take(DeadZone); moved {
			n.panel.ShowMemoryCell(c, false)
			c = step(c, s.Delta, eeprom.MemorySlots)
			highlight(c)
		}

		key := n.keys.Key()
		if key == hardware.KeyNone {
			n.pause()
			continue
		}
		if err := n.waitRelease(ctx); err != nil {
			return current, false, err
		}
		if key == hardware.KeySelect {
			return c, true, nil
		}
		return current, false, nil
	}
}

// AdjustThreshold edits the scan threshold in 0..100. Clockwise raises it.
// Select returns the new value; any other key keeps current.
func (n *Navigator) AdjustThreshold(ctx context.Context, current int) (value int, ok bool, err error) {
	if err := n.waitRelease(ctx); err != nil {
		return current, false, err
	}

	v := current
	if v < 0 || v > eeprom.MaxScanThreshold {
		v = 0
	}
	draw := func() {
		n.panel.ShowLevel(v)
		n.panel.ShowNumber(2, panel.RowFrequency, v)
	}

	n.knob.Discard()
	n.panel.Clear()
	n.panel.ShowTitle("SCAN THRESH")
	draw()

	for {
		if err := ctx.Err(); err != nil {
			return current, false, err
		}
		if s, moved := n.knob.Take(DeadZone); moved {
			switch {
			case s.Delta > 0 && v < eeprom.MaxScanThreshold:
				v++
				draw()
			case s.Delta < 0 && v > 0:
				v--
				draw()
			}
		}

		key := n.keys.Key()
		if key == hardware.KeyNone {
			n.pause()
			continue
		}
		if err := n.waitRelease(ctx); err != nil {
			return current, false, err
		}
		if key == hardware.KeySelect {
			return v, true, nil
		}
		return current, false, nil
	}
}

// CalibrateBFO tunes the beat oscillator of sb from f in BFOStep
// increments, calling apply with every new value so the change is heard
// immediately. Any key ends calibration and returns the last value.
func (n *Navigator) CalibrateBFO(ctx context.Context, sb band.Sideband, f band.Frequency, apply func(band.Frequency) error) (band.Frequency, error) {
	if err := n.waitRelease(ctx); err != nil {
		return f, err
	}

	n.knob.Discard()
	n.panel.Clear()
	n.panel.ShowFrequency(f)
	n.panel.ShowLabel("fBFO " + sb.String())
	if err := apply(f); err != nil {
		return f, fmt.Errorf("set %s bfo: %w", sb, err)
	}

	for {
		if err := ctx.Err(); err != nil {
			return f, err
		}
		if s, moved := n.knob.Take(DeadZone); moved {
			if s.Delta > 0 {
				f += BFOStep
			} else {
				f -= BFOStep
			}
			n.panel.ShowFrequency(f)
			if err := apply(f); err != nil {
				return f, fmt.Errorf("set %s bfo: %w", sb, err)
			}
		}

		if n.keys.Key() != hardware.KeyNone {
			return f, n.waitRelease(ctx)
		}
		n.pause()
	}
}
