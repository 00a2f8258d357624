// Package panel places the radio's readouts on the character display.
package panel

import (
	"fmt"

	"github.com/dougsko/micro26/pkg/band"
	"github.com/dougsko/micro26/pkg/eeprom"
	"github.com/dougsko/micro26/pkg/hardware"
)

// Rows of the 8-row layout
const (
	RowStatus    = 0
	RowSettings  = 1
	RowSplit     = 2
	RowFrequency = 4
	RowLabel     = 5
	RowMeter     = 6
	RowScale     = 7
)

// View is everything the idle screen shows
type View struct {
	Frequency   band.Frequency
	ActiveVFO   int
	Sideband    band.Sideband
	Transmit    bool
	Tone        eeprom.Tone
	AGC         eeprom.AGC
	Memory      int
	Split       bool
	Temperature int
}

// Panel draws fields on a display. Drawing errors are kept, not returned,
// so a flaky display never interrupts the control loop. Err reports the
// most recent one.
type Panel struct {
	display hardware.Display
	err     error
}

// New creates a panel on display
func New(display hardware.Display) *Panel {
	return &Panel{display: display}
}

func (p *Panel) text(col, row int, s string, inverted bool) {
	if err := p.display.DrawText(col, row, s, inverted); err != nil {
		p.err = fmt.Errorf("draw %q at %d,%d: %w", s, col, row, err)
	}
}

func (p *Panel) bar(from, to, row int, pattern byte) {
	if err := p.display.DrawBar(from, to, row, pattern); err != nil {
		p.err = fmt.Errorf("draw bar row %d: %w", row, err)
	}
}

// Err returns and clears the last drawing error
func (p *Panel) Err() error {
	err := p.err
	p.err = nil
	return err
}

// Clear blanks the display
func (p *Panel) Clear() {
	if err := p.display.Clear(); err != nil {
		p.err = fmt.Errorf("clear: %w", err)
	}
}

// Redraw clears the display and draws the full idle screen
func (p *Panel) Redraw(v View) {
	p.Clear()
	p.ShowFrequency(v.Frequency)
	p.ShowVFO(v.ActiveVFO, false)
	p.ShowMemory(v.Memory, false)
	p.ShowSideband(v.Sideband, false)
	p.ShowTemperature(v.Temperature)
	p.DrawMeterScale(v.Transmit)
	p.ShowTXRX(v.Transmit)
	p.ShowTone(v.Tone, false)
	p.ShowAGC(v.AGC, false)
	p.ShowSplit(v.Split)
}

// ShowFrequency draws the large readout in kHz
func (p *Panel) ShowFrequency(f band.Frequency) {
	p.text(2, RowFrequency, fmt.Sprintf("%-9s", f.String()), false)
}

// ShowVFO draws "VFO:A" or "VFO:B"
func (p *Panel) ShowVFO(vfo int, inverted bool) {
	p.text(0, RowStatus, fmt.Sprintf("VFO:%c", 'A'+rune(vfo)), inverted)
}

// ShowSideband draws USB or LSB
func (p *Panel) ShowSideband(sb band.Sideband, inverted bool) {
	p.text(6, RowStatus, sb.String(), inverted)
}

// ShowTXRX draws the transmit indicator, inverted while transmitting
func (p *Panel) ShowTXRX(tx bool) {
	if tx {
		p.text(10, RowStatus, "TX", true)
		return
	}
	p.text(10, RowStatus, "RX", false)
}

// ShowVoltage draws the supply voltage from tenths of a volt
func (p *Panel) ShowVoltage(tenths int) {
	p.text(15, RowStatus, fmt.Sprintf("%d.%dV ", tenths/10, tenths%10), false)
}

// ShowTemperature draws the PA temperature
func (p *Panel) ShowTemperature(celsius int) {
	p.text(0, RowSettings, fmt.Sprintf("%d°C ", celsius), false)
}

// ShowTone draws the tone filter setting
func (p *Panel) ShowTone(t eeprom.Tone, inverted bool) {
	if t == eeprom.ToneHigh {
		p.text(5, RowSettings, "HIGH", inverted)
		return
	}
	p.text(5, RowSettings, "LOW ", inverted)
}

// ShowAGC draws the AGC setting
func (p *Panel) ShowAGC(a eeprom.AGC, inverted bool) {
	if a == eeprom.AGCFast {
		p.text(10, RowSettings, "AGC-F", inverted)
		return
	}
	p.text(10, RowSettings, "AGC-S", inverted)
}

// ShowMemory draws the memory slot number
func (p *Panel) ShowMemory(n int, inverted bool) {
	p.text(16, RowSettings, fmt.Sprintf("M%02d", n), inverted)
}

// ShowSplit draws the split state
func (p *Panel) ShowSplit(split bool) {
	if split {
		p.text(0, RowSplit, "SPLT ON ", false)
		return
	}
	p.text(0, RowSplit, "SPLT OFF", false)
}

// DrawMeterScale draws the S-meter scale, or the power scale while
// transmitting
func (p *Panel) DrawMeterScale(tx bool) {
	if tx {
		p.text(0, RowScale, "0 1W  2W  3W  4W  5W", false)
		return
	}
	p.text(0, RowScale, "S1 3 5 7 9 +10 +20dB", false)
}

// ShowTitle draws a heading on the first row
func (p *Panel) ShowTitle(title string) {
	p.text(0, RowStatus, title, false)
}

// ShowLabel draws a short label under the frequency readout
func (p *Panel) ShowLabel(label string) {
	p.text(1, RowLabel, label, false)
}

// ShowNumber draws an integer at a cell
func (p *Panel) ShowNumber(col, row, n int) {
	p.text(col, row, fmt.Sprintf("%-4d", n), false)
}

// ShowLevel draws a bar of length level on the meter row, used by editors
func (p *Panel) ShowLevel(level int) {
	p.bar(0, level, RowMeter, MeterPattern)
	p.bar(level, MeterWidth, RowMeter, 0)
}

// Menu layout: the title sits top left, leaves are listed from row 1 in a
// column on the right.
const menuColumn = 10

// ShowMenu clears the display and lists a category's leaves
func (p *Panel) ShowMenu(title string, leaves []string) {
	p.Clear()
	p.ShowTitle(title)
	for i, leaf := range leaves {
		p.ShowMenuItem(i, leaf, false)
	}
}

// ShowMenuItem draws one leaf, inverted when highlighted
func (p *Panel) ShowMenuItem(index int, label string, inverted bool) {
	p.text(menuColumn, index+1, fmt.Sprintf("%-8s", label), inverted)
}

// ShowMemoryCell draws a slot number in the 4x4 memory picker grid
func (p *Panel) ShowMemoryCell(slot int, inverted bool) {
	col := (slot%4)*4 + 3
	row := slot/4 + 2
	p.text(col, row, fmt.Sprintf("%02d", slot), inverted)
}

// ShowPreview draws a candidate frequency on the bottom row, or asterisks
// when there is nothing to preview
func (p *Panel) ShowPreview(f band.Frequency, ok bool) {
	if !ok {
		p.text(0, RowScale, "********  ", false)
		return
	}
	p.text(0, RowScale, fmt.Sprintf("%-10s", f.String()), false)
}

// ShowRange draws two frequencies on the bottom row
func (p *Panel) ShowRange(a, b band.Frequency) {
	p.text(0, RowScale, fmt.Sprintf("%-10s%-10s", a.String(), b.String()), false)
}

// ShowCountdown draws the seconds left on a scan dwell
func (p *Panel) ShowCountdown(seconds int) {
	p.text(0, RowScale, fmt.Sprintf("%d ", seconds), false)
}
