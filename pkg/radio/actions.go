package radio

import (
	"context"
	"errors"

	"github.com/dougsko/micro26/pkg/band"
	"github.com/dougsko/micro26/pkg/eeprom"
	"github.com/dougsko/micro26/pkg/logging"
	"github.com/dougsko/micro26/pkg/menu"
)

// runMenu walks the menu and applies the chosen action. The synthesizer
// and panel are refreshed afterwards whatever the outcome.
func (c *Controller) runMenu(ctx context.Context) error {
	c.setMode(InMenu)

	out, err := c.nav.Walk(ctx)
	if err == nil && out.Kind == menu.Selected {
		err = c.apply(ctx, out.Code)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	c.logError("menu", err)

	c.mode = Receiving
	if c.transmit {
		c.mode = Transmitting
	}
	c.logError("program", c.program())
	c.redraw()
	c.knob.Discard()
	c.lastKeyTick = c.knob.Elapsed()
	return nil
}

// apply carries out a committed menu code
func (c *Controller) apply(ctx context.Context, code menu.Code) error {
	log := logging.With("radio", logging.Fields{"code": int(code), "vfo": string(rune('A' + c.active))})
	log.Infof("menu action")

	switch code {
	case menu.CodeVFOSwap:
		c.active ^= 1
		return c.store.StoreActiveVFO(c.active)

	case menu.CodeVFOBFromA:
		c.vfo[1] = c.vfo[0]

	case menu.CodeVFOAFromB:
		c.vfo[0] = c.vfo[1]

	case menu.CodeVFOToMemory:
		slot, ok, err := c.nav.SelectMemory(ctx, c.memory, menu.VFOToMemory)
		if err != nil || !ok {
			return err
		}
		c.memory = slot
		if err := c.store.StoreMemory(slot, c.vfo[c.active]); err != nil {
			return err
		}
		return c.store.StoreLastMemory(slot)

	case menu.CodeMemoryToVFO:
		slot, ok, err := c.nav.SelectMemory(ctx, c.memory, menu.MemoryToVFO)
		if err != nil || !ok {
			return err
		}
		c.memory = slot
		ch, err := c.store.LoadMemory(slot)
		if err != nil {
			return err
		}
		if !ch.Empty {
			c.vfo[c.active] = ch.Frequency
		}

	case menu.CodeUSB, menu.CodeLSB:
		c.sideband = band.Sideband(code - menu.CodeUSB)

	case menu.CodeToneLow, menu.CodeToneHigh:
		c.tone = eeprom.Tone(code - menu.CodeToneLow)
		if err := c.outputs.SetTone(c.tone == eeprom.ToneHigh); err != nil {
			return err
		}
		return c.store.StoreTone(c.tone)

	case menu.CodeAGCSlow, menu.CodeAGCFast:
		c.agc = eeprom.AGC(code - menu.CodeAGCSlow)
		if err := c.outputs.SetAGC(c.agc == eeprom.AGCFast); err != nil {
			return err
		}
		return c.store.StoreAGC(c.agc)

	case menu.CodeScanMemories:
		c.setMode(InScan)
		res, err := c.scanner.Memory(ctx, c.threshold)
		if err != nil || !res.Selected {
			return err
		}
		if !band.Contains(res.Frequency) {
			log.Warnf("scan picked slot %d with unusable %s", res.Index, res.Frequency)
			return nil
		}
		c.vfo[c.active] = res.Frequency
		c.memory = res.Index
		log.Infof("took %s from memory %d", res.Frequency, res.Index)

	case menu.CodeScanVFOs:
		c.setMode(InScan)
		res, err := c.scanner.VFORange(ctx, c.vfo[0], c.vfo[1], c.threshold)
		if err != nil || !res.Selected {
			return err
		}
		if band.Contains(res.Frequency) {
			c.vfo[c.active] = res.Frequency
		}

	case menu.CodeThreshold:
		v, ok, err := c.nav.AdjustThreshold(ctx, c.threshold)
		if err != nil || !ok {
			return err
		}
		c.threshold = v
		return c.store.StoreScanThreshold(v)

	case menu.CodeSplitOff, menu.CodeSplitOn:
		c.split = code == menu.CodeSplitOn

	case menu.CodeSetUSB, menu.CodeSetLSB:
		sb := band.Sideband(code - menu.CodeSetUSB)
		f, err := c.nav.CalibrateBFO(ctx, sb, c.bfo[sb], c.setBFO)
		c.bfo[sb] = f
		return err
	}
	return nil
}

// previewLeaf shows what a highlighted leaf would do. Highlighting a
// sideband already switches the beat oscillator so it can be heard.
func (c *Controller) previewLeaf(cat menu.Category, leaf int) {
	switch cat.(type) {
	case menu.VFOMemory:
		c.panel.ShowRange(c.vfo[0], c.vfo[1])
	case menu.SidebandMenu:
		sb := band.Sideband(leaf)
		c.logError("preview", c.setBFO(c.bfo[sb]))
		c.panel.ShowPreview(c.bfo[sb], true)
	}
}

// previewMemory tunes to a highlighted memory slot if it holds a frequency
func (c *Controller) previewMemory(slot int) {
	ch, err := c.store.LoadMemory(slot)
	if err != nil || ch.Empty {
		c.panel.ShowPreview(0, false)
		return
	}
	c.logError("preview", c.setVFO(ch.Frequency))
	c.panel.ShowPreview(ch.Frequency, true)
}

// vfoTuner lets the scan engine program the mixing output
type vfoTuner struct{ c *Controller }

func (t vfoTuner) SetVFO(f band.Frequency) error {
	return t.c.setVFO(f)
}

// scanView draws scan progress on the panel
type scanView struct{ c *Controller }

func (v scanView) ScanStarted(title string) {
	v.c.panel.Clear()
	v.c.panel.ShowTitle(title)
}

func (v scanView) MemoryVisited(index int) {
	v.c.panel.ShowMemory(index, false)
}

func (v scanView) Tuned(f band.Frequency) {
	v.c.panel.ShowFrequency(f)
}

func (v scanView) Countdown(seconds int) {
	v.c.panel.ShowCountdown(seconds)
}

func (v scanView) Signal(value int) {
	v.c.meter.Show(value, v.c.knob.Elapsed())
}
