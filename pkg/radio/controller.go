// Package radio is the control loop: it owns the VFOs and operator
// settings, reacts to the knob, keys and TX line, and drives the
// synthesizer, panel and store.
package radio

import (
	"context"
	"fmt"
	"sync"

	"github.com/dougsko/micro26/pkg/band"
	"github.com/dougsko/micro26/pkg/eeprom"
	"github.com/dougsko/micro26/pkg/hardware"
	"github.com/dougsko/micro26/pkg/logging"
	"github.com/dougsko/micro26/pkg/menu"
	"github.com/dougsko/micro26/pkg/panel"
	"github.com/dougsko/micro26/pkg/scan"
	"github.com/dougsko/micro26/pkg/synth"
	"github.com/dougsko/micro26/pkg/tuning"
)

// DeadZone is the number of encoder steps ignored before tuning moves.
const DeadZone = 2

// Synthesizer programs the two clock outputs
type Synthesizer interface {
	Start() error
	SetFrequency(out synth.Output, hz uint64) error
}

// Store is the persistent settings store
type Store interface {
	Load() (eeprom.Snapshot, error)
	LoadMemory(i int) (eeprom.MemoryChannel, error)
	StoreVFO(i int, f band.Frequency) error
	StoreMemory(i int, f band.Frequency) error
	StoreActiveVFO(i int) error
	StoreTone(t eeprom.Tone) error
	StoreAGC(a eeprom.AGC) error
	StoreLastMemory(i int) error
	StoreScanThreshold(v int) error
}

// Outputs switches the tone filter and AGC time constant
type Outputs interface {
	SetTone(high bool) error
	SetAGC(fast bool) error
}

// Meters samples the analog readings
type Meters interface {
	SignalStrength() int
	ForwardPower() int
	Supply() (int, error)
	PATemperature() (int, error)
}

// Knob is the tuning input together with the tick counter it maintains
type Knob interface {
	Take(deadZone int) (tuning.Sample, bool)
	Discard()
	Elapsed() uint32
}

// Options are the board constants the controller needs
type Options struct {
	IF  band.Frequency
	BFO [2]band.Frequency // indexed by sideband
	// Pause is called once per poll inside menus and scans.
	Pause func()
}

// Controller is the control loop. Everything except Status, Submit and
// PressKey must be called from the goroutine running Run.
type Controller struct {
	synth   Synthesizer
	store   Store
	outputs Outputs
	meters  Meters
	knob    Knob
	keypad  hardware.Keypad
	keys    *remoteKeys
	panel   *panel.Panel
	meter   *panel.Meter
	nav     *menu.Navigator
	scanner *scan.Engine
	options Options

	vfo         [2]band.Frequency
	active      int
	sideband    band.Sideband
	bfo         [2]band.Frequency
	tone        eeprom.Tone
	agc         eeprom.AGC
	split       bool
	txSwapped   bool // the other VFO was swapped in at key-down
	memory      int
	threshold   int
	transmit    bool
	mode        Mode
	lastKeyTick uint32
	supply      int
	temperature int
	signal      int

	commands chan Command

	mu     sync.RWMutex
	status Status
}

// NewController wires a controller to its collaborators
func NewController(s Synthesizer, store Store, outputs Outputs, meters Meters, knob Knob,
	keypad hardware.Keypad, display hardware.Display, options Options) *Controller {

	p := panel.New(display)
	keys := &remoteKeys{keypad: keypad, injected: make(chan hardware.Key, 8)}

	c := &Controller{
		synth:    s,
		store:    store,
		outputs:  outputs,
		meters:   meters,
		knob:     knob,
		keypad:   keypad,
		keys:     keys,
		panel:    p,
		meter:    panel.NewMeter(p),
		options:  options,
		bfo:      options.BFO,
		vfo:      [2]band.Frequency{band.Default, band.Default},
		commands: make(chan Command, 16),
	}

	c.nav = menu.NewNavigator(knob, keys, p)
	c.nav.Pause = options.Pause
	c.nav.Preview = c.previewLeaf
	c.nav.PreviewMemory = c.previewMemory

	c.scanner = scan.NewEngine(vfoTuner{c}, store, meters, keys, knob)
	c.scanner.SetObserver(scanView{c})
	c.scanner.Pause = options.Pause

	return c
}

// Boot restores the stored state, starts the synthesizer and draws the
// idle screen
func (c *Controller) Boot(ctx context.Context) error {
	snap, err := c.store.Load()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	c.vfo = snap.VFO
	c.active = snap.ActiveVFO
	c.tone = snap.Tone
	c.agc = snap.AGC
	c.memory = snap.LastMemory
	c.threshold = snap.ScanThreshold

	if err := c.synth.Start(); err != nil {
		return err
	}
	if err := c.program(); err != nil {
		return err
	}
	if err := c.outputs.SetTone(c.tone == eeprom.ToneHigh); err != nil {
		return err
	}
	if err := c.outputs.SetAGC(c.agc == eeprom.AGCFast); err != nil {
		return err
	}

	c.lastKeyTick = c.knob.Elapsed()
	c.redraw()
	c.publish()

	logging.Infof("radio", "booted on VFO %c %s, %s, memory %d",
		'A'+rune(c.active), c.vfo[c.active], c.sideband, c.memory)
	return nil
}

// Run steps the loop until ctx is done
func (c *Controller) Run(ctx context.Context) error {
	for {
		if err := c.Step(ctx); err != nil {
			return err
		}
		if c.options.Pause != nil {
			c.options.Pause()
		}
	}
}

// Step runs one iteration of the control loop. Only context errors are
// returned; device errors are logged and the loop carries on.
func (c *Controller) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.drainCommands()

	if !c.transmit {
		if s, ok := c.knob.Take(DeadZone); ok {
			c.logError("tune", c.Tune(band.Frequency(s.Rate())))
		}
	}

	now := c.knob.Elapsed()
	key := hardware.KeyNone
	if now > c.lastKeyTick {
		key = c.keys.Key()
		c.lastKeyTick = now
	}

	switch key {
	case hardware.KeyBack:
		if err := c.runMenu(ctx); err != nil {
			return err
		}
	case hardware.KeySelect:
		c.logError("store", c.storeCurrent())
	}

	c.updateMeter(now)
	c.checkTransmit(now)
	c.logError("display", c.panel.Err())
	c.publish()
	return nil
}

// Tune moves the active VFO by offset and reprograms the mixing
// frequency. The band window is not enforced while tuning.
func (c *Controller) Tune(offset band.Frequency) error {
	if offset == 0 {
		return nil
	}
	c.vfo[c.active] += offset
	c.panel.ShowFrequency(c.vfo[c.active])
	return c.setVFO(c.vfo[c.active])
}

// setVFO programs the mixing output for dial frequency f
func (c *Controller) setVFO(f band.Frequency) error {
	hz := f + c.options.IF
	if hz <= 0 {
		return fmt.Errorf("frequency %d out of synthesizer range", int64(f))
	}
	return c.synth.SetFrequency(synth.CLK1, uint64(hz))
}

// setBFO programs the beat oscillator output
func (c *Controller) setBFO(f band.Frequency) error {
	if f <= 0 {
		return fmt.Errorf("bfo %d out of synthesizer range", int64(f))
	}
	return c.synth.SetFrequency(synth.CLK0, uint64(f))
}

// program sets both outputs from the current state
func (c *Controller) program() error {
	if err := c.setVFO(c.vfo[c.active]); err != nil {
		return err
	}
	return c.setBFO(c.bfo[c.sideband])
}

// storeCurrent saves the active VFO, memory index and the current
// frequency into both its VFO slot and the current memory slot
func (c *Controller) storeCurrent() error {
	f := c.vfo[c.active]
	if err := c.store.StoreActiveVFO(c.active); err != nil {
		return err
	}
	if err := c.store.StoreLastMemory(c.memory); err != nil {
		return err
	}
	if err := c.store.StoreVFO(c.active, f); err != nil {
		return err
	}
	if err := c.store.StoreMemory(c.memory, f); err != nil {
		return err
	}
	logging.Infof("radio", "stored %s in VFO %c and memory %d", f, 'A'+rune(c.active), c.memory)
	return nil
}

func (c *Controller) updateMeter(now uint32) {
	if c.transmit {
		c.meter.Show(c.meters.ForwardPower(), now)
	} else {
		c.signal = c.meters.SignalStrength()
		c.meter.Show(c.signal, now)
	}

	if !c.meter.Due(now) {
		return
	}
	c.meter.Reset(c.meters.SignalStrength(), now)

	if v, err := c.meters.Supply(); err == nil {
		c.supply = v
		c.panel.ShowVoltage(v)
	}
	if t, err := c.meters.PATemperature(); err == nil {
		c.temperature = t
		c.panel.ShowTemperature(t)
	}
}

// checkTransmit follows the TX line. With split on at key-down, the other
// VFO is used for the duration of the transmission and restored at key-up
// even if split was switched off in between.
func (c *Controller) checkTransmit(now uint32) {
	tx := c.keypad.Transmitting()
	if tx == c.transmit {
		return
	}

	c.panel.DrawMeterScale(tx)
	c.meter.Show(0, now)
	c.transmit = tx
	c.panel.ShowTXRX(tx)
	if tx {
		c.mode = Transmitting
	} else {
		c.mode = Receiving
	}
	logging.Debugf("radio", "%s", c.mode)

	swap := c.split
	if !tx {
		swap = c.txSwapped
	}
	c.txSwapped = tx && swap
	if swap {
		c.active ^= 1
		c.logError("split", c.setVFO(c.vfo[c.active]))
		c.panel.ShowFrequency(c.vfo[c.active])
		c.panel.ShowVFO(c.active, false)
	}
}

func (c *Controller) view() panel.View {
	return panel.View{
		Frequency:   c.vfo[c.active],
		ActiveVFO:   c.active,
		Sideband:    c.sideband,
		Transmit:    c.transmit,
		Tone:        c.tone,
		AGC:         c.agc,
		Memory:      c.memory,
		Split:       c.split,
		Temperature: c.temperature,
	}
}

func (c *Controller) redraw() {
	c.panel.Redraw(c.view())
	if c.supply > 0 {
		c.panel.ShowVoltage(c.supply)
	}
}

func (c *Controller) logError(what string, err error) {
	if err != nil {
		logging.Errorf("radio", "%s: %v", what, err)
	}
}

// publish copies the state for Status
func (c *Controller) publish() {
	s := Status{
		Frequency:   c.vfo[c.active],
		VFO:         c.vfo,
		ActiveVFO:   c.active,
		Sideband:    c.sideband,
		BFO:         c.bfo,
		Tone:        c.tone,
		AGC:         c.agc,
		Split:       c.split,
		Memory:      c.memory,
		Threshold:   c.threshold,
		Mode:        c.mode,
		Transmit:    c.transmit,
		Signal:      c.signal,
		Supply:      c.supply,
		Temperature: c.temperature,
		Ticks:       c.knob.Elapsed(),
	}
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
}

// setMode records a mode change and publishes it immediately
func (c *Controller) setMode(m Mode) {
	c.mode = m
	c.publish()
}

// Status returns the state as of the last iteration
func (c *Controller) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// PressKey injects a key press as if it came from the keypad. It is read
// by whichever of the loop, a menu or a scan polls the keys next.
func (c *Controller) PressKey(key hardware.Key) error {
	select {
	case c.keys.injected <- key:
		return nil
	default:
		return ErrQueueFull
	}
}

// Submit queues cmd for the control loop and waits for its result
func (c *Controller) Submit(ctx context.Context, cmd Command) error {
	cmd.done = make(chan error, 1)
	select {
	case c.commands <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
	select {
	case err := <-cmd.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) drainCommands() {
	for {
		select {
		case cmd := <-c.commands:
			err := c.execute(cmd)
			c.publish()
			cmd.done <- err
		default:
			return
		}
	}
}

func (c *Controller) execute(cmd Command) error {
	switch cmd.Kind {
	case SetFrequency:
		if c.transmit {
			return ErrTransmitting
		}
		if !band.Contains(cmd.Frequency) {
			return fmt.Errorf("frequency %s outside %s..%s", cmd.Frequency, band.Low, band.High)
		}
		return c.Tune(cmd.Frequency - c.vfo[c.active])
	case TuneBy:
		if c.transmit {
			return ErrTransmitting
		}
		return c.Tune(cmd.Frequency)
	case SetSideband:
		if cmd.Sideband != band.USB && cmd.Sideband != band.LSB {
			return fmt.Errorf("unknown sideband %d", int(cmd.Sideband))
		}
		c.sideband = cmd.Sideband
		c.panel.ShowSideband(c.sideband, false)
		return c.setBFO(c.bfo[c.sideband])
	default:
		return fmt.Errorf("unknown command %d", int(cmd.Kind))
	}
}
