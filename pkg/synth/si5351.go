package synth

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dougsko/micro26/pkg/hardware"
	"github.com/dougsko/micro26/pkg/logging"
)

// Si5351 register map (AN619)
const (
	RegClockEnable = 3
	RegCLK0Control = 16
	RegCLK1Control = 17
	RegCLK2Control = 18
	RegPLLA        = 26
	RegPLLB        = 34
	RegMS0         = 42
	RegMS1         = 50
	RegPLLReset    = 177
	RegXtalLoad    = 183
)

// DefaultAddress is the chip's bus write address
const DefaultAddress = 0xC0

// Output selects a multisynth channel
type Output int

const (
	// CLK0 runs from PLLA and feeds the beat oscillator.
	CLK0 Output = iota
	// CLK1 runs from PLLB and feeds the first mixer (VFO + IF).
	CLK1
)

func (o Output) String() string {
	switch o {
	case CLK0:
		return "CLK0"
	case CLK1:
		return "CLK1"
	default:
		return fmt.Sprintf("CLK%d", int(o))
	}
}

func (o Output) base() (byte, error) {
	switch o {
	case CLK0:
		return RegMS0, nil
	case CLK1:
		return RegMS1, nil
	default:
		return 0, fmt.Errorf("unknown output %d", int(o))
	}
}

// ErrNotStarted is returned when a frequency is set before Start
var ErrNotStarted = errors.New("synthesizer not started")

// Config describes the chip wiring
type Config struct {
	Address   byte
	Reference uint64
	PLLRatio  uint32
}

// Si5351 drives the clock generator over a two-wire bus
type Si5351 struct {
	bus    hardware.Bus
	config Config

	mu      sync.Mutex
	started bool
	current map[Output]uint64
}

// NewSi5351 creates a driver. Zero config fields take the board defaults.
func NewSi5351(bus hardware.Bus, config Config) *Si5351 {
	if config.Address == 0 {
		config.Address = DefaultAddress
	}
	if config.Reference == 0 {
		config.Reference = DefaultReference
	}
	if config.PLLRatio == 0 {
		config.PLLRatio = DefaultPLLRatio
	}
	return &Si5351{
		bus:     bus,
		config:  config,
		current: make(map[Output]uint64),
	}
}

func (s *Si5351) write(reg, value byte) error {
	if err := s.bus.Write(s.config.Address, reg, value); err != nil {
		return fmt.Errorf("si5351 write reg %d: %w", reg, err)
	}
	return nil
}

func (s *Si5351) writePlan(base byte, p Plan) error {
	for i, v := range p.Registers() {
		if err := s.write(base+byte(i), v); err != nil {
			return err
		}
	}
	return nil
}

// Start runs the one-time chip setup: load capacitance, output routing,
// PLL reset and both PLLs at reference*ratio.
func (s *Si5351) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	setup := []struct{ reg, value byte }{
		{RegXtalLoad, 0xD2},
		{RegClockEnable, 0x00},
		{RegCLK0Control, 0x0F},
		{RegCLK1Control, 0x2F},
		{RegCLK2Control, 0x2F},
		{RegPLLReset, 0xA0},
	}
	for _, w := range setup {
		if err := s.write(w.reg, w.value); err != nil {
			return fmt.Errorf("failed to start synthesizer: %w", err)
		}
	}

	pll := PLLPlan(s.config.PLLRatio)
	if err := s.writePlan(RegPLLA, pll); err != nil {
		return fmt.Errorf("failed to program PLLA: %w", err)
	}
	if err := s.writePlan(RegPLLB, pll); err != nil {
		return fmt.Errorf("failed to program PLLB: %w", err)
	}

	s.started = true
	logging.Infof("synth", "Si5351 started at 0x%02X, VCO %d Hz",
		s.config.Address, s.config.Reference*uint64(s.config.PLLRatio))
	return nil
}

// SetFrequency programs one output. No band checks are made here.
func (s *Si5351) SetFrequency(out Output, hz uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return ErrNotStarted
	}
	if hz == 0 {
		return fmt.Errorf("%s: frequency must be positive", out)
	}
	base, err := out.base()
	if err != nil {
		return err
	}

	plan := ComputeMultisynthPlan(hz, s.config.Reference, uint64(s.config.PLLRatio))
	if err := s.writePlan(base, plan); err != nil {
		return fmt.Errorf("failed to set %s: %w", out, err)
	}

	s.current[out] = hz
	logging.Debugf("synth", "%s -> %d Hz (a=%d b=%d)", out, hz, plan.A, plan.B)
	return nil
}

// Frequency returns the last value programmed into an output
func (s *Si5351) Frequency(out Output) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hz, ok := s.current[out]
	return hz, ok
}

// Started reports whether Start has completed
func (s *Si5351) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}
