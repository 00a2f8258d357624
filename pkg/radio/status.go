package radio

import (
	"errors"

	"github.com/dougsko/micro26/pkg/band"
	"github.com/dougsko/micro26/pkg/eeprom"
	"github.com/dougsko/micro26/pkg/hardware"
)

// Mode is what the control loop is currently doing
type Mode int

const (
	Receiving Mode = iota
	Transmitting
	InMenu
	InScan
)

func (m Mode) String() string {
	switch m {
	case Transmitting:
		return "transmitting"
	case InMenu:
		return "menu"
	case InScan:
		return "scan"
	default:
		return "receiving"
	}
}

// MarshalText encodes the mode by name
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Status is a copy of the controller state, safe to hand to other
// goroutines
type Status struct {
	Frequency   band.Frequency    `json:"frequency"`
	VFO         [2]band.Frequency `json:"vfo"`
	ActiveVFO   int               `json:"active_vfo"`
	Sideband    band.Sideband     `json:"sideband"`
	BFO         [2]band.Frequency `json:"bfo"`
	Tone        eeprom.Tone       `json:"tone"`
	AGC         eeprom.AGC        `json:"agc"`
	Split       bool              `json:"split"`
	Memory      int               `json:"memory"`
	Threshold   int               `json:"scan_threshold"`
	Mode        Mode              `json:"mode"`
	Transmit    bool              `json:"transmit"`
	Signal      int               `json:"signal"`
	Supply      int               `json:"supply_tenths"`
	Temperature int               `json:"temperature"`
	Ticks       uint32            `json:"ticks"`
}

// ErrTransmitting is returned for tuning requests while the radio is
// transmitting
var ErrTransmitting = errors.New("radio is transmitting")

// ErrQueueFull is returned when remote requests arrive faster than the
// control loop drains them
var ErrQueueFull = errors.New("command queue full")

// CommandKind identifies a remote request
type CommandKind int

const (
	SetFrequency CommandKind = iota
	TuneBy
	SetSideband
)

// Command is a remote request executed by the control loop between
// iterations
type Command struct {
	Kind      CommandKind
	Frequency band.Frequency
	Sideband  band.Sideband

	done chan error
}

// remoteKeys merges injected presses in front of the physical keypad
type remoteKeys struct {
	keypad   hardware.Keypad
	injected chan hardware.Key
}

func (k *remoteKeys) Key() hardware.Key {
	select {
	case key := <-k.injected:
		return key
	default:
		return k.keypad.Key()
	}
}
