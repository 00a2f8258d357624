package hardware

import (
	"sync"
	"time"
)

// Key identifies an operator key event
type Key int

const (
	KeyNone      Key = 0
	KeyBack      Key = 1
	KeySelect    Key = 2
	KeyLongPress Key = 11
)

// String returns the key name used on the wire and in logs
func (k Key) String() string {
	switch k {
	case KeyNone:
		return "none"
	case KeyBack:
		return "back"
	case KeySelect:
		return "select"
	case KeyLongPress:
		return "long"
	default:
		return "unknown"
	}
}

// ParseKey parses a key name, accepting the numeric codes as well
func ParseKey(s string) (Key, bool) {
	switch s {
	case "none", "0":
		return KeyNone, true
	case "back", "menu", "1":
		return KeyBack, true
	case "select", "store", "2":
		return KeySelect, true
	case "long", "11":
		return KeyLongPress, true
	}
	return KeyNone, false
}

// KeypadConfig describes a resistor-ladder keypad on one ADC channel
type KeypadConfig struct {
	Channel   int
	Levels    []int // ADC level for back, select
	Tolerance int
	TXPin     int
	// LongPress is the hold time that turns a press into KeyLongPress.
	// Zero reports keys on first contact without waiting for release.
	LongPress time.Duration
	// Now is used to time holds; defaults to time.Now.
	Now func() time.Time
}

// ADCKeypad decodes keys from a resistor ladder and the TX indicator from
// a GPIO input
type ADCKeypad struct {
	adc    ADC
	gpio   GPIOInterface
	config KeypadConfig
	mu     sync.Mutex
}

// NewADCKeypad creates a keypad reader
func NewADCKeypad(adc ADC, gpio GPIOInterface, config KeypadConfig) *ADCKeypad {
	if len(config.Levels) == 0 {
		config.Levels = []int{88, 143}
	}
	if config.Tolerance == 0 {
		config.Tolerance = 10
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &ADCKeypad{adc: adc, gpio: gpio, config: config}
}

// match returns the ladder index of an ADC reading, or -1
func (k *ADCKeypad) match(value int) int {
	for i, level := range k.config.Levels {
		if value > level-k.config.Tolerance && value < level+k.config.Tolerance {
			return i
		}
	}
	return -1
}

// Key samples the ladder once. With LongPress set it blocks until the key
// is released and reports KeyLongPress for a long enough hold.
func (k *ADCKeypad) Key() Key {
	k.mu.Lock()
	defer k.mu.Unlock()

	value, err := k.adc.Read(k.config.Channel)
	if err != nil {
		return KeyNone
	}
	index := k.match(value)
	if index < 0 {
		return KeyNone
	}
	if k.config.LongPress == 0 {
		return Key(index + 1)
	}

	start := k.config.Now()
	for {
		value, err := k.adc.Read(k.config.Channel)
		if err != nil || k.match(value) != index {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if k.config.Now().Sub(start) > k.config.LongPress {
		return KeyLongPress
	}
	return Key(index + 1)
}

// Transmitting reports the TX indicator input
func (k *ADCKeypad) Transmitting() bool {
	if k.gpio == nil {
		return false
	}
	tx, err := k.gpio.GetPin(k.config.TXPin)
	if err != nil {
		return false
	}
	return tx
}
