package hardware

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// HardwareConfig represents hardware configuration
type HardwareConfig struct {
	EnableGPIO     bool
	GPIORoot       string
	TonePin        int
	AGCPin         int
	TXPin          int
	OLEDI2CAddress int
	OLEDWidth      int
	OLEDHeight     int
	KeyChannel     int
	KeyLevels      []int
	KeyTolerance   int
	LongPress      time.Duration
}

// HardwareManager manages all hardware interfaces
type HardwareManager struct {
	config HardwareConfig
	mutex  sync.RWMutex

	// Hardware interfaces
	gpio    GPIOInterface
	display Display
	adc     ADC
	bus     Bus
	keypad  Keypad

	// State
	initialized bool
}

// Devices carries collaborators supplied by the caller. Any nil field is
// filled in by Initialize.
type Devices struct {
	GPIO    GPIOInterface
	Display Display
	ADC     ADC
	Bus     Bus
	Keypad  Keypad
}

// GPIOInterface defines GPIO operations
type GPIOInterface interface {
	Initialize() error
	Close() error
	SetPin(pin int, value bool) error
	GetPin(pin int) (bool, error)
	// Release puts the pin in high-impedance state.
	Release(pin int) error
}

// FontWidth is the pixel width of one character cell
const FontWidth = 6

// Display defines the character-cell operations the panel needs. Pixel
// rendering stays behind this interface.
type Display interface {
	Initialize() error
	Close() error
	Clear() error
	DrawText(col, row int, text string, inverted bool) error
	// DrawBar fills pixel columns [from, to) of a text row with pattern.
	DrawBar(from, to, row int, pattern byte) error
	Columns() int
	Rows() int
}

// ADC reads a 10-bit conversion from a channel
type ADC interface {
	Read(channel int) (int, error)
}

// Bus is the two-wire write primitive used by the synthesizer
type Bus interface {
	Write(addr byte, data ...byte) error
}

// Keypad reports the operator keys and the transmit indicator
type Keypad interface {
	Key() Key
	Transmitting() bool
}

// NewHardwareManager creates a new hardware manager
func NewHardwareManager(config HardwareConfig) *HardwareManager {
	return &HardwareManager{
		config: config,
	}
}

// UseDevices installs externally constructed devices. Must be called before
// Initialize.
func (h *HardwareManager) UseDevices(d Devices) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.gpio = d.GPIO
	h.display = d.Display
	h.adc = d.ADC
	h.bus = d.Bus
	h.keypad = d.Keypad
}

// Initialize initializes all hardware interfaces
func (h *HardwareManager) Initialize() error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.initialized {
		return nil
	}

	log.Printf("Hardware: Initializing hardware manager...")

	if h.gpio == nil {
		if h.config.EnableGPIO {
			h.gpio = NewLinuxGPIO(h.config.GPIORoot)
		} else {
			h.gpio = NewMockGPIO()
		}
	}
	if err := h.gpio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize GPIO: %w", err)
	}
	log.Printf("Hardware: GPIO initialized (tone pin: %d, AGC pin: %d, TX pin: %d)",
		h.config.TonePin, h.config.AGCPin, h.config.TXPin)

	if h.display == nil {
		h.display = NewMockDisplay(h.config.OLEDWidth/FontWidth, h.config.OLEDHeight/8)
	}
	if err := h.display.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Printf("Hardware: Display initialized (%dx%d at I2C 0x%02x)",
		h.config.OLEDWidth, h.config.OLEDHeight, h.config.OLEDI2CAddress)

	if h.adc == nil {
		h.adc = NewMockADC()
	}
	if h.bus == nil {
		h.bus = NewMockBus()
	}
	if h.keypad == nil {
		h.keypad = NewADCKeypad(h.adc, h.gpio, KeypadConfig{
			Channel:   h.config.KeyChannel,
			Levels:    h.config.KeyLevels,
			Tolerance: h.config.KeyTolerance,
			TXPin:     h.config.TXPin,
			LongPress: h.config.LongPress,
		})
	}

	h.initialized = true
	log.Printf("Hardware: Hardware manager initialized successfully")
	return nil
}

// Close shuts down all hardware interfaces
func (h *HardwareManager) Close() error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if !h.initialized {
		return nil
	}

	log.Printf("Hardware: Shutting down hardware manager...")

	if h.display != nil {
		if err := h.display.Close(); err != nil {
			log.Printf("Hardware: Error closing display: %v", err)
		}
	}

	if h.gpio != nil {
		if err := h.gpio.Close(); err != nil {
			log.Printf("Hardware: Error closing GPIO: %v", err)
		}
	}

	h.initialized = false
	log.Printf("Hardware: Hardware manager shut down")
	return nil
}

// SetTone selects the audio tone filter. Low drives the pin low, high
// releases it.
func (h *HardwareManager) SetTone(high bool) error {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if err := h.driveOrRelease(h.config.TonePin, high); err != nil {
		return fmt.Errorf("failed to set tone: %w", err)
	}
	return nil
}

// SetAGC selects the AGC time constant. Slow drives the pin low, fast
// releases it.
func (h *HardwareManager) SetAGC(fast bool) error {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if err := h.driveOrRelease(h.config.AGCPin, fast); err != nil {
		return fmt.Errorf("failed to set AGC: %w", err)
	}
	return nil
}

// driveOrRelease must be called with lock held
func (h *HardwareManager) driveOrRelease(pin int, release bool) error {
	if !h.initialized || h.gpio == nil {
		return fmt.Errorf("hardware not initialized")
	}
	if release {
		return h.gpio.Release(pin)
	}
	return h.gpio.SetPin(pin, false)
}

// IsInitialized returns whether hardware is initialized
func (h *HardwareManager) IsInitialized() bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.initialized
}

// GetConfig returns the hardware configuration
func (h *HardwareManager) GetConfig() HardwareConfig {
	return h.config
}

// GPIO returns the GPIO interface for direct access
func (h *HardwareManager) GPIO() GPIOInterface {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.gpio
}

// Display returns the display
func (h *HardwareManager) Display() Display {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.display
}

// ADC returns the analog inputs
func (h *HardwareManager) ADC() ADC {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.adc
}

// Bus returns the two-wire bus
func (h *HardwareManager) Bus() Bus {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.bus
}

// Keypad returns the key reader
func (h *HardwareManager) Keypad() Keypad {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.keypad
}
