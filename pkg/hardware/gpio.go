package hardware

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// LinuxGPIO implements GPIOInterface using Linux sysfs GPIO
type LinuxGPIO struct {
	root         string
	exportedPins map[int]string // pin -> direction
	mutex        sync.RWMutex
}

// NewLinuxGPIO creates a new Linux GPIO interface rooted at root
// (normally /sys/class/gpio)
func NewLinuxGPIO(root string) *LinuxGPIO {
	if root == "" {
		root = "/sys/class/gpio"
	}
	return &LinuxGPIO{
		root:         root,
		exportedPins: make(map[int]string),
	}
}

// Initialize initializes the Linux GPIO system
func (g *LinuxGPIO) Initialize() error {
	// Check if we have access to GPIO
	if _, err := os.Stat(g.root); os.IsNotExist(err) {
		return fmt.Errorf("GPIO not available on this system")
	}

	log.Printf("LinuxGPIO: Initialized (%s)", g.root)
	return nil
}

// Close closes the Linux GPIO system and unexports all pins
func (g *LinuxGPIO) Close() error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	for pin := range g.exportedPins {
		if err := g.unexportPin(pin); err != nil {
			log.Printf("LinuxGPIO: %v", err)
		}
		delete(g.exportedPins, pin)
	}

	log.Printf("LinuxGPIO: Closed")
	return nil
}

// SetPin drives a GPIO pin as an output
func (g *LinuxGPIO) SetPin(pin int, value bool) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if err := g.ensureDirection(pin, "out"); err != nil {
		return err
	}

	valueStr := "0"
	if value {
		valueStr = "1"
	}

	if err := os.WriteFile(g.pinPath(pin, "value"), []byte(valueStr), 0644); err != nil {
		return fmt.Errorf("failed to set pin %d value: %w", pin, err)
	}

	return nil
}

// GetPin reads a GPIO pin value
func (g *LinuxGPIO) GetPin(pin int) (bool, error) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.exportedPins[pin]; !ok {
		if err := g.ensureDirection(pin, "in"); err != nil {
			return false, err
		}
	}

	data, err := os.ReadFile(g.pinPath(pin, "value"))
	if err != nil {
		return false, fmt.Errorf("failed to read pin %d value: %w", pin, err)
	}

	return strings.TrimSpace(string(data)) == "1", nil
}

// Release switches the pin to input so it floats
func (g *LinuxGPIO) Release(pin int) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	return g.ensureDirection(pin, "in")
}

func (g *LinuxGPIO) pinPath(pin int, file string) string {
	return filepath.Join(g.root, fmt.Sprintf("gpio%d", pin), file)
}

// ensureDirection exports the pin if needed and sets its direction
func (g *LinuxGPIO) ensureDirection(pin int, direction string) error {
	current, exported := g.exportedPins[pin]
	if !exported {
		if err := g.exportPin(pin); err != nil {
			return fmt.Errorf("failed to export pin %d: %w", pin, err)
		}
	}
	if current == direction {
		return nil
	}

	if err := g.setPinDirection(pin, direction); err != nil {
		return fmt.Errorf("failed to set pin %d direction: %w", pin, err)
	}
	g.exportedPins[pin] = direction
	return nil
}

// exportPin exports a GPIO pin to userspace
func (g *LinuxGPIO) exportPin(pin int) error {
	pinDir := filepath.Join(g.root, fmt.Sprintf("gpio%d", pin))
	if _, err := os.Stat(pinDir); err == nil {
		return nil // Already exported
	}

	if err := os.WriteFile(filepath.Join(g.root, "export"), []byte(strconv.Itoa(pin)), 0644); err != nil {
		return fmt.Errorf("failed to export GPIO pin %d: %w", pin, err)
	}

	// Wait for the pin directory to appear
	for i := 0; i < 10; i++ {
		if _, err := os.Stat(pinDir); err == nil {
			log.Printf("LinuxGPIO: Exported pin %d", pin)
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}

	return fmt.Errorf("pin %d directory did not appear after export", pin)
}

// unexportPin unexports a GPIO pin from userspace
func (g *LinuxGPIO) unexportPin(pin int) error {
	if err := os.WriteFile(filepath.Join(g.root, "unexport"), []byte(strconv.Itoa(pin)), 0644); err != nil {
		return fmt.Errorf("failed to unexport GPIO pin %d: %w", pin, err)
	}

	log.Printf("LinuxGPIO: Unexported pin %d", pin)
	return nil
}

// setPinDirection sets the direction of a GPIO pin
func (g *LinuxGPIO) setPinDirection(pin int, direction string) error {
	if err := os.WriteFile(g.pinPath(pin, "direction"), []byte(direction), 0644); err != nil {
		return fmt.Errorf("failed to set pin %d direction to %s: %w", pin, direction, err)
	}
	return nil
}
