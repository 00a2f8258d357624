package hardware

import (
	"testing"
	"time"
)

func testConfig() HardwareConfig {
	return HardwareConfig{
		EnableGPIO:     false,
		TonePin:        10,
		AGCPin:         9,
		TXPin:          4,
		OLEDI2CAddress: 0x78,
		OLEDWidth:      128,
		OLEDHeight:     64,
		KeyLevels:      []int{88, 143},
		KeyTolerance:   10,
	}
}

func TestNewHardwareManager(t *testing.T) {
	config := testConfig()
	manager := NewHardwareManager(config)

	if manager == nil {
		t.Fatal("Expected non-nil hardware manager")
	}
	if manager.GetConfig().TonePin != 10 {
		t.Errorf("Expected tone pin 10, got %d", manager.GetConfig().TonePin)
	}
	if manager.IsInitialized() {
		t.Error("Expected manager to not be initialized initially")
	}
}

func TestHardwareManagerInitialization(t *testing.T) {
	manager := NewHardwareManager(testConfig())

	t.Run("Initialize", func(t *testing.T) {
		if err := manager.Initialize(); err != nil {
			t.Fatalf("Failed to initialize hardware manager: %v", err)
		}
		if !manager.IsInitialized() {
			t.Error("Expected manager to be initialized")
		}
	})

	t.Run("Default Devices", func(t *testing.T) {
		if _, ok := manager.GPIO().(*MockGPIO); !ok {
			t.Errorf("Expected MockGPIO with GPIO disabled, got %T", manager.GPIO())
		}
		display := manager.Display()
		if display.Columns() != 21 || display.Rows() != 8 {
			t.Errorf("Expected 21x8 cell display, got %dx%d", display.Columns(), display.Rows())
		}
		if manager.ADC() == nil || manager.Bus() == nil || manager.Keypad() == nil {
			t.Error("Expected ADC, bus and keypad to be set")
		}
	})

	t.Run("Double Initialize", func(t *testing.T) {
		if err := manager.Initialize(); err != nil {
			t.Errorf("Expected second initialize to be a no-op, got: %v", err)
		}
	})

	t.Run("Close", func(t *testing.T) {
		if err := manager.Close(); err != nil {
			t.Errorf("Failed to close hardware manager: %v", err)
		}
		if manager.IsInitialized() {
			t.Error("Expected manager to not be initialized after close")
		}
	})
}

func TestToneAndAGCOutputs(t *testing.T) {
	gpio := NewMockGPIO()
	manager := NewHardwareManager(testConfig())
	manager.UseDevices(Devices{GPIO: gpio})

	if err := manager.SetTone(true); err == nil {
		t.Error("Expected error before initialize")
	}

	if err := manager.Initialize(); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}
	defer manager.Close()

	t.Run("Tone Low Drives Pin", func(t *testing.T) {
		if err := manager.SetTone(false); err != nil {
			t.Fatalf("SetTone failed: %v", err)
		}
		if gpio.IsReleased(10) {
			t.Error("Expected tone pin driven for low tone")
		}
		if v, _ := gpio.GetPin(10); v {
			t.Error("Expected tone pin low")
		}
	})

	t.Run("Tone High Releases Pin", func(t *testing.T) {
		if err := manager.SetTone(true); err != nil {
			t.Fatalf("SetTone failed: %v", err)
		}
		if !gpio.IsReleased(10) {
			t.Error("Expected tone pin released for high tone")
		}
	})

	t.Run("AGC", func(t *testing.T) {
		if err := manager.SetAGC(false); err != nil {
			t.Fatalf("SetAGC failed: %v", err)
		}
		if gpio.IsReleased(9) {
			t.Error("Expected AGC pin driven for slow AGC")
		}
		if err := manager.SetAGC(true); err != nil {
			t.Fatalf("SetAGC failed: %v", err)
		}
		if !gpio.IsReleased(9) {
			t.Error("Expected AGC pin released for fast AGC")
		}
	})
}

func TestInjectedDevices(t *testing.T) {
	bus := NewMockBus()
	keypad := NewMockKeypad(KeySelect)
	manager := NewHardwareManager(testConfig())
	manager.UseDevices(Devices{Bus: bus, Keypad: keypad})

	if err := manager.Initialize(); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}
	defer manager.Close()

	if manager.Bus() != Bus(bus) {
		t.Error("Expected injected bus to be kept")
	}
	if manager.Keypad().Key() != KeySelect {
		t.Error("Expected injected keypad to be kept")
	}
}

// ladderADC holds a key level on one channel for a number of reads
type ladderADC struct {
	channel int
	level   int
	holdFor int
	reads   int
}

func (a *ladderADC) Read(channel int) (int, error) {
	if channel != a.channel {
		return 1023, nil
	}
	a.reads++
	if a.reads > a.holdFor {
		return 1023, nil
	}
	return a.level, nil
}

func TestKeypadFromConfig(t *testing.T) {
	t.Run("Key Channel", func(t *testing.T) {
		config := testConfig()
		config.KeyChannel = 4
		manager := NewHardwareManager(config)
		manager.UseDevices(Devices{ADC: &ladderADC{channel: 4, level: 143, holdFor: 1}})
		if err := manager.Initialize(); err != nil {
			t.Fatalf("Failed to initialize: %v", err)
		}
		defer manager.Close()

		if key := manager.Keypad().Key(); key != KeySelect {
			t.Errorf("Expected select on channel 4, got %s", key)
		}
	})

	t.Run("Long Press", func(t *testing.T) {
		config := testConfig()
		config.LongPress = time.Millisecond
		manager := NewHardwareManager(config)
		manager.UseDevices(Devices{ADC: &ladderADC{channel: ChannelKeys, level: 88, holdFor: 20}})
		if err := manager.Initialize(); err != nil {
			t.Fatalf("Failed to initialize: %v", err)
		}
		defer manager.Close()

		if key := manager.Keypad().Key(); key != KeyLongPress {
			t.Errorf("Expected long press, got %s", key)
		}
	})
}
