package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	// Create a temporary directory for test files
	tempDir, err := os.MkdirTemp("", "micro26-config-test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	t.Run("Valid Config", func(t *testing.T) {
		configContent := `
radio:
  if_option: 2
  lo_usb: 10702500

synth:
  i2c_address: 0xC0
  crystal: 27000000
  pll_ratio: 32

storage:
  backend: "sqlite"
  path: "/tmp/micro26.db"

hardware:
  enable_gpio: true
  tone_pin: 18
  agc_pin: 23
  key_levels: [90, 150]
  key_channel: 4
  long_press: 1500ms

web:
  enabled: true
  port: 8080
  bind_address: "0.0.0.0"

logging:
  level: "debug"
  file: "/var/log/micro26.log"
  console: true
`
		configPath := filepath.Join(tempDir, "valid.yaml")
		if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
			t.Fatalf("Failed to write config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}

		if config.Radio.IFOption != 2 {
			t.Errorf("Expected if_option 2, got %d", config.Radio.IFOption)
		}
		if config.Synth.Crystal != 27000000 {
			t.Errorf("Expected crystal 27000000, got %d", config.Synth.Crystal)
		}
		if config.Synth.PLLRatio != 32 {
			t.Errorf("Expected pll ratio 32, got %d", config.Synth.PLLRatio)
		}
		if config.Storage.Backend != "sqlite" {
			t.Errorf("Expected storage backend sqlite, got %s", config.Storage.Backend)
		}
		if config.Hardware.TonePin != 18 || config.Hardware.AGCPin != 23 {
			t.Errorf("Expected tone/agc pins 18/23, got %d/%d", config.Hardware.TonePin, config.Hardware.AGCPin)
		}
		if len(config.Hardware.KeyLevels) != 2 || config.Hardware.KeyLevels[1] != 150 {
			t.Errorf("Expected key levels [90 150], got %v", config.Hardware.KeyLevels)
		}
		if config.Hardware.KeyChannel != 4 {
			t.Errorf("Expected key channel 4, got %d", config.Hardware.KeyChannel)
		}
		if config.Hardware.LongPress != 1500*time.Millisecond {
			t.Errorf("Expected long press 1.5s, got %v", config.Hardware.LongPress)
		}
		if config.Web.Port != 8080 {
			t.Errorf("Expected web port 8080, got %d", config.Web.Port)
		}
		if config.Logging.Level != "debug" {
			t.Errorf("Expected log level debug, got %s", config.Logging.Level)
		}

		preset := config.IF()
		if preset.IF != 10700000 {
			t.Errorf("Expected IF 10700000, got %d", preset.IF)
		}
		if preset.LOUSB != 10702500 {
			t.Errorf("Expected USB override 10702500, got %d", preset.LOUSB)
		}
		if preset.LOLSB != 10697800 {
			t.Errorf("Expected preset LSB 10697800, got %d", preset.LOLSB)
		}
	})

	t.Run("Config With Defaults", func(t *testing.T) {
		configContent := `
radio:
  if_option: 0
`
		configPath := filepath.Join(tempDir, "minimal.yaml")
		if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
			t.Fatalf("Failed to write config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}

		if config.Synth.I2CAddress != 0xC0 {
			t.Errorf("Expected default synth address 0xC0, got 0x%x", config.Synth.I2CAddress)
		}
		if config.Synth.Crystal != 25000000 {
			t.Errorf("Expected default crystal 25000000, got %d", config.Synth.Crystal)
		}
		if config.Synth.PLLRatio != 36 {
			t.Errorf("Expected default pll ratio 36, got %d", config.Synth.PLLRatio)
		}
		if config.Storage.Backend != "file" {
			t.Errorf("Expected default storage backend file, got %s", config.Storage.Backend)
		}
		if config.API.UnixSocket != "/tmp/micro26.sock" {
			t.Errorf("Expected default socket /tmp/micro26.sock, got %s", config.API.UnixSocket)
		}
		if config.Hardware.LongPress != 2*time.Second {
			t.Errorf("Expected default long press 2s, got %v", config.Hardware.LongPress)
		}
		if config.Logging.Level != "info" {
			t.Errorf("Expected default log level info, got %s", config.Logging.Level)
		}

		preset := config.IF()
		if preset.IF != 9000000 || preset.LOUSB != 9001700 || preset.LOLSB != 8998600 {
			t.Errorf("Expected 9MHz preset, got %+v", preset)
		}
	})

	t.Run("File Not Found", func(t *testing.T) {
		_, err := LoadConfig("/nonexistent/path/config.yaml")
		if err == nil {
			t.Fatal("Expected error for nonexistent file, got nil")
		}
		if !strings.Contains(err.Error(), "failed to read config file") {
			t.Errorf("Expected 'failed to read config file' error, got: %v", err)
		}
	})

	t.Run("Invalid YAML", func(t *testing.T) {
		configContent := `
radio:
  if_option: [invalid yaml structure
`
		configPath := filepath.Join(tempDir, "invalid.yaml")
		if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
			t.Fatalf("Failed to write config file: %v", err)
		}

		_, err := LoadConfig(configPath)
		if err == nil {
			t.Fatal("Expected error for invalid YAML, got nil")
		}
		if !strings.Contains(err.Error(), "failed to parse config file") {
			t.Errorf("Expected 'failed to parse config file' error, got: %v", err)
		}
	})

	t.Run("Empty File", func(t *testing.T) {
		configPath := filepath.Join(tempDir, "empty.yaml")
		if err := os.WriteFile(configPath, []byte(""), 0644); err != nil {
			t.Fatalf("Failed to write empty config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("Expected no error for empty file, got: %v", err)
		}
		if err := config.Validate(); err != nil {
			t.Errorf("Expected defaults to validate, got: %v", err)
		}
	})
}

func TestValidate(t *testing.T) {
	t.Run("Defaults Valid", func(t *testing.T) {
		if err := Default().Validate(); err != nil {
			t.Errorf("Expected no error for default config, got: %v", err)
		}
	})

	t.Run("IF Option Out Of Range", func(t *testing.T) {
		config := Default()
		config.Radio.IFOption = len(IFPresets)

		err := config.Validate()
		if err == nil {
			t.Fatal("Expected error for if_option out of range, got nil")
		}
		if !strings.Contains(err.Error(), "if_option") {
			t.Errorf("Expected if_option error, got: %v", err)
		}
	})

	t.Run("Unknown Storage Backend", func(t *testing.T) {
		config := Default()
		config.Storage.Backend = "flash"

		err := config.Validate()
		if err == nil {
			t.Fatal("Expected error for unknown backend, got nil")
		}
		if !strings.Contains(err.Error(), "unknown storage backend") {
			t.Errorf("Expected backend error, got: %v", err)
		}
	})

	t.Run("Memory Backend Without Path", func(t *testing.T) {
		config := Default()
		config.Storage.Backend = "memory"
		config.Storage.Path = ""

		if err := config.Validate(); err != nil {
			t.Errorf("Expected memory backend without path to be valid, got: %v", err)
		}
	})

	t.Run("PLL Ratio Out Of Range", func(t *testing.T) {
		config := Default()
		config.Synth.PLLRatio = 100

		if err := config.Validate(); err == nil {
			t.Error("Expected error for pll ratio 100, got nil")
		}
	})

	t.Run("Web Port Out Of Range", func(t *testing.T) {
		config := Default()
		config.Web.Enabled = true
		config.Web.Port = 70000

		if err := config.Validate(); err == nil {
			t.Error("Expected error for web port 70000, got nil")
		}
	})

	t.Run("Key Channel Out Of Range", func(t *testing.T) {
		config := Default()
		config.Hardware.KeyChannel = 8

		if err := config.Validate(); err == nil {
			t.Error("Expected error for key_channel 8, got nil")
		}
	})

	t.Run("Encoder Needs Two Pins", func(t *testing.T) {
		config := Default()
		config.Hardware.EncoderPins = []int{17}

		if err := config.Validate(); err == nil {
			t.Error("Expected error for a single encoder pin, got nil")
		}

		config.Hardware.EncoderPins = []int{17, 27}
		if err := config.Validate(); err != nil {
			t.Errorf("Expected two encoder pins to be valid, got %v", err)
		}
	})
}
