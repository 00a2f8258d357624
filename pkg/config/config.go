package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// IFPreset describes one crystal filter option: its centre frequency and the
// beat oscillator settings for both sidebands (Hz).
type IFPreset struct {
	Name  string
	IF    int64
	LOUSB int64
	LOLSB int64
}

// IFPresets are the filter options the analog board has been built with.
var IFPresets = []IFPreset{
	{Name: "9MHz 9XMF24D", IF: 9000000, LOUSB: 9001700, LOLSB: 8998600},
	{Name: "10.695MHz 10M04DS", IF: 10695000, LOUSB: 10697770, LOLSB: 10691050},
	{Name: "10.7MHz 10MXF24D", IF: 10700000, LOUSB: 10702400, LOLSB: 10697800},
	{Name: "9.830MHz ladder low profile", IF: 9830000, LOUSB: 9831250, LOLSB: 9828320},
	{Name: "9.832MHz ladder NARVA", IF: 9830000, LOUSB: 9835300, LOLSB: 9831000},
	{Name: "10MHz ladder high profile", IF: 10000000, LOUSB: 9999840, LOLSB: 9994720},
}

// Config represents the micro26 configuration
type Config struct {
	Radio struct {
		IFOption int   `yaml:"if_option"`
		LOUSB    int64 `yaml:"lo_usb"`
		LOLSB    int64 `yaml:"lo_lsb"`
	} `yaml:"radio"`

	Synth struct {
		I2CAddress int    `yaml:"i2c_address"`
		Crystal    uint64 `yaml:"crystal"`
		PLLRatio   uint32 `yaml:"pll_ratio"`
	} `yaml:"synth"`

	Storage struct {
		Backend string `yaml:"backend"` // memory, file or sqlite
		Path    string `yaml:"path"`
	} `yaml:"storage"`

	Hardware struct {
		EnableGPIO     bool          `yaml:"enable_gpio"`
		GPIORoot       string        `yaml:"gpio_root"`
		TonePin        int           `yaml:"tone_pin"`
		AGCPin         int           `yaml:"agc_pin"`
		TXPin          int           `yaml:"tx_pin"`
		OLEDI2CAddress int           `yaml:"oled_i2c_address"`
		OLEDWidth      int           `yaml:"oled_width"`
		OLEDHeight     int           `yaml:"oled_height"`
		KeyChannel     int           `yaml:"key_channel"`
		KeyLevels      []int         `yaml:"key_levels"`
		KeyTolerance   int           `yaml:"key_tolerance"`
		LongPress      time.Duration `yaml:"long_press"`   // negative reports keys on contact
		EncoderPins    []int         `yaml:"encoder_pins"` // A, B; empty disables polling
		AudioSMeter    bool          `yaml:"audio_smeter"`
		AudioRate      int           `yaml:"audio_rate"`
	} `yaml:"hardware"`

	API struct {
		UnixSocket string `yaml:"unix_socket"`
	} `yaml:"api"`

	Web struct {
		Enabled     bool   `yaml:"enabled"`
		Port        int    `yaml:"port"`
		BindAddress string `yaml:"bind_address"`
	} `yaml:"web"`

	Logging struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		Console    bool   `yaml:"console"`
		Structured bool   `yaml:"structured"`
		MaxSize    int    `yaml:"max_size"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAge     int    `yaml:"max_age"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"logging"`
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.ApplyDefaults()
	return &config, nil
}

// Default returns a configuration with every default applied
func Default() *Config {
	var config Config
	config.ApplyDefaults()
	return &config
}

// ApplyDefaults fills in unset values
func (c *Config) ApplyDefaults() {
	if c.Synth.I2CAddress == 0 {
		c.Synth.I2CAddress = 0xC0
	}
	if c.Synth.Crystal == 0 {
		c.Synth.Crystal = 25000000
	}
	if c.Synth.PLLRatio == 0 {
		c.Synth.PLLRatio = 36
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "file"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "./micro26.eeprom"
	}
	if c.Hardware.GPIORoot == "" {
		c.Hardware.GPIORoot = "/sys/class/gpio"
	}
	if c.Hardware.TonePin == 0 {
		c.Hardware.TonePin = 10
	}
	if c.Hardware.AGCPin == 0 {
		c.Hardware.AGCPin = 9
	}
	if c.Hardware.OLEDI2CAddress == 0 {
		c.Hardware.OLEDI2CAddress = 0x78
	}
	if c.Hardware.OLEDWidth == 0 {
		c.Hardware.OLEDWidth = 128
	}
	if c.Hardware.OLEDHeight == 0 {
		c.Hardware.OLEDHeight = 64
	}
	if len(c.Hardware.KeyLevels) == 0 {
		c.Hardware.KeyLevels = []int{88, 143}
	}
	if c.Hardware.KeyTolerance == 0 {
		c.Hardware.KeyTolerance = 10
	}
	if c.Hardware.LongPress == 0 {
		c.Hardware.LongPress = 2 * time.Second
	}
	if c.Hardware.AudioRate == 0 {
		c.Hardware.AudioRate = 8000
	}
	if c.API.UnixSocket == "" {
		c.API.UnixSocket = "/tmp/micro26.sock"
	}
	if c.Web.Port == 0 {
		c.Web.Port = 8026
	}
	if c.Web.BindAddress == "" {
		c.Web.BindAddress = "127.0.0.1"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.MaxSize == 0 {
		c.Logging.MaxSize = 10
	}
	if c.Logging.MaxBackups == 0 {
		c.Logging.MaxBackups = 3
	}
	if c.Logging.MaxAge == 0 {
		c.Logging.MaxAge = 28
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Radio.IFOption < 0 || c.Radio.IFOption >= len(IFPresets) {
		return fmt.Errorf("if_option %d out of range 0..%d", c.Radio.IFOption, len(IFPresets)-1)
	}
	switch c.Storage.Backend {
	case "memory", "file", "sqlite":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.Backend != "memory" && c.Storage.Path == "" {
		return fmt.Errorf("storage path is required for backend %s", c.Storage.Backend)
	}
	if c.Synth.I2CAddress < 0 || c.Synth.I2CAddress > 0xFF {
		return fmt.Errorf("synth i2c_address 0x%x out of range", c.Synth.I2CAddress)
	}
	if c.Synth.PLLRatio < 15 || c.Synth.PLLRatio > 90 {
		return fmt.Errorf("synth pll_ratio %d out of range 15..90", c.Synth.PLLRatio)
	}
	if c.Hardware.KeyChannel < 0 || c.Hardware.KeyChannel > 7 {
		return fmt.Errorf("key_channel %d out of range 0..7", c.Hardware.KeyChannel)
	}
	if n := len(c.Hardware.EncoderPins); n != 0 && n != 2 {
		return fmt.Errorf("encoder_pins needs two pins, got %d", n)
	}
	if c.Web.Enabled && (c.Web.Port <= 0 || c.Web.Port > 65535) {
		return fmt.Errorf("web port %d out of range", c.Web.Port)
	}
	return nil
}

// IF returns the selected filter preset with any beat oscillator overrides
// applied.
func (c *Config) IF() IFPreset {
	preset := IFPresets[c.Radio.IFOption]
	if c.Radio.LOUSB != 0 {
		preset.LOUSB = c.Radio.LOUSB
	}
	if c.Radio.LOLSB != 0 {
		preset.LOLSB = c.Radio.LOLSB
	}
	return preset
}
