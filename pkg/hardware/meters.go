package hardware

// ADC channel assignments on the control board
const (
	ChannelKeys        = 0
	ChannelSignal      = 1
	ChannelSupply      = 2
	ChannelForward     = 3
	ChannelTemperature = 6
)

// SValue converts the AGC voltage reading to meter pixels
func SValue(adc int) int {
	return (adc >> 2) + (adc >> 3)
}

// TXPower converts the forward power detector reading to meter pixels
func TXPower(adc int) int {
	return adc << 1
}

// SupplyTenths converts the supply divider reading to tenths of a volt
func SupplyTenths(adc int) int {
	return int(float64(adc) * 5 / 1024 * 5 * 10)
}

// Temperature converts the PA thermistor divider reading to degrees C.
// Readings at the rails have no meaningful value and report 0.
func Temperature(adc int) int {
	ux := float64(5*adc) / 1023
	if ux <= 0 || ux >= 5 {
		return 0
	}
	rx := 3000 / (5/ux - 1)
	return int((rx - 1630) / 17.62)
}

// MeterReader reads the analog meters through an ADC
type MeterReader struct {
	adc ADC
}

// NewMeterReader wraps an ADC
func NewMeterReader(adc ADC) *MeterReader {
	return &MeterReader{adc: adc}
}

// SignalStrength returns the S-meter value
func (m *MeterReader) SignalStrength() int {
	v, err := m.adc.Read(ChannelSignal)
	if err != nil {
		return 0
	}
	return SValue(v)
}

// ForwardPower returns the TX power meter value
func (m *MeterReader) ForwardPower() int {
	v, err := m.adc.Read(ChannelForward)
	if err != nil {
		return 0
	}
	return TXPower(v)
}

// Supply returns the supply voltage in tenths of a volt
func (m *MeterReader) Supply() (int, error) {
	v, err := m.adc.Read(ChannelSupply)
	if err != nil {
		return 0, err
	}
	return SupplyTenths(v), nil
}

// PATemperature returns the PA temperature in degrees C
func (m *MeterReader) PATemperature() (int, error) {
	v, err := m.adc.Read(ChannelTemperature)
	if err != nil {
		return 0, err
	}
	return Temperature(v), nil
}
