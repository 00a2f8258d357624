// Package band holds the frequency type and the limits of the one band the
// radio covers.
package band

import (
	"fmt"
	"strings"
)

// Frequency is a dial frequency in Hz
type Frequency int64

const (
	// Low and High bound the band, inclusive.
	Low  Frequency = 13999990
	High Frequency = 14400000
	// Default is used whenever a stored value is unusable.
	Default Frequency = 14200000
	// ScanStep is the increment of a VFO range scan.
	ScanStep Frequency = 10
)

// Contains reports whether f lies inside the band
func Contains(f Frequency) bool {
	return f >= Low && f <= High
}

// OrDefault returns f if it is in band, otherwise Default
func OrDefault(f Frequency) Frequency {
	if Contains(f) {
		return f
	}
	return Default
}

// String formats as kHz with 10 Hz resolution, the way the panel shows it
func (f Frequency) String() string {
	sign := ""
	if f < 0 {
		sign = "-"
		f = -f
	}
	return fmt.Sprintf("%s%d.%02d", sign, f/1000, (f%1000)/10)
}

// Sideband selects which beat oscillator frequency is used
type Sideband int

const (
	USB Sideband = 0
	LSB Sideband = 1
)

func (s Sideband) String() string {
	if s == LSB {
		return "LSB"
	}
	return "USB"
}

// ParseSideband accepts "usb" or "lsb" in any case
func ParseSideband(s string) (Sideband, bool) {
	switch strings.ToUpper(s) {
	case "USB":
		return USB, true
	case "LSB":
		return LSB, true
	}
	return USB, false
}

// MarshalText encodes the sideband by name
func (s Sideband) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
