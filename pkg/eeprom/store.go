package eeprom

import (
	"fmt"

	"github.com/dougsko/micro26/pkg/band"
	"github.com/dougsko/micro26/pkg/irq"
	"github.com/dougsko/micro26/pkg/logging"
)

// Tone selects the audio low-pass filter
type Tone uint8

const (
	ToneLow  Tone = 0
	ToneHigh Tone = 1
)

func (t Tone) String() string {
	if t == ToneHigh {
		return "high"
	}
	return "low"
}

// MarshalText encodes the tone setting by name
func (t Tone) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// AGC selects the AGC time constant
type AGC uint8

const (
	AGCSlow AGC = 0
	AGCFast AGC = 1
)

func (a AGC) String() string {
	if a == AGCFast {
		return "fast"
	}
	return "slow"
}

func (a AGC) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// MaxScanThreshold is the largest valid squelch threshold
const MaxScanThreshold = 100

// MemoryChannel is the decoded content of a memory slot. An empty slot
// carries the default frequency.
type MemoryChannel struct {
	Frequency band.Frequency
	Empty     bool
}

// Snapshot is everything Load recovers at boot
type Snapshot struct {
	VFO           [2]band.Frequency
	ActiveVFO     int
	Tone          Tone
	AGC           AGC
	LastMemory    int
	ScanThreshold int
	Memories      [MemorySlots]MemoryChannel
}

// Store reads and writes the layout on a device. Every access runs inside
// the interrupt section so multi-byte fields are never seen half written.
type Store struct {
	dev     Device
	section *irq.Section
}

// NewStore creates a store. A nil section gets a private one.
func NewStore(dev Device, section *irq.Section) (*Store, error) {
	if dev.Size() < LayoutSize() {
		return nil, fmt.Errorf("device of %d bytes cannot hold layout of %d bytes", dev.Size(), LayoutSize())
	}
	if section == nil {
		section = &irq.Section{}
	}
	return &Store{dev: dev, section: section}, nil
}

func (s *Store) read(f Field) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	s.section.Do(func() {
		data, err = s.dev.ReadAt(f.Offset, f.Width)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
	}
	return data, nil
}

func (s *Store) write(f Field, data []byte) error {
	if len(data) != f.Width {
		return fmt.Errorf("%s is %d bytes, got %d", f.Name, f.Width, len(data))
	}
	var err error
	s.section.Do(func() {
		err = s.dev.WriteAt(f.Offset, data)
	})
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", f.Name, err)
	}
	return nil
}

func (s *Store) readByte(f Field) (int, error) {
	data, err := s.read(f)
	if err != nil {
		return 0, err
	}
	return int(data[0]), nil
}

// Load reads every field and substitutes defaults for unusable values.
// Only an out-of-band VFO is written back; the other substitutions live in
// RAM until the operator changes the setting.
func (s *Store) Load() (Snapshot, error) {
	var snap Snapshot

	for i := 0; i < 2; i++ {
		field, _ := VFOField(i)
		data, err := s.read(field)
		if err != nil {
			return snap, err
		}
		f := decodeFrequency(data)
		if !band.Contains(f) {
			logging.With("eeprom", logging.Fields{"field": field.Name, "stored": int64(f)}).
				Warnf("out of band, using %d", int64(band.Default))
			f = band.Default
			if err := s.StoreVFO(i, f); err != nil {
				return snap, err
			}
		}
		snap.VFO[i] = f
	}

	v, err := s.readByte(FieldActiveVFO)
	if err != nil {
		return snap, err
	}
	if v <= 1 {
		snap.ActiveVFO = v
	}

	if v, err = s.readByte(FieldTone); err != nil {
		return snap, err
	}
	if v <= 1 {
		snap.Tone = Tone(v)
	}

	if v, err = s.readByte(FieldAGC); err != nil {
		return snap, err
	}
	if v <= 1 {
		snap.AGC = AGC(v)
	}

	if v, err = s.readByte(FieldLastMemory); err != nil {
		return snap, err
	}
	if v < MemorySlots {
		snap.LastMemory = v
	}

	if v, err = s.readByte(FieldScanThreshold); err != nil {
		return snap, err
	}
	if v <= MaxScanThreshold {
		snap.ScanThreshold = v
	}

	for i := 0; i < MemorySlots; i++ {
		ch, err := s.LoadMemory(i)
		if err != nil {
			return snap, err
		}
		snap.Memories[i] = ch
	}

	return snap, nil
}

// LoadMemory reads one memory slot. Out-of-band content is reported empty
// and left untouched on the device.
func (s *Store) LoadMemory(i int) (MemoryChannel, error) {
	field, err := MemoryField(i)
	if err != nil {
		return MemoryChannel{}, err
	}
	data, err := s.read(field)
	if err != nil {
		return MemoryChannel{}, err
	}
	f := decodeFrequency(data)
	if !band.Contains(f) {
		return MemoryChannel{Frequency: band.Default, Empty: true}, nil
	}
	return MemoryChannel{Frequency: f}, nil
}

// StoreVFO writes the frequency of VFO i
func (s *Store) StoreVFO(i int, f band.Frequency) error {
	field, err := VFOField(i)
	if err != nil {
		return err
	}
	return s.write(field, encodeFrequency(f))
}

// StoreMemory writes the frequency of memory slot i
func (s *Store) StoreMemory(i int, f band.Frequency) error {
	field, err := MemoryField(i)
	if err != nil {
		return err
	}
	return s.write(field, encodeFrequency(f))
}

// StoreActiveVFO records which VFO is in use
func (s *Store) StoreActiveVFO(i int) error {
	if i < 0 || i > 1 {
		return fmt.Errorf("vfo index %d out of range", i)
	}
	return s.write(FieldActiveVFO, []byte{byte(i)})
}

// StoreTone records the tone filter setting
func (s *Store) StoreTone(t Tone) error {
	if t > ToneHigh {
		return fmt.Errorf("tone %d out of range", t)
	}
	return s.write(FieldTone, []byte{byte(t)})
}

// StoreAGC records the AGC setting
func (s *Store) StoreAGC(a AGC) error {
	if a > AGCFast {
		return fmt.Errorf("agc %d out of range", a)
	}
	return s.write(FieldAGC, []byte{byte(a)})
}

// StoreLastMemory records the last memory slot used
func (s *Store) StoreLastMemory(i int) error {
	if i < 0 || i >= MemorySlots {
		return fmt.Errorf("memory slot %d out of range", i)
	}
	return s.write(FieldLastMemory, []byte{byte(i)})
}

// StoreScanThreshold records the scan squelch threshold
func (s *Store) StoreScanThreshold(v int) error {
	if v < 0 || v > MaxScanThreshold {
		return fmt.Errorf("scan threshold %d out of range 0..%d", v, MaxScanThreshold)
	}
	return s.write(FieldScanThreshold, []byte{byte(v)})
}

// Close closes the underlying device
func (s *Store) Close() error {
	return s.dev.Close()
}
