// Package eeprom persists radio settings in a fixed byte layout on a small
// non-volatile device.
package eeprom

import (
	"encoding/binary"
	"fmt"

	"github.com/dougsko/micro26/pkg/band"
)

// MemorySlots is the number of memory channels
const MemorySlots = 16

// Field is one entry of the layout. Offsets and widths are bytes.
type Field struct {
	Name   string
	Offset int
	Width  int
}

// The layout. Nothing outside this table knows an address.
var (
	FieldVFOA          = Field{Name: "vfo_a", Offset: 0, Width: 4}
	FieldVFOB          = Field{Name: "vfo_b", Offset: 4, Width: 4}
	FieldActiveVFO     = Field{Name: "active_vfo", Offset: 8, Width: 1}
	FieldTone          = Field{Name: "tone", Offset: 9, Width: 1}
	FieldAGC           = Field{Name: "agc", Offset: 10, Width: 1}
	FieldLastMemory    = Field{Name: "last_memory", Offset: 11, Width: 1}
	FieldScanThreshold = Field{Name: "scan_threshold", Offset: 12, Width: 1}
)

const memoryBase = 16

// VFOField returns the field of VFO i (0 = A, 1 = B)
func VFOField(i int) (Field, error) {
	switch i {
	case 0:
		return FieldVFOA, nil
	case 1:
		return FieldVFOB, nil
	}
	return Field{}, fmt.Errorf("vfo index %d out of range", i)
}

// MemoryField returns the field of memory slot i
func MemoryField(i int) (Field, error) {
	if i < 0 || i >= MemorySlots {
		return Field{}, fmt.Errorf("memory slot %d out of range", i)
	}
	return Field{Name: fmt.Sprintf("memory_%02d", i), Offset: memoryBase + 4*i, Width: 4}, nil
}

// Schema lists every field in address order
func Schema() []Field {
	fields := []Field{
		FieldVFOA, FieldVFOB, FieldActiveVFO, FieldTone, FieldAGC,
		FieldLastMemory, FieldScanThreshold,
	}
	for i := 0; i < MemorySlots; i++ {
		f, _ := MemoryField(i)
		fields = append(fields, f)
	}
	return fields
}

// LayoutSize is the number of bytes the layout spans
func LayoutSize() int {
	fields := Schema()
	last := fields[len(fields)-1]
	return last.Offset + last.Width
}

// encodeFrequency packs f most significant byte first
func encodeFrequency(f band.Frequency) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(f))
	return b
}

// decodeFrequency unpacks four bytes as an unsigned value, so an erased
// cell (0xFFFFFFFF) decodes far out of band
func decodeFrequency(b []byte) band.Frequency {
	return band.Frequency(binary.BigEndian.Uint32(b))
}
