package eeprom

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dougsko/micro26/pkg/band"
	"github.com/dougsko/micro26/pkg/irq"
)

// countingDevice records the offsets of every write
type countingDevice struct {
	Device
	writes []int
	fail   error
}

func (c *countingDevice) WriteAt(offset int, data []byte) error {
	if c.fail != nil {
		return c.fail
	}
	c.writes = append(c.writes, offset)
	return c.Device.WriteAt(offset, data)
}

func (c *countingDevice) ReadAt(offset, n int) ([]byte, error) {
	if c.fail != nil {
		return nil, c.fail
	}
	return c.Device.ReadAt(offset, n)
}

func newStore(t *testing.T, dev Device) *Store {
	store, err := NewStore(dev, &irq.Section{})
	require.NoError(t, err)
	return store
}

func TestSchema(t *testing.T) {
	assert.Equal(t, 0, FieldVFOA.Offset)
	assert.Equal(t, 4, FieldVFOB.Offset)
	assert.Equal(t, 8, FieldActiveVFO.Offset)
	assert.Equal(t, 12, FieldScanThreshold.Offset)

	m15, err := MemoryField(15)
	require.NoError(t, err)
	assert.Equal(t, 76, m15.Offset)
	assert.Equal(t, 80, LayoutSize())

	_, err = MemoryField(16)
	assert.Error(t, err)
	_, err = VFOField(2)
	assert.Error(t, err)

	// No two fields overlap
	used := make(map[int]string)
	for _, f := range Schema() {
		for b := f.Offset; b < f.Offset+f.Width; b++ {
			if other, ok := used[b]; ok {
				t.Fatalf("byte %d used by %s and %s", b, other, f.Name)
			}
			used[b] = f.Name
		}
	}
}

func TestFrequencyCodec(t *testing.T) {
	assert.Equal(t, []byte{0x00, 0xD8, 0xAC, 0xC0}, encodeFrequency(14200000))
	assert.Equal(t, band.Frequency(14200000), decodeFrequency([]byte{0x00, 0xD8, 0xAC, 0xC0}))
	assert.Equal(t, band.Frequency(0xFFFFFFFF), decodeFrequency([]byte{0xFF, 0xFF, 0xFF, 0xFF}))
}

func TestLoadErasedDevice(t *testing.T) {
	dev := &countingDevice{Device: NewMemoryDevice(DefaultSize)}
	store := newStore(t, dev)

	snap, err := store.Load()
	require.NoError(t, err)

	assert.Equal(t, [2]band.Frequency{band.Default, band.Default}, snap.VFO)
	assert.Equal(t, 0, snap.ActiveVFO)
	assert.Equal(t, ToneLow, snap.Tone)
	assert.Equal(t, AGCSlow, snap.AGC)
	assert.Equal(t, 0, snap.LastMemory)
	assert.Equal(t, 0, snap.ScanThreshold)
	for i, ch := range snap.Memories {
		assert.True(t, ch.Empty, "slot %d", i)
		assert.Equal(t, band.Default, ch.Frequency)
	}

	// Only the two VFO slots were written back
	assert.Equal(t, []int{FieldVFOA.Offset, FieldVFOB.Offset}, dev.writes)

	raw, err := dev.ReadAt(FieldVFOA.Offset, 4)
	require.NoError(t, err)
	assert.Equal(t, encodeFrequency(band.Default), raw)

	raw, err = dev.ReadAt(FieldTone.Offset, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{Erased}, raw)

	m0, _ := MemoryField(0)
	raw, err = dev.ReadAt(m0.Offset, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{Erased, Erased, Erased, Erased}, raw)
}

func TestLoadSubstitution(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		raw   []byte
		check func(t *testing.T, s Snapshot)
	}{
		{"VFO Below Band", FieldVFOB, encodeFrequency(band.Low - 1), func(t *testing.T, s Snapshot) {
			assert.Equal(t, band.Default, s.VFO[1])
		}},
		{"VFO At Low Edge", FieldVFOA, encodeFrequency(band.Low), func(t *testing.T, s Snapshot) {
			assert.Equal(t, band.Low, s.VFO[0])
		}},
		{"Active VFO 2", FieldActiveVFO, []byte{2}, func(t *testing.T, s Snapshot) {
			assert.Equal(t, 0, s.ActiveVFO)
		}},
		{"Active VFO 1", FieldActiveVFO, []byte{1}, func(t *testing.T, s Snapshot) {
			assert.Equal(t, 1, s.ActiveVFO)
		}},
		{"Tone 7", FieldTone, []byte{7}, func(t *testing.T, s Snapshot) {
			assert.Equal(t, ToneLow, s.Tone)
		}},
		{"AGC Fast", FieldAGC, []byte{1}, func(t *testing.T, s Snapshot) {
			assert.Equal(t, AGCFast, s.AGC)
		}},
		{"Last Memory 16", FieldLastMemory, []byte{16}, func(t *testing.T, s Snapshot) {
			assert.Equal(t, 0, s.LastMemory)
		}},
		{"Last Memory 15", FieldLastMemory, []byte{15}, func(t *testing.T, s Snapshot) {
			assert.Equal(t, 15, s.LastMemory)
		}},
		{"Threshold 101", FieldScanThreshold, []byte{101}, func(t *testing.T, s Snapshot) {
			assert.Equal(t, 0, s.ScanThreshold)
		}},
		{"Threshold 100", FieldScanThreshold, []byte{100}, func(t *testing.T, s Snapshot) {
			assert.Equal(t, 100, s.ScanThreshold)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := NewMemoryDevice(DefaultSize)
			require.NoError(t, mem.WriteAt(tt.field.Offset, tt.raw))

			snap, err := newStore(t, mem).Load()
			require.NoError(t, err)
			tt.check(t, snap)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	store := newStore(t, NewMemoryDevice(DefaultSize))

	for _, f := range []band.Frequency{band.Low, 14074000, 14285510, band.High} {
		require.NoError(t, store.StoreVFO(1, f))
		require.NoError(t, store.StoreMemory(7, f))

		snap, err := store.Load()
		require.NoError(t, err)
		assert.Equal(t, f, snap.VFO[1])
		assert.Equal(t, MemoryChannel{Frequency: f}, snap.Memories[7])
	}

	require.NoError(t, store.StoreActiveVFO(1))
	require.NoError(t, store.StoreTone(ToneHigh))
	require.NoError(t, store.StoreAGC(AGCFast))
	require.NoError(t, store.StoreLastMemory(9))
	require.NoError(t, store.StoreScanThreshold(42))

	snap, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 1, snap.ActiveVFO)
	assert.Equal(t, ToneHigh, snap.Tone)
	assert.Equal(t, AGCFast, snap.AGC)
	assert.Equal(t, 9, snap.LastMemory)
	assert.Equal(t, 42, snap.ScanThreshold)
}

func TestStoreRejectsBadArguments(t *testing.T) {
	store := newStore(t, NewMemoryDevice(DefaultSize))

	assert.Error(t, store.StoreVFO(2, band.Default))
	assert.Error(t, store.StoreMemory(-1, band.Default))
	assert.Error(t, store.StoreActiveVFO(3))
	assert.Error(t, store.StoreTone(Tone(2)))
	assert.Error(t, store.StoreAGC(AGC(5)))
	assert.Error(t, store.StoreLastMemory(16))
	assert.Error(t, store.StoreScanThreshold(101))
	_, err := store.LoadMemory(16)
	assert.Error(t, err)
}

func TestStoreDeviceErrors(t *testing.T) {
	dev := &countingDevice{Device: NewMemoryDevice(DefaultSize), fail: errors.New("bus timeout")}
	store := newStore(t, dev)

	_, err := store.Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "vfo_a")

	err = store.StoreTone(ToneHigh)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "bus timeout")
}

func TestNewStoreTooSmall(t *testing.T) {
	_, err := NewStore(NewMemoryDevice(64), nil)
	assert.Error(t, err)
}

func TestFileDevice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "micro26.eeprom")

	dev, err := OpenFileDevice(path, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultSize, dev.Size())

	raw, err := dev.ReadAt(1000, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{Erased, Erased, Erased, Erased}, raw)

	store := newStore(t, dev)
	require.NoError(t, store.StoreMemory(3, 14123450))
	require.NoError(t, store.Close())

	reopened, err := OpenFileDevice(path, 0)
	require.NoError(t, err)
	defer reopened.Close()

	ch, err := newStore(t, reopened).LoadMemory(3)
	require.NoError(t, err)
	assert.Equal(t, MemoryChannel{Frequency: 14123450}, ch)

	_, err = reopened.ReadAt(1022, 4)
	assert.Error(t, err)
}

func TestSQLiteDevice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "micro26.db")

	dev, err := OpenSQLiteDevice(path, 0)
	require.NoError(t, err)

	raw, err := dev.ReadAt(0, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte{Erased, Erased, Erased}, raw)

	store := newStore(t, dev)
	_, err = store.Load()
	require.NoError(t, err)
	require.NoError(t, store.StoreVFO(0, 14250000))
	require.NoError(t, store.StoreScanThreshold(55))
	require.NoError(t, store.Close())

	reopened, err := OpenSQLiteDevice(path, 0)
	require.NoError(t, err)
	defer reopened.Close()

	snap, err := newStore(t, reopened).Load()
	require.NoError(t, err)
	assert.Equal(t, band.Frequency(14250000), snap.VFO[0])
	assert.Equal(t, band.Default, snap.VFO[1])
	assert.Equal(t, 55, snap.ScanThreshold)
	assert.True(t, snap.Memories[0].Empty)
}

func TestOpenBackend(t *testing.T) {
	dir := t.TempDir()

	for _, backend := range []string{"memory", "file", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			dev, err := Open(backend, filepath.Join(dir, backend+".img"))
			require.NoError(t, err)
			defer dev.Close()
			assert.Equal(t, DefaultSize, dev.Size())
		})
	}

	_, err := Open("flash", "")
	assert.Error(t, err)
}
