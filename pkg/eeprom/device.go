package eeprom

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DefaultSize matches the 1 KiB EEPROM of the control board
const DefaultSize = 1024

// Erased is the value of a never-written cell
const Erased = 0xFF

// Device is byte-addressable non-volatile storage
type Device interface {
	ReadAt(offset, n int) ([]byte, error)
	WriteAt(offset int, data []byte) error
	Size() int
	Close() error
}

func checkRange(d Device, offset, n int) error {
	if offset < 0 || n < 0 || offset+n > d.Size() {
		return fmt.Errorf("range %d+%d outside device of %d bytes", offset, n, d.Size())
	}
	return nil
}

// MemoryDevice keeps the image in RAM
type MemoryDevice struct {
	mu   sync.Mutex
	data []byte
}

// NewMemoryDevice creates an erased device of size bytes
func NewMemoryDevice(size int) *MemoryDevice {
	if size <= 0 {
		size = DefaultSize
	}
	data := make([]byte, size)
	for i := range data {
		data[i] = Erased
	}
	return &MemoryDevice{data: data}
}

// ReadAt reads n bytes
func (m *MemoryDevice) ReadAt(offset, n int) ([]byte, error) {
	if err := checkRange(m, offset, n); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data[offset:offset+n]...), nil
}

// WriteAt writes data
func (m *MemoryDevice) WriteAt(offset int, data []byte) error {
	if err := checkRange(m, offset, len(data)); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy(m.data[offset:], data)
	return nil
}

// Size returns the capacity in bytes
func (m *MemoryDevice) Size() int {
	return len(m.data)
}

// Close is a no-op
func (m *MemoryDevice) Close() error {
	return nil
}

// FileDevice keeps the image in a file, one byte per cell
type FileDevice struct {
	mu   sync.Mutex
	file *os.File
	size int
}

// OpenFileDevice opens path, creating an erased image if it does not exist
func OpenFileDevice(path string, size int) (*FileDevice, error) {
	if size <= 0 {
		size = DefaultSize
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open eeprom image: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat eeprom image: %w", err)
	}

	// Pad short or new images with erased cells
	if info.Size() < int64(size) {
		pad := make([]byte, int64(size)-info.Size())
		for i := range pad {
			pad[i] = Erased
		}
		if _, err := f.WriteAt(pad, info.Size()); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to initialize eeprom image: %w", err)
		}
	}

	return &FileDevice{file: f, size: size}, nil
}

// ReadAt reads n bytes
func (d *FileDevice) ReadAt(offset, n int) ([]byte, error) {
	if err := checkRange(d, offset, n); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	buf := make([]byte, n)
	if _, err := d.file.ReadAt(buf, int64(offset)); err != nil {
		return nil, fmt.Errorf("failed to read eeprom image: %w", err)
	}
	return buf, nil
}

// WriteAt writes data and syncs it to disk
func (d *FileDevice) WriteAt(offset int, data []byte) error {
	if err := checkRange(d, offset, len(data)); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.file.WriteAt(data, int64(offset)); err != nil {
		return fmt.Errorf("failed to write eeprom image: %w", err)
	}
	return d.file.Sync()
}

// Size returns the capacity in bytes
func (d *FileDevice) Size() int {
	return d.size
}

// Close closes the image file
func (d *FileDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.file.Close()
}

// Open returns the device for a storage backend: memory, file or sqlite
func Open(backend, path string) (Device, error) {
	switch backend {
	case "memory":
		return NewMemoryDevice(DefaultSize), nil
	case "file":
		return OpenFileDevice(path, DefaultSize)
	case "sqlite":
		return OpenSQLiteDevice(path, DefaultSize)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
