package hardware

import (
	"fmt"
	"log"
	"strings"
	"sync"
)

// MockGPIO implements GPIOInterface for testing
type MockGPIO struct {
	pins     map[int]bool
	released map[int]bool
	mu       sync.RWMutex
}

// NewMockGPIO creates a new mock GPIO interface
func NewMockGPIO() *MockGPIO {
	return &MockGPIO{
		pins:     make(map[int]bool),
		released: make(map[int]bool),
	}
}

// Initialize initializes the mock GPIO
func (g *MockGPIO) Initialize() error {
	log.Printf("MockGPIO: Initialized")
	return nil
}

// Close closes the mock GPIO
func (g *MockGPIO) Close() error {
	log.Printf("MockGPIO: Closed")
	return nil
}

// SetPin sets a GPIO pin value
func (g *MockGPIO) SetPin(pin int, value bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.pins[pin] = value
	g.released[pin] = false
	return nil
}

// GetPin gets a GPIO pin value
func (g *MockGPIO) GetPin(pin int) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.pins[pin], nil
}

// Release marks the pin as floating. A released pin reads high, like the
// pulled-up inputs on the board.
func (g *MockGPIO) Release(pin int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.released[pin] = true
	g.pins[pin] = true
	return nil
}

// IsReleased reports whether the pin was last released rather than driven
func (g *MockGPIO) IsReleased(pin int) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.released[pin]
}

// MockDisplay implements Display as a character grid
type MockDisplay struct {
	cols     int
	rows     int
	grid     [][]rune
	inverted [][]bool
	bars     [][]byte
	clears   int
	mu       sync.RWMutex
}

// NewMockDisplay creates a grid of cols x rows character cells
func NewMockDisplay(cols, rows int) *MockDisplay {
	if cols <= 0 {
		cols = 21
	}
	if rows <= 0 {
		rows = 8
	}
	d := &MockDisplay{cols: cols, rows: rows}
	d.reset()
	return d
}

func (d *MockDisplay) reset() {
	d.grid = make([][]rune, d.rows)
	d.inverted = make([][]bool, d.rows)
	d.bars = make([][]byte, d.rows)
	for r := 0; r < d.rows; r++ {
		d.grid[r] = []rune(strings.Repeat(" ", d.cols))
		d.inverted[r] = make([]bool, d.cols)
		d.bars[r] = make([]byte, d.cols*FontWidth)
	}
}

// Initialize initializes the mock display
func (d *MockDisplay) Initialize() error {
	log.Printf("MockDisplay: Initialized (%dx%d cells)", d.cols, d.rows)
	return nil
}

// Close closes the mock display
func (d *MockDisplay) Close() error {
	log.Printf("MockDisplay: Closed")
	return nil
}

// Clear blanks the grid and all bars
func (d *MockDisplay) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.reset()
	d.clears++
	return nil
}

// DrawText writes text at a cell position, clipping at the right edge
func (d *MockDisplay) DrawText(col, row int, text string, inverted bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if row < 0 || row >= d.rows {
		return fmt.Errorf("row %d out of range", row)
	}
	if col < 0 || col >= d.cols {
		return fmt.Errorf("column %d out of range", col)
	}

	for i, ch := range []rune(text) {
		c := col + i
		if c >= d.cols {
			break
		}
		d.grid[row][c] = ch
		d.inverted[row][c] = inverted
	}
	return nil
}

// DrawBar fills pixel columns [from, to) of a row
func (d *MockDisplay) DrawBar(from, to, row int, pattern byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if row < 0 || row >= d.rows {
		return fmt.Errorf("row %d out of range", row)
	}
	width := len(d.bars[row])
	if from < 0 {
		from = 0
	}
	if to > width {
		to = width
	}
	for x := from; x < to; x++ {
		d.bars[row][x] = pattern
	}
	return nil
}

// Columns returns the grid width in cells
func (d *MockDisplay) Columns() int {
	return d.cols
}

// Rows returns the grid height in cells
func (d *MockDisplay) Rows() int {
	return d.rows
}

// Line returns the text of one row with trailing spaces trimmed
func (d *MockDisplay) Line(row int) string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if row < 0 || row >= d.rows {
		return ""
	}
	return strings.TrimRight(string(d.grid[row]), " ")
}

// Inverted reports whether the cell was drawn inverted
func (d *MockDisplay) Inverted(col, row int) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if row < 0 || row >= d.rows || col < 0 || col >= d.cols {
		return false
	}
	return d.inverted[row][col]
}

// BarLength returns the number of filled pixel columns at the start of a row
func (d *MockDisplay) BarLength(row int) int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if row < 0 || row >= d.rows {
		return 0
	}
	n := 0
	for _, b := range d.bars[row] {
		if b == 0 {
			break
		}
		n++
	}
	return n
}

// Clears returns how many times the display was cleared
func (d *MockDisplay) Clears() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.clears
}

// MockADC implements ADC with settable channel values
type MockADC struct {
	values map[int]int
	errs   map[int]error
	mu     sync.RWMutex
}

// NewMockADC creates a mock ADC reading 0 on every channel
func NewMockADC() *MockADC {
	return &MockADC{
		values: make(map[int]int),
		errs:   make(map[int]error),
	}
}

// Set sets the value a channel reads
func (a *MockADC) Set(channel, value int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.values[channel] = value
}

// Fail makes a channel return err
func (a *MockADC) Fail(channel int, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.errs[channel] = err
}

// Read returns the channel value
func (a *MockADC) Read(channel int) (int, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if err := a.errs[channel]; err != nil {
		return 0, err
	}
	return a.values[channel], nil
}

// BusWrite is one recorded bus transaction
type BusWrite struct {
	Addr byte
	Data []byte
}

// MockBus implements Bus by recording every write
type MockBus struct {
	writes []BusWrite
	err    error
	mu     sync.Mutex
}

// NewMockBus creates a recording bus
func NewMockBus() *MockBus {
	return &MockBus{}
}

// Write records the transaction
func (b *MockBus) Write(addr byte, data ...byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.err != nil {
		return b.err
	}
	b.writes = append(b.writes, BusWrite{Addr: addr, Data: append([]byte(nil), data...)})
	return nil
}

// Fail makes subsequent writes return err
func (b *MockBus) Fail(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.err = err
}

// Writes returns a copy of the recorded transactions
func (b *MockBus) Writes() []BusWrite {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]BusWrite, len(b.writes))
	copy(out, b.writes)
	return out
}

// Registers replays register writes (first data byte is the register) into
// a register map
func (b *MockBus) Registers() map[byte]byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	regs := make(map[byte]byte)
	for _, w := range b.writes {
		if len(w.Data) < 2 {
			continue
		}
		for i, v := range w.Data[1:] {
			regs[w.Data[0]+byte(i)] = v
		}
	}
	return regs
}

// Reset forgets recorded writes
func (b *MockBus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writes = nil
}

// MockKeypad implements Keypad from a script of key reads followed by
// injected presses
type MockKeypad struct {
	script  []Key
	pressed []Key
	tx      bool
	reads   int
	mu      sync.Mutex
}

// NewMockKeypad creates a keypad that returns script one read at a time
func NewMockKeypad(script ...Key) *MockKeypad {
	return &MockKeypad{script: script}
}

// Key returns the next scripted key, then any injected press, then KeyNone
func (k *MockKeypad) Key() Key {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.reads++
	if len(k.script) > 0 {
		key := k.script[0]
		k.script = k.script[1:]
		return key
	}
	if len(k.pressed) > 0 {
		key := k.pressed[0]
		k.pressed = k.pressed[1:]
		return key
	}
	return KeyNone
}

// Script appends keys to the scripted sequence
func (k *MockKeypad) Script(keys ...Key) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.script = append(k.script, keys...)
}

// Press queues a single key event
func (k *MockKeypad) Press(key Key) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pressed = append(k.pressed, key)
}

// SetTransmitting sets the TX indicator
func (k *MockKeypad) SetTransmitting(tx bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.tx = tx
}

// Transmitting reports the TX indicator
func (k *MockKeypad) Transmitting() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.tx
}

// Reads returns how many times Key was called
func (k *MockKeypad) Reads() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.reads
}
