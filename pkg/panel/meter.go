package panel

// Meter bar geometry in pixels
const (
	MeterWidth   = 128
	MeterMax     = 120
	MeterPattern = 0x1E
)

// DecayTicks is how long a peak is held before the bar is reset
const DecayTicks = 20

// Meter draws the bar graph and holds its peak
type Meter struct {
	panel  *Panel
	peak   int
	peakAt uint32
}

// NewMeter creates a meter on panel
func NewMeter(p *Panel) *Meter {
	return &Meter{panel: p}
}

// Show draws value and records a new peak at tick now
func (m *Meter) Show(value int, now uint32) {
	if value > MeterMax {
		value = MeterMax
	}
	if value < 0 {
		value = 0
	}

	m.panel.bar(0, value, RowMeter, MeterPattern)
	m.panel.bar(value, MeterWidth, RowMeter, 0)

	if value > m.peak {
		m.peak = value
		m.peakAt = now
	}
}

// Due reports whether the held peak has expired
func (m *Meter) Due(now uint32) bool {
	return now > m.peakAt+DecayTicks
}

// Reset clears the bar and the held peak, then shows value rounded down to
// the scale's 3-pixel grid
func (m *Meter) Reset(value int, now uint32) {
	m.panel.bar(0, MeterWidth, RowMeter, 0)
	m.peak = 0
	m.peakAt = now
	m.Show((value/3)*3, now)
}

// Peak returns the held peak
func (m *Meter) Peak() int {
	return m.peak
}
