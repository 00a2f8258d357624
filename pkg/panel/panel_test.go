package panel

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dougsko/micro26/pkg/band"
	"github.com/dougsko/micro26/pkg/eeprom"
	"github.com/dougsko/micro26/pkg/hardware"
)

func TestRedraw(t *testing.T) {
	display := hardware.NewMockDisplay(21, 8)
	p := New(display)

	p.Redraw(View{
		Frequency:   14200510,
		ActiveVFO:   1,
		Sideband:    band.LSB,
		Tone:        eeprom.ToneHigh,
		AGC:         eeprom.AGCFast,
		Memory:      7,
		Split:       true,
		Temperature: 31,
	})

	assert.NoError(t, p.Err())
	assert.Equal(t, 1, display.Clears())
	assert.Equal(t, "VFO:B LSB RX", display.Line(RowStatus))
	assert.Equal(t, "31°C HIGH AGC-F M07", display.Line(RowSettings))
	assert.Equal(t, "SPLT ON", display.Line(RowSplit))
	assert.Equal(t, "  14200.51", display.Line(RowFrequency))
	assert.Equal(t, "S1 3 5 7 9 +10 +20dB", display.Line(RowScale))
}

func TestTransmitIndicator(t *testing.T) {
	display := hardware.NewMockDisplay(21, 8)
	p := New(display)

	p.ShowTXRX(true)
	p.DrawMeterScale(true)
	assert.Equal(t, "TX", display.Line(RowStatus)[10:])
	assert.True(t, display.Inverted(10, RowStatus))
	assert.Equal(t, "0 1W  2W  3W  4W  5W", display.Line(RowScale))

	p.ShowTXRX(false)
	assert.False(t, display.Inverted(10, RowStatus))
}

func TestVoltageAndMemory(t *testing.T) {
	display := hardware.NewMockDisplay(21, 8)
	p := New(display)

	p.ShowVoltage(122)
	assert.Equal(t, "12.2V", display.Line(RowStatus)[15:])

	p.ShowMemory(3, true)
	assert.Equal(t, "M03", display.Line(RowSettings)[16:])
	assert.True(t, display.Inverted(16, RowSettings))
}

// brokenDisplay fails every draw
type brokenDisplay struct{ *hardware.MockDisplay }

func (brokenDisplay) DrawText(col, row int, text string, inverted bool) error {
	return errors.New("i2c nack")
}

func TestErrorsAreKept(t *testing.T) {
	p := New(brokenDisplay{hardware.NewMockDisplay(21, 8)})

	p.ShowSplit(false)
	err := p.Err()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "i2c nack")
	assert.NoError(t, p.Err())
}

func TestMeter(t *testing.T) {
	display := hardware.NewMockDisplay(21, 8)
	m := NewMeter(New(display))

	t.Run("Clamp", func(t *testing.T) {
		m.Show(500, 1)
		assert.Equal(t, MeterMax, display.BarLength(RowMeter))
		assert.Equal(t, MeterMax, m.Peak())
	})

	t.Run("Peak Held", func(t *testing.T) {
		m.Show(40, 5)
		assert.Equal(t, 40, display.BarLength(RowMeter))
		assert.Equal(t, MeterMax, m.Peak())
		assert.False(t, m.Due(21))
		assert.True(t, m.Due(22))
	})

	t.Run("Reset", func(t *testing.T) {
		m.Reset(41, 22)
		assert.Equal(t, 39, display.BarLength(RowMeter))
		assert.Equal(t, 39, m.Peak())
		assert.False(t, m.Due(30))
	})

	t.Run("Negative", func(t *testing.T) {
		m.Show(-5, 30)
		assert.Equal(t, 0, display.BarLength(RowMeter))
	})
}

func TestMenuDrawing(t *testing.T) {
	display := hardware.NewMockDisplay(21, 8)
	p := New(display)

	p.ShowMenu("SIDEBAND", []string{"USB", "LSB"})
	p.ShowMenuItem(1, "LSB", true)

	assert.Equal(t, "SIDEBAND", display.Line(RowStatus))
	assert.Equal(t, "          USB", display.Line(1))
	assert.True(t, display.Inverted(10, 2))
	assert.False(t, display.Inverted(10, 1))

	p.ShowMemoryCell(5, true)
	assert.Equal(t, "       05", display.Line(3))
	assert.True(t, display.Inverted(7, 3))

	p.ShowPreview(14074000, true)
	assert.Equal(t, "14074.00", display.Line(RowScale))
	p.ShowPreview(0, false)
	assert.Equal(t, "********", display.Line(RowScale))
	p.ShowRange(14000000, 14350000)
	assert.Equal(t, "14000.00  14350.00", display.Line(RowScale))
}
