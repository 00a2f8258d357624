package hardware

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMockGPIO(t *testing.T) {
	gpio := NewMockGPIO()

	t.Run("Initialize", func(t *testing.T) {
		if err := gpio.Initialize(); err != nil {
			t.Errorf("Expected no error, got: %v", err)
		}
	})

	t.Run("Set and Get Pin", func(t *testing.T) {
		pin := 18

		if err := gpio.SetPin(pin, true); err != nil {
			t.Errorf("Failed to set pin high: %v", err)
		}
		value, _ := gpio.GetPin(pin)
		if !value {
			t.Error("Expected pin to be high")
		}

		if err := gpio.SetPin(pin, false); err != nil {
			t.Errorf("Failed to set pin low: %v", err)
		}
		value, _ = gpio.GetPin(pin)
		if value {
			t.Error("Expected pin to be low")
		}
	})

	t.Run("Release", func(t *testing.T) {
		if err := gpio.Release(18); err != nil {
			t.Errorf("Failed to release pin: %v", err)
		}
		if !gpio.IsReleased(18) {
			t.Error("Expected pin to be released")
		}
		gpio.SetPin(18, false)
		if gpio.IsReleased(18) {
			t.Error("Expected driving the pin to clear release")
		}
	})

	t.Run("Unset Pin Default", func(t *testing.T) {
		value, err := gpio.GetPin(99)
		if err != nil {
			t.Errorf("Failed to get unset pin: %v", err)
		}
		if value {
			t.Error("Expected unset pin to default to false")
		}
	})
}

func TestMockDisplay(t *testing.T) {
	display := NewMockDisplay(21, 8)

	t.Run("Draw Text", func(t *testing.T) {
		assert.NoError(t, display.DrawText(0, 0, "VFO:A", false))
		assert.NoError(t, display.DrawText(6, 0, "USB", true))
		assert.Equal(t, "VFO:A USB", display.Line(0))
		assert.True(t, display.Inverted(6, 0))
		assert.False(t, display.Inverted(0, 0))
	})

	t.Run("Clip At Edge", func(t *testing.T) {
		assert.NoError(t, display.DrawText(18, 1, "M15X", false))
		assert.Equal(t, "M15", display.Line(1)[18:])
	})

	t.Run("Out Of Range", func(t *testing.T) {
		assert.Error(t, display.DrawText(0, 8, "x", false))
		assert.Error(t, display.DrawText(21, 0, "x", false))
		assert.Error(t, display.DrawBar(0, 10, -1, 0x1E))
	})

	t.Run("Bars", func(t *testing.T) {
		assert.NoError(t, display.DrawBar(0, 40, 6, 0x1E))
		assert.Equal(t, 40, display.BarLength(6))
		assert.NoError(t, display.DrawBar(20, 128, 6, 0))
		assert.Equal(t, 20, display.BarLength(6))
		assert.NoError(t, display.DrawBar(0, 500, 5, 0xFF))
		assert.Equal(t, 21*FontWidth, display.BarLength(5))
	})

	t.Run("Clear", func(t *testing.T) {
		assert.NoError(t, display.Clear())
		assert.Equal(t, "", display.Line(0))
		assert.Equal(t, 0, display.BarLength(6))
		assert.Equal(t, 1, display.Clears())
	})
}

func TestMockADC(t *testing.T) {
	adc := NewMockADC()
	adc.Set(ChannelSignal, 200)

	v, err := adc.Read(ChannelSignal)
	assert.NoError(t, err)
	assert.Equal(t, 200, v)

	v, err = adc.Read(ChannelSupply)
	assert.NoError(t, err)
	assert.Equal(t, 0, v)

	adc.Fail(ChannelSupply, errors.New("conversion timeout"))
	_, err = adc.Read(ChannelSupply)
	assert.Error(t, err)
}

func TestMockBus(t *testing.T) {
	bus := NewMockBus()

	assert.NoError(t, bus.Write(0xC0, 183, 0xD2))
	assert.NoError(t, bus.Write(0xC0, 42, 1, 2, 3))

	writes := bus.Writes()
	assert.Len(t, writes, 2)
	assert.Equal(t, byte(0xC0), writes[0].Addr)
	assert.Equal(t, []byte{183, 0xD2}, writes[0].Data)

	regs := bus.Registers()
	assert.Equal(t, byte(0xD2), regs[183])
	assert.Equal(t, byte(1), regs[42])
	assert.Equal(t, byte(3), regs[44])

	bus.Fail(errors.New("nack"))
	assert.Error(t, bus.Write(0xC0, 3, 0))
	assert.Len(t, bus.Writes(), 2)

	bus.Reset()
	assert.Empty(t, bus.Writes())
}

func TestMockKeypad(t *testing.T) {
	t.Run("Script Then Presses", func(t *testing.T) {
		keypad := NewMockKeypad(KeyNone, KeyBack)
		keypad.Press(KeySelect)

		assert.Equal(t, KeyNone, keypad.Key())
		assert.Equal(t, KeyBack, keypad.Key())
		assert.Equal(t, KeySelect, keypad.Key())
		assert.Equal(t, KeyNone, keypad.Key())
		assert.Equal(t, 4, keypad.Reads())
	})

	t.Run("Transmitting", func(t *testing.T) {
		keypad := NewMockKeypad()
		assert.False(t, keypad.Transmitting())
		keypad.SetTransmitting(true)
		assert.True(t, keypad.Transmitting())
	})

	t.Run("Concurrent Press", func(t *testing.T) {
		keypad := NewMockKeypad()
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				keypad.Press(KeyBack)
			}()
		}
		wg.Wait()

		count := 0
		for keypad.Key() == KeyBack {
			count++
		}
		assert.Equal(t, 10, count)
	})
}
