package hardware

import (
	"math"
	"sync"

	"github.com/mjibson/go-dsp/fft"
)

// SSB audio passband used for the signal estimate
const (
	PassbandLow  = 300.0
	PassbandHigh = 2700.0
)

// Meter scale: FloorDB maps to 0 pixels, 0 dBFS to MeterFullScale.
const (
	FloorDB        = -90.0
	MeterFullScale = 120
)

// AudioSMeter estimates signal strength from receiver audio. It stands in
// for the AGC voltage tap on hosts that only have the audio output.
type AudioSMeter struct {
	mutex sync.RWMutex

	sampleRate int
	fftSize    int

	sampleBuffer []int16
	fftBuffer    []complex128
	window       []float64
	windowGain   float64

	levelDB float64
}

// NewAudioSMeter creates a meter. fftSize should be a power of two.
func NewAudioSMeter(sampleRate, fftSize int) *AudioSMeter {
	m := &AudioSMeter{
		sampleRate: sampleRate,
		fftSize:    fftSize,
		fftBuffer:  make([]complex128, fftSize),
		window:     makeHannWindow(fftSize),
		levelDB:    FloorDB,
	}
	for _, w := range m.window {
		m.windowGain += w
	}
	return m
}

// makeHannWindow creates a Hann window function for FFT
func makeHannWindow(size int) []float64 {
	window := make([]float64, size)
	for i := 0; i < size; i++ {
		window[i] = 0.5 * (1.0 - math.Cos(2.0*math.Pi*float64(i)/float64(size-1)))
	}
	return window
}

// ProcessSamples feeds audio samples. The estimate updates every fftSize
// samples.
func (m *AudioSMeter) ProcessSamples(samples []int16) {
	if len(samples) == 0 {
		return
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.sampleBuffer = append(m.sampleBuffer, samples...)
	for len(m.sampleBuffer) >= m.fftSize {
		m.analyze(m.sampleBuffer[:m.fftSize])
		m.sampleBuffer = m.sampleBuffer[m.fftSize:]
	}
}

// analyze must be called with lock held
func (m *AudioSMeter) analyze(block []int16) {
	for i := 0; i < m.fftSize; i++ {
		sample := float64(block[i]) / 32768.0
		m.fftBuffer[i] = complex(sample*m.window[i], 0)
	}

	spectrum := fft.FFT(m.fftBuffer)

	binHz := float64(m.sampleRate) / float64(m.fftSize)
	lo := int(math.Ceil(PassbandLow / binHz))
	hi := int(math.Floor(PassbandHigh / binHz))
	if hi >= m.fftSize/2 {
		hi = m.fftSize/2 - 1
	}

	// Peak bin amplitude, normalized so a full-scale sine reads 0 dBFS.
	peak := 0.0
	for i := lo; i <= hi; i++ {
		mag := 2 * math.Hypot(real(spectrum[i]), imag(spectrum[i])) / m.windowGain
		if mag > peak {
			peak = mag
		}
	}

	if peak > 0 {
		m.levelDB = math.Max(20*math.Log10(peak), FloorDB)
	} else {
		m.levelDB = FloorDB
	}
}

// LevelDB returns the last passband peak in dBFS
func (m *AudioSMeter) LevelDB() float64 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.levelDB
}

// SignalStrength returns the estimate on the same pixel scale as SValue
func (m *AudioSMeter) SignalStrength() int {
	db := m.LevelDB()
	v := int((db - FloorDB) * MeterFullScale / -FloorDB)
	if v < 0 {
		return 0
	}
	if v > MeterFullScale {
		return MeterFullScale
	}
	return v
}
