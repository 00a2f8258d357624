// Package synth turns output frequencies into Si5351 fractional divider
// settings and drives the chip's register interface.
package synth

const (
	// DefaultReference is the crystal frequency in Hz.
	DefaultReference = 25000000
	// DefaultPLLRatio is the fixed feedback multiplier of both PLLs.
	DefaultPLLRatio = 36
	// Denominator is the fixed fractional denominator c (2^20 - 1).
	Denominator = 1048575
)

// Plan holds the divider a + b/c and its packed register parameters.
type Plan struct {
	A, B, C    uint32
	P1, P2, P3 uint32
}

// ComputeMultisynthPlan returns the multisynth divider that derives target Hz
// from a VCO running at reference*ratio. Out-of-range targets are the caller's
// problem.
func ComputeMultisynthPlan(target, reference, ratio uint64) Plan {
	vco := reference * ratio
	a := vco / target
	b := (vco % target) * Denominator / target
	return pack(uint32(a), uint32(b), Denominator)
}

// PLLPlan is the feedback divider used for both PLLs at boot: an integer
// ratio with no fractional part.
func PLLPlan(ratio uint32) Plan {
	return pack(ratio, 0, Denominator)
}

func pack(a, b, c uint32) Plan {
	a64, b64, c64 := uint64(a), uint64(b), uint64(c)
	frac := 128 * b64 / c64
	return Plan{
		A:  a,
		B:  b,
		C:  c,
		P1: uint32(128*a64 + frac - 512),
		P2: uint32(128*b64 - c64*frac),
		P3: c,
	}
}

// Divider returns a + b/c.
func (p Plan) Divider() float64 {
	return float64(p.A) + float64(p.B)/float64(p.C)
}

// Output returns the frequency this plan produces from a VCO of
// reference*ratio.
func (p Plan) Output(reference, ratio uint64) float64 {
	return float64(reference*ratio) / p.Divider()
}

// Registers packs the plan into the eight consecutive divider registers
// (AN619 layout).
func (p Plan) Registers() [8]byte {
	return [8]byte{
		byte(p.P3 >> 8),
		byte(p.P3),
		byte((p.P1 >> 16) & 0x03),
		byte(p.P1 >> 8),
		byte(p.P1),
		byte((p.P3>>12)&0xF0) | byte((p.P2>>16)&0x0F),
		byte(p.P2 >> 8),
		byte(p.P2),
	}
}
