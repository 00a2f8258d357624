// Package menu implements the two-level option menu and the small editors
// reached from it.
package menu

// Code identifies a committed leaf: ten times the category plus the leaf.
type Code int

const (
	CodeVFOSwap      Code = 0
	CodeVFOBFromA    Code = 1
	CodeVFOAFromB    Code = 2
	CodeVFOToMemory  Code = 3
	CodeMemoryToVFO  Code = 4
	CodeUSB          Code = 10
	CodeLSB          Code = 11
	CodeToneLow      Code = 20
	CodeToneHigh     Code = 21
	CodeAGCSlow      Code = 22
	CodeAGCFast      Code = 23
	CodeScanMemories Code = 30
	CodeScanVFOs     Code = 31
	CodeThreshold    Code = 32
	CodeSplitOff     Code = 40
	CodeSplitOn      Code = 41
	CodeSetUSB       Code = 50
	CodeSetLSB       Code = 51
)

// Category is one top-level menu entry with its fixed list of leaves.
type Category interface {
	ID() int
	Title() string
	Leaves() []string
}

// CodeFor returns the code committing leaf of c
func CodeFor(c Category, leaf int) Code {
	return Code(c.ID()*10 + leaf)
}

type VFOMemory struct{}

func (VFOMemory) ID() int       { return 0 }
func (VFOMemory) Title() string { return "VFO/MEM" }
func (VFOMemory) Leaves() []string {
	return []string{"VFO SWAP", "VFO B=A", "VFO A=B", "VFO>MEM", "MEM>VFO"}
}

type SidebandMenu struct{}

func (SidebandMenu) ID() int          { return 1 }
func (SidebandMenu) Title() string    { return "SIDEBAND" }
func (SidebandMenu) Leaves() []string { return []string{"USB", "LSB"} }

type ToneAGC struct{}

func (ToneAGC) ID() int       { return 2 }
func (ToneAGC) Title() string { return "TONE/AGC" }
func (ToneAGC) Leaves() []string {
	return []string{"TONE LO", "TONE HI", "AGC SLO", "AGC FST"}
}

type ScanMenu struct{}

func (ScanMenu) ID() int          { return 3 }
func (ScanMenu) Title() string    { return "SCAN" }
func (ScanMenu) Leaves() []string { return []string{"MEMORY", "VFOs", "THRESH"} }

type SplitMenu struct{}

func (SplitMenu) ID() int          { return 4 }
func (SplitMenu) Title() string    { return "SPLIT" }
func (SplitMenu) Leaves() []string { return []string{"SPLT OFF", "SPLT ON"} }

type LOFrequency struct{}

func (LOFrequency) ID() int          { return 5 }
func (LOFrequency) Title() string    { return "LO FREQ" }
func (LOFrequency) Leaves() []string { return []string{"SET USB", "SET LSB"} }

// Categories returns the top-level menu in walk order
func Categories() []Category {
	return []Category{VFOMemory{}, SidebandMenu{}, ToneAGC{}, ScanMenu{}, SplitMenu{}, LOFrequency{}}
}
