package regs

import "fmt"

// A Window is a fixed-size address window onto device registers. Every call
// must reach the device exactly once and in program order. Implementations
// must not cache, merge or reorder accesses.
type Window interface {
	Read32(offset uint32) uint32
	Write32(offset uint32, value uint32)
	Size() uint32
}

// RegisterFile is a typed view over a Window laid out according to a Map.
// It forwards every access straight to the window.
type RegisterFile struct {
	window     Window
	layout     Map
	offsets    [numRegisters]uint32
	present    [numRegisters]bool
	numWeights int
}

// NewRegisterFile validates the layout against the window and returns the
// register file. A layout that does not fit returns a *ConfigError.
func NewRegisterFile(window Window, layout Map) (*RegisterFile, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	if size := window.Size(); size < layout.Size {
		return nil, &ConfigError{
			Field: "size",
			Reason: fmt.Sprintf("layout needs 0x%X bytes, window has 0x%X",
				layout.Size, size),
		}
	}

	f := &RegisterFile{
		window:     window,
		layout:     layout.Clone(),
		numWeights: layout.NumWeights,
	}

	for r := Register(0); r < numRegisters; r++ {
		f.offsets[r], f.present[r] = layout.Offset(r)
	}

	return f, nil
}

// Layout returns a copy of the layout the register file was built with.
func (f *RegisterFile) Layout() Map {
	return f.layout.Clone()
}

// Has tells whether the layout contains the register.
func (f *RegisterFile) Has(reg Register) bool {
	return f.present[reg]
}

// NumWeights returns the number of coefficient registers.
func (f *RegisterFile) NumWeights() int {
	return f.numWeights
}

// Write writes a value to a writable register.
func (f *RegisterFile) Write(reg Register, value uint32) {
	f.window.Write32(f.offsetFor(reg, WriteOnly), value)
}

// Read reads a readable register. Reads have side effects on the device and
// are never served from a cache.
func (f *RegisterFile) Read(reg Register) uint32 {
	return f.window.Read32(f.offsetFor(reg, ReadOnly))
}

// WriteWeight writes coefficient i of the weight block.
func (f *RegisterFile) WriteWeight(i int, value uint32) {
	if i < 0 || i >= f.numWeights {
		panic(fmt.Sprintf("weight index %d out of range [0, %d)",
			i, f.numWeights))
	}

	f.window.Write32(f.offsetFor(Weight, WriteOnly)+uint32(4*i), value)
}

func (f *RegisterFile) offsetFor(reg Register, access Access) uint32 {
	if reg < 0 || reg >= numRegisters {
		panic("invalid register")
	}

	if !f.present[reg] {
		panic(fmt.Sprintf("register %s is not in layout %q",
			reg, f.layout.Name))
	}

	if reg.Access() != access {
		panic(fmt.Sprintf("register %s does not allow this access", reg))
	}

	return f.offsets[reg]
}
