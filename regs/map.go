// Package regs provides a typed view over the memory-mapped registers of the
// convolution accelerator.
package regs

import (
	"fmt"
	"sort"
	"strings"
)

// Register names a register in the accelerator's register map.
type Register int

const (
	Control Register = iota
	DataIn
	DataOut
	Clear
	Weight
	Switch
	Status

	numRegisters
)

// Access describes how the CPU may touch a register.
type Access int

const (
	ReadOnly Access = iota
	WriteOnly
)

var registerNames = [numRegisters]string{
	Control: "control",
	DataIn:  "data_in",
	DataOut: "data_out",
	Clear:   "clear",
	Weight:  "weight",
	Switch:  "switch",
	Status:  "status",
}

// Name returns the name of the register as used in layout files.
func (r Register) Name() string {
	if r < 0 || r >= numRegisters {
		panic("invalid register")
	}

	return registerNames[r]
}

func (r Register) String() string {
	return strings.ToUpper(r.Name())
}

// Access returns the access mode of the register.
func (r Register) Access() Access {
	switch r {
	case DataOut, Switch, Status:
		return ReadOnly
	case Control, DataIn, Clear, Weight:
		return WriteOnly
	default:
		panic("invalid register")
	}
}

// ParseRegister converts a layout key into a Register.
func ParseRegister(name string) (Register, error) {
	for i, n := range registerNames {
		if n == strings.ToLower(name) {
			return Register(i), nil
		}
	}

	return 0, fmt.Errorf("unknown register %q", name)
}

// Control register bits.
const (
	ControlStart uint32 = 1 << 0
	ControlClear uint32 = 1 << 1
)

// StatusValid is set in STATUS while DATA_OUT holds the result of the most
// recent DATA_IN write.
const StatusValid uint32 = 1 << 0

// Map is a register layout: a base address and fixed offsets from it. The
// WEIGHT offset is the start of a contiguous block of NumWeights words.
type Map struct {
	Name       string            `yaml:"name"`
	Base       uint64            `yaml:"base"`
	Size       uint32            `yaml:"size"`
	NumWeights int               `yaml:"num_weights"`
	Offsets    map[string]uint32 `yaml:"offsets"`
}

// Offset returns the offset of a register and whether the layout has it.
func (m Map) Offset(reg Register) (uint32, bool) {
	off, ok := m.Offsets[reg.Name()]
	return off, ok
}

type span struct {
	name       string
	start, end uint32
}

// Validate checks that the layout is usable: required registers are present,
// every register is word aligned, lies inside the window and no two
// registers overlap.
func (m Map) Validate() error {
	if m.Size == 0 {
		return &ConfigError{Field: "size", Reason: "window size must be > 0"}
	}

	if m.Base%4 != 0 {
		return &ConfigError{
			Field:  "base",
			Reason: fmt.Sprintf("0x%X is not word aligned", m.Base),
		}
	}

	if m.NumWeights <= 0 {
		return &ConfigError{
			Field:  "num_weights",
			Reason: "at least one weight register is required",
		}
	}

	for key := range m.Offsets {
		if _, err := ParseRegister(key); err != nil {
			return &ConfigError{Field: "offsets." + key, Reason: err.Error()}
		}
	}

	for _, reg := range []Register{DataIn, DataOut, Weight} {
		if _, ok := m.Offset(reg); !ok {
			return &ConfigError{
				Field:  "offsets." + reg.Name(),
				Reason: "register is required",
			}
		}
	}

	spans := make([]span, 0, len(m.Offsets))
	for key, off := range m.Offsets {
		size := uint32(4)
		if key == Weight.Name() {
			size = uint32(4 * m.NumWeights)
		}

		if off%4 != 0 {
			return &ConfigError{
				Field:  "offsets." + key,
				Reason: fmt.Sprintf("0x%X is not word aligned", off),
			}
		}

		if uint64(off)+uint64(size) > uint64(m.Size) {
			return &ConfigError{
				Field: "offsets." + key,
				Reason: fmt.Sprintf("0x%X+%d exceeds window size 0x%X",
					off, size, m.Size),
			}
		}

		spans = append(spans, span{name: key, start: off, end: off + size})
	}

	sort.Slice(spans, func(i, j int) bool {
		return spans[i].start < spans[j].start
	})

	for i := 1; i < len(spans); i++ {
		if spans[i].start < spans[i-1].end {
			return &ConfigError{
				Field: "offsets." + spans[i].name,
				Reason: fmt.Sprintf("overlaps %s at 0x%X",
					spans[i-1].name, spans[i-1].start),
			}
		}
	}

	return nil
}

// Clone returns a deep copy of the layout.
func (m Map) Clone() Map {
	c := m
	c.Offsets = make(map[string]uint32, len(m.Offsets))

	for k, v := range m.Offsets {
		c.Offsets[k] = v
	}

	return c
}

// Conv2DLayout is the 3x3 convolution accelerator with kernel-select
// switches.
func Conv2DLayout() Map {
	return Map{
		Name:       "conv2d",
		Base:       0x80010000,
		Size:       0x34,
		NumWeights: 9,
		Offsets: map[string]uint32{
			"data_in":  0x00,
			"data_out": 0x04,
			"clear":    0x08,
			"weight":   0x0C,
			"switch":   0x30,
		},
	}
}

// Conv2DPolledLayout is Conv2DLayout with a STATUS register, for buses that
// do not stall the CPU while the accelerator computes.
func Conv2DPolledLayout() Map {
	m := Conv2DLayout()
	m.Name = "conv2d-polled"
	m.Size = 0x38
	m.Offsets["status"] = 0x34

	return m
}

// FIR3Layout is the 3-tap 1D filter with a combined control register.
func FIR3Layout() Map {
	return Map{
		Name:       "fir3",
		Base:       0x80010000,
		Size:       0x18,
		NumWeights: 3,
		Offsets: map[string]uint32{
			"control":  0x00,
			"data_in":  0x04,
			"weight":   0x08,
			"data_out": 0x14,
		},
	}
}

// LayoutByName returns one of the built-in layouts.
func LayoutByName(name string) (Map, error) {
	switch name {
	case "conv2d":
		return Conv2DLayout(), nil
	case "conv2d-polled":
		return Conv2DPolledLayout(), nil
	case "fir3":
		return FIR3Layout(), nil
	default:
		return Map{}, &ConfigError{
			Field:  "layout",
			Reason: fmt.Sprintf("unknown layout %q", name),
		}
	}
}
