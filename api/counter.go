package api

import "github.com/sarchlab/convaccel/regs"

type nullCounter struct{}

func (nullCounter) Reset() {}
func (nullCounter) Read() uint64 { return 0 }

// RegisterCycleCounter is a cycle counter peripheral exposed as a value
// register and a reset strobe in its own register window.
type RegisterCycleCounter struct {
	window regs.Window
	value  uint32
	reset  uint32
}

// NewRegisterCycleCounter creates a counter over window.
func NewRegisterCycleCounter(
	window regs.Window,
	value, reset uint32,
) *RegisterCycleCounter {
	return &RegisterCycleCounter{window: window, value: value, reset: reset}
}

// Reset strobes the counter's reset register.
func (c *RegisterCycleCounter) Reset() {
	c.window.Write32(c.reset, 1)
}

// Read returns the current count.
func (c *RegisterCycleCounter) Read() uint64 {
	return uint64(c.window.Read32(c.value))
}
