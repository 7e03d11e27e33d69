package accel

import "github.com/sarchlab/akita/v4/sim"

// CycleCounter is a free-running cycle counter derived from the engine's
// virtual time.
type CycleCounter struct {
	engine sim.Engine
	freq   sim.Freq
	base   uint64
}

// NewCycleCounter creates a counter ticking at freq.
func NewCycleCounter(engine sim.Engine, freq sim.Freq) *CycleCounter {
	return &CycleCounter{engine: engine, freq: freq}
}

// Reset sets the counter to zero.
func (c *CycleCounter) Reset() {
	c.base = c.freq.Cycle(c.engine.CurrentTime())
}

// Read returns the number of cycles since the last reset.
func (c *CycleCounter) Read() uint64 {
	return c.freq.Cycle(c.engine.CurrentTime()) - c.base
}
