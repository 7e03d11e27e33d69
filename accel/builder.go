package accel

import (
	"github.com/sarchlab/akita/v4/sim"
)

// Builder can create accelerator models.
type Builder struct {
	engine        sim.Engine
	freq          sim.Freq
	latency       int
	taps          int
	width, height int
	switches      func() uint32
}

// MakeBuilder returns a builder for a 3x3 device at 100 MHz with a 4-cycle
// compute latency.
func MakeBuilder() Builder {
	return Builder{
		freq:    100 * sim.MHz,
		latency: 4,
		taps:    9,
	}
}

// WithEngine sets the engine that drives the device.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency of the device.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithLatency sets how many cycles a sample spends in the arithmetic unit.
func (b Builder) WithLatency(cycles int) Builder {
	if cycles < 1 {
		panic("latency must be at least one cycle")
	}

	b.latency = cycles
	return b
}

// WithTaps sets the number of weight registers.
func (b Builder) WithTaps(taps int) Builder {
	b.taps = taps
	return b
}

// WithImageSize selects the 3x3 spatial datapath for frames of the given
// size. Without it the device is a 1D FIR filter.
func (b Builder) WithImageSize(width, height int) Builder {
	b.width = width
	b.height = height
	return b
}

// WithSwitchSource sets the function that supplies the switch mask.
func (b Builder) WithSwitchSource(fn func() uint32) Builder {
	b.switches = fn
	return b
}

// Build creates a device.
func (b Builder) Build(name string) *Device {
	if b.engine == nil {
		panic("engine is required")
	}

	if err := CheckName(name); err != nil {
		panic(err)
	}

	if b.taps <= 0 {
		panic("taps must be > 0")
	}

	if b.width > 0 || b.height > 0 {
		if b.taps != 9 {
			panic("the 2D datapath needs 9 taps")
		}

		if b.width <= 0 || b.height <= 0 {
			panic("image width and height must be > 0")
		}
	}

	d := &Device{
		latency:  b.latency,
		taps:     b.taps,
		width:    b.width,
		height:   b.height,
		weights:  make([]int32, b.taps),
		switches: b.switches,
	}

	if d.Is2D() {
		d.history = make([]uint32, 2*b.width+3)
	} else {
		d.history = make([]uint32, b.taps)
	}

	d.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, d)

	return d
}
