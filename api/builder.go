package api

import (
	"io"

	"github.com/sarchlab/convaccel/regs"
)

// DefaultMaxPolls bounds the STATUS busy-wait before a sample times out.
const DefaultMaxPolls = 1 << 16

// DriverBuilder creates a new instance of Driver.
type DriverBuilder struct {
	regs     *regs.RegisterFile
	counter  CycleCounter
	sink     io.Writer
	report   func(i int) bool
	maxPolls int
}

// WithRegisterFile sets the registers the driver talks to.
func (b DriverBuilder) WithRegisterFile(f *regs.RegisterFile) DriverBuilder {
	b.regs = f
	return b
}

// WithCycleCounter sets the counter used to time a stream.
func (b DriverBuilder) WithCycleCounter(c CycleCounter) DriverBuilder {
	b.counter = c
	return b
}

// WithSink sets the diagnostics output.
func (b DriverBuilder) WithSink(w io.Writer) DriverBuilder {
	b.sink = w
	return b
}

// WithReportFilter selects the sample indexes echoed to the sink.
func (b DriverBuilder) WithReportFilter(f func(i int) bool) DriverBuilder {
	b.report = f
	return b
}

// WithMaxPolls sets how many STATUS reads a sample may take.
func (b DriverBuilder) WithMaxPolls(n int) DriverBuilder {
	b.maxPolls = n
	return b
}

// Build create a driver.
func (b DriverBuilder) Build(name string) Driver {
	if b.regs == nil {
		panic("driver needs a register file")
	}

	d := &driverImpl{
		name:     name,
		regs:     b.regs,
		counter:  b.counter,
		sink:     b.sink,
		report:   b.report,
		maxPolls: b.maxPolls,
	}

	if d.counter == nil {
		d.counter = nullCounter{}
	}

	if d.sink == nil {
		d.sink = io.Discard
	}

	if d.report == nil {
		d.report = EveryN(20, 1000)
	}

	if d.maxPolls <= 0 {
		d.maxPolls = DefaultMaxPolls
	}

	return d
}
