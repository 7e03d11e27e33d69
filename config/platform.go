package config

import (
	"errors"
	"fmt"
	"io"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/convaccel/accel"
	"github.com/sarchlab/convaccel/api"
	"github.com/sarchlab/convaccel/kernel"
	"github.com/sarchlab/convaccel/regs"
	"github.com/sarchlab/convaccel/selector"
	valgen "github.com/sarchlab/convaccel/util"
	"github.com/sarchlab/convaccel/verify"
)

// Platform is an accelerator together with its driver, ready to run the
// configured passes.
type Platform struct {
	Config Config
	Kernel kernel.Kernel
	Regs   *regs.RegisterFile
	Driver api.Driver

	// Device is the simulated accelerator. It is nil on real hardware.
	Device *accel.Device

	closers []io.Closer
}

// PlatformBuilder can build platforms.
type PlatformBuilder struct {
	config Config
	sink   io.Writer
}

// WithConfig sets the run configuration.
func (b PlatformBuilder) WithConfig(c Config) PlatformBuilder {
	b.config = c
	return b
}

// WithSink sets the diagnostics output.
func (b PlatformBuilder) WithSink(w io.Writer) PlatformBuilder {
	b.sink = w
	return b
}

// Build validates the name and the configuration and assembles the platform.
// Nothing is written to the device.
func (b PlatformBuilder) Build(name string) (*Platform, error) {
	if err := accel.CheckName(name + ".Accel"); err != nil {
		return nil, err
	}

	c := b.config
	if err := c.Validate(); err != nil {
		return nil, err
	}

	k, err := c.LookupKernel()
	if err != nil {
		return nil, err
	}

	p := &Platform{Config: c, Kernel: k}

	var (
		window  regs.Window
		counter api.CycleCounter
	)

	switch c.Device {
	case DeviceSim:
		window, counter, err = p.buildSim(name)
	case DeviceDevMem:
		window, counter, err = p.buildDevMem()
	default:
		panic("invalid device")
	}

	if err != nil {
		p.Close()
		return nil, err
	}

	p.Regs, err = regs.NewRegisterFile(window, c.Layout.Map)
	if err != nil {
		p.Close()
		return nil, err
	}

	report := api.Quiet
	if c.Report.First > 0 || c.Report.Every > 0 {
		report = api.EveryN(c.Report.First, c.Report.Every)
	}

	p.Driver = api.DriverBuilder{}.
		WithRegisterFile(p.Regs).
		WithCycleCounter(counter).
		WithSink(b.sink).
		WithReportFilter(report).
		Build(name + ".Driver")

	return p, nil
}

func (p *Platform) buildSim(name string) (regs.Window, api.CycleCounter, error) {
	c := p.Config

	engine := sim.NewSerialEngine()

	freq := 100 * sim.MHz
	if c.Sim.FreqMHz > 0 {
		freq = sim.Freq(c.Sim.FreqMHz) * sim.MHz
	}

	b := accel.MakeBuilder().
		WithEngine(engine).
		WithFreq(freq).
		WithTaps(c.Layout.NumWeights)

	if c.Sim.LatencyCycles > 0 {
		b = b.WithLatency(c.Sim.LatencyCycles)
	}

	if p.Kernel.Is2D() {
		b = b.WithImageSize(c.Geometry.Width, c.Geometry.Height)
	}

	if len(c.Sim.SwitchScript) > 0 {
		b = b.WithSwitchSource(accel.ScriptedSwitches(c.Sim.SwitchScript))
	}

	p.Device = b.Build(name + ".Accel")
	p.Device.AcceptHook(accel.RegisterTracer{})

	for _, f := range c.Sim.Faults {
		p.Device.InjectFault(f.Index, f.Mask)
	}

	bus, err := accel.NewBus(engine, p.Device, c.Layout.Map, c.Sim.Stall())
	if err != nil {
		return nil, nil, err
	}

	return bus, accel.NewCycleCounter(engine, freq), nil
}

func (p *Platform) buildDevMem() (regs.Window, api.CycleCounter, error) {
	c := p.Config

	mem, err := regs.OpenDevMem(c.Layout.Base, c.Layout.Size)
	if err != nil {
		return nil, nil, err
	}
	p.closers = append(p.closers, mem)

	if c.DevMem.CounterBase == 0 {
		return mem, nil, nil
	}

	size := c.DevMem.CounterValue
	if c.DevMem.CounterReset > size {
		size = c.DevMem.CounterReset
	}

	counterMem, err := regs.OpenDevMem(c.DevMem.CounterBase, size+4)
	if err != nil {
		return nil, nil, fmt.Errorf("cycle counter: %w", err)
	}
	p.closers = append(p.closers, counterMem)

	counter := api.NewRegisterCycleCounter(counterMem,
		c.DevMem.CounterValue, c.DevMem.CounterReset)

	return mem, counter, nil
}

// Samples returns the configured input stream.
func (p *Platform) Samples() []uint32 {
	s := p.Config.Samples
	n := p.Config.SampleCount()

	if s.Pattern == PatternLiteral {
		return valgen.Take(valgen.MakeLiteralGen(s.Literal), n)
	}

	return valgen.Take(valgen.MakeModuloGen(s.Modulus), n)
}

// Depth returns how many flush samples follow the stream. Unless configured,
// it is the pipeline depth of the datapath the kernel runs on.
func (p *Platform) Depth() int {
	if p.Config.Flush != nil {
		return *p.Config.Flush
	}

	if p.Device != nil {
		return p.Device.PipelineDepth()
	}

	if p.Kernel.Is2D() {
		return p.Config.Geometry.Width + 1
	}

	return 0
}

// RowFilter returns the report rows to print.
func (p *Platform) RowFilter() verify.RowFilter {
	switch p.Config.Report.Rows {
	case "all":
		return verify.AllRecords
	case "", "failures":
		return verify.FailuresOnly
	default:
		return verify.FirstAndFailures(p.Config.Report.First)
	}
}

// Session returns a session that runs the configured stream.
func (p *Platform) Session(sink io.Writer) *api.Session {
	return &api.Session{
		Driver:  p.Driver,
		Samples: p.Samples(),
		Geometry: verify.Geometry{
			Width:  p.Config.Geometry.Width,
			Height: p.Config.Geometry.Height,
		},
		Depth: p.Depth(),
		Sink:  sink,
		Rows:  p.RowFilter(),
	}
}

// Selector returns the switch selector that drives runner. Without
// configured bindings, bit 0 selects the identity kernel and bit 1 the
// Gaussian blur.
func (p *Platform) Selector(runner selector.Runner) (*selector.Selector, error) {
	bindings := selector.DefaultBindings()

	if len(p.Config.Selector.Bindings) > 0 {
		bindings = make([]selector.Binding, 0, len(p.Config.Selector.Bindings))
		for _, b := range p.Config.Selector.Bindings {
			k, _ := kernel.Lookup(b.Kernel)
			bindings = append(bindings, selector.Binding{Bit: b.Bit, Kernel: k})
		}
	}

	return selector.New(p.Regs, bindings, runner)
}

// Close releases the device mappings.
func (p *Platform) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		errs = append(errs, p.closers[i].Close())
	}

	p.closers = nil

	return errors.Join(errs...)
}
