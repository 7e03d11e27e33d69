// Package api defines the driver API for the convolution accelerator.
package api

import (
	"fmt"
	"io"

	"github.com/sarchlab/convaccel/kernel"
	"github.com/sarchlab/convaccel/metrics"
	"github.com/sarchlab/convaccel/regs"
	valgen "github.com/sarchlab/convaccel/util"
)

// Driver provides the interface to control an accelerator.
type Driver interface {
	// LoadKernel clears the accelerator and programs the kernel's
	// coefficients. No sample can be streamed before a kernel is loaded.
	LoadKernel(k kernel.Kernel) error

	// Stream feeds the samples one at a time and reads back one output per
	// sample. Outputs[i] is the value read right after Inputs[i] was
	// written.
	Stream(samples []uint32) (Result, error)

	// Pass streams the samples followed by depth zero flush samples and
	// drops the first depth outputs, so that the result is aligned with the
	// samples on a device whose output lags its input by depth samples.
	Pass(samples []uint32, depth int) (Result, error)

	// Kernel returns the loaded kernel.
	Kernel() (kernel.Kernel, bool)
}

// CycleCounter is a free-running device cycle counter.
type CycleCounter interface {
	Reset()
	Read() uint64
}

// Result is the outcome of streaming a sample sequence.
type Result struct {
	Inputs  []uint32
	Outputs []uint32
	Cycles  uint64
}

type driverImpl struct {
	name     string
	regs     *regs.RegisterFile
	counter  CycleCounter
	sink     io.Writer
	report   func(i int) bool
	maxPolls int

	kernel kernel.Kernel
	loaded bool
}

func (d *driverImpl) Kernel() (kernel.Kernel, bool) {
	return d.kernel, d.loaded
}

// LoadKernel clears the device state and writes the coefficients in index
// order.
func (d *driverImpl) LoadKernel(k kernel.Kernel) error {
	if k.Taps() != d.regs.NumWeights() {
		return &regs.ConfigError{
			Field: "kernel",
			Reason: fmt.Sprintf("%s has %d taps, device has %d weight registers",
				k.Name(), k.Taps(), d.regs.NumWeights()),
		}
	}

	d.loaded = false

	d.clear()

	fmt.Fprint(d.sink, "Setting Weights...\r\n")
	for i := 0; i < k.Taps(); i++ {
		d.regs.WriteWeight(i, uint32(k.At(i)))
	}

	d.kernel = k
	d.loaded = true

	regs.Trace("Driver",
		"Behavior", "LoadKernel",
		"Driver", d.name,
		"Kernel", k.Name(),
		"Taps", k.Taps(),
	)

	return nil
}

func (d *driverImpl) clear() {
	if d.regs.Has(regs.Clear) {
		d.regs.Write(regs.Clear, 1)
		return
	}

	d.regs.Write(regs.Control, regs.ControlClear)
	d.regs.Write(regs.Control, 0)
}

func (d *driverImpl) Stream(samples []uint32) (Result, error) {
	if !d.loaded {
		return Result{}, ErrNoKernel
	}

	res := Result{
		Inputs:  samples,
		Outputs: make([]uint32, len(samples)),
	}

	d.counter.Reset()
	start := d.counter.Read()

	for i, s := range samples {
		out, err := d.exchange(i, s)
		if err != nil {
			d.loaded = false
			metrics.SamplesStreamedTotal.Add(float64(i))
			return res, err
		}

		res.Outputs[i] = out

		if d.report(i) {
			writeSample(d.sink, i, s, out)
		}
	}

	res.Cycles = d.counter.Read() - start
	metrics.SamplesStreamedTotal.Add(float64(len(samples)))

	fmt.Fprintf(d.sink, "Computing time : %s\r\n", hex(uint32(res.Cycles)))

	regs.Trace("Driver",
		"Behavior", "Stream",
		"Driver", d.name,
		"Samples", len(samples),
		"Cycles", res.Cycles,
	)

	return res, nil
}

// exchange writes one sample and reads its paired output.
func (d *driverImpl) exchange(i int, sample uint32) (uint32, error) {
	d.regs.Write(regs.DataIn, sample)

	if d.regs.Has(regs.Control) {
		d.regs.Write(regs.Control, regs.ControlStart)
	}

	if d.regs.Has(regs.Status) {
		if err := d.waitValid(i); err != nil {
			return 0, err
		}
	}

	return d.regs.Read(regs.DataOut), nil
}

func (d *driverImpl) waitValid(i int) error {
	for polls := 1; polls <= d.maxPolls; polls++ {
		if d.regs.Read(regs.Status)&regs.StatusValid != 0 {
			return nil
		}
	}

	return &DeviceTimeoutError{Index: i, Polls: d.maxPolls}
}

func (d *driverImpl) Pass(samples []uint32, depth int) (Result, error) {
	if depth < 0 {
		return Result{}, fmt.Errorf("negative pipeline depth %d", depth)
	}

	padded := make([]uint32, 0, len(samples)+depth)
	padded = append(padded, samples...)
	padded = append(padded, valgen.Take(valgen.MakeConstGen(0), depth)...)

	res, err := d.Stream(padded)
	if err != nil {
		return res, err
	}

	return Result{
		Inputs:  samples,
		Outputs: res.Outputs[depth:],
		Cycles:  res.Cycles,
	}, nil
}
