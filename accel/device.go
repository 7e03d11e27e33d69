// Package accel is a cycle-driven model of the convolution accelerator. It
// stands in for the hardware behind the register window when no device is
// attached.
package accel

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"
)

// HookPosRegWrite marks a register write arriving at the device.
var HookPosRegWrite = &sim.HookPos{Name: "Reg Write"}

// HookPosRegRead marks a register read served by the device.
var HookPosRegRead = &sim.HookPos{Name: "Reg Read"}

// HookPosResult marks the pipeline producing an output sample.
var HookPosResult = &sim.HookPos{Name: "Result"}

// RegAccess is the hook item for register reads and writes.
type RegAccess struct {
	Offset   uint32
	Register string
	Value    uint32
}

// Result is the hook item for a computed output.
type Result struct {
	Index  uint64
	Input  uint32
	Output uint32
}

// Device models the accelerator's datapath. In 2D mode it holds a line
// buffer of two rows plus three pixels and emits the output for a pixel once
// the pixel below and to the right of it has been streamed in.
type Device struct {
	*sim.TickingComponent

	latency       int
	taps          int
	width, height int

	weights []int32
	history []uint32
	count   uint64

	pending   bool
	sample    uint32
	remaining int

	out   uint32
	valid bool

	switches func() uint32
	faults   map[uint64]uint32
}

// Is2D tells whether the device runs the 3x3 spatial datapath.
func (d *Device) Is2D() bool {
	return d.width > 0
}

// Taps returns the number of weight registers.
func (d *Device) Taps() int {
	return d.taps
}

// PipelineDepth returns how many samples after a pixel its output appears.
func (d *Device) PipelineDepth() int {
	if d.Is2D() {
		return d.width + 1
	}

	return 0
}

// Clear flushes the pipeline. Weights are kept.
func (d *Device) Clear() {
	for i := range d.history {
		d.history[i] = 0
	}

	d.count = 0
	d.pending = false
	d.remaining = 0
	d.out = 0
	d.valid = false
}

// SetWeight stores coefficient i.
func (d *Device) SetWeight(i int, w int32) {
	if i < 0 || i >= d.taps {
		panic(fmt.Sprintf("weight index %d out of range [0, %d)", i, d.taps))
	}

	d.weights[i] = w
}

// Weights returns a copy of the committed coefficients.
func (d *Device) Weights() []int32 {
	return append([]int32(nil), d.weights...)
}

// Push accepts a new input sample and starts computing its output. A sample
// still in flight is completed first.
func (d *Device) Push(sample uint32) {
	if d.pending {
		d.finish()
	}

	d.sample = sample
	d.pending = true
	d.remaining = d.latency
	d.valid = false

	d.TickLater()
}

// Output returns the most recently computed output.
func (d *Device) Output() uint32 {
	return d.out
}

// Valid tells whether Output holds the result of the latest input.
func (d *Device) Valid() bool {
	return d.valid
}

// Switches returns the live switch mask.
func (d *Device) Switches() uint32 {
	if d.switches == nil {
		return 0
	}

	return d.switches()
}

// SetSwitches holds the switch mask at a fixed value.
func (d *Device) SetSwitches(mask uint32) {
	d.switches = func() uint32 { return mask }
}

// SetSwitchSource makes every SWITCH read consult fn.
func (d *Device) SetSwitchSource(fn func() uint32) {
	d.switches = fn
}

// InjectFault flips the bits in mask on the output of the index-th sample
// streamed after a clear.
func (d *Device) InjectFault(index uint64, mask uint32) {
	if d.faults == nil {
		d.faults = make(map[uint64]uint32)
	}

	d.faults[index] = mask
}

// Tick advances the datapath by one cycle.
func (d *Device) Tick() (madeProgress bool) {
	if !d.pending {
		return false
	}

	d.remaining--
	if d.remaining > 0 {
		return true
	}

	d.finish()

	return true
}

func (d *Device) finish() {
	copy(d.history[1:], d.history[:len(d.history)-1])
	d.history[0] = d.sample

	var out uint32
	if d.Is2D() {
		out = d.compute2D()
	} else {
		out = d.compute1D()
	}

	if mask, ok := d.faults[d.count]; ok {
		out ^= mask
	}

	d.InvokeHook(sim.HookCtx{
		Domain: d,
		Pos:    HookPosResult,
		Item:   Result{Index: d.count, Input: d.sample, Output: out},
	})

	d.out = out
	d.valid = true
	d.pending = false
	d.count++
}

func (d *Device) compute1D() uint32 {
	var acc int64
	for k := 0; k < d.taps; k++ {
		acc += int64(d.weights[k]) * int64(d.history[k])
	}

	return uint32(acc)
}

func (d *Device) compute2D() uint32 {
	lag := uint64(d.width + 1)
	if d.count < lag {
		return 0
	}

	frame := uint64(d.width * d.height)
	p := (d.count - lag) % frame
	r, c := int(p)/d.width, int(p)%d.width

	var acc int64
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			rr, cc := r+dr, c+dc
			if rr < 0 || rr >= d.height || cc < 0 || cc >= d.width {
				continue
			}

			off := d.width + 1 - (dr*d.width + dc)
			w := d.weights[(1-dr)*3+(1-dc)]
			acc += int64(w) * int64(d.history[off])
		}
	}

	return uint32(acc)
}
