package accel

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/convaccel/regs"
)

type target struct {
	reg   regs.Register
	index int
}

// Bus decodes register accesses for a layout and applies them to a Device.
// It implements regs.Window. When stalling is enabled a DATA_OUT read runs
// the engine until the datapath is idle, which is how the bus holds the CPU
// in wait states until the result is valid.
type Bus struct {
	device    *Device
	engine    sim.Engine
	layout    regs.Map
	decode    map[uint32]target
	stall     bool
	autoStart bool
	latched   uint32
}

// NewBus connects a device to a register layout.
func NewBus(
	engine sim.Engine,
	device *Device,
	layout regs.Map,
	stall bool,
) (*Bus, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	if layout.NumWeights != device.Taps() {
		return nil, &regs.ConfigError{
			Field: "num_weights",
			Reason: fmt.Sprintf("layout has %d weights, device has %d taps",
				layout.NumWeights, device.Taps()),
		}
	}

	_, hasStatus := layout.Offset(regs.Status)
	if !stall && !hasStatus {
		return nil, &regs.ConfigError{
			Field:  "offsets.status",
			Reason: "a bus without stalling needs a STATUS register",
		}
	}

	b := &Bus{
		device: device,
		engine: engine,
		layout: layout.Clone(),
		decode: make(map[uint32]target),
		stall:  stall,
	}

	for key, off := range layout.Offsets {
		reg, _ := regs.ParseRegister(key)
		if reg == regs.Weight {
			for i := 0; i < layout.NumWeights; i++ {
				b.decode[off+uint32(4*i)] = target{reg: reg, index: i}
			}

			continue
		}

		b.decode[off] = target{reg: reg}
	}

	_, hasControl := layout.Offset(regs.Control)
	b.autoStart = !hasControl

	return b, nil
}

// Size returns the size of the register window.
func (b *Bus) Size() uint32 {
	return b.layout.Size
}

// Write32 applies a register write.
func (b *Bus) Write32(offset uint32, value uint32) {
	t, ok := b.decode[offset]
	if !ok {
		regs.Trace("Register",
			"Behavior", "UnmappedWrite",
			"Offset", offset,
			"Value", value,
		)
		return
	}

	b.device.InvokeHook(sim.HookCtx{
		Domain: b.device,
		Pos:    HookPosRegWrite,
		Item:   RegAccess{Offset: offset, Register: t.name(), Value: value},
	})

	switch t.reg {
	case regs.DataIn:
		b.latched = value
		if b.autoStart {
			b.device.Push(value)
		}
	case regs.Control:
		if value&regs.ControlClear != 0 {
			b.device.Clear()
		}

		if value&regs.ControlStart != 0 {
			b.device.Push(b.latched)
		}
	case regs.Clear:
		if value&1 != 0 {
			b.device.Clear()
		}
	case regs.Weight:
		b.device.SetWeight(t.index, int32(value))
	}
}

// Read32 serves a register read.
func (b *Bus) Read32(offset uint32) uint32 {
	t, ok := b.decode[offset]
	if !ok {
		regs.Trace("Register",
			"Behavior", "UnmappedRead",
			"Offset", offset,
		)
		return 0
	}

	var value uint32

	switch t.reg {
	case regs.DataOut:
		if b.stall {
			b.runEngine()
		}

		value = b.device.Output()
	case regs.Status:
		b.runEngine()

		if b.device.Valid() {
			value |= regs.StatusValid
		}
	case regs.Switch:
		value = b.device.Switches()
	}

	b.device.InvokeHook(sim.HookCtx{
		Domain: b.device,
		Pos:    HookPosRegRead,
		Item:   RegAccess{Offset: offset, Register: t.name(), Value: value},
	})

	return value
}

func (b *Bus) runEngine() {
	if err := b.engine.Run(); err != nil {
		panic(fmt.Sprintf("accelerator engine failed: %v", err))
	}
}

func (t target) name() string {
	if t.reg == regs.Weight {
		return fmt.Sprintf("%s[%d]", t.reg, t.index)
	}

	return t.reg.String()
}
