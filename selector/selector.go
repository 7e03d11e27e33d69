// Package selector picks the kernel to run from the board's switches. A run
// starts on each rising edge of a bound switch.
package selector

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/sarchlab/convaccel/kernel"
	"github.com/sarchlab/convaccel/metrics"
	"github.com/sarchlab/convaccel/regs"
)

// A Runner runs one complete pass with a kernel.
type Runner interface {
	RunKernel(ctx context.Context, k kernel.Kernel) error
}

// Binding ties a switch bit to a kernel.
type Binding struct {
	Bit    uint
	Kernel kernel.Kernel
}

// DefaultBindings maps switch 0 to the identity kernel and switch 1 to the
// Gaussian blur.
func DefaultBindings() []Binding {
	return []Binding{
		{Bit: 0, Kernel: kernel.Identity},
		{Bit: 1, Kernel: kernel.Gaussian},
	}
}

// Selector is the switch edge detector.
type Selector struct {
	regs     *regs.RegisterFile
	bindings []Binding
	runner   Runner
	prev     uint32
}

// New creates a selector. The previous switch state starts at zero, so a
// switch that is already high at startup counts as a rising edge.
func New(
	f *regs.RegisterFile,
	bindings []Binding,
	runner Runner,
) (*Selector, error) {
	if !f.Has(regs.Switch) {
		return nil, &regs.ConfigError{
			Field:  "offsets.switch",
			Reason: "the selector needs a SWITCH register",
		}
	}

	if len(bindings) == 0 {
		return nil, &regs.ConfigError{
			Field:  "selector.bindings",
			Reason: "at least one binding is required",
		}
	}

	sorted := append([]Binding(nil), bindings...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Bit < sorted[j].Bit
	})

	for i, b := range sorted {
		if b.Bit > 31 {
			return nil, &regs.ConfigError{
				Field:  "selector.bindings",
				Reason: fmt.Sprintf("switch bit %d out of range", b.Bit),
			}
		}

		if i > 0 && sorted[i-1].Bit == b.Bit {
			return nil, &regs.ConfigError{
				Field:  "selector.bindings",
				Reason: fmt.Sprintf("switch bit %d bound twice", b.Bit),
			}
		}

		if b.Kernel.Taps() != f.NumWeights() {
			return nil, &regs.ConfigError{
				Field: "selector.bindings",
				Reason: fmt.Sprintf("kernel %s has %d taps, device has %d",
					b.Kernel.Name(), b.Kernel.Taps(), f.NumWeights()),
			}
		}
	}

	return &Selector{
		regs:     f,
		bindings: sorted,
		runner:   runner,
	}, nil
}

// Poll reads the switches once. It returns the binding of the lowest bound
// bit that went from 0 to 1 since the last poll. Other edges seen in the same
// poll are dropped.
func (s *Selector) Poll() (Binding, bool) {
	curr := s.regs.Read(regs.Switch)
	rising := curr &^ s.prev
	s.prev = curr

	metrics.SwitchPollsTotal.Inc()

	for _, b := range s.bindings {
		if rising&(1<<b.Bit) == 0 {
			continue
		}

		metrics.SwitchEdgesTotal.WithLabelValues(b.Kernel.Name()).Inc()
		regs.Trace("Selector",
			"Behavior", "RisingEdge",
			"Switches", fmt.Sprintf("0x%X", curr),
			"Bit", b.Bit,
			"Kernel", b.Kernel.Name(),
		)

		return b, true
	}

	return Binding{}, false
}

// Step polls once and runs the selected kernel, if any. It reports whether a
// run was started.
func (s *Selector) Step(ctx context.Context) (bool, error) {
	b, ok := s.Poll()
	if !ok {
		return false, nil
	}

	return true, s.runner.RunKernel(ctx, b.Kernel)
}

// Loop polls every interval until ctx is done or maxPolls polls were made.
// maxPolls <= 0 polls forever. A failed run is logged and the loop goes on;
// the next selection reloads the device from scratch.
func (s *Selector) Loop(
	ctx context.Context,
	interval time.Duration,
	maxPolls int,
) error {
	for polls := 0; maxPolls <= 0 || polls < maxPolls; polls++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		ran, err := s.Step(ctx)
		if err != nil {
			slog.Error("selected run failed", "Error", err)
		}

		if ran || interval <= 0 {
			continue
		}

		t := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}

	return nil
}
