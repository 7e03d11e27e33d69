package accel

import (
	"fmt"
	"strings"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/convaccel/regs"
)

// CheckName tells whether name can name a simulated component. Each
// dot-separated element starts with an upper-case letter, continues with
// letters and digits and may end in bracketed indexes, as in "Accel[0]".
func CheckName(name string) error {
	for _, elem := range strings.Split(name, ".") {
		if err := checkNameElement(elem); err != nil {
			return &regs.ConfigError{
				Field:  "name",
				Reason: fmt.Sprintf("%q: %s", name, err),
			}
		}
	}

	return nil
}

func checkNameElement(elem string) error {
	base, index, _ := strings.Cut(elem, "[")

	if base == "" {
		return fmt.Errorf("empty name element")
	}

	if base[0] < 'A' || base[0] > 'Z' {
		return fmt.Errorf("element %q must start with an upper-case letter",
			elem)
	}

	for _, c := range base {
		if !isLetter(c) && !isDigit(c) {
			return fmt.Errorf("element %q contains %q", elem, c)
		}
	}

	if index == "" {
		if strings.Contains(elem, "[") {
			return fmt.Errorf("element %q has an empty index", elem)
		}

		return nil
	}

	for _, idx := range strings.Split(index, "[") {
		digits, ok := strings.CutSuffix(idx, "]")
		if !ok || digits == "" || strings.Trim(digits, "0123456789") != "" {
			return fmt.Errorf("element %q has a malformed index", elem)
		}
	}

	return nil
}

func isLetter(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}

// RegisterTracer logs register traffic and results at regs.LevelTrace.
type RegisterTracer struct{}

// Func implements sim.Hook.
func (RegisterTracer) Func(ctx sim.HookCtx) {
	switch item := ctx.Item.(type) {
	case RegAccess:
		regs.Trace("Register",
			"Behavior", ctx.Pos.Name,
			"Register", item.Register,
			"Offset", item.Offset,
			"Value", item.Value,
		)
	case Result:
		regs.Trace("Datapath",
			"Behavior", ctx.Pos.Name,
			"Index", item.Index,
			"Input", item.Input,
			"Output", item.Output,
		)
	}
}

// ScriptedSwitches returns a switch source that yields one mask per read and
// holds the last one once the script runs out.
func ScriptedSwitches(masks []uint32) func() uint32 {
	script := append([]uint32(nil), masks...)
	i := 0
	return func() uint32 {
		if len(script) == 0 {
			return 0
		}

		v := script[i]
		if i < len(script)-1 {
			i++
		}

		return v
	}
}
