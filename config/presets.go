package config

import (
	"fmt"
	"sort"

	"github.com/sarchlab/convaccel/regs"
)

var presets = map[string]func() Config{
	"conv2d-8x8": func() Config {
		return conv2D(8, 8)
	},
	"conv2d-128x128": func() Config {
		return conv2D(128, 128)
	},
	"fir3-literal": func() Config {
		return Config{
			Layout: LayoutRef{regs.FIR3Layout()},
			Device: DeviceSim,
			Kernel: "smooth3",
			Samples: SamplesConfig{
				Pattern: PatternLiteral,
				Literal: []uint32{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
			},
			Report: ReportConfig{First: 20, Every: 1000},
		}
	},
	"switch-loop": func() Config {
		c := conv2D(8, 8)
		c.Sim.SwitchScript = []uint32{0, 1, 1, 0, 2, 2, 3, 0}
		c.Report = ReportConfig{}
		c.Selector = SelectorConfig{
			Enabled: true,
			Bindings: []BindingConfig{
				{Bit: 0, Kernel: "identity"},
				{Bit: 1, Kernel: "gaussian"},
			},
			MaxPolls: 8,
		}

		return c
	},
}

func conv2D(width, height int) Config {
	return Config{
		Layout:   LayoutRef{regs.Conv2DLayout()},
		Device:   DeviceSim,
		Kernel:   "identity",
		Geometry: GeometryConfig{Width: width, Height: height},
		Samples: SamplesConfig{
			Pattern: PatternModulo,
			Modulus: 256,
			Count:   width * height,
		},
		Report: ReportConfig{First: 20, Every: 1000},
	}
}

// Preset returns one of the built-in run configurations.
func Preset(name string) (Config, error) {
	p, ok := presets[name]
	if !ok {
		return Config{}, &regs.ConfigError{
			Field:  "preset",
			Reason: fmt.Sprintf("unknown preset %q", name),
		}
	}

	return p(), nil
}

// PresetNames lists the built-in run configurations.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}

	sort.Strings(names)

	return names
}
