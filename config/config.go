// Package config describes a run of the convolution accelerator and builds
// the platform that executes it.
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/sarchlab/convaccel/kernel"
	"github.com/sarchlab/convaccel/regs"
	"gopkg.in/yaml.v3"
)

// Device kinds.
const (
	DeviceSim    = "sim"
	DeviceDevMem = "devmem"
)

// Sample patterns.
const (
	PatternModulo  = "modulo"
	PatternLiteral = "literal"
)

// Config is a complete run configuration.
type Config struct {
	Layout         LayoutRef      `yaml:"layout"`
	Device         string         `yaml:"device"`
	Sim            SimConfig      `yaml:"sim"`
	DevMem         DevMemConfig   `yaml:"devmem"`
	Kernel         string         `yaml:"kernel"`
	Geometry       GeometryConfig `yaml:"geometry"`
	Samples        SamplesConfig  `yaml:"samples"`
	Flush          *int           `yaml:"flush"`
	Report         ReportConfig   `yaml:"report"`
	Selector       SelectorConfig `yaml:"selector"`
	HandoffAddress uint32         `yaml:"handoff_address"`
}

// LayoutRef is either the name of a built-in layout or an inline map.
type LayoutRef struct {
	regs.Map
}

// UnmarshalYAML accepts a layout name or a mapping.
func (l *LayoutRef) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		m, err := regs.LayoutByName(value.Value)
		if err != nil {
			return err
		}

		l.Map = m

		return nil
	}

	return value.Decode(&l.Map)
}

// MarshalYAML always writes the inline map.
func (l LayoutRef) MarshalYAML() (interface{}, error) {
	return l.Map, nil
}

// SimConfig tunes the simulated accelerator.
type SimConfig struct {
	LatencyCycles int           `yaml:"latency_cycles"`
	StallOnRead   *bool         `yaml:"stall_on_read"`
	FreqMHz       float64       `yaml:"freq_mhz"`
	Faults        []FaultConfig `yaml:"faults"`
	SwitchScript  []uint32      `yaml:"switch_script"`
}

// Stall tells whether a DATA_OUT read holds the bus until the result is
// ready. It defaults to true.
func (c SimConfig) Stall() bool {
	return c.StallOnRead == nil || *c.StallOnRead
}

// FaultConfig corrupts the output of one streamed sample.
type FaultConfig struct {
	Index uint64 `yaml:"index"`
	Mask  uint32 `yaml:"mask"`
}

// DevMemConfig locates an optional cycle counter peripheral for a run on
// real hardware.
type DevMemConfig struct {
	CounterBase  uint64 `yaml:"counter_base"`
	CounterValue uint32 `yaml:"counter_value"`
	CounterReset uint32 `yaml:"counter_reset"`
}

// GeometryConfig is the frame size of a 2D run.
type GeometryConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// SamplesConfig describes the input stream.
type SamplesConfig struct {
	Pattern string   `yaml:"pattern"`
	Modulus uint32   `yaml:"modulus"`
	Count   int      `yaml:"count"`
	Literal []uint32 `yaml:"literal"`
}

// ReportConfig controls the diagnostics output.
type ReportConfig struct {
	First int    `yaml:"first"`
	Every int    `yaml:"every"`
	Rows  string `yaml:"rows"`
	File  string `yaml:"file"`
}

// SelectorConfig enables the switch-driven loop.
type SelectorConfig struct {
	Enabled      bool            `yaml:"enabled"`
	Bindings     []BindingConfig `yaml:"bindings"`
	PollInterval time.Duration   `yaml:"poll_interval"`
	MaxPolls     int             `yaml:"max_polls"`
}

// BindingConfig ties a switch bit to a kernel name.
type BindingConfig struct {
	Bit    uint   `yaml:"bit"`
	Kernel string `yaml:"kernel"`
}

// Load reads a configuration file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	return Parse(data)
}

// Parse decodes a YAML configuration and validates it. Unknown keys are
// rejected.
func Parse(data []byte) (Config, error) {
	var c Config

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&c); err != nil {
		return Config{}, &regs.ConfigError{Field: "yaml", Reason: err.Error()}
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}

	return c, nil
}

// Validate checks the configuration without touching any device.
func (c Config) Validate() error {
	if err := c.Layout.Validate(); err != nil {
		return err
	}

	switch c.Device {
	case DeviceSim, DeviceDevMem:
	default:
		return &regs.ConfigError{
			Field:  "device",
			Reason: fmt.Sprintf("unknown device %q", c.Device),
		}
	}

	k, err := c.LookupKernel()
	if err != nil {
		return err
	}

	if err := c.checkKernel("kernel", k); err != nil {
		return err
	}

	if c.Sim.LatencyCycles < 0 {
		return &regs.ConfigError{
			Field:  "sim.latency_cycles",
			Reason: "must not be negative",
		}
	}

	if c.Device == DeviceSim && !c.Sim.Stall() {
		if _, ok := c.Layout.Offset(regs.Status); !ok {
			return &regs.ConfigError{
				Field:  "sim.stall_on_read",
				Reason: "a bus without stalling needs a STATUS register",
			}
		}
	}

	if c.Flush != nil && *c.Flush < 0 {
		return &regs.ConfigError{Field: "flush", Reason: "must not be negative"}
	}

	if err := c.validateSamples(k); err != nil {
		return err
	}

	return c.validateSelector()
}

func (c Config) checkKernel(field string, k kernel.Kernel) error {
	if k.Taps() != c.Layout.NumWeights {
		return &regs.ConfigError{
			Field: field,
			Reason: fmt.Sprintf("%s has %d taps, layout has %d weights",
				k.Name(), k.Taps(), c.Layout.NumWeights),
		}
	}

	if k.Is2D() && (c.Geometry.Width <= 0 || c.Geometry.Height <= 0) {
		return &regs.ConfigError{
			Field:  "geometry",
			Reason: fmt.Sprintf("2D kernel %s needs a frame size", k.Name()),
		}
	}

	return nil
}

func (c Config) validateSamples(k kernel.Kernel) error {
	switch c.Samples.Pattern {
	case PatternModulo:
		if c.Samples.Count < 0 {
			return &regs.ConfigError{
				Field:  "samples.count",
				Reason: "must not be negative",
			}
		}

		if !k.Is2D() && c.Samples.Count == 0 {
			return &regs.ConfigError{
				Field:  "samples.count",
				Reason: "a 1D run needs a sample count",
			}
		}
	case PatternLiteral:
		if len(c.Samples.Literal) == 0 {
			return &regs.ConfigError{
				Field:  "samples.literal",
				Reason: "no samples given",
			}
		}
	default:
		return &regs.ConfigError{
			Field:  "samples.pattern",
			Reason: fmt.Sprintf("unknown pattern %q", c.Samples.Pattern),
		}
	}

	if k.Is2D() {
		n := c.SampleCount()
		frame := c.Geometry.Width * c.Geometry.Height
		if n%frame != 0 {
			return &regs.ConfigError{
				Field: "samples",
				Reason: fmt.Sprintf("%d samples is not a whole number of "+
					"%dx%d frames", n, c.Geometry.Width, c.Geometry.Height),
			}
		}
	}

	return nil
}

func (c Config) validateSelector() error {
	if !c.Selector.Enabled {
		return nil
	}

	if _, ok := c.Layout.Offset(regs.Switch); !ok {
		return &regs.ConfigError{
			Field:  "selector",
			Reason: "layout has no SWITCH register",
		}
	}

	for i, b := range c.Selector.Bindings {
		field := fmt.Sprintf("selector.bindings[%d]", i)

		k, ok := kernel.Lookup(b.Kernel)
		if !ok {
			return &regs.ConfigError{
				Field:  field,
				Reason: fmt.Sprintf("unknown kernel %q", b.Kernel),
			}
		}

		if err := c.checkKernel(field, k); err != nil {
			return err
		}
	}

	return nil
}

// LookupKernel resolves the configured kernel name.
func (c Config) LookupKernel() (kernel.Kernel, error) {
	k, ok := kernel.Lookup(c.Kernel)
	if !ok {
		return kernel.Kernel{}, &regs.ConfigError{
			Field:  "kernel",
			Reason: fmt.Sprintf("unknown kernel %q", c.Kernel),
		}
	}

	return k, nil
}

// SampleCount returns the length of the input stream. A modulo pattern
// without a count covers one frame.
func (c Config) SampleCount() int {
	if c.Samples.Pattern == PatternLiteral {
		return len(c.Samples.Literal)
	}

	if c.Samples.Count == 0 {
		return c.Geometry.Width * c.Geometry.Height
	}

	return c.Samples.Count
}
