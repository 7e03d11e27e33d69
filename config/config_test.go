package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/convaccel/regs"
)

func expectConfigError(err error, field string) {
	var cfgErr *regs.ConfigError
	ExpectWithOffset(1, errors.As(err, &cfgErr)).To(BeTrue(), "%v", err)
	ExpectWithOffset(1, cfgErr.Field).To(Equal(field))
}

var _ = Describe("Config", func() {
	It("should provide valid presets", func() {
		Expect(PresetNames()).To(Equal([]string{
			"conv2d-128x128", "conv2d-8x8", "fir3-literal", "switch-loop",
		}))

		for _, name := range PresetNames() {
			c, err := Preset(name)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Validate()).To(Succeed(), name)
		}
	})

	It("should reject an unknown preset", func() {
		_, err := Preset("conv5d")
		expectConfigError(err, "preset")
	})

	It("should parse a layout by name", func() {
		c, err := Parse([]byte(`
layout: conv2d-polled
device: sim
sim:
  stall_on_read: false
  latency_cycles: 2
  faults:
    - index: 12
      mask: 0x10
kernel: gaussian
geometry: {width: 4, height: 4}
samples: {pattern: modulo, modulus: 16}
selector:
  enabled: true
  poll_interval: 10ms
  bindings:
    - {bit: 3, kernel: identity}
`))

		Expect(err).NotTo(HaveOccurred())
		Expect(c.Layout.Name).To(Equal("conv2d-polled"))
		Expect(c.Sim.Stall()).To(BeFalse())
		Expect(c.Sim.Faults).To(Equal([]FaultConfig{{Index: 12, Mask: 0x10}}))
		Expect(c.SampleCount()).To(Equal(16))
		Expect(c.Selector.PollInterval).To(Equal(10 * time.Millisecond))
		Expect(c.Selector.Bindings[0].Bit).To(Equal(uint(3)))
	})

	It("should parse an inline layout", func() {
		c, err := Parse([]byte(`
layout:
  name: custom
  base: 0x40000000
  size: 0x20
  num_weights: 3
  offsets:
    data_in: 0x0
    data_out: 0x4
    weight: 0x8
    clear: 0x14
device: sim
kernel: smooth3
samples: {pattern: literal, literal: [1, 2, 3]}
`))

		Expect(err).NotTo(HaveOccurred())
		Expect(c.Layout.Base).To(Equal(uint64(0x40000000)))
		off, ok := c.Layout.Offset(regs.Clear)
		Expect(ok).To(BeTrue())
		Expect(off).To(Equal(uint32(0x14)))
	})

	It("should load a file", func() {
		dir, err := os.MkdirTemp("", "convaccel")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, dir)

		path := filepath.Join(dir, "run.yaml")
		Expect(os.WriteFile(path, []byte(`
layout: fir3
device: sim
kernel: smooth3
samples: {pattern: modulo, count: 5}
`), 0o644)).To(Succeed())

		c, err := Load(path)

		Expect(err).NotTo(HaveOccurred())
		Expect(c.SampleCount()).To(Equal(5))
	})

	DescribeTable("should reject invalid configurations",
		func(doc, field string) {
			_, err := Parse([]byte(doc))
			expectConfigError(err, field)
		},
		Entry("unknown key", `
layout: fir3
device: sim
kernel: smooth3
colour: red
`, "yaml"),
		Entry("unknown layout", `
layout: conv5d
`, "yaml"),
		Entry("unknown device", `
layout: fir3
device: fpga
kernel: smooth3
samples: {pattern: modulo, count: 3}
`, "device"),
		Entry("unknown kernel", `
layout: fir3
device: sim
kernel: sharpen
`, "kernel"),
		Entry("taps mismatch", `
layout: fir3
device: sim
kernel: gaussian
geometry: {width: 4, height: 4}
`, "kernel"),
		Entry("2D kernel without frame", `
layout: conv2d
device: sim
kernel: identity
samples: {pattern: modulo}
`, "geometry"),
		Entry("partial frame", `
layout: conv2d
device: sim
kernel: identity
geometry: {width: 4, height: 4}
samples: {pattern: modulo, count: 10}
`, "samples"),
		Entry("no stall without status", `
layout: conv2d
device: sim
sim: {stall_on_read: false}
kernel: identity
geometry: {width: 4, height: 4}
samples: {pattern: modulo}
`, "sim.stall_on_read"),
		Entry("selector without switches", `
layout: fir3
device: sim
kernel: smooth3
samples: {pattern: modulo, count: 3}
selector: {enabled: true}
`, "selector"),
		Entry("selector binding to a missing kernel", `
layout: conv2d
device: sim
kernel: identity
geometry: {width: 4, height: 4}
samples: {pattern: modulo}
selector:
  enabled: true
  bindings: [{bit: 0, kernel: sharpen}]
`, "selector.bindings[0]"),
		Entry("empty literal", `
layout: fir3
device: sim
kernel: smooth3
samples: {pattern: literal}
`, "samples.literal"),
	)
})
