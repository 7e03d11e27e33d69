package api

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/convaccel/kernel"
	"github.com/sarchlab/convaccel/regs"
)

// accessLog records register accesses and sink writes in one sequence.
type accessLog struct {
	events []string
}

func (l *accessLog) Write(p []byte) (int, error) {
	l.events = append(l.events, "sink "+string(p))
	return len(p), nil
}

func (l *accessLog) write(off, v uint32) {
	l.events = append(l.events, fmt.Sprintf("w 0x%02X 0x%X", off, v))
}

func (l *accessLog) read(off uint32) {
	l.events = append(l.events, fmt.Sprintf("r 0x%02X", off))
}

func makeRegisterFile(window *MockWindow, layout regs.Map) *regs.RegisterFile {
	window.EXPECT().Size().Return(layout.Size).AnyTimes()

	f, err := regs.NewRegisterFile(window, layout)
	Expect(err).NotTo(HaveOccurred())

	return f
}

var _ = Describe("Driver", func() {
	var (
		mockCtrl *gomock.Controller
		window   *MockWindow
		counter  *MockCycleCounter
		sink     *bytes.Buffer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		window = NewMockWindow(mockCtrl)
		counter = NewMockCycleCounter(mockCtrl)
		sink = new(bytes.Buffer)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	Context("with the conv2d layout", func() {
		var d *driverImpl

		BeforeEach(func() {
			d = DriverBuilder{}.
				WithRegisterFile(makeRegisterFile(window, regs.Conv2DLayout())).
				WithCycleCounter(counter).
				WithSink(sink).
				Build("Driver").(*driverImpl)
		})

		It("should refuse to stream before a kernel is loaded", func() {
			_, err := d.Stream([]uint32{1, 2, 3})

			Expect(err).To(MatchError(ErrNoKernel))
			_, loaded := d.Kernel()
			Expect(loaded).To(BeFalse())
		})

		It("should clear before writing the weights in order", func() {
			calls := []*gomock.Call{
				window.EXPECT().Write32(uint32(0x08), uint32(1)),
			}
			for i := 0; i < 9; i++ {
				calls = append(calls, window.EXPECT().
					Write32(uint32(0x0C+4*i), uint32(kernel.Gaussian.At(i))))
			}
			gomock.InOrder(calls...)

			Expect(d.LoadKernel(kernel.Gaussian)).To(Succeed())

			k, loaded := d.Kernel()
			Expect(loaded).To(BeTrue())
			Expect(k.Name()).To(Equal("gaussian"))
			Expect(sink.String()).To(Equal("Setting Weights...\r\n"))
		})

		It("should write negative coefficients as two's complement", func() {
			k := kernel.MustNew("edge", 3, 3,
				0, -1, 0,
				-1, 4, -1,
				0, -1, 0)

			window.EXPECT().Write32(uint32(0x08), uint32(1))
			window.EXPECT().Write32(uint32(0x10), uint32(0xFFFFFFFF))
			window.EXPECT().Write32(uint32(0x1C), uint32(4))
			window.EXPECT().Write32(gomock.Any(), gomock.Any()).Times(7)

			Expect(d.LoadKernel(k)).To(Succeed())
		})

		It("should reject a kernel with the wrong number of taps", func() {
			err := d.LoadKernel(kernel.Smooth3)

			var cfgErr *regs.ConfigError
			Expect(errors.As(err, &cfgErr)).To(BeTrue())
			Expect(cfgErr.Field).To(Equal("kernel"))
			_, loaded := d.Kernel()
			Expect(loaded).To(BeFalse())
		})

		It("should pair every write with one read", func() {
			window.EXPECT().Write32(gomock.Any(), gomock.Any()).Times(10)
			Expect(d.LoadKernel(kernel.Identity)).To(Succeed())
			sink.Reset()

			counter.EXPECT().Reset()
			counter.EXPECT().Read().Return(uint64(100))
			gomock.InOrder(
				window.EXPECT().Write32(uint32(0x00), uint32(7)),
				window.EXPECT().Read32(uint32(0x04)).Return(uint32(70)),
				window.EXPECT().Write32(uint32(0x00), uint32(8)),
				window.EXPECT().Read32(uint32(0x04)).Return(uint32(80)),
			)
			counter.EXPECT().Read().Return(uint64(164))

			res, err := d.Stream([]uint32{7, 8})

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Inputs).To(Equal([]uint32{7, 8}))
			Expect(res.Outputs).To(Equal([]uint32{70, 80}))
			Expect(res.Cycles).To(Equal(uint64(64)))
			Expect(sink.String()).To(Equal(
				"idx: 0x00000000 | In: 0x00000007 -> Out: 0x00000046\r\n" +
					"idx: 0x00000001 | In: 0x00000008 -> Out: 0x00000050\r\n" +
					"Computing time : 0x00000040\r\n"))
		})

		It("should drop the first depth outputs of a pass", func() {
			window.EXPECT().Write32(gomock.Any(), gomock.Any()).Times(10)
			Expect(d.LoadKernel(kernel.Identity)).To(Succeed())

			counter.EXPECT().Reset()
			counter.EXPECT().Read().Return(uint64(0)).Times(2)

			var written []uint32
			window.EXPECT().Write32(uint32(0x00), gomock.Any()).
				Do(func(_, v uint32) { written = append(written, v) }).
				Times(5)
			next := uint32(0)
			window.EXPECT().Read32(uint32(0x04)).
				DoAndReturn(func(uint32) uint32 { next++; return next }).
				Times(5)

			res, err := d.Pass([]uint32{5, 6, 7}, 2)

			Expect(err).NotTo(HaveOccurred())
			Expect(written).To(Equal([]uint32{5, 6, 7, 0, 0}))
			Expect(res.Inputs).To(Equal([]uint32{5, 6, 7}))
			Expect(res.Outputs).To(Equal([]uint32{3, 4, 5}))
		})

		It("should reject a negative pipeline depth", func() {
			_, err := d.Pass([]uint32{1}, -1)
			Expect(err).To(HaveOccurred())
		})
	})

	Context("with the fir3 layout", func() {
		var (
			d   *driverImpl
			log *accessLog
		)

		BeforeEach(func() {
			log = &accessLog{}
			d = DriverBuilder{}.
				WithRegisterFile(makeRegisterFile(window, regs.FIR3Layout())).
				WithSink(log).
				WithReportFilter(func(i int) bool { return i == 1 }).
				Build("Driver").(*driverImpl)

			window.EXPECT().Write32(gomock.Any(), gomock.Any()).
				Do(log.write).AnyTimes()
			window.EXPECT().Read32(gomock.Any()).
				DoAndReturn(func(off uint32) uint32 {
					log.read(off)
					return 0x11
				}).AnyTimes()
		})

		It("should clear through CONTROL and strobe start per sample", func() {
			Expect(d.LoadKernel(kernel.Smooth3)).To(Succeed())
			_, err := d.Stream([]uint32{3, 4})
			Expect(err).NotTo(HaveOccurred())

			Expect(log.events).To(Equal([]string{
				"w 0x00 0x2",
				"w 0x00 0x0",
				"sink Setting Weights...\r\n",
				"w 0x08 0x1",
				"w 0x0C 0x2",
				"w 0x10 0x1",
				"w 0x04 0x3",
				"w 0x00 0x1",
				"r 0x14",
				"w 0x04 0x4",
				"w 0x00 0x1",
				"r 0x14",
				"sink idx: 0x00000001 | In: 0x00000004 -> Out: 0x00000011\r\n",
				"sink Computing time : 0x00000000\r\n",
			}))
		})
	})

	Context("with the polled layout", func() {
		var d *driverImpl

		BeforeEach(func() {
			d = DriverBuilder{}.
				WithRegisterFile(
					makeRegisterFile(window, regs.Conv2DPolledLayout())).
				WithMaxPolls(3).
				Build("Driver").(*driverImpl)

			window.EXPECT().Write32(gomock.Any(), gomock.Any()).Times(10)
			Expect(d.LoadKernel(kernel.Identity)).To(Succeed())
		})

		It("should read DATA_OUT once STATUS is valid", func() {
			gomock.InOrder(
				window.EXPECT().Write32(uint32(0x00), uint32(9)),
				window.EXPECT().Read32(uint32(0x34)).Return(uint32(0)),
				window.EXPECT().Read32(uint32(0x34)).Return(regs.StatusValid),
				window.EXPECT().Read32(uint32(0x04)).Return(uint32(90)),
			)

			res, err := d.Stream([]uint32{9})

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Outputs).To(Equal([]uint32{90}))
		})

		It("should time out and require a reload", func() {
			window.EXPECT().Write32(uint32(0x00), uint32(1))
			window.EXPECT().Write32(uint32(0x00), uint32(2))
			window.EXPECT().Read32(uint32(0x04)).Return(uint32(10))
			window.EXPECT().Read32(uint32(0x34)).Return(regs.StatusValid)
			window.EXPECT().Read32(uint32(0x34)).Return(uint32(0)).Times(3)

			_, err := d.Stream([]uint32{1, 2})

			var timeout *DeviceTimeoutError
			Expect(errors.As(err, &timeout)).To(BeTrue())
			Expect(timeout.Index).To(Equal(1))
			Expect(timeout.Polls).To(Equal(3))

			_, err = d.Stream([]uint32{1})
			Expect(err).To(MatchError(ErrNoKernel))
		})
	})
})

var _ = Describe("RegisterCycleCounter", func() {
	It("should strobe reset and read the value register", func() {
		mockCtrl := gomock.NewController(GinkgoT())
		defer mockCtrl.Finish()
		window := NewMockWindow(mockCtrl)

		c := NewRegisterCycleCounter(window, 0x4, 0x0)

		window.EXPECT().Write32(uint32(0x0), uint32(1))
		window.EXPECT().Read32(uint32(0x4)).Return(uint32(1234))

		c.Reset()
		Expect(c.Read()).To(Equal(uint64(1234)))
	})
})

var _ = Describe("EveryN", func() {
	It("should select the first indexes and every n-th one", func() {
		f := EveryN(3, 10)

		var picked []int
		for i := 0; i < 35; i++ {
			if f(i) {
				picked = append(picked, i)
			}
		}

		Expect(picked).To(Equal([]int{0, 1, 2, 10, 20, 30}))
	})

	It("should select only the first indexes when n is zero", func() {
		f := EveryN(2, 0)
		Expect(f(1)).To(BeTrue())
		Expect(f(2)).To(BeFalse())
		Expect(Quiet(0)).To(BeFalse())
	})
})
