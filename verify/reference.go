package verify

import (
	"github.com/sarchlab/convaccel/kernel"
)

// Geometry is the frame size a 2D kernel is applied over.
type Geometry struct {
	Width  int
	Height int
}

// Reference computes the expected outputs of k over samples. 2D kernels use
// g; 1D kernels ignore it.
func Reference(samples []uint32, k kernel.Kernel, g Geometry) []uint32 {
	if k.Is2D() {
		return Reference2D(samples, k.Coefficients(), g.Width, g.Height)
	}

	return Reference1D(samples, k.Coefficients())
}

// Reference1D is a zero-padded FIR convolution.
func Reference1D(samples []uint32, coeffs []int32) []uint32 {
	out := make([]uint32, len(samples))

	for n := range samples {
		var acc int64
		for k, c := range coeffs {
			if n-k < 0 {
				break
			}

			acc += int64(c) * int64(samples[n-k])
		}

		out[n] = uint32(acc)
	}

	return out
}

// Reference2D is a zero-padded 3x3 convolution over a row-major frame of
// width x height pixels. Samples past the first frame are treated as
// following frames.
func Reference2D(samples []uint32, coeffs []int32, width, height int) []uint32 {
	if len(coeffs) != 9 {
		panic("Reference2D needs a 3x3 kernel")
	}

	if width <= 0 || height <= 0 {
		panic("Reference2D needs a positive frame size")
	}

	out := make([]uint32, len(samples))
	frame := width * height

	pixel := func(base, r, c int) (uint32, bool) {
		if r < 0 || r >= height || c < 0 || c >= width {
			return 0, false
		}

		idx := base + r*width + c
		if idx >= len(samples) {
			return 0, false
		}

		return samples[idx], true
	}

	for n := range samples {
		base := n / frame * frame
		r := (n - base) / width
		c := (n - base) % width

		var acc int64
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				x, ok := pixel(base, r+1-i, c+1-j)
				if !ok {
					continue
				}

				acc += int64(coeffs[i*3+j]) * int64(x)
			}
		}

		out[n] = uint32(acc)
	}

	return out
}
