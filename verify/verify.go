// Package verify checks accelerator output against a software reference.
//
// The reference ("golden model") reproduces the accelerator's arithmetic in
// plain Go:
//
//   - 1D filters are finite-impulse-response convolutions,
//     out[n] = sum_k c[k] * x[n-k], with x[j] = 0 for j < 0.
//   - 3x3 filters are 2D convolutions over a row-major frame,
//     out[r][c] = sum_{i,j} w[i*3+j] * x[r+1-i][c+1-j], with zero padding
//     at all four borders.
//
// Coefficients are signed 32-bit values, products are accumulated in 64 bits
// and the sum is truncated to 32 bits. No normalization is applied; a kernel
// whose weights sum to 16 produces outputs 16 times its input level.
//
// Compare pairs hardware and reference outputs index by index. It never stops
// at the first mismatch, so a single pass reports every failing sample.
//
// # Usage Example
//
//	ref := verify.Reference(samples, kernel.Identity, verify.Geometry{Width: 8, Height: 8})
//	summary, err := verify.Compare(samples, result.Outputs, ref)
//	if err != nil {
//	    return err
//	}
//	summary.WriteReport(os.Stdout, verify.FailuresOnly)
package verify

import (
	"fmt"
)

// Record is the verification outcome for one sample.
type Record struct {
	Index     int
	Input     uint32
	Hardware  uint32
	Reference uint32
	Pass      bool
}

// Summary aggregates the records of one pass.
type Summary struct {
	Kernel  string
	RunID   string
	Cycles  uint64
	Pass    int
	Fail    int
	Records []Record
}

// OK tells whether every sample matched.
func (s Summary) OK() bool {
	return s.Fail == 0
}

// Total returns the number of compared samples.
func (s Summary) Total() int {
	return s.Pass + s.Fail
}

// Failures returns the failing records.
func (s Summary) Failures() []Record {
	var out []Record
	for _, r := range s.Records {
		if !r.Pass {
			out = append(out, r)
		}
	}

	return out
}

// Compare checks hardware outputs against reference outputs. inputs may be
// nil; when present it must have the same length as the outputs.
func Compare(inputs, hardware, reference []uint32) (Summary, error) {
	if len(hardware) != len(reference) {
		return Summary{}, fmt.Errorf(
			"hardware produced %d outputs, reference has %d",
			len(hardware), len(reference))
	}

	if inputs != nil && len(inputs) != len(hardware) {
		return Summary{}, fmt.Errorf(
			"%d inputs for %d outputs", len(inputs), len(hardware))
	}

	s := Summary{Records: make([]Record, len(hardware))}

	for i := range hardware {
		r := Record{
			Index:     i,
			Hardware:  hardware[i],
			Reference: reference[i],
			Pass:      hardware[i] == reference[i],
		}

		if inputs != nil {
			r.Input = inputs[i]
		}

		if r.Pass {
			s.Pass++
		} else {
			s.Fail++
		}

		s.Records[i] = r
	}

	return s, nil
}
