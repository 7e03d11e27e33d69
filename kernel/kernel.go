// Package kernel defines the filter coefficient sets that can be programmed
// into the accelerator.
package kernel

import (
	"fmt"
	"sort"
	"strings"
)

// Kernel is an immutable, named set of integer coefficients laid out
// row-major in a Rows x Cols grid. A 1D filter has a single row.
type Kernel struct {
	name   string
	rows   int
	cols   int
	coeffs []int32
}

// New creates a kernel. The coefficients are copied.
func New(name string, rows, cols int, coeffs ...int32) (Kernel, error) {
	if rows <= 0 || cols <= 0 {
		return Kernel{}, fmt.Errorf("kernel %q: invalid shape %dx%d",
			name, rows, cols)
	}

	if len(coeffs) != rows*cols {
		return Kernel{}, fmt.Errorf("kernel %q: %dx%d needs %d coefficients, got %d",
			name, rows, cols, rows*cols, len(coeffs))
	}

	return Kernel{
		name:   name,
		rows:   rows,
		cols:   cols,
		coeffs: append([]int32(nil), coeffs...),
	}, nil
}

// MustNew is like New but panics on an invalid shape.
func MustNew(name string, rows, cols int, coeffs ...int32) Kernel {
	k, err := New(name, rows, cols, coeffs...)
	if err != nil {
		panic(err)
	}

	return k
}

// Name returns the diagnostic name of the kernel.
func (k Kernel) Name() string { return k.name }

// Rows returns the number of kernel rows.
func (k Kernel) Rows() int { return k.rows }

// Cols returns the number of kernel columns.
func (k Kernel) Cols() int { return k.cols }

// Taps returns the number of coefficients.
func (k Kernel) Taps() int { return len(k.coeffs) }

// Is2D tells whether the kernel is a spatial filter.
func (k Kernel) Is2D() bool { return k.rows > 1 }

// At returns coefficient i in row-major order.
func (k Kernel) At(i int) int32 { return k.coeffs[i] }

// Coefficients returns a copy of the coefficients.
func (k Kernel) Coefficients() []int32 {
	return append([]int32(nil), k.coeffs...)
}

// Sum returns the sum of all coefficients.
func (k Kernel) Sum() int64 {
	var s int64
	for _, c := range k.coeffs {
		s += int64(c)
	}

	return s
}

func (k Kernel) String() string {
	parts := make([]string, len(k.coeffs))
	for i, c := range k.coeffs {
		parts[i] = fmt.Sprintf("%d", c)
	}

	return fmt.Sprintf("%s(%dx%d)[%s]",
		k.name, k.rows, k.cols, strings.Join(parts, " "))
}

var (
	// Identity passes every pixel through unchanged.
	Identity = MustNew("identity", 3, 3,
		0, 0, 0,
		0, 1, 0,
		0, 0, 0)

	// Gaussian is the 3x3 binomial blur. Its weights sum to 16 and are
	// applied without normalization.
	Gaussian = MustNew("gaussian", 3, 3,
		1, 2, 1,
		2, 4, 2,
		1, 2, 1)

	// Smooth3 is the 3-tap 1D binomial filter.
	Smooth3 = MustNew("smooth3", 1, 3, 1, 2, 1)
)

var table = map[string]Kernel{
	Identity.Name(): Identity,
	Gaussian.Name(): Gaussian,
	Smooth3.Name():  Smooth3,
}

// Lookup returns a built-in kernel by name.
func Lookup(name string) (Kernel, bool) {
	k, ok := table[strings.ToLower(name)]
	return k, ok
}

// Names lists the built-in kernels.
func Names() []string {
	names := make([]string, 0, len(table))
	for n := range table {
		names = append(names, n)
	}

	sort.Strings(names)

	return names
}
