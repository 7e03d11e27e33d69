// Package valgen provides closures that generate sample streams.
package valgen

// MakeConstGen returns a generator that always yields constant. Zero
// generators are used for pipeline flush samples.
func MakeConstGen(constant uint32) func() uint32 {
	return func() uint32 {
		return constant
	}
}

// MakeModuloGen returns a generator yielding 0, 1, 2, ... wrapped at modulus.
// A modulus of 0 never wraps.
func MakeModuloGen(modulus uint32) func() uint32 {
	var current uint32
	return func() uint32 {
		v := current
		current++
		if modulus != 0 && current == modulus {
			current = 0
		}
		return v
	}
}

// MakeLiteralGen returns a generator that yields the values in order and
// then repeats them.
func MakeLiteralGen(values []uint32) func() uint32 {
	vals := append([]uint32(nil), values...)
	i := 0
	return func() uint32 {
		if len(vals) == 0 {
			return 0
		}
		v := vals[i]
		i = (i + 1) % len(vals)
		return v
	}
}

// Take draws n values from gen.
func Take(gen func() uint32, n int) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		out[i] = gen()
	}
	return out
}
