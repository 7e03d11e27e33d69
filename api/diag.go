package api

import (
	"fmt"
	"io"
)

func hex(v uint32) string {
	return fmt.Sprintf("0x%08X", v)
}

func writeSample(w io.Writer, i int, in, out uint32) {
	fmt.Fprintf(w, "idx: %s | In: %s -> Out: %s\r\n",
		hex(uint32(i)), hex(in), hex(out))
}

// EveryN selects the first indexes and then every n-th one. n <= 0 selects
// only the first indexes.
func EveryN(first, n int) func(i int) bool {
	return func(i int) bool {
		return i < first || (n > 0 && i%n == 0)
	}
}

// Quiet selects no index.
func Quiet(int) bool { return false }
