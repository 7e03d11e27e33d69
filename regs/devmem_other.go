//go:build !linux

package regs

import "errors"

// DevMem is only available on Linux.
type DevMem struct{}

// OpenDevMem always fails on this platform.
func OpenDevMem(base uint64, size uint32) (*DevMem, error) {
	return nil, errors.New("/dev/mem access is only supported on linux")
}

func (d *DevMem) Size() uint32 { return 0 }
func (d *DevMem) Read32(offset uint32) uint32 { panic("devmem unsupported") }
func (d *DevMem) Write32(offset, value uint32) { panic("devmem unsupported") }
func (d *DevMem) Close() error { return nil }
