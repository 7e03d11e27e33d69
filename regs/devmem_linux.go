//go:build linux

package regs

import (
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

const devMemPath = "/dev/mem"

// DevMem is a Window onto physical memory mapped from /dev/mem.
type DevMem struct {
	file  *os.File
	mem   []byte
	delta uint32
	size  uint32
}

// OpenDevMem maps size bytes of physical memory starting at base. The base
// does not have to be page aligned.
func OpenDevMem(base uint64, size uint32) (*DevMem, error) {
	if base%4 != 0 {
		return nil, &ConfigError{
			Field:  "base",
			Reason: fmt.Sprintf("0x%X is not word aligned", base),
		}
	}

	pageSize := uint64(os.Getpagesize())
	aligned := base &^ (pageSize - 1)
	delta := base - aligned
	length := (delta + uint64(size) + pageSize - 1) &^ (pageSize - 1)

	f, err := os.OpenFile(devMemPath, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", devMemPath, err)
	}

	mem, err := unix.Mmap(int(f.Fd()), int64(aligned), int(length),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap 0x%X: %w", aligned, err)
	}

	Trace("DevMem",
		"Behavior", "Map",
		"Base", fmt.Sprintf("0x%X", base),
		"Size", size,
		"Length", length,
	)

	return &DevMem{
		file:  f,
		mem:   mem,
		delta: uint32(delta),
		size:  size,
	}, nil
}

// Size returns the size of the register window.
func (d *DevMem) Size() uint32 {
	return d.size
}

// Read32 performs one 32-bit load from the device.
func (d *DevMem) Read32(offset uint32) uint32 {
	return atomic.LoadUint32(d.word(offset))
}

// Write32 performs one 32-bit store to the device.
func (d *DevMem) Write32(offset uint32, value uint32) {
	atomic.StoreUint32(d.word(offset), value)
}

func (d *DevMem) word(offset uint32) *uint32 {
	if offset%4 != 0 || offset+4 > d.size {
		panic(fmt.Sprintf("access at 0x%X outside window of 0x%X bytes",
			offset, d.size))
	}

	return (*uint32)(unsafe.Pointer(&d.mem[d.delta+offset]))
}

// Close unmaps the window.
func (d *DevMem) Close() error {
	if d.mem == nil {
		return nil
	}

	err := unix.Munmap(d.mem)
	d.mem = nil

	if cerr := d.file.Close(); err == nil {
		err = cerr
	}

	return err
}
