// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bus implements the system bus of the micro-controller: a flat
// 32-bit address space routing accesses to memories and peripherals.
//
// Accesses are little-endian, as on ARM Cortex-M cores.
package bus // import "github.com/go-lpc/dmacrc/bus"

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
)

// ErrFault is returned for accesses to unmapped addresses or accesses
// straddling two regions.
var ErrFault = errors.New("bus: fault")

// Device is a memory or a peripheral register window.
type Device interface {
	io.ReaderAt
	io.WriterAt
}

type region struct {
	name string
	base uint32
	size uint32
	dev  Device
}

func (r region) end() uint64 { return uint64(r.base) + uint64(r.size) }

// Bus routes reads and writes to mapped devices.
type Bus struct {
	mu   sync.RWMutex
	regs []region // sorted by base address
}

// New returns an empty bus.
func New() *Bus {
	return &Bus{}
}

// Map maps dev at [base, base+size).
func (b *Bus) Map(name string, base, size uint32, dev Device) error {
	if size == 0 {
		return fmt.Errorf("bus: could not map %q: empty region", name)
	}
	if uint64(base)+uint64(size) > 1<<32 {
		return fmt.Errorf("bus: could not map %q: region 0x%08x+0x%x overflows", name, base, size)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	r := region{name: name, base: base, size: size, dev: dev}
	for _, o := range b.regs {
		if uint64(r.base) < o.end() && uint64(o.base) < r.end() {
			return fmt.Errorf(
				"bus: could not map %q at 0x%08x: overlaps %q at 0x%08x",
				name, base, o.name, o.base,
			)
		}
	}
	b.regs = append(b.regs, r)
	sort.Slice(b.regs, func(i, j int) bool {
		return b.regs[i].base < b.regs[j].base
	})
	return nil
}

// Region returns the name of the region mapped at addr.
func (b *Bus) Region(addr uint32) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	r, err := b.lookup(int64(addr), 1)
	if err != nil {
		return "", false
	}
	return r.name, true
}

func (b *Bus) lookup(addr int64, n int) (region, error) {
	if addr < 0 || addr >= 1<<32 {
		return region{}, fmt.Errorf("%w: invalid address 0x%x", ErrFault, addr)
	}
	i := sort.Search(len(b.regs), func(i int) bool {
		return b.regs[i].end() > uint64(addr)
	})
	if i == len(b.regs) || uint64(addr) < uint64(b.regs[i].base) {
		return region{}, fmt.Errorf("%w: no device at 0x%08x", ErrFault, addr)
	}
	r := b.regs[i]
	if uint64(addr)+uint64(n) > r.end() {
		return region{}, fmt.Errorf(
			"%w: %d-byte access at 0x%08x crosses the end of %q",
			ErrFault, n, addr, r.name,
		)
	}
	return r, nil
}

// ReadAt reads len(p) bytes at address addr.
func (b *Bus) ReadAt(p []byte, addr int64) (int, error) {
	b.mu.RLock()
	r, err := b.lookup(addr, len(p))
	b.mu.RUnlock()
	if err != nil {
		return 0, err
	}
	return r.dev.ReadAt(p, addr-int64(r.base))
}

// WriteAt writes p at address addr.
func (b *Bus) WriteAt(p []byte, addr int64) (int, error) {
	b.mu.RLock()
	r, err := b.lookup(addr, len(p))
	b.mu.RUnlock()
	if err != nil {
		return 0, err
	}
	return r.dev.WriteAt(p, addr-int64(r.base))
}

var (
	_ Device = (*Bus)(nil)
)
