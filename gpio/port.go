// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/go-lpc/dmacrc/internal/mmap"
)

// Register offsets of a port.
const (
	OUT = 0x00 // output register
	OMR = 0x04 // output modification register (write-only)
	IN  = 0x24 // input register

	// Size is the size of the register window of one port.
	Size = 0x100

	// NumPins is the number of pins of a port.
	NumPins = 16
)

var errBusWidth = errors.New("gpio: invalid bus access width")

type reg32 struct {
	r func() uint32
	w func(v uint32)
}

func newReg32(p *Port, offset int64) reg32 {
	return reg32{
		r: func() uint32 {
			return p.readU32(offset)
		},
		w: func(v uint32) {
			p.writeU32(offset, v)
		},
	}
}

// Port is a GPIO port.
//
// Port implements io.ReaderAt and io.WriterAt over its register window, so
// it can be mapped on the system bus.
type Port struct {
	mu  sync.Mutex
	mem *mmap.Handle
	err error
	buf [4]byte

	regs struct {
		out reg32
		omr reg32
		in  reg32
	}
}

// NewPort returns a new port with all its outputs low.
func NewPort() (*Port, error) {
	mem, err := mmap.Anon(Size)
	if err != nil {
		return nil, fmt.Errorf("gpio: could not allocate register window: %w", err)
	}
	p := &Port{mem: mem}
	p.regs.out = newReg32(p, OUT)
	p.regs.omr = newReg32(p, OMR)
	p.regs.in = newReg32(p, IN)
	return p, nil
}

// Close releases the register window of the port.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mem.Close()
}

// Err returns the first register access error, if any.
func (p *Port) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Pin returns pin n of the port.
func (p *Port) Pin(n int) *Pin {
	if n < 0 || n >= NumPins {
		panic(fmt.Errorf("gpio: invalid pin number %d", n))
	}
	return &Pin{port: p, n: uint(n)}
}

// ReadAt implements io.ReaderAt over the register window.
func (p *Port) ReadAt(b []byte, off int64) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mem.ReadAt(b, off)
}

// WriteAt implements io.WriterAt over the register window.
// Only aligned 32-bit writes are accepted.
func (p *Port) WriteAt(b []byte, off int64) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(b) != 4 || off%4 != 0 || off < 0 || off >= Size {
		return 0, fmt.Errorf("%w: %d-byte write at 0x%x", errBusWidth, len(b), off)
	}
	p.write(off, binary.LittleEndian.Uint32(b))
	if p.err != nil {
		return 0, p.err
	}
	return len(b), nil
}

func (p *Port) write(off int64, v uint32) {
	switch off {
	case OUT:
		p.update(v & 0xffff)
	case OMR:
		var (
			set = v & 0xffff
			clr = v >> 16
			out = p.regs.out.r()
		)
		out ^= set & clr
		out |= set &^ clr
		out &^= clr &^ set
		p.update(out)
	case IN:
		// read-only.
	default:
		p.writeU32(off, v)
	}
}

func (p *Port) update(out uint32) {
	p.regs.out.w(out)
	p.regs.in.w(out)
}

func (p *Port) modify(v uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.write(OMR, v)
	if p.err != nil {
		return fmt.Errorf("gpio: could not modify outputs 0x%08x: %w", v, p.err)
	}
	return nil
}

func (p *Port) level(n uint) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	v := p.regs.in.r()
	if p.err != nil {
		return false, fmt.Errorf("gpio: could not read pin %d: %w", n, p.err)
	}
	return v&(1<<n) != 0, nil
}

func (p *Port) readU32(off int64) uint32 {
	if p.err != nil {
		return 0
	}
	_, p.err = p.mem.ReadAt(p.buf[:4], off)
	if p.err != nil {
		p.err = fmt.Errorf("gpio: could not read register 0x%x: %w", off, p.err)
		return 0
	}
	return binary.LittleEndian.Uint32(p.buf[:4])
}

func (p *Port) writeU32(off int64, v uint32) {
	if p.err != nil {
		return
	}
	binary.LittleEndian.PutUint32(p.buf[:4], v)
	_, p.err = p.mem.WriteAt(p.buf[:4], off)
	if p.err != nil {
		p.err = fmt.Errorf("gpio: could not write register 0x%x: %w", off, p.err)
		return
	}
}

// Pin is an output pin of a port.
type Pin struct {
	port *Port
	n    uint
}

func (p *Pin) High() error   { return p.port.modify(1 << p.n) }
func (p *Pin) Low() error    { return p.port.modify(1 << (p.n + 16)) }
func (p *Pin) Toggle() error { return p.port.modify(1<<p.n | 1<<(p.n+16)) }

func (p *Pin) Get() (bool, error) {
	return p.port.level(p.n)
}

var (
	_ Output = (*Pin)(nil)
)
