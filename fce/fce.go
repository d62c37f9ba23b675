// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fce models a kernel of the Flexible CRC Engine, a peripheral
// computing and checking a CRC-32 over the words written to its input
// register.
//
// A kernel is programmed with a seed, reflection and inversion options, an
// expected CRC and a number of words. Once that many words have been
// written to IR, the result is compared with the expected value and the
// mismatch flag is updated. The kernel never raises an interrupt.
package fce // import "github.com/go-lpc/dmacrc/fce"

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/go-lpc/dmacrc/internal/crc32"
	"github.com/go-lpc/dmacrc/internal/mmap"
)

// ErrBusWidth is returned for register accesses that are not aligned
// 32-bit accesses.
var ErrBusWidth = errors.New("fce: invalid bus access width")

// Config is the CRC engine configuration of one verification run.
type Config struct {
	Seed   uint32 // initial CRC value
	RefIn  bool   // byte-wise reflection of the input words
	RefOut bool   // bit-wise reflection of the final CRC
	Invert bool   // inversion of the final CRC

	Check  uint32 // expected CRC value
	Length uint32 // number of words covered by the automatic check
}

// Params returns the CRC-32 parameters of the configuration.
func (cfg Config) Params() crc32.Params {
	return crc32.Params{
		Poly:   crc32.IEEE,
		Seed:   cfg.Seed,
		RefIn:  cfg.RefIn,
		RefOut: cfg.RefOut,
		XorOut: cfg.Invert,
	}
}

// Kernel is a CRC-32 kernel of the FCE.
//
// Kernel implements io.ReaderAt and io.WriterAt over its register window,
// so it can be mapped on the system bus and fed by a DMA channel.
type Kernel struct {
	mu  sync.Mutex
	mem *mmap.Handle
	err error
	buf [4]byte
	tab *crc32.Table

	reload uint32 // last value written to LENGTH

	regs struct {
		ir     reg32
		res    reg32
		cfg    reg32
		sts    reg32
		length reg32
		check  reg32
		crc    reg32
		ctr    reg32
	}
}

// NewKernel returns a new CRC-32 kernel, in its reset state.
func NewKernel() (*Kernel, error) {
	mem, err := mmap.Anon(Size)
	if err != nil {
		return nil, fmt.Errorf("fce: could not allocate register window: %w", err)
	}
	k := &Kernel{
		mem: mem,
		tab: crc32.MakeTable(crc32.IEEE),
	}
	k.bind()
	return k, nil
}

// Close releases the register window of the kernel.
func (k *Kernel) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.mem.Close()
}

// Err returns the first register access error, if any.
func (k *Kernel) Err() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.err
}

// Init programs the seed, the reflection and the inversion options, and
// resets the CRC state, the status flags and the automatic check.
func (k *Kernel) Init(cfg Config) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	var v uint32
	if cfg.RefIn {
		v |= CfgREFIN
	}
	if cfg.RefOut {
		v |= CfgREFOUT
	}
	if cfg.Invert {
		v |= CfgXSEL
	}

	k.regs.cfg.w(v)
	k.regs.crc.w(cfg.Seed)
	k.regs.res.w(crc32.Final(cfg.Seed, cfg.RefOut, cfg.Invert))
	k.regs.sts.w(0)
	k.regs.ctr.w(0)
	k.regs.check.w(0)
	k.regs.length.w(0)
	k.reload = 0

	if k.err != nil {
		return fmt.Errorf("fce: could not initialize kernel: %w", k.err)
	}
	return nil
}

// SetExpectedCRC programs the value the final CRC is checked against.
func (k *Kernel) SetExpectedCRC(v uint32) error {
	return k.store32(CHECK, v)
}

// SetExpectedLength programs the number of words after which the final
// CRC is checked.
func (k *Kernel) SetExpectedLength(n uint32) error {
	return k.store32(LENGTH, n)
}

// EnableAutoCheck arms the comparison of the CRC against the expected
// value once the expected number of words has been written.
func (k *Kernel) EnableAutoCheck() error {
	return k.Enable(CfgCCE)
}

// Enable sets the provided CFG bits.
func (k *Kernel) Enable(flags uint32) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.regs.cfg.w(k.regs.cfg.r() | flags)
	if k.err != nil {
		return fmt.Errorf("fce: could not enable 0x%x: %w", flags, k.err)
	}
	return nil
}

// Disable clears the provided CFG bits.
func (k *Kernel) Disable(flags uint32) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.regs.cfg.w(k.regs.cfg.r() &^ flags)
	if k.err != nil {
		return fmt.Errorf("fce: could not disable 0x%x: %w", flags, k.err)
	}
	return nil
}

// ForceMismatch makes the next automatic check fail, whatever the CRC.
func (k *Kernel) ForceMismatch() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.regs.ctr.w(k.regs.ctr.r() | CtrFCM)
	return k.err
}

// WriteWord folds w into the running CRC, as a 32-bit write to IR does.
func (k *Kernel) WriteWord(w uint32) error {
	return k.store32(IR, w)
}

// MismatchStatus reports whether the automatic check failed.
//
// The status is only meaningful once the expected number of words has been
// written to the kernel.
func (k *Kernel) MismatchStatus() bool {
	return k.Status(StsCMF)
}

// Status reports whether any of the provided STS flags is set.
func (k *Kernel) Status(flags uint32) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.regs.sts.r()&flags != 0
}

// ClearEvent clears the provided STS flags.
func (k *Kernel) ClearEvent(flags uint32) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.regs.sts.w(k.regs.sts.r() &^ flags)
}

// Result returns the final CRC of the words written so far.
func (k *Kernel) Result() uint32 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.regs.res.r()
}

// Remaining returns the number of words left before the automatic check.
func (k *Kernel) Remaining() uint32 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.regs.length.r()
}

// ReadAt implements io.ReaderAt over the register window.
func (k *Kernel) ReadAt(p []byte, off int64) (int, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.mem.ReadAt(p, off)
}

// WriteAt implements io.WriterAt over the register window.
// Only aligned 32-bit writes are accepted; other writes set the bus error flag.
func (k *Kernel) WriteAt(p []byte, off int64) (int, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if len(p) != 4 || off%4 != 0 || off < 0 || off >= Size {
		k.regs.sts.w(k.regs.sts.r() | StsBEF)
		return 0, fmt.Errorf("%w: %d-byte write at 0x%x", ErrBusWidth, len(p), off)
	}
	k.write(off, binary.LittleEndian.Uint32(p))
	if k.err != nil {
		return 0, k.err
	}
	return len(p), nil
}

func (k *Kernel) store32(off int64, v uint32) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.write(off, v)
	if k.err != nil {
		return fmt.Errorf("fce: could not write 0x%x to register 0x%x: %w", v, off, k.err)
	}
	return nil
}

func (k *Kernel) write(off int64, v uint32) {
	switch off {
	case IR:
		k.regs.ir.w(v)
		k.fold(v)
	case RES:
		// read-only.
	case STS:
		k.regs.sts.w(k.regs.sts.r() &^ v)
	case LENGTH:
		k.reload = v
		k.regs.length.w(v)
	default:
		k.writeU32(off, v)
	}
}

func (k *Kernel) fold(w uint32) {
	var (
		cfg    = k.regs.cfg.r()
		length = k.regs.length.r()
		buf    [4]byte
	)

	if length == 0 && cfg&CfgCCE != 0 {
		k.regs.sts.w(k.regs.sts.r() | StsLEF)
	}

	binary.BigEndian.PutUint32(buf[:], w)
	crc := crc32.Update(k.regs.crc.r(), k.tab, cfg&CfgREFIN != 0, buf[:])
	res := crc32.Final(crc, cfg&CfgREFOUT != 0, cfg&CfgXSEL != 0)
	k.regs.crc.w(crc)
	k.regs.res.w(res)

	if length == 0 {
		return
	}
	length--
	k.regs.length.w(length)
	if length != 0 {
		return
	}

	if cfg&CfgCCE != 0 {
		ctr := k.regs.ctr.r()
		if res != k.regs.check.r() || ctr&CtrFCM != 0 {
			k.regs.sts.w(k.regs.sts.r() | StsCMF)
		}
		k.regs.ctr.w(ctr &^ CtrFCM)
	}

	if cfg&CfgALR != 0 {
		k.regs.length.w(k.reload)
	}
}
