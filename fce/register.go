// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fce

import (
	"encoding/binary"
	"fmt"
)

// Register offsets of a FCE kernel.
const (
	IR     = 0x00 // input register
	RES    = 0x04 // CRC result register
	CFG    = 0x08 // configuration register
	STS    = 0x0c // status register
	LENGTH = 0x10 // length register
	CHECK  = 0x14 // CRC check register
	CRC    = 0x18 // running CRC register
	CTR    = 0x1c // CRC test register

	// Size is the size of the register window of one kernel.
	Size = 0x20
)

// Configuration bits (CFG).
const (
	CfgCCE    = 1 << 4  // CRC check enable
	CfgALR    = 1 << 5  // automatic length reload
	CfgREFIN  = 1 << 8  // byte-wise reflection of input data
	CfgREFOUT = 1 << 9  // bit-wise reflection of the final CRC
	CfgXSEL   = 1 << 10 // inversion of the final CRC
)

// Status bits (STS). Writing a 1 clears the corresponding flag.
const (
	StsCMF = 1 << 0 // CRC mismatch flag
	StsLEF = 1 << 2 // length error flag
	StsBEF = 1 << 3 // bus error flag
)

// Test bits (CTR).
const (
	CtrFCM = 1 << 0 // force CRC mismatch
)

type reg32 struct {
	r func() uint32
	w func(v uint32)
}

func newReg32(k *Kernel, offset int64) reg32 {
	return reg32{
		r: func() uint32 {
			return k.readU32(offset)
		},
		w: func(v uint32) {
			k.writeU32(offset, v)
		},
	}
}

func (k *Kernel) bind() {
	k.regs.ir = newReg32(k, IR)
	k.regs.res = newReg32(k, RES)
	k.regs.cfg = newReg32(k, CFG)
	k.regs.sts = newReg32(k, STS)
	k.regs.length = newReg32(k, LENGTH)
	k.regs.check = newReg32(k, CHECK)
	k.regs.crc = newReg32(k, CRC)
	k.regs.ctr = newReg32(k, CTR)
}

func (k *Kernel) readU32(off int64) uint32 {
	if k.err != nil {
		return 0
	}
	_, k.err = k.mem.ReadAt(k.buf[:4], off)
	if k.err != nil {
		k.err = fmt.Errorf("fce: could not read register 0x%x: %w", off, k.err)
		return 0
	}
	return binary.LittleEndian.Uint32(k.buf[:4])
}

func (k *Kernel) writeU32(off int64, v uint32) {
	if k.err != nil {
		return
	}
	binary.LittleEndian.PutUint32(k.buf[:4], v)
	_, k.err = k.mem.WriteAt(k.buf[:4], off)
	if k.err != nil {
		k.err = fmt.Errorf("fce: could not write register 0x%x: %w", off, k.err)
		return
	}
}
