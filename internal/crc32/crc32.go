// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package crc32 implements a parametrized, MSB-first CRC-32.
//
// It is the software reference model of the FCE hardware kernel:
// input bytes may be reflected one by one, and the final value may be
// reflected and/or inverted.
package crc32 // import "github.com/go-lpc/dmacrc/internal/crc32"

import (
	"encoding/binary"
	"hash"
	"math/bits"
)

// Size of a CRC-32 checksum in bytes.
const Size = 4

// IEEE is the CRC-32 polynomial of IEEE 802.3, in normal (MSB-first) form.
const IEEE = 0x04c11db7

// Params describes a CRC-32 variant.
type Params struct {
	Poly   uint32 // generator polynomial, normal form
	Seed   uint32 // initial CRC value
	RefIn  bool   // reflect each input byte
	RefOut bool   // reflect the final CRC value
	XorOut bool   // invert the final CRC value
}

var (
	// IEEEParams is the standard CRC-32 (zlib, ethernet).
	IEEEParams = Params{Poly: IEEE, Seed: 0xffffffff, RefIn: true, RefOut: true, XorOut: true}

	// MPEG2Params is CRC-32/MPEG-2.
	MPEG2Params = Params{Poly: IEEE, Seed: 0xffffffff}

	// BZIP2Params is CRC-32/BZIP2.
	BZIP2Params = Params{Poly: IEEE, Seed: 0xffffffff, XorOut: true}
)

// Table is a 256-word table of the MSB-first remainders of a polynomial.
type Table [256]uint32

var ieeeTable = makeTable(IEEE)

// MakeTable returns the table for the provided polynomial.
// The IEEE table is shared.
func MakeTable(poly uint32) *Table {
	if poly == IEEE {
		return ieeeTable
	}
	return makeTable(poly)
}

func makeTable(poly uint32) *Table {
	tab := new(Table)
	for i := range tab {
		crc := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if crc&0x80000000 != 0 {
				crc = crc<<1 ^ poly
			} else {
				crc <<= 1
			}
		}
		tab[i] = crc
	}
	return tab
}

// Update returns the result of adding the bytes in p to the running crc.
func Update(crc uint32, tab *Table, refin bool, p []byte) uint32 {
	for _, v := range p {
		if refin {
			v = bits.Reverse8(v)
		}
		crc = crc<<8 ^ tab[byte(crc>>24)^v]
	}
	return crc
}

// Final applies the output transformations to a running crc.
func Final(crc uint32, refout, xorout bool) uint32 {
	if refout {
		crc = bits.Reverse32(crc)
	}
	if xorout {
		crc = ^crc
	}
	return crc
}

// Checksum returns the CRC of the provided words, each fed most
// significant byte first.
func Checksum(words []uint32, p Params) uint32 {
	d := New(p)
	for _, w := range words {
		d.WriteWord(w)
	}
	return d.Sum32()
}

// Digest computes a CRC-32 checksum.
type Digest struct {
	p   Params
	tab *Table
	crc uint32
}

// New creates a new CRC-32 digest for the provided parameters.
func New(p Params) *Digest {
	return &Digest{
		p:   p,
		tab: MakeTable(p.Poly),
		crc: p.Seed,
	}
}

// Size returns the number of bytes Sum will return.
func (d *Digest) Size() int { return Size }

// BlockSize returns the natural input size of the hardware engine.
func (d *Digest) BlockSize() int { return 4 }

// Reset resets the digest to its seed value.
func (d *Digest) Reset() { d.crc = d.p.Seed }

// State returns the running (untransformed) CRC value.
func (d *Digest) State() uint32 { return d.crc }

// Write adds more data to the running checksum.
// It never returns an error.
func (d *Digest) Write(p []byte) (int, error) {
	d.crc = Update(d.crc, d.tab, d.p.RefIn, p)
	return len(p), nil
}

// WriteWord adds a 32-bit word to the running checksum, most
// significant byte first.
func (d *Digest) WriteWord(w uint32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], w)
	d.crc = Update(d.crc, d.tab, d.p.RefIn, buf[:])
}

// Sum32 returns the final CRC value.
func (d *Digest) Sum32() uint32 {
	return Final(d.crc, d.p.RefOut, d.p.XorOut)
}

// Sum appends the big-endian final CRC value to b.
func (d *Digest) Sum(b []byte) []byte {
	return binary.BigEndian.AppendUint32(b, d.Sum32())
}

var (
	_ hash.Hash32 = (*Digest)(nil)
)
