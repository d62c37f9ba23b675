// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fce

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/go-lpc/dmacrc/internal/crc32"
)

var ieee = Config{
	Seed:   0xffffffff,
	RefIn:  true,
	RefOut: true,
	Invert: true,
}

func newTestKernel(t *testing.T) *Kernel {
	t.Helper()
	k, err := NewKernel()
	if err != nil {
		t.Fatalf("could not create kernel: %+v", err)
	}
	t.Cleanup(func() { _ = k.Close() })
	return k
}

func TestWriteWord(t *testing.T) {
	words := []uint32{0x54ec0525, 0x447135b2, 0x6eed86f9, 0x10b9ee76, 0x9c5c8f55}

	for _, tc := range []struct {
		name string
		cfg  Config
	}{
		{name: "ieee", cfg: ieee},
		{name: "mpeg2", cfg: Config{Seed: 0xffffffff}},
		{name: "bzip2", cfg: Config{Seed: 0xffffffff, Invert: true}},
		{name: "refout", cfg: Config{Seed: 0x12345678, RefOut: true}},
		{name: "refin", cfg: Config{RefIn: true}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			k := newTestKernel(t)
			err := k.Init(tc.cfg)
			if err != nil {
				t.Fatalf("could not init kernel: %+v", err)
			}

			for _, w := range words {
				err = k.WriteWord(w)
				if err != nil {
					t.Fatalf("could not write word: %+v", err)
				}
			}

			want := crc32.Checksum(words, tc.cfg.Params())
			if got := k.Result(); got != want {
				t.Fatalf("invalid result: got=0x%08x, want=0x%08x", got, want)
			}
		})
	}
}

func TestBusWrite(t *testing.T) {
	k := newTestKernel(t)
	err := k.Init(ieee)
	if err != nil {
		t.Fatalf("could not init kernel: %+v", err)
	}

	// little-endian memory image of 0xdeadbeef.
	_, err = k.WriteAt([]byte{0xef, 0xbe, 0xad, 0xde}, IR)
	if err != nil {
		t.Fatalf("could not write IR: %+v", err)
	}

	if got, want := k.Result(), uint32(0x7c9ca35a); got != want {
		t.Fatalf("invalid result: got=0x%08x, want=0x%08x", got, want)
	}

	buf := make([]byte, 4)
	_, err = k.ReadAt(buf, RES)
	if err != nil {
		t.Fatalf("could not read RES: %+v", err)
	}
	if got, want := binary.LittleEndian.Uint32(buf), uint32(0x7c9ca35a); got != want {
		t.Fatalf("invalid RES: got=0x%08x, want=0x%08x", got, want)
	}

	_, err = k.ReadAt(buf, IR)
	if err != nil {
		t.Fatalf("could not read IR: %+v", err)
	}
	if got, want := binary.LittleEndian.Uint32(buf), uint32(0xdeadbeef); got != want {
		t.Fatalf("invalid IR: got=0x%08x, want=0x%08x", got, want)
	}

	// RES is read-only.
	_, err = k.WriteAt([]byte{0, 0, 0, 0}, RES)
	if err != nil {
		t.Fatalf("could not write RES: %+v", err)
	}
	if got, want := k.Result(), uint32(0x7c9ca35a); got != want {
		t.Fatalf("RES modified: got=0x%08x, want=0x%08x", got, want)
	}
}

func TestBusError(t *testing.T) {
	for _, tc := range []struct {
		name string
		p    []byte
		off  int64
	}{
		{"byte", []byte{1}, IR},
		{"half-word", []byte{1, 2}, IR},
		{"unaligned", []byte{1, 2, 3, 4}, IR + 1},
		{"out-of-window", []byte{1, 2, 3, 4}, Size},
	} {
		t.Run(tc.name, func(t *testing.T) {
			k := newTestKernel(t)
			err := k.Init(ieee)
			if err != nil {
				t.Fatalf("could not init kernel: %+v", err)
			}

			_, err = k.WriteAt(tc.p, tc.off)
			if !errors.Is(err, ErrBusWidth) {
				t.Fatalf("invalid error: %+v", err)
			}
			if !k.Status(StsBEF) {
				t.Fatalf("bus error flag not set")
			}

			_, err = k.WriteAt([]byte{StsBEF, 0, 0, 0}, STS)
			if err != nil {
				t.Fatalf("could not clear status: %+v", err)
			}
			if k.Status(StsBEF) {
				t.Fatalf("bus error flag not cleared")
			}
		})
	}
}

func TestAutoCheck(t *testing.T) {
	words := make([]uint32, 16)
	for i := range words {
		words[i] = 0x01020304 * uint32(i+1)
	}
	sum := crc32.Checksum(words, ieee.Params())

	for _, tc := range []struct {
		name     string
		check    uint32
		force    bool
		mismatch bool
	}{
		{name: "match", check: sum},
		{name: "mismatch", check: sum ^ 1, mismatch: true},
		{name: "forced", check: sum, force: true, mismatch: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			k := newTestKernel(t)
			err := k.Init(ieee)
			if err != nil {
				t.Fatalf("could not init kernel: %+v", err)
			}
			err = k.SetExpectedCRC(tc.check)
			if err != nil {
				t.Fatalf("could not set expected CRC: %+v", err)
			}
			err = k.SetExpectedLength(uint32(len(words)))
			if err != nil {
				t.Fatalf("could not set expected length: %+v", err)
			}
			err = k.EnableAutoCheck()
			if err != nil {
				t.Fatalf("could not enable auto-check: %+v", err)
			}
			if tc.force {
				err = k.ForceMismatch()
				if err != nil {
					t.Fatalf("could not force mismatch: %+v", err)
				}
			}

			for i, w := range words {
				if got, want := k.Remaining(), uint32(len(words)-i); got != want {
					t.Fatalf("invalid remaining words: got=%d, want=%d", got, want)
				}
				err = k.WriteWord(w)
				if err != nil {
					t.Fatalf("could not write word %d: %+v", i, err)
				}
			}

			if got, want := k.MismatchStatus(), tc.mismatch; got != want {
				t.Fatalf("invalid mismatch status: got=%v, want=%v", got, want)
			}
			if got, want := k.Remaining(), uint32(0); got != want {
				t.Fatalf("invalid remaining words: got=%d, want=%d", got, want)
			}
			if k.Status(StsLEF) {
				t.Fatalf("unexpected length error")
			}

			// one word too many.
			err = k.WriteWord(0)
			if err != nil {
				t.Fatalf("could not write extra word: %+v", err)
			}
			if !k.Status(StsLEF) {
				t.Fatalf("length error flag not set")
			}

			k.ClearEvent(StsCMF | StsLEF)
			if k.Status(StsCMF | StsLEF) {
				t.Fatalf("status flags not cleared")
			}
		})
	}
}

func TestLengthReload(t *testing.T) {
	k := newTestKernel(t)
	err := k.Init(ieee)
	if err != nil {
		t.Fatalf("could not init kernel: %+v", err)
	}

	err = k.SetExpectedLength(2)
	if err != nil {
		t.Fatalf("could not set expected length: %+v", err)
	}
	err = k.Enable(CfgCCE | CfgALR)
	if err != nil {
		t.Fatalf("could not enable auto-check: %+v", err)
	}

	for i := 0; i < 5; i++ {
		err = k.WriteWord(uint32(i))
		if err != nil {
			t.Fatalf("could not write word %d: %+v", i, err)
		}
		want := uint32(2 - (i+1)%2)
		if got := k.Remaining(); got != want {
			t.Fatalf("invalid remaining words after %d writes: got=%d, want=%d", i+1, got, want)
		}
	}
	if k.Status(StsLEF) {
		t.Fatalf("unexpected length error with automatic reload")
	}

	err = k.Disable(CfgALR)
	if err != nil {
		t.Fatalf("could not disable length reload: %+v", err)
	}
}

func TestInitResets(t *testing.T) {
	k := newTestKernel(t)
	err := k.Init(ieee)
	if err != nil {
		t.Fatalf("could not init kernel: %+v", err)
	}
	_ = k.SetExpectedLength(1)
	_ = k.EnableAutoCheck()
	_ = k.WriteWord(0xdeadbeef)
	if !k.MismatchStatus() {
		t.Fatalf("expected a mismatch against a zero check value")
	}

	err = k.Init(ieee)
	if err != nil {
		t.Fatalf("could not re-init kernel: %+v", err)
	}
	if k.MismatchStatus() {
		t.Fatalf("mismatch flag survived init")
	}
	if got, want := k.Result(), uint32(0); got != want {
		t.Fatalf("invalid result after init: got=0x%08x, want=0x%08x", got, want)
	}

	for _, off := range []int64{CFG, LENGTH, CHECK, CRC, CTR} {
		buf := make([]byte, 4)
		_, err := k.ReadAt(buf, off)
		if err != nil {
			t.Fatalf("could not read register 0x%x: %+v", off, err)
		}
		v := binary.LittleEndian.Uint32(buf)
		var want uint32
		switch off {
		case CFG:
			want = CfgREFIN | CfgREFOUT | CfgXSEL
		case CRC:
			want = 0xffffffff
		}
		if v != want {
			t.Fatalf("invalid register 0x%x: got=0x%x, want=0x%x", off, v, want)
		}
	}
}

func TestClosed(t *testing.T) {
	k, err := NewKernel()
	if err != nil {
		t.Fatalf("could not create kernel: %+v", err)
	}
	err = k.Close()
	if err != nil {
		t.Fatalf("could not close kernel: %+v", err)
	}

	err = k.Init(ieee)
	if err == nil {
		t.Fatalf("expected an error")
	}
	if k.Err() == nil {
		t.Fatalf("expected a sticky error")
	}
}
