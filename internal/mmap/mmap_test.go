// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mmap // import "github.com/go-lpc/dmacrc/internal/mmap"

import (
	"bytes"
	"errors"
	"io"
	"os"
	"testing"
)

func TestHandle(t *testing.T) {
	t.Run("nil-handle", func(t *testing.T) {
		var h *Handle

		_, err := h.ReadAt(nil, 0)
		if !errors.Is(err, os.ErrInvalid) {
			t.Fatalf("invalid read-at error: %+v", err)
		}

		_, err = h.WriteAt(nil, 0)
		if !errors.Is(err, os.ErrInvalid) {
			t.Fatalf("invalid write-at error: %+v", err)
		}

		err = h.Close()
		if !errors.Is(err, os.ErrInvalid) {
			t.Fatalf("invalid close error: %+v", err)
		}
	})
	t.Run("nil-data", func(t *testing.T) {
		var h Handle

		_, err := h.ReadAt(nil, 0)
		if !errors.Is(err, errClosed) {
			t.Fatalf("invalid read-at error: %+v", err)
		}

		_, err = h.WriteAt(nil, 0)
		if !errors.Is(err, errClosed) {
			t.Fatalf("invalid write-at error: %+v", err)
		}

		err = h.Close()
		if err != nil {
			t.Fatalf("error closing nil-data handle: %+v", err)
		}
	})
}

func TestAnon(t *testing.T) {
	_, err := Anon(0)
	if err == nil {
		t.Fatalf("expected an error for an empty mapping")
	}

	h, err := Anon(64)
	if err != nil {
		t.Fatalf("could not create anonymous mapping: %+v", err)
	}

	if got, want := h.Len(), 64; got != want {
		t.Fatalf("invalid len: got=%d, want=%d", got, want)
	}

	for i := 0; i < h.Len(); i++ {
		if h.At(i) != 0 {
			t.Fatalf("invalid value at %d: got=%d, want=0", i, h.At(i))
		}
	}

	_, err = h.WriteAt([]byte{1, 2, 3, 4}, 60)
	if err != nil {
		t.Fatalf("could not write: %+v", err)
	}

	buf := make([]byte, 4)
	_, err = h.ReadAt(buf, 60)
	if err != nil {
		t.Fatalf("could not read: %+v", err)
	}
	if got, want := buf, []byte{1, 2, 3, 4}; !bytes.Equal(got, want) {
		t.Fatalf("invalid read-back: got=%v, want=%v", got, want)
	}

	_, err = h.WriteAt([]byte{1, 2}, 63)
	if !errors.Is(err, io.ErrShortWrite) {
		t.Fatalf("invalid short-write error: %+v", err)
	}

	_, err = h.ReadAt(buf, 62)
	if !errors.Is(err, io.EOF) {
		t.Fatalf("invalid short-read error: %+v", err)
	}

	err = h.Close()
	if err != nil {
		t.Fatalf("could not close mapping: %+v", err)
	}

	_, err = h.ReadAt(buf, 0)
	if !errors.Is(err, errClosed) {
		t.Fatalf("invalid read-after-close error: %+v", err)
	}
}

func TestHandleFrom(t *testing.T) {
	h := HandleFrom([]byte{0, 1, 2, 3})

	if got, want := h.Len(), 4; got != want {
		t.Fatalf("invalid len: got=%d, want=%d", got, want)
	}

	if got, want := h.At(1), byte(1); got != want {
		t.Fatalf("invalid value: got=%d, want=%d", got, want)
	}

	_, err := h.WriteAt(nil, -1)
	if got, want := err.Error(), "mmap: invalid WriteAt offset -1"; got != want {
		t.Fatalf("invalid error: %+v", err)
	}

	_, err = h.ReadAt(nil, -1)
	if got, want := err.Error(), "mmap: invalid ReadAt offset -1"; got != want {
		t.Fatalf("invalid error: %+v", err)
	}

}
