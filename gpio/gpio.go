// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gpio provides digital outputs driving indicator LEDs: pins of an
// on-chip port and pins of an I2C GPIO expander.
package gpio // import "github.com/go-lpc/dmacrc/gpio"

import (
	"sync"
)

// Output is a digital output.
type Output interface {
	High() error
	Low() error
	Toggle() error
	Get() (bool, error)
}

type watched struct {
	out Output
	fn  func(level bool)

	mu    sync.Mutex
	level bool
	init  bool
}

// Watch returns an output driving out and calling fn with the new level
// every time the level of the output changes.
func Watch(out Output, fn func(level bool)) Output {
	return &watched{out: out, fn: fn}
}

func (w *watched) High() error   { return w.do(w.out.High) }
func (w *watched) Low() error    { return w.do(w.out.Low) }
func (w *watched) Toggle() error { return w.do(w.out.Toggle) }

func (w *watched) Get() (bool, error) {
	return w.out.Get()
}

func (w *watched) do(f func() error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.init {
		lvl, err := w.out.Get()
		if err != nil {
			return err
		}
		w.level = lvl
		w.init = true
	}

	err := f()
	if err != nil {
		return err
	}

	lvl, err := w.out.Get()
	if err != nil {
		return err
	}
	if lvl != w.level {
		w.level = lvl
		w.fn(lvl)
	}
	return nil
}
