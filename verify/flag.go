// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verify

import "sync/atomic"

// Flag is a completion flag, set by an interrupt handler and polled by the
// main flow.
type Flag struct {
	v atomic.Bool
	n atomic.Int32
}

// Set raises the flag.
func (f *Flag) Set() {
	f.n.Add(1)
	f.v.Store(true)
}

// IsSet reports whether the flag was raised.
func (f *Flag) IsSet() bool {
	return f.v.Load()
}

// Sets returns the number of times the flag was raised.
func (f *Flag) Sets() int {
	return int(f.n.Load())
}
