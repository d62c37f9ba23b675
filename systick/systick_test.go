// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package systick

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-lpc/dmacrc/irq"
)

type counter struct {
	n   atomic.Int64
	bad atomic.Int64
}

func (c *counter) Raise(l irq.Line) {
	if l != irq.SysTick {
		c.bad.Add(1)
		return
	}
	c.n.Add(1)
}

func TestTimer(t *testing.T) {
	var (
		ic  = new(counter)
		tck = New(ic)
	)

	if tck.Running() {
		t.Fatalf("timer running before configuration")
	}

	err := tck.Config(time.Millisecond)
	if err != nil {
		t.Fatalf("could not configure timer: %+v", err)
	}
	if !tck.Running() {
		t.Fatalf("timer not running")
	}
	if got, want := tck.Period(), time.Millisecond; got != want {
		t.Fatalf("invalid period: got=%v, want=%v", got, want)
	}

	err = tck.Config(time.Millisecond)
	if !errors.Is(err, ErrRunning) {
		t.Fatalf("invalid error: %+v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for ic.n.Load() < 5 {
		if time.Now().After(deadline) {
			t.Fatalf("timer did not tick: n=%d", ic.n.Load())
		}
		time.Sleep(time.Millisecond)
	}

	tck.Stop()
	if tck.Running() {
		t.Fatalf("timer still running")
	}

	n := ic.n.Load()
	time.Sleep(10 * time.Millisecond)
	if got := ic.n.Load(); got != n {
		t.Fatalf("timer ticked after stop: got=%d, want=%d", got, n)
	}
	if got := ic.bad.Load(); got != 0 {
		t.Fatalf("invalid lines raised: %d", got)
	}

	// stopping a stopped timer is a no-op.
	tck.Stop()

	err = tck.Config(2 * time.Millisecond)
	if err != nil {
		t.Fatalf("could not re-arm timer: %+v", err)
	}
	tck.Stop()
}

func TestInvalidPeriod(t *testing.T) {
	tck := New(new(counter))
	for _, period := range []time.Duration{0, -time.Millisecond} {
		err := tck.Config(period)
		if !errors.Is(err, ErrPeriod) {
			t.Fatalf("invalid error for period %v: %+v", period, err)
		}
	}
	if tck.Running() {
		t.Fatalf("timer running")
	}
}
