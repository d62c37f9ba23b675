// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package irq

import (
	"context"
	"io"
	"log"
	"reflect"
	"sync"
	"testing"
	"time"
)

func newTestController(t *testing.T) (*Controller, func()) {
	t.Helper()
	var (
		c           = New(log.New(io.Discard, "irq: ", 0))
		ctx, cancel = context.WithCancel(context.Background())
		done        = make(chan int)
	)
	start := func() {
		go func() {
			defer close(done)
			_ = c.Run(ctx)
		}()
	}
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	})
	return c, start
}

func TestRaise(t *testing.T) {
	c, start := newTestController(t)
	start()

	fired := make(chan Line, 1)
	c.Register(GPDMA0, func() { fired <- GPDMA0 })
	c.SetPriority(GPDMA0, 63)
	c.Enable(GPDMA0)

	if !c.Enabled(GPDMA0) {
		t.Fatalf("line not enabled")
	}

	c.Raise(GPDMA0)

	select {
	case l := <-fired:
		if got, want := l, GPDMA0; got != want {
			t.Fatalf("invalid line: got=%v, want=%v", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("interrupt not delivered")
	}

	if c.Pending(GPDMA0) {
		t.Fatalf("line still pending after dispatch")
	}
}

func TestPendingWhileDisabled(t *testing.T) {
	c, start := newTestController(t)
	start()

	var (
		mu sync.Mutex
		n  int
	)
	fired := make(chan int, 8)
	c.Register(SysTick, func() {
		mu.Lock()
		n++
		mu.Unlock()
		fired <- 1
	})

	c.Raise(SysTick)
	c.Raise(SysTick)
	c.Raise(SysTick)

	if !c.Pending(SysTick) {
		t.Fatalf("line not pending")
	}

	select {
	case <-fired:
		t.Fatalf("disabled line delivered")
	case <-time.After(20 * time.Millisecond):
	}

	c.Enable(SysTick)
	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatalf("pending interrupt not delivered on enable")
	}

	select {
	case <-fired:
		t.Fatalf("coalesced interrupt delivered twice")
	case <-time.After(20 * time.Millisecond):
	}

	mu.Lock()
	defer mu.Unlock()
	if got, want := n, 1; got != want {
		t.Fatalf("invalid number of deliveries: got=%d, want=%d", got, want)
	}
}

func TestClearPending(t *testing.T) {
	c := New(nil)
	c.Raise(GPDMA0)
	if !c.Pending(GPDMA0) {
		t.Fatalf("line not pending")
	}
	c.ClearPending(GPDMA0)
	if c.Pending(GPDMA0) {
		t.Fatalf("line still pending")
	}
	c.Enable(GPDMA0)
	c.Disable(GPDMA0)
	if c.Enabled(GPDMA0) {
		t.Fatalf("line still enabled")
	}
}

func TestPriority(t *testing.T) {
	c, start := newTestController(t)

	var (
		mu    sync.Mutex
		order []Line
		done  = make(chan int, 3)
	)
	record := func(l Line) Handler {
		return func() {
			mu.Lock()
			order = append(order, l)
			mu.Unlock()
			done <- 1
		}
	}

	lines := []struct {
		l    Line
		prio uint8
	}{
		{GPDMA0, 63},
		{Line(3), 0},
		{SysTick, 15},
	}
	for _, v := range lines {
		c.Register(v.l, record(v.l))
		c.SetPriority(v.l, v.prio)
		c.Enable(v.l)
		c.Raise(v.l)
	}

	start()
	for range lines {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatalf("interrupts not delivered")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if got, want := order, []Line{Line(3), SysTick, GPDMA0}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid dispatch order: got=%v, want=%v", got, want)
	}
}

func TestSpurious(t *testing.T) {
	c, start := newTestController(t)
	start()

	fired := make(chan int, 1)
	c.Enable(Line(7))
	c.Raise(Line(7))

	c.Register(GPDMA0, func() { fired <- 1 })
	c.Enable(GPDMA0)
	c.Raise(GPDMA0)

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatalf("dispatcher stalled after a spurious interrupt")
	}
}

func TestLineString(t *testing.T) {
	for _, tc := range []struct {
		l    Line
		want string
	}{
		{SysTick, "SysTick"},
		{GPDMA0, "GPDMA0"},
		{Line(3), "IRQ3"},
	} {
		if got := tc.l.String(); got != tc.want {
			t.Fatalf("invalid name: got=%q, want=%q", got, tc.want)
		}
	}
}
