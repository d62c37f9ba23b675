// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package irq implements the interrupt controller dispatching hardware
// events to their registered handlers.
//
// Handlers run one at a time on the dispatch goroutine (see Run), in
// priority order, and never preempt each other. A line raised while it is
// already pending is coalesced; a line raised while disabled stays pending
// until it is enabled.
package irq // import "github.com/go-lpc/dmacrc/irq"

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
)

// Line identifies an interrupt line, or a system exception when negative.
type Line int

const (
	SysTick Line = -1  // system tick timer exception
	GPDMA0  Line = 105 // GPDMA0 interrupt, shared by all channels of the module
)

func (l Line) String() string {
	switch l {
	case SysTick:
		return "SysTick"
	case GPDMA0:
		return "GPDMA0"
	}
	return fmt.Sprintf("IRQ%d", int(l))
}

// Handler handles an interrupt. Handlers must be short and non-blocking.
type Handler func()

type vector struct {
	handler Handler
	prio    uint8
	enabled bool
	pending bool
}

// Controller dispatches interrupts to handlers.
type Controller struct {
	msg *log.Logger

	mu   sync.Mutex
	vecs map[Line]*vector
	sig  chan struct{}
}

// New returns a new interrupt controller.
// Interrupts are only delivered while Run is executing.
func New(msg *log.Logger) *Controller {
	if msg == nil {
		msg = log.New(os.Stdout, "irq: ", 0)
	}
	return &Controller{
		msg:  msg,
		vecs: make(map[Line]*vector),
		sig:  make(chan struct{}, 1),
	}
}

func (c *Controller) vec(l Line) *vector {
	v, ok := c.vecs[l]
	if !ok {
		v = new(vector)
		c.vecs[l] = v
	}
	return v
}

// Register installs the handler of line l.
func (c *Controller) Register(l Line, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vec(l).handler = h
}

// SetPriority sets the priority of line l. Lower values are served first.
func (c *Controller) SetPriority(l Line, prio uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vec(l).prio = prio
}

// Enable enables line l, delivering any pending interrupt.
func (c *Controller) Enable(l Line) {
	c.mu.Lock()
	v := c.vec(l)
	v.enabled = true
	pending := v.pending
	c.mu.Unlock()

	if pending {
		c.notify()
	}
}

// Disable disables line l. Interrupts raised while disabled stay pending.
func (c *Controller) Disable(l Line) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vec(l).enabled = false
}

// Enabled reports whether line l is enabled.
func (c *Controller) Enabled(l Line) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vec(l).enabled
}

// Pending reports whether line l is pending.
func (c *Controller) Pending(l Line) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vec(l).pending
}

// ClearPending drops a pending interrupt of line l.
func (c *Controller) ClearPending(l Line) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vec(l).pending = false
}

// Raise marks line l as pending. It never blocks.
func (c *Controller) Raise(l Line) {
	c.mu.Lock()
	v := c.vec(l)
	v.pending = true
	enabled := v.enabled
	c.mu.Unlock()

	if enabled {
		c.notify()
	}
}

func (c *Controller) notify() {
	select {
	case c.sig <- struct{}{}:
	default:
	}
}

// Run dispatches interrupts until ctx is done.
func (c *Controller) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.sig:
			for {
				l, h, ok := c.next()
				if !ok {
					break
				}
				if h == nil {
					c.msg.Printf("spurious interrupt on line %v", l)
					continue
				}
				h()
			}
		}
	}
}

// next acknowledges the highest priority pending and enabled line.
func (c *Controller) next() (Line, Handler, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	lines := make([]Line, 0, len(c.vecs))
	for l, v := range c.vecs {
		if v.pending && v.enabled {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return 0, nil, false
	}
	sort.Slice(lines, func(i, j int) bool {
		vi := c.vecs[lines[i]]
		vj := c.vecs[lines[j]]
		if vi.prio != vj.prio {
			return vi.prio < vj.prio
		}
		return lines[i] < lines[j]
	})

	l := lines[0]
	v := c.vecs[l]
	v.pending = false
	return l, v.handler, true
}
