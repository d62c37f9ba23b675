// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package systick models the system tick timer of a Cortex-M core.
package systick // import "github.com/go-lpc/dmacrc/systick"

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-lpc/dmacrc/irq"
)

var (
	ErrPeriod  = errors.New("systick: invalid period")
	ErrRunning = errors.New("systick: timer already running")
)

type raiser interface {
	Raise(l irq.Line)
}

// Timer raises the irq.SysTick exception periodically once configured.
type Timer struct {
	ic raiser

	mu     sync.Mutex
	period time.Duration
	quit   chan struct{}
	done   chan struct{}
}

// New returns a stopped timer raising its exception on ic.
func New(ic raiser) *Timer {
	return &Timer{ic: ic}
}

// Config arms the timer with the provided period.
func (t *Timer) Config(period time.Duration) error {
	if period <= 0 {
		return fmt.Errorf("systick: could not configure timer with period %v: %w", period, ErrPeriod)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.quit != nil {
		return fmt.Errorf("systick: could not configure timer: %w", ErrRunning)
	}

	t.period = period
	t.quit = make(chan struct{})
	t.done = make(chan struct{})
	go t.run(period, t.quit, t.done)

	return nil
}

func (t *Timer) run(period time.Duration, quit, done chan struct{}) {
	defer close(done)

	tck := time.NewTicker(period)
	defer tck.Stop()

	for {
		select {
		case <-quit:
			return
		case <-tck.C:
			t.ic.Raise(irq.SysTick)
		}
	}
}

// Period returns the configured tick period.
func (t *Timer) Period() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.period
}

// Running reports whether the timer is armed.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.quit != nil
}

// Stop disarms the timer. No tick is raised once Stop returns.
func (t *Timer) Stop() {
	t.mu.Lock()
	quit, done := t.quit, t.done
	t.quit = nil
	t.done = nil
	t.mu.Unlock()

	if quit == nil {
		return
	}
	close(quit)
	<-done
}
