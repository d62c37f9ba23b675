// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gpdma models a general purpose DMA controller.
//
// A channel copies a block of items from a source address to a destination
// address on the system bus, without any involvement of the processor once
// it has been enabled. Channel events are reported through the event status
// and, when enabled, through the interrupt line of the controller.
package gpdma // import "github.com/go-lpc/dmacrc/gpdma"

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/go-lpc/dmacrc/bus"
	"github.com/go-lpc/dmacrc/irq"
)

// NumChannels is the number of channels of a controller.
const NumChannels = 8

var (
	ErrDisabled = errors.New("gpdma: controller disabled")
	ErrBusy     = errors.New("gpdma: channel busy")
)

type raiser interface {
	Raise(l irq.Line)
}

// Controller is a DMA controller.
type Controller struct {
	bus  bus.Device
	ic   raiser
	line irq.Line

	mu      sync.Mutex
	enabled bool
	chans   [NumChannels]*Channel
	wg      sync.WaitGroup
}

// New returns a DMA controller moving data on b, and raising line l on ic.
func New(b bus.Device, ic raiser, l irq.Line) *Controller {
	c := &Controller{
		bus:  b,
		ic:   ic,
		line: l,
	}
	for i := range c.chans {
		c.chans[i] = &Channel{ctl: c, id: i}
	}
	return c
}

// Init enables the controller.
func (c *Controller) Init() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = true
}

// Disable disables the controller. Running transfers are not aborted.
func (c *Controller) Disable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = false
}

// Enabled reports whether the controller is enabled.
func (c *Controller) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// Channel returns channel i.
func (c *Controller) Channel(i int) *Channel {
	return c.chans[i]
}

// Wait blocks until all running transfers are done.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Channel is a DMA channel.
type Channel struct {
	ctl *Controller
	id  int

	mu     sync.Mutex
	desc   Descriptor
	mask   Event // enabled events
	status Event // raised events
	busy   bool
	err    error
}

// ID returns the channel number.
func (ch *Channel) ID() int { return ch.id }

// Configure programs the channel with the provided transfer descriptor.
func (ch *Channel) Configure(d Descriptor) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.desc = d
}

// Descriptor returns the programmed transfer descriptor.
func (ch *Channel) Descriptor() Descriptor {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.desc
}

// EnableEvent enables the provided events.
func (ch *Channel) EnableEvent(ev Event) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.mask |= ev
}

// DisableEvent disables the provided events.
func (ch *Channel) DisableEvent(ev Event) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.mask &^= ev
}

// EventStatus reports whether any of the provided events was raised.
func (ch *Channel) EventStatus(ev Event) bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.status&ev != 0
}

// ClearEventStatus acknowledges the provided events.
func (ch *Channel) ClearEventStatus(ev Event) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.status &^= ev
}

// Busy reports whether a transfer is running.
func (ch *Channel) Busy() bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.busy
}

// Err returns the error of the last transfer, if any.
func (ch *Channel) Err() error {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.err
}

// Enable starts the transfer described by the programmed descriptor.
// Enable returns immediately: the block is moved asynchronously.
func (ch *Channel) Enable() error {
	if !ch.ctl.Enabled() {
		return fmt.Errorf("gpdma: could not enable channel %d: %w", ch.id, ErrDisabled)
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()

	if ch.busy {
		return fmt.Errorf("gpdma: could not enable channel %d: %w", ch.id, ErrBusy)
	}
	ch.busy = true
	ch.err = nil

	d := ch.desc
	ch.ctl.wg.Add(1)
	go ch.run(d)
	return nil
}

func (ch *Channel) run(d Descriptor) {
	defer ch.ctl.wg.Done()

	err := ch.transfer(d)

	ch.mu.Lock()
	ch.busy = false
	ch.err = err
	ch.mu.Unlock()

	switch err {
	case nil:
		ch.signal(d, EventBlockTransferComplete|EventTransferComplete)
	default:
		ch.signal(d, EventError)
	}
}

// signal sets the status of ev and raises the controller interrupt when
// any of ev is enabled.
func (ch *Channel) signal(d Descriptor, ev Event) {
	ch.mu.Lock()
	ch.status |= ev
	raise := d.EnableInterrupt && ch.mask&ev != 0
	ch.mu.Unlock()

	if raise {
		ch.ctl.ic.Raise(ch.ctl.line)
	}
}

func (ch *Channel) transfer(d Descriptor) error {
	var (
		src  = d.Src
		dst  = d.Dst
		sw   = d.SrcWidth.Bytes()
		dw   = d.DstWidth.Bytes()
		sbrs = d.SrcBurst.Items()
		dbrs = d.DstBurst.Items()
		item = make([]byte, sw)
		fifo = make([]byte, 0, sw+dw)
		nw   = 0 // number of destination items written
	)

	for i := 0; uint32(i) < d.BlockSize; i++ {
		_, err := ch.ctl.bus.ReadAt(item, int64(src))
		if err != nil {
			return fmt.Errorf(
				"gpdma: channel %d could not read item %d at 0x%08x: %w",
				ch.id, i, src, err,
			)
		}
		src = next(src, d.SrcMode, sw)
		fifo = append(fifo, item...)

		for len(fifo) >= dw {
			_, err = ch.ctl.bus.WriteAt(fifo[:dw], int64(dst))
			if err != nil {
				return fmt.Errorf(
					"gpdma: channel %d could not write item %d at 0x%08x: %w",
					ch.id, nw, dst, err,
				)
			}
			dst = next(dst, d.DstMode, dw)
			fifo = fifo[:copy(fifo, fifo[dw:])]
			nw++
			if nw%dbrs == 0 {
				ch.signal(d, EventDstTransactionComplete)
			}
		}

		if (i+1)%sbrs == 0 {
			ch.signal(d, EventSrcTransactionComplete)
			runtime.Gosched()
		}
	}

	return nil
}

func next(addr uint32, mode AddrMode, n int) uint32 {
	switch mode {
	case AddrIncrement:
		return addr + uint32(n)
	case AddrDecrement:
		return addr - uint32(n)
	default:
		return addr
	}
}
