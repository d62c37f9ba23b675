// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package board brings up the peripherals of the micro-controller and wires
// them on the system bus.
package board // import "github.com/go-lpc/dmacrc/board"

import (
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"os"

	"github.com/go-lpc/dmacrc/bus"
	"github.com/go-lpc/dmacrc/fce"
	"github.com/go-lpc/dmacrc/gpdma"
	"github.com/go-lpc/dmacrc/gpio"
	"github.com/go-lpc/dmacrc/internal/mmap"
	"github.com/go-lpc/dmacrc/irq"
	"github.com/go-lpc/dmacrc/systick"
	"golang.org/x/sync/errgroup"
)

// Memory map.
const (
	SRAMBase  = 0x20000000 // system SRAM
	FCEBase   = 0x50020020 // FCE kernel 0
	Port1Base = 0x48028100 // GPIO port 1

	DefaultSRAMSize = 64 << 10

	// LEDPin is the pin of port 1 driving the indicator LED.
	LEDPin = 1
)

type config struct {
	msg  *log.Logger
	led  gpio.Output
	sram int
}

func newConfig() config {
	return config{
		msg:  log.New(os.Stdout, "board: ", 0),
		sram: DefaultSRAMSize,
	}
}

// Option configures a board.
type Option func(*config)

// WithLogger sets the logger of the board and its interrupt controller.
func WithLogger(msg *log.Logger) Option {
	return func(cfg *config) {
		cfg.msg = msg
	}
}

// WithLED drives the indicator with out instead of the on-board LED.
func WithLED(out gpio.Output) Option {
	return func(cfg *config) {
		cfg.led = out
	}
}

// WithSRAMSize sets the size of the system SRAM, in bytes.
func WithSRAMSize(n int) Option {
	return func(cfg *config) {
		cfg.sram = n
	}
}

// Board holds the peripherals of the micro-controller.
type Board struct {
	msg *log.Logger

	Bus     *bus.Bus
	IRQ     *irq.Controller
	DMA     *gpdma.Controller
	FCE     *fce.Kernel
	Port1   *gpio.Port
	SysTick *systick.Timer
	LED     gpio.Output

	sram   *mmap.Handle
	cancel context.CancelFunc
	grp    *errgroup.Group
}

// New initializes the board. The interrupt controller dispatches interrupts
// until the board is closed.
func New(opts ...Option) (brd *Board, err error) {
	cfg := newConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	brd = &Board{
		msg: cfg.msg,
		Bus: bus.New(),
	}

	brd.sram, err = mmap.Anon(cfg.sram)
	if err != nil {
		return nil, fmt.Errorf("board: could not allocate SRAM: %w", err)
	}
	defer func() {
		if err != nil {
			_ = brd.sram.Close()
		}
	}()

	brd.FCE, err = fce.NewKernel()
	if err != nil {
		return nil, fmt.Errorf("board: could not create FCE kernel: %w", err)
	}
	defer func() {
		if err != nil {
			_ = brd.FCE.Close()
		}
	}()

	brd.Port1, err = gpio.NewPort()
	if err != nil {
		return nil, fmt.Errorf("board: could not create GPIO port: %w", err)
	}
	defer func() {
		if err != nil {
			_ = brd.Port1.Close()
		}
	}()

	for _, m := range []struct {
		name string
		base uint32
		size uint32
		dev  bus.Device
	}{
		{"sram", SRAMBase, uint32(cfg.sram), brd.sram},
		{"fce-ke0", FCEBase, fce.Size, brd.FCE},
		{"port1", Port1Base, gpio.Size, brd.Port1},
	} {
		err = brd.Bus.Map(m.name, m.base, m.size, m.dev)
		if err != nil {
			return nil, fmt.Errorf("board: could not map %q: %w", m.name, err)
		}
	}

	brd.IRQ = irq.New(cfg.msg)
	brd.DMA = gpdma.New(brd.Bus, brd.IRQ, irq.GPDMA0)
	brd.SysTick = systick.New(brd.IRQ)

	brd.LED = cfg.led
	if brd.LED == nil {
		brd.LED = brd.Port1.Pin(LEDPin)
	}

	ctx, cancel := context.WithCancel(context.Background())
	brd.cancel = cancel
	brd.grp, ctx = errgroup.WithContext(ctx)
	brd.grp.Go(func() error {
		return brd.IRQ.Run(ctx)
	})

	return brd, nil
}

// Load stores words at addr, little-endian.
func (brd *Board) Load(addr uint32, words []uint32) error {
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[4*i:], w)
	}
	_, err := brd.Bus.WriteAt(buf, int64(addr))
	if err != nil {
		return fmt.Errorf("board: could not load %d words at 0x%08x: %w", len(words), addr, err)
	}
	return nil
}

// Close stops the timer and the interrupt dispatcher, waits for running
// transfers and releases the peripherals.
func (brd *Board) Close() error {
	brd.SysTick.Stop()
	brd.DMA.Wait()
	brd.cancel()

	err := brd.grp.Wait()
	if err != nil {
		return fmt.Errorf("board: could not stop interrupt dispatcher: %w", err)
	}

	err = brd.FCE.Close()
	if err != nil {
		return fmt.Errorf("board: could not close FCE kernel: %w", err)
	}

	err = brd.Port1.Close()
	if err != nil {
		return fmt.Errorf("board: could not close GPIO port: %w", err)
	}

	err = brd.sram.Close()
	if err != nil {
		return fmt.Errorf("board: could not release SRAM: %w", err)
	}

	return nil
}
