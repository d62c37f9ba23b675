// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package verify checks the integrity of a data block by streaming it
// through the CRC engine with a DMA channel, and reports the outcome on the
// indicator LED.
//
// The LED is switched on when the CRC matches the expected value, and
// blinks forever otherwise.
package verify // import "github.com/go-lpc/dmacrc/verify"

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/go-lpc/dmacrc/board"
	"github.com/go-lpc/dmacrc/fce"
	"github.com/go-lpc/dmacrc/gpdma"
	"github.com/go-lpc/dmacrc/irq"
)

// Block is an ordered sequence of 32-bit words.
type Block []uint32

// Priority of the DMA completion interrupt.
const dmaPriority = 63

// Config describes one verification run.
//
// The block length, cfg.DMA.BlockSize and cfg.CRC.Length must be equal.
// This is not checked.
type Config struct {
	CRC     fce.Config
	DMA     gpdma.Descriptor
	Channel int

	Tick      time.Duration // period of the system tick
	Threshold int           // number of ticks between two indicator toggles
}

// DefaultConfig returns the configuration verifying Frame: a CRC-32 with
// seed 0xffffffff, input and output reflection and output inversion, fed
// by DMA channel 2 and blinking at 1 Hz on mismatch.
func DefaultConfig() Config {
	n := uint32(len(Frame))
	return Config{
		CRC: fce.Config{
			Seed:   0xffffffff,
			RefIn:  true,
			RefOut: true,
			Invert: true,
			Check:  FrameCRC,
			Length: n,
		},
		DMA: gpdma.Descriptor{
			Src:             board.SRAMBase,
			Dst:             board.FCEBase + fce.IR,
			SrcWidth:        gpdma.Width32,
			DstWidth:        gpdma.Width32,
			SrcMode:         gpdma.AddrIncrement,
			DstMode:         gpdma.AddrNoChange,
			SrcBurst:        gpdma.Burst8,
			DstBurst:        gpdma.Burst8,
			BlockSize:       n,
			Flow:            gpdma.FlowM2M,
			Type:            gpdma.SingleBlock,
			Priority:        0,
			SrcHandshake:    gpdma.HandshakingSoftware,
			DstHandshake:    gpdma.HandshakingSoftware,
			EnableInterrupt: true,
		},
		Channel:   2,
		Tick:      time.Millisecond,
		Threshold: 500,
	}
}

// Report is the outcome of a verification run.
type Report struct {
	State    State
	CRC      uint32 // CRC computed by the engine
	Expected uint32
	Words    int
	Elapsed  time.Duration // from the start of the transfer to its completion
}

func (r Report) String() string {
	return fmt.Sprintf(
		"state=%v crc=0x%08x expected=0x%08x words=%d elapsed=%v",
		r.State, r.CRC, r.Expected, r.Words, r.Elapsed,
	)
}

// Option configures a verifier.
type Option func(*Verifier)

// WithLogger sets the logger of the verifier.
func WithLogger(msg *log.Logger) Option {
	return func(v *Verifier) {
		v.msg = msg
	}
}

// Verifier runs one verification on a board.
type Verifier struct {
	msg *log.Logger
	brd *board.Board
	cfg Config

	ch   *gpdma.Channel
	done Flag
	ind  *Indicator
}

// New returns a verifier driving the LED of brd.
func New(brd *board.Board, cfg Config, opts ...Option) (*Verifier, error) {
	if cfg.Channel < 0 || cfg.Channel >= gpdma.NumChannels {
		return nil, fmt.Errorf("verify: invalid DMA channel %d", cfg.Channel)
	}

	ind, err := NewIndicator(brd.LED, cfg.Threshold)
	if err != nil {
		return nil, err
	}

	v := &Verifier{
		msg: log.New(os.Stdout, "verify: ", 0),
		brd: brd,
		cfg: cfg,
		ch:  brd.DMA.Channel(cfg.Channel),
		ind: ind,
	}
	for _, opt := range opts {
		opt(v)
	}

	return v, nil
}

// Indicator returns the indicator driven by the verifier.
func (v *Verifier) Indicator() *Indicator {
	return v.ind
}

// Run loads blk in memory, streams it through the CRC engine and drives the
// indicator from the CRC check result.
//
// Run spins until the transfer completes. If the transfer never completes,
// Run only returns once ctx is done.
func (v *Verifier) Run(ctx context.Context, blk Block) (Report, error) {
	rep := Report{
		State:    v.ind.State(),
		Expected: v.cfg.CRC.Check,
		Words:    len(blk),
	}
	if rep.State != Waiting {
		return rep, fmt.Errorf("verify: could not run verification: %w (state=%v)", ErrTransition, rep.State)
	}

	err := v.brd.Load(v.cfg.DMA.Src, blk)
	if err != nil {
		return rep, fmt.Errorf("verify: could not load data block: %w", err)
	}

	v.brd.DMA.Init()
	v.ch.Configure(v.cfg.DMA)
	v.ch.EnableEvent(gpdma.EventBlockTransferComplete)

	v.brd.IRQ.Register(irq.GPDMA0, v.onTransfer)
	v.brd.IRQ.SetPriority(irq.GPDMA0, dmaPriority)
	v.brd.IRQ.Enable(irq.GPDMA0)

	err = v.setupCRC()
	if err != nil {
		return rep, err
	}

	start := time.Now()
	err = v.ch.Enable()
	if err != nil {
		return rep, fmt.Errorf("verify: could not start transfer: %w", err)
	}

	for !v.done.IsSet() {
		select {
		case <-ctx.Done():
			return rep, ctx.Err()
		default:
			runtime.Gosched()
		}
	}
	rep.Elapsed = time.Since(start)

	err = v.ind.Check()
	if err != nil {
		return rep, err
	}
	rep.State = Checking

	mismatch := v.brd.FCE.MismatchStatus()
	rep.CRC = v.brd.FCE.Result()

	if !mismatch {
		err = v.ind.Verify()
		rep.State = v.ind.State()
		return rep, err
	}

	err = v.ind.Mismatch()
	if err != nil {
		return rep, err
	}
	rep.State = MismatchBlink

	v.brd.IRQ.Register(irq.SysTick, v.onTick)
	v.brd.IRQ.Enable(irq.SysTick)
	err = v.brd.SysTick.Config(v.cfg.Tick)
	if err != nil {
		return rep, fmt.Errorf("verify: could not arm indicator ticker: %w", err)
	}

	return rep, nil
}

func (v *Verifier) setupCRC() error {
	var (
		k   = v.brd.FCE
		cfg = v.cfg.CRC
	)

	err := k.Init(cfg)
	if err != nil {
		return fmt.Errorf("verify: could not initialize CRC engine: %w", err)
	}

	err = k.SetExpectedCRC(cfg.Check)
	if err != nil {
		return fmt.Errorf("verify: could not set expected CRC: %w", err)
	}

	err = k.SetExpectedLength(cfg.Length)
	if err != nil {
		return fmt.Errorf("verify: could not set expected length: %w", err)
	}

	err = k.EnableAutoCheck()
	if err != nil {
		return fmt.Errorf("verify: could not enable CRC check: %w", err)
	}

	return nil
}

// onTransfer handles the block transfer complete interrupt.
func (v *Verifier) onTransfer() {
	v.ch.ClearEventStatus(gpdma.EventBlockTransferComplete)
	v.done.Set()
}

// onTick handles the system tick exception.
func (v *Verifier) onTick() {
	err := v.ind.Tick()
	if err != nil {
		v.msg.Printf("could not drive indicator: %+v", err)
	}
}
