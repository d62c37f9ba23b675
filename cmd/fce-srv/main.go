// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command fce-srv starts a TDAQ server running the CRC verification of the
// reference frame.
//
// The verification is configured on /config, the board is brought up on
// /init and the frame is verified on /start. Level changes of the
// indicator LED are streamed on the /led output port.
package main // import "github.com/go-lpc/dmacrc/cmd/fce-srv"

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-daq/tdaq"
	"github.com/go-daq/tdaq/flags"
	"github.com/go-lpc/dmacrc/board"
	"github.com/go-lpc/dmacrc/gpio"
	"github.com/go-lpc/dmacrc/verify"
)

func main() {
	cmd := flags.New()

	dev := newServer(cmd.Args[0])

	srv := tdaq.New(cmd, os.Stdout)
	srv.CmdHandle("/config", dev.OnConfig)
	srv.CmdHandle("/init", dev.OnInit)
	srv.CmdHandle("/reset", dev.OnReset)
	srv.CmdHandle("/start", dev.OnStart)
	srv.CmdHandle("/stop", dev.OnStop)
	srv.CmdHandle("/quit", dev.OnQuit)

	srv.OutputHandle("/led", dev.led)

	srv.RunHandle(dev.run)

	err := srv.Run(context.Background())
	if err != nil {
		log.Panicf("error: %+v", err)
	}
}

type server struct {
	name string
	cfg  verify.Config

	brd *board.Board
	ver *verify.Verifier
	rep verify.Report

	leds chan []byte // LED level changes
}

func newServer(name string) *server {
	return &server{
		name: name,
		cfg:  verify.DefaultConfig(),
		leds: make(chan []byte, 1024),
	}
}

// OnConfig sets the expected CRC and the blink threshold, when provided.
func (dev *server) OnConfig(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /config command...")
	dev.cfg = verify.DefaultConfig()
	if len(req.Body) == 0 {
		return nil
	}

	if len(req.Body) != 8 {
		ctx.Msg.Errorf("invalid /config payload (len=%d)", len(req.Body))
		return fmt.Errorf("invalid /config payload (len=%d)", len(req.Body))
	}

	dec := tdaq.NewDecoder(bytes.NewReader(req.Body))
	dev.cfg.CRC.Check = dec.ReadU32()
	dev.cfg.Threshold = int(dec.ReadU32())
	ctx.Msg.Infof("expected CRC: 0x%08x, blink threshold: %d", dev.cfg.CRC.Check, dev.cfg.Threshold)

	return nil
}

func (dev *server) OnInit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /init command...")
	return dev.setup(ctx)
}

func (dev *server) OnReset(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /reset command...")
	return dev.setup(ctx)
}

func (dev *server) OnStart(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /start command...")
	if dev.ver == nil {
		return fmt.Errorf("could not start verification: board not initialized")
	}

	rep, err := dev.ver.Run(ctx.Ctx, verify.Frame)
	dev.rep = rep
	if err != nil {
		ctx.Msg.Errorf("could not run verification: %+v", err)
		return fmt.Errorf("could not run verification: %w", err)
	}
	ctx.Msg.Infof("verification: %v", rep)

	return nil
}

func (dev *server) OnStop(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /stop command...")
	if dev.ver == nil {
		return nil
	}
	ind := dev.ver.Indicator()
	ctx.Msg.Infof("indicator: state=%v, toggles=%d", ind.State(), ind.Toggles())
	return nil
}

func (dev *server) OnQuit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /quit command...")
	return dev.close()
}

func (dev *server) setup(ctx tdaq.Context) error {
	err := dev.close()
	if err != nil {
		ctx.Msg.Errorf("could not close board: %+v", err)
		return fmt.Errorf("could not close board: %w", err)
	}

	brd, err := board.New(board.WithLogger(log.New(os.Stdout, dev.name+": ", 0)))
	if err != nil {
		ctx.Msg.Errorf("could not initialize board: %+v", err)
		return fmt.Errorf("could not initialize board: %w", err)
	}
	brd.LED = gpio.Watch(brd.LED, dev.onLED)

	ver, err := verify.New(brd, dev.cfg)
	if err != nil {
		_ = brd.Close()
		ctx.Msg.Errorf("could not create verifier: %+v", err)
		return fmt.Errorf("could not create verifier: %w", err)
	}

	dev.brd = brd
	dev.ver = ver
	dev.rep = verify.Report{}
	return nil
}

func (dev *server) close() error {
	if dev.brd == nil {
		return nil
	}
	err := dev.brd.Close()
	dev.brd = nil
	dev.ver = nil
	return err
}

// onLED publishes a level change of the LED.
// Changes are dropped when nobody listens.
func (dev *server) onLED(level bool) {
	var (
		buf = new(bytes.Buffer)
		enc = tdaq.NewEncoder(buf)
		v   uint8
	)
	if level {
		v = 1
	}
	enc.WriteU8(v)
	enc.WriteU64(uint64(time.Now().UnixNano()))

	select {
	case dev.leds <- buf.Bytes():
	default:
	}
}

func (dev *server) led(ctx tdaq.Context, dst *tdaq.Frame) error {
	select {
	case <-ctx.Ctx.Done():
		dst.Body = nil
		return nil
	case data := <-dev.leds:
		dst.Body = data
	}
	return nil
}

func (dev *server) run(ctx tdaq.Context) error {
	<-ctx.Ctx.Done()
	return nil
}
