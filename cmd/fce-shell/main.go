// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command fce-shell is an interactive shell running CRC verifications of
// the reference frame.
//
// Example:
//
//	$> fce-shell
//	fce> crc 0x99f69cd8
//	fce> blink 250
//	fce> run
//	state=MISMATCH_BLINK crc=0x99f69cd9 expected=0x99f69cd8 words=256 elapsed=1.2ms
//	fce> led
//	led: on
//	fce> quit
//
// When standard input is not a terminal, commands are read one per line:
//
//	$> printf "crc 0x99f69cd8\nrun\n" | fce-shell
package main // import "github.com/go-lpc/dmacrc/cmd/fce-shell"

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-lpc/dmacrc/board"
	"github.com/go-lpc/dmacrc/verify"
	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"
)

var errQuit = errors.New("quit")

func main() {
	log.SetPrefix("fce-shell: ")
	log.SetFlags(0)

	sh := newShell(os.Stdout)
	defer sh.close()

	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		err := sh.script(os.Stdin)
		if err != nil {
			sh.close()
			log.Fatalf("%+v", err)
		}
		return
	}

	term := liner.NewLiner()
	defer term.Close()
	term.SetCtrlCAborts(true)
	term.SetCompleter(sh.complete)

	for {
		line, err := term.Prompt("fce> ")
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				fmt.Fprintln(os.Stdout)
				return
			}
			log.Printf("could not read command: %+v", err)
			return
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		term.AppendHistory(line)

		err = sh.exec(line)
		switch {
		case errors.Is(err, errQuit):
			return
		case err != nil:
			log.Printf("%+v", err)
		}
	}
}

var cmds = []string{"blink", "crc", "help", "led", "quit", "run", "state", "tick"}

type shell struct {
	w   io.Writer
	cfg verify.Config

	brd *board.Board
	ver *verify.Verifier
}

func newShell(w io.Writer) *shell {
	return &shell{
		w:   w,
		cfg: verify.DefaultConfig(),
	}
}

func (sh *shell) close() {
	if sh.brd == nil {
		return
	}
	err := sh.brd.Close()
	if err != nil {
		log.Printf("could not close board: %+v", err)
	}
	sh.brd = nil
	sh.ver = nil
}

// script executes the commands read from r, stopping at the first error.
func (sh *shell) script(r io.Reader) error {
	sc := bufio.NewScanner(r)
	for i := 1; sc.Scan(); i++ {
		err := sh.exec(sc.Text())
		switch {
		case errors.Is(err, errQuit):
			return nil
		case err != nil:
			return fmt.Errorf("line %d: %w", i, err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("could not read commands: %w", err)
	}
	return nil
}

func (sh *shell) complete(line string) []string {
	var out []string
	for _, cmd := range cmds {
		if strings.HasPrefix(cmd, line) {
			out = append(out, cmd)
		}
	}
	return out
}

func (sh *shell) exec(line string) error {
	toks := strings.Fields(line)
	if len(toks) == 0 {
		return nil
	}

	var (
		cmd  = toks[0]
		args = toks[1:]
	)
	switch cmd {
	case "quit", "exit":
		return errQuit
	case "help":
		fmt.Fprintf(sh.w, "commands: %s\n", strings.Join(cmds, ", "))
		return nil
	case "crc":
		if len(args) != 1 {
			return fmt.Errorf("usage: crc <expected-crc>")
		}
		v, err := strconv.ParseUint(args[0], 0, 32)
		if err != nil {
			return fmt.Errorf("could not parse expected CRC %q: %w", args[0], err)
		}
		sh.cfg.CRC.Check = uint32(v)
		return nil
	case "blink":
		if len(args) != 1 {
			return fmt.Errorf("usage: blink <ticks>")
		}
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("could not parse blink threshold %q: %w", args[0], err)
		}
		sh.cfg.Threshold = v
		return nil
	case "tick":
		if len(args) != 1 {
			return fmt.Errorf("usage: tick <period>")
		}
		v, err := time.ParseDuration(args[0])
		if err != nil {
			return fmt.Errorf("could not parse tick period %q: %w", args[0], err)
		}
		sh.cfg.Tick = v
		return nil
	case "run":
		return sh.run()
	case "state":
		if sh.ver == nil {
			return fmt.Errorf("no verification run")
		}
		ind := sh.ver.Indicator()
		fmt.Fprintf(sh.w, "state=%v ticks=%d toggles=%d\n", ind.State(), ind.Ticks(), ind.Toggles())
		return nil
	case "led":
		if sh.brd == nil {
			return fmt.Errorf("no verification run")
		}
		on, err := sh.brd.LED.Get()
		if err != nil {
			return fmt.Errorf("could not read LED: %w", err)
		}
		lvl := "off"
		if on {
			lvl = "on"
		}
		fmt.Fprintf(sh.w, "led: %s\n", lvl)
		return nil
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func (sh *shell) run() error {
	sh.close()

	brd, err := board.New(board.WithLogger(log.New(sh.w, "board: ", 0)))
	if err != nil {
		return fmt.Errorf("could not initialize board: %w", err)
	}

	ver, err := verify.New(brd, sh.cfg)
	if err != nil {
		_ = brd.Close()
		return fmt.Errorf("could not create verifier: %w", err)
	}
	sh.brd = brd
	sh.ver = ver

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rep, err := ver.Run(ctx, verify.Frame)
	if err != nil {
		return fmt.Errorf("could not run verification: %w", err)
	}
	fmt.Fprintf(sh.w, "%v\n", rep)
	return nil
}
