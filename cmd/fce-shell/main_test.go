// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestShell(t *testing.T) {
	var (
		out = new(bytes.Buffer)
		sh  = newShell(out)
	)
	defer sh.close()

	for _, tc := range []struct {
		line string
		want string
		err  bool
	}{
		{line: ""},
		{line: "help", want: "commands: blink, crc, help, led, quit, run, state, tick\n"},
		{line: "state", err: true},
		{line: "led", err: true},
		{line: "run", want: "state=VERIFIED crc=0x99f69cd9 expected=0x99f69cd9 words=256"},
		{line: "led", want: "led: on\n"},
		{line: "state", want: "state=VERIFIED ticks=0 toggles=0\n"},
		{line: "crc 0x99f69cd8"},
		{line: "blink 500"},
		{line: "tick 1ms"},
		{line: "run", want: "state=MISMATCH_BLINK crc=0x99f69cd9 expected=0x99f69cd8 words=256"},
		{line: "led", want: "led: off\n"},
		{line: "crc", err: true},
		{line: "crc xyz", err: true},
		{line: "blink", err: true},
		{line: "blink x", err: true},
		{line: "tick", err: true},
		{line: "tick 1", err: true},
		{line: "blink 0"},
		{line: "run", err: true},
		{line: "flash", err: true},
	} {
		t.Run(tc.line, func(t *testing.T) {
			out.Reset()
			err := sh.exec(tc.line)
			switch {
			case tc.err && err == nil:
				t.Fatalf("expected an error")
			case !tc.err && err != nil:
				t.Fatalf("could not run %q: %+v", tc.line, err)
			}
			if !strings.Contains(out.String(), tc.want) {
				t.Fatalf("invalid output:\ngot= %q\nwant=%q", out.String(), tc.want)
			}
		})
	}

	if got, want := sh.cfg.Tick, time.Millisecond; got != want {
		t.Fatalf("invalid tick: got=%v, want=%v", got, want)
	}

	err := sh.exec("quit")
	if !errors.Is(err, errQuit) {
		t.Fatalf("invalid error: %+v", err)
	}
}

func TestComplete(t *testing.T) {
	sh := newShell(new(bytes.Buffer))
	for _, tc := range []struct {
		line string
		want []string
	}{
		{"", cmds},
		{"b", []string{"blink"}},
		{"q", []string{"quit"}},
		{"z", nil},
	} {
		if got := sh.complete(tc.line); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("invalid completion for %q: got=%q, want=%q", tc.line, got, tc.want)
		}
	}
}

func TestScript(t *testing.T) {
	for _, tc := range []struct {
		name string
		cmds string
		want string
		err  string
	}{
		{
			name: "mismatch",
			cmds: "crc 0x99f69cd8\nblink 10\nrun\nstate\nquit\nflash\n",
			want: "state=MISMATCH_BLINK crc=0x99f69cd9 expected=0x99f69cd8 words=256",
		},
		{
			name: "invalid",
			cmds: "help\nflash\nrun\n",
			want: "commands:",
			err:  `line 2: unknown command "flash"`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			out := new(bytes.Buffer)
			sh := newShell(out)
			defer sh.close()

			err := sh.script(strings.NewReader(tc.cmds))
			switch {
			case err != nil && tc.err == "":
				t.Fatalf("could not run script: %+v", err)
			case err == nil && tc.err != "":
				t.Fatalf("expected an error")
			case err != nil && err.Error() != tc.err:
				t.Fatalf("invalid error: got=%q, want=%q", err.Error(), tc.err)
			}
			if !strings.Contains(out.String(), tc.want) {
				t.Fatalf("invalid output:\ngot= %q\nwant=%q", out.String(), tc.want)
			}
		})
	}
}
