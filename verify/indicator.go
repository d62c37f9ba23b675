// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verify

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-lpc/dmacrc/gpio"
)

// ErrTransition is returned for invalid indicator state transitions.
var ErrTransition = errors.New("verify: invalid state transition")

// State is the state of the verification indicator.
type State uint8

const (
	Waiting       State = iota // waiting for the end of the transfer
	Checking                   // reading the CRC check result
	Verified                   // CRC matched: indicator steady on
	MismatchBlink              // CRC mismatch: indicator blinking
)

func (s State) String() string {
	switch s {
	case Waiting:
		return "WAITING"
	case Checking:
		return "CHECKING"
	case Verified:
		return "VERIFIED"
	case MismatchBlink:
		return "MISMATCH_BLINK"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// ParseState returns the state named s.
func ParseState(s string) (State, error) {
	for _, st := range []State{Waiting, Checking, Verified, MismatchBlink} {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("verify: invalid state %q", s)
}

// Indicator drives the indicator output from the verification outcome.
type Indicator struct {
	out       gpio.Output
	threshold int

	mu      sync.Mutex
	state   State
	ticks   int // ticks since the last toggle
	toggles int
}

// NewIndicator returns an indicator in the Waiting state, toggling out every
// threshold ticks once blinking.
func NewIndicator(out gpio.Output, threshold int) (*Indicator, error) {
	if threshold <= 0 {
		return nil, fmt.Errorf("verify: invalid tick threshold %d", threshold)
	}
	return &Indicator{out: out, threshold: threshold}, nil
}

// State returns the current state of the indicator.
func (ind *Indicator) State() State {
	ind.mu.Lock()
	defer ind.mu.Unlock()
	return ind.state
}

func (ind *Indicator) transition(from, to State) error {
	if ind.state != from {
		return fmt.Errorf("%w: %v -> %v (state=%v)", ErrTransition, from, to, ind.state)
	}
	ind.state = to
	return nil
}

// Check moves the indicator from Waiting to Checking.
func (ind *Indicator) Check() error {
	ind.mu.Lock()
	defer ind.mu.Unlock()
	return ind.transition(Waiting, Checking)
}

// Verify moves the indicator from Checking to Verified, holding the output
// at its active level.
func (ind *Indicator) Verify() error {
	ind.mu.Lock()
	defer ind.mu.Unlock()

	err := ind.transition(Checking, Verified)
	if err != nil {
		return err
	}

	err = ind.out.High()
	if err != nil {
		return fmt.Errorf("verify: could not switch indicator on: %w", err)
	}
	return nil
}

// Mismatch moves the indicator from Checking to MismatchBlink.
// The output toggles on ticks from then on.
func (ind *Indicator) Mismatch() error {
	ind.mu.Lock()
	defer ind.mu.Unlock()
	return ind.transition(Checking, MismatchBlink)
}

// Tick advances the tick counter, toggling the output and resetting the
// counter when it reaches the threshold.
// Ticks outside of MismatchBlink are ignored.
func (ind *Indicator) Tick() error {
	ind.mu.Lock()
	defer ind.mu.Unlock()

	if ind.state != MismatchBlink {
		return nil
	}

	ind.ticks++
	if ind.ticks < ind.threshold {
		return nil
	}
	ind.ticks = 0
	ind.toggles++

	err := ind.out.Toggle()
	if err != nil {
		return fmt.Errorf("verify: could not toggle indicator: %w", err)
	}
	return nil
}

// Ticks returns the tick counter.
func (ind *Indicator) Ticks() int {
	ind.mu.Lock()
	defer ind.mu.Unlock()
	return ind.ticks
}

// Toggles returns the number of toggles of the output.
func (ind *Indicator) Toggles() int {
	ind.mu.Lock()
	defer ind.mu.Unlock()
	return ind.toggles
}
