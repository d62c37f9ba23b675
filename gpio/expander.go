// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpio

import (
	"fmt"
	"sync"

	"github.com/go-daq/smbus"
)

// Registers of a PCA9554 I2C GPIO expander.
const (
	regInput  = 0x00
	regOutput = 0x01
	regPolar  = 0x02
	regConfig = 0x03 // a bit set to 0 makes the pin an output
)

type i2cConn interface {
	ReadReg(addr, reg uint8) (uint8, error)
	WriteReg(addr, reg, v uint8) error
	Close() error
}

// Expander is an 8-bit I2C GPIO expander, with all its pins configured as
// outputs.
type Expander struct {
	mu   sync.Mutex
	conn i2cConn
	addr uint8
}

// OpenExpander opens the expander at addr on the provided I2C bus.
func OpenExpander(bus int, addr uint8) (*Expander, error) {
	conn, err := smbus.Open(bus, addr)
	if err != nil {
		return nil, fmt.Errorf("gpio: could not open i2c-%d device 0x%x: %w", bus, addr, err)
	}

	dev, err := newExpander(conn, addr)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return dev, nil
}

func newExpander(conn i2cConn, addr uint8) (*Expander, error) {
	dev := &Expander{conn: conn, addr: addr}

	err := conn.WriteReg(addr, regPolar, 0x00)
	if err != nil {
		return nil, fmt.Errorf("gpio: could not reset polarity of 0x%x: %w", addr, err)
	}

	err = conn.WriteReg(addr, regOutput, 0x00)
	if err != nil {
		return nil, fmt.Errorf("gpio: could not reset outputs of 0x%x: %w", addr, err)
	}

	err = conn.WriteReg(addr, regConfig, 0x00)
	if err != nil {
		return nil, fmt.Errorf("gpio: could not configure outputs of 0x%x: %w", addr, err)
	}

	return dev, nil
}

// Close closes the connection to the expander.
func (dev *Expander) Close() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.conn.Close()
}

// Pin returns pin n of the expander.
func (dev *Expander) Pin(n int) *ExpanderPin {
	if n < 0 || n >= 8 {
		panic(fmt.Errorf("gpio: invalid expander pin number %d", n))
	}
	return &ExpanderPin{dev: dev, mask: 1 << uint(n)}
}

func (dev *Expander) modify(f func(v uint8) uint8) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()

	v, err := dev.conn.ReadReg(dev.addr, regOutput)
	if err != nil {
		return fmt.Errorf("gpio: could not read outputs of 0x%x: %w", dev.addr, err)
	}

	err = dev.conn.WriteReg(dev.addr, regOutput, f(v))
	if err != nil {
		return fmt.Errorf("gpio: could not write outputs of 0x%x: %w", dev.addr, err)
	}
	return nil
}

func (dev *Expander) outputs() (uint8, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()

	v, err := dev.conn.ReadReg(dev.addr, regInput)
	if err != nil {
		return 0, fmt.Errorf("gpio: could not read inputs of 0x%x: %w", dev.addr, err)
	}
	return v, nil
}

// ExpanderPin is an output pin of an I2C expander.
type ExpanderPin struct {
	dev  *Expander
	mask uint8
}

func (p *ExpanderPin) High() error {
	return p.dev.modify(func(v uint8) uint8 { return v | p.mask })
}

func (p *ExpanderPin) Low() error {
	return p.dev.modify(func(v uint8) uint8 { return v &^ p.mask })
}

func (p *ExpanderPin) Toggle() error {
	return p.dev.modify(func(v uint8) uint8 { return v ^ p.mask })
}

func (p *ExpanderPin) Get() (bool, error) {
	v, err := p.dev.outputs()
	if err != nil {
		return false, err
	}
	return v&p.mask != 0, nil
}

var (
	_ Output = (*ExpanderPin)(nil)
)
