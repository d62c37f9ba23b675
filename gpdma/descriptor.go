// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpdma

// Width is the width of one transfer item.
type Width uint8

const (
	Width8 Width = iota
	Width16
	Width32
)

// Bytes returns the number of bytes of an item.
func (w Width) Bytes() int { return 1 << (w & 0x3) }

// AddrMode describes how an address moves after each item.
type AddrMode uint8

const (
	AddrIncrement AddrMode = iota
	AddrDecrement
	AddrNoChange
)

// Burst is the number of items of a burst transaction.
type Burst uint8

const (
	Burst1 Burst = iota
	Burst4
	Burst8
)

// Items returns the number of items of a burst.
func (b Burst) Items() int {
	switch b {
	case Burst4:
		return 4
	case Burst8:
		return 8
	default:
		return 1
	}
}

// Flow is the transfer flow and flow controller.
type Flow uint8

const (
	FlowM2M Flow = iota // memory to memory, DMA is the flow controller
)

// TransferType is the block chaining mode of a channel.
type TransferType uint8

const (
	SingleBlock TransferType = iota
)

// Handshaking selects how items are requested.
// With software handshaking, items are moved back to back.
type Handshaking uint8

const (
	HandshakingSoftware Handshaking = iota
	HandshakingHardware
)

// Descriptor describes a single-block transfer of a channel.
//
// The controller performs no validation of a descriptor: misconfigured
// addresses make the transfer fail on a bus fault, and a zero BlockSize
// is unsupported.
type Descriptor struct {
	Src uint32 // source address
	Dst uint32 // destination address

	SrcWidth Width
	DstWidth Width
	SrcMode  AddrMode
	DstMode  AddrMode
	SrcBurst Burst
	DstBurst Burst

	// BlockSize is the number of source items of the block.
	// A zero block size is unsupported and its behaviour is undefined.
	BlockSize uint32

	Flow         Flow
	Type         TransferType
	Priority     uint8
	SrcHandshake Handshaking
	DstHandshake Handshaking

	EnableInterrupt bool // raise the controller interrupt on enabled events
}

// Event is a set of channel events.
type Event uint32

const (
	EventTransferComplete Event = 1 << iota
	EventBlockTransferComplete
	EventSrcTransactionComplete
	EventDstTransactionComplete
	EventError
)
