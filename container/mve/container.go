/*
NAME
  container.go

DESCRIPTION
  container.go defines the Interplay MVE container signature, header and
  the typed errors that the rest of the package surfaces to callers.

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package mve provides a reader for the Interplay MVE multimedia
// container: signature/header validation and the packet/opcode state
// machine that demultiplexes configuration, video and audio data.
package mve

import "github.com/pkg/errors"

// signature is the literal ASCII preamble of every MVE file, including
// its trailing SUB byte.
const signature = "Interplay MVE File\x1a"

// magic words follow the signature, each a little-endian 16-bit value.
var magic = [3]uint16{0x001A, 0x0100, 0x1133}

// HeaderSize is the number of bytes occupied by signature + magic words.
const HeaderSize = len(signature) + 2*3

// Errors returned by Load and AdvanceFrame. They correspond one-to-one with
// the taxonomy in spec.md.
var (
	// ErrInvalidSignature is returned when a source does not begin with
	// the MVE signature and magic words.
	ErrInvalidSignature = errors.New("mve: invalid signature")

	// ErrTruncated is returned when the source ends before a declared
	// payload or field has been fully read.
	ErrTruncated = errors.New("mve: truncated stream")

	// ErrUnknownOpcode is returned when an opcode tag isn't in the table.
	ErrUnknownOpcode = errors.New("mve: unknown opcode")

	// ErrBadConfiguration is returned for unsupported audio formats or
	// zero video geometry.
	ErrBadConfiguration = errors.New("mve: bad configuration")

	// ErrMapExhausted is returned when a skip or decoding map runs out
	// before the block count it is meant to cover.
	ErrMapExhausted = errors.New("mve: skip/decoding map exhausted")

	// ErrEndOfStream is returned by AdvanceFrame once the terminal opcode has
	// been seen and no further frames can be produced.
	ErrEndOfStream = errors.New("mve: end of stream")
)

// Geometry describes video dimensions declared by opcode 0x0502. Width
// and Height are in blocks; pixel dimensions are 8x that. Count and
// TrueColor are carried verbatim for diagnostic purposes only -- real
// MVE content never sets TrueColor and the decoder never reads it.
type Geometry struct {
	WidthBlocks  int
	HeightBlocks int
	Count        int // unk field from 0x0502, preserved but unused.
	TrueColor    int // unk field from 0x0502, preserved but unused.
}

// Width returns the geometry's pixel width.
func (g Geometry) Width() int { return g.WidthBlocks * 8 }

// Height returns the geometry's pixel height.
func (g Geometry) Height() int { return g.HeightBlocks * 8 }

// AudioParams describes the audio configuration declared by opcode
// 0x0300. MVE audio is always unsigned 8-bit mono; flags requesting
// anything else are rejected with ErrBadConfiguration (spec.md non-goal).
type AudioParams struct {
	SampleRate int
	BufferLen  int
}

// FrameRate is the rational frame period 1e6 / (Rate * Subdivision),
// expressed in microseconds per frame, as declared by opcode 0x0200.
type FrameRate struct {
	Rate uint32
	Sub  uint16
}

// Micros returns the frame period in microseconds.
func (f FrameRate) Micros() float64 {
	if f.Rate == 0 || f.Sub == 0 {
		return 0
	}
	return 1e6 / (float64(f.Rate) * float64(f.Sub))
}
