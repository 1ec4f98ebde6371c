/*
NAME
  skipstream.go

DESCRIPTION
  skipstream.go implements SkipStream, the run-length skip-map reader
  used by the format 10 decoder's three passes over the same map.

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package block

import "github.com/pkg/errors"

// ErrMapExhausted is returned when the skip map, or format 10's
// decoding map, runs out of words before the blocks that need them.
var ErrMapExhausted = errors.New("block: skip map exhausted")

// SkipStream decodes the skip map side channel into a lazy sequence of
// per-block boolean flags: a 0 bit means the block is skipped by this
// pass, a 1 bit means an opcode must be consumed for it. Bits are read
// least-significant-first from 16-bit little-endian words. The stream
// is reset between format 10's three passes over the same map.
type SkipStream struct {
	words []uint16
	word  int // index of the current word
	bit   int // index of the next bit within the current word, 0..16
}

// NewSkipStream decodes raw into a SkipStream ready to be read from the
// start.
func NewSkipStream(raw []byte) *SkipStream {
	n := len(raw) / 2
	words := make([]uint16, n)
	for i := 0; i < n; i++ {
		words[i] = uint16(raw[2*i]) | uint16(raw[2*i+1])<<8
	}
	return &SkipStream{words: words}
}

// Reset rewinds the stream to its first bit, for format 10's repeated
// passes over the same map.
func (s *SkipStream) Reset() {
	s.word = 0
	s.bit = 0
}

// Skip reports whether the next block is skipped, consuming one bit.
// It returns ErrMapExhausted if the map runs out of words.
func (s *SkipStream) Skip() (bool, error) {
	if s.bit == 16 {
		s.bit = 0
		s.word++
	}
	if s.word >= len(s.words) {
		return false, ErrMapExhausted
	}
	bit := (s.words[s.word] >> uint(s.bit)) & 1
	s.bit++
	return bit == 0, nil
}
