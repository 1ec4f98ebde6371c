/*
NAME
  literal.go

DESCRIPTION
  literal.go provides small sequential cursors over the literal-block
  bitstream and the format 10 decoding map, both of which are consumed
  linearly rather than indexed.

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

// ErrTruncated is returned when a literal block is requested but
// insufficient bytes remain, or when format 6's frame data is too short
// to hold its embedded decoding map.
var ErrTruncated = errors.New("block: truncated frame data")

// literalStream is a sequential cursor over embedded literal 8x8 blocks
// (64 bytes each).
type literalStream struct {
	data []byte
	off  int
}

func newLiteralStream(data []byte) *literalStream {
	return &literalStream{data: data}
}

// next returns the next literal block's 64 bytes.
func (l *literalStream) next() ([]byte, error) {
	const n = BlockSize * BlockSize
	if l.off+n > len(l.data) {
		return nil, ErrTruncated
	}
	b := l.data[l.off : l.off+n]
	l.off += n
	return b, nil
}

// wordStream is a sequential cursor over 16-bit little-endian words,
// used by format 10's decoding map, which holds one word per
// non-skipped block rather than one per block.
type wordStream struct {
	data []byte
	off  int
}

func newWordStream(data []byte) *wordStream {
	return &wordStream{data: data}
}

// reset rewinds the cursor, for format 10's second pass over the map.
func (w *wordStream) reset() { w.off = 0 }

// next returns the next 16-bit little-endian word.
func (w *wordStream) next() (uint16, error) {
	if w.off+2 > len(w.data) {
		return 0, ErrMapExhausted
	}
	v := uint16(w.data[w.off]) | uint16(w.data[w.off+1])<<8
	w.off += 2
	return v, nil
}
