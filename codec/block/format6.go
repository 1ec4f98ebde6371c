/*
NAME
  format6.go

DESCRIPTION
  format6.go implements Format6Decoder, the "format 6" frame
  reconstructor: an embedded per-block opcode map plus a literal
  bitstream, reconstructed directly into F using R0/R1 and F itself as
  motion-compensation sources.

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

// mapHeaderSize is the length of format 6's frame-data header, skipped
// before the embedded decoding map.
const mapHeaderSize = 14

// Format6Decoder reconstructs F for one frame from an opcode map
// embedded at offset 14 of the frame data, followed by a literal
// bitstream, per spec.md §4.4.
type Format6Decoder struct {
	Buffers *FrameBuffers

	stats BlockStats
}

// NewFormat6Decoder returns a Format6Decoder writing into b.
func NewFormat6Decoder(b *FrameBuffers) *Format6Decoder {
	return &Format6Decoder{Buffers: b}
}

// Decode reconstructs F from frameData for the given 0-based
// frameNumber (already incremented by the caller at 0x0701, per
// spec.md §4.6).
func (d *Format6Decoder) Decode(frameNumber int, frameData []byte) error {
	b := d.Buffers
	nBlocks := b.WidthBlocks * b.HeightBlocks
	mapLen := 2 * nBlocks
	if len(frameData) < mapHeaderSize+mapLen {
		return ErrTruncated
	}
	mapBytes := frameData[mapHeaderSize : mapHeaderSize+mapLen]
	lit := newLiteralStream(frameData[mapHeaderSize+mapLen:])

	b.RotateFormat6(frameNumber)

	f, r1 := b.F(), b.R1()

	d.stats = BlockStats{Total: nBlocks}

	// Pass 1: literal blocks, or a direct copy from R1 for non-literal
	// blocks once R1 holds real data.
	for i := 0; i < nBlocks; i++ {
		op := mapOp(mapBytes, i)
		switch {
		case op == 0:
			lb, err := lit.next()
			if err != nil {
				return err
			}
			b.copyLiteralBlock(f, i, lb)
			d.stats.Literal++
		case frameNumber > 1:
			b.copyBlockWithOffset(f, r1, i, 0)
		}
	}

	// Pass 2: re-read the map from the start. F has been partially
	// reconstructed by pass 1, and intra-frame copies in this pass may
	// legitimately read blocks pass 1 (or an earlier iteration of this
	// pass) already wrote -- hence strict row-major order.
	r0 := b.R0()
	for i := 0; i < nBlocks; i++ {
		op := mapOp(mapBytes, i)
		if op == 0 {
			continue
		}
		offset := DecodeOffset(op)
		if op&0x8000 != 0 {
			if frameNumber > 0 {
				b.copyBlockWithOffset(f, r0, i, offset)
				d.stats.Copied++
			}
			continue
		}
		b.copyBlockWithOffset(f, f, i, offset)
		d.stats.Copied++
	}

	return nil
}

// Stats returns block-reconstruction counts for the most recent Decode
// call, for diagnostic use (decoder.Stats).
func (d *Format6Decoder) Stats() BlockStats { return d.stats }

// mapOp reads the 16-bit little-endian opcode for block i from a
// one-word-per-block map.
func mapOp(m []byte, i int) uint16 {
	return uint16(m[2*i]) | uint16(m[2*i+1])<<8
}
