/*
NAME
  format10.go

DESCRIPTION
  format10.go implements Format10Decoder, the "format 10" frame
  reconstructor: a skip map gates which blocks consume an opcode, the
  opcode map is consumed sequentially (one word per non-skipped block)
  and reconstruction happens into R0 as scratch before a final copy
  into F, per spec.md §4.5.

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

// Format10Decoder reconstructs F for one frame from a skip map, a
// decoding map and a literal bitstream, using R0 as a scratch surface
// built from the previous frame's R1.
type Format10Decoder struct {
	Buffers *FrameBuffers

	stats BlockStats
}

// NewFormat10Decoder returns a Format10Decoder writing into b.
func NewFormat10Decoder(b *FrameBuffers) *Format10Decoder {
	return &Format10Decoder{Buffers: b}
}

// Decode reconstructs F from skipMap, decodingMap and frameData (whose
// literal blocks begin at offset 14, matching format 6's header skip).
func (d *Format10Decoder) Decode(skipMap, decodingMap, frameData []byte) error {
	b := d.Buffers
	if len(frameData) < mapHeaderSize {
		return ErrTruncated
	}
	lit := newLiteralStream(frameData[mapHeaderSize:])
	skip := NewSkipStream(skipMap)
	ops := newWordStream(decodingMap)
	nBlocks := b.WidthBlocks * b.HeightBlocks

	r0, r1, f := b.R0(), b.R1(), b.F()

	d.stats = BlockStats{Total: nBlocks}

	// Pass 1: literal blocks into R0; non-literal, non-skipped blocks
	// just consume their opcode (handled in pass 2).
	for i := 0; i < nBlocks; i++ {
		skipped, err := skip.Skip()
		if err != nil {
			return err
		}
		if skipped {
			d.stats.Skipped++
			continue
		}
		op, err := ops.next()
		if err != nil {
			return err
		}
		if op == 0 {
			lb, err := lit.next()
			if err != nil {
				return err
			}
			b.copyLiteralBlock(r0, i, lb)
			d.stats.Literal++
		}
	}

	// Pass 2: re-read skip and map from the start; motion-compensate
	// non-literal blocks into R0 from R0 itself or from R1.
	skip.Reset()
	ops.reset()
	for i := 0; i < nBlocks; i++ {
		skipped, err := skip.Skip()
		if err != nil {
			return err
		}
		if skipped {
			continue
		}
		op, err := ops.next()
		if err != nil {
			return err
		}
		if op == 0 {
			continue
		}
		offset := DecodeOffset(op)
		src := r0
		if op&0x8000 != 0 {
			src = r1
		}
		b.copyBlockWithOffset(r0, src, i, offset)
		d.stats.Copied++
	}

	// Pass 3: reset skip only; copy R0 into F. Skipped blocks keep
	// whatever F already held from the previous frame.
	skip.Reset()
	for i := 0; i < nBlocks; i++ {
		skipped, err := skip.Skip()
		if err != nil {
			return err
		}
		if skipped {
			continue
		}
		b.copyBlockWithOffset(f, r0, i, 0)
	}

	b.RotateFormat10()
	return nil
}

// Stats returns block-reconstruction counts for the most recent Decode
// call, for diagnostic use (decoder.Stats).
func (d *Format10Decoder) Stats() BlockStats { return d.stats }
