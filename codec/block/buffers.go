/*
NAME
  buffers.go

DESCRIPTION
  buffers.go implements FrameBuffers, the triple-buffer (F, R0, R1)
  reconstruction state shared by the format 6 and format 10 decoders,
  along with the block-aligned copy primitives they're built from.

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package block implements the Interplay MVE block-wise motion
// compensation codec: a triple-buffer of paletted 8-bit surfaces and the
// two frame reconstructors ("format 6" and "format 10") that rebuild one
// of them per frame from an opcode map, a literal-block bitstream and
// (format 10 only) a skip map.
package block

import "github.com/pkg/errors"

// BlockSize is the side length, in pixels, of a reconstruction block.
const BlockSize = 8

// PaletteSize is the number of RGB entries in an MVE palette.
const PaletteSize = 256

// ErrBadGeometry is returned by NewFrameBuffers for zero dimensions.
var ErrBadGeometry = errors.New("block: geometry must be non-zero")

// FrameBuffers owns three identically-sized paletted 8-bit surfaces --
// the current output F, the nearest reference R0 and the older
// reference R1 -- plus the active 256-entry RGB palette. Surfaces are
// stably allocated once; frame-to-frame rotation is done by permuting
// indices into a backing array rather than copying pixels, except where
// format 6's semantics require F's current content to be duplicated
// into R0 (see RotateFormat6).
type FrameBuffers struct {
	WidthBlocks  int
	HeightBlocks int
	Width        int
	Height       int

	pix          [3][]byte
	fIdx         int
	r0Idx        int
	r1Idx        int
	Palette      [PaletteSize * 3]byte
	DirtyPalette bool
}

// NewFrameBuffers allocates three zero-filled surfaces of
// widthBlocks*8 x heightBlocks*8 pixels.
func NewFrameBuffers(widthBlocks, heightBlocks int) (*FrameBuffers, error) {
	if widthBlocks <= 0 || heightBlocks <= 0 {
		return nil, ErrBadGeometry
	}
	w, h := widthBlocks*8, heightBlocks*8
	b := &FrameBuffers{
		WidthBlocks:  widthBlocks,
		HeightBlocks: heightBlocks,
		Width:        w,
		Height:       h,
		fIdx:         0,
		r0Idx:        1,
		r1Idx:        2,
	}
	for i := range b.pix {
		b.pix[i] = make([]byte, w*h)
	}
	return b, nil
}

// F returns the current output surface.
func (b *FrameBuffers) F() []byte { return b.pix[b.fIdx] }

// R0 returns the nearest reference surface.
func (b *FrameBuffers) R0() []byte { return b.pix[b.r0Idx] }

// R1 returns the older reference surface.
func (b *FrameBuffers) R1() []byte { return b.pix[b.r1Idx] }

// RotateFormat6 applies format 6's pre-decode rotation (spec.md §4.4):
// if frameNumber > 1, R1 becomes the previous R0; if frameNumber > 0,
// R0 becomes a snapshot of F's current content. The R1 rename is a pure
// index swap (no pixel copy); the R0 update does require a real copy,
// since F keeps mutating in place this frame while R0 must stay frozen.
func (b *FrameBuffers) RotateFormat6(frameNumber int) {
	if frameNumber > 1 {
		b.r0Idx, b.r1Idx = b.r1Idx, b.r0Idx
	}
	if frameNumber > 0 {
		copy(b.pix[b.r0Idx], b.pix[b.fIdx])
	}
}

// RotateFormat10 applies format 10's post-decode rotation (spec.md
// §4.5): R0 and R1 swap. Both surfaces are frozen snapshots by this
// point in the frame, so the swap is a pure index rename.
func (b *FrameBuffers) RotateFormat10() {
	b.r0Idx, b.r1Idx = b.r1Idx, b.r0Idx
}

// blockAnchor returns the top-left pixel coordinate of block index idx
// in row-major block order.
func (b *FrameBuffers) blockAnchor(idx int) (x, y int) {
	bx := idx % b.WidthBlocks
	by := idx / b.WidthBlocks
	return bx * BlockSize, by * BlockSize
}

// copyLiteralBlock writes an 8x8 block of raw pixels from lit (exactly
// BlockSize*BlockSize bytes, row-major) into dst at block idx.
func (b *FrameBuffers) copyLiteralBlock(dst []byte, idx int, lit []byte) {
	x, y := b.blockAnchor(idx)
	for row := 0; row < BlockSize; row++ {
		srcRow := lit[row*BlockSize : row*BlockSize+BlockSize]
		di := (y+row)*b.Width + x
		copy(dst[di:di+BlockSize], srcRow)
	}
}

// floorDivMod returns the floor division and non-negative modulus of
// a/m, for m > 0.
func floorDivMod(a, m int) (q, r int) {
	q = a / m
	r = a % m
	if r < 0 {
		q--
		r += m
	}
	return q, r
}

// copyBlockWithOffset copies the 8x8 block at idx in src, displaced by
// the signed planar pixel offset, into dst at block idx. The source
// top-left is the pixel whose row-major address is the block anchor's
// address plus offset, so negative offsets reach earlier pixels. src and
// dst may be the same surface (used for format 6's intra-frame copies);
// row-by-row copy is used, which Go's copy builtin performs
// memmove-style, safe under overlap.
//
// Source anchors whose 8x8 block would not lie wholly inside the surface
// (never produced by well-formed streams, per spec.md §4.3) are clamped
// so the block does, so decoding can never read or write out of bounds.
func (b *FrameBuffers) copyBlockWithOffset(dst, src []byte, idx, offset int) {
	x, y := b.blockAnchor(idx)
	sy, sx := floorDivMod(y*b.Width+x+offset, b.Width)

	if sx < 0 {
		sx = 0
	} else if sx > b.Width-BlockSize {
		sx = b.Width - BlockSize
	}
	if sy < 0 {
		sy = 0
	} else if sy > b.Height-BlockSize {
		sy = b.Height - BlockSize
	}

	for row := 0; row < BlockSize; row++ {
		si := (sy+row)*b.Width + sx
		di := (y+row)*b.Width + x
		copy(dst[di:di+BlockSize], src[si:si+BlockSize])
	}
}

// DecodeOffset decodes a 15-bit biased signed offset from an opcode's
// low 15 bits, per spec.md §4.4/§8 property 6: op=0x4000 -> 0,
// op=0x0000 -> -16384, op=0x7FFF -> +16383.
func DecodeOffset(op uint16) int {
	return int(op&0x7FFF) - 0x4000
}

// expand6 expands a 6-bit colour channel to 8 bits: c' = (c<<2) | c.
func expand6(c byte) byte {
	return c<<2 | c
}

// BlockStats summarizes how a single frame's blocks were reconstructed,
// for diagnostic use only -- never consulted by decoding itself.
type BlockStats struct {
	Total   int
	Skipped int // format 10 only; always 0 for format 6.
	Literal int
	Copied  int
}

// SetPaletteRange writes count RGB triples (each channel a 6-bit value
// to be expanded) starting at palette slot start, per spec.md §3/§4.6
// opcode 0x0C. It sets DirtyPalette.
func (b *FrameBuffers) SetPaletteRange(start, count int, rgb []byte) {
	for i := 0; i < count; i++ {
		slot := (start + i) * 3
		if slot+3 > len(b.Palette) {
			break
		}
		b.Palette[slot+0] = expand6(rgb[i*3+0])
		b.Palette[slot+1] = expand6(rgb[i*3+1])
		b.Palette[slot+2] = expand6(rgb[i*3+2])
	}
	b.DirtyPalette = true
}
