/*
NAME
  format10_test.go

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

import "testing"

// TestFormat10AllSkippedLeavesFUnchanged mirrors scenario S3: an
// all-skipped map with an empty decoding map leaves F unchanged, and R0
// and R1 still swap.
func TestFormat10AllSkippedLeavesFUnchanged(t *testing.T) {
	b, err := NewFrameBuffers(2, 2)
	if err != nil {
		t.Fatal(err)
	}
	for i := range b.F() {
		b.F()[i] = byte(i + 1)
	}
	want := append([]byte(nil), b.F()...)

	r0Before, r1Before := b.R0(), b.R1()

	skipMap := []byte{0x00, 0x00} // all 16 bits clear -> all blocks skipped (nBlocks=4, fits in one word).
	d := NewFormat10Decoder(b)
	if err := d.Decode(skipMap, nil, make([]byte, mapHeaderSize)); err != nil {
		t.Fatal(err)
	}

	for i, v := range b.F() {
		if v != want[i] {
			t.Fatalf("F changed at %d: %d != %d", i, v, want[i])
		}
	}
	if &b.R0()[0] != &r1Before[0] || &b.R1()[0] != &r0Before[0] {
		t.Fatal("R0/R1 must still swap even when every block is skipped")
	}
}

func TestFormat10LiteralAndCopy(t *testing.T) {
	b, err := NewFrameBuffers(1, 2) // 2 blocks, 1 word of skip bits covers both.
	if err != nil {
		t.Fatal(err)
	}
	d := NewFormat10Decoder(b)

	lit := make([]byte, 64)
	for i := range lit {
		lit[i] = 0x42
	}
	// Both blocks not skipped (bits 0 and 1 set).
	skipMap := []byte{0x03, 0x00}
	// Block 0: literal (op 0). Block 1: copy block 0 via a -64 pixel
	// offset (one block-row up), MSB clear -> source R0.
	// offset = -64 -> op&0x7FFF = 0x4000-64 = 0x3FC0.
	decMap := []byte{0x00, 0x00, 0xC0, 0x3F}
	fd := append(make([]byte, mapHeaderSize), lit...)

	if err := d.Decode(skipMap, decMap, fd); err != nil {
		t.Fatal(err)
	}
	for i, v := range b.F() {
		if v != 0x42 {
			t.Fatalf("F[%d] = %#x, want 0x42", i, v)
		}
	}
}

func TestFormat10MapExhausted(t *testing.T) {
	b, _ := NewFrameBuffers(2, 2)
	d := NewFormat10Decoder(b)
	skipMap := []byte{0xFF, 0xFF} // every block needs an opcode.
	err := d.Decode(skipMap, nil, make([]byte, mapHeaderSize))
	if err != ErrMapExhausted {
		t.Errorf("got %v, want ErrMapExhausted", err)
	}
}
