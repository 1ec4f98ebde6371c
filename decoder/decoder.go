/*
NAME
  decoder.go

DESCRIPTION
  decoder.go provides Decoder, a façade over container/mve.PacketMachine
  that presents the host-facing surface described by spec.md §6: load,
  advance-frame, surface/palette/rate/audio accessors.

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package decoder wires container/mve and codec/block together behind
// a single type, and adds diagnostics that the core packet machine
// deliberately has no opinion on.
package decoder

import (
	"io"

	"github.com/ausocean/mve/codec/block"
	"github.com/ausocean/mve/codec/pcm"
	"github.com/ausocean/mve/container/mve"
	"github.com/ausocean/utils/logging"
)

// Decoder drives an Interplay MVE byte stream one frame at a time. It
// is not safe for concurrent use, except for the AudioStream it
// exposes, which is a producer/consumer queue by design (spec.md §5).
type Decoder struct {
	m     *mve.PacketMachine
	stats Stats
}

// New returns a Decoder. log may be nil.
func New(log logging.Logger) *Decoder {
	return &Decoder{m: mve.NewPacketMachine(log)}
}

// Load validates the container signature and drains configuration
// packets, per spec.md §4.6/§6.
func (d *Decoder) Load(r io.Reader) error {
	return d.m.Load(r)
}

// AdvanceFrame decodes the next video frame, or returns
// mve.ErrEndOfStream once the stream's End opcode has been seen.
func (d *Decoder) AdvanceFrame() error {
	err := d.m.AdvanceFrame()
	if err == nil {
		d.stats.record(d.m.LastBlockStats())
	}
	return err
}

// CurrentSurface returns a read-only view of the current output
// surface. Valid only until the next AdvanceFrame call.
func (d *Decoder) CurrentSurface() []byte { return d.m.CurrentSurface() }

// Palette returns the current 256-entry RGB palette.
func (d *Decoder) Palette() [block.PaletteSize * 3]byte { return d.m.Palette() }

// PaletteDirty reports whether the palette has changed since the last
// ClearPaletteDirty call.
func (d *Decoder) PaletteDirty() bool { return d.m.PaletteDirty() }

// ClearPaletteDirty clears the palette-dirty flag.
func (d *Decoder) ClearPaletteDirty() { d.m.ClearPaletteDirty() }

// FrameRate returns the declared frame rate.
func (d *Decoder) FrameRate() mve.FrameRate { return d.m.FrameRate() }

// FrameIndex returns the 0-based index of the most recently decoded
// frame, or -1 if no frame has been decoded yet.
func (d *Decoder) FrameIndex() int { return d.m.FrameIndex() }

// Dimensions returns the current surface's pixel width and height.
func (d *Decoder) Dimensions() (width, height int) { return d.m.Dimensions() }

// AudioStream returns the queue that decoded audio is enqueued into.
// It is nil until the stream's InitAudio opcode has been processed.
func (d *Decoder) AudioStream() *pcm.AudioStream { return d.m.AudioStream() }

// AudioParams returns the declared audio configuration.
func (d *Decoder) AudioParams() mve.AudioParams { return d.m.AudioParams() }

// Stats returns a snapshot of decode diagnostics.
func (d *Decoder) Stats() Stats { return d.stats }
