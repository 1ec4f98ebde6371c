/*
NAME
  audio.go

DESCRIPTION
  audio.go converts a dequeued pcm.Buffer into a go-audio/audio
  IntBuffer, the shape consumers like go-audio/wav's Encoder expect.

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package decoder

import (
	"fmt"

	"github.com/go-audio/audio"

	"github.com/ausocean/mve/codec/pcm"
)

// IntBuffer converts b, which must be an unsigned 8-bit mono Buffer
// (the only format MVE audio ever produces), into a go-audio/audio
// IntBuffer with samples widened to the library's signed int
// representation.
func IntBuffer(b pcm.Buffer) (*audio.IntBuffer, error) {
	if b.Format.SFormat != pcm.U8 {
		return nil, fmt.Errorf("decoder: unsupported sample format %v", b.Format.SFormat)
	}
	data := make([]int, len(b.Data))
	for i, s := range b.Data {
		data[i] = int(s)
	}
	return &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: int(b.Format.Channels),
			SampleRate:  int(b.Format.Rate),
		},
		Data:           data,
		SourceBitDepth: 8,
	}, nil
}
