/*
NAME
  opcode.go

DESCRIPTION
  opcode.go defines the packet header, opcode record framing and the
  opcode tag table that PacketMachine dispatches on.

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package mve

// Packet kinds, read from the packet header. Load uses them only to stop
// draining at the first packet of kind KindVideo or above; otherwise the
// opcode stream inside a packet, not its declared kind, is what drives
// PacketMachine.
const (
	KindAudio       = 0
	KindAudioSilent = 1
	KindInit        = 2
	KindVideo       = 3
	KindAudioEnd    = 4
	KindEnd         = 5
)

// Opcode tags, big-endian on the wire (spec.md §4.6).
const (
	opEnd          = 0x0000
	opEndPacket    = 0x0100
	opTimer        = 0x0200
	opInitAudio    = 0x0300
	opStartAudio   = 0x0400
	opInitVideo    = 0x0502
	opFrameDataV6  = 0x0600
	opSendVideo    = 0x0701
	opAudioFrame   = 0x0800
	opAudioSilent  = 0x0900
	opSetMode      = 0x0A00
	opPalette      = 0x0C00
	opSkipMap      = 0x0E00
	opDecodingMap  = 0x0F00
	opFrameDataV10 = 0x1000
)

// opName returns a human-readable name for a tag, for logging; unknown
// tags return "unknown".
func opName(tag uint16) string {
	switch tag {
	case opEnd:
		return "End"
	case opEndPacket:
		return "EndPacket"
	case opTimer:
		return "Timer"
	case opInitAudio:
		return "InitAudio"
	case opStartAudio:
		return "StartAudio"
	case opInitVideo:
		return "InitVideo"
	case opFrameDataV6:
		return "FrameDataV6"
	case opSendVideo:
		return "SendVideo"
	case opAudioFrame:
		return "AudioFrame"
	case opAudioSilent:
		return "AudioSilent"
	case opSetMode:
		return "SetMode"
	case opPalette:
		return "Palette"
	case opSkipMap:
		return "SkipMap"
	case opDecodingMap:
		return "DecodingMap"
	case opFrameDataV10:
		return "FrameDataV10"
	default:
		return "unknown"
	}
}

// packetHeader is (length, kind), both little-endian 16-bit.
type packetHeader struct {
	length uint16
	kind   uint16
}
