/*
NAME
  machine.go

DESCRIPTION
  machine.go implements PacketMachine, the packet/opcode state machine
  that demultiplexes an Interplay MVE byte stream into configuration,
  video and audio effects.

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

import (
	"errors"
	"io"
	"time"

	"github.com/ausocean/mve/codec/block"
	"github.com/ausocean/mve/codec/pcm"
	"github.com/ausocean/utils/logging"
)

// audioStreamCap is the number of PCM chunks the audio queue holds
// before Enqueue starts blocking, chosen the same way device/alsa
// sizes its ring buffer -- generous enough that a normally-paced
// consumer never sees backpressure.
const audioStreamCap = 200

// audioEnqueueTimeout bounds how long AudioFrame/AudioSilent handling
// will block waiting for the host's consumer to make room.
const audioEnqueueTimeout = 2 * time.Second

// opEvent is the outcome of processing a single opcode, used by Load
// and AdvanceFrame to decide whether to keep reading.
type opEvent int

const (
	evNone opEvent = iota
	evPacketBoundary
	evFrame
	evEnd
)

// PacketMachine demultiplexes an MVE byte stream: it reads packet and
// opcode framing, maintains configuration and frame-in-flight state,
// and drives codec/block's reconstructors on SendVideo. It is
// single-threaded and not safe for concurrent use (spec.md §5); the
// audio stream it produces is the one piece of state meant to be
// shared with another goroutine.
type PacketMachine struct {
	r   *BitSource
	log logging.Logger

	done            bool
	packetKind      uint16
	packetRemaining int

	geometry    Geometry
	rate        FrameRate
	audio       AudioParams
	audioStream *pcm.AudioStream

	frameNumber   int
	pendingFormat int // 0 (none yet), 6, or 10.
	frameData     []byte
	skipMap       []byte
	decodingMap   []byte

	buffers *block.FrameBuffers
	fmt6    *block.Format6Decoder
	fmt10   *block.Format10Decoder
}

// NewPacketMachine returns a PacketMachine ready for Load. log may be
// nil, in which case the machine logs nothing.
func NewPacketMachine(log logging.Logger) *PacketMachine {
	return &PacketMachine{log: log, frameNumber: -1}
}

// Load validates the container signature and drains packets while
// packetKind stays below KindVideo, so that by the time it returns,
// geometry, palette, timer and audio are fully configured and the
// first video packet's header has been read (spec.md §4.6).
func (m *PacketMachine) Load(r io.Reader) error {
	m.r = NewBitSource(r)

	sig, err := m.r.ReadBytes(len(signature))
	if err != nil {
		return err
	}
	if string(sig) != signature {
		return ErrInvalidSignature
	}
	for _, want := range magic {
		got, err := m.r.ReadU16LE()
		if err != nil {
			return err
		}
		if got != want {
			return ErrInvalidSignature
		}
	}

	if err := m.readPacketHeader(); err != nil {
		return err
	}
	for {
		ev, err := m.advanceOpcode()
		if err != nil {
			return err
		}
		switch ev {
		case evEnd:
			return nil
		case evPacketBoundary:
			if m.packetKind >= KindVideo {
				return nil
			}
		}
	}
}

// AdvanceFrame drains packets until a video frame has been produced or
// the stream's End opcode has been seen, in which case it returns
// ErrEndOfStream.
func (m *PacketMachine) AdvanceFrame() error {
	if m.done {
		return ErrEndOfStream
	}
	for {
		ev, err := m.advanceOpcode()
		if err != nil {
			return err
		}
		switch ev {
		case evEnd:
			return ErrEndOfStream
		case evFrame:
			return nil
		}
	}
}

// CurrentSurface returns a read-only view of the current output
// surface F. The host must not retain it across the next AdvanceFrame.
func (m *PacketMachine) CurrentSurface() []byte {
	if m.buffers == nil {
		return nil
	}
	return m.buffers.F()
}

// Palette returns the current 256-entry RGB palette.
func (m *PacketMachine) Palette() [block.PaletteSize * 3]byte {
	if m.buffers == nil {
		return [block.PaletteSize * 3]byte{}
	}
	return m.buffers.Palette
}

// PaletteDirty reports whether the palette has changed since the last
// ClearPaletteDirty call.
func (m *PacketMachine) PaletteDirty() bool {
	return m.buffers != nil && m.buffers.DirtyPalette
}

// ClearPaletteDirty clears the palette-dirty flag.
func (m *PacketMachine) ClearPaletteDirty() {
	if m.buffers != nil {
		m.buffers.DirtyPalette = false
	}
}

// FrameRate returns the most recently declared frame rate.
func (m *PacketMachine) FrameRate() FrameRate { return m.rate }

// FrameIndex returns the 0-based index of the most recently decoded
// frame, or -1 if no frame has been decoded yet (spec.md §3).
func (m *PacketMachine) FrameIndex() int { return m.frameNumber }

// Dimensions returns the current surface's pixel width and height.
func (m *PacketMachine) Dimensions() (width, height int) {
	return m.geometry.Width(), m.geometry.Height()
}

// Geometry returns the declared video geometry, including the unk
// fields preserved for diagnostic purposes (spec.md §9).
func (m *PacketMachine) Geometry() Geometry { return m.geometry }

// AudioParams returns the declared audio configuration.
func (m *PacketMachine) AudioParams() AudioParams { return m.audio }

// AudioStream returns the queue that AudioFrame/AudioSilent enqueue
// into. It is nil until InitAudio has been processed.
func (m *PacketMachine) AudioStream() *pcm.AudioStream { return m.audioStream }

// LastBlockStats returns block-reconstruction counts for the most
// recently decoded frame, for diagnostic use only.
func (m *PacketMachine) LastBlockStats() block.BlockStats {
	switch m.pendingFormat {
	case 6:
		return m.fmt6.Stats()
	case 10:
		return m.fmt10.Stats()
	default:
		return block.BlockStats{}
	}
}

// readPacketHeader reads the next (length, kind) packet header.
func (m *PacketMachine) readPacketHeader() error {
	length, err := m.r.ReadU16LE()
	if err != nil {
		return err
	}
	kind, err := m.r.ReadU16LE()
	if err != nil {
		return err
	}
	m.packetKind = kind
	m.packetRemaining = int(length)
	if m.log != nil {
		m.log.Debug("mve: packet header", "kind", kind, "length", length)
	}
	return nil
}

// readOpcode reads one (payloadLength, tag) opcode record and its
// payload in full.
func (m *PacketMachine) readOpcode() (uint16, []byte, error) {
	payloadLen, err := m.r.ReadU16LE()
	if err != nil {
		return 0, nil, err
	}
	tag, err := m.r.ReadU16BE()
	if err != nil {
		return 0, nil, err
	}
	payload, err := m.r.ReadBytes(int(payloadLen))
	if err != nil {
		return 0, nil, err
	}
	m.packetRemaining -= 4 + int(payloadLen)
	if m.log != nil {
		m.log.Debug("mve: opcode", "tag", opName(tag), "len", payloadLen)
	}
	return tag, payload, nil
}

// advanceOpcode reads and dispatches exactly one opcode.
func (m *PacketMachine) advanceOpcode() (opEvent, error) {
	tag, payload, err := m.readOpcode()
	if err != nil {
		return evNone, err
	}

	switch tag {
	case opEnd:
		m.done = true
		return evEnd, nil

	case opEndPacket:
		if err := m.readPacketHeader(); err != nil {
			return evNone, err
		}
		return evPacketBoundary, nil

	case opTimer:
		if len(payload) < 6 {
			return evNone, ErrTruncated
		}
		m.rate = FrameRate{Rate: u32le(payload[0:4]), Sub: u16le(payload[4:6])}
		return evNone, nil

	case opInitAudio:
		if len(payload) < 8 {
			return evNone, ErrTruncated
		}
		flags := u16le(payload[2:4])
		if flags&3 != 0 {
			return evNone, ErrBadConfiguration
		}
		m.audio = AudioParams{
			SampleRate: int(u16le(payload[4:6])),
			BufferLen:  int(u16le(payload[6:8])),
		}
		m.audioStream = pcm.NewAudioStream(audioStreamCap)
		return evNone, nil

	case opStartAudio:
		return evNone, nil

	case opInitVideo:
		if len(payload) < 8 {
			return evNone, ErrTruncated
		}
		wBlocks := int(u16le(payload[0:2]))
		hBlocks := int(u16le(payload[2:4]))
		if wBlocks == 0 || hBlocks == 0 {
			return evNone, ErrBadConfiguration
		}
		buffers, err := block.NewFrameBuffers(wBlocks, hBlocks)
		if err != nil {
			return evNone, ErrBadConfiguration
		}
		m.buffers = buffers
		m.fmt6 = block.NewFormat6Decoder(buffers)
		m.fmt10 = block.NewFormat10Decoder(buffers)
		m.geometry = Geometry{
			WidthBlocks:  wBlocks,
			HeightBlocks: hBlocks,
			Count:        int(u16le(payload[4:6])),
			TrueColor:    int(u16le(payload[6:8])),
		}
		return evNone, nil

	case opFrameDataV6:
		m.pendingFormat = 6
		m.frameData = payload
		return evNone, nil

	case opFrameDataV10:
		m.pendingFormat = 10
		m.frameData = payload
		return evNone, nil

	case opSendVideo:
		if len(payload) < 6 {
			return evNone, ErrTruncated
		}
		// palStart/palCount/unk here are carried in the opcode but
		// palette updates are actually applied via opPalette; these
		// are unk fields per spec.md §9, read but not interpreted.
		m.frameNumber++
		if err := m.decodeFrame(); err != nil {
			return evNone, err
		}
		return evFrame, nil

	case opAudioFrame:
		if len(payload) < 6 {
			return evNone, ErrTruncated
		}
		n := int(u16le(payload[4:6]))
		if len(payload) < 6+n {
			return evNone, ErrTruncated
		}
		if err := m.enqueueAudio(payload[6 : 6+n]); err != nil {
			return evNone, err
		}
		return evNone, nil

	case opAudioSilent:
		if len(payload) < 6 {
			return evNone, ErrTruncated
		}
		n := int(u16le(payload[4:6]))
		if err := m.enqueueAudio(make([]byte, n)); err != nil {
			return evNone, err
		}
		return evNone, nil

	case opSetMode:
		return evNone, nil

	case opPalette:
		if len(payload) < 2 {
			return evNone, ErrTruncated
		}
		start := int(payload[0])
		count := int(payload[1])
		need := 2 + 3*count
		if len(payload) < need {
			return evNone, ErrTruncated
		}
		if m.buffers == nil {
			return evNone, ErrBadConfiguration
		}
		m.buffers.SetPaletteRange(start, count, payload[2:need])
		return evNone, nil

	case opSkipMap:
		m.skipMap = payload
		return evNone, nil

	case opDecodingMap:
		m.decodingMap = payload
		return evNone, nil

	default:
		return evNone, ErrUnknownOpcode
	}
}

// decodeFrame runs the reconstructor matching the most recently
// buffered frame data's format, translating codec/block's own
// sentinels into this package's, the same way opInitVideo translates
// block.ErrBadGeometry into ErrBadConfiguration.
func (m *PacketMachine) decodeFrame() error {
	if m.buffers == nil {
		return ErrBadConfiguration
	}
	var err error
	switch m.pendingFormat {
	case 6:
		err = m.fmt6.Decode(m.frameNumber, m.frameData)
	case 10:
		err = m.fmt10.Decode(m.skipMap, m.decodingMap, m.frameData)
	default:
		return ErrBadConfiguration
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(err, block.ErrTruncated):
		return ErrTruncated
	case errors.Is(err, block.ErrMapExhausted):
		return ErrMapExhausted
	default:
		return err
	}
}

// enqueueAudio wraps data as an unsigned 8-bit mono PCM Buffer and
// queues it. Frames arriving before InitAudio are silently dropped --
// a conforming stream never produces them.
func (m *PacketMachine) enqueueAudio(data []byte) error {
	if m.audioStream == nil {
		return nil
	}
	buf := pcm.Buffer{
		Format: pcm.BufferFormat{SFormat: pcm.U8, Rate: uint(m.audio.SampleRate), Channels: 1},
		Data:   data,
	}
	return m.audioStream.Enqueue(buf, audioEnqueueTimeout)
}

func u16le(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}

func u32le(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
