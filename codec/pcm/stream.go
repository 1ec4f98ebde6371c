/*
NAME
  stream.go

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pcm

import (
	"time"

	"github.com/pkg/errors"
)

// ErrStreamTimeout is returned by AudioStream.Dequeue when no Buffer
// becomes available within the given timeout.
var ErrStreamTimeout = errors.New("pcm: audio stream timeout")

// ErrStreamClosed is returned by AudioStream.Enqueue and Dequeue once
// the stream has been closed.
var ErrStreamClosed = errors.New("pcm: audio stream closed")

// AudioStream is a concurrency safe queue of PCM Buffers. A producer
// decoding a container enqueues Buffers as they are demultiplexed; a
// consumer (a mixer, a WAV writer, an ALSA sink) dequeues them on its
// own schedule. Overwrite/dropping behaviour is absent; Enqueue blocks
// until there is room or the timeout elapses.
type AudioStream struct {
	ch     chan Buffer
	closed chan struct{}
}

// NewAudioStream returns an AudioStream with room for cap queued
// Buffers before Enqueue starts blocking.
func NewAudioStream(cap int) *AudioStream {
	return &AudioStream{
		ch:     make(chan Buffer, cap),
		closed: make(chan struct{}),
	}
}

// Enqueue adds b to the stream, blocking until space is available, the
// timeout elapses, or the stream is closed.
func (s *AudioStream) Enqueue(b Buffer, timeout time.Duration) error {
	select {
	case <-s.closed:
		return ErrStreamClosed
	default:
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case s.ch <- b:
		return nil
	case <-t.C:
		return ErrStreamTimeout
	case <-s.closed:
		return ErrStreamClosed
	}
}

// Dequeue removes and returns the next Buffer in the stream, blocking
// until one is available, the timeout elapses, or the stream is
// closed and drained.
func (s *AudioStream) Dequeue(timeout time.Duration) (Buffer, error) {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case b := <-s.ch:
		return b, nil
	case <-t.C:
		return Buffer{}, ErrStreamTimeout
	case <-s.closed:
		select {
		case b := <-s.ch:
			return b, nil
		default:
			return Buffer{}, ErrStreamClosed
		}
	}
}

// Len returns the number of Buffers currently queued.
func (s *AudioStream) Len() int { return len(s.ch) }

// Close marks the stream closed. Buffers already queued can still be
// drained with Dequeue; further Enqueue calls fail.
func (s *AudioStream) Close() error {
	select {
	case <-s.closed:
		return ErrStreamClosed
	default:
		close(s.closed)
		return nil
	}
}
