/*
NAME
  bitsource.go

DESCRIPTION
  bitsource.go provides BitSource, a thin buffered view over an
  externally owned byte source, used to read the container's
  little-endian and big-endian fields.

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
	"io"

	"github.com/pkg/errors"
)

// BitSource is a buffered, forward-only reader over a byte stream. It
// never seeks; the underlying io.Reader is consumed strictly in order.
// BitSource does not own the underlying reader.
type BitSource struct {
	r   io.Reader
	buf []byte
	off int
}

// NewBitSource returns a BitSource reading from r.
func NewBitSource(r io.Reader) *BitSource {
	return &BitSource{r: r, buf: make([]byte, 0, 4096)}
}

// reload refills the internal buffer from the underlying reader.
func (s *BitSource) reload() error {
	buf := s.buf[:cap(s.buf)]
	n, err := s.r.Read(buf)
	s.buf = buf[:n]
	s.off = 0
	if n > 0 {
		return nil
	}
	if err == nil || err == io.EOF {
		return io.EOF
	}
	return err
}

// readByte returns the next byte from the source.
func (s *BitSource) readByte() (byte, error) {
	for s.off >= len(s.buf) {
		if err := s.reload(); err != nil {
			return 0, err
		}
	}
	b := s.buf[s.off]
	s.off++
	return b, nil
}

// ReadBytes reads n raw bytes verbatim.
func (s *BitSource) ReadBytes(n int) ([]byte, error) {
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		b, err := s.readByte()
		if err != nil {
			return nil, errors.Wrap(ErrTruncated, err.Error())
		}
		out[i] = b
	}
	return out, nil
}

// Skip discards n bytes.
func (s *BitSource) Skip(n int) error {
	for i := 0; i < n; i++ {
		if _, err := s.readByte(); err != nil {
			return errors.Wrap(ErrTruncated, err.Error())
		}
	}
	return nil
}

// ReadU16LE reads a little-endian 16-bit unsigned integer.
func (s *BitSource) ReadU16LE() (uint16, error) {
	b, err := s.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0]) | uint16(b[1])<<8, nil
}

// ReadU16BE reads a big-endian 16-bit unsigned integer. Used exclusively
// for opcode tags -- every other multi-byte field in the container is
// little-endian (spec.md §4.6/§9).
func (s *BitSource) ReadU16BE() (uint16, error) {
	b, err := s.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0])<<8 | uint16(b[1]), nil
}

// ReadU32LE reads a little-endian 32-bit unsigned integer.
func (s *BitSource) ReadU32LE() (uint32, error) {
	b, err := s.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, nil
}
