/*
NAME
  pcm_test.go

DESCRIPTION
  pcm_test.go contains functions for testing the pcm package.

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pcm

import (
	"testing"
)

// TestResampleU8 tests Resample against the U8 mono format that the MVE
// audio stream always produces, downsampling by an integer factor.
func TestResampleU8(t *testing.T) {
	buf := Buffer{
		Format: BufferFormat{Channels: 1, Rate: 22050, SFormat: U8},
		Data:   []byte{0, 10, 20, 30, 40, 50, 60, 70},
	}

	resampled, err := Resample(buf, 11025)
	if err != nil {
		t.Fatalf("Resample: %v", err)
	}
	if resampled.Format.Rate != 11025 {
		t.Fatalf("Rate = %d, want 11025", resampled.Format.Rate)
	}
	if resampled.Format.SFormat != U8 {
		t.Fatalf("SFormat = %v, want U8", resampled.Format.SFormat)
	}
	want := []byte{5, 25, 45, 65}
	if len(resampled.Data) != len(want) {
		t.Fatalf("Data = %v, want %v", resampled.Data, want)
	}
	for i, v := range want {
		if resampled.Data[i] != v {
			t.Fatalf("Data[%d] = %d, want %d", i, resampled.Data[i], v)
		}
	}
}

// TestResampleSameRate checks that Resample is a no-op when the requested
// rate already matches the buffer's rate.
func TestResampleSameRate(t *testing.T) {
	buf := Buffer{Format: BufferFormat{Channels: 1, Rate: 22050, SFormat: U8}, Data: []byte{1, 2, 3}}
	got, err := Resample(buf, 22050)
	if err != nil {
		t.Fatalf("Resample: %v", err)
	}
	if string(got.Data) != string(buf.Data) {
		t.Fatalf("Data = %v, want unchanged %v", got.Data, buf.Data)
	}
}

// TestStereoToMonoU8 tests StereoToMono against an interleaved U8 stereo
// buffer, the only channel count StereoToMono has to handle beyond mono.
func TestStereoToMonoU8(t *testing.T) {
	buf := Buffer{
		Format: BufferFormat{Channels: 2, Rate: 22050, SFormat: U8},
		// Left, right, left, right...
		Data: []byte{10, 200, 20, 201, 30, 202},
	}

	mono, err := StereoToMono(buf)
	if err != nil {
		t.Fatalf("StereoToMono: %v", err)
	}
	if mono.Format.Channels != 1 {
		t.Fatalf("Channels = %d, want 1", mono.Format.Channels)
	}
	want := []byte{10, 20, 30}
	if len(mono.Data) != len(want) {
		t.Fatalf("Data = %v, want %v", mono.Data, want)
	}
	for i, v := range want {
		if mono.Data[i] != v {
			t.Fatalf("Data[%d] = %d, want %d", i, mono.Data[i], v)
		}
	}
}

// TestStereoToMonoAlreadyMono checks that StereoToMono passes mono buffers
// through unchanged, the shape AudioStream actually produces.
func TestStereoToMonoAlreadyMono(t *testing.T) {
	buf := Buffer{Format: BufferFormat{Channels: 1, Rate: 22050, SFormat: U8}, Data: []byte{1, 2, 3}}
	got, err := StereoToMono(buf)
	if err != nil {
		t.Fatalf("StereoToMono: %v", err)
	}
	if string(got.Data) != string(buf.Data) {
		t.Fatalf("Data = %v, want unchanged %v", got.Data, buf.Data)
	}
}

// TestStereoToMonoRejectsOtherChannelCounts checks the error path for
// channel counts StereoToMono does not understand.
func TestStereoToMonoRejectsOtherChannelCounts(t *testing.T) {
	buf := Buffer{Format: BufferFormat{Channels: 4, Rate: 22050, SFormat: U8}, Data: make([]byte, 8)}
	if _, err := StereoToMono(buf); err == nil {
		t.Fatal("expected error for 4-channel audio")
	}
}

// TestSampleFormatStringRoundTrip checks that every SampleFormat's string
// representation parses back to the original value via SFFromString.
func TestSampleFormatStringRoundTrip(t *testing.T) {
	for _, f := range []SampleFormat{S16_LE, S32_LE, U8} {
		got, err := SFFromString(f.String())
		if err != nil {
			t.Fatalf("SFFromString(%q): %v", f.String(), err)
		}
		if got != f {
			t.Fatalf("SFFromString(%q) = %v, want %v", f.String(), got, f)
		}
	}
}

// TestSFFromStringUnknown checks the error path for an unrecognised format name.
func TestSFFromStringUnknown(t *testing.T) {
	if _, err := SFFromString("bogus"); err == nil {
		t.Fatal("expected error for unknown sample format name")
	}
}
