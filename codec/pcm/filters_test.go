/*
NAME
  filters_test.go

DESCRIPTION
  filters_test.go contains functions for testing functions in filters.go.

AUTHOR
  David Sutton <davidsutton@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pcm

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/mjibson/go-dsp/fft"
)

// Set constant values for testing.
const (
	sampleRate   = 44100
	filterLength = 500
	freqTest     = 1000
)

// TestLowPass is used to test the lowpass constructor and application, by
// checking the frequency response of the filtered signal against its cutoff.
func TestLowPass(t *testing.T) {
	genAudio, err := generate()
	if err != nil {
		t.Fatal(err)
	}
	var buf = Buffer{Data: genAudio, Format: BufferFormat{SFormat: S16_LE, Rate: sampleRate, Channels: 1}}

	// Create a lowpass filter to test.
	const fc = 4500.0
	lp, err := NewLowPass(fc, buf.Format, filterLength)
	if err != nil {
		t.Fatal(err)
	}

	// Filter the audio.
	filteredAudio, err := lp.Apply(buf)
	if err != nil {
		t.Fatal(err)
	}

	// Take the FFT of the signal.
	filteredFloats, err := bytesToFloats(filteredAudio)
	if err != nil {
		t.Fatal(err)
	}
	filteredFFT := fft.FFTReal(filteredFloats)

	// Check if the lowpass filter worked (any high values in filteredFFT above cutoff freq result in fail).
	for i := int(fc); i < sampleRate/2; i++ {
		mag := math.Pow(cmplx.Abs(filteredFFT[i]), 2)
		if mag > freqTest {
			t.Error("Lowpass filter failed to meet spec.")
			break
		}
	}
}

// TestHighPass is used to test the highpass constructor and application, by
// checking the frequency response of the filtered signal against its cutoff.
func TestHighPass(t *testing.T) {
	genAudio, err := generate()
	if err != nil {
		t.Fatal(err)
	}
	var buf = Buffer{Data: genAudio, Format: BufferFormat{SFormat: S16_LE, Rate: sampleRate, Channels: 1}}

	// Create a highpass filter to test.
	const fc = 4500.0
	hp, err := NewHighPass(fc, buf.Format, filterLength)
	if err != nil {
		t.Fatal(err)
	}

	// Filter the audio.
	filteredAudio, err := hp.Apply(buf)
	if err != nil {
		t.Fatal(err)
	}

	// Take the FFT of signal.
	filteredFloats, err := bytesToFloats(filteredAudio)
	if err != nil {
		t.Fatal(err)
	}
	filteredFFT := fft.FFTReal(filteredFloats)

	// Check if the highpass filter worked (any high values in filteredFFT below cutoff freq result in fail).
	for i := 0; i < int(fc); i++ {
		mag := math.Pow(cmplx.Abs(filteredFFT[i]), 2)
		if mag > freqTest {
			t.Error("Highpass Filter doesn't meet Spec", i)
		}
	}
}

// TestBandPass is used to test the bandpass constructor and application, by
// checking the frequency response of the filtered signal against its cutoffs.
func TestBandPass(t *testing.T) {
	genAudio, err := generate()
	if err != nil {
		t.Fatal(err)
	}
	var buf = Buffer{Data: genAudio, Format: BufferFormat{SFormat: S16_LE, Rate: sampleRate, Channels: 1}}

	// Create a bandpass filter to test.
	const (
		fc_l = 4500.0
		fc_u = 9500.0
	)
	hp, err := NewBandPass(fc_l, fc_u, buf.Format, filterLength)
	if err != nil {
		t.Fatal(err)
	}

	// Filter audio with filter.
	filteredAudio, err := hp.Apply(buf)
	if err != nil {
		t.Fatal(err)
	}

	// Take FFT of signal.
	filteredFloats, err := bytesToFloats(filteredAudio)
	if err != nil {
		t.Fatal(err)
	}
	filteredFFT := fft.FFTReal(filteredFloats)

	// Check if the bandpass filter worked (any high values in filteredFFT above cutoff or below cutoff freq result in fail).
	for i := 0; i < int(fc_l); i++ {
		mag := math.Pow(cmplx.Abs(filteredFFT[i]), 2)
		if mag > freqTest {
			t.Error("Bandpass Filter doesn't meet Spec", i)
		}
	}

	for i := int(fc_u); i < sampleRate/2; i++ {
		mag := math.Pow(cmplx.Abs(filteredFFT[i]), 2)
		if mag > freqTest {
			t.Error("Bandpass Filter doesn't meet Spec", i)
		}
	}
}

// TestBandStop is used to test the bandstop constructor and application, by
// checking the frequency response of the filtered signal against its cutoffs.
func TestBandStop(t *testing.T) {
	genAudio, err := generate()
	if err != nil {
		t.Fatal(err)
	}
	var buf = Buffer{Data: genAudio, Format: BufferFormat{SFormat: S16_LE, Rate: sampleRate, Channels: 1}}

	// Create a bandstop filter to test.
	const (
		fc_l = 4500.0
		fc_u = 9500.0
	)
	bs, err := NewBandStop(fc_l, fc_u, buf.Format, filterLength)
	if err != nil {
		t.Fatal(err)
	}

	// Filter audio with filter.
	filteredAudio, err := bs.Apply(buf)
	if err != nil {
		t.Fatal(err)
	}

	// Take FFT of signal.
	filteredFloats, err := bytesToFloats(filteredAudio)
	if err != nil {
		t.Fatal(err)
	}
	filteredFFT := fft.FFTReal(filteredFloats)

	// Check if the bandstop filter worked (any high values in filteredFFT between the cutoffs result in fail).
	for i := int(fc_l); i < int(fc_u); i++ {
		mag := math.Pow(cmplx.Abs(filteredFFT[i]), 2)
		if mag > freqTest {
			t.Error("BandStop Filter doesn't meet Spec", i)
		}
	}
}

// TestAmplifier is used to test the amplifier constructor and application,
// by checking the ratio between the maximum sample magnitude before and
// after application matches the requested factor.
func TestAmplifier(t *testing.T) {
	lowSine, err := genSine(0.1, 1000)
	if err != nil {
		t.Fatal(err)
	}
	var buf = Buffer{Data: lowSine, Format: BufferFormat{SFormat: S16_LE, Rate: sampleRate, Channels: 1}}

	// Create an amplifier filter.
	const factor = 5.0
	amp := NewAmplifier(factor)

	// Apply the amplifier to the audio.
	filteredAudio, err := amp.Apply(buf)
	if err != nil {
		t.Fatal(err)
	}

	// Find the maximum sample before and after amplification.
	dataFloats, err := bytesToFloats(buf.Data)
	if err != nil {
		t.Fatal(err)
	}
	preMax := max(dataFloats)
	filteredFloats, err := bytesToFloats(filteredAudio)
	if err != nil {
		t.Fatal(err)
	}
	postMax := max(filteredFloats)

	// Compare the values.
	if preMax*factor > 1 && postMax > 0.99 {
	} else if postMax/preMax > 1.01*factor || postMax/preMax < 0.99*factor {
		t.Error("Amplifier failed to meet spec, expected:", factor, " got:", postMax/preMax)
	}
}

// generate returns a byte slice in the same format that would be read from a PCM file.
// The function generates a sound with a range of frequencies for testing against,
// with a length of 1 second.
func generate() ([]byte, error) {
	// Create an slice to generate values across.
	t := make([]float64, sampleRate)
	s := make([]float64, sampleRate)
	// Define spacing of generated frequencies.
	const (
		deltaFreq = 1000
		maxFreq   = 21000
		amplitude = float64(deltaFreq) / float64((maxFreq - deltaFreq))
	)
	for n := 0; n < sampleRate; n++ {
		t[n] = float64(n) / float64(sampleRate)
		// Generate sinewaves of different frequencies.
		s[n] = 0
		for f := deltaFreq; f < maxFreq; f += deltaFreq {
			s[n] += amplitude * math.Sin(float64(f)*2*math.Pi*t[n])
		}
	}
	// Return the spectrum as bytes (PCM).
	bytesOut, err := floatsToBytes(s)
	if err != nil {
		return nil, err
	}
	return bytesOut, nil
}

// genSine returns one second of a single sinewave at freq Hz scaled to
// amplitude (0 to 1), encoded as S16_LE PCM bytes.
func genSine(amplitude, freq float64) ([]byte, error) {
	s := make([]float64, sampleRate)
	for n := range s {
		s[n] = amplitude * math.Sin(freq*2*math.Pi*float64(n)/float64(sampleRate))
	}
	return floatsToBytes(s)
}

// max takes a float slice and returns the absolute largest value in the slice.
func max(a []float64) float64 {
	var runMax float64 = -1
	for i := range a {
		if math.Abs(a[i]) > runMax {
			runMax = math.Abs(a[i])
		}
	}
	return runMax
}
