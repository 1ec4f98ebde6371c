/*
DESCRIPTION
  mveview is an interactive viewer for Interplay MVE files: it renders
  decoded frames to a window and plays the decoded audio track through
  a real ALSA device, in real time according to the stream's declared
  frame rate.

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package mveview is an interactive viewer for Interplay MVE files.
package main

import (
	"errors"
	"flag"
	"os"
	"time"

	yalsa "github.com/yobert/alsa"
	"gocv.io/x/gocv"

	"github.com/ausocean/mve/codec/pcm"
	"github.com/ausocean/mve/container/mve"
	"github.com/ausocean/mve/decoder"
	"github.com/ausocean/utils/logging"
)

// errNoPlaybackDevice is returned by newALSAPlayback when no card
// offers an ALSA PCM playback device.
var errNoPlaybackDevice = errors.New("mveview: no ALSA playback device found")

const pkg = "mveview: "

// escKey is the key code gocv's WaitKey returns for the escape key,
// used to quit the viewer early.
const escKey = 27

func main() {
	path := flag.String("in", "", "path to an .mve file")
	mute := flag.Bool("mute", false, "don't open an ALSA playback device")
	verbose := flag.Bool("verbose", false, "log at debug level")
	flag.Parse()

	if *path == "" {
		os.Stderr.WriteString(pkg + "usage: mveview -in FILE\n")
		os.Exit(2)
	}

	verbosity := logging.Info
	if *verbose {
		verbosity = logging.Debug
	}
	log := logging.New(verbosity, os.Stderr, false)

	f, err := os.Open(*path)
	if err != nil {
		log.Fatal(pkg+"could not open file", "error", err.Error())
	}
	defer f.Close()

	d := decoder.New(log)
	if err := d.Load(f); err != nil {
		log.Fatal(pkg+"could not load container", "error", err.Error())
	}

	var speaker *alsaPlayback
	if !*mute && d.AudioStream() != nil {
		speaker, err = newALSAPlayback(d.AudioParams(), log)
		if err != nil {
			log.Warning(pkg+"could not open ALSA playback device, continuing muted", "error", err.Error())
			speaker = nil
		} else {
			defer speaker.Close()
			go speaker.run(d.AudioStream(), log)
		}
	}

	window := gocv.NewWindow("mveview")
	defer window.Close()

	frameDelay := time.Duration(d.FrameRate().Micros()) * time.Microsecond
	if frameDelay <= 0 {
		frameDelay = 40 * time.Millisecond
	}

	for {
		err := d.AdvanceFrame()
		if err == mve.ErrEndOfStream {
			break
		}
		if err != nil {
			log.Error(pkg+"decode failed", "error", err.Error())
			break
		}

		mat, err := toBGRMat(d)
		if err != nil {
			log.Error(pkg+"could not build frame", "error", err.Error())
			continue
		}
		window.IMShow(mat)
		mat.Close()
		d.ClearPaletteDirty()

		if window.WaitKey(int(frameDelay.Milliseconds())) == escKey {
			break
		}
	}
	log.Info(pkg+"viewing finished", "frames", d.Stats().Frames)
}

// toBGRMat expands d's current paletted surface into a BGR gocv.Mat
// suitable for IMShow, using the active palette.
func toBGRMat(d *decoder.Decoder) (gocv.Mat, error) {
	w, h := d.Dimensions()
	surf := d.CurrentSurface()
	pal := d.Palette()

	bgr := make([]byte, w*h*3)
	for i, idx := range surf {
		p := int(idx) * 3
		r, g, b := pal[p], pal[p+1], pal[p+2]
		bgr[i*3] = b
		bgr[i*3+1] = g
		bgr[i*3+2] = r
	}
	return gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC3, bgr)
}

// alsaPlayback owns an ALSA playback device and feeds it unsigned
// 8-bit PCM dequeued from a decoder's audio stream.
type alsaPlayback struct {
	dev *yalsa.Device
}

// newALSAPlayback opens the first available ALSA playback device and
// negotiates it to match params, mirroring device/alsa's negotiation
// sequence but for output rather than input.
func newALSAPlayback(params mve.AudioParams, log logging.Logger) (*alsaPlayback, error) {
	cards, err := yalsa.OpenCards()
	if err != nil {
		return nil, err
	}
	defer yalsa.CloseCards(cards)

	var dev *yalsa.Device
	for _, card := range cards {
		devices, err := card.Devices()
		if err != nil {
			continue
		}
		for _, d := range devices {
			if d.Type == yalsa.PCM && d.Play {
				dev = d
				break
			}
		}
		if dev != nil {
			break
		}
	}
	if dev == nil {
		return nil, errNoPlaybackDevice
	}

	if err := dev.Open(); err != nil {
		return nil, err
	}
	if _, err := dev.NegotiateChannels(1); err != nil {
		return nil, err
	}
	if _, err := dev.NegotiateRate(params.SampleRate); err != nil {
		return nil, err
	}
	if _, err := dev.NegotiateFormat(yalsa.S16_LE); err != nil {
		return nil, err
	}
	if _, err := dev.NegotiatePeriodSize(params.BufferLen); err != nil {
		return nil, err
	}
	if err := dev.Prepare(); err != nil {
		return nil, err
	}
	log.Debug(pkg+"opened ALSA playback device", "title", dev.Title)
	return &alsaPlayback{dev: dev}, nil
}

// run dequeues PCM chunks from stream and writes them to the playback
// device until the stream is closed.
func (p *alsaPlayback) run(stream *pcm.AudioStream, log logging.Logger) {
	for {
		buf, err := stream.Dequeue(2 * time.Second)
		if err == pcm.ErrStreamClosed {
			return
		}
		if err != nil {
			log.Debug(pkg+"audio dequeue timed out", "error", err.Error())
			continue
		}
		widened := make([]byte, len(buf.Data)*2)
		for i, s := range buf.Data {
			v := (int16(s) - 128) * 256
			widened[2*i] = byte(v)
			widened[2*i+1] = byte(v >> 8)
		}
		if err := p.dev.Write(widened); err != nil {
			log.Error(pkg+"could not write to ALSA device", "error", err.Error())
			return
		}
	}
}

// Close closes the underlying ALSA device.
func (p *alsaPlayback) Close() error {
	return p.dev.Close()
}
