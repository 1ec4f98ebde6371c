/*
DESCRIPTION
  mveplay is a command line tool that decodes an Interplay MVE file
  frame by frame, reporting block-reconstruction diagnostics and
  optionally dumping the decoded audio track to a WAV file.

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package mveplay is a command line tool for decoding Interplay MVE files.
package main

import (
	"flag"
	"math"
	"math/cmplx"
	"os"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"github.com/fsnotify/fsnotify"
	"github.com/go-audio/wav"
	"github.com/mjibson/go-dsp/fft"
	"github.com/pkg/errors"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/mve/codec/pcm"
	"github.com/ausocean/mve/container/mve"
	"github.com/ausocean/mve/decoder"
	"github.com/ausocean/utils/logging"
)

// Logging configuration, matched to the netsender clients this tool is
// modelled on.
const (
	logPath      = "mveplay.log"
	logMaxSize   = 100 // MB
	logMaxBackup = 5
	logMaxAge    = 28 // days
	logVerbosity = logging.Info
)

const pkg = "mveplay: "

// audioDrainTimeout bounds how long a post-frame audio drain will wait
// for a chunk before concluding the queue is empty for now.
const audioDrainTimeout = 10 * time.Millisecond

func main() {
	path := flag.String("in", "", "path to an .mve file")
	watch := flag.String("watch", "", "directory to watch for new .mve files instead of decoding a single file")
	dumpAudio := flag.String("dump-audio", "", "path to write the decoded audio track as a WAV file")
	spectrum := flag.Bool("spectrum", false, "log the dominant FFT bin of each dequeued audio chunk")
	lowpass := flag.Float64("lowpass", 0, "cutoff frequency in Hz; if set, logs the RMS energy removed by a lowpass filter applied to each dequeued audio chunk")
	notifySystemd := flag.Bool("notify-systemd", false, "ping the systemd watchdog while playing")
	verbose := flag.Bool("verbose", false, "log at debug level")
	flag.Parse()

	fileLog := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	verbosity := logVerbosity
	if *verbose {
		verbosity = logging.Debug
	}
	log := logging.New(verbosity, fileLog, false)

	opts := playOptions{dumpAudio: *dumpAudio, spectrum: *spectrum, notifySystemd: *notifySystemd, lowpassHz: *lowpass}

	if *watch != "" {
		runWatch(*watch, log, opts)
		return
	}

	if *path == "" {
		log.Fatal(pkg + "no -in or -watch path given")
	}
	if err := playFile(*path, log, opts); err != nil {
		log.Fatal(pkg+"playback failed", "error", err.Error())
	}
}

// playOptions bundles the per-file playback flags so runWatch can pass
// them through unchanged to every file it discovers.
type playOptions struct {
	dumpAudio     string
	spectrum      bool
	notifySystemd bool
	lowpassHz     float64
}

// runWatch watches dir for newly created .mve files and plays each one
// as it appears, until the process is killed.
func runWatch(dir string, log logging.Logger, opts playOptions) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Fatal(pkg+"could not create watcher", "error", err.Error())
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		log.Fatal(pkg+"could not watch directory", "dir", dir, "error", err.Error())
	}

	log.Info(pkg+"watching for new files", "dir", dir)
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if ev.Op&fsnotify.Create == 0 {
				continue
			}
			log.Info(pkg+"new file", "path", ev.Name)
			if err := playFile(ev.Name, log, opts); err != nil {
				log.Error(pkg+"playback failed", "path", ev.Name, "error", err.Error())
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Error(pkg+"watcher error", "error", err.Error())
		}
	}
}

// playFile decodes every frame of the file at path, logging block
// diagnostics as it goes, and optionally writes the decoded audio
// track to opts.dumpAudio as a WAV file.
func playFile(path string, log logging.Logger, opts playOptions) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "could not open file")
	}
	defer f.Close()

	d := decoder.New(log)
	if err := d.Load(f); err != nil {
		return errors.Wrap(err, "could not load container")
	}

	var wavEnc *wav.Encoder
	if opts.dumpAudio != "" {
		if d.AudioStream() == nil {
			log.Warning(pkg + "stream has no audio, -dump-audio ignored")
		} else {
			wavFile, err := os.Create(opts.dumpAudio)
			if err != nil {
				return errors.Wrap(err, "could not create audio dump file")
			}
			defer wavFile.Close()
			wavEnc = wav.NewEncoder(wavFile, int(d.AudioParams().SampleRate), 8, 1, 1)
			defer wavEnc.Close()
		}
	}

	var filter *pcm.SelectiveFrequencyFilter
	if opts.lowpassHz > 0 && d.AudioStream() != nil {
		filter, err = pcm.NewLowPass(opts.lowpassHz, pcm.BufferFormat{Rate: uint(d.AudioParams().SampleRate), Channels: 1}, lowpassTaps)
		if err != nil {
			log.Warning(pkg+"could not build lowpass filter, -lowpass ignored", "error", err.Error())
			filter = nil
		}
	}

	var watchdogInterval time.Duration
	if opts.notifySystemd {
		watchdogInterval, err = daemon.SdWatchdogEnabled(false)
		if err != nil {
			log.Warning(pkg+"could not query systemd watchdog interval", "error", err.Error())
		}
		if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
			log.Warning(pkg+"could not notify systemd ready", "error", err.Error())
		}
	}

	var lastPing time.Time
	for {
		err := d.AdvanceFrame()
		if err == mve.ErrEndOfStream {
			break
		}
		if err != nil {
			return errors.Wrap(err, "decode failed")
		}

		stats := d.Stats().LastFrame()
		log.Debug(pkg+"frame decoded", "index", d.FrameIndex(),
			"total", stats.Total, "skipped", stats.Skipped,
			"literal", stats.Literal, "copied", stats.Copied)

		drainAudio(d, wavEnc, opts.spectrum, filter, log)

		if opts.notifySystemd && watchdogInterval > 0 && time.Since(lastPing) > watchdogInterval/2 {
			if _, err := daemon.SdNotify(false, daemon.SdNotifyWatchdog); err != nil {
				log.Warning(pkg+"could not ping systemd watchdog", "error", err.Error())
			}
			lastPing = time.Now()
		}
	}

	log.Info(pkg+"playback finished", "frames", d.Stats().Frames,
		"meanSkipRatio", d.Stats().MeanSkipRatio(),
		"meanLiteralRatio", d.Stats().MeanLiteralRatio(),
		"meanCopyRatio", d.Stats().MeanCopyRatio())
	return nil
}

// drainAudio dequeues every PCM chunk currently queued on d's audio
// stream without blocking for long, optionally writing each to wavEnc,
// logging its dominant FFT bin, and/or logging the RMS energy a
// lowpass filter removes from it.
func drainAudio(d *decoder.Decoder, wavEnc *wav.Encoder, spectrum bool, filter *pcm.SelectiveFrequencyFilter, log logging.Logger) {
	stream := d.AudioStream()
	if stream == nil {
		return
	}
	for {
		buf, err := stream.Dequeue(audioDrainTimeout)
		if err == pcm.ErrStreamTimeout {
			return
		}
		if err != nil {
			log.Debug(pkg+"audio stream closed", "error", err.Error())
			return
		}

		if wavEnc != nil {
			ib, err := decoder.IntBuffer(buf)
			if err != nil {
				log.Error(pkg+"could not convert audio chunk", "error", err.Error())
				continue
			}
			if err := wavEnc.Write(ib); err != nil {
				log.Error(pkg+"could not write audio chunk", "error", err.Error())
			}
		}

		if spectrum {
			logDominantBin(buf.Data, buf.Format.Rate, log)
		}

		if filter != nil {
			logFilterEffect(buf, filter, log)
		}
	}
}

// lowpassTaps is the FIR filter length used for -lowpass, long enough
// to give a reasonably sharp rolloff at voice-band cutoffs without
// costing much per chunk.
const lowpassTaps = 64

// logFilterEffect widens buf's unsigned 8-bit samples to signed 16-bit,
// runs filter over them, and logs the RMS energy the filter removed --
// a cheap way to confirm the filter is doing something plausible
// without writing the filtered audio anywhere.
func logFilterEffect(buf pcm.Buffer, filter *pcm.SelectiveFrequencyFilter, log logging.Logger) {
	widened := make([]byte, len(buf.Data)*2)
	for i, s := range buf.Data {
		v := (int16(s) - 128) * 256
		widened[2*i] = byte(v)
		widened[2*i+1] = byte(v >> 8)
	}

	filtered, err := filter.Apply(pcm.Buffer{Format: buf.Format, Data: widened})
	if err != nil {
		log.Error(pkg+"filter apply failed", "error", err.Error())
		return
	}

	log.Debug(pkg+"lowpass filter applied", "rmsBefore", rmsS16(widened), "rmsAfter", rmsS16(filtered))
}

// rmsS16 computes the root-mean-square amplitude of a little-endian
// signed 16-bit PCM byte slice.
func rmsS16(data []byte) float64 {
	if len(data) < 2 {
		return 0
	}
	var sum float64
	n := len(data) / 2
	for i := 0; i < n; i++ {
		v := int16(uint16(data[2*i]) | uint16(data[2*i+1])<<8)
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(n))
}

// logDominantBin runs an FFT over an unsigned 8-bit PCM chunk and logs
// the frequency bin with the largest magnitude, as a cheap debug aid
// for checking the audio queue is producing sensible data.
func logDominantBin(data []byte, rate uint, log logging.Logger) {
	x := make([]float64, len(data))
	for i, s := range data {
		x[i] = float64(s) - 128
	}
	spec := fft.FFTReal(x)

	best, bestMag := 0, 0.0
	for i, c := range spec[:len(spec)/2] {
		mag := cmplx.Abs(c)
		if mag > bestMag {
			best, bestMag = i, mag
		}
	}
	hz := float64(best) * float64(rate) / float64(len(x))
	log.Debug(pkg+"audio spectrum", "dominantHz", hz, "magnitude", bestMag)
}
