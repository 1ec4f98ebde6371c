/*
NAME
  stats.go

DESCRIPTION
  stats.go accumulates per-frame block-reconstruction diagnostics.
  Purely informational: nothing here feeds back into decode behaviour.

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
	"gonum.org/v1/gonum/stat"

	"github.com/ausocean/mve/codec/block"
)

// Stats accumulates block.BlockStats across every frame a Decoder has
// produced so far.
type Stats struct {
	Frames      int
	skipRatios  []float64
	litRatios   []float64
	copyRatios  []float64
	lastFrame   block.BlockStats
}

// record folds one frame's BlockStats into the running history.
func (s *Stats) record(b block.BlockStats) {
	s.Frames++
	s.lastFrame = b
	if b.Total == 0 {
		return
	}
	s.skipRatios = append(s.skipRatios, float64(b.Skipped)/float64(b.Total))
	s.litRatios = append(s.litRatios, float64(b.Literal)/float64(b.Total))
	s.copyRatios = append(s.copyRatios, float64(b.Copied)/float64(b.Total))
}

// LastFrame returns the most recently decoded frame's raw block
// counts.
func (s Stats) LastFrame() block.BlockStats { return s.lastFrame }

// MeanSkipRatio returns the mean fraction of blocks skipped per frame
// (format 10 only; always 0 for an all-format-6 stream).
func (s Stats) MeanSkipRatio() float64 { return stat.Mean(s.skipRatios, nil) }

// MeanLiteralRatio returns the mean fraction of blocks reconstructed
// from the literal bitstream per frame.
func (s Stats) MeanLiteralRatio() float64 { return stat.Mean(s.litRatios, nil) }

// MeanCopyRatio returns the mean fraction of blocks reconstructed via
// motion-compensated or intra-frame copy per frame.
func (s Stats) MeanCopyRatio() float64 { return stat.Mean(s.copyRatios, nil) }
