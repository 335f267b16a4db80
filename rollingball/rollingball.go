// Copyright 2024 The Volcore Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package rollingball

import (
	"math"

	"github.com/grailbio/base/traverse"

	"github.com/grailbio/volcore/raster"
)

// Opts configures Subtract.
type Opts struct {
	// Serial disables the per-plane data parallelism that Subtract
	// otherwise uses (rolling-ball planes are independent of each
	// other). Tests that need deterministic single-goroutine execution
	// set this.
	Serial bool
}

// Opt is a functional option for Subtract.
type Opt func(*Opts)

// OptSerial forces Subtract to process planes one at a time.
func OptSerial(o *Opts) { o.Serial = true }

func makeOpts(opts ...Opt) Opts {
	var o Opts
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Subtract runs rolling-ball background subtraction over a 3D raster
// volume: image is mutated in place, one (Y, X) plane at a time, each
// independent of the others, so planes fan out across traverse.Each
// when more than one plane is present and Opts.Serial is not set.
func Subtract(image *raster.Volume, radius float64, opts ...Opt) error {
	shape := image.Shape()
	h, w := int(shape.Y), int(shape.X)
	planeSize := h * w
	nz := int(shape.Z)
	acc := image.Accessor()
	maxVal := image.Kind().MaxValue()

	process := func(zi int) error {
		base := zi * planeSize
		plane := make([]float64, planeSize)
		for i := 0; i < planeSize; i++ {
			plane[i] = acc.At(base + i)
		}
		SubtractPlane(plane, h, w, radius, maxVal)
		for i := 0; i < planeSize; i++ {
			acc.Set(base+i, plane[i])
		}
		return nil
	}

	if nz <= 1 || makeOpts(opts...).Serial {
		for zi := 0; zi < nz; zi++ {
			if err := process(zi); err != nil {
				return err
			}
		}
		return nil
	}
	return traverse.Each(nz, process)
}

// SubtractPlane runs rolling-ball background subtraction over a
// single (h, w) plane of raw float64 intensities, in place. It is the
// unit the 3D Subtract
// entrypoint iterates, and is exported directly for callers (and
// tests) that already hold a plane in memory rather than a raster
// volume.
func SubtractPlane(plane []float64, h, w int, radius float64, maxVal float64) {
	b := newBall(radius)
	shrink, _ := shrinkParams(radius)

	var background []float64
	if shrink > 1 {
		small, sh, sw := shrinkImage(plane, h, w, shrink)
		smallBackground := rollBall(b, small, sh, sw)
		background = enlarge(smallBackground, sh, sw, shrink, h, w)
	} else {
		background = rollBall(b, plane, h, w)
	}

	for i := range plane {
		v := plane[i] - math.Round(background[i]+0.5)
		if v < 0 {
			v = 0
		} else if v > maxVal {
			v = maxVal
		}
		plane[i] = v
	}
}
