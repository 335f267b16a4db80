// Copyright 2024 The Volcore Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package rollingball implements Sternberg paraboloid rolling-ball
// background subtraction over planar intensity data. 3D callers feed
// it one (Y, X) plane at a time; Subtract iterates the planes of a
// raster volume.
package rollingball

import "math"

// ball is the static 2D kernel: a square patch of side width whose
// values are sqrt(r^2 - (x-h)^2 - (y-h)^2) inside the ball footprint,
// else 0.
type ball struct {
	data      []float64
	width     int
	halfWidth int
}

// shrinkParams chooses the shrink factor and arc-trim percentage for a
// requested radius.
func shrinkParams(radius float64) (shrink int, arcTrimPercent float64) {
	switch {
	case radius <= 10:
		return 1, 24
	case radius <= 30:
		return 2, 24
	case radius <= 100:
		return 4, 32
	default:
		return 8, 40
	}
}

// newBall builds the kernel for a requested radius R: chooses the
// shrink factor and arc trim, derives the small-ball radius r and
// halfWidth, and fills in the W x W kernel.
func newBall(radius float64) *ball {
	shrink, arcTrimPercent := shrinkParams(radius)
	r := radius / float64(shrink)
	if r < 1 {
		r = 1
	}
	halfWidth := int(math.Round(r * (1 - arcTrimPercent/100)))
	if halfWidth < 1 {
		halfWidth = 1
	}
	width := 2*halfWidth + 1
	data := make([]float64, width*width)
	rSq := r * r
	for y := 0; y < width; y++ {
		dy := float64(y - halfWidth)
		for x := 0; x < width; x++ {
			dx := float64(x - halfWidth)
			radicand := rSq - dx*dx - dy*dy
			if radicand > 0 {
				data[y*width+x] = math.Sqrt(radicand)
			}
		}
	}
	return &ball{data: data, width: width, halfWidth: halfWidth}
}
