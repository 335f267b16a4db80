// Copyright 2024 The Volcore Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package rollingball

import (
	"math"

	"github.com/grailbio/base/log"
)

// interpTable precomputes the per-axis index/weight pairs for the
// enlarge step's bilinear interpolation:
// sIdx[i] = floor((i-s/2)/s) clamped to [0, sLen-2];
// weight[i] = 1.0 - ((i+0.5)/s - (sIdx[i]+0.5)).
func interpTable(n, s, sLen int) (idx []int, weight []float64) {
	maxIdx := sLen - 2
	if maxIdx < 0 {
		// This bound rests on shrink-factor arithmetic; assert it
		// rather than read out of range.
		if sLen != 1 {
			log.Panicf("rollingball: shrunk length %d too small to interpolate", sLen)
		}
		maxIdx = 0
	}
	idx = make([]int, n)
	weight = make([]float64, n)
	for i := 0; i < n; i++ {
		si := int(math.Floor((float64(i) - float64(s)/2) / float64(s)))
		if si < 0 {
			si = 0
		}
		if si > maxIdx {
			si = maxIdx
		}
		idx[i] = si
		weight[i] = 1.0 - ((float64(i)+0.5)/float64(s) - (float64(si) + 0.5))
	}
	return idx, weight
}

// enlarge bilinearly interpolates a shrunken (sh, sw) background back
// up to (h, w).
func enlarge(small []float64, sh, sw, s, h, w int) []float64 {
	yIdx, yWeight := interpTable(h, s, sh)
	xIdx, xWeight := interpTable(w, s, sw)

	out := make([]float64, h*w)
	for y := 0; y < h; y++ {
		y0 := yIdx[y]
		y1 := y0 + 1
		if y1 >= sh {
			y1 = y0
		}
		wy := yWeight[y]
		row0 := y0 * sw
		row1 := y1 * sw
		for x := 0; x < w; x++ {
			x0 := xIdx[x]
			x1 := x0 + 1
			if x1 >= sw {
				x1 = x0
			}
			wx := xWeight[x]
			v00 := small[row0+x0]
			v01 := small[row0+x1]
			v10 := small[row1+x0]
			v11 := small[row1+x1]
			top := v00*wx + v01*(1-wx)
			bot := v10*wx + v11*(1-wx)
			out[y*w+x] = top*wy + bot*(1-wy)
		}
	}
	return out
}
