// Copyright 2024 The Volcore Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package rollingball

import "math"

// rollBall is the roll step: for every position of the ball's center
// (including a halo of halfWidth pixels outside the image on every
// side), it finds the height the ball's center can rise to while its
// surface stays at or below the image (a grayscale erosion), then
// stamps the ball's surface into the background envelope at that
// height (a grayscale dilation).
//
// The shrunk (or full-resolution) plane already fits in one scratch
// buffer, so roll reads src directly and accumulates into a separate
// background buffer rather than reusing the input array in place.
func rollBall(b *ball, src []float64, h, w int) []float64 {
	hw := b.halfWidth
	width := b.width

	background := make([]float64, h*w)
	for i := range background {
		background[i] = math.Inf(-1)
	}

	for y := -hw; y < h+hw; y++ {
		for x := -hw; x < w+hw; x++ {
			z := math.Inf(1)
			for byp := 0; byp < width; byp++ {
				ypixel := y + byp - hw
				if ypixel < 0 || ypixel >= h {
					continue
				}
				rowBase := ypixel * w
				ballRowBase := byp * width
				for bxp := 0; bxp < width; bxp++ {
					xpixel := x + bxp - hw
					if xpixel < 0 || xpixel >= w {
						continue
					}
					diff := src[rowBase+xpixel] - b.data[ballRowBase+bxp]
					if diff < z {
						z = diff
					}
				}
			}
			if math.IsInf(z, 1) {
				continue // ball footprint didn't intersect the image at all
			}
			for byp := 0; byp < width; byp++ {
				ypixel := y + byp - hw
				if ypixel < 0 || ypixel >= h {
					continue
				}
				rowBase := ypixel * w
				ballRowBase := byp * width
				for bxp := 0; bxp < width; bxp++ {
					xpixel := x + bxp - hw
					if xpixel < 0 || xpixel >= w {
						continue
					}
					val := z + b.data[ballRowBase+bxp]
					idx := rowBase + xpixel
					if val > background[idx] {
						background[idx] = val
					}
				}
			}
		}
	}
	return background
}
