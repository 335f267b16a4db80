// Copyright 2024 The Volcore Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package rollingball

// shrinkImage min-pools src (h x w) by block factor s: each output
// pixel takes the minimum over its s x s input block. Min-pooling, not
// averaging, preserves the background envelope's lower hull.
func shrinkImage(src []float64, h, w, s int) (dst []float64, sh, sw int) {
	sh = (h + s - 1) / s
	sw = (w + s - 1) / s
	dst = make([]float64, sh*sw)
	for y := 0; y < sh; y++ {
		y0 := y * s
		y1 := y0 + s
		if y1 > h {
			y1 = h
		}
		for x := 0; x < sw; x++ {
			x0 := x * s
			x1 := x0 + s
			if x1 > w {
				x1 = w
			}
			min := src[y0*w+x0]
			for yy := y0; yy < y1; yy++ {
				row := yy * w
				for xx := x0; xx < x1; xx++ {
					if v := src[row+xx]; v < min {
						min = v
					}
				}
			}
			dst[y*sw+x] = min
		}
	}
	return dst, sh, sw
}
