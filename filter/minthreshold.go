// Copyright 2024 The Volcore Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package filter

import "github.com/grailbio/volcore/raster"

// MinThresholdInPlace zeroes voxels below v, leaving other voxels
// untouched. image may be the same Volume a caller later reuses as
// both input and output of another filter; this filter is safe to run
// in place.
func MinThresholdInPlace(image *raster.Volume, v float64) {
	a := access(image)
	for i := 0; i < a.Len(); i++ {
		if a.At(i) < v {
			a.Set(i, 0)
		}
	}
}

// IncrementNonzero adds delta to every non-zero voxel, leaving zeros
// untouched.
func IncrementNonzero(image *raster.Volume, delta float64) {
	a := access(image)
	for i := 0; i < a.Len(); i++ {
		if x := a.At(i); x != 0 {
			a.Set(i, x+delta)
		}
	}
}
