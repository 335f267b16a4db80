// Copyright 2024 The Volcore Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package filter implements the basic elementwise filters: threshold,
// standardize, in-place min-threshold, increment-nonzero, and non-zero
// coordinate extraction. Every filter is expressed once against
// raster.Accessor's float64 view, instantiated per element kind by
// raster.Volume.Accessor, instead of writing the
// {u8,u16,u32,i32,f32,f64}^2 matrix out by hand.
package filter

import "github.com/grailbio/volcore/raster"

// accessor is the uniform numeric view every filter in this package
// operates over; see raster.Accessor.
type accessor = raster.Accessor

// access returns an accessor over v's native slice.
func access(v *raster.Volume) accessor {
	return v.Accessor()
}

// checkShape returns a ShapeMismatch error if a and b do not have
// identical shapes.
func checkShape(a, b *raster.Volume) error {
	return raster.CheckCompatible(a.Shape(), b.Shape())
}
