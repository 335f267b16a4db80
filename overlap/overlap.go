// Copyright 2024 The Volcore Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package overlap implements two-threshold label reconciliation: a
// voxel in the low-threshold labelling label1 survives only if it
// co-occurs, at that same voxel position, with a non-zero voxel of the
// high-confidence labelling label0.
package overlap

import (
	"github.com/grailbio/base/bitset"

	"github.com/grailbio/volcore/raster"
)

// Run reconciles label1 against label0. out may alias label1.
// label0 and label1 must be compatible in shape and both label-typed.
func Run(label0, label1, out *raster.Volume) error {
	if err := raster.CheckCompatible(label0.Shape(), label1.Shape()); err != nil {
		return err
	}
	if err := raster.CheckCompatible(label1.Shape(), out.Shape()); err != nil {
		return err
	}

	a0 := label0.Accessor()
	a1 := label1.Accessor()
	aout := out.Accessor()

	// Pass 1: mark every voxel where label0 and label1 co-occur
	// non-zero. keep is sized to the voxel count rather than the label
	// space: co-occurrence is a per-position test, so a label surviving
	// at one voxel does not vouch for the same label value elsewhere in
	// the volume.
	keep := make([]uintptr, a1.Len()/bitset.BitsPerWord+1)
	for i := 0; i < a0.Len(); i++ {
		if a0.At(i) != 0 && a1.At(i) != 0 {
			bitset.Set(keep, i)
		}
	}

	// Pass 2: out[i] = label1[i] if keep[i] else 0.
	for i := 0; i < a1.Len(); i++ {
		v := a1.At(i)
		if v != 0 && bitset.Test(keep, i) {
			aout.Set(i, v)
		} else {
			aout.Set(i, 0)
		}
	}
	return nil
}
