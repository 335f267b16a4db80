// Copyright 2024 The Volcore Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package filter

import (
	"github.com/grailbio/base/traverse"

	"github.com/grailbio/volcore/raster"
)

// ThresholdOpts configures Threshold. Parallelism selects the number
// of independent Z-slabs traverse.Each fans the work across; 0 or 1
// means run serially.
type ThresholdOpts struct {
	Parallelism int
}

// ThresholdOpt is a functional option for Threshold.
type ThresholdOpt func(*ThresholdOpts)

// OptParallelism sets the slab fan-out width.
func OptParallelism(n int) ThresholdOpt {
	return func(o *ThresholdOpts) { o.Parallelism = n }
}

func makeThresholdOpts(opts ...ThresholdOpt) ThresholdOpts {
	var o ThresholdOpts
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Threshold sets out[i] = (image[i] < v) ? 0 : MAX(out_type), for
// every voxel i in
// raveled order. image and out must have identical shape; their
// element kinds may differ (any of the {u8,u16,u32,i32,f32,f64}
// combinations).
func Threshold(image, out *raster.Volume, v float64, opts ...ThresholdOpt) error {
	if err := checkShape(image, out); err != nil {
		return err
	}
	in := access(image)
	o := access(out)
	maxOut := out.Kind().MaxValue()

	parallelism := makeThresholdOpts(opts...).Parallelism
	if parallelism <= 1 {
		thresholdRange(in, o, v, maxOut, 0, in.Len())
		return nil
	}
	return traverse.Each(parallelism, func(slab int) error {
		lo := (slab * in.Len()) / parallelism
		hi := ((slab + 1) * in.Len()) / parallelism
		thresholdRange(in, o, v, maxOut, lo, hi)
		return nil
	})
}

func thresholdRange(in, out accessor, v, maxOut float64, lo, hi int) {
	for i := lo; i < hi; i++ {
		if in.At(i) < v {
			out.Set(i, 0)
		} else {
			out.Set(i, maxOut)
		}
	}
}
