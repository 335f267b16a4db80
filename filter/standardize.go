// Copyright 2024 The Volcore Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package filter

import (
	"math"

	"github.com/grailbio/base/traverse"
	"github.com/pkg/errors"

	"github.com/grailbio/volcore/raster"
	"github.com/grailbio/volcore/verrors"
	"github.com/grailbio/volcore/voltype"
)

// StandardizeOpts configures Standardize. Parallelism selects the
// number of independent Z-slabs pass 3 fans out across via
// traverse.Each; 0 or 1 means run serially. Passes 1 and 2 stay
// sequential since they accumulate a single running sum each.
type StandardizeOpts struct {
	Parallelism int
}

// StandardizeOpt is a functional option for Standardize.
type StandardizeOpt func(*StandardizeOpts)

// OptStandardizeParallelism sets pass 3's slab fan-out width.
func OptStandardizeParallelism(n int) StandardizeOpt {
	return func(o *StandardizeOpts) { o.Parallelism = n }
}

func makeStandardizeOpts(opts ...StandardizeOpt) StandardizeOpts {
	var o StandardizeOpts
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Standardize runs three-pass standardization: pass 1 accumulates the
// mean, pass 2 accumulates the population standard deviation, pass 3
// writes (x-mean)/std as f32. out must be a voltype.F32 volume
// compatible in shape with image. Pass 3 has no cross-voxel dependency
// once mean and std are known, so it may fan out across independent
// slabs like Threshold's single pass does.
func Standardize(image, out *raster.Volume, opts ...StandardizeOpt) error {
	if err := checkShape(image, out); err != nil {
		return err
	}
	if out.Kind() != voltype.F32 {
		return errors.Wrapf(verrors.TypeMismatch, "standardize: output must be f32, have %v", out.Kind())
	}

	in := access(image)
	n := float64(in.Len())

	var sum float64
	for i := 0; i < in.Len(); i++ {
		sum += in.At(i)
	}
	mean := sum / n

	var sqSum float64
	for i := 0; i < in.Len(); i++ {
		d := in.At(i) - mean
		sqSum += d * d
	}
	std := math.Sqrt(sqSum / n)

	o := access(out)
	parallelism := makeStandardizeOpts(opts...).Parallelism
	if parallelism <= 1 {
		standardizeRange(in, o, mean, std, 0, in.Len())
		return nil
	}
	return traverse.Each(parallelism, func(slab int) error {
		lo := (slab * in.Len()) / parallelism
		hi := ((slab + 1) * in.Len()) / parallelism
		standardizeRange(in, o, mean, std, lo, hi)
		return nil
	})
}

func standardizeRange(in, out accessor, mean, std float64, lo, hi int) {
	for i := lo; i < hi; i++ {
		out.Set(i, (in.At(i)-mean)/std)
	}
}
