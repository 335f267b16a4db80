// Copyright 2024 The Volcore Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package sizefilter implements a label-size filter and its
// labelBySize variant: a three-pass histogram/decide/apply over a
// label volume.
package sizefilter

import (
	"github.com/grailbio/base/traverse"
	"github.com/pkg/errors"

	"github.com/grailbio/volcore/raster"
	"github.com/grailbio/volcore/verrors"
	"github.com/grailbio/volcore/voltype"
)

// Report is the label-count report: the total number of distinct
// non-zero labels observed, and the pixel count of every label that
// survived the [minSize, maxSize] bound.
type Report struct {
	Total  int
	Counts map[int32]int
}

// Opts configures Filter and LabelBySize.
type Opts struct {
	Parallelism int
}

// Opt is a functional option for Opts.
type Opt func(*Opts)

// OptParallelism sets the pass-3 slab fan-out width.
func OptParallelism(n int) Opt {
	return func(o *Opts) { o.Parallelism = n }
}

func makeOpts(opts ...Opt) Opts {
	var o Opts
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func labelSlice(v *raster.Volume) ([]int32, error) {
	if !v.Kind().Label() {
		return nil, errors.Wrapf(verrors.TypeMismatch, "sizefilter: %s is %v, not a label type", v.Path(), v.Kind())
	}
	if v.Kind() == voltype.U32 {
		u := v.Uint32()
		out := make([]int32, len(u))
		for i, x := range u {
			out[i] = int32(x)
		}
		return out, nil
	}
	return v.Int32(), nil
}

func histogram(labels []int32) map[int32]int {
	areas := make(map[int32]int)
	for _, l := range labels {
		if l != 0 {
			areas[l]++
		}
	}
	return areas
}

// Filter keeps labels whose pixel count falls in [minSize, maxSize],
// zeroing every other voxel. in and out may alias. Returns the
// label-count report from pass 1.
func Filter(in, out *raster.Volume, minSize, maxSize int, opts ...Opt) (Report, error) {
	if err := raster.CheckCompatible(in.Shape(), out.Shape()); err != nil {
		return Report{}, err
	}
	inLabels, err := labelSlice(in)
	if err != nil {
		return Report{}, err
	}
	outLabels, err := labelSlice(out)
	if err != nil {
		return Report{}, err
	}

	areas := histogram(inLabels)
	keep := make(map[int32]int, len(areas))
	for label, count := range areas {
		if count >= minSize && count <= maxSize {
			keep[label] = count
		}
	}

	apply(inLabels, outLabels, func(label int32) int32 {
		if _, ok := keep[label]; ok {
			return label
		}
		return 0
	}, makeOpts(opts...).Parallelism)
	writeBack(out, outLabels)

	return Report{Total: len(areas), Counts: keep}, nil
}

// LabelBySize writes each surviving voxel's component size as its new
// label value instead of its original label id.
func LabelBySize(in, out *raster.Volume, minSize, maxSize int, opts ...Opt) (Report, error) {
	if err := raster.CheckCompatible(in.Shape(), out.Shape()); err != nil {
		return Report{}, err
	}
	inLabels, err := labelSlice(in)
	if err != nil {
		return Report{}, err
	}
	outLabels, err := labelSlice(out)
	if err != nil {
		return Report{}, err
	}

	areas := histogram(inLabels)
	keep := make(map[int32]int, len(areas))
	for label, count := range areas {
		if count >= minSize && count <= maxSize {
			keep[label] = count
		}
	}

	apply(inLabels, outLabels, func(label int32) int32 {
		if count, ok := keep[label]; ok {
			return int32(count)
		}
		return 0
	}, makeOpts(opts...).Parallelism)
	writeBack(out, outLabels)

	return Report{Total: len(areas), Counts: keep}, nil
}

func apply(in, out []int32, decide func(int32) int32, parallelism int) {
	n := len(in)
	if parallelism <= 1 {
		applyRange(in, out, decide, 0, n)
		return
	}
	// Pass 3 has no cross-voxel dependency, so it may fan out across
	// independent slabs.
	_ = traverse.Each(parallelism, func(slab int) error {
		lo := (slab * n) / parallelism
		hi := ((slab + 1) * n) / parallelism
		applyRange(in, out, decide, lo, hi)
		return nil
	})
}

func applyRange(in, out []int32, decide func(int32) int32, lo, hi int) {
	for i := lo; i < hi; i++ {
		out[i] = decide(in[i])
	}
}

func writeBack(out *raster.Volume, labels []int32) {
	if out.Kind() == voltype.U32 {
		u := out.Uint32()
		for i, l := range labels {
			u[i] = uint32(l)
		}
	}
	// When out is already i32, labelSlice returned the live backing
	// slice itself, so applyRange already wrote through to the mmap.
}
