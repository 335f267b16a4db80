// Copyright 2024 The Volcore Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package diffuse implements a mask-constrained isotropic diffusion
// flooder, used to shape soft regions of interest around watershed
// seeds.
package diffuse

import (
	"github.com/pkg/errors"

	"github.com/grailbio/volcore/pqueue"
	"github.com/grailbio/volcore/raster"
	"github.com/grailbio/volcore/verrors"
)

// Mask values: 0 is out of bounds, 1 is floodable and not yet queued,
// 2 is floodable and currently in the queue (an in-band "in-queue"
// flag that Run restores to 1 before returning).
const (
	MaskBlocked uint8 = 0
	MaskOpen    uint8 = 1
	MaskQueued  uint8 = 2
)

// Opts configures Run.
type Opts struct {
	// Threshold is the minimum diffused value a voxel must reach to
	// keep spreading; a candidate below Threshold is dropped instead
	// of settled.
	Threshold float64
	// K scales each step's neighbor-mean contribution before it is
	// averaged with the voxel's own value. Defaults to 1.
	K float64
}

// Opt is a functional option for Run.
type Opt func(*Opts)

// OptThreshold sets the minimum value a candidate voxel must reach to
// keep spreading.
func OptThreshold(t float64) Opt {
	return func(o *Opts) { o.Threshold = t }
}

// OptK sets the neighbor-mean scaling factor.
func OptK(k float64) Opt {
	return func(o *Opts) { o.K = k }
}

func makeOpts(opts ...Opt) Opts {
	o := Opts{K: 1}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Run floods image from the given seeds. image is mutated in place: every seed
// is set to 1, and every voxel the flood settles on is written with
// its diffused value. mask is mutated in place during the flood
// (MaskOpen -> MaskQueued) and restored to MaskOpen everywhere before
// Run returns, so the MaskQueued state never leaks to the caller.
func Run(image *raster.Volume, mask []uint8, structure []int, seeds []int, opts ...Opt) error {
	o := makeOpts(opts...)
	img := image.Accessor()

	for _, s := range seeds {
		if s < 0 || s >= img.Len() {
			return errors.Wrapf(verrors.SeedOutOfRange, "diffuse: seed %d, volume size %d", s, img.Len())
		}
	}

	q := pqueue.New(len(seeds))
	for _, s := range seeds {
		img.Set(s, 1)
		q.Push(pqueue.Heapitem{Value: 1, Age: 0, Index: s, Source: s})
	}

	var age int64
	for q.Size() > 0 {
		elem := q.Pop()

		var sum float64
		for _, off := range structure {
			sum += img.At(elem.Index + off)
		}
		mean := sum / float64(len(structure))
		value := (mean*o.K + img.At(elem.Index)) / 2
		if value < o.Threshold {
			continue
		}
		img.Set(elem.Index, value)

		for _, off := range structure {
			n := elem.Index + off
			if mask[n] != MaskOpen {
				continue
			}
			mask[n] = MaskQueued
			age++
			q.Push(pqueue.Heapitem{Value: value, Age: age, Index: n, Source: elem.Source})
		}
	}
	q.Done()

	for i := range mask {
		if mask[i] == MaskQueued {
			mask[i] = MaskOpen
		}
	}
	return nil
}
