// Copyright 2024 The Volcore Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package watershed implements a seeded 3D watershed over a raveled
// volume: the classical variant, the compactness-weighted variant, and
// the watershed-line (wsl) variant that leaves a thin unlabeled
// boundary between basins.
package watershed

import (
	"math"

	"github.com/pkg/errors"

	"github.com/grailbio/volcore/pqueue"
	"github.com/grailbio/volcore/raster"
	"github.com/grailbio/volcore/verrors"
)

// Opts configures Run.
type Opts struct {
	Compactness float64
	WSL         bool
	Invert      bool
}

// Opt is a functional option for Run.
type Opt func(*Opts)

// OptCompactness selects the compactness-weighted variant, weighting
// each candidate's priority by its Euclidean distance from its seed.
func OptCompactness(c float64) Opt {
	return func(o *Opts) { o.Compactness = c }
}

// OptWSL selects the watershed-line variant, which leaves a thin
// unlabeled boundary between basins instead of assigning every voxel.
func OptWSL(o *Opts) { o.WSL = true }

// OptInvert floods from peaks toward valleys instead of valleys toward
// peaks.
func OptInvert(o *Opts) { o.Invert = true }

func makeOpts(opts ...Opt) Opts {
	var o Opts
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Strides is the rank-3 (Z, Y, X) stride vector, outermost first, used
// by the Euclidean distance term of the compact variant.
type Strides [3]int

// Run floods output from the given seeds. image supplies voxel intensities,
// output already carries seed labels at every seed position and is
// mutated in place to carry the final labelling, mask is the raveled
// 0/1 boundary mask (mutated in place when the wsl variant is
// selected, to mark watershed-line voxels), structure is the
// neighbor-offset list, and strides is used only when the compact
// variant is selected.
func Run(image *raster.Volume, output *raster.Volume, mask []uint8, structure []int, strides Strides, seeds []int, seedLabels []int32, opts ...Opt) error {
	if err := raster.CheckCompatible(image.Shape(), output.Shape()); err != nil {
		return err
	}
	o := makeOpts(opts...)
	img := image.Accessor()
	out := output.Int32()

	for _, s := range seeds {
		if s < 0 || s >= img.Len() {
			return errors.Wrapf(verrors.SeedOutOfRange, "watershed: seed %d, volume size %d", s, img.Len())
		}
	}

	factor := 1.0
	if o.Invert {
		factor = -1.0
	}

	q := pqueue.New(len(seeds))
	var age int64
	for i, s := range seeds {
		out[s] = seedLabels[i]
		q.Push(pqueue.Heapitem{Value: factor * img.At(s), Age: 0, Index: s, Source: s})
	}

	compact := o.Compactness > 0
	eager := !compact && !o.WSL

	for q.Size() > 0 {
		elem := q.Pop()

		if compact || o.WSL {
			if out[elem.Index] != 0 && elem.Index != elem.Source {
				continue
			}
			if o.WSL && differingNeighbor(out, mask, structure, elem.Index) {
				mask[elem.Index] = 0
				continue
			}
			out[elem.Index] = out[elem.Source]
		}

		for _, off := range structure {
			n := elem.Index + off
			if mask[n] == 0 {
				continue
			}
			if out[n] != 0 {
				continue
			}
			value := factor * img.At(n)
			if compact {
				value += o.Compactness * euclid(n, elem.Source, strides)
			}
			if eager {
				out[n] = out[elem.Index]
			}
			age++
			q.Push(pqueue.Heapitem{Value: value, Age: age, Index: n, Source: elem.Source})
		}
	}
	q.Done()
	return nil
}

// differingNeighbor is the differing-neighbor check for the wsl
// variant: true, and the caller should mask index out, iff
// two distinct nonzero labels are visible among index's unmasked
// neighbors.
func differingNeighbor(out []int32, mask []uint8, structure []int, index int) bool {
	var first, second int32
	for _, off := range structure {
		n := index + off
		if mask[n] == 0 {
			continue
		}
		label := out[n]
		if label == 0 {
			continue
		}
		switch {
		case first == 0:
			first = label
		case label != first:
			second = label
		}
		if second != 0 {
			return true
		}
	}
	return false
}

// euclid computes the Euclidean distance between raveled coordinates p
// and q given outermost-first strides.
func euclid(p, q int, strides Strides) float64 {
	var sumSq float64
	for _, stride := range strides {
		pi, pr := p/stride, p%stride
		qi, qr := q/stride, q%stride
		d := float64(pi - qi)
		sumSq += d * d
		p, q = pr, qr
	}
	return math.Sqrt(sumSq)
}
