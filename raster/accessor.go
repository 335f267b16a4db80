// Copyright 2024 The Volcore Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package raster

import (
	"github.com/grailbio/base/log"

	"github.com/grailbio/volcore/voltype"
)

// Numeric is the constraint satisfied by every element kind a raster
// volume may carry.
type Numeric interface {
	~uint8 | ~uint16 | ~uint32 | ~int32 | ~float32 | ~float64
}

// Accessor is a uniform, kind-agnostic view over a Volume's native
// slice. It lets the filters in sibling packages (filter, watershed,
// diffuse, overlap, stitch, rollingball) be written once against float64
// regardless of the volume's actual element kind: the dispatch on Kind
// happens exactly once, at Accessor() construction time.
type Accessor interface {
	Len() int
	At(i int) float64
	Set(i int, x float64)
}

type sliceAccessor[T Numeric] []T

func (s sliceAccessor[T]) Len() int          { return len(s) }
func (s sliceAccessor[T]) At(i int) float64  { return float64(s[i]) }
func (s sliceAccessor[T]) Set(i int, x float64) { s[i] = T(x) }

// Accessor returns a float64 view over v's native slice.
func (v *Volume) Accessor() Accessor {
	switch v.kind {
	case voltype.U8:
		return sliceAccessor[uint8](v.Uint8())
	case voltype.U16:
		return sliceAccessor[uint16](v.Uint16())
	case voltype.U32:
		return sliceAccessor[uint32](v.Uint32())
	case voltype.I32:
		return sliceAccessor[int32](v.Int32())
	case voltype.F32:
		return sliceAccessor[float32](v.Float32())
	case voltype.F64:
		return sliceAccessor[float64](v.Float64())
	default:
		log.Panicf("raster: unreachable kind %v", v.kind)
		panic("unreachable")
	}
}
