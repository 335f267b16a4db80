// Copyright 2024 The Volcore Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package voltype defines the element types a raster volume may carry
// and the arithmetic each type needs (a byte width, the value Threshold
// writes for a voxel that clears the bar, which is the maximum
// representable value for integer kinds and 1 for float kinds, and
// whether it is an integer or label kind) so that elementwise filters
// can be written once per operation and instantiated per fused
// input/output type pair.
package voltype

import "fmt"

// Kind names one of the element types a raster volume may hold.
type Kind uint8

// The supported element types.
const (
	U8 Kind = iota
	U16
	U32
	I32
	F32
	F64
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case U8:
		return "u8"
	case U16:
		return "u16"
	case U32:
		return "u32"
	case I32:
		return "i32"
	case F32:
		return "f32"
	case F64:
		return "f64"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Size returns the width in bytes of a single element of kind k.
func (k Kind) Size() int {
	switch k {
	case U8:
		return 1
	case U16:
		return 2
	case U32, I32, F32:
		return 4
	case F64:
		return 8
	default:
		panic(fmt.Sprintf("voltype: unknown kind %v", k))
	}
}

// MaxValue returns MAX(k) as a float64: the value threshold writes into
// an output voxel that clears the bar, per `out[i] = (image[i] < v) ?
// 0 : MAX(out_type)`.
func (k Kind) MaxValue() float64 {
	switch k {
	case U8:
		return 255
	case U16:
		return 65535
	case U32:
		return 4294967295
	case I32:
		return 2147483647
	case F32, F64:
		return 1
	default:
		panic(fmt.Sprintf("voltype: unknown kind %v", k))
	}
}

// Integer reports whether k is one of the integer kinds.
func (k Kind) Integer() bool {
	switch k {
	case U8, U16, U32, I32:
		return true
	default:
		return false
	}
}

// Label reports whether k is a valid label-volume element type: a
// raster volume whose values name connected components must be i32 or
// u32.
func (k Kind) Label() bool {
	return k == I32 || k == U32
}
