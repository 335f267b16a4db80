// Copyright 2024 The Volcore Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package overlap_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/volcore/overlap"
	"github.com/grailbio/volcore/raster"
	"github.com/grailbio/volcore/voltype"
)

func makeVolume(t *testing.T, name string, shape raster.Shape, kind voltype.Kind) *raster.Volume {
	t.Helper()
	v, err := raster.Create(filepath.Join(t.TempDir(), name), 0, shape, kind)
	require.NoError(t, err)
	t.Cleanup(func() { v.Close() })
	return v
}

// TestRun verifies that label0 = [1,1,0,0], label1 = [7,0,7,8] yields
// out = [7,0,0,0]: label 7 only keeps the voxel where it co-occurs
// with a non-zero label0 entry, not every voxel carrying that label
// value; label 8 never co-occurs.
func TestRun(t *testing.T) {
	shape := raster.Shape{Z: 1, Y: 1, X: 4}
	label0 := makeVolume(t, "label0.raw", shape, voltype.I32)
	label1 := makeVolume(t, "label1.raw", shape, voltype.I32)
	out := makeVolume(t, "out.raw", shape, voltype.I32)

	copy(label0.Int32(), []int32{1, 1, 0, 0})
	copy(label1.Int32(), []int32{7, 0, 7, 8})

	require.NoError(t, overlap.Run(label0, label1, out))
	require.Equal(t, []int32{7, 0, 0, 0}, out.Int32())
}

// TestConservatism checks the overlap conservatism invariant: out[i]
// is always either 0 or label1[i].
func TestConservatism(t *testing.T) {
	shape := raster.Shape{Z: 1, Y: 2, X: 4}
	label0 := makeVolume(t, "label0.raw", shape, voltype.I32)
	label1 := makeVolume(t, "label1.raw", shape, voltype.I32)
	out := makeVolume(t, "out.raw", shape, voltype.I32)

	copy(label0.Int32(), []int32{1, 0, 2, 0, 0, 3, 3, 0})
	copy(label1.Int32(), []int32{5, 5, 6, 6, 7, 8, 0, 9})

	require.NoError(t, overlap.Run(label0, label1, out))

	l1 := label1.Int32()
	for i, v := range out.Int32() {
		require.True(t, v == 0 || v == l1[i])
	}
}

func TestInPlaceAliasing(t *testing.T) {
	shape := raster.Shape{Z: 1, Y: 1, X: 4}
	label0 := makeVolume(t, "label0.raw", shape, voltype.I32)
	label1 := makeVolume(t, "label1.raw", shape, voltype.I32)

	copy(label0.Int32(), []int32{1, 1, 0, 0})
	copy(label1.Int32(), []int32{7, 0, 7, 8})

	require.NoError(t, overlap.Run(label0, label1, label1))
	require.Equal(t, []int32{7, 0, 0, 0}, label1.Int32())
}

func TestShapeMismatch(t *testing.T) {
	label0 := makeVolume(t, "label0.raw", raster.Shape{Z: 1, Y: 1, X: 4}, voltype.I32)
	label1 := makeVolume(t, "label1.raw", raster.Shape{Z: 1, Y: 1, X: 3}, voltype.I32)
	out := makeVolume(t, "out.raw", raster.Shape{Z: 1, Y: 1, X: 4}, voltype.I32)

	require.Error(t, overlap.Run(label0, label1, out))
}
