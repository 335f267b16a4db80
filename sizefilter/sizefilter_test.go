// Copyright 2024 The Volcore Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package sizefilter_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/volcore/raster"
	"github.com/grailbio/volcore/sizefilter"
	"github.com/grailbio/volcore/voltype"
)

func makeVolume(t *testing.T, name string, shape raster.Shape, kind voltype.Kind) *raster.Volume {
	t.Helper()
	v, err := raster.Create(filepath.Join(t.TempDir(), name), 0, shape, kind)
	require.NoError(t, err)
	t.Cleanup(func() { v.Close() })
	return v
}

// TestFilter verifies that labels [[[1,1,2],[1,0,2]]] with minSize=3,
// maxSize=10 keeps only label 1 (count 3): [[[1,1,0],[1,0,0]]].
func TestFilter(t *testing.T) {
	shape := raster.Shape{Z: 1, Y: 2, X: 3}
	in := makeVolume(t, "in.raw", shape, voltype.I32)
	out := makeVolume(t, "out.raw", shape, voltype.I32)

	copy(in.Int32(), []int32{1, 1, 2, 1, 0, 2})

	report, err := sizefilter.Filter(in, out, 3, 10)
	require.NoError(t, err)

	require.Equal(t, []int32{1, 1, 0, 1, 0, 0}, out.Int32())
	require.Equal(t, 2, report.Total)
	require.Equal(t, map[int32]int{1: 3}, report.Counts)
}

// TestFilterIdempotence checks that filtering twice with the same
// bounds is idempotent.
func TestFilterIdempotence(t *testing.T) {
	shape := raster.Shape{Z: 1, Y: 2, X: 3}
	in := makeVolume(t, "in.raw", shape, voltype.I32)
	out1 := makeVolume(t, "out1.raw", shape, voltype.I32)
	out2 := makeVolume(t, "out2.raw", shape, voltype.I32)

	copy(in.Int32(), []int32{1, 1, 2, 1, 0, 2})

	_, err := sizefilter.Filter(in, out1, 3, 10)
	require.NoError(t, err)
	_, err = sizefilter.Filter(out1, out2, 3, 10)
	require.NoError(t, err)

	require.Equal(t, out1.Int32(), out2.Int32())
}

func TestFilterInPlace(t *testing.T) {
	shape := raster.Shape{Z: 1, Y: 2, X: 3}
	v := makeVolume(t, "v.raw", shape, voltype.I32)
	copy(v.Int32(), []int32{1, 1, 2, 1, 0, 2})

	_, err := sizefilter.Filter(v, v, 3, 10)
	require.NoError(t, err)
	require.Equal(t, []int32{1, 1, 0, 1, 0, 0}, v.Int32())
}

func TestLabelBySize(t *testing.T) {
	shape := raster.Shape{Z: 1, Y: 2, X: 3}
	in := makeVolume(t, "in.raw", shape, voltype.I32)
	out := makeVolume(t, "out.raw", shape, voltype.I32)
	copy(in.Int32(), []int32{1, 1, 2, 1, 0, 2})

	_, err := sizefilter.LabelBySize(in, out, 0, 10)
	require.NoError(t, err)
	require.Equal(t, []int32{3, 3, 2, 3, 0, 2}, out.Int32())
}
