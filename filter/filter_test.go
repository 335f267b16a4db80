// Copyright 2024 The Volcore Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package filter_test

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/volcore/filter"
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

// TestThreshold verifies that a 2x2x2 u8 volume
// [[[0,1],[2,3]],[[4,5],[6,7]]] with v=4 against a u8 output yields
// [[[0,0],[0,0]],[[255,255],[255,255]]].
func TestThreshold(t *testing.T) {
	shape := raster.Shape{Z: 2, Y: 2, X: 2}
	image := makeVolume(t, "image.raw", shape, voltype.U8)
	out := makeVolume(t, "out.raw", shape, voltype.U8)

	data := image.Uint8()
	for i := range data {
		data[i] = byte(i)
	}

	require.NoError(t, filter.Threshold(image, out, 4))

	want := []byte{0, 0, 0, 0, 255, 255, 255, 255}
	require.Equal(t, want, out.Uint8())
}

// TestThresholdBijectivity checks the threshold bijectivity invariant:
// threshold(x, v)[i] == 0 iff x[i] < v.
func TestThresholdBijectivity(t *testing.T) {
	shape := raster.Shape{Z: 1, Y: 1, X: 16}
	image := makeVolume(t, "image.raw", shape, voltype.U16)
	out := makeVolume(t, "out.raw", shape, voltype.U16)

	data := image.Uint16()
	for i := range data {
		data[i] = uint16(i * 3)
	}
	require.NoError(t, filter.Threshold(image, out, 20))

	in := image.Uint16()
	o := out.Uint16()
	for i := range in {
		if in[i] < 20 {
			require.Equal(t, uint16(0), o[i])
		} else {
			require.NotEqual(t, uint16(0), o[i])
		}
	}
}

func TestThresholdParallel(t *testing.T) {
	shape := raster.Shape{Z: 4, Y: 4, X: 4}
	image := makeVolume(t, "image.raw", shape, voltype.U8)
	serialOut := makeVolume(t, "serial.raw", shape, voltype.U8)
	parallelOut := makeVolume(t, "parallel.raw", shape, voltype.U8)

	data := image.Uint8()
	for i := range data {
		data[i] = byte(i)
	}

	require.NoError(t, filter.Threshold(image, serialOut, 30))
	require.NoError(t, filter.Threshold(image, parallelOut, 30, filter.OptParallelism(4)))
	require.Equal(t, serialOut.Uint8(), parallelOut.Uint8())
}

// TestStandardizeMoments checks the standardize moments invariant
// (mean 0, std 1) on a volume with N >= 1000.
func TestStandardizeMoments(t *testing.T) {
	shape := raster.Shape{Z: 1, Y: 1, X: 2000}
	image := makeVolume(t, "image.raw", shape, voltype.U16)
	out := makeVolume(t, "out.raw", shape, voltype.F32)

	data := image.Uint16()
	for i := range data {
		data[i] = uint16((i*37 + 11) % 4096)
	}

	require.NoError(t, filter.Standardize(image, out))

	var sum, sqSum float64
	o := out.Float32()
	for _, x := range o {
		sum += float64(x)
		sqSum += float64(x) * float64(x)
	}
	n := float64(len(o))
	mean := sum / n
	std := math.Sqrt(sqSum/n - mean*mean)
	require.InDelta(t, 0, mean, 1e-4)
	require.InDelta(t, 1, std, 1e-4)
}

func TestStandardizeParallel(t *testing.T) {
	shape := raster.Shape{Z: 4, Y: 4, X: 4}
	image := makeVolume(t, "image.raw", shape, voltype.U16)
	serialOut := makeVolume(t, "serial.raw", shape, voltype.F32)
	parallelOut := makeVolume(t, "parallel.raw", shape, voltype.F32)

	data := image.Uint16()
	for i := range data {
		data[i] = uint16((i*37 + 11) % 4096)
	}

	require.NoError(t, filter.Standardize(image, serialOut))
	require.NoError(t, filter.Standardize(image, parallelOut, filter.OptStandardizeParallelism(4)))
	require.Equal(t, serialOut.Float32(), parallelOut.Float32())
}

func TestMinThresholdInPlace(t *testing.T) {
	shape := raster.Shape{Z: 1, Y: 1, X: 5}
	v := makeVolume(t, "v.raw", shape, voltype.I32)
	data := v.Int32()
	copy(data, []int32{1, 5, 10, 2, 8})

	filter.MinThresholdInPlace(v, 5)
	require.Equal(t, []int32{0, 5, 10, 0, 8}, v.Int32())
}

func TestIncrementNonzero(t *testing.T) {
	shape := raster.Shape{Z: 1, Y: 1, X: 5}
	v := makeVolume(t, "v.raw", shape, voltype.I32)
	data := v.Int32()
	copy(data, []int32{0, 5, 0, 2, 0})

	filter.IncrementNonzero(v, 100)
	require.Equal(t, []int32{0, 105, 0, 102, 0}, v.Int32())
}

// TestNonzeroCoordsRoundTrip checks the non-zero coords round-trip
// invariant: reconstructing a volume from its nonzero-coords file with
// value 1 equals the original binarized input.
func TestNonzeroCoordsRoundTrip(t *testing.T) {
	shape := raster.Shape{Z: 2, Y: 2, X: 2}
	image := makeVolume(t, "image.raw", shape, voltype.U8)
	data := image.Uint8()
	copy(data, []byte{0, 1, 0, 2, 3, 0, 0, 9})

	coordsPath := filepath.Join(t.TempDir(), "coords.raw")
	coords, err := filter.NonzeroCoords(image, coordsPath)
	require.NoError(t, err)
	defer coords.Close()

	require.Equal(t, []int64{1, 3, 4, 7}, coords.Values())

	out := makeVolume(t, "out.raw", shape, voltype.U8)
	filter.ReconstructFromCoords(coords, out)

	want := []byte{0, 1, 0, 1, 1, 0, 0, 1}
	require.Equal(t, want, out.Uint8())
}
