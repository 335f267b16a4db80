// Copyright 2024 The Volcore Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package stitch implements a slice-by-slice 3D connected-components
// stitcher: it runs a 2D labeller (internal/cc2d) on each Z slice of a
// binary mask and resolves inter-slice label equivalences into a
// single global i32 labelling.
package stitch

import (
	"github.com/grailbio/base/log"

	"github.com/grailbio/volcore/internal/cc2d"
	"github.com/grailbio/volcore/raster"
)

// Run stitches mask's per-slice components into a global 3D
// labelling. mask is a binary 3D volume (any
// numeric kind; non-zero means foreground); out is a pre-created i32
// label volume of identical shape. Run returns the high-water-mark
// label id assigned.
func Run(mask, out *raster.Volume) (int32, error) {
	if err := raster.CheckCompatible(mask.Shape(), out.Shape()); err != nil {
		return 0, err
	}

	shape := mask.Shape()
	y, x := int(shape.Y), int(shape.X)
	planeSize := y * x
	nz := int(shape.Z)

	maskAcc := mask.Accessor()
	outLabels := out.Int32()

	plane := make([]uint8, planeSize)
	readPlane := func(zi int) {
		base := zi * planeSize
		for i := 0; i < planeSize; i++ {
			if maskAcc.At(base+i) != 0 {
				plane[i] = 1
			} else {
				plane[i] = 0
			}
		}
	}

	readPlane(0)
	a, maxA := cc2d.Label(plane, y, x, cc2d.Connectivity8)
	lastLabel := maxA
	copy(outLabels[0:planeSize], a)

	rev := make([]map[int32]int32, 0, nz)

	for zi := 0; zi < nz-1; zi++ {
		readPlane(zi + 1)
		b, _ := cc2d.Label(plane, y, x, cc2d.Connectivity8)

		// Step 2: shift B's provisional labels into the global id space,
		// first-seen-wins.
		newLabelsLookup := make(map[int32]int32)
		shifted := make([]int32, planeSize)
		for i, bl := range b {
			if bl == 0 {
				continue
			}
			nl, ok := newLabelsLookup[bl]
			if !ok {
				lastLabel++
				nl = lastLabel
				newLabelsLookup[bl] = nl
			}
			shifted[i] = nl
		}

		// Step 3: forward lookup, first observed correspondence wins.
		lookup := make(map[int32]int32)
		for i := 0; i < planeSize; i++ {
			if a[i] > 0 && shifted[i] > 0 {
				if _, ok := lookup[shifted[i]]; !ok {
					lookup[shifted[i]] = a[i]
				}
			}
		}

		// Step 4: first remap pass.
		remapped := make([]int32, planeSize)
		for i, v := range shifted {
			if v == 0 {
				continue
			}
			if mapped, ok := lookup[v]; ok {
				remapped[i] = mapped
			} else {
				remapped[i] = v
			}
		}

		// Step 5: reverse lookup for this layer, first observed wins.
		layerRev := make(map[int32]int32)
		for i := 0; i < planeSize; i++ {
			if a[i] > 0 && remapped[i] > 0 && a[i] != remapped[i] {
				if _, ok := layerRev[a[i]]; !ok {
					layerRev[a[i]] = remapped[i]
				}
			}
		}
		rev = append(rev, layerRev)

		base := (zi + 1) * planeSize
		copy(outLabels[base:base+planeSize], remapped)

		a = remapped
	}

	final := finalize(rev)
	for i, v := range outLabels {
		if v == 0 {
			continue
		}
		if f, ok := final[v]; ok && f != 0 {
			outLabels[i] = f
		}
	}

	log.Printf("stitch: %d slices, %d provisional labels, %d remapped by closure", nz, lastLabel, len(final))
	return lastLabel, nil
}

// finalize walks every reverse-lookup chain to its end: for each
// (k, v0) recorded in any per-layer reverse lookup,
// chase v0 through the reverse lookups of increasing later layers,
// keeping the last non-zero resolution found.
func finalize(rev []map[int32]int32) map[int32]int32 {
	final := make(map[int32]int32)
	for z, layer := range rev {
		for k, v0 := range layer {
			v := v0
			for z2 := z + 1; z2 < len(rev); z2++ {
				if next, ok := rev[z2][v]; ok {
					v = next
				}
			}
			final[k] = v
		}
	}
	return final
}
