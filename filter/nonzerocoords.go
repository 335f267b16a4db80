// Copyright 2024 The Volcore Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package filter

import (
	"bufio"
	"encoding/binary"
	"os"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/grailbio/volcore/raster"
	"github.com/grailbio/volcore/verrors"
)

// Int64Raster is a 1D i64 handle for a non-zero coordinates side file:
// a sequence of signed 8-byte integers in native byte order,
// memory-mapped rather than buffered, matching the rest of the core's
// out-of-core discipline even though the element type (i64) falls
// outside voltype.Kind's {u8,u16,u32,i32,f32,f64} set used by raster
// volumes proper.
type Int64Raster struct {
	file   *os.File
	raw    []byte
	values []int64
	closed bool
}

// Close unmaps the coordinates file. Idempotent.
func (r *Int64Raster) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	var firstErr error
	if err := unix.Munmap(r.raw); err != nil {
		firstErr = errors.Wrap(verrors.IoError, err.Error())
	}
	if err := r.file.Close(); err != nil && firstErr == nil {
		firstErr = errors.Wrap(verrors.IoError, err.Error())
	}
	return firstErr
}

// Values returns the raveled indices in the order they were written.
func (r *Int64Raster) Values() []int64 { return r.values }

// NonzeroCoords streams image in raveled order and appends the raveled
// index of every non-zero voxel, as a native-byte-order int64, to
// path. The returned handle mmaps that file back in as []int64.
//
// Unlike Threshold and Standardize's final pass, this stays strictly
// sequential: each write appends to the same file in raveled order,
// so splitting across slabs would require either a second pass to
// merge per-slab coordinate lists back into raveled order or an
// out-of-order coordinates file, neither of which is worth it for a
// filter that is already bounded by write I/O rather than CPU.
func NonzeroCoords(image *raster.Volume, path string) (*Int64Raster, error) {
	a := access(image)

	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(verrors.IoError, "nonzerocoords: %v", err)
	}
	w := bufio.NewWriter(f)

	var n int64
	var buf [8]byte
	for i := 0; i < a.Len(); i++ {
		if a.At(i) == 0 {
			continue
		}
		binary.NativeEndian.PutUint64(buf[:], uint64(int64(i)))
		if _, err := w.Write(buf[:]); err != nil {
			f.Close()
			return nil, errors.Wrapf(verrors.IoError, "nonzerocoords: %v", err)
		}
		n++
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return nil, errors.Wrapf(verrors.IoError, "nonzerocoords: %v", err)
	}
	if err := f.Close(); err != nil {
		return nil, errors.Wrapf(verrors.IoError, "nonzerocoords: %v", err)
	}

	if n == 0 {
		return &Int64Raster{values: nil}, nil
	}

	f, err = os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, errors.Wrapf(verrors.IoError, "nonzerocoords: reopen: %v", err)
	}
	raw, err := unix.Mmap(int(f.Fd()), 0, int(n)*8, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(verrors.IoError, "nonzerocoords: mmap: %v", err)
	}
	values := unsafe.Slice((*int64)(unsafe.Pointer(&raw[0])), n)
	return &Int64Raster{file: f, raw: raw, values: values}, nil
}

// ReconstructFromCoords writes 1 at every raveled index named by
// coords and 0 everywhere else, the inverse of NonzeroCoords.
func ReconstructFromCoords(coords *Int64Raster, out *raster.Volume) {
	a := access(out)
	for i := 0; i < a.Len(); i++ {
		a.Set(i, 0)
	}
	for _, idx := range coords.Values() {
		a.Set(int(idx), 1)
	}
}
