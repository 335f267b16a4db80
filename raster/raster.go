// Copyright 2024 The Volcore Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package raster implements scoped, typed mmap windows into a backing
// file. Open and Create release the file on their own error paths;
// after that the caller releases the mapping with Close, which is
// idempotent and so safe to defer.
//
// A raster volume never buffers its contents in Go-managed memory; the
// typed Uint8/Uint16/.../Float64 views all alias the kernel mapping
// directly, so volumes that run tens to hundreds of gigabytes never
// need to fit in process memory.
package raster

import (
	"os"
	"unsafe"

	"github.com/grailbio/base/log"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/grailbio/volcore/verrors"
	"github.com/grailbio/volcore/voltype"
)

// Shape is the (Z, Y, X) extent of a raster volume, Z outermost.
type Shape struct {
	Z, Y, X int64
}

// Size returns Z*Y*X, the element count of the volume.
func (s Shape) Size() int64 { return s.Z * s.Y * s.X }

// Equal reports whether two shapes describe the same (Z, Y, X) extent.
// Two volumes are compatible iff their shapes are Equal.
func (s Shape) Equal(o Shape) bool { return s == o }

// Mode selects whether a Volume's mapping is read-only or read/write.
type Mode int

const (
	ReadOnly Mode = iota
	ReadWrite
)

// Volume is a scoped mapping into a region of a backing file. The
// caller that opens a Volume must call Close on every exit path; the
// mapping is released exactly once.
type Volume struct {
	file    *os.File
	raw     []byte // the full mmap region, page-aligned down from offset
	pad     int    // bytes between the page-aligned mmap start and the logical element offset
	kind    voltype.Kind
	shape   Shape
	mode    Mode
	path    string
	offset  int64
	closed  bool
}

func pageFloor(off int64) int64 {
	pageSize := int64(os.Getpagesize())
	return (off / pageSize) * pageSize
}

// Open maps an existing file's [offset, offset+length) byte region,
// where length = shape.Size() * kind.Size(). Offsets need not be
// page-aligned; Open rounds the mmap start down internally and keeps
// track of the padding.
func Open(path string, offset int64, shape Shape, kind voltype.Kind, mode Mode) (*Volume, error) {
	flag := os.O_RDONLY
	prot := unix.PROT_READ
	if mode == ReadWrite {
		flag = os.O_RDWR
		prot = unix.PROT_READ | unix.PROT_WRITE
	}
	f, err := os.OpenFile(path, flag, 0644)
	if err != nil {
		return nil, errors.Wrapf(verrors.IoError, "raster.Open(%s): %v", path, err)
	}
	v, err := mapFile(f, path, offset, shape, kind, mode, prot)
	if err != nil {
		f.Close()
		return nil, err
	}
	return v, nil
}

// Create truncates path to hold shape.Size() elements of kind kind
// starting at offset, then maps it read/write. Every filter with an
// output volume needs a sized-creation step before Open can map it.
func Create(path string, offset int64, shape Shape, kind voltype.Kind) (*Volume, error) {
	length := offset + shape.Size()*int64(kind.Size())
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, errors.Wrapf(verrors.IoError, "raster.Create(%s): %v", path, err)
	}
	if err := f.Truncate(length); err != nil {
		f.Close()
		return nil, errors.Wrapf(verrors.IoError, "raster.Create(%s): truncate: %v", path, err)
	}
	v, err := mapFile(f, path, offset, shape, kind, ReadWrite, unix.PROT_READ|unix.PROT_WRITE)
	if err != nil {
		f.Close()
		return nil, err
	}
	return v, nil
}

func mapFile(f *os.File, path string, offset int64, shape Shape, kind voltype.Kind, mode Mode, prot int) (*Volume, error) {
	length := shape.Size() * int64(kind.Size())
	info, err := f.Stat()
	if err != nil {
		return nil, errors.Wrapf(verrors.IoError, "raster.Open(%s): stat: %v", path, err)
	}
	if info.Size() < offset+length {
		return nil, errors.Wrapf(verrors.IoError, "raster.Open(%s): short file: have %d bytes, need %d", path, info.Size(), offset+length)
	}

	start := pageFloor(offset)
	pad := int(offset - start)
	mapLen := pad + int(length)

	raw, err := unix.Mmap(int(f.Fd()), start, mapLen, prot, unix.MAP_SHARED)
	if err != nil {
		return nil, errors.Wrapf(verrors.IoError, "raster.Open(%s): mmap: %v", path, err)
	}
	return &Volume{
		file:   f,
		raw:    raw,
		pad:    pad,
		kind:   kind,
		shape:  shape,
		mode:   mode,
		path:   path,
		offset: offset,
	}, nil
}

// Close unmaps and releases the backing file descriptor. Close is
// idempotent; calling it more than once, including from a deferred
// cleanup after an earlier explicit Close, is safe.
func (v *Volume) Close() error {
	if v.closed {
		return nil
	}
	v.closed = true
	var firstErr error
	if err := unix.Munmap(v.raw); err != nil {
		firstErr = errors.Wrapf(verrors.IoError, "raster.Close(%s): munmap: %v", v.path, err)
	}
	if err := v.file.Close(); err != nil && firstErr == nil {
		firstErr = errors.Wrapf(verrors.IoError, "raster.Close(%s): %v", v.path, err)
	}
	return firstErr
}

// Shape returns the volume's (Z, Y, X) extent.
func (v *Volume) Shape() Shape { return v.shape }

// Kind returns the volume's element type.
func (v *Volume) Kind() voltype.Kind { return v.kind }

// Path returns the backing file path, for diagnostics.
func (v *Volume) Path() string { return v.path }

// bytes returns the logical element region of the mapping, i.e. the
// mmap region with the page-alignment padding sliced off.
func (v *Volume) bytes() []byte {
	return v.raw[v.pad : v.pad+int(v.shape.Size())*v.kind.Size()]
}

// view reinterprets the volume's byte window as a slice of T without
// copying. Callers must only call the Txxx accessor matching v.Kind().
func view[T any](v *Volume) []T {
	b := v.bytes()
	n := len(b) / int(unsafe.Sizeof(*new(T)))
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), n)
}

// Uint8 returns the volume's contents as a []byte. Panics if
// v.Kind() != voltype.U8.
func (v *Volume) Uint8() []byte {
	v.mustKind(voltype.U8)
	return v.bytes()
}

// Uint16 returns the volume's contents as a []uint16. Panics if
// v.Kind() != voltype.U16.
func (v *Volume) Uint16() []uint16 {
	v.mustKind(voltype.U16)
	return view[uint16](v)
}

// Uint32 returns the volume's contents as a []uint32. Panics if
// v.Kind() != voltype.U32.
func (v *Volume) Uint32() []uint32 {
	v.mustKind(voltype.U32)
	return view[uint32](v)
}

// Int32 returns the volume's contents as a []int32. Panics if
// v.Kind() != voltype.I32.
func (v *Volume) Int32() []int32 {
	v.mustKind(voltype.I32)
	return view[int32](v)
}

// Float32 returns the volume's contents as a []float32. Panics if
// v.Kind() != voltype.F32.
func (v *Volume) Float32() []float32 {
	v.mustKind(voltype.F32)
	return view[float32](v)
}

// Float64 returns the volume's contents as a []float64. Panics if
// v.Kind() != voltype.F64.
func (v *Volume) Float64() []float64 {
	v.mustKind(voltype.F64)
	return view[float64](v)
}

func (v *Volume) mustKind(want voltype.Kind) {
	if v.kind != want {
		log.Panicf("raster: %s is %v, not %v", v.path, v.kind, want)
	}
}

// CheckCompatible returns a verrors.ShapeMismatch error if a and b do
// not have identical shapes.
func CheckCompatible(a, b Shape) error {
	if !a.Equal(b) {
		return errors.Wrapf(verrors.ShapeMismatch, "shapes (%d,%d,%d) vs (%d,%d,%d)", a.Z, a.Y, a.X, b.Z, b.Y, b.X)
	}
	return nil
}
