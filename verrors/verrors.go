// Copyright 2024 The Volcore Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package verrors defines the sentinel error kinds that every volcore
// filter surfaces to its caller. Filters wrap these with
// github.com/pkg/errors so callers can recover the kind with
// errors.Cause while still getting a contextual message.
package verrors

import "github.com/pkg/errors"

// Sentinel error kinds.
var (
	// IoError marks a mmap open/create/unmap failure or a short file.
	IoError = errors.New("volcore: io error")

	// ShapeMismatch marks that input and output volumes disagree on
	// (Z, Y, X).
	ShapeMismatch = errors.New("volcore: shape mismatch")

	// TypeMismatch marks an element type outside the filter's fused
	// type set.
	TypeMismatch = errors.New("volcore: type mismatch")

	// SeedOutOfRange marks a watershed or diffuse seed whose raveled
	// index is >= the volume size.
	SeedOutOfRange = errors.New("volcore: seed out of range")

	// MaskBoundaryViolation marks a flood (watershed or diffuse) that
	// reached an unmasked voxel adjacent to the volume edge without a
	// halo to absorb it. No caller in this package actually detects
	// this condition today — callers are required to pad their mask
	// with a masked-off border instead — but the kind is part of the
	// documented error vocabulary so callers can match on it if a
	// future boundary check is added.
	MaskBoundaryViolation = errors.New("volcore: mask boundary violation")

	// InternalInvariant marks a heap underflow, label overflow, or
	// other condition that indicates a bug rather than bad input.
	InternalInvariant = errors.New("volcore: internal invariant violated")
)

// Is reports whether err, or any error it wraps, is the given
// sentinel kind.
func Is(err error, kind error) bool {
	return errors.Cause(err) == kind
}
