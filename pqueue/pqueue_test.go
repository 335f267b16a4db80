// Copyright 2024 The Volcore Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package pqueue_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/volcore/pqueue"
)

func TestOrderingAgeThenValue(t *testing.T) {
	q := pqueue.New(0)
	q.Push(pqueue.Heapitem{Value: 5, Age: 2, Index: 1})
	q.Push(pqueue.Heapitem{Value: 1, Age: 2, Index: 2})
	q.Push(pqueue.Heapitem{Value: 100, Age: 1, Index: 3})
	q.Push(pqueue.Heapitem{Value: 0, Age: 3, Index: 4})

	// Age 1 wins regardless of its large value.
	require.Equal(t, 3, q.Pop().Index)
	// Among the two age-2 items, the lower value wins.
	require.Equal(t, 2, q.Pop().Index)
	require.Equal(t, 1, q.Pop().Index)
	require.Equal(t, 4, q.Pop().Index)
	require.Equal(t, 0, q.Size())
}

func TestSizeTracksPushPop(t *testing.T) {
	q := pqueue.New(4)
	require.Equal(t, 0, q.Size())
	q.Push(pqueue.Heapitem{Value: 1, Age: 1})
	q.Push(pqueue.Heapitem{Value: 2, Age: 1})
	require.Equal(t, 2, q.Size())
	q.Pop()
	require.Equal(t, 1, q.Size())
}
