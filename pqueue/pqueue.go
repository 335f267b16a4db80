// Copyright 2024 The Volcore Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package pqueue implements a min-heap of Heapitem ordered first by
// age ascending, then by value ascending. It backs the watershed and
// diffuse flooders, each of which owns one Queue for the lifetime of a
// single filter invocation, never a process-wide singleton.
package pqueue

import "container/heap"

// Heapitem is one entry in the priority queue.
type Heapitem struct {
	Value  float64
	Age    int64
	Index  int
	Source int
}

// innerHeap implements container/heap.Interface with (age, value)
// ordering: ties in age are broken by value.
type innerHeap []Heapitem

func (h innerHeap) Len() int { return len(h) }

func (h innerHeap) Less(i, j int) bool {
	if h[i].Age != h[j].Age {
		return h[i].Age < h[j].Age
	}
	return h[i].Value < h[j].Value
}

func (h innerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *innerHeap) Push(x interface{}) {
	*h = append(*h, x.(Heapitem))
}

func (h *innerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Queue is a locally owned min-heap of Heapitem. The zero value is not
// ready for use; call New.
type Queue struct {
	h innerHeap
}

// New returns an empty Queue with capacity preallocated for hint
// items (0 is a valid hint).
func New(hint int) *Queue {
	return &Queue{h: make(innerHeap, 0, hint)}
}

// Push adds item to the queue.
func (q *Queue) Push(item Heapitem) {
	heap.Push(&q.h, item)
}

// Pop removes and returns the minimum item. Panics if the queue is
// empty; callers must check Size first.
func (q *Queue) Pop() Heapitem {
	return heap.Pop(&q.h).(Heapitem)
}

// Size returns the number of items currently queued.
func (q *Queue) Size() int { return q.h.Len() }

// Done releases the queue's backing storage. The Queue must not be
// used again afterward.
func (q *Queue) Done() {
	q.h = nil
}
