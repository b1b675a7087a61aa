package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFIFOQueueOrder(t *testing.T) {
	q := NewFIFOQueue()
	var order []string
	for _, name := range []string{"a", "b", "c"} {
		name := name
		q.Enqueue(Job{Name: name, Run: func() { order = append(order, name) }})
	}
	require.Equal(t, 3, q.Len())

	for {
		job, ok := q.Dequeue()
		if !ok {
			break
		}
		job.Run()
	}
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, 0, q.Len())
}

func TestFIFOQueueJobsEnqueuedWhileDraining(t *testing.T) {
	q := NewFIFOQueue()
	var order []int
	q.Enqueue(Job{Run: func() {
		order = append(order, 1)
		q.Enqueue(Job{Run: func() { order = append(order, 3) }})
	}})
	q.Enqueue(Job{Run: func() { order = append(order, 2) }})

	for job, ok := q.Dequeue(); ok; job, ok = q.Dequeue() {
		job.Run()
	}
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestFIFOQueueCompaction(t *testing.T) {
	q := NewFIFOQueue()
	for i := 0; i < 200; i++ {
		q.Enqueue(Job{Name: "x"})
	}
	for i := 0; i < 150; i++ {
		_, ok := q.Dequeue()
		require.True(t, ok)
	}
	assert.Equal(t, 50, q.Len())

	seen := 0
	q.Each(func(Job) { seen++ })
	assert.Equal(t, 50, seen)

	q.Reset()
	_, ok := q.Dequeue()
	assert.False(t, ok)
}
