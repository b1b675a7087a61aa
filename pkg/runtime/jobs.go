package runtime

import "sync"

// Job is a unit of deferred work queued by the engine (a promise reaction or
// a thenable resolution). Realm is the engine realm the job must run in, or
// nil; Roots lists the engine values the job keeps alive.
type Job struct {
	Name  string
	Realm any
	Roots []any
	Run   func()
}

// JobQueue is the agent's job queue. Implementations must hand jobs back in
// the order they were enqueued.
type JobQueue interface {
	// Enqueue appends a job to the tail of the queue.
	Enqueue(job Job)

	// Dequeue removes and returns the head of the queue.
	Dequeue() (Job, bool)

	// Len reports the number of pending jobs.
	Len() int

	// Each visits pending jobs head first without removing them.
	Each(fn func(Job))

	// Reset drops all pending jobs.
	Reset()
}

// FIFOQueue is the default JobQueue. Hosts may enqueue from other goroutines
// (timers, I/O completions); the engine itself drains from one goroutine.
type FIFOQueue struct {
	mu   sync.Mutex
	jobs []Job
	head int
}

// NewFIFOQueue creates an empty queue.
func NewFIFOQueue() *FIFOQueue {
	return &FIFOQueue{jobs: make([]Job, 0, 16)}
}

func (q *FIFOQueue) Enqueue(job Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
}

func (q *FIFOQueue) Dequeue() (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.head >= len(q.jobs) {
		return Job{}, false
	}
	job := q.jobs[q.head]
	q.jobs[q.head] = Job{}
	q.head++
	// Compact once the consumed prefix dominates the backing array.
	if q.head > 64 && q.head*2 > len(q.jobs) {
		n := copy(q.jobs, q.jobs[q.head:])
		q.jobs = q.jobs[:n]
		q.head = 0
	}
	return job, true
}

func (q *FIFOQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs) - q.head
}

func (q *FIFOQueue) Each(fn func(Job)) {
	q.mu.Lock()
	pending := append([]Job(nil), q.jobs[q.head:]...)
	q.mu.Unlock()
	for _, job := range pending {
		fn(job)
	}
}

func (q *FIFOQueue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = q.jobs[:0]
	q.head = 0
}
