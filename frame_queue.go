package edustack

import "sync"

// frameQueue is a bounded FIFO ring. Pushing onto a full queue evicts the
// oldest frame.
type frameQueue struct {
	mu    sync.Mutex
	buf   []*PendingFrame
	head  int
	count int
}

func newFrameQueue(capacity int) *frameQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &frameQueue{buf: make([]*PendingFrame, capacity)}
}

// push appends f and reports whether the oldest frame was evicted.
func (q *frameQueue) push(f *PendingFrame) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	evicted := false
	if q.count == len(q.buf) {
		q.buf[q.head] = nil
		q.head = (q.head + 1) % len(q.buf)
		q.count--
		evicted = true
	}

	q.buf[(q.head+q.count)%len(q.buf)] = f
	q.count++
	return evicted
}

func (q *frameQueue) pop() (*PendingFrame, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		return nil, false
	}

	f := q.buf[q.head]
	q.buf[q.head] = nil
	q.head = (q.head + 1) % len(q.buf)
	q.count--
	return f, true
}

func (q *frameQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}
