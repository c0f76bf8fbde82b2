package bootstrap

import "context"

// Request is one outstanding ask issued on a bootstrap connection,
// either a frontier pull or a bulk-block pull.
type Request struct {
	Frontier *FrontierRequest
	Bulk     *BulkBlockRequest
}

// Queue is a bounded outstanding-request backpressure queue for one
// bootstrap connection (spec §4.5: "the request queue on a bootstrap
// connection is bounded (≤10 outstanding); producers block on
// enqueue"). Implemented as a buffered channel, the idiomatic Go
// answer to a bounded producer/consumer queue — the teacher's own
// p2p layer has no direct analog (it is request/response per message,
// not a pipelined queue), so this is grounded on spec §4.5's own text
// rather than a teacher file.
type Queue struct {
	ch chan Request
}

// NewQueue builds a Queue with the given capacity (spec default: 10).
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 10
	}
	return &Queue{ch: make(chan Request, capacity)}
}

// Enqueue blocks until there is room, or ctx is done. A slow server
// drains slowly, which backs this up and in turn blocks whatever is
// producing requests — the "stop queueing rather than unbounded
// buffering" behavior spec §4.5 asks for.
func (q *Queue) Enqueue(ctx context.Context, r Request) error {
	select {
	case q.ch <- r:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryEnqueue attempts a non-blocking enqueue, returning ErrQueueFull
// if the queue is at capacity.
func (q *Queue) TryEnqueue(r Request) error {
	select {
	case q.ch <- r:
		return nil
	default:
		return ErrQueueFull
	}
}

// Dequeue blocks until a request is available, or ctx is done.
func (q *Queue) Dequeue(ctx context.Context) (Request, error) {
	select {
	case r := <-q.ch:
		return r, nil
	case <-ctx.Done():
		return Request{}, ctx.Err()
	}
}

// Len reports how many requests are currently outstanding.
func (q *Queue) Len() int { return len(q.ch) }
