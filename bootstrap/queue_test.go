package bootstrap

import (
	"context"
	"testing"
	"time"
)

func TestQueueTryEnqueueFullReturnsError(t *testing.T) {
	q := NewQueue(2)
	if err := q.TryEnqueue(Request{}); err != nil {
		t.Fatalf("first enqueue: %v", err)
	}
	if err := q.TryEnqueue(Request{}); err != nil {
		t.Fatalf("second enqueue: %v", err)
	}
	if err := q.TryEnqueue(Request{}); err != ErrQueueFull {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if q.Len() != 2 {
		t.Fatalf("expected Len()=2, got %d", q.Len())
	}
}

func TestQueueEnqueueBlocksUntilCtxDone(t *testing.T) {
	q := NewQueue(1)
	if err := q.TryEnqueue(Request{}); err != nil {
		t.Fatalf("fill queue: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := q.Enqueue(ctx, Request{})
	if err != context.DeadlineExceeded {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
}

func TestQueueDequeueOrder(t *testing.T) {
	q := NewQueue(4)
	first := Request{Frontier: &FrontierRequest{MaxCount: 1}}
	second := Request{Bulk: &BulkBlockRequest{Count: 2}}
	if err := q.TryEnqueue(first); err != nil {
		t.Fatalf("enqueue first: %v", err)
	}
	if err := q.TryEnqueue(second); err != nil {
		t.Fatalf("enqueue second: %v", err)
	}

	ctx := context.Background()
	got1, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("dequeue first: %v", err)
	}
	if got1.Frontier == nil || got1.Frontier.MaxCount != 1 {
		t.Fatalf("expected first request, got %+v", got1)
	}
	got2, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("dequeue second: %v", err)
	}
	if got2.Bulk == nil || got2.Bulk.Count != 2 {
		t.Fatalf("expected second request, got %+v", got2)
	}
}

func TestQueueDequeueBlocksUntilCtxDone(t *testing.T) {
	q := NewQueue(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := q.Dequeue(ctx)
	if err != context.DeadlineExceeded {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
}
