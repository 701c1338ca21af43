package bus

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testQueue(t *testing.T) *Queue {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewQueue(client, QueueWorldgen)
}

func TestQueuePushListLen(t *testing.T) {
	ctx := context.Background()
	q := testQueue(t)

	for _, id := range []int64{1, 2, 3} {
		if err := q.Push(ctx, id); err != nil {
			t.Fatalf("Push(%d): %v", id, err)
		}
	}

	ids, err := q.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ids) != 3 || ids[0] != 1 || ids[2] != 3 {
		t.Fatalf("List = %v, want [1 2 3]", ids)
	}
	n, err := q.Len(ctx)
	if err != nil || n != 3 {
		t.Fatalf("Len = %d, %v, want 3", n, err)
	}
}

func TestQueueRemoveMiddleElement(t *testing.T) {
	ctx := context.Background()
	q := testQueue(t)
	q.Push(ctx, 10)
	q.Push(ctx, 20)
	q.Push(ctx, 30)

	ok, err := q.Remove(ctx, 1, 20)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !ok {
		t.Fatalf("expected Remove to report ok=true")
	}

	ids, _ := q.List(ctx)
	if len(ids) != 2 || ids[0] != 10 || ids[1] != 30 {
		t.Fatalf("List after remove = %v, want [10 30]", ids)
	}
}

func TestQueueRemoveStaleIndexAbandonsRetry(t *testing.T) {
	ctx := context.Background()
	q := testQueue(t)
	q.Push(ctx, 10)
	q.Push(ctx, 20)

	// Caller observed jobID 999 at index 1, but by the time Remove runs the
	// list has shifted and index 1 holds 20 instead.
	ok, err := q.Remove(ctx, 1, 999)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if ok {
		t.Fatalf("expected Remove to abandon on a stale index, got ok=true")
	}

	ids, _ := q.List(ctx)
	if len(ids) != 2 {
		t.Fatalf("abandoned Remove must not mutate the list, got %v", ids)
	}
}

func TestQueueRemoveOutOfRangeIndex(t *testing.T) {
	ctx := context.Background()
	q := testQueue(t)
	q.Push(ctx, 10)

	ok, err := q.Remove(ctx, 5, 10)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if ok {
		t.Fatalf("expected ok=false for an out-of-range index")
	}
}
