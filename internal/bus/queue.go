package bus

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Queue wraps the durable "queue:worldgen" Redis list (spec.md §4.3). Every
// element is a catalogue job ID, not the job's payload: the SQL row in
// internal/catalogue remains the source of truth for status and payload.
// The startup reconciliation pass (ResetDanglingInProgress) re-pushes only
// jobs left InProgress; a Pending job whose entry was lost is not re-queued,
// and a duplicated entry is not removed.
//
// Removal targets one observed position, not FIFO order: the processor wants to drain by
// spawn-proximity rather than FIFO order, so it has to pull a specific
// element out of the middle of the list. Redis lists have no atomic
// "remove by index" primitive, so Remove uses a sentinel-swap: verify the
// element is still what the caller observed, LSET it to a unique sentinel,
// then LREM that sentinel. If the element moved (a concurrent push or pop
// shifted indices underneath it) Remove reports ok=false and the caller
// re-reads the list and retries against fresh positions.
type Queue struct {
	client *redis.Client
	key    string
}

// NewQueue wraps client for operations against key (normally QueueWorldgen).
func NewQueue(client *redis.Client, key string) *Queue {
	return &Queue{client: client, key: key}
}

// Push appends a job ID to the tail of the queue.
func (q *Queue) Push(ctx context.Context, jobID int64) error {
	return q.client.RPush(ctx, q.key, strconv.FormatInt(jobID, 10)).Err()
}

// List returns every job ID currently queued, in list order.
func (q *Queue) List(ctx context.Context) ([]int64, error) {
	raw, err := q.client.LRange(ctx, q.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("bus: LRANGE %s: %w", q.key, err)
	}
	ids := make([]int64, 0, len(raw))
	for _, s := range raw {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			continue // a stray sentinel mid-swap from a concurrent Remove; ignore it
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Remove pulls jobID out of the list at the index the caller observed it
// at (from a prior List call). ok is false if the element had already
// moved — the caller should call List again and retry against the new
// positions rather than treat this as an error.
func (q *Queue) Remove(ctx context.Context, index int64, jobID int64) (ok bool, err error) {
	want := strconv.FormatInt(jobID, 10)
	cur, err := q.client.LIndex(ctx, q.key, index).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("bus: LINDEX %s[%d]: %w", q.key, index, err)
	}
	if cur != want {
		return false, nil
	}

	sentinel := "__removed:" + uuid.New().String()
	if err := q.client.LSet(ctx, q.key, index, sentinel).Err(); err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("bus: LSET %s[%d]: %w", q.key, index, err)
	}
	removed, err := q.client.LRem(ctx, q.key, 1, sentinel).Result()
	if err != nil {
		return false, fmt.Errorf("bus: LREM %s: %w", q.key, err)
	}
	return removed == 1, nil
}

// Len reports the current queue depth, used by the CLI status command.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("bus: LLEN %s: %w", q.key, err)
	}
	return n, nil
}
