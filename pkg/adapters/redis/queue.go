package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"

	"github.com/camino-run/camino/pkg/domain"
	"github.com/camino-run/camino/pkg/ports"
)

const (
	defaultPollInterval      = 250 * time.Millisecond
	defaultVisibilityTimeout = 30 * time.Second
)

// Queue implements ports.Scheduler on two sorted sets: "scheduled" holds
// tasks keyed by ready-at time, "claimed" holds delivered-but-unacked tasks
// keyed by their claim deadline. Expired claims flow back to "scheduled",
// which is what makes delivery at-least-once.
type Queue struct {
	client       *backend.Client
	prefix       string
	pollInterval time.Duration
	visibility   time.Duration
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithQueuePrefix sets the key prefix.
func WithQueuePrefix(prefix string) QueueOption {
	return func(q *Queue) {
		q.prefix = prefix
	}
}

// WithPollInterval sets how often idle workers look for ready tasks.
func WithPollInterval(d time.Duration) QueueOption {
	return func(q *Queue) {
		q.pollInterval = d
	}
}

// WithVisibilityTimeout sets how long a claimed task stays invisible before
// it is handed to another worker.
func WithVisibilityTimeout(d time.Duration) QueueOption {
	return func(q *Queue) {
		q.visibility = d
	}
}

// NewQueue creates a Redis-backed scheduler from an existing client.
func NewQueue(client *backend.Client, opts ...QueueOption) *Queue {
	q := &Queue{
		client:       client,
		prefix:       defaultPrefix,
		pollInterval: defaultPollInterval,
		visibility:   defaultVisibilityTimeout,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (q *Queue) scheduledKey() string { return q.prefix + "queue:scheduled" }

func (q *Queue) claimedKey() string { return q.prefix + "queue:claimed" }

func (q *Queue) taskKey(id string) string { return q.prefix + "queue:task:" + id }

func (q *Queue) Enqueue(ctx context.Context, task domain.StepTask, delay time.Duration) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	if delay < 0 {
		delay = 0
	}

	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}
	readyAt := time.Now().Add(delay).UnixMilli()

	pipe := q.client.Pipeline()
	pipe.Set(ctx, q.taskKey(task.ID), payload, 0)
	pipe.ZAdd(ctx, q.scheduledKey(), backend.Z{Score: float64(readyAt), Member: task.ID})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	return nil
}

// claimScript atomically moves the first ready task from "scheduled" to
// "claimed" so exactly one worker receives it.
var claimScript = backend.NewScript(`
	local ids = redis.call("ZRANGEBYSCORE", KEYS[1], "-inf", ARGV[1], "LIMIT", 0, 1)
	if #ids == 0 then
		return false
	end
	redis.call("ZREM", KEYS[1], ids[1])
	redis.call("ZADD", KEYS[2], ARGV[2], ids[1])
	return ids[1]
`)

// reclaimScript returns expired claims to "scheduled" for redelivery.
var reclaimScript = backend.NewScript(`
	local ids = redis.call("ZRANGEBYSCORE", KEYS[1], "-inf", ARGV[1])
	for i = 1, #ids do
		redis.call("ZREM", KEYS[1], ids[i])
		redis.call("ZADD", KEYS[2], ARGV[1], ids[i])
	end
	return #ids
`)

// Dequeue polls for a ready task using a ticker loop, the same acquisition
// pattern as a Redis lock. It returns when a task is claimed or ctx is done.
func (q *Queue) Dequeue(ctx context.Context) (*domain.StepTask, ports.AckFunc, error) {
	ticker := time.NewTicker(q.pollInterval)
	defer ticker.Stop()

	for {
		task, ack, err := q.tryClaim(ctx)
		if err != nil {
			return nil, nil, err
		}
		if task != nil {
			return task, ack, nil
		}

		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (q *Queue) tryClaim(ctx context.Context) (*domain.StepTask, ports.AckFunc, error) {
	now := time.Now().UnixMilli()

	if err := reclaimScript.Run(ctx, q.client,
		[]string{q.claimedKey(), q.scheduledKey()},
		strconv.FormatInt(now, 10),
	).Err(); err != nil && err != backend.Nil {
		return nil, nil, fmt.Errorf("failed to reclaim expired tasks: %w", err)
	}

	res, err := claimScript.Run(ctx, q.client,
		[]string{q.scheduledKey(), q.claimedKey()},
		strconv.FormatInt(now, 10),
		strconv.FormatInt(time.Now().Add(q.visibility).UnixMilli(), 10),
	).Text()
	if err != nil {
		if err == backend.Nil {
			return nil, nil, nil // nothing ready
		}
		return nil, nil, fmt.Errorf("failed to claim task: %w", err)
	}

	payload, err := q.client.Get(ctx, q.taskKey(res)).Result()
	if err != nil {
		if err == backend.Nil {
			// Payload vanished (acked by a racing claim); drop the claim.
			q.client.ZRem(ctx, q.claimedKey(), res)
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to load task payload: %w", err)
	}

	var task domain.StepTask
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	ack := func(ctx context.Context) error {
		pipe := q.client.Pipeline()
		pipe.ZRem(ctx, q.claimedKey(), task.ID)
		pipe.Del(ctx, q.taskKey(task.ID))
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("failed to ack task: %w", err)
		}
		return nil
	}
	return &task, ack, nil
}

// Close closes the redis client.
func (q *Queue) Close() error {
	return q.client.Close()
}
