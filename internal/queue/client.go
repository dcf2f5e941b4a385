package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/jw6ventures/punchclock/internal/timeclock"
)

// displayRefreshWindow collapses bursts of clock events into one sheet write.
const displayRefreshWindow = 5 * time.Second

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Client enqueues clock follow-up work. It satisfies timeclock.Dispatcher.
type Client struct {
	client  enqueuer
	queue   string
	timeout time.Duration
}

var _ timeclock.Dispatcher = (*Client)(nil)

// NewClient connects to the Redis instance behind redisURL.
func NewClient(redisURL, queue string, timeout time.Duration) (*Client, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return newClient(asynq.NewClient(opt), queue, timeout), nil
}

func newClient(e enqueuer, queue string, timeout time.Duration) *Client {
	if queue == "" {
		queue = DefaultQueue
	}
	return &Client{client: e, queue: queue, timeout: timeout}
}

// DispatchRecompute enqueues a one-shot recompute. Failed recomputes are
// not retried.
func (c *Client) DispatchRecompute(ctx context.Context, userID string) error {
	payload, err := json.Marshal(RecomputePayload{UserID: userID})
	if err != nil {
		return fmt.Errorf("encode recompute payload: %w", err)
	}
	return c.enqueue(ctx, asynq.NewTask(TypeRecompute, payload), asynq.MaxRetry(0))
}

// DispatchDisplayRefresh enqueues a display refresh unless one is already
// pending.
func (c *Client) DispatchDisplayRefresh(ctx context.Context) error {
	err := c.enqueue(ctx, asynq.NewTask(TypeDisplayRefresh, nil),
		asynq.MaxRetry(0),
		asynq.Unique(displayRefreshWindow))
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}

func (c *Client) enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) error {
	opts = append(opts, asynq.Queue(c.queue))
	if c.timeout > 0 {
		opts = append(opts, asynq.Timeout(c.timeout))
	}
	if _, err := c.client.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", task.Type(), err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}
