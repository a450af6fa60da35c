package tasks

import (
	"fmt"
	"time"

	"coursecrawler/internal/platform/redis"

	"github.com/hibiken/asynq"
)

const (
	TaskTypeCatalogCrawl = "catalog:crawl"
)

// Client enqueues background tasks on the Redis-backed asynq broker.
type Client struct {
	c          *asynq.Client
	queue      string
	maxRetries int
	timeout    time.Duration
}

// New returns a client for queue. timeout bounds each task's handler context;
// zero leaves asynq's 30 minute default in place.
func New(r *redis.Service, queue string, maxRetries int, timeout time.Duration) *Client {
	return newClient(asynq.NewClient(r.AsynqRedisOpt()), queue, maxRetries, timeout)
}

func newClient(c *asynq.Client, queue string, maxRetries int, timeout time.Duration) *Client {
	if queue == "" {
		queue = "default"
	}
	return &Client{c: c, queue: queue, maxRetries: maxRetries, timeout: timeout}
}

func (t *Client) options() []asynq.Option {
	opts := []asynq.Option{asynq.Queue(t.queue), asynq.MaxRetry(t.maxRetries)}
	if t.timeout > 0 {
		opts = append(opts, asynq.Timeout(t.timeout))
	}
	return opts
}

// Dispatch enqueues a payload of the given type on the configured queue.
func (t *Client) Dispatch(taskType string, payload []byte) error {
	task := asynq.NewTask(taskType, payload)
	if _, err := t.c.Enqueue(task, t.options()...); err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return nil
}

func (t *Client) Close() error { return t.c.Close() }
