package jobs

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
)

// Client enqueues background tasks on Redis.
type Client struct {
	q *asynq.Client
}

func NewClient(redisAddr string) *Client {
	return &Client{q: asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})}
}

func (c *Client) EnqueueChatTitle(ctx context.Context, p ChatTitlePayload) error {
	task, err := NewChatTitleTask(p)
	if err != nil {
		return err
	}
	if _, err := c.q.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue %s: %w", TaskChatTitle, err)
	}
	return nil
}

func (c *Client) Close() error { return c.q.Close() }
