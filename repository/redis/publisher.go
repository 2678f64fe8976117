package redis

import (
	"context"

	redislib "github.com/redis/go-redis/v9"
)

// Publisher pushes serialized notifications to a per-user channel. Delivery to
// connected clients is left to whoever subscribes.
type Publisher struct {
	client *redislib.Client
	prefix string
}

func NewPublisher(client *redislib.Client, prefix string) *Publisher {
	if prefix == "" {
		prefix = "notifications:"
	}
	return &Publisher{client: client, prefix: prefix}
}

// Channel returns the channel name for userID.
func (p *Publisher) Channel(userID string) string {
	return p.prefix + userID
}

// Publish sends payload and returns the number of subscribers that got it.
func (p *Publisher) Publish(ctx context.Context, userID string, payload []byte) (int64, error) {
	return p.client.Publish(ctx, p.Channel(userID), payload).Result()
}
