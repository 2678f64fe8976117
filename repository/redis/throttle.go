package redis

import (
	"context"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

// ScanThrottle grants at most one on-demand deadline scan per user per TTL.
type ScanThrottle struct {
	client *redislib.Client
	prefix string
}

func NewScanThrottle(client *redislib.Client) *ScanThrottle {
	return &ScanThrottle{client: client, prefix: "deadline-scan:"}
}

// Acquire reports true when no scan for userID ran within ttl.
func (t *ScanThrottle) Acquire(ctx context.Context, userID string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return true, nil
	}
	return t.client.SetNX(ctx, t.prefix+userID, time.Now().UTC().Format(time.RFC3339), ttl).Result()
}
