package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ChannelPrefix prefixes the per-user progress channel.
const ChannelPrefix = "recipegen:jobs:"

type ProgressUpdate struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// ProgressBroadcaster publishes job progress on redis pub/sub.
type ProgressBroadcaster struct {
	client publisher
}

// NewProgressBroadcaster returns a broadcaster. A nil client disables publishing.
func NewProgressBroadcaster(client *redis.Client) *ProgressBroadcaster {
	if client == nil {
		return &ProgressBroadcaster{}
	}
	return &ProgressBroadcaster{client: client}
}

// ChannelName is the channel a user's job updates are published on.
func ChannelName(userID string) string {
	return ChannelPrefix + userID
}

func (b *ProgressBroadcaster) Broadcast(ctx context.Context, userID string, update ProgressUpdate) error {
	if b == nil || b.client == nil || userID == "" {
		return nil
	}

	body, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to marshal progress update: %w", err)
	}

	if err := b.client.Publish(ctx, ChannelName(userID), body).Err(); err != nil {
		return fmt.Errorf("failed to broadcast: %w", err)
	}
	return nil
}
