package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go-clinic-management/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// NotificationChannelPrefix + user id is the Pub/Sub channel of one user
	NotificationChannelPrefix = "notifications:user:"

	broadcastTimeout = 2 * time.Second
)

// Broadcaster pushes a committed notification to connected clients.
type Broadcaster interface {
	Publish(ctx context.Context, notification entity.Notification) error
}

// NotificationEvent is the payload published on a user's channel.
type NotificationEvent struct {
	EventID      string              `json:"event_id"`
	Notification entity.Notification `json:"notification"`
	SentAt       time.Time           `json:"sent_at"`
}

func NotificationChannel(userID uint) string {
	return fmt.Sprintf("%s%d", NotificationChannelPrefix, userID)
}

type redisBroadcaster struct {
	client *redis.Client
}

func NewRedisBroadcaster(client *redis.Client) Broadcaster {
	return &redisBroadcaster{client: client}
}

func (b *redisBroadcaster) Publish(ctx context.Context, notification entity.Notification) error {
	data, err := json.Marshal(NotificationEvent{
		EventID:      uuid.NewString(),
		Notification: notification,
		SentAt:       time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal notification %d: %w", notification.ID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, broadcastTimeout)
	defer cancel()
	if err := b.client.Publish(ctx, NotificationChannel(notification.UserID), data).Err(); err != nil {
		return fmt.Errorf("publish notification %d: %w", notification.ID, err)
	}
	return nil
}

type noopBroadcaster struct{}

// NewNoopBroadcaster drops every notification. Used when Redis is not configured.
func NewNoopBroadcaster() Broadcaster {
	return noopBroadcaster{}
}

func (noopBroadcaster) Publish(context.Context, entity.Notification) error {
	return nil
}
