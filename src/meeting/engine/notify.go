package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// NotificationTopic asks the front end to set the channel topic to Text.
const NotificationTopic = "topic"

// Notification is the side effect of starting or adjourning a meeting.
type Notification struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	Channel string    `json:"channel"`
	Text    string    `json:"text"`
	At      time.Time `json:"at"`
}

// Notifier delivers notifications to whatever front end acts on them.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification) error

func (f NotifierFunc) Notify(ctx context.Context, n Notification) error { return f(ctx, n) }

// MultiNotifier fans a notification out to every notifier, in order.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, notifier := range m {
		if notifier == nil {
			continue
		}
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

const notificationStream = "govmeet.notifications"

// StreamNotifier appends notifications to a redis stream for other services.
type StreamNotifier struct {
	rdb    *redis.Client
	stream string
}

func NewStreamNotifier(rdb *redis.Client) *StreamNotifier {
	return &StreamNotifier{rdb: rdb, stream: notificationStream}
}

func (s *StreamNotifier) Notify(ctx context.Context, n Notification) error {
	_, err := s.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]interface{}{
			"id":      n.ID,
			"type":    n.Type,
			"channel": n.Channel,
			"text":    n.Text,
			"at":      n.At.UTC().Format(time.RFC3339),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("notify: xadd %s: %w", s.stream, err)
	}
	return nil
}

func newTopicNotification(channel, text string, at time.Time) Notification {
	return Notification{
		ID:      uuid.NewString(),
		Type:    NotificationTopic,
		Channel: channel,
		Text:    text,
		At:      at,
	}
}
