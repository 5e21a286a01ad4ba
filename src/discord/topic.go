package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/stake-plus/govmeet/src/meeting/engine"
)

// Discord caps channel topics at 1024 characters.
const maxTopicLen = 1024

// TopicNotifier applies meeting notifications as channel topic changes.
type TopicNotifier struct {
	session *discordgo.Session
}

var _ engine.Notifier = (*TopicNotifier)(nil)

func NewTopicNotifier(s *discordgo.Session) *TopicNotifier {
	return &TopicNotifier{session: s}
}

func (t *TopicNotifier) Notify(ctx context.Context, n engine.Notification) error {
	if n.Type != engine.NotificationTopic {
		return nil
	}
	topic := n.Text
	if r := []rune(topic); len(r) > maxTopicLen {
		topic = string(r[:maxTopicLen])
	}
	_, err := t.session.ChannelEdit(n.Channel, &discordgo.ChannelEdit{Topic: topic}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord: set topic of %s: %w", n.Channel, err)
	}
	return nil
}
