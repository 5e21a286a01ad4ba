package discord

import (
	"log"

	"github.com/bwmarrin/discordgo"
)

// SendReply posts reply lines to a channel, chunked to Discord's limit.
func SendReply(s *discordgo.Session, channelID string, lines []string) error {
	for _, content := range BuildReplyMessages(lines) {
		if _, err := s.ChannelMessageSend(channelID, content); err != nil {
			return err
		}
	}
	return nil
}

// RespondReply answers a slash interaction. The first chunk becomes the
// interaction response, the rest follow up. Ephemeral replies are only
// shown to the caller.
func RespondReply(s *discordgo.Session, interaction *discordgo.Interaction, lines []string, ephemeral bool) error {
	chunks := BuildReplyMessages(lines)
	if len(chunks) == 0 {
		chunks = []string{"Done."}
	}

	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}

	err := s.InteractionRespond(interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: chunks[0],
			Flags:   flags,
		},
	})
	if err != nil {
		return err
	}

	for _, content := range chunks[1:] {
		if _, err := s.FollowupMessageCreate(interaction, true, &discordgo.WebhookParams{
			Content: content,
			Flags:   flags,
		}); err != nil {
			log.Printf("discord: follow-up message failed: %v", err)
			return err
		}
	}
	return nil
}
