// Package meeting runs the meeting commands on Discord.
package meeting

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/stake-plus/govmeet/src/actions/core"
	"github.com/stake-plus/govmeet/src/config"
	shareddiscord "github.com/stake-plus/govmeet/src/discord"
	"github.com/stake-plus/govmeet/src/logging"
	"github.com/stake-plus/govmeet/src/meeting/commands"
	"github.com/stake-plus/govmeet/src/meeting/engine"
)

var _ core.Module = (*Module)(nil)

const noPermission = "You don't have permission to use this command."

type Module struct {
	config     *config.MeetingConfig
	session    *discordgo.Session
	dispatcher *commands.Dispatcher
	runtimeCtx context.Context
	cancel     context.CancelFunc
}

// NewSession creates the bot session with the intents the module needs.
func NewSession(cfg *config.MeetingConfig) (*discordgo.Session, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("meeting: discord token is not configured")
	}
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent
	return session, nil
}

func NewModule(cfg *config.MeetingConfig, session *discordgo.Session, e *engine.Engine) *Module {
	m := &Module{
		config:     cfg,
		session:    session,
		dispatcher: commands.NewDispatcher(e, "discord"),
		runtimeCtx: context.Background(),
	}
	m.initHandlers()
	return m
}

// Name implements actions.Module.
func (b *Module) Name() string { return "meeting" }

func (b *Module) initHandlers() {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onInteractionCreate)
	b.session.AddHandler(b.onMessageCreate)
}

func (b *Module) onReady(s *discordgo.Session, r *discordgo.Ready) {
	log.Printf("Meeting bot logged in as: %s", s.State.User.Username)

	if b.config.GuildID == "" {
		log.Printf("meeting: guild id not configured, slash commands not registered")
		return
	}
	if b.config.ResetCommands {
		if err := shareddiscord.DeleteSlashCommands(s, b.config.GuildID); err != nil {
			log.Printf("meeting: failed to delete old slash commands: %v", err)
		}
	}
	if err := shareddiscord.RegisterSlashCommands(s, b.config.GuildID); err != nil {
		log.Printf("meeting: failed to register slash commands: %v", err)
	} else {
		log.Printf("meeting: slash commands registered")
	}
}

func (b *Module) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	if !shareddiscord.IsMeetingCommand(data.Name) {
		return
	}

	line, err := shareddiscord.CommandLine(data)
	if err != nil {
		log.Printf("meeting: %v", err)
		b.respond(s, i.Interaction, []string{"Unrecognised command."}, true)
		return
	}
	if !b.allowed(line, i.Member) {
		b.respond(s, i.Interaction, []string{noPermission}, true)
		return
	}

	reply := b.dispatcher.Handle(b.runtimeCtx, i.ChannelID, line)
	b.respond(s, i.Interaction, reply.Lines, reply.Error)
}

func (b *Module) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	line, ok := b.commandLine(m.Content)
	if !ok {
		return
	}
	permitted := b.allowed(line, m.Member)
	if !permitted && m.Member == nil && m.GuildID != "" {
		permitted = shareddiscord.HasRole(s, m.GuildID, m.Author.ID, b.config.ChairRoleID)
	}
	if !permitted {
		b.send(s, m.ChannelID, []string{noPermission})
		return
	}

	reply := b.dispatcher.Handle(b.runtimeCtx, m.ChannelID, line)
	b.send(s, m.ChannelID, reply.Lines)
}

// commandLine strips the configured prefix; the match ignores case.
func (b *Module) commandLine(content string) (string, bool) {
	prefix := b.config.CommandPrefix
	if len(content) < len(prefix) || !strings.EqualFold(content[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(content[len(prefix):]), true
}

// allowed gates state changes behind the chair role when one is configured.
func (b *Module) allowed(line string, member *discordgo.Member) bool {
	if b.config.ChairRoleID == "" || !commands.Mutating(line) {
		return true
	}
	return shareddiscord.MemberHasRole(member, b.config.ChairRoleID)
}

func (b *Module) respond(s *discordgo.Session, i *discordgo.Interaction, lines []string, ephemeral bool) {
	if err := shareddiscord.RespondReply(s, i, lines, ephemeral); err != nil {
		b.logSendError(i.ChannelID, err)
	}
}

func (b *Module) send(s *discordgo.Session, channelID string, lines []string) {
	if err := shareddiscord.SendReply(s, channelID, lines); err != nil {
		b.logSendError(channelID, err)
	}
}

func (b *Module) logSendError(channelID string, err error) {
	if logging.IsRateLimit(err) {
		log.Printf("meeting: rate limited replying in %s: %v", channelID, err)
		return
	}
	log.Printf("meeting: failed to reply in %s: %v", channelID, err)
}

func (b *Module) Start(ctx context.Context) error {
	runtimeCtx, cancel := context.WithCancel(ctx)
	b.runtimeCtx = runtimeCtx
	b.cancel = cancel

	if err := b.session.Open(); err != nil {
		cancel()
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}
	return nil
}

func (b *Module) Stop(ctx context.Context) {
	if b.cancel != nil {
		b.cancel()
	}
	if b.session != nil {
		b.session.Close()
	}
}
