package discord

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
)

const (
	CommandMeeting = "meeting"
	CommandAgenda  = "agenda"
	CommandMotion  = "motion"
)

func subcommand(name, description string, options ...*discordgo.ApplicationCommandOption) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        name,
		Description: description,
		Options:     options,
	}
}

func textOption(name, description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        name,
		Description: description,
		Required:    true,
		MaxLength:   1000,
	}
}

func numberOption(name, description string, required bool) *discordgo.ApplicationCommandOption {
	minValue := 0.0
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        name,
		Description: description,
		Required:    required,
		MinValue:    &minValue,
	}
}

var commandDefinitions = map[string]*discordgo.ApplicationCommand{
	CommandMeeting: {
		Name:        CommandMeeting,
		Description: "Manage the meeting of this channel",
		Options: []*discordgo.ApplicationCommandOption{
			subcommand("prepare", "Create a meeting and make it current", textOption("name", "Meeting name")),
			subcommand("start", "Start the current meeting"),
			subcommand("adjourn", "Adjourn the current meeting"),
			subcommand("switchid", "Make another meeting of this channel current",
				numberOption("id", "Meeting id", true)),
			subcommand("status", "Show the current meeting"),
			subcommand("meetings", "List the meetings of this channel"),
		},
	},
	CommandAgenda: {
		Name:        CommandAgenda,
		Description: "Manage the agenda of the current meeting",
		Options: []*discordgo.ApplicationCommandOption{
			subcommand("add", "Append an agenda item", textOption("text", "Agenda item")),
			subcommand("list", "Show the agenda"),
			subcommand("delete", "Delete an agenda item", numberOption("item", "Item number", true)),
			subcommand("next", "Move to the next agenda item"),
		},
	},
	CommandMotion: {
		Name:        CommandMotion,
		Description: "Manage the motions of the current meeting",
		Options: []*discordgo.ApplicationCommandOption{
			subcommand("add", "Propose a motion", textOption("text", "Motion text")),
			subcommand("amend", "Amend the current motion", textOption("text", "New motion text")),
			subcommand("list", "Show all motions"),
			subcommand("delete", "Delete a motion that has not carried", numberOption("motion", "Motion number", true)),
			subcommand("decide", "Record the vote on a motion",
				&discordgo.ApplicationCommandOption{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "outcome",
					Description: "Whether the motion carried",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "carried", Value: "carried"},
						{Name: "rejected", Value: "rejected"},
					},
				},
				numberOption("aye", "Votes in favour", true),
				numberOption("nay", "Votes against", true),
				numberOption("motion", "Motion number, defaults to the current motion", false),
			),
		},
	},
}

var defaultCommandOrder = []string{
	CommandMeeting,
	CommandAgenda,
	CommandMotion,
}

// IsMeetingCommand reports whether name is one of the registered commands.
func IsMeetingCommand(name string) bool {
	_, ok := commandDefinitions[name]
	return ok
}

// CommandLine turns a slash interaction into the equivalent text command,
// e.g. "/motion decide outcome:carried aye:5 nay:2" into
// "motion decide carried 5 2".
func CommandLine(data discordgo.ApplicationCommandInteractionData) (string, error) {
	def, ok := commandDefinitions[data.Name]
	if !ok {
		return "", fmt.Errorf("discord: unknown command %q", data.Name)
	}
	if len(data.Options) != 1 || data.Options[0].Type != discordgo.ApplicationCommandOptionSubCommand {
		return "", fmt.Errorf("discord: /%s needs a subcommand", data.Name)
	}
	sub := data.Options[0]

	var subDef *discordgo.ApplicationCommandOption
	for _, opt := range def.Options {
		if opt.Name == sub.Name {
			subDef = opt
			break
		}
	}
	if subDef == nil {
		return "", fmt.Errorf("discord: unknown subcommand %s %s", data.Name, sub.Name)
	}

	given := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(sub.Options))
	for _, opt := range sub.Options {
		given[opt.Name] = opt
	}

	parts := []string{}
	if data.Name != CommandMeeting {
		parts = append(parts, data.Name)
	}
	parts = append(parts, sub.Name)
	for _, optDef := range subDef.Options {
		opt, ok := given[optDef.Name]
		if !ok {
			if optDef.Required {
				return "", fmt.Errorf("discord: %s %s is missing %s", data.Name, sub.Name, optDef.Name)
			}
			continue
		}
		switch opt.Type {
		case discordgo.ApplicationCommandOptionInteger:
			parts = append(parts, strconv.FormatInt(opt.IntValue(), 10))
		default:
			parts = append(parts, opt.StringValue())
		}
	}
	return strings.Join(parts, " "), nil
}

// RegisterSlashCommands registers the requested slash commands for a guild.
// When no command names are provided, all known commands are registered.
func RegisterSlashCommands(s *discordgo.Session, guildID string, names ...string) error {
	if guildID == "" {
		return fmt.Errorf("discord: guildID is required to register slash commands")
	}

	if len(names) == 0 {
		names = defaultCommandOrder
	}

	var failures []string
	for _, name := range names {
		definition, ok := commandDefinitions[name]
		if !ok {
			log.Printf("discord: unknown slash command %q", name)
			continue
		}

		_, err := s.ApplicationCommandCreate(s.State.User.ID, guildID, definition)
		if err != nil {
			if isDuplicateCommandError(err) {
				log.Printf("discord: slash command %q already registered", name)
				continue
			}
			failures = append(failures, fmt.Sprintf("%s: %v", name, err))
			log.Printf("discord: failed to register command %q: %v", name, err)
		}
	}

	if len(failures) > 0 {
		return fmt.Errorf("discord: slash command registration errors: %s", strings.Join(failures, "; "))
	}

	return nil
}

// DeleteSlashCommands removes all registered slash commands for a guild.
func DeleteSlashCommands(s *discordgo.Session, guildID string) error {
	if guildID == "" {
		return fmt.Errorf("discord: guildID is required to delete slash commands")
	}

	commands, err := s.ApplicationCommands(s.State.User.ID, guildID)
	if err != nil {
		return err
	}

	for _, cmd := range commands {
		if err := s.ApplicationCommandDelete(s.State.User.ID, guildID, cmd.ID); err != nil {
			return err
		}
	}

	return nil
}

func isDuplicateCommandError(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) {
		if restErr.Message != nil {
			msg := strings.ToLower(restErr.Message.Message)
			if strings.Contains(msg, "already exists") {
				return true
			}
		}
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "50035") && strings.Contains(msg, "already exists")
}
