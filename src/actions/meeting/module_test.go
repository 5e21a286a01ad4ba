package meeting

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stake-plus/govmeet/src/config"
	"github.com/stretchr/testify/assert"
)

func TestCommandLinePrefix(t *testing.T) {
	b := &Module{config: &config.MeetingConfig{CommandPrefix: "!meeting "}}

	line, ok := b.commandLine("!meeting agenda add Budget")
	assert.True(t, ok)
	assert.Equal(t, "agenda add Budget", line)

	line, ok = b.commandLine("!MEETING status")
	assert.True(t, ok)
	assert.Equal(t, "status", line)

	_, ok = b.commandLine("hello there")
	assert.False(t, ok)
	_, ok = b.commandLine("!meet")
	assert.False(t, ok)
}

func TestChairRoleGatesMutations(t *testing.T) {
	b := &Module{config: &config.MeetingConfig{ChairRoleID: "chair"}}
	chair := &discordgo.Member{Roles: []string{"chair"}}
	member := &discordgo.Member{Roles: []string{"member"}}

	assert.True(t, b.allowed("status", member))
	assert.True(t, b.allowed("agenda list", nil))
	assert.False(t, b.allowed("start", member))
	assert.False(t, b.allowed("motion add x", nil))
	assert.True(t, b.allowed("start", chair))

	open := &Module{config: &config.MeetingConfig{}}
	assert.True(t, open.allowed("start", nil))
}

func TestNewSessionNeedsToken(t *testing.T) {
	_, err := NewSession(&config.MeetingConfig{})
	assert.Error(t, err)

	s, err := NewSession(&config.MeetingConfig{Base: config.Base{Token: "abc"}})
	assert.NoError(t, err)
	assert.NotZero(t, s.Identify.Intents&discordgo.IntentsMessageContent)
}
