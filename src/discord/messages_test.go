package discord

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildReplyMessagesShortReply(t *testing.T) {
	got := BuildReplyMessages([]string{"Item 1: Budget", "Item 2: Hiring"})
	assert.Equal(t, []string{"Item 1: Budget\nItem 2: Hiring"}, got)
	assert.Empty(t, BuildReplyMessages(nil))
}

func TestBuildReplyMessagesChunksOnLineBoundaries(t *testing.T) {
	line := strings.Repeat("a", 900)
	got := BuildReplyMessages([]string{line, line, line})

	require.Len(t, got, 2)
	assert.Equal(t, line+"\n"+line+continuedMarker, got[0])
	assert.Equal(t, line, got[1])
	for _, msg := range got {
		assert.LessOrEqual(t, len(msg), MaxDiscordMessageLen)
	}
}

func TestBuildReplyMessagesSplitsOversizedLine(t *testing.T) {
	words := strings.Repeat("motion ", 600)
	got := BuildReplyMessages([]string{words})

	require.Greater(t, len(got), 1)
	for _, msg := range got {
		assert.LessOrEqual(t, len(msg), MaxDiscordMessageLen)
	}
}

func TestWrapURLsNoEmbed(t *testing.T) {
	cases := map[string]string{
		"see https://example.org/a":       "see <https://example.org/a>",
		"see https://example.org/a.":      "see <https://example.org/a>.",
		"already <https://example.org/b>": "already <https://example.org/b>",
		"no links here":                   "no links here",
	}
	for in, want := range cases {
		assert.Equal(t, want, WrapURLsNoEmbed(in), in)
	}
}
