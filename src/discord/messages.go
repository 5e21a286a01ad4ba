package discord

import (
	"strings"
)

const (
	MaxDiscordMessageLen = 2000
	SafeChunkLen         = 1900
	continuedMarker      = "\n*(continued...)*"
)

// BuildReplyMessages packs reply lines into as few Discord messages as fit.
// Lines are never split unless a single line exceeds SafeChunkLen on its own.
func BuildReplyMessages(lines []string) []string {
	var (
		messages []string
		current  strings.Builder
	)
	flush := func() {
		if current.Len() > 0 {
			messages = append(messages, current.String())
			current.Reset()
		}
	}

	for _, line := range lines {
		line = WrapURLsNoEmbed(line)
		for len(line) > SafeChunkLen {
			flush()
			cut := splitPoint(line, SafeChunkLen)
			messages = append(messages, line[:cut])
			line = strings.TrimLeft(line[cut:], " ")
		}
		if current.Len() > 0 && current.Len()+1+len(line) > SafeChunkLen {
			flush()
		}
		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(line)
	}
	flush()

	for i := 0; i < len(messages)-1; i++ {
		messages[i] += continuedMarker
	}
	return messages
}

// splitPoint finds the last space before limit, falling back to a rune
// boundary so multi-byte characters are not cut.
func splitPoint(s string, limit int) int {
	if idx := strings.LastIndexByte(s[:limit], ' '); idx > limit/2 {
		return idx
	}
	for limit > 0 && !isRuneStart(s[limit]) {
		limit--
	}
	return limit
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
