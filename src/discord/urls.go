package discord

import (
	"fmt"
	"regexp"
	"strings"
)

var urlRegex = regexp.MustCompile(`<?https?://[^\s\[\]()<>]+>?`)

// WrapURLsNoEmbed wraps URLs in angle brackets so agenda and motion text
// does not unfurl into embeds.
func WrapURLsNoEmbed(text string) string {
	return urlRegex.ReplaceAllStringFunc(text, func(url string) string {
		if strings.HasPrefix(url, "<") && strings.HasSuffix(url, ">") {
			return url
		}
		url = strings.TrimPrefix(url, "<")
		url = strings.TrimSuffix(url, ">")
		trimmed := strings.TrimRight(url, ".,;:!?")
		return fmt.Sprintf("<%s>%s", trimmed, url[len(trimmed):])
	})
}
