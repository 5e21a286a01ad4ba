package engine

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

const maxTextRunes = 1000

var strictPolicy = bluemonday.StrictPolicy()

// cleanText strips markup and surrounding whitespace from user supplied text.
func cleanText(field, text string) (string, error) {
	cleaned := html.UnescapeString(strictPolicy.Sanitize(text))
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned == "" {
		return "", fmt.Errorf("%w: %s is empty", ErrInvalidArgument, field)
	}
	if n := utf8.RuneCountInString(cleaned); n > maxTextRunes {
		return "", fmt.Errorf("%w: %s is %d characters, limit is %d", ErrInvalidArgument, field, n, maxTextRunes)
	}
	return cleaned, nil
}
