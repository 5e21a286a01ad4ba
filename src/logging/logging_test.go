package logging

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRateLimit(t *testing.T) {
	assert.False(t, IsRateLimit(nil))
	assert.False(t, IsRateLimit(errors.New("boom")))
	assert.True(t, IsRateLimit(errors.New("HTTP 429 Too Many Requests")))
	assert.True(t, IsRateLimit(fmt.Errorf("send: %w", &discordgo.RateLimitError{RateLimit: &discordgo.RateLimit{TooManyRequests: &discordgo.TooManyRequests{}, URL: "/channels"}})))
}

func TestSetupWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "govmeet.log")
	closer := Setup(Options{File: path, MaxSizeMB: 1, MaxBackups: 1})
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		closer.Close()
	})

	log.Printf("test: hello")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "test: hello")
}
