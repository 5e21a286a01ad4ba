package config

import (
	"strings"

	"gorm.io/gorm"
)

// Cursor modes.
const (
	CursorStore  = "store"
	CursorMemory = "memory"
	CursorRedis  = "redis"
)

// MeetingConfig configures the Discord meeting bot.
type MeetingConfig struct {
	Base
	// ChairRoleID, when set, is required for commands that change state.
	ChairRoleID   string
	CommandPrefix string
	CursorMode    string
	RedisURL      string
	// NotifyStream also publishes notifications to the redis stream.
	NotifyStream bool
	// ResetCommands removes the guild's slash commands before registering ours.
	ResetCommands bool
	Enabled       bool
}

// LoadMeetingConfig loads the meeting bot configuration
func LoadMeetingConfig(db *gorm.DB) MeetingConfig {
	base := LoadBase(db)

	prefix := GetSetting("meeting_command_prefix", "MEETING_COMMAND_PREFIX", "!meeting ")
	if strings.TrimSpace(prefix) == "" {
		prefix = "!meeting "
	}

	cursorMode := strings.ToLower(GetSetting("meeting_cursor_mode", "MEETING_CURSOR_MODE", CursorStore))
	switch cursorMode {
	case CursorStore, CursorMemory, CursorRedis:
	default:
		cursorMode = CursorStore
	}

	return MeetingConfig{
		Base:          base,
		ChairRoleID:   GetSetting("meeting_chair_role_id", "MEETING_CHAIR_ROLE_ID", ""),
		CommandPrefix: prefix,
		CursorMode:    cursorMode,
		RedisURL:      GetSetting("redis_url", "REDIS_URL", ""),
		NotifyStream:  getBoolSetting("meeting_notify_stream", "MEETING_NOTIFY_STREAM", false),
		ResetCommands: getBoolSetting("meeting_reset_commands", "MEETING_RESET_COMMANDS", false),
		Enabled:       getBoolSetting("enable_meeting_bot", "ENABLE_MEETING_BOT", true),
	}
}

// APIConfig configures the HTTP API.
type APIConfig struct {
	Listen             string
	JWTSecret          string
	AllowedOrigins     []string
	RateLimitPerMinute int
	Enabled            bool
}

// LoadAPIConfig loads the HTTP API configuration
func LoadAPIConfig(db *gorm.DB) APIConfig {
	if db != nil {
		LoadBase(db)
	}
	return APIConfig{
		Listen:             GetSetting("api_listen", "API_LISTEN", ":8080"),
		JWTSecret:          GetSetting("jwt_secret", "JWT_SECRET", ""),
		AllowedOrigins:     splitList(GetSetting("api_allowed_origins", "API_ALLOWED_ORIGINS", "")),
		RateLimitPerMinute: getIntSetting("api_rate_limit_per_minute", "API_RATE_LIMIT_PER_MINUTE", 60),
		Enabled:            getBoolSetting("enable_api", "ENABLE_API", true),
	}
}
