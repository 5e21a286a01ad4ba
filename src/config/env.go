package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Store modes.
const (
	StoreShared = "shared"
	StoreFile   = "file"
)

// Env is the bootstrap configuration read before any database is open.
// Variables carry the GOVMEET_ prefix; MYSQL_DSN is also read unprefixed.
type Env struct {
	MySQLDSN     string `envconfig:"MYSQL_DSN"`
	StoreMode    string `split_words:"true" default:"shared"`
	DataDir      string `split_words:"true" default:"./data"`
	LogFile      string `split_words:"true"`
	LogMaxSizeMB int    `envconfig:"LOG_MAX_SIZE_MB" default:"50"`
	LogMaxFiles  int    `split_words:"true" default:"5"`
}

// LoadEnv reads Env from the process environment.
func LoadEnv() (Env, error) {
	var env Env
	if err := envconfig.Process("govmeet", &env); err != nil {
		return Env{}, fmt.Errorf("config: %w", err)
	}
	switch env.StoreMode {
	case StoreShared:
		if env.MySQLDSN == "" {
			return Env{}, fmt.Errorf("config: MYSQL_DSN is required when GOVMEET_STORE_MODE=%s", StoreShared)
		}
	case StoreFile:
		if env.DataDir == "" {
			return Env{}, fmt.Errorf("config: GOVMEET_DATA_DIR is required when GOVMEET_STORE_MODE=%s", StoreFile)
		}
	default:
		return Env{}, fmt.Errorf("config: unknown store mode %q", env.StoreMode)
	}
	return env, nil
}
