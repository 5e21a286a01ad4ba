package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/stake-plus/govmeet/src/actions"
	"github.com/stake-plus/govmeet/src/config"
	shareddata "github.com/stake-plus/govmeet/src/data"
	"github.com/stake-plus/govmeet/src/logging"
	"gorm.io/gorm"
)

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logs := logging.Setup(logging.Options{
		File:       env.LogFile,
		MaxSizeMB:  env.LogMaxSizeMB,
		MaxBackups: env.LogMaxFiles,
	})
	defer logs.Close()

	// Settings and, in shared mode, meetings live in this connection.
	db, err := openDB(env)
	if err != nil {
		log.Fatalf("db: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := actions.Run(ctx, env, db); err != nil {
		log.Fatalf("actions start: %v", err)
	}
}

func openDB(env config.Env) (*gorm.DB, error) {
	if env.StoreMode == config.StoreFile {
		if err := os.MkdirAll(env.DataDir, 0o755); err != nil {
			return nil, err
		}
		return shareddata.ConnectSQLite(filepath.Join(env.DataDir, "govmeet.sqlite"))
	}
	return shareddata.ConnectMySQL(env.MySQLDSN)
}
