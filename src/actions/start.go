package actions

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
	"github.com/redis/go-redis/v9"
	apimodule "github.com/stake-plus/govmeet/src/actions/api"
	"github.com/stake-plus/govmeet/src/actions/core"
	meetingmodule "github.com/stake-plus/govmeet/src/actions/meeting"
	"github.com/stake-plus/govmeet/src/config"
	"github.com/stake-plus/govmeet/src/data"
	shareddiscord "github.com/stake-plus/govmeet/src/discord"
	"github.com/stake-plus/govmeet/src/meeting/engine"
	"github.com/stake-plus/govmeet/src/meeting/store"
	"gorm.io/gorm"
)

// OpenStores builds the meeting store provider selected by env, keeping
// cursors where cfg asks. rdb may be nil unless cursors live in redis.
func OpenStores(env config.Env, db *gorm.DB, cfg config.MeetingConfig, rdb *redis.Client) (store.Provider, error) {
	var cursors store.CursorStore
	switch cfg.CursorMode {
	case config.CursorMemory:
		cursors = store.NewMemoryCursors()
	case config.CursorRedis:
		if rdb == nil {
			return nil, fmt.Errorf("actions: cursor mode %s needs redis_url", config.CursorRedis)
		}
		cursors = store.NewRedisCursors(rdb)
	default:
		cursors = store.StoreCursors{}
	}

	switch env.StoreMode {
	case config.StoreFile:
		return store.NewFileProvider(env.DataDir, cursors)
	default:
		if db == nil {
			return nil, errors.New("actions: shared store mode needs a database")
		}
		return store.NewSharedProvider(db, cursors), nil
	}
}

// StartAll wires up enabled action modules and starts the manager.
func StartAll(ctx context.Context, env config.Env, db *gorm.DB) (*core.Manager, error) {
	mgr := core.NewManager()

	meetingCfg := config.LoadMeetingConfig(db)
	apiCfg := config.LoadAPIConfig(db)
	log.Printf("actions: meeting module config - Enabled: %v, CursorMode: %s, StoreMode: %s",
		meetingCfg.Enabled, meetingCfg.CursorMode, env.StoreMode)

	res := &resources{}
	if err := mgr.Add(res); err != nil {
		return nil, err
	}

	if meetingCfg.CursorMode == config.CursorRedis || meetingCfg.NotifyStream {
		rdb, err := data.ConnectRedis(ctx, meetingCfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("actions: %w", err)
		}
		res.rdb = rdb
	}

	stores, err := OpenStores(env, db, meetingCfg, res.rdb)
	if err != nil {
		res.Stop(ctx)
		return nil, err
	}
	res.stores = stores

	var (
		notifiers engine.MultiNotifier
		session   *discordgo.Session
	)
	if meetingCfg.Enabled {
		session, err = meetingmodule.NewSession(&meetingCfg)
		if err != nil {
			res.Stop(ctx)
			return nil, fmt.Errorf("actions: init meeting module: %w", err)
		}
		notifiers = append(notifiers, shareddiscord.NewTopicNotifier(session))
	}
	if meetingCfg.NotifyStream {
		notifiers = append(notifiers, engine.NewStreamNotifier(res.rdb))
	}

	e := engine.New(stores, notifiers)

	if session != nil {
		if err := mgr.Add(meetingmodule.NewModule(&meetingCfg, session, e)); err != nil {
			return nil, fmt.Errorf("actions: add meeting module: %w", err)
		}
	} else {
		log.Printf("actions: meeting module disabled via configuration")
	}

	if apiCfg.Enabled {
		if err := mgr.Add(apimodule.NewModule(&apiCfg, e)); err != nil {
			return nil, fmt.Errorf("actions: add api module: %w", err)
		}
	} else {
		log.Printf("actions: api module disabled via configuration")
	}

	if err := mgr.Start(ctx); err != nil {
		return nil, err
	}
	return mgr, nil
}
