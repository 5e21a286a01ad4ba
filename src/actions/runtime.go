package actions

import (
	"context"
	"log"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/stake-plus/govmeet/src/actions/core"
	"github.com/stake-plus/govmeet/src/config"
	"github.com/stake-plus/govmeet/src/meeting/store"
	"gorm.io/gorm"
)

var _ core.Module = (*resources)(nil)

// resources releases shared handles. It is added first so the manager stops
// it after every module that uses them.
type resources struct {
	stores store.Provider
	rdb    *redis.Client
}

func (r *resources) Name() string { return "resources" }

func (r *resources) Start(_ context.Context) error { return nil }

func (r *resources) Stop(_ context.Context) {
	if r.stores != nil {
		if err := r.stores.Close(); err != nil {
			log.Printf("actions: close stores: %v", err)
		}
	}
	if r.rdb != nil {
		if err := r.rdb.Close(); err != nil {
			log.Printf("actions: close redis: %v", err)
		}
	}
}

// Run starts every enabled module and blocks until ctx is done, then stops
// them in reverse order.
func Run(ctx context.Context, env config.Env, db *gorm.DB) error {
	mgr, err := StartAll(ctx, env, db)
	if err != nil {
		return err
	}
	log.Printf("actions: running %s", strings.Join(mgr.Names(), ", "))

	<-ctx.Done()
	log.Printf("actions: shutting down")
	mgr.Stop(context.WithoutCancel(ctx))
	return nil
}
