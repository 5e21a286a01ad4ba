// Package api runs the HTTP API as an action module.
package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/stake-plus/govmeet/src/actions/core"
	"github.com/stake-plus/govmeet/src/api/webserver"
	"github.com/stake-plus/govmeet/src/config"
	"github.com/stake-plus/govmeet/src/meeting/engine"
)

var _ core.Module = (*Module)(nil)

const shutdownTimeout = 10 * time.Second

type Module struct {
	config *config.APIConfig
	server *webserver.Server
	http   *http.Server
}

func NewModule(cfg *config.APIConfig, e *engine.Engine) *Module {
	server := webserver.New(*cfg, e)
	return &Module{
		config: cfg,
		server: server,
		http: &http.Server{
			Addr:              cfg.Listen,
			Handler:           server.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (m *Module) Name() string { return "api" }

// Start binds the listener synchronously so a bad address fails startup.
func (m *Module) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", m.config.Listen)
	if err != nil {
		return fmt.Errorf("api: listen %s: %w", m.config.Listen, err)
	}
	go func() {
		if err := m.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("api: http: %v", err)
		}
	}()
	log.Printf("api: listening on %s", ln.Addr())
	return nil
}

func (m *Module) Stop(ctx context.Context) {
	shutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := m.http.Shutdown(shutCtx); err != nil {
		log.Printf("api: shutdown: %v", err)
	}
	m.server.Close()
}
