// Package webserver serves the meeting HTTP API.
package webserver

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stake-plus/govmeet/src/config"
	"github.com/stake-plus/govmeet/src/meeting/commands"
	"github.com/stake-plus/govmeet/src/meeting/engine"
)

// Server bundles the router with the resources it owns.
type Server struct {
	router  *gin.Engine
	limiter *RateLimiter
}

func New(cfg config.APIConfig, e *engine.Engine) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	perMinute := cfg.RateLimitPerMinute
	if perMinute <= 0 {
		perMinute = 60
	}
	limiter := NewRateLimiter(perMinute, time.Minute)

	attachRoutes(r, cfg, e, limiter)
	return &Server{router: r, limiter: limiter}
}

func (s *Server) Handler() http.Handler { return s.router }

// Close stops background work; it does not stop an http.Server using Handler.
func (s *Server) Close() { s.limiter.Stop() }

func attachRoutes(r *gin.Engine, cfg config.APIConfig, e *engine.Engine, limiter *RateLimiter) {
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	meetingsH := NewMeetings(e, commands.NewDispatcher(e, "http"))

	v1 := r.Group("/v1")
	v1.Use(RateLimitMiddleware(limiter))
	{
		ch := v1.Group("/channels/:channel")
		ch.GET("/status", meetingsH.Status)
		ch.GET("/meetings", meetingsH.List)
		ch.GET("/agenda", meetingsH.Agenda)
		ch.GET("/motions", meetingsH.Motions)

		secured := ch.Group("")
		secured.Use(JWTMiddleware([]byte(cfg.JWTSecret)))
		secured.POST("/commands", meetingsH.Command)
		secured.POST("/motions/decision", meetingsH.Decide)
	}
}
