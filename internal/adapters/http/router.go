package http

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Poker/internal/adapters/signal"
	"github.com/dkeye/Poker/internal/app"
	"github.com/dkeye/Poker/internal/config"
)

func SetupRouter(ctx context.Context, cfg *config.Config, orch *app.Orchestrator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})
	// Room links resolve to the same page; the client reads the id.
	r.GET("/room/:id", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	limiter := signal.NewRateLimiter(10, time.Minute)
	ctl := signal.NewController(orch, limiter)
	ctl.ReadLimit = cfg.ReadLimit
	ctl.SendBuffer = cfg.SendBuffer
	ctl.PingPeriod = cfg.PingPeriod

	api := r.Group("/api")
	api.GET("/ws", func(c *gin.Context) {
		ctl.Handle(ctx, c)
	})

	return r
}
