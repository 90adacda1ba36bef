package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	apirest "github.com/ukiyotei/battlehub/api/rest"
	"github.com/ukiyotei/battlehub/cache"
	"github.com/ukiyotei/battlehub/config"
	dbadapter "github.com/ukiyotei/battlehub/db"
	"github.com/ukiyotei/battlehub/events"
	"github.com/ukiyotei/battlehub/game/battle"
	"github.com/ukiyotei/battlehub/game/experience"
	mw "github.com/ukiyotei/battlehub/middleware"
	"github.com/ukiyotei/battlehub/model"
	"github.com/ukiyotei/battlehub/scheduler"
	"github.com/ukiyotei/battlehub/store"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	// Warn loudly if admin endpoints will be disabled.
	if cfg.Server.AdminKey == "" {
		logger.Warn("server.admin_key is not set; admin endpoints are disabled")
	}

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized")

	// ---- Cache / PubSub ----
	cacheCfg := cache.Config{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
		LocalPubSubBuf:  cfg.Cache.LocalPubSubBuf,
	}
	c, err := cache.NewCache(cacheCfg)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	pubsub, err := cache.NewPubSub(cacheCfg)
	if err != nil {
		log.Fatalf("pubsub: %v", err)
	}
	logger.Info("Cache initialized")

	// ---- Event sink ----
	sink := events.New(db, pubsub, logger)
	defer sink.Stop(nil)

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()

	// ---- Game systems ----
	st := store.New(db)
	st.SetInitialRating(cfg.Game.EloInitialRating)
	registry := battle.NewRegistry(nil)
	rewards := battle.NewRewardsManager(nil)
	battleMgr := battle.NewManager(registry, rewards, st, sink, logger)
	battleMgr.SetEloKFactor(cfg.Game.EloKFactor)
	expMgr := experience.NewManager(sink, logger)
	expMgr.SetSingleAwardCap(cfg.Game.SingleAwardExpCap)
	expMgr.SetDefaultDailyCap(cfg.Game.DailyExpCap)

	// ---- Periodic tasks ----
	sched.AddTicker("boost_sweep", cfg.Game.BoostSweepEvery, func() {
		if n := expMgr.SweepExpiredBoosts(); n > 0 {
			logger.Debug("expired boosts removed", zap.Int("count", n))
		}
	})

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))

	// Health check
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	// ---- REST API routes ----
	authH := apirest.NewAuthHandler(db, c, cfg.Security)
	battleH := apirest.NewBattleHandler(battleMgr, expMgr, st, logger)
	playerH := apirest.NewPlayerHandler(db, st, expMgr)
	rankH := apirest.NewRankingHandler(db, c, logger)
	adminH := apirest.NewAdminHandler(db, expMgr, sched, logger)

	sched.AddTicker("ranking_refresh", cfg.Game.RankingRefreshEvery, func() {
		if _, err := rankH.RebuildAll(context.Background()); err != nil {
			logger.Warn("ranking refresh failed", zap.Error(err))
		}
	})

	api := r.Group("/api")
	{
		authG := api.Group("/auth")
		authG.POST("/login", authH.Login)
		authG.POST("/logout", mw.Auth(cfg.Security, c), authH.Logout)
		authG.POST("/refresh", mw.Auth(cfg.Security, c), authH.Refresh)

		battleG := api.Group("/battle")
		battleG.Use(mw.Auth(cfg.Security, c))
		battleG.POST("", battleH.Create)
		battleG.GET("/me", battleH.Mine)
		battleG.GET("/:id", battleH.Get)
		battleG.POST("/:id/accept", battleH.Accept)
		battleG.GET("/:id/moves", battleH.Moves)
		battleG.POST("/:id/move", battleH.Move)
		battleG.POST("/:id/forfeit", battleH.Forfeit)

		playerG := api.Group("/player")
		playerG.Use(mw.Auth(cfg.Security, c))
		playerG.GET("/me", playerH.Me)
		playerG.GET("/me/stats", playerH.Stats)
		playerG.GET("/me/battles", playerH.History)
		playerG.GET("/me/pets", playerH.Pets)

		rankG := api.Group("/ranking")
		rankG.GET("/:type", rankH.Top)

		adminG := api.Group("/admin")
		adminG.Use(apirest.AdminAuth(cfg.Server.AdminKey))
		adminG.GET("/metrics", adminH.Metrics)
		adminG.GET("/scheduler", adminH.ListSchedulerTasks)
		adminG.POST("/players/:id/boost", adminH.GrantBoost)
		adminG.POST("/players/:id/daily-cap", adminH.SetDailyCap)
		adminG.POST("/players/:id/ban", adminH.BanPlayer)
		adminG.POST("/ranking/refresh", rankH.Refresh)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Server listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
