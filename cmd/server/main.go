package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dom/storefront/internal/api"
	"github.com/dom/storefront/internal/config"
	"github.com/dom/storefront/internal/logger"
	"github.com/dom/storefront/internal/repository/postgres"
	redisrepo "github.com/dom/storefront/internal/repository/redis"
	"github.com/dom/storefront/internal/service"
	"github.com/dom/storefront/internal/websocket"
	"golang.org/x/sync/errgroup"
	gormLogger "gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := logger.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	logger.Init(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	log := logger.Component("server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewConnection(cfg.Database.URL, gormLogLevel(cfg.Database.LogLevel))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	repos := postgres.NewRepositories(db)

	if cfg.Session.Store == config.SessionStoreRedis {
		client, err := redisrepo.NewClient(ctx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer client.Close()
		repos.Session = redisrepo.NewSessionRepository(client, cfg.Redis.KeyPrefix)
	}

	hub := websocket.NewHub(websocket.NewRegistry(), websocket.Options{
		SendBuffer:     cfg.Chat.SendBuffer,
		MaxMessageSize: cfg.Chat.MaxMessageSize,
		PingInterval:   cfg.Chat.PingInterval,
		PongWait:       cfg.Chat.PongWait,
		WriteWait:      cfg.Chat.WriteWait,
	})

	services := service.NewServices(repos, hub, cfg)
	router := api.NewRouter(services, hub, cfg)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("session_store", string(cfg.Session.Store)).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return services.Session.RunSweeper(gctx, cfg.Session.SweepInterval)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		hub.Close()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}

	log.Info().Msg("server stopped")
}

func gormLogLevel(level string) gormLogger.LogLevel {
	switch level {
	case "silent":
		return gormLogger.Silent
	case "error":
		return gormLogger.Error
	case "info":
		return gormLogger.Info
	default:
		return gormLogger.Warn
	}
}
