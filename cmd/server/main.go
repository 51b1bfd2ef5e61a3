package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Conference/internal/adapters/events"
	router "github.com/dkeye/Conference/internal/adapters/http"
	"github.com/dkeye/Conference/internal/app"
	"github.com/dkeye/Conference/internal/app/orch"
	"github.com/dkeye/Conference/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && cfg.LogLevel != "" {
		zerolog.SetGlobalLevel(lvl)
	}

	sink := eventSink(ctx, cfg)

	conf := app.NewConference(app.NewSessionRegistry(time.Now))
	relay := app.NewRelay(app.NewRegistry(), app.NewRoomManager(), app.PolicyByName(cfg.Backpressure))
	o := orch.New(conf, relay, sink, app.PassthroughEngine{}, cfg.WebRTCICEServers())

	r := router.SetupRouter(ctx, cfg, o)
	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("Conference server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if rs, ok := sink.(*events.RedisSink); ok {
		_ = rs.Close()
	}
	log.Info().Msg("Server exited gracefully")
}

// eventSink picks redis pub/sub when configured and falls back to the log.
func eventSink(ctx context.Context, cfg *config.Config) app.EventSink {
	if cfg.Redis.Addr == "" {
		return app.LogSink{}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	sink := events.NewRedisSink(client, cfg.Redis.ChannelPrefix)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sink.Ping(pingCtx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, events go to log")
		_ = sink.Close()
		return app.LogSink{}
	}
	log.Info().Str("addr", cfg.Redis.Addr).Msg("publishing events to redis")
	return sink
}
