// Command terrain-service is the embedder/collaborator demo for the
// terraincore pipeline: it builds worlds on request, persists their opaque
// snapshots, serves path/pick queries with a Redis-backed cache, batches
// dirty rebuilds on a cron schedule, and publishes terrainVersion bumps to
// NATS and to subscribed WebSocket clients. Grounded on the teacher's
// cmd/world-service/main.go and cmd/game-server/main.go (pgxpool/NATS/Redis
// setup, chi router assembly, signal-driven graceful shutdown).
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"terraincore/cmd/terrain-service/api"
	"terraincore/cmd/terrain-service/metrics"
	"terraincore/cmd/terrain-service/store"
	"terraincore/cmd/terrain-service/worldregistry"
	"terraincore/internal/logging"
)

func main() {
	logging.InitLogger()

	log.Info().Msg("starting terrain-service")
	cfg := loadConfig()

	dbPool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer dbPool.Close()
	if err := dbPool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to ping postgres")
	}
	snapshotStore := store.NewPostgresSnapshotStore(dbPool)
	if err := snapshotStore.EnsureSchema(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure snapshot schema")
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Warn().Err(err).Msg("redis unavailable, query caching disabled")
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}()
	var queryCache *store.QueryCache
	if redisClient != nil {
		queryCache = store.NewQueryCache(redisClient, 5*time.Minute)
	}

	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		log.Warn().Err(err).Msg("nats unavailable, version-bump events will not be published")
	}
	if nc != nil {
		defer nc.Close()
	}

	notifier := api.NewNotifier()
	notifierDone := make(chan struct{})
	go notifier.Run(notifierDone)

	registryPublisher := buildPublisher(nc, notifier)
	registry := worldregistry.New(snapshotStore, registryPublisher)

	m := metrics.New()
	m.Register(prometheus.DefaultRegisterer)

	handler := api.NewHandler(registry, queryCache, m)
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	router := api.NewRouter(handler, notifier, m, []byte(cfg.JWTSigningKey), corsOrigins)

	sweeper := cron.New()
	if _, err := sweeper.AddFunc("@every 30s", func() {
		rebuilt, err := registry.Sweep(context.Background())
		if err != nil {
			log.Error().Err(err).Msg("dirty world sweep failed")
			return
		}
		if len(rebuilt) > 0 {
			log.Info().Int("count", len(rebuilt)).Msg("rebuilt dirty worlds")
		}
	}); err != nil {
		log.Fatal().Err(err).Msg("failed to schedule dirty world sweep")
	}
	sweeper.Start()
	defer sweeper.Stop()

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		log.Info().Msg("shutting down terrain-service")
		close(notifierDone)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
		}
	}()

	log.Info().Str("addr", cfg.ListenAddr).Msg("terrain-service listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server error")
	}
	log.Info().Msg("terrain-service stopped")
}
