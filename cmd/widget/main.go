package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/shubham-shewale/watchlist-widget/cmd/widget/internal/api"
	"github.com/shubham-shewale/watchlist-widget/cmd/widget/internal/hub"
	"github.com/shubham-shewale/watchlist-widget/cmd/widget/internal/pricesource"
	"github.com/shubham-shewale/watchlist-widget/cmd/widget/internal/publisher"
	"github.com/shubham-shewale/watchlist-widget/cmd/widget/internal/refresh"
	"github.com/shubham-shewale/watchlist-widget/cmd/widget/internal/repository"
	"github.com/shubham-shewale/watchlist-widget/cmd/widget/internal/view"
	"github.com/shubham-shewale/watchlist-widget/cmd/widget/internal/watchlist"
	"github.com/shubham-shewale/watchlist-widget/pkg/config"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger, err := config.NewLogger(cfg.Logger)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	blob := newBlobStore(ctx, cfg.Redis, logger)
	defer blob.Close()

	store := watchlist.NewStore(blob, cfg.Watchlist.Key, cfg.Watchlist.Defaults, logger)
	logger.Info("Watchlist loaded", zap.Strings("symbols", store.Load(ctx)))

	state := pricesource.NewState(cfg.PriceSource.Baselines, cfg.PriceSource.DefaultPrice)
	rnd := pricesource.NewRandomness(pricesource.NewRealRand(), cfg.PriceSource.FailureRate, cfg.PriceSource.MaxJitter)
	engine := refresh.NewEngine(pricesource.NewSource(state, rnd, logger), logger)

	wsHub := hub.NewHub(logger)
	opts := []view.Option{view.WithInterval(cfg.Refresh.Interval)}

	var pub *publisher.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		pub = publisher.Connect(ctx, cfg.Kafka, logger)
		opts = append(opts, view.WithPublisher(pub))
		logger.Info("Quote publishing enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	// Dependency Injection: the hub renders for the controller and drives it
	ctrl := view.NewController(store, engine, wsHub, logger, opts...)
	wsHub.SetController(ctrl)

	ctrl.Start(ctx)
	go ctrl.Run(ctx)

	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.NewHandler(ctrl, wsHub, logger), logger)
	srv := &http.Server{Addr: cfg.App.Port, Handler: router}

	go func() {
		logger.Info("Server Started", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP Error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("Shutdown signal received")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", zap.Error(err))
	}
	wsHub.Shutdown()

	if pub != nil {
		// Flush Kafka buffer
		if err := pub.Close(); err != nil {
			logger.Error("Error closing Kafka writer", zap.Error(err))
		}
	}
	logger.Info("Shutdown Complete")
}

// newBlobStore keeps the watchlist in Redis, or in memory when no address is configured.
// An unreachable Redis is not fatal: reads fall back to defaults and writes are logged.
func newBlobStore(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) repository.BlobStore {
	if cfg.Addr == "" {
		logger.Info("No Redis configured, watchlist is kept in memory")
		return repository.NewMemoryStore()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("Redis unreachable, watchlist changes may not persist", zap.String("addr", cfg.Addr), zap.Error(err))
	}
	return repository.NewRedisStore(rdb)
}
