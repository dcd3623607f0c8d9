package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/visheshtachauhan/aharic-orders/internal/config"
	"github.com/visheshtachauhan/aharic-orders/internal/notify"
	"github.com/visheshtachauhan/aharic-orders/internal/port"
	"github.com/visheshtachauhan/aharic-orders/internal/receipt"
	"github.com/visheshtachauhan/aharic-orders/internal/server"
	"github.com/visheshtachauhan/aharic-orders/internal/service"
	"github.com/visheshtachauhan/aharic-orders/internal/store"
	"github.com/visheshtachauhan/aharic-orders/pkg/idempotency"
	"github.com/visheshtachauhan/aharic-orders/pkg/logging"
	"github.com/visheshtachauhan/aharic-orders/pkg/shutdown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("info").Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel)

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	var orderStore port.OrderStore
	switch cfg.StoreDriver {
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			log.Error("pg connect failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		orderStore, err = store.NewPostgres(ctx, pool)
		if err != nil {
			log.Error("pg store init failed", "err", err)
			os.Exit(1)
		}
	case "memory":
		orderStore = store.NewMemory()
	default:
		orderStore = store.NewFile(cfg.OrdersFile, log)
	}

	opts := []service.Option{}

	if cfg.AMQPURL != "" {
		publisher, err := notify.Dial(cfg.AMQPURL, log)
		if err != nil {
			log.Error("rabbitmq connect failed", "err", err)
			os.Exit(1)
		}
		defer publisher.Close()
		opts = append(opts, service.WithNotifier(publisher))
	}

	orders, err := service.New(ctx, orderStore, log, opts...)
	if err != nil {
		log.Error("order service init failed", "err", err)
		os.Exit(1)
	}

	receipts, err := receipt.NewRenderer()
	if err != nil {
		log.Error("receipt renderer init failed", "err", err)
		os.Exit(1)
	}

	serverOpts := []server.Option{}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		serverOpts = append(serverOpts, server.WithIdempotency(idempotency.NewStore(rdb, cfg.IdempotencyTTL)))
	}

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      server.New(log, orders, receipts, serverOpts...).Routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	log.Info("order service shutdown complete")
}
