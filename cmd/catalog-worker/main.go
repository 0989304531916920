package main

import (
	"context"
	"github.com/ariefcatur/go-shop.git/internal/catalog"
	"github.com/ariefcatur/go-shop.git/internal/catalogsync"
	"github.com/ariefcatur/go-shop.git/internal/config"
	kafkax "github.com/ariefcatur/go-shop.git/internal/kafka"
	"github.com/ariefcatur/go-shop.git/internal/orders"
	"github.com/ariefcatur/go-shop.git/internal/postgres"
	"github.com/ariefcatur/go-shop.git/internal/redisx"
	"github.com/joho/godotenv"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	if !cfg.EventsEnabled() {
		log.Fatal("KAFKA_BROKERS is required for the catalog worker")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &catalogsync.Service{
		Items:       &catalog.Repo{DB: db},
		Dedup:       catalogsync.RedisDedup{RDB: rdb},
		ServiceName: cfg.WorkerGroup,
	}

	topics := []string{orders.TopicOrderPlaced, orders.TopicOrderCancelled}
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.WorkerGroup, cfg.WorkerThreads, topics...)
	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Printf("catalog worker started: group=%s topics=%v workers=%d", cfg.WorkerGroup, topics, cfg.WorkerThreads)
		if err := cons.Start(ctx, svc.Handle); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Println("shutting down consumer...")
	cancel()
	<-done
}
