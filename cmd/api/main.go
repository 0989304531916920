package main

import (
	"context"
	"github.com/ariefcatur/go-shop.git/internal/auth"
	"github.com/ariefcatur/go-shop.git/internal/catalog"
	"github.com/ariefcatur/go-shop.git/internal/config"
	"github.com/ariefcatur/go-shop.git/internal/httpx"
	"github.com/ariefcatur/go-shop.git/internal/images"
	kafkax "github.com/ariefcatur/go-shop.git/internal/kafka"
	"github.com/ariefcatur/go-shop.git/internal/members"
	"github.com/ariefcatur/go-shop.git/internal/orders"
	"github.com/ariefcatur/go-shop.git/internal/postgres"
	"github.com/ariefcatur/go-shop.git/internal/redisx"
	"github.com/joho/godotenv"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if cfg.UsingDefaultSecret() {
		log.Printf("WARNING: SESSION_SECRET is not set; sessions are signed with the development default")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Image storage: Cloudinary when configured, local directory otherwise
	var files images.FileStore
	if cfg.CloudinaryURL != "" {
		cs, err := images.NewCloudinaryStore(cfg.CloudinaryURL, "shop/item")
		if err != nil {
			log.Fatalf("cloudinary: %v", err)
		}
		files = cs
	} else {
		files = images.NewLocalStore(cfg.UploadDir, cfg.ImageURLPrefix)
	}

	// Services
	memberSvc := members.NewService(&members.Repo{DB: db}, members.BcryptHasher{})
	catalogSvc := catalog.NewService(&catalog.Repo{DB: db}, files)
	orderSvc := orders.NewService(&orders.Repo{DB: db})
	sessions := auth.NewSessions(cfg.SessionSecret, cfg.SessionTTL, cfg.ServiceName, auth.RedisRevocations{RDB: rdb})

	if cfg.AdminEmail != "" {
		_, created, err := memberSvc.EnsureAdmin(ctx, members.RegisterForm{
			Name: "admin", Email: cfg.AdminEmail, Password: cfg.AdminPassword, Address: "-",
		})
		if err != nil {
			log.Fatalf("seed admin: %v", err)
		}
		if created {
			log.Printf("admin account %s created", cfg.AdminEmail)
		}
	}

	// Kafka producers, only when brokers are configured
	var events *httpx.OrderEvents
	var producers []*kafkax.Producer
	if cfg.EventsEnabled() {
		placed := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPlaced, 1024)
		placed.Start(ctx)
		cancelled := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCancelled, 1024)
		cancelled.Start(ctx)
		producers = append(producers, placed, cancelled)
		events = &httpx.OrderEvents{Placed: placed, Cancelled: cancelled, Service: cfg.ServiceName}
	} else {
		log.Println("KAFKA_BROKERS empty, order events disabled")
	}

	// Router & handlers
	router := httpx.NewRouter(sessions)
	(&httpx.MembersHandler{Members: memberSvc, Sessions: sessions}).Register(router)
	(&httpx.ItemsHandler{Catalog: catalogSvc}).Register(router)
	(&httpx.OrdersHandler{Orders: orderSvc, Cache: redisx.KV{RDB: rdb}, Events: events}).Register(router)
	if cfg.CloudinaryURL == "" {
		httpx.MountImages(router, cfg.ImageURLPrefix, cfg.UploadDir)
	}

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	for _, p := range producers {
		p.Close() // flush queued events
	}
	for _, p := range producers {
		p.WaitClosed()
	}
	cancel()
}
