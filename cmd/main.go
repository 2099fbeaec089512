package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"chatterbox/backend/internal/api/handler"
	"chatterbox/backend/internal/chat"
	"chatterbox/backend/internal/chathub"
	"chatterbox/backend/internal/config"
	"chatterbox/backend/internal/identity"
	"chatterbox/backend/internal/metrics"
	"chatterbox/backend/internal/models"
	"chatterbox/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDependencies(cfg *config.Config) (*gorm.DB, *redis.Client) {
	// TranslateError turns driver unique-violations into
	// gorm.ErrDuplicatedKey, which the direct-pair upsert relies on.
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Conversation{},
		&models.Membership{},
		&models.Message{},
		&models.Reaction{},
		&models.TypingIndicator{},
	)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database and Redis connections established, migrations complete.")
	return db, rdb
}

func main() {
	log.Println("Starting Chatterbox Backend...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db, rdb := setupDependencies(cfg)
	store := storage.NewService(db, rdb)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	resolver := identity.NewResolver(store)
	profiles := identity.NewProfiles(store, resolver)
	directory := chat.NewDirectory(store, resolver)
	ledger := chat.NewLedger(store, resolver)
	typing := chat.NewTyping(store, resolver)
	projector := chat.NewProjector(store, resolver, directory)

	hub := chathub.NewHub(store, collector)
	go hub.Run()

	r := gin.Default()
	h := handler.NewHandler(resolver, profiles, directory, ledger, typing, projector, hub, collector, []byte(cfg.JWTSecret))
	h.RegisterRoutes(r)
	r.GET("/metrics", gin.WrapH(metrics.Handler(registry)))

	server := &http.Server{
		Addr:           cfg.ListenAddr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Printf("Listening on %s", cfg.ListenAddr)
	log.Fatal(server.ListenAndServe())
}
