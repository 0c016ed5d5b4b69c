package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"grabberbot/internal/bot"
	"grabberbot/internal/config"
	"grabberbot/internal/database"
	"grabberbot/internal/gate"
	"grabberbot/internal/repository"
	"grabberbot/internal/router"
	"grabberbot/internal/services"
	"grabberbot/internal/worker"
)

const version = "1.2.0"

func main() {
	log.Printf("Starting GrabberBot version %s", version)

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Step 4: Initialize Concurrency Gate ────
	var chatGate gate.Gate
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatalf("✗ Redis connection failed: %v", err)
		}
		defer redisClient.Close()
		// Lock TTL outlives the longest possible download so a crashed
		// process cannot wedge a chat forever.
		chatGate = gate.NewRedisGate(redisClient, 2*cfg.DownloadTimeout+time.Minute)
		log.Println("✓ Redis connected (multi-process gate)")
	} else {
		chatGate = gate.NewMemoryGate()
		log.Println("✓ In-memory gate initialized")
	}

	// ──── Step 5: Initialize Repositories ────
	cacheRepo := repository.NewMediaCacheRepo(pool)
	requestLogRepo := repository.NewRequestLogRepo(pool)

	// ──── Step 6: Initialize Telegram Client ────
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatalf("✗ Telegram authorization failed: %v", err)
	}
	log.Printf("✓ Authorized as @%s", api.Self.UserName)

	// ──── Step 7: Initialize Services ────
	downloader := services.NewYtDlpDownloader(cfg.YtDlpPath, cfg.DownloadTimeout)
	validator := services.NewValidator(services.Thresholds{
		MaxDurationSeconds:    cfg.MaxDurationSeconds,
		MaxFilesizeBytes:      cfg.MaxFilesizeBytes,
		MaxVideoPlaylistItems: cfg.MaxVideoPlaylistItems,
		MaxImagePlaylistItems: cfg.MaxImagePlaylistItems,
	})
	composer := services.NewComposer()
	telegramClient := services.NewTelegramClient(api)

	pipeline := worker.NewPipeline(
		chatGate,
		downloader,
		validator,
		composer,
		telegramClient,
		cacheRepo,
		requestLogRepo,
		cfg.TempDir,
	)

	// ──── Step 8: Start Cache Pruner ────
	pruner := services.NewCachePruner(
		cacheRepo,
		time.Duration(cfg.CacheTTLDays)*24*time.Hour,
		cfg.CachePruneInterval,
	)
	pruner.Start()

	// ──── Step 9: Start Transport ────
	b := bot.New(api, pipeline, version, cfg.Env)

	webhookEnabled := cfg.WebhookURL != ""
	if webhookEnabled {
		endpoint := strings.TrimRight(cfg.WebhookURL, "/") + "/webhook/" + cfg.BotToken
		if err := b.RegisterWebhook(endpoint); err != nil {
			log.Fatalf("✗ Webhook registration failed: %v", err)
		}
		log.Println("✓ Webhook mode active")
	} else {
		go b.StartPolling()
		log.Println("✓ Long polling started")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router.New(b, cfg.BotToken, webhookEnabled),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		b.StopPolling()
		pruner.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ GrabberBot ready on :%s", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
