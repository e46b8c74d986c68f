// Package main is the entry point for the loyalty engine HTTP server.
package main

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"loyalty/internal/config"
	"loyalty/internal/metrics"
	"loyalty/internal/repositories"
	"loyalty/internal/repositories/cache"
	"loyalty/internal/routes"
	"loyalty/internal/services/admin"
	"loyalty/internal/services/ledger"
	"loyalty/internal/services/notification"
	"loyalty/internal/services/redemption"
	"loyalty/internal/services/referral"
	"loyalty/internal/services/segment"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.LogFile != "" {
		log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   true,
		}))
	}

	db, err := repositories.Open(cfg.DB)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer repositories.Close(db)

	store := repositories.NewStore(db, cfg.DB.TxMaxAttempts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if program, err := config.LoadProgramFile(cfg.ProgramFile); err != nil {
		log.Printf("⚠️ Program file not loaded, keeping stored catalog: %v", err)
	} else if err := repositories.SeedProgram(ctx, store, program); err != nil {
		log.Fatalf("Failed to seed program: %v", err)
	} else {
		log.Printf("✅ Program loaded: %d tiers, %d rewards", len(program.Tiers), len(program.Rewards))
	}

	// Redis is optional: without it wallets are read from the store and the
	// segmentation lock is process-local.
	var (
		cacheService *cache.CacheService
		walletCache  repositories.WalletCache = cache.NoopCache{}
		locker       cache.Locker             = cache.NewLocalLocker()
	)
	if cfg.Redis.Host != "" {
		client := cache.NewRedisClient(&cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cacheService = cache.NewCacheService(client, cfg.Redis.TTL)
		if err := cacheService.HealthCheck(ctx); err != nil {
			log.Printf("⚠️ Redis unavailable, continuing without cache: %v", err)
			_ = cacheService.Close()
			cacheService = nil
		} else {
			// Snapshots written by an older build may not match the current
			// schema. Only wallet keys are dropped; locks stay.
			if n, err := cacheService.PurgeWallets(ctx); err != nil {
				log.Printf("⚠️ Failed to purge wallet snapshots: %v", err)
			} else {
				log.Printf("✅ Purged %d wallet snapshots", n)
			}
			walletCache = cacheService
			locker = cache.NewRedisLocker(client, time.Minute)
			log.Println("✅ Redis connected")
			defer func() {
				if err := cacheService.Close(); err != nil {
					log.Printf("⚠️ Failed to close Redis connection: %v", err)
				}
			}()
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewPrometheus(registry)

	ledgerSvc := ledger.NewService(store, walletCache, notification.NewService(), cfg.Program, collector)
	redemptionSvc := redemption.NewService(store, ledgerSvc, redemption.Config{VoucherTTL: cfg.Program.VoucherTTL}, collector)
	referralSvc := referral.NewService(store, ledgerSvc, cfg.Program, collector)
	segmentSvc := segment.NewService(store, walletCache, locker, collector)
	adminSvc := admin.NewService(store, ledgerSvc, collector)

	go segmentSvc.Run(ctx, cfg.RFMInterval)

	app := fiber.New(fiber.Config{AppName: "loyalty"})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
	}))

	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
		Output: log.Writer(),
	}))

	app.Use("/api/v1/wallets", limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	}))

	routes.SetupRoutes(app, routes.Dependencies{
		DB:         db,
		Cache:      cacheService,
		Ledger:     ledgerSvc,
		Redemption: redemptionSvc,
		Referral:   referralSvc,
		Segment:    segmentSvc,
		Admin:      adminSvc,
		JWTSecret:  cfg.JWTSecret,
		Gatherer:   registry,
	})

	go func() {
		<-ctx.Done()
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("⚠️ Shutdown error: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Server stopped: %v", err)
	}
}
