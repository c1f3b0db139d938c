package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jem-backend/internal/catalog"
	"jem-backend/internal/config"
	"jem-backend/internal/database"
	"jem-backend/internal/handlers"
	"jem-backend/internal/media"
	"jem-backend/internal/middleware"
	"jem-backend/internal/orders"
	"jem-backend/internal/reports"
	"jem-backend/internal/session"
	"jem-backend/internal/wizard"
	"jem-backend/web"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	// 1. Load .env first
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env not found, using the process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// 2. Connect Database
	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatal(err)
	}

	// 3. Sessions: Redis when configured, memory otherwise
	sessions, redisStorage := session.NewStore(cfg.Session, cfg.Redis)
	if redisStorage != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := redisStorage.Ping(ctx)
		cancel()
		if err != nil {
			log.Fatalf("redis %s: %v", cfg.Redis.Addr, err)
		}
		log.Printf("Wizard sessions stored in Redis at %s", cfg.Redis.Addr)
	} else {
		log.Println("Wizard sessions stored in memory")
	}

	store := catalog.New(db)
	orderService := orders.NewService(db)

	app := fiber.New(fiber.Config{
		Views:        web.Engine(cfg.ViewsDev),
		BodyLimit:    8 * 1024 * 1024,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	app.Static("/public/uploads", cfg.Uploads)

	handlers.Register(app, handlers.Deps{
		DB:           db,
		Catalog:      store,
		Orders:       orderService,
		Wizard:       wizard.New(store, orderService),
		Reports:      reports.NewService(db, cfg.LowStockThreshold),
		Sessions:     sessions,
		Auth:         middleware.NewAuth(cfg.Auth),
		LoginLimiter: middleware.NewRateLimiter(cfg.Auth.LoginAttempts, cfg.Auth.LoginWindow),
		Images:       media.NewImages(cfg.Uploads, "/public/uploads"),
	})

	go func() {
		log.Printf("Server listening on %s", cfg.Port)
		if err := app.Listen(cfg.Port); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutdown signal received; shutting down gracefully...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
	if redisStorage != nil {
		redisStorage.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Println("Server stopped cleanly")
}
