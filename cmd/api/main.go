package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/passbi/transport_catalogue/internal/api"
	"github.com/passbi/transport_catalogue/internal/cache"
	"github.com/passbi/transport_catalogue/internal/config"
	"github.com/passbi/transport_catalogue/internal/db"
	"github.com/passbi/transport_catalogue/internal/middleware"
	"github.com/passbi/transport_catalogue/internal/network"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "Path to YAML config file")
	flag.Parse()

	log.Println("Starting transport catalogue API server...")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Network.Source == config.SourcePostgres {
		defer db.Close()
	}

	// Load network into memory
	n, err := network.Load(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to load network: %v", err)
	}
	log.Printf("✓ Network loaded from %s", n.Source)

	if n.Router != nil {
		n.Router.Prepare()
		log.Println("✓ Route solver ready")
	}

	// Redis is optional; the API works without cache and rate limits
	var routeCache api.RouteCache
	var counter middleware.Counter
	if cfg.Cache.Enabled || cfg.RateLimit.Enabled {
		redisConfig := cache.LoadConfigFromEnv()
		client, err := cache.GetClient()
		if err != nil {
			log.Printf("⚠️  Redis unavailable, continuing without cache: %v", err)
		} else {
			defer cache.Close()
			log.Println("✓ Redis connection established")
			if cfg.Cache.Enabled {
				routeCache = cache.NewRouteCache(client, redisConfig)
			}
			if cfg.RateLimit.Enabled {
				counter = middleware.NewRedisCounter(client)
			}
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      "Transport Catalogue API",
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorHandler: api.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.CORSOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
	if counter != nil {
		app.Use("/v1", middleware.RateLimitMiddleware(counter, cfg.RateLimit))
		log.Printf("✓ Rate limiting enabled (%d/s, %d/day)", cfg.RateLimit.PerSecond, cfg.RateLimit.PerDay)
	}

	// Routes
	handlers := api.NewHandlers(n.Catalogue, n.Router, routeCache)
	if cfg.Network.Source == config.SourcePostgres {
		handlers.SetDatabaseCheck(db.HealthCheck)
	}
	handlers.Register(app)

	// 404 handler
	app.Use(api.NotFound)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down gracefully...")
		if err := app.Shutdown(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	// Start server
	log.Printf("🚀 Server listening on http://localhost%s", addr)
	log.Printf("📍 Route: http://localhost%s/v1/route?from=STOP&to=STOP", addr)
	log.Printf("❤️  Health check: http://localhost%s/health", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
