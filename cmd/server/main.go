// @title           Order Desk Backend API
// @version         1.0.0
// @description     Order desk API: admins create orders, workers claim them and report progress, and every change streams live to connected clients.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"order-desk-backend/docs"
	"order-desk-backend/internal/broker"
	"order-desk-backend/internal/cache"
	"order-desk-backend/internal/config"
	"order-desk-backend/internal/database"
	"order-desk-backend/internal/handlers"
	"order-desk-backend/internal/models"
	"order-desk-backend/internal/repository"
	"order-desk-backend/internal/services"
	"order-desk-backend/internal/supabase"
)

type store interface {
	repository.Orders
	repository.Profiles
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	decimal.MarshalJSONWithoutQuotes = true

	// Update Swagger docs with dynamic base URL
	if cfg.BaseURL != "" {
		baseURL, err := url.Parse(cfg.BaseURL)
		if err == nil {
			docs.SwaggerInfo.Host = baseURL.Host
			if baseURL.Scheme == "https" {
				docs.SwaggerInfo.Schemes = []string{"https", "http"}
			} else {
				docs.SwaggerInfo.Schemes = []string{"http", "https"}
			}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Supabase clients
	supabaseClient, err := supabase.NewClient(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize Supabase client: %v", err)
	}

	// Order and profile store
	var (
		db       store
		pinger   handlers.Pinger
		realtime *supabase.RealtimeClient
		memory   *repository.Memory
	)
	if cfg.DatabaseURL != "" {
		migrator, err := database.NewMigrator(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to initialize migrator: %v", err)
		}
		if err := migrator.Run(ctx); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		migrator.Close()
		log.Println("Migrations completed successfully")

		dbClient, err := supabase.NewDatabaseClient(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to initialize database client: %v", err)
		}
		defer dbClient.Close()
		db = dbClient
		pinger = dbClient

		realtime, err = supabase.NewRealtimeClient(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to initialize realtime listener: %v", err)
		}
		defer realtime.Close()
	} else {
		log.Println("Warning: DATABASE_URL not set. Using the in-memory store; data is lost on restart.")
		memory = repository.NewMemory()
		db = memory
	}

	// Optional profile cache
	var profileCache services.ProfileCache
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewProfileCache(cfg.RedisURL, cfg.ProfileCacheTTL)
		if err != nil {
			log.Printf("Warning: Profile cache disabled: %v", err)
		} else {
			defer redisCache.Close()
			profileCache = redisCache
		}
	}

	// Optional change fan-out
	var publisher services.Publisher
	if cfg.RabbitMQURL != "" {
		rabbit, err := broker.Dial(cfg.RabbitMQURL, cfg.RabbitMQExchange)
		if err != nil {
			log.Printf("Warning: Change publishing disabled: %v", err)
		} else {
			defer rabbit.Close()
			publisher = rabbit
		}
	}

	orderService := services.NewOrderService(db)
	profileService := services.NewProfileService(db, profileCache, supabaseClient.Storage)
	authService := services.NewAuthService(supabaseClient.Auth)

	feed := services.NewOrderFeed(db, publisher)
	if err := feed.Load(ctx); err != nil {
		log.Fatalf("Failed to load orders: %v", err)
	}

	if realtime != nil {
		go func() {
			if err := realtime.Run(ctx, feed.Handle); err != nil {
				log.Printf("Realtime listener stopped: %v", err)
			}
		}()
	} else {
		memory.OnChange(func(notice models.ChangeNotice) {
			feed.Handle(ctx, notice)
		})
	}

	router := handlers.NewRouter(cfg, handlers.Services{
		Orders:   orderService,
		Profiles: profileService,
		Auth:     authService,
		Feed:     feed,
		DB:       pinger,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// Open order streams end when the process is asked to stop.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Println("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Graceful shutdown failed: %v", err)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}
}
