package handlers

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"order-desk-backend/internal/config"
	"order-desk-backend/internal/middleware"
	"order-desk-backend/internal/models"
	"order-desk-backend/internal/services"
)

// Services are the dependencies the HTTP surface is built from.
type Services struct {
	Orders   *services.OrderService
	Profiles *services.ProfileService
	Auth     *services.AuthService
	Feed     *services.OrderFeed
	// DB is nil when running on the in-memory store.
	DB Pinger
}

// NewRouter builds the gin engine with every route under /api/v1.
func NewRouter(cfg *config.Config, svc Services) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.SiteURL))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check (no auth)
	health := Health(svc.DB)
	router.GET("/health", health)

	api := router.Group("/api/v1")
	api.GET("/health", health)

	authHandler := NewAuthHandler(svc.Auth)
	ordersHandler := NewOrdersHandler(svc.Orders)
	workerHandler := NewWorkerHandler(svc.Orders)
	profilesHandler := NewProfilesHandler(svc.Profiles)
	streamHandler := NewStreamHandler(svc.Feed)

	// Account flows
	public := api.Group("/auth")
	public.POST("/register", authHandler.Register)
	public.POST("/login", authHandler.Login)
	public.POST("/refresh", authHandler.Refresh)
	public.POST("/forgot-password", authHandler.ForgotPassword)
	public.POST("/resend-verification", authHandler.ResendVerification)

	// Token only: recovery sessions may not have a verified profile yet
	token := api.Group("/auth")
	token.Use(middleware.AuthMiddleware(cfg))
	token.POST("/reset-password", authHandler.ResetPassword)
	token.POST("/logout", authHandler.Logout)

	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware(cfg))
	authed.Use(middleware.SessionMiddleware(svc.Profiles, cfg.RequireEmailVerified))

	// Profiles
	authed.GET("/me", profilesHandler.GetMe)
	authed.PATCH("/me", profilesHandler.UpdateMe)
	authed.POST("/me/avatar", profilesHandler.UploadAvatar)
	authed.GET("/me/stats", profilesHandler.GetStats)

	// Orders, any role
	authed.GET("/orders/stream", streamHandler.Stream)
	authed.GET("/orders/:order_id", ordersHandler.GetOrder)
	authed.GET("/orders/:order_id/progress", ordersHandler.ListProgress)

	admin := authed.Group("")
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	admin.POST("/orders", ordersHandler.CreateOrder)
	admin.GET("/orders", ordersHandler.ListOrders)
	admin.PATCH("/orders/:order_id/status", ordersHandler.SetStatus)
	admin.GET("/profiles", profilesHandler.ListProfiles)

	worker := authed.Group("")
	worker.Use(middleware.RequireRole(models.RoleWorker))
	worker.GET("/orders/available", workerHandler.ListAvailable)
	worker.GET("/orders/mine", workerHandler.ListMine)
	worker.POST("/orders/:order_id/claim", workerHandler.Claim)
	worker.POST("/orders/:order_id/release", workerHandler.Release)
	worker.POST("/orders/:order_id/progress", workerHandler.RecordProgress)

	return router
}
