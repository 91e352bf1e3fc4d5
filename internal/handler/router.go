package handler

import (
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/nilantra/furniture-api/internal/middleware"
	"github.com/nilantra/furniture-api/internal/model"
	"github.com/nilantra/furniture-api/internal/storage"
)

type Handlers struct {
	Auth    *AuthHandler
	User    *UserHandler
	Product *ProductHandler
	Cart    *CartHandler
	Order   *OrderHandler
	Review  *ReviewHandler
	Health  *HealthHandler
}

type RouterConfig struct {
	Authenticator   middleware.TokenAuthenticator
	Redis           *redis.Client
	RateLimitCount  int64
	RateLimitPeriod time.Duration
	CORSOrigins     []string
	UploadDir       string
	MaxUploadBytes  int64
	Development     bool
	Log             *slog.Logger
}

func NewRouter(h Handlers, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), middleware.Recovery(cfg.Log, cfg.Development))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if cfg.MaxUploadBytes > 0 {
		router.MaxMultipartMemory = cfg.MaxUploadBytes
	}
	if cfg.UploadDir != "" {
		router.Static(storage.URLPrefix, cfg.UploadDir)
	}

	router.GET("/healthz", h.Health.Healthz)
	router.GET("/readyz", h.Health.Readyz)

	authed := middleware.AuthMiddleware(cfg.Authenticator)
	optional := middleware.OptionalAuth(cfg.Authenticator)
	adminOnly := middleware.RequireRole(model.RoleAdmin)
	limit := func(name string) gin.HandlerFunc {
		return middleware.RateLimit(cfg.Redis, name, cfg.RateLimitCount, cfg.RateLimitPeriod, cfg.Log)
	}

	api := router.Group("/api")
	{
		users := api.Group("/user")
		users.POST("/register", limit("register"), h.Auth.Register)
		users.POST("/login", limit("login"), h.Auth.Login)
		users.GET("", authed, adminOnly, h.User.List)
		users.GET("/:id", authed, h.User.Get)
		users.PUT("/:id", authed, h.User.Update)
		users.DELETE("/:id", authed, adminOnly, h.User.Delete)

		products := api.Group("/products")
		products.GET("", optional, h.Product.List)
		products.GET("/export", authed, adminOnly, h.Product.Export)
		products.GET("/:id", optional, h.Product.GetByID)
		products.POST("", authed, middleware.RequireRole(model.RoleVendor), h.Product.Create)
		products.PUT("/:id", authed, h.Product.Update)
		products.DELETE("/:id", authed, h.Product.Delete)

		cart := api.Group("/cart", authed)
		cart.POST("/add", h.Cart.AddItem)
		cart.GET("/:userId", h.Cart.GetCart)
		cart.DELETE("/remove/:userId/:productId", h.Cart.RemoveItem)
		cart.DELETE("/clear/:userId", h.Cart.Clear)

		orders := api.Group("/order", authed)
		orders.POST("", h.Order.CreateOrder)
		orders.POST("/payment/process", h.Order.ProcessPayment)
		orders.GET("/all", adminOnly, h.Order.ListAll)
		orders.GET("/ws", adminOnly, h.Order.Subscribe)
		orders.GET("/user/:userId", h.Order.ListByUser)
		orders.GET("/vendor/:vendorId", h.Order.ListByVendor)
		orders.GET("/:id", h.Order.GetOrder)
		orders.PUT("/:id", adminOnly, h.Order.UpdateStatus)
		orders.DELETE("/:id", adminOnly, h.Order.Delete)

		reviews := api.Group("/reviews")
		reviews.GET("", h.Review.List)
		reviews.GET("/general", h.Review.ListGeneral)
		reviews.POST("/general", optional, h.Review.Create)
		reviews.GET("/product/:productId", h.Review.ListByProduct)
		reviews.GET("/:id", h.Review.Get)
		reviews.PUT("/:id", authed, h.Review.Update)
		reviews.DELETE("/:id", authed, h.Review.Delete)
	}

	return router
}
