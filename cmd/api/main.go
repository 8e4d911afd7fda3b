package main

import (
	"log"

	"couponhub/internal/config"
	"couponhub/internal/database"
	"couponhub/internal/handler"
	"couponhub/internal/media"
	"couponhub/internal/repository"
	"couponhub/internal/service"
	"couponhub/internal/websocket"
	"couponhub/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           CouponHub API
// @version         1.0
// @description     Coupon issuance and redemption platform connecting vendors, partner stores and consumers.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		log.Fatalf("Logger initialization failed: %v", err)
	}
	defer logger.Sync()

	db, err := database.NewConnection(cfg.DatabaseURL)
	if err != nil {
		logger.L().Fatal("database connection failed", zap.Error(err))
	}
	logger.L().Info("connected to PostgreSQL")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	memberRepo := repository.NewMemberRepository(db)
	partnerRepo := repository.NewPartnerRepository(db)
	productRepo := repository.NewProductRepository(db)
	issueRepo := repository.NewIssueRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	qrRepo := repository.NewPaymentQrRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	mediaClient := media.NewClient(cfg.MediaServiceURL, cfg.MediaTimeout)

	mintingService := service.NewMintingService(couponRepo)
	issueService := service.NewIssueService(issueRepo, partnerRepo, productRepo, auditRepo, mintingService, txManager, wsHub)
	couponService := service.NewCouponService(couponRepo, auditRepo, txManager)
	paymentService := service.NewPaymentService(couponRepo, qrRepo, issueRepo, auditRepo, txManager, mediaClient, wsHub)
	authService := service.NewAuthService(memberRepo, partnerRepo, tokenRepo, issueService, txManager, cfg.JWTSecret, cfg.TokenExpires, cfg.RefreshExpires)
	partnerService := service.NewPartnerService(partnerRepo, productRepo)
	auditService := service.NewAuditService(auditRepo)

	secret := []byte(cfg.JWTSecret)
	authHandler := handler.NewAuthHandler(authService)
	issueHandler := handler.NewIssueHandler(issueService, secret)
	couponHandler := handler.NewCouponHandler(couponService, secret)
	paymentHandler := handler.NewPaymentHandler(paymentService, secret)
	partnerHandler := handler.NewPartnerHandler(partnerService, auditService, secret)

	// Set up Gin Router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint for issue lifecycle events
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, secret)
	})

	// Register API Routes
	authHandler.RegisterRoutes(router.Group(""))
	issueHandler.RegisterRoutes(router.Group(""))
	couponHandler.RegisterRoutes(router.Group(""))
	paymentHandler.RegisterRoutes(router.Group(""))
	partnerHandler.RegisterRoutes(router.Group(""))

	logger.L().Info("server listening", zap.String("port", cfg.AppPort))
	if err := router.Run(":" + cfg.AppPort); err != nil {
		logger.L().Fatal("server failed", zap.Error(err))
	}
}
