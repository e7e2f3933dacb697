package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/8Tech-Consults/skills-chat/internal/config"
	"github.com/8Tech-Consults/skills-chat/internal/events"
	"github.com/8Tech-Consults/skills-chat/internal/handler"
	"github.com/8Tech-Consults/skills-chat/internal/middleware"
	"github.com/8Tech-Consults/skills-chat/internal/model"
	"github.com/8Tech-Consults/skills-chat/internal/repository"
	"github.com/8Tech-Consults/skills-chat/internal/service"
	"github.com/8Tech-Consults/skills-chat/migrations"
	"github.com/8Tech-Consults/skills-chat/pkg/auth"
	"github.com/8Tech-Consults/skills-chat/pkg/notification"
	"github.com/8Tech-Consults/skills-chat/pkg/storage"
)

// @title           Skills Chat API
// @version         1.0
// @description     Direct messaging API for the Skills marketplace: conversations, message lifecycle, unread ledger, media upload.

// @contact.name   API Support
// @contact.email  support@skills.ug

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      api.localhost
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	// ==================== Load Config ====================
	cfg := config.Load()
	log.Printf("🚀 Starting Skills Chat API Server [env=%s]", cfg.App.Env)

	// ==================== Database (PostgreSQL) ====================
	gormLogger := logger.Default.LogMode(logger.Info)
	if cfg.App.Env == "production" {
		gormLogger = logger.Default.LogMode(logger.Warn)
	}

	db, err := gorm.Open(postgres.Open(cfg.DB.DSN()), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	log.Println("✅ Connected to PostgreSQL")

	// ==================== Run Migrations ====================
	if err := migrations.Run(cfg.DB.URL()); err != nil {
		log.Printf("⚠️  Migration warning: %v", err)
		log.Println("📦 Falling back to GORM AutoMigrate...")
		if err := db.AutoMigrate(
			&model.User{},
			&model.Device{},
			&model.Conversation{},
			&model.Message{},
		); err != nil {
			log.Fatalf("❌ Failed to migrate database: %v", err)
		}
	}
	log.Println("✅ Database migrated successfully")

	// ==================== Redis ====================
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       0,
	})

	ctx := context.Background()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}
	log.Println("✅ Connected to Redis")

	// ==================== Initialize Layers ====================
	// JWT Manager
	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Expiry)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	convRepo := repository.NewConversationRepository(db)
	msgRepo := repository.NewMessageRepository(db)

	// Event publisher (Redis Pub/Sub, one channel per user)
	publisher := events.NewPublisher(rdb)

	// Firebase Cloud Messaging (optional)
	fcmService, err := notification.NewNotificationService(cfg.Firebase.CredentialsFile, userRepo)
	if err != nil {
		log.Printf("⚠️  Firebase not available: %v (push notifications disabled)", err)
	}
	var notifier service.PushNotifier
	if fcmService != nil {
		notifier = fcmService
		log.Println("✅ Firebase Cloud Messaging configured")
	}

	// Services
	chatService := service.NewChatService(db, convRepo, msgRepo, userRepo, publisher, notifier, cfg.Chat.EditWindow)

	// MinIO Storage
	minioStorage, err := storage.NewMinIO(storage.Config{
		Endpoint:  cfg.MinIO.Endpoint,
		PublicURL: cfg.MinIO.PublicURL,
		AccessKey: cfg.MinIO.AccessKey,
		SecretKey: cfg.MinIO.SecretKey,
		Bucket:    cfg.MinIO.Bucket,
		UseSSL:    cfg.MinIO.UseSSL,
	})
	if err != nil {
		log.Printf("⚠️  MinIO not available: %v (file upload disabled)", err)
	}
	if minioStorage != nil {
		log.Println("✅ Connected to MinIO")
	}

	// Handlers
	chatHandler := handler.NewChatHandler(chatService)
	uploadHandler := handler.NewUploadHandler(minioStorage)

	// ==================== Unread Reconciliation ====================
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()
	if cfg.Chat.ReconcileInterval > 0 {
		go func() {
			ticker := time.NewTicker(cfg.Chat.ReconcileInterval)
			defer ticker.Stop()
			for {
				select {
				case <-sweepCtx.Done():
					return
				case <-ticker.C:
					fixed, err := chatService.ReconcileUnreadCounts()
					if err != nil {
						log.Printf("⚠️  Unread reconciliation failed: %v", err)
						continue
					}
					if fixed > 0 {
						log.Printf("🔧 Unread reconciliation corrected %d counters", fixed)
					}
				}
			}
		}()
	}

	// ==================== Gin Router ====================
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// Swagger configuration
	// Serve swagger.json at /docs/swagger.json to avoid conflict with /swagger/* wildcard
	router.StaticFile("/docs/swagger.json", "./docs/swagger.json")

	url := ginSwagger.URL("/docs/swagger.json")
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, url))

	// Global middleware
	router.Use(middleware.CORSMiddleware(cfg.CORS.Origins))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "skills-chat-api",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	// ==================== API Routes ====================
	api := router.Group("/api/v1")
	{
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(jwtManager, rdb))
		{
			// Conversations
			protected.GET("/conversations", chatHandler.ListConversations)
			protected.POST("/conversations", chatHandler.GetOrCreateConversation)
			protected.POST("/conversations/:key/archive", chatHandler.ToggleArchive)
			protected.POST("/conversations/:key/mute", chatHandler.ToggleMute)

			// Messages
			protected.GET("/conversations/:key/messages", chatHandler.ListMessages)
			protected.POST("/conversations/:key/messages", chatHandler.SendMessage)
			protected.GET("/conversations/:key/search", chatHandler.SearchMessages)
			protected.POST("/conversations/:key/read", chatHandler.MarkRead)
			protected.POST("/conversations/:key/delivered", chatHandler.MarkDelivered)
			protected.PATCH("/messages/:id", chatHandler.EditMessage)
			protected.DELETE("/messages/:id", chatHandler.DeleteMessage)
			protected.PUT("/messages/:id/reaction", chatHandler.React)
			protected.DELETE("/messages/:id/reaction", chatHandler.Unreact)

			// Upload
			protected.POST("/upload", uploadHandler.UploadFile)
			protected.POST("/upload/multiple", uploadHandler.UploadMultiple)
		}
	}

	// ==================== Start Server ====================
	srv := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server failed: %v", err)
		}
	}()

	log.Printf("🌐 Skills Chat API running on http://0.0.0.0:%s", cfg.App.Port)
	log.Printf("📋 API docs: http://0.0.0.0:%s/swagger/index.html", cfg.App.Port)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down server...")

	// Give ongoing requests 5 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	sweepCancel()
	log.Println("✅ Server exited gracefully")
}
