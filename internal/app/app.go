package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"sav3_backend/internal/auth"
	"sav3_backend/internal/config"
	"sav3_backend/internal/dispatch"
	"sav3_backend/internal/handlers"
	"sav3_backend/internal/logger"
	"sav3_backend/internal/middleware"
	"sav3_backend/internal/models"
	"sav3_backend/internal/repositories"
	"sav3_backend/internal/routes"
	"sav3_backend/internal/services"
	"sav3_backend/internal/validator"
	"sav3_backend/internal/workers"
	"sav3_backend/pkg/email"
	"sav3_backend/pkg/errorreport"
	"sav3_backend/pkg/push"
	"sav3_backend/pkg/response"
	"sav3_backend/pkg/sms"
	"sav3_backend/ws"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig

	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	auth.Configure(cfg.JWT.Secret, time.Duration(cfg.JWT.TTL)*time.Minute)
	response.SetVersion(cfg.Server.Version)

	logger.Info("Connecting to database...")
	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := Migrate(gormDB); err != nil {
		logger.Fatal("Migration failed", "error", err)
	}

	if err := seedFirstAdmin(gormDB, cfg); err != nil {
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reporter := errorreport.New(errorreport.Config{
		RelayWSURL: cfg.Diagnostics.RelayWSURL,
		RelayURL:   cfg.Diagnostics.RelayURL,
		BufferSize: cfg.Diagnostics.BufferSize,
	})
	defer reporter.Close()

	ginRouter := SetupRouter(cfg, gormDB, reporter, ctx)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{Addr: address, Handler: ginRouter}

	go func() {
		logger.Info("Server starting", "address", address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server startup error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
}

// SetupRouter builds the full gin engine: repositories, services,
// handlers, websocket hub and background workers.
func SetupRouter(cfg *config.Config, gormDB *gorm.DB, reporter *errorreport.Reporter, workerCtx context.Context) *gin.Engine {
	userRepo := repositories.NewUserRepository(gormDB)
	notificationRepo := repositories.NewNotificationRepository(gormDB)
	settingsRepo := repositories.NewSettingsRepository(gormDB)
	campaignRepo := repositories.NewCampaignRepository(gormDB)

	serviceContainer := services.NewServiceContainer(
		userRepo, notificationRepo, settingsRepo, campaignRepo,
		time.Duration(cfg.JWT.TTL)*time.Minute,
	)

	wsManager := ws.NewWebSocketManager()
	go wsManager.Run()
	wsHandler := ws.NewWebSocketHandler(wsManager)

	errorBuffer := errorreport.NewBuffer(cfg.Diagnostics.BufferSize)

	customValidator := validator.New()
	appHandlers := handlers.NewAppHandlers(serviceContainer, customValidator, errorBuffer)

	startWorkers(workerCtx, cfg, gormDB, wsManager, userRepo, notificationRepo, settingsRepo, campaignRepo)

	ginRouter := initializeGinRouter(gormDB, reporter)
	routes.RegisterRoutes(ginRouter, appHandlers, wsHandler)

	return ginRouter
}

func startWorkers(
	ctx context.Context,
	cfg *config.Config,
	gormDB *gorm.DB,
	wsManager *ws.WebSocketManager,
	userRepo repositories.UserRepository,
	notificationRepo repositories.NotificationRepository,
	settingsRepo repositories.SettingsRepository,
	campaignRepo repositories.CampaignRepository,
) {
	emailClient := email.NewClient(
		cfg.Email.SMTPHost, cfg.Email.SMTPPort,
		cfg.Email.SMTPUsername, cfg.Email.SMTPPassword,
		cfg.Email.FromEmail, cfg.Email.FromName,
	)
	pushClient := push.NewClient(cfg.Push.GatewayURL, cfg.Push.APIKey)
	smsClient := sms.NewClient(cfg.SMS.GatewayURL, cfg.SMS.APIKey, cfg.SMS.From)

	retry := dispatch.Strategy{
		Attempts: cfg.Dispatch.RetryAttempts,
		Delay:    time.Duration(cfg.Dispatch.RetryDelayMS) * time.Millisecond,
		Backoff:  cfg.Dispatch.RetryBackoff,
	}

	router := dispatch.NewRouter(retry,
		dispatch.NewPushSender(pushClient, settingsRepo),
		dispatch.NewEmailSender(emailClient),
		dispatch.NewSMSSender(smsClient),
		dispatch.NewInAppSender(wsManager),
	)

	dispatchWorker := workers.NewDispatchWorker(
		notificationRepo, settingsRepo, userRepo, router,
		time.Duration(cfg.Dispatch.IntervalSeconds)*time.Second,
		cfg.Dispatch.BatchSize,
	)
	dispatchWorker.Start(ctx)

	campaignWorker := workers.NewCampaignWorker(campaignRepo, notificationRepo, userRepo, time.Minute)
	campaignWorker.Start(ctx)

	cleanupWorker := workers.NewCleanupWorker(notificationRepo, cfg.Cleanup.ReadRetentionDays)
	cleanupWorker.Start(ctx)

	logger.Info("Background workers started")
}

func initializeGinRouter(db *gorm.DB, reporter *errorreport.Reporter) *gin.Engine {
	router := gin.New()
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		reporter.Capture(errorreport.Report{
			Source:  "panic",
			Message: fmt.Sprint(recovered),
			URL:     c.Request.URL.Path,
		})
		logger.Error("panic recovered", "error", recovered, "path", c.Request.URL.Path)
		c.AbortWithStatus(http.StatusInternalServerError)
	}))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Total-Count", "X-Page-Count", "X-Page", "X-Per-Page", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middleware.DBMiddleware(db))
	return router
}

// Migrate keeps the schema in sync with the models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Notification{},
		&models.NotificationSettings{},
		&models.Campaign{},
	)
}

func seedFirstAdmin(db *gorm.DB, cfg *config.Config) error {
	adminEmail := cfg.FirstAdminEmail
	adminPassword := cfg.FirstAdminPassword

	if adminEmail == "" || adminPassword == "" {
		logger.Warn("FIRST_ADMIN_EMAIL or FIRST_ADMIN_PASSWORD is not set. Skipping admin seeding.")
		return nil
	}

	var existing models.User
	err := db.Where("email = ?", adminEmail).First(&existing).Error
	if err == nil {
		logger.Info("Admin user already exists. Skipping creation.", "email", adminEmail)
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	admin := &models.User{
		Email:        adminEmail,
		PasswordHash: hash,
		Name:         "Admin",
		Role:         models.UserRoleAdmin,
		Status:       models.UserStatusActive,
	}
	if err := db.Create(admin).Error; err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	logger.Info("First admin user created", "email", adminEmail)
	return nil
}
