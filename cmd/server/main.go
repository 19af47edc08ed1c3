// Package main runs the agricultural mechanization portal API with the live attendee feed,
// the in-process email worker and graceful shutdown.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agrimech/portal/config"
	"github.com/agrimech/portal/internal/accounts"
	"github.com/agrimech/portal/internal/admin"
	"github.com/agrimech/portal/internal/analytics"
	"github.com/agrimech/portal/internal/auth"
	"github.com/agrimech/portal/internal/contacts"
	"github.com/agrimech/portal/internal/emaillogs"
	"github.com/agrimech/portal/internal/events"
	"github.com/agrimech/portal/internal/health"
	"github.com/agrimech/portal/internal/metrics"
	"github.com/agrimech/portal/internal/middleware"
	"github.com/agrimech/portal/internal/models"
	"github.com/agrimech/portal/internal/notify"
	"github.com/agrimech/portal/internal/realtime"
	"github.com/agrimech/portal/internal/registrations"
	"github.com/agrimech/portal/internal/resources"
	"github.com/agrimech/portal/internal/session"
	"github.com/agrimech/portal/internal/webinars"
	"github.com/agrimech/portal/internal/worker"
	"github.com/agrimech/portal/pkg/database"
	"github.com/agrimech/portal/pkg/logging"
	"github.com/agrimech/portal/pkg/queue"
	"github.com/agrimech/portal/pkg/redis"
	"github.com/agrimech/portal/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	env := ""
	if cfg != nil {
		env = cfg.Env
	}
	logger := logging.New(env)
	defer logger.Sync()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	// Files: optional. Without S3, stored file URLs are served as-is and uploads are refused.
	var files *storage.S3
	if cfg.AWS.Region != "" {
		files, err = storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			ResourcesBucket:      cfg.AWS.ResourcesBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
			files = nil
		}
	}

	// Email: producers enqueue, the worker sends.
	jobQueue := queue.NewQueue(rdb.Client, logger)
	mailer, err := notify.NewMailer(jobQueue, cfg.BaseURL, logger)
	if err != nil {
		logger.Fatal("email templates", zap.Error(err))
	}
	sender := notify.NewSender(cfg.Email, logger)
	emailLogRepo := emaillogs.NewRepository(pool)
	emailProcessor := worker.NewEmailProcessor(emailLogRepo, sender, jobQueue, logger)

	// Live attendee feed, fanned out across instances through Redis.
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)
	defer hub.Close()

	hasher := auth.NewHasher(cfg.Auth.BcryptCost)
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	// Site users
	userRepo := accounts.NewRepository(pool)
	accountService := accounts.NewService(userRepo, hasher, mailer, accounts.Options{
		RequireEmailVerification: cfg.Auth.RequireEmailVerification,
	}, logger)
	accountHandler := accounts.NewHandler(accountService, logger)
	userAdminHandler := accounts.NewAdminHandler(accountService, logger)

	sessionStore := session.NewStore(rdb.Client, time.Duration(cfg.Session.TTLHours)*time.Hour)
	sessionHandler := session.NewHandler(accountService, sessionStore, cfg.Session.CookieName, cfg.IsProduction(), logger)

	// Administrators
	adminService := admin.NewService(admin.NewRepository(pool), hasher, jwtService, mailer, logger)
	adminHandler := admin.NewHandler(adminService, logger)

	// Webinars and registrations
	webinarRepo := webinars.NewRepository(pool)
	var webinarFiles webinars.FileStore
	var libraryFiles resources.FileStore
	if files != nil {
		webinarFiles, libraryFiles = files, files
	}
	webinarService := webinars.NewService(webinarRepo, webinarFiles, logger)
	webinarHandler := webinars.NewHandler(webinarService, logger)
	webinarAdminHandler := webinars.NewAdminHandler(webinarService, logger)

	registrationService := registrations.NewService(registrations.NewRepository(pool), webinarRepo, userRepo, mailer, hub, logger)
	registrationHandler := registrations.NewHandler(registrationService, logger)

	// Site content
	contactHandler := contacts.NewHandler(contacts.NewService(contacts.NewRepository(pool), mailer, logger), logger)
	eventHandler := events.NewHandler(events.NewService(events.NewRepository(pool), logger), logger)
	libraryHandler := resources.NewHandler(resources.NewService(resources.NewRepository(pool), libraryFiles, logger), logger)
	emailLogHandler := emaillogs.NewHandler(emailLogRepo, logger)
	statsHandler := analytics.NewHandler(analytics.NewRepository(pool), hub, logger)

	healthHandler := health.NewHandler(map[string]health.Checker{
		"postgres": pool,
		"redis":    health.CheckFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
	}, logger)

	limiter := middleware.NewRateLimiter(rdb.Client, cfg.RateLimit.AuthPerMinute, time.Minute, logger)
	upgrader := realtime.NewUpgrader(splitOrigins(cfg.Server.CORSAllowedOrigins))

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))
	router.Use(metrics.Middleware())

	router.GET("/health", healthHandler.Live)
	router.GET("/health/ready", healthHandler.Ready)
	if cfg.Metrics.Enabled {
		router.GET("/metrics", metrics.Handler())
	}

	router.GET("/ws/webinars/:slug", realtime.ServeWs(hub, webinarRepo, upgrader, logger))

	api := router.Group("/api")
	api.Use(session.Load(sessionStore, accountService, cfg.Session.CookieName, logger))
	{
		// Accounts and sessions
		api.POST("/register", limiter.Limit("register"), accountHandler.Register)
		api.GET("/verify-email", accountHandler.VerifyEmail)
		api.POST("/resend-verification", limiter.Limit("resend-verification"), accountHandler.ResendVerification)
		api.POST("/forgot-password", limiter.Limit("forgot-password"), accountHandler.ForgotPassword)
		api.POST("/reset-password", accountHandler.ResetPassword)
		api.POST("/login", limiter.Limit("login"), sessionHandler.Login)
		api.POST("/logout", sessionHandler.Logout)

		user := api.Group("")
		user.Use(session.Require())
		user.GET("/user", sessionHandler.Me)
		user.GET("/user/webinars", registrationHandler.Mine)
		user.GET("/profile", accountHandler.Profile)
		user.PUT("/profile", accountHandler.UpdateProfile)
		user.PUT("/profile/password", accountHandler.ChangePassword)

		// Webinars
		api.GET("/webinars", webinarHandler.List)
		api.GET("/webinars/:slug", webinarHandler.Get)
		api.GET("/webinars/:slug/resources/:id/download", webinarHandler.DownloadResource)
		api.GET("/webinars/:slug/recordings/:id", webinarHandler.ViewRecording)
		api.POST("/webinars/:slug/register", limiter.Limit("webinar-register"), registrationHandler.Register)
		api.DELETE("/webinars/:slug/register", registrationHandler.Cancel)
		api.GET("/webinars/:slug/registration", registrationHandler.Status)

		// Site content
		api.POST("/contact", limiter.Limit("contact"), contactHandler.Submit)
		api.GET("/events", eventHandler.List)
		api.GET("/events/:slug", eventHandler.Get)
		api.GET("/resources", libraryHandler.List)
		api.GET("/resources/categories", libraryHandler.Categories)
		api.GET("/resources/:slug", libraryHandler.Get)
		api.GET("/resources/:slug/download", libraryHandler.Download)
	}

	adminPublic := router.Group("/api/admin")
	{
		adminPublic.POST("/login", limiter.Limit("admin-login"), adminHandler.Login)
		adminPublic.POST("/forgot-password", limiter.Limit("admin-forgot-password"), adminHandler.ForgotPassword)
		adminPublic.POST("/reset-password", adminHandler.ResetPassword)
	}

	adminAPI := router.Group("/api/admin")
	adminAPI.Use(middleware.AdminGuard(adminService, logger))
	{
		adminAPI.GET("/verify", adminHandler.Verify)
		adminAPI.GET("/stats", statsHandler.Stats)

		adminAPI.GET("/users", userAdminHandler.List)
		adminAPI.POST("/users", userAdminHandler.Create)
		adminAPI.GET("/users/:id", userAdminHandler.Get)
		adminAPI.PUT("/users/:id", userAdminHandler.Update)
		adminAPI.DELETE("/users/:id", userAdminHandler.Delete)

		adminAPI.GET("/webinars", webinarAdminHandler.List)
		adminAPI.POST("/webinars", webinarAdminHandler.Create)
		adminAPI.GET("/webinars/:id", webinarAdminHandler.Get)
		adminAPI.PUT("/webinars/:id", webinarAdminHandler.Update)
		adminAPI.DELETE("/webinars/:id", webinarAdminHandler.Delete)
		adminAPI.GET("/webinars/:id/stats", statsHandler.WebinarStats)
		adminAPI.GET("/webinars/:id/registrations", registrationHandler.ListForWebinar)
		adminAPI.PUT("/registrations/:id/attended", registrationHandler.SetAttended)
		adminAPI.GET("/webinars/:id/resources", webinarAdminHandler.ListResources)
		adminAPI.POST("/webinars/:id/resources", webinarAdminHandler.CreateResource)
		adminAPI.POST("/webinars/:id/resources/upload", webinarAdminHandler.UploadResource)
		adminAPI.PUT("/webinar-resources/:id", webinarAdminHandler.UpdateResource)
		adminAPI.DELETE("/webinar-resources/:id", webinarAdminHandler.DeleteResource)
		adminAPI.GET("/webinars/:id/recordings", webinarAdminHandler.ListRecordings)
		adminAPI.POST("/webinars/:id/recordings", webinarAdminHandler.CreateRecording)
		adminAPI.PUT("/webinar-recordings/:id", webinarAdminHandler.UpdateRecording)
		adminAPI.DELETE("/webinar-recordings/:id", webinarAdminHandler.DeleteRecording)

		adminAPI.GET("/contacts", contactHandler.List)
		adminAPI.GET("/contacts/:id", contactHandler.Get)
		adminAPI.PUT("/contacts/:id", contactHandler.Update)
		adminAPI.DELETE("/contacts/:id", contactHandler.Delete)

		adminAPI.GET("/events", eventHandler.AdminList)
		adminAPI.POST("/events", eventHandler.Create)
		adminAPI.GET("/events/:id", eventHandler.AdminGet)
		adminAPI.PUT("/events/:id", eventHandler.Update)
		adminAPI.DELETE("/events/:id", eventHandler.Delete)

		adminAPI.GET("/resources", libraryHandler.AdminList)
		adminAPI.POST("/resources", libraryHandler.Create)
		adminAPI.POST("/resources/upload", libraryHandler.Upload)
		adminAPI.GET("/resources/:id", libraryHandler.AdminGet)
		adminAPI.PUT("/resources/:id", libraryHandler.Update)
		adminAPI.DELETE("/resources/:id", libraryHandler.Delete)

		adminAPI.GET("/email-logs", emailLogHandler.List)

		superAdmin := adminAPI.Group("/admins")
		superAdmin.Use(middleware.RequireAdminRole(models.AdminRoleSuperAdmin))
		superAdmin.GET("", adminHandler.List)
		superAdmin.POST("", adminHandler.Create)
		superAdmin.GET("/:id", adminHandler.Get)
		superAdmin.PUT("/:id", adminHandler.Update)
		superAdmin.DELETE("/:id", adminHandler.Delete)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		emailProcessor.Run(workerCtx)
	}()
	logger.Info("email worker started", zap.String("transport", cfg.Email.Transport()))

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		logger.Warn("email worker did not stop in time")
	}
	logger.Info("server stopped")
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
