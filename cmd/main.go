package main

import (
	"fitpro-server/internal/auth"
	"fitpro-server/internal/handler"
	"fitpro-server/internal/mailer"
	"fitpro-server/internal/middleware"
	"fitpro-server/internal/rbac"
	"fitpro-server/internal/tenant"
	"fitpro-server/pkg/config"
	"fitpro-server/pkg/database"
	"fitpro-server/pkg/jwtutil"
	"fitpro-server/pkg/logger"
	"fitpro-server/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	if err := logger.InitLogger(cfg); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	log.Info("Starting gym management service...", zap.String("environment", cfg.Server.Env))

	// Initialize database
	if err := database.Initialize(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utility initialized")

	// Pick the outbound mail sender. Without an API key, mail is logged and
	// dropped, which keeps local development self-contained.
	var mail mailer.Sender
	if cfg.Mail.ResendAPIKey != "" {
		mail = mailer.NewResendSender(cfg.Mail.ResendAPIKey, cfg.Mail.FromAddress)
		log.Info("Resend mail sender configured", zap.String("from", cfg.Mail.FromAddress))
	} else {
		mail = mailer.NoopSender{}
		log.Warn("No RESEND_API_KEY set, outbound mail disabled")
	}

	// Wire services
	authService := auth.NewService(database.GetDB(), mail, cfg.Bootstrap.SysadminEmail)
	gymResolver := tenant.NewResolver(database.GetDB())
	handler.Initialize(authService, gymResolver)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Authentication routes - these don't belong under /api since they're for getting access to the API
	authGroup := e.Group("/auth")
	authGroup.POST("/login", handler.Login)
	authGroup.POST("/register", handler.Register)
	authGroup.POST("/password-reset/request", handler.RequestPasswordReset)
	authGroup.POST("/password-reset/confirm", handler.ResetPassword)

	// API routes - all require authentication
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)

	// Session introspection
	api.GET("/session", handler.GetSession)
	api.POST("/logout", handler.Logout)

	// User management
	users := api.Group("/users")
	users.GET("/profile", handler.GetProfile)
	users.PATCH("/profile", handler.UpdateProfile)
	users.POST("/change-password", handler.ChangePassword)
	users.GET("", handler.ListUsers)
	users.PATCH("/:id/role", handler.UpdateUserRole)
	users.PATCH("/:id/gym", handler.UpdateUserGym)
	users.PATCH("/:id/active", handler.SetUserActive)
	users.DELETE("/:id", handler.DeleteUser)

	// Gym catalog and context switching
	gyms := api.Group("/gyms")
	gyms.POST("", handler.CreateGym)
	gyms.GET("", handler.ListGyms)
	gyms.GET("/watch", handler.WatchGyms)
	gyms.GET("/current", handler.GetCurrentGym)
	gyms.GET("/:id", handler.GetGym)
	gyms.PATCH("/:id", handler.UpdateGymSettings)
	gyms.PATCH("/:id/active", handler.SetGymActive)
	gyms.POST("/:id/switch", handler.SwitchGym)

	// Invites
	invites := api.Group("/invites")
	invites.POST("", handler.CreateInvite)
	invites.GET("", handler.ListInvites)
	invites.PATCH("/:id", handler.UpdateInvite)
	invites.DELETE("/:id", handler.DeleteInvite)

	// Gym content - everything below requires an active gym context
	content := api.Group("", middleware.RequireGymContext)

	classes := content.Group("/classes")
	classes.POST("", handler.CreateClass)
	classes.GET("", handler.ListClasses)
	classes.PATCH("/:id", handler.UpdateClass)
	classes.DELETE("/:id", handler.DeleteClass)

	exercises := content.Group("/exercises")
	exercises.POST("", handler.CreateExercise)
	exercises.GET("", handler.ListExercises)
	exercises.PATCH("/:id", handler.UpdateExercise)
	exercises.DELETE("/:id", handler.DeleteExercise)

	routines := content.Group("/routines")
	routines.POST("", handler.CreateRoutine)
	routines.GET("", handler.ListRoutines)
	routines.PATCH("/:id", handler.UpdateRoutine)
	routines.DELETE("/:id", handler.DeleteRoutine)

	wods := content.Group("/wods")
	wods.POST("", handler.CreateWod)
	wods.GET("", handler.ListWods)
	wods.GET("/:id", handler.GetWod)
	wods.PATCH("/:id", handler.UpdateWod)
	wods.DELETE("/:id", handler.DeleteWod)

	records := content.Group("/records")
	records.POST("", handler.CreateRecord)
	records.GET("", handler.ListRecords)
	records.POST("/:id/validate", handler.ValidateRecord)
	records.DELETE("/:id", handler.DeleteRecord)

	rankings := content.Group("/rankings")
	rankings.POST("", handler.CreateRanking)
	rankings.GET("", handler.ListRankings)
	rankings.PATCH("/:id", handler.UpdateRanking)
	rankings.DELETE("/:id", handler.DeleteRanking)

	events := content.Group("/events")
	events.POST("", handler.CreateEvent)
	events.GET("", handler.ListEvents)
	events.PATCH("/:id", handler.UpdateEvent)
	events.DELETE("/:id", handler.DeleteEvent)

	news := content.Group("/news")
	news.POST("", handler.CreateNews)
	news.GET("", handler.ListNews)
	news.POST("/:id/publish", handler.PublishNews)
	news.PATCH("/:id", handler.UpdateNews)
	news.DELETE("/:id", handler.DeleteNews)

	// Sysadmin-only maintenance surface
	admin := api.Group("/admin", middleware.RequireRole(rbac.RoleSysadmin))
	admin.GET("/users", handler.ListUsers)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
