package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	appAuth "github.com/yigit/alumnet/internal/app/auth"
	appControllers "github.com/yigit/alumnet/internal/app/controllers"
	appMigrations "github.com/yigit/alumnet/internal/app/migrations"
	appModels "github.com/yigit/alumnet/internal/app/models"
	appRepos "github.com/yigit/alumnet/internal/app/repositories"
	appRoutes "github.com/yigit/alumnet/internal/app/routes"
	appServices "github.com/yigit/alumnet/internal/app/services"
	"github.com/yigit/alumnet/internal/config"
	"github.com/yigit/alumnet/internal/db"
	appMiddleware "github.com/yigit/alumnet/internal/middleware"
	pkgAuth "github.com/yigit/alumnet/internal/pkg/auth"
	"github.com/yigit/alumnet/internal/pkg/email"
	"github.com/yigit/alumnet/internal/pkg/filestorage"
	"github.com/yigit/alumnet/internal/pkg/helpers"
	"github.com/yigit/alumnet/internal/pkg/logger"
	"github.com/yigit/alumnet/internal/pkg/metrics"
	"github.com/yigit/alumnet/internal/pkg/validation"
	"github.com/yigit/alumnet/internal/pkg/websocket"
	"github.com/yigit/alumnet/internal/seed"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// uploadsPath is where the local driver's files are served from.
const uploadsPath = "/uploads"

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos        *appRepos.Repositories
	JWTService   *pkgAuth.JWTService
	AuthzService *appAuth.AuthorizationService
	Storage      filestorage.FileStorage
	Mailer       email.EmailService
	Metrics      *metrics.Metrics
	Hub          *websocket.Hub
	WSHandler    *websocket.Handler

	AuthService         appServices.AuthService
	UserService         appServices.UserService
	ConnectionService   appServices.ConnectionService
	PostService         appServices.PostService
	MediaService        appServices.MediaService
	NotificationService appServices.NotificationService
	PointsService       appServices.PointsService
	RolloverService     appServices.RolloverService
	AdminService        appServices.AdminService
	EventService        appServices.EventService
	Scheduler           *appServices.Scheduler

	Controllers    appRoutes.Controllers
	AuthMiddleware *appMiddleware.AuthMiddleware
	Logger         zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := logger.Get()
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection, runs migrations and
// seeds the main admin and points config.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool
	lgr.Info().Msg("Database connection successfully established.")

	lgr.Info().Msg("Running database migrations...")
	migrationsDir := cfg.Database.MigrationsDir
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		dbPool.Close()
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	migrator := appMigrations.NewMigrator(dbPool)
	if err := migrator.MigrateFromDirectory(ctx, migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		dbPool.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	admin := seed.MainAdmin{
		Name:       cfg.MainAdmin.Name,
		Email:      cfg.MainAdmin.Email,
		Password:   cfg.MainAdmin.Password,
		EmployeeID: cfg.MainAdmin.EmployeeID,
	}
	defaults := appModels.PointsConfig{
		ProfileCompletionPoints: cfg.Points.ProfileCompletionPoints,
		ConnectionPoints:        cfg.Points.ConnectionPoints,
		PostPoints:              cfg.Points.PostPoints,
		PostLimitCount:          cfg.Points.PostLimitCount,
		PostLimitDays:           cfg.Points.PostLimitDays,
	}
	err = seed.CreateDefaultData(ctx,
		appRepos.NewUserRepository(dbPool),
		appRepos.NewPointsConfigRepository(dbPool),
		admin, defaults, lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return dbPool, nil
}

// newStorage picks the media driver named by the config.
func newStorage(ctx context.Context, cfg *config.Config) (filestorage.FileStorage, error) {
	switch strings.ToLower(cfg.Storage.Driver) {
	case "s3":
		return filestorage.NewS3Storage(ctx, filestorage.S3Config{
			Bucket:        cfg.Storage.S3Bucket,
			Region:        cfg.Storage.S3Region,
			Prefix:        cfg.Storage.S3Prefix,
			PublicURL:     cfg.Storage.S3PublicURL,
			PresignExpiry: helpers.ParseDuration(cfg.Storage.PresignExpiry, 5*time.Minute),
		})
	default:
		baseURL := strings.TrimRight(cfg.Server.PublicBaseURL, "/") + uploadsPath
		return filestorage.NewLocalStorage(cfg.Storage.LocalPath, baseURL)
	}
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(ctx context.Context, cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(dbPool)
	tx := db.NewTxManager(dbPool)

	var err error
	deps.Storage, err = newStorage(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Str("driver", cfg.Storage.Driver).Msg("Failed to initialize file storage")
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	if cfg.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		deps.Metrics = metrics.New(registry)
	}

	deps.Mailer = email.NewEmailService(email.SMTPConfig{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromName:  cfg.SMTP.FromName,
		FromEmail: cfg.SMTP.FromEmail,
		UseTLS:    cfg.SMTP.UseTLS,
		Disabled:  cfg.SMTP.Disabled,
		ClientURL: cfg.SMTP.ClientURL,
	}, logger.Component("email"))

	deps.Hub = websocket.NewHub(logger.Component("websocket"), deps.Metrics)
	deps.WSHandler = websocket.NewHandler(deps.Hub, cfg.Server.CORSOrigins, logger.Component("websocket"))

	deps.AuthzService = appAuth.NewAuthorizationService()

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 168*time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})

	repos := deps.Repos
	m := deps.Metrics

	deps.NotificationService = appServices.NewNotificationService(
		repos.NotificationRepository, repos.UserRepository, deps.Hub, m, logger.Component("notifications"))

	deps.PointsService = appServices.NewPointsService(
		repos.UserRepository,
		repos.PointsConfigRepository,
		tx,
		deps.NotificationService,
		appServices.PointsDefaults{
			ProfileCompletionPoints: cfg.Points.ProfileCompletionPoints,
			ConnectionPoints:        cfg.Points.ConnectionPoints,
			PostPoints:              cfg.Points.PostPoints,
			PostLimitCount:          cfg.Points.PostLimitCount,
			PostLimitDays:           cfg.Points.PostLimitDays,
		},
		m,
		logger.Component("points"),
	)

	deps.RolloverService = appServices.NewRolloverService(
		repos.UserRepository, repos.RolloverRepository, repos.PointsConfigRepository,
		deps.PointsService, tx, m, logger.Component("rollover"))

	deps.AuthService = appServices.NewAuthService(
		repos.UserRepository, repos.TokenRepository, repos.OTPRepository,
		tx, deps.JWTService, deps.Mailer, m, logger.Component("auth"))

	deps.UserService = appServices.NewUserService(
		repos.UserRepository, repos.VisitRepository, repos.PostRepository,
		deps.Storage, deps.PointsService, tx, m, logger.Component("users"))

	deps.ConnectionService = appServices.NewConnectionService(
		repos.UserRepository, tx, deps.PointsService, deps.NotificationService, m, logger.Component("connections"))

	deps.PostService = appServices.NewPostService(
		repos.PostRepository, repos.UserRepository, tx, deps.AuthzService,
		deps.PointsService, deps.NotificationService, deps.Hub, deps.Storage, m, logger.Component("posts"))

	deps.MediaService = appServices.NewMediaService(deps.Storage, m, logger.Component("media"))

	deps.AdminService = appServices.NewAdminService(
		repos.UserRepository, repos.PostRepository, tx, deps.AuthzService,
		deps.Storage, deps.Mailer, m, logger.Component("admin"))

	deps.EventService = appServices.NewEventService(repos.EventRepository, logger.Component("events"))

	deps.Scheduler = appServices.NewScheduler(
		deps.RolloverService,
		repos.TokenRepository,
		helpers.ParseDuration(cfg.Rollover.CheckInterval, time.Hour),
		cfg.Rollover.SchedulerEnabled,
		logger.Component("scheduler"),
	)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, repos.UserRepository)

	deps.Controllers = appRoutes.Controllers{
		Auth:         appControllers.NewAuthController(deps.AuthService, lgr),
		User:         appControllers.NewUserController(deps.UserService, deps.PointsService),
		Connection:   appControllers.NewConnectionController(deps.ConnectionService),
		Post:         appControllers.NewPostController(deps.PostService),
		Media:        appControllers.NewMediaController(deps.MediaService),
		Notification: appControllers.NewNotificationController(deps.NotificationService),
		Admin:        appControllers.NewAdminController(deps.AdminService, lgr),
		Points:       appControllers.NewPointsController(deps.PointsService, deps.RolloverService, lgr),
		Event:        appControllers.NewEventController(deps.EventService),
		Health:       appControllers.NewHealthController(dbPool, Version),
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) (*gin.Engine, error) {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	if err := validation.RegisterWithGin(); err != nil {
		return nil, fmt.Errorf("failed to register validation rules: %w", err)
	}

	router := gin.New()
	router.Use(
		appMiddleware.Recovery(lgr),
		appMiddleware.RequestLogger(logger.Component("http")),
		appMiddleware.Metrics(deps.Metrics),
		cors.New(cors.Config{
			AllowOrigins:     cfg.Server.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	)

	if strings.ToLower(cfg.Storage.Driver) != "s3" {
		router.Static(uploadsPath, cfg.Storage.LocalPath)
		lgr.Info().Str("path", cfg.Storage.LocalPath).Msg("Static file serving configured for uploads directory")
	}

	if deps.Metrics != nil {
		router.GET(cfg.Metrics.Path, gin.WrapH(deps.Metrics.Handler()))
	}

	appRoutes.SetupRouter(router, deps.Controllers, deps.WSHandler, deps.AuthMiddleware)

	return router, nil
}
