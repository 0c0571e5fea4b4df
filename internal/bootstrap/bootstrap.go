package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	appControllers "github.com/yigit/feedbackhub/internal/app/controllers"
	appMigrations "github.com/yigit/feedbackhub/internal/app/migrations"
	appRepos "github.com/yigit/feedbackhub/internal/app/repositories"
	appRoutes "github.com/yigit/feedbackhub/internal/app/routes"
	appServices "github.com/yigit/feedbackhub/internal/app/services"
	"github.com/yigit/feedbackhub/internal/config"
	"github.com/yigit/feedbackhub/internal/db"
	appMiddleware "github.com/yigit/feedbackhub/internal/middleware"
	pkgAuth "github.com/yigit/feedbackhub/internal/pkg/auth"
	"github.com/yigit/feedbackhub/internal/pkg/events"
	"github.com/yigit/feedbackhub/internal/pkg/keycodec"
	"github.com/yigit/feedbackhub/internal/pkg/logger"
	"github.com/yigit/feedbackhub/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Codec                      keycodec.Codec
	Publisher                  events.Publisher
	Repos                      *appRepos.Repositories
	FeedbackQuestionService    appServices.FeedbackQuestionService
	FeedbackQuestionController *appControllers.FeedbackQuestionController
	JWTService                 *pkgAuth.JWTService
	AuthMiddleware             *appMiddleware.AuthMiddleware
	Logger                     zerolog.Logger
}

// ConfigPath returns the config file location, overridable with CONFIG_PATH
func ConfigPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return filepath.Join("configs", "config.yaml")
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(ConfigPath())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	lgr := logger.Configure(logger.Config{
		Level:   logger.LogLevel(strings.ToLower(cfg.Logging.Level)),
		Format:  logger.Format(cfg.Logging.Format),
		Service: "feedbackhub",
	})
	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs migrations.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	migrationsDir := "migrations"
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		database.Close()
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	migrator := appMigrations.NewMigrator(database.Pool, lgr.With().Str("component", "migrator").Logger())
	if err := migrator.MigrateFromDirectory(ctx, migrationsDir); err != nil {
		database.Close()
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	return database, nil
}

// NewCodec builds the external id encoder from the datastore settings
func NewCodec(cfg *config.Config) keycodec.Codec {
	enc := keycodec.NewLegacyURLSafeEncoder(cfg.Datastore.AppID, cfg.Datastore.Namespace)
	enc.EmitEmptyNamespace = cfg.Datastore.EmitEmptyNamespace
	return enc
}

// NewPublisher returns a Kafka producer when events are enabled, a no-op otherwise
func NewPublisher(cfg *config.Config, lgr zerolog.Logger) (events.Publisher, error) {
	if !cfg.Events.Enabled {
		lgr.Info().Msg("Feedback question events disabled")
		return events.NopPublisher{}, nil
	}

	producer, err := events.NewProducer(events.Config{
		Brokers: cfg.Events.Brokers,
		Topic:   cfg.Events.Topic,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create event producer: %w", err)
	}
	lgr.Info().Strs("brokers", cfg.Events.Brokers).Str("topic", cfg.Events.Topic).Msg("Feedback question events enabled")
	return producer, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Codec = NewCodec(cfg)

	publisher, err := NewPublisher(cfg, lgr)
	if err != nil {
		return nil, err
	}
	deps.Publisher = publisher

	deps.Repos = appRepos.NewRepositories(database, deps.Codec)

	deps.FeedbackQuestionService = appServices.NewFeedbackQuestionService(
		deps.Repos.FeedbackQuestionRepository,
		deps.Codec,
		deps.Publisher,
		lgr.With().Str("component", "feedback_question_service").Logger(),
	)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: cfg.AccessTokenTTL(),
		TokenIssuer:    cfg.JWT.Issuer,
	})
	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.FeedbackQuestionController = appControllers.NewFeedbackQuestionController(deps.FeedbackQuestionService)

	return deps, nil
}

// SeedDemoData creates the demo course questions through the question service.
func SeedDemoData(deps *Dependencies, lgr zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return seed.CreateDemoQuestions(ctx, deps.FeedbackQuestionService, lgr.With().Str("component", "seed").Logger())
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

	if err := appMiddleware.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		appMiddleware.RequestID(),
		appMiddleware.RequestLogger(lgr.With().Str("component", "http").Logger()),
	)

	appRoutes.SetupRouter(router, deps.FeedbackQuestionController, deps.AuthMiddleware)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router, nil
}
