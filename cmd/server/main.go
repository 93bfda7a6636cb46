package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hamroengineering/hamro/internal/config"
	"github.com/hamroengineering/hamro/internal/handler"
	"github.com/hamroengineering/hamro/internal/logger"
	"github.com/hamroengineering/hamro/internal/middleware"
	"github.com/hamroengineering/hamro/internal/model"
	"github.com/hamroengineering/hamro/internal/repository"
	"github.com/hamroengineering/hamro/internal/service"
	"github.com/hamroengineering/hamro/internal/ws"
	"github.com/hamroengineering/hamro/migrations"
	"github.com/hamroengineering/hamro/pkg/auth"
	"github.com/hamroengineering/hamro/pkg/mailer"
	"github.com/hamroengineering/hamro/pkg/notification"
	"github.com/hamroengineering/hamro/pkg/storage"
	"github.com/hamroengineering/hamro/web"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// @title           Hamro Engineering API
// @version         1.0
// @description     Entrance exam preparation: question bank, mock tests, subscriptions, notifications and study resources.

// @contact.name   API Support
// @contact.email  support@hamroengineering.com

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg := config.Load()
	logger.Init(cfg.App.Env, cfg.App.LogLevel)
	log.Info().Str("env", cfg.App.Env).Msg("🚀 Starting Hamro Engineering API")

	app := fx.New(
		fx.Supply(cfg),
		fx.NopLogger,

		// Infrastructure
		fx.Provide(
			NewDatabase,
			NewRedis,
			NewBlacklist,
			NewJWTManager,
			NewMailer,
			NewStorage,
			NewPusher,
			NewHub,
			NewGinEngine,
		),

		// Repositories
		fx.Provide(
			repository.NewUserRepository,
			repository.NewOTPRepository,
			repository.NewCollegeRepository,
			repository.NewQuestionRepository,
			repository.NewMockTestRepository,
			repository.NewAttemptRepository,
			repository.NewSubscriptionRepository,
			repository.NewTransactionRepository,
			repository.NewNotificationRepository,
			repository.NewResourceRepository,
			repository.NewAnalyticsRepository,
		),

		// Services
		fx.Provide(
			func(
				userRepo repository.UserRepository,
				otpRepo repository.OTPRepository,
				jwtManager *auth.JWTManager,
				mail *mailer.Mailer,
				blacklist auth.Blacklist,
				store storage.Storage,
				cfg *config.Config,
			) *service.AuthService {
				return service.NewAuthService(userRepo, otpRepo, jwtManager, mail, blacklist, store, service.OTPPolicy{
					ExpiryMinutes: cfg.OTP.ExpiryMinutes,
					RateLimit:     cfg.OTP.RateLimit,
				})
			},
			func(
				notifRepo repository.NotificationRepository,
				userRepo repository.UserRepository,
				hub *ws.Hub,
				pusher *notification.Pusher,
				mail *mailer.Mailer,
			) *service.NotificationService {
				return service.NewNotificationService(notifRepo, userRepo, hub, pusher, mail)
			},
			func(
				notifRepo repository.NotificationRepository,
				attemptRepo repository.AttemptRepository,
				notifier *service.NotificationService,
			) *service.AchievementService {
				return service.NewAchievementService(notifRepo, attemptRepo, notifier)
			},
			func(subRepo repository.SubscriptionRepository, notifier *service.NotificationService) *service.SubscriptionService {
				return service.NewSubscriptionService(subRepo, notifier)
			},
			func(
				txnRepo repository.TransactionRepository,
				subRepo repository.SubscriptionRepository,
				notifier *service.NotificationService,
			) *service.PaymentService {
				return service.NewPaymentService(txnRepo, subRepo, notifier)
			},
			func(
				mockRepo repository.MockTestRepository,
				attemptRepo repository.AttemptRepository,
				questionRepo repository.QuestionRepository,
				userRepo repository.UserRepository,
				subscriptions *service.SubscriptionService,
				notifier *service.NotificationService,
				achievements *service.AchievementService,
			) *service.AttemptService {
				return service.NewAttemptService(mockRepo, attemptRepo, questionRepo, userRepo, subscriptions, notifier, achievements)
			},
			func(resourceRepo repository.ResourceRepository, store storage.Storage, subscriptions *service.SubscriptionService) *service.ResourceService {
				return service.NewResourceService(resourceRepo, store, subscriptions)
			},
			service.NewCollegeService,
			service.NewQuestionService,
			service.NewMockTestService,
			service.NewAnalyticsService,
		),

		// Handlers
		fx.Provide(
			func(authService *service.AuthService, cfg *config.Config) *handler.AuthHandler {
				return handler.NewAuthHandler(authService, int(cfg.JWT.Expiry.Seconds()), cfg.App.IsProduction())
			},
			func(hub *ws.Hub, jwtManager *auth.JWTManager, blacklist auth.Blacklist, cfg *config.Config) *handler.WSHandler {
				return handler.NewWSHandler(hub, jwtManager, blacklist, cfg.CORS.Origins)
			},
			func(
				authService *service.AuthService,
				subscriptions *service.SubscriptionService,
				mockTests *service.MockTestService,
				attempts *service.AttemptService,
				notifications *service.NotificationService,
				questions *service.QuestionService,
				colleges *service.CollegeService,
				mail *mailer.Mailer,
				cfg *config.Config,
			) *handler.WebsiteHandler {
				return handler.NewWebsiteHandler(authService, subscriptions, mockTests, attempts, notifications, questions, colleges, mail, cfg.Mail.From)
			},
			handler.NewUploadHandler,
			handler.NewCollegeHandler,
			handler.NewQuestionHandler,
			handler.NewMockTestHandler,
			handler.NewPaymentHandler,
			handler.NewNotificationHandler,
			handler.NewResourceHandler,
			handler.NewAnalyticsHandler,
		),

		fx.Invoke(
			RunMigrations,
			WireHubEvents,
			RegisterRoutes,
			StartServer,
		),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("❌ Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("🛑 Shutting down server...")

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		log.Error().Err(err).Msg("❌ Forced shutdown")
		return
	}
	log.Info().Msg("✅ Server exited gracefully")
}

// ==================== Infrastructure ====================

func NewDatabase(lc fx.Lifecycle, cfg *config.Config) (*gorm.DB, error) {
	level := gormlogger.Info
	if cfg.App.IsProduction() {
		level = gormlogger.Warn
	}

	db, err := gorm.Open(postgres.Open(cfg.DB.DSN()), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "connect to database")
	}
	log.Info().Msg("✅ Connected to PostgreSQL")

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})
	return db, nil
}

// RunMigrations applies the embedded SQL migrations, falling back to
// AutoMigrate when they cannot run
func RunMigrations(db *gorm.DB, cfg *config.Config) error {
	err := migrations.Run(cfg.DB.URL())
	if err == nil {
		return nil
	}
	log.Warn().Err(err).Msg("⚠️ Migration warning")
	log.Info().Msg("📦 Falling back to GORM AutoMigrate...")

	if err := db.AutoMigrate(
		&model.College{},
		&model.User{},
		&model.StudentProfile{},
		&model.LoginAttempt{},
		&model.UserDevice{},
		&model.OTPCode{},
		&model.EngineeringProgram{},
		&model.EntranceExam{},
		&model.Subject{},
		&model.Topic{},
		&model.Question{},
		&model.QuestionOption{},
		&model.BookmarkedQuestion{},
		&model.MockTest{},
		&model.MockTestQuestion{},
		&model.MockTestAttempt{},
		&model.QuestionAttempt{},
		&model.SubscriptionPlan{},
		&model.UserSubscription{},
		&model.PaymentTransaction{},
		&model.PaymentGateway{},
		&model.Refund{},
		&model.Notification{},
		&model.Announcement{},
		&model.UserNotificationPreference{},
		&model.Achievement{},
		&model.UserAchievement{},
		&model.University{},
		&model.ResourceCategory{},
		&model.Resource{},
	); err != nil {
		return errors.Wrap(err, "auto migrate")
	}

	// AutoMigrate cannot express partial indexes
	return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_attempt_one_in_progress
		ON mock_test_attempts (user_id, mock_test_id) WHERE status = 'in_progress'`).Error
}

func NewRedis(lc fx.Lifecycle, cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "connect to redis")
	}
	log.Info().Msg("✅ Connected to Redis")

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return rdb.Close() },
	})
	return rdb, nil
}

func NewBlacklist(rdb *redis.Client) auth.Blacklist {
	return auth.NewRedisBlacklist(rdb)
}

func NewJWTManager(cfg *config.Config) *auth.JWTManager {
	return auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Expiry)
}

// NewMailer picks the email backend named by MAIL_BACKEND
func NewMailer(cfg *config.Config) *mailer.Mailer {
	var sender mailer.Sender
	switch cfg.Mail.Backend {
	case "sendgrid":
		sender = mailer.NewSendGridSender(cfg.Mail.SendGridAPIKey, cfg.Mail.FromName, cfg.Mail.From)
		log.Info().Msg("📧 Email via SendGrid")
	default:
		sender = mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:     cfg.Mail.SMTPHost,
			Port:     cfg.Mail.SMTPPort,
			Username: cfg.Mail.SMTPUsername,
			Password: cfg.Mail.SMTPPassword,
			From:     cfg.Mail.From,
			FromName: cfg.Mail.FromName,
		})
		log.Info().Str("host", cfg.Mail.SMTPHost).Str("port", cfg.Mail.SMTPPort).Msg("📧 Email via SMTP")
	}
	return mailer.New(sender, cfg.App.Name, cfg.App.BaseURL)
}

func NewStorage(cfg *config.Config) (storage.Storage, error) {
	store, err := storage.NewMinIO(storage.Config{
		Endpoint:  cfg.MinIO.Endpoint,
		PublicURL: cfg.MinIO.PublicURL,
		AccessKey: cfg.MinIO.AccessKey,
		SecretKey: cfg.MinIO.SecretKey,
		Bucket:    cfg.MinIO.Bucket,
		UseSSL:    cfg.MinIO.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "connect to minio")
	}
	log.Info().Msg("✅ Connected to MinIO")
	return store, nil
}

func NewPusher(cfg *config.Config, userRepo repository.UserRepository) (*notification.Pusher, error) {
	return notification.NewPusher(cfg.Firebase.CredentialsFile, userRepo)
}

// NewHub runs the WebSocket hub for the lifetime of the application
func NewHub(lc fx.Lifecycle, rdb *redis.Client) *ws.Hub {
	hub := ws.NewHub(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go hub.Run(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
	return hub
}

// WireHubEvents routes events sent by clients to the notification service
func WireHubEvents(hub *ws.Hub, notifications *service.NotificationService) {
	hub.OnClientEvent(notifications.HandleClientEvent)
}

func NewGinEngine(cfg *config.Config) (*gin.Engine, error) {
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := handler.RegisterValidators(); err != nil {
		return nil, errors.Wrap(err, "register validators")
	}

	tmpl, err := web.Templates()
	if err != nil {
		return nil, errors.Wrap(err, "parse templates")
	}

	r := gin.New()
	r.Use(middleware.RequestLogger())
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware(cfg.CORS.Origins))
	r.SetHTMLTemplate(tmpl)
	return r, nil
}

// StartServer serves the router and drains in-flight requests on shutdown
func StartServer(lc fx.Lifecycle, router *gin.Engine, cfg *config.Config) {
	srv := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal().Err(err).Msg("❌ Server failed")
				}
			}()
			log.Info().Msgf("🌐 Hamro API running on http://0.0.0.0:%s", cfg.App.Port)
			log.Info().Msgf("📋 API docs: http://0.0.0.0:%s/swagger/index.html", cfg.App.Port)
			log.Info().Msgf("🔌 WebSocket: ws://0.0.0.0:%s/ws?token=<jwt>", cfg.App.Port)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
